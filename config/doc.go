// Package config loads the database and logging settings of a process.
//
// Settings are resolved in order: built-in defaults, the YAML file, then
// TABULA_* environment variables:
//
//	TABULA_DB_DIALECT   mysql, postgres or sqlite
//	TABULA_DB_HOST      server host
//	TABULA_DB_PORT      server port
//	TABULA_DB_NAME      database name (file path for sqlite)
//	TABULA_DB_USER      user name
//	TABULA_DB_PASSWORD  password
//	TABULA_DB_SOCKET    unix socket, used instead of host and port
//	TABULA_DB_CHARSET   session character set (default utf8mb4)
//	TABULA_DB_SSLMODE   postgres sslmode (default disable)
//	TABULA_LOG_LEVEL    debug, info, warn or error
//
// Passwords should come from the environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/tabula.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	provider.SetDefaultConfig(cfg.Database)
package config
