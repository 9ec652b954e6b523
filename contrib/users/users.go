// Package users is a table adapter for user accounts. Passwords are
// bcrypt-hashed before they are written, and Authenticate checks a
// username and password against the stored hash and the active flag.
package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"github.com/syssam/tabula"
)

var (
	// ErrInvalidCredentials is returned by Authenticate for an unknown
	// username or a wrong password.
	ErrInvalidCredentials = errors.New("users: invalid credentials")

	// ErrInactive is returned by Authenticate for a deactivated account.
	ErrInactive = errors.New("users: account is inactive")
)

// Schema is the users table.
var Schema = tabula.Schema{
	Name:     "User",
	IDPrefix: "usr_",
	Fields:   []string{"username", "password", "email", "active", "created_at"},
}

// Users is the users table adapter.
type Users struct {
	*tabula.Table
	cost  int
	dummy func() []byte
}

// Option configures Users.
type Option func(*config)

type config struct {
	cost  int
	table []tabula.TableOption
}

// WithCost sets the bcrypt cost. Defaults to bcrypt.DefaultCost.
func WithCost(cost int) Option {
	return func(c *config) {
		c.cost = cost
	}
}

// WithTableOptions passes options to the underlying table.
func WithTableOptions(opts ...tabula.TableOption) Option {
	return func(c *config) {
		c.table = append(c.table, opts...)
	}
}

// New returns the users adapter on conn.
func New(conn tabula.Connector, opts ...Option) (*Users, error) {
	c := config{cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(&c)
	}
	t, err := tabula.NewTable(conn, Schema, c.table...)
	if err != nil {
		return nil, err
	}
	u := &Users{Table: t, cost: c.cost}
	u.dummy = sync.OnceValue(func() []byte {
		hash, err := bcrypt.GenerateFromPassword([]byte("tabula-users-dummy"), u.cost)
		if err != nil {
			return nil
		}
		return hash
	})
	return u, nil
}

// dummyHash is compared against when no user matches, at the adapter's cost.
func (u *Users) dummyHash() []byte {
	return u.dummy()
}

// Create inserts a new user, hashing its password.
func (u *Users) Create(ctx context.Context, rec tabula.Record) (tabula.Record, error) {
	rec, err := u.prepare(rec)
	if err != nil {
		return tabula.Record{}, err
	}
	return u.Table.Create(ctx, rec)
}

// Update upserts a user, hashing its password when one is given.
func (u *Users) Update(ctx context.Context, rec tabula.Record) (tabula.Record, error) {
	rec, err := u.prepare(rec)
	if err != nil {
		return tabula.Record{}, err
	}
	return u.Table.Update(ctx, rec)
}

// Save is an alias of Update.
//
// Deprecated: Use Update.
func (u *Users) Save(ctx context.Context, rec tabula.Record) (tabula.Record, error) {
	return u.Update(ctx, rec)
}

// GetByEmail returns the user with the address, compared case-insensitively.
func (u *Users) GetByEmail(ctx context.Context, email string) (tabula.Record, error) {
	return u.Table.GetByEmail(ctx, normalizeEmail(email))
}

// GetByUsername returns the user with the username, or an empty Record.
func (u *Users) GetByUsername(ctx context.Context, username string) (tabula.Record, error) {
	return u.GetBy(ctx, "username", username)
}

// Authenticate returns the user matching username and password, without
// its password hash.
func (u *Users) Authenticate(ctx context.Context, username, password string) (tabula.Record, error) {
	rec, err := u.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		// Unknown usernames cost one comparison too.
		_ = bcrypt.CompareHashAndPassword(u.dummyHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.String("password")), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !isActive(rec["active"]) {
		return nil, ErrInactive
	}
	delete(rec, "password")
	return rec, nil
}

// prepare hashes a plaintext password and normalizes the email of a copy
// of rec.
func (u *Users) prepare(rec tabula.Record) (tabula.Record, error) {
	rec = rec.Clone()
	if pw, ok := rec["password"].(string); ok && pw != "" && !isHash(pw) {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), u.cost)
		if err != nil {
			return nil, fmt.Errorf("users: hashing password: %w", err)
		}
		rec["password"] = string(hash)
	}
	if email, ok := rec["email"].(string); ok {
		rec["email"] = normalizeEmail(email)
	}
	return rec, nil
}

// isHash reports whether s already is a bcrypt hash.
func isHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

// normalizeEmail trims and case-folds an address.
func normalizeEmail(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// isActive interprets the active column. Only a value that reads as a
// non-zero number or true is active; NULL and unknown types are not.
func isActive(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case int32:
		return v != 0
	case uint8:
		return v != 0
	case uint64:
		return v != 0
	case float64:
		return v != 0
	case []byte:
		return isActive(string(v))
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil && n != 0
	}
	return false
}
