package tabula_test

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]+$`)

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("entropy pool closed") }

func TestGenerateID(t *testing.T) {
	t.Parallel()

	for _, length := range []int{1, 2, 7, 8, 13, 16, 32} {
		id, err := tabula.GenerateID("usr_", length)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(id, "usr_"))
		suffix := strings.TrimPrefix(id, "usr_")
		assert.Len(t, suffix, length)
		assert.Regexp(t, hexRe, suffix)
	}
}

func TestGenerateIDDefaultLength(t *testing.T) {
	t.Parallel()

	id, err := tabula.GenerateID("", 0)
	require.NoError(t, err)
	assert.Len(t, id, tabula.DefaultIDLength)
	assert.Regexp(t, hexRe, id)
}

func TestGenerateIDNoCollisions(t *testing.T) {
	t.Parallel()

	const draws = 10000
	seen := make(map[string]struct{}, draws)
	for range draws {
		id, err := tabula.GenerateID("p", tabula.DefaultIDLength)
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestHexIDsRandomSourceUnavailable(t *testing.T) {
	t.Parallel()

	id, err := tabula.HexIDs{Rand: brokenReader{}}.NewID("x")
	require.Error(t, err)
	assert.Empty(t, id)
	assert.ErrorIs(t, err, tabula.ErrRandomSourceUnavailable)
	assert.Contains(t, err.Error(), "entropy pool closed")
}

func TestHexIDsShortRead(t *testing.T) {
	t.Parallel()

	_, err := tabula.HexIDs{Length: 8, Rand: strings.NewReader("ab")}.NewID("")
	assert.ErrorIs(t, err, tabula.ErrRandomSourceUnavailable)
}

func TestUUIDs(t *testing.T) {
	t.Parallel()

	id, err := tabula.UUIDs{}.NewID("ord_")
	require.NoError(t, err)
	assert.Regexp(t, `^ord_[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`, id)
}
