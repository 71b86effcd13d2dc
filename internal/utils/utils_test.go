package utils

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationEnv(t *testing.T) {
	cases := map[string]time.Duration{
		"10":      10 * time.Second,
		"10s":     10 * time.Second,
		"5m":      5 * time.Minute,
		`"24h"`:   24 * time.Hour,
		"'90'":    90 * time.Second,
		" 1m30s ": 90 * time.Second,
	}
	for in, want := range cases {
		got, err := ParseDurationEnv(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", `""`, "soon", "10 parsecs"} {
		_, err := ParseDurationEnv(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsPGUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsPGUniqueViolation(err))
	assert.False(t, IsPGUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsPGUniqueViolation(errors.New("boom")))
}
