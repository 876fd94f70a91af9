package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedGenerator(rolls ...int) *CodeGenerator {
	i := 0
	return &CodeGenerator{
		Now: func() time.Time { return time.UnixMilli(1700000000123) },
		IntN: func(n int) int {
			v := rolls[i%len(rolls)]
			i++
			return v
		},
	}
}

func TestCodeGenerator_Candidate(t *testing.T) {
	assert.Equal(t, "17000000001230042", fixedGenerator(42).Candidate())
	assert.Equal(t, "17000000001239999", fixedGenerator(9999).Candidate())
}

func TestCodeGenerator_RetriesOnCollision(t *testing.T) {
	g := fixedGenerator(1, 1, 2)
	taken := map[string]bool{"17000000001230001": true}

	code, err := g.Generate(context.Background(), func(c string) (bool, error) { return taken[c], nil })
	require.NoError(t, err)
	assert.Equal(t, "17000000001230002", code)
}

func TestCodeGenerator_Exhausted(t *testing.T) {
	calls := 0
	_, err := fixedGenerator(7).Generate(context.Background(), func(string) (bool, error) {
		calls++
		return true, nil
	})
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.Equal(t, maxCodeAttempts, calls)
}

func TestCodeGenerator_LookupError(t *testing.T) {
	_, err := fixedGenerator(7).Generate(context.Background(), func(string) (bool, error) {
		return false, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}
