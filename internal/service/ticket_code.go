package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

const maxCodeAttempts = 32

// CodeGenerator produces ticket codes: the current Unix time in
// milliseconds followed by a zero-padded random number in [0, 10000).
type CodeGenerator struct {
	Now  func() time.Time
	IntN func(n int) int
}

// NewCodeGenerator returns a generator on the wall clock and the
// default random source.
func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{Now: time.Now, IntN: rand.Intn}
}

// Candidate returns one code without checking uniqueness.
func (g *CodeGenerator) Candidate() string {
	return fmt.Sprintf("%d%04d", g.Now().UnixMilli(), g.IntN(10000))
}

// Generate returns a code for which exists reports false.  It gives up
// with ErrCodeSpaceExhausted after a bounded number of collisions.
func (g *CodeGenerator) Generate(ctx context.Context, exists func(code string) (bool, error)) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code := g.Candidate()
		taken, err := exists(code)
		if err != nil {
			return "", fmt.Errorf("check ticket code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
