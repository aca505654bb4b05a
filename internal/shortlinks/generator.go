package shortlinks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultBaseLength  = 6
	DefaultMaxAttempts = 10

	pathAlphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
	fallbackPrefix = "link-"
)

// Random is the randomness source for candidate paths. Paths are not secrets.
type Random interface {
	IntN(n int) int
}

type defaultRandom struct{}

func (defaultRandom) IntN(n int) int { return rand.IntN(n) }

type collisionChecker interface {
	Check(ctx context.Context, path string, excludeID uuid.UUID) CollisionResult
}

// Generator produces random short paths that no namespace owns yet.
type Generator struct {
	checker collisionChecker
	random  Random
	now     func() time.Time
}

func NewGenerator(checker collisionChecker, random Random, now func() time.Time) (*Generator, error) {
	if checker == nil {
		return nil, fmt.Errorf("collision checker required")
	}
	if random == nil {
		random = defaultRandom{}
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{checker: checker, random: random, now: now}, nil
}

// Generate tries maxAttempts random candidates, each one character longer than
// the last, then falls back to a timestamp-derived path.
func (g *Generator) Generate(ctx context.Context, baseLength, maxAttempts int) (string, error) {
	if baseLength < MinPathLength {
		baseLength = DefaultBaseLength
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		length := baseLength + attempt
		if length > MaxPathLength {
			break
		}
		candidate := g.candidate(length)
		if !g.checker.Check(ctx, candidate, uuid.Nil).HasCollision {
			return candidate, nil
		}
	}
	return fallbackPrefix + strconv.FormatInt(g.now().UnixMilli(), 36), nil
}

func (g *Generator) candidate(length int) string {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(pathAlphabet[g.random.IntN(len(pathAlphabet))])
	}
	return b.String()
}
