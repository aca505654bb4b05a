package shortlinks

import (
	"context"
	"math/rand/v2"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedPath = regexp.MustCompile(`^[a-z0-9]+$`)

type recordingChecker struct {
	taken      func(path string) bool
	candidates []string
}

func (r *recordingChecker) Check(_ context.Context, path string, _ uuid.UUID) CollisionResult {
	r.candidates = append(r.candidates, path)
	res := CollisionResult{Path: path}
	if r.taken(path) {
		res.HasCollision = true
		res.Collisions = []Collision{{Resource: path}}
	}
	return res
}

func TestGenerateGrowsLengthPerAttempt(t *testing.T) {
	checker := &recordingChecker{taken: func(path string) bool { return len(path) < 9 }}
	gen, err := NewGenerator(checker, rand.New(rand.NewPCG(1, 2)), nil)
	require.NoError(t, err)

	path, err := gen.Generate(context.Background(), 6, 10)
	require.NoError(t, err)
	assert.Len(t, path, 9)
	require.Len(t, checker.candidates, 4)
	for i, candidate := range checker.candidates {
		assert.Len(t, candidate, 6+i)
		assert.Regexp(t, generatedPath, candidate)
	}
}

func TestGenerateFallsBackToTimestamp(t *testing.T) {
	now := time.UnixMilli(1_760_000_000_123)
	checker := &recordingChecker{taken: func(string) bool { return true }}
	gen, err := NewGenerator(checker, rand.New(rand.NewPCG(3, 4)), func() time.Time { return now })
	require.NoError(t, err)

	path, err := gen.Generate(context.Background(), 6, 10)
	require.NoError(t, err)
	assert.Equal(t, "link-"+strconv.FormatInt(now.UnixMilli(), 36), path)
	assert.Len(t, checker.candidates, 10)
	assert.True(t, ValidatePathFormat(path).Valid)
}

func TestGenerateAppliesDefaults(t *testing.T) {
	checker := &recordingChecker{taken: func(string) bool { return false }}
	gen, err := NewGenerator(checker, nil, nil)
	require.NoError(t, err)

	path, err := gen.Generate(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, path, DefaultBaseLength)
}

func TestGenerateStopsOnCanceledContext(t *testing.T) {
	checker := &recordingChecker{taken: func(string) bool { return true }}
	gen, err := NewGenerator(checker, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gen.Generate(ctx, 6, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, checker.candidates)
}

// The fixture is drawn from the same seeded stream as the generator, so the
// first candidate collides and forces a retry.
func TestGenerateNeverReturnsCollidingPath(t *testing.T) {
	const trials = 1000

	seed := rand.New(rand.NewPCG(42, 99))
	fixture := &Generator{random: seed}
	links := newMemLinks()
	for i := 0; i < 300; i++ {
		links.add(fixture.candidate(DefaultBaseLength))
	}

	checker := newTestChecker(t, DefaultLookups([]string{"shop", "admin"}, &stubContent{}, links), CheckerOptions{})
	gen, err := NewGenerator(checker, rand.New(rand.NewPCG(42, 99)), nil)
	require.NoError(t, err)

	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < trials; i++ {
		path, err := gen.Generate(ctx, DefaultBaseLength, DefaultMaxAttempts)
		require.NoError(t, err)
		require.True(t, ValidatePathFormat(path).Valid, path)
		require.False(t, checker.Check(ctx, path, uuid.Nil).HasCollision, path)
		require.False(t, seen[path], "duplicate path %s", path)
		seen[path] = true
		links.add(path)
	}
}

func TestNewGeneratorRequiresChecker(t *testing.T) {
	_, err := NewGenerator(nil, nil, nil)
	assert.Error(t, err)
}
