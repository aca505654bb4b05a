package shortlinks

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkcart/storefront-core/pkg/db/models"
	"github.com/linkcart/storefront-core/pkg/enums"
	"github.com/linkcart/storefront-core/pkg/logger"
)

type stubContent struct {
	posts    map[string]*models.BlogPost
	projects map[string]*models.Project
	certs    map[string]*models.Certificate
	blogErr  error
}

func (s *stubContent) FindBlogPostBySlug(_ context.Context, slug string) (*models.BlogPost, error) {
	if s.blogErr != nil {
		return nil, s.blogErr
	}
	return s.posts[slug], nil
}

func (s *stubContent) FindProjectBySlug(_ context.Context, slug string) (*models.Project, error) {
	return s.projects[slug], nil
}

func (s *stubContent) FindCertificateByCredential(_ context.Context, id string) (*models.Certificate, error) {
	return s.certs[id], nil
}

type memLinks struct {
	mu    sync.Mutex
	paths map[string]*models.Shortlink
	err   error
}

func newMemLinks(paths ...string) *memLinks {
	m := &memLinks{paths: map[string]*models.Shortlink{}}
	for _, p := range paths {
		m.add(p)
	}
	return m
}

func (m *memLinks) add(path string) *models.Shortlink {
	m.mu.Lock()
	defer m.mu.Unlock()
	link := &models.Shortlink{ID: uuid.New(), Path: path, DestinationURL: "https://example.com/" + path, IsActive: true}
	m.paths[path] = link
	return link
}

func (m *memLinks) FindByPath(_ context.Context, path string) (*models.Shortlink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.paths[path], nil
}

type funcLookup struct {
	ns   enums.CollisionNamespace
	find func(ctx context.Context, path string) (*Collision, error)
}

func (f funcLookup) Namespace() enums.CollisionNamespace { return f.ns }

func (f funcLookup) Find(ctx context.Context, path string, _ uuid.UUID) (*Collision, error) {
	return f.find(ctx, path)
}

func testLogger(buf *bytes.Buffer) *logger.Logger {
	opts := logger.Options{ServiceName: "shortlinks-test"}
	if buf != nil {
		opts.Output = buf
	}
	return logger.New(opts)
}

func newTestChecker(t *testing.T, lookups []Lookup, opts CheckerOptions) *Checker {
	t.Helper()
	checker, err := NewChecker(lookups, opts, nil, testLogger(nil))
	require.NoError(t, err)
	return checker
}

func TestCheckerStaticNamespace(t *testing.T) {
	checker := newTestChecker(t, []Lookup{NewStaticLookup([]string{"Shop", "admin"})}, CheckerOptions{})
	ctx := context.Background()

	cases := map[string]bool{
		"shop":          true,
		" SHOP ":        true,
		"admin/reports": true,
		"reserved-x":    true,
		"reserved_sale": true,
		"shopping":      false,
		"my-shop":       false,
		"reservedx":     false,
	}
	for path, want := range cases {
		got := checker.Check(ctx, path, uuid.Nil)
		assert.Equal(t, want, got.HasCollision, path)
		if want {
			assert.Equal(t, enums.CollisionNamespaceStatic, got.First().Namespace, path)
		}
	}
}

func TestCheckerSortsByPriorityRegardlessOfArrival(t *testing.T) {
	content := &stubContent{
		posts:    map[string]*models.BlogPost{"promo": {ID: uuid.New(), Title: "Promo post"}},
		projects: map[string]*models.Project{"promo": {ID: uuid.New(), Title: "Promo project"}},
	}
	links := newMemLinks("promo")
	lookups := DefaultLookups(nil, content, links)

	// delay the higher-priority namespaces so the shortlink answer lands first
	delayed := make([]Lookup, len(lookups))
	for i, l := range lookups {
		l := l
		delay := time.Duration(len(lookups)-i) * 5 * time.Millisecond
		delayed[i] = funcLookup{ns: l.Namespace(), find: func(ctx context.Context, path string) (*Collision, error) {
			time.Sleep(delay)
			return l.Find(ctx, path, uuid.Nil)
		}}
	}

	res := newTestChecker(t, delayed, CheckerOptions{}).Check(context.Background(), "Promo", uuid.Nil)
	require.True(t, res.HasCollision)
	assert.Equal(t, "promo", res.Path)
	require.Len(t, res.Collisions, 3)
	assert.Equal(t, enums.CollisionNamespaceBlog, res.Collisions[0].Namespace)
	assert.Equal(t, "Promo post", res.Collisions[0].Resource)
	assert.Equal(t, enums.CollisionNamespaceProject, res.Collisions[1].Namespace)
	assert.Equal(t, enums.CollisionNamespaceShortlink, res.Collisions[2].Namespace)
	assert.Equal(t, enums.CollisionNamespaceBlog, res.First().Namespace)
	assert.Empty(t, res.Degraded)
}

func TestCheckerCertificateNamespace(t *testing.T) {
	content := &stubContent{certs: map[string]*models.Certificate{"aws-123": {ID: uuid.New(), Title: "Cloud"}}}
	checker := newTestChecker(t, DefaultLookups(nil, content, newMemLinks()), CheckerOptions{})
	ctx := context.Background()

	for _, path := range []string{"cert-anything", "certificate-2024", "AWS-123"} {
		res := checker.Check(ctx, path, uuid.Nil)
		require.True(t, res.HasCollision, path)
		assert.Equal(t, enums.CollisionNamespaceCertificate, res.First().Namespace, path)
	}
	assert.False(t, checker.Check(ctx, "certs", uuid.Nil).HasCollision)
}

func TestCheckerExcludesOwnShortlink(t *testing.T) {
	links := newMemLinks()
	own := links.add("spring")
	checker := newTestChecker(t, DefaultLookups(nil, &stubContent{}, links), CheckerOptions{})

	assert.True(t, checker.Check(context.Background(), "spring", uuid.Nil).HasCollision)
	assert.False(t, checker.Check(context.Background(), "spring", own.ID).HasCollision)
	assert.True(t, checker.Check(context.Background(), "spring", uuid.New()).HasCollision)
}

func TestCheckerFailsOpenByDefault(t *testing.T) {
	var buf bytes.Buffer
	content := &stubContent{blogErr: errors.New("firestore unavailable")}
	checker, err := NewChecker(DefaultLookups(nil, content, newMemLinks()), CheckerOptions{}, nil, testLogger(&buf))
	require.NoError(t, err)

	res := checker.Check(context.Background(), "spring-sale", uuid.Nil)
	assert.False(t, res.HasCollision)
	assert.Empty(t, res.Collisions)
	assert.Equal(t, []enums.CollisionNamespace{enums.CollisionNamespaceBlog}, res.Degraded)
	assert.True(t, strings.Contains(buf.String(), "collision check degraded"))
	assert.True(t, strings.Contains(buf.String(), "firestore unavailable"))
}

func TestCheckerFailClosedReportsUnavailable(t *testing.T) {
	links := newMemLinks()
	links.err = errors.New("timeout")
	checker := newTestChecker(t, DefaultLookups(nil, &stubContent{}, links), CheckerOptions{FailClosed: true})

	res := checker.Check(context.Background(), "spring-sale", uuid.Nil)
	require.True(t, res.HasCollision)
	assert.Equal(t, enums.CollisionNamespaceShortlink, res.First().Namespace)
	assert.Equal(t, unavailableResource, res.First().Resource)
	assert.Equal(t, []enums.CollisionNamespace{enums.CollisionNamespaceShortlink}, res.Degraded)
}

func TestCheckerTimesOutSlowNamespace(t *testing.T) {
	slow := funcLookup{ns: enums.CollisionNamespaceProject, find: func(ctx context.Context, _ string) (*Collision, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	checker := newTestChecker(t, []Lookup{NewStaticLookup(nil), slow}, CheckerOptions{LookupTimeout: 20 * time.Millisecond})

	started := time.Now()
	res := checker.Check(context.Background(), "spring-sale", uuid.Nil)
	assert.Less(t, time.Since(started), 2*time.Second)
	assert.False(t, res.HasCollision)
	assert.Equal(t, []enums.CollisionNamespace{enums.CollisionNamespaceProject}, res.Degraded)
}

func TestCheckerRecoversPanickingLookup(t *testing.T) {
	bad := funcLookup{ns: enums.CollisionNamespaceBlog, find: func(context.Context, string) (*Collision, error) {
		panic("nil map")
	}}
	res := newTestChecker(t, []Lookup{bad}, CheckerOptions{}).Check(context.Background(), "ok-path", uuid.Nil)
	assert.False(t, res.HasCollision)
	assert.Equal(t, []enums.CollisionNamespace{enums.CollisionNamespaceBlog}, res.Degraded)
}

func TestNewCheckerValidation(t *testing.T) {
	_, err := NewChecker(nil, CheckerOptions{}, nil, testLogger(nil))
	assert.Error(t, err)
	_, err = NewChecker([]Lookup{NewStaticLookup(nil)}, CheckerOptions{}, nil, nil)
	assert.Error(t, err)
}
