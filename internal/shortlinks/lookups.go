package shortlinks

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/linkcart/storefront-core/pkg/db/models"
	"github.com/linkcart/storefront-core/pkg/enums"
)

// Lookup searches a single namespace for a resource that already owns path.
// path is normalized before it reaches a Lookup.
type Lookup interface {
	Namespace() enums.CollisionNamespace
	Find(ctx context.Context, path string, excludeID uuid.UUID) (*Collision, error)
}

var (
	reservedPrefixes    = []string{"reserved-", "reserved_"}
	certificatePrefixes = []string{"cert-", "certificate-"}
)

type contentFinder interface {
	FindBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	FindProjectBySlug(ctx context.Context, slug string) (*models.Project, error)
	FindCertificateByCredential(ctx context.Context, credentialID string) (*models.Certificate, error)
}

type pathFinder interface {
	FindByPath(ctx context.Context, path string) (*models.Shortlink, error)
}

// DefaultLookups returns the five storefront namespaces in priority order.
func DefaultLookups(reserved []string, content contentFinder, links pathFinder) []Lookup {
	return []Lookup{
		NewStaticLookup(reserved),
		blogLookup{content: content},
		projectLookup{content: content},
		certificateLookup{content: content},
		shortlinkLookup{links: links},
	}
}

// StaticLookup guards the storefront's own routes.
type StaticLookup struct {
	reserved map[string]struct{}
}

func NewStaticLookup(words []string) StaticLookup {
	reserved := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w = NormalizePath(w); w != "" {
			reserved[w] = struct{}{}
		}
	}
	return StaticLookup{reserved: reserved}
}

func (StaticLookup) Namespace() enums.CollisionNamespace { return enums.CollisionNamespaceStatic }

// Find matches a reserved word exactly, a reserved word as the first path
// segment, or one of the reserved- prefixes.
func (s StaticLookup) Find(_ context.Context, path string, _ uuid.UUID) (*Collision, error) {
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return &Collision{Namespace: s.Namespace(), Resource: prefix + "*"}, nil
		}
	}
	segment, _, _ := strings.Cut(path, "/")
	if _, ok := s.reserved[segment]; ok {
		return &Collision{Namespace: s.Namespace(), Resource: segment}, nil
	}
	return nil, nil
}

type blogLookup struct{ content contentFinder }

func (blogLookup) Namespace() enums.CollisionNamespace { return enums.CollisionNamespaceBlog }

func (b blogLookup) Find(ctx context.Context, path string, _ uuid.UUID) (*Collision, error) {
	post, err := b.content.FindBlogPostBySlug(ctx, path)
	if err != nil || post == nil {
		return nil, err
	}
	return &Collision{Namespace: b.Namespace(), Resource: post.Title, ResourceID: post.ID.String()}, nil
}

type projectLookup struct{ content contentFinder }

func (projectLookup) Namespace() enums.CollisionNamespace { return enums.CollisionNamespaceProject }

func (p projectLookup) Find(ctx context.Context, path string, _ uuid.UUID) (*Collision, error) {
	project, err := p.content.FindProjectBySlug(ctx, path)
	if err != nil || project == nil {
		return nil, err
	}
	return &Collision{Namespace: p.Namespace(), Resource: project.Title, ResourceID: project.ID.String()}, nil
}

type certificateLookup struct{ content contentFinder }

func (certificateLookup) Namespace() enums.CollisionNamespace {
	return enums.CollisionNamespaceCertificate
}

func (c certificateLookup) Find(ctx context.Context, path string, _ uuid.UUID) (*Collision, error) {
	for _, prefix := range certificatePrefixes {
		if strings.HasPrefix(path, prefix) {
			return &Collision{Namespace: c.Namespace(), Resource: prefix + "*"}, nil
		}
	}
	cert, err := c.content.FindCertificateByCredential(ctx, path)
	if err != nil || cert == nil {
		return nil, err
	}
	return &Collision{Namespace: c.Namespace(), Resource: cert.Title, ResourceID: cert.ID.String()}, nil
}

type shortlinkLookup struct{ links pathFinder }

func (shortlinkLookup) Namespace() enums.CollisionNamespace { return enums.CollisionNamespaceShortlink }

// Find ignores excludeID so a record can keep its own path on edit.
func (s shortlinkLookup) Find(ctx context.Context, path string, excludeID uuid.UUID) (*Collision, error) {
	link, err := s.links.FindByPath(ctx, path)
	if err != nil || link == nil {
		return nil, err
	}
	if excludeID != uuid.Nil && link.ID == excludeID {
		return nil, nil
	}
	return &Collision{Namespace: s.Namespace(), Resource: link.Path, ResourceID: link.ID.String()}, nil
}
