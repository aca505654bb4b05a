package enums

import (
	"fmt"
	"math"
)

// CollisionNamespace identifies a family of resources that can claim a short path.
type CollisionNamespace string

const (
	CollisionNamespaceStatic      CollisionNamespace = "static"
	CollisionNamespaceBlog        CollisionNamespace = "blog"
	CollisionNamespaceProject     CollisionNamespace = "project"
	CollisionNamespaceCertificate CollisionNamespace = "certificate"
	CollisionNamespaceShortlink   CollisionNamespace = "shortlink"
)

// Ordered by reporting priority.
var validCollisionNamespaces = []CollisionNamespace{
	CollisionNamespaceStatic,
	CollisionNamespaceBlog,
	CollisionNamespaceProject,
	CollisionNamespaceCertificate,
	CollisionNamespaceShortlink,
}

// CollisionNamespaces returns every namespace in reporting priority order.
func CollisionNamespaces() []CollisionNamespace {
	return append([]CollisionNamespace(nil), validCollisionNamespaces...)
}

// Priority ranks namespaces for choosing the collision shown first; lower wins.
// Unknown namespaces sort last.
func (c CollisionNamespace) Priority() int {
	for i, candidate := range validCollisionNamespaces {
		if candidate == c {
			return i
		}
	}
	return math.MaxInt
}

// String implements fmt.Stringer.
func (c CollisionNamespace) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CollisionNamespace.
func (c CollisionNamespace) IsValid() bool {
	return c.Priority() != math.MaxInt
}

// ParseCollisionNamespace converts raw input into a CollisionNamespace.
func ParseCollisionNamespace(value string) (CollisionNamespace, error) {
	for _, candidate := range validCollisionNamespaces {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid collision namespace %q", value)
}
