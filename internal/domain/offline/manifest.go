package offline

import (
	"fmt"
	"strings"
)

// DocumentKey is the canonical cache key for the application shell.
// Navigation responses are always stored under it.
const DocumentKey = "/index.html"

// Manifest is the ordered list of root-relative paths that must be
// precached before a version is usable offline.
type Manifest []string

// DefaultManifest returns the core assets of the application shell.
func DefaultManifest() Manifest {
	return Manifest{"/", "/index.html", "/icon.png", "/manifest.webmanifest"}
}

// Validate checks that every entry is a unique root-relative path.
func (m Manifest) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("manifest is empty")
	}
	seen := make(map[string]struct{}, len(m))
	for _, p := range m {
		if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
			return fmt.Errorf("manifest entry %q must be a root-relative path", p)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("manifest entry %q is duplicated", p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// Contains reports whether path is part of the manifest
func (m Manifest) Contains(path string) bool {
	for _, p := range m {
		if p == path {
			return true
		}
	}
	return false
}
