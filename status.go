package porcelain

import (
	"context"
	"sort"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/engine"
)

// StatusCategory is one of the six status categories.
type StatusCategory = engine.StatusCategory

const (
	// StatusAdded paths are new in the index.
	StatusAdded = engine.Added
	// StatusChanged paths differ between HEAD and the index.
	StatusChanged = engine.Changed
	// StatusMissing paths are in the index but gone from the working tree.
	StatusMissing = engine.Missing
	// StatusModified paths differ between the index and the working tree.
	StatusModified = engine.Modified
	// StatusRemoved paths are deleted from the index.
	StatusRemoved = engine.Removed
	// StatusUntracked paths are not in the index.
	StatusUntracked = engine.Untracked
)

// ParseStatusCategory parses a lower-case category name. Unknown names fail
// with ErrInvalidOption.
func ParseStatusCategory(s string) (StatusCategory, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range engine.StatusCategories {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, WrapErrorf(ErrInvalidOption, "unknown status category %q", s)
}

// PathSet is a set of repository-relative paths.
type PathSet map[string]struct{}

// Has reports whether path is in the set.
func (s PathSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Sorted returns the paths in lexical order.
func (s PathSet) Sorted() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// StatusSnapshot holds the requested categories from one status query.
// Categories that were not requested are absent, not empty.
type StatusSnapshot map[StatusCategory]PathSet

// Status runs one status query and returns the requested categories. With
// no categories given, all six are returned.
func (r *Repo) Status(ctx context.Context, categories ...StatusCategory) (StatusSnapshot, error) {
	for _, c := range categories {
		if !c.Valid() {
			return nil, WrapErrorf(ErrInvalidOption, "unknown status category %d", int(c))
		}
	}
	if len(categories) == 0 {
		categories = engine.StatusCategories
	}

	report, err := r.repo.Status(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to get status")
	}

	snapshot := make(StatusSnapshot, len(categories))
	for _, c := range categories {
		snapshot[c] = PathSet{}
	}
	for path, c := range report {
		if set, ok := snapshot[c]; ok {
			set[path] = struct{}{}
		}
	}

	return snapshot, nil
}
