// Package fsbridge adapts go-billy filesystems into git storage and provides
// the existence probes used to locate repositories.
package fsbridge

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// DefaultCacheSize is the object cache size used when none is configured.
const DefaultCacheSize = 1000

// minCacheSize is applied when a non-positive size is requested.
const minCacheSize = 100

// NewStorage creates git storage over billyFS with an LRU object cache.
//
// The LRU cache keeps frequently accessed objects in memory, which matters for
// history walks that revisit commits and trees.
func NewStorage(billyFS billy.Filesystem, cacheSize int) *filesystem.Storage {
	if cacheSize <= 0 {
		cacheSize = minCacheSize
	}

	objCache := cache.NewObjectLRU(cache.FileSize(cacheSize))
	return filesystem.NewStorage(billyFS, objCache)
}

// NewStorageWithDefaultCache creates git storage with DefaultCacheSize.
func NewStorageWithDefaultCache(billyFS billy.Filesystem) *filesystem.Storage {
	return NewStorage(billyFS, DefaultCacheSize)
}
