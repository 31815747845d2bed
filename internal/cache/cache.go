// Package cache fronts the compiler with an in-memory LRU keyed by content
// hash, so the daemon and the MCP server skip recompiling unchanged text.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sodl-lang/sodlc/internal/compiler"
)

type Cache struct {
	results *lru.Cache[string, *compiler.CompileResult]
}

func New(size int) (*Cache, error) {
	results, err := lru.New[string, *compiler.CompileResult](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &Cache{results: results}, nil
}

// Key hashes source bytes into the cache key.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (c *Cache) Get(key string) (*compiler.CompileResult, bool) {
	return c.results.Get(key)
}

func (c *Cache) Add(key string, result *compiler.CompileResult) {
	c.results.Add(key, result)
}

func (c *Cache) Len() int {
	return c.results.Len()
}

func (c *Cache) Purge() {
	c.results.Purge()
}
