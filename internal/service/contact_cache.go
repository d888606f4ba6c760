// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"strings"

	"github.com/dgraph-io/ristretto"
)

// defaultContactCacheSize bounds the email to contact id entries of one job
const defaultContactCacheSize = 10000

// ContactCache maps subscriber emails to vendor contact ids for the
// lifetime of one driver instance
type ContactCache struct {
	cache *ristretto.Cache
}

// NewContactCache creates a cache holding at most size entries
func NewContactCache(size int64) (*ContactCache, error) {
	if size <= 0 {
		size = defaultContactCacheSize
	}
	// cost counts entries, not bytes
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        10 * size,
		MaxCost:            size,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &ContactCache{cache: cache}, nil
}

func contactKey(scope, email string) string {
	return scope + "\x00" + strings.ToLower(strings.TrimSpace(email))
}

// Get returns the cached contact id of email in scope
func (c *ContactCache) Get(scope, email string) (string, bool) {
	value, found := c.cache.Get(contactKey(scope, email))
	if !found {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

// Set stores the contact id of email in scope. It waits for the write so
// the next Get sees it.
func (c *ContactCache) Set(scope, email, id string) {
	if id == "" {
		return
	}
	c.cache.Set(contactKey(scope, email), id, 1)
	c.cache.Wait()
}

// Delete forgets the contact id of email in scope
func (c *ContactCache) Delete(scope, email string) {
	c.cache.Del(contactKey(scope, email))
}

// Close releases the cache
func (c *ContactCache) Close() {
	c.cache.Close()
}
