package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/grokify/issueconductor/pkg/model"
)

// TokenID returns a short digest that identifies a token in cache keys
// without revealing it.
func TokenID(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:8])
}

// RepoListCache caches pages of the authenticated user's GitHub repositories.
type RepoListCache struct {
	cache *Cache
}

// NewRepoListCache creates a cache for browsed repository listings.
func NewRepoListCache(c *Cache) *RepoListCache {
	return &RepoListCache{cache: c}
}

func (rlc *RepoListCache) key(token string, opts model.RepoListOptions) string {
	return fmt.Sprintf("user-repos:%s:%d:%d", TokenID(token), opts.Page, opts.PerPage)
}

// Get retrieves a cached page.
func (rlc *RepoListCache) Get(ctx context.Context, token string, opts model.RepoListOptions) ([]model.GitHubRepo, bool) {
	data, ok := rlc.cache.Get(ctx, rlc.key(token, opts))
	if !ok {
		return nil, false
	}

	var repos []model.GitHubRepo
	if err := json.Unmarshal(data, &repos); err != nil {
		return nil, false
	}
	return repos, true
}

// Set stores a page.
func (rlc *RepoListCache) Set(ctx context.Context, token string, opts model.RepoListOptions, repos []model.GitHubRepo) error {
	data, err := json.Marshal(repos)
	if err != nil {
		return err
	}
	return rlc.cache.Set(ctx, rlc.key(token, opts), data)
}

// Invalidate removes a cached page.
func (rlc *RepoListCache) Invalidate(ctx context.Context, token string, opts model.RepoListOptions) error {
	return rlc.cache.Delete(ctx, rlc.key(token, opts))
}
