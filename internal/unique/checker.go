// Package unique enforces global USN uniqueness across every team partition.
package unique

import (
	"context"
	"strings"
	"time"

	"recruit-intake/internal/common/database"
	apperrors "recruit-intake/internal/common/errors"
	"recruit-intake/internal/common/logger"
	"recruit-intake/internal/common/metrics"
	"recruit-intake/internal/store"
	"recruit-intake/pkg/registry"
)

// seenSetKey is the Redis set holding every accepted normalized identifier.
const seenSetKey = "intake:usn:seen"

type Checker struct {
	store    store.TabularStore
	registry *registry.Registry
	cache    *database.RedisClient
	logger   logger.Logger
}

// NewChecker creates a uniqueness checker. cache may be nil; when present it
// is a fast-path only, the partition scan stays authoritative.
func NewChecker(st store.TabularStore, reg *registry.Registry, cache *database.RedisClient, log logger.Logger) *Checker {
	return &Checker{
		store:    st,
		registry: reg,
		cache:    cache,
		logger:   log.WithFields(map[string]interface{}{"component": "uniqueness-checker"}),
	}
}

// Normalize trims and uppercases an identifier so "1ms21cs001" and
// " 1MS21CS001 " compare equal.
func Normalize(identifier string) string {
	return strings.ToUpper(strings.TrimSpace(identifier))
}

// IsDuplicate reports whether the normalized identifier already exists in
// any partition's identifier column. Partitions that do not exist yet
// contribute zero matches.
func (c *Checker) IsDuplicate(ctx context.Context, identifier string) (bool, error) {
	candidate := Normalize(identifier)

	if c.cache != nil {
		seen, err := c.cache.SIsMember(ctx, seenSetKey, candidate)
		if err != nil {
			c.logger.Warn("identifier cache lookup failed, falling back to scan", map[string]interface{}{
				"error": err.Error(),
			})
		} else if seen {
			return true, nil
		}
	}

	start := time.Now()
	defer func() {
		metrics.UniquenessScanDuration.Observe(time.Since(start).Seconds())
	}()

	for _, d := range c.registry.Teams() {
		values, err := c.store.ReadColumn(ctx, d.DisplayName, registry.IdentifierColumn, registry.FirstDataRow)
		if err != nil {
			return false, apperrors.NewStoreUnavailableError("scan-identifiers", err)
		}
		for _, v := range values {
			if Normalize(v) == candidate {
				return true, nil
			}
		}
	}
	return false, nil
}

// Remember records an accepted identifier in the cache set. Best effort;
// a cache failure only costs the fast path on later checks.
func (c *Checker) Remember(ctx context.Context, identifier string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SAdd(ctx, seenSetKey, Normalize(identifier)); err != nil {
		c.logger.Warn("identifier cache update failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
