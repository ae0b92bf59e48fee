// Package cache stores the latest scraped table of each page.
package cache

import (
	"context"
	"errors"

	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/teams"
)

// ErrNotFound is returned when no table is cached for a page.
var ErrNotFound = errors.New("table not cached")

// TableCache is implemented by RedisCache and FileCache.
type TableCache interface {
	GetTable(ctx context.Context, p extract.Page) (extract.Bundle, error)
	SetTable(ctx context.Context, p extract.Page, b extract.Bundle) error
}

// TeamCache stores the team directory.
type TeamCache interface {
	GetTeams(ctx context.Context) (teams.Directory, error)
	SetTeams(ctx context.Context, dir teams.Directory) error
}

// Cache is a table cache that also keeps the team directory.
type Cache interface {
	TableCache
	TeamCache
}

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = (*FileCache)(nil)
)
