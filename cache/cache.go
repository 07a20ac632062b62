// Package cache is the persistent TTL lookup cache for raw artist genre
// tags. It is the only state shared across runs: every network fetch of
// tags writes through here, and classification never reads tags older than
// the TTL without re-fetching.
package cache

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// TTL is the freshness window for cached tags. An entry fetched at T
// answers queries before T+TTL and is a miss from that instant on.
const TTL = 14 * 24 * time.Hour

// ErrMiss is returned by Get when an artist has never been stored or its
// entry has expired.
var ErrMiss = errors.New("cache miss")

//go:embed schema.sql
var schema string

// An Entry is one cached observation: the raw tags fetched for an artist,
// which source produced them, and when. Empty Tags is a valid entry; it
// records that a fetch happened and found nothing, so re-runs don't hammer
// the catalog for tagless artists.
type Entry struct {
	ArtistID  string
	Name      string
	Tags      []string
	Source    string
	FetchedAt time.Time
}

// Cache represents our sqlite3 cache file.
type Cache struct {
	db  *gorm.DB
	ttl time.Duration

	// now is swappable so expiry is testable.
	now func() time.Time
}

// Open returns a connection to a migrated cache file on disk, creating the
// file if necessary. An unreadable or corrupt file is not fatal: it is
// logged once, discarded, and replaced with an empty cache.
func Open(filename string) (*Cache, error) {
	db, err := open(filename)
	if err != nil {
		log.Printf("cache at '%s' is unreadable, starting cold: %v", filename, err)
		if err := os.Remove(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error discarding corrupt cache file '%s': %w", filename, err)
		}
		if db, err = open(filename); err != nil {
			return nil, fmt.Errorf("error recreating cache file '%s': %w", filename, err)
		}
	}
	return &Cache{db: db, ttl: TTL, now: time.Now}, nil
}

func open(filename string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(filename), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening cache file at '%s': %w", filename, err)
	}
	if err := db.Exec(schema).Error; err != nil {
		return nil, fmt.Errorf("error migrating cache at '%s': %w", filename, err)
	}
	return db, nil
}

// Close flushes and closes the underlying connection pool. Callers defer it
// so the cache survives to the next run even on early exit.
func (c *Cache) Close() error {
	pool, err := c.db.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}

type row struct {
	ArtistID  string
	Name      string
	Tags      string
	Source    string
	FetchedAt time.Time
}

// tags are joined on a separator that can't occur in a genre string.
const tagSep = "\n"

// Get returns the entry one source stored for an artist, or ErrMiss if
// none was ever stored or the stored one has outlived the TTL.
func (c *Cache) Get(artistID, source string) (Entry, error) {
	var r row
	if err := c.db.
		Table("artist_tags").
		Where("artist_id = ? and source = ?", artistID, source).
		Take(&r).
		Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, ErrMiss
	} else if err != nil {
		return Entry{}, fmt.Errorf("error reading cache entry for '%s': %w", artistID, err)
	}

	if c.now().Sub(r.FetchedAt) >= c.ttl {
		return Entry{}, ErrMiss
	}

	entry := Entry{
		ArtistID:  r.ArtistID,
		Name:      r.Name,
		Source:    r.Source,
		FetchedAt: r.FetchedAt,
	}
	if r.Tags != "" {
		entry.Tags = strings.Split(r.Tags, tagSep)
	}
	return entry, nil
}

// Put stores tags for an artist at the current timestamp, overwriting any
// prior entry. Each Put is a single upsert, so a batch interrupted between
// tracks never leaves a partial entry behind.
func (c *Cache) Put(artistID, name string, tags []string, source string) error {
	if artistID == "" {
		return fmt.Errorf("no artist id")
	}
	if err := c.db.
		Table("artist_tags").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "artist_id"}, {Name: "source"}},
			UpdateAll: true,
		}).
		Create(&row{
			ArtistID:  artistID,
			Name:      name,
			Tags:      strings.Join(tags, tagSep),
			Source:    source,
			FetchedAt: c.now(),
		}).
		Error; err != nil {
		return fmt.Errorf("error writing cache entry for '%s': %w", artistID, err)
	}
	return nil
}

// Stats reports how many entries the cache holds and how many of them have
// already expired.
func (c *Cache) Stats() (total, expired int64, err error) {
	if err := c.db.Table("artist_tags").Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("error counting cache entries: %w", err)
	}
	cutoff := c.now().Add(-c.ttl)
	if err := c.db.
		Table("artist_tags").
		Where("fetched_at <= ?", cutoff).
		Count(&expired).
		Error; err != nil {
		return 0, 0, fmt.Errorf("error counting expired cache entries: %w", err)
	}
	return total, expired, nil
}

// Prune deletes expired entries and reports how many it removed. Expired
// entries are already invisible to Get; pruning just reclaims the space.
func (c *Cache) Prune() (int64, error) {
	cutoff := c.now().Add(-c.ttl)
	res := c.db.
		Table("artist_tags").
		Where("fetched_at <= ?", cutoff).
		Delete(&row{})
	if res.Error != nil {
		return 0, fmt.Errorf("error pruning cache: %w", res.Error)
	}
	return res.RowsAffected, nil
}
