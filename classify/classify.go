// Package classify is the genre classification engine: it gathers bucket
// evidence for each artist on a track from up to five sources, scores the
// evidence per bucket weighted by artist role, and picks the winning
// bucket.
//
// The package performs no I/O of its own beyond what the Catalog and
// TagService collaborators do; given fixed evidence its output is fully
// deterministic.
package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/choiniere/bucketlist/data"
)

// Catalog is the streaming catalog collaborator. Implementations apply
// their own batching, retry, and rate limiting; every method is expected to
// return an empty result rather than garbage on failure, and the engine
// tolerates errors by treating them as "no evidence".
type Catalog interface {
	// ArtistGenres returns the raw genre tags on an artist's catalog entry.
	ArtistGenres(ctx context.Context, artistID string) ([]string, error)

	// SearchArtistGenres searches the catalog for an artist by display
	// name and returns the best match's tags. Used when the id lookup
	// comes back empty.
	SearchArtistGenres(ctx context.Context, name string) ([]string, error)

	// RelatedArtists returns artists the catalog considers similar.
	RelatedArtists(ctx context.Context, artistID string) ([]data.Artist, error)

	// Track returns a track with its ordered, role-tagged artist credits.
	Track(ctx context.Context, trackID string) (data.Track, error)
}

// TagService is the community-encyclopedia collaborator, consulted as the
// lowest-confidence fallback. Implementations own the politeness delay
// between calls.
type TagService interface {
	TagsForArtist(ctx context.Context, displayName string) ([]string, error)
}

// Config selects which fallback sources are enabled for a run.
type Config struct {
	// UseAllArtists scores every credited artist; when false only the
	// primary artist contributes evidence.
	UseAllArtists bool

	// InferRelated enables the related-artist plurality source.
	InferRelated bool

	// UseEncyclopedia enables the encyclopedia tag fallback; it requires
	// a positive EncyclopediaDelay.
	UseEncyclopedia bool

	// EncyclopediaDelay is the minimum gap between encyclopedia calls.
	EncyclopediaDelay time.Duration
}

// validate fails fast on contradictory configuration: it indicates a caller
// bug, so it is caught at classifier construction, before any network
// activity.
func (cfg Config) validate(tags TagService) error {
	if cfg.EncyclopediaDelay < 0 {
		return fmt.Errorf("encyclopedia delay must not be negative (got %s)", cfg.EncyclopediaDelay)
	}
	if cfg.UseEncyclopedia {
		if tags == nil {
			return fmt.Errorf("encyclopedia fallback enabled without a tag service")
		}
		if cfg.EncyclopediaDelay == 0 {
			return fmt.Errorf("encyclopedia fallback enabled without a delay")
		}
	}
	return nil
}
