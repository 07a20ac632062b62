package classify

import (
	"context"
	"fmt"
	"log"

	"github.com/choiniere/bucketlist/bucket"
	"github.com/choiniere/bucketlist/cache"
	"github.com/choiniere/bucketlist/data"
)

// A Classifier assigns tracks to genre buckets. Construct one per run with
// New; it is safe to reuse across an entire batch.
type Classifier struct {
	co  *collector
	cfg Config
}

// New validates the configuration and builds a classifier. Configuration
// problems surface here, before any network activity.
func New(catalog Catalog, tags TagService, store *cache.Cache, mapper *bucket.Mapper, cfg Config) (*Classifier, error) {
	if catalog == nil {
		return nil, fmt.Errorf("no catalog client")
	}
	if store == nil {
		return nil, fmt.Errorf("no lookup cache")
	}
	if mapper == nil {
		mapper = bucket.Default()
	}
	if err := cfg.validate(tags); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Classifier{
		co:  &collector{catalog: catalog, tags: tags, store: store, mapper: mapper, cfg: cfg},
		cfg: cfg,
	}, nil
}

// ClassifyTrack resolves the track's artist credits from the catalog and
// classifies it. The result is produced atomically: on error nothing
// partial is returned.
func (cl *Classifier) ClassifyTrack(ctx context.Context, trackID string) (data.Result, error) {
	track, err := cl.co.catalog.Track(ctx, trackID)
	if err != nil {
		return data.Result{}, fmt.Errorf("error resolving track '%s': %w", trackID, err)
	}
	if track.SpotifyID == "" {
		track.SpotifyID = trackID
	}
	return cl.Classify(ctx, track)
}

// Classify classifies a track whose artist credits are already resolved,
// e.g. one listed straight out of a playlist page.
func (cl *Classifier) Classify(ctx context.Context, track data.Track) (data.Result, error) {
	artists := cl.contributors(track)

	collected := make([]data.ArtistEvidence, 0, len(artists))
	for _, artist := range artists {
		evidence, rawTags, err := cl.co.collect(ctx, artist)
		if err != nil {
			return data.Result{}, err
		}
		if len(artist.Genres) == 0 {
			artist.Genres = rawTags
		}
		collected = append(collected, data.ArtistEvidence{
			Artist:   artist,
			Evidence: evidence,
		})
	}

	vector, winner := Score(collected)

	return data.Result{
		TrackID:   track.SpotifyID,
		TrackName: track.Name,
		AlbumName: track.AlbumName,
		Bucket:    winner,
		Scores:    vector.Clone(),
		Evidence:  collected,
	}, nil
}

// ClassifyBatch classifies tracks by id, returning results in input order.
// The batch is interruptible between tracks: a canceled context stops the
// run without corrupting cache state, since cache writes are atomic per
// artist.
func (cl *Classifier) ClassifyBatch(ctx context.Context, trackIDs []string) ([]data.Result, error) {
	results := make([]data.Result, 0, len(trackIDs))
	for i, trackID := range trackIDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := cl.ClassifyTrack(ctx, trackID)
		if err != nil {
			return results, err
		}
		log.Printf("%s (%d of %d): %s", result.TrackName, i+1, len(trackIDs), result.Bucket)
		results = append(results, result)
	}
	return results, nil
}

// ClassifyTracks is ClassifyBatch for tracks already listed with their
// credits, sparing one catalog call per track.
func (cl *Classifier) ClassifyTracks(ctx context.Context, tracks []data.Track) ([]data.Result, error) {
	results := make([]data.Result, 0, len(tracks))
	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := cl.Classify(ctx, track)
		if err != nil {
			return results, err
		}
		log.Printf("%s (%d of %d): %s", result.TrackName, i+1, len(tracks), result.Bucket)
		results = append(results, result)
	}
	return results, nil
}

// contributors applies the UseAllArtists setting and deduplicates credits.
// An artist credited both primary and featured is scored once at the
// higher role weight.
func (cl *Classifier) contributors(track data.Track) []data.Artist {
	credits := track.Artists
	if !cl.cfg.UseAllArtists && len(credits) > 1 {
		credits = credits[:1]
	}

	seen := map[string]int{}
	var unique []data.Artist
	for _, artist := range credits {
		key := artist.SpotifyID
		if key == "" {
			key = bucket.Normalize(artist.Name)
		}
		if at, dup := seen[key]; dup {
			if artist.Role.Weight() > unique[at].Role.Weight() {
				unique[at].Role = artist.Role
			}
			continue
		}
		seen[key] = len(unique)
		unique = append(unique, artist)
	}
	return unique
}
