// Package playlist materializes classification results into one playlist
// per bucket ("Genres – rock", "Genres – country", …), creating playlists
// that don't exist yet and adding only tracks not already present.
package playlist

import (
	"context"
	"fmt"
	"log"

	"github.com/choiniere/bucketlist/data"
	"github.com/choiniere/bucketlist/spotify"
)

// Client is the slice of the catalog client playlist syncing needs.
type Client interface {
	CurrentUser(ctx context.Context) (string, error)
	Playlists(ctx context.Context) ([]spotify.Playlist, error)
	CreatePlaylist(ctx context.Context, ownerID, name string, public bool, description string) (spotify.Playlist, error)
	PlaylistTracks(ctx context.Context, playlistID string, max int) ([]data.Track, error)
	AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error
	RemovePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error
}

// Options control how bucket playlists are named and owned.
type Options struct {
	// Prefix is prepended to the bucket name, e.g. "Genres – ".
	Prefix string

	// OwnerID owns created playlists; empty means the authorized user.
	OwnerID string

	// Public creates new playlists as public; existing ones are left be.
	Public bool

	// Clear empties each bucket playlist before adding.
	Clear bool
}

const description = "Auto-generated by bucketlist"

// A Summary reports what happened to one bucket playlist.
type Summary struct {
	Name    string
	Created bool
	Total   int
	Added   int
}

type Syncer struct {
	client Client
	opts   Options
}

func New(client Client, opts Options) *Syncer {
	if opts.Prefix == "" {
		opts.Prefix = "Genres – "
	}
	return &Syncer{client: client, opts: opts}
}

// Sync groups results by bucket and brings one playlist per bucket up to
// date. Unclassified tracks are never routed to a bucket playlist; they are
// counted and skipped.
func (s *Syncer) Sync(ctx context.Context, results []data.Result) ([]Summary, error) {
	byBucket := map[data.Bucket][]string{}
	skipped := 0
	for _, result := range results {
		if result.Bucket == data.Unclassified {
			skipped++
			continue
		}
		byBucket[result.Bucket] = append(byBucket[result.Bucket], result.TrackID)
	}
	if skipped > 0 {
		log.Printf("skipping %d unclassified tracks", skipped)
	}

	ownerID := s.opts.OwnerID
	if ownerID == "" {
		var err error
		if ownerID, err = s.client.CurrentUser(ctx); err != nil {
			return nil, fmt.Errorf("error resolving playlist owner: %w", err)
		}
	}

	existing, err := s.client.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing playlists: %w", err)
	}
	byName := map[string]spotify.Playlist{}
	for _, pl := range existing {
		byName[pl.Name] = pl
	}

	var summaries []Summary
	for _, bucket := range data.Buckets {
		trackIDs := byBucket[bucket]
		if len(trackIDs) == 0 {
			continue
		}
		summary, err := s.syncBucket(ctx, ownerID, byName, bucket, trackIDs)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *Syncer) syncBucket(ctx context.Context, ownerID string, byName map[string]spotify.Playlist, bucket data.Bucket, trackIDs []string) (Summary, error) {
	name := s.opts.Prefix + bucket.String()
	summary := Summary{Name: name, Total: len(trackIDs)}

	pl, exists := byName[name]
	if !exists {
		created, err := s.client.CreatePlaylist(ctx, ownerID, name, s.opts.Public, description)
		if err != nil {
			return summary, fmt.Errorf("error creating playlist '%s': %w", name, err)
		}
		pl = created
		byName[name] = created
		summary.Created = true
		log.Printf("created playlist %s", name)
	}

	if s.opts.Clear && exists {
		current, err := s.currentIDs(ctx, pl.ID)
		if err != nil {
			return summary, err
		}
		if len(current) > 0 {
			if err := s.client.RemovePlaylistTracks(ctx, pl.ID, current); err != nil {
				return summary, fmt.Errorf("error clearing playlist '%s': %w", name, err)
			}
			log.Printf("cleared playlist %s", name)
		}
	}

	present := map[string]struct{}{}
	if !summary.Created && !s.opts.Clear {
		current, err := s.currentIDs(ctx, pl.ID)
		if err != nil {
			return summary, err
		}
		for _, id := range current {
			present[id] = struct{}{}
		}
	}

	var toAdd []string
	for _, id := range trackIDs {
		if _, dup := present[id]; dup {
			continue
		}
		present[id] = struct{}{}
		toAdd = append(toAdd, id)
	}
	if len(toAdd) > 0 {
		if err := s.client.AddPlaylistTracks(ctx, pl.ID, toAdd); err != nil {
			return summary, fmt.Errorf("error adding to playlist '%s': %w", name, err)
		}
	}
	summary.Added = len(toAdd)
	return summary, nil
}

func (s *Syncer) currentIDs(ctx context.Context, playlistID string) ([]string, error) {
	tracks, err := s.client.PlaylistTracks(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("error listing playlist '%s': %w", playlistID, err)
	}
	ids := make([]string, len(tracks))
	for i, track := range tracks {
		ids[i] = track.SpotifyID
	}
	return ids, nil
}
