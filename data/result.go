package data

import "strings"

// A Result is the final, immutable classification of one track: the winning
// bucket, a snapshot of the score vector, and the evidence that produced
// it. Results are created once per track per run and never mutated.
type Result struct {
	TrackID   string
	TrackName string
	AlbumName string

	Bucket   Bucket
	Scores   ScoreVector
	Evidence []ArtistEvidence
}

// ArtistNames joins the credited artist names for display and CSV export.
func (r Result) ArtistNames() string {
	names := make([]string, len(r.Evidence))
	for i, ae := range r.Evidence {
		names[i] = ae.Artist.Name
	}
	return strings.Join(names, ", ")
}

// RawGenres joins every raw catalog tag seen across the track's artists,
// deduplicated in first-seen order.
func (r Result) RawGenres() string {
	seen := map[string]struct{}{}
	var tags []string
	for _, ae := range r.Evidence {
		for _, tag := range ae.Artist.Genres {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return strings.Join(tags, "; ")
}
