package classify

import (
	"context"
	"log"

	"github.com/choiniere/bucketlist/bucket"
	"github.com/choiniere/bucketlist/cache"
	"github.com/choiniere/bucketlist/data"
)

// Cache source labels. Entries are keyed by (artist, source) so a warm run
// replays each source's own raw tags at that source's confidence.
const (
	cacheSourceCatalog      = "catalog"
	cacheSourceEncyclopedia = "encyclopedia"
)

// shortCircuit is the confidence at which the collector stops consulting
// further sources for an artist.
const shortCircuit = 0.9

// relatedLimit bounds how many related artists feed the plurality vote.
const relatedLimit = 10

// A collector gathers bucket evidence for one artist at a time, consulting
// sources in fixed priority order. A source failing (network, not-found,
// malformed) contributes no evidence and is never fatal.
type collector struct {
	catalog Catalog
	tags    TagService
	store   *cache.Cache
	mapper  *bucket.Mapper
	cfg     Config
}

// collect runs every enabled source for the artist, in priority order,
// stopping once any collected evidence reaches the short-circuit
// confidence. It returns the evidence list and the raw catalog tags seen,
// for the result's audit trail.
func (co *collector) collect(ctx context.Context, artist data.Artist) ([]data.Evidence, []string, error) {
	evidence, rawTags, err := co.collectShallow(ctx, artist)
	if err != nil || done(evidence) {
		return evidence, rawTags, err
	}

	if co.cfg.InferRelated {
		if ev, ok := co.fromRelated(ctx, artist); ok {
			evidence = append(evidence, ev)
		}
		if err := ctx.Err(); err != nil {
			return evidence, rawTags, err
		}
		if done(evidence) {
			return evidence, rawTags, nil
		}
	}

	if co.cfg.UseEncyclopedia {
		if ev, ok := co.fromEncyclopedia(ctx, artist); ok {
			evidence = append(evidence, ev)
		}
		if err := ctx.Err(); err != nil {
			return evidence, rawTags, err
		}
	}

	return evidence, rawTags, nil
}

// collectShallow runs only the non-recursive sources (direct, alias, name
// heuristic). Related-artist inference classifies its neighbors through
// this path, which is what bounds the recursion to depth one.
func (co *collector) collectShallow(ctx context.Context, artist data.Artist) ([]data.Evidence, []string, error) {
	var evidence []data.Evidence

	rawTags := co.artistTags(ctx, artist)
	if err := ctx.Err(); err != nil {
		return nil, rawTags, err
	}
	if b, ok := co.mapper.MapTags(rawTags); ok {
		evidence = append(evidence, data.Evidence{
			Bucket:     b,
			Confidence: data.SourceDirect.Confidence(),
			Source:     data.SourceDirect,
		})
		return evidence, rawTags, nil
	}

	if b, ok := co.mapper.Alias(artist.Name); ok {
		evidence = append(evidence, data.Evidence{
			Bucket:     b,
			Confidence: data.SourceAlias.Confidence(),
			Source:     data.SourceAlias,
		})
		return evidence, rawTags, nil
	}

	if b, ok := co.mapper.FromName(artist.Name); ok {
		evidence = append(evidence, data.Evidence{
			Bucket:     b,
			Confidence: data.SourceName.Confidence(),
			Source:     data.SourceName,
		})
	}

	return evidence, rawTags, nil
}

// artistTags returns the artist's raw catalog tags: cached if fresh,
// otherwise fetched by id with a by-name search fallback, writing the
// result (including an empty one) through to the cache.
func (co *collector) artistTags(ctx context.Context, artist data.Artist) []string {
	if len(artist.Genres) > 0 {
		return artist.Genres
	}
	if artist.SpotifyID == "" {
		return nil
	}

	if entry, err := co.store.Get(artist.SpotifyID, cacheSourceCatalog); err == nil {
		return entry.Tags
	}

	tags, err := co.catalog.ArtistGenres(ctx, artist.SpotifyID)
	if err != nil {
		log.Printf("no catalog genres for '%s': %v", artist.Name, err)
		tags = nil
	}
	if len(tags) == 0 && artist.Name != "" {
		if found, err := co.catalog.SearchArtistGenres(ctx, artist.Name); err == nil {
			tags = found
		}
	}

	if err := co.store.Put(artist.SpotifyID, artist.Name, tags, cacheSourceCatalog); err != nil {
		log.Printf("error caching tags for '%s': %v", artist.Name, err)
	}
	return tags
}

// fromRelated classifies up to relatedLimit related artists through the
// shallow sources and takes the plurality bucket among them.
func (co *collector) fromRelated(ctx context.Context, artist data.Artist) (data.Evidence, bool) {
	if artist.SpotifyID == "" {
		return data.Evidence{}, false
	}
	related, err := co.catalog.RelatedArtists(ctx, artist.SpotifyID)
	if err != nil {
		log.Printf("no related artists for '%s': %v", artist.Name, err)
		return data.Evidence{}, false
	}
	if len(related) > relatedLimit {
		related = related[:relatedLimit]
	}

	votes := data.ScoreVector{}
	for _, rel := range related {
		if ctx.Err() != nil {
			return data.Evidence{}, false
		}
		evidence, _, err := co.collectShallow(ctx, rel)
		if err != nil || len(evidence) == 0 {
			continue
		}
		votes[best(evidence).Bucket]++
	}
	if votes.IsZero() {
		return data.Evidence{}, false
	}

	winner := data.Unclassified
	top := 0.0
	for _, b := range data.Buckets {
		if votes[b] > top {
			winner, top = b, votes[b]
		}
	}
	return data.Evidence{
		Bucket:     winner,
		Confidence: data.SourceRelated.Confidence(),
		Source:     data.SourceRelated,
	}, true
}

// fromEncyclopedia maps the tag service's community tags for the artist,
// reading through the cache under the encyclopedia source key.
func (co *collector) fromEncyclopedia(ctx context.Context, artist data.Artist) (data.Evidence, bool) {
	if artist.Name == "" {
		return data.Evidence{}, false
	}

	key := artist.SpotifyID
	if key == "" {
		key = bucket.Normalize(artist.Name)
	}

	var tags []string
	if entry, err := co.store.Get(key, cacheSourceEncyclopedia); err == nil {
		tags = entry.Tags
	} else {
		tags, err = co.tags.TagsForArtist(ctx, artist.Name)
		if err != nil {
			log.Printf("no encyclopedia tags for '%s': %v", artist.Name, err)
			return data.Evidence{}, false
		}
		if err := co.store.Put(key, artist.Name, tags, cacheSourceEncyclopedia); err != nil {
			log.Printf("error caching encyclopedia tags for '%s': %v", artist.Name, err)
		}
	}

	b, ok := co.mapper.MapTags(tags)
	if !ok {
		return data.Evidence{}, false
	}
	return data.Evidence{
		Bucket:     b,
		Confidence: data.SourceEncyclopedia.Confidence(),
		Source:     data.SourceEncyclopedia,
	}, true
}

// done reports whether any collected evidence already answers the bucket
// confidently enough to skip the remaining sources.
func done(evidence []data.Evidence) bool {
	for _, ev := range evidence {
		if ev.Confidence >= shortCircuit {
			return true
		}
	}
	return false
}

// best returns the highest-confidence evidence, preferring the earlier
// entry on ties so source priority order decides.
func best(evidence []data.Evidence) data.Evidence {
	top := evidence[0]
	for _, ev := range evidence[1:] {
		if ev.Confidence > top.Confidence {
			top = ev
		}
	}
	return top
}
