package classify_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/choiniere/bucketlist/cache"
	"github.com/choiniere/bucketlist/classify"
	"github.com/choiniere/bucketlist/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog is an in-memory Catalog that records every call, so tests can
// assert not just on results but on which sources were consulted.
type fakeCatalog struct {
	genres       map[string][]string
	searchGenres map[string][]string
	related      map[string][]data.Artist
	tracks       map[string]data.Track

	genresErr error

	genreCalls   []string
	searchCalls  []string
	relatedCalls []string
	trackCalls   []string
}

func (f *fakeCatalog) ArtistGenres(_ context.Context, artistID string) ([]string, error) {
	f.genreCalls = append(f.genreCalls, artistID)
	if f.genresErr != nil {
		return nil, f.genresErr
	}
	return f.genres[artistID], nil
}

func (f *fakeCatalog) SearchArtistGenres(_ context.Context, name string) ([]string, error) {
	f.searchCalls = append(f.searchCalls, name)
	return f.searchGenres[name], nil
}

func (f *fakeCatalog) RelatedArtists(_ context.Context, artistID string) ([]data.Artist, error) {
	f.relatedCalls = append(f.relatedCalls, artistID)
	return f.related[artistID], nil
}

func (f *fakeCatalog) Track(_ context.Context, trackID string) (data.Track, error) {
	f.trackCalls = append(f.trackCalls, trackID)
	track, ok := f.tracks[trackID]
	if !ok {
		return data.Track{}, fmt.Errorf("no such track '%s'", trackID)
	}
	return track, nil
}

type fakeTags struct {
	tags  map[string][]string
	err   error
	calls []string
}

func (f *fakeTags) TagsForArtist(_ context.Context, displayName string) ([]string, error) {
	f.calls = append(f.calls, displayName)
	if f.err != nil {
		return nil, f.err
	}
	return f.tags[displayName], nil
}

func testCache(t *testing.T) *cache.Cache {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newClassifier(t *testing.T, catalog classify.Catalog, tags classify.TagService, cfg classify.Config) *classify.Classifier {
	t.Helper()
	cl, err := classify.New(catalog, tags, testCache(t), nil, cfg)
	require.NoError(t, err)
	return cl
}

func primary(id, name string) data.Artist {
	return data.Artist{SpotifyID: id, Name: name, Role: data.RolePrimary}
}

func TestDirectEvidence(t *testing.T) {
	catalog := &fakeCatalog{genres: map[string][]string{
		"a1": {"garage rock", "punk blues"},
	}}
	cl := newClassifier(t, catalog, nil, classify.Config{})

	result, err := cl.Classify(context.Background(), data.Track{
		SpotifyID: "t1",
		Name:      "Seven Nation Army",
		Artists:   []data.Artist{primary("a1", "The White Stripes")},
	})
	require.NoError(t, err)

	assert.Equal(t, data.Rock, result.Bucket)
	require.Len(t, result.Evidence, 1)
	require.Len(t, result.Evidence[0].Evidence, 1)
	ev := result.Evidence[0].Evidence[0]
	assert.Equal(t, data.SourceDirect, ev.Source)
	assert.Equal(t, 1.0, ev.Confidence)
	assert.Equal(t, data.ScoreVector{data.Rock: 1.0}, result.Scores)
}

// A confident answer from the direct source means the related and
// encyclopedia sources are never consulted, even when enabled.
func TestShortCircuit(t *testing.T) {
	catalog := &fakeCatalog{genres: map[string][]string{
		"a1": {"tech house"},
	}}
	tags := &fakeTags{}
	cl := newClassifier(t, catalog, tags, classify.Config{
		InferRelated:      true,
		UseEncyclopedia:   true,
		EncyclopediaDelay: time.Second,
	})

	result, err := cl.Classify(context.Background(), data.Track{
		SpotifyID: "t1",
		Artists:   []data.Artist{primary("a1", "Someone")},
	})
	require.NoError(t, err)

	assert.Equal(t, data.Electronic, result.Bucket)
	assert.Empty(t, catalog.relatedCalls)
	assert.Empty(t, tags.calls)
}

// The alias table answers at 0.9, which also clears the short-circuit bar.
func TestAliasShortCircuits(t *testing.T) {
	catalog := &fakeCatalog{}
	cl := newClassifier(t, catalog, nil, classify.Config{InferRelated: true})

	result, err := cl.Classify(context.Background(), data.Track{
		SpotifyID: "t1",
		Artists:   []data.Artist{primary("a1", "Daft Punk")},
	})
	require.NoError(t, err)

	assert.Equal(t, data.Electronic, result.Bucket)
	require.Len(t, result.Evidence[0].Evidence, 1)
	assert.Equal(t, data.SourceAlias, result.Evidence[0].Evidence[0].Source)
	assert.Empty(t, catalog.relatedCalls)
}

// The name heuristic's 0.7 does not clear the bar, so collection continues
// into the related-artist source and both pieces of evidence score.
func TestNameHeuristicKeepsCollecting(t *testing.T) {
	catalog := &fakeCatalog{
		related: map[string][]data.Artist{
			"a1": {
				primary("r1", "Berliner Philharmoniker"),
				primary("r2", "Wiener Philharmoniker"),
			},
		},
	}
	cl := newClassifier(t, catalog, nil, classify.Config{InferRelated: true})

	result, err := cl.Classify(context.Background(), data.Track{
		SpotifyID: "t1",
		Artists:   []data.Artist{primary("a1", "Budapest Scoring Orchestra")},
	})
	require.NoError(t, err)

	assert.Equal(t, data.Classical, result.Bucket)
	require.Len(t, result.Evidence[0].Evidence, 2)
	assert.Equal(t, data.SourceName, result.Evidence[0].Evidence[0].Source)
	assert.Equal(t, data.SourceRelated, result.Evidence[0].Evidence[1].Source)
	assert.InDelta(t, 1.3, result.Scores[data.Classical], 1e-9)
}

func TestSearchFallback(t *testing.T) {
	catalog := &fakeCatalog{
		searchGenres: map[string][]string{
			"Waxahatchee": {"indie rock"},
		},
	}
	cl := newClassifier(t, catalog, nil, classify.Config{})

	result, err := cl.Classify(context.Background(), data.Track{
		SpotifyID: "t1",
		Artists:   []data.Artist{primary("a1", "Waxahatchee")},
	})
	require.NoError(t, err)

	assert.Equal(t, data.Rock, result.Bucket)
	assert.Equal(t, []string{"a1"}, catalog.genreCalls)
	assert.Equal(t, []string{"Waxahatchee"}, catalog.searchCalls)
}

// Catalog tags write through to the cache, so a second classification of
// the same artist makes no catalog calls and produces the same result.
func TestWarmCacheIsIdempotent(t *testing.T) {
	catalog := &fakeCatalog{genres: map[string][]string{
		"a1": {"outlaw country"},
	}}
	cl := newClassifier(t, catalog, nil, classify.Config{})

	track := data.Track{SpotifyID: "t1", Artists: []data.Artist{primary("a1", "Sturgill Simpson")}}

	cold, err := cl.Classify(context.Background(), track)
	require.NoError(t, err)
	require.Len(t, catalog.genreCalls, 1)

	warm, err := cl.Classify(context.Background(), track)
	require.NoError(t, err)
	assert.Len(t, catalog.genreCalls, 1)
	assert.Equal(t, cold.Bucket, warm.Bucket)
	assert.Equal(t, cold.Scores, warm.Scores)
}

// An artist the catalog has no tags for is cached too, so tagless artists
// don't get re-fetched on every run.
func TestNegativeCaching(t *testing.T) {
	catalog := &fakeCatalog{}
	cl := newClassifier(t, catalog, nil, classify.Config{})

	track := data.Track{SpotifyID: "t1", Artists: []data.Artist{primary("a1", "Obscure Act")}}

	result, err := cl.Classify(context.Background(), track)
	require.NoError(t, err)
	assert.Equal(t, data.Unclassified, result.Bucket)
	require.Len(t, catalog.genreCalls, 1)
	require.Len(t, catalog.searchCalls, 1)

	_, err = cl.Classify(context.Background(), track)
	require.NoError(t, err)
	assert.Len(t, catalog.genreCalls, 1)
	assert.Len(t, catalog.searchCalls, 1)
}

func TestRelatedPlurality(t *testing.T) {
	catalog := &fakeCatalog{
		genres: map[string][]string{
			"r1": {"trap"},
			"r2": {"southern hip hop"},
			"r3": {"alt rock"},
		},
		related: map[string][]data.Artist{
			"a1": {primary("r1", "x"), primary("r2", "y"), primary("r3", "z")},
		},
	}
	cl := newClassifier(t, catalog, nil, classify.Config{InferRelated: true})

	result, err := cl.Classify(context.Background(), data.Track{
		SpotifyID: "t1",
		Artists:   []data.Artist{primary("a1", "Untagged Rapper")},
	})
	require.NoError(t, err)

	assert.Equal(t, data.HipHop, result.Bucket)
	require.Len(t, result.Evidence[0].Evidence, 1)
	assert.Equal(t, data.SourceRelated, result.Evidence[0].Evidence[0].Source)
	assert.Equal(t, 0.6, result.Evidence[0].Evidence[0].Confidence)
}

// Related-artist inference classifies neighbors through the shallow sources
// only: we never ask for the neighbors' own related artists.
func TestRelatedRecursionIsDepthOne(t *testing.T) {
	catalog := &fakeCatalog{
		related: map[string][]data.Artist{
			"a1": {primary("r1", "also untagged")},
			"r1": {primary("r2", "would recurse")},
		},
	}
	cl := newClassifier(t, catalog, nil, classify.Config{InferRelated: true})

	_, err := cl.Classify(context.Background(), data.Track{
		SpotifyID: "t1",
		Artists:   []data.Artist{primary("a1", "Untagged")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a1"}, catalog.relatedCalls)
}

func TestEncyclopediaFallback(t *testing.T) {
	catalog := &fakeCatalog{}
	tags := &fakeTags{tags: map[string][]string{
		"Untagged Composer": {"contemporary classical", "minimalism"},
	}}
	cl := newClassifier(t, catalog, tags, classify.Config{
		UseEncyclopedia:   true,
		EncyclopediaDelay: time.Second,
	})

	track := data.Track{SpotifyID: "t1", Artists: []data.Artist{primary("a1", "Untagged Composer")}}

	result, err := cl.Classify(context.Background(), track)
	require.NoError(t, err)
	assert.Equal(t, data.Classical, result.Bucket)
	require.Len(t, result.Evidence[0].Evidence, 1)
	assert.Equal(t, data.SourceEncyclopedia, result.Evidence[0].Evidence[0].Source)
	assert.Equal(t, 0.5, result.Evidence[0].Evidence[0].Confidence)

	// Encyclopedia tags cache under their own source key.
	_, err = cl.Classify(context.Background(), track)
	require.NoError(t, err)
	assert.Len(t, tags.calls, 1)
}

// A failing source contributes no evidence and is never fatal.
func TestSourceFailuresAreTolerated(t *testing.T) {
	catalog := &fakeCatalog{genresErr: fmt.Errorf("rate limited")}
	tags := &fakeTags{err: fmt.Errorf("service down")}
	cl := newClassifier(t, catalog, tags, classify.Config{
		InferRelated:      true,
		UseEncyclopedia:   true,
		EncyclopediaDelay: time.Second,
	})

	result, err := cl.Classify(context.Background(), data.Track{
		SpotifyID: "t1",
		Artists:   []data.Artist{primary("a1", "Nobody Knows")},
	})
	require.NoError(t, err)
	assert.Equal(t, data.Unclassified, result.Bucket)
}

// An artist credited more than once scores once, at the higher role weight.
func TestDuplicateCreditsScoreOnce(t *testing.T) {
	catalog := &fakeCatalog{genres: map[string][]string{
		"a1": {"stoner rock"},
	}}
	cl := newClassifier(t, catalog, nil, classify.Config{UseAllArtists: true})

	result, err := cl.Classify(context.Background(), data.Track{
		SpotifyID: "t1",
		Artists: []data.Artist{
			{SpotifyID: "a1", Name: "Band", Role: data.RoleFeatured},
			{SpotifyID: "a1", Name: "Band", Role: data.RolePrimary},
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Evidence, 1)
	assert.Equal(t, data.ScoreVector{data.Rock: 1.0}, result.Scores)
}

// Without UseAllArtists only the first credit contributes; the featured
// artist is never even looked up.
func TestPrimaryArtistOnly(t *testing.T) {
	catalog := &fakeCatalog{genres: map[string][]string{
		"a1": {"honky tonk"},
		"a2": {"gangster rap"},
	}}
	cl := newClassifier(t, catalog, nil, classify.Config{})

	result, err := cl.Classify(context.Background(), data.Track{
		SpotifyID: "t1",
		Artists: []data.Artist{
			{SpotifyID: "a1", Name: "Singer", Role: data.RolePrimary},
			{SpotifyID: "a2", Name: "Rapper", Role: data.RoleFeatured},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, data.Country, result.Bucket)
	assert.Equal(t, []string{"a1"}, catalog.genreCalls)
}

func TestClassifyTrackResolvesCredits(t *testing.T) {
	catalog := &fakeCatalog{
		genres: map[string][]string{"a1": {"synthpop"}},
		tracks: map[string]data.Track{
			"t1": {
				SpotifyID: "t1",
				Name:      "Blue Monday",
				AlbumName: "Power, Corruption & Lies",
				Artists:   []data.Artist{primary("a1", "New Order")},
			},
		},
	}
	cl := newClassifier(t, catalog, nil, classify.Config{})

	result, err := cl.ClassifyTrack(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", result.TrackID)
	assert.Equal(t, "Blue Monday", result.TrackName)
	assert.Equal(t, data.Electronic, result.Bucket)

	_, err = cl.ClassifyTrack(context.Background(), "missing")
	assert.Error(t, err)
}

func TestClassifyTracksPreservesOrder(t *testing.T) {
	catalog := &fakeCatalog{genres: map[string][]string{
		"a1": {"indie rock"},
		"a2": {"bluegrass"},
	}}
	cl := newClassifier(t, catalog, nil, classify.Config{})

	results, err := cl.ClassifyTracks(context.Background(), []data.Track{
		{SpotifyID: "t1", Artists: []data.Artist{primary("a1", "x")}},
		{SpotifyID: "t2", Artists: []data.Artist{primary("a2", "y")}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "t1", results[0].TrackID)
	assert.Equal(t, data.Rock, results[0].Bucket)
	assert.Equal(t, "t2", results[1].TrackID)
	assert.Equal(t, data.Country, results[1].Bucket)
}

func TestClassifyTracksStopsOnCancel(t *testing.T) {
	catalog := &fakeCatalog{}
	cl := newClassifier(t, catalog, nil, classify.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := cl.ClassifyTracks(ctx, []data.Track{
		{SpotifyID: "t1", Artists: []data.Artist{primary("a1", "x")}},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestNewValidatesConfig(t *testing.T) {
	catalog := &fakeCatalog{}
	store := testCache(t)

	_, err := classify.New(nil, nil, store, nil, classify.Config{})
	assert.Error(t, err)

	_, err = classify.New(catalog, nil, nil, nil, classify.Config{})
	assert.Error(t, err)

	_, err = classify.New(catalog, nil, store, nil, classify.Config{
		UseEncyclopedia: true, EncyclopediaDelay: time.Second,
	})
	assert.Error(t, err, "encyclopedia without a tag service")

	_, err = classify.New(catalog, &fakeTags{}, store, nil, classify.Config{
		UseEncyclopedia: true,
	})
	assert.Error(t, err, "encyclopedia without a delay")

	_, err = classify.New(catalog, &fakeTags{}, store, nil, classify.Config{
		EncyclopediaDelay: -time.Second,
	})
	assert.Error(t, err, "negative delay")

	_, err = classify.New(catalog, &fakeTags{}, store, nil, classify.Config{
		UseEncyclopedia: true, EncyclopediaDelay: time.Second,
	})
	assert.NoError(t, err)
}
