package classify_test

import (
	"testing"

	"github.com/choiniere/bucketlist/classify"
	"github.com/choiniere/bucketlist/data"
	"github.com/stretchr/testify/assert"
)

func evidence(source data.Source, bucket data.Bucket) data.Evidence {
	return data.Evidence{Bucket: bucket, Confidence: source.Confidence(), Source: source}
}

func TestScoreWeighting(t *testing.T) {
	vector, winner := classify.Score([]data.ArtistEvidence{
		{
			Artist:   data.Artist{Name: "a", Role: data.RolePrimary},
			Evidence: []data.Evidence{evidence(data.SourceDirect, data.Rock)},
		},
		{
			Artist:   data.Artist{Name: "b", Role: data.RoleFeatured},
			Evidence: []data.Evidence{evidence(data.SourceDirect, data.Country)},
		},
	})
	assert.Equal(t, data.ScoreVector{data.Rock: 1.0, data.Country: 0.5}, vector)
	assert.Equal(t, data.Rock, winner)
}

func TestScoreNoEvidence(t *testing.T) {
	vector, winner := classify.Score([]data.ArtistEvidence{
		{Artist: data.Artist{Name: "a", Role: data.RolePrimary}},
	})
	assert.True(t, vector.IsZero())
	assert.Equal(t, data.Unclassified, winner)

	_, winner = classify.Score(nil)
	assert.Equal(t, data.Unclassified, winner)
}

// An exact tie between buckets whose evidence carried the same confidence
// resolves by bucket priority order: rock beats electronic.
func TestScoreTiePriorityOrder(t *testing.T) {
	vector, winner := classify.Score([]data.ArtistEvidence{
		{
			Artist:   data.Artist{Name: "a", Role: data.RolePrimary},
			Evidence: []data.Evidence{evidence(data.SourceRelated, data.Electronic)},
		},
		{
			Artist:   data.Artist{Name: "b", Role: data.RolePrimary},
			Evidence: []data.Evidence{evidence(data.SourceRelated, data.Rock)},
		},
	})
	assert.Equal(t, vector[data.Rock], vector[data.Electronic])
	assert.Equal(t, data.Rock, winner)
}

// A tie between buckets is first broken by the confidence of each bucket's
// first contributing evidence. Country got 0.5 from a full-weight
// encyclopedia tag and electronic got 0.5 from a half-weight direct tag;
// the direct tag's higher confidence wins even though electronic sits later
// in priority order.
func TestScoreTieFirstConfidence(t *testing.T) {
	vector, winner := classify.Score([]data.ArtistEvidence{
		{
			Artist:   data.Artist{Name: "a", Role: data.RolePrimary},
			Evidence: []data.Evidence{evidence(data.SourceEncyclopedia, data.Country)},
		},
		{
			Artist:   data.Artist{Name: "b", Role: data.RoleFeatured},
			Evidence: []data.Evidence{evidence(data.SourceDirect, data.Electronic)},
		},
	})
	assert.Equal(t, vector[data.Country], vector[data.Electronic])
	assert.Equal(t, data.Electronic, winner)
}

func TestScoreAccumulatesPerArtist(t *testing.T) {
	vector, winner := classify.Score([]data.ArtistEvidence{
		{
			Artist: data.Artist{Name: "a", Role: data.RolePrimary},
			Evidence: []data.Evidence{
				evidence(data.SourceName, data.Classical),
				evidence(data.SourceRelated, data.Classical),
			},
		},
		{
			Artist:   data.Artist{Name: "b", Role: data.RolePrimary},
			Evidence: []data.Evidence{evidence(data.SourceDirect, data.Rock)},
		},
	})
	assert.InDelta(t, 1.3, vector[data.Classical], 1e-9)
	assert.Equal(t, data.Classical, winner)
}
