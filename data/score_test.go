package data_test

import (
	"testing"

	"github.com/choiniere/bucketlist/data"
	"github.com/stretchr/testify/assert"
)

func TestAdd(t *testing.T) {
	v := data.ScoreVector{}
	v.Add(data.Evidence{Bucket: data.Rock, Confidence: 1.0, Source: data.SourceDirect}, 1.0)
	v.Add(data.Evidence{Bucket: data.Rock, Confidence: 0.5, Source: data.SourceEncyclopedia}, 0.5)
	v.Add(data.Evidence{Bucket: data.Country, Confidence: 0.9, Source: data.SourceAlias}, 1.0)
	assert.Equal(t, data.ScoreVector{data.Rock: 1.25, data.Country: 0.9}, v)
}

func TestClone(t *testing.T) {
	v := data.ScoreVector{data.Rock: 1}
	clone := v.Clone()
	clone[data.Rock] = 2
	assert.Equal(t, data.ScoreVector{data.Rock: 1}, v)
	assert.Equal(t, data.ScoreVector{data.Rock: 2}, clone)
}

func TestIsZero(t *testing.T) {
	assert.True(t, data.ScoreVector{}.IsZero())
	assert.True(t, data.ScoreVector{data.Rock: 0}.IsZero())
	assert.False(t, data.ScoreVector{data.Rock: 0.1}.IsZero())
}

func TestRoleWeight(t *testing.T) {
	assert.Equal(t, 1.0, data.RolePrimary.Weight())
	assert.Equal(t, 0.5, data.RoleFeatured.Weight())
	assert.Equal(t, 0.5, data.Role("session musician").Weight())
}

func TestSourceConfidence(t *testing.T) {
	assert.Equal(t, 1.0, data.SourceDirect.Confidence())
	assert.Equal(t, 0.9, data.SourceAlias.Confidence())
	assert.Equal(t, 0.7, data.SourceName.Confidence())
	assert.Equal(t, 0.6, data.SourceRelated.Confidence())
	assert.Equal(t, 0.5, data.SourceEncyclopedia.Confidence())
	assert.Equal(t, 0.0, data.Source("rumor").Confidence())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 0, data.Rock.Priority())
	assert.Equal(t, 5, data.Electronic.Priority())
	assert.Equal(t, len(data.Buckets), data.Unclassified.Priority())
}

func TestPrimaryArtist(t *testing.T) {
	track := data.Track{Artists: []data.Artist{
		{Name: "Run The Jewels", Role: data.RolePrimary},
		{Name: "Zack de la Rocha", Role: data.RoleFeatured},
	}}
	assert.Equal(t, "Run The Jewels", track.PrimaryArtist().Name)
	assert.Equal(t, data.Artist{}, data.Track{}.PrimaryArtist())
}

func TestRawGenres(t *testing.T) {
	result := data.Result{Evidence: []data.ArtistEvidence{
		{Artist: data.Artist{Name: "a", Genres: []string{"rock", "hard rock"}}},
		{Artist: data.Artist{Name: "b", Genres: []string{"hard rock", "metal"}}},
	}}
	assert.Equal(t, "rock; hard rock; metal", result.RawGenres())
	assert.Equal(t, "a, b", result.ArtistNames())
}
