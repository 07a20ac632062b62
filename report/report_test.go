package report_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/choiniere/bucketlist/data"
	"github.com/choiniere/bucketlist/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	results := []data.Result{
		{
			TrackID:   "t1",
			TrackName: "B.O.B",
			AlbumName: "ATLiens",
			Bucket:    data.HipHop,
			Evidence: []data.ArtistEvidence{
				{Artist: data.Artist{SpotifyID: "a1", Name: "OutKast", Genres: []string{"southern hip hop", "rap"}}},
			},
		},
		{
			TrackID:   "t2",
			TrackName: "No Tags Here",
			Bucket:    data.Unclassified,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf, results))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"track_id", "track_name", "album", "artist_names",
		"primary_artist_id", "genres_raw", "bucket",
	}, rows[0])
	assert.Equal(t, []string{
		"t1", "B.O.B", "ATLiens", "OutKast",
		"a1", "southern hip hop; rap", "hip-hop",
	}, rows[1])
	assert.Equal(t, []string{
		"t2", "No Tags Here", "", "", "", "", "unclassified",
	}, rows[2])
}

func TestCounts(t *testing.T) {
	results := []data.Result{
		{Bucket: data.Electronic},
		{Bucket: data.Rock},
		{Bucket: data.Electronic},
		{Bucket: data.Unclassified},
		{Bucket: data.Country},
		{Bucket: data.Rock},
	}

	assert.Equal(t, []report.BucketCount{
		{Bucket: data.Electronic, Count: 2},
		{Bucket: data.Rock, Count: 2},
		{Bucket: data.Country, Count: 1},
		{Bucket: data.Unclassified, Count: 1},
	}, report.Counts(results))
}

func TestCountsEmpty(t *testing.T) {
	assert.Empty(t, report.Counts(nil))
}

func TestPrintCounts(t *testing.T) {
	var buf bytes.Buffer
	report.PrintCounts(&buf, []data.Result{{Bucket: data.Musical}})
	assert.Equal(t, "bucket counts:\n  musical: 1\n", buf.String())
}
