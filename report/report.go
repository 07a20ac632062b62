// Package report turns classification results into the CSV export and the
// bucket-count summary printed after a run.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/choiniere/bucketlist/data"
)

var csvHeader = []string{
	"track_id", "track_name", "album", "artist_names",
	"primary_artist_id", "genres_raw", "bucket",
}

// WriteCSV writes one row per result, in result order.
func WriteCSV(w io.Writer, results []data.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}
	for _, result := range results {
		var primaryID string
		if len(result.Evidence) > 0 {
			primaryID = result.Evidence[0].Artist.SpotifyID
		}
		row := []string{
			result.TrackID,
			result.TrackName,
			result.AlbumName,
			result.ArtistNames(),
			primaryID,
			result.RawGenres(),
			result.Bucket.String(),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("error writing csv row for '%s': %w", result.TrackID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the report to a file.
func SaveCSV(path string, results []data.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating report '%s': %w", path, err)
	}
	defer f.Close()
	if err := WriteCSV(f, results); err != nil {
		return err
	}
	return f.Close()
}

// A BucketCount is one line of the summary.
type BucketCount struct {
	Bucket data.Bucket
	Count  int
}

// Counts tallies results per bucket, sorted by descending count and then
// bucket name, the way the summary has always printed.
func Counts(results []data.Result) []BucketCount {
	tally := map[data.Bucket]int{}
	for _, result := range results {
		tally[result.Bucket]++
	}

	counts := make([]BucketCount, 0, len(tally))
	for bucket, count := range tally {
		counts = append(counts, BucketCount{bucket, count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Bucket < counts[j].Bucket
	})
	return counts
}

// PrintCounts writes the summary to w.
func PrintCounts(w io.Writer, results []data.Result) {
	fmt.Fprintln(w, "bucket counts:")
	for _, bc := range Counts(results) {
		fmt.Fprintf(w, "  %s: %d\n", bc.Bucket, bc.Count)
	}
}
