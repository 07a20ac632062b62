package classify

import "github.com/choiniere/bucketlist/data"

// Score combines all evidence for one track into a per-bucket score vector
// and picks the winning bucket. It is pure: given fixed evidence the
// outcome is identical on every call.
//
// Each evidence entry adds roleWeight×confidence to its bucket. The winner
// is the maximum score; an exact tie prefers the bucket whose first
// contributing evidence carried the higher confidence, and a tie beyond
// that resolves by the fixed bucket priority order. An all-zero vector
// yields the Unclassified sentinel.
func Score(artists []data.ArtistEvidence) (data.ScoreVector, data.Bucket) {
	vector := data.ScoreVector{}
	firstConfidence := map[data.Bucket]float64{}

	for _, ae := range artists {
		weight := ae.Artist.Role.Weight()
		for _, ev := range ae.Evidence {
			if _, seen := firstConfidence[ev.Bucket]; !seen {
				firstConfidence[ev.Bucket] = ev.Confidence
			}
			vector.Add(ev, weight)
		}
	}

	if vector.IsZero() {
		return vector, data.Unclassified
	}

	winner := data.Unclassified
	top := 0.0
	for _, b := range data.Buckets {
		score := vector[b]
		if score > top {
			winner, top = b, score
			continue
		}
		// Exact tie: priority order iteration means the incumbent
		// already sits earlier, so it only loses to strictly higher
		// first-evidence confidence.
		if score == top && score > 0 &&
			firstConfidence[b] > firstConfidence[winner] {
			winner = b
		}
	}
	return vector, winner
}
