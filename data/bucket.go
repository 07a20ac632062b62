package data

// A Bucket is one of the six canonical genre categories every track is
// sorted into, or the Unclassified sentinel for tracks that produced no
// evidence at all.
type Bucket string

const (
	Rock       Bucket = "rock"
	Country    Bucket = "country"
	HipHop     Bucket = "hip-hop"
	Classical  Bucket = "classical"
	Musical    Bucket = "musical"
	Electronic Bucket = "electronic"

	// Unclassified is not a real bucket: it marks a track whose every
	// artist yielded zero evidence. Consumers must handle it explicitly
	// rather than defaulting to a canonical bucket.
	Unclassified Bucket = "unclassified"
)

// Buckets lists the canonical buckets in tie-break priority order. A score
// tie that survives the confidence comparison resolves to the earlier
// bucket in this list.
var Buckets = []Bucket{Rock, Country, HipHop, Classical, Musical, Electronic}

func (b Bucket) String() string { return string(b) }

// Priority returns the bucket's position in the tie-break order, with
// Unclassified (and anything unknown) sorting last.
func (b Bucket) Priority() int {
	for i, canonical := range Buckets {
		if b == canonical {
			return i
		}
	}
	return len(Buckets)
}
