package data

// A Source identifies which classification source contributed a piece of
// evidence. Sources are consulted in the order they are declared here.
type Source string

const (
	SourceDirect       Source = "direct"
	SourceAlias        Source = "alias"
	SourceName         Source = "name-heuristic"
	SourceRelated      Source = "related-artist"
	SourceEncyclopedia Source = "encyclopedia-tag"
)

// Confidence returns the hand-tuned confidence assigned to evidence from
// this source. Don't adjust the values without re-validating the scoring
// model against a labeled library.
func (s Source) Confidence() float64 {
	switch s {
	case SourceDirect:
		return 1.0
	case SourceAlias:
		return 0.9
	case SourceName:
		return 0.7
	case SourceRelated:
		return 0.6
	case SourceEncyclopedia:
		return 0.5
	}
	return 0
}

// Evidence is a single (bucket, confidence, source) observation contributed
// by one source for one artist.
type Evidence struct {
	Bucket     Bucket
	Confidence float64
	Source     Source
}

// ArtistEvidence pairs an artist with everything the collector found for
// them, for scoring and for the audit trail on the final result.
type ArtistEvidence struct {
	Artist   Artist
	Evidence []Evidence
}
