package data

// A ScoreVector accumulates, for one track, the weighted confidence mass
// each bucket has collected across every contributing artist.
type ScoreVector map[Bucket]float64

// Add accumulates weight*confidence into the evidence's bucket.
func (this ScoreVector) Add(ev Evidence, roleWeight float64) {
	this[ev.Bucket] += roleWeight * ev.Confidence
}

// Clone returns an independent copy, so a result can snapshot the vector
// without aliasing scorer state.
func (this ScoreVector) Clone() ScoreVector {
	result := make(ScoreVector, len(this))
	for k, v := range this {
		result[k] = v
	}
	return result
}

// IsZero reports whether no bucket collected any score at all.
func (this ScoreVector) IsZero() bool {
	for _, v := range this {
		if v > 0 {
			return false
		}
	}
	return true
}
