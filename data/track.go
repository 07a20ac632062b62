package data

// A Track is one classifiable item pulled from a playlist or from the
// user's saved songs.
type Track struct {
	SpotifyID string
	Name      string
	AlbumName string
	Artists   []Artist
}

// PrimaryArtist returns the first credited artist, or a zero Artist when
// the catalog reported no credits at all.
func (t Track) PrimaryArtist() Artist {
	if len(t.Artists) == 0 {
		return Artist{}
	}
	return t.Artists[0]
}
