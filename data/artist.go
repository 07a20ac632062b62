package data

// A Role describes how an artist is credited on a track. Spotify doesn't
// expose an explicit "featuring" flag, so the first credited artist is
// primary and everyone after is featured.
type Role string

const (
	RolePrimary  Role = "primary"
	RoleFeatured Role = "featured"
)

// Weight is the multiplier applied to the artist's evidence when scoring a
// track.
func (r Role) Weight() float64 {
	if r == RolePrimary {
		return 1.0
	}
	return 0.5
}

// An Artist is one credit on a track. Genres holds whatever raw tag strings
// the catalog reported; it is often empty, which is the whole reason the
// fallback evidence sources exist.
type Artist struct {
	SpotifyID string
	Name      string
	Role      Role
	Genres    []string
}
