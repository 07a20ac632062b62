// Package spotify is the catalog client: artist genre lookups, track
// credits, playlist listing, and playlist mutation. Read-only endpoints
// work with app (client-credentials) auth; playlist mutation and saved
// tracks require a user-authorized token (see auth.go).
//
// The client serializes requests, spaces them out, and honors Spotify's
// documented rate limiter by checking Retry-After on 429 responses, so a
// throttled run won't error, it will just take longer.
package spotify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"

	"github.com/choiniere/bucketlist/data"
	"github.com/choiniere/bucketlist/request"
)

const nextReqFilename = "next-req"

// New creates a Spotify client using the app's client credentials. This is
// enough for every read-only catalog endpoint.
func New(clientID, clientSecret string) *Client {
	var nextReqAt time.Time
	if _, err := os.Stat(nextReqFilename); !errors.Is(err, os.ErrNotExist) {
		bs, err := os.ReadFile(nextReqFilename)
		if err != nil {
			panic(err)
		}
		nextReqAt, err = time.Parse(time.UnixDate, string(bs))
		if err != nil {
			panic(err)
		}
	}

	client := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		nextReqAtPtr: atomic.Pointer[time.Time]{},
		delay:        time.Second / 10,
	}
	client.setNextReqAt(nextReqAt)
	return client
}

// NewUser creates a client backed by a user-authorized token source, which
// unlocks saved tracks and playlist mutation.
func NewUser(clientID, clientSecret string, ts oauth2.TokenSource) *Client {
	client := New(clientID, clientSecret)
	client.tokenSource = ts
	return client
}

type Client struct {
	mu sync.Mutex

	clientID     string
	clientSecret string
	tokenSource  oauth2.TokenSource

	nextReqAtPtr atomic.Pointer[time.Time]
	delay        time.Duration

	accessToken string
	expiresAt   time.Time
}

// ArtistGenres returns the raw genre tags on an artist's catalog entry.
func (spo *Client) ArtistGenres(ctx context.Context, artistID string) ([]string, error) {
	resp, err := spo.get(ctx, fmt.Sprintf("https://api.spotify.com/v1/artists/%s", artistID), nil)
	if err != nil {
		return nil, err
	}

	defer resp.Close()
	var result artistResult
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("artist decode error: %w", err)
	}

	return result.Genres, nil
}

type artistResult struct {
	ID     string
	Name   string
	Genres []string
}

// SearchArtistGenres searches the catalog by artist name and returns the
// first match's tags. An empty result means no match, not an error.
func (spo *Client) SearchArtistGenres(ctx context.Context, name string) ([]string, error) {
	query := url.Values{}
	query.Add("query", fmt.Sprintf("artist:%s", name))
	query.Add("type", "artist")
	query.Add("limit", "1")

	resp, err := spo.get(ctx, "https://api.spotify.com/v1/search", query)
	if err != nil {
		return nil, err
	}

	defer resp.Close()
	var results artistSearchResults
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&results); err != nil {
		return nil, fmt.Errorf("artist search decode error: %w", err)
	}

	if len(results.Artists.Items) == 0 {
		return nil, nil
	}
	return results.Artists.Items[0].Genres, nil
}

type artistSearchResults struct {
	Artists struct {
		Items []artistResult
	}
}

// RelatedArtists returns the artists Spotify considers similar to the given
// one, with their genre tags attached.
func (spo *Client) RelatedArtists(ctx context.Context, artistID string) ([]data.Artist, error) {
	resp, err := spo.get(ctx, fmt.Sprintf("https://api.spotify.com/v1/artists/%s/related-artists", artistID), nil)
	if err != nil {
		return nil, err
	}

	defer resp.Close()
	var results relatedArtistsResults
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&results); err != nil {
		return nil, fmt.Errorf("related artists decode error: %w", err)
	}

	artists := make([]data.Artist, len(results.Artists))
	for i, artist := range results.Artists {
		artists[i] = data.Artist{
			SpotifyID: artist.ID,
			Name:      artist.Name,
			Genres:    artist.Genres,
		}
	}
	return artists, nil
}

type relatedArtistsResults struct {
	Artists []artistResult
}

// Track returns one track with its ordered artist credits. The first
// credit is the primary artist; the rest are featured.
func (spo *Client) Track(ctx context.Context, trackID string) (data.Track, error) {
	resp, err := spo.get(ctx, fmt.Sprintf("https://api.spotify.com/v1/tracks/%s", trackID), nil)
	if err != nil {
		return data.Track{}, err
	}

	defer resp.Close()
	var result trackResult
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&result); err != nil {
		return data.Track{}, fmt.Errorf("track decode error: %w", err)
	}

	return result.track(), nil
}

type trackResult struct {
	ID    string
	Name  string
	Album struct {
		Name string
	}
	Artists []struct {
		ID   string
		Name string
	}
}

func (tr trackResult) track() data.Track {
	track := data.Track{
		SpotifyID: tr.ID,
		Name:      tr.Name,
		AlbumName: tr.Album.Name,
		Artists:   make([]data.Artist, len(tr.Artists)),
	}
	for i, artist := range tr.Artists {
		role := data.RoleFeatured
		if i == 0 {
			role = data.RolePrimary
		}
		track.Artists[i] = data.Artist{
			SpotifyID: artist.ID,
			Name:      artist.Name,
			Role:      role,
		}
	}
	return track
}

// SavedTracks pages through the user's Liked Songs, returning up to max
// tracks (0 means all). Requires user auth.
func (spo *Client) SavedTracks(ctx context.Context, max int) ([]data.Track, error) {
	var tracks []data.Track
	for offset := 0; ; offset += 50 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		query := url.Values{}
		query.Add("limit", "50")
		query.Add("offset", fmt.Sprintf("%d", offset))
		resp, err := spo.get(ctx, "https://api.spotify.com/v1/me/tracks", query)
		if err != nil {
			return nil, err
		}

		var page savedTracksPage
		dec := json.NewDecoder(resp)
		if err := dec.Decode(&page); err != nil {
			resp.Close()
			return nil, fmt.Errorf("saved tracks decode error: %w", err)
		}
		resp.Close()

		for _, item := range page.Items {
			if item.Track.ID == "" {
				continue
			}
			tracks = append(tracks, item.Track.track())
			if max > 0 && len(tracks) >= max {
				return tracks, nil
			}
		}
		if len(page.Items) < 50 {
			return tracks, nil
		}
	}
}

type savedTracksPage struct {
	Items []struct {
		Track trackResult
	}
}

// PlaylistTracks pages through a playlist, returning up to max tracks
// (0 means all). Local files and removed tracks come back without ids and
// are skipped.
func (spo *Client) PlaylistTracks(ctx context.Context, playlistID string, max int) ([]data.Track, error) {
	var tracks []data.Track
	for offset := 0; ; offset += 100 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		query := url.Values{}
		query.Add("limit", "100")
		query.Add("offset", fmt.Sprintf("%d", offset))
		resp, err := spo.get(ctx, fmt.Sprintf("https://api.spotify.com/v1/playlists/%s/tracks", playlistID), query)
		if err != nil {
			return nil, err
		}

		var page savedTracksPage
		dec := json.NewDecoder(resp)
		if err := dec.Decode(&page); err != nil {
			resp.Close()
			return nil, fmt.Errorf("playlist tracks decode error: %w", err)
		}
		resp.Close()

		for _, item := range page.Items {
			if item.Track.ID == "" {
				continue
			}
			tracks = append(tracks, item.Track.track())
			if max > 0 && len(tracks) >= max {
				return tracks, nil
			}
		}
		if len(page.Items) < 100 {
			return tracks, nil
		}
	}
}

// A Playlist is the little we need to know about one: identity, name, and
// owner.
type Playlist struct {
	ID      string
	Name    string
	OwnerID string
}

// PlaylistName returns a playlist's display name.
func (spo *Client) PlaylistName(ctx context.Context, playlistID string) (string, error) {
	query := url.Values{}
	query.Add("fields", "id,name")
	resp, err := spo.get(ctx, fmt.Sprintf("https://api.spotify.com/v1/playlists/%s", playlistID), query)
	if err != nil {
		return "", err
	}

	defer resp.Close()
	var result struct{ Name string }
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&result); err != nil {
		return "", fmt.Errorf("playlist decode error: %w", err)
	}
	return result.Name, nil
}

// CurrentUser returns the authorized user's id. Requires user auth.
func (spo *Client) CurrentUser(ctx context.Context) (string, error) {
	resp, err := spo.get(ctx, "https://api.spotify.com/v1/me", nil)
	if err != nil {
		return "", err
	}

	defer resp.Close()
	var result struct{ ID string }
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&result); err != nil {
		return "", fmt.Errorf("current user decode error: %w", err)
	}
	return result.ID, nil
}

// Playlists pages through the user's playlists. Requires user auth.
func (spo *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist
	for offset := 0; ; offset += 50 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		query := url.Values{}
		query.Add("limit", "50")
		query.Add("offset", fmt.Sprintf("%d", offset))
		resp, err := spo.get(ctx, "https://api.spotify.com/v1/me/playlists", query)
		if err != nil {
			return nil, err
		}

		var page playlistsPage
		dec := json.NewDecoder(resp)
		if err := dec.Decode(&page); err != nil {
			resp.Close()
			return nil, fmt.Errorf("playlists decode error: %w", err)
		}
		resp.Close()

		for _, item := range page.Items {
			playlists = append(playlists, Playlist{
				ID:      item.ID,
				Name:    item.Name,
				OwnerID: item.Owner.ID,
			})
		}
		if len(page.Items) < 50 {
			return playlists, nil
		}
	}
}

type playlistsPage struct {
	Items []struct {
		ID    string
		Name  string
		Owner struct {
			ID string
		}
	}
}

// CreatePlaylist creates a playlist owned by the given user. Requires user
// auth.
func (spo *Client) CreatePlaylist(ctx context.Context, ownerID, name string, public bool, description string) (Playlist, error) {
	body, err := json.Marshal(map[string]interface{}{
		"name":        name,
		"public":      public,
		"description": description,
	})
	if err != nil {
		return Playlist{}, err
	}

	resp, err := spo.do(ctx, "POST", fmt.Sprintf("https://api.spotify.com/v1/users/%s/playlists", ownerID), nil, body)
	if err != nil {
		return Playlist{}, err
	}

	defer resp.Close()
	var result struct {
		ID    string
		Name  string
		Owner struct{ ID string }
	}
	dec := json.NewDecoder(resp)
	if err := dec.Decode(&result); err != nil {
		return Playlist{}, fmt.Errorf("create playlist decode error: %w", err)
	}
	return Playlist{ID: result.ID, Name: result.Name, OwnerID: result.Owner.ID}, nil
}

// AddPlaylistTracks appends tracks to a playlist in API-sized chunks.
// Requires user auth.
func (spo *Client) AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	for _, chunk := range chunked(trackIDs, 100) {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := json.Marshal(map[string]interface{}{"uris": trackURIs(chunk)})
		if err != nil {
			return err
		}
		resp, err := spo.do(ctx, "POST", fmt.Sprintf("https://api.spotify.com/v1/playlists/%s/tracks", playlistID), nil, body)
		if err != nil {
			return err
		}
		resp.Close()
	}
	return nil
}

// RemovePlaylistTracks removes every occurrence of the given tracks.
// Requires user auth.
func (spo *Client) RemovePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	for _, chunk := range chunked(trackIDs, 100) {
		if err := ctx.Err(); err != nil {
			return err
		}
		uris := make([]map[string]string, len(chunk))
		for i, id := range trackURIs(chunk) {
			uris[i] = map[string]string{"uri": id}
		}
		body, err := json.Marshal(map[string]interface{}{"tracks": uris})
		if err != nil {
			return err
		}
		resp, err := spo.do(ctx, "DELETE", fmt.Sprintf("https://api.spotify.com/v1/playlists/%s/tracks", playlistID), nil, body)
		if err != nil {
			return err
		}
		resp.Close()
	}
	return nil
}

func trackURIs(trackIDs []string) []string {
	uris := make([]string, len(trackIDs))
	for i, id := range trackIDs {
		uris[i] = "spotify:track:" + id
	}
	return uris
}

func chunked(ids []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[i:end])
	}
	return chunks
}

// ExtractPlaylistID accepts a playlist URL, URI, or bare id and returns the
// id.
func ExtractPlaylistID(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "spotify:playlist:") {
		parts := strings.Split(s, ":")
		return parts[len(parts)-1]
	}
	if idx := strings.Index(s, "open.spotify.com/playlist/"); idx >= 0 {
		s = s[idx+len("open.spotify.com/playlist/"):]
		if q := strings.IndexByte(s, '?'); q >= 0 {
			s = s[:q]
		}
	}
	return s
}

func (spo *Client) nextReqAt() time.Time {
	return *spo.nextReqAtPtr.Load()
}

func (spo *Client) setNextReqAt(to time.Time) {
	spo.nextReqAtPtr.Store(&to)
}

func (spo *Client) get(ctx context.Context, baseURL string, query url.Values) (io.ReadCloser, error) {
	return spo.do(ctx, "GET", baseURL, query, nil)
}

func (spo *Client) do(ctx context.Context, method, baseURL string, query url.Values, body []byte) (io.ReadCloser, error) {
	spo.mu.Lock()
	defer spo.mu.Unlock()

retry:
	nextReqAt := spo.nextReqAt()
	if !nextReqAt.IsZero() {
		now := time.Now()
		if nextReqAt.Sub(now) > time.Second {
			log.Printf("next request in %s at %s", nextReqAt.Sub(now).Truncate(time.Second), nextReqAt.Format(time.StampMilli))
		}
	wait:
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Until(nextReqAt)):
			break wait
		}
		if err := os.Remove(nextReqFilename); err != nil && !errors.Is(err, os.ErrNotExist) {
			panic(err)
		}
	}

	url, _ := url.Parse(baseURL)
	url.RawQuery = query.Encode()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-type", "application/json")
	}

	token, err := spo.token()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	if resp.StatusCode == 429 {
		spo.delay = 2 * spo.delay
		var nextReqAt time.Time
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter == "" {
			log.Printf("no retry-after header on 429; retrying in 1 minute")
			nextReqAt = time.Now().Add(time.Minute)
		} else {
			seconds, err := strconv.ParseInt(retryAfter, 10, 64)
			if err != nil {
				return nil, err
			}
			waitTime := time.Duration(seconds)*time.Second + time.Second
			log.Printf("429; retrying in %s", waitTime)
			nextReqAt = time.Now().Add(waitTime)
		}
		spo.setNextReqAt(nextReqAt)
		if err := os.WriteFile(nextReqFilename, []byte(nextReqAt.Format(time.UnixDate)), 0666); err != nil {
			return nil, err
		}
		goto retry
	}
	if err := request.Error(resp); err != nil {
		return nil, fmt.Errorf("fetch error: %w", err)
	}

	spo.setNextReqAt(time.Now().Add(spo.delay))

	return resp.Body, nil
}

type tokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (spo *Client) token() (string, error) {
	if spo.tokenSource != nil {
		token, err := spo.tokenSource.Token()
		if err != nil {
			return "", fmt.Errorf("user token error: %w", err)
		}
		return fmt.Sprintf("Bearer %s", token.AccessToken), nil
	}

	if spo.accessToken == "" || spo.expiresAt.Before(time.Now().Add(time.Second)) {
		if err := spo.fetchToken(); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Bearer %s", spo.accessToken), nil
}

func (spo *Client) fetchToken() error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	url := "https://accounts.spotify.com/api/token"
	req, err := http.NewRequest("POST", url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("token request error: %w", err)
	}
	up := fmt.Sprintf("%s:%s", spo.clientID, spo.clientSecret)
	credential := base64.StdEncoding.EncodeToString([]byte(up))
	req.Header.Set("Authorization", fmt.Sprintf("Basic %s", credential))
	req.Header.Set("Content-type", "application/x-www-form-urlencoded")

	requestAt := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request error: %w", err)
	}
	defer resp.Body.Close()
	if err := request.Error(resp); err != nil {
		return fmt.Errorf("token fetch error: %w", err)
	}

	var result tokenResult
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&result); err != nil {
		return fmt.Errorf("token decode error: %w", err)
	}

	spo.accessToken = result.AccessToken
	spo.expiresAt = requestAt.Add(time.Duration(result.ExpiresIn) * time.Second)

	return nil
}
