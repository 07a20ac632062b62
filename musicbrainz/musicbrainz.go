// Package musicbrainz is the encyclopedia tag fallback: it resolves an
// artist's display name to a MusicBrainz id, then returns the community
// tags on that artist. MusicBrainz asks for an identifying User-Agent and
// at most one request per second, so every call goes through a persistent
// politeness limiter.
package musicbrainz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/choiniere/bucketlist/limiter"
	"github.com/choiniere/bucketlist/request"
)

const (
	searchURL   = "https://musicbrainz.org/ws/2/artist/"
	lookupURL   = "https://musicbrainz.org/ws/2/artist/%s"
	nextReqFile = ".mb-next-req"
)

const userAgent = "bucketlist/1.0 ( https://github.com/choiniere/bucketlist )"

// New creates a client that leaves at least delay between consecutive
// requests.
func New(delay time.Duration) *Client {
	lim := limiter.New(nextReqFile, delay)
	if err := lim.Load(); err != nil {
		// A broken stamp file only costs us one unthrottled request.
		lim = limiter.New(nextReqFile, delay)
	}
	return &Client{lim: lim}
}

type Client struct {
	lim *limiter.Limiter
}

// TagsForArtist searches for the artist by display name and returns the
// community tags on the best match, ordered by vote count. Not-found is an
// empty result, not an error.
func (mb *Client) TagsForArtist(ctx context.Context, displayName string) ([]string, error) {
	mbid, err := mb.searchArtist(ctx, displayName)
	if err != nil {
		return nil, err
	}
	if mbid == "" {
		return nil, nil
	}
	return mb.artistTags(ctx, mbid)
}

type searchResults struct {
	Artists []struct {
		ID    string `json:"id"`
		Score int    `json:"score"`
	} `json:"artists"`
}

func (mb *Client) searchArtist(ctx context.Context, name string) (string, error) {
	if err := mb.lim.Wait(ctx); err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("query", name)
	query.Set("fmt", "json")

	var results searchResults
	err := request.FetchJSON(ctx, searchURL, query, map[string]string{
		"User-Agent": userAgent,
	}, &results)
	mb.lim.Delay()
	if err != nil {
		mb.backoff(err)
		return "", fmt.Errorf("musicbrainz search error for '%s': %w", name, err)
	}
	if len(results.Artists) == 0 {
		return "", nil
	}

	sort.SliceStable(results.Artists, func(i, j int) bool {
		return results.Artists[i].Score > results.Artists[j].Score
	})
	return results.Artists[0].ID, nil
}

// backoff persists a server-requested wait through the limiter's stamp
// file, so both the next call and a restarted process honor it.
func (mb *Client) backoff(err error) {
	var statusErr *request.StatusError
	if !errors.As(err, &statusErr) {
		return
	}
	if statusErr.StatusCode != http.StatusTooManyRequests &&
		statusErr.StatusCode != http.StatusServiceUnavailable {
		return
	}
	if err := mb.lim.SetNextAt(statusErr.RetryAfter); err != nil {
		log.Printf("error persisting musicbrainz wait: %v", err)
	}
}

type artistResult struct {
	Tags []struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	} `json:"tags"`
}

func (mb *Client) artistTags(ctx context.Context, mbid string) ([]string, error) {
	if err := mb.lim.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("inc", "tags")
	query.Set("fmt", "json")

	var result artistResult
	err := request.FetchJSON(ctx, fmt.Sprintf(lookupURL, mbid), query, map[string]string{
		"User-Agent": userAgent,
	}, &result)
	mb.lim.Delay()
	if err != nil {
		mb.backoff(err)
		return nil, fmt.Errorf("musicbrainz lookup error for '%s': %w", mbid, err)
	}

	sort.SliceStable(result.Tags, func(i, j int) bool {
		return result.Tags[i].Count > result.Tags[j].Count
	})
	tags := make([]string, 0, len(result.Tags))
	for _, tag := range result.Tags {
		if tag.Name != "" {
			tags = append(tags, tag.Name)
		}
	}
	return tags, nil
}
