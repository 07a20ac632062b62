package request

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// FetchHTML does an HTTP GET on the given URL, then parses the response as
// HTML.
func FetchHTML(url string) (*goquery.Document, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("error fetching '%s': %w", url, err)
	}
	defer resp.Body.Close()

	if err := Error(resp); err != nil {
		return nil, fmt.Errorf("unexpected status from '%s': %w", url, err)
	}

	if contentType := resp.Header.Get("Content-type"); contentType != "text/html" {
		return nil, fmt.Errorf("expected an html response at '%s', but got '%s'", url, contentType)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing html from '%s': %w", url, err)
	}

	return doc, nil
}

// FetchJSON does an HTTP GET with the given query and headers, then decodes
// the response body into result.
func FetchJSON(ctx context.Context, baseURL string, query url.Values, headers map[string]string, result interface{}) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("bad url '%s': %w", baseURL, err)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error fetching '%s': %w", baseURL, err)
	}
	defer resp.Body.Close()
	if err := Error(resp); err != nil {
		return fmt.Errorf("unexpected status from '%s': %w", baseURL, err)
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("error decoding json from '%s': %w", baseURL, err)
	}
	return nil
}

// A StatusError is a non-2xx response. When the server asked us to slow
// down, RetryAfter carries its Retry-After header in seconds.
type StatusError struct {
	StatusCode int
	RetryAfter int64
	Dump       string
}

func (e *StatusError) Error() string {
	if e.Dump == "" {
		return fmt.Sprintf("http status code %d", e.StatusCode)
	}
	return fmt.Sprintf("http status code %d:\n%s", e.StatusCode, e.Dump)
}

// Error checks the given http response for an error code, and, if one is
// present, reads the body and returns a *StatusError.
func Error(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	statusErr := &StatusError{StatusCode: resp.StatusCode}
	if after := resp.Header.Get("Retry-After"); after != "" {
		if seconds, err := strconv.ParseInt(after, 10, 64); err == nil {
			statusErr.RetryAfter = seconds
		}
	}
	if bs, err := httputil.DumpResponse(resp, true); err == nil {
		statusErr.Dump = string(bs)
	}
	return statusErr
}
