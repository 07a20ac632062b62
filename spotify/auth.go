package spotify

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// Scopes covers everything the sync subcommand touches: reading the
// library and private playlists, and creating/updating playlists.
var Scopes = []string{
	"user-library-read",
	"playlist-read-private",
	"playlist-modify-private",
	"playlist-modify-public",
}

const authURL = "https://accounts.spotify.com/authorize"
const tokenURL = "https://accounts.spotify.com/api/token"

// Authorize returns a user token source, running the authorization-code
// flow on first use and caching the token (with its refresh token) in
// cacheFile for later runs. It prompts on stderr and reads the pasted
// redirect code from stdin.
func Authorize(ctx context.Context, clientID, clientSecret, redirectURI, cacheFile string) (oauth2.TokenSource, error) {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}

	token, err := loadToken(cacheFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "authorize this app, then paste the 'code' query param from the redirect:\n\n  %s\n\ncode: ",
			conf.AuthCodeURL("", oauth2.AccessTypeOffline))
		code, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("error reading auth code: %w", err)
		}
		token, err = conf.Exchange(ctx, trimmed(code))
		if err != nil {
			return nil, fmt.Errorf("error exchanging auth code: %w", err)
		}
	}

	return &savingTokenSource{
		source:    conf.TokenSource(ctx, token),
		cacheFile: cacheFile,
		last:      token,
	}, nil
}

func trimmed(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r' || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}

// savingTokenSource persists tokens whenever the underlying source
// refreshes them, so the next run skips the browser dance.
type savingTokenSource struct {
	source    oauth2.TokenSource
	cacheFile string
	last      *oauth2.Token
}

func (ts *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := ts.source.Token()
	if err != nil {
		return nil, err
	}
	if ts.last == nil || token.AccessToken != ts.last.AccessToken {
		ts.last = token
		if err := saveToken(ts.cacheFile, token); err != nil {
			return nil, fmt.Errorf("error caching oauth token: %w", err)
		}
	}
	return token, nil
}

func loadToken(filename string) (*oauth2.Token, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(bs, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func saveToken(filename string, token *oauth2.Token) error {
	bs, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, bs, 0600)
}
