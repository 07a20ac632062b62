package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// env holds the process-level configuration. Client credentials are always
// required; the redirect URI only matters for commands that need a
// user-authorized token (liked songs, playlist mutation).
type env struct {
	ClientID     string `envconfig:"SPOTIFY_CLIENT_ID" required:"true"`
	ClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET" required:"true"`
	RedirectURI  string `envconfig:"SPOTIFY_REDIRECT_URI"`
	TokenCache   string `envconfig:"SPOTIFY_TOKEN_CACHE" default:".oauthcache"`
}

func loadEnv() (env, error) {
	var cfg env
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("environment error: %w", err)
	}
	return cfg, nil
}
