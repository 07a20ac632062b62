package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/choiniere/bucketlist/bucket"
	"github.com/choiniere/bucketlist/cache"
	"github.com/choiniere/bucketlist/classify"
	"github.com/choiniere/bucketlist/data"
	"github.com/choiniere/bucketlist/musicbrainz"
	"github.com/choiniere/bucketlist/report"
	"github.com/choiniere/bucketlist/setflag"
	"github.com/choiniere/bucketlist/spotify"
	"github.com/choiniere/bucketlist/subcmd"
)

// runFlags are the flags shared by every command that classifies tracks.
type runFlags struct {
	liked      *bool
	playlist   *string
	max        *int
	allArtists *bool
	infer      *setflag.SetFlag
	mbDelay    *float64
	cachePath  *string
}

func addRunFlags(sc *subcmd.Subcommand) *runFlags {
	rf := &runFlags{
		liked:      sc.Bool("liked", false, "classify your Liked Songs"),
		playlist:   sc.String("playlist", "", "classify a playlist given its id, url, or uri"),
		max:        sc.Int("max", 0, "classify at most N tracks (0 = all)"),
		allArtists: sc.Bool("all-artists", false, "score every credited artist, not just the primary one"),
		infer:      setflag.New("related", "encyclopedia"),
		mbDelay:    sc.Float64("mb-delay", 1.1, "seconds between MusicBrainz requests"),
		cachePath:  sc.String("cache", "bucketlist.db", "artist tag cache file"),
	}
	sc.Var(rf.infer, "infer", "extra evidence sources for tagless artists: 'related', 'encyclopedia', or both")
	return rf
}

func (rf *runFlags) config() classify.Config {
	return classify.Config{
		UseAllArtists:     *rf.allArtists,
		InferRelated:      rf.infer.Has("related"),
		UseEncyclopedia:   rf.infer.Has("encyclopedia"),
		EncyclopediaDelay: time.Duration(*rf.mbDelay * float64(time.Second)),
	}
}

func (rf *runFlags) classifier(spo *spotify.Client, store *cache.Cache) (*classify.Classifier, error) {
	cfg := rf.config()
	var tags classify.TagService
	if cfg.UseEncyclopedia {
		tags = musicbrainz.New(cfg.EncyclopediaDelay)
	}
	return classify.New(spo, tags, store, bucket.Default(), cfg)
}

// tracks lists the tracks to classify from whichever source was selected.
func (rf *runFlags) tracks(ctx context.Context, spo *spotify.Client) ([]data.Track, error) {
	switch {
	case *rf.liked:
		log.Printf("fetching liked songs")
		return spo.SavedTracks(ctx, *rf.max)

	case *rf.playlist != "":
		id := spotify.ExtractPlaylistID(*rf.playlist)
		name, err := spo.PlaylistName(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("error resolving playlist '%s': %w", id, err)
		}
		log.Printf("fetching playlist %s (%s)", name, id)
		return spo.PlaylistTracks(ctx, id, *rf.max)

	default:
		return nil, fmt.Errorf("choose one of -liked or -playlist <id/url/uri>")
	}
}

// client builds a catalog client, running the user authorization flow when
// the selected work needs it.
func (rf *runFlags) client(ctx context.Context, cfg env, needUser bool) (*spotify.Client, error) {
	if !needUser && !*rf.liked {
		return spotify.New(cfg.ClientID, cfg.ClientSecret), nil
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("must set SPOTIFY_REDIRECT_URI for user-authorized commands")
	}
	ts, err := spotify.Authorize(ctx, cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI, cfg.TokenCache)
	if err != nil {
		return nil, err
	}
	return spotify.NewUser(cfg.ClientID, cfg.ClientSecret, ts), nil
}

func classifyCmd(ctx context.Context, args []string) error {
	sc := subcmd.New("classify", "classify tracks into genre buckets and export a csv report\nrequires SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET")
	rf := addRunFlags(sc)
	csvPath := sc.String("csv", "genre_assignments.csv", "csv path for the report")
	if err := sc.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	cfg, err := loadEnv()
	if err != nil {
		return err
	}

	spo, err := rf.client(ctx, cfg, false)
	if err != nil {
		return err
	}

	store, err := cache.Open(*rf.cachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	classifier, err := rf.classifier(spo, store)
	if err != nil {
		return err
	}

	tracks, err := rf.tracks(ctx, spo)
	if err != nil {
		return err
	}
	log.Printf("classifying %d tracks", len(tracks))

	results, err := classifier.ClassifyTracks(ctx, tracks)
	if err != nil {
		return err
	}

	if err := report.SaveCSV(*csvPath, results); err != nil {
		return err
	}
	log.Printf("wrote report: %s", *csvPath)

	report.PrintCounts(os.Stdout, results)
	return nil
}
