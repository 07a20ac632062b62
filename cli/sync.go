package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/choiniere/bucketlist/cache"
	"github.com/choiniere/bucketlist/playlist"
	"github.com/choiniere/bucketlist/report"
	"github.com/choiniere/bucketlist/subcmd"
)

func syncCmd(ctx context.Context, args []string) error {
	sc := subcmd.New("sync", "classify tracks and maintain one playlist per genre bucket\nrequires SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET, and SPOTIFY_REDIRECT_URI")
	rf := addRunFlags(sc)
	prefix := sc.String("prefix", "", "bucket playlist name prefix (default \"Genres – \")")
	public := sc.Bool("public", false, "create new bucket playlists as public")
	clear := sc.Bool("clear", false, "empty each bucket playlist before adding")
	owner := sc.String("owner", "", "owner of created playlists (default: the authorized user)")
	if err := sc.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	cfg, err := loadEnv()
	if err != nil {
		return err
	}

	// Playlist mutation always needs a user token, whatever the source.
	spo, err := rf.client(ctx, cfg, true)
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

	syncer := playlist.New(spo, playlist.Options{
		Prefix:  *prefix,
		OwnerID: *owner,
		Public:  *public,
		Clear:   *clear,
	})
	summaries, err := syncer.Sync(ctx, results)
	if err != nil {
		return err
	}

	for _, sum := range summaries {
		created := ""
		if sum.Created {
			created = " (created)"
		}
		fmt.Printf("%s%s: %d tracks, %d added\n", sum.Name, created, sum.Total, sum.Added)
	}

	report.PrintCounts(os.Stdout, results)
	return nil
}
