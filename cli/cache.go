package main

import (
	"context"
	"fmt"

	"github.com/choiniere/bucketlist/cache"
	"github.com/choiniere/bucketlist/subcmd"
)

func cacheCmd(_ context.Context, args []string) error {
	sc := subcmd.New("cache", "inspect the artist tag cache")
	cachePath := sc.String("cache", "bucketlist.db", "artist tag cache file")
	prune := sc.Bool("prune", false, "delete expired entries")
	if err := sc.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	store, err := cache.Open(*cachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	total, expired, err := store.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("%d entries, %d expired\n", total, expired)

	if *prune && expired > 0 {
		pruned, err := store.Prune()
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d expired entries\n", pruned)
	}

	return nil
}
