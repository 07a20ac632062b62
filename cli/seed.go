package main

import (
	"context"
	"fmt"

	"github.com/choiniere/bucketlist/bucket"
	"github.com/choiniere/bucketlist/enao"
	"github.com/choiniere/bucketlist/subcmd"
)

func seedCmd(_ context.Context, args []string) error {
	sc := subcmd.New("seed", "scrape the everynoise genre index and report which genres the\nmapping tables don't cover yet")
	if err := sc.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	genres, err := enao.AllGenres()
	if err != nil {
		return err
	}

	mapper := bucket.Default()
	var unmapped int
	for _, g := range genres {
		if mapper.Known(g.Name) {
			continue
		}
		unmapped++
		if g.Example != "" {
			fmt.Printf("%s\t(%s)\n", g.Name, g.Example)
		} else {
			fmt.Println(g.Name)
		}
	}

	fmt.Printf("\n%d genres, %d unmapped (rules version %d)\n",
		len(genres), unmapped, mapper.Version())
	return nil
}
