// bucketlist sorts music tracks into a small set of genre buckets by
// combining catalog metadata, curated overrides, name heuristics, related
// artists, and encyclopedia tags, then materializes playlists and reports
// from the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/choiniere/bucketlist/sigctx"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
		panic(err)
	}
}

var usage = strings.TrimSpace(`
usage: bucketlist $cmd
valid $cmd are 'classify', 'sync', 'seed', 'cache'
for help: bucketlist $cmd -help
`)

func run() error {
	ctx := sigctx.New()

	if len(os.Args) < 2 {
		return fmt.Errorf(usage)
	}
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "classify":
		return classifyCmd(ctx, args)

	case "sync":
		return syncCmd(ctx, args)

	case "seed":
		return seedCmd(ctx, args)

	case "cache":
		return cacheCmd(ctx, args)

	default:
		return fmt.Errorf("unknown cmd: '%s'\n%s", cmd, usage)
	}
}
