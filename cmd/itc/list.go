package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/artcache/internal/artstore"
	"github.com/samcharles93/artcache/internal/catalog"
	"github.com/samcharles93/artcache/internal/logger"
	"github.com/samcharles93/artcache/pkg/itc"
)

func listCmd() *cli.Command {
	var (
		asJSON bool
		digest bool
	)

	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List the images held in .itc files",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print listings as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "digest", Usage: "include a BLAKE3 digest of each payload", Destination: &digest},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			applyListConfig(c, cfg, &digest)

			paths, err := expandArgs(c.Args().Slice())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			listings := make([]catalog.Listing, 0, len(paths))
			failed := 0
			for _, path := range paths {
				if err := checkContainer(path); err != nil {
					log.Error("skipping file", "path", path, "error", err)
					failed++
					continue
				}
				// Digests need the payloads; a plain listing only needs the headers.
				f, err := artstore.Load(ctx, path, itc.ReadOptions{MetadataOnly: !digest})
				if err != nil {
					log.Error("read failed", "path", path, "error", err)
					failed++
					continue
				}
				logWarnings(log, path, f)
				log.Debug("read container", "path", path, "images", f.Len(), "variant", f.Variant.String())
				listings = append(listings, catalog.Build(path, f, digest))
			}

			w := c.Root().Writer
			if asJSON {
				err = catalog.WriteJSON(w, listings)
			} else {
				err = catalog.WriteText(w, listings)
			}
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: write listing: %v", err), 1)
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("error: %d of %d file(s) could not be read", failed, len(paths)), 1)
			}
			return nil
		},
	}
}

func logWarnings(log logger.Logger, path string, f *itc.File) {
	for _, w := range f.Warnings {
		log.Warn("inconsistent identifier",
			"path", path,
			"image", w.Record,
			"field", w.Field,
			"kept", fmt.Sprintf("%016X", w.Kept),
			"found", fmt.Sprintf("%016X", w.Found),
		)
	}
}
