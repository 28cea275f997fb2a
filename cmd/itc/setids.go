package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/artcache/internal/artstore"
	"github.com/samcharles93/artcache/internal/logger"
	"github.com/samcharles93/artcache/pkg/itc"
)

func setIDsCmd() *cli.Command {
	return &cli.Command{
		Name:      "set-ids",
		Usage:     "Set the library and track identifiers of an .itc file",
		ArgsUsage: "FILE LIBRARY:TRACK",
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)

			if c.Args().Len() != 2 {
				return cli.Exit("error: usage: itc set-ids FILE LIBRARY:TRACK", 1)
			}
			path := c.Args().Get(0)
			library, track, err := parseIDs(c.Args().Get(1))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if err := checkContainer(path); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			err = artstore.Update(ctx, path, artstore.UpdateOptions{}, func(f *itc.File) error {
				if f.Len() == 0 {
					log.Warn("container holds no images, identifiers will not be stored", "path", path)
				}
				f.SetIDs(library, track)
				return nil
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Info("identifiers updated",
				"path", path,
				"library", fmt.Sprintf("%016X", library),
				"track", fmt.Sprintf("%016X", track),
			)
			return nil
		},
	}
}
