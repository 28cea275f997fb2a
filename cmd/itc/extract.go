package main

import (
	"context"
	"fmt"
	"os"

	"github.com/klauspost/compress/zlib"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/artcache/internal/artstore"
	"github.com/samcharles93/artcache/internal/logger"
	"github.com/samcharles93/artcache/pkg/itc"
)

func extractCmd() *cli.Command {
	var (
		number      int
		basename    string
		outDir      string
		compression int
	)

	return &cli.Command{
		Name:      "extract",
		Aliases:   []string{"x"},
		Usage:     "Write the images held in .itc files to disk",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "number",
				Aliases:     []string{"n"},
				Usage:       "extract only image N (1-based); 0 extracts all",
				Destination: &number,
			},
			&cli.StringFlag{
				Name:        "basename",
				Aliases:     []string{"b"},
				Usage:       "output file name prefix (default: container name)",
				Destination: &basename,
			},
			&cli.StringFlag{
				Name:        "dir",
				Aliases:     []string{"d"},
				Usage:       "output directory (default: alongside the container)",
				Destination: &outDir,
			},
			&cli.IntFlag{
				Name:        "compression",
				Usage:       "deflate level (0-9) for raw ARGB images written as PNG",
				Destination: &compression,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			applyExtractConfig(c, cfg, &outDir, &compression)

			if compression < zlib.NoCompression || compression > zlib.BestCompression {
				return cli.Exit(fmt.Sprintf("error: --compression must be between %d and %d", zlib.NoCompression, zlib.BestCompression), 1)
			}
			if number < 0 {
				return cli.Exit("error: --number must be >= 1", 1)
			}

			paths, err := expandArgs(c.Args().Slice())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if basename != "" && len(paths) > 1 {
				return cli.Exit("error: --basename needs exactly one FILE", 1)
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return cli.Exit(fmt.Sprintf("error: create output dir: %v", err), 1)
				}
			}

			opts := itc.ExportOptions{Compression: compression}
			failed := 0
			for _, path := range paths {
				names, err := extractOne(ctx, path, outputPrefix(path, basename, outDir), number, opts)
				for _, name := range names {
					log.Info("extracted image", "path", path, "output", name)
				}
				if err != nil {
					log.Error("extract failed", "path", path, "error", err)
					failed++
				}
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("error: %d of %d file(s) failed", failed, len(paths)), 1)
			}
			return nil
		},
	}
}

func extractOne(ctx context.Context, path, prefix string, number int, opts itc.ExportOptions) ([]string, error) {
	if err := checkContainer(path); err != nil {
		return nil, err
	}
	f, err := artstore.Load(ctx, path, itc.ReadOptions{})
	if err != nil {
		return nil, err
	}
	logWarnings(logger.FromContext(ctx), path, f)

	if number > 0 {
		name, err := f.ExportImage(number, prefix, opts)
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	}
	return f.ExportAll(prefix, opts)
}
