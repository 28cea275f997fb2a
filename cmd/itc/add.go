package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/artcache/internal/artstore"
	"github.com/samcharles93/artcache/internal/logger"
	"github.com/samcharles93/artcache/pkg/itc"
)

func addCmd() *cli.Command {
	var variantName string

	return &cli.Command{
		Name:      "add",
		Usage:     "Append .jpg or .png images to an .itc file, creating it if needed",
		ArgsUsage: "FILE IMAGE:WIDTH:HEIGHT...",
		Flags:     []cli.Flag{variantFlag(&variantName)},
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			applyVariantConfig(c, cfg, &variantName)

			args := c.Args().Slice()
			if len(args) < 2 {
				return cli.Exit("error: usage: itc add FILE IMAGE:WIDTH:HEIGHT...", 1)
			}
			variant, err := itc.ParseVariant(variantName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			path := args[0]
			specs := make([]imageSpec, 0, len(args)-1)
			for _, arg := range args[1:] {
				spec, err := parseImageSpec(arg)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				specs = append(specs, spec)
			}

			err = artstore.Update(ctx, path, artstore.UpdateOptions{Create: true, Variant: variant}, func(f *itc.File) error {
				logWarnings(log, path, f)
				for _, spec := range specs {
					if err := f.AddImage(spec.Path, spec.Width, spec.Height); err != nil {
						return err
					}
					log.Info("added image",
						"path", path,
						"image", spec.Path,
						"number", f.Len(),
						"size", fmt.Sprintf("%dx%d", spec.Width, spec.Height),
					)
				}
				return nil
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return nil
		},
	}
}
