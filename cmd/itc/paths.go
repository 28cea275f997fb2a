package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samcharles93/artcache/pkg/itc"
)

// expandArgs expands glob patterns in args, keeping the order of first
// appearance and dropping duplicates. A pattern that matches nothing is an
// error; a plain path is passed through untouched.
func expandArgs(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one FILE is required")
	}

	seen := make(map[string]struct{}, len(args))
	out := make([]string, 0, len(args))
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[") {
			add(arg)
			continue
		}
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

// checkContainer reports whether path looks like an .itc container.
func checkContainer(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.IsDir() {
		return fmt.Errorf("%s: is a directory", path)
	}
	if !itc.CanHandle(f) {
		return fmt.Errorf("%s: %w", path, itc.ErrNotContainer)
	}
	return nil
}

// outputPrefix builds the export prefix for container. The base name defaults
// to the container name without its extension; the directory defaults to
// the container's own.
func outputPrefix(container, basename, dir string) string {
	base := strings.TrimSpace(basename)
	if base == "" {
		name := filepath.Base(container)
		base = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Dir(container)
	}
	return filepath.Join(dir, base)
}

type imageSpec struct {
	Path   string
	Width  uint32
	Height uint32
}

// parseImageSpec parses IMAGE:WIDTH:HEIGHT. The image path may itself
// contain colons.
func parseImageSpec(s string) (imageSpec, error) {
	hi := strings.LastIndexByte(s, ':')
	if hi < 0 {
		return imageSpec{}, fmt.Errorf("image %q: want IMAGE:WIDTH:HEIGHT", s)
	}
	wi := strings.LastIndexByte(s[:hi], ':')
	if wi <= 0 {
		return imageSpec{}, fmt.Errorf("image %q: want IMAGE:WIDTH:HEIGHT", s)
	}

	width, err := parseDimension(s[wi+1 : hi])
	if err != nil {
		return imageSpec{}, fmt.Errorf("image %q: width: %w", s, err)
	}
	height, err := parseDimension(s[hi+1:])
	if err != nil {
		return imageSpec{}, fmt.Errorf("image %q: height: %w", s, err)
	}
	spec := imageSpec{Path: s[:wi], Width: width, Height: height}
	if _, err := itc.EncodingForPath(spec.Path); err != nil {
		return imageSpec{}, fmt.Errorf("image %q: %w", s, err)
	}
	return spec, nil
}

func parseDimension(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, errors.New("must be positive")
	}
	return uint32(v), nil
}

// parseIDs parses LIBRARY:TRACK, each up to 16 hexadecimal digits.
func parseIDs(s string) (library, track uint64, err error) {
	lib, trk, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("identifiers %q: want LIBRARY:TRACK", s)
	}
	if library, err = parseHexID(lib); err != nil {
		return 0, 0, fmt.Errorf("library id %q: %w", lib, err)
	}
	if track, err = parseHexID(trk); err != nil {
		return 0, 0, fmt.Errorf("track id %q: %w", trk, err)
	}
	return library, track, nil
}

func parseHexID(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if s == "" || len(s) > 16 {
		return 0, errors.New("must be 1 to 16 hexadecimal digits")
	}
	return strconv.ParseUint(s, 16, 64)
}
