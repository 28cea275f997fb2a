package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/artcache/internal/catalog"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(&out)
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	err := app.Run(context.Background(), append([]string{"itc", "--quiet"}, args...))
	return out.String(), err
}

func listJSON(t *testing.T, path string) catalog.Listing {
	t.Helper()
	out, err := runApp(t, "list", "--json", path)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var listings []catalog.Listing
	if err := json.Unmarshal([]byte(out), &listings); err != nil {
		t.Fatalf("decode listing: %v\n%s", err, out)
	}
	if len(listings) != 1 {
		t.Fatalf("listings: got %d want 1", len(listings))
	}
	return listings[0]
}

func TestCommands(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	front := filepath.Join(dir, "front.jpg")
	back := filepath.Join(dir, "back.png")
	if err := os.WriteFile(front, []byte("jpeg payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(back, []byte("png payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	container := filepath.Join(dir, "album.itc")

	if _, err := runApp(t, "add", container, front+":600:600", back+":300:200"); err != nil {
		t.Fatalf("add: %v", err)
	}

	l := listJSON(t, container)
	if len(l.Entries) != 2 {
		t.Fatalf("entries: got %d want 2", len(l.Entries))
	}
	if e := l.Entries[1]; e.Encoding != "PNG" || e.Width != 300 || e.Height != 200 || e.Length != 11 {
		t.Fatalf("unexpected second entry %+v", e)
	}

	if _, err := runApp(t, "set-ids", container, "00000000000000AA:BB"); err != nil {
		t.Fatalf("set-ids: %v", err)
	}
	l = listJSON(t, container)
	if l.LibraryID != "00000000000000AA" || l.TrackID != "00000000000000BB" {
		t.Fatalf("ids: got %s:%s", l.LibraryID, l.TrackID)
	}

	out, err := runApp(t, "list", container)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "album.itc: 2 image(s)") || !strings.Contains(out, "600x600") {
		t.Fatalf("unexpected table output:\n%s", out)
	}

	outDir := filepath.Join(dir, "out")
	if _, err := runApp(t, "extract", "-d", outDir, container); err != nil {
		t.Fatalf("extract: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "album-01.jpg"))
	if err != nil {
		t.Fatalf("read extracted: %v", err)
	}
	if string(got) != "jpeg payload" {
		t.Fatalf("extracted payload: got %q", got)
	}
	if _, err := os.Stat(filepath.Join(outDir, "album-02.png")); err != nil {
		t.Fatalf("second image not extracted: %v", err)
	}

	if _, err := runApp(t, "extract", "-n", "2", "-b", "single", "-d", outDir, container); err != nil {
		t.Fatalf("extract -n: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "single-02.png")); err != nil {
		t.Fatalf("single image not extracted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "single-01.jpg")); err == nil {
		t.Fatal("extract -n 2 also wrote image 1")
	}

	if _, err := runApp(t, "extract", "-n", "3", "-d", outDir, container); err == nil {
		t.Fatal("extract -n 3 should fail for a two image container")
	}
}

func TestCommandErrors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	notITC := filepath.Join(dir, "notes.itc")
	if err := os.WriteFile(notITC, []byte("hello, world"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"list without files", []string{"list"}},
		{"list non-container", []string{"list", notITC}},
		{"add without images", []string{"add", filepath.Join(dir, "new.itc")}},
		{"add unsupported image", []string{"add", filepath.Join(dir, "new.itc"), "cover.gif:1:1"}},
		{"add bad variant", []string{"add", "--variant", "7", filepath.Join(dir, "new.itc"), "cover.png:1:1"}},
		{"set-ids bad ids", []string{"set-ids", notITC, "xyz"}},
		{"set-ids non-container", []string{"set-ids", notITC, "1:2"}},
		{"extract bad compression", []string{"extract", "--compression", "11", notITC}},
		{"explicit config missing", []string{"--config", filepath.Join(dir, "nope.yaml"), "list", notITC}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runApp(t, tc.args...); err == nil {
				t.Fatalf("itc %s: expected error", strings.Join(tc.args, " "))
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "new.itc")); err == nil {
		t.Fatal("failed add left a container behind")
	}
}

func TestConfigDefaultsApply(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := t.TempDir()
	outDir := filepath.Join(dir, "configured")

	if err := os.MkdirAll(filepath.Join(home, "artcache"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data := "output_dir: " + outDir + "\nvariant: old\n"
	if err := os.WriteFile(filepath.Join(home, "artcache", "config.yaml"), []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	img := filepath.Join(dir, "a.png")
	if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	container := filepath.Join(dir, "c.itc")
	if _, err := runApp(t, "add", container, img+":1:1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if l := listJSON(t, container); l.Entries[0].Variant != "old" {
		t.Fatalf("variant: got %s want old", l.Entries[0].Variant)
	}

	if _, err := runApp(t, "extract", container); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "c-01.png")); err != nil {
		t.Fatalf("config output_dir not used: %v", err)
	}
}
