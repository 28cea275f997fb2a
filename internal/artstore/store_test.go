package artstore

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/samcharles93/artcache/pkg/itc"
)

func TestUpdateCreatesAndLoadReads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "new.itc")

	err := Update(ctx, path, UpdateOptions{Create: true, Variant: itc.VariantOld}, func(f *itc.File) error {
		f.SetIDs(0xABCD, 0x1234)
		return f.AddImageData([]byte("cover"), itc.EncodingJPEG, 500, 500)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	f, err := Load(ctx, path, itc.ReadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Len() != 1 {
		t.Fatalf("records: got %d want 1", f.Len())
	}
	rec := f.Records[0]
	if rec.Variant != itc.VariantOld || rec.Encoding != itc.EncodingJPEG || string(rec.Payload) != "cover" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if lib, _ := f.LibraryID(); lib != 0xABCD {
		t.Fatalf("library id: got %X", lib)
	}
}

func TestUpdateWithoutCreateFailsOnMissingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "missing.itc")
	err := Update(context.Background(), path, UpdateOptions{}, func(*itc.File) error { return nil })
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("got %v, want fs.ErrNotExist", err)
	}
}

func TestUpdateLeavesContainerOnCallbackError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keep.itc")

	if err := Update(ctx, path, UpdateOptions{Create: true}, func(f *itc.File) error {
		return f.AddImageData([]byte("one"), itc.EncodingPNG, 1, 1)
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := errors.New("boom")
	err := Update(ctx, path, UpdateOptions{}, func(f *itc.File) error {
		if err := f.AddImageData([]byte("two"), itc.EncodingPNG, 1, 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want callback error", err)
	}

	f, err := Load(ctx, path, itc.ReadOptions{MetadataOnly: true})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Len() != 1 {
		t.Fatalf("records: got %d want 1", f.Len())
	}
}

func TestConcurrentUpdatesAreSerialised(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "busy.itc")

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- Update(ctx, path, UpdateOptions{Create: true}, func(f *itc.File) error {
				return f.AddImageData([]byte{byte(i)}, itc.EncodingPNG, uint32(i+1), 1)
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	f, err := Load(ctx, path, itc.ReadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Len() != writers {
		t.Fatalf("records: got %d want %d (lost update)", f.Len(), writers)
	}
}

func TestLockPathIsStable(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a, err := LockPath(filepath.Join(dir, "x", "..", "a.itc"))
	if err != nil {
		t.Fatalf("lock path: %v", err)
	}
	b, err := LockPath(filepath.Join(dir, "a.itc"))
	if err != nil {
		t.Fatalf("lock path: %v", err)
	}
	if a != b {
		t.Fatalf("equivalent paths produced different locks: %s vs %s", a, b)
	}
	if !strings.HasSuffix(a, ".lock") {
		t.Fatalf("unexpected lock path %s", a)
	}
}
