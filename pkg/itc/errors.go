package itc

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat marks a container whose bytes cannot be decoded.
	ErrFormat = errors.New("malformed ITC container")
	// ErrValidation marks a record that cannot be written as it stands.
	ErrValidation = errors.New("invalid ITC record")

	// ErrUnknownVariant is returned for an item whose image offset matches
	// no known layout.
	ErrUnknownVariant = fmt.Errorf("%w: unknown item layout", ErrFormat)
	// ErrUnsupportedFormat is returned for images that are not JPEG or PNG.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported image format", ErrValidation)
	// ErrRecordIndex is returned for an image number outside the container.
	ErrRecordIndex = errors.New("image number out of range")
	// ErrNotContainer is returned for files that do not start with an itch frame.
	ErrNotContainer = errors.New("not an ITC container")

	// ErrInconsistentIDs is the error a ConsistencyWarning unwraps to.
	ErrInconsistentIDs = errors.New("images with multiple identifiers")
)

// ConsistencyWarning reports an item whose library or track identifier
// disagrees with the one already recorded for the container. The first value
// seen is kept.
type ConsistencyWarning struct {
	Field  string // "library" or "track"
	Record int    // 1-based image number
	Kept   uint64
	Found  uint64
}

func (w ConsistencyWarning) Error() string {
	return fmt.Sprintf("image %02d has %s ID %016X; only the first found will be used (%016X)",
		w.Record, w.Field, w.Found, w.Kept)
}

func (w ConsistencyWarning) Unwrap() error {
	return ErrInconsistentIDs
}

func formatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrFormat}, args...)...)
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
