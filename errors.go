package ingestkit

import (
	"errors"
	"fmt"

	"github.com/gobeaver/ingestkit/imagecompress"
	"github.com/gobeaver/ingestkit/stream"
)

// Common ingest errors
var (
	ErrExist         = errors.New("document already exists")
	ErrNotExist      = errors.New("document does not exist")
	ErrInvalidName   = errors.New("invalid name")
	ErrInvalidConfig = errors.New("invalid config")
	ErrNotSupported  = errors.New("operation not supported")
	ErrNotAllowed    = errors.New("operation not allowed")
	ErrNoSpace       = errors.New("no space left in store")
)

// PathError records an error and the ingest stage and document name that
// caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// IsExist reports whether an error indicates that a document is already stored
func IsExist(err error) bool {
	return errors.Is(err, ErrExist)
}

// IsNotExist reports whether an error indicates that a document is unknown
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsSizeLimit reports whether an error was caused by an upload exceeding the
// configured size ceiling
func IsSizeLimit(err error) bool {
	return errors.Is(err, stream.ErrSizeLimitExceeded)
}

// IsCompression reports whether an error was raised by an image compressor
func IsCompression(err error) bool {
	return errors.Is(err, imagecompress.ErrCompression)
}
