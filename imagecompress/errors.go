package imagecompress

import (
	"errors"
	"fmt"
)

// ErrCompression is matched by every CompressionError.
var ErrCompression = errors.New("compression failed")

// CompressionError records which file and step failed.
type CompressionError struct {
	Filename string
	Op       string
	Err      error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("compress %s: %s: %v", e.Filename, e.Op, e.Err)
}

func (e *CompressionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrCompression) match any CompressionError.
func (e *CompressionError) Is(target error) bool {
	return target == ErrCompression
}
