package tablefile

import (
	"errors"
	"fmt"
	"io"

	"github.com/KevoDB/ctable/pkg/lut"
)

var (
	// ErrInvalidInput is returned for malformed table data or names
	ErrInvalidInput = lut.ErrInvalidInput
	// ErrInvalidIndex is returned when a table index is out of range
	ErrInvalidIndex = errors.New("invalid table index")
	// ErrFormat is returned when a file is shorter than its header claims
	// or a name record cannot be decoded
	ErrFormat = errors.New("malformed table file")
)

// IOError reports a filesystem failure on a table file
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func ioError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

// readError maps a short read onto ErrFormat and anything else onto IOError
func readError(path string, what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: short read of %s", ErrFormat, path, what)
	}
	return ioError("read", path, err)
}

// errorKind names an error for statistics
func errorKind(err error) string {
	var ioErr *IOError
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvalidIndex):
		return "invalid_index"
	case errors.Is(err, ErrFormat):
		return "format_error"
	case errors.As(err, &ioErr):
		return "io_error"
	default:
		return "other"
	}
}
