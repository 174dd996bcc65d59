// Package payload loads the code buffer to be placed in the target process
package payload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	ErrNoPath     = errors.New("payload path not supplied")
	ErrNotFound   = errors.New("payload file not found")
	ErrPermission = errors.New("permission to payload file denied")
	ErrUnreadable = errors.New("payload file could not be read")
)

// Load returns the exact contents of the file at path. The bytes are not
// inspected or transformed.
func Load(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrNoPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("%w: %s", ErrPermission, path)
	default:
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
}
