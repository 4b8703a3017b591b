//go:build !windows

package printer

import "errors"

// SystemBackend returns the host's printing backend.
func SystemBackend() (Backend, error) {
	return nil, errors.New("printing is only supported on Windows")
}
