//go:build !windows

// Package privilege gates hosts-file writes on elevation.
package privilege

import (
	"os"

	pkgerrors "sethosts/pkg/errors"
)

// Check returns an error if not running as root.
func Check() error {
	if os.Geteuid() != 0 {
		return pkgerrors.ErrNotElevated
	}
	return nil
}
