//go:build windows

package privilege

import (
	"golang.org/x/sys/windows"

	pkgerrors "sethosts/pkg/errors"
)

// Check returns an error if the process token is not elevated.
func Check() error {
	if !windows.GetCurrentProcessToken().IsElevated() {
		return pkgerrors.ErrNotElevated
	}
	return nil
}
