//go:build !windows

package registry

import (
	"errors"
	"os"
)

// removeBackup removes the superseded cache backup if possible.
func removeBackup(backupPath string) error {
	if backupPath == "" {
		return nil
	}
	err := os.RemoveAll(backupPath)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
