package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Posting transactions serialize on a MySQL advisory lock so two writers
// cannot interleave balance and stock updates for the same scope. The lock
// is connection-scoped and released automatically if the session dies.

const postingLockTimeoutSeconds = 10

// AcquirePostingLock blocks until the named advisory lock is granted on the
// transaction's connection, or the timeout elapses. Must be paired with
// ReleasePostingLock on the same tx.
func AcquirePostingLock(tx *gorm.DB, scope string) error {
	name := postingLockName(scope)
	var granted int
	err := tx.Raw("SELECT GET_LOCK(?, ?)", name, postingLockTimeoutSeconds).Scan(&granted).Error
	if err != nil {
		return err
	}
	if granted != 1 {
		return errors.New("timed out waiting for posting lock " + name)
	}
	return nil
}

// ReleasePostingLock releases a lock taken by AcquirePostingLock. Safe to call
// on a lock this connection no longer holds.
func ReleasePostingLock(tx *gorm.DB, scope string) {
	var released int
	tx.Raw("SELECT RELEASE_LOCK(?)", postingLockName(scope)).Scan(&released)
}

func postingLockName(scope string) string {
	// GET_LOCK names are limited to 64 characters
	name := fmt.Sprintf("posting:%s", scope)
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}
