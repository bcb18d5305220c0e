// Package fsutil holds the file primitives shared by export and config
// commands: an advisory flock(2) lock and an atomic write.
package fsutil

import (
	"fmt"
	"os"
	"syscall"
)

// FileLock provides cross-process mutual exclusion using flock(2).
// It guards a single file path; the lock lives in a sibling "<path>.lock"
// file so that the guarded file itself can be replaced by rename.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock returns an unlocked lock guarding target.
func NewFileLock(target string) *FileLock {
	return &FileLock{path: target + ".lock"}
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}

// Lock acquires an exclusive lock, blocking until available.
func (fl *FileLock) Lock() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return fmt.Errorf("flock: %w", err)
	}
	fl.file = f
	return nil
}

// TryLock acquires the lock without blocking. It reports false when
// another descriptor holds it.
func (fl *FileLock) TryLock() (bool, error) {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return false, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("flock: %w", err)
	}
	fl.file = f
	return true, nil
}

// Unlock releases the lock and removes nothing; the lock file is reused.
// Unlocking an unheld lock is a no-op.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}
	f := fl.file
	fl.file = nil

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		_ = f.Close()
		return fmt.Errorf("funlock: %w", err)
	}
	return f.Close()
}
