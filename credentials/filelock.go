package credentials

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Lock acquisition defaults. A lock older than lockStaleAfter is assumed to
// belong to a crashed process.
const (
	lockAttempts   = 50
	lockRetryDelay = 100 * time.Millisecond
	lockStaleAfter = 30 * time.Second
)

// fileLock is an advisory lock held through an exclusively created sibling file.
type fileLock struct {
	file *os.File
	path string
}

type lockOptions struct {
	attempts   int
	retryDelay time.Duration
	staleAfter time.Duration
}

var defaultLockOptions = lockOptions{
	attempts:   lockAttempts,
	retryDelay: lockRetryDelay,
	staleAfter: lockStaleAfter,
}

// acquireFileLock locks target by creating target+".lock".
func acquireFileLock(target string) (*fileLock, error) {
	return acquireFileLockWith(target, defaultLockOptions)
}

func acquireFileLockWith(target string, opts lockOptions) (*fileLock, error) {
	path := target + ".lock"

	for i := 0; i < opts.attempts; i++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d", os.Getpid())
			return &fileLock{file: f, path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to acquire file lock: %w", err)
		}

		if info, statErr := os.Stat(path); statErr == nil && time.Since(info.ModTime()) > opts.staleAfter {
			if remErr := os.Remove(path); remErr != nil && !errors.Is(remErr, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to remove stale lock file %s: %w", path, remErr)
			}
			continue
		}

		time.Sleep(opts.retryDelay)
	}

	return nil, fmt.Errorf(
		"timeout waiting for file lock after %v",
		time.Duration(opts.attempts)*opts.retryDelay,
	)
}

// release closes and removes the lock file.
func (l *fileLock) release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	return os.Remove(l.path)
}
