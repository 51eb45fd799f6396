package jsonfile

import (
	"context"
)

// fileLock is an exclusive advisory lock on a file path. It serializes
// holders within one process (mu) and across processes (flock / LockFileEx).
type fileLock struct {
	path string
	lockState
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path}
}

// Lock blocks until the lock is held or ctx is done. Iff Lock returns nil,
// the caller must call Unlock.
func (l *fileLock) Lock(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- l.doLock() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// The OS lock call cannot be interrupted; release it once it lands.
		go func() {
			if err := <-done; err == nil {
				_ = l.doUnlock()
			}
		}()
		return ctx.Err()
	}
}

// Unlock releases the lock.
func (l *fileLock) Unlock() error {
	return l.doUnlock()
}
