//go:build windows

package jsonfile

import (
	"io/fs"
	"sync"

	"golang.org/x/sys/windows"
)

const (
	reserved = 0
	allBytes = ^uint32(0)
)

type lockState struct {
	mu sync.Mutex
	h  windows.Handle
}

func (l *fileLock) doLock() error {
	l.mu.Lock()

	h, err := windows.Open(l.path, windows.O_CREAT|windows.O_RDWR, 0o600)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	// LockFileEx wants an OVERLAPPED even for synchronous handles; offset zero locks the whole file.
	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(h, windows.LOCKFILE_EXCLUSIVE_LOCK, reserved, allBytes, allBytes, ol); err != nil {
		_ = windows.CloseHandle(h)
		l.mu.Unlock()
		return &fs.PathError{Op: "lock", Path: l.path, Err: err}
	}
	l.h = h
	return nil
}

func (l *fileLock) doUnlock() error {
	defer l.mu.Unlock()
	ol := new(windows.Overlapped)
	err := windows.UnlockFileEx(l.h, reserved, allBytes, allBytes, ol)
	if cerr := windows.CloseHandle(l.h); err == nil {
		err = cerr
	}
	if err != nil {
		return &fs.PathError{Op: "unlock", Path: l.path, Err: err}
	}
	return nil
}
