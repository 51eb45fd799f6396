//go:build !windows

package jsonfile

import (
	"sync"

	"golang.org/x/sys/unix"
)

type lockState struct {
	mu sync.Mutex
	fd int
}

func (l *fileLock) doLock() error {
	l.mu.Lock() // Serialize the lock within one process.

	fd, err := unix.Open(l.path, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0o600)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	for {
		err = unix.Flock(fd, unix.LOCK_EX)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		_ = unix.Close(fd)
		l.mu.Unlock()
		return err
	}
	l.fd = fd
	return nil
}

func (l *fileLock) doUnlock() error {
	err := unix.Flock(l.fd, unix.LOCK_UN)
	if cerr := unix.Close(l.fd); err == nil {
		err = cerr
	}
	l.fd = -1
	l.mu.Unlock()
	return err
}
