//go:build !windows

// Package fdlimit raises the open file limit of the process.
package fdlimit

import "syscall"

const (
	minOpenFilesLimit = 1024
)

// Raise tries to increase the soft limit of open files to minOpenFilesLimit.
// Directory transfers keep up to one file open per worker.
func Raise() error {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		return err
	}

	if rLimit.Cur >= minOpenFilesLimit {
		return nil
	}

	if rLimit.Max < minOpenFilesLimit {
		return nil
	}

	rLimit.Cur = minOpenFilesLimit

	return syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
}
