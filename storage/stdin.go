package storage

import (
	"io"
	"os"
)

// StdinReader is the stream read by uploads of unknown length.
type StdinReader interface {
	io.ReadCloser
}

type stdin struct {
	file *os.File
}

func (s *stdin) Read(p []byte) (n int, err error) {
	return s.file.Read(p)
}

// Close is a no-op. Standard input is owned by the process.
func (s *stdin) Close() error {
	return nil
}

// ReadStdin returns a reader of the standard input.
func (f *Filesystem) ReadStdin() StdinReader {
	return &stdin{file: os.Stdin}
}
