//go:build !windows

package filesystem

import (
	"io"
	"os"
)

// defaultOpener implements FileOpener using standard os.Open.
// Unix does not lock files against readers, so no share modes are needed.
type defaultOpener struct{}

// NewFileOpener returns a FileOpener appropriate for the current OS.
func NewFileOpener() FileOpener {
	return &defaultOpener{}
}

// Open opens the named file for reading.
func (o *defaultOpener) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}
