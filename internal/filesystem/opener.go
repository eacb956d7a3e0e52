package filesystem

import (
	"io"
	"os"
)

// StdinName is the argument that selects standard input.
const StdinName = "-"

// FileOpener opens input files for reading with appropriate share modes.
// On Windows, this means FILE_SHARE_READ | FILE_SHARE_WRITE | FILE_SHARE_DELETE
// so that files other processes hold open (logs, mostly) can still be searched.
type FileOpener interface {
	// Open opens the named file for reading.
	Open(name string) (io.ReadCloser, error)
}

// OpenInput opens name with o, or returns standard input for StdinName.
// Closing the returned standard input is a no-op.
func OpenInput(o FileOpener, name string) (io.ReadCloser, error) {
	if name == StdinName {
		return io.NopCloser(os.Stdin), nil
	}
	return o.Open(name)
}

// DisplayName returns the name to show for an input argument.
func DisplayName(name string) string {
	if name == StdinName {
		return "(standard input)"
	}
	return name
}
