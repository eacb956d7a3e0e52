//go:build windows

package filesystem

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/windows"
)

// windowsOpener implements FileOpener with Windows-specific share modes.
type windowsOpener struct{}

// NewFileOpener returns a FileOpener that uses Windows share modes
// to allow reading files that other processes have open.
func NewFileOpener() FileOpener {
	return &windowsOpener{}
}

// Open opens the named file for reading with FILE_SHARE_READ | FILE_SHARE_WRITE | FILE_SHARE_DELETE.
// Paths longer than MAX_PATH are opened through their extended-length form.
func (o *windowsOpener) Open(name string) (io.ReadCloser, error) {
	path := extendedLengthPath(name)

	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	handle, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}

	return os.NewFile(uintptr(handle), name), nil
}
