package filesystem

import "strings"

// maxPath is the Windows MAX_PATH limit, less the terminating NUL.
const maxPath = 259

// extendedLengthPath adds the \\?\ prefix to paths longer than MAX_PATH so
// that CreateFile accepts them. UNC paths become \\?\UNC\server\share.
// See: https://docs.microsoft.com/en-us/windows/win32/fileio/maximum-file-path-limitation
func extendedLengthPath(name string) string {
	if len(name) <= maxPath || strings.HasPrefix(name, `\\?\`) {
		return name
	}
	if strings.HasPrefix(name, `\\`) {
		return `\\?\UNC\` + name[2:]
	}
	return `\\?\` + name
}
