package dosbuf

// FileType describes how a file's line endings should be treated.
type FileType int

const (
	// Unknown means the file has not been classified yet.
	Unknown FileType = iota
	// Binary files are passed through untouched.
	Binary
	// DOSText files have their CR characters stripped.
	DOSText
	// UnixText files are passed through untouched.
	UnixText
)

func (t FileType) String() string {
	switch t {
	case Binary:
		return "binary"
	case DOSText:
		return "dos-text"
	case UnixText:
		return "unix-text"
	default:
		return "unknown"
	}
}

// GuessType classifies buf by looking at its contents.
// A NUL byte anywhere makes the buffer Binary. Otherwise a CR immediately
// followed by LF makes it DOSText, and anything else is UnixText.
// A CR in the last byte of buf is not evidence of DOS text on its own.
func GuessType(buf []byte) FileType {
	crlfSeen := false

	for i, c := range buf {
		if c == 0 {
			return Binary
		}
		if c == '\r' && i+1 < len(buf) && buf[i+1] == '\n' {
			crlfSeen = true
		}
	}

	if crlfSeen {
		return DOSText
	}
	return UnixText
}
