// Package dosbuf normalizes DOS line endings in a streaming buffer while
// keeping byte offsets faithful to the original input.
//
// A Session classifies a file from its first chunk, strips CR characters
// from DOS text in place, and records where they were removed so that
// offsets in the stripped stream can later be translated back.
package dosbuf

// Options control a Session. They are set once, before any file is read.
type Options struct {
	// Enabled turns normalization on. When false every operation is a
	// pass-through. Defaults to TextModeDefault in the CLI.
	Enabled bool
	// ForceBinary treats every file as Binary instead of guessing.
	ForceBinary bool
	// ByteOffsets requests offset bookkeeping. Without it CRs are still
	// stripped but nothing is recorded and Translate is the identity.
	ByteOffsets bool
	// UnixOffsets reports offsets in the stripped stream rather than the
	// original input.
	UnixOffsets bool
}

// Session holds the normalization state of one input file.
// A Session is not safe for concurrent use; use one per goroutine.
type Session struct {
	opts Options

	fileType FileType
	stripped int64 // CRs removed from the current file
	consumed int64 // original bytes seen for the current file
	produced int64 // bytes returned by Normalize for the current file
	openRun  bool  // last chunk ended inside a CR run

	offsets OffsetMap
}

// NewSession returns a Session ready for the first file.
func NewSession(opts Options) *Session {
	s := &Session{opts: opts}
	s.Reset()
	return s
}

// Reset starts a new file: the classification, counters and offset map are
// cleared.
func (s *Session) Reset() {
	s.fileType = Unknown
	if s.opts.ForceBinary {
		s.fileType = Binary
	}
	s.stripped = 0
	s.consumed = 0
	s.produced = 0
	s.openRun = false
	s.offsets.Reset()
}

// FileType returns the classification of the current file.
func (s *Session) FileType() FileType {
	return s.fileType
}

// Stripped returns the number of CRs removed from the current file.
func (s *Session) Stripped() int64 {
	return s.stripped
}

// Consumed returns the number of original bytes passed to Normalize for the
// current file.
func (s *Session) Consumed() int64 {
	return s.consumed
}

// Runs returns the number of CR runs recorded in the offset map.
func (s *Session) Runs() int {
	return s.offsets.Runs()
}

func (s *Session) tracking() bool {
	return s.opts.ByteOffsets && !s.opts.UnixOffsets
}

// Normalize converts chunk from its external representation and returns the
// number of bytes left at the front of chunk.
//
// base is the position of chunk[0] in the normalized stream, that is the
// total of earlier Normalize results for this file. A base of 0 after output
// has been produced starts a new file.
//
// The first non-empty chunk of a file decides its type. For DOS text every
// run of CRs is dropped and, when offsets are tracked, recorded in the
// offset map. A run that reaches the end of chunk is continued by the next
// call.
func (s *Session) Normalize(chunk []byte, base int64) int {
	if !s.opts.Enabled {
		return len(chunk)
	}

	if base == 0 && s.produced > 0 {
		s.Reset()
	}
	s.consumed += int64(len(chunk))

	if s.fileType == Unknown && len(chunk) > 0 {
		s.fileType = GuessType(chunk)
	}
	if s.fileType != DOSText {
		s.produced += int64(len(chunk))
		return len(chunk)
	}

	track := s.tracking()
	r, w := 0, 0

	// Finish a run left open by the previous chunk.
	if s.openRun && len(chunk) > 0 {
		s.openRun = false
		for r < len(chunk) && chunk[r] == '\r' {
			r++
		}
		s.stripped += int64(r)
		if track && r > 0 {
			s.offsets.extend(s.stripped)
		}
		if r == len(chunk) {
			s.openRun = true
		} else if track && chunk[r] == '\n' {
			s.offsets.pushPastLF()
		}
	}

	for r < len(chunk) {
		if chunk[r] != '\r' {
			chunk[w] = chunk[r]
			w++
			r++
			continue
		}

		start := r
		for r < len(chunk) && chunk[r] == '\r' {
			r++
		}
		s.stripped += int64(r - start)
		if r == len(chunk) {
			s.openRun = true
		}
		if track {
			s.offsets.record(base+int64(w), s.stripped, r < len(chunk) && chunk[r] == '\n')
		}
	}

	s.produced += int64(w)
	return w
}

// Translate converts a position in the normalized stream of the current file
// into the position to report. It is the identity unless the file is DOS
// text and offsets are tracked.
func (s *Session) Translate(pos int64) int64 {
	if !s.opts.Enabled || s.fileType != DOSText || !s.tracking() {
		return pos
	}
	return s.offsets.Translate(pos)
}
