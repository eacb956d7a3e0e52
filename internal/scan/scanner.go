// Package scan searches input streams line by line, reporting matches with
// byte offsets that refer to the original input even when CR characters
// were stripped before matching.
package scan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/jmurray2011/wgrep/internal/dosbuf"
)

// DefaultChunkSize is the size of each read from the input.
const DefaultChunkSize = 64 * 1024 // 64KB

// Match is a selected line.
type Match struct {
	// LineNum is the 1-based line number.
	LineNum int64
	// Offset is the byte offset of the start of the line.
	Offset int64
	// Line is the line without its terminating LF. It is only valid during
	// the callback that receives it.
	Line []byte
}

// Summary describes a finished scan.
type Summary struct {
	Lines    int64 // lines examined
	Matches  int64 // lines selected
	Bytes    int64 // bytes read from the input
	Binary   bool  // the input held a NUL byte and a line matched; scanning stopped
	FileType dosbuf.FileType
	Stripped int64 // CR characters removed
}

// Scanner searches one input at a time.
type Scanner interface {
	// Scan reads r to the end, calling emit for every selected line.
	// name is only used for diagnostics. The context is checked between reads.
	Scan(ctx context.Context, name string, r io.Reader, emit func(Match) error) (Summary, error)
}

// Config holds configuration for the scanner.
type Config struct {
	Pattern         *regexp.Regexp
	Invert          bool // select non-matching lines
	StripCR         bool // normalize DOS text before matching
	ForceBinary     bool // never strip CRs
	ByteOffsets     bool // offsets will be reported
	UnixByteOffsets bool // report offsets in the CR-stripped stream
	ChunkSize       int
	Logger          *slog.Logger
}

// scanner implements Scanner. It owns one dosbuf.Session, so it must not be
// shared between goroutines.
type scanner struct {
	config  Config
	session *dosbuf.Session
	buf     []byte
	logger  *slog.Logger
}

// New creates a Scanner with the given configuration.
func New(config Config) Scanner {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &scanner{
		config: config,
		session: dosbuf.NewSession(dosbuf.Options{
			Enabled:     config.StripCR,
			ForceBinary: config.ForceBinary,
			ByteOffsets: config.ByteOffsets,
			UnixOffsets: config.UnixByteOffsets,
		}),
		logger: logger,
	}
}

// lineState tracks progress through the normalized stream.
type lineState struct {
	start   int64 // normalized offset of the first pending byte
	lineNum int64
	binary  bool // a NUL has been read
	done    bool
}

// Scan reads r to the end, calling emit for every selected line.
func (s *scanner) Scan(ctx context.Context, name string, r io.Reader, emit func(Match) error) (Summary, error) {
	s.session.Reset()

	var sum Summary
	var st lineState
	buf := s.buf[:0]
	classified := false

	defer func() {
		// Keep the grown buffer for the next input.
		s.buf = buf[:0]
	}()

	for !st.done {
		select {
		case <-ctx.Done():
			return s.finish(name, sum), ctx.Err()
		default:
		}

		if cap(buf)-len(buf) < s.config.ChunkSize {
			grown := make([]byte, len(buf), 2*cap(buf)+s.config.ChunkSize)
			copy(grown, buf)
			buf = grown
		}

		chunk := buf[len(buf) : len(buf)+s.config.ChunkSize]
		n, err := r.Read(chunk)
		if n > 0 {
			sum.Bytes += int64(n)
			if !st.binary && bytes.IndexByte(chunk[:n], 0) >= 0 {
				st.binary = true
			}

			kept := s.session.Normalize(chunk[:n], st.start+int64(len(buf)))
			buf = buf[:len(buf)+kept]

			if !classified && s.session.FileType() != dosbuf.Unknown {
				classified = true
				s.logger.Debug("classified input", "file", name, "type", s.session.FileType())
			}

			advance, matchErr := s.matchLines(buf, false, &st, &sum, emit)
			if matchErr != nil {
				return s.finish(name, sum), matchErr
			}
			buf = buf[:copy(buf, buf[advance:])]
			st.start += int64(advance)
		}

		if err == io.EOF {
			if _, matchErr := s.matchLines(buf, true, &st, &sum, emit); matchErr != nil {
				return s.finish(name, sum), matchErr
			}
			break
		}
		if err != nil {
			return s.finish(name, sum), fmt.Errorf("reading: %w", err)
		}
	}

	return s.finish(name, sum), nil
}

// matchLines runs the pattern over every complete line in data and returns
// how many bytes were consumed. At EOF a final unterminated line counts too.
func (s *scanner) matchLines(data []byte, atEOF bool, st *lineState, sum *Summary, emit func(Match) error) (int, error) {
	advance := 0

	for advance < len(data) && !st.done {
		var line []byte
		next := 0
		if i := bytes.IndexByte(data[advance:], '\n'); i >= 0 {
			line = data[advance : advance+i]
			next = advance + i + 1
		} else if atEOF {
			line = data[advance:]
			next = len(data)
		} else {
			// Request more data
			break
		}

		st.lineNum++
		sum.Lines++

		if s.config.Pattern.Match(line) != s.config.Invert {
			sum.Matches++
			if st.binary {
				sum.Binary = true
				st.done = true
				break
			}
			m := Match{
				LineNum: st.lineNum,
				Offset:  s.session.Translate(st.start + int64(advance)),
				Line:    line,
			}
			if err := emit(m); err != nil {
				return advance, err
			}
		}

		advance = next
	}

	return advance, nil
}

func (s *scanner) finish(name string, sum Summary) Summary {
	sum.FileType = s.session.FileType()
	sum.Stripped = s.session.Stripped()
	s.logger.Debug("scanned input",
		"file", name,
		"type", sum.FileType,
		"bytes", sum.Bytes,
		"lines", sum.Lines,
		"matches", sum.Matches,
		"crs_stripped", sum.Stripped,
		"cr_runs", s.session.Runs(),
	)
	return sum
}
