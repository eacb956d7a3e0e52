package dosbuf

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"
)

var trackAll = Options{Enabled: true, ByteOffsets: true}

// normalizeChunks feeds input to s in chunks of the given sizes (the last
// size repeats) and returns the concatenated output.
func normalizeChunks(s *Session, input []byte, sizes ...int) []byte {
	buf := append([]byte(nil), input...)
	var out []byte
	var base int64
	for i, start := 0, 0; start < len(buf); i++ {
		size := sizes[len(sizes)-1]
		if i < len(sizes) {
			size = sizes[i]
		}
		end := min(start+size, len(buf))
		n := s.Normalize(buf[start:end], base)
		out = append(out, buf[start:start+n]...)
		base += int64(n)
		start = end
	}
	return out
}

func TestSession_ConcreteScenario(t *testing.T) {
	s := NewSession(trackAll)
	input := []byte("line1\r\nline2\r\nline3")

	n := s.Normalize(input, 0)
	got := string(input[:n])

	if got != "line1\nline2\nline3" {
		t.Errorf("got %q, want %q", got, "line1\nline2\nline3")
	}
	if n != 18 {
		t.Errorf("n = %d, want 18", n)
	}
	if s.FileType() != DOSText {
		t.Errorf("FileType() = %v, want %v", s.FileType(), DOSText)
	}
	if got := s.Translate(6); got != 7 {
		t.Errorf("Translate(6) = %d, want 7", got)
	}
	if got := s.Translate(12); got != 14 {
		t.Errorf("Translate(12) = %d, want 14", got)
	}
	if got := s.Translate(0); got != 0 {
		t.Errorf("Translate(0) = %d, want 0", got)
	}
}

func TestSession_PassThrough(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		chunks []string
		want   FileType
	}{
		// The first chunk decides, and it has no CRLF.
		{"unix text", trackAll, []string{"a\r", "\nb"}, UnixText},
		{"binary", trackAll, []string{"a\x00\r\nb\r\n"}, Binary},
		{"forced binary", Options{Enabled: true, ForceBinary: true, ByteOffsets: true}, []string{"a\r\nb\r\n"}, Binary},
		{"disabled", Options{ByteOffsets: true}, []string{"a\r\nb\r\n"}, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(tt.opts)
			var base int64
			for _, c := range tt.chunks {
				buf := []byte(c)
				n := s.Normalize(buf, base)
				if n != len(buf) {
					t.Errorf("Normalize(%q) = %d, want %d", c, n, len(buf))
				}
				if string(buf) != c {
					t.Errorf("buffer modified: got %q, want %q", buf, c)
				}
				base += int64(n)
			}
			if s.FileType() != tt.want {
				t.Errorf("FileType() = %v, want %v", s.FileType(), tt.want)
			}
			if got := s.Translate(3); got != 3 {
				t.Errorf("Translate(3) = %d, want 3", got)
			}
			if s.Runs() != 0 {
				t.Errorf("Runs() = %d, want 0", s.Runs())
			}
		})
	}
}

func TestSession_MultiRunCollapsing(t *testing.T) {
	s := NewSession(trackAll)
	s.fileType = DOSText

	input := []byte("A\r\r\rB")
	n := s.Normalize(input, 0)

	if string(input[:n]) != "AB" {
		t.Errorf("got %q, want %q", input[:n], "AB")
	}
	if s.Runs() != 1 {
		t.Fatalf("Runs() = %d, want 1", s.Runs())
	}
	if add := s.offsets.entries[s.offsets.in].add; add != 3 {
		t.Errorf("cumulative CRs = %d, want 3", add)
	}
	if s.Stripped() != 3 {
		t.Errorf("Stripped() = %d, want 3", s.Stripped())
	}
	if got := s.Translate(1); got != 4 {
		t.Errorf("Translate(1) = %d, want 4", got)
	}
}

func TestSession_UntrackedStillStrips(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no byte offsets", Options{Enabled: true}},
		{"unix offsets", Options{Enabled: true, ByteOffsets: true, UnixOffsets: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(tt.opts)
			input := []byte("a\r\nb\r\r\nc")
			n := s.Normalize(input, 0)

			if string(input[:n]) != "a\nb\nc" {
				t.Errorf("got %q, want %q", input[:n], "a\nb\nc")
			}
			if s.Stripped() != 3 {
				t.Errorf("Stripped() = %d, want 3", s.Stripped())
			}
			if s.Runs() != 0 {
				t.Errorf("Runs() = %d, want 0", s.Runs())
			}
			if got := s.Translate(4); got != 4 {
				t.Errorf("Translate(4) = %d, want 4", got)
			}
		})
	}
}

func TestSession_SplitRunAcrossChunks(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
	}{
		{"cr then lf", []string{"ab\r\n", "c\r", "\nd"}},
		{"cr run split", []string{"ab\r\n", "c\r\r", "\r\nd"}},
		{"cr run spans three chunks", []string{"ab\r\n", "c\r", "\r", "\nd"}},
		{"cr then text", []string{"ab\r\n", "c\r", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var whole []byte
			for _, c := range tt.chunks {
				whole = append(whole, c...)
			}
			ref := NewSession(trackAll)
			refBuf := append([]byte(nil), whole...)
			refOut := refBuf[:ref.Normalize(refBuf, 0)]

			s := NewSession(trackAll)
			var out []byte
			var base int64
			for _, c := range tt.chunks {
				buf := []byte(c)
				n := s.Normalize(buf, base)
				out = append(out, buf[:n]...)
				base += int64(n)
			}

			if !bytes.Equal(out, refOut) {
				t.Errorf("got %q, want %q", out, refOut)
			}
			if s.Runs() != ref.Runs() {
				t.Errorf("Runs() = %d, want %d", s.Runs(), ref.Runs())
			}
			for p := int64(0); p <= int64(len(out)); p++ {
				if got, want := s.Translate(p), ref.Translate(p); got != want {
					t.Errorf("Translate(%d) = %d, want %d", p, got, want)
				}
			}
		})
	}
}

// randomDOSText returns CRLF text with occasional lone CRs and CR runs.
func randomDOSText(rng *rand.Rand, lines int) []byte {
	var b bytes.Buffer
	b.WriteString("hdr\r\n")
	for i := 0; i < lines; i++ {
		for j := rng.Intn(12); j > 0; j-- {
			b.WriteByte(byte('a' + rng.Intn(26)))
			if rng.Intn(15) == 0 {
				b.Write(bytes.Repeat([]byte{'\r'}, 1+rng.Intn(3)))
			}
		}
		switch rng.Intn(4) {
		case 0:
			b.WriteString("\n")
		case 1:
			b.WriteString("\r\r\n")
		default:
			b.WriteString("\r\n")
		}
	}
	return b.Bytes()
}

func TestSession_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 20; iter++ {
		t.Run(fmt.Sprintf("iter%d", iter), func(t *testing.T) {
			input := randomDOSText(rng, 200)
			chunk := 5 + rng.Intn(60)

			s := NewSession(trackAll)
			out := normalizeChunks(s, input, chunk)

			crs := bytes.Count(input, []byte{'\r'})
			if bytes.IndexByte(out, '\r') >= 0 {
				t.Fatalf("output still contains CR")
			}
			if len(input)-len(out) != crs {
				t.Fatalf("removed %d bytes, want %d", len(input)-len(out), crs)
			}
			if s.Stripped() != int64(crs) {
				t.Errorf("Stripped() = %d, want %d", s.Stripped(), crs)
			}
			if s.Consumed() != int64(len(input)) {
				t.Errorf("Consumed() = %d, want %d", s.Consumed(), len(input))
			}

			// orig[i] is the input position of output byte i; runStart[i]
			// is the first CR of the run right before it, or -1.
			orig := make([]int64, 0, len(out))
			runStart := make([]int64, 0, len(out))
			start := int64(-1)
			for i, c := range input {
				if c == '\r' {
					if start < 0 {
						start = int64(i)
					}
					continue
				}
				orig = append(orig, int64(i))
				runStart = append(runStart, start)
				start = -1
			}

			prev := int64(-1)
			for i := range out {
				got := s.Translate(int64(i))
				if got < prev {
					t.Fatalf("Translate(%d) = %d decreased from %d", i, got, prev)
				}
				prev = got

				want := orig[i]
				if out[i] == '\n' && runStart[i] >= 0 {
					// The line ends where its CR started.
					want = runStart[i]
				}
				if got != want {
					t.Fatalf("Translate(%d) = %d, want %d (byte %q)", i, got, want, out[i])
				}
			}
		})
	}
}

func TestSession_FileBoundaryReset(t *testing.T) {
	s := NewSession(trackAll)
	first := []byte("one\r\ntwo\r\n")
	s.Normalize(first, 0)
	if s.Stripped() == 0 || s.Runs() == 0 {
		t.Fatalf("first file left no state: stripped=%d runs=%d", s.Stripped(), s.Runs())
	}

	t.Run("explicit", func(t *testing.T) {
		s.Reset()
		if s.Stripped() != 0 {
			t.Errorf("Stripped() = %d, want 0", s.Stripped())
		}
		if s.Runs() != 0 {
			t.Errorf("Runs() = %d, want 0", s.Runs())
		}
		if s.FileType() != Unknown {
			t.Errorf("FileType() = %v, want %v", s.FileType(), Unknown)
		}
		if s.Consumed() != 0 {
			t.Errorf("Consumed() = %d, want 0", s.Consumed())
		}
	})

	t.Run("zero base", func(t *testing.T) {
		s.Normalize([]byte("one\r\ntwo\r\n"), 0)
		second := []byte("plain\nunix\n")
		n := s.Normalize(second, 0)
		if n != len(second) {
			t.Errorf("n = %d, want %d", n, len(second))
		}
		if s.FileType() != UnixText {
			t.Errorf("FileType() = %v, want %v", s.FileType(), UnixText)
		}
		if s.Stripped() != 0 {
			t.Errorf("Stripped() = %d, want 0", s.Stripped())
		}
		if s.Runs() != 0 {
			t.Errorf("Runs() = %d, want 0", s.Runs())
		}
	})
}

func TestSession_EmptyLeadingOutputDoesNotReset(t *testing.T) {
	s := NewSession(trackAll)
	s.fileType = DOSText
	if n := s.Normalize([]byte("\r\r"), 0); n != 0 {
		t.Fatalf("n = %d, want 0", n)
	}
	if n := s.Normalize([]byte("\nx"), 0); n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if s.Stripped() != 2 {
		t.Errorf("Stripped() = %d, want 2", s.Stripped())
	}
	// "\r\r\nx": x sits at original offset 3.
	if got := s.Translate(1); got != 3 {
		t.Errorf("Translate(1) = %d, want 3", got)
	}
}

func TestSession_EmptyChunkDoesNotClassify(t *testing.T) {
	s := NewSession(trackAll)
	if n := s.Normalize(nil, 0); n != 0 {
		t.Fatalf("n = %d, want 0", n)
	}
	if s.FileType() != Unknown {
		t.Errorf("FileType() = %v, want %v", s.FileType(), Unknown)
	}
	s.Normalize([]byte("a\r\n"), 0)
	if s.FileType() != DOSText {
		t.Errorf("FileType() = %v, want %v", s.FileType(), DOSText)
	}
}

func BenchmarkSession_Normalize(b *testing.B) {
	line := []byte("the quick brown fox jumps over the lazy dog\r\n")
	input := bytes.Repeat(line, 1500)
	buf := make([]byte, len(input))
	s := NewSession(trackAll)

	b.SetBytes(int64(len(input)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		copy(buf, input)
		s.Reset()
		s.Normalize(buf, 0)
	}
}

func BenchmarkSession_TranslateSequential(b *testing.B) {
	line := []byte("the quick brown fox jumps over the lazy dog\r\n")
	input := bytes.Repeat(line, 1500)
	s := NewSession(trackAll)
	n := s.Normalize(input, 0)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		s.Translate(int64(i % n))
	}
}
