// Package report formats scan results.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/tidwall/sjson"

	"github.com/jmurray2011/wgrep/internal/scan"
)

// Format selects what a Printer writes.
type Format struct {
	WithFilename bool
	LineNumbers  bool
	ByteOffsets  bool
	CountOnly    bool
	JSON         bool // one JSON object per line instead of grep-style text
}

// Printer writes the results of scanning one or more inputs.
type Printer interface {
	// Match writes one selected line of the named input.
	Match(name string, m scan.Match) error
	// Finish writes whatever follows the last match of the named input.
	Finish(name string, sum scan.Summary) error
}

// NewPrinter returns a Printer that writes to w in the given format.
func NewPrinter(w io.Writer, f Format) Printer {
	if f.JSON {
		return &jsonPrinter{w: w, f: f}
	}
	return &textPrinter{w: w, f: f}
}

// textPrinter writes grep-style output: [name:][line:][offset:]text
type textPrinter struct {
	w   io.Writer
	f   Format
	buf []byte
}

func (p *textPrinter) Match(name string, m scan.Match) error {
	if p.f.CountOnly {
		return nil
	}

	b := p.buf[:0]
	if p.f.WithFilename {
		b = append(b, name...)
		b = append(b, ':')
	}
	if p.f.LineNumbers {
		b = strconv.AppendInt(b, m.LineNum, 10)
		b = append(b, ':')
	}
	if p.f.ByteOffsets {
		b = strconv.AppendInt(b, m.Offset, 10)
		b = append(b, ':')
	}
	b = append(b, m.Line...)
	b = append(b, '\n')
	p.buf = b

	_, err := p.w.Write(b)
	return err
}

func (p *textPrinter) Finish(name string, sum scan.Summary) error {
	if p.f.CountOnly {
		var err error
		if p.f.WithFilename {
			_, err = fmt.Fprintf(p.w, "%s:%d\n", name, sum.Matches)
		} else {
			_, err = fmt.Fprintf(p.w, "%d\n", sum.Matches)
		}
		return err
	}
	if sum.Binary {
		_, err := fmt.Fprintf(p.w, "Binary file %s matches\n", name)
		return err
	}
	return nil
}

// jsonPrinter writes one object per match and one summary per input.
type jsonPrinter struct {
	w io.Writer
	f Format
}

// setAll applies path/value pairs to a JSON object in order.
func setAll(obj []byte, kv ...any) ([]byte, error) {
	var err error
	for i := 0; i+1 < len(kv); i += 2 {
		obj, err = sjson.SetBytes(obj, kv[i].(string), kv[i+1])
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", kv[i], err)
		}
	}
	return obj, nil
}

func (p *jsonPrinter) Match(name string, m scan.Match) error {
	if p.f.CountOnly {
		return nil
	}

	obj, err := setAll([]byte(`{"type":"match"}`),
		"path", name,
		"line_number", m.LineNum,
		"text", string(m.Line),
	)
	if err != nil {
		return err
	}
	if p.f.ByteOffsets {
		if obj, err = sjson.SetBytes(obj, "byte_offset", m.Offset); err != nil {
			return fmt.Errorf("encoding byte_offset: %w", err)
		}
	}

	_, err = p.w.Write(append(obj, '\n'))
	return err
}

func (p *jsonPrinter) Finish(name string, sum scan.Summary) error {
	obj, err := setAll([]byte(`{"type":"summary"}`),
		"path", name,
		"matches", sum.Matches,
		"lines", sum.Lines,
		"bytes", sum.Bytes,
		"binary", sum.Binary,
		"file_type", sum.FileType.String(),
		"crs_stripped", sum.Stripped,
	)
	if err != nil {
		return err
	}

	_, err = p.w.Write(append(obj, '\n'))
	return err
}
