// Package namelist implements the textual header encoding used by dataset
// files: tagged entries of the form
//
//	&column name=x, units="m/s", type=double, &end
//
// Entries may span lines. Lines starting with '!' between entries are
// comments. String values are double-quoted with backslash escapes.
package namelist

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Attr is one key=value attribute of an entry. Order is preserved.
type Attr struct {
	Key   string
	Value string
}

// Entry is one &tag ... &end block.
type Entry struct {
	Tag   string
	Attrs []Attr
}

// Get returns the value for key and whether it was present.
func (e *Entry) Get(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// GetDefault returns the value for key, or def when absent.
func (e *Entry) GetDefault(key, def string) string {
	if v, ok := e.Get(key); ok {
		return v
	}
	return def
}

// Scanner reads entries sequentially from a stream. It consumes exactly
// through the end of the line holding &end, so the caller may continue
// reading raw data from the same reader afterwards.
type Scanner struct {
	r *bufio.Reader
}

func NewScanner(r *bufio.Reader) *Scanner {
	return &Scanner{r: r}
}

// Next returns the next entry, or io.EOF when the stream is exhausted
// before an entry starts.
func (s *Scanner) Next() (*Entry, error) {
	if err := s.skipToEntry(); err != nil {
		return nil, err
	}
	tag, err := s.readBareToken()
	if err != nil {
		return nil, fmt.Errorf("namelist: reading tag: %w", err)
	}
	if tag == "" {
		return nil, fmt.Errorf("namelist: empty tag")
	}
	e := &Entry{Tag: tag}
	for {
		if err := s.skipSpaceAndCommas(); err != nil {
			return nil, fmt.Errorf("namelist: entry %q unterminated: %w", tag, err)
		}
		b, err := s.r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("namelist: entry %q unterminated: %w", tag, err)
		}
		if b == '&' {
			end, err := s.readBareToken()
			if err != nil {
				return nil, err
			}
			if end != "end" {
				return nil, fmt.Errorf("namelist: unexpected &%s inside &%s", end, tag)
			}
			// Consume the remainder of the line so page data starts clean.
			if err := s.skipToLineEnd(); err != nil && err != io.EOF {
				return nil, err
			}
			return e, nil
		}
		if err := s.r.UnreadByte(); err != nil {
			return nil, err
		}
		attr, err := s.readAttr()
		if err != nil {
			return nil, fmt.Errorf("namelist: entry %q: %w", tag, err)
		}
		e.Attrs = append(e.Attrs, attr)
	}
}

func (s *Scanner) skipToEntry() error {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		switch b {
		case '&':
			return nil
		case '!':
			if err := s.skipToLineEnd(); err != nil {
				return err
			}
		case ' ', '\t', '\r', '\n':
		default:
			return fmt.Errorf("namelist: unexpected character %q before entry", b)
		}
	}
}

func (s *Scanner) skipToLineEnd() error {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		if b == '\n' {
			return nil
		}
	}
}

func (s *Scanner) skipSpaceAndCommas() error {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		switch b {
		case ' ', '\t', '\r', '\n', ',':
		default:
			return s.r.UnreadByte()
		}
	}
}

func (s *Scanner) readBareToken() (string, error) {
	var sb strings.Builder
	for {
		b, err := s.r.ReadByte()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		if isTokenByte(b) {
			sb.WriteByte(b)
			continue
		}
		return sb.String(), s.r.UnreadByte()
	}
}

func (s *Scanner) readAttr() (Attr, error) {
	key, err := s.readBareToken()
	if err != nil {
		return Attr{}, err
	}
	if key == "" {
		return Attr{}, fmt.Errorf("missing attribute name")
	}
	if err := s.skipSpaceAndCommas(); err != nil {
		return Attr{}, err
	}
	b, err := s.r.ReadByte()
	if err != nil {
		return Attr{}, err
	}
	if b != '=' {
		return Attr{}, fmt.Errorf("attribute %q: expected '=', got %q", key, b)
	}
	if err := s.skipSpaceAndCommas(); err != nil {
		return Attr{}, err
	}
	val, err := s.readValue()
	if err != nil {
		return Attr{}, fmt.Errorf("attribute %q: %w", key, err)
	}
	return Attr{Key: key, Value: val}, nil
}

func (s *Scanner) readValue() (string, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return "", err
	}
	if b == '"' {
		return s.readQuoted()
	}
	if err := s.r.UnreadByte(); err != nil {
		return "", err
	}
	return s.readBareToken()
}

func (s *Scanner) readQuoted() (string, error) {
	var sb strings.Builder
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("unterminated string: %w", err)
		}
		switch b {
		case '"':
			return sb.String(), nil
		case '\\':
			esc, err := s.r.ReadByte()
			if err != nil {
				return "", fmt.Errorf("unterminated escape: %w", err)
			}
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(esc)
			}
		default:
			sb.WriteByte(b)
		}
	}
}

func isTokenByte(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', ',', '=', '"', '&', '!':
		return false
	}
	return b > 0x20 && b < 0x7f
}

// Write renders one entry on a single line.
func Write(w io.Writer, e *Entry) error {
	var sb strings.Builder
	sb.WriteByte('&')
	sb.WriteString(e.Tag)
	for _, a := range e.Attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteByte('=')
		sb.WriteString(formatValue(a.Value))
		sb.WriteByte(',')
	}
	sb.WriteString(" &end\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// ParseString parses a single entry held in a string, as produced by Write.
func ParseString(s string) (*Entry, error) {
	return NewScanner(bufio.NewReader(strings.NewReader(s))).Next()
}

func formatValue(v string) string {
	if v != "" && !needsQuoting(v) {
		return v
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(v); i++ {
		switch b := v[i]; b {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(b)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(b)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func needsQuoting(v string) bool {
	for i := 0; i < len(v); i++ {
		if !isTokenByte(v[i]) {
			return true
		}
	}
	return false
}
