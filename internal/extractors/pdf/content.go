package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
)

// kernGap is the TJ displacement, in thousandths of an em, beyond which a
// gap between two strings is read as a word break.
const kernGap = 200

// minReadable is the share of runes that must be letters, digits, spaces or
// punctuation for content-stream text to be trusted. Composite fonts show
// glyph IDs rather than character codes and fall below it.
const minReadable = 0.85

var errUnreadable = errors.New("content streams hold no readable text")

// contentText returns the text shown by the content streams of every page
// of ctx, one page per line group. String bytes are decoded as Windows-1252.
func contentText(ctx *model.Context) (string, error) {
	var b strings.Builder
	for page := 1; page <= ctx.PageCount; page++ {
		r, err := pdfcpu.ExtractPageContent(ctx, page)
		if err != nil {
			return "", fmt.Errorf("reading content of page %d: %w", page, err)
		}
		if r == nil {
			continue
		}
		stream, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("reading content of page %d: %w", page, err)
		}
		if text := showText(stream); text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}

	text := b.String()
	if !readable(text) {
		return "", errUnreadable
	}
	return text, nil
}

// readable reports whether text is non-blank and mostly made of characters
// a reader would search for.
func readable(text string) bool {
	var total, good int
	for _, r := range text {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r) {
			good++
		}
	}
	if strings.TrimSpace(text) == "" {
		return false
	}
	return float64(good) >= minReadable*float64(total)
}

// operand is a value pushed before a content-stream operator.
type operand struct {
	str    []byte
	num    float64
	isStr  bool
	isNum  bool
	array  []operand
	isList bool
}

// showText runs the text operators of one content stream and returns the
// shown text. Text positioning that moves to a new line starts a new line;
// large TJ gaps become spaces.
func showText(stream []byte) string {
	var (
		out      textWriter
		operands []operand
		array    []operand
		inArray  bool
	)

	push := func(o operand) {
		if inArray {
			array = append(array, o)
			return
		}
		operands = append(operands, o)
	}

	s := &scanner{data: stream}
	for {
		tok, ok := s.next()
		if !ok {
			break
		}
		switch tok.kind {
		case tokString:
			push(operand{str: tok.value, isStr: true})
		case tokNumber:
			n, _ := strconv.ParseFloat(string(tok.value), 64)
			push(operand{num: n, isNum: true})
		case tokArrayStart:
			inArray, array = true, nil
		case tokArrayEnd:
			inArray = false
			operands = append(operands, operand{array: array, isList: true})
		case tokOther:
			// Names and dictionaries are operands no text operator reads.
			push(operand{})
		case tokOperator:
			if string(tok.value) == "ID" {
				s.skipInlineImage()
			} else {
				applyOperator(&out, string(tok.value), operands)
			}
			operands = operands[:0]
		}
	}
	return strings.TrimSpace(out.String())
}

func applyOperator(out *textWriter, op string, operands []operand) {
	last := func() (operand, bool) {
		if len(operands) == 0 {
			return operand{}, false
		}
		return operands[len(operands)-1], true
	}

	switch op {
	case "Tj":
		if o, ok := last(); ok && o.isStr {
			out.show(o.str)
		}
	case "'", `"`:
		out.newline()
		if o, ok := last(); ok && o.isStr {
			out.show(o.str)
		}
	case "TJ":
		o, ok := last()
		if !ok || !o.isList {
			return
		}
		for _, item := range o.array {
			switch {
			case item.isStr:
				out.show(item.str)
			case item.isNum && item.num < -kernGap:
				out.space()
			}
		}
	case "Td", "TD":
		if len(operands) >= 2 && operands[len(operands)-1].isNum && operands[len(operands)-1].num != 0 {
			out.newline()
		} else {
			out.space()
		}
	case "T*":
		out.newline()
	case "Tm", "ET":
		out.space()
	}
}

// textWriter accumulates shown text without doubling separators.
type textWriter struct {
	b   strings.Builder
	sep byte
}

func (w *textWriter) show(raw []byte) {
	text, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil || len(text) == 0 {
		return
	}
	if w.sep != 0 && w.b.Len() > 0 {
		w.b.WriteByte(w.sep)
	}
	w.sep = 0
	w.b.Write(text)
}

func (w *textWriter) space() {
	if w.sep == 0 {
		w.sep = ' '
	}
}

func (w *textWriter) newline() {
	w.sep = '\n'
}

func (w *textWriter) String() string {
	return w.b.String()
}

// ==================== Tokenizer ====================

type tokenKind int

const (
	tokOperator tokenKind = iota
	tokString
	tokNumber
	tokArrayStart
	tokArrayEnd
	tokOther
)

type token struct {
	kind  tokenKind
	value []byte
}

// scanner splits a content stream into tokens.
type scanner struct {
	data []byte
	pos  int
}

func isWhite(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (s *scanner) next() (token, bool) {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isWhite(c):
			s.pos++
		case c == '%':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		case c == '(':
			s.pos++
			return token{kind: tokString, value: s.literal()}, true
		case c == '<' && s.peek(1) == '<':
			s.pos += 2
			return token{kind: tokOther}, true
		case c == '>' && s.peek(1) == '>':
			s.pos += 2
			return token{kind: tokOther}, true
		case c == '<':
			s.pos++
			return token{kind: tokString, value: s.hex()}, true
		case c == '[':
			s.pos++
			return token{kind: tokArrayStart}, true
		case c == ']':
			s.pos++
			return token{kind: tokArrayEnd}, true
		case c == '/':
			s.pos++
			s.regular()
			return token{kind: tokOther}, true
		case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
			return token{kind: tokNumber, value: s.regular()}, true
		case isDelim(c):
			s.pos++
		default:
			return token{kind: tokOperator, value: s.regular()}, true
		}
	}
	return token{}, false
}

func (s *scanner) peek(offset int) byte {
	if s.pos+offset < len(s.data) {
		return s.data[s.pos+offset]
	}
	return 0
}

// regular consumes a run of regular characters.
func (s *scanner) regular() []byte {
	start := s.pos
	for s.pos < len(s.data) && !isWhite(s.data[s.pos]) && !isDelim(s.data[s.pos]) {
		s.pos++
	}
	return s.data[start:s.pos]
}

// literal consumes a literal string after its opening parenthesis.
func (s *scanner) literal() []byte {
	var out bytes.Buffer
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
			out.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return out.Bytes()
			}
			out.WriteByte(c)
		case '\\':
			s.escape(&out)
		default:
			out.WriteByte(c)
		}
	}
	return out.Bytes()
}

func (s *scanner) escape(out *bytes.Buffer) {
	if s.pos >= len(s.data) {
		return
	}
	c := s.data[s.pos]
	s.pos++
	switch c {
	case 'n':
		out.WriteByte('\n')
	case 'r':
		out.WriteByte('\r')
	case 't':
		out.WriteByte('\t')
	case 'b':
		out.WriteByte('\b')
	case 'f':
		out.WriteByte('\f')
	case '\r':
		// Line continuation.
		if s.pos < len(s.data) && s.data[s.pos] == '\n' {
			s.pos++
		}
	case '\n':
	default:
		if c >= '0' && c <= '7' {
			v := int(c - '0')
			for i := 0; i < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; i++ {
				v = v*8 + int(s.data[s.pos]-'0')
				s.pos++
			}
			out.WriteByte(byte(v))
			return
		}
		out.WriteByte(c)
	}
}

// hex consumes a hexadecimal string after its opening angle bracket.
func (s *scanner) hex() []byte {
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		c := s.data[s.pos]
		if !isWhite(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			return nil
		}
		out = append(out, byte(v))
	}
	return out
}

// skipInlineImage moves past inline image data up to and including EI.
func (s *scanner) skipInlineImage() {
	for s.pos+2 < len(s.data) {
		if isWhite(s.data[s.pos]) && s.data[s.pos+1] == 'E' && s.data[s.pos+2] == 'I' &&
			(s.pos+3 == len(s.data) || isWhite(s.data[s.pos+3]) || isDelim(s.data[s.pos+3])) {
			s.pos += 3
			return
		}
		s.pos++
	}
	s.pos = len(s.data)
}
