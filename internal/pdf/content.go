package pdf

import (
	"fmt"
	"strconv"
)

// Content stream tokenization. A page's content is a postfix operator
// language: zero or more operands followed by an operator. Each Op keeps
// the raw byte span it was parsed from so a filtered stream can be
// re-serialized without re-encoding untouched operations.

// Operand is a parsed content stream operand.
type Operand struct {
	// Num holds the value for numeric operands.
	Num float64
	// Str holds decoded bytes for string operands.
	Str []byte
	// Name holds the name (without slash) for name operands.
	Name string
	// Arr holds nested operands for array operands.
	Arr []Operand
	// IsNum/IsStr/IsName/IsArr discriminate; at most one is set. Other
	// operand kinds (dicts, booleans, null) are carried raw only.
	IsNum, IsStr, IsName, IsArr bool
}

// Op is a single content stream operation.
type Op struct {
	Operator string
	Operands []Operand
	// Raw is the byte span covering operands and operator.
	Raw []byte
}

type tokenizer struct {
	data []byte
	pos  int
}

// parseContent tokenizes a decoded content stream into operations.
// Unknown constructs are preserved raw; tokenization only fails on
// structurally broken streams (unterminated strings or arrays).
func parseContent(data []byte) ([]Op, error) {
	t := &tokenizer{data: data}
	var ops []Op
	var operands []Operand
	opStart := -1

	for {
		t.skipWhitespaceAndComments()
		if t.pos >= len(t.data) {
			break
		}
		if opStart < 0 {
			opStart = t.pos
		}

		c := t.data[t.pos]
		switch {
		case c == '(':
			s, err := t.readLiteralString()
			if err != nil {
				return nil, err
			}
			operands = append(operands, Operand{Str: s, IsStr: true})
		case c == '<' && t.pos+1 < len(t.data) && t.data[t.pos+1] == '<':
			if err := t.skipDict(); err != nil {
				return nil, err
			}
			operands = append(operands, Operand{})
		case c == '<':
			s, err := t.readHexString()
			if err != nil {
				return nil, err
			}
			operands = append(operands, Operand{Str: s, IsStr: true})
		case c == '[':
			arr, err := t.readArray()
			if err != nil {
				return nil, err
			}
			operands = append(operands, Operand{Arr: arr, IsArr: true})
		case c == '/':
			operands = append(operands, Operand{Name: t.readName(), IsName: true})
		case isNumberStart(c):
			n, ok := t.readNumber()
			if ok {
				operands = append(operands, Operand{Num: n, IsNum: true})
			} else {
				operands = append(operands, Operand{})
			}
		default:
			kw := t.readKeyword()
			if kw == "" {
				// Unparseable byte; skip it rather than abort the page.
				t.pos++
				continue
			}
			if kw == "BI" {
				// Inline image: swallow through EI and emit as one op.
				if err := t.skipInlineImage(); err != nil {
					return nil, err
				}
				ops = append(ops, Op{
					Operator: "BI",
					Operands: operands,
					Raw:      t.data[opStart:t.pos],
				})
				operands = nil
				opStart = -1
				continue
			}
			if kw == "true" || kw == "false" || kw == "null" {
				operands = append(operands, Operand{})
				continue
			}
			ops = append(ops, Op{
				Operator: kw,
				Operands: operands,
				Raw:      t.data[opStart:t.pos],
			})
			operands = nil
			opStart = -1
		}
	}
	return ops, nil
}

// serializeContent rebuilds a content stream from kept operations.
func serializeContent(ops []Op) []byte {
	var out []byte
	for _, op := range ops {
		out = append(out, op.Raw...)
		out = append(out, '\n')
	}
	return out
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.'
}

func (t *tokenizer) skipWhitespaceAndComments() {
	for t.pos < len(t.data) {
		c := t.data[t.pos]
		if isWhitespace(c) {
			t.pos++
			continue
		}
		if c == '%' {
			for t.pos < len(t.data) && t.data[t.pos] != '\n' && t.data[t.pos] != '\r' {
				t.pos++
			}
			continue
		}
		break
	}
}

func (t *tokenizer) readLiteralString() ([]byte, error) {
	// t.data[t.pos] == '('
	t.pos++
	var out []byte
	depth := 1
	for t.pos < len(t.data) {
		c := t.data[t.pos]
		switch c {
		case '\\':
			t.pos++
			if t.pos >= len(t.data) {
				return nil, fmt.Errorf("unterminated string escape")
			}
			e := t.data[t.pos]
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, e)
			case '\r':
				if t.pos+1 < len(t.data) && t.data[t.pos+1] == '\n' {
					t.pos++
				}
			case '\n':
				// Line continuation; emits nothing.
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for i := 0; i < 2 && t.pos+1 < len(t.data); i++ {
						n := t.data[t.pos+1]
						if n < '0' || n > '7' {
							break
						}
						val = val*8 + int(n-'0')
						t.pos++
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
			t.pos++
		case '(':
			depth++
			out = append(out, c)
			t.pos++
		case ')':
			depth--
			t.pos++
			if depth == 0 {
				return out, nil
			}
			out = append(out, c)
		default:
			out = append(out, c)
			t.pos++
		}
	}
	return nil, fmt.Errorf("unterminated literal string")
}

func (t *tokenizer) readHexString() ([]byte, error) {
	// t.data[t.pos] == '<'
	t.pos++
	var digits []byte
	for t.pos < len(t.data) {
		c := t.data[t.pos]
		if c == '>' {
			t.pos++
			if len(digits)%2 == 1 {
				digits = append(digits, '0')
			}
			out := make([]byte, len(digits)/2)
			for i := 0; i < len(out); i++ {
				hi := hexVal(digits[2*i])
				lo := hexVal(digits[2*i+1])
				out[i] = byte(hi<<4 | lo)
			}
			return out, nil
		}
		if !isWhitespace(c) {
			digits = append(digits, c)
		}
		t.pos++
	}
	return nil, fmt.Errorf("unterminated hex string")
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 0
}

func (t *tokenizer) readArray() ([]Operand, error) {
	// t.data[t.pos] == '['
	t.pos++
	var arr []Operand
	for {
		t.skipWhitespaceAndComments()
		if t.pos >= len(t.data) {
			return nil, fmt.Errorf("unterminated array")
		}
		c := t.data[t.pos]
		switch {
		case c == ']':
			t.pos++
			return arr, nil
		case c == '(':
			s, err := t.readLiteralString()
			if err != nil {
				return nil, err
			}
			arr = append(arr, Operand{Str: s, IsStr: true})
		case c == '<' && t.pos+1 < len(t.data) && t.data[t.pos+1] == '<':
			if err := t.skipDict(); err != nil {
				return nil, err
			}
			arr = append(arr, Operand{})
		case c == '<':
			s, err := t.readHexString()
			if err != nil {
				return nil, err
			}
			arr = append(arr, Operand{Str: s, IsStr: true})
		case c == '[':
			nested, err := t.readArray()
			if err != nil {
				return nil, err
			}
			arr = append(arr, Operand{Arr: nested, IsArr: true})
		case c == '/':
			arr = append(arr, Operand{Name: t.readName(), IsName: true})
		case isNumberStart(c):
			n, ok := t.readNumber()
			if ok {
				arr = append(arr, Operand{Num: n, IsNum: true})
			} else {
				arr = append(arr, Operand{})
			}
		default:
			if t.readKeyword() == "" {
				t.pos++
			}
			arr = append(arr, Operand{})
		}
	}
}

func (t *tokenizer) skipDict() error {
	// t.data[t.pos:t.pos+2] == "<<"
	t.pos += 2
	depth := 1
	for t.pos < len(t.data) {
		switch {
		case t.data[t.pos] == '(':
			if _, err := t.readLiteralString(); err != nil {
				return err
			}
		case t.pos+1 < len(t.data) && t.data[t.pos] == '<' && t.data[t.pos+1] == '<':
			depth++
			t.pos += 2
		case t.pos+1 < len(t.data) && t.data[t.pos] == '>' && t.data[t.pos+1] == '>':
			depth--
			t.pos += 2
			if depth == 0 {
				return nil
			}
		default:
			t.pos++
		}
	}
	return fmt.Errorf("unterminated dictionary")
}

func (t *tokenizer) readName() string {
	// t.data[t.pos] == '/'
	t.pos++
	start := t.pos
	for t.pos < len(t.data) && !isWhitespace(t.data[t.pos]) && !isDelimiter(t.data[t.pos]) {
		t.pos++
	}
	return string(t.data[start:t.pos])
}

func (t *tokenizer) readNumber() (float64, bool) {
	start := t.pos
	for t.pos < len(t.data) && !isWhitespace(t.data[t.pos]) && !isDelimiter(t.data[t.pos]) {
		t.pos++
	}
	n, err := strconv.ParseFloat(string(t.data[start:t.pos]), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (t *tokenizer) readKeyword() string {
	start := t.pos
	for t.pos < len(t.data) && !isWhitespace(t.data[t.pos]) && !isDelimiter(t.data[t.pos]) {
		t.pos++
	}
	return string(t.data[start:t.pos])
}

// skipInlineImage advances past ID ... EI binary data.
func (t *tokenizer) skipInlineImage() error {
	// Scan forward to the ID keyword, then find EI bounded by whitespace.
	for t.pos+1 < len(t.data) {
		if t.data[t.pos] == 'I' && t.data[t.pos+1] == 'D' {
			t.pos += 2
			break
		}
		t.pos++
	}
	for t.pos+2 < len(t.data) {
		if isWhitespace(t.data[t.pos]) && t.data[t.pos+1] == 'E' && t.data[t.pos+2] == 'I' {
			next := t.pos + 3
			if next >= len(t.data) || isWhitespace(t.data[next]) || isDelimiter(t.data[next]) {
				t.pos = next
				return nil
			}
		}
		t.pos++
	}
	return fmt.Errorf("unterminated inline image")
}
