package gedcom

import "strings"

type lineState int

const (
	lineStart lineState = iota
	afterLevel
	afterPointer
	afterTag
)

// Tokenizer turns GEDCOM text into a stream of tokens with one token of
// lookahead held in Current. It never fails: text it cannot classify is
// handed on as a LineValue.
type Tokenizer struct {
	input    []byte
	pos      int
	newlines int
	line     int
	state    lineState

	Current Token
}

// NewTokenizer creates a tokenizer over input. Current is TokenNone until the
// first call to Next.
func NewTokenizer(input []byte) *Tokenizer {
	t := &Tokenizer{input: input}
	// UTF-8 byte order mark.
	if len(input) >= 3 && input[0] == 0xEF && input[1] == 0xBB && input[2] == 0xBF {
		t.pos = 3
	}
	return t
}

// Line is the 1-based source line of the current token.
func (t *Tokenizer) Line() int {
	return t.line
}

// Next makes the next token current.
func (t *Tokenizer) Next() {
	for {
		switch t.state {
		case lineStart:
			t.skipBlank()
			if t.pos >= len(t.input) {
				t.Current = Token{Kind: TokenEOF}
				return
			}
			t.line = t.newlines + 1
			if !isDigit(t.input[t.pos]) {
				t.Current = Token{Kind: TokenLineValue, Text: strings.TrimSpace(t.restOfLine())}
				return
			}
			t.Current = Token{Kind: TokenLevel, Level: t.number()}
			t.state = afterLevel
			return

		case afterLevel:
			t.skipSpaces()
			if t.atLineEnd() {
				t.state = lineStart
				continue
			}
			if t.input[t.pos] == '@' {
				t.Current = Token{Kind: TokenPointer, Text: t.pointer()}
				t.state = afterPointer
				return
			}
			t.Current = t.tag()
			t.state = afterTag
			return

		case afterPointer:
			t.skipSpaces()
			if t.atLineEnd() {
				t.state = lineStart
				continue
			}
			t.Current = t.tag()
			t.state = afterTag
			return

		case afterTag:
			value := strings.TrimSpace(t.restOfLine())
			if value == "" {
				continue
			}
			t.Current = Token{Kind: TokenLineValue, Text: value}
			return
		}
	}
}

// maxLevel caps level numbers so long digit runs cannot overflow.
const maxLevel = 255

func (t *Tokenizer) number() int {
	n := 0
	for t.pos < len(t.input) && isDigit(t.input[t.pos]) {
		if n <= maxLevel {
			n = n*10 + int(t.input[t.pos]-'0')
		}
		t.pos++
	}
	return min(n, maxLevel)
}

// pointer reads an @xref@ word and returns it without delimiters.
func (t *Tokenizer) pointer() string {
	start := t.pos
	t.pos++ // opening @
	for t.pos < len(t.input) && !isSpace(t.input[t.pos]) && !t.atLineEnd() {
		if t.input[t.pos] == '@' {
			t.pos++
			break
		}
		t.pos++
	}
	return strings.Trim(string(t.input[start:t.pos]), "@")
}

func (t *Tokenizer) tag() Token {
	start := t.pos
	for t.pos < len(t.input) && !isSpace(t.input[t.pos]) && !t.atLineEnd() {
		t.pos++
	}
	word := string(t.input[start:t.pos])
	if !strings.HasPrefix(word, "_") && knownTags[word] {
		return Token{Kind: TokenTag, Text: word}
	}
	return Token{Kind: TokenCustomTag, Text: word}
}

// restOfLine returns the text up to the line terminator and moves to the start
// of the next line.
func (t *Tokenizer) restOfLine() string {
	start := t.pos
	for !t.atLineEnd() {
		t.pos++
	}
	s := string(t.input[start:t.pos])
	t.consumeNewline()
	t.state = lineStart
	return s
}

func (t *Tokenizer) skipBlank() {
	for t.pos < len(t.input) {
		switch t.input[t.pos] {
		case ' ', '\t':
			t.pos++
		case '\r', '\n':
			t.consumeNewline()
		default:
			return
		}
	}
}

func (t *Tokenizer) skipSpaces() {
	for t.pos < len(t.input) && isSpace(t.input[t.pos]) {
		t.pos++
	}
}

func (t *Tokenizer) atLineEnd() bool {
	return t.pos >= len(t.input) || t.input[t.pos] == '\n' || t.input[t.pos] == '\r'
}

// consumeNewline accepts \n, \r\n or a bare \r.
func (t *Tokenizer) consumeNewline() {
	if t.pos >= len(t.input) {
		return
	}
	if t.input[t.pos] == '\r' {
		t.pos++
		if t.pos < len(t.input) && t.input[t.pos] == '\n' {
			t.pos++
		}
		t.newlines++
		return
	}
	if t.input[t.pos] == '\n' {
		t.pos++
		t.newlines++
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
