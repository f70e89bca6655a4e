// Package gedcom parses GEDCOM genealogy files into a gedtree.Document.
//
// GEDCOM nests records by repeating a level number on every line instead of
// using brackets. The parser pulls tokens from a Tokenizer one at a time, and
// each record parser owns the lines whose level is strictly greater than the
// level its record started on. The first Level token at or below that start
// closes the record; it is left current for the caller to read.
package gedcom

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/gedgest/internal/gedtree"
)

// Parser is the GEDCOM state machine. A Parser is single use and not safe for
// concurrent use.
type Parser struct {
	tok   *Tokenizer
	opts  options
	diags []Diagnostic
}

// NewParser creates a parser over the full text of one GEDCOM file.
func NewParser(input []byte, opts ...Option) *Parser {
	p := &Parser{tok: NewTokenizer(input)}
	for _, opt := range opts {
		opt(&p.opts)
	}
	p.tok.Next()
	return p
}

// Parse reads the input until TRLR. Recoverable anomalies are recorded as
// diagnostics; a grammar violation returns a *FatalError and no document.
func Parse(r io.Reader, opts ...Option) (*gedtree.Document, []Diagnostic, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read gedcom: %w", err)
	}
	p := NewParser(data, opts...)
	doc, err := p.Parse()
	return doc, p.Diagnostics(), err
}

// Diagnostics returns the diagnostics emitted so far, in source order.
func (p *Parser) Diagnostics() []Diagnostic {
	return p.diags
}

// Parse runs the top-level record loop.
func (p *Parser) Parse() (*gedtree.Document, error) {
	doc := &gedtree.Document{}
	for {
		cur := p.tok.Current
		if cur.Kind != TokenLevel {
			if cur.Kind == TokenEOF {
				return nil, p.fatal(ErrExpectedLevel, "end of input before TRLR")
			}
			return nil, p.fatal(ErrExpectedLevel, "found %s", cur)
		}
		level := cur.Level
		p.tok.Next()

		var xref string
		if p.tok.Current.Kind == TokenPointer {
			xref = p.tok.Current.Text
			p.tok.Next()
		}

		cur = p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "HEAD":
				header, err := p.parseHeader(level)
				if err != nil {
					return nil, err
				}
				doc.Header = header
			case "INDI":
				indi, err := p.parseIndividual(level, xref)
				if err != nil {
					return nil, err
				}
				doc.AddIndividual(indi)
			case "FAM":
				fam, err := p.parseFamily(level, xref)
				if err != nil {
					return nil, err
				}
				doc.AddFamily(fam)
			case "SUBM":
				if !p.opts.sourceRecords {
					p.skipLevel(level)
					continue
				}
				doc.AddSubmitter(p.parseSubmitter(level, xref))
			case "REPO":
				if !p.opts.sourceRecords {
					p.skipLevel(level)
					continue
				}
				doc.AddRepository(p.parseRepository(level, xref))
			case "SOUR":
				if !p.opts.sourceRecords {
					p.skipLevel(level)
					continue
				}
				doc.AddSource(p.parseSource(level, xref))
			case "TRLR":
				return doc, nil
			default:
				p.warn("unhandled tag %s", cur.Text)
				p.skipLevel(level)
			}
		case TokenCustomTag:
			p.warn("skipping top-level custom tag %s", cur.Text)
			p.skipLevel(level)
		case TokenLevel:
			// Level with no tag; the next line is already current.
			p.warn("unhandled token %s", cur)
		default:
			p.warn("unhandled token %s", cur)
			p.skipLevel(level)
		}
	}
}

// skipLevel advances past the current line and every line nested below
// level. It stops on the first Level token at or below level (or at end of
// input) without consuming it. If that token is already current, nothing is
// skipped.
func (p *Parser) skipLevel(level int) {
	if p.closes(level) {
		return
	}
	p.tok.Next()
	for !p.closes(level) {
		p.tok.Next()
	}
}

// closes reports whether the current token ends a scope that began at level.
func (p *Parser) closes(level int) bool {
	cur := p.tok.Current
	return cur.Kind == TokenEOF || (cur.Kind == TokenLevel && cur.Level <= level)
}

// takeLineValue moves past the current tag and returns its line value. A
// missing value yields "" and a diagnostic.
func (p *Parser) takeLineValue() string {
	p.tok.Next()
	if p.tok.Current.Kind != TokenLineValue {
		p.warn("expected LineValue, found %s", p.tok.Current)
		return ""
	}
	value := p.tok.Current.Text
	p.tok.Next()
	return value
}

// optionalLineValue is takeLineValue for tags whose value may be empty.
func (p *Parser) optionalLineValue() string {
	p.tok.Next()
	if p.tok.Current.Kind != TokenLineValue {
		return ""
	}
	value := p.tok.Current.Text
	p.tok.Next()
	return value
}

// takeContinuedText returns the current tag's value joined with its CONT
// (newline) and CONC (single space) children.
func (p *Parser) takeContinuedText(level int) string {
	var b strings.Builder
	b.WriteString(p.optionalLineValue())
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "CONT":
				b.WriteByte('\n')
				b.WriteString(p.optionalLineValue())
			case "CONC":
				b.WriteByte(' ')
				b.WriteString(p.optionalLineValue())
			default:
				p.warn("unhandled continuation tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled continuation token %s", cur)
			p.skipLevel(current)
		}
	}
	return b.String()
}

// parseCustomTag captures an extension tag and its value, and drops anything
// nested under it.
func (p *Parser) parseCustomTag(level int) gedtree.CustomData {
	tag := p.tok.Current.Text
	value := p.optionalLineValue()
	for !p.closes(level) {
		p.tok.Next()
	}
	return gedtree.CustomData{Tag: tag, Value: value}
}

func (p *Parser) warn(format string, args ...any) {
	d := Diagnostic{Line: p.tok.Line(), Message: fmt.Sprintf(format, args...)}
	p.diags = append(p.diags, d)
	if p.opts.onDiagnostic != nil {
		p.opts.onDiagnostic(d)
	}
	if p.opts.log != nil {
		p.opts.log.Warn(d.Message, "line", d.Line)
	}
}

func (p *Parser) fatal(err error, format string, args ...any) *FatalError {
	return p.fatalAt(p.tok.Line(), err, format, args...)
}

func (p *Parser) fatalAt(line int, err error, format string, args ...any) *FatalError {
	return &FatalError{Line: line, Err: err, Msg: fmt.Sprintf(format, args...)}
}

// xrefValue strips the @ delimiters from a pointer-valued line value. Other
// values pass through unchanged.
func xrefValue(v string) string {
	if len(v) >= 2 && strings.HasPrefix(v, "@") && strings.HasSuffix(v, "@") {
		return v[1 : len(v)-1]
	}
	return v
}
