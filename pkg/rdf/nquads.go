package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// NQuadsReader reads N-Quads (and therefore N-Triples) one statement per line.
// Statements without a graph label are placed in the default graph.
type NQuadsReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewNQuadsReader creates a reader over r
func NewNQuadsReader(r io.Reader) *NQuadsReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &NQuadsReader{scanner: scanner}
}

// Read returns the next quad, or io.EOF when the input is exhausted
func (r *NQuadsReader) Read() (*Quad, error) {
	for r.scanner.Scan() {
		r.line++
		p := &lineParser{input: r.scanner.Text()}
		p.skipWhitespace()
		if p.done() || p.peek() == '#' {
			continue
		}
		quad, err := p.parseQuad()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return quad, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// ParseNQuads reads every quad from r
func ParseNQuads(r io.Reader) ([]*Quad, error) {
	reader := NewNQuadsReader(r)
	var quads []*Quad
	for {
		quad, err := reader.Read()
		if err == io.EOF {
			return quads, nil
		}
		if err != nil {
			return nil, err
		}
		quads = append(quads, quad)
	}
}

// ParseTerm parses a single term in N-Quads syntax, e.g. `<http://x>`,
// `_:b0` or `"v"@en`.
func ParseTerm(s string) (Term, error) {
	p := &lineParser{input: strings.TrimSpace(s)}
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("unexpected trailing input %q", p.input[p.pos:])
	}
	return term, nil
}

type lineParser struct {
	input string
	pos   int
}

func (p *lineParser) done() bool {
	return p.pos >= len(p.input)
}

func (p *lineParser) peek() byte {
	return p.input[p.pos]
}

func (p *lineParser) skipWhitespace() {
	for !p.done() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

func (p *lineParser) parseQuad() (*Quad, error) {
	subject, err := p.parseTerm()
	if err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}
	if subject.Type() == TermTypeLiteral {
		return nil, fmt.Errorf("subject cannot be a literal")
	}

	p.skipWhitespace()
	predicate, err := p.parseTerm()
	if err != nil {
		return nil, fmt.Errorf("predicate: %w", err)
	}
	if predicate.Type() != TermTypeNamedNode {
		return nil, fmt.Errorf("predicate must be an IRI")
	}

	p.skipWhitespace()
	object, err := p.parseTerm()
	if err != nil {
		return nil, fmt.Errorf("object: %w", err)
	}

	p.skipWhitespace()
	var graph Term = NewDefaultGraph()
	if !p.done() && p.peek() != '.' {
		graph, err = p.parseTerm()
		if err != nil {
			return nil, fmt.Errorf("graph: %w", err)
		}
		if graph.Type() == TermTypeLiteral {
			return nil, fmt.Errorf("graph label cannot be a literal")
		}
		p.skipWhitespace()
	}

	if p.done() || p.peek() != '.' {
		return nil, fmt.Errorf("expected '.' at position %d", p.pos)
	}
	p.pos++
	p.skipWhitespace()
	if !p.done() && p.peek() != '#' {
		return nil, fmt.Errorf("unexpected input after '.' at position %d", p.pos)
	}

	return NewQuad(subject, predicate, object, graph), nil
}

func (p *lineParser) parseTerm() (Term, error) {
	if p.done() {
		return nil, fmt.Errorf("unexpected end of line")
	}
	switch p.peek() {
	case '<':
		iri, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		return NewNamedNode(iri), nil
	case '_':
		return p.parseBlankNode()
	case '"':
		return p.parseLiteral()
	default:
		return nil, fmt.Errorf("unexpected character %q at position %d", p.peek(), p.pos)
	}
}

func (p *lineParser) parseIRI() (string, error) {
	p.pos++ // '<'
	end := strings.IndexByte(p.input[p.pos:], '>')
	if end < 0 {
		return "", fmt.Errorf("unterminated IRI")
	}
	iri := p.input[p.pos : p.pos+end]
	p.pos += end + 1
	if strings.ContainsAny(iri, " \t\"{}|^`") {
		return "", fmt.Errorf("invalid character in IRI %q", iri)
	}
	if strings.Contains(iri, `\`) {
		return unescape(iri)
	}
	return iri, nil
}

func (p *lineParser) parseBlankNode() (Term, error) {
	if !strings.HasPrefix(p.input[p.pos:], "_:") {
		return nil, fmt.Errorf("invalid blank node at position %d", p.pos)
	}
	p.pos += 2
	start := p.pos
	for !p.done() && !isTermDelimiter(p.peek()) {
		p.pos++
	}
	// A trailing '.' terminates the statement, not the label.
	for p.pos > start && p.input[p.pos-1] == '.' {
		p.pos--
	}
	if p.pos == start {
		return nil, fmt.Errorf("empty blank node label")
	}
	return NewBlankNode(p.input[start:p.pos]), nil
}

func (p *lineParser) parseLiteral() (Term, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	closed := false
	for !p.done() {
		ch := p.peek()
		if ch == '"' {
			p.pos++
			closed = true
			break
		}
		if ch == '\\' {
			if p.pos+1 >= len(p.input) {
				return nil, fmt.Errorf("unterminated escape")
			}
			r, width, err := decodeEscape(p.input[p.pos:])
			if err != nil {
				return nil, err
			}
			sb.WriteRune(r)
			p.pos += width
			continue
		}
		sb.WriteByte(ch)
		p.pos++
	}
	if !closed {
		return nil, fmt.Errorf("unterminated literal")
	}

	value := sb.String()
	if p.done() {
		return NewLiteral(value), nil
	}
	switch {
	case p.peek() == '@':
		p.pos++
		start := p.pos
		for !p.done() && !isTermDelimiter(p.peek()) {
			p.pos++
		}
		for p.pos > start && p.input[p.pos-1] == '.' {
			p.pos--
		}
		if p.pos == start {
			return nil, fmt.Errorf("empty language tag")
		}
		return NewLiteralWithLanguage(value, p.input[start:p.pos]), nil
	case strings.HasPrefix(p.input[p.pos:], "^^"):
		p.pos += 2
		if p.done() || p.peek() != '<' {
			return nil, fmt.Errorf("expected datatype IRI")
		}
		datatype, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		return NewLiteralWithDatatype(value, NewNamedNode(datatype)), nil
	}
	return NewLiteral(value), nil
}

func isTermDelimiter(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '<' || ch == '"'
}

func decodeEscape(s string) (rune, int, error) {
	switch s[1] {
	case 't':
		return '\t', 2, nil
	case 'b':
		return '\b', 2, nil
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 'f':
		return '\f', 2, nil
	case '"':
		return '"', 2, nil
	case '\'':
		return '\'', 2, nil
	case '\\':
		return '\\', 2, nil
	case 'u', 'U':
		digits := 4
		if s[1] == 'U' {
			digits = 8
		}
		if len(s) < 2+digits {
			return 0, 0, fmt.Errorf("truncated unicode escape")
		}
		code, err := strconv.ParseUint(s[2:2+digits], 16, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid unicode escape: %w", err)
		}
		r := rune(code)
		if !utf8.ValidRune(r) {
			return 0, 0, fmt.Errorf("invalid code point U+%X", code)
		}
		return r, 2 + digits, nil
	default:
		return 0, 0, fmt.Errorf("invalid escape sequence \\%c", s[1])
	}
}

func unescape(s string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			i++
			continue
		}
		r, width, err := decodeEscape(s[i:])
		if err != nil {
			return "", err
		}
		sb.WriteRune(r)
		i += width
	}
	return sb.String(), nil
}
