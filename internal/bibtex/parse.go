// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bibtex reads BibTeX bibliographies into entries keyed by
// citation key.
package bibtex

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/pdiddy/citecheck/pkg/types"
)

// ParseError describes malformed BibTeX input.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// monthMacros are the predefined BibTeX month abbreviations.
var monthMacros = map[string]string{
	"jan": "January", "feb": "February", "mar": "March", "apr": "April",
	"may": "May", "jun": "June", "jul": "July", "aug": "August",
	"sep": "September", "oct": "October", "nov": "November", "dec": "December",
}

// Parse reads every entry from r. sourceFile is recorded on each entry
// and used in error messages. Text outside @-entries is ignored, as are
// @comment and @preamble blocks; @string definitions are expanded in later
// field values. Entries are returned in file order.
func Parse(r io.Reader, sourceFile string) ([]*types.BibEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", sourceFile, err)
	}
	p := &parser{
		src:    []rune(string(data)),
		line:   1,
		file:   sourceFile,
		macros: make(map[string]string),
	}
	return p.parse()
}

type parser struct {
	src    []rune
	pos    int
	line   int
	file   string
	macros map[string]string
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{File: p.file, Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) next() rune {
	r := p.src[p.pos]
	p.pos++
	if r == '\n' {
		p.line++
	}
	return r
}

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.next()
	}
}

func (p *parser) parse() ([]*types.BibEntry, error) {
	var entries []*types.BibEntry
	for {
		for !p.eof() && p.peek() != '@' {
			p.next()
		}
		if p.eof() {
			return entries, nil
		}
		p.next()

		// An @ not followed by "type{" or "type(" is free text, such as an
		// e-mail address between entries.
		kind := strings.ToLower(p.ident())
		p.skipSpace()
		if kind == "" || (p.peek() != '{' && p.peek() != '(') {
			continue
		}
		open := p.next()
		end := '}'
		if open == '(' {
			end = ')'
		}

		switch kind {
		case "comment", "preamble":
			if err := p.skipBalanced(open, end); err != nil {
				return nil, err
			}
		case "string":
			if err := p.stringDef(end); err != nil {
				return nil, err
			}
		default:
			e, err := p.entry(kind, end)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}
}

// ident reads an entry type or field name.
func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		r := p.peek()
		if unicode.IsSpace(r) || strings.ContainsRune("{}(),=#\"@", r) {
			break
		}
		p.next()
	}
	return string(p.src[start:p.pos])
}

// skipBalanced consumes input up to the delimiter closing the current
// block, honoring nesting.
func (p *parser) skipBalanced(open, end rune) error {
	depth := 1
	for !p.eof() {
		switch p.next() {
		case open:
			depth++
		case end:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return p.errorf("unterminated block")
}

func (p *parser) stringDef(end rune) error {
	p.skipSpace()
	name := strings.ToLower(p.ident())
	if name == "" {
		return p.errorf("@string without a name")
	}
	p.skipSpace()
	if p.eof() || p.next() != '=' {
		return p.errorf("expected = in @string %s", name)
	}
	val, err := p.value(end)
	if err != nil {
		return err
	}
	p.skipSpace()
	if p.eof() || p.next() != end {
		return p.errorf("unterminated @string %s", name)
	}
	p.macros[name] = val
	return nil
}

func (p *parser) entry(kind string, end rune) (*types.BibEntry, error) {
	p.skipSpace()
	start := p.pos
	for !p.eof() && p.peek() != ',' && p.peek() != end {
		p.next()
	}
	if p.eof() {
		return nil, p.errorf("unterminated @%s entry", kind)
	}
	key := strings.TrimSpace(string(p.src[start:p.pos]))
	if key == "" {
		return nil, p.errorf("@%s entry without a citation key", kind)
	}

	fields := make(map[string]string)
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated entry %s", key)
		}
		switch p.peek() {
		case end:
			p.next()
			return newEntry(key, kind, p.file, fields), nil
		case ',':
			p.next()
			continue
		}

		name := strings.ToLower(p.ident())
		if name == "" {
			return nil, p.errorf("unexpected %q in entry %s", p.peek(), key)
		}
		p.skipSpace()
		if p.eof() || p.next() != '=' {
			return nil, p.errorf("expected = after field %s in entry %s", name, key)
		}
		val, err := p.value(end)
		if err != nil {
			return nil, err
		}
		fields[name] = val
	}
}

// value reads a field value: one or more pieces joined by #. A piece is a
// {braced} or "quoted" string, a number, or a macro name.
func (p *parser) value(end rune) (string, error) {
	var b strings.Builder
	for {
		p.skipSpace()
		if p.eof() {
			return "", p.errorf("unexpected end of input in field value")
		}
		switch r := p.peek(); {
		case r == '{':
			p.next()
			s, err := p.delimited('}')
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case r == '"':
			p.next()
			s, err := p.delimited('"')
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		default:
			tok := p.ident()
			if tok == "" {
				return "", p.errorf("missing field value")
			}
			b.WriteString(p.expand(tok))
		}

		p.skipSpace()
		if p.peek() != '#' {
			return b.String(), nil
		}
		p.next()
	}
}

// delimited reads up to the unnested terminator and returns the content
// with inner braces kept.
func (p *parser) delimited(term rune) (string, error) {
	depth := 0
	start := p.pos
	for !p.eof() {
		r := p.peek()
		switch {
		case r == '{':
			depth++
		case r == '}' && depth > 0:
			depth--
		case r == term && depth == 0:
			s := string(p.src[start:p.pos])
			p.next()
			return s, nil
		case r == '}':
			return "", p.errorf("unbalanced } in field value")
		}
		p.next()
	}
	return "", p.errorf("unterminated field value")
}

func (p *parser) expand(tok string) string {
	if isDigits(tok) {
		return tok
	}
	name := strings.ToLower(tok)
	if v, ok := p.macros[name]; ok {
		return v
	}
	if v, ok := monthMacros[name]; ok {
		return v
	}
	return tok
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// newEntry builds the cleaned record: braces and newlines removed from
// the title, newlines in the author list turned into spaces.
func newEntry(key, kind, file string, fields map[string]string) *types.BibEntry {
	year := strings.TrimSpace(fields["year"])
	if year == "" {
		year = "N/A"
	}
	return &types.BibEntry{
		Key:        key,
		Title:      CleanTitle(fields["title"]),
		Author:     strings.ReplaceAll(fields["author"], "\n", " "),
		Year:       year,
		SourceFile: file,
		EntryType:  kind,
		Fields:     fields,
	}
}

// CleanTitle strips braces and newlines from a BibTeX title and trims the
// result.
func CleanTitle(raw string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '{', '}', '\n':
			return -1
		}
		return r
	}, raw))
}
