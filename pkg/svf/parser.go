// Package svf parses and plays back a small subset of the Serial Vector
// Format: STATE, RUNTEST, SIR and SDR statements, enough to drive scripted
// configuration flows through the probe's vendor command surface.
package svf

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
)

// Parser parses SVF scripts of the supported subset.
type Parser struct {
	parser *participle.Parser[Script]
}

// NewParser builds the SVF parser.
func NewParser() (*Parser, error) {
	parser, err := participle.Build[Script](
		participle.Lexer(SVFLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("svf: building parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// ParseString parses an SVF script from a string.
func (p *Parser) ParseString(input string) (*Script, error) {
	script, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("svf: %w", err)
	}
	return script, nil
}

// ParseFile parses an SVF script from disk.
func (p *Parser) ParseFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("svf: %w", err)
	}
	return p.ParseString(string(data))
}
