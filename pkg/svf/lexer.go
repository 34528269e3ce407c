package svf

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SVFLexer defines the lexical structure for the supported SVF subset.
// SVF keywords are case-insensitive; scan data is hex digits inside
// parentheses and may span lines.
var SVFLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments - both styles seen in vendor-generated SVF
	{Name: "Comment", Pattern: `(?:!|//)[^\n]*`},

	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	// Statement keywords
	{Name: "KwState", Pattern: `(?i)\bSTATE\b`},
	{Name: "KwRunTest", Pattern: `(?i)\bRUNTEST\b`},
	{Name: "KwSIR", Pattern: `(?i)\bSIR\b`},
	{Name: "KwSDR", Pattern: `(?i)\bSDR\b`},

	// Shift parameter keywords
	{Name: "KwTDI", Pattern: `(?i)\bTDI\b`},
	{Name: "KwTDO", Pattern: `(?i)\bTDO\b`},
	{Name: "KwMask", Pattern: `(?i)\bMASK\b`},
	{Name: "KwTCK", Pattern: `(?i)\bTCK\b`},

	// Hex scan vector, e.g. (00AA) - whitespace inside is legal
	{Name: "HexVector", Pattern: `\(\s*[0-9A-Fa-f][0-9A-Fa-f\s]*\)`},

	{Name: "Integer", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z][a-zA-Z0-9_]*`},
	{Name: "Semicolon", Pattern: `;`},
})
