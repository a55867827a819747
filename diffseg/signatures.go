package diffseg

import "regexp"

// signatureKind distinguishes the shapes of function starts the scanner
// recognizes.
type signatureKind string

const (
	kindFunction signatureKind = "function"
	kindMethod   signatureKind = "method"
	kindArrow    signatureKind = "arrow"
)

// signature pairs a language with one compiled function-start pattern.
// The first capture group is the function name.
type signature struct {
	language string
	kind     signatureKind
	re       *regexp.Regexp
}

// signatureTable is the fixed per-language function-start table. One generic
// scanner walks it; adding a language means adding rows, not code.
var signatureTable = []signature{
	{
		language: "go",
		kind:     kindFunction,
		re:       regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*(?:\[[^\]]*\])?\s*\(`),
	},
	{
		language: "python",
		kind:     kindFunction,
		re:       regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
	},
	{
		language: "javascript",
		kind:     kindFunction,
		re:       regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`),
	},
	{
		language: "javascript",
		kind:     kindArrow,
		re:       regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][A-Za-z0-9_$]*)\s*=>`),
	},
	{
		language: "typescript",
		kind:     kindFunction,
		re:       regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`),
	},
	{
		language: "typescript",
		kind:     kindArrow,
		re:       regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*(?::\s*[^=]+)?=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][A-Za-z0-9_$]*)\s*(?::\s*[^=>{]+)?=>`),
	},
	{
		language: "typescript",
		kind:     kindMethod,
		re:       regexp.MustCompile(`^\s+(?:public\s+|private\s+|protected\s+|static\s+|async\s+|readonly\s+)*([A-Za-z_$][A-Za-z0-9_$]*)\s*\([^)]*\)\s*(?::\s*[^{]+)?\{`),
	},
	{
		language: "java",
		kind:     kindMethod,
		re:       regexp.MustCompile(`^\s*(?:public\s+|private\s+|protected\s+|static\s+|final\s+|synchronized\s+|abstract\s+|native\s+)*[\w<>\[\],.?\s]+\s+(\w+)\s*\([^)]*\)\s*(?:throws\s+[\w.,\s]+)?\s*\{`),
	},
}

// methodKeywords are control-flow keywords that the method patterns can
// mistake for a function name.
var methodKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "new": true, "else": true, "do": true, "try": true,
	"super": true, "this": true,
}

// matchSignature tests a stripped diff line against the signature table for
// a language. The matched function name is returned on success.
func matchSignature(language, line string) (string, bool) {
	for _, sig := range signatureTable {
		if sig.language != language {
			continue
		}
		m := sig.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[len(m)-1]
		if name == "" || methodKeywords[name] {
			continue
		}
		return name, true
	}
	return "", false
}
