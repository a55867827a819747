// Package java extracts control-flow facts from Java source using
// tree-sitter.
package java

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/c360studio/specdrift/flow"
)

func init() {
	flow.DefaultRegistry.Register("java", func() flow.Extractor {
		return NewExtractor()
	})
}

// Extractor extracts facts from Java methods and constructors.
type Extractor struct {
	parser *sitter.Parser
}

// NewExtractor creates a Java extractor.
func NewExtractor() *Extractor {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &Extractor{parser: p}
}

// Language returns "java".
func (e *Extractor) Language() string {
	return "java"
}

// Extract parses the file and extracts facts for the first method whose
// name matches. Overloads are not disambiguated; the first wins.
func (e *Extractor) Extract(ctx context.Context, src []byte, functionName string) (*flow.Facts, error) {
	tree, err := e.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}
	defer tree.Close()

	fn := findMethod(tree.RootNode(), src, functionName)
	if fn == nil {
		return nil, fmt.Errorf("method not found: %s", functionName)
	}

	facts := flow.NewFacts()
	e.extractParameters(fn, src, facts)

	if ret := fn.ChildByFieldName("type"); ret != nil {
		facts.ReturnType = text(ret, src)
	}

	if body := fn.ChildByFieldName("body"); body != nil {
		e.extractBody(body, src, facts)
		facts.MaxNestingDepth = nestingDepth(body, 0)
	}
	facts.Finalize()
	return facts, nil
}

// findMethod locates the first method or constructor declaration with a
// matching name.
func findMethod(node *sitter.Node, src []byte, name string) *sitter.Node {
	switch node.Type() {
	case "method_declaration", "constructor_declaration":
		if n := node.ChildByFieldName("name"); n != nil && text(n, src) == name {
			return node
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := findMethod(node.NamedChild(i), src, name); found != nil {
			return found
		}
	}
	return nil
}

// extractParameters reads the formal parameter list. Java parameters are
// always required and always typed.
func (e *Extractor) extractParameters(fn *sitter.Node, src []byte, facts *flow.Facts) {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return
	}

	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		if child.Type() != "formal_parameter" && child.Type() != "spread_parameter" {
			continue
		}

		param := flow.Parameter{Type: flow.GenericType, Required: true}
		if t := child.ChildByFieldName("type"); t != nil {
			param.Type = text(t, src)
		}
		if n := child.ChildByFieldName("name"); n != nil {
			param.Name = text(n, src)
		} else if id := lastChildOfType(child, "identifier"); id != nil {
			param.Name = text(id, src)
		}
		if param.Name == "" {
			continue
		}
		facts.Parameters = append(facts.Parameters, param)
	}
}

// extractBody walks a method body collecting guards, loops, branches and
// early returns.
func (e *Extractor) extractBody(body *sitter.Node, src []byte, facts *flow.Facts) {
	finalReturn := lastStatementIfReturn(body)

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		switch node.Type() {
		case "method_declaration", "constructor_declaration", "lambda_expression":
			// Nested bodies belong to their own extraction.
			return

		case "if_statement":
			condText := conditionText(node, src)
			facts.Branches = append(facts.Branches, condText)
			if consequence := node.ChildByFieldName("consequence"); consequence != nil && exitsEarly(consequence) {
				facts.Guards = append(facts.Guards, condText)
			}

		case "switch_expression":
			facts.Branches = append(facts.Branches, conditionText(node, src))

		case "for_statement", "enhanced_for_statement":
			facts.Loops = append(facts.Loops, headerText(node, src))

		case "while_statement", "do_statement":
			facts.Loops = append(facts.Loops, "while "+conditionText(node, src))

		case "return_statement":
			if node == finalReturn {
				break
			}
			facts.EarlyReturns = append(facts.EarlyReturns, returnValue(node, src))
		}

		for i := 0; i < int(node.NamedChildCount()); i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(body)
}

// conditionText renders a statement's condition without its parentheses.
func conditionText(node *sitter.Node, src []byte) string {
	cond := node.ChildByFieldName("condition")
	if cond == nil {
		return ""
	}
	s := text(cond, src)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	return strings.TrimSpace(s)
}

// headerText renders a loop header up to its body.
func headerText(node *sitter.Node, src []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil {
		return text(node, src)
	}
	return strings.TrimSpace(string(src[node.StartByte():body.StartByte()]))
}

// lastStatementIfReturn returns the lexically final return of a block, if
// the block ends with one.
func lastStatementIfReturn(body *sitter.Node) *sitter.Node {
	n := int(body.NamedChildCount())
	if n == 0 {
		return nil
	}
	last := body.NamedChild(n - 1)
	if last.Type() == "return_statement" {
		return last
	}
	return nil
}

// exitsEarly reports whether a block (or single statement) immediately
// returns, throws, breaks or continues.
func exitsEarly(block *sitter.Node) bool {
	switch block.Type() {
	case "return_statement", "throw_statement", "break_statement", "continue_statement":
		return true
	case "block":
		for i := 0; i < int(block.NamedChildCount()); i++ {
			switch block.NamedChild(i).Type() {
			case "return_statement", "throw_statement", "break_statement", "continue_statement":
				return true
			}
		}
	}
	return false
}

// returnValue renders the returned expression as text.
func returnValue(ret *sitter.Node, src []byte) string {
	if ret.NamedChildCount() == 0 {
		return ""
	}
	return text(ret.NamedChild(0), src)
}

// nestingDepth computes the maximum branching/loop nesting of a node.
func nestingDepth(node *sitter.Node, depth int) int {
	max := depth
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		d := depth
		switch child.Type() {
		case "if_statement", "for_statement", "enhanced_for_statement",
			"while_statement", "do_statement", "switch_expression", "try_statement":
			d = depth + 1
		}
		if v := nestingDepth(child, d); v > max {
			max = v
		}
	}
	return max
}

// lastChildOfType returns the last named child with the given type.
func lastChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	var found *sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == nodeType {
			found = child
		}
	}
	return found
}

// text returns the source text covered by a node.
func text(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}
