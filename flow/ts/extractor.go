// Package ts extracts control-flow facts from TypeScript and JavaScript
// source using tree-sitter.
package ts

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/c360studio/specdrift/flow"
)

func init() {
	flow.DefaultRegistry.Register("typescript", func() flow.Extractor {
		return NewExtractor("typescript")
	})
	flow.DefaultRegistry.Register("javascript", func() flow.Extractor {
		return NewExtractor("javascript")
	})
}

// Extractor extracts facts from TypeScript/JavaScript functions, methods
// and arrow functions.
type Extractor struct {
	language string
	parser   *sitter.Parser
}

// NewExtractor creates an extractor for "typescript" or "javascript".
func NewExtractor(language string) *Extractor {
	p := sitter.NewParser()
	if language == "typescript" {
		p.SetLanguage(typescript.GetLanguage())
	} else {
		p.SetLanguage(javascript.GetLanguage())
	}
	return &Extractor{language: language, parser: p}
}

// Language returns the configured language identifier.
func (e *Extractor) Language() string {
	return e.language
}

// Extract parses the file and extracts facts for the first declaration,
// method or arrow binding whose name matches.
func (e *Extractor) Extract(ctx context.Context, src []byte, functionName string) (*flow.Facts, error) {
	tree, err := e.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}
	defer tree.Close()

	fn := findFunction(tree.RootNode(), src, functionName)
	if fn == nil {
		return nil, fmt.Errorf("function not found: %s", functionName)
	}

	facts := flow.NewFacts()
	e.extractParameters(fn, src, facts)

	if ret := fn.ChildByFieldName("return_type"); ret != nil {
		facts.ReturnType = annotationText(ret, src)
	}

	if body := fn.ChildByFieldName("body"); body != nil {
		e.extractBody(body, src, facts)
		facts.MaxNestingDepth = nestingDepth(body, 0)
	}
	facts.Finalize()
	return facts, nil
}

// findFunction locates the function node for a name: a declaration, a class
// method, or the function value of a matching variable declarator.
func findFunction(node *sitter.Node, src []byte, name string) *sitter.Node {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration", "method_definition":
		if n := node.ChildByFieldName("name"); n != nil && text(n, src) == name {
			return node
		}
	case "variable_declarator":
		if n := node.ChildByFieldName("name"); n != nil && text(n, src) == name {
			if value := node.ChildByFieldName("value"); value != nil {
				switch value.Type() {
				case "arrow_function", "function_expression", "function":
					return value
				}
			}
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := findFunction(node.NamedChild(i), src, name); found != nil {
			return found
		}
	}
	return nil
}

// extractParameters reads ordered parameters; optional markers and default
// values clear the required flag, type annotations supply the type.
func (e *Extractor) extractParameters(fn *sitter.Node, src []byte, facts *flow.Facts) {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		// Single-parameter arrow function without parentheses.
		if p := fn.ChildByFieldName("parameter"); p != nil {
			facts.Parameters = append(facts.Parameters, flow.Parameter{
				Name:     text(p, src),
				Type:     flow.GenericType,
				Required: true,
			})
		}
		return
	}

	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		param := flow.Parameter{Type: flow.GenericType, Required: true}

		switch child.Type() {
		case "identifier":
			param.Name = text(child, src)
		case "required_parameter", "optional_parameter":
			if pattern := child.ChildByFieldName("pattern"); pattern != nil {
				param.Name = text(pattern, src)
			}
			if t := child.ChildByFieldName("type"); t != nil {
				param.Type = annotationText(t, src)
			}
			if child.Type() == "optional_parameter" || child.ChildByFieldName("value") != nil {
				param.Required = false
			}
		case "assignment_pattern":
			if left := child.ChildByFieldName("left"); left != nil {
				param.Name = text(left, src)
			}
			param.Required = false
		case "rest_pattern":
			param.Name = text(child, src)
			param.Required = false
		default:
			continue
		}

		if param.Name == "" {
			continue
		}
		facts.Parameters = append(facts.Parameters, param)
	}
}

// extractBody walks a function body collecting guards, loops, branches and
// early returns.
func (e *Extractor) extractBody(body *sitter.Node, src []byte, facts *flow.Facts) {
	finalReturn := lastStatementIfReturn(body)

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		switch node.Type() {
		case "function_declaration", "function_expression", "arrow_function", "method_definition":
			// Nested closures belong to their own extraction.
			return

		case "if_statement":
			condText := conditionText(node, src)
			facts.Branches = append(facts.Branches, condText)
			if consequence := node.ChildByFieldName("consequence"); consequence != nil && exitsEarly(consequence) {
				facts.Guards = append(facts.Guards, condText)
			}

		case "switch_statement":
			facts.Branches = append(facts.Branches, conditionText(node, src))

		case "for_statement", "for_in_statement":
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
	header := string(src[node.StartByte():body.StartByte()])
	return strings.TrimSpace(header)
}

// lastStatementIfReturn returns the lexically final return of a statement
// block, if the block ends with one. Expression-bodied arrows have no
// early returns by construction.
func lastStatementIfReturn(body *sitter.Node) *sitter.Node {
	if body.Type() != "statement_block" {
		return nil
	}
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
	case "statement_block":
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

// annotationText strips the leading colon of a type annotation.
func annotationText(node *sitter.Node, src []byte) string {
	s := text(node, src)
	s = strings.TrimPrefix(s, ":")
	return strings.TrimSpace(s)
}

// nestingDepth computes the maximum branching/loop nesting of a node.
func nestingDepth(node *sitter.Node, depth int) int {
	max := depth
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		d := depth
		switch child.Type() {
		case "if_statement", "for_statement", "for_in_statement",
			"while_statement", "do_statement", "switch_statement", "try_statement":
			d = depth + 1
		}
		if v := nestingDepth(child, d); v > max {
			max = v
		}
	}
	return max
}

// text returns the source text covered by a node.
func text(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}
