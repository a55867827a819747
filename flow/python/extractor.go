// Package python extracts control-flow facts from Python source using
// tree-sitter.
package python

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/c360studio/specdrift/flow"
)

func init() {
	flow.DefaultRegistry.Register("python", func() flow.Extractor {
		return NewExtractor()
	})
}

// Extractor extracts facts from Python functions and methods.
type Extractor struct {
	parser *sitter.Parser
}

// NewExtractor creates a Python extractor.
func NewExtractor() *Extractor {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Extractor{parser: p}
}

// Language returns "python".
func (e *Extractor) Language() string {
	return "python"
}

// Extract parses the file and extracts facts for the first def whose name
// matches.
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
		facts.ReturnType = text(ret, src)
	}

	if body := fn.ChildByFieldName("body"); body != nil {
		e.extractBody(body, src, facts)
		facts.MaxNestingDepth = nestingDepth(body, 0)
	}
	facts.Finalize()
	return facts, nil
}

// findFunction locates the first function_definition with a matching name.
func findFunction(node *sitter.Node, src []byte, name string) *sitter.Node {
	if node.Type() == "function_definition" {
		if n := node.ChildByFieldName("name"); n != nil && text(n, src) == name {
			return node
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := findFunction(node.NamedChild(i), src, name); found != nil {
			return found
		}
	}
	return nil
}

// extractParameters reads ordered parameters. A parameter with a default
// value is optional; an annotation supplies the type.
func (e *Extractor) extractParameters(fn *sitter.Node, src []byte, facts *flow.Facts) {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return
	}

	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		param := flow.Parameter{Type: flow.GenericType, Required: true}

		switch child.Type() {
		case "identifier":
			param.Name = text(child, src)
		case "typed_parameter":
			if n := firstChildOfType(child, "identifier"); n != nil {
				param.Name = text(n, src)
			}
			if t := child.ChildByFieldName("type"); t != nil {
				param.Type = text(t, src)
			}
		case "default_parameter":
			if n := child.ChildByFieldName("name"); n != nil {
				param.Name = text(n, src)
			}
			param.Required = false
		case "typed_default_parameter":
			if n := child.ChildByFieldName("name"); n != nil {
				param.Name = text(n, src)
			}
			if t := child.ChildByFieldName("type"); t != nil {
				param.Type = text(t, src)
			}
			param.Required = false
		case "list_splat_pattern", "dictionary_splat_pattern":
			param.Name = text(child, src)
			param.Required = false
		default:
			continue
		}

		if param.Name == "" || param.Name == "self" || param.Name == "cls" {
			continue
		}
		facts.Parameters = append(facts.Parameters, param)
	}
}

// extractBody walks a def body collecting guards, loops, branches and early
// returns.
func (e *Extractor) extractBody(body *sitter.Node, src []byte, facts *flow.Facts) {
	finalReturn := lastStatementIfReturn(body)

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		switch node.Type() {
		case "function_definition":
			// Nested defs belong to their own extraction.
			return

		case "if_statement":
			cond := node.ChildByFieldName("condition")
			condText := ""
			if cond != nil {
				condText = text(cond, src)
			}
			facts.Branches = append(facts.Branches, condText)
			if consequence := node.ChildByFieldName("consequence"); consequence != nil && exitsEarly(consequence) {
				facts.Guards = append(facts.Guards, condText)
			}

		case "for_statement":
			header := "for"
			if left := node.ChildByFieldName("left"); left != nil {
				if right := node.ChildByFieldName("right"); right != nil {
					header = "for " + text(left, src) + " in " + text(right, src)
				}
			}
			facts.Loops = append(facts.Loops, header)

		case "while_statement":
			header := "while"
			if cond := node.ChildByFieldName("condition"); cond != nil {
				header = "while " + text(cond, src)
			}
			facts.Loops = append(facts.Loops, header)

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

// lastStatementIfReturn returns the lexically final return of the body, if
// the body ends with one.
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

// exitsEarly reports whether a block immediately returns or raises.
func exitsEarly(block *sitter.Node) bool {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		switch block.NamedChild(i).Type() {
		case "return_statement", "raise_statement", "break_statement", "continue_statement":
			return true
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
		case "if_statement", "for_statement", "while_statement", "try_statement", "with_statement":
			d = depth + 1
		}
		if v := nestingDepth(child, d); v > max {
			max = v
		}
	}
	return max
}

// firstChildOfType returns the first named child with the given type.
func firstChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// text returns the source text covered by a node.
func text(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}
