// Package golang extracts control-flow facts from Go source using go/ast.
package golang

import (
	"context"
	"fmt"
	goast "go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"

	"github.com/c360studio/specdrift/flow"
)

func init() {
	flow.DefaultRegistry.Register("go", func() flow.Extractor {
		return NewExtractor()
	})
}

// Extractor extracts facts from Go functions and methods.
type Extractor struct{}

// NewExtractor creates a Go extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Language returns "go".
func (e *Extractor) Language() string {
	return "go"
}

// Extract parses the file and extracts facts for the first function or
// method whose name matches.
func (e *Extractor) Extract(ctx context.Context, src []byte, functionName string) (*flow.Facts, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "src.go", src, 0)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	var fn *goast.FuncDecl
	for _, decl := range file.Decls {
		if d, ok := decl.(*goast.FuncDecl); ok && d.Name.Name == functionName {
			fn = d
			break
		}
	}
	if fn == nil {
		return nil, fmt.Errorf("function not found: %s", functionName)
	}

	facts := flow.NewFacts()
	e.extractSignature(fn, facts)
	if fn.Body != nil {
		e.extractBody(fn.Body, facts)
		facts.MaxNestingDepth = nestingDepth(fn.Body, 0)
	}
	facts.Finalize()
	return facts, nil
}

// extractSignature fills parameters and return type.
// Go groups parameters sharing a type ("a, b int" is one field, two names).
func (e *Extractor) extractSignature(fn *goast.FuncDecl, facts *flow.Facts) {
	if fn.Type.Params != nil {
		for _, field := range fn.Type.Params.List {
			typeName := types.ExprString(field.Type)
			if typeName == "" {
				typeName = flow.GenericType
			}
			if len(field.Names) == 0 {
				facts.Parameters = append(facts.Parameters, flow.Parameter{
					Name:     "_",
					Type:     typeName,
					Required: true,
				})
				continue
			}
			for _, name := range field.Names {
				facts.Parameters = append(facts.Parameters, flow.Parameter{
					Name:     name.Name,
					Type:     typeName,
					Required: true, // Go has no optional parameters
				})
			}
		}
	}

	if fn.Type.Results == nil || len(fn.Type.Results.List) == 0 {
		facts.ReturnType = "void"
		return
	}
	parts := make([]string, 0, len(fn.Type.Results.List))
	for _, field := range fn.Type.Results.List {
		parts = append(parts, types.ExprString(field.Type))
	}
	if len(parts) == 1 {
		facts.ReturnType = parts[0]
	} else {
		facts.ReturnType = "(" + strings.Join(parts, ", ") + ")"
	}
}

// extractBody walks the function body collecting guards, loops, branches
// and early returns.
func (e *Extractor) extractBody(body *goast.BlockStmt, facts *flow.Facts) {
	var finalReturn *goast.ReturnStmt
	if n := len(body.List); n > 0 {
		if ret, ok := body.List[n-1].(*goast.ReturnStmt); ok {
			finalReturn = ret
		}
	}

	goast.Inspect(body, func(n goast.Node) bool {
		switch stmt := n.(type) {
		case *goast.IfStmt:
			cond := types.ExprString(stmt.Cond)
			facts.Branches = append(facts.Branches, cond)
			if guardsEarlyExit(stmt.Body) {
				facts.Guards = append(facts.Guards, cond)
			}

		case *goast.SwitchStmt:
			if stmt.Tag != nil {
				facts.Branches = append(facts.Branches, types.ExprString(stmt.Tag))
			} else {
				facts.Branches = append(facts.Branches, "switch")
			}

		case *goast.TypeSwitchStmt:
			facts.Branches = append(facts.Branches, "type switch")

		case *goast.ForStmt:
			header := "for"
			if stmt.Cond != nil {
				header = "for " + types.ExprString(stmt.Cond)
			}
			facts.Loops = append(facts.Loops, header)

		case *goast.RangeStmt:
			facts.Loops = append(facts.Loops, "range "+types.ExprString(stmt.X))

		case *goast.ReturnStmt:
			if stmt == finalReturn {
				return true
			}
			facts.EarlyReturns = append(facts.EarlyReturns, returnValue(stmt))
		}
		return true
	})
}

// guardsEarlyExit reports whether a block immediately exits the function.
func guardsEarlyExit(block *goast.BlockStmt) bool {
	for _, stmt := range block.List {
		switch s := stmt.(type) {
		case *goast.ReturnStmt:
			return true
		case *goast.BranchStmt:
			return true
		case *goast.ExprStmt:
			if call, ok := s.X.(*goast.CallExpr); ok {
				if ident, ok := call.Fun.(*goast.Ident); ok && ident.Name == "panic" {
					return true
				}
			}
		}
	}
	return false
}

// returnValue renders the returned expression list as text.
func returnValue(stmt *goast.ReturnStmt) string {
	if len(stmt.Results) == 0 {
		return ""
	}
	parts := make([]string, 0, len(stmt.Results))
	for _, expr := range stmt.Results {
		parts = append(parts, types.ExprString(expr))
	}
	return strings.Join(parts, ", ")
}

// nestingDepth computes the maximum depth of nested branching and loop
// statements.
func nestingDepth(stmt goast.Stmt, depth int) int {
	max := depth
	observe := func(inner goast.Stmt, d int) {
		if v := nestingDepth(inner, d); v > max {
			max = v
		}
	}

	switch s := stmt.(type) {
	case *goast.BlockStmt:
		for _, inner := range s.List {
			observe(inner, depth)
		}
	case *goast.IfStmt:
		observe(s.Body, depth+1)
		if s.Else != nil {
			observe(s.Else, depth+1)
		}
	case *goast.ForStmt:
		observe(s.Body, depth+1)
	case *goast.RangeStmt:
		observe(s.Body, depth+1)
	case *goast.SwitchStmt:
		observe(s.Body, depth+1)
	case *goast.TypeSwitchStmt:
		observe(s.Body, depth+1)
	case *goast.SelectStmt:
		observe(s.Body, depth+1)
	}
	return max
}
