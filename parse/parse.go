// Package parse is the syntax-tree collaborator of the compiler. It parses a
// script in module syntax and exposes every import-like node with the byte
// span of its specifier literal, so the resolver can rewrite specifiers in
// place without re-tokenizing.
package parse

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strconv"
)

// Import describes one import-like node: the unquoted module specifier and
// the byte offsets of the quoted literal in the original source. End is one
// past the closing quote, so source[Start:End] is the full literal. Plain,
// blank (_) and dot (.) import forms are all reported.
type Import struct {
	Specifier string
	Start     int
	End       int
}

// SyntaxError reports invalid source, carrying the scanner's positioned
// error list.
type SyntaxError struct {
	Filename string
	List     scanner.ErrorList
}

func (e *SyntaxError) Error() string {
	if len(e.List) == 0 {
		return fmt.Sprintf("parse %s: invalid source", e.Filename)
	}
	if len(e.List) == 1 {
		return fmt.Sprintf("parse %s: %s", e.Filename, e.List[0])
	}
	return fmt.Sprintf("parse %s: %s (and %d more errors)", e.Filename, e.List[0], len(e.List)-1)
}

// Tree is a parsed script.
type Tree struct {
	pkg      string
	imports  []Import
	exported []string
}

// Parse parses src as a full source file. Invalid syntax yields a
// *SyntaxError.
func Parse(filename string, src []byte) (*Tree, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		if list, ok := err.(scanner.ErrorList); ok {
			return nil, &SyntaxError{Filename: filename, List: list}
		}
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	tf := fset.File(file.Pos())
	t := &Tree{pkg: file.Name.Name, exported: exportedNames(file)}
	for _, spec := range file.Imports {
		specifier, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			// The parser accepted the literal, so this only happens for
			// malformed escapes it tolerated; skip rather than guess.
			continue
		}
		t.imports = append(t.imports, Import{
			Specifier: specifier,
			Start:     tf.Offset(spec.Path.Pos()),
			End:       tf.Offset(spec.Path.End()),
		})
	}
	return t, nil
}

// PackageName returns the declared package name.
func (t *Tree) PackageName() string { return t.pkg }

// VisitImports invokes fn once per import-like node, in source order.
func (t *Tree) VisitImports(fn func(Import)) {
	for _, im := range t.imports {
		fn(im)
	}
}

// ExportedNames returns the exported top-level functions, constants and
// variables, in declaration order. Types and methods are omitted: the loader
// fetches symbols by evaluating their names, which only makes sense for
// values.
func (t *Tree) ExportedNames() []string {
	return append([]string{}, t.exported...)
}

func exportedNames(file *ast.File) []string {
	var names []string
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.IsExported() {
				names = append(names, d.Name.Name)
			}
		case *ast.GenDecl:
			if d.Tok != token.CONST && d.Tok != token.VAR {
				continue
			}
			for _, spec := range d.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for _, name := range vs.Names {
					if name.IsExported() {
						names = append(names, name.Name)
					}
				}
			}
		}
	}
	return names
}
