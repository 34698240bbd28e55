// SPDX-License-Identifier: MPL-2.0

package pysrc

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// Parser turns Python source into SourceFile values. A Parser is not safe for
// concurrent use; callers running one resolution pass own one Parser and Close
// it when the pass ends.
type Parser struct {
	ts *tree_sitter.Parser
}

// NewParser creates a Parser configured for the Python grammar.
func NewParser() (*Parser, error) {
	ts := tree_sitter.NewParser()
	if err := ts.SetLanguage(tree_sitter.NewLanguage(tree_sitter_python.Language())); err != nil {
		ts.Close()
		return nil, fmt.Errorf("pysrc: load python grammar: %w", err)
	}
	return &Parser{ts: ts}, nil
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	if p.ts != nil {
		p.ts.Close()
		p.ts = nil
	}
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(path string) (*SourceFile, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pysrc: read %s: %w", path, err)
	}
	return p.Parse(path, src)
}

// Parse parses src, attributing the result to path. The returned SourceFile
// owns src; callers must not modify it afterwards.
func (p *Parser) Parse(path string, src []byte) (*SourceFile, error) {
	tree := p.ts.Parse(src, nil)
	if tree == nil {
		return nil, &ParseError{Path: path, Reason: "parser returned no tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		perr := &ParseError{Path: path, Reason: "invalid syntax"}
		if bad := firstErrorNode(root); bad != nil {
			perr.Line = int(bad.StartPosition().Row) + 1
			if bad.IsMissing() {
				perr.Reason = "missing " + bad.Kind()
			}
		}
		return nil, perr
	}
	if bad, reason := structuralError(root); bad != nil {
		return nil, &ParseError{Path: path, Line: int(bad.StartPosition().Row) + 1, Reason: reason}
	}

	f := &SourceFile{Path: path, Source: src}
	walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			f.Imports = append(f.Imports, plainImports(n, f)...)
			return false
		case "import_from_statement":
			f.Imports = append(f.Imports, fromImport(n, f))
			return false
		case "future_import_statement":
			return false
		}
		return true
	})
	f.Classes = classDecls(root, src)
	f.Dicts = moduleDicts(root, src)
	return f, nil
}

// ParseFile parses a single file with a throwaway Parser.
func ParseFile(path string) (*SourceFile, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.ParseFile(path)
}

// walk visits n and its descendants depth-first in source order. Children are
// skipped when visit returns false.
func walk(n *tree_sitter.Node, visit func(*tree_sitter.Node) bool) {
	if !visit(n) {
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil {
			walk(c, visit)
		}
	}
}

func firstErrorNode(root *tree_sitter.Node) *tree_sitter.Node {
	var found *tree_sitter.Node
	walk(root, func(n *tree_sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})
	return found
}

// structuralError finds invalid Python the grammar accepts without error
// nodes: empty blocks, Python 2 print and exec statements, and top-level
// statements that start indented.
func structuralError(root *tree_sitter.Node) (*tree_sitter.Node, string) {
	prevEnd := -1
	for i := uint(0); i < root.NamedChildCount(); i++ {
		c := root.NamedChild(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		start := c.StartPosition()
		// Statements after `;` share the row of the previous one.
		if start.Column != 0 && int(start.Row) != prevEnd {
			return c, "unexpected indent"
		}
		prevEnd = int(c.EndPosition().Row)
	}

	var (
		found  *tree_sitter.Node
		reason string
	)
	walk(root, func(n *tree_sitter.Node) bool {
		if found != nil {
			return false
		}
		switch n.Kind() {
		case "print_statement":
			found, reason = n, "python 2 print statement"
		case "exec_statement":
			found, reason = n, "python 2 exec statement"
		case "block":
			if !hasStatement(n) {
				found, reason = n, "expected an indented block"
			}
		}
		return found == nil
	})
	return found, reason
}

func hasStatement(block *tree_sitter.Node) bool {
	for i := uint(0); i < block.NamedChildCount(); i++ {
		if c := block.NamedChild(i); c != nil && c.Kind() != "comment" {
			return true
		}
	}
	return false
}

func spanOf(n *tree_sitter.Node) Span {
	return Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}

func lineAt(src []byte, offset int) string {
	start := bytes.LastIndexByte(src[:offset], '\n') + 1
	end := bytes.IndexByte(src[offset:], '\n')
	if end < 0 {
		return strings.TrimRight(string(src[start:]), "\r")
	}
	return strings.TrimRight(string(src[start:offset+end]), "\r")
}

func newStatement(n *tree_sitter.Node, f *SourceFile) ImportStatement {
	return ImportStatement{
		File: f.Path,
		Row:  int(n.StartPosition().Row) + 1,
		Line: lineAt(f.Source, int(n.StartByte())),
		Span: spanOf(n),
	}
}

// importTarget splits a `name` field child into its dotted name node and
// optional alias.
func importTarget(n *tree_sitter.Node, src []byte) (*tree_sitter.Node, string) {
	if n.Kind() == "aliased_import" {
		name := n.ChildByFieldName("name")
		alias := ""
		if a := n.ChildByFieldName("alias"); a != nil {
			alias = a.Utf8Text(src)
		}
		return name, alias
	}
	return n, ""
}

func nameFields(n *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		if n.FieldNameForChild(uint32(i)) == "name" {
			out = append(out, n.Child(i))
		}
	}
	return out
}

func plainImports(n *tree_sitter.Node, f *SourceFile) []ImportStatement {
	var out []ImportStatement
	for _, target := range nameFields(n) {
		name, alias := importTarget(target, f.Source)
		if name == nil {
			continue
		}
		dotted := name.Utf8Text(f.Source)
		st := newStatement(n, f)
		st.Kind = ImportAbsolute
		st.Plain = true
		st.Module = ModuleReference{Path: dotted}
		st.ModuleSpan = spanOf(name)
		st.Names = []ImportedName{{Name: dotted, Alias: alias, Span: spanOf(target)}}
		out = append(out, st)
	}
	return out
}

func fromImport(n *tree_sitter.Node, f *SourceFile) ImportStatement {
	st := newStatement(n, f)
	if mod := n.ChildByFieldName("module_name"); mod != nil {
		st.ModuleSpan = spanOf(mod)
		st.Module = ParseModuleReference(compactDotted(mod.Utf8Text(f.Source)))
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil && c.Kind() == "wildcard_import" {
			st.Module.Wildcard = true
			st.Names = []ImportedName{{Name: "*", Span: spanOf(c)}}
		}
	}
	if !st.Module.Wildcard {
		for _, target := range nameFields(n) {
			name, alias := importTarget(target, f.Source)
			if name == nil {
				continue
			}
			st.Names = append(st.Names, ImportedName{
				Name:  name.Utf8Text(f.Source),
				Alias: alias,
				Span:  spanOf(target),
			})
		}
	}
	switch {
	case st.Module.Wildcard:
		st.Kind = ImportWildcard
	case st.Module.Level > 0:
		st.Kind = ImportRelative
	default:
		st.Kind = ImportAbsolute
	}
	return st
}

// compactDotted drops whitespace the grammar tolerates inside dotted names
// and relative prefixes (`from . mod import x`).
func compactDotted(s string) string {
	return strings.Join(strings.Fields(s), "")
}
