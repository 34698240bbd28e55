// SPDX-License-Identifier: MPL-2.0

package pysrc

import (
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

type (
	// Decorator is a decorator applied to a class, e.g. `@reg_order(0)`.
	Decorator struct {
		// Name is the dotted callee (`reg_order`, `framework.reg_order`).
		Name string
		// Args holds the positional argument texts.
		Args []string
	}

	// PropertyDecl is an annotated class attribute such as
	// `target: PointerProperty(type=Settings)`.
	PropertyDecl struct {
		Name string
		// Call is the dotted callee of the annotation, empty when the
		// annotation is not a call.
		Call string
		// TypeRef is the dotted `type=` keyword argument, if any.
		TypeRef string
	}

	// ClassDecl is a top-level class definition.
	ClassDecl struct {
		Name string
		// Bases lists the superclass expressions in declaration order.
		Bases      []string
		Decorators []Decorator
		// Attributes maps class-level names assigned a literal to the literal's
		// value (strings unquoted, numbers verbatim).
		Attributes map[string]string
		Properties []PropertyDecl
		Row        int
	}
)

// Attr returns a literal class attribute and whether it was set.
func (c ClassDecl) Attr(name string) (string, bool) {
	v, ok := c.Attributes[name]
	return v, ok
}

// Decorator returns the first decorator whose last dotted segment is name.
func (c ClassDecl) Decorator(name string) (Decorator, bool) {
	for _, d := range c.Decorators {
		if lastSegment(d.Name) == name {
			return d, true
		}
	}
	return Decorator{}, false
}

func classDecls(root *tree_sitter.Node, src []byte) []ClassDecl {
	var out []ClassDecl
	for i := uint(0); i < root.NamedChildCount(); i++ {
		n := root.NamedChild(i)
		if n == nil {
			continue
		}
		var decorators []Decorator
		def := n
		if n.Kind() == "decorated_definition" {
			for j := uint(0); j < n.NamedChildCount(); j++ {
				if d := n.NamedChild(j); d != nil && d.Kind() == "decorator" {
					decorators = append(decorators, decoratorOf(d, src))
				}
			}
			def = n.ChildByFieldName("definition")
		}
		if def == nil || def.Kind() != "class_definition" {
			continue
		}
		c := classOf(def, src)
		c.Decorators = decorators
		c.Row = int(n.StartPosition().Row) + 1
		out = append(out, c)
	}
	return out
}

func classOf(n *tree_sitter.Node, src []byte) ClassDecl {
	c := ClassDecl{Attributes: map[string]string{}}
	if name := n.ChildByFieldName("name"); name != nil {
		c.Name = name.Utf8Text(src)
	}
	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.NamedChildCount(); i++ {
			arg := supers.NamedChild(i)
			if arg == nil || arg.Kind() == "keyword_argument" || arg.Kind() == "comment" {
				continue
			}
			c.Bases = append(c.Bases, compactDotted(arg.Utf8Text(src)))
		}
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return c
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		stmt := body.NamedChild(i)
		if stmt == nil || stmt.Kind() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign == nil || assign.Kind() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		if left == nil || left.Kind() != "identifier" {
			continue
		}
		name := left.Utf8Text(src)
		if typ := assign.ChildByFieldName("type"); typ != nil {
			c.Properties = append(c.Properties, propertyOf(name, typ, src))
		}
		if right := assign.ChildByFieldName("right"); right != nil {
			if v, ok := literal(right, src); ok {
				c.Attributes[name] = v
			}
		}
	}
	return c
}

func propertyOf(name string, typ *tree_sitter.Node, src []byte) PropertyDecl {
	p := PropertyDecl{Name: name}
	expr := typ
	if typ.Kind() == "type" && typ.NamedChildCount() > 0 {
		expr = typ.NamedChild(0)
	}
	if expr == nil || expr.Kind() != "call" {
		return p
	}
	if fn := expr.ChildByFieldName("function"); fn != nil {
		p.Call = compactDotted(fn.Utf8Text(src))
	}
	args := expr.ChildByFieldName("arguments")
	if args == nil {
		return p
	}
	for i := uint(0); i < args.NamedChildCount(); i++ {
		kw := args.NamedChild(i)
		if kw == nil || kw.Kind() != "keyword_argument" {
			continue
		}
		key := kw.ChildByFieldName("name")
		val := kw.ChildByFieldName("value")
		if key != nil && val != nil && key.Utf8Text(src) == "type" {
			p.TypeRef = compactDotted(val.Utf8Text(src))
		}
	}
	return p
}

func decoratorOf(n *tree_sitter.Node, src []byte) Decorator {
	var d Decorator
	if n.NamedChildCount() == 0 {
		return d
	}
	expr := n.NamedChild(0)
	if expr == nil {
		return d
	}
	if expr.Kind() != "call" {
		d.Name = compactDotted(expr.Utf8Text(src))
		return d
	}
	if fn := expr.ChildByFieldName("function"); fn != nil {
		d.Name = compactDotted(fn.Utf8Text(src))
	}
	if args := expr.ChildByFieldName("arguments"); args != nil {
		for i := uint(0); i < args.NamedChildCount(); i++ {
			a := args.NamedChild(i)
			if a == nil || a.Kind() == "keyword_argument" || a.Kind() == "comment" {
				continue
			}
			if v, ok := literal(a, src); ok {
				d.Args = append(d.Args, v)
			} else {
				d.Args = append(d.Args, a.Utf8Text(src))
			}
		}
	}
	return d
}

// literal extracts string, integer and float literals, including negated
// numbers.
func literal(n *tree_sitter.Node, src []byte) (string, bool) {
	switch n.Kind() {
	case "string":
		return unquote(n.Utf8Text(src)), true
	case "integer", "float":
		return n.Utf8Text(src), true
	case "unary_operator":
		arg := n.ChildByFieldName("argument")
		op := n.ChildByFieldName("operator")
		if arg != nil && op != nil && op.Utf8Text(src) == "-" {
			if v, ok := literal(arg, src); ok {
				return "-" + v, true
			}
		}
	}
	return "", false
}

func unquote(s string) string {
	s = strings.TrimLeft(s, "rRbBuUfF")
	if v, err := strconv.Unquote(s); err == nil {
		return v
	}
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

func lastSegment(dotted string) string {
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}

func moduleDicts(root *tree_sitter.Node, src []byte) map[string]map[string][]string {
	out := map[string]map[string][]string{}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt == nil || stmt.Kind() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign == nil || assign.Kind() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		right := assign.ChildByFieldName("right")
		if left == nil || right == nil || left.Kind() != "identifier" || right.Kind() != "dictionary" {
			continue
		}
		entries := map[string][]string{}
		for j := uint(0); j < right.NamedChildCount(); j++ {
			pair := right.NamedChild(j)
			if pair == nil || pair.Kind() != "pair" {
				continue
			}
			key := pair.ChildByFieldName("key")
			val := pair.ChildByFieldName("value")
			if key == nil || val == nil || key.Kind() != "string" {
				continue
			}
			if elems, ok := literalElements(val, src); ok {
				entries[unquote(key.Utf8Text(src))] = elems
			}
		}
		out[left.Utf8Text(src)] = entries
	}
	return out
}

func literalElements(n *tree_sitter.Node, src []byte) ([]string, bool) {
	if n.Kind() != "tuple" && n.Kind() != "list" {
		v, ok := literal(n, src)
		if !ok {
			return nil, false
		}
		return []string{v}, true
	}
	elems := []string{}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		v, ok := literal(c, src)
		if !ok {
			return nil, false
		}
		elems = append(elems, v)
	}
	return elems, true
}
