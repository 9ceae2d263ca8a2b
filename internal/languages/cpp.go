package languages

import (
	"context"
	"strings"

	"github.com/morozRed/flowdoc/internal/syntax"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// CppProvider implements parsing for C and C++ source files
type CppProvider struct {
	parser *sitter.Parser
}

// NewCppProvider creates a new C++ provider
func NewCppProvider() *CppProvider {
	p := sitter.NewParser()
	p.SetLanguage(cpp.GetLanguage())
	return &CppProvider{parser: p}
}

func (c *CppProvider) Language() string {
	return "cpp"
}

func (c *CppProvider) Extensions() []string {
	return []string{".cc", ".cpp", ".cxx", ".c", ".h", ".hh", ".hpp", ".hxx"}
}

func (c *CppProvider) Parse(filename string, content []byte) (syntax.Tree, error) {
	ts, err := c.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	return newTree(filename, content, ts, cppGrammar{}, nil), nil
}

type cppGrammar struct{}

func (cppGrammar) kindOf(n *sitter.Node, _ []byte) syntax.Kind {
	switch n.Type() {
	case "function_definition":
		if cppIsMethod(n) {
			return syntax.Method
		}
		return syntax.Function
	case "if_statement":
		return syntax.If
	case "compound_statement":
		return syntax.CompoundBlock
	case "while_statement":
		return syntax.WhileLoop
	case "do_statement":
		return syntax.DoLoop
	case "for_statement", "for_range_loop":
		return syntax.ForLoop
	case "call_expression":
		return syntax.Call
	case "identifier":
		return syntax.Reference
	case "return_statement":
		return syntax.Return
	case "declaration":
		for _, d := range fieldChildren(n, "declarator") {
			if u := unwrapCppDeclarator(d); u != nil && u.Type() == "function_declarator" {
				return syntax.Other
			}
		}
		return syntax.VariableDecl
	}
	return syntax.Other
}

func (cppGrammar) parts(n *sitter.Node, kind syntax.Kind) []*sitter.Node {
	switch kind {
	case syntax.If:
		parts := []*sitter.Node{
			unwrapParens(n.ChildByFieldName("condition")),
			n.ChildByFieldName("consequence"),
		}
		alt := n.ChildByFieldName("alternative")
		if alt != nil && alt.Type() == "else_clause" {
			alt = firstNamed(alt)
		}
		if alt != nil {
			parts = append(parts, alt)
		}
		return parts
	case syntax.WhileLoop:
		return []*sitter.Node{
			unwrapParens(n.ChildByFieldName("condition")),
			n.ChildByFieldName("body"),
		}
	case syntax.DoLoop:
		return []*sitter.Node{
			n.ChildByFieldName("body"),
			unwrapParens(n.ChildByFieldName("condition")),
		}
	case syntax.ForLoop:
		if n.Type() == "for_range_loop" {
			return []*sitter.Node{
				n.ChildByFieldName("declarator"),
				n.ChildByFieldName("right"),
				nil,
				n.ChildByFieldName("body"),
			}
		}
		return []*sitter.Node{
			n.ChildByFieldName("initializer"),
			n.ChildByFieldName("condition"),
			n.ChildByFieldName("update"),
			n.ChildByFieldName("body"),
		}
	case syntax.Call:
		return []*sitter.Node{n.ChildByFieldName("function"), n.ChildByFieldName("arguments")}
	case syntax.VariableDecl:
		values := make([]*sitter.Node, 0)
		for _, d := range fieldChildren(n, "declarator") {
			if d.Type() != "init_declarator" {
				continue
			}
			if v := d.ChildByFieldName("value"); v != nil {
				values = append(values, v)
			}
		}
		return values
	}
	return namedChildren(n)
}

func (cppGrammar) detached(n *sitter.Node, kind syntax.Kind) []*sitter.Node {
	switch kind {
	case syntax.If, syntax.WhileLoop:
		if clause := n.ChildByFieldName("condition"); clause != nil {
			if initializer := clause.ChildByFieldName("initializer"); initializer != nil {
				return []*sitter.Node{initializer}
			}
		}
	}
	return nil
}

func (cppGrammar) describe(t *tree, n *node) {
	if n.kind == syntax.Call {
		cppDescribeCall(t, n)
		return
	}

	fd := cppFunctionDeclarator(n.ts)
	if fd == nil {
		return
	}
	nameNode := fd.ChildByFieldName("declarator")
	if nameNode == nil {
		return
	}

	raw := t.text(nameNode)
	if nameNode.Type() == "qualified_identifier" {
		n.owner, n.name = splitQualifiedName(raw, "::")
		n.qualified = true
	} else {
		n.name = strings.TrimSpace(raw)
		n.owner = cppEnclosingClass(n.ts, t.content)
	}
	n.display = n.name + "(" + strings.Join(cppParameterTypes(fd.ChildByFieldName("parameters"), t.content), ", ") + ")"
	n.result = cppResultType(n.ts, t.content)
	n.usr = cppUSR(n.owner, n.name)
	n.signature = signatureOf(n.result, n.owner, "::", n.display)
}

func (cppGrammar) declaredNames(n *sitter.Node, content []byte) []string {
	names := make([]string, 0)
	for _, d := range fieldChildren(n, "declarator") {
		if d.Type() == "init_declarator" {
			d = d.ChildByFieldName("declarator")
		}
		d = unwrapCppDeclarator(d)
		if d != nil && d.Type() == "identifier" {
			names = append(names, d.Content(content))
		}
	}
	return names
}

func cppDescribeCall(t *tree, n *node) {
	fn := n.ts.ChildByFieldName("function")
	if fn == nil {
		return
	}

	switch fn.Type() {
	case "qualified_identifier":
		n.owner, n.name = splitQualifiedName(t.text(fn), "::")
		n.qualified = true
	case "field_expression":
		if field := fn.ChildByFieldName("field"); field != nil {
			n.name = t.text(field)
		}
	case "template_function":
		if name := fn.ChildByFieldName("name"); name != nil {
			n.name = t.text(name)
		}
	default:
		n.name = strings.TrimSpace(t.text(fn))
	}
	if idx := strings.Index(n.name, "<"); idx > 0 {
		n.name = n.name[:idx]
	}

	n.display = n.name
	n.usr = cppUSR(n.owner, n.name)
	n.signature = signatureOf("", n.owner, "::", n.display)
}

func cppUSR(owner, name string) string {
	if owner == "" {
		return "c:@F@" + name
	}
	return "c:@S@" + strings.ReplaceAll(owner, "::", "@S@") + "@F@" + name
}

func cppIsMethod(n *sitter.Node) bool {
	fd := cppFunctionDeclarator(n)
	if fd != nil {
		if name := fd.ChildByFieldName("declarator"); name != nil && name.Type() == "qualified_identifier" {
			return true
		}
	}
	return cppEnclosingClass(n, nil) != ""
}

// cppEnclosingClass returns the name of the class whose body holds n. A nil
// content only reports whether there is one.
func cppEnclosingClass(n *sitter.Node, content []byte) string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "class_specifier", "struct_specifier", "union_specifier":
			name := p.ChildByFieldName("name")
			if name == nil {
				return ""
			}
			if content == nil {
				return "?"
			}
			return name.Content(content)
		case "function_definition", "translation_unit":
			return ""
		}
	}
	return ""
}

func cppFunctionDeclarator(n *sitter.Node) *sitter.Node {
	d := n.ChildByFieldName("declarator")
	for d != nil && d.Type() != "function_declarator" {
		next := d.ChildByFieldName("declarator")
		if next == nil {
			next = firstNamed(d)
		}
		d = next
	}
	return d
}

// unwrapCppDeclarator strips pointer and reference declarators.
func unwrapCppDeclarator(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "pointer_declarator", "reference_declarator", "array_declarator", "parenthesized_declarator":
			next := d.ChildByFieldName("declarator")
			if next == nil {
				next = firstNamed(d)
			}
			d = next
		default:
			return d
		}
	}
	return nil
}

func cppResultType(n *sitter.Node, content []byte) string {
	typ := n.ChildByFieldName("type")
	if typ == nil {
		return ""
	}
	result := cppQualifiers(n, content) + typ.Content(content)
	for d := n.ChildByFieldName("declarator"); d != nil && d.Type() != "function_declarator"; {
		result += cppDeclaratorSuffix(d, content)
		next := d.ChildByFieldName("declarator")
		if next == nil {
			next = firstNamed(d)
		}
		d = next
	}
	return result
}

func cppParameterTypes(params *sitter.Node, content []byte) []string {
	types := make([]string, 0)
	if params == nil {
		return types
	}
	for _, p := range namedChildren(params) {
		switch p.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
			typ := p.ChildByFieldName("type")
			if typ == nil {
				continue
			}
			s := cppQualifiers(p, content) + typ.Content(content)
			for d := p.ChildByFieldName("declarator"); d != nil; {
				suffix := cppDeclaratorSuffix(d, content)
				if suffix == "" {
					break
				}
				s += suffix
				next := d.ChildByFieldName("declarator")
				if next == nil {
					next = firstNamed(d)
				}
				d = next
			}
			types = append(types, s)
		case "variadic_parameter_declaration", "variadic_parameter":
			types = append(types, "...")
		}
	}
	return types
}

func cppQualifiers(n *sitter.Node, content []byte) string {
	var b strings.Builder
	for _, c := range namedChildren(n) {
		if c.Type() == "type_qualifier" {
			b.WriteString(c.Content(content))
			b.WriteString(" ")
		}
	}
	return b.String()
}

func cppDeclaratorSuffix(d *sitter.Node, content []byte) string {
	switch d.Type() {
	case "reference_declarator", "abstract_reference_declarator":
		if strings.HasPrefix(d.Content(content), "&&") {
			return " &&"
		}
		return " &"
	case "pointer_declarator", "abstract_pointer_declarator":
		return " *"
	}
	return ""
}

// fieldChildren returns every child of n stored under field.
func fieldChildren(n *sitter.Node, field string) []*sitter.Node {
	children := make([]*sitter.Node, 0)
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == field {
			children = append(children, n.Child(i))
		}
	}
	return children
}
