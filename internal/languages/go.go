package languages

import (
	"context"
	"strings"

	"github.com/morozRed/flowdoc/internal/syntax"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoProvider implements parsing for Go source files
type GoProvider struct {
	parser *sitter.Parser
}

// NewGoProvider creates a new Go provider
func NewGoProvider() *GoProvider {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &GoProvider{parser: p}
}

func (g *GoProvider) Language() string {
	return "go"
}

func (g *GoProvider) Extensions() []string {
	return []string{".go"}
}

func (g *GoProvider) Parse(filename string, content []byte) (syntax.Tree, error) {
	ts, err := g.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	return newTree(filename, content, ts, goGrammar{}, readGoHeader), nil
}

// goBuiltins are predeclared identifiers whose call syntax is not a call.
var goBuiltins = map[string]bool{
	"append": true, "cap": true, "clear": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true, "make": true,
	"max": true, "min": true, "new": true, "panic": true, "print": true,
	"println": true, "real": true, "recover": true,
	"bool": true, "byte": true, "rune": true, "string": true, "error": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uintptr": true, "float32": true, "float64": true, "any": true,
}

type goGrammar struct{}

func (goGrammar) kindOf(n *sitter.Node, content []byte) syntax.Kind {
	switch n.Type() {
	case "function_declaration":
		return syntax.Function
	case "method_declaration":
		return syntax.Method
	case "if_statement":
		return syntax.If
	case "block":
		return syntax.CompoundBlock
	case "for_statement":
		for _, c := range namedChildren(n) {
			if c.Type() == "for_clause" || c.Type() == "range_clause" {
				return syntax.ForLoop
			}
		}
		return syntax.WhileLoop
	case "call_expression":
		if fn := n.ChildByFieldName("function"); fn != nil && fn.Type() == "identifier" && goBuiltins[fn.Content(content)] {
			return syntax.Other
		}
		return syntax.Call
	case "identifier":
		return syntax.Reference
	case "return_statement":
		return syntax.Return
	case "short_var_declaration", "var_spec":
		return syntax.VariableDecl
	}
	return syntax.Other
}

func (goGrammar) parts(n *sitter.Node, kind syntax.Kind) []*sitter.Node {
	switch kind {
	case syntax.If:
		parts := []*sitter.Node{
			unwrapParens(n.ChildByFieldName("condition")),
			n.ChildByFieldName("consequence"),
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			parts = append(parts, alt)
		}
		return parts
	case syntax.WhileLoop:
		body := n.ChildByFieldName("body")
		for _, c := range namedChildren(n) {
			if c.Type() != "block" {
				return []*sitter.Node{unwrapParens(c), body}
			}
		}
		return []*sitter.Node{nil, body}
	case syntax.ForLoop:
		body := n.ChildByFieldName("body")
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "for_clause":
				return []*sitter.Node{
					c.ChildByFieldName("initializer"),
					c.ChildByFieldName("condition"),
					c.ChildByFieldName("update"),
					body,
				}
			case "range_clause":
				return []*sitter.Node{c.ChildByFieldName("left"), c.ChildByFieldName("right"), nil, body}
			}
		}
		return []*sitter.Node{nil, nil, nil, body}
	case syntax.Call:
		return []*sitter.Node{n.ChildByFieldName("function"), n.ChildByFieldName("arguments")}
	case syntax.VariableDecl:
		field := "right"
		if n.Type() == "var_spec" {
			field = "value"
		}
		values := n.ChildByFieldName(field)
		if values == nil {
			return nil
		}
		if values.Type() == "expression_list" {
			return namedChildren(values)
		}
		return []*sitter.Node{values}
	}
	return namedChildren(n)
}

func (goGrammar) detached(n *sitter.Node, kind syntax.Kind) []*sitter.Node {
	if kind == syntax.If {
		if initializer := n.ChildByFieldName("initializer"); initializer != nil {
			return []*sitter.Node{initializer}
		}
	}
	return nil
}

func (goGrammar) describe(t *tree, n *node) {
	if n.kind == syntax.Call {
		goDescribeCall(t, n)
		return
	}

	nameNode := n.ts.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	n.name = t.text(nameNode)
	if n.kind == syntax.Method {
		n.owner = goReceiverType(n.ts.ChildByFieldName("receiver"), t.content)
	}
	n.display = n.name + "(" + strings.Join(goParameterTypes(n.ts.ChildByFieldName("parameters"), t.content), ", ") + ")"
	if result := n.ts.ChildByFieldName("result"); result != nil {
		n.result = t.text(result)
	}
	n.usr = goUSR(t.pkg, n.owner, n.name)
	n.signature = signatureOf(n.result, n.owner, ".", n.display)
}

func (goGrammar) declaredNames(n *sitter.Node, content []byte) []string {
	names := make([]string, 0)
	if n.Type() == "var_spec" {
		for _, name := range fieldChildren(n, "name") {
			names = append(names, name.Content(content))
		}
		return names
	}
	if left := n.ChildByFieldName("left"); left != nil {
		for _, id := range namedChildren(left) {
			if id.Type() == "identifier" {
				names = append(names, id.Content(content))
			}
		}
	}
	return names
}

func goDescribeCall(t *tree, n *node) {
	name, qualifier := goCallName(n.ts.ChildByFieldName("function"), t.content)
	n.name = name
	if path, ok := t.imports[qualifier]; ok {
		n.owner = defaultImportAlias(path)
		n.qualified = true
		n.usr = goUSR(n.owner, "", name)
	} else {
		n.usr = goUSR(t.pkg, "", name)
	}
	n.display = name
	n.signature = signatureOf("", n.owner, ".", n.display)
}

func goUSR(pkg, owner, name string) string {
	if owner == "" {
		return "go:" + pkg + "." + name
	}
	return "go:" + pkg + "." + owner + "." + name
}

func goCallName(node *sitter.Node, content []byte) (name, qualifier string) {
	if node == nil {
		return "", ""
	}

	switch node.Type() {
	case "identifier":
		return node.Content(content), ""
	case "selector_expression":
		operandNode := node.ChildByFieldName("operand")
		fieldNode := node.ChildByFieldName("field")
		if fieldNode != nil {
			qualifierValue := ""
			if operandNode != nil {
				qualifierValue = strings.TrimSpace(operandNode.Content(content))
			}
			return fieldNode.Content(content), qualifierValue
		}
	case "parenthesized_expression":
		return goCallName(firstNamed(node), content)
	case "index_expression", "generic_type", "type_instantiation_expression":
		if operand := node.ChildByFieldName("operand"); operand != nil {
			return goCallName(operand, content)
		}
		return goCallName(firstNamed(node), content)
	}

	qualifierValue, nameValue := splitQualifiedName(node.Content(content), ".")
	return nameValue, qualifierValue
}

func goReceiverType(receiver *sitter.Node, content []byte) string {
	if receiver == nil {
		return ""
	}
	for _, param := range namedChildren(receiver) {
		typ := param.ChildByFieldName("type")
		if typ == nil {
			continue
		}
		s := strings.TrimPrefix(strings.TrimSpace(typ.Content(content)), "*")
		if idx := strings.Index(s, "["); idx > 0 {
			s = s[:idx]
		}
		return s
	}
	return ""
}

func goParameterTypes(params *sitter.Node, content []byte) []string {
	types := make([]string, 0)
	if params == nil {
		return types
	}
	for _, p := range namedChildren(params) {
		typ := p.ChildByFieldName("type")
		if typ == nil {
			continue
		}
		s := typ.Content(content)
		if p.Type() == "variadic_parameter_declaration" {
			s = "..." + s
		}
		count := len(fieldChildren(p, "name"))
		if count == 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			types = append(types, s)
		}
	}
	return types
}

// readGoHeader records the package name and import aliases before the tree
// is normalized.
func readGoHeader(t *tree) {
	for _, c := range namedChildren(t.ts.RootNode()) {
		switch c.Type() {
		case "package_clause":
			if id := firstNamed(c); id != nil {
				t.pkg = t.text(id)
			}
		case "import_declaration":
			for _, spec := range goImportSpecs(c) {
				importPath, alias := readImportSpec(spec, t.content)
				if importPath != "" && alias != "" {
					t.imports[alias] = importPath
				}
			}
		}
	}
}

func goImportSpecs(decl *sitter.Node) []*sitter.Node {
	specs := make([]*sitter.Node, 0)
	for _, child := range namedChildren(decl) {
		switch child.Type() {
		case "import_spec":
			specs = append(specs, child)
		case "import_spec_list":
			for _, spec := range namedChildren(child) {
				if spec.Type() == "import_spec" {
					specs = append(specs, spec)
				}
			}
		}
	}
	return specs
}

func readImportSpec(spec *sitter.Node, content []byte) (importPath, alias string) {
	pathNode := spec.ChildByFieldName("path")
	if pathNode == nil {
		return "", ""
	}

	importPath = strings.Trim(strings.TrimSpace(pathNode.Content(content)), "\"`")

	aliasNode := spec.ChildByFieldName("name")
	if aliasNode != nil {
		alias = strings.TrimSpace(aliasNode.Content(content))
	}
	if alias == "_" || alias == "." {
		return importPath, ""
	}
	if alias == "" {
		alias = defaultImportAlias(importPath)
	}
	return importPath, alias
}
