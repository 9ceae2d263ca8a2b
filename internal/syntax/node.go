// Package syntax defines the syntax-tree contract the diagram engine consumes.
// Concrete providers live in internal/languages.
package syntax

// Kind is the closed set of node kinds the engine reacts to. Everything else
// is Other.
type Kind int

const (
	Other Kind = iota
	Function
	Method
	If
	CompoundBlock
	WhileLoop
	DoLoop
	ForLoop
	Call
	Reference
	Return
	VariableDecl
)

func (k Kind) String() string {
	switch k {
	case Function:
		return "function"
	case Method:
		return "method"
	case If:
		return "if"
	case CompoundBlock:
		return "block"
	case WhileLoop:
		return "while"
	case DoLoop:
		return "do"
	case ForLoop:
		return "for"
	case Call:
		return "call"
	case Reference:
		return "reference"
	case Return:
		return "return"
	case VariableDecl:
		return "var"
	default:
		return "other"
	}
}

// IsCallable reports whether k is a function or method declaration.
func (k Kind) IsCallable() bool {
	return k == Function || k == Method
}

// IsLoop reports whether k is one of the loop kinds.
func (k Kind) IsLoop() bool {
	return k == WhileLoop || k == DoLoop || k == ForLoop
}

// Extent is a node's source span. Lines are 1-based, columns are 0-based byte
// offsets within the line.
type Extent struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// Node is one syntax-tree node.
//
// Children follow a normalized shape per kind:
//
//	If           [condition, then, else?]  else is an If (else-if) or a block
//	WhileLoop    [condition, body]
//	DoLoop       [body, condition]
//	ForLoop      [init, condition, update, body]  absent parts are empty nodes
//	VariableDecl [initializer...]
//
// Conditions are bare expressions without surrounding parentheses.
type Node interface {
	Kind() Kind
	Extent() Extent
	Children() []Node
	// Tokens returns the node's source tokens in order, comments excluded.
	Tokens() []string
	// Definition links a reference to the declaration it names, or nil.
	Definition() Node
	// Referenced links a call to the callable it invokes, or nil.
	Referenced() Node
	// USR is a globally unique symbol id. Empty for nodes that declare nothing.
	USR() string
}

// Declared is implemented by nodes that name a callable: declarations and
// call expressions.
type Declared interface {
	Node
	Name() string
	// DisplayName is the name followed by the parameter types, e.g. "run(int, bool)".
	DisplayName() string
	ResultType() string
	// OwnerType is the enclosing class or receiver type, empty for free functions.
	OwnerType() string
	// Signature is the label used in the symbol database and in call lists,
	// e.g. "double Shower::pTnext(Event &, double)".
	Signature() string
}

// Tree is a parsed source file.
type Tree interface {
	Path() string
	// Lines returns the file content split into lines; line n is Lines()[n-1].
	Lines() []string
	Root() Node
	// NodeAt returns the most specific node at a 1-based line and 0-based column.
	NodeAt(line, column int) Node
	Close()
}

// Walk calls fn for n and its descendants in depth-first order. Returning
// false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
