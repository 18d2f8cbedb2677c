package glang

import (
	"strings"

	"github.com/fatih/color"
)

// FormatFunc decorates the head line of a node before it is written
// into the tree rendering
type FormatFunc func(input string, node Node) string

func formatNodePlain(input string, _ Node) string { return input }

var (
	themeLiteral   = color.New(color.FgGreen)
	themeReference = color.New(color.FgCyan)
	themeStatement = color.New(color.FgYellow)
	themeFunction  = color.New(color.FgMagenta, color.Bold)
)

func formatNodeThemed(input string, node Node) string {
	switch node.(type) {
	case *IntLit, *CharLit, *StringLit:
		return themeLiteral.Sprint(input)
	case *IdExpression, *CallExpression:
		return themeReference.Sprint(input)
	case *FunctionDefinition, *Program:
		return themeFunction.Sprint(input)
	default:
		return themeStatement.Sprint(input)
	}
}

// PrettyString returns the hierarchical structure of the node,
// rendered with box-drawing connectors.  The output is a debugging
// aid; it is not meant to round-trip through the parser.
func PrettyString(n Node) string {
	return ppNode(n, formatNodePlain)
}

// HighlightPrettyString is PrettyString with the node heads
// highlighted by kind
func HighlightPrettyString(n Node) string {
	return ppNode(n, formatNodeThemed)
}

type treePrinter struct {
	padStr []string
	output strings.Builder
	format FormatFunc
}

func ppNode(n Node, format FormatFunc) string {
	tp := &treePrinter{format: format}
	tp.visit(n, "", "")
	return strings.TrimRight(tp.output.String(), "\n")
}

func (tp *treePrinter) indent(s string) {
	tp.padStr = append(tp.padStr, s)
}

func (tp *treePrinter) unindent() {
	tp.padStr = tp.padStr[:len(tp.padStr)-1]
}

func (tp *treePrinter) writeHead(n Node, connector string) {
	for _, item := range tp.padStr {
		tp.output.WriteString(item)
	}
	tp.output.WriteString(connector)
	tp.output.WriteString(tp.format(n.String(), n))
	tp.output.WriteRune('\n')
}

// visit writes the head line of `n` and recurses into its children.
// `connector` and `childPad` are the box-drawing fragments chosen by
// the parent based on whether `n` was its last child.
func (tp *treePrinter) visit(n Node, connector, childPad string) {
	tp.writeHead(n, connector)
	if childPad != "" || connector != "" {
		tp.indent(childPad)
		defer tp.unindent()
	}

	children := nodeChildren(n)
	for i, child := range children {
		if i == len(children)-1 {
			tp.visit(child, "└── ", "    ")
		} else {
			tp.visit(child, "├── ", "│   ")
		}
	}
}

// nodeChildren lists the sub-nodes rendered below each node head.
// EndCompound sentinels are skipped: they carry no information a
// human reader wants in a tree dump.
func nodeChildren(n Node) []Node {
	var out []Node
	push := func(ns ...Node) {
		for _, c := range ns {
			if c == nil {
				continue
			}
			if _, ok := c.(*EndCompound); ok {
				continue
			}
			out = append(out, c)
		}
	}

	switch node := n.(type) {
	case *Program:
		for _, d := range node.Declarations {
			push(d)
		}
		for _, d := range node.DeclAssigns {
			push(d)
		}
		for _, f := range node.Functions {
			push(f)
		}
	case *FunctionDefinition:
		push(node.Body)
	case *Compound:
		for _, s := range node.Statements {
			push(s)
		}
	case *If:
		push(node.Condition, node.Body)
	case *IfElse:
		push(node.Condition, node.IfBody, node.ElseBody)
	case *While:
		push(node.Condition, node.Body)
	case *Return:
		push(node.Value)
	case *CallStatement:
		for _, a := range node.Args {
			push(a)
		}
	case *VarAssignment:
		push(node.Lhs, node.Rhs)
	case *VarDeclaration:
		push(node.Size)
	case *VarDeclAssign:
		push(node.Value)
	case *BinaryExpression:
		push(node.Left, node.Right)
	case *CallExpression:
		for _, a := range node.Args {
			push(a)
		}
	case *IdExpression:
		push(node.Index)
	}
	return out
}
