package glang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, source string) *Program {
	t.Helper()
	program, err := tryParseSource(source)
	require.NoError(t, err)
	return program
}

func tryParseSource(source string) (*Program, error) {
	loader := NewInMemoryImportLoader()
	loader.Add("test.glang", []byte(source))
	resolver := NewImportResolver(loader)
	resolver.SetCoreEnabled(false)
	return resolver.Resolve("test.glang")
}

func bodyOf(t *testing.T, program *Program, name string) []Statement {
	t.Helper()
	def, ok := program.Function(name)
	require.True(t, ok, "function %s not found", name)
	return def.Body.Statements
}

func TestParseFunctionDefinition(t *testing.T) {
	program := parseSource(t, `
fn add(a: i64, b: i64) -> i64 {
	return a + b;
}`)

	require.Len(t, program.Functions, 1)
	def := program.Functions[0]
	assert.Equal(t, "add", def.Name)
	assert.Equal(t, typeI64, def.ReturnType)

	require.Len(t, def.Params, 2)
	assert.Equal(t, Parameter{Name: "a", Typ: typeI64, Index: 0}, def.Params[0])
	assert.Equal(t, Parameter{Name: "b", Typ: typeI64, Index: 1}, def.Params[1])
}

func TestParsePointerTypes(t *testing.T) {
	program := parseSource(t, `
fn main(argc: i64, argv: char**) -> i64 {
	return argc;
}`)

	def := program.Functions[0]
	assert.Equal(t, NewTypeIdentifier(TypeChar, 2), def.Params[1].Typ)
}

func TestParseImplicitReturn(t *testing.T) {
	program := parseSource(t, `
fn noop() -> void {
	let x: i64;
}`)

	statements := bodyOf(t, program, "noop")
	require.Len(t, statements, 3)
	assert.IsType(t, &VarDeclaration{}, statements[0])

	ret, ok := statements[1].(*Return)
	require.True(t, ok, "expected the implicit return")
	assert.Nil(t, ret.Value)

	// the sentinel stays last
	assert.IsType(t, &EndCompound{}, statements[2])
}

func TestParseExplicitReturnNotDuplicated(t *testing.T) {
	program := parseSource(t, `
fn one() -> i64 {
	return 1;
}`)

	statements := bodyOf(t, program, "one")
	require.Len(t, statements, 2)
	assert.IsType(t, &Return{}, statements[0])
	assert.IsType(t, &EndCompound{}, statements[1])
}

func TestParsePrecedence(t *testing.T) {
	t.Run("Multiplicative Binds Tighter Than Additive", func(t *testing.T) {
		program := parseSource(t, "fn f() -> i64 { return 1 + 2 * 3; }")
		ret := bodyOf(t, program, "f")[0].(*Return)

		plus, ok := ret.Value.(*BinaryExpression)
		require.True(t, ok)
		assert.Equal(t, OpPlus, plus.Op)
		assert.IsType(t, &IntLit{}, plus.Left)

		mul, ok := plus.Right.(*BinaryExpression)
		require.True(t, ok)
		assert.Equal(t, OpMul, mul.Op)
	})

	t.Run("Left Associativity", func(t *testing.T) {
		program := parseSource(t, "fn f() -> i64 { return 10 - 2 - 3; }")
		ret := bodyOf(t, program, "f")[0].(*Return)

		outer, ok := ret.Value.(*BinaryExpression)
		require.True(t, ok)
		assert.Equal(t, OpMinus, outer.Op)

		inner, ok := outer.Left.(*BinaryExpression)
		require.True(t, ok)
		assert.Equal(t, OpMinus, inner.Op)
		assert.Equal(t, int64(3), outer.Right.(*IntLit).Value)
	})

	t.Run("Relational Binds Tighter Than Bitwise", func(t *testing.T) {
		program := parseSource(t, "fn f() -> i64 { return 1 & 2 == 2; }")
		ret := bodyOf(t, program, "f")[0].(*Return)

		and, ok := ret.Value.(*BinaryExpression)
		require.True(t, ok)
		assert.Equal(t, OpBitAnd, and.Op)

		eq, ok := and.Right.(*BinaryExpression)
		require.True(t, ok)
		assert.Equal(t, OpEquals, eq.Op)
	})

	t.Run("Parentheses Override", func(t *testing.T) {
		program := parseSource(t, "fn f() -> i64 { return (1 + 2) * 3; }")
		ret := bodyOf(t, program, "f")[0].(*Return)

		mul, ok := ret.Value.(*BinaryExpression)
		require.True(t, ok)
		assert.Equal(t, OpMul, mul.Op)

		plus, ok := mul.Left.(*BinaryExpression)
		require.True(t, ok)
		assert.Equal(t, OpPlus, plus.Op)
	})

	t.Run("Negative Literal", func(t *testing.T) {
		program := parseSource(t, "fn f() -> i64 { return -7; }")
		ret := bodyOf(t, program, "f")[0].(*Return)
		assert.Equal(t, int64(-7), ret.Value.(*IntLit).Value)
	})
}

func TestParseDerefDepth(t *testing.T) {
	t.Run("On Identifier", func(t *testing.T) {
		program := parseSource(t, "fn f(p: i64**) -> i64 { return **p; }")
		ret := bodyOf(t, program, "f")[0].(*Return)

		id, ok := ret.Value.(*IdExpression)
		require.True(t, ok)
		assert.Equal(t, 2, id.DerefDepth())
	})

	t.Run("On Parenthesised Expression", func(t *testing.T) {
		program := parseSource(t, "fn f(p: i64*) -> i64 { return *(p + 8); }")
		ret := bodyOf(t, program, "f")[0].(*Return)

		sum, ok := ret.Value.(*BinaryExpression)
		require.True(t, ok)
		assert.Equal(t, OpPlus, sum.Op)
		assert.Equal(t, 1, sum.DerefDepth())
	})

	t.Run("Deref Versus Multiplication", func(t *testing.T) {
		program := parseSource(t, "fn f(p: i64*) -> i64 { return 2 * *p; }")
		ret := bodyOf(t, program, "f")[0].(*Return)

		mul, ok := ret.Value.(*BinaryExpression)
		require.True(t, ok)
		assert.Equal(t, OpMul, mul.Op)
		assert.Equal(t, 1, mul.Right.(*IdExpression).DerefDepth())
	})
}

func TestParseIndexing(t *testing.T) {
	program := parseSource(t, "fn f(s: char*) -> char { return s[1 + 2]; }")
	ret := bodyOf(t, program, "f")[0].(*Return)

	id, ok := ret.Value.(*IdExpression)
	require.True(t, ok)
	require.NotNil(t, id.Index)
	assert.IsType(t, &BinaryExpression{}, id.Index)
}

func TestParseStatements(t *testing.T) {
	program := parseSource(t, `
fn f() -> i64 {
	let i: i64 = 0;
	let s: i64 = 0;
	while (i < 10) {
		s = s + i;
		i = i + 1;
	}
	if (s == 45) {
		return 1;
	} else {
		return 0;
	}
}`)

	statements := bodyOf(t, program, "f")
	assert.IsType(t, &VarDeclAssign{}, statements[0])
	assert.IsType(t, &VarDeclAssign{}, statements[1])

	loop, ok := statements[2].(*While)
	require.True(t, ok)
	body, ok := loop.Body.(*Compound)
	require.True(t, ok)
	assert.IsType(t, &VarAssignment{}, body.Statements[0])

	cond, ok := statements[3].(*IfElse)
	require.True(t, ok)
	assert.IsType(t, &Compound{}, cond.IfBody)
	assert.IsType(t, &Compound{}, cond.ElseBody)
}

func TestParseCallForms(t *testing.T) {
	program := parseSource(t, `
fn f() -> i64 {
	g(1, 2, 3);
	return g(4, 5, 6);
}
fn g(a: i64, b: i64, c: i64) -> i64 {
	return a + b + c;
}`)

	statements := bodyOf(t, program, "f")
	call, ok := statements[0].(*CallStatement)
	require.True(t, ok)
	assert.Equal(t, "g", call.Name)
	assert.Len(t, call.Args, 3)

	ret := statements[1].(*Return)
	expr, ok := ret.Value.(*CallExpression)
	require.True(t, ok)
	assert.Len(t, expr.Args, 3)
}

func TestParseGlobals(t *testing.T) {
	program := parseSource(t, `
let counter: i64;
let buffer: char*[256];
let initial: i64 = 42;
const msg: char = "hi";
fn main() -> i64 { return 0; }`)

	require.Len(t, program.Declarations, 2)
	assert.Nil(t, program.Declarations[0].Size)
	require.NotNil(t, program.Declarations[1].Size)
	assert.Equal(t, int64(256), program.Declarations[1].Size.(*IntLit).Value)

	require.Len(t, program.DeclAssigns, 2)
	assert.False(t, program.DeclAssigns[0].Constant)
	assert.True(t, program.DeclAssigns[1].Constant)
}

func TestParseAssignmentThroughPointer(t *testing.T) {
	program := parseSource(t, "fn f(p: i64*) -> void { *p = 5; }")
	statements := bodyOf(t, program, "f")

	assign, ok := statements[0].(*VarAssignment)
	require.True(t, ok)
	assert.Equal(t, 1, assign.Lhs.DerefDepth())
}

// every node carries its source path and a 1-based line
func TestParseLocationsStamped(t *testing.T) {
	program := parseSource(t, `
fn f(x: i64) -> i64 {
	let y: i64 = x + 1;
	return y;
}`)

	def := program.Functions[0]
	assert.Equal(t, "test.glang", def.Path())
	assert.GreaterOrEqual(t, def.Location().Line, 1)

	decl := def.Body.Statements[0].(*VarDeclAssign)
	assert.Equal(t, "test.glang", decl.Path())
	assert.Equal(t, 3, decl.Location().Line)

	sum := decl.Value.(*BinaryExpression)
	assert.Equal(t, "test.glang", sum.Path())
	assert.Equal(t, 3, sum.Location().Line)
}

func TestParseErrors(t *testing.T) {
	for _, test := range []struct {
		Name   string
		Source string
	}{
		{Name: "Missing Semi", Source: "fn f() -> i64 { return 1 }"},
		{Name: "Missing Arrow", Source: "fn f() i64 { return 1; }"},
		{Name: "Unknown Type", Source: "fn f() -> banana { return 1; }"},
		{Name: "Unclosed Block", Source: "fn f() -> i64 { return 1;"},
		{Name: "Stray Token", Source: "42"},
		{Name: "Const Without Initialiser", Source: "const x: i64;"},
		{Name: "Assignment To Literal", Source: "fn f() -> void { 1 = 2; }"},
	} {
		t.Run(test.Name, func(t *testing.T) {
			_, err := tryParseSource(test.Source)
			require.Error(t, err)
			var parseErr *ParseError
			assert.ErrorAs(t, err, &parseErr)
			assert.Contains(t, err.Error(), "test.glang:")
		})
	}
}
