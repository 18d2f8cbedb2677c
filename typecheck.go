package glang

// typeScope is one block of the name→type chain used during checking
type typeScope struct {
	parent *typeScope
	vars   map[string]TypeIdentifier
}

func newTypeScope(parent *typeScope) *typeScope {
	return &typeScope{parent: parent, vars: map[string]TypeIdentifier{}}
}

func (s *typeScope) lookup(name string) (TypeIdentifier, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if t, ok := scope.vars[name]; ok {
			return t, true
		}
	}
	return TypeIdentifier{}, false
}

func (s *typeScope) declare(name string, t TypeIdentifier) bool {
	if _, ok := s.vars[name]; ok {
		return false
	}
	s.vars[name] = t
	return true
}

// TypeChecker validates one Program: declarations before uses, call
// arities and signatures, operand compatibility, and condition types.
// As a side effect it records the computed type on every expression,
// which the code generator reads for width coercion and sign
// selection.
type TypeChecker struct {
	program *Program
	root    *typeScope
}

func NewTypeChecker(program *Program) *TypeChecker {
	return &TypeChecker{program: program, root: newTypeScope(nil)}
}

// Check runs the single traversal over the whole unit.  Global names
// land in the root scope first, so a global's size or initialiser may
// reference globals declared after it.
func (tc *TypeChecker) Check() error {
	for _, decl := range tc.program.Declarations {
		if decl.Typ.Base == TypeVoid && decl.Typ.PtrDepth == 0 {
			return tc.errorf(decl, "cannot declare variable `%s` of type void", decl.Name)
		}
		if !tc.root.declare(decl.Name, decl.Typ) {
			return tc.errorf(decl, "redeclaration of `%s`", decl.Name)
		}
	}
	for _, decl := range tc.program.DeclAssigns {
		if decl.Typ.Base == TypeVoid && decl.Typ.PtrDepth == 0 {
			return tc.errorf(decl, "cannot declare variable `%s` of type void", decl.Name)
		}
		if !tc.root.declare(decl.Name, decl.Typ) {
			return tc.errorf(decl, "redeclaration of `%s`", decl.Name)
		}
	}
	for name, typ := range tc.program.ExternTypes {
		tc.root.declare(name, typ)
	}

	for _, decl := range tc.program.Declarations {
		if decl.Size == nil {
			continue
		}
		if _, err := tc.checkExpression(decl.Size, tc.root); err != nil {
			return err
		}
	}
	for _, decl := range tc.program.DeclAssigns {
		valueType, err := tc.checkExpression(decl.Value, tc.root)
		if err != nil {
			return err
		}
		if err := tc.checkInitialiser(decl, decl.Typ, valueType, decl.Value); err != nil {
			return err
		}
	}

	for _, def := range tc.program.Functions {
		if err := tc.checkFunction(def); err != nil {
			return err
		}
	}
	return nil
}

// checkInitialiser applies the assignment rule between a declared
// type and its initialiser.  A string literal initialiser only
// demands a CHAR base: it stands for the address of its interned
// bytes, whatever pointer shape the declaration gives them.
func (tc *TypeChecker) checkInitialiser(at Node, declared, valueType TypeIdentifier, value Expression) error {
	if _, ok := value.(*StringLit); ok {
		if declared.Base == TypeChar {
			return nil
		}
		return tc.errorf(at, "cannot initialise `%s` with a string literal", declared)
	}
	if !declared.compatibleWith(valueType) {
		return tc.errorf(at, "type mismatch: cannot assign `%s` to `%s`", valueType, declared)
	}
	return nil
}

func (tc *TypeChecker) checkFunction(def *FunctionDefinition) error {
	scope := newTypeScope(tc.root)
	for _, param := range def.Params {
		if !scope.declare(param.Name, param.Typ) {
			return tc.errorf(def, "duplicate parameter `%s` in `%s`", param.Name, def.Name)
		}
	}
	return tc.checkStatement(def.Body, scope, def)
}

func (tc *TypeChecker) checkStatement(stmt Statement, scope *typeScope, def *FunctionDefinition) error {
	switch node := stmt.(type) {
	case *Compound:
		child := newTypeScope(scope)
		for _, s := range node.Statements {
			if err := tc.checkStatement(s, child, def); err != nil {
				return err
			}
		}
		return nil

	case *EndCompound:
		return nil

	case *If:
		if err := tc.checkCondition(node.Condition, scope); err != nil {
			return err
		}
		return tc.checkStatement(node.Body, scope, def)

	case *IfElse:
		if err := tc.checkCondition(node.Condition, scope); err != nil {
			return err
		}
		if err := tc.checkStatement(node.IfBody, scope, def); err != nil {
			return err
		}
		return tc.checkStatement(node.ElseBody, scope, def)

	case *While:
		if err := tc.checkCondition(node.Condition, scope); err != nil {
			return err
		}
		return tc.checkStatement(node.Body, scope, def)

	case *Return:
		if node.Value == nil {
			// the implicit bare return is accepted for any
			// return type
			return nil
		}
		if def.ReturnType.Base == TypeVoid && def.ReturnType.PtrDepth == 0 {
			return tc.errorf(node, "returning a value from void function `%s`", def.Name)
		}
		valueType, err := tc.checkExpression(node.Value, scope)
		if err != nil {
			return err
		}
		if !def.ReturnType.compatibleWith(valueType) {
			return tc.errorf(node, "type mismatch: returning `%s` from function of type `%s`", valueType, def.ReturnType)
		}
		return nil

	case *CallStatement:
		_, err := tc.checkCall(node, node.Name, node.Args, scope)
		return err

	case *VarAssignment:
		lhsType, err := tc.checkExpression(node.Lhs, scope)
		if err != nil {
			return err
		}
		rhsType, err := tc.checkExpression(node.Rhs, scope)
		if err != nil {
			return err
		}
		if !lhsType.compatibleWith(rhsType) {
			return tc.errorf(node, "type mismatch: cannot assign `%s` to `%s`", rhsType, lhsType)
		}
		return nil

	case *VarDeclaration:
		if node.Typ.Base == TypeVoid && node.Typ.PtrDepth == 0 {
			return tc.errorf(node, "cannot declare variable `%s` of type void", node.Name)
		}
		if !scope.declare(node.Name, node.Typ) {
			return tc.errorf(node, "redeclaration of `%s`", node.Name)
		}
		return nil

	case *VarDeclAssign:
		valueType, err := tc.checkExpression(node.Value, scope)
		if err != nil {
			return err
		}
		if err := tc.checkInitialiser(node, node.Typ, valueType, node.Value); err != nil {
			return err
		}
		if !scope.declare(node.Name, node.Typ) {
			return tc.errorf(node, "redeclaration of `%s`", node.Name)
		}
		return nil
	}
	return tc.errorf(stmt, "unhandled statement %s", stmt)
}

func (tc *TypeChecker) checkCondition(cond Expression, scope *typeScope) error {
	condType, err := tc.checkExpression(cond, scope)
	if err != nil {
		return err
	}
	if !condType.Equal(typeBool) {
		return tc.errorf(cond, "condition must be of type bool, found `%s`", condType)
	}
	return nil
}

// checkExpression computes and records the type of an expression
func (tc *TypeChecker) checkExpression(expr Expression, scope *typeScope) (TypeIdentifier, error) {
	t, err := tc.typeOf(expr, scope)
	if err != nil {
		return TypeIdentifier{}, err
	}
	expr.setType(t)
	return t, nil
}

func (tc *TypeChecker) typeOf(expr Expression, scope *typeScope) (TypeIdentifier, error) {
	switch node := expr.(type) {
	case *IntLit:
		return typeI64, nil

	case *CharLit:
		return TypeIdentifier{Base: TypeChar}, nil

	case *StringLit:
		// the address of the interned bytes
		return TypeIdentifier{Base: TypeChar, PtrDepth: 1}, nil

	case *IdExpression:
		declared, ok := scope.lookup(node.Name)
		if !ok {
			return TypeIdentifier{}, tc.errorf(node, "undefined identifier `%s`", node.Name)
		}
		depth := declared.PtrDepth
		if node.Index != nil {
			if depth == 0 {
				return TypeIdentifier{}, tc.errorf(node, "cannot index `%s` of non-pointer type `%s`", node.Name, declared)
			}
			indexType, err := tc.checkExpression(node.Index, scope)
			if err != nil {
				return TypeIdentifier{}, err
			}
			if indexType.PtrDepth != 0 || !indexType.Base.IsInteger() {
				return TypeIdentifier{}, tc.errorf(node, "index of `%s` must be an integer, found `%s`", node.Name, indexType)
			}
			depth--
		}
		if node.DerefDepth() > depth {
			return TypeIdentifier{}, tc.errorf(node, "cannot dereference `%s` of type `%s` %d times", node.Name, declared, node.DerefDepth())
		}
		return TypeIdentifier{Base: declared.Base, PtrDepth: depth - node.DerefDepth()}, nil

	case *BinaryExpression:
		leftType, err := tc.checkExpression(node.Left, scope)
		if err != nil {
			return TypeIdentifier{}, err
		}
		rightType, err := tc.checkExpression(node.Right, scope)
		if err != nil {
			return TypeIdentifier{}, err
		}
		if leftType.Base.IsFloat() || rightType.Base.IsFloat() {
			return TypeIdentifier{}, tc.errorf(node, "floating point arithmetic not supported")
		}
		for _, t := range []TypeIdentifier{leftType, rightType} {
			if t.PtrDepth == 0 && !t.Base.IsInteger() {
				return TypeIdentifier{}, tc.errorf(node, "operator `%s` not defined on `%s`", node.Op, t)
			}
		}
		if !leftType.compatibleWith(rightType) {
			return TypeIdentifier{}, tc.errorf(node, "type mismatch: `%s` %s `%s`", leftType, node.Op, rightType)
		}
		if node.Op.IsComparison() {
			return typeBool, nil
		}
		return leftType.promoted(), nil

	case *CallExpression:
		returnType, err := tc.checkCall(node, node.Name, node.Args, scope)
		if err != nil {
			return TypeIdentifier{}, err
		}
		if returnType.Base == TypeVoid && returnType.PtrDepth == 0 {
			return TypeIdentifier{}, tc.errorf(node, "void function `%s` used in expression context", node.Name)
		}
		return returnType, nil
	}
	return TypeIdentifier{}, tc.errorf(expr, "unhandled expression %s", expr)
}

// checkCall validates a call target and its arguments and returns the
// callee's return type
func (tc *TypeChecker) checkCall(at Node, name string, args []Expression, scope *typeScope) (TypeIdentifier, error) {
	if name == "syscall" {
		// the raw syscall escape hatch has no fixed signature:
		// every argument is checked but not matched
		for _, arg := range args {
			if _, err := tc.checkExpression(arg, scope); err != nil {
				return TypeIdentifier{}, err
			}
		}
		return typeI64, nil
	}

	signature, ok := tc.signatureOf(name)
	if !ok {
		return TypeIdentifier{}, tc.errorf(at, "call to undefined function `%s`", name)
	}
	if len(args) != len(signature.Params) {
		return TypeIdentifier{}, tc.errorf(at, "arity mismatch: `%s` takes %d arguments, found %d", name, len(signature.Params), len(args))
	}
	for i, arg := range args {
		argType, err := tc.checkExpression(arg, scope)
		if err != nil {
			return TypeIdentifier{}, err
		}
		if !signature.Params[i].compatibleWith(argType) {
			return TypeIdentifier{}, tc.errorf(at, "type mismatch: argument %d of `%s` is `%s`, found `%s`", i+1, name, signature.Params[i], argType)
		}
	}
	return signature.ReturnType, nil
}

func (tc *TypeChecker) signatureOf(name string) (Signature, bool) {
	if def, ok := tc.program.Function(name); ok {
		return SignatureOf(def), true
	}
	if sig, ok := tc.program.ExternFuncs[name]; ok {
		return sig, true
	}
	return Signature{}, false
}

func (tc *TypeChecker) errorf(at Node, format string, args ...any) error {
	return newTypeErrorf(at.Path(), at.Location(), format, args...)
}
