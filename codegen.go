package glang

import "fmt"

// genVar is one stack slot or symbol binding visible to the generator
type genVar struct {
	offset int
	typ    TypeIdentifier
}

// genScope is one block of the code generator's scope chain.  count
// tracks how many slots the block pushed, so scope exit knows how
// much stack to release.
type genScope struct {
	parent *genScope
	vars   map[string]genVar
	count  int
}

func newGenScope(parent *genScope) *genScope {
	return &genScope{parent: parent, vars: map[string]genVar{}}
}

func (s *genScope) addVar(name string, v genVar) {
	s.vars[name] = v
	s.count++
}

func (s *genScope) getVar(name string) (genVar, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if v, ok := scope.vars[name]; ok {
			return v, true
		}
	}
	return genVar{}, false
}

// emitterState is the generator state shared between the top-level
// driver and the per-function generators: interned strings get
// program-unique labels, and global symbols are visible everywhere.
type emitterState struct {
	stringIndex int
	strings     map[string]string
	globals     map[string]TypeIdentifier
}

// internString returns the data label for a string literal, creating
// it at most once per distinct byte sequence
func (st *emitterState) internString(value string) (string, bool) {
	if id, ok := st.strings[value]; ok {
		return id, false
	}
	id := fmt.Sprintf("string_%d", st.stringIndex)
	st.stringIndex++
	st.strings[value] = id
	return id, true
}

// Assembly is the code generator's product: the four section opcode
// lists plus the symbol lists the emitter turns into directives
type Assembly struct {
	Text   []Opcode
	Data   []Opcode
	Bss    []Opcode
	Rodata []Opcode

	Globals []string
	Externs []string
}

// CodeGenerator walks a type-checked Program and emits opcodes.  A
// fresh generator is created for every function body, so scratch
// usage tracking never leaks across functions; the top-level instance
// composes the per-function outputs.
type CodeGenerator struct {
	program *Program
	state   *emitterState

	fn        *FunctionDefinition
	allocator *ScratchAllocator
	current   *genScope
	offset    int

	ifIndex    int
	whileIndex int

	argsInUse [7]bool // rax, rdi, rsi, rdx, rcx, r8, r9

	text []Opcode
	data []Opcode
}

func NewCodeGenerator(program *Program) *CodeGenerator {
	return &CodeGenerator{
		program: program,
		state: &emitterState{
			strings: map[string]string{},
			globals: map[string]TypeIdentifier{},
		},
		allocator: NewScratchAllocator(),
		current:   newGenScope(nil),
	}
}

// newFunctionGenerator derives the per-function generator
func (g *CodeGenerator) newFunctionGenerator(fn *FunctionDefinition) *CodeGenerator {
	return &CodeGenerator{
		program:   g.program,
		state:     g.state,
		fn:        fn,
		allocator: NewScratchAllocator(),
		current:   newGenScope(nil),
	}
}

// Generate emits the whole translation unit
func (g *CodeGenerator) Generate() (*Assembly, error) {
	asm := &Assembly{Externs: g.program.Externs}

	// imports contribute their globals to the symbol table
	for name, typ := range g.program.ExternTypes {
		g.state.globals[name] = typ
	}

	for _, decl := range g.program.Declarations {
		if err := g.emitGlobalDeclaration(asm, decl); err != nil {
			return nil, err
		}
	}
	for _, decl := range g.program.DeclAssigns {
		if err := g.emitGlobalDeclAssign(asm, decl); err != nil {
			return nil, err
		}
	}
	for _, def := range g.program.Functions {
		if err := g.emitFunction(def); err != nil {
			return nil, err
		}
		asm.Globals = append(asm.Globals, def.Name)
	}

	asm.Text = append(asm.Text, g.text...)
	asm.Data = append(asm.Data, g.data...)
	return asm, nil
}

// emitGlobalDeclaration places an uninitialised global: a zeroed
// quad in .data, or a reservation in .bss when a size is present
func (g *CodeGenerator) emitGlobalDeclaration(asm *Assembly, decl *VarDeclaration) error {
	if decl.Size != nil {
		size, ok := decl.Size.(*IntLit)
		if !ok {
			return newCodegenErrorf(decl.Path(), decl.Location(), "size of global `%s` must be a constant integer", decl.Name)
		}
		asm.Bss = append(asm.Bss, OpReserveBytes{Name: decl.Name, Size: size.Value})
	} else {
		asm.Data = append(asm.Data, OpDefineQuad{Name: decl.Name, Value: 0})
	}
	asm.Globals = append(asm.Globals, decl.Name)
	g.state.globals[decl.Name] = decl.Typ
	return nil
}

// emitGlobalDeclAssign places an initialised global.  Only literal
// initialisers have a data-directive shape; `const` lands in .rodata.
func (g *CodeGenerator) emitGlobalDeclAssign(asm *Assembly, decl *VarDeclAssign) error {
	var op Opcode
	switch value := decl.Value.(type) {
	case *IntLit:
		op = OpDefineQuad{Name: decl.Name, Value: value.Value}
	case *StringLit:
		op = OpDefineString{ID: decl.Name, Value: value.Value}
	default:
		return newCodegenErrorf(decl.Path(), decl.Location(), "initialiser of global `%s` must be an integer or string literal", decl.Name)
	}

	if decl.Constant {
		asm.Rodata = append(asm.Rodata, op)
	} else {
		asm.Data = append(asm.Data, op)
	}
	asm.Globals = append(asm.Globals, decl.Name)
	g.state.globals[decl.Name] = decl.Typ
	return nil
}

// emitFunction writes the label and frame prologue, runs a nested
// generator over the body, then splices callee-save pushes and the
// nested output in
func (g *CodeGenerator) emitFunction(def *FunctionDefinition) error {
	g.text = append(g.text, OpLabel{Name: def.Name})
	g.text = append(g.text, OpPush{Operand: "rbp"})
	g.text = append(g.text, OpMove{Dst: "rbp", Src: "rsp"})

	nested := g.newFunctionGenerator(def)
	nested.bindParameters(def.Params)
	if err := nested.emitStatement(def.Body); err != nil {
		return err
	}

	for i := 0; i < scratchCount; i++ {
		if nested.allocator.WasUsed(i) {
			g.text = append(g.text, OpPush{Operand: Reg(i)})
		}
	}

	g.text = append(g.text, nested.text...)
	g.data = append(g.data, nested.data...)
	return nil
}

// bindParameters pushes the incoming argument registers so parameters
// become ordinary pre-pushed locals
func (g *CodeGenerator) bindParameters(params []Parameter) {
	for _, param := range params {
		g.push(Reg(regFirstArg + param.Index))
		g.current.addVar(param.Name, genVar{offset: g.offset, typ: param.Typ})
	}
}

func (g *CodeGenerator) push(operand string) {
	g.text = append(g.text, OpPush{Operand: operand})
	g.offset += 8
}

func (g *CodeGenerator) pop(operand string) {
	g.text = append(g.text, OpPop{Operand: operand})
	g.offset -= 8
}

//  ---- Statements ----

func (g *CodeGenerator) emitStatement(stmt Statement) error {
	switch node := stmt.(type) {
	case *Compound:
		g.current = newGenScope(g.current)
		for _, s := range node.Statements {
			if err := g.emitStatement(s); err != nil {
				return err
			}
		}
		return nil

	case *EndCompound:
		// release the exiting scope's slots
		r := g.allocator.Allocate()
		if r < 0 {
			return g.errorf(node, "scratch registers exhausted")
		}
		for i := 0; i < g.current.count; i++ {
			g.pop(Reg(r))
		}
		g.allocator.Free(r)
		g.current = g.current.parent
		return nil

	case *If:
		return g.emitIf(node)

	case *IfElse:
		return g.emitIfElse(node)

	case *While:
		return g.emitWhile(node)

	case *Return:
		return g.emitReturn(node)

	case *CallStatement:
		return g.emitCall(node, node.Name, node.Args, -1)

	case *VarAssignment:
		return g.emitAssignment(node)

	case *VarDeclaration:
		if node.Size != nil {
			return g.errorf(node, "sized declarations are only allowed at the top level")
		}
		g.push("qword 0")
		g.current.addVar(node.Name, genVar{offset: g.offset, typ: node.Typ})
		return nil

	case *VarDeclAssign:
		r := g.allocator.Allocate()
		if r < 0 {
			return g.errorf(node, "scratch registers exhausted")
		}
		if err := g.emitExpression(node.Value, r); err != nil {
			return err
		}
		if node.Typ.PtrDepth == 0 {
			if err := g.coerceWidth(node, node.Typ.Base, r); err != nil {
				return err
			}
		}
		g.push(Reg(r))
		g.current.addVar(node.Name, genVar{offset: g.offset, typ: node.Typ})
		g.allocator.Free(r)
		return nil
	}
	return g.errorf(stmt, "unhandled statement %s", stmt)
}

func (g *CodeGenerator) emitIf(stmt *If) error {
	index := g.ifIndex
	g.ifIndex++
	end := fmt.Sprintf(".If%d_End", index)

	if err := g.emitCondition(stmt.Condition, end); err != nil {
		return err
	}
	if err := g.emitStatement(stmt.Body); err != nil {
		return err
	}
	g.text = append(g.text, OpLabel{Name: end})
	return nil
}

func (g *CodeGenerator) emitIfElse(stmt *IfElse) error {
	index := g.ifIndex
	g.ifIndex++
	elseLabel := fmt.Sprintf(".If%d_Else", index)
	endLabel := fmt.Sprintf(".If%d_End", index)

	if err := g.emitCondition(stmt.Condition, elseLabel); err != nil {
		return err
	}
	if err := g.emitStatement(stmt.IfBody); err != nil {
		return err
	}
	g.text = append(g.text, OpJump{Mnemonic: "jmp", Target: endLabel})
	g.text = append(g.text, OpLabel{Name: elseLabel})
	if err := g.emitStatement(stmt.ElseBody); err != nil {
		return err
	}
	g.text = append(g.text, OpLabel{Name: endLabel})
	return nil
}

// emitCondition evaluates a condition and jumps to `target` when it
// is false
func (g *CodeGenerator) emitCondition(cond Expression, target string) error {
	r := g.allocator.Allocate()
	if r < 0 {
		return g.errorf(cond, "scratch registers exhausted")
	}
	if err := g.emitExpression(cond, r); err != nil {
		return err
	}
	g.text = append(g.text, OpCompare{Left: Reg(r), Right: "0"})
	g.text = append(g.text, OpJump{Mnemonic: "je", Target: target})
	g.allocator.Free(r)
	return nil
}

func (g *CodeGenerator) emitWhile(stmt *While) error {
	index := g.whileIndex
	g.whileIndex++
	start := fmt.Sprintf(".while%d_start", index)
	end := fmt.Sprintf(".while%d_end", index)

	g.text = append(g.text, OpLabel{Name: start})
	if err := g.emitCondition(stmt.Condition, end); err != nil {
		return err
	}
	if err := g.emitStatement(stmt.Body); err != nil {
		return err
	}
	g.text = append(g.text, OpJump{Mnemonic: "jmp", Target: start})
	g.text = append(g.text, OpLabel{Name: end})
	return nil
}

func (g *CodeGenerator) emitReturn(stmt *Return) error {
	if stmt.Value != nil && !g.fn.ReturnType.Equal(typeVoid) {
		if err := g.emitExpression(stmt.Value, regPrimary); err != nil {
			return err
		}
	}

	// release the argument slots
	r := g.allocator.Allocate()
	if r < 0 {
		return g.errorf(stmt, "scratch registers exhausted")
	}
	for range g.fn.Params {
		g.text = append(g.text, OpPop{Operand: Reg(r)})
	}
	g.allocator.Free(r)

	// restore the callee-preserved scratches the body touched
	for i := scratchCount - 1; i >= 0; i-- {
		if g.allocator.WasUsed(i) {
			g.text = append(g.text, OpPop{Operand: Reg(i)})
		}
	}

	g.text = append(g.text, OpMove{Dst: "rsp", Src: "rbp"})
	g.text = append(g.text, OpPop{Operand: "rbp"})
	g.text = append(g.text, OpReturn{})
	return nil
}

// emitAssignment evaluates the right side, coerces it to the target's
// width, and stores it through the address of the left side
func (g *CodeGenerator) emitAssignment(stmt *VarAssignment) error {
	r := g.allocator.Allocate()
	if r < 0 {
		return g.errorf(stmt, "scratch registers exhausted")
	}
	if err := g.emitExpression(stmt.Rhs, r); err != nil {
		return err
	}

	addr := g.allocator.Allocate()
	if addr < 0 {
		return g.errorf(stmt, "scratch registers exhausted")
	}
	target, err := g.emitAddressOf(stmt.Lhs, addr)
	if err != nil {
		return err
	}

	if target.PtrDepth == 0 {
		if err := g.coerceWidth(stmt, target.Base, r); err != nil {
			return err
		}
	}
	g.text = append(g.text, OpMove{
		Dst: fmt.Sprintf("[%s]", Reg(addr)),
		Src: regWithWidth(r, target),
	})
	g.allocator.Free(addr)
	g.allocator.Free(r)
	return nil
}

//  ---- Expressions ----

func (g *CodeGenerator) emitExpression(expr Expression, reg int) error {
	switch node := expr.(type) {
	case *IntLit:
		g.text = append(g.text, OpMove{Dst: Reg(reg), Src: fmt.Sprintf("%d", node.Value)})
		return nil

	case *CharLit:
		g.text = append(g.text, OpXor{Dst: Reg(reg), Src: Reg(reg)})
		g.text = append(g.text, OpMove{Dst: Reg8(reg), Src: fmt.Sprintf("%d", node.Value)})
		return nil

	case *StringLit:
		id, fresh := g.state.internString(node.Value)
		if fresh {
			g.data = append(g.data, OpDefineString{ID: id, Value: node.Value})
		}
		g.text = append(g.text, OpMove{Dst: Reg(reg), Src: id})
		return nil

	case *IdExpression:
		return g.emitIdExpression(node, reg)

	case *BinaryExpression:
		return g.emitBinaryExpression(node, reg)

	case *CallExpression:
		return g.emitCall(node, node.Name, node.Args, reg)
	}
	return g.errorf(expr, "unhandled expression %s", expr)
}

// emitIdExpression loads the value of a variable reference, applying
// indexing, the deref run, and the final width coercion
func (g *CodeGenerator) emitIdExpression(expr *IdExpression, reg int) error {
	typ, err := g.loadVar(expr, reg)
	if err != nil {
		return err
	}

	depth := typ.PtrDepth
	if expr.Index != nil {
		if err := g.applyIndex(expr, reg); err != nil {
			return err
		}
		depth--
	}

	for i := 0; i < expr.DerefDepth(); i++ {
		g.text = append(g.text, OpMove{Dst: Reg(reg), Src: fmt.Sprintf("[%s]", Reg(reg))})
	}

	if expr.DerefDepth() == depth {
		return g.coerceWidth(expr, typ.Base, reg)
	}
	return nil
}

// loadVar moves the raw slot value of a variable into `reg` and
// returns the variable's declared type
func (g *CodeGenerator) loadVar(expr *IdExpression, reg int) (TypeIdentifier, error) {
	if v, ok := g.current.getVar(expr.Name); ok {
		g.text = append(g.text, OpMove{
			Dst: Reg(reg),
			Src: fmt.Sprintf("qword [rsp + %d]", g.offset-v.offset),
		})
		return v.typ, nil
	}
	if typ, ok := g.state.globals[expr.Name]; ok {
		g.text = append(g.text, OpMove{
			Dst: Reg(reg),
			Src: fmt.Sprintf("qword [%s]", expr.Name),
		})
		return typ, nil
	}
	return TypeIdentifier{}, g.errorf(expr, "undefined identifier `%s`", expr.Name)
}

// applyIndex adds an evaluated index to the pointer already in `reg`
// and dereferences the sum
func (g *CodeGenerator) applyIndex(expr *IdExpression, reg int) error {
	r := g.allocator.Allocate()
	if r < 0 {
		return g.errorf(expr, "scratch registers exhausted")
	}
	if err := g.emitExpression(expr.Index, r); err != nil {
		return err
	}
	g.text = append(g.text, OpAdd{Dst: Reg(reg), Src: Reg(r)})
	g.text = append(g.text, OpMove{Dst: Reg(reg), Src: fmt.Sprintf("[%s]", Reg(reg))})
	g.allocator.Free(r)
	return nil
}

// emitAddressOf computes the store target of an assignment left side
// into `reg` and returns the type of the slot being stored to.  For a
// direct variable the address is taken with lea (locals) or the
// symbol itself (globals); deref runs and indexing chase the pointer
// value instead.
func (g *CodeGenerator) emitAddressOf(expr *IdExpression, reg int) (TypeIdentifier, error) {
	var typ TypeIdentifier
	if v, ok := g.current.getVar(expr.Name); ok {
		typ = v.typ
		g.text = append(g.text, OpLea{
			Dst: Reg(reg),
			Src: fmt.Sprintf("[rsp + %d]", g.offset-v.offset),
		})
	} else if global, ok := g.state.globals[expr.Name]; ok {
		typ = global
		g.text = append(g.text, OpMove{Dst: Reg(reg), Src: expr.Name})
	} else {
		return TypeIdentifier{}, g.errorf(expr, "undefined identifier `%s`", expr.Name)
	}

	depth := typ.PtrDepth
	if expr.Index != nil {
		// the element address is the pointer value plus the index
		g.text = append(g.text, OpMove{Dst: Reg(reg), Src: fmt.Sprintf("[%s]", Reg(reg))})
		r := g.allocator.Allocate()
		if r < 0 {
			return TypeIdentifier{}, g.errorf(expr, "scratch registers exhausted")
		}
		if err := g.emitExpression(expr.Index, r); err != nil {
			return TypeIdentifier{}, err
		}
		g.text = append(g.text, OpAdd{Dst: Reg(reg), Src: Reg(r)})
		g.allocator.Free(r)
		depth--
	}

	for i := 0; i < expr.DerefDepth(); i++ {
		g.text = append(g.text, OpMove{Dst: Reg(reg), Src: fmt.Sprintf("[%s]", Reg(reg))})
	}
	return TypeIdentifier{Base: typ.Base, PtrDepth: depth - expr.DerefDepth()}, nil
}

func (g *CodeGenerator) emitBinaryExpression(expr *BinaryExpression, reg int) error {
	if err := g.emitExpression(expr.Left, reg); err != nil {
		return err
	}
	// the left value stays live in `reg` while the right side is
	// evaluated, so a call on the right must spill it
	if reg >= regPrimary {
		held := g.argsInUse[reg-regPrimary]
		g.argsInUse[reg-regPrimary] = true
		defer func() { g.argsInUse[reg-regPrimary] = held }()
	}
	r := g.allocator.Allocate()
	if r < 0 {
		return g.errorf(expr, "scratch registers exhausted")
	}
	if err := g.emitExpression(expr.Right, r); err != nil {
		return err
	}

	unsigned := expr.Left.Type().Base.IsUnsigned()

	switch expr.Op {
	case OpPlus:
		g.text = append(g.text, OpAdd{Dst: Reg(reg), Src: Reg(r)})
	case OpMinus:
		g.text = append(g.text, OpSub{Dst: Reg(reg), Src: Reg(r)})
	case OpMul:
		if unsigned {
			g.emitUnsignedMul(reg, r)
		} else {
			g.text = append(g.text, OpIMul{Dst: Reg(reg), Src: Reg(r)})
		}
	case OpDiv, OpMod:
		g.emitDivision(reg, r, expr.Op == OpMod, unsigned)
	case OpBitOr:
		g.text = append(g.text, OpOr{Dst: Reg(reg), Src: Reg(r)})
	case OpBitAnd:
		g.text = append(g.text, OpAnd{Dst: Reg(reg), Src: Reg(r)})
	default:
		if err := g.emitComparison(expr, reg, r); err != nil {
			return err
		}
	}
	g.allocator.Free(r)
	return nil
}

// emitComparison materialises a BOOL with the cmp+cmovcc trio
func (g *CodeGenerator) emitComparison(expr *BinaryExpression, reg, r int) error {
	zero := g.allocator.Allocate()
	one := g.allocator.Allocate()
	if zero < 0 || one < 0 {
		return g.errorf(expr, "scratch registers exhausted")
	}
	g.text = append(g.text, OpComparison{
		Dst:  Reg(reg),
		Src:  Reg(r),
		Zero: Reg(zero),
		One:  Reg(one),
		Op:   expr.Op,
	})
	g.allocator.Free(zero)
	g.allocator.Free(one)
	return nil
}

// emitDivision routes a divide or modulo through rax/rdx.  The
// dividend sits in `reg`, the divisor in `r`; rax and rdx are spilled
// around the operation when the target is not the register itself.
func (g *CodeGenerator) emitDivision(reg, r int, modulo, unsigned bool) {
	retarget := reg != regPrimary
	if retarget {
		g.text = append(g.text, OpPush{Operand: "rax"})
		g.text = append(g.text, OpMove{Dst: "rax", Src: Reg(reg)})
	}
	spillRDX := reg != regRDX
	if spillRDX {
		g.text = append(g.text, OpPush{Operand: "rdx"})
	}

	if unsigned {
		g.text = append(g.text, OpXor{Dst: "rdx", Src: "rdx"})
		g.text = append(g.text, InstrDiv{Src: Reg(r)})
	} else {
		g.text = append(g.text, OpCqo{})
		g.text = append(g.text, OpIDiv{Src: Reg(r)})
	}
	if modulo {
		g.text = append(g.text, OpMove{Dst: "rax", Src: "rdx"})
	}

	if spillRDX {
		g.text = append(g.text, OpPop{Operand: "rdx"})
	}
	if retarget {
		g.text = append(g.text, OpMove{Dst: Reg(reg), Src: "rax"})
		g.text = append(g.text, OpPop{Operand: "rax"})
	}
}

// emitUnsignedMul routes the single-operand mul through rax, which it
// needs, sparing rdx, which it clobbers
func (g *CodeGenerator) emitUnsignedMul(reg, r int) {
	retarget := reg != regPrimary
	if retarget {
		g.text = append(g.text, OpPush{Operand: "rax"})
		g.text = append(g.text, OpMove{Dst: "rax", Src: Reg(reg)})
	}
	spillRDX := reg != regRDX
	if spillRDX {
		g.text = append(g.text, OpPush{Operand: "rdx"})
	}

	g.text = append(g.text, InstrMul{Src: Reg(r)})

	if spillRDX {
		g.text = append(g.text, OpPop{Operand: "rdx"})
	}
	if retarget {
		g.text = append(g.text, OpMove{Dst: Reg(reg), Src: "rax"})
		g.text = append(g.text, OpPop{Operand: "rax"})
	}
}

//  ---- Calls ----

// syscallArgRegs maps syscall argument positions to logical register
// indices: the number in rax, then the Linux syscall argument order
var syscallArgRegs = []int{7, 8, 9, 10, 1, 12, 13}

// callArgRegs maps regular argument positions to rdi..r9
var callArgRegs = []int{8, 9, 10, 11, 12, 13}

// emitCall spills the live argument registers, loads each argument
// into its convention slot, emits the call or syscall, moves the
// result to `target` (-1 discards it), and restores the spills in
// reverse order
func (g *CodeGenerator) emitCall(at Node, name string, args []Expression, target int) error {
	saved := g.argsInUse
	var spilled []string
	for i, inUse := range saved {
		if inUse {
			spilled = append(spilled, Reg(regPrimary+i))
			g.push(Reg(regPrimary + i))
		}
	}
	g.argsInUse = [7]bool{}

	argRegs := callArgRegs
	if name == "syscall" {
		argRegs = syscallArgRegs
	}
	if len(args) > len(argRegs) {
		return g.errorf(at, "too many arguments in call to `%s`", name)
	}

	for i, arg := range args {
		dst := argRegs[i]
		if err := g.emitExpression(arg, dst); err != nil {
			return err
		}
		if dst >= regPrimary {
			g.argsInUse[dst-regPrimary] = true
		} else {
			// r10 is scratch-pool territory; hold it explicitly
			g.allocator.Claim(dst)
		}
	}

	if name == "syscall" {
		g.text = append(g.text, OpSyscall{})
	} else {
		g.text = append(g.text, OpCall{Name: name})
	}

	for i := range args {
		if argRegs[i] < regPrimary {
			g.allocator.Free(argRegs[i])
		}
	}

	if target >= 0 && target != regPrimary {
		g.text = append(g.text, OpMove{Dst: Reg(target), Src: "rax"})
	}

	g.argsInUse = saved
	for i := len(spilled) - 1; i >= 0; i-- {
		g.pop(spilled[i])
	}
	return nil
}

//  ---- Width coercion ----

// regWithWidth picks the sub-register of `reg` matching the width of
// a store target
func regWithWidth(reg int, t TypeIdentifier) string {
	if t.PtrDepth > 0 {
		return Reg(reg)
	}
	switch t.Base {
	case TypeI8, TypeU8, TypeChar, TypeBool:
		return Reg8(reg)
	case TypeI16, TypeU16:
		return Reg16(reg)
	case TypeI32, TypeU32, TypeF32:
		return Reg32(reg)
	}
	return Reg(reg)
}

// coerceWidth narrows the value in `reg` to the width of `base` and
// zero-extends it back to 64 bits, through a scratch register
func (g *CodeGenerator) coerceWidth(at Node, base BaseType, reg int) error {
	switch base {
	case TypeI64, TypeU64, TypeF64:
		return nil
	case TypeVoid:
		return g.errorf(at, "cannot coerce a value of type void")
	}

	r := g.allocator.Allocate()
	if r < 0 {
		return g.errorf(at, "scratch registers exhausted")
	}
	g.text = append(g.text, OpXor{Dst: Reg(r), Src: Reg(r)})
	switch base {
	case TypeI8, TypeU8, TypeChar, TypeBool:
		g.text = append(g.text, OpMove{Dst: Reg8(r), Src: Reg8(reg)})
	case TypeI16, TypeU16:
		g.text = append(g.text, OpMove{Dst: Reg16(r), Src: Reg16(reg)})
	case TypeI32, TypeU32, TypeF32:
		g.text = append(g.text, OpMove{Dst: Reg32(r), Src: Reg32(reg)})
	}
	g.text = append(g.text, OpMove{Dst: Reg(reg), Src: Reg(r)})
	g.allocator.Free(r)
	return nil
}

func (g *CodeGenerator) errorf(at Node, format string, args ...any) error {
	return newCodegenErrorf(at.Path(), at.Location(), format, args...)
}
