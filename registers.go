package glang

// The code generator addresses registers by logical index into these
// tables.  Indices 0..6 form the scratch pool; 7 is rax, the primary
// and return-value register; 8..13 are the argument registers in
// calling-convention order.
var (
	regs64 = [...]string{"rbx", "r10", "r11", "r12", "r13", "r14", "r15",
		"rax", "rdi", "rsi", "rdx", "rcx", "r8", "r9"}
	regs32 = [...]string{"ebx", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d",
		"eax", "edi", "esi", "edx", "ecx", "r8d", "r9d"}
	regs16 = [...]string{"bx", "r10w", "r11w", "r12w", "r13w", "r14w", "r15w",
		"ax", "di", "si", "dx", "cx", "r8w", "r9w"}
	regs8 = [...]string{"bl", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b",
		"al", "dil", "sil", "dl", "cl", "r8b", "r9b"}
)

const (
	// regPrimary is rax: the return-value slot and the register
	// expression emission defaults to
	regPrimary = 7

	// regFirstArg is rdi, the first argument register
	regFirstArg = 8

	// regRDX needs spilling around division, which uses it
	// implicitly
	regRDX = 10

	// scratchCount is the size of the allocatable pool
	scratchCount = 7
)

// calleePreserved marks the scratch indices the System V ABI makes
// the callee responsible for
var calleePreserved = [scratchCount]bool{0: true, 3: true, 4: true, 5: true, 6: true}

// Reg returns the 64-bit name of a logical register index
func Reg(i int) string { return regs64[i] }

// Reg32, Reg16 and Reg8 return the narrower aliases of the same
// logical index
func Reg32(i int) string { return regs32[i] }
func Reg16(i int) string { return regs16[i] }
func Reg8(i int) string  { return regs8[i] }

// ScratchAllocator hands out temporaries from the fixed scratch pool.
// One allocator lives per function being emitted, so callee-save
// bookkeeping never leaks across functions.
type ScratchAllocator struct {
	used    [scratchCount]bool
	wasUsed [scratchCount]bool
}

func NewScratchAllocator() *ScratchAllocator {
	return &ScratchAllocator{}
}

// Allocate claims the lowest-numbered free scratch register and
// returns its logical index, or -1 when the pool is exhausted.
// Callee-preserved registers are remembered in wasUsed for the
// prologue/epilogue.
func (a *ScratchAllocator) Allocate() int {
	for i := 0; i < scratchCount; i++ {
		if !a.used[i] {
			a.used[i] = true
			if calleePreserved[i] {
				a.wasUsed[i] = true
			}
			return i
		}
	}
	return -1
}

// Claim marks a specific scratch register as held, for the few spots
// where the calling convention dictates the register instead of the
// pool choosing one
func (a *ScratchAllocator) Claim(i int) {
	a.used[i] = true
	if calleePreserved[i] {
		a.wasUsed[i] = true
	}
}

// Free releases a scratch register.  The wasUsed record stays.
func (a *ScratchAllocator) Free(i int) {
	a.used[i] = false
}

// WasUsed reports whether callee-preserved scratch `i` was ever
// allocated during this function
func (a *ScratchAllocator) WasUsed(i int) bool {
	return a.wasUsed[i]
}
