package glang

import (
	"strings"

	"github.com/samber/lo"
)

// entrypointText is the `_start` shim emitted for executables: it
// hands argc and argv to `main` and exits with main's return value
// via the exit syscall.
var entrypointText = []Opcode{
	OpLabel{Name: "_start"},
	OpMove{Dst: "rdi", Src: "[rsp]"},
	OpLea{Dst: "rsi", Src: "[rsp + 8]"},
	OpCall{Name: "main"},
	OpMove{Dst: "rdi", Src: "rax"},
	OpMove{Dst: "rax", Src: "60"},
	OpSyscall{},
}

// RenderAssembly serialises the generated sections into the final
// NASM file: the text section with its global/extern directives
// first, then .data, .bss and .rodata
func RenderAssembly(asm *Assembly, entrypoint bool) string {
	render := func(op Opcode, _ int) string { return op.Render() }

	var out []string
	out = append(out, "section .text")
	if entrypoint {
		out = append(out, "global _start")
		out = append(out, lo.Map(entrypointText, render)...)
	}
	out = append(out, lo.Map(asm.Globals, func(name string, _ int) string {
		return "global " + name
	})...)
	out = append(out, lo.Map(asm.Externs, func(name string, _ int) string {
		return "extern " + name
	})...)
	out = append(out, lo.Map(asm.Text, render)...)

	out = append(out, "", "section .data")
	out = append(out, lo.Map(asm.Data, render)...)

	out = append(out, "", "section .bss")
	out = append(out, lo.Map(asm.Bss, render)...)

	out = append(out, "", "section .rodata")
	out = append(out, lo.Map(asm.Rodata, render)...)

	return strings.Join(out, "\n") + "\n"
}
