package glang

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compileInMemory runs the full pipeline over `source` without the
// implicit core import
func compileInMemory(t *testing.T, source string) string {
	t.Helper()
	loader := NewInMemoryImportLoader()
	loader.Add("main.glang", []byte(source))

	cfg := NewConfig()
	cfg.SetBool("import.core", false)

	output, err := CompileSource("main.glang", loader, cfg)
	require.NoError(t, err)
	return output
}

func TestCompileArithmetic(t *testing.T) {
	output := compileInMemory(t, "fn main() -> i64 { return 1 + 2 * 3; }")

	assert.Contains(t, output, "main:")
	assert.Contains(t, output, "\tmov rax, 1")
	assert.Contains(t, output, "\timul rbx, r10")
	assert.Contains(t, output, "\tadd rax, rbx")
	assert.Contains(t, output, "\tret")
}

func TestCompileBranch(t *testing.T) {
	output := compileInMemory(t, "fn main() -> i64 { let x: i64 = 5; if (x == 5) { return 1; } return 0; }")

	assert.Contains(t, output, "\tje .If0_End")
	assert.Contains(t, output, ".If0_End:")
	assert.Contains(t, output, "\tmov rax, 1")
	assert.Contains(t, output, "\tmov rax, 0")
}

func TestCompileLoop(t *testing.T) {
	output := compileInMemory(t, `
fn main() -> i64 {
	let i: i64 = 0;
	let s: i64 = 0;
	while (i < 10) {
		s = s + i;
		i = i + 1;
	}
	return s;
}`)

	assert.Contains(t, output, ".while0_start:")
	assert.Contains(t, output, "\tjmp .while0_start")
	assert.Contains(t, output, ".while0_end:")
}

func TestCompilePointerIndexing(t *testing.T) {
	output := compileInMemory(t, "fn main(argc: i64, argv: char**) -> i64 { return argc; }")

	assert.Contains(t, output, "\tpush rdi")
	assert.Contains(t, output, "\tpush rsi")
	assert.Contains(t, output, "\tmov rax, qword [rsp + 8]")
}

// an import surfaces as an extern directive plus a call to the same
// symbol
func TestCompileImportExtern(t *testing.T) {
	loader := NewInMemoryImportLoader()
	loader.Add("stdlib/core.glang", []byte(coreSource))
	loader.Add("main.glang", []byte(`
import("stdlib/core");
fn main() -> i64 {
	return print("hi");
}`))

	output, err := CompileSource("main.glang", loader, NewConfig())
	require.NoError(t, err)

	assert.Contains(t, output, "extern print")
	assert.Contains(t, output, "\tcall print")
	// the head of the file carries the directive before any code
	assert.Less(t, strings.Index(output, "extern print"), strings.Index(output, "main:"))
}

func TestCompileGlobalRodata(t *testing.T) {
	output := compileInMemory(t, `
const msg: char = "hi";
fn main() -> i64 { return 0; }`)

	assert.Contains(t, output, "global msg")
	rodata := output[strings.Index(output, "section .rodata"):]
	assert.Contains(t, rodata, "\tmsg: db \"hi\", 0")
}

// every emitted call resolves to a defined function or an extern (I5)
func TestCompileCallTargetsResolve(t *testing.T) {
	loader := NewInMemoryImportLoader()
	loader.Add("stdlib/core.glang", []byte(coreSource))
	loader.Add("main.glang", []byte(`
import("stdlib/core");
fn helper() -> i64 { return strlen("abc"); }
fn main() -> i64 { return helper() + print("x"); }`))

	output, err := CompileSource("main.glang", loader, NewConfig())
	require.NoError(t, err)

	defined := map[string]bool{}
	externs := map[string]bool{}
	for _, line := range strings.Split(output, "\n") {
		if name, ok := strings.CutPrefix(line, "extern "); ok {
			externs[name] = true
		}
		if strings.HasSuffix(line, ":") && !strings.HasPrefix(line, "\t") && !strings.HasPrefix(line, ".") {
			defined[strings.TrimSuffix(line, ":")] = true
		}
	}
	for _, line := range strings.Split(output, "\n") {
		if name, ok := strings.CutPrefix(line, "\tcall "); ok {
			assert.True(t, defined[name] || externs[name], "call target %s", name)
		}
	}
}

func TestCompileFileWritesSibling(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "prog.glang")
	require.NoError(t, os.WriteFile(source, []byte("fn main() -> i64 { return 7; }"), 0644))

	cfg := NewConfig()
	cfg.SetBool("import.core", false)

	outPath, err := CompileFile(source, cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "prog.asm"), outPath)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "section .text")
	assert.Contains(t, string(content), "main:")
}

func TestCompileFileWithStdlibOnDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stdlib"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stdlib", "core.glang"), []byte(coreSource), 0644))

	source := filepath.Join(dir, "prog.glang")
	require.NoError(t, os.WriteFile(source, []byte(`
fn main() -> i64 {
	return print("hello\n");
}`), 0644))

	outPath, err := CompileFile(source, NewConfig())
	require.NoError(t, err)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "extern print")
	assert.Contains(t, string(content), "\tcall print")
	assert.Contains(t, string(content), `0xA`)
}

func TestCompileErrorsPropagate(t *testing.T) {
	loader := NewInMemoryImportLoader()
	loader.Add("main.glang", []byte("fn main() -> i64 { return y; }"))

	cfg := NewConfig()
	cfg.SetBool("import.core", false)

	_, err := CompileSource("main.glang", loader, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main.glang:")
	assert.Contains(t, err.Error(), "undefined identifier")
}

func TestCompileTestdataPrograms(t *testing.T) {
	t.Run("Hello", func(t *testing.T) {
		output, err := CompileSource("testdata/hello.glang", NewRelativeImportLoader(), NewConfig())
		require.NoError(t, err)
		assert.Contains(t, output, "extern print")
		assert.Contains(t, output, "\tcall print")
	})

	t.Run("Sum", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SetBool("import.core", false)
		output, err := CompileSource("testdata/sum.glang", NewRelativeImportLoader(), cfg)
		require.NoError(t, err)
		assert.Contains(t, output, ".while0_start:")
	})
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "prog.asm", OutputPath("prog.glang"))
	assert.Equal(t, "dir/prog.asm", OutputPath("dir/prog.glang"))
	assert.Equal(t, "noext.asm", OutputPath("noext"))
}
