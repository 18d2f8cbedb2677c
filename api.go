package glang

import (
	"os"
	"strings"
)

const defaultWritePermission = 0644 // -rw-r--r--

// ParseFile lexes and parses the entry unit at `path`, resolving its
// imports through `loader`
func ParseFile(path string, loader ImportLoader, cfg *Config) (*Program, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	resolver := NewImportResolver(loader)
	resolver.SetCoreEnabled(cfg.GetBool("import.core"))
	resolver.SetCorePath(cfg.GetString("import.core_path"))
	return resolver.Resolve(path)
}

// CompileSource runs the whole pipeline over the entry unit at
// `path` and returns the NASM output text
func CompileSource(path string, loader ImportLoader, cfg *Config) (string, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	program, err := ParseFile(path, loader, cfg)
	if err != nil {
		return "", err
	}
	if err := NewTypeChecker(program).Check(); err != nil {
		return "", err
	}
	asm, err := NewCodeGenerator(program).Generate()
	if err != nil {
		return "", err
	}
	return RenderAssembly(asm, cfg.GetBool("emit.entrypoint")), nil
}

// CompileFile compiles the source file at `path` and writes the
// assembly next to it, returning the output path
func CompileFile(path string, cfg *Config) (string, error) {
	output, err := CompileSource(path, NewRelativeImportLoader(), cfg)
	if err != nil {
		return "", err
	}
	outPath := OutputPath(path)
	if err := os.WriteFile(outPath, []byte(output), defaultWritePermission); err != nil {
		return "", err
	}
	return outPath, nil
}

// OutputPath derives the assembly file name from a source file name:
// the source extension is replaced in place
func OutputPath(path string) string {
	if strings.HasSuffix(path, SourceExtension) {
		return strings.TrimSuffix(path, SourceExtension) + ".asm"
	}
	return path + ".asm"
}
