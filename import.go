package glang

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultCorePath is the standard-library unit every core compilation
// imports before its own top-level forms
const DefaultCorePath = "stdlib/core.glang"

// SourceExtension is the file extension of glang source files
const SourceExtension = ".glang"

// ImportLoader abstracts where imported source files come from, so
// tests can feed units from memory
type ImportLoader interface {
	// GetPath resolves an import path against the file that
	// imports it
	GetPath(importPath, parentPath string) (string, error)

	// GetContent returns the source bytes of a resolved path
	GetContent(path string) ([]byte, error)
}

// RelativeImportLoader loads imports from the filesystem, relative to
// the importing file's directory
type RelativeImportLoader struct{}

func NewRelativeImportLoader() *RelativeImportLoader {
	return &RelativeImportLoader{}
}

func (ril *RelativeImportLoader) GetPath(importPath, parentPath string) (string, error) {
	return getRelativePath(importPath, parentPath)
}

func (ril *RelativeImportLoader) GetContent(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// InMemoryImportLoader serves source units from a map
type InMemoryImportLoader struct{ files map[string][]byte }

func NewInMemoryImportLoader() *InMemoryImportLoader {
	return &InMemoryImportLoader{files: map[string][]byte{}}
}

func (l *InMemoryImportLoader) Add(path string, content []byte) {
	l.files[path] = content
}

func (l *InMemoryImportLoader) GetPath(importPath, parentPath string) (string, error) {
	return getRelativePath(importPath, parentPath)
}

func (l *InMemoryImportLoader) GetContent(path string) ([]byte, error) {
	b, ok := l.files[path]
	if !ok {
		return nil, fmt.Errorf("import not found: %s", path)
	}
	return b, nil
}

// getRelativePath resolves `importPath` against the directory of the
// file that imports it, appending the source extension when the
// import omitted it
func getRelativePath(importPath, parentPath string) (string, error) {
	if importPath == "" {
		return "", fmt.Errorf("empty import path")
	}
	if !strings.HasSuffix(importPath, SourceExtension) {
		importPath += SourceExtension
	}
	return filepath.Join(filepath.Dir(parentPath), importPath), nil
}

// ImportResolver drives lexing and parsing of whole units and is
// handed to every parser so `import` forms can recurse through it.
// Finished units are cached per resolved path, so diamond imports are
// parsed once; a unit that imports itself while still being parsed is
// a cycle, which is a fatal error.
type ImportResolver struct {
	loader     ImportLoader
	corePath   string
	core       bool
	cache      map[string]*Program
	inProgress map[string]bool
}

func NewImportResolver(loader ImportLoader) *ImportResolver {
	return &ImportResolver{
		loader:     loader,
		corePath:   DefaultCorePath,
		core:       true,
		cache:      map[string]*Program{},
		inProgress: map[string]bool{},
	}
}

// SetCoreEnabled toggles the implicit import of the standard-library
// core unit in the entry compilation
func (r *ImportResolver) SetCoreEnabled(enabled bool) { r.core = enabled }

// SetCorePath overrides where the core unit is imported from
func (r *ImportResolver) SetCorePath(path string) { r.corePath = path }

// Resolve lexes and parses the entry unit at `path`
func (r *ImportResolver) Resolve(path string) (*Program, error) {
	return r.parseUnit(path, r.core)
}

// load resolves and parses a unit imported by `parentPath`.  It is
// the parser's entry back into the resolver.
func (r *ImportResolver) load(importPath, parentPath string, loc Location) (*Program, error) {
	resolved, err := r.loader.GetPath(importPath, parentPath)
	if err != nil {
		return nil, newParseErrorf(parentPath, loc, "bad import path: %s", err)
	}
	if r.inProgress[resolved] {
		return nil, newParseErrorf(parentPath, loc, "import cycle detected through %s", resolved)
	}
	return r.parseUnit(resolved, false)
}

func (r *ImportResolver) parseUnit(path string, core bool) (*Program, error) {
	if cached, ok := r.cache[path]; ok {
		return cached, nil
	}
	r.inProgress[path] = true
	defer delete(r.inProgress, path)

	content, err := r.loader.GetContent(path)
	if err != nil {
		return nil, fmt.Errorf("can't read source file: %w", err)
	}

	lexer := NewLexer()
	for number, line := range strings.Split(string(content), "\n") {
		if err := lexer.PassLine(line, number+1); err != nil {
			// lex errors carry line:col only; stamp the path on
			return nil, fmt.Errorf("%s:%w", path, err)
		}
	}

	parser := NewParser(lexer.Tokens(), path, core, r)
	program, err := parser.Parse()
	if err != nil {
		return nil, err
	}
	r.cache[path] = program
	return program, nil
}
