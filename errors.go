package glang

import "fmt"

// Every pass of the pipeline fails fast: the first violation is wrapped
// into one of the typed errors below and returned up through the API.
// Parse, type and codegen errors render as `path:line:col: message`.
// A LexError renders as `line:col: message`; the import resolver and
// the CLI put the unit path in front of it.

// LexError is the error produced when the lexer meets a character
// sequence it cannot tokenize
type LexError struct {
	Message  string
	Location Location
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

// ParseError is the error produced when the token stream doesn't form
// a valid glang program
type ParseError struct {
	Message  string
	Path     string
	Location Location
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%s: %s", e.Path, e.Location, e.Message)
}

// TypeError is the error produced by the semantic pass
type TypeError struct {
	Message  string
	Path     string
	Location Location
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s:%s: %s", e.Path, e.Location, e.Message)
}

// CodegenError is the error produced when the code generator meets a
// shape it cannot lower, e.g. a non-constant global array size
type CodegenError struct {
	Message  string
	Path     string
	Location Location
}

func (e *CodegenError) Error() string {
	return fmt.Sprintf("%s:%s: %s", e.Path, e.Location, e.Message)
}

func newParseErrorf(path string, loc Location, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Path: path, Location: loc}
}

func newTypeErrorf(path string, loc Location, format string, args ...any) *TypeError {
	return &TypeError{Message: fmt.Sprintf(format, args...), Path: path, Location: loc}
}

func newCodegenErrorf(path string, loc Location, format string, args ...any) *CodegenError {
	return &CodegenError{Message: fmt.Sprintf(format, args...), Path: path, Location: loc}
}
