package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	glang "github.com/doxo02/glang/go"
)

func main() {
	var (
		asLib       bool
		noCore      bool
		printTokens bool
		printAST    bool
	)

	root := &cobra.Command{
		Use:           "glang <source.glang>",
		Short:         "Compile glang source into NASM x86-64 assembly",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			cfg := glang.NewConfig()
			cfg.SetBool("emit.entrypoint", !asLib)
			cfg.SetBool("import.core", !noCore)
			cfg.SetBool("debug.print_tokens", printTokens)
			cfg.SetBool("debug.print_ast", printAST)

			if cfg.GetBool("debug.print_tokens") {
				return dumpTokens(path)
			}
			if cfg.GetBool("debug.print_ast") {
				program, err := glang.ParseFile(path, glang.NewRelativeImportLoader(), cfg)
				if err != nil {
					return err
				}
				fmt.Println(glang.HighlightPrettyString(program))
				return nil
			}

			_, err := glang.CompileFile(path, cfg)
			return err
		},
	}

	root.Flags().BoolVarP(&asLib, "lib", "L", false, "build as a library: don't emit the _start entry point")
	root.Flags().BoolVar(&noCore, "no-core", false, "don't import the standard-library core implicitly")
	root.Flags().BoolVar(&printTokens, "print-tokens", false, "dump the token stream instead of compiling")
	root.Flags().BoolVar(&printAST, "print-ast", false, "dump the parse tree instead of compiling")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dumpTokens(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lexer := glang.NewLexer()
	for number, line := range strings.Split(string(content), "\n") {
		if err := lexer.PassLine(line, number+1); err != nil {
			return fmt.Errorf("%s:%w", path, err)
		}
	}
	for _, tok := range lexer.Tokens() {
		fmt.Println(tok)
	}
	return nil
}
