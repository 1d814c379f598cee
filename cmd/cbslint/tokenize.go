package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cbslint/internal/diagfmt"
	"cbslint/internal/lexer"
	"cbslint/internal/source"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.md",
	Short: "Dump the tag structure of a template document",
	Long:  `Tokenize scans a document for {{...}} tags and prints each tag's convention, name, parameters and nesting depth`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	fileSet := source.NewFileSet()
	id, err := fileSet.Load(filePath)
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}
	file := fileSet.Get(id)

	tags, imbalances := lexer.Scan(file)

	// Дисбаланс скобок — в stderr, сами теги всё равно печатаются
	for _, imb := range imbalances {
		pos, _ := fileSet.Resolve(imb.Span)
		switch imb.Kind {
		case lexer.ImbalanceStrayClose:
			fmt.Fprintf(os.Stderr, "%s:%d:%d: unmatched '}}'\n", filePath, pos.Line, pos.Col)
		case lexer.ImbalanceUnterminated:
			fmt.Fprintf(os.Stderr, "%s:%d:%d: unterminated '{{'\n", filePath, pos.Line, pos.Col)
		}
	}

	switch format {
	case "pretty":
		return diagfmt.FormatTagsPretty(os.Stdout, tags, fileSet)
	case "json":
		return diagfmt.FormatTagsJSON(os.Stdout, tags, fileSet)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
