package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var commandsCmd = &cobra.Command{
	Use:   "commands [name]",
	Short: "List known template commands",
	Long:  `Commands prints the registry of known commands with their signatures, including extensions from cbslint.toml`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCommands,
}

func init() {
	commandsCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	commandsCmd.Flags().Bool("blocks", false, "list block commands only")
}

type commandPayload struct {
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases,omitempty"`
	Signatures []string `json:"signatures"`
	Block      bool     `json:"block,omitempty"`
	Deprecated string   `json:"deprecated,omitempty"`
	Doc        string   `json:"doc,omitempty"`
}

func runCommands(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	blocksOnly, _ := cmd.Flags().GetBool("blocks")

	reg, _, err := resolveRegistry(cmd, ".")
	if err != nil {
		return err
	}

	names := reg.Names()
	if blocksOnly {
		names = reg.BlockNames()
	}
	if len(args) == 1 {
		if len(reg.LookupAll(args[0], false)) == 0 {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		names = []string{args[0]}
	}

	payloads := make([]commandPayload, 0, len(names))
	for _, name := range names {
		sigs := reg.LookupAll(name, false)
		if len(sigs) == 0 {
			continue
		}
		payload := commandPayload{
			Name:    sigs[0].Name,
			Aliases: sigs[0].Aliases,
			Block:   sigs[0].Block,
			Doc:     sigs[0].Doc,
		}
		for _, sig := range sigs {
			payload.Signatures = append(payload.Signatures, sig.Render())
			if sig.Deprecated != nil && payload.Deprecated == "" {
				payload.Deprecated = sig.Deprecated.Message
				if sig.Deprecated.Replacement != "" {
					payload.Deprecated += "; use '" + sig.Deprecated.Replacement + "' instead"
				}
			}
		}
		payloads = append(payloads, payload)
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payloads)
	case "pretty":
		printCommandsPretty(cmd, payloads)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func printCommandsPretty(cmd *cobra.Command, payloads []commandPayload) {
	nameColor := color.New(color.FgCyan, color.Bold)
	deprColor := color.New(color.FgYellow)
	if !useColor(cmd, os.Stdout) {
		nameColor.DisableColor()
		deprColor.DisableColor()
	}

	for _, payload := range payloads {
		fmt.Printf("%s", nameColor.Sprint(payload.Name))
		if len(payload.Aliases) > 0 {
			fmt.Printf(" (aliases: %s)", strings.Join(payload.Aliases, ", "))
		}
		fmt.Println()
		for _, sig := range payload.Signatures {
			fmt.Printf("    %s\n", sig)
		}
		if payload.Doc != "" {
			fmt.Printf("    %s\n", payload.Doc)
		}
		if payload.Deprecated != "" {
			fmt.Printf("    %s\n", deprColor.Sprint("deprecated: "+payload.Deprecated))
		}
	}
}
