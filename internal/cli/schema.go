// Package cli provides shared CLI utilities for veccached.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagSpec describes one flag in the machine-readable help output.
type flagSpec struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// commandSpec describes a command tree in the machine-readable help
// output, consumed by deploy tooling that wraps the binary.
type commandSpec struct {
	Name        string        `json:"name"`
	Use         string        `json:"use,omitempty"`
	Aliases     []string      `json:"aliases,omitempty"`
	Description string        `json:"description,omitempty"`
	Long        string        `json:"long,omitempty"`
	Flags       []flagSpec    `json:"flags,omitempty"`
	Subcommands []commandSpec `json:"subcommands,omitempty"`
}

func describeCommand(cmd *cobra.Command) commandSpec {
	spec := commandSpec{
		Name:        cmd.Name(),
		Use:         cmd.Use,
		Aliases:     cmd.Aliases,
		Description: cmd.Short,
		Long:        cmd.Long,
	}

	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || f.Name == "help-json" {
			return
		}
		spec.Flags = append(spec.Flags, flagSpec{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
			Description: f.Usage,
			Required:    flagIsRequired(f),
		})
	})

	for _, sub := range cmd.Commands() {
		if sub.Name() == "help" || sub.Hidden {
			continue
		}
		spec.Subcommands = append(spec.Subcommands, describeCommand(sub))
	}

	return spec
}

func flagIsRequired(f *pflag.Flag) bool {
	// cobra.MarkFlagRequired records itself as a flag annotation
	_, ok := f.Annotations[cobra.BashCompOneRequiredFlag]
	return ok
}

// AddHelpJSONFlag adds the --help-json flag to a command.
func AddHelpJSONFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("help-json", false, "Output command schema as JSON")
}

// CheckHelpJSON scans os.Args for --help-json and, when present, prints
// the schema of the addressed command and exits. Call it before
// cmd.Execute() so the flag wins over argument validation.
func CheckHelpJSON(rootCmd *cobra.Command) {
	for i, arg := range os.Args {
		if arg != "--help-json" {
			continue
		}

		target := rootCmd
		for _, name := range os.Args[1:i] {
			sub := childByName(target, name)
			if sub == nil {
				break
			}
			target = sub
		}

		out, err := json.MarshalIndent(describeCommand(target), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		os.Exit(0)
	}
}

func childByName(cmd *cobra.Command, name string) *cobra.Command {
	for _, sub := range cmd.Commands() {
		if sub.Name() == name || sub.HasAlias(name) {
			return sub
		}
	}
	return nil
}
