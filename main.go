package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mickamy/restorm/internal/gen"
)

var version = "dev"

type options struct {
	source   string
	typeName string
	resource string
	output   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "restormgen:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "restormgen",
		Short: "Generate restorm model bindings for tagged structs",
		Long: `Generate restorm model bindings for the structs of a Go file.

Run it through go:generate, which sets $GOFILE:

	//go:generate go tool restormgen --type=User`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", os.Getenv("GOFILE"), "Go file declaring the models (default $GOFILE)")
	cmd.Flags().StringVar(&opts.typeName, "type", "", "struct type name (default: every struct in the file)")
	cmd.Flags().StringVar(&opts.resource, "resource", "", "resource path (optional; inferred from --type if omitted)")
	cmd.Flags().StringVar(&opts.output, "output", "", "output file (default <type>_gen.go or <file>_gen.go next to the source)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "restormgen", version)
		},
	})

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	if opts.source == "" {
		return errors.New("--source is required when $GOFILE is not set (run via go:generate)")
	}
	if opts.resource != "" && opts.typeName == "" {
		return errors.New("--resource needs --type")
	}

	infos, err := gen.Parse(opts.source)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	outFile := strings.TrimSuffix(filepath.Base(opts.source), ".go") + "_gen.go"
	if opts.typeName != "" {
		info, err := gen.Lookup(infos, opts.typeName)
		if err != nil {
			return fmt.Errorf("parse: %w", err)
		}
		info.Resource = opts.resource
		infos = []*gen.StructInfo{info}
		outFile = strings.ToLower(opts.typeName) + "_gen.go"
	}
	if len(infos) == 0 {
		return fmt.Errorf("no model structs in %s", opts.source)
	}

	src, err := gen.RenderFile(infos)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	outPath := opts.output
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(opts.source), outFile)
	}

	if err := os.WriteFile(outPath, src, 0o644); err != nil { //nolint:gosec // generated code should be world-readable
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "restormgen: wrote %s\n", outPath)
	return nil
}
