package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/category"
)

type globalOptions struct {
	kind string
	lang string
}

func newRootCmd() *cobra.Command {
	var global globalOptions

	cmd := &cobra.Command{
		Use:           "lifecycle-data",
		Short:         "Employment type / employee status line list tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&global.kind, "kind", "", "List kind: "+strings.Join(category.Kinds(), " | ")+" (required)")
	cmd.PersistentFlags().StringVar(&global.lang, "lang", "en", "Message language (en | zh)")

	cmd.AddCommand(newCategoriesCmd(&global))
	cmd.AddCommand(newSeedCmd(&global))
	cmd.AddCommand(newValidateCmd(&global))
	cmd.AddCommand(newSubmitCmd(&global))
	return cmd
}

func (g *globalOptions) table() (*category.Table, error) {
	if strings.TrimSpace(g.kind) == "" {
		return nil, withCode(exitUsage, fmt.Errorf("--kind is required"))
	}
	table, ok := category.Lookup(g.kind)
	if !ok {
		return nil, withCode(exitUsage, fmt.Errorf("invalid --kind %q (want %s)", g.kind, strings.Join(category.Kinds(), " or ")))
	}
	return table, nil
}

func parseMode(raw string) (category.Mode, error) {
	mode, ok := category.ParseMode(raw)
	if !ok {
		return "", withCode(exitUsage, fmt.Errorf("invalid --mode %q (want create, edit or view)", raw))
	}
	return mode, nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
