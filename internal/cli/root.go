// Package cli exposes the indexer as the docrag command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docrag/internal/app"
)

// Opener builds the application for one command invocation.
type Opener func(ctx context.Context) (*app.App, error)

func NewRootCommand(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "docrag",
		Short:         "Index PDFs and answer questions over them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newIndexCmd(open),
		newAskCmd(open),
		newSearchCmd(open),
		newDocsCmd(open),
		newRmCmd(open),
		newServeCmd(open),
	)
	return root
}

// withApp opens the application, runs fn and closes it again.
func withApp(cmd *cobra.Command, open Opener, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
