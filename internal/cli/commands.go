package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docrag/internal/api"
	"docrag/internal/app"
	"docrag/internal/util"
)

func newIndexCmd(open Opener) *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "index [file.pdf]",
		Short: "Index one PDF, or every PDF in the books folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				if len(args) == 1 {
					doc, err := a.Svc.IndexDocument(ctx, args[0])
					if err != nil {
						return err
					}
					cmd.Printf("Indexed %s (%s) with %d chunks\n", doc.Filename, doc.ID, doc.ChunkCount)
					return nil
				}
				report, err := a.Svc.IndexAllDocuments(ctx, folder)
				if err != nil {
					return err
				}
				for _, d := range report.Indexed {
					cmd.Printf("  ok    %s: %d chunks\n", d.Filename, d.ChunkCount)
				}
				for _, f := range report.Failed {
					cmd.Printf("  fail  %s: %s\n", f.Filename, f.Error)
				}
				cmd.Printf("Indexed %d, failed %d\n", len(report.Indexed), len(report.Failed))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "folder to index instead of the configured books folder")
	return cmd
}

func newAskCmd(open Opener) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				ans, err := a.Svc.GenerateAnswer(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd, ans)
				}
				cmd.Println(ans.Answer)
				cmd.Println()
				cmd.Println("Sources:")
				for i, src := range ans.Sources {
					cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1, src.Filename, src.ChunkIndex, src.Score)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the answer as JSON")
	return cmd
}

func newSearchCmd(open Opener) *cobra.Command {
	var (
		topK   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the chunks closest to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				results, err := a.Svc.SearchSimilarChunks(ctx, strings.Join(args, " "), topK)
				if err != nil {
					return fmt.Errorf("search failed: %w", err)
				}
				if asJSON {
					return printJSON(cmd, results)
				}
				if len(results) == 0 {
					cmd.Println("No results found.")
					return nil
				}
				for i, r := range results {
					cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1, r.Title, r.ChunkIndex, r.Score)
					cmd.Printf("      %s\n\n", util.Snippet(r.Text, 160))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of chunks to return (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	return cmd
}

func newDocsCmd(open Opener) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "List indexed documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				docs, err := a.Svc.GetIndexedDocuments(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd, docs)
				}
				if len(docs) == 0 {
					cmd.Println("No documents indexed.")
					return nil
				}
				for _, d := range docs {
					cmd.Printf("%s  %-40s %4d chunks  %s\n", d.ID, d.Title, d.ChunkCount, d.IndexedAt.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output documents as JSON")
	return cmd
}

func newRmCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <document-id>",
		Short: "Delete a document and its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				if err := a.Svc.DeleteDocument(ctx, args[0]); err != nil {
					return err
				}
				cmd.Printf("Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newServeCmd(open Opener) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				if addr == "" {
					addr = a.Cfg.APIAddr
				}
				srv := &http.Server{
					Addr:              addr,
					Handler:           api.NewServer(a.Cfg, a.Svc, a.Log, nil).Routes(),
					ReadHeaderTimeout: 10 * time.Second,
				}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				a.Log.Info("api listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
