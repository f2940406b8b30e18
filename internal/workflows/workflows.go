package workflows

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"docrag/internal/activities"
	"docrag/internal/models"
)

const QueryGetProgress = "GetProgress"

const folderFailureName = "books folder"

var activityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 5 * time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    2 * time.Second,
		BackoffCoefficient: 2,
		MaximumInterval:    20 * time.Second,
		MaximumAttempts:    3,
	},
}

// CorpusIndexWorkflow indexes every PDF in a folder through one child
// workflow per file, at most MaxConcurrentChildren at a time. A failed file
// becomes a failure entry; it never fails the workflow.
func CorpusIndexWorkflow(ctx workflow.Context, input CorpusIndexInput) (models.IndexReport, error) {
	report := models.IndexReport{Indexed: []models.IndexedDocument{}, Failed: []models.IndexFailure{}}
	progress := CorpusIndexProgress{PerFile: map[string]string{}}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (CorpusIndexProgress, error) {
		return progress, nil
	}); err != nil {
		return report, err
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var listOut activities.ListPDFsOutput
	if err := workflow.ExecuteActivity(ctx, "ListPDFsActivity", activities.ListPDFsInput{InputDir: input.InputDir}).Get(ctx, &listOut); err != nil {
		return report, err
	}
	switch {
	case listOut.Created:
		report.Failed = append(report.Failed, models.IndexFailure{Filename: folderFailureName, Error: "Folder was empty, created now"})
	case len(listOut.Paths) == 0:
		report.Failed = append(report.Failed, models.IndexFailure{Filename: folderFailureName, Error: "No PDF files found"})
	}

	paths := listOut.Paths
	progress.Total = len(paths)
	maxChildren := input.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = 3
	}
	runID := workflow.GetInfo(ctx).WorkflowExecution.RunID

	for i := 0; i < len(paths); i += maxChildren {
		end := min(i+maxChildren, len(paths))
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		for j, p := range paths[i:end] {
			progress.PerFile[p] = "processing"
			cwo := workflow.ChildWorkflowOptions{WorkflowID: childWorkflowID(runID, i+j, p)}
			futures = append(futures, workflow.ExecuteChildWorkflow(workflow.WithChildOptions(ctx, cwo), DocumentIndexWorkflow, DocumentIndexInput{Path: p}))
		}
		for idx, f := range futures {
			p := paths[i+idx]
			var out activities.IndexDocumentOutput
			if err := f.Get(ctx, &out); err != nil {
				progress.Failed++
				progress.PerFile[p] = "failed"
				report.Failed = append(report.Failed, models.IndexFailure{Filename: path.Base(p), Error: failureMessage(err)})
				continue
			}
			progress.Done++
			progress.PerFile[p] = "indexed"
			report.Indexed = append(report.Indexed, models.IndexedDocument{Filename: out.Filename, Title: out.Title, ChunkCount: out.ChunkCount})
		}
	}

	if err := workflow.ExecuteActivity(ctx, "WriteIndexReportActivity", report).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("write index report failed", "error", err)
	}
	return report, nil
}

func DocumentIndexWorkflow(ctx workflow.Context, input DocumentIndexInput) (activities.IndexDocumentOutput, error) {
	ctx = workflow.WithActivityOptions(ctx, activityOptions)
	var out activities.IndexDocumentOutput
	err := workflow.ExecuteActivity(ctx, "IndexDocumentActivity", activities.IndexDocumentInput{Path: input.Path}).Get(ctx, &out)
	return out, err
}

// failureMessage digs the original message out of Temporal's error wrapping.
func failureMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Message() != "" {
		return appErr.Message()
	}
	return err.Error()
}

// childWorkflowID is unique per listed file; the position keeps names that
// sanitize to the same string apart.
func childWorkflowID(runID string, pos int, p string) string {
	return fmt.Sprintf("doc-%d-%s-%s", pos, sanitizeID(path.Base(p)), runID)
}

func sanitizeID(s string) string {
	return strings.NewReplacer("_", "-", ".", "-", "/", "-", " ", "-").Replace(strings.ToLower(s))
}
