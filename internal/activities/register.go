package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ListPDFsActivity)
	w.RegisterActivity(a.IndexDocumentActivity)
	w.RegisterActivity(a.WriteIndexReportActivity)
}
