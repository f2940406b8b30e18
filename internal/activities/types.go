package activities

type ListPDFsInput struct {
	InputDir string `json:"input_dir"`
}

type ListPDFsOutput struct {
	Paths []string `json:"paths"`
	// Created is set when the folder did not exist and was made empty.
	Created bool `json:"created"`
}

type IndexDocumentInput struct {
	Path string `json:"path"`
}

type IndexDocumentOutput struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Title      string `json:"title"`
	ChunkCount int    `json:"chunk_count"`
}
