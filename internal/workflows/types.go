package workflows

type CorpusIndexInput struct {
	InputDir              string `json:"input_dir"`
	MaxConcurrentChildren int    `json:"max_concurrent_children"`
}

type DocumentIndexInput struct {
	Path string `json:"path"`
}

type CorpusIndexProgress struct {
	Total   int               `json:"total"`
	Done    int               `json:"done"`
	Failed  int               `json:"failed"`
	PerFile map[string]string `json:"per_file"`
}
