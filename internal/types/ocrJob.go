package types

// OcrJob is one document to run through OCR. Empty option fields fall back
// to the worker's configured defaults.
type OcrJob struct {
	Id          string `json:"id"`
	UserId      string `json:"userId"`
	FileName    string `json:"fileName"`
	S3RawKey    string `json:"s3RawKey"`
	Language    string `json:"language,omitempty"`
	Performance string `json:"performance,omitempty"`
	Async       *bool  `json:"async,omitempty"`
	Paginate    *bool  `json:"paginate,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// OcrJobMessage is the queue envelope around an OcrJob.
type OcrJobMessage struct {
	Pattern string `json:"pattern"`
	Data    OcrJob `json:"data"`
}

// OcrOutcome is what the handler reports back for a finished job.
type OcrOutcome struct {
	ProcessedKey string
	PublicURL    string
	Pages        int
	TextLength   int
}
