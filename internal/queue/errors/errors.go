package errors

// Messages reported to users in the FAILED status.
const (
	ErrInvalidJob = "invalid OCR job"
	ErrDownload   = "failed to download the source document"
	ErrOCR        = "OCR processing failed"
	ErrUpload     = "failed to upload the processed document"
	ErrCancelled  = "OCR processing was interrupted"
)
