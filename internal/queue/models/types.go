package models

import "github.com/mahirjain10/pdf-ocr-worker/internal/types"

// ProcessingError decides what happens to a delivery that could not be
// processed. Reason is the message published with the FAILED status.
type ProcessingError struct {
	Err     error
	Requeue bool
	Reason  string
}

func (p ProcessingError) Error() string {
	return p.Err.Error()
}

func (p ProcessingError) Unwrap() error {
	return p.Err
}

type RabbitMqMessage = types.OcrJobMessage
