package muhimbi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// OCRFile reads the PDF at path and runs OCR on it. A missing file fails with
// a NotFoundError before anything is sent.
func (c *Client) OCRFile(ctx context.Context, path string, opts Options) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to stat source file: %w", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	return c.OCR(ctx, content, filepath.Base(path), opts)
}

// OCR submits content and returns the processed document. With opts.Async
// set, an Accepted submission is polled until it reaches a terminal state.
func (c *Client) OCR(ctx context.Context, content []byte, fileName string, opts Options) (*Result, error) {
	req := NewOcrRequest(content, fileName, opts)

	log.Info().
		Str("file", fileName).
		Int("size", len(content)).
		Bool("async", req.UseAsyncPattern).
		Str("language", req.Language).
		Str("performance", req.Performance).
		Msg("Submitting OCR request")

	resp, err := c.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	if !req.UseAsyncPattern || resp.ResultCode != ResultAccepted {
		return resp.result(ocrPdfPath)
	}

	taskID := resp.TaskID()
	if taskID == "" {
		return nil, &ResultError{
			Code:    resp.ResultCode,
			Details: resp.ResultDetails,
			Reason:  "accepted response carries no task id",
		}
	}
	log.Info().Str("task_id", taskID).Msg("OCR task accepted, polling for completion")
	return c.Poll(ctx, taskID)
}

// Submit posts a single ocr_pdf request. An unparseable answer is fatal here.
func (c *Client) Submit(ctx context.Context, req *OcrRequest) (*OcrResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ocr request: %w", err)
	}

	raw, err := c.do(ctx, ocrPdfPath, http.MethodPost, ocrPdfPath, nil, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	resp, err := parseResponse(raw)
	if err != nil {
		return nil, &ParseError{Op: ocrPdfPath, Body: string(raw), Err: err}
	}
	return resp, nil
}
