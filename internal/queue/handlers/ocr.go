package handlers

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/mahirjain10/pdf-ocr-worker/internal/metrics"
	"github.com/mahirjain10/pdf-ocr-worker/internal/muhimbi"
	"github.com/mahirjain10/pdf-ocr-worker/internal/pdfinfo"
	queueErrors "github.com/mahirjain10/pdf-ocr-worker/internal/queue/errors"
	"github.com/mahirjain10/pdf-ocr-worker/internal/queue/models"
	"github.com/mahirjain10/pdf-ocr-worker/internal/types"
	"github.com/mahirjain10/pdf-ocr-worker/internal/utils"
	"github.com/rs/zerolog/log"
)

const (
	maxAttempts    = 3
	cleanupTimeout = 90 * time.Second
)

// ObjectStore is the part of aws.S3Service the handler uses.
type ObjectStore interface {
	DownloadFromS3Object(ctx context.Context, key string) ([]byte, error)
	UploadtoS3Object(ctx context.Context, key string, data []byte) (string, error)
	DeleteS3Object(ctx context.Context, key string) (bool, error)
}

// Recognizer runs OCR on a document. *muhimbi.Client satisfies it.
type Recognizer interface {
	OCR(ctx context.Context, content []byte, fileName string, opts muhimbi.Options) (*muhimbi.Result, error)
}

type OCRHandler struct {
	store      ObjectStore
	recognizer Recognizer
	defaults   muhimbi.Options
	retryDelay time.Duration

	cleanups sync.WaitGroup
}

func NewOCRHandler(store ObjectStore, recognizer Recognizer, defaults muhimbi.Options) *OCRHandler {
	return &OCRHandler{
		store:      store,
		recognizer: recognizer,
		defaults:   defaults,
		retryDelay: 2 * time.Second,
	}
}

// Options merges the job's overrides into the worker defaults.
func (h *OCRHandler) Options(job types.OcrJob) muhimbi.Options {
	opts := h.defaults
	if job.Language != "" {
		opts.Language = job.Language
	}
	if job.Performance != "" {
		opts.Performance = job.Performance
	}
	if job.Async != nil {
		opts.Async = *job.Async
	}
	if job.Paginate != nil {
		opts.Paginate = *job.Paginate
	}
	return opts
}

// Handle downloads the raw document, runs OCR on it and uploads the result
// under processed/. The raw object is deleted in the background once the job
// is settled, except when the job is interrupted and will be retried.
func (h *OCRHandler) Handle(ctx context.Context, job types.OcrJob) (*types.OcrOutcome, error) {
	logger := log.With().Str("job_id", job.Id).Str("key", job.S3RawKey).Logger()

	var data []byte
	err := h.retry(ctx, func() error {
		var err error
		data, err = h.store.DownloadFromS3Object(ctx, job.S3RawKey)
		return err
	}, "download")
	if err != nil {
		if interrupted(ctx, err) {
			return nil, cancelled(err)
		}
		h.fireBackgroundCleanup(ctx, job.S3RawKey)
		return nil, models.ProcessingError{Err: fmt.Errorf("download failed for key %s: %w", job.S3RawKey, err), Reason: queueErrors.ErrDownload}
	}

	fileName := job.FileName
	if fileName == "" {
		fileName = path.Base(job.S3RawKey)
	}

	result, err := h.recognizer.OCR(ctx, data, fileName, h.Options(job))
	if err != nil {
		if interrupted(ctx, err) {
			metrics.RecordOCR("cancelled", 0)
			return nil, cancelled(err)
		}
		metrics.RecordOCR("failed", 0)
		h.fireBackgroundCleanup(ctx, job.S3RawKey)
		return nil, models.ProcessingError{Err: fmt.Errorf("ocr failed for key %s: %w", job.S3RawKey, err), Reason: queueErrors.ErrOCR}
	}

	outcome := &types.OcrOutcome{}
	if info, err := pdfinfo.Inspect(result.Content); err != nil {
		logger.Warn().Err(err).Msg("could not inspect processed document")
	} else {
		outcome.Pages = info.Pages
		outcome.TextLength = len(info.Text)
		if !info.HasText() {
			logger.Warn().Int("pages", info.Pages).Msg("processed document has no text layer")
		}
	}
	metrics.RecordOCR("success", outcome.Pages)

	outcome.ProcessedKey, err = utils.ProcessedKey(job.S3RawKey, result.BaseFileName)
	if err != nil {
		return nil, models.ProcessingError{Err: err, Reason: queueErrors.ErrUpload}
	}

	err = h.retry(ctx, func() error {
		var err error
		outcome.PublicURL, err = h.store.UploadtoS3Object(ctx, outcome.ProcessedKey, result.Content)
		return err
	}, "upload")
	if err != nil {
		if interrupted(ctx, err) {
			return nil, cancelled(err)
		}
		h.fireBackgroundCleanup(ctx, job.S3RawKey)
		return nil, models.ProcessingError{Err: fmt.Errorf("upload failed for key %s: %w", outcome.ProcessedKey, err), Reason: queueErrors.ErrUpload}
	}

	h.fireBackgroundCleanup(ctx, job.S3RawKey)
	return outcome, nil
}

// Wait blocks until every background cleanup has finished.
func (h *OCRHandler) Wait() {
	h.cleanups.Wait()
}

func (h *OCRHandler) retry(ctx context.Context, fn func() error, op string) error {
	var err error
	for i := 0; i < maxAttempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		log.Warn().Err(err).Int("attempt", i+1).Str("op", op).Msg("s3 operation failed")
		if ctx.Err() != nil {
			return err
		}
		if i < maxAttempts-1 {
			t := time.NewTimer(h.retryDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return err
			case <-t.C:
			}
		}
	}
	return err
}

func (h *OCRHandler) fireBackgroundCleanup(parentCtx context.Context, s3Key string) {
	h.cleanups.Add(1)
	go func() {
		defer h.cleanups.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parentCtx), cleanupTimeout)
		defer cancel()

		if err := utils.DeleteS3Object(ctx, h.store, s3Key); err != nil {
			log.Error().Err(err).Msg("[bg-cleanup] error while deleting raw object")
		}
	}()
}

func interrupted(ctx context.Context, err error) bool {
	var cancelledErr *muhimbi.CancelledError
	return ctx.Err() != nil || errors.As(err, &cancelledErr) || errors.Is(err, context.Canceled)
}

func cancelled(err error) error {
	return models.ProcessingError{Err: err, Requeue: true, Reason: queueErrors.ErrCancelled}
}
