package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_jobs_total",
			Help: "Total number of OCR jobs by final status",
		},
		[]string{"queue", "status"},
	)

	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ocr_job_duration_seconds",
			Help:    "OCR job duration in seconds, download to status publish",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		},
		[]string{"queue"},
	)

	OCRRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_requests_total",
			Help: "Total number of OCR service calls by outcome",
		},
		[]string{"outcome"},
	)

	PagesProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ocr_pages_processed_total",
			Help: "Total number of pages in successfully processed documents",
		},
	)
)

func init() {
	prometheus.MustRegister(
		JobsTotal,
		JobDuration,
		OCRRequestsTotal,
		PagesProcessed,
	)
}

// StartMetricsServer serves /metrics on addr until ctx is done.
func StartMetricsServer(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// RecordJob records the final status of one job.
func RecordJob(queue, status string, duration time.Duration) {
	JobsTotal.WithLabelValues(queue, status).Inc()
	JobDuration.WithLabelValues(queue).Observe(duration.Seconds())
}

func RecordOCR(outcome string, pages int) {
	OCRRequestsTotal.WithLabelValues(outcome).Inc()
	if pages > 0 {
		PagesProcessed.Add(float64(pages))
	}
}
