package cli

import (
	"fmt"

	"github.com/mahirjain10/pdf-ocr-worker/config"
	"github.com/mahirjain10/pdf-ocr-worker/internal/aws"
	"github.com/mahirjain10/pdf-ocr-worker/internal/metrics"
	"github.com/mahirjain10/pdf-ocr-worker/internal/queue"
	"github.com/mahirjain10/pdf-ocr-worker/internal/queue/handlers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWorkerCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume OCR jobs from RabbitMQ",
		Long: `Consume OCR jobs from RABBITMQ_QUEUE. Each job names a raw PDF in
AWS_BUCKET_NAME; the searchable result is stored under processed/ and the job
status is published on the ocr_processing exchange.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cfg.ValidateWorker(); err != nil {
				return err
			}

			awsConfig, err := config.InitializeAws(ctx, cfg.Worker.AwsRegion)
			if err != nil {
				return fmt.Errorf("failed to initialize AWS config: %w", err)
			}
			s3Service := aws.NewS3Service(aws.NewS3Client(awsConfig), cfg.Worker.AwsBucketName)

			client, err := newClient(cfg.OCR)
			if err != nil {
				return err
			}
			defer client.Close()

			conn, err := queue.NewRabbitMQClient(cfg.Worker.RabbitMqURL)
			if err != nil {
				return err
			}

			metrics.StartMetricsServer(ctx, cfg.Worker.MetricsAddr)

			handler := handlers.NewOCRHandler(s3Service, client, ocrOptions(cfg.OCR))
			rabbitMqService := queue.NewRabbitMqService(cfg, conn, handler, nil)

			log.Info().
				Str("version", Version).
				Str("queue", cfg.Worker.RabbitMqQueue).
				Int("workers", cfg.Worker.WorkerCount).
				Msg("starting OCR worker")

			err = rabbitMqService.Start(ctx)
			handler.Wait()
			return err
		},
	}
}
