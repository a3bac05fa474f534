package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/necronomicon/backend/internal/db"
	"github.com/necronomicon/backend/internal/queue"
	"github.com/necronomicon/backend/internal/storage"
	"github.com/necronomicon/backend/internal/timing"
	"github.com/necronomicon/backend/internal/util"
	"github.com/necronomicon/backend/pkg/annotation"
	"github.com/necronomicon/backend/pkg/graph"
	"github.com/necronomicon/backend/pkg/leaselock"
	"github.com/necronomicon/backend/pkg/logger"
	storepgx "github.com/necronomicon/backend/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	util.LoadEnv()
	util.SetupLogger("worker")
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init s3 client
	bucket := util.GetEnv("AWS_BUCKET")
	s3, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Could not create S3 client", "err", err)
	}

	// Annotation client
	nlp, err := annotation.NewClient(annotation.NewClientParams{
		BaseURL:               util.GetEnv("NLP_SERVICE_URL"),
		ApiKey:                util.GetEnv("NLP_SERVICE_KEY"),
		Timeout:               util.GetEnvSeconds("NLP_TIMEOUT_SECONDS", 60*time.Second),
		MaxConcurrentRequests: int64(util.GetEnvInt("NLP_PARALLEL_REQ", 4)),
	})
	if err != nil {
		logger.Fatal("Could not create annotation client", "err", err)
	}

	// Init pgx client
	dbURL := util.GetEnv("DATABASE_URL")
	if err := db.Migrate(util.GetEnvString("MIGRATIONS_PATH", "migrations"), dbURL); err != nil {
		logger.Fatal("Failed to migrate database", "err", err)
	}
	pgConn, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	processor := &queue.DocumentProcessor{
		Pipeline: graph.NewGraphClient(graph.NewGraphClientParams{
			Annotator:     nlp,
			ParallelEdges: util.GetEnvInt("GRAPH_PARALLEL_EDGES", 4),
			BatchSize:     util.GetEnvInt("GRAPH_BATCH_SIZE", 4096),
		}),
		Store:  storepgx.NewDocumentDBStorageWithConnection(pgConn),
		Blobs:  storage.NewS3Blobs(s3, bucket),
		Locker: leaselock.New(pgConn),
		Stats:  timing.NewRecorder(pgConn),
	}

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.DocumentQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// One message at a time; the graph build already fans out internally.
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := ch.Consume(
		queue.DocumentQueue,
		queue.DocumentQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.DocumentQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.DocumentQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.DocumentQueue)
				return
			}

			startTime := time.Now()
			logger.Info("Received message", "queue", queue.DocumentQueue, "retries", queue.RetryCount(msg.Headers))

			if err := processor.ProcessDocumentMessage(ctx, msg.Body); err != nil {
				logger.Error("Error processing message", "queue", queue.DocumentQueue, "err", err)
				queue.HandleProcessingError(ch, msg, queue.DocumentQueue, err)
			} else {
				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack message", "err", err)
				}
				logger.Info("Message processed successfully", "queue", queue.DocumentQueue)
			}

			metrics := nlp.GetMetrics()
			logger.Info(
				"Annotation Metrics",
				"requests", metrics.Requests,
				"failures", metrics.Failures,
				"tokens", metrics.Tokens,
				"duration", formatDuration(time.Duration(metrics.DurationMs)*time.Millisecond),
			)
			logger.Info("Processing time", "duration", formatDuration(time.Since(startTime)))
			logger.Info("Waiting for next message")
			nlp.ResetMetrics()
		}
	}
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
