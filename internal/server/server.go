package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/necronomicon/backend/internal/db"
	"github.com/necronomicon/backend/internal/queue"
	mid "github.com/necronomicon/backend/internal/server/middleware"
	"github.com/necronomicon/backend/internal/storage"
	"github.com/necronomicon/backend/internal/timing"
	"github.com/necronomicon/backend/internal/util"
	"github.com/necronomicon/backend/pkg/annotation"
	"github.com/necronomicon/backend/pkg/graph"
	"github.com/necronomicon/backend/pkg/logger"
	storepgx "github.com/necronomicon/backend/pkg/store/pgx"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New returns an echo instance serving the document API for app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	// JSON escaping can grow the body beyond the content limit.
	if app.MaxDocumentBytes > 0 {
		e.Use(middleware.BodyLimit(strconv.Itoa(2*app.MaxDocumentBytes/1024+1) + "K"))
	}

	RegisterRoutes(e)
	return e
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nlp, err := annotation.NewClient(annotation.NewClientParams{
		BaseURL:               util.GetEnv("NLP_SERVICE_URL"),
		ApiKey:                util.GetEnv("NLP_SERVICE_KEY"),
		Timeout:               util.GetEnvSeconds("NLP_TIMEOUT_SECONDS", 60*time.Second),
		MaxConcurrentRequests: int64(util.GetEnvInt("NLP_PARALLEL_REQ", 4)),
	})
	if err != nil {
		logger.Fatal("Failed to create annotation client", "err", err)
	}

	app := &mid.App{
		Pipeline: graph.NewGraphClient(graph.NewGraphClientParams{
			Annotator:     nlp,
			ParallelEdges: util.GetEnvInt("GRAPH_PARALLEL_EDGES", 4),
			BatchSize:     util.GetEnvInt("GRAPH_BATCH_SIZE", 4096),
		}),
		Features:         nlp,
		MasterAPIKey:     util.GetEnv("MASTER_API_KEY"),
		MasterUserRole:   util.GetEnv("MASTER_USER_ROLE"),
		MaxDocumentBytes: util.GetEnvInt("MAX_DOCUMENT_BYTES", 10<<20),
	}
	app.MasterUserID, _ = strconv.ParseInt(util.GetEnv("MASTER_USER_ID"), 10, 64)

	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefaultCtx(ctx, []string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Key = k
	}

	if dbURL := util.GetEnv("DATABASE_URL"); dbURL != "" {
		if err := db.Migrate(util.GetEnvString("MIGRATIONS_PATH", "migrations"), dbURL); err != nil {
			logger.Fatal("Failed to migrate database", "err", err)
		}
		conn, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", "err", err)
		}
		defer conn.Close()
		app.Store = storepgx.NewDocumentDBStorageWithConnection(conn)
		app.Timing = timing.NewRecorder(conn)
	} else {
		logger.Warn("DATABASE_URL not set, documents will not be stored")
	}

	if util.GetEnv("RABBITMQ_HOST") != "" {
		que := queue.Init()
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		if err := queue.SetupQueues(ch, []string{queue.DocumentQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		app.Queue = ch
	}

	if bucket := util.GetEnv("AWS_BUCKET"); bucket != "" {
		s3, err := storage.NewS3Client(ctx)
		if err != nil {
			logger.Fatal("Failed to create S3 client", "err", err)
		}
		app.Blobs = storage.NewS3Blobs(s3, bucket)
	}

	e := New(app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
