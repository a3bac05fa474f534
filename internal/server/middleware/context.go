package middleware

import (
	"context"

	"github.com/necronomicon/backend/internal/queue"
	"github.com/necronomicon/backend/internal/storage"
	"github.com/necronomicon/backend/pkg/annotation"
	"github.com/necronomicon/backend/pkg/store"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	UserID      int64
	Role        string
	Permissions []string
}

// FeatureSource returns the label catalogue of the annotation service.
type FeatureSource interface {
	Features(ctx context.Context) (*annotation.Features, error)
}

// Estimator predicts how long a queued document will take, in milliseconds.
type Estimator interface {
	PredictProcessingTime(ctx context.Context, statType string, amount int64) (int64, error)
}

type App struct {
	Pipeline queue.Pipeline
	Features FeatureSource
	Store    store.DocumentStorage
	Blobs    storage.Blobs
	Queue    queue.Publisher
	Timing   Estimator
	// Key validates JWTs. Without it only the master API key is accepted.
	Key keyfunc.Keyfunc

	MasterAPIKey   string
	MasterUserID   int64
	MasterUserRole string

	MaxDocumentBytes int
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
