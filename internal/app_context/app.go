package appcontext

import (
	"github.com/SeakMengs/AutoSign/internal/config"
	"github.com/SeakMengs/AutoSign/internal/notifier"
	"github.com/SeakMengs/AutoSign/internal/workflow"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	Logger *zap.SugaredLogger

	// Workflow runs setup, signing and lifecycle operations on templates.
	Workflow *workflow.Service

	// Notifier publishes activity events, a no-op when NATS is not configured.
	Notifier notifier.Publisher

	// S3 is nil unless object storage export is configured.
	S3 *minio.Client
}
