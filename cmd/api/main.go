package main

import (
	"context"

	appcontext "github.com/SeakMengs/AutoSign/internal/app_context"
	"github.com/SeakMengs/AutoSign/internal/config"
	"github.com/SeakMengs/AutoSign/internal/controller"
	"github.com/SeakMengs/AutoSign/internal/database"
	"github.com/SeakMengs/AutoSign/internal/env"
	filestorage "github.com/SeakMengs/AutoSign/internal/file_storage"
	"github.com/SeakMengs/AutoSign/internal/middleware"
	"github.com/SeakMengs/AutoSign/internal/notifier"
	ratelimiter "github.com/SeakMengs/AutoSign/internal/rate_limiter"
	"github.com/SeakMengs/AutoSign/internal/repository"
	"github.com/SeakMengs/AutoSign/internal/route"
	"github.com/SeakMengs/AutoSign/internal/util"
	"github.com/SeakMengs/AutoSign/internal/workflow"
	"github.com/SeakMengs/AutoSign/pkg/autosign"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func newStore(cfg config.Config, logger *zap.SugaredLogger) (repository.Store, func(), error) {
	switch cfg.Store {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory store, templates are lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	case config.StoreDriverDynamoDB:
		store, err := repository.NewDynamoDBStore(context.Background(), cfg.DynamoDB, logger)
		return store, func() {}, err
	default:
		db, err := database.ConnectReturnGormDB(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		sqlDb, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Database connected \n")
		return repository.NewPostgresStore(db, logger), func() { sqlDb.Close() }, nil
	}
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	logger.Debugf("Configuration: %+v \n", cfg)

	store, closeStore, err := newStore(cfg, logger)
	if err != nil {
		logger.Panic(err)
	}
	defer closeStore()

	// Custom validation
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidators(v); err != nil {
			logger.Panic(err)
		}
	}

	compositor, err := autosign.NewCompositor(&autosign.Config{
		FontMetadataPath: cfg.Autosign.FontMetadataPath,
		FontName:         cfg.Autosign.FontName,
		TmpDir:           cfg.Autosign.TmpDir,
		Attestation: autosign.AttestationConfig{
			Enabled:      cfg.Autosign.AttestationEnabled,
			Reason:       cfg.Autosign.AttestationReason,
			Organization: cfg.Autosign.AttestationOrg,
			Locality:     cfg.Autosign.AttestationLocality,
			Country:      cfg.Autosign.AttestationCountry,
		},
	})
	if err != nil {
		logger.Panic(err)
	}

	var publisher notifier.Publisher = notifier.NoopPublisher{}
	if cfg.Nats.URL != "" {
		np, err := notifier.NewNatsPublisher(cfg.Nats.URL, cfg.Nats.SUBJECT, logger)
		if err != nil {
			logger.Error("Error connecting to nats")
			logger.Panic(err)
		}
		publisher = np
	}
	defer publisher.Close()

	repo := repository.NewRepository(store, logger)
	opts := []workflow.Option{
		workflow.WithPublisher(publisher),
		workflow.WithPublicURL(cfg.PublicURL),
	}

	app := appcontext.Application{
		Config:   &cfg,
		Logger:   logger,
		Notifier: publisher,
	}

	if cfg.Minio.Enabled() {
		s3, err := filestorage.NewMinioClient(cfg.Minio)
		if err != nil {
			logger.Error("Error connecting to minio")
			logger.Panic(err)
		}
		app.S3 = s3
		opts = append(opts, workflow.WithExporter(filestorage.NewExporter(s3, cfg.Minio.BUCKET, cfg.Autosign.ExportPresignExpiry, logger)))
	}

	app.Workflow = workflow.NewService(repo, compositor, logger, opts...)

	rateLimiter := ratelimiter.NewRateLimiter(cfg.RateLimiter, logger)
	_middleware := middleware.NewMiddleware(&app, rateLimiter)

	if cfg.IsProduction() {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.MaxMultipartMemory = cfg.Autosign.MaxUploadSize

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	r.Use(cors.New(corsConfig))
	r.Use(_middleware.RateLimiterMiddleware)

	_controller := controller.NewController(&app)

	r.GET("/", _controller.Index.Index)

	rApi := r.Group("/api")

	route.V1_Templates(rApi, _controller.Template, _controller.Builder)
	route.V1_Sign(rApi, _controller.Signing)

	if err := r.Run("0.0.0.0:" + app.Config.Port); err != nil {
		logger.Panicf("Error running server: %v \n", err)
	}
}
