package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "planmatch-backend/internal/auth"
	"planmatch-backend/internal/bidrequests"
	"planmatch-backend/internal/bids"
	"planmatch-backend/internal/llm"
	openai "planmatch-backend/internal/llm/openai"
	"planmatch-backend/internal/matching"
	"planmatch-backend/internal/notifications"
	"planmatch-backend/internal/plans"
	"planmatch-backend/internal/shared/config"
	"planmatch-backend/internal/shared/server"
	"planmatch-backend/internal/shared/storage/db"
	"planmatch-backend/internal/shared/storage/object"
	localstore "planmatch-backend/internal/shared/storage/object/local"
	s3store "planmatch-backend/internal/shared/storage/object/s3"
	"planmatch-backend/internal/shared/telemetry"
	"planmatch-backend/internal/usage"
	"planmatch-backend/internal/users"
)

// App holds the wired dependencies behind the HTTP server.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	PlanService         *plans.Service
	UsageService        *usage.Service
	MatchService        *matching.Service
	NotificationService *notifications.Service
	BidRequestService   *bidrequests.Service
	BidService          *bids.Service
	UserService         *users.Service

	PlanHandler         *plans.Handler
	MatchHandler        *matching.Handler
	BidRequestHandler   *bidrequests.Handler
	BidHandler          *bids.Handler
	NotificationHandler *notifications.Handler
	UsageHandler        *usage.Handler
	UserHandler         *users.Handler
	GoogleAuth          *googleauth.GoogleService
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              app.Config,
		PlanHandler:         app.PlanHandler,
		MatchHandler:        app.MatchHandler,
		BidRequestHandler:   app.BidRequestHandler,
		BidHandler:          app.BidHandler,
		NotificationHandler: app.NotificationHandler,
		UsageHandler:        app.UsageHandler,
		UserHandler:         app.UserHandler,
		GoogleAuth:          app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap: DATABASE_URL empty; using in-memory repositories", nil)
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap: database connect failed; using in-memory repositories", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap: migrations failed; using in-memory repositories", map[string]any{"error": err.Error()})
			sqlDB.Close()
			return nil, nil
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// buildLLMClient picks the configured provider. In dev a missing API key
// falls back to the placeholder so the rest of the app stays usable.
func buildLLMClient(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" {
		return llm.PlaceholderClient{}, nil
	}
	client, err := openai.New(cfg.LLMModel)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap: openai client unavailable; using placeholder", map[string]any{"error": err.Error()})
			return llm.PlaceholderClient{}, nil
		}
		return nil, err
	}
	return client, nil
}

func buildServices(app *App) error {
	var (
		planRepo    plans.Repository
		matchRepo   matching.Repository
		usageRepo   usage.Repository
		notifyRepo  notifications.Repository
		requestRepo bidrequests.Repository
		bidRepo     bids.Repository
		userRepo    users.Repository
	)

	if app.DB != nil {
		planRepo = plans.NewPGRepository(app.DB)
		matchRepo = matching.NewPGRepository(app.DB)
		usageRepo = usage.NewPGRepository(app.DB)
		notifyRepo = notifications.NewPGRepository(app.DB)
		requestRepo = bidrequests.NewPGRepository(app.DB)
		bidRepo = bids.NewPGRepository(app.DB)
		userRepo = users.NewPGRepository(app.DB)
	} else {
		planRepo = plans.NewMemoryRepository()
		matchRepo = matching.NewMemoryRepository()
		usageRepo = usage.NewMemoryRepository()
		notifyRepo = notifications.NewMemoryRepository()
		requestRepo = bidrequests.NewMemoryRepository()
		bidRepo = bids.NewMemoryRepository()
		userRepo = users.NewMemoryRepository()
	}

	cfg := app.Config
	planSvc := plans.NewService(planRepo, app.Store, plans.IngestConfig{
		MaxFiles:         cfg.MaxPlanFiles,
		MaxFileSizeBytes: int64(cfg.MaxPlanFileMB) << 20,
		AllowedTypes:     cfg.AllowedPlanTypes,
	})
	usageSvc := usage.NewService(usageRepo)
	notifySvc := notifications.NewService(notifyRepo)

	llmClient, err := buildLLMClient(cfg)
	if err != nil {
		return err
	}

	matchSvc := matching.NewService(matchRepo, planSvc, llmClient, usageSvc, cfg.MatchDelay, cfg.LLMProvider, cfg.LLMModel)
	requestSvc := bidrequests.NewService(requestRepo, planSvc, notifySvc, cfg.BiddingWindow)
	bidSvc := bids.NewService(bidRepo, requestSvc, notifySvc)
	userSvc := users.NewService(userRepo)

	app.PlanService = planSvc
	app.UsageService = usageSvc
	app.MatchService = matchSvc
	app.NotificationService = notifySvc
	app.BidRequestService = requestSvc
	app.BidService = bidSvc
	app.UserService = userSvc

	app.PlanHandler = plans.NewHandler(planSvc)
	app.MatchHandler = matching.NewHandler(matchSvc)
	app.BidRequestHandler = bidrequests.NewHandler(requestSvc)
	app.BidHandler = bids.NewHandler(bidSvc)
	app.NotificationHandler = notifications.NewHandler(notifySvc)
	app.UsageHandler = usage.NewHandler(usageSvc)
	app.UserHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		userSvc,
	)

	return nil
}
