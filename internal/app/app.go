package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/autoprovider/fileparse/internal/config"
	db "github.com/autoprovider/fileparse/internal/core/database"
	"github.com/autoprovider/fileparse/internal/core/ingestion_engine"
	objectclient "github.com/autoprovider/fileparse/internal/core/object-client"
	"github.com/autoprovider/fileparse/internal/core/vision"
)

type App struct {
	DBClient     *db.DatabaseClient
	ObjectClient *objectclient.S3Client
	Pipeline     *ingestion_engine.Pipeline
	Server       *Server
}

func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	log.Info("object storage client ready")

	describer, err := vision.NewOpenAIDescriber(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("vision describer: %w", err)
	}

	converter := ingestion_engine.NewEngineConverter(log)

	limits := ingestion_engine.DefaultLimits()
	limits.MaxFiles = cfg.MaxFilesPerRequest
	limits.MinFileSize = cfg.MinFileSize
	limits.MaxFileSize = cfg.MaxFileSize

	pipeline := ingestion_engine.NewPipeline(dbClient, objClient, describer, converter, limits, log)

	server := NewServer(cfg, dbClient, objClient, pipeline, log)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		Pipeline:     pipeline,
		Server:       server,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
