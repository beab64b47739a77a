//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"ekg-backend/application/ports"
	"ekg-backend/application/services"
	"ekg-backend/application/tasks"
	"ekg-backend/infrastructure/config"
	"ekg-backend/infrastructure/persistence/sqlite"
	"ekg-backend/interfaces/http/rest"
	"ekg-backend/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Registry  ports.DomainRegistry
	Graphs    ports.GraphProvider
	Answers   *services.AnswerService
	TaskStore *sqlite.TaskStore
	Runner    *tasks.Runner
	Metrics   *observability.Metrics
	Router    *rest.Router
}

// SuperSet is the main provider set.
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideS3Client,
	ProvideDynamoDBClient,
	ProvideArtifactFetcher,
	ProvideDomainRegistry,
	ProvideGraphProvider,
	ProvideGenerationService,
	ProvidePipelineConfig,
	ProvideMetrics,
	ProvidePipeline,
	ProvideAnswerService,
	ProvideTaskStore,
	ProvideTaskStorePort,
	ProvideTaskRunner,
	ProvideJWTValidator,
	ProvideIPLimiter,
	ProvideErrorHandler,
	ProvideAnswerHandler,
	ProvideTaskHandler,
	ProvideDomainHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
