package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"ekg-backend/application/ports"
	"ekg-backend/application/services"
	"ekg-backend/application/tasks"
	domaincfg "ekg-backend/domain/config"
	"ekg-backend/infrastructure/config"
	"ekg-backend/infrastructure/domains"
	"ekg-backend/infrastructure/kg"
	"ekg-backend/infrastructure/llm"
	"ekg-backend/infrastructure/persistence/sqlite"
	"ekg-backend/interfaces/http/rest"
	"ekg-backend/interfaces/http/rest/handlers"
	"ekg-backend/interfaces/http/rest/middleware"
	"ekg-backend/pkg/auth"
	pkgerrors "ekg-backend/pkg/errors"
	"ekg-backend/pkg/observability"
)

// ProvideLogger creates the process logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig loads the default AWS configuration.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideS3Client creates an S3 client for graph artifacts.
func ProvideS3Client(awsCfg aws.Config) *awss3.Client {
	return awss3.NewFromConfig(awsCfg)
}

// ProvideDynamoDBClient creates a DynamoDB client for distributed quotas.
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideArtifactFetcher creates the graph artifact reader.
func ProvideArtifactFetcher(client *awss3.Client, logger *zap.Logger) kg.ArtifactFetcher {
	return kg.NewArtifactStore(client, logger)
}

// ProvideDomainRegistry loads the domain catalog.
func ProvideDomainRegistry(cfg *config.Config) (ports.DomainRegistry, error) {
	return domains.NewRegistryFromConfig(cfg)
}

// ProvideGraphProvider creates the lazy graph cache.
func ProvideGraphProvider(registry ports.DomainRegistry, fetcher kg.ArtifactFetcher, logger *zap.Logger) ports.GraphProvider {
	return kg.NewGraphCache(registry, fetcher, logger)
}

// ProvideGenerationService creates the model client.
func ProvideGenerationService(cfg *config.Config, logger *zap.Logger) ports.GenerationService {
	return llm.NewClient(llm.Config{
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		DiscoveryModel:  cfg.DiscoveryModel,
		GenerationModel: cfg.GenerationModel,
	}, logger)
}

// ProvidePipelineConfig supplies the pipeline defaults.
func ProvidePipelineConfig() *domaincfg.PipelineConfig {
	return domaincfg.DefaultPipelineConfig()
}

// ProvideMetrics creates the metrics registry.
func ProvideMetrics(cfg *config.Config) *observability.Metrics {
	return observability.NewMetrics("ekg")
}

// ProvidePipeline wires the answer pipeline stages.
func ProvidePipeline(
	generation ports.GenerationService,
	defaults *domaincfg.PipelineConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.AnswerPipeline {
	return services.NewAnswerPipeline(generation, defaults, metrics, logger)
}

// ProvideAnswerService creates the question entry point.
func ProvideAnswerService(
	registry ports.DomainRegistry,
	graphs ports.GraphProvider,
	pipeline *services.AnswerPipeline,
	logger *zap.Logger,
) *services.AnswerService {
	return services.NewAnswerService(registry, graphs, pipeline, logger)
}

// ProvideTaskStore opens the SQLite task database.
func ProvideTaskStore(cfg *config.Config, logger *zap.Logger) (*sqlite.TaskStore, error) {
	return sqlite.NewTaskStore(cfg.TaskDBPath, logger)
}

// ProvideTaskStorePort exposes the store behind its port.
func ProvideTaskStorePort(store *sqlite.TaskStore) ports.TaskStore {
	return store
}

// ProvideTaskRunner creates the background worker pool. Each task replays the
// stored question through the regular answer path with the overrides it was
// submitted with.
func ProvideTaskRunner(
	store ports.TaskStore,
	answers *services.AnswerService,
	cfg *config.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *tasks.Runner {
	execute := func(ctx context.Context, task *ports.TaskRecord) (*services.StructuredResult, error) {
		return answers.Answer(ctx, services.AskInput{
			Question:      task.Question,
			DomainID:      task.Domain,
			VectorStoreID: task.VectorStoreID,
			Options: services.RunOptions{
				Hops:        task.Params.Hops,
				MaxExpanded: task.Params.MaxExpanded,
				MaxQueries:  task.Params.MaxQueries,
				EdgeTypes:   task.Params.EdgeTypes,
				Background:  task.Params.Background,
			},
		})
	}
	return tasks.NewRunner(store, execute, cfg.TaskWorkers, metrics, logger)
}

// ProvideJWTValidator creates the token validator.
func ProvideJWTValidator(cfg *config.Config) *auth.JWTValidator {
	return auth.NewJWTValidator(auth.JWTConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
	})
}

// ProvideIPLimiter picks the quota backend. With a rate limit table the quota
// is shared across replicas through DynamoDB, otherwise it is in-process.
func ProvideIPLimiter(client *awsdynamodb.Client, cfg *config.Config) middleware.KeyLimiter {
	if cfg.RateLimitTable != "" {
		return auth.NewDistributedRateLimiter(
			client,
			cfg.RateLimitTable,
			cfg.RequestsPerMinute,
			time.Minute,
			"IP",
		)
	}
	return auth.NewIPRateLimiter(cfg.RequestsPerMinute)
}

// ProvideErrorHandler creates the shared HTTP error responder.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideAnswerHandler creates the question endpoint handler.
func ProvideAnswerHandler(
	answers *services.AnswerService,
	store ports.TaskStore,
	runner *tasks.Runner,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *handlers.AnswerHandler {
	return handlers.NewAnswerHandler(answers, store, runner, errorHandler, logger)
}

// ProvideTaskHandler creates the task endpoint handler.
func ProvideTaskHandler(store ports.TaskStore, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.TaskHandler {
	return handlers.NewTaskHandler(store, errorHandler, logger)
}

// ProvideDomainHandler creates the domain catalog handler.
func ProvideDomainHandler(
	registry ports.DomainRegistry,
	graphs ports.GraphProvider,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *handlers.DomainHandler {
	return handlers.NewDomainHandler(registry, graphs, errorHandler, logger)
}

// ProvideRouter assembles the HTTP router.
func ProvideRouter(
	cfg *config.Config,
	answers *handlers.AnswerHandler,
	taskHandler *handlers.TaskHandler,
	domainHandler *handlers.DomainHandler,
	validator *auth.JWTValidator,
	ipLimiter middleware.KeyLimiter,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(cfg, answers, taskHandler, domainHandler, validator, ipLimiter, metrics, logger)
}

// WarmPrimaryDomain eagerly loads the first configured domain's graph so the
// first question does not pay the artifact fetch. Failures are logged, not
// fatal; the graph loads lazily on first use instead.
func WarmPrimaryDomain(ctx context.Context, registry ports.DomainRegistry, graphs ports.GraphProvider, logger *zap.Logger) {
	list := registry.List()
	if len(list) == 0 {
		return
	}
	primary := list[0]
	if primary.KGPath == "" {
		return
	}
	if _, err := graphs.Graph(ctx, primary.ID); err != nil {
		logger.Warn("primary domain graph warmup failed",
			zap.String("domain", primary.ID),
			zap.Error(err),
		)
		return
	}
	logger.Info(fmt.Sprintf("primary domain %q warmed", primary.ID))
}
