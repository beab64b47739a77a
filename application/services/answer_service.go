package services

import (
	"context"

	"go.uber.org/zap"

	"ekg-backend/application/ports"
)

// AskInput is one question against one domain.
type AskInput struct {
	Question string
	DomainID string

	// VectorStoreID overrides the domain's document corpus for this request.
	VectorStoreID string

	Options RunOptions
}

// AnswerService resolves a question's domain, obtains its graph, and runs the
// pipeline. It is the single entry point shared by the synchronous handler
// and the background task runner.
type AnswerService struct {
	registry ports.DomainRegistry
	graphs   ports.GraphProvider
	pipeline *AnswerPipeline
	logger   *zap.Logger
}

// NewAnswerService creates the answer service.
func NewAnswerService(
	registry ports.DomainRegistry,
	graphs ports.GraphProvider,
	pipeline *AnswerPipeline,
	logger *zap.Logger,
) *AnswerService {
	return &AnswerService{
		registry: registry,
		graphs:   graphs,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Answer runs the pipeline for one question. Errors are returned only for
// request-level problems (unknown domain, unloadable graph); pipeline
// degradation is folded into the result per the pipeline's contract.
func (s *AnswerService) Answer(ctx context.Context, input AskInput) (*StructuredResult, error) {
	domain, err := s.registry.Get(input.DomainID)
	if err != nil {
		return nil, err
	}

	graph, err := s.graphs.Graph(ctx, domain.ID)
	if err != nil {
		return nil, err
	}

	generationCorpus := domain.DocCorpusID
	if input.VectorStoreID != "" {
		generationCorpus = input.VectorStoreID
	}
	discoveryCorpus := domain.KGCorpusID
	if discoveryCorpus == "" {
		discoveryCorpus = generationCorpus
	}

	opts := input.Options
	if opts.Hops == 0 {
		opts.Hops = domain.Hops
	}
	if opts.MaxExpanded == 0 {
		opts.MaxExpanded = domain.MaxExpanded
	}
	if opts.MaxQueries == 0 {
		opts.MaxQueries = domain.MaxQueries
	}
	if len(opts.EdgeTypes) == 0 {
		opts.EdgeTypes = domain.EdgeTypes
	}

	s.logger.Debug("running answer pipeline",
		zap.String("domain", domain.ID),
		zap.Bool("background", opts.Background),
	)

	result := s.pipeline.Run(ctx, RunRequest{
		Question:           input.Question,
		Graph:              graph,
		DomainID:           domain.ID,
		DomainName:         domain.Name,
		DiscoveryCorpusID:  discoveryCorpus,
		GenerationCorpusID: generationCorpus,
		Options:            opts,
	})
	return result, nil
}
