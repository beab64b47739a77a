package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"ekg-backend/application/ports"
	"ekg-backend/domain/config"
	"ekg-backend/domain/core/aggregates"
	"ekg-backend/domain/core/valueobjects"
	"ekg-backend/pkg/observability"
)

// Result states reported in meta.
const (
	StateCompleted = "completed"
	StateFailed    = "failed"
	StatePending   = "pending"
)

// providerStatusCompleted is the generation provider's terminal status.
const providerStatusCompleted = "completed"

// RunOptions tune one pipeline execution. Zero numeric values mean "use the
// configured default". An empty EdgeTypes list admits every edge type.
// Background requests the provider-side async sub-mode.
type RunOptions struct {
	Hops        int
	MaxExpanded int
	MaxQueries  int
	EdgeTypes   []string
	Background  bool
}

// RunRequest is everything one pipeline run needs.
type RunRequest struct {
	Question           string
	Graph              *aggregates.KnowledgeGraph
	DomainID           string
	DomainName         string
	DiscoveryCorpusID  string
	GenerationCorpusID string
	Options            RunOptions
}

// ResultMeta is the diagnostic envelope attached to every result.
type ResultMeta struct {
	State             string                  `json:"state"`
	Degraded          bool                    `json:"degraded_discovery,omitempty"`
	SeedNodeNames     []string                `json:"seed_node_names"`
	SeedNodeIDs       []string                `json:"seed_node_ids"`
	ExpandedNodes     int                     `json:"expanded_nodes"`
	ExpandedEdges     int                     `json:"expanded_edges"`
	KGGuidedQueries   []string                `json:"kg_guided_queries"`
	DiscoveryCorpus   string                  `json:"kg_vectorstore_id,omitempty"`
	GenerationCorpus  string                  `json:"doc_vectorstore_id,omitempty"`
	ResponseID        string                  `json:"response_id,omitempty"`
	BackgroundMode    bool                    `json:"background_mode,omitempty"`
	BackgroundTaskID  string                  `json:"background_task_id,omitempty"`
	BackgroundStatus  string                  `json:"background_status,omitempty"`
	Citations         []valueobjects.Citation `json:"citations,omitempty"`
	DurationMS        int64                   `json:"duration_ms"`
}

// StructuredResult is the pipeline's single response shape. Answer is nil
// only for a pending background run.
type StructuredResult struct {
	Answer           *string                 `json:"answer"`
	Markdown         string                  `json:"markdown"`
	Sources          []valueobjects.Citation `json:"sources"`
	StepbackIntent   string                  `json:"stepback_intent"`
	ExpandedQuestion string                  `json:"expanded_question"`
	BusinessEntities []string                `json:"business_entities"`
	Meta             ResultMeta              `json:"meta"`
}

// AnswerPipeline orchestrates discovery, resolution, expansion, synthesis,
// and grounded generation for one question. Run never returns an error:
// every failure mode degrades into a well-formed result.
type AnswerPipeline struct {
	generation  ports.GenerationService
	resolver    *NameResolver
	expander    *SubgraphExpander
	synthesizer *QuerySynthesizer
	renderer    *KGTextRenderer
	defaults    *config.PipelineConfig
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewAnswerPipeline wires the pipeline stages.
func NewAnswerPipeline(
	generation ports.GenerationService,
	defaults *config.PipelineConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AnswerPipeline {
	return &AnswerPipeline{
		generation:  generation,
		resolver:    NewNameResolver(logger),
		expander:    NewSubgraphExpander(logger),
		synthesizer: NewQuerySynthesizer(logger),
		renderer:    NewKGTextRenderer(),
		defaults:    defaults,
		metrics:     metrics,
		logger:      logger,
	}
}

// Run executes the full pipeline for one question.
func (p *AnswerPipeline) Run(ctx context.Context, req RunRequest) *StructuredResult {
	start := time.Now()
	cfg := p.defaults.WithOverrides(req.Options.Hops, req.Options.MaxExpanded, req.Options.MaxQueries)
	if len(req.Options.EdgeTypes) > 0 {
		cfg.EdgeTypes = req.Options.EdgeTypes
	}

	analysis, degraded := p.discover(ctx, req.Question, req.DiscoveryCorpusID)
	if degraded {
		p.metrics.DiscoveryDegraded.Inc()
	}

	seedIDs := p.resolver.Resolve(analysis.NodeNames, req.Graph)
	sub := p.expander.Expand(req.Graph, seedIDs, cfg)
	queries := p.synthesizer.Synthesize(req.Question, analysis, sub, cfg)
	kgText := p.renderer.Render(sub, cfg)

	meta := ResultMeta{
		Degraded:         degraded,
		SeedNodeNames:    analysis.NodeNames,
		SeedNodeIDs:      seedIDs,
		ExpandedNodes:    len(sub.ExpandedIDs),
		ExpandedEdges:    len(sub.Edges),
		KGGuidedQueries:  queries,
		DiscoveryCorpus:  req.DiscoveryCorpusID,
		GenerationCorpus: req.GenerationCorpusID,
		BackgroundMode:   req.Options.Background,
	}

	prompt := GenerationPrompt(req.DomainName, kgText, queries, req.Question)
	metadata := map[string]string{
		"domain":   req.DomainID,
		"question": truncate(req.Question, 500),
		"kg_nodes": strconv.Itoa(len(sub.ExpandedIDs)),
		"kg_edges": strconv.Itoa(len(sub.Edges)),
	}

	res, err := p.generation.Generate(ctx, prompt, req.GenerationCorpusID, req.Options.Background, metadata)
	if err != nil {
		p.metrics.GenerationErrors.Inc()
		p.logger.Error("generation call failed",
			zap.String("domain", req.DomainID),
			zap.Error(err),
		)
		return p.finish(req, meta, p.failedResult(analysis, meta, err), start)
	}

	meta.ResponseID = res.ID
	if req.Options.Background && res.Status != providerStatusCompleted {
		meta.BackgroundTaskID = res.ID
		meta.BackgroundStatus = res.Status
		return p.finish(req, meta, p.pendingResult(analysis, meta, res), start)
	}

	return p.finish(req, meta, p.completedResult(analysis, meta, res), start)
}

// discover runs the analysis call and absorbs every failure into the
// degraded analysis: the original question in every field, empty lists.
func (p *AnswerPipeline) discover(ctx context.Context, question, corpusID string) (valueobjects.QuestionAnalysis, bool) {
	prompt := DiscoveryPrompt(question)
	res, err := p.generation.Discover(ctx, prompt, corpusID)
	if err != nil {
		p.logger.Warn("node discovery failed, continuing degraded", zap.Error(err))
		return valueobjects.DegradedAnalysis(question), true
	}

	analysis, ok := parseAnalysisPayload(res.OutputText, question)
	if !ok {
		p.logger.Warn("node discovery returned unparseable payload, continuing degraded")
		return valueobjects.DegradedAnalysis(question), true
	}
	return analysis, false
}

func (p *AnswerPipeline) completedResult(analysis valueobjects.QuestionAnalysis, meta ResultMeta, res *ports.InvokeResult) *StructuredResult {
	answer := strings.TrimSpace(res.OutputText)
	stepback := analysis.StepbackQuestion
	expanded := analysis.ExpandedQuestion
	entities := analysis.Entities
	var citations []valueobjects.Citation

	if payload, ok := ParseAnswerPayload(res.OutputText); ok {
		if strings.TrimSpace(payload.Answer) != "" {
			answer = payload.Answer
		}
		if payload.StepbackIntent != "" {
			stepback = payload.StepbackIntent
		}
		if payload.ExpandedQuestion != "" {
			expanded = payload.ExpandedQuestion
		}
		if len(payload.BusinessEntities) > 0 {
			entities = payload.BusinessEntities
		}
		citations = valueobjects.NormalizeCitations(payload.Citations)
	}

	if len(citations) == 0 {
		citations = annotationCitations(res.Annotations)
	}

	answer = AppendSourcesSection(answer, citations)
	meta.State = StateCompleted
	meta.Citations = citations

	return &StructuredResult{
		Answer:           &answer,
		Markdown:         answer,
		Sources:          citations,
		StepbackIntent:   stepback,
		ExpandedQuestion: expanded,
		BusinessEntities: entities,
		Meta:             meta,
	}
}

func (p *AnswerPipeline) pendingResult(analysis valueobjects.QuestionAnalysis, meta ResultMeta, res *ports.InvokeResult) *StructuredResult {
	meta.State = StatePending
	markdown := "Deep answer accepted for background processing.\n\n" +
		"Task ID: `" + res.ID + "`\n\nPoll the status endpoint to retrieve the final answer."

	return &StructuredResult{
		Answer:           nil,
		Markdown:         markdown,
		Sources:          []valueobjects.Citation{},
		StepbackIntent:   analysis.StepbackQuestion,
		ExpandedQuestion: analysis.ExpandedQuestion,
		BusinessEntities: analysis.Entities,
		Meta:             meta,
	}
}

func (p *AnswerPipeline) failedResult(analysis valueobjects.QuestionAnalysis, meta ResultMeta, err error) *StructuredResult {
	meta.State = StateFailed
	answer := "Error generating answer: " + err.Error()

	return &StructuredResult{
		Answer:           &answer,
		Markdown:         "# Error\n\n" + answer,
		Sources:          []valueobjects.Citation{},
		StepbackIntent:   analysis.StepbackQuestion,
		ExpandedQuestion: analysis.ExpandedQuestion,
		BusinessEntities: analysis.Entities,
		Meta:             meta,
	}
}

func (p *AnswerPipeline) finish(req RunRequest, meta ResultMeta, result *StructuredResult, start time.Time) *StructuredResult {
	elapsed := time.Since(start)
	result.Meta.DurationMS = elapsed.Milliseconds()
	p.metrics.QuestionsTotal.WithLabelValues(req.DomainID, result.Meta.State).Inc()
	p.metrics.PipelineDuration.WithLabelValues(req.DomainID).Observe(elapsed.Seconds())
	p.logger.Info("pipeline run finished",
		zap.String("domain", req.DomainID),
		zap.String("state", result.Meta.State),
		zap.Int("seeds", len(meta.SeedNodeIDs)),
		zap.Int("expanded_nodes", meta.ExpandedNodes),
		zap.Int("expanded_edges", meta.ExpandedEdges),
		zap.Int("queries", len(meta.KGGuidedQueries)),
		zap.Duration("elapsed", elapsed),
	)
	return result
}

// annotationCitations is the citation fallback: retrieval annotations are
// promoted to citations, deduplicated on the lowercased source, with
// sequential ids.
func annotationCitations(annotations []ports.Annotation) []valueobjects.Citation {
	out := make([]valueobjects.Citation, 0, len(annotations))
	seen := make(map[string]bool)

	for _, a := range annotations {
		source := a.Filename
		if source == "" {
			source = a.Title
		}
		if source == "" {
			source = a.FileID
		}
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}
		key := strings.ToLower(source)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, valueobjects.Citation{ID: strconv.Itoa(len(out) + 1), Source: source})
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
