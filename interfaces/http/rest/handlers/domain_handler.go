package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ekg-backend/application/ports"
	"ekg-backend/pkg/common"
	pkgerrors "ekg-backend/pkg/errors"
)

// DomainView describes one queryable domain. Graph figures are reported only
// when the graph has already been loaded; listing domains never forces a load.
type DomainView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	KGLoaded    bool   `json:"kg_loaded"`
	KGNodes     int    `json:"kg_nodes,omitempty"`
	KGEdges     int    `json:"kg_edges,omitempty"`
}

// DomainHandler serves the domain catalog.
type DomainHandler struct {
	registry ports.DomainRegistry
	graphs   ports.GraphProvider
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewDomainHandler creates the handler.
func NewDomainHandler(registry ports.DomainRegistry, graphs ports.GraphProvider, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *DomainHandler {
	return &DomainHandler{registry: registry, graphs: graphs, errors: errorHandler, logger: logger}
}

// List handles GET /domains.
func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	domains := h.registry.List()
	views := make([]DomainView, 0, len(domains))
	for _, d := range domains {
		views = append(views, h.view(d))
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"domains": views,
		"count":   len(views),
	})
}

// Get handles GET /domains/{domainID}.
func (h *DomainHandler) Get(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	domain, err := h.registry.Get(domainID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, h.view(domain))
}

// Warm handles POST /domains/{domainID}/warm. It loads the graph eagerly so
// the first question does not pay the load latency.
func (h *DomainHandler) Warm(w http.ResponseWriter, r *http.Request) {
	domainID := chi.URLParam(r, "domainID")
	graph, err := h.graphs.Graph(r.Context(), domainID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.logger.Info("domain graph warmed",
		zap.String("domain", graph.DomainID()),
		zap.Int("nodes", graph.NodeCount()),
	)
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"domain":   graph.DomainID(),
		"kg_nodes": graph.NodeCount(),
		"kg_edges": graph.EdgeCount(),
	})
}

func (h *DomainHandler) view(d *ports.Domain) DomainView {
	view := DomainView{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
	}
	if graph, ok := h.graphs.Loaded(d.ID); ok {
		view.KGLoaded = true
		view.KGNodes = graph.NodeCount()
		view.KGEdges = graph.EdgeCount()
	}
	return view
}
