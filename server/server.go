// Package server exposes the gateway's HTTP surface: the machine-readable
// operation catalog, the interactive explorer, the OAuth2 flow endpoints
// and the enforcement middleware guarding the registered operations.
package server

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/legit-games/apidocs-gateway/docs"
	"github.com/legit-games/apidocs-gateway/flow"
	"github.com/legit-games/apidocs-gateway/models"
	"github.com/legit-games/apidocs-gateway/registry"
	"github.com/legit-games/apidocs-gateway/verify"
)

// Server wires the registries, the flow orchestrator and the token
// validator behind one gin engine.
type Server struct {
	Config       *Config
	Operations   *registry.OperationRegistry
	Schemes      *registry.SchemeRegistry
	Orchestrator *flow.Orchestrator
	Validator    *verify.Validator

	// annotated and documentJSON are computed once at startup, after the
	// registries seal. The middleware and the renderer read the same
	// annotated sequence, so the advertised and the enforced requirement
	// cannot drift.
	annotated    []*models.AnnotatedOperation
	requirements map[string]*models.SecurityRequirement
	documentJSON []byte
}

// NewServer creates a server over sealed state. It seals both registries,
// validates the operation/scheme pairing, runs annotation and renders the
// document. Any configuration defect aborts here, before a single request
// is served.
func NewServer(cfg *Config, ops *registry.OperationRegistry, schemes *registry.SchemeRegistry,
	orch *flow.Orchestrator, validator *verify.Validator) (*Server, error) {

	ops.Seal()
	schemes.Seal()

	all := ops.All()
	if err := schemes.ValidateOperations(all, cfg.Scheme.Name); err != nil {
		return nil, fmt.Errorf("operation/scheme validation: %w", err)
	}

	annotated, err := docs.Annotate(all, schemes, cfg.Scheme.Name)
	if err != nil {
		return nil, fmt.Errorf("annotate operations: %w", err)
	}

	doc, err := docs.BuildDocument(docs.Info{
		Title:       cfg.Document.Title,
		Version:     cfg.Document.Version,
		Description: cfg.Document.Description,
	}, annotated, schemes.All())
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}

	requirements := make(map[string]*models.SecurityRequirement, len(annotated))
	for _, ann := range annotated {
		if ann.Requirement != nil {
			requirements[ann.Key()] = ann.Requirement
		}
	}

	return &Server{
		Config:       cfg,
		Operations:   ops,
		Schemes:      schemes,
		Orchestrator: orch,
		Validator:    validator,
		annotated:    annotated,
		requirements: requirements,
		documentJSON: raw,
	}, nil
}

// Annotated returns the enriched operation descriptors in registration
// order.
func (s *Server) Annotated() []*models.AnnotatedOperation {
	return s.annotated
}

// NewGinEngine builds the gin router: document and explorer endpoints,
// flow endpoints, the health probe, and every registered operation with
// enforcement in front of the protected ones.
func NewGinEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/swagger.json", s.HandleDocumentJSON)
	r.GET("/swagger", s.HandleExplorerUI)

	r.POST("/oauth2/flows", s.HandleStartFlow)
	r.GET(CallbackPath, s.HandleCallbackPage)
	r.POST(CallbackPath, s.HandleCallbackComplete)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts every operation from the registry. Non-anonymous
// operations run behind RequireOperation; anonymous ones are mounted
// bare. The documentation client gets no special treatment: the same gate
// applies to every caller.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	ops := s.Operations.All()
	for _, op := range ops {
		if op.AllowAnonymous {
			r.Handle(op.Method, op.Path, op.Handler)
			continue
		}
		r.Handle(op.Method, op.Path, s.RequireOperation(op), op.Handler)
	}
	log.Printf("[gateway] mounted %d operations", len(ops))
}
