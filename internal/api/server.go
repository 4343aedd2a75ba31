package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/strrl/polar-persona/internal/classifier"
	"github.com/strrl/polar-persona/internal/logging"
	"github.com/strrl/polar-persona/internal/parser"
	"github.com/strrl/polar-persona/internal/pipeline"
	"github.com/strrl/polar-persona/internal/responder"
	"github.com/strrl/polar-persona/internal/store"
	"github.com/strrl/polar-persona/internal/topics"
)

// Deps are the components the server exposes. Pipeline, Store and Recorder
// are optional; their routes answer 503 when missing.
type Deps struct {
	Responder  *responder.Responder
	Normalizer *classifier.Normalizer
	Classifier *classifier.Classifier
	Pipeline   *pipeline.Pipeline
	Store      store.Store
	Recorder   *parser.Recorder
	Language   topics.Language
	Logger     *log.Logger
}

// Server is the HTTP API server for the persona.
type Server struct {
	router chi.Router
	deps   Deps
	log    *log.Logger
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if !deps.Language.IsSupported() {
		deps.Language = topics.BaseLanguage
	}
	if deps.Responder == nil {
		deps.Responder = responder.New(responder.Config{Logger: deps.Logger})
	}
	if deps.Normalizer == nil {
		deps.Normalizer = classifier.DefaultNormalizer()
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.New(topics.DefaultTable())
	}

	s := &Server{deps: deps, log: deps.Logger}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/reply", s.handleReply)
		r.Post("/classify", s.handleClassify)
		r.Get("/blueprint", s.handleBlueprint)
		r.Get("/snapshots", s.handleListSnapshots)
		r.Get("/snapshots/latest", s.handleLatestSnapshot)
		r.Get("/snapshots/{id}", s.handleGetSnapshot)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
