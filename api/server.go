package api

import (
	"context"
	"net/http"
	"time"

	"rafflehouse/application"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"
	"rafflehouse/infrastructure"
	"rafflehouse/infrastructure/observability"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Catalogue is the competition catalogue as the API sees it
type Catalogue interface {
	Create(ctx context.Context, input interfaces.CompetitionInput) (*entities.Competition, error)
	Update(ctx context.Context, id string, patch interfaces.CompetitionPatch) (*entities.Competition, error)
	Delete(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (*entities.Competition, error)
	List(ctx context.Context, filter entities.CompetitionFilter) ([]*entities.Competition, error)
	Featured(ctx context.Context) ([]*entities.Competition, error)
	Entrants(ctx context.Context, id string) ([]*entities.Entrant, error)
}

// Accounts exposes user accounts
type Accounts interface {
	EnsureUser(ctx context.Context, identity entities.Identity) (*entities.User, error)
	AddBalance(ctx context.Context, userID string, amount int64) (*entities.User, error)
	GetEntries(ctx context.Context, userID string) ([]*entities.UserEntry, error)
	GetTickets(ctx context.Context, userID string) ([]*entities.Ticket, error)
	GetWins(ctx context.Context, userID string) (*interfaces.UserWins, error)
	GetOrders(ctx context.Context, userID string) ([]*entities.Order, error)
	ListWinners(ctx context.Context, limit int) ([]*entities.Winner, error)
	ListUsers(ctx context.Context) ([]*entities.User, error)
	ListOrders(ctx context.Context) ([]*entities.Order, error)
	Analytics(ctx context.Context) (*entities.Analytics, error)
}

// Purchases creates orders
type Purchases interface {
	CheckEligibility(ctx context.Context, req interfaces.EligibilityRequest) error
	Purchase(ctx context.Context, identity entities.Identity, competitionID string, ticketCount int) (*application.PurchaseResult, error)
}

// Payments applies payment outcomes
type Payments interface {
	CheckStatus(ctx context.Context, userID, sessionID string) (*interfaces.ConfirmationResult, error)
	ApplyStatus(ctx context.Context, sessionID string, status entities.PaymentStatus) (*interfaces.ConfirmationResult, error)
}

// Draws runs grand-prize draws
type Draws interface {
	Draw(ctx context.Context, competitionID string) (*entities.Winner, error)
}

// WebhookParser verifies provider notifications
type WebhookParser interface {
	ParseWebhook(payload []byte, header string) (*infrastructure.WebhookEvent, error)
}

// Config holds everything the HTTP server is built from
type Config struct {
	Catalogue Catalogue
	Accounts  Accounts
	Purchases Purchases
	Payments  Payments
	Draws     Draws
	Webhooks  WebhookParser
	Limiter   Limiter
	Health    func(ctx context.Context) error

	JWTSecret          string
	AdminSecret        string
	CORSAllowedOrigins []string
	RateLimitCapacity  int
}

// Server routes HTTP requests to the application handlers
type Server struct {
	catalogue   Catalogue
	accounts    Accounts
	purchases   Purchases
	payments    Payments
	draws       Draws
	webhooks    WebhookParser
	health      func(ctx context.Context) error
	jwtSecret   string
	adminSecret string

	router  *mux.Router
	handler http.Handler
}

// NewServer builds the router and middleware chain
func NewServer(cfg Config) *Server {
	s := &Server{
		catalogue:   cfg.Catalogue,
		accounts:    cfg.Accounts,
		purchases:   cfg.Purchases,
		payments:    cfg.Payments,
		draws:       cfg.Draws,
		webhooks:    cfg.Webhooks,
		health:      cfg.Health,
		jwtSecret:   cfg.JWTSecret,
		adminSecret: cfg.AdminSecret,
		router:      mux.NewRouter(),
	}
	s.routes(cfg)

	s.handler = cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", AdminSecretHeader},
		MaxAge:         600,
	}).Handler(s.router)

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// HTTPServer wraps the handler in an http.Server with sane timeouts
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) routes(cfg Config) {
	// Runs after route matching so metrics see the route template
	s.router.Use(func(next http.Handler) http.Handler {
		return observability.InstrumentHandler(next, routeTemplate)
	})

	api := s.router.PathPrefix("/api").Subrouter()
	if cfg.Limiter != nil {
		api.Use(rateLimit(cfg.Limiter, cfg.RateLimitCapacity))
	}

	// Public
	api.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	api.HandleFunc("/competitions", s.handleListCompetitions).Methods(http.MethodGet)
	api.HandleFunc("/competitions/featured", s.handleFeaturedCompetitions).Methods(http.MethodGet)
	api.HandleFunc("/competitions/{id}", s.handleGetCompetition).Methods(http.MethodGet)
	api.HandleFunc("/winners", s.handleListWinners).Methods(http.MethodGet)
	api.HandleFunc("/webhook/payment", s.handlePaymentWebhook).Methods(http.MethodPost)

	// Authenticated
	user := api.NewRoute().Subrouter()
	user.Use(s.requireUser)
	user.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	user.HandleFunc("/me/entries", s.handleMyEntries).Methods(http.MethodGet)
	user.HandleFunc("/me/tickets", s.handleMyTickets).Methods(http.MethodGet)
	user.HandleFunc("/me/wins", s.handleMyWins).Methods(http.MethodGet)
	user.HandleFunc("/me/orders", s.handleMyOrders).Methods(http.MethodGet)
	user.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost)
	user.HandleFunc("/checkout/status/{session}", s.handleCheckoutStatus).Methods(http.MethodGet)
	user.HandleFunc("/competitions/{id}/eligibility", s.handleEligibility).Methods(http.MethodPost)

	// Admin
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireAdmin)
	admin.HandleFunc("/competitions", s.handleListCompetitions).Methods(http.MethodGet)
	admin.HandleFunc("/competitions", s.handleCreateCompetition).Methods(http.MethodPost)
	admin.HandleFunc("/competitions/{id}", s.handleUpdateCompetition).Methods(http.MethodPut)
	admin.HandleFunc("/competitions/{id}", s.handleDeleteCompetition).Methods(http.MethodDelete)
	admin.HandleFunc("/competitions/{id}/draw", s.handleDraw).Methods(http.MethodPost)
	admin.HandleFunc("/competitions/{id}/instant-draw", s.handleDraw).Methods(http.MethodPost)
	admin.HandleFunc("/competitions/{id}/entrants", s.handleEntrants).Methods(http.MethodGet)
	admin.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/balance", s.handleAddBalance).Methods(http.MethodPost)
	admin.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	admin.HandleFunc("/analytics", s.handleAnalytics).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondStatus(w, http.StatusNotFound, "not_found", "Route not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondStatus(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})
}

// routeTemplate labels metrics by the matched mux route rather than the raw path
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			respondStatus(w, http.StatusServiceUnavailable, "unhealthy", err.Error())
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
