// Package api serves the recommendation service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"github.com/okian/wardrobe/internal/adapters/http/swagger"
	"github.com/okian/wardrobe/internal/domain/model"
	"github.com/okian/wardrobe/internal/domain/types"
	"github.com/okian/wardrobe/pkg/logger"
)

const (
	userIDHeader       = "user-id"
	defaultRateLimit   = 600
	defaultCORSMaxAge  = 86400
	msgInternalDefault = "Internal Server Error"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	ResolveUser(ctx context.Context, header string) (model.User, error)

	RecordInteraction(ctx context.Context, userID int64, productID, interactionType string) (model.Interaction, error)
	LikedProducts(ctx context.Context, userID int64) ([]model.Product, error)
	Recommend(ctx context.Context, userID int64, forceRefresh bool) (types.RecommendationResponse, error)

	Products(ctx context.Context, page, limit int, all bool) (types.ProductPage, error)
	Search(ctx context.Context, q string, page, limit int) (types.ProductPage, error)
	Product(ctx context.Context, id string) (model.Product, error)

	Reviews(ctx context.Context, productID string) ([]types.ReviewWithUser, error)
	Rating(ctx context.Context, productID string) (model.ProductRating, error)
	CreateReview(ctx context.Context, user model.User, in types.ReviewInput) (types.ReviewWithUser, error)
	UpdateReview(ctx context.Context, user model.User, id int64, upd model.ReviewUpdate) (types.ReviewWithUser, error)
	DeleteReview(ctx context.Context, id int64) error

	GetStats(ctx context.Context) map[string]interface{}
}

// Server wires HTTP routes for the recommendation API.
type Server struct {
	deps        Dependencies
	logger      logger.Logger
	corsOrigins []string
	rateLimit   int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithRateLimit limits write requests per client IP per minute. Zero disables it.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		if perMinute >= 0 {
			s.rateLimit = perMinute
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:        deps,
		logger:      logger.Nop(),
		corsOrigins: []string{"*"},
		rateLimit:   defaultRateLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router with every route attached.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", userIDHeader},
		MaxAge:         defaultCORSMaxAge,
	}))
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	swagger.Register(ctx, r)

	r.Route("/api", func(r chi.Router) {
		r.Get("/recommendations", s.handleRecommendations)
		r.Get("/interactions/liked", s.handleLiked)
		r.Get("/search", s.handleSearch)
		r.Get("/merged-products", s.handleMergedProducts)
		r.Get("/products/{productId}", s.handleProduct)
		r.Get("/products/{productId}/reviews", s.handleListReviews)
		r.Get("/products/{productId}/rating", s.handleRating)

		r.Group(func(r chi.Router) {
			r.Use(s.writeLimiter())
			r.Post("/interactions", s.handleRecordInteraction)
			r.Post("/products/{productId}/reviews", s.handleCreateReview)
			r.Put("/reviews/{reviewId}", s.handleUpdateReview)
			r.Delete("/reviews/{reviewId}", s.handleDeleteReview)
		})
	})

	return r
}

// writeLimiter rate limits mutating routes per client IP.
func (s *Server) writeLimiter() func(http.Handler) http.Handler {
	if s.rateLimit == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(s.rateLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
		}),
	)
}

// user resolves the caller from the user-id header, then fallback.
func (s *Server) user(r *http.Request, fallback string) (model.User, error) {
	h := r.Header.Get(userIDHeader)
	if h == "" {
		h = fallback
	}
	return s.deps.ResolveUser(r.Context(), h)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// failure holds the client-facing messages of a handler's error responses.
type failure struct {
	notFound string
	internal string
}

// fail maps err onto a status code by kind. Server faults are logged and
// answered with f.internal so causes do not leak to clients.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error, f failure) {
	switch {
	case errors.Is(err, types.ErrInvalidArgument) || errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", clientMessage(err))
	case errors.Is(err, types.ErrNotFound) || errors.Is(err, ErrNotFound):
		msg := f.notFound
		if msg == "" {
			msg = clientMessage(err)
		}
		writeError(w, http.StatusNotFound, "not_found", msg)
	default:
		msg := f.internal
		if msg == "" {
			msg = msgInternalDefault
		}
		s.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("requestID", chimiddleware.GetReqID(r.Context())),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", msg)
	}
}

// clientMessage strips kind prefixes from err for display.
func clientMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Err != nil {
		err = apiErr.Err
	}
	msg := err.Error()
	for _, kind := range []error{types.ErrInvalidArgument, types.ErrNotFound} {
		msg = strings.TrimPrefix(msg, kind.Error()+": ")
	}
	return msg
}
