package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/financing-wizard/internal/config"
	"github.com/iwvelando/financing-wizard/internal/metrics"
	"github.com/iwvelando/financing-wizard/internal/proposal"
	"github.com/iwvelando/financing-wizard/internal/session"
	"github.com/iwvelando/financing-wizard/internal/storage"
	"github.com/iwvelando/financing-wizard/internal/wizard"
	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/iwvelando/financing-wizard/pkg/validation"
	"go.uber.org/zap"
)

// Options are the collaborators served by the HTTP handler. A nil Links
// signs download tokens with a random key.
type Options struct {
	Wizard  *wizard.Service
	Store   storage.Store
	Metrics *metrics.Metrics
	Config  *Config
	Admin   config.AdminConfig
	Links   *DocumentLinks
	Version string
	Logger  *zap.Logger
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	wizard        *wizard.Service
	store         storage.Store
	metrics       *metrics.Metrics
	admin         config.AdminConfig
	links         *DocumentLinks
}

// Handler serves the wizard API. Close releases the rate limiter.
type Handler struct {
	router  chi.Router
	limiter *RateLimiter
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Close stops background work owned by the handler.
func (h *Handler) Close() {
	if h.limiter != nil {
		h.limiter.Stop()
	}
}

// NewHandler constructs the HTTP handler for the wizard, document and admin APIs.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	maxUploadSize := constants.DefaultMaxUploadSizeBytes
	if opts.Config != nil && opts.Config.UploadSizeBytes() > 0 {
		maxUploadSize = opts.Config.UploadSizeBytes()
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	links := opts.Links
	if links == nil {
		links = NewDocumentLinks("", 0)
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		wizard:        opts.Wizard,
		store:         opts.Store,
		metrics:       m,
		admin:         opts.Admin,
		links:         links,
	}

	var limiter *RateLimiter
	if opts.Config != nil && opts.Config.RateLimitRequests > 0 {
		limiter = NewRateLimiter(opts.Config.RateLimitRequests, opts.Config.RateLimitWindow)
	}
	limited := func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return limiter.Middleware(next)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.Config != nil && opts.Config.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Get("/rules", h.handleRules)
		r.Post("/simulate", h.handleSimulate)
		r.Post("/mask", h.handleMask)
		r.Post("/validate", h.handleValidate)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.handleStartSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetSession)
				r.Delete("/", h.handleDeleteSession)
				r.Patch("/", h.handleUpdateSession)
				r.Post("/next", h.handleNext)
				r.Post("/previous", h.handlePrevious)
				r.Post("/restart", h.handleRestart)
				r.With(limited).Post("/sign", h.handleSign)
			})
		})

		r.Get("/documents/{name}", h.handleGetDocument)

		if strings.TrimSpace(h.admin.PasswordHash) != "" {
			r.Route("/admin", func(r chi.Router) {
				r.Use(limited)
				r.Use(h.adminAuth)
				r.Get("/proposals", h.handleListProposals)
				r.Get("/proposals/{id}", h.handleGetProposal)
				r.Get("/proposals/{id}/document", h.handleGetProposalDocument)
				r.Patch("/proposals/{id}/status", h.handleUpdateStatus)
			})
		} else {
			logger.Info("admin routes disabled, no password hash configured",
				zap.String("op", "server.NewHandler"),
			)
		}
	})

	return &Handler{router: r, limiter: limiter}
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decodeJSON reads a bounded JSON body. It writes the error response itself
// and reports whether decoding succeeded.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge, "request body exceeds maximum allowed size", op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, "invalid request body: "+err.Error(), op)
		return false
	}
	return true
}

// respondServiceError maps wizard and storage errors onto HTTP statuses.
func (h *handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	var stepErr *wizard.StepError
	switch {
	case errors.As(err, &stepErr):
		h.logger.Debug("step gate failed",
			zap.String("op", op),
			zap.Int("step", stepErr.Step),
		)
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  err.Error(),
			"step":   stepErr.Step,
			"fields": stepErr.Fields,
		})
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, proposal.ErrNotFound),
		errors.Is(err, storage.ErrDocumentNotFound):
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
	case errors.Is(err, ErrInvalidDocumentLink):
		h.respondErrorWithOp(w, http.StatusForbidden, ErrInvalidDocumentLink.Error(), op)
	case errors.Is(err, wizard.ErrFinalized),
		errors.Is(err, wizard.ErrNotAtSignatureStep),
		errors.Is(err, proposal.ErrInvalidTransition),
		errors.Is(err, storage.ErrDocumentExists):
		h.respondErrorWithOp(w, http.StatusConflict, err.Error(), op)
	case errors.Is(err, wizard.ErrSignatureRequired),
		errors.Is(err, wizard.ErrInvalidSignature),
		errors.Is(err, proposal.ErrInvalidStatus),
		errors.Is(err, validation.ErrAmountOutOfRange),
		errors.Is(err, validation.ErrTermOutOfRange):
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
	default:
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Error(err),
		)
		h.respondErrorWithOp(w, http.StatusInternalServerError, "internal server error", op)
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	} else {
		h.logger.Warn("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}

// writeJSONError is used by middleware that runs without a handler.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
