package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notequiz/internal/app"
	"notequiz/internal/domain"
	"notequiz/internal/telemetry"
)

// maxGenerateBody bounds a generation request; images arrive base64-encoded.
const maxGenerateBody = 32 << 20

// API exposes the quiz use cases as JSON over HTTP.
type API struct {
	service *app.Service
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

func NewAPI(service *app.Service, metrics *telemetry.Metrics, logger *slog.Logger) *API {
	return &API{service: service, metrics: metrics, logger: logger}
}

// Routes mounts the API, the game socket and the metrics endpoint on one router.
func (a *API) Routes(game *GameHandler, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	r.Get("/ws/play", game.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", a.login)
		r.Post("/logout", a.logout)
		r.Get("/me", a.me)
		r.Get("/modules", a.listModules)
		r.Post("/modules", a.createModule)
		r.Get("/modules/{id}", a.getModule)
		r.Post("/modules/{id}/score", a.recordScore)
	})
	return r
}

type loginRequest struct {
	Name string `json:"name"`
}

type userResponse struct {
	Name string `json:"name"`
}

type scoreRequest struct {
	Score int `json:"score"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid login payload"})
		return
	}
	name, err := a.service.Login(req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Name: name})
}

func (a *API) logout(w http.ResponseWriter, _ *http.Request) {
	a.service.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	name, err := a.service.CurrentUser()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Name: name})
}

func (a *API) listModules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.service.Modules())
}

func (a *API) getModule(w http.ResponseWriter, r *http.Request) {
	module, err := a.service.Module(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, module)
}

func (a *API) createModule(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid module payload"})
		return
	}

	started := time.Now()
	module, err := a.service.Generate(r.Context(), req)
	a.metrics.ObserveGeneration(time.Since(started).Seconds(), err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.InfoContext(r.Context(), "module generated",
		"module_id", module.ID,
		"questions", len(module.Questions),
	)
	writeJSON(w, http.StatusCreated, module)
}

func (a *API) recordScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Score < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid score payload"})
		return
	}
	module, ok := a.service.RecordScore(chi.URLParam(r, "id"), req.Score)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, module)
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrEmptyUsername),
		errors.Is(err, domain.ErrOptionNotFound), errors.Is(err, domain.ErrEmptyModule),
		errors.Is(err, domain.ErrInvalidModule):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrModuleNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAnswerPending), errors.Is(err, domain.ErrSessionComplete),
		errors.Is(err, domain.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
