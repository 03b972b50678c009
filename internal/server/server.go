package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"zabbix-chatops/internal/catalog"
	"zabbix-chatops/internal/metrics"
	"zabbix-chatops/internal/models"
	"zabbix-chatops/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// AlertRaiser is the part of the gateway the HTTP layer drives.
type AlertRaiser interface {
	OnAlertRaised(ctx context.Context, req models.RaiseRequest) (models.AlertInstance, error)
}

// StatusProvider reports the messaging transport state.
type StatusProvider interface {
	ConnectionState(ctx context.Context) (string, error)
}

// Deps are the collaborators of the HTTP API. Status and Audit may be nil.
type Deps struct {
	Gateway        AlertRaiser
	Catalog        *catalog.Catalog
	Status         StatusProvider
	Audit          service.AuditRepository
	GraphsDir      string
	WebhookToken   string
	AllowedOrigins string
	Logger         *logrus.Entry
}

// Start serves handler on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func Start(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration, logger *logrus.Entry) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting HTTP server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: d.Logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(d.AllowedOrigins).Handler)

	h := &handlers{
		deps: d,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	r.Get("/", h.info)
	r.Get("/status", h.status)
	r.Get("/simulate-alert", h.simulateAlert)
	r.With(webhookAuthMiddleware(d.WebhookToken)).Post("/zabbix-alert", h.zabbixAlert)
	r.Handle("/metrics", metrics.Handler())

	if d.GraphsDir != "" {
		r.Handle("/graphs/*", http.StripPrefix("/graphs/", http.FileServer(http.Dir(d.GraphsDir))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(webhookAuthMiddleware(d.WebhookToken))
		r.Get("/audit/{recipient}", h.listAudit)
	})
	return r
}

// --- Middlewares ---

func corsMiddleware(allowedOrigins string) *cors.Cors {
	origins := []string{"*"}
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
}

func webhookAuthMiddleware(expectedToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expectedToken == "" {
				next.ServeHTTP(w, r)
				return
			}
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}
			if parts[1] != expectedToken {
				writeError(w, http.StatusForbidden, "Invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- Handlers ---

type handlers struct {
	deps Deps

	rngMu sync.Mutex
	rng   *rand.Rand
}

// zabbixAlertRequest is the body Zabbix media scripts post.
type zabbixAlertRequest struct {
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type alertResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	AlertID   string `json:"alert_id,omitempty"`
	Alert     string `json:"alert,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Graph     string `json:"graph,omitempty"`
}

func (h *handlers) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "zabbix-chatops",
		"endpoints": []string{
			"GET /status",
			"GET /simulate-alert?phone=<chat id>",
			"POST /zabbix-alert",
			"GET /graphs/{file}",
			"GET /api/v1/audit/{recipient}",
			"GET /metrics",
		},
	})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	if h.deps.Status == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "UNAVAILABLE", "error": "messaging transport not initialized"})
		return
	}
	state, err := h.deps.Status.ConnectionState(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": state, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": state})
}

func (h *handlers) simulateAlert(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if phone == "" {
		writeError(w, http.StatusBadRequest, "Parâmetro 'phone' é obrigatório")
		return
	}

	h.rngMu.Lock()
	def := h.deps.Catalog.Random(h.rng)
	h.rngMu.Unlock()

	h.raise(w, r, models.RaiseRequest{Recipient: phone, Definition: def}, http.StatusOK)
}

func (h *handlers) zabbixAlert(w http.ResponseWriter, r *http.Request) {
	var body zabbixAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to decode alert payload")
		return
	}
	if strings.TrimSpace(body.Phone) == "" || strings.TrimSpace(body.Subject) == "" {
		writeError(w, http.StatusBadRequest, "Campos 'phone' e 'subject' são obrigatórios")
		return
	}

	def := h.deps.Catalog.Match(body.Subject)
	h.raise(w, r, models.RaiseRequest{Recipient: body.Phone, Definition: def, Details: body.Message}, http.StatusCreated)
}

func (h *handlers) raise(w http.ResponseWriter, r *http.Request, req models.RaiseRequest, okStatus int) {
	inst, err := h.deps.Gateway.OnAlertRaised(r.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.deps.Logger.WithError(err).WithField("recipient", req.Recipient).Error("Error delivering alert")
		writeJSON(w, http.StatusInternalServerError, alertResponse{
			Success:   false,
			Message:   "Alerta registrado, mas o envio falhou",
			AlertID:   inst.ID,
			Alert:     req.Definition.Name,
			Recipient: req.Recipient,
		})
		return
	}
	writeJSON(w, okStatus, alertResponse{
		Success:   true,
		Message:   "Alerta enviado com sucesso",
		AlertID:   inst.ID,
		Alert:     inst.Definition.Name,
		Recipient: inst.Recipient,
		Graph:     inst.ArtifactRef,
	})
}

func (h *handlers) listAudit(w http.ResponseWriter, r *http.Request) {
	if h.deps.Audit == nil {
		writeError(w, http.StatusServiceUnavailable, "Audit log disabled")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	records, err := h.deps.Audit.ListByRecipient(r.Context(), chi.URLParam(r, "recipient"), limit)
	if err != nil {
		h.deps.Logger.WithError(err).Error("Failed to list audit records")
		writeError(w, http.StatusInternalServerError, "Failed to list audit records")
		return
	}
	if records == nil {
		records = []*models.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": msg})
}

// Addr turns a bare port into a listen address.
func Addr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
