package server

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"os"
	"runtime"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/derHeinz/dlna-mediacontroller/internal/api"
	"github.com/derHeinz/dlna-mediacontroller/internal/apperrors"
	"github.com/derHeinz/dlna-mediacontroller/internal/audit"
	"github.com/derHeinz/dlna-mediacontroller/internal/auth"
	"github.com/derHeinz/dlna-mediacontroller/internal/config"
	"github.com/derHeinz/dlna-mediacontroller/internal/dispatcher"
	"github.com/derHeinz/dlna-mediacontroller/internal/integrator"
	"github.com/derHeinz/dlna-mediacontroller/internal/mediaserver"
	"github.com/derHeinz/dlna-mediacontroller/internal/openapi"
	"github.com/derHeinz/dlna-mediacontroller/internal/playermanager"
	"github.com/derHeinz/dlna-mediacontroller/internal/scheduler"
	"github.com/derHeinz/dlna-mediacontroller/internal/soap"
	"github.com/derHeinz/dlna-mediacontroller/internal/wsstate"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for WebSocket support
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// requestLoggerMiddleware logs all incoming HTTP requests
func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.RequestURI(), wrapped.status, time.Since(start).Round(time.Millisecond))
	})
}

// Options controls server wiring.
type Options struct {
	DisableDiscovery bool
}

// playCommandBody is the wire shape of a /play request.
type playCommandBody struct {
	URL    string `json:"url"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Loop   bool   `json:"loop"`
}

// targetCommandBody is the wire shape of /pause and /stop requests.
type targetCommandBody struct {
	Target string `json:"target"`
	Type   string `json:"type"`
}

// NewHandler builds the HTTP handler and returns a shutdown function.
func NewHandler(cfg config.Config, options Options) (http.Handler, func(context.Context) error, error) {
	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(requestLoggerMiddleware)
	router.Use(api.RequestIDMiddleware)
	router.Use(api.RecovererMiddleware)
	router.Use(auth.Middleware(cfg.AuthEnabled, cfg.AuthSecret))

	registerHealthRoutes(router)
	openapi.RegisterRoutes(router)

	soapClient := soap.NewClient(cfg.SOAPTimeout())
	mediaServerInstance := mediaserver.NewWithSearchCount(soapClient, cfg.MediaServer.ControlURL, cfg.MediaServer.SearchCount)
	sched := scheduler.New()

	configuredRenderers := make([]playermanager.RendererConfig, 0, len(cfg.Renderers))
	for _, r := range cfg.Renderers {
		configuredRenderers = append(configuredRenderers, playermanager.RendererConfig{
			Name:         r.Name,
			Aliases:      r.Aliases,
			URL:          r.URL,
			ControlURL:   r.ControlURL,
			MAC:          r.MAC,
			Capabilities: r.Capabilities,
			SendMetadata: r.SendMetadata,
		})
	}

	manager := playermanager.New(configuredRenderers, soapClient, mediaServerInstance, sched, cfg.DiscoveryInterval(), cfg.DiscoveryTimeout())
	if !options.DisableDiscovery {
		manager.StartDiscovery()
	}

	disp := dispatcher.New(manager, manager)

	var auditDB *sql.DB
	if cfg.AuditEnabled {
		var auditErr error
		auditDB, auditErr = audit.OpenDB(cfg.AuditDBPath)
		if auditErr != nil {
			return nil, nil, auditErr
		}
	}
	auditService := audit.NewService(auditDB, cfg.AuditRetentionDays)
	audit.RegisterRoutes(router, auditService)
	auditService.StartPruneJob()

	hub := wsstate.New()
	manager.SetStateChangeNotifier(func() { hub.Broadcast(disp.State("")) })
	registerPlaybackRoutes(router, disp, auditService)
	registerInfoRoutes(router, manager, hub)
	router.Method(http.MethodGet, "/ws/state", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		hub.ServeHTTP(w, r)
		return nil
	}))

	shutdown := func(ctx context.Context) error {
		auditService.StopPruneJob()
		manager.StopDiscovery()
		sched.StopAll()
		if auditDB != nil {
			return auditDB.Close()
		}
		return nil
	}

	return router, shutdown, nil
}

func registerPlaybackRoutes(router chi.Router, disp *dispatcher.Dispatcher, auditService *audit.Service) {
	router.Method(http.MethodPost, "/play", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var body playCommandBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return apperrors.NewRequestInvalid("malformed play command body")
		}

		integ, err := disp.Decide(r.Context(), body.Target, body.Type)
		if err != nil {
			auditService.RecordCommand(audit.WriteRecordInput{Command: "play", Target: body.Target, Outcome: audit.OutcomeError, Detail: err.Error()})
			return err
		}

		view, err := integ.Play(r.Context(), integrator.Command{
			URL:    body.URL,
			Artist: body.Artist,
			Title:  body.Title,
			Target: body.Target,
			Type:   body.Type,
			Loop:   body.Loop,
		})
		if err != nil {
			auditService.RecordCommand(audit.WriteRecordInput{Command: "play", Target: body.Target, Outcome: audit.OutcomeError, Detail: err.Error()})
			return err
		}

		auditService.RecordCommand(audit.WriteRecordInput{Command: "play", Target: body.Target, Outcome: audit.OutcomeOK})
		return api.WriteAction(w, http.StatusOK, view)
	}))

	router.Method(http.MethodPost, "/pause", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var body targetCommandBody
		_ = json.NewDecoder(r.Body).Decode(&body)

		integ, err := disp.Decide(r.Context(), body.Target, body.Type)
		if err != nil {
			auditService.RecordCommand(audit.WriteRecordInput{Command: "pause", Target: body.Target, Outcome: audit.OutcomeError, Detail: err.Error()})
			return err
		}

		view, err := integ.Pause(r.Context())
		if err != nil {
			auditService.RecordCommand(audit.WriteRecordInput{Command: "pause", Target: body.Target, Outcome: audit.OutcomeError, Detail: err.Error()})
			return err
		}

		auditService.RecordCommand(audit.WriteRecordInput{Command: "pause", Target: body.Target, Outcome: audit.OutcomeOK})
		return api.WriteAction(w, http.StatusOK, view)
	}))

	router.Method(http.MethodPost, "/stop", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		var body targetCommandBody
		_ = json.NewDecoder(r.Body).Decode(&body)

		integ, err := disp.Decide(r.Context(), body.Target, body.Type)
		if err != nil {
			auditService.RecordCommand(audit.WriteRecordInput{Command: "stop", Target: body.Target, Outcome: audit.OutcomeError, Detail: err.Error()})
			return err
		}

		view, err := integ.Stop(r.Context())
		if err != nil {
			auditService.RecordCommand(audit.WriteRecordInput{Command: "stop", Target: body.Target, Outcome: audit.OutcomeError, Detail: err.Error()})
			return err
		}

		auditService.RecordCommand(audit.WriteRecordInput{Command: "stop", Target: body.Target, Outcome: audit.OutcomeOK})
		return api.WriteAction(w, http.StatusOK, view)
	}))

	router.Method(http.MethodGet, "/state", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		target := r.URL.Query().Get("target")
		return api.WriteResource(w, http.StatusOK, disp.State(target))
	}))
}

func registerInfoRoutes(router chi.Router, manager *playermanager.Manager, hub *wsstate.Hub) {
	router.Method(http.MethodGet, "/info", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		info := map[string]any{
			"renderers":      manager.Views(),
			"ws_subscribers": hub.Count(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		}
		return api.WriteJSON(w, http.StatusOK, info)
	}))

	router.Method(http.MethodPost, "/exit", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		if err := api.WriteJSON(w, http.StatusOK, map[string]any{"status": "shutting down"}); err != nil {
			return err
		}
		go func() {
			time.Sleep(100 * time.Millisecond)
			log.Println("exit requested via /exit")
			os.Exit(0)
		}()
		return nil
	}))
}

func registerHealthRoutes(router chi.Router) {
	router.Method(http.MethodGet, "/v1/health", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		response := map[string]any{
			"status":    "healthy",
			"service":   "dlna-mediacontroller",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		return api.WriteJSON(w, http.StatusOK, response)
	}))
	router.Method(http.MethodGet, "/v1/health/live", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}))
	router.Method(http.MethodGet, "/v1/health/ready", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	}))
}
