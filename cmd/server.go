package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mark3labs/tokencount/internal/config"
	"github.com/mark3labs/tokencount/internal/counter"
	"github.com/mark3labs/tokencount/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
)

// maxBodyBytes bounds request bodies of the count endpoint.
const maxBodyBytes = 1 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the token counter over HTTP",
	Long: `Serve the token counter over HTTP.

Endpoints:
  POST /api/count-tokens  {"text","provider","model","visualize"} -> {"tokenCount","price","visualization"}
  GET  /api/providers     provider and model catalogue with prices
  GET  /healthz           liveness and loaded tokenizers
  GET  /metrics           Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := settings()
		logger := newLogger(cmd.ErrOrStderr(), s)
		c, err := buildCounter(s, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return RunServerMode(ctx, c, s.Addr, logger)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "address to listen on")
	_ = viper.BindPFlag(config.KeyAddr, serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

// CountRequest is the body of POST /api/count-tokens.
type CountRequest struct {
	Text      string `json:"text"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Visualize bool   `json:"visualize"`
}

// CountResponse is the success body of POST /api/count-tokens.
type CountResponse struct {
	TokenCount    int                    `json:"tokenCount"`
	Price         float64                `json:"price"`
	Visualization *counter.Visualization `json:"visualization,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ProviderResponse describes one provider of GET /api/providers.
type ProviderResponse struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Kind   string          `json:"kind"`
	Models []ModelResponse `json:"models"`
}

// ModelResponse describes one priced model.
type ModelResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	PricePer1K float64 `json:"pricePer1K"`
}

// serverMetrics are registered on a registry owned by one server.
type serverMetrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

func newServerMetrics() *serverMetrics {
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tokencount",
				Name:      "requests_total",
				Help:      "Total number of counting requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tokencount",
				Name:      "request_duration_seconds",
				Help:      "Duration of counting requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tokencount",
				Name:      "tokens_total",
				Help:      "Total number of tokens counted",
			},
			[]string{"provider"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tokencount",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.tokensTotal,
		m.httpRequests,
		collectors.NewGoCollector(),
	)
	return m
}

// ServerHandler serves the HTTP API.
type ServerHandler struct {
	counter *counter.Counter
	metrics *serverMetrics
	logger  *log.Logger
}

// NewServerHandler creates a handler backed by c.
func NewServerHandler(c *counter.Counter, logger *log.Logger) *ServerHandler {
	return &ServerHandler{
		counter: c,
		metrics: newServerMetrics(),
		logger:  logger,
	}
}

// Setup registers the routes on r.
func (h *ServerHandler) Setup(r *mux.Router) {
	r.Use(h.requestID, h.logRequests)
	r.HandleFunc("/api/count-tokens", h.HandleCountTokens).Methods(http.MethodPost)
	r.HandleFunc("/api/providers", h.HandleProviders).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(h.metrics.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})).Methods(http.MethodGet)
}

// HandleCountTokens counts the tokens of a request body.
func (h *ServerHandler) HandleCountTokens(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}
	if len(body) > maxBodyBytes {
		h.writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
		return
	}

	req, err := parseCountRequest(body)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	res := h.counter.Count(r.Context(), counter.Request{Text: req.Text, Provider: req.Provider, Model: req.Model})
	label := providerLabel(req.Provider)
	h.metrics.requestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if !res.Success {
		h.metrics.requestsTotal.WithLabelValues(label, "error").Inc()
		h.logger.Warn("count failed", "request_id", requestIDFrom(r), "provider", req.Provider, "err", res.Error)
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: res.Error})
		return
	}
	h.metrics.requestsTotal.WithLabelValues(label, "success").Inc()
	h.metrics.tokensTotal.WithLabelValues(label).Add(float64(res.TokenCount))

	resp := CountResponse{TokenCount: res.TokenCount, Price: res.Price}
	if req.Visualize {
		v := res.Visualization
		resp.Visualization = &v
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// providerLabel keeps metric label values within the supported providers.
func providerLabel(name string) string {
	if _, err := models.ParseProvider(name); err != nil {
		return "unsupported"
	}
	return name
}

// parseCountRequest validates a count request body. Text, provider and model
// must all be non-empty strings.
func parseCountRequest(body []byte) (*CountRequest, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid JSON body")
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, errors.New("request body must be a JSON object")
	}

	req := &CountRequest{
		Text:      stringField(parsed, "text"),
		Provider:  stringField(parsed, "provider"),
		Model:     stringField(parsed, "model"),
		Visualize: parsed.Get("visualize").Bool(),
	}
	if req.Text == "" || req.Provider == "" || req.Model == "" {
		return nil, errors.New("text, provider and model are required")
	}
	return req, nil
}

func stringField(obj gjson.Result, key string) string {
	v := obj.Get(key)
	if v.Type != gjson.String {
		return ""
	}
	return v.String()
}

// HandleProviders lists the provider catalogue with prices.
func (h *ServerHandler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, catalogue(h.counter.Pricing()))
}

func catalogue(reg *models.ModelsRegistry) []ProviderResponse {
	var out []ProviderResponse
	for _, id := range reg.GetSupportedProviders() {
		info, err := reg.GetProvider(id)
		if err != nil {
			continue
		}
		p := ProviderResponse{ID: info.ID, Name: info.Name, Kind: string(info.Kind), Models: []ModelResponse{}}
		for _, m := range info.Models {
			p.Models = append(p.Models, ModelResponse{ID: m.ID, Name: m.Name, PricePer1K: m.Cost.Input})
		}
		sort.Slice(p.Models, func(i, j int) bool { return p.Models[i].ID < p.Models[j].ID })
		out = append(out, p)
	}
	return out
}

// HandleHealth reports liveness and which tokenizers are loaded.
func (h *ServerHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"loaded": h.counter.Loaded(),
	})
}

func (h *ServerHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := writeJSON(w, v); err != nil {
		h.logger.Error("failed to write response", "err", err)
	}
}

type requestIDKey struct{}

// requestID tags every request with an X-Request-ID, reusing the caller's.
func (h *ServerHandler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *ServerHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		h.metrics.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		h.logger.Info("HTTP request",
			"request_id", requestIDFrom(r),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr)
	})
}

// NewRouter returns the router of the HTTP API.
func NewRouter(c *counter.Counter, logger *log.Logger) *mux.Router {
	r := mux.NewRouter()
	NewServerHandler(c, logger).Setup(r)
	return r
}

// RunServerMode serves the HTTP API on addr until ctx is done.
func RunServerMode(ctx context.Context, c *counter.Counter, addr string, logger *log.Logger) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(c, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info("Server stopped")
		return nil
	}
}
