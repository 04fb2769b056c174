package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"tracker/internal/config"
	"tracker/internal/form"
	"tracker/internal/log"
	"tracker/internal/middleware/ratelimit"
	"tracker/internal/middleware/security"
	"tracker/internal/middleware/trace"
	"tracker/internal/services"
	appweb "tracker/web"
)

// Chart canvas size in SVG user units.
const (
	chartWidth  = 640
	chartHeight = 280
)

// Options carries the presentation settings from config.
type Options struct {
	CurrencySymbol     string
	MonthOrder         string
	RateLimitPerMinute int
	// TrustedProxies are CIDRs, beyond loopback and private ranges, whose
	// X-Forwarded-For is believed.
	TrustedProxies []string
	EventsEnabled  bool
}

// OptionsFromConfig maps application config to server options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		CurrencySymbol:     cfg.CurrencySymbol,
		MonthOrder:         cfg.MonthOrder,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	}
}

type Server struct {
	http.Server
	templates *template.Template
	ledger    *services.LedgerService
	form      *form.Controller
	opts      Options
	logger    *log.Logger
	events    *log.StructuredLogger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *services.LedgerService, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "₹"
	}
	if opts.MonthOrder == "" {
		opts.MonthOrder = config.MonthOrderChronological
	}

	mux := http.NewServeMux()
	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.WarnContext(context.Background(), "Ignoring trusted proxy", log.FieldError, err)
		}
	}
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		Guard:             ledgerWrite,
	})

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:           ledger,
		form:             form.NewController(ledger),
		opts:             opts,
		logger:           logger.WithComponent(log.ComponentHTTP),
		events:           log.NewStructuredLogger(logger),
		rateLimiter:      limiter,
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
	}
	s.appMetrics = newAppMetrics(s.rateLimiter, detector, s.traceMiddleware)

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.ErrorContext(context.Background(), "Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.WarnContext(context.Background(), "Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.appMetrics.handler())

	// UI partials
	mux.HandleFunc("GET /ui/form", s.handleFormPartial)
	mux.HandleFunc("GET /ui/transactions", s.handleTransactionsPartial)
	mux.HandleFunc("GET /ui/budgets", s.handleBudgetsPartial)
	mux.HandleFunc("GET /ui/overview", s.handleOverviewPartial)
	mux.HandleFunc("GET /ui/chart", s.handleChartPartial)

	// Form and ledger mutations
	mux.HandleFunc("POST /form/field", s.handleFormField)
	mux.HandleFunc("POST /form/cancel", s.handleCancelEdit)
	mux.HandleFunc("POST /transactions", s.handleSubmitTransaction)
	mux.HandleFunc("POST /transactions/{id}/edit", s.handleBeginEdit)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("PUT /budgets/{category}", s.handleSetBudget)

	// JSON views of the derived aggregates
	mux.HandleFunc("GET /api/transactions", s.handleAPITransactions)
	mux.HandleFunc("GET /api/monthly-totals", s.handleAPIMonthlyTotals)
	mux.HandleFunc("GET /api/category-spending", s.handleAPICategorySpending)
	mux.HandleFunc("GET /api/budget-overview", s.handleAPIBudgetOverview)

	var handler http.Handler = s.appMetrics.instrument(mux)
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	s.Handler = handler

	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerErrorNotification("Too many changes, try again in a minute").
		Write(w)
}

// ledgerWrite selects the requests that change stored transactions or
// budgets. Draft binding and edit mode only touch the form.
func ledgerWrite(r *http.Request) bool {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/transactions":
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/transactions/"):
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/budgets/"):
	default:
		return false
	}
	return true
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
