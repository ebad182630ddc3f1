package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"cartao/internal/auth"
	"cartao/internal/core"
	applog "cartao/internal/log"
	"cartao/internal/metrics"
	"cartao/internal/middleware/ratelimit"
	"cartao/internal/middleware/security"
	"cartao/internal/middleware/trace"
	"cartao/internal/services"
	appweb "cartao/web"
)

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds everything the server needs. Logger, Metrics and
// TrustedProxies are optional.
type Deps struct {
	People       *services.PeopleService
	Purchases    *services.PurchaseService
	Installments *services.InstallmentService
	Reports      *services.ReportService

	Session     *auth.Session
	Credentials *auth.Credentials
	Clock       core.Clock
	Logger      *applog.Logger
	Metrics     *metrics.Metrics

	Database Pinger
	Receipts Pinger

	LoginRateLimit int
	TrustedProxies []string
}

// Server wraps http.Server with the application routes.
type Server struct {
	http.Server

	people       *services.PeopleService
	purchases    *services.PurchaseService
	installments *services.InstallmentService
	reports      *services.ReportService

	session     *auth.Session
	credentials *auth.Credentials
	clock       core.Clock
	metrics     *metrics.Metrics

	database Pinger
	receipts Pinger

	pages        map[string]*template.Template
	mux          *http.ServeMux
	detector     *security.Detector
	loginLimiter *ratelimit.Limiter
	startedAt    time.Time
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(addr string, deps Deps) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	clock := deps.Clock
	if clock == nil {
		clock = core.SystemClock{}
	}

	logger := deps.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background()).WithComponent(applog.ComponentHTTP)
	}

	detector := security.NewDetector()
	for _, cidr := range deps.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		people:       deps.People,
		purchases:    deps.Purchases,
		installments: deps.Installments,
		reports:      deps.Reports,
		session:      deps.Session,
		credentials:  deps.Credentials,
		clock:        clock,
		metrics:      deps.Metrics,
		database:     deps.Database,
		receipts:     deps.Receipts,
		pages:        pages,
		mux:          http.NewServeMux(),
		detector:     detector,
		loginLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.LoginRateLimit}),
		startedAt:    time.Now(),
	}
	s.routes()

	var handler http.Handler = s.mux
	handler = s.session.Require("/login", "/logout", "/healthz", "/readyz", "/metrics", "/static/")(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = detector.Middleware(handler)
	handler = applog.RequestIDMiddleware(requestID)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = trace.NewMiddleware(detector.ClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		s.mux.Handle("GET /static/", security.StaticCache(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	s.route("GET /healthz", s.handleHealth)
	s.route("GET /readyz", s.handleReady)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.route("GET /login", s.handleLoginPage)
	login := s.loginLimiter.Middleware(s.detector.ClientIP, s.handleLoginLimited)
	s.mux.Handle("POST /login", login(s.instrument("POST /login", s.handleLogin)))
	s.route("POST /logout", s.handleLogout)

	s.route("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	s.route("GET /dashboard", s.handleDashboard)

	s.route("GET /people", s.handlePeople)
	s.route("POST /people", s.handleCreatePerson)
	s.route("GET /people/{id}/edit", s.handleEditPerson)
	s.route("POST /people/{id}", s.handleRenamePerson)
	s.route("POST /people/{id}/delete", s.handleDeletePerson)

	s.route("GET /purchases", s.handlePurchases)
	s.route("GET /purchases/new", s.handleNewPurchase)
	s.route("POST /purchases", s.handleCreatePurchase)
	s.route("GET /purchases/{id}", s.handlePurchaseDetail)
	s.route("POST /purchases/{id}/delete", s.handleDeletePurchase)

	s.route("GET /installments", s.handleInstallments)
	s.route("POST /installments/settle", s.handleSettle)
	s.route("POST /installments/{id}/pay", s.handlePay)
	s.route("POST /installments/{id}/unpay", s.handleUnpay)

	s.route("GET /reports", s.handleReports)
	s.route("GET /api/reports/monthly", s.handleMonthlyReportAPI)
	s.route("GET /api/installments", s.handleInstallmentsAPI)
	s.route("GET /api/installments/{id}/receipt", s.handleReceipt)
}

// route registers h under pattern, recording request metrics labelled with
// the pattern rather than the raw path.
func (s *Server) route(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(pattern, h))
}

func (s *Server) instrument(pattern string, h http.HandlerFunc) http.Handler {
	if s.metrics == nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := trace.NewStatusRecorder(w)
		h(rec, r)
		s.metrics.ObserveHTTP(pattern, r.Method, rec.Status(), time.Since(start))
	})
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.loginLimiter.Stop()
	return s.Server.Shutdown(ctx)
}

var pageFiles = []string{
	"login.html",
	"dashboard.html",
	"people.html",
	"person_edit.html",
	"purchases.html",
	"purchase_new.html",
	"purchase_detail.html",
	"installments.html",
	"reports.html",
}

// parsePages builds one template set per page, each sharing the layout and
// the partials.
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(appweb.TemplatesFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// render executes the layout of page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	s.renderTemplate(w, r, page, "layout", http.StatusOK, data)
}

// renderTemplate executes one named template of page. Output is buffered so
// a failing template still produces a clean 500.
func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, page, name string, status int, data any) {
	t, ok := s.pages[page]
	if !ok {
		slog.ErrorContext(r.Context(), "Unknown page template", "template", page)
		ErrorResponse(http.StatusInternalServerError, "Erro interno").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed",
			"error", err,
			"template", page,
			"block", name)
		ErrorResponse(http.StatusInternalServerError, "Erro interno").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}
