// Package api assembles the HTTP surface: routes, middleware and handler
// dependencies.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mukisa/dukabook/internal/api/handlers"
	"github.com/mukisa/dukabook/internal/api/middleware"
	"github.com/mukisa/dukabook/internal/auth"
	"github.com/mukisa/dukabook/internal/extractor"
	"github.com/mukisa/dukabook/internal/jobs"
	"github.com/mukisa/dukabook/internal/observability"
	"github.com/mukisa/dukabook/internal/receipts"
	"github.com/mukisa/dukabook/internal/store"
)

// Deps carries everything the routes need. Receipts fields may be nil when no
// bucket is configured; those routes then answer 503.
type Deps struct {
	Extractor *extractor.Extractor
	Store     store.Store
	Users     handlers.UserDirectory
	Signer    *auth.TokenSigner
	Metrics   *observability.Metrics
	Log       zerolog.Logger

	ReceiptStorage receipts.Storage
	JobPublisher   jobs.Publisher
	JobStore       jobs.JobStore
}

// NewRouter builds the full handler chain.
func NewRouter(d Deps) http.Handler {
	extractHandler := handlers.NewExtractHandler(d.Extractor, d.Metrics, d.Log)
	transactionsHandler := handlers.NewTransactionsHandler(d.Store, d.Metrics, d.Log)
	reportsHandler := handlers.NewReportsHandler(d.Store, d.Log)
	authHandler := handlers.NewAuthHandler(d.Users, d.Signer, d.Log)

	authRequired := middleware.Auth(d.Signer)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			authHandler.Login(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.Handle("/api/extract", authRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			extractHandler.Extract(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/transactions", authRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			transactionsHandler.Commit(w, r)
		case http.MethodGet:
			transactionsHandler.List(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/reports/summary", authRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			reportsHandler.Summary(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.Handle("/api/reports/debts", authRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			reportsHandler.Debts(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	if d.ReceiptStorage != nil && d.JobPublisher != nil && d.JobStore != nil {
		receiptsHandler := handlers.NewReceiptsHandler(d.ReceiptStorage, d.JobPublisher, d.Log)
		jobsHandler := handlers.NewJobsHandler(d.JobStore, d.Log)

		mux.Handle("/api/receipts/upload", authRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				receiptsHandler.Upload(w, r)
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		})))

		mux.Handle("/api/receipts/scan", authRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				receiptsHandler.Scan(w, r)
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		})))

		mux.Handle("/api/jobs", authRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				jobsHandler.ListJobs(w, r)
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		})))

		mux.Handle("/api/jobs/", authRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		})))
	} else {
		unavailable := func(w http.ResponseWriter, r *http.Request) {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Receipt scanning is not configured")
		}
		mux.HandleFunc("/api/receipts/upload", unavailable)
		mux.HandleFunc("/api/receipts/scan", unavailable)
		mux.HandleFunc("/api/jobs", unavailable)
		mux.HandleFunc("/api/jobs/", unavailable)
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// RequestID runs before Logger so request logs carry the ID.
	return middleware.Recovery(d.Log)(
		middleware.RequestID(d.Log)(
			middleware.Logger(
				middleware.Metrics(d.Metrics)(
					middleware.CORS(mux),
				),
			),
		),
	)
}
