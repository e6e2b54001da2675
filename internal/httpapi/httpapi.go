package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"ogbarber/backend/internal/domain"
	"ogbarber/backend/internal/ledger"
	"ogbarber/backend/internal/service"
	"ogbarber/backend/internal/store"
)

type API struct {
	service       *service.Service
	allowedOrigin string
}

func New(svc *service.Service, allowedOrigin string) *API {
	return &API{
		service:       svc,
		allowedOrigin: allowedOrigin,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)

	mux.HandleFunc("/api/v1/records", a.handleRecords)
	mux.HandleFunc("/api/v1/records/", a.handleRecordActions)
	mux.HandleFunc("/api/v1/income", a.handleIncome)
	mux.HandleFunc("/api/v1/expenses", a.handleExpenses)
	mux.HandleFunc("/api/v1/prices", a.handlePrices)
	mux.HandleFunc("/api/v1/workers", a.handleWorkers)
	mux.HandleFunc("/api/v1/workers/", a.handleWorkerActions)
	mux.HandleFunc("/api/v1/cuts", a.handleCuts)
	mux.HandleFunc("/api/v1/metrics/store", a.handleStoreMetrics)

	return a.withMiddleware(mux)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		records, err := a.service.ListDayRecords(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": records})
	case http.MethodPost:
		var rec domain.DayRecord
		if err := decodeJSON(r, &rec); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.service.UpsertDayRecord(r.Context(), rec); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

// handleRecordActions serves the date-scoped record routes:
//
//	DELETE /api/v1/records/{date}
//	GET    /api/v1/records/{date}/totals
//	PUT    /api/v1/records/{date}/workers
func (a *API) handleRecordActions(w http.ResponseWriter, r *http.Request) {
	prefix := "/api/v1/records/"
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("date required"))
		return
	}

	date, action, _ := strings.Cut(tail, "/")

	switch action {
	case "":
		if r.Method != http.MethodDelete {
			writeMethodNotAllowed(w)
			return
		}
		if err := a.service.DeleteDayRecord(r.Context(), date); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case "totals":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		totals, err := a.service.ComputeTotals(r.Context(), date)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, totals)

	case "workers":
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w)
			return
		}

		var entry domain.WorkerEntry
		if err := decodeJSON(r, &entry); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		// The store treats worker names as opaque; roster membership is
		// checked here at the caller boundary.
		onRoster, err := a.service.HasWorker(r.Context(), strings.TrimSpace(entry.Worker))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if !onRoster {
			writeError(w, http.StatusBadRequest, errors.New("worker is not on the roster"))
			return
		}

		if err := a.service.WriteWorkerEntry(r.Context(), date, entry); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusBadRequest, errors.New("unknown record action"))
	}
}

func (a *API) handleIncome(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		date := strings.TrimSpace(r.URL.Query().Get("date"))
		if date == "" {
			writeError(w, http.StatusBadRequest, errors.New("date query parameter required"))
			return
		}
		income, err := a.service.ReadIncome(r.Context(), date)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, income)
	case http.MethodPost:
		var req domain.IncomeWriteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.service.WriteIncome(r.Context(), req); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		date := strings.TrimSpace(r.URL.Query().Get("date"))
		if date == "" {
			writeError(w, http.StatusBadRequest, errors.New("date query parameter required"))
			return
		}
		expenses, err := a.service.ReadExpenses(r.Context(), date)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, expenses)
	case http.MethodPost:
		var req domain.ExpenseWriteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.service.WriteExpenses(r.Context(), req); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handlePrices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		prices, err := a.service.GetPrices(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prices)
	case http.MethodPut:
		var prices domain.Prices
		if err := decodeJSON(r, &prices); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.service.SetPrices(r.Context(), prices); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prices)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleWorkers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		workers, err := a.service.ListWorkers(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"workers": workers})
	case http.MethodPost:
		var req domain.AddWorkerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.service.AddWorker(r.Context(), req.Name); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleWorkerActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}

	prefix := "/api/v1/workers/"
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if name == "" {
		writeError(w, http.StatusBadRequest, errors.New("worker name required"))
		return
	}

	if err := a.service.RemoveWorker(r.Context(), name); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleCuts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cuts, err := a.service.ListCuts(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cuts": cuts})
	case http.MethodPost:
		var req domain.CutRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		cut, err := a.service.RecordCut(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"cut": cut})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleStoreMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, a.service.StoreStats())
}

// writeServiceError maps service errors to HTTP statuses: validation errors
// are 400, records whose stored data cannot be aggregated are 422, anything
// else is an internal error.
func writeServiceError(w http.ResponseWriter, err error) {
	var malformed *ledger.MalformedDataError
	switch {
	case errors.Is(err, store.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, err)
	case errors.As(err, &malformed):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// For 5xx responses, return a generic message to avoid leaking internal
	// implementation details. 4xx responses are user-facing so we return the
	// original error message.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
