package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/quiz"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type bankInfo struct {
	ID          string `json:"id"`
	Questions   int    `json:"questions"`
	SessionSize int    `json:"sessionSize"`
	Sufficient  bool   `json:"sufficient"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter mounts health, metrics, bank inspection and the play socket.
func NewRouter(banks app.BankRepository, ws *WSHandler, questionCount int) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", ws.ServeWS)
	r.Get("/banks/{bankID}", func(w http.ResponseWriter, r *http.Request) {
		bankID := chi.URLParam(r, "bankID")
		bank, err := banks.GetBank(r.Context(), bankID)
		switch {
		case errors.Is(err, domain.ErrBankNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "bank not found"})
			return
		case errors.Is(err, domain.ErrEmptyBank):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "bank has no valid questions"})
			return
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
			return
		}

		size := questionCount
		if len(bank) < size {
			size = len(bank)
		}
		writeJSON(w, http.StatusOK, bankInfo{
			ID:          bankID,
			Questions:   len(bank),
			SessionSize: size,
			Sufficient:  quiz.CheckBank(bank, questionCount) == nil,
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
