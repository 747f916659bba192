package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"gemtasks/jobs"
	"gemtasks/model"
	"gemtasks/queue"
)

type Server struct {
	submitter *jobs.Submitter
	queues    jobs.QueueProvider
}

func NewServer(addr string, submitter *jobs.Submitter, queues jobs.QueueProvider) *http.Server {
	mux := http.NewServeMux()

	srv := &Server{submitter: submitter, queues: queues}
	mux.HandleFunc("POST /jobs/email", srv.postEmail)
	mux.HandleFunc("POST /jobs/order-cleanup", srv.postOrderCleanup)
	mux.HandleFunc("GET /jobs/failed", srv.getFailed)

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}

func (s *Server) postEmail(w http.ResponseWriter, r *http.Request) {
	var payload model.EmailPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	desc, err := s.submitter.SubmitEmail(r.Context(), payload)
	if errors.Is(err, jobs.ErrInvalidPayload) || errors.Is(err, jobs.ErrInvalidAddress) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "[API] Failed to enqueue email job", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, desc)
}

func (s *Server) postOrderCleanup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID string `json:"order_id"`
		DelayMs int64  `json:"delay_ms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	delay := time.Duration(body.DelayMs) * time.Millisecond
	desc, err := s.submitter.SubmitOrderCleanup(r.Context(), body.OrderID, delay)
	if errors.Is(err, jobs.ErrInvalidPayload) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "[API] Failed to enqueue cleanup job", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, desc)
}

func (s *Server) getFailed(w http.ResponseWriter, r *http.Request) {
	kind := model.Kind(r.URL.Query().Get("kind"))
	if kind != model.KindSendEmail && kind != model.KindDeleteOrder {
		http.Error(w, "[API] Unknown task kind", http.StatusBadRequest)
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	q, err := s.queues.Get(r.Context(), kind)
	if err != nil {
		http.Error(w, "[API] Queue unavailable", http.StatusInternalServerError)
		return
	}
	failed, ok := q.(queue.FailedStore)
	if !ok {
		http.Error(w, "[API] Broker unavailable, no failed-job records", http.StatusServiceUnavailable)
		return
	}

	list, err := failed.ListFailed(r.Context(), limit)
	if err != nil {
		http.Error(w, "[API] Failed to list jobs", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []model.Job{}
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "[API] Encoding error", http.StatusInternalServerError)
	}
}
