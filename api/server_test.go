package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gemtasks/jobs"
	"gemtasks/model"
	"gemtasks/queue"
)

type inertProvider struct{}

func (inertProvider) Get(ctx context.Context, kind model.Kind) (queue.Queue, error) {
	return queue.NewInertQueue(kind, log.New(io.Discard, "", 0)), nil
}

func testHandler() http.Handler {
	submitter := jobs.NewSubmitter(inertProvider{}, log.New(io.Discard, "", 0))
	return NewServer(":0", submitter, inertProvider{}).Handler
}

func TestPostEmail(t *testing.T) {
	handler := testHandler()

	t.Run("valid request", func(t *testing.T) {
		payload := []byte(`{"to":"jane@example.com","subject":"Order shipped","html_body":"<p>hi</p>"}`)

		req := httptest.NewRequest("POST", "/jobs/email", bytes.NewReader(payload))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		resp := w.Result()
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", resp.StatusCode)
		}

		var desc queue.JobDescriptor
		if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
			t.Fatalf("failed to decode JSON: %v", err)
		}
		if desc.ID == "" {
			t.Error("expected a non-empty job id")
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		payload := []byte(`{"to":"jane@example.com","html_body":"<p>hi</p>"}`)

		req := httptest.NewRequest("POST", "/jobs/email", bytes.NewReader(payload))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Result().StatusCode)
		}
	})

	t.Run("malformed address", func(t *testing.T) {
		payload := []byte(`{"to":"not-an-email","subject":"s","html_body":"b"}`)

		req := httptest.NewRequest("POST", "/jobs/email", bytes.NewReader(payload))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Result().StatusCode)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/jobs/email", bytes.NewReader([]byte(`{oops}`)))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Result().StatusCode)
		}
	})
}

func TestPostOrderCleanup(t *testing.T) {
	handler := testHandler()

	t.Run("valid request", func(t *testing.T) {
		payload := []byte(`{"order_id":"ord-42","delay_ms":1000}`)

		req := httptest.NewRequest("POST", "/jobs/order-cleanup", bytes.NewReader(payload))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		resp := w.Result()
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", resp.StatusCode)
		}

		var desc queue.JobDescriptor
		if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
			t.Fatalf("failed to decode JSON: %v", err)
		}
		if !strings.HasPrefix(desc.ID, "inert-") {
			t.Errorf("expected inert descriptor in mock mode, got %q", desc.ID)
		}
	})

	t.Run("missing order id", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/jobs/order-cleanup", bytes.NewReader([]byte(`{"delay_ms":5}`)))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Result().StatusCode)
		}
	})
}

func TestGetFailed(t *testing.T) {
	handler := testHandler()

	t.Run("unknown kind", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/jobs/failed?kind=bogus", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Result().StatusCode)
		}
	})

	t.Run("broker down", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/jobs/failed?kind=send-email", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", w.Result().StatusCode)
		}
	})
}
