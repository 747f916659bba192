package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"gemtasks/model"
)

// OrderStore is the datastore collaborator for the cleanup worker.
type OrderStore interface {
	FindByID(ctx context.Context, id string) (*model.Order, error)
	Delete(ctx context.Context, id string) error
}

// CleanupHandler physically deletes an order some time after it was marked
// Completed. The status is re-checked at execution time: an order that was
// moved out of Completed after scheduling is skipped, and a missing order
// counts as already done. Both make duplicate execution safe.
type CleanupHandler struct {
	orders OrderStore
	log    *log.Logger
}

func NewCleanupHandler(orders OrderStore, logger *log.Logger) *CleanupHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &CleanupHandler{orders: orders, log: logger}
}

func (h *CleanupHandler) Kind() model.Kind { return model.KindDeleteOrder }

func (h *CleanupHandler) Handle(ctx context.Context, job model.Job) Result {
	var p model.CleanupPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return discard("malformed cleanup payload: " + err.Error())
	}
	if p.OrderID == "" {
		return discard("cleanup payload missing order id")
	}

	order, err := h.orders.FindByID(ctx, p.OrderID)
	if err != nil {
		return retry(fmt.Errorf("load order %s: %w", p.OrderID, err))
	}
	if order == nil {
		h.log.Printf("[worker:%s] order %s already gone, nothing to do", h.Kind(), p.OrderID)
		return done()
	}
	if order.Status != model.OrderStatusCompleted {
		// Expected race with admin action, not a failure.
		h.log.Printf("[worker:%s] order %s is %q, skipping deletion", h.Kind(), p.OrderID, order.Status)
		return done()
	}

	if err := h.orders.Delete(ctx, p.OrderID); err != nil {
		return retry(fmt.Errorf("delete order %s: %w", p.OrderID, err))
	}
	h.log.Printf("[worker:%s] deleted completed order %s", h.Kind(), p.OrderID)
	return done()
}
