package metrics

import (
	"sync/atomic"
)

// Metrics tracks operational metrics.
type Metrics struct {
	ToolCallsReceived  uint64 `json:"tool_calls_received"`
	ToolCallsSucceeded uint64 `json:"tool_calls_succeeded"`
	ToolCallsRejected  uint64 `json:"tool_calls_rejected"`
	ToolCallsFailed    uint64 `json:"tool_calls_failed"`
	DocumentsCreated   uint64 `json:"documents_created"`
	DocumentsUpdated   uint64 `json:"documents_updated"`
	WebhooksReceived   uint64 `json:"webhooks_received"`
	WebhooksProcessed  uint64 `json:"webhooks_processed"`
}

var global = &Metrics{}

// ToolCallReceived increments the count of tool calls received.
func ToolCallReceived() { atomic.AddUint64(&global.ToolCallsReceived, 1) }

// ToolCallSucceeded increments the count of tool calls that returned a payload.
func ToolCallSucceeded() { atomic.AddUint64(&global.ToolCallsSucceeded, 1) }

// ToolCallRejected increments the count of tool calls refused during validation.
func ToolCallRejected() { atomic.AddUint64(&global.ToolCallsRejected, 1) }

// ToolCallFailed increments the count of tool calls that failed while executing.
func ToolCallFailed() { atomic.AddUint64(&global.ToolCallsFailed, 1) }

// DocumentStored increments the documents created or updated count.
func DocumentStored(created bool) {
	if created {
		atomic.AddUint64(&global.DocumentsCreated, 1)
		return
	}
	atomic.AddUint64(&global.DocumentsUpdated, 1)
}

// WebhookReceived increments the count of authenticated webhook deliveries.
func WebhookReceived() { atomic.AddUint64(&global.WebhooksReceived, 1) }

// WebhookProcessed increments the count of webhook events that stored a report.
func WebhookProcessed() { atomic.AddUint64(&global.WebhooksProcessed, 1) }

// Get returns a snapshot of the current metrics.
func Get() Metrics {
	return Metrics{
		ToolCallsReceived:  atomic.LoadUint64(&global.ToolCallsReceived),
		ToolCallsSucceeded: atomic.LoadUint64(&global.ToolCallsSucceeded),
		ToolCallsRejected:  atomic.LoadUint64(&global.ToolCallsRejected),
		ToolCallsFailed:    atomic.LoadUint64(&global.ToolCallsFailed),
		DocumentsCreated:   atomic.LoadUint64(&global.DocumentsCreated),
		DocumentsUpdated:   atomic.LoadUint64(&global.DocumentsUpdated),
		WebhooksReceived:   atomic.LoadUint64(&global.WebhooksReceived),
		WebhooksProcessed:  atomic.LoadUint64(&global.WebhooksProcessed),
	}
}

// Reset resets all metrics to zero (useful for testing).
func Reset() {
	atomic.StoreUint64(&global.ToolCallsReceived, 0)
	atomic.StoreUint64(&global.ToolCallsSucceeded, 0)
	atomic.StoreUint64(&global.ToolCallsRejected, 0)
	atomic.StoreUint64(&global.ToolCallsFailed, 0)
	atomic.StoreUint64(&global.DocumentsCreated, 0)
	atomic.StoreUint64(&global.DocumentsUpdated, 0)
	atomic.StoreUint64(&global.WebhooksReceived, 0)
	atomic.StoreUint64(&global.WebhooksProcessed, 0)
}
