package models

// WebhookEnvelope is one event record delivered in a webhook batch by the
// hosted indexing provider. The provider embeds the involved account
// address somewhere inside the human-readable description, so routing
// works by substring match rather than a structured field.
type WebhookEnvelope struct {
	Description string `json:"description"`
	Type        string `json:"type,omitempty"`
	Signature   string `json:"signature,omitempty"`
	Slot        uint64 `json:"slot,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}

// WebhookTestRequest is the synthetic envelope accepted by the diagnostic
// loop-back endpoint.
type WebhookTestRequest struct {
	IndexerID string `json:"indexerId"`
	Address   string `json:"address"`
	EventType string `json:"eventType"`
}
