package enums

import "fmt"

// WebhookEventStatus maps to the webhook_event_status enum in Postgres.
type WebhookEventStatus string

const (
	WebhookEventStatusPending    WebhookEventStatus = "pending"
	WebhookEventStatusProcessing WebhookEventStatus = "processing"
	WebhookEventStatusProcessed  WebhookEventStatus = "processed"
	WebhookEventStatusFailed     WebhookEventStatus = "failed"
)

var validWebhookEventStatuses = []WebhookEventStatus{
	WebhookEventStatusPending,
	WebhookEventStatusProcessing,
	WebhookEventStatusProcessed,
	WebhookEventStatusFailed,
}

// String implements fmt.Stringer.
func (s WebhookEventStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WebhookEventStatus.
func (s WebhookEventStatus) IsValid() bool {
	for _, candidate := range validWebhookEventStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status closes the event's lifecycle.
func (s WebhookEventStatus) IsTerminal() bool {
	return s == WebhookEventStatusProcessed || s == WebhookEventStatusFailed
}

// CanAdvanceTo reports whether moving from s to next keeps the status moving forward.
func (s WebhookEventStatus) CanAdvanceTo(next WebhookEventStatus) bool {
	switch s {
	case WebhookEventStatusPending:
		return next == WebhookEventStatusProcessing || next.IsTerminal()
	case WebhookEventStatusProcessing:
		return next.IsTerminal()
	default:
		return false
	}
}

// ParseWebhookEventStatus converts raw input into WebhookEventStatus.
func ParseWebhookEventStatus(value string) (WebhookEventStatus, error) {
	for _, candidate := range validWebhookEventStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid webhook event status %q", value)
}
