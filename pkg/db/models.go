package db

// AuditEntry records who did what to what. Rows are append-only.
type AuditEntry struct {
	ID         string
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	CreatedAt  string // RFC 3339
}

// Notification is a message queued for a user. Delivery (in-app, email) is
// the notifier's concern; the store only persists the row.
type Notification struct {
	ID         string
	UserID     string
	EventType  string
	Title      string
	Message    string
	TargetType string
	TargetID   string
	CreatedAt  string // RFC 3339
}
