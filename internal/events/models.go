package events

// ConversationEvent is emitted on every conversation status change.
type ConversationEvent struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
}

// JobEvent is emitted when a pipeline job changes stage.
type JobEvent struct {
	JobID          string `json:"job_id"`
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
}
