package domain

// Sender identifies who authored a transcript message
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAI     Sender = "ai"
	SenderSystem Sender = "system"
)

// Message is one transcript entry. Messages live only in memory.
type Message struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Sender  Sender `json:"sender"`
	IsError bool   `json:"is_error,omitempty"`
	Sources int    `json:"sources,omitempty"`
}

// ChatRequest is the body of a chat call
type ChatRequest struct {
	VectorDBID ID     `json:"vector_db_id"`
	Query      string `json:"query"`
}

// ChatAnswer is the backend's answer to a chat call
type ChatAnswer struct {
	Answer          string `json:"answer"`
	RelevantContent string `json:"relevant_content,omitempty"`
	SourceCount     int    `json:"source_count,omitempty"`
}
