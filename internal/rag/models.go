package rag

// Role of a message in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

const (
	// DefaultModel is used when a request leaves the model empty.
	DefaultModel = "llama-3.3-70b-versatile"

	// TopK is the fixed number of similar cases retrieved per query.
	TopK = 3

	// CompletionFailureMessage replaces the answer when the completion call fails.
	CompletionFailureMessage = "Error connecting to server, please try later!"
)

// Sampling parameters sent with every completion.
const (
	Temperature = 1.0
	MaxTokens   = 1024
	TopP        = 1.0
)

// ConversationMessage is one turn of a conversation. Order is chronological.
type ConversationMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// IncomingRequest is the "request" object of /getresult and /getresultwithoutrag.
// History only holds user and assistant turns.
type IncomingRequest struct {
	CurrentMessage string                `json:"current message"`
	History        []ConversationMessage `json:"History"`
	Model          string                `json:"model"`
}

// RetrievedCase is a historical case returned by the vector index.
type RetrievedCase struct {
	CaseStory      string `json:"case_story"`
	ResultOfCase   string `json:"result_of_case"`
	DurationOfCase string `json:"duration_of_case"`
}

// IndexedCase is a case as stored in the vector index.
type IndexedCase struct {
	ID       string
	Case     RetrievedCase
	Language string
	Source   string
}

// CompletionRequest is what the orchestrator hands to the completion service.
type CompletionRequest struct {
	Model       string
	Messages    []ConversationMessage
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// Reply is the outcome of a request that reached the completion step.
// Degraded is set when Text is CompletionFailureMessage rather than model output.
type Reply struct {
	Text     string
	Degraded bool
}
