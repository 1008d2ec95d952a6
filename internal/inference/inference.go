package inference

import "time"

// Schema types understood by every provider.
const (
	TypeObject = "object"
	TypeString = "string"
	TypeNumber = "number"
	TypeArray  = "array"
)

// Schema is a provider-neutral description of a structured model reply.
type Schema struct {
	Type        string
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
}

// Request represents a normalized generation request.
type Request struct {
	Model  string
	Prompt string
	// ResponseMIMEType asks the model for a specific reply encoding, e.g. "application/json".
	ResponseMIMEType string
	ResponseSchema   *Schema
	// EnableSearch turns on live web-search grounding.
	EnableSearch bool
}

// Grounding chunk kinds.
const (
	ChunkWeb              = "web"
	ChunkRetrievedContext = "retrieved_context"
	ChunkUnknown          = "unknown"
)

// GroundingChunk is one citation attached to the primary answer candidate.
type GroundingChunk struct {
	Kind  string
	Title string
	URI   string
}

// Usage holds token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response represents a normalized generation response.
type Response struct {
	// Text is the concatenated text of the first candidate.
	Text      string
	Grounding []GroundingChunk
	Usage     Usage
	Timings   *Timings
}

// Timings holds latency measurements for key stages of request processing.
type Timings struct {
	Provider time.Duration
}
