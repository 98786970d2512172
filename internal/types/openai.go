package types

// Wire shapes for the OpenAI-compatible surface the proxy fronts. The forward
// path never decodes request bodies into these types: bodies travel as raw
// bytes so fields the proxy does not know about survive verbatim. The structs
// document the contract and back the tests.

// ChatMessage represents one entry of an OpenAI chat history.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    any        `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall represents a tool call in an assistant message.
type ToolCall struct {
	Index        int           `json:"index,omitempty"`
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type,omitempty"`
	Function     FunctionCall  `json:"function"`
	ExtraContent *ExtraContent `json:"extra_content,omitempty"`
}

// FunctionCall holds the function name and arguments string.
type FunctionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// ExtraContent carries provider-specific extensions on a tool call.
type ExtraContent struct {
	Google *GoogleExtraContent `json:"google,omitempty"`
}

// GoogleExtraContent is the Gemini extension block. ThoughtSignature is the
// reasoning signature Gemini validates on replayed tool calls.
type GoogleExtraContent struct {
	ThoughtSignature string `json:"thought_signature,omitempty"`
}

// ErrorResponse wraps an API error.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail holds the machine-readable error kind and the human-readable
// message.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
