package transform

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// SkipThoughtSignatureValidator is the sentinel Gemini accepts in place of a
// real thought signature, telling its validator to skip enforcement for that
// tool call.
const SkipThoughtSignatureValidator = "skip_thought_signature_validator"

// signaturePath is where Gemini expects the signature inside a tool call.
const signaturePath = "extra_content.google.thought_signature"

// Messages returns a copy of the JSON messages array with the skip marker
// injected into every assistant tool call that does not already carry a
// non-empty thought signature. The input bytes are never modified; untouched
// fields are preserved verbatim because patching happens by byte splicing
// rather than decode/re-encode. Non-array input comes back unchanged, so the
// function never fails, and re-applying it is a no-op.
func Messages(messages []byte) []byte {
	parsed := gjson.ParseBytes(messages)
	if !parsed.IsArray() {
		return messages
	}

	out := messages
	for i, message := range parsed.Array() {
		if message.Get("role").String() != "assistant" {
			continue
		}
		toolCalls := message.Get("tool_calls")
		if !toolCalls.IsArray() || len(toolCalls.Array()) == 0 {
			continue
		}
		for j := range toolCalls.Array() {
			path := fmt.Sprintf("%d.tool_calls.%d.%s", i, j, signaturePath)
			if sig := gjson.GetBytes(out, path); sig.Exists() && sig.String() != "" {
				continue
			}
			patched, err := sjson.SetBytes(out, path, SkipThoughtSignatureValidator)
			if err != nil {
				continue
			}
			out = patched
		}
	}
	return out
}

// ChatRequestBody applies Messages to the "messages" field of a raw chat
// completion request body. Every byte outside that field is left exactly as
// received; a body without a messages array comes back unchanged.
func ChatRequestBody(body []byte) []byte {
	messages := gjson.GetBytes(body, "messages")
	if !messages.IsArray() {
		return body
	}

	patched := Messages([]byte(messages.Raw))
	if string(patched) == messages.Raw {
		return body
	}

	out, err := sjson.SetRawBytes(body, "messages", patched)
	if err != nil {
		return body
	}
	return out
}
