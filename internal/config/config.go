package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	// UpstreamOrigin is the Gemini API host every request is forwarded to.
	UpstreamOrigin = "https://generativelanguage.googleapis.com"

	// ChatCompletionsPath is the path OpenAI-style clients actually request:
	// the OpenAI-compat base plus the /v1/chat/completions suffix most SDKs
	// append, which carries one v1 segment too many for Gemini.
	ChatCompletionsPath = "/v1beta/openai/v1/chat/completions"

	// ChatCompletionsUpstreamPath is Gemini's real chat-completions path.
	ChatCompletionsUpstreamPath = "/v1beta/openai/chat/completions"

	// SignatureModel is the only model whose replayed tool calls require a
	// thought signature.
	SignatureModel = "models/gemini-3.1-pro-preview-customtools"
)

// ServerConfig holds all server configuration.
type ServerConfig struct {
	Host    string
	Port    int
	Verbose bool
	Debug   bool
}

// DefaultFromEnv creates a ServerConfig with defaults from environment
// variables. PORT is the single env-configurable knob; everything else is
// flags.
func DefaultFromEnv() *ServerConfig {
	return &ServerConfig{
		Host: "127.0.0.1",
		Port: envIntOrDefault("PORT", 3000),
	}
}

func envIntOrDefault(key string, defaultVal int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
