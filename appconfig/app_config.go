package appconfig

import (
	"errors"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
)

// AppConfig is the single configuration surface of the backend. Every field is
// resolved once at startup and handed to components by reference; no component
// reads the environment on its own.
type AppConfig struct {
	config.BootConfig `ini:",extends"`

	Region         string `env:"REGION" ini:"region"`
	KendraIndexID  string `env:"KENDRA_INDEX_ID" ini:"kendra_index_id"`
	SMEndpointName string `env:"SM_ENDPOINT_NAME" ini:"sm_endpoint_name"`
	BedrockModelID string `env:"BEDROCK_MODEL_ID" ini:"bedrock_model_id"`

	// OllamaModel, when set, replaces the SageMaker endpoint as the
	// non-Bedrock backend. Meant for local development without AWS access.
	OllamaModel string `env:"OLLAMA_MODEL" ini:"ollama_model"`

	// UseBedrock picks the backend for requests that do not carry the
	// USE_BEDROCK flag themselves.
	UseBedrock bool `env:"USE_BEDROCK" ini:"use_bedrock"`

	MemoryTable      string `env:"MEMORY_TABLE" ini:"memory_table"`
	MemoryWindow     int    `env:"MEMORY_WINDOW" ini:"memory_window"`
	RetrieverTopK    int    `env:"RETRIEVER_TOP_K" ini:"retriever_top_k"`
	LLMContextLength int    `env:"LLM_CONTEXT_LENGTH" ini:"llm_context_length"`

	CallTimeoutSeconds     int `env:"CALL_TIMEOUT_SECONDS" ini:"call_timeout_seconds"`
	RequestDeadlineSeconds int `env:"REQUEST_DEADLINE_SECONDS" ini:"request_deadline_seconds"`

	HTTPPort       string `env:"HTTP_PORT" ini:"http_port"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" ini:"metrics_enabled"`
}

func (c *AppConfig) SetDefaults() {
	if c.MemoryTable == "" {
		c.MemoryTable = "MemoryTable"
	}
	if c.MemoryWindow <= 0 {
		c.MemoryWindow = 3
	}
	if c.RetrieverTopK <= 0 {
		c.RetrieverTopK = 2
	}
	if c.LLMContextLength <= 0 {
		c.LLMContextLength = 2048
	}
	if c.CallTimeoutSeconds <= 0 {
		c.CallTimeoutSeconds = 30
	}
	if c.RequestDeadlineSeconds <= 0 {
		c.RequestDeadlineSeconds = 90
	}
	if c.HTTPPort == "" {
		c.HTTPPort = ":8080"
	}
	if c.BedrockModelID == "" && c.UseBedrock {
		c.BedrockModelID = "anthropic.claude-v2"
	}
}

func (c *AppConfig) Validate() error {
	if c.Region == "" {
		return errors.New("REGION is required")
	}
	if c.KendraIndexID == "" {
		return errors.New("KENDRA_INDEX_ID is required")
	}
	if c.UseBedrock && c.BedrockModelID == "" {
		return errors.New("USE_BEDROCK is set but BEDROCK_MODEL_ID is empty")
	}
	if !c.UseBedrock && c.SMEndpointName == "" && c.OllamaModel == "" {
		return errors.New("no model backend configured: set SM_ENDPOINT_NAME, OLLAMA_MODEL or USE_BEDROCK")
	}
	return nil
}

func (c *AppConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

func (c *AppConfig) RequestDeadline() time.Duration {
	return time.Duration(c.RequestDeadlineSeconds) * time.Second
}
