package model

// ================ Config ================
type PipelineConfig struct {
	// MaxRows is the hard row ceiling; datasets above it are rejected with a
	// client-facing size error before any model call.
	MaxRows int `envconfig:"PIPELINE_MAX_ROWS" default:"50000"`
	// ProfilerChunkRows is the window size above which the Profiler fans out
	// over partitions of the dataset.
	ProfilerChunkRows int `envconfig:"PIPELINE_PROFILER_CHUNK_ROWS" default:"2000"`
	// DetectiveChunkRows is the per-window row budget for Detective fan-out.
	DetectiveChunkRows int `envconfig:"PIPELINE_DETECTIVE_CHUNK_ROWS" default:"500"`
	// SampleRows bounds how many rows a single model call ever sees.
	SampleRows int `envconfig:"PIPELINE_SAMPLE_ROWS" default:"100"`
	// ContextMax caps the Additional-Context event list.
	ContextMax int `envconfig:"PIPELINE_CONTEXT_MAX" default:"7"`

	Retry struct {
		MaxAttempts     int    `envconfig:"PIPELINE_RETRY_MAX_ATTEMPTS" default:"3"`
		InitialInterval string `envconfig:"PIPELINE_RETRY_INITIAL_INTERVAL" default:"500ms"`
		MaxInterval     string `envconfig:"PIPELINE_RETRY_MAX_INTERVAL" default:"5s"`
	}
}

type AnalysisModelConfig struct {
	Model       string  `envconfig:"ANALYSIS_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"ANALYSIS_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"ANALYSIS_TEMPERATURE" default:"0.3"`
}

type ChatModelConfig struct {
	Model       string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CHAT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.3"`
}

type ChatConfig struct {
	// HistoryMaxTurns bounds how much recent conversation is fed back into
	// answer generation.
	HistoryMaxTurns int `envconfig:"CHAT_HISTORY_MAX_TURNS" default:"10"`
}

type SessionConfig struct {
	TTL string `envconfig:"SESSION_TTL" default:"24h"`
}
