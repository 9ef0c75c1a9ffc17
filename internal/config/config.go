// Package config loads the kernel's runtime configuration from environment
// variables (via godotenv), an optional YAML overlay, and built-in
// defaults, in that precedence order — following the same
// env-then-yaml-then-defaults shape internal/config/loader.go uses, reduced
// to the settings this kernel's components need.
package config

// SchedulerConfig overrides the class-weighted scheduler's defaults.
type SchedulerConfig struct {
	InteractiveWeight float64 `yaml:"interactive_weight"`
	BackgroundWeight  float64 `yaml:"background_weight"`
	MaintenanceWeight float64 `yaml:"maintenance_weight"`
	MaxWIP            int64   `yaml:"max_wip"`
}

// ObsConfig configures the zerolog/OpenTelemetry ambient stack.
type ObsConfig struct {
	LogLevel        string `yaml:"log_level"`
	LogPayloads     bool   `yaml:"log_payloads"`
	ServiceName     string `yaml:"service_name"`
	OTLPEndpoint    string `yaml:"otlp_endpoint"`
	OTLPInsecure    bool   `yaml:"otlp_insecure"`
	TracingEnabled  bool   `yaml:"tracing_enabled"`
}

// DataPlaneConfig selects and configures the storage backends behind the
// Knowledge/Context/Control/Execution planes and the RAG vector index.
type DataPlaneConfig struct {
	ClickHouseDSN    string `yaml:"clickhouse_dsn"`
	PostgresDSN      string `yaml:"postgres_dsn"`
	QdrantURL        string `yaml:"qdrant_url"`
	QdrantCollection string `yaml:"qdrant_collection"`
}

// EgressConfig configures the policy-gated outbound HTTP fetch handler.
type EgressConfig struct {
	Allow     bool     `yaml:"allow"`
	Allowlist []string `yaml:"allowlist"`
	Addr      string   `yaml:"addr"`
}

// ManifestStoreConfig selects where agent manifests are persisted.
type ManifestStoreConfig struct {
	LocalDir string `yaml:"local_dir"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	S3Prefix string `yaml:"s3_prefix"`
}

// InferenceConfig configures the model-tier-to-engine bindings.
type InferenceConfig struct {
	Provider         string `yaml:"provider"` // "fake", "openai", or "anthropic"
	OpenAIAPIKey     string `yaml:"-"`
	OpenAIBaseURL    string `yaml:"openai_base_url"`
	OpenAISmallModel string `yaml:"openai_small_model"`
	OpenAILargeModel string `yaml:"openai_large_model"`
	OpenAIHeavyModel string `yaml:"openai_heavy_model"`

	AnthropicAPIKey     string `yaml:"-"`
	AnthropicSmallModel string `yaml:"anthropic_small_model"`
	AnthropicLargeModel string `yaml:"anthropic_large_model"`
	AnthropicHeavyModel string `yaml:"anthropic_heavy_model"`
	AnthropicMaxTokens  int64  `yaml:"anthropic_max_tokens"`
}

// Config is the kernel's fully resolved runtime configuration.
type Config struct {
	EmbeddingDim    int     `yaml:"embedding_dim"`
	RAGCollection   string  `yaml:"rag_collection"`
	RAGTopK         int     `yaml:"rag_top_k"`
	SelectionBudget int     `yaml:"selection_budget"`
	SelectionGamma  float64 `yaml:"selection_gamma"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`

	ReceiptLogPath string `yaml:"receipt_log_path"`
	RedisAddr      string `yaml:"redis_addr"`

	KafkaBrokers       string `yaml:"kafka_brokers"`
	KafkaDispatchTopic string `yaml:"kafka_dispatch_topic"`

	Scheduler SchedulerConfig     `yaml:"scheduler"`
	Obs       ObsConfig           `yaml:"obs"`
	Data      DataPlaneConfig     `yaml:"data"`
	Manifests ManifestStoreConfig `yaml:"manifests"`
	Inference InferenceConfig     `yaml:"inference"`
	Egress    EgressConfig        `yaml:"egress"`
}
