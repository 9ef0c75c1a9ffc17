package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// Load builds a Config from, in increasing precedence: built-in defaults, an
// optional YAML file named by AGENTKERNEL_CONFIG_FILE, then environment
// variables (.env loaded via godotenv.Overload so repo-local values win over
// an empty shell environment, matching internal/config/loader.go's Load).
func Load() (Config, error) {
	_ = godotenv.Overload()

	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("AGENTKERNEL_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		EmbeddingDim:    1024,
		RAGCollection:   "chunks",
		RAGTopK:         128,
		SelectionBudget: 2048,
		SelectionGamma:  0.1,
		MaxOutputTokens: 512,
		ReceiptLogPath:  "receipts.jsonl",
		RedisAddr:       "localhost:6379",

		KafkaBrokers:       "localhost:9092",
		KafkaDispatchTopic: "agentkernel.dispatch",

		Scheduler: SchedulerConfig{
			InteractiveWeight: 1000,
			BackgroundWeight:  10,
			MaintenanceWeight: 1,
			MaxWIP:            4,
		},
		Obs: ObsConfig{
			LogLevel:    "info",
			ServiceName: "agentkernel",
		},
		Data: DataPlaneConfig{
			QdrantCollection: "chunks",
		},
		Manifests: ManifestStoreConfig{
			LocalDir: "manifests",
		},
		Egress: EgressConfig{
			Addr: ":8081",
		},
		Inference: InferenceConfig{
			Provider:            "fake",
			OpenAISmallModel:    "gpt-4o-mini",
			OpenAILargeModel:    "gpt-4o",
			OpenAIHeavyModel:    "gpt-4o",
			AnthropicSmallModel: "claude-3-5-haiku-latest",
			AnthropicLargeModel: "claude-3-5-sonnet-latest",
			AnthropicHeavyModel: "claude-3-5-sonnet-latest",
			AnthropicMaxTokens:  1024,
		},
	}
}

func applyEnv(cfg *Config) {
	if v := envInt("AGENTKERNEL_EMBEDDING_DIM"); v != 0 {
		cfg.EmbeddingDim = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTKERNEL_RAG_COLLECTION")); v != "" {
		cfg.RAGCollection = v
	}
	if v := envInt("AGENTKERNEL_RAG_TOP_K"); v != 0 {
		cfg.RAGTopK = v
	}
	if v := envInt("AGENTKERNEL_SELECTION_BUDGET"); v != 0 {
		cfg.SelectionBudget = v
	}
	if v := envFloat("AGENTKERNEL_SELECTION_GAMMA"); v != 0 {
		cfg.SelectionGamma = v
	}
	if v := envInt("AGENTKERNEL_MAX_OUTPUT_TOKENS"); v != 0 {
		cfg.MaxOutputTokens = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTKERNEL_RECEIPT_LOG_PATH")); v != "" {
		cfg.ReceiptLogPath = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		cfg.RedisAddr = v
	}
	if v := firstNonEmpty(os.Getenv("KAFKA_BROKERS"), os.Getenv("KAFKA_BOOTSTRAP_SERVERS")); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := strings.TrimSpace(os.Getenv("KAFKA_DISPATCH_TOPIC")); v != "" {
		cfg.KafkaDispatchTopic = v
	}

	if v := envFloat("SCHEDULER_INTERACTIVE_WEIGHT"); v != 0 {
		cfg.Scheduler.InteractiveWeight = v
	}
	if v := envFloat("SCHEDULER_BACKGROUND_WEIGHT"); v != 0 {
		cfg.Scheduler.BackgroundWeight = v
	}
	if v := envFloat("SCHEDULER_MAINTENANCE_WEIGHT"); v != 0 {
		cfg.Scheduler.MaintenanceWeight = v
	}
	if v := envInt("SCHEDULER_MAX_WIP"); v != 0 {
		cfg.Scheduler.MaxWIP = int64(v)
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.Obs.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_PAYLOADS")); v != "" {
		cfg.Obs.LogPayloads = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME")); v != "" {
		cfg.Obs.ServiceName = v
	}
	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); v != "" {
		cfg.Obs.OTLPEndpoint = v
		cfg.Obs.TracingEnabled = true
	}
	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); v != "" {
		cfg.Obs.OTLPInsecure = isTruthy(v)
	}

	if v := strings.TrimSpace(os.Getenv("CLICKHOUSE_DSN")); v != "" {
		cfg.Data.ClickHouseDSN = v
	}
	if v := firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("POSTGRES_DSN")); v != "" {
		cfg.Data.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("QDRANT_URL")); v != "" {
		cfg.Data.QdrantURL = v
	}
	if v := strings.TrimSpace(os.Getenv("QDRANT_COLLECTION")); v != "" {
		cfg.Data.QdrantCollection = v
	}

	if v := strings.TrimSpace(os.Getenv("AGENTKERNEL_MANIFEST_DIR")); v != "" {
		cfg.Manifests.LocalDir = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTKERNEL_MANIFEST_S3_BUCKET")); v != "" {
		cfg.Manifests.S3Bucket = v
	}
	if v := strings.TrimSpace(os.Getenv("AWS_REGION")); v != "" {
		cfg.Manifests.S3Region = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTKERNEL_MANIFEST_S3_PREFIX")); v != "" {
		cfg.Manifests.S3Prefix = v
	}

	if v := strings.TrimSpace(os.Getenv("AGENTKERNEL_INFERENCE_PROVIDER")); v != "" {
		cfg.Inference.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.Inference.OpenAIAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); v != "" {
		cfg.Inference.OpenAIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		cfg.Inference.AnthropicAPIKey = v
	}
	if v := envInt("ANTHROPIC_MAX_TOKENS"); v != 0 {
		cfg.Inference.AnthropicMaxTokens = int64(v)
	}

	if v := strings.TrimSpace(os.Getenv("AGENTKERNEL_EGRESS_ALLOW")); v != "" {
		cfg.Egress.Allow = isTruthy(v)
	}
	if v := strings.TrimSpace(os.Getenv("AGENTKERNEL_EGRESS_ALLOWLIST")); v != "" {
		cfg.Egress.Allowlist = splitComma(v)
	}
	if v := strings.TrimSpace(os.Getenv("AGENTKERNEL_EGRESS_ADDR")); v != "" {
		cfg.Egress.Addr = v
	}
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}

func envInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envFloat(key string) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func isTruthy(v string) bool {
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}
