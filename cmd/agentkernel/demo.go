package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/localmind/agentkernel/internal/config"
	"github.com/localmind/agentkernel/internal/dataplane"
	"github.com/localmind/agentkernel/internal/embed"
	"github.com/localmind/agentkernel/internal/inference"
	"github.com/localmind/agentkernel/internal/inference/anthropic"
	"github.com/localmind/agentkernel/internal/inference/fake"
	"github.com/localmind/agentkernel/internal/inference/openai"
	"github.com/localmind/agentkernel/internal/orchestrator"
	"github.com/localmind/agentkernel/internal/receiptlog"
	"github.com/localmind/agentkernel/internal/scheduler"
	"github.com/localmind/agentkernel/internal/types"
)

var demoCorpus = []struct {
	id, text string
}{
	{"doc-install", "run the installer then restart the service to pick up new configuration"},
	{"doc-migrate", "apply database migrations in order before starting the application"},
	{"doc-rollback", "to roll back a release, redeploy the previous image tag and re-run migrations down"},
}

func runDemo(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	prompt := fs.String("prompt", "how do I apply database migrations?", "prompt to run through the pipeline")
	class := fs.String("class", "interactive", "task class: interactive, background, or maintenance")
	_ = fs.Parse(args)

	taskClass, err := parseClass(*class)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	data := dataplane.NewMemory()
	for _, d := range demoCorpus {
		emb := embed.Embed(d.text, cfg.EmbeddingDim)
		data.Seed(cfg.RAGCollection, d.id, d.text, uint32(len(strings.Fields(d.text))), emb)
	}

	sched := buildScheduler(cfg)

	engine, err := buildEngine(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	receipts, err := receiptlog.Open(cfg.ReceiptLogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open receipt log: %v\n", err)
		return 1
	}
	defer receipts.Close()

	orchCfg := orchestrator.DefaultConfig()
	orchCfg.EmbeddingDim = cfg.EmbeddingDim
	orchCfg.RAGCollection = cfg.RAGCollection
	orchCfg.RAGTopK = cfg.RAGTopK
	orchCfg.SelectionBudget = cfg.SelectionBudget
	orchCfg.SelectionGamma = cfg.SelectionGamma
	orchCfg.DefaultMaxTokens = cfg.MaxOutputTokens

	o := orchestrator.New(orchCfg, data, sched, engine, receipts, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tokens, err := o.HandleUserQuery(ctx, *prompt, taskClass)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		return 1
	}
	for tok := range tokens {
		fmt.Print(tok.Text)
	}
	fmt.Println()
	fmt.Printf("receipt chain tail: %s\n", receipts.Tail())
	return 0
}

// buildScheduler constructs a MaxWeight scheduler from cfg's weights and, if
// Kafka brokers are configured, attaches a KafkaAnnouncer so every dispatch
// publishes a best-effort event to cfg.KafkaDispatchTopic.
func buildScheduler(cfg config.Config) *scheduler.MaxWeight {
	sched := scheduler.NewMaxWeight(scheduler.Weights{
		Interactive: cfg.Scheduler.InteractiveWeight,
		Background:  cfg.Scheduler.BackgroundWeight,
		Maintenance: cfg.Scheduler.MaintenanceWeight,
	})
	if cfg.KafkaBrokers == "" {
		return sched
	}
	announcer := scheduler.NewKafkaAnnouncer(
		strings.Split(cfg.KafkaBrokers, ","),
		cfg.KafkaDispatchTopic,
		func(err error) { log.Warn().Err(err).Msg("dispatch_announce_failed") },
	)
	return sched.WithAnnouncer(announcer)
}

func parseClass(s string) (types.TaskClass, error) {
	switch s {
	case "interactive":
		return types.Interactive, nil
	case "background":
		return types.Background, nil
	case "maintenance":
		return types.Maintenance, nil
	default:
		return types.Interactive, fmt.Errorf("unknown class %q", s)
	}
}

func buildEngine(cfg config.Config) (inference.Engine, error) {
	switch cfg.Inference.Provider {
	case "openai":
		if cfg.Inference.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for inference provider openai")
		}
		return openai.New(cfg.Inference.OpenAIAPIKey, cfg.Inference.OpenAIBaseURL, openai.TierModels{
			Small: cfg.Inference.OpenAISmallModel,
			Large: cfg.Inference.OpenAILargeModel,
			Heavy: cfg.Inference.OpenAIHeavyModel,
		}), nil
	case "anthropic":
		if cfg.Inference.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for inference provider anthropic")
		}
		return anthropic.New(cfg.Inference.AnthropicAPIKey, anthropic.TierModels{
			Small: cfg.Inference.AnthropicSmallModel,
			Large: cfg.Inference.AnthropicLargeModel,
			Heavy: cfg.Inference.AnthropicHeavyModel,
		}, cfg.Inference.AnthropicMaxTokens), nil
	default:
		return fake.New(), nil
	}
}
