// Command agentkernel is the kernel's CLI surface: a `demo` subcommand that
// runs one prompt through the full submit/select/route/infer pipeline
// against in-memory collaborators, a `receipts` subcommand for inspecting
// the tamper-evident receipt log on disk, and a `serve-egress` subcommand
// that exposes the policy-gated outbound fetch handler over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/localmind/agentkernel/internal/config"
	"github.com/localmind/agentkernel/internal/observability"
	"github.com/localmind/agentkernel/internal/telemetry"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("example.env")
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("", cfg.Obs.LogLevel)

	shutdown, err := telemetry.Setup(context.Background(), telemetry.Config{
		Enabled:     cfg.Obs.TracingEnabled,
		Endpoint:    cfg.Obs.OTLPEndpoint,
		Insecure:    cfg.Obs.OTLPInsecure,
		ServiceName: cfg.Obs.ServiceName,
	})
	if err != nil {
		log.Warn().Err(err).Msg("otel_setup_failed_continuing_without_tracing")
	} else {
		defer func() { _ = shutdown(context.Background()) }()
	}

	var exitCode int
	switch os.Args[1] {
	case "demo":
		exitCode = runDemo(cfg, os.Args[2:])
	case "receipts":
		exitCode = runReceipts(cfg, os.Args[2:])
	case "serve-egress":
		exitCode = runServeEgress(cfg)
	case "-h", "--help", "help":
		usage()
		exitCode = 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		exitCode = 2
	}
	os.Exit(exitCode)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  agentkernel demo [--prompt TEXT] [--class interactive|background|maintenance]
  agentkernel receipts tail --path FILE [--lines N]
  agentkernel receipts verify --path FILE
  agentkernel serve-egress`)
}

func runReceipts(cfg config.Config, args []string) int {
	if len(args) < 1 {
		usage()
		return 2
	}
	switch args[0] {
	case "tail":
		return cmdReceiptsTail(cfg, args[1:])
	case "verify":
		return cmdReceiptsVerify(cfg, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown receipts subcommand %q\n", args[0])
		usage()
		return 2
	}
}

func flagSetWithPath(name, defaultPath string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	path := fs.String("path", defaultPath, "path to the receipt log file")
	return fs, path
}
