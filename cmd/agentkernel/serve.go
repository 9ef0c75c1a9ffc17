package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/localmind/agentkernel/internal/config"
	"github.com/localmind/agentkernel/internal/egress"
	"github.com/localmind/agentkernel/internal/policy"
	"github.com/localmind/agentkernel/internal/receiptlog"
)

func runServeEgress(cfg config.Config) int {
	receipts, err := receiptlog.Open(cfg.ReceiptLogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open receipt log: %v\n", err)
		return 1
	}
	defer receipts.Close()

	mode := policy.EgressDeny
	if cfg.Egress.Allow {
		mode = policy.EgressAllow
	}
	gate := egress.NewGate(mode, cfg.Egress.Allowlist, receipts, cfg.Obs.LogPayloads)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/fetch", gate)

	log.Info().Str("addr", cfg.Egress.Addr).Msg("serve_egress_listening")
	if err := http.ListenAndServe(cfg.Egress.Addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "serve-egress failed: %v\n", err)
		return 1
	}
	return 0
}
