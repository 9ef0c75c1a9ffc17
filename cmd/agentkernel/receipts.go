package main

import (
	"bufio"
	"container/list"
	"flag"
	"fmt"
	"os"

	"github.com/localmind/agentkernel/internal/config"
	"github.com/localmind/agentkernel/internal/receiptlog"
)

func cmdReceiptsTail(cfg config.Config, args []string) int {
	fs, path := flagSetWithPath("receipts tail", cfg.ReceiptLogPath)
	lines := fs.Int("lines", 10, "number of trailing lines to print")
	_ = fs.Parse(args)

	f, err := os.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %q: %v\n", *path, err)
		return 1
	}
	defer f.Close()

	ring := list.New()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		ring.PushBack(line)
		if ring.Len() > *lines {
			ring.Remove(ring.Front())
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "failed reading %q: %v\n", *path, err)
		return 1
	}
	for e := ring.Front(); e != nil; e = e.Next() {
		fmt.Println(e.Value.(string))
	}
	return 0
}

func cmdReceiptsVerify(cfg config.Config, args []string) int {
	fs, path := flagSetWithPath("receipts verify", cfg.ReceiptLogPath)
	_ = fs.Parse(args)

	if err := receiptlog.Verify(*path); err != nil {
		fmt.Fprintf(os.Stderr, "chain verification failed: %v\n", err)
		return 1
	}
	fmt.Println("chain ok")
	return 0
}
