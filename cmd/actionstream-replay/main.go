// Command actionstream-replay feeds an actionpacket document to a Parser
// in randomly-sized chunks and prints a summary of what was emitted.
//
// Run with:
//
//	go run ./cmd/actionstream-replay < packets.json
//	go run ./cmd/actionstream-replay -chunk-size 256 packets.json
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/cloudsync/actionstream"
)

func main() {
	chunkSize := flag.Int("chunk-size", 0, "fixed chunk size in bytes (0 = random 1-4096)")
	maxPacketBytes := flag.Int("max-packet-bytes", 0, "override max packet size (0 = default)")
	batchCount := flag.Int("batch-count", 0, "override max node descriptors per batch (0 = default)")
	diagnostics := flag.Bool("diagnostics", false, "enable periodic progress log lines")
	flag.Parse()

	var src io.Reader = os.Stdin
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "actionstream-replay:", err)
			os.Exit(1)
		}
		defer f.Close()
		src = f
	}

	data, err := io.ReadAll(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "actionstream-replay:", err)
		os.Exit(1)
	}

	var opts []actionstream.Option
	if *maxPacketBytes > 0 {
		opts = append(opts, actionstream.WithMaxPacketBytes(*maxPacketBytes))
	}
	if *batchCount > 0 {
		opts = append(opts, actionstream.WithMaxBatchCount(*batchCount))
	}
	if *diagnostics {
		opts = append(opts, actionstream.WithDiagnostics(true))
	}
	p := actionstream.NewParser(opts...)

	var packets, batches int
	p.SetDefaultPacketHandler(func(actionCode string, data []byte, sizeHint int) error {
		packets++
		fmt.Printf("packet action=%q bytes=%d\n", actionCode, sizeHint)
		return nil
	})
	p.SetNodeBatchHandler(func(descriptors [][]byte, batchIndex int) error {
		batches++
		fmt.Printf("batch index=%d descriptors=%d\n", batchIndex, len(descriptors))
		return nil
	})
	p.SetErrorHandler(func(kind actionstream.ErrorKind, message string, recovered bool) {
		fmt.Fprintf(os.Stderr, "error kind=%s recovered=%v: %s\n", kind, recovered, message)
	})

	for offset := 0; offset < len(data); {
		size := *chunkSize
		if size <= 0 {
			size = 1 + rand.Intn(4096)
		}
		end := offset + size
		if end > len(data) {
			end = len(data)
		}
		n := p.ProcessChunk(data[offset:end])
		offset += n
		if p.HasError() {
			fmt.Fprintln(os.Stderr, "actionstream-replay: parser entered error state:", p.LastError())
			break
		}
		if n == 0 && offset < end {
			// Scanner needs more bytes than we fed; advance by the full
			// attempted window to avoid spinning forever on a short read.
			offset = end
		}
	}

	stats := p.Stats()
	fmt.Printf(
		"summary: packets=%d batches=%d bytes=%d partial_packets=%d large_elements=%d\n",
		packets, batches, stats.BytesProcessed, stats.PartialPackets, stats.LargeElements,
	)
}
