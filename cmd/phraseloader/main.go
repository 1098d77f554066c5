// Command phraseloader reads a Moses-format phrase table text file
// (lines of "source ||| target ||| scores") and writes it out as one or
// more .ptx segments under the configured phrase table data directory,
// grounded on cmd/indexer's flush-to-segment flow but run once, offline,
// rather than continuously off a Kafka feed.
//
// Usage:
//
//	go run ./cmd/phraseloader -config configs/development.yaml -input phrase-table.txt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/latticemt/cubedecoder/internal/phrasetable"
	"github.com/latticemt/cubedecoder/internal/phrasetable/segment"
	"github.com/latticemt/cubedecoder/pkg/config"
	pkgrpc "github.com/latticemt/cubedecoder/pkg/grpc"
	"github.com/latticemt/cubedecoder/pkg/logger"
	"github.com/latticemt/cubedecoder/pkg/proto"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	inputPath := flag.String("input", "", "path to a Moses-format phrase table file")
	notifyAddr := flag.String("notify", "", "address of a running decoder's rpc server to notify after loading (e.g. localhost:9091)")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "-input is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("loading phrase table", "input", *inputPath, "data_dir", cfg.PhraseTable.DataDir)

	f, err := os.Open(*inputPath)
	if err != nil {
		slog.Error("failed to open input file", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	table := phrasetable.NewMemoryTable()
	writer := segment.NewWriter(cfg.PhraseTable.DataDir)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lineNum, segmentsWritten int
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, sourcePhrase, err := parseLine(line)
		if err != nil {
			slog.Warn("skipping malformed phrase table line", "line", lineNum, "error", err)
			continue
		}
		table.Add(sourcePhrase, entry)

		if table.EntryCount() >= int64(cfg.PhraseTable.SegmentMaxSize) {
			if err := flush(writer, table); err != nil {
				slog.Error("failed to flush segment", "error", err)
				os.Exit(1)
			}
			segmentsWritten++
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Error("failed reading input file", "error", err)
		os.Exit(1)
	}

	if table.EntryCount() > 0 {
		if err := flush(writer, table); err != nil {
			slog.Error("failed to flush final segment", "error", err)
			os.Exit(1)
		}
		segmentsWritten++
	}

	slog.Info("phrase table load complete",
		"lines", lineNum,
		"segments_written", segmentsWritten,
	)

	if *notifyAddr != "" {
		notifyDecoder(*notifyAddr, cfg.PhraseTable.DataDir)
	}
}

// notifyDecoder dials a running cmd/decoder instance's rpc server and asks
// it to reload cfg.PhraseTable.DataDir, so newly written segments are
// picked up without restarting the service.
func notifyDecoder(addr, dataDir string) {
	client, err := pkgrpc.Dial(addr)
	if err != nil {
		slog.Error("failed to dial decoder rpc server", "addr", addr, "error", err)
		return
	}
	defer client.Close()

	var resp proto.ReloadPhraseTableResponse
	req := proto.ReloadPhraseTableRequest{DataDir: dataDir}
	if err := client.Call("PhraseTable.Reload", req, &resp); err != nil {
		slog.Error("phrase table reload rpc failed", "addr", addr, "error", err)
		return
	}
	slog.Info("notified decoder of new phrase table segments",
		"addr", addr,
		"success", resp.Success,
		"message", resp.Message,
		"entry_count", resp.EntryCount,
	)
}

// parseLine parses one Moses phrase table line of the form
// "source phrase ||| target phrase ||| score1 score2 ...".
func parseLine(line string) (phrasetable.Entry, string, error) {
	fields := strings.Split(line, "|||")
	if len(fields) < 3 {
		return phrasetable.Entry{}, "", fmt.Errorf("expected at least 3 ||| separated fields, got %d", len(fields))
	}
	sourcePhrase := strings.TrimSpace(fields[0])
	targetPhrase := strings.TrimSpace(fields[1])
	if sourcePhrase == "" || targetPhrase == "" {
		return phrasetable.Entry{}, "", fmt.Errorf("empty source or target phrase")
	}

	scoreFields := strings.Fields(fields[2])
	scores := make([]float64, 0, len(scoreFields))
	for _, s := range scoreFields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return phrasetable.Entry{}, "", fmt.Errorf("parsing score %q: %w", s, err)
		}
		scores = append(scores, v)
	}

	return phrasetable.Entry{TargetPhrase: targetPhrase, Scores: scores}, sourcePhrase, nil
}

func flush(writer *segment.Writer, table *phrasetable.MemoryTable) error {
	snapshot := table.Snapshot()
	if len(snapshot) == 0 {
		return nil
	}
	name, err := writer.Write(snapshot)
	if err != nil {
		return fmt.Errorf("writing segment: %w", err)
	}
	slog.Info("segment written", "segment", name, "phrases", len(snapshot))
	table.Reset()
	return nil
}
