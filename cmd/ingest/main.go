// cmd/ingest/main.go
// Historical search importer
// Usage: go run ./cmd/ingest --csv /path/to/searches_export.csv
//
// Reads a CSV export of the searches table (request_id, prompt, status, filters,
// created_at, completed_at, error), runs each row through the integrity
// validator and inserts the valid ones. Rows whose prompt was lost are listed at
// the end so they can be recovered by hand.

package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tadeyemo32/prospect-backend/config"
	"github.com/tadeyemo32/prospect-backend/db"
	"github.com/tadeyemo32/prospect-backend/integrity"
	"github.com/tadeyemo32/prospect-backend/logger"
)

type importStats struct {
	Total      int
	Inserted   int
	Existing   int
	Invalid    int
	Failed     int
	LostPrompt []string
}

func main() {
	csvPath := flag.String("csv", "", "Path to the searches CSV export")
	dryRun := flag.Bool("dry-run", false, "Validate rows without writing them")
	flag.Parse()

	log, err := logger.New("dev")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *csvPath == "" {
		log.Fatal("--csv flag is required")
	}

	cfg, err := config.Load(os.Getenv("SECRETS_FILE"))
	if err != nil {
		log.Fatal("Loading config failed", "error", err)
	}
	conn, err := db.Open(cfg, log)
	if err != nil {
		log.Fatal("Opening database failed", "error", err)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatal("Cannot open CSV", "path", *csvPath, "error", err)
	}
	defer f.Close()

	stats, err := importSearches(context.Background(), f, db.NewSearchRepo(conn, log), *dryRun, log)
	if err != nil {
		log.Fatal("Import failed", "error", err)
	}

	log.Info("Import finished",
		"rows", stats.Total, "inserted", stats.Inserted, "existing", stats.Existing,
		"invalid", stats.Invalid, "failed", stats.Failed, "lost_prompts", len(stats.LostPrompt), "dry_run", *dryRun)
	for _, id := range stats.LostPrompt {
		fmt.Println("lost prompt:", id)
	}
}

func importSearches(ctx context.Context, r io.Reader, repo db.SearchRepo, dryRun bool, log *logger.Logger) (importStats, error) {
	var stats importStats

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // tolerate short rows

	headers, err := reader.Read()
	if err != nil {
		return stats, fmt.Errorf("read CSV headers: %w", err)
	}
	idx := map[string]int{}
	for i, h := range headers {
		idx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	if _, ok := idx["request_id"]; !ok {
		return stats, errors.New("CSV has no request_id column")
	}

	getCol := func(row []string, name string) string {
		if i, ok := idx[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn("Skipping malformed row", "error", err)
			stats.Invalid++
			continue
		}
		stats.Total++

		requestID := getCol(row, "request_id")
		p := integrity.Payload{
			"request_id": requestID,
			"prompt":     getCol(row, "prompt"),
			"status":     getCol(row, "status"),
			"created_at": getCol(row, "created_at"),
		}
		for _, k := range []string{"filters", "completed_at", "error"} {
			if v := getCol(row, k); v != "" {
				p[k] = v
			}
		}
		if p["status"] == "" {
			p["status"] = integrity.ReconcileStatus(p)
		}

		// A lost prompt is reported even when the row has other problems.
		if _, err := integrity.EnsurePromptIntegrity("ingest", p); err != nil {
			stats.LostPrompt = append(stats.LostPrompt, requestID)
			continue
		}
		if err := integrity.Validate("ingest", p); err != nil {
			log.Warn("Row failed validation", "request_id", requestID, "error", err)
			stats.Invalid++
			continue
		}

		if _, err := repo.Get(ctx, requestID); err == nil {
			stats.Existing++
			continue
		} else if !errors.Is(err, db.ErrNotFound) {
			return stats, err
		}

		if dryRun {
			stats.Inserted++
			continue
		}
		if _, err := repo.Create(ctx, p); err != nil {
			log.Error("Insert failed", "request_id", requestID, "error", err)
			stats.Failed++
			continue
		}
		stats.Inserted++
	}
	return stats, nil
}
