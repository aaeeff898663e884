// Package ingest fetches the current TLE catalog from an upstream source,
// parses it, and reconciles it into a catalog.WriteStore, per spec.md §6.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Salad109/satellite-conjunction-api/internal/catalog"
	"github.com/Salad109/satellite-conjunction-api/internal/httputil"
)

// defaultBatchSize is used when Service.BatchSize is left at zero.
const defaultBatchSize = 1000

// SyncReport summarizes one ingestion run. Sync returns it to the caller
// (the catalog sync endpoint writes it as the response body); it is not
// written to the ingestion_log table, and a failed sync is not recorded
// anywhere beyond the returned report and error.
type SyncReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	Upserted   int
	Deleted    int
	Failed     int
	Err        string
}

// Service fetches a TLE feed over HTTP and reconciles it into Store.
type Service struct {
	Client    httputil.HTTPClient
	SourceURL string
	Store     catalog.WriteStore
	BatchSize int
}

// Sync performs one fetch-parse-upsert-reconcile cycle. Individual
// malformed TLE records are skipped (counted as Failed) rather than
// aborting the entire sync, per spec.md §7's "ingestion is best-effort
// per record".
func (s *Service) Sync(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{StartedAt: time.Now().UTC()}
	defer func() { report.FinishedAt = time.Now().UTC() }()

	req, err := httpRequest(ctx, s.SourceURL)
	if err != nil {
		report.Err = err.Error()
		return report, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		report.Err = err.Error()
		return report, fmt.Errorf("ingest: fetch %s: %w", s.SourceURL, err)
	}
	defer resp.Body.Close()

	satellites, failed, err := parseTLEStream(resp.Body)
	if err != nil {
		report.Err = err.Error()
		return report, err
	}
	report.Fetched = len(satellites)
	report.Failed = failed

	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	for i := 0; i < len(satellites); i += batchSize {
		end := i + batchSize
		if end > len(satellites) {
			end = len(satellites)
		}
		if err := s.Store.SaveAll(ctx, satellites[i:end]); err != nil {
			log.Printf("ingest: batch upsert [%d:%d] failed: %v", i, end, err)
			report.Err = err.Error()
			continue
		}
		report.Upserted += end - i
	}

	keep := make([]int, 0, len(satellites))
	for _, s := range satellites {
		keep = append(keep, s.CatalogNumber)
	}
	deleted, err := s.Store.DeleteByCatIDNotIn(ctx, keep)
	if err != nil {
		log.Printf("ingest: delete reconciliation failed: %v", err)
	} else {
		report.Deleted = deleted
	}

	log.Printf("ingest: sync complete: fetched=%d upserted=%d deleted=%d failed=%d",
		report.Fetched, report.Upserted, report.Deleted, report.Failed)

	return report, nil
}

// parseTLEStream reads a three-line-per-record TLE feed (name line, then
// two element lines) and returns every satellite that parses cleanly,
// plus a count of records that didn't.
func parseTLEStream(r io.Reader) ([]*catalog.Satellite, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var satellites []*catalog.Satellite
	failed := 0

	for {
		name, ok := nextNonEmptyLine(scanner)
		if !ok {
			break
		}
		line1, ok := nextNonEmptyLine(scanner)
		if !ok {
			break
		}
		line2, ok := nextNonEmptyLine(scanner)
		if !ok {
			break
		}

		catNum, err := catalogNumberFromLine1(line1)
		if err != nil {
			failed++
			continue
		}

		sat, err := catalog.ParseTLE(catNum, strings.TrimSpace(name), line1, line2)
		if err != nil {
			log.Printf("ingest: skipping catalog entry %d: %v", catNum, err)
			failed++
			continue
		}
		satellites = append(satellites, sat)
	}

	if err := scanner.Err(); err != nil {
		return nil, failed, fmt.Errorf("ingest: read TLE stream: %w", err)
	}

	return satellites, failed, nil
}

func nextNonEmptyLine(scanner *bufio.Scanner) (string, bool) {
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			return line, true
		}
	}
	return "", false
}

// catalogNumberFromLine1 extracts the NORAD catalog number from a TLE's
// first element line (columns 3-7).
func catalogNumberFromLine1(line1 string) (int, error) {
	if len(line1) < 7 {
		return 0, fmt.Errorf("ingest: line1 too short to contain a catalog number")
	}
	return strconv.Atoi(strings.TrimSpace(line1[2:7]))
}
