// Package export writes the cycle's scored matches to a flat CSV file.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rmaia-dev/evradar/internal/models"
)

var header = []string{
	"id", "league", "home", "away", "score", "minute", "url",
	"xg_total", "sot", "pressure", "odds_over25", "liquidity",
	"ev_score", "decision", "scored_at",
}

// CSVExporter overwrites a CSV file with every scored match of the current
// cycle, alerted or not. The write goes through a temp file and rename so a
// crash mid-export never leaves a truncated file.
type CSVExporter struct {
	filePath string
}

func NewCSVExporter(filePath string) *CSVExporter {
	return &CSVExporter{filePath: filePath}
}

// Export writes all scored matches for this cycle.
func (e *CSVExporter) Export(scored []models.ScoredMatch) error {
	if err := os.MkdirAll(filepath.Dir(e.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.filePath), ".scans-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp export file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, sm := range scored {
		row := []string{
			sm.ID, sm.League, sm.Home, sm.Away, sm.Score,
			strconv.Itoa(sm.Minute), sm.URL,
			strconv.FormatFloat(sm.XGTotal, 'f', 2, 64),
			strconv.Itoa(sm.SOT),
			strconv.FormatFloat(sm.Pressure, 'f', 1, 64),
			strconv.FormatFloat(sm.OddsOver25, 'f', 2, 64),
			strconv.FormatFloat(sm.Liquidity, 'f', 0, 64),
			strconv.Itoa(sm.EVScore),
			sm.Decision.String(),
			sm.ScoredAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.filePath); err != nil {
		return fmt.Errorf("failed to replace export file: %w", err)
	}
	return nil
}
