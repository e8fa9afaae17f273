package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/clustertrack/internal/diag"
	"github.com/alexanderramin/clustertrack/internal/domain"
)

// Export is the diagnostic dump: the session list plus the log book.
type Export struct {
	ExportTime          time.Time        `json:"exportTime"`
	Version             string           `json:"version"`
	CurrentUser         string           `json:"currentUser"`
	SessionsCount       int              `json:"sessionsCount"`
	TargetTimeMs        int64            `json:"targetTimeMs"`
	TargetTimeFormatted string           `json:"targetTimeFormatted"`
	Sessions            []domain.Session `json:"sessions"`
	Logs                []diag.Entry     `json:"logs"`
}

func (c *Controller) Export() Export {
	sessions := c.store.Snapshot()
	return Export{
		ExportTime:          c.now().UTC(),
		Version:             c.deps.Version,
		CurrentUser:         c.store.Login(),
		SessionsCount:       len(sessions),
		TargetTimeMs:        domain.TargetThreshold.Milliseconds(),
		TargetTimeFormatted: domain.FormatDuration(domain.TargetThreshold),
		Sessions:            sessions,
		Logs:                c.logbook.Entries(),
	}
}

// ExportFileName derives tracker_<timestamp>.json from an ISO timestamp
// with ':' and '.' replaced so the name is portable.
func ExportFileName(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return "tracker_" + strings.NewReplacer(":", "-", ".", "-").Replace(ts) + ".json"
}

// WriteExport writes the export as indented JSON into dir and returns the
// file path.
func (c *Controller) WriteExport(dir string) (string, error) {
	exp := c.Export()
	b, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding export: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, ExportFileName(exp.ExportTime))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	c.logger.Info("export written", "path", path, "sessions", exp.SessionsCount)
	return path, nil
}
