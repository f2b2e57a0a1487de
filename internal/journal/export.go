package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/termrelay/termrelay/internal/model"
)

// exportColumns is the upstream bulk-import schema. Order matters.
var exportColumns = []string{
	"oplog_id",
	"start_date",
	"end_date",
	"source_ip",
	"dest_ip",
	"tool",
	"user_context",
	"command",
	"description",
	"output",
	"comments",
	"operator_name",
}

// ExportCSV serializes every journaled record under logDir into a single
// CSV file in outDir, compatible with the upstream's bulk-import format.
// It reads a snapshot of the directory, so it is safe to run while new
// records are still being written. Returns the path of the written file.
func ExportCSV(logDir, outDir string) (string, error) {
	store, err := New(logDir)
	if err != nil {
		return "", err
	}
	entries, err := store.List()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return "", fmt.Errorf("cannot create export directory %s: %w", outDir, err)
	}
	name := fmt.Sprintf("termrelay_export_%s.csv", time.Now().UTC().Format("2006-01-02_150405"))
	path := filepath.Join(outDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportColumns); err != nil {
		return "", err
	}
	for _, e := range entries {
		if err := w.Write(row(e)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

func row(e *model.Entry) []string {
	fields := e.RestFields()
	oplog := ""
	if e.OplogID != 0 {
		oplog = strconv.FormatInt(e.OplogID, 10)
	}
	out := make([]string, 0, len(exportColumns))
	out = append(out, oplog)
	for _, col := range exportColumns[1:] {
		val, _ := fields[col].(string)
		out = append(out, val)
	}
	return out
}
