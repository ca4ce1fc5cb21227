package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type Report struct {
	Kind   string
	ID     string
	Params []any
}

// RecordingAPI implements telemetry.API and keeps every report so tests can
// assert that a failing component produced its diagnostic.
type RecordingAPI struct {
	mu      sync.Mutex
	Reports []Report
}

func (r *RecordingAPI) record(kind, id string, params []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reports = append(r.Reports, Report{Kind: kind, ID: id, Params: params})
}

func (r *RecordingAPI) ReportBroken(id string, params ...any) {
	r.record("broken", id, params)
}

func (r *RecordingAPI) ReportWarning(id string, params ...any) {
	r.record("warning", id, params)
}

func (r *RecordingAPI) ReportDebug(msg string, params ...any) {
	r.record("debug", msg, params)
}

func (r *RecordingAPI) ReportCount(id string, count int64) {
	r.record("count", id, []any{count})
}

// Broken returns the ids of every ReportBroken call.
func (r *RecordingAPI) Broken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, rep := range r.Reports {
		if rep.Kind == "broken" {
			out = append(out, rep.ID)
		}
	}
	return out
}

// HasBroken reports whether some ReportBroken id contains `substr`.
func (r *RecordingAPI) HasBroken(substr string) bool {
	for _, id := range r.Broken() {
		if strings.Contains(id, substr) {
			return true
		}
	}
	return false
}

// WriteFile writes `contents` to `name` inside a fresh temp dir and returns the path.
func WriteFile(t testing.TB, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

// Lines joins rows with newlines, cells with tabs.
func Lines(rows ...[]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}
