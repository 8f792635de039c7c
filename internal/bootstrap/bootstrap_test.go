package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/graphrun/internal/config"
)

const pingWorkflow = `{
  "id": "ping",
  "name": "Ping",
  "nodes": [{"id": "t", "type": "manual-trigger", "category": "trigger", "parameters": {}}],
  "edges": []
}`

func TestSetup_FileOnly(t *testing.T) {
	workflows := t.TempDir()
	summaries := t.TempDir()
	if err := os.WriteFile(filepath.Join(workflows, "ping.json"), []byte(pingWorkflow), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		WorkflowsDir: workflows,
		SummariesDir: summaries,
		LogLevel:     "ERROR",
		LogFormat:    "text",
	}

	s, err := Setup(context.Background(), cfg, "graphrun-test", Options{Registerer: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer s.Close()

	if s.Pool != nil || s.Redis != nil || s.Publisher != nil {
		t.Error("optional stores must stay nil when not configured")
	}

	summary, err := s.Runner.Run(context.Background(), "ping", map[string]any{"x": 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.WorkflowID != "ping" {
		t.Errorf("workflow id = %q", summary.WorkflowID)
	}

	files, _ := os.ReadDir(summaries)
	if len(files) != 1 {
		t.Errorf("expected one summary file, got %d", len(files))
	}
}

func TestSetup_UnreachableDatabase(t *testing.T) {
	cfg := &config.Config{
		WorkflowsDir: t.TempDir(),
		SummariesDir: t.TempDir(),
		DBURL:        "postgres://nobody@127.0.0.1:1/none?connect_timeout=1",
		LogLevel:     "ERROR",
	}

	if _, err := Setup(context.Background(), cfg, "graphrun-test", Options{Registerer: prometheus.NewRegistry()}); err == nil {
		t.Error("unreachable database must fail setup")
	}
}
