package out_test

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	alertout "meetingd/internal/modules/alert/adapter/out"
	"meetingd/internal/modules/alert/domain"
)

func TestGRPCHostIntegrationFileSink(t *testing.T) {
	binPath, checksum := buildFileSink(t)
	manifest := domain.SinkManifest{
		Name:    "file",
		Version: "1.0.0",
		Binary:  binPath,
		SHA256:  checksum,
		Enabled: true,
	}
	outPath := filepath.Join(t.TempDir(), "alerts.jsonl")
	t.Setenv("MEETINGD_ALERT_FILE", outPath)

	host := alertout.NewGRPCHost()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := host.CheckLifecycle(ctx, manifest); err != nil {
		t.Fatalf("check lifecycle: %v", err)
	}
	metadata, err := host.GetMetadata(ctx, manifest)
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if metadata.Name != "alert-file" {
		t.Fatalf("unexpected metadata name: %s", metadata.Name)
	}

	alert := domain.Alert{
		ID:             "alert-1",
		OrganizationID: "org-1",
		SessionID:      "session-1",
		Type:           domain.ErrorConcludeFailed,
		Severity:       domain.SeverityCritical,
		Message:        "snapshot write failed",
		Phase:          "conclude",
		OccurredAt:     time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
	}
	if err := host.Deliver(ctx, manifest, alert); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open sink output: %v", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatalf("expected one alert line")
	}
	var line map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
		t.Fatalf("decode alert line: %v", err)
	}
	if line["alert_id"] != "alert-1" || line["severity"] != "critical" {
		t.Fatalf("unexpected alert line: %v", line)
	}
}

func buildFileSink(t *testing.T) (string, string) {
	t.Helper()
	tmp := t.TempDir()
	binPath := filepath.Join(tmp, "alert-file")
	cmd := exec.Command("go", "build", "-o", binPath, "./plugins/alert-file")
	cmd.Dir = repositoryRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build alert-file sink: %v\n%s", err, string(out))
	}
	payload, err := os.ReadFile(binPath)
	if err != nil {
		t.Fatalf("read built sink: %v", err)
	}
	hash := sha256.Sum256(payload)
	return binPath, hex.EncodeToString(hash[:])
}

func repositoryRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../../../../../"))
}
