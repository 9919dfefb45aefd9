package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/newleaf/newleaf/internal/model"
)

type mockNotificationDeleter struct {
	called    int
	retention time.Duration
	deleted   int64
	err       error
}

func (m *mockNotificationDeleter) DeleteExpired(ctx context.Context, readRetention time.Duration) (int64, error) {
	m.called++
	m.retention = readRetention
	return m.deleted, m.err
}

type mockMatrixLister struct {
	matrices []*model.PreferenceMatrix
	err      error
	gotNow   time.Time
}

func (m *mockMatrixLister) ListExpired(ctx context.Context, now time.Time) ([]*model.PreferenceMatrix, error) {
	m.gotNow = now
	return m.matrices, m.err
}

type recordingMetrics struct {
	deleted int64
}

func (r *recordingMetrics) RecordHTTPStatus(int)                     {}
func (r *recordingMetrics) RecordRecommendation(string, bool, string) {}
func (r *recordingMetrics) RecordSegmentLookup(time.Duration)         {}
func (r *recordingMetrics) RecordCacheResult(string, bool)            {}
func (r *recordingMetrics) RecordPurchase(string)                     {}
func (r *recordingMetrics) RecordNotificationsDeleted(n int64)        { r.deleted += n }

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// logEntries はJSONログを1行ずつデコードする。
func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewCleanupJob_DefaultRetention(t *testing.T) {
	job := NewCleanupJob(&mockNotificationDeleter{}, nil, nil, nil)

	if job.Retention != 90*24*time.Hour {
		t.Errorf("Retention = %v, want 90 days", job.Retention)
	}
}

func TestCleanupJob_Run_DeletesWithRetention(t *testing.T) {
	var buf bytes.Buffer
	deleter := &mockNotificationDeleter{deleted: 42}
	m := &recordingMetrics{}
	job := NewCleanupJob(deleter, nil, m, newTestLogger(&buf))
	job.Retention = 30 * 24 * time.Hour

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}

	if deleter.called != 1 {
		t.Fatalf("DeleteExpired calls = %d, want 1", deleter.called)
	}
	if deleter.retention != 30*24*time.Hour {
		t.Errorf("retention = %v, want 720h", deleter.retention)
	}
	if m.deleted != 42 {
		t.Errorf("recorded deleted = %d, want 42", m.deleted)
	}

	found := false
	for _, entry := range logEntries(t, &buf) {
		if entry["deleted_count"] == float64(42) {
			found = true
		}
	}
	if !found {
		t.Errorf("ログに deleted_count=42 が記録されていない。ログ出力: %s", buf.String())
	}
}

func TestCleanupJob_Run_ReturnsErrorOnDeleteFailure(t *testing.T) {
	var buf bytes.Buffer
	deleter := &mockNotificationDeleter{err: errors.New("connection refused")}
	matrices := &mockMatrixLister{}
	job := NewCleanupJob(deleter, matrices, nil, newTestLogger(&buf))

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("エラーログが出力されていない: %s", buf.String())
	}
	if !matrices.gotNow.IsZero() {
		t.Error("matrices should not be checked after a failed delete")
	}
}

func TestCleanupJob_Run_ReportsExpiredMatrices(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)
	expiredAt := now.Add(-time.Hour)
	matrices := &mockMatrixLister{matrices: []*model.PreferenceMatrix{
		{GroupType: "A", ExpiresAt: &expiredAt},
		{GroupType: "K"},
	}}
	job := NewCleanupJob(&mockNotificationDeleter{}, matrices, nil, newTestLogger(&buf))
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !matrices.gotNow.Equal(now) {
		t.Errorf("ListExpired now = %v, want %v", matrices.gotNow, now)
	}

	var groups []string
	for _, entry := range logEntries(t, &buf) {
		if entry["msg"] == "嗜好マトリクスの有効期限が切れています" {
			groups = append(groups, entry["group_type"].(string))
		}
	}
	if len(groups) != 2 || groups[0] != "A" || groups[1] != "K" {
		t.Errorf("reported groups = %v, want [A K]", groups)
	}
}

func TestCleanupJob_Run_MatrixErrorDoesNotFailJob(t *testing.T) {
	var buf bytes.Buffer
	matrices := &mockMatrixLister{err: errors.New("timeout")}
	job := NewCleanupJob(&mockNotificationDeleter{deleted: 1}, matrices, nil, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if !strings.Contains(buf.String(), "期限切れマトリクスの取得に失敗しました") {
		t.Errorf("matrix error not logged: %s", buf.String())
	}
}

func TestCleanupJob_Start_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	deleter := &mockNotificationDeleter{}
	job := NewCleanupJob(deleter, nil, nil, newTestLogger(&bytes.Buffer{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	if deleter.called != 1 {
		t.Errorf("DeleteExpired calls = %d, want 1", deleter.called)
	}
}
