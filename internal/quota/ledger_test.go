package quota

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type fakeUsageStore struct {
	quota int64
	files []fakeFile
}

type fakeFile struct {
	size     int64
	mimeType string
}

func (f *fakeUsageStore) SumFileSizes(ctx context.Context, userID uuid.UUID, mimePrefix string) (int64, error) {
	var sum int64
	for _, file := range f.files {
		if mimePrefix == "" || strings.HasPrefix(file.mimeType, mimePrefix) {
			sum += file.size
		}
	}
	return sum, nil
}

func (f *fakeUsageStore) UserQuota(ctx context.Context, userID uuid.UUID) (int64, error) {
	if f.quota == 0 {
		return 0, ErrUserNotFound
	}
	return f.quota, nil
}

func TestAuthorizeBoundary(t *testing.T) {
	store := &fakeUsageStore{
		quota: 1000,
		files: []fakeFile{{size: 900, mimeType: "application/pdf"}},
	}
	ledger := NewLedger(store)
	userID := uuid.New()

	// Landing exactly on the quota is allowed.
	if err := ledger.Authorize(context.Background(), userID, 100); err != nil {
		t.Fatalf("expected exact fit to be authorized, got %v", err)
	}

	if err := ledger.Authorize(context.Background(), userID, 101); err != ErrQuotaExceeded {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	// Zero-byte files are always admissible while under quota.
	if err := ledger.Authorize(context.Background(), userID, 0); err != nil {
		t.Fatalf("expected zero bytes authorized, got %v", err)
	}
}

func TestAuthorizeUnknownUser(t *testing.T) {
	ledger := NewLedger(&fakeUsageStore{})
	if err := ledger.Authorize(context.Background(), uuid.New(), 1); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCurrentUsage(t *testing.T) {
	store := &fakeUsageStore{
		quota: 1 << 30,
		files: []fakeFile{
			{size: 100, mimeType: "image/png"},
			{size: 250, mimeType: "video/mp4"},
		},
	}
	ledger := NewLedger(store)

	usage, err := ledger.CurrentUsage(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("current usage: %v", err)
	}
	if usage != 350 {
		t.Fatalf("usage = %d, want 350", usage)
	}
}

func TestUsageReportPartitions(t *testing.T) {
	store := &fakeUsageStore{
		quota: 2000,
		files: []fakeFile{
			{size: 100, mimeType: "image/png"},
			{size: 50, mimeType: "image/jpeg"},
			{size: 400, mimeType: "video/mp4"},
			{size: 80, mimeType: "audio/ogg"},
			{size: 300, mimeType: "application/zip"},
			{size: 20, mimeType: ""},
		},
	}
	ledger := NewLedger(store)

	report, err := ledger.UsageReport(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("usage report: %v", err)
	}

	if report.TotalBytes != 950 {
		t.Fatalf("total = %d, want 950", report.TotalBytes)
	}
	if report.ImageBytes != 150 {
		t.Fatalf("images = %d, want 150", report.ImageBytes)
	}
	if report.VideoBytes != 400 {
		t.Fatalf("video = %d, want 400", report.VideoBytes)
	}
	if report.AudioBytes != 80 {
		t.Fatalf("audio = %d, want 80", report.AudioBytes)
	}
	if report.OtherBytes != 320 {
		t.Fatalf("other = %d, want 320", report.OtherBytes)
	}
	if report.QuotaBytes != 2000 {
		t.Fatalf("quota = %d, want 2000", report.QuotaBytes)
	}

	sum := report.ImageBytes + report.VideoBytes + report.AudioBytes + report.OtherBytes
	if sum != report.TotalBytes {
		t.Fatalf("partitions sum to %d, total is %d", sum, report.TotalBytes)
	}
}
