package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
)

type mockAnalyticsRepository struct {
	uniqueVisitorsByLinkFn  func(ctx context.Context, linkID uuid.UUID) (int64, error)
	clicksByDateForLinkFn   func(ctx context.Context, linkID uuid.UUID, since time.Time) ([]repository.DayClicks, error)
	osBreakdownByLinkFn     func(ctx context.Context, linkID uuid.UUID) ([]repository.AgentStat, error)
	deviceBreakdownByLinkFn func(ctx context.Context, linkID uuid.UUID) ([]repository.AgentStat, error)
	topicClickSumFn         func(ctx context.Context, topic string) (int64, error)
	uniqueVisitorsByTopicFn func(ctx context.Context, topic string) (int64, error)
	clicksByDateForTopicFn  func(ctx context.Context, topic string) ([]repository.DayClicks, error)
	linkTotalsByTopicFn     func(ctx context.Context, topic string) ([]repository.TopicLinkTotals, error)
	countLinksByUserFn      func(ctx context.Context, userID uuid.UUID) (int64, error)
	userClickSumFn          func(ctx context.Context, userID uuid.UUID) (int64, error)
	uniqueVisitorsByUserFn  func(ctx context.Context, userID uuid.UUID) (int64, error)
	clicksByDateForUserFn   func(ctx context.Context, userID uuid.UUID, since time.Time) ([]repository.DayClicks, error)
	osBreakdownByUserFn     func(ctx context.Context, userID uuid.UUID) ([]repository.AgentStat, error)
	deviceBreakdownByUserFn func(ctx context.Context, userID uuid.UUID) ([]repository.AgentStat, error)
}

func (m *mockAnalyticsRepository) UniqueVisitorsByLink(ctx context.Context, linkID uuid.UUID) (int64, error) {
	if m.uniqueVisitorsByLinkFn != nil {
		return m.uniqueVisitorsByLinkFn(ctx, linkID)
	}
	return 0, nil
}

func (m *mockAnalyticsRepository) ClicksByDateForLink(ctx context.Context, linkID uuid.UUID, since time.Time) ([]repository.DayClicks, error) {
	if m.clicksByDateForLinkFn != nil {
		return m.clicksByDateForLinkFn(ctx, linkID, since)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) OSBreakdownByLink(ctx context.Context, linkID uuid.UUID) ([]repository.AgentStat, error) {
	if m.osBreakdownByLinkFn != nil {
		return m.osBreakdownByLinkFn(ctx, linkID)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) DeviceBreakdownByLink(ctx context.Context, linkID uuid.UUID) ([]repository.AgentStat, error) {
	if m.deviceBreakdownByLinkFn != nil {
		return m.deviceBreakdownByLinkFn(ctx, linkID)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) TopicClickSum(ctx context.Context, topic string) (int64, error) {
	if m.topicClickSumFn != nil {
		return m.topicClickSumFn(ctx, topic)
	}
	return 0, nil
}

func (m *mockAnalyticsRepository) UniqueVisitorsByTopic(ctx context.Context, topic string) (int64, error) {
	if m.uniqueVisitorsByTopicFn != nil {
		return m.uniqueVisitorsByTopicFn(ctx, topic)
	}
	return 0, nil
}

func (m *mockAnalyticsRepository) ClicksByDateForTopic(ctx context.Context, topic string) ([]repository.DayClicks, error) {
	if m.clicksByDateForTopicFn != nil {
		return m.clicksByDateForTopicFn(ctx, topic)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) LinkTotalsByTopic(ctx context.Context, topic string) ([]repository.TopicLinkTotals, error) {
	if m.linkTotalsByTopicFn != nil {
		return m.linkTotalsByTopicFn(ctx, topic)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) CountLinksByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if m.countLinksByUserFn != nil {
		return m.countLinksByUserFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockAnalyticsRepository) UserClickSum(ctx context.Context, userID uuid.UUID) (int64, error) {
	if m.userClickSumFn != nil {
		return m.userClickSumFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockAnalyticsRepository) UniqueVisitorsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if m.uniqueVisitorsByUserFn != nil {
		return m.uniqueVisitorsByUserFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockAnalyticsRepository) ClicksByDateForUser(ctx context.Context, userID uuid.UUID, since time.Time) ([]repository.DayClicks, error) {
	if m.clicksByDateForUserFn != nil {
		return m.clicksByDateForUserFn(ctx, userID, since)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) OSBreakdownByUser(ctx context.Context, userID uuid.UUID) ([]repository.AgentStat, error) {
	if m.osBreakdownByUserFn != nil {
		return m.osBreakdownByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) DeviceBreakdownByUser(ctx context.Context, userID uuid.UUID) ([]repository.AgentStat, error) {
	if m.deviceBreakdownByUserFn != nil {
		return m.deviceBreakdownByUserFn(ctx, userID)
	}
	return nil, nil
}

func TestAnalyticsService_ByLink(t *testing.T) {
	link := testLink()
	link.Clicks = 42
	links := &mockLinkRepository{
		getFn: func(ctx context.Context, code string) (*model.Link, error) {
			if code != link.ShortCode {
				return nil, repository.ErrLinkNotFound
			}
			return link, nil
		},
	}
	analytics := &mockAnalyticsRepository{
		uniqueVisitorsByLinkFn: func(ctx context.Context, linkID uuid.UUID) (int64, error) {
			return 7, nil
		},
		clicksByDateForLinkFn: func(ctx context.Context, linkID uuid.UUID, since time.Time) ([]repository.DayClicks, error) {
			if since.After(time.Now().UTC()) {
				t.Errorf("window start %v is in the future", since)
			}
			return []repository.DayClicks{{Date: "2026-08-30", Clicks: 5}}, nil
		},
		osBreakdownByLinkFn: func(ctx context.Context, linkID uuid.UUID) ([]repository.AgentStat, error) {
			return []repository.AgentStat{{Name: "Windows", UniqueClicks: 7, UniqueUsers: 7}}, nil
		},
		deviceBreakdownByLinkFn: func(ctx context.Context, linkID uuid.UUID) ([]repository.AgentStat, error) {
			return []repository.AgentStat{{Name: model.DeviceDesktop, UniqueClicks: 7, UniqueUsers: 7}}, nil
		},
	}

	svc := NewAnalyticsService(links, analytics, "https://sho.rt")
	got, err := svc.ByLink(context.Background(), link.ShortCode)
	if err != nil {
		t.Fatalf("ByLink returned error: %v", err)
	}
	// Total clicks come from the counter, not an event count.
	if got.TotalClicks != 42 {
		t.Errorf("TotalClicks = %d, want 42", got.TotalClicks)
	}
	if got.UniqueUsers != 7 {
		t.Errorf("UniqueUsers = %d, want 7", got.UniqueUsers)
	}
	if len(got.ClicksByDate) != 1 || got.ClicksByDate[0].Date != "2026-08-30" {
		t.Errorf("unexpected ClicksByDate: %+v", got.ClicksByDate)
	}
	if len(got.OSType) != 1 || got.OSType[0].OSName != "Windows" {
		t.Errorf("unexpected OSType: %+v", got.OSType)
	}
	if len(got.DeviceType) != 1 || got.DeviceType[0].DeviceName != model.DeviceDesktop {
		t.Errorf("unexpected DeviceType: %+v", got.DeviceType)
	}
}

func TestAnalyticsService_ByLink_UnknownCode(t *testing.T) {
	svc := NewAnalyticsService(&mockLinkRepository{}, &mockAnalyticsRepository{}, "https://sho.rt")
	_, err := svc.ByLink(context.Background(), "nosuch")
	if err == nil {
		t.Fatal("expected error for unknown code")
	}
}

func TestAnalyticsService_ByTopic(t *testing.T) {
	analytics := &mockAnalyticsRepository{
		topicClickSumFn: func(ctx context.Context, topic string) (int64, error) {
			return 30, nil
		},
		uniqueVisitorsByTopicFn: func(ctx context.Context, topic string) (int64, error) {
			return 12, nil
		},
		linkTotalsByTopicFn: func(ctx context.Context, topic string) ([]repository.TopicLinkTotals, error) {
			return []repository.TopicLinkTotals{
				{ShortCode: "abc123", TotalClicks: 20, UniqueUsers: 8},
				{ShortCode: "def456", TotalClicks: 10, UniqueUsers: 4},
			}, nil
		},
	}

	svc := NewAnalyticsService(&mockLinkRepository{}, analytics, "https://sho.rt/")
	got, err := svc.ByTopic(context.Background(), "newsletter")
	if err != nil {
		t.Fatalf("ByTopic returned error: %v", err)
	}
	if got.TotalClicks != 30 {
		t.Errorf("TotalClicks = %d, want 30", got.TotalClicks)
	}
	// The topic total is the sum of the per-link subtotals.
	var sum int64
	for _, u := range got.URLs {
		sum += u.TotalClicks
	}
	if sum != got.TotalClicks {
		t.Errorf("per-link totals sum to %d, topic total is %d", sum, got.TotalClicks)
	}
	if got.URLs[0].ShortURL != "https://sho.rt/abc123" {
		t.Errorf("ShortURL = %q, want %q", got.URLs[0].ShortURL, "https://sho.rt/abc123")
	}
	if got.ClicksByDate == nil {
		t.Error("ClicksByDate must be an empty slice, not nil")
	}
}

func TestAnalyticsService_Overall(t *testing.T) {
	analytics := &mockAnalyticsRepository{
		countLinksByUserFn: func(ctx context.Context, userID uuid.UUID) (int64, error) {
			return 3, nil
		},
		userClickSumFn: func(ctx context.Context, userID uuid.UUID) (int64, error) {
			return 100, nil
		},
		uniqueVisitorsByUserFn: func(ctx context.Context, userID uuid.UUID) (int64, error) {
			return 25, nil
		},
	}

	svc := NewAnalyticsService(&mockLinkRepository{}, analytics, "https://sho.rt")
	got, err := svc.Overall(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Overall returned error: %v", err)
	}
	if got.TotalURLs != 3 || got.TotalClicks != 100 || got.UniqueUsers != 25 {
		t.Errorf("unexpected rollup: %+v", got)
	}
	if got.ClicksByDate == nil || got.OSType == nil || got.DeviceType == nil {
		t.Error("empty aggregates must serialize as empty arrays, not null")
	}
}

func TestTrailingWindowStart(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 42, 7, 0, time.FixedZone("CEST", 2*3600))
	got := trailingWindowStart(now)
	want := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("trailingWindowStart = %v, want %v", got, want)
	}
}
