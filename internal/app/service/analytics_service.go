package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linklytics/linklytics/internal/app/repository"
)

// OSStat is one OS-family bucket of an analytics response.
type OSStat struct {
	OSName       string `json:"osName"`
	UniqueClicks int64  `json:"uniqueClicks"`
	UniqueUsers  int64  `json:"uniqueUsers"`
}

// DeviceStat is one device-class bucket of an analytics response.
type DeviceStat struct {
	DeviceName   string `json:"deviceName"`
	UniqueClicks int64  `json:"uniqueClicks"`
	UniqueUsers  int64  `json:"uniqueUsers"`
}

// LinkAnalytics is the per-link rollup.
type LinkAnalytics struct {
	TotalClicks  int64                  `json:"totalClicks"`
	UniqueUsers  int64                  `json:"uniqueUsers"`
	ClicksByDate []repository.DayClicks `json:"clicksByDate"`
	OSType       []OSStat               `json:"osType"`
	DeviceType   []DeviceStat           `json:"deviceType"`
}

// TopicLinkAnalytics is a per-link subtotal inside a topic rollup.
type TopicLinkAnalytics struct {
	ShortURL    string `json:"shortUrl"`
	TotalClicks int64  `json:"totalClicks"`
	UniqueUsers int64  `json:"uniqueUsers"`
}

// TopicAnalytics is the per-topic rollup.
type TopicAnalytics struct {
	TotalClicks  int64                  `json:"totalClicks"`
	UniqueUsers  int64                  `json:"uniqueUsers"`
	ClicksByDate []repository.DayClicks `json:"clicksByDate"`
	URLs         []TopicLinkAnalytics   `json:"urls"`
}

// OverallAnalytics is the per-owner rollup.
type OverallAnalytics struct {
	TotalURLs    int64                  `json:"totalUrls"`
	TotalClicks  int64                  `json:"totalClicks"`
	UniqueUsers  int64                  `json:"uniqueUsers"`
	ClicksByDate []repository.DayClicks `json:"clicksByDate"`
	OSType       []OSStat               `json:"osType"`
	DeviceType   []DeviceStat           `json:"deviceType"`
}

// AnalyticsService serves read-only rollups over links and access events.
type AnalyticsService interface {
	ByLink(ctx context.Context, code string) (*LinkAnalytics, error)
	ByTopic(ctx context.Context, topic string) (*TopicAnalytics, error)
	Overall(ctx context.Context, userID uuid.UUID) (*OverallAnalytics, error)
}

const trailingWindowDays = 7

type analyticsService struct {
	links     repository.LinkRepository
	analytics repository.AnalyticsRepository
	baseURL   string
}

// NewAnalyticsService returns an analytics service. baseURL is used to render
// per-topic short URLs.
func NewAnalyticsService(links repository.LinkRepository, analytics repository.AnalyticsRepository, baseURL string) AnalyticsService {
	return &analyticsService{
		links:     links,
		analytics: analytics,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// ByLink reports the counter value as total clicks (the counter, not an event
// count: the two agree at quiescence by the recorder's atomicity), distinct
// IPs as unique users, the trailing week of daily clicks, and distinct-IP
// breakdowns per OS family and device class.
func (s *analyticsService) ByLink(ctx context.Context, code string) (*LinkAnalytics, error) {
	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}

	uniqueUsers, err := s.analytics.UniqueVisitorsByLink(ctx, link.ID)
	if err != nil {
		return nil, fmt.Errorf("unique visitors: %w", err)
	}

	byDate, err := s.analytics.ClicksByDateForLink(ctx, link.ID, trailingWindowStart(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("clicks by date: %w", err)
	}

	osStats, err := s.analytics.OSBreakdownByLink(ctx, link.ID)
	if err != nil {
		return nil, fmt.Errorf("os breakdown: %w", err)
	}

	deviceStats, err := s.analytics.DeviceBreakdownByLink(ctx, link.ID)
	if err != nil {
		return nil, fmt.Errorf("device breakdown: %w", err)
	}

	return &LinkAnalytics{
		TotalClicks:  link.Clicks,
		UniqueUsers:  uniqueUsers,
		ClicksByDate: ensureDays(byDate),
		OSType:       toOSStats(osStats),
		DeviceType:   toDeviceStats(deviceStats),
	}, nil
}

// ByTopic sums click counters across the topic's links — the figure that must
// equal the sum of per-link totals — and aggregates visitors and daily clicks
// over the union of their events.
func (s *analyticsService) ByTopic(ctx context.Context, topic string) (*TopicAnalytics, error) {
	totalClicks, err := s.analytics.TopicClickSum(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("topic clicks: %w", err)
	}

	uniqueUsers, err := s.analytics.UniqueVisitorsByTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("unique visitors: %w", err)
	}

	byDate, err := s.analytics.ClicksByDateForTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("clicks by date: %w", err)
	}

	totals, err := s.analytics.LinkTotalsByTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("link totals: %w", err)
	}

	urls := make([]TopicLinkAnalytics, 0, len(totals))
	for _, t := range totals {
		urls = append(urls, TopicLinkAnalytics{
			ShortURL:    s.baseURL + "/" + t.ShortCode,
			TotalClicks: t.TotalClicks,
			UniqueUsers: t.UniqueUsers,
		})
	}

	return &TopicAnalytics{
		TotalClicks:  totalClicks,
		UniqueUsers:  uniqueUsers,
		ClicksByDate: ensureDays(byDate),
		URLs:         urls,
	}, nil
}

// Overall aggregates across every link the owner holds.
func (s *analyticsService) Overall(ctx context.Context, userID uuid.UUID) (*OverallAnalytics, error) {
	totalURLs, err := s.analytics.CountLinksByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count links: %w", err)
	}

	totalClicks, err := s.analytics.UserClickSum(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("click sum: %w", err)
	}

	uniqueUsers, err := s.analytics.UniqueVisitorsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("unique visitors: %w", err)
	}

	byDate, err := s.analytics.ClicksByDateForUser(ctx, userID, trailingWindowStart(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("clicks by date: %w", err)
	}

	osStats, err := s.analytics.OSBreakdownByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("os breakdown: %w", err)
	}

	deviceStats, err := s.analytics.DeviceBreakdownByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("device breakdown: %w", err)
	}

	return &OverallAnalytics{
		TotalURLs:    totalURLs,
		TotalClicks:  totalClicks,
		UniqueUsers:  uniqueUsers,
		ClicksByDate: ensureDays(byDate),
		OSType:       toOSStats(osStats),
		DeviceType:   toDeviceStats(deviceStats),
	}, nil
}

// trailingWindowStart is midnight (UTC) seven days before now.
func trailingWindowStart(now time.Time) time.Time {
	day := now.UTC().AddDate(0, 0, -trailingWindowDays)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

func ensureDays(days []repository.DayClicks) []repository.DayClicks {
	if days == nil {
		return []repository.DayClicks{}
	}
	return days
}

func toOSStats(stats []repository.AgentStat) []OSStat {
	out := make([]OSStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, OSStat{OSName: s.Name, UniqueClicks: s.UniqueClicks, UniqueUsers: s.UniqueUsers})
	}
	return out
}

func toDeviceStats(stats []repository.AgentStat) []DeviceStat {
	out := make([]DeviceStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, DeviceStat{DeviceName: s.Name, UniqueClicks: s.UniqueClicks, UniqueUsers: s.UniqueUsers})
	}
	return out
}
