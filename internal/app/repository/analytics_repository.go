package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DayClicks is one clicks-per-day bucket.
type DayClicks struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// AgentStat is one OS-family or device-class bucket. UniqueUsers is always a
// distinct-IP count; UniqueClicks depends on the scope (see the individual
// queries).
type AgentStat struct {
	Name         string
	UniqueClicks int64
	UniqueUsers  int64
}

// TopicLinkTotals is the per-link subtotal inside a topic rollup.
type TopicLinkTotals struct {
	ShortCode   string
	TotalClicks int64
	UniqueUsers int64
}

// AnalyticsRepository serves the read-only rollups. It never mutates links or
// events; queries run directly on the pgx pool since aggregate SQL has no
// business going through the ORM.
type AnalyticsRepository interface {
	UniqueVisitorsByLink(ctx context.Context, linkID uuid.UUID) (int64, error)
	ClicksByDateForLink(ctx context.Context, linkID uuid.UUID, since time.Time) ([]DayClicks, error)
	OSBreakdownByLink(ctx context.Context, linkID uuid.UUID) ([]AgentStat, error)
	DeviceBreakdownByLink(ctx context.Context, linkID uuid.UUID) ([]AgentStat, error)

	TopicClickSum(ctx context.Context, topic string) (int64, error)
	UniqueVisitorsByTopic(ctx context.Context, topic string) (int64, error)
	ClicksByDateForTopic(ctx context.Context, topic string) ([]DayClicks, error)
	LinkTotalsByTopic(ctx context.Context, topic string) ([]TopicLinkTotals, error)

	CountLinksByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	UserClickSum(ctx context.Context, userID uuid.UUID) (int64, error)
	UniqueVisitorsByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ClicksByDateForUser(ctx context.Context, userID uuid.UUID, since time.Time) ([]DayClicks, error)
	OSBreakdownByUser(ctx context.Context, userID uuid.UUID) ([]AgentStat, error)
	DeviceBreakdownByUser(ctx context.Context, userID uuid.UUID) ([]AgentStat, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository returns a pgx-backed AnalyticsRepository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) UniqueVisitorsByLink(ctx context.Context, linkID uuid.UUID) (int64, error) {
	return r.scalar(ctx,
		`SELECT COUNT(DISTINCT ip) FROM access_events WHERE link_id = $1`,
		linkID)
}

func (r *analyticsRepository) ClicksByDateForLink(ctx context.Context, linkID uuid.UUID, since time.Time) ([]DayClicks, error) {
	return r.dayClicks(ctx, `
		SELECT TO_CHAR(accessed_at::date, 'YYYY-MM-DD') AS date, COUNT(*) AS clicks
		FROM access_events
		WHERE link_id = $1 AND accessed_at >= $2
		GROUP BY accessed_at::date
		ORDER BY accessed_at::date`,
		linkID, since)
}

// Per-link agent breakdowns count distinct IPs for both figures: the same IP
// hitting the same link repeatedly from one OS is a single unique click.
func (r *analyticsRepository) OSBreakdownByLink(ctx context.Context, linkID uuid.UUID) ([]AgentStat, error) {
	return r.agentStats(ctx, `
		SELECT os, COUNT(DISTINCT ip), COUNT(DISTINCT ip)
		FROM access_events
		WHERE link_id = $1
		GROUP BY os`,
		linkID)
}

func (r *analyticsRepository) DeviceBreakdownByLink(ctx context.Context, linkID uuid.UUID) ([]AgentStat, error) {
	return r.agentStats(ctx, `
		SELECT device, COUNT(DISTINCT ip), COUNT(DISTINCT ip)
		FROM access_events
		WHERE link_id = $1
		GROUP BY device`,
		linkID)
}

func (r *analyticsRepository) TopicClickSum(ctx context.Context, topic string) (int64, error) {
	return r.scalar(ctx,
		`SELECT COALESCE(SUM(clicks), 0) FROM links WHERE topic = $1`,
		topic)
}

func (r *analyticsRepository) UniqueVisitorsByTopic(ctx context.Context, topic string) (int64, error) {
	return r.scalar(ctx, `
		SELECT COUNT(DISTINCT e.ip)
		FROM access_events e
		JOIN links l ON l.id = e.link_id
		WHERE l.topic = $1`,
		topic)
}

func (r *analyticsRepository) ClicksByDateForTopic(ctx context.Context, topic string) ([]DayClicks, error) {
	return r.dayClicks(ctx, `
		SELECT TO_CHAR(e.accessed_at::date, 'YYYY-MM-DD') AS date, COUNT(*) AS clicks
		FROM access_events e
		JOIN links l ON l.id = e.link_id
		WHERE l.topic = $1
		GROUP BY e.accessed_at::date
		ORDER BY e.accessed_at::date`,
		topic)
}

func (r *analyticsRepository) LinkTotalsByTopic(ctx context.Context, topic string) ([]TopicLinkTotals, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.short_code, COUNT(e.id) AS total_clicks, COUNT(DISTINCT e.ip) AS unique_users
		FROM links l
		LEFT JOIN access_events e ON e.link_id = l.id
		WHERE l.topic = $1
		GROUP BY l.id, l.short_code
		ORDER BY total_clicks DESC`,
		topic)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopicLinkTotals
	for rows.Next() {
		var t TopicLinkTotals
		if err := rows.Scan(&t.ShortCode, &t.TotalClicks, &t.UniqueUsers); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *analyticsRepository) CountLinksByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.scalar(ctx,
		`SELECT COUNT(*) FROM links WHERE user_id = $1`,
		userID)
}

func (r *analyticsRepository) UserClickSum(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.scalar(ctx,
		`SELECT COALESCE(SUM(clicks), 0) FROM links WHERE user_id = $1`,
		userID)
}

func (r *analyticsRepository) UniqueVisitorsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.scalar(ctx, `
		SELECT COUNT(DISTINCT e.ip)
		FROM access_events e
		JOIN links l ON l.id = e.link_id
		WHERE l.user_id = $1`,
		userID)
}

func (r *analyticsRepository) ClicksByDateForUser(ctx context.Context, userID uuid.UUID, since time.Time) ([]DayClicks, error) {
	return r.dayClicks(ctx, `
		SELECT TO_CHAR(e.accessed_at::date, 'YYYY-MM-DD') AS date, COUNT(*) AS clicks
		FROM access_events e
		JOIN links l ON l.id = e.link_id
		WHERE l.user_id = $1 AND e.accessed_at >= $2
		GROUP BY e.accessed_at::date
		ORDER BY e.accessed_at::date`,
		userID, since)
}

// Owner-scope breakdowns report raw event counts as unique clicks alongside
// the distinct-IP user count.
func (r *analyticsRepository) OSBreakdownByUser(ctx context.Context, userID uuid.UUID) ([]AgentStat, error) {
	return r.agentStats(ctx, `
		SELECT e.os, COUNT(*), COUNT(DISTINCT e.ip)
		FROM access_events e
		JOIN links l ON l.id = e.link_id
		WHERE l.user_id = $1
		GROUP BY e.os`,
		userID)
}

func (r *analyticsRepository) DeviceBreakdownByUser(ctx context.Context, userID uuid.UUID) ([]AgentStat, error) {
	return r.agentStats(ctx, `
		SELECT e.device, COUNT(*), COUNT(DISTINCT e.ip)
		FROM access_events e
		JOIN links l ON l.id = e.link_id
		WHERE l.user_id = $1
		GROUP BY e.device`,
		userID)
}

func (r *analyticsRepository) scalar(ctx context.Context, sql string, args ...any) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

func (r *analyticsRepository) dayClicks(ctx context.Context, sql string, args ...any) ([]DayClicks, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayClicks
	for rows.Next() {
		var d DayClicks
		if err := rows.Scan(&d.Date, &d.Clicks); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *analyticsRepository) agentStats(ctx context.Context, sql string, args ...any) ([]AgentStat, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AgentStat
	for rows.Next() {
		var s AgentStat
		if err := rows.Scan(&s.Name, &s.UniqueClicks, &s.UniqueUsers); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
