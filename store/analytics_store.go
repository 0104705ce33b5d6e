package store

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"tourismhub/api/database"
	"tourismhub/api/models"
	"tourismhub/api/utils"
)

// Synthetic content/profile paths are page_view rows but not real pages.
const realPagePathFilter = `page_path NOT LIKE 'modal:%' AND page_path NOT LIKE 'profile:%'`

type AnalyticsStore struct {
	DB *database.ClickHouseClient
}

func NewAnalyticsStore(chClient *database.ClickHouseClient) *AnalyticsStore {
	return &AnalyticsStore{
		DB: chClient,
	}
}

// InsertAnalyticsEvent appends one event row. Column order must match the
// analytics_events schema.
func (s *AnalyticsStore) InsertAnalyticsEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	filters, metadata, err := encodeEventMaps(event)
	if err != nil {
		return err
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO analytics_events (
			event_id, session_id, user_id, event_name, page_path, landing_path,
			search_query, search_scope, search_result_count, filters, metadata, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}

	err = batch.Append(
		event.EventID,
		event.SessionID,
		event.UserID,
		string(event.EventName),
		event.PagePath,
		event.LandingPath,
		event.SearchQuery,
		event.SearchScope,
		nullableInt64(event.SearchResultCount),
		filters,
		metadata,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append event %s: %w", event.EventID, err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send event %s: %w", event.EventID, err)
	}
	return nil
}

func (s *AnalyticsStore) GetEventCountsOverTime(ctx context.Context, interval string, start, end time.Time, eventNameFilter string) ([]models.EventCountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	args := []any{start, end}
	selectCols := fmt.Sprintf("toStartOf%s(created_at) AS time_bucket, count() AS total_events", interval)
	groupByCols := "time_bucket"
	whereClause := "WHERE created_at >= ? AND created_at <= ?"
	orderByCols := "time_bucket ASC"
	isFilteringByName := eventNameFilter != ""

	if isFilteringByName {
		selectCols += ", event_name"
		groupByCols += ", event_name"
		whereClause += " AND event_name = ?"
		args = append(args, eventNameFilter)
		orderByCols += ", event_name ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM analytics_events
		%s
		GROUP BY %s
		ORDER BY %s
	`, selectCols, whereClause, groupByCols, orderByCols)

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query event counts over time: %w", err)
	}
	defer rows.Close()

	var results []models.EventCountByTime
	for rows.Next() {
		var (
			timeBucket time.Time
			count      uint64
			eventName  string
			result     models.EventCountByTime
		)

		if isFilteringByName {
			if err := rows.Scan(&timeBucket, &count, &eventName); err != nil {
				log.Error().Err(err).Msg("Error scanning event count row")
				continue
			}
			result.EventName = &eventName
		} else {
			if err := rows.Scan(&timeBucket, &count); err != nil {
				log.Error().Err(err).Msg("Error scanning event count row")
				continue
			}
		}

		result.Time = timeBucket
		result.Count = count
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during event counts over time query: %w", err)
	}

	return results, nil
}

func (s *AnalyticsStore) GetUniqueSessionsOverTime(ctx context.Context, interval string, start, end time.Time) ([]models.EventCountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("invalid interval: %s", interval)
	}

	query := fmt.Sprintf(`
		SELECT toStartOf%s(created_at) AS time_bucket, uniq(session_id) AS unique_sessions
		FROM analytics_events
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY time_bucket
		ORDER BY time_bucket ASC
	`, interval)

	rows, err := s.DB.Conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query unique sessions over time: %w", err)
	}
	defer rows.Close()

	var results []models.EventCountByTime
	for rows.Next() {
		var timeBucket time.Time
		var sessions uint64
		if err := rows.Scan(&timeBucket, &sessions); err != nil {
			log.Error().Err(err).Msg("Error scanning unique sessions row")
			continue
		}
		results = append(results, models.EventCountByTime{Time: timeBucket, Count: sessions})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for unique sessions: %w", err)
	}

	return results, nil
}

func (s *AnalyticsStore) GetTopNPagePaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error) {
	if limit == 0 {
		limit = 10
	}

	query := `
		SELECT assumeNotNull(page_path) AS path, count() AS view_count
		FROM analytics_events
		WHERE event_name = 'page_view' AND page_path IS NOT NULL
			AND ` + realPagePathFilter + `
			AND created_at >= ? AND created_at <= ?
		GROUP BY path
		ORDER BY view_count DESC
		LIMIT ?
	`
	rows, err := s.DB.Conn.Query(ctx, query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top page paths: %w", err)
	}
	defer rows.Close()

	var results []models.TopPathResult
	for rows.Next() {
		var r models.TopPathResult
		if err := rows.Scan(&r.PagePath, &r.Count); err != nil {
			log.Error().Err(err).Msg("Error scanning top path row")
			continue
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for top page paths: %w", err)
	}

	return results, nil
}

// GetTopSearches groups searches case-insensitively, the same way dedup keys do.
func (s *AnalyticsStore) GetTopSearches(ctx context.Context, scope string, start, end time.Time, limit uint64) ([]models.TopSearchResult, error) {
	if limit == 0 {
		limit = 10
	}

	args := []any{start, end}
	whereClause := "WHERE event_name = 'search_performed' AND search_query IS NOT NULL AND created_at >= ? AND created_at <= ?"
	if scope != "" {
		whereClause += " AND search_scope = ?"
		args = append(args, scope)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT lower(assumeNotNull(search_query)) AS query, ifNull(search_scope, '') AS scope, count() AS searches
		FROM analytics_events
		%s
		GROUP BY query, scope
		ORDER BY searches DESC
		LIMIT ?
	`, whereClause)

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top searches: %w", err)
	}
	defer rows.Close()

	var results []models.TopSearchResult
	for rows.Next() {
		var r models.TopSearchResult
		if err := rows.Scan(&r.Query, &r.Scope, &r.Count); err != nil {
			log.Error().Err(err).Msg("Error scanning top search row")
			continue
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for top searches: %w", err)
	}

	return results, nil
}

// GetContentViewsForOwner counts views of the owner's destinations and products.
func (s *AnalyticsStore) GetContentViewsForOwner(ctx context.Context, ownerID string, start, end time.Time) ([]models.ContentViewCount, error) {
	query := `
		SELECT
			JSONExtractString(metadata, 'content_type') AS content_type,
			JSONExtractString(metadata, 'content_id') AS content_id,
			count() AS views,
			uniq(session_id) AS sessions
		FROM analytics_events
		WHERE event_name = 'page_view'
			AND JSONExtractString(metadata, 'owner_id') = ?
			AND created_at >= ? AND created_at <= ?
		GROUP BY content_type, content_id
		ORDER BY views DESC
	`
	rows, err := s.DB.Conn.Query(ctx, query, ownerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query content views for owner: %w", err)
	}
	defer rows.Close()

	var results []models.ContentViewCount
	for rows.Next() {
		var r models.ContentViewCount
		if err := rows.Scan(&r.ContentType, &r.ContentID, &r.Views, &r.Sessions); err != nil {
			log.Error().Err(err).Msg("Error scanning content view row")
			continue
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for content views: %w", err)
	}

	return results, nil
}

func encodeEventMaps(event *models.AnalyticsEvent) (string, string, error) {
	filters := event.Filters
	if filters == nil {
		filters = map[string]any{}
	}
	f, err := json.Marshal(filters)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode filters for event %s: %w", event.EventID, err)
	}

	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	m, err := json.Marshal(metadata)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode metadata for event %s: %w", event.EventID, err)
	}
	return string(f), string(m), nil
}

func nullableInt64(n *int) *int64 {
	if n == nil {
		return nil
	}
	v := int64(*n)
	return &v
}
