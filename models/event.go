package models

import "time"

// EventName is the closed set of analytics event kinds.
type EventName string

const (
	EventPageView        EventName = "page_view"
	EventSearchPerformed EventName = "search_performed"
	EventFilterUsed      EventName = "filter_used"
)

// AnalyticsEvent is one row in the analytics_events table. Nil pointers are
// stored as NULL.
type AnalyticsEvent struct {
	EventID           string         `json:"event_id"`
	SessionID         string         `json:"session_id"`
	UserID            *string        `json:"user_id"`
	EventName         EventName      `json:"event_name"`
	PagePath          *string        `json:"page_path"`
	LandingPath       *string        `json:"landing_path"`
	SearchQuery       *string        `json:"search_query,omitempty"`
	SearchScope       *string        `json:"search_scope,omitempty"`
	SearchResultCount *int           `json:"search_result_count,omitempty"`
	Filters           map[string]any `json:"filters,omitempty"`
	Metadata          map[string]any `json:"metadata"`
	CreatedAt         time.Time      `json:"created_at"`
}

type EventCountByTime struct {
	Time      time.Time `json:"time"`
	EventName *string   `json:"eventName,omitempty"`
	Count     uint64    `json:"count"`
}

type TopPathResult struct {
	PagePath string `json:"pagePath"`
	Count    uint64 `json:"count"`
}

type TopSearchResult struct {
	Query string `json:"query"`
	Scope string `json:"scope"`
	Count uint64 `json:"count"`
}

type ContentViewCount struct {
	ContentType string `json:"contentType"`
	ContentID   string `json:"contentId"`
	Views       uint64 `json:"views"`
	Sessions    uint64 `json:"uniqueSessions"`
}
