package models

import "time"

// Book описывает книгу-инфографику. Порядок InfographicImages задаёт порядок страниц.
type Book struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Author            string    `json:"author"`
	Category          string    `json:"category"`
	CoverImage        string    `json:"cover_image"`
	InfographicImages []string  `json:"infographic_images"`
	IsPremium         bool      `json:"is_premium"`
	IsFree            bool      `json:"is_free"`
	AffiliateLink     *string   `json:"affiliate_link,omitempty"`
	AffiliateClicks   int64     `json:"affiliate_clicks"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// BookFilter параметры выборки каталога.
type BookFilter struct {
	Search   string
	Category string
}

// BookPatch частичное обновление книги, nil-поля не меняются.
type BookPatch struct {
	Title         *string `json:"title,omitempty"`
	Author        *string `json:"author,omitempty"`
	Category      *string `json:"category,omitempty"`
	AffiliateLink *string `json:"affiliate_link,omitempty"`
	IsPremium     *bool   `json:"is_premium,omitempty"`
	IsFree        *bool   `json:"is_free,omitempty"`
}

// Источники клика по партнёрской ссылке.
const (
	SourceFloatingButton = "floating-button"
	SourceHeader         = "header"
	SourceEndBookPopup   = "end-book-popup"
	SourceBookCard       = "book-card"
	SourceOther          = "other"
)

// NormalizeSource приводит источник клика к допустимому значению.
func NormalizeSource(source string) string {
	switch source {
	case SourceFloatingButton, SourceHeader, SourceEndBookPopup, SourceBookCard:
		return source
	default:
		return SourceOther
	}
}

// AffiliateClick неизменяемая запись журнала кликов.
type AffiliateClick struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book_id"`
	UserID    *string   `json:"user_id,omitempty"`
	Source    string    `json:"source"`
	UserAgent string    `json:"user_agent,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SourceCount количество кликов из одного источника.
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// DayCount количество кликов за день (YYYY-MM-DD).
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// AffiliateAnalytics агрегированная статистика по книге.
type AffiliateAnalytics struct {
	TotalClicks      int64         `json:"total_clicks"`
	ClicksBySource   []SourceCount `json:"clicks_by_source"`
	ClicksOverTime   []DayCount    `json:"clicks_over_time"`
	UniqueUsersCount int64         `json:"unique_users_count"`
}
