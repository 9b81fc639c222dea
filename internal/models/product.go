package models

import "time"

// Product товар партнёрской витрины.
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Image       string    `json:"image"`
	Link        string    `json:"link"`
	Price       string    `json:"price,omitempty"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductPatch частичное обновление товара.
type ProductPatch struct {
	Title       *string `json:"title,omitempty"`
	Image       *string `json:"image,omitempty"`
	Link        *string `json:"link,omitempty"`
	Price       *string `json:"price,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
}
