package models

import (
	"time"

	"github.com/google/uuid"
)

// Place is one swipeable card: a restaurant, cafe, bar or event.
type Place struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Address       string    `json:"address" db:"address"`
	Rating        float64   `json:"rating" db:"rating"`
	PriceRange    string    `json:"price_range" db:"price_range"`
	ImageURL      string    `json:"image_url" db:"image_url"`
	WebsiteURL    string    `json:"website_url" db:"website_url"`
	ContactNumber string    `json:"contact_number" db:"contact_number"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
