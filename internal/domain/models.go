package domain

import (
	"time"
)

type Game struct {
	ID              int     `json:"id"`
	Slug            string  `json:"slug"`
	Name            string  `json:"name"`
	BackgroundImage string  `json:"background_image"`
	Rating          float64 `json:"rating"`
	Released        string  `json:"released,omitempty"`
	Metacritic      *int    `json:"metacritic,omitempty"`
	Genres          []Genre `json:"genres,omitempty"`
}

type GameDetails struct {
	Game
	Description string            `json:"description"`
	Platforms   []PlatformDetail  `json:"platforms"`
	Ratings     []RatingBreakdown `json:"ratings"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Platform struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type PlatformRequirements struct {
	Minimum     string `json:"minimum,omitempty"`
	Recommended string `json:"recommended,omitempty"`
}

type PlatformDetail struct {
	Platform     Platform             `json:"platform"`
	Requirements PlatformRequirements `json:"requirements"`
}

// RatingBreakdown is one bucket of the catalog's community ratings ("exceptional", "meh", ...).
type RatingBreakdown struct {
	ID      int     `json:"id"`
	Title   string  `json:"title"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// NewRelease is a trailer entry from the site's videos.json.
type NewRelease struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// FeedbackEntry keeps the field names of the persisted blob (nome, mensagem, rating, data).
type FeedbackEntry struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"nome"`
	Message     string `json:"mensagem"`
	Rating      int    `json:"rating"`
	SubmittedAt string `json:"data"`
}

type ContactMessage struct {
	Name    string `json:"nome"`
	Email   string `json:"email"`
	Message string `json:"mensagem"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider"` // "password" or "google"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
