package constants

import "time"

const (
	CatalogCacheTTL = time.Hour
	SearchDebounce  = 500 * time.Millisecond
	MinSearchLength = 2
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	SessionWaitTimeout = 2 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	RatingMin = 1
	RatingMax = 5
)

const (
	MinPasswordLength  = 6
	SessionCookieName  = "hg_session"
	SessionCookieTTL   = 365 * 24 * time.Hour
	SessionIdleTimeout = 30 * time.Minute
	SessionPruneEvery  = 10 * time.Minute
)

// FeedbackTimeLayout matches Date.toLocaleString("pt-BR").
const FeedbackTimeLayout = "02/01/2006, 15:04:05"
