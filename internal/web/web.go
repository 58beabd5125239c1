// Package web renders the site's pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"happy-game/internal/auth"
	"happy-game/internal/config"
	"happy-game/internal/constants"
	"happy-game/internal/domain"
	"happy-game/internal/middleware"
	"happy-game/internal/service"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

// shared partials parsed into every page
var partials = []string{"templates/layout.html", "templates/game_card.html", "templates/stars.html"}

var pageFiles = []string{"home", "pesquisa", "detalhes", "feedback", "contato", "login", "cadastro", "error"}

type navLink struct {
	Href   string
	Label  string
	Active bool
}

var navItems = []navLink{
	{Href: "/", Label: "Home"},
	{Href: "/pesquisa", Label: "Pesquisa"},
	{Href: "/contato", Label: "Contato"},
	{Href: "/feedback", Label: "Feedback"},
}

type page struct {
	Title       string
	Description string
	Nav         []navLink
	User        *domain.User
	Year        int
	Flash       string
	Alert       string
	Data        any
}

type Handler struct {
	catalog  *service.CatalogService
	ratings  *service.RatingService
	feedback *service.FeedbackService
	contact  *service.ContactService
	provider auth.Provider
	sessions *auth.Sessions

	googleEnabled bool
	debounce      time.Duration
	loc           *time.Location
	now           func() time.Time

	templates map[string]*template.Template
	policy    *bluemonday.Policy
	upgrader  websocket.Upgrader
	logger    zerolog.Logger
}

func NewHandler(
	catalog *service.CatalogService,
	ratings *service.RatingService,
	feedback *service.FeedbackService,
	contact *service.ContactService,
	provider auth.Provider,
	sessions *auth.Sessions,
	cfg *config.Config,
	logger zerolog.Logger,
) (*Handler, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Handler{
		catalog:       catalog,
		ratings:       ratings,
		feedback:      feedback,
		contact:       contact,
		provider:      provider,
		sessions:      sessions,
		googleEnabled: cfg.GoogleCredentialSecret != "",
		debounce:      constants.SearchDebounce,
		loc:           loc,
		now:           time.Now,
		templates:     templates,
		policy:        bluemonday.UGCPolicy(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With().Str("component", "web").Logger(),
	}, nil
}

func parseTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"stars": starString,
	}

	templates := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		files := append([]string{"templates/" + name + ".html"}, partials...)
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = t
	}
	return templates, nil
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.home)
	mux.HandleFunc("GET /pesquisa", h.search)
	mux.HandleFunc("GET /ws/pesquisa", h.liveSearch)
	mux.HandleFunc("GET /detalhes/{id}", h.details)
	mux.HandleFunc("POST /detalhes/{id}/nota", h.saveRating)
	mux.HandleFunc("GET /feedback", h.feedbackPage)
	mux.HandleFunc("POST /feedback", h.submitFeedback)
	mux.HandleFunc("GET /contato", h.contactPage)
	mux.HandleFunc("POST /contato", h.sendContact)
	mux.HandleFunc("GET /login", h.guestOnly(h.loginPage))
	mux.HandleFunc("POST /login", h.guestOnly(h.login))
	mux.HandleFunc("POST /login/google", h.guestOnly(h.loginWithGoogle))
	mux.HandleFunc("GET /cadastro", h.guestOnly(h.signupPage))
	mux.HandleFunc("POST /cadastro", h.guestOnly(h.signup))
	mux.HandleFunc("POST /logout", h.logout)
}

func (h *Handler) newPage(r *http.Request, title string, data any) *page {
	nav := make([]navLink, len(navItems))
	for i, item := range navItems {
		item.Active = r.URL.Path == item.Href
		nav[i] = item
	}

	var user *domain.User
	if visitor := middleware.GetVisitorID(r.Context()); visitor != "" {
		user = h.sessions.Get(visitor).Snapshot().User
	}

	return &page{
		Title: title,
		Nav:   nav,
		User:  user,
		Year:  h.now().In(h.loc).Year(),
		Data:  data,
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p *page) {
	t, ok := h.templates[name]
	if !ok {
		h.logger.Error().Str("template", name).Msg("unknown template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		h.log(r).Error().Err(err).Str("template", name).Msg("failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorData struct {
	Message string
	Hint    string
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message, hint string) {
	h.render(w, r, status, "error", h.newPage(r, "Happy Game", errorData{Message: message, Hint: hint}))
}

func (h *Handler) log(r *http.Request) *zerolog.Logger {
	l := zerolog.Ctx(r.Context())
	if l.GetLevel() == zerolog.Disabled {
		return &h.logger
	}
	return l
}

func visitor(r *http.Request) string {
	return middleware.GetVisitorID(r.Context())
}

func starString(n int) string {
	n = max(0, min(n, constants.RatingMax))
	return strings.Repeat("★", n) + strings.Repeat("☆", constants.RatingMax-n)
}
