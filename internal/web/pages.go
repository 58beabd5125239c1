package web

import (
	"errors"
	"fmt"
	"happy-game/internal/api"
	"happy-game/internal/domain"
	"happy-game/internal/rating"
	"happy-game/internal/search"
	"happy-game/internal/service"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	msgLoadGamesFailed  = "Erro ao carregar jogos. Tente novamente mais tarde."
	msgGameNotFound     = "Jogo não encontrado!"
	msgDetailsFailed    = "Jogo não encontrado ou erro ao carregar detalhes."
	msgTryAgainLater    = "Tente novamente mais tarde."
	msgSearchHint       = "Digite pelo menos 2 caracteres para pesquisar."
	msgRatingOutOfRange = "Por favor, selecione uma nota entre 1 e 5."
	msgRatingSaved      = "Nota salva com sucesso!"
	msgFeedbackInvalid  = "Por favor, preencha o nome e dê uma avaliação."
	msgFeedbackSaved    = "Seu feedback foi salvo com sucesso!"
	msgContactInvalid   = "Por favor, preencha todos os campos com um e-mail válido."
	msgContactSent      = "Email enviado com sucesso!"
)

type homeData struct {
	Releases []domain.NewRelease
	Games    []domain.Game
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	var data homeData

	// a failed section renders its own fallback, so neither call cancels the other
	var g errgroup.Group
	g.Go(func() error {
		res := h.catalog.ListNewReleases(r.Context())
		data.Releases = res.OrEmpty()
		return res.Err
	})
	g.Go(func() error {
		res := h.catalog.ListGames(r.Context())
		data.Games = res.OrEmpty()
		return res.Err
	})
	if err := g.Wait(); err != nil {
		h.log(r).Warn().Err(err).Msg("home page rendered with missing sections")
	}

	p := h.newPage(r, "Happy Game - Home", data)
	p.Description = "Bem-vindo ao Happy Game! Encontre reviews dos melhores jogos e os últimos lançamentos."
	h.render(w, r, http.StatusOK, "home", p)
}

type searchData struct {
	Query string
	Hint  string
	Error string
	Games []domain.Game
}

// search is the no-script rendition of the live search. A one character
// query is never searched: the hint is shown over the default list.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	data := searchData{Query: r.URL.Query().Get("q")}

	query := data.Query
	if !search.ShouldFetch(query) {
		data.Hint = msgSearchHint
		query = ""
	}

	res := h.catalog.SearchGames(r.Context(), query)
	if res.OK() {
		data.Games = res.Data
	} else {
		data.Error = msgLoadGamesFailed
	}

	h.render(w, r, http.StatusOK, "pesquisa", h.newPage(r, "Happy Game - Pesquisa", data))
}

type ratingRow struct {
	Emoji   string
	Title   string
	Percent string
}

type platformRow struct {
	Name        string
	Minimum     string
	Recommended string
}

type detailsData struct {
	Game        *domain.GameDetails
	Description template.HTML
	UserScore   string
	Metacritic  string
	Genres      string
	Ratings     []ratingRow
	Platforms   []platformRow
	Stars       []rating.Star
	Committed   int
	SavedText   string
}

func (h *Handler) details(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	res := h.catalog.GetGameDetails(r.Context(), id)
	switch res.Status {
	case api.StatusNotFound:
		h.renderError(w, r, http.StatusNotFound, msgGameNotFound, "")
		return
	case api.StatusUnavailable:
		h.renderError(w, r, http.StatusServiceUnavailable, msgDetailsFailed, msgTryAgainLater)
		return
	}

	game := res.Data
	widget := rating.NewWidget(rating.WithItem(id, h.ratings.ForVisitor(r.Context(), visitor(r))))

	data := detailsData{
		Game: game,
		// the catalog sends HTML; keep formatting, drop anything active
		Description: template.HTML(h.policy.Sanitize(game.Description)),
		UserScore:   "N/A",
		Metacritic:  "N/A",
		Genres:      genreNames(game.Genres),
		Stars:       widget.Stars(),
		Committed:   widget.Committed(),
	}
	if game.Rating != 0 {
		data.UserScore = fmt.Sprintf("%v/5", game.Rating)
	}
	if game.Metacritic != nil && *game.Metacritic != 0 {
		data.Metacritic = fmt.Sprintf("%d/100", *game.Metacritic)
	}
	for _, rb := range game.Ratings {
		data.Ratings = append(data.Ratings, ratingRow{
			Emoji:   ratingEmoji(rb.Title),
			Title:   rb.Title,
			Percent: strconv.FormatFloat(rb.Percent, 'f', 1, 64),
		})
	}
	for _, p := range game.Platforms {
		row := platformRow{
			Name:        p.Platform.Name,
			Minimum:     p.Requirements.Minimum,
			Recommended: p.Requirements.Recommended,
		}
		if row.Minimum == "" {
			row.Minimum = "Sem requisitos mínimos disponíveis."
		}
		if row.Recommended == "" {
			row.Recommended = "Sem requisitos recomendados disponíveis."
		}
		data.Platforms = append(data.Platforms, row)
	}
	if c := widget.Committed(); c > 0 {
		data.SavedText = fmt.Sprintf("Sua Nota: %d/5", c)
	}

	p := h.newPage(r, game.Name+" - Happy Game", data)
	switch {
	case r.URL.Query().Has("salvo"):
		p.Flash = msgRatingSaved
	case r.URL.Query().Get("erro") == "nota":
		p.Alert = msgRatingOutOfRange
	}
	h.render(w, r, http.StatusOK, "detalhes", p)
}

func (h *Handler) saveRating(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	target := "/detalhes/" + id

	value, _ := strconv.Atoi(r.FormValue("nota"))
	widget := rating.NewWidget(rating.WithItem(id, h.ratings.ForVisitor(r.Context(), visitor(r))))

	err := widget.Select(value)
	switch {
	case errors.Is(err, rating.ErrOutOfRange), errors.Is(err, service.ErrRatingOutOfRange):
		http.Redirect(w, r, target+"?erro=nota", http.StatusSeeOther)
	case err != nil:
		h.log(r).Error().Err(err).Str("game_id", id).Msg("failed to save rating")
		h.renderError(w, r, http.StatusInternalServerError, "Não foi possível salvar sua nota.", msgTryAgainLater)
	default:
		http.Redirect(w, r, target+"?salvo=1", http.StatusSeeOther)
	}
}

type feedbackData struct {
	Entries   []domain.FeedbackEntry
	Name      string
	Message   string
	Committed int
	Stars     []rating.Star
}

func (h *Handler) feedbackPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.feedbackView(r, feedbackData{})
	if err != nil {
		h.log(r).Error().Err(err).Msg("failed to load feedback")
		h.renderError(w, r, http.StatusInternalServerError, "Não foi possível carregar os feedbacks.", msgTryAgainLater)
		return
	}
	if r.URL.Query().Has("enviado") {
		p.Flash = msgFeedbackSaved
	}
	h.render(w, r, http.StatusOK, "feedback", p)
}

func (h *Handler) submitFeedback(w http.ResponseWriter, r *http.Request) {
	value, _ := strconv.Atoi(r.FormValue("rating"))
	form := feedbackData{
		Name:    r.FormValue("nome"),
		Message: r.FormValue("mensagem"),
	}

	_, err := h.feedback.Submit(r.Context(), visitor(r), service.FeedbackInput{
		Name:    form.Name,
		Message: form.Message,
		Rating:  value,
	})
	if err == nil {
		http.Redirect(w, r, "/feedback?enviado=1", http.StatusSeeOther)
		return
	}

	if !errors.Is(err, service.ErrFeedbackInvalid) && !errors.Is(err, service.ErrRatingOutOfRange) {
		h.log(r).Error().Err(err).Msg("failed to submit feedback")
		h.renderError(w, r, http.StatusInternalServerError, "Não foi possível salvar seu feedback.", msgTryAgainLater)
		return
	}

	form.Committed = value
	p, loadErr := h.feedbackView(r, form)
	if loadErr != nil {
		h.log(r).Error().Err(loadErr).Msg("failed to load feedback")
		h.renderError(w, r, http.StatusInternalServerError, "Não foi possível carregar os feedbacks.", msgTryAgainLater)
		return
	}
	p.Alert = msgFeedbackInvalid
	h.render(w, r, http.StatusUnprocessableEntity, "feedback", p)
}

func (h *Handler) feedbackView(r *http.Request, form feedbackData) (*page, error) {
	entries, err := h.feedback.List(r.Context(), visitor(r))
	if err != nil {
		return nil, err
	}

	widget := rating.NewWidget(rating.WithInitial(form.Committed))
	form.Entries = entries
	form.Committed = widget.Committed()
	form.Stars = widget.Stars()
	return h.newPage(r, "Happy Game - Feedback", form), nil
}

func (h *Handler) contactPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "contato", h.newPage(r, "Happy Game - Contato", domain.ContactMessage{}))
}

func (h *Handler) sendContact(w http.ResponseWriter, r *http.Request) {
	msg := domain.ContactMessage{
		Name:    r.FormValue("nome"),
		Email:   r.FormValue("email"),
		Message: r.FormValue("mensagem"),
	}

	if err := h.contact.Send(r.Context(), msg); err != nil {
		p := h.newPage(r, "Happy Game - Contato", msg)
		p.Alert = msgContactInvalid
		h.render(w, r, http.StatusUnprocessableEntity, "contato", p)
		return
	}

	p := h.newPage(r, "Happy Game - Contato", domain.ContactMessage{})
	p.Flash = msgContactSent
	h.render(w, r, http.StatusOK, "contato", p)
}

func genreNames(genres []domain.Genre) string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

func ratingEmoji(title string) string {
	switch title {
	case "exceptional":
		return "🔥"
	case "recommended":
		return "👍"
	case "meh":
		return "😐"
	case "skip":
		return "❌"
	default:
		return "⭐"
	}
}
