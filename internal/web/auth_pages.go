package web

import (
	"context"
	"happy-game/internal/auth"
	"happy-game/internal/constants"
	"net/http"
)

type authData struct {
	Email         string
	Error         string
	GoogleEnabled bool
}

// guestOnly waits for the visitor's session to resolve and sends signed-in
// visitors home. A session that does not resolve in time is treated as a guest.
func (h *Handler) guestOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), constants.SessionWaitTimeout)
		defer cancel()

		state, err := h.sessions.Get(visitor(r)).Wait(ctx)
		if err != nil {
			h.log(r).Warn().Err(err).Msg("session did not resolve, rendering as guest")
		}
		if state.User != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.renderAuth(w, r, http.StatusOK, "login", authData{})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")

	if _, err := h.provider.Login(r.Context(), visitor(r), email, r.FormValue("password")); err != nil {
		h.authFailed(w, r, "login", email, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) loginWithGoogle(w http.ResponseWriter, r *http.Request) {
	if _, err := h.provider.LoginWithGoogle(r.Context(), visitor(r), r.FormValue("credential")); err != nil {
		h.authFailed(w, r, "login", "", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) signupPage(w http.ResponseWriter, r *http.Request) {
	h.renderAuth(w, r, http.StatusOK, "cadastro", authData{})
}

// signup creates the account and signs in with it right away.
func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	email, password := r.FormValue("email"), r.FormValue("password")

	if _, err := h.provider.Signup(r.Context(), email, password); err != nil {
		h.authFailed(w, r, "cadastro", email, err)
		return
	}
	if _, err := h.provider.Login(r.Context(), visitor(r), email, password); err != nil {
		h.authFailed(w, r, "cadastro", email, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.provider.Logout(r.Context(), visitor(r)); err != nil {
		h.log(r).Error().Err(err).Msg("failed to sign out")
		h.renderError(w, r, http.StatusInternalServerError, auth.GenericMessage, "")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) authFailed(w http.ResponseWriter, r *http.Request, name, email string, err error) {
	status := http.StatusUnauthorized
	if auth.ErrorCode(err) == "" {
		h.log(r).Error().Err(err).Msg("auth request failed")
		status = http.StatusInternalServerError
	} else {
		h.log(r).Debug().Str("code", string(auth.ErrorCode(err))).Msg("auth request rejected")
	}
	h.renderAuth(w, r, status, name, authData{Email: email, Error: auth.Message(err)})
}

func (h *Handler) renderAuth(w http.ResponseWriter, r *http.Request, status int, name string, data authData) {
	data.GoogleEnabled = h.googleEnabled

	title := "Happy Game - Entrar"
	if name == "cadastro" {
		title = "Happy Game - Cadastro"
	}
	h.render(w, r, status, name, h.newPage(r, title, data))
}
