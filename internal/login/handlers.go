package login

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// StartHandler adapts the Start operation to an HTTP endpoint.
func (g *Github) StartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirect, err := g.Start(r.Context(), requestFrom(r))
		if err != nil {
			writeFlowError(w, r, err)
			return
		}
		writeRedirect(w, redirect)
	}
}

// CallbackHandler adapts the Callback operation to an HTTP endpoint.
func (g *Github) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirect, err := g.Callback(r.Context(), requestFrom(r))
		if err != nil {
			writeFlowError(w, r, err)
			return
		}
		writeRedirect(w, redirect)
	}
}

// requestFrom extracts the pieces of an HTTP request the coordinator consumes.
func requestFrom(r *http.Request) Request {
	return Request{
		Host:  r.Host,
		Path:  r.URL.Path,
		Query: r.URL.Query(),
	}
}

// writeRedirect emits the coordinator's redirect, including the session
// cookie when one was issued.
func writeRedirect(w http.ResponseWriter, redirect *Redirect) {
	if redirect.SetCookie != "" {
		w.Header().Set("Set-Cookie", redirect.SetCookie)
	}
	w.Header().Set("Location", redirect.Location)
	w.WriteHeader(redirect.Status)
}

// writeFlowError maps flow errors onto HTTP statuses. Rejected identities get
// a 400; broken dependencies and configuration get a 500. The body never
// explains which.
func writeFlowError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrAuth) {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("login rejected")
		http.Error(w, "Authentication failed", http.StatusBadRequest)
		return
	}

	log.Error().Err(err).Str("path", r.URL.Path).Msg("login flow failed")
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
