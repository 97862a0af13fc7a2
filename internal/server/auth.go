package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tuneclash/tuneclash-backend/internal/utils"
)

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// LoginHandler redirects the browser to the external provider's consent
// page. The state value is echoed back on the callback.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	state := utils.GenerateID(16)
	http.Redirect(w, r, s.authProv.AuthURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler completes the login: exchanges the code for a token,
// fetches the profile, persists the user, and mints a session.
func (s *Server) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	accessToken, _, err := s.authProv.Exchange(ctx, code)
	if err != nil {
		log.Printf("[CallbackHandler] code exchange failed: %v", err)
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	profile, err := s.authProv.Profile(ctx, accessToken)
	if err != nil {
		log.Printf("[CallbackHandler] profile fetch failed: %v", err)
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	user, err := s.db.UpsertUser(ctx, profile.ID, profile.DisplayName)
	if err != nil {
		log.Printf("[CallbackHandler] user upsert failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sess, err := s.sessions.Create(user.Identity, user.DisplayName, sessionTTL)
	if err != nil {
		log.Printf("[CallbackHandler] session create failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Printf("[CallbackHandler] user %s logged in, session %s", user.Identity, sess.ID)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// SessionHandler returns the session if it is still live.
func (s *Server) SessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]

	sess, ok := s.sessions.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// RefreshHandler extends a live session and re-signs its token.
func (s *Server) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]

	sess, err := s.sessions.Refresh(id, sessionTTL)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// LogoutHandler deletes the session. Idempotent.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}
