package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/auth"
	"inkwell/internal/store"
)

// Auth handles login. The response carries a bearer token for the
// authenticated routes.
type Auth struct {
	users  *store.UserStore
	tokens *auth.Tokens
}

func NewAuth(users *store.UserStore, tokens *auth.Tokens) *Auth {
	return &Auth{users: users, tokens: tokens}
}

// Login handles POST /api/auth/login. Unknown emails and bad passwords
// get the same answer.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginPayload
	if msg := decodeJSON(r, &req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.FindByEmail(email)
	if err != nil {
		respondInternal(w, "find user", err)
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		respondInternal(w, "issue token", err)
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"token": token,
		"user": user.Ref(),
	})
}
