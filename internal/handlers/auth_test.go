package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerAuth(env *testEnv) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/api/auth/login", env.Auth.Login)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("valid credentials issue a verifiable token", func(t *testing.T) {
		rr, decoded := doJSON(t, http.MethodPost, "/api/auth/login",
			map[string]any{"email": env.AuthorEmail, "password": "password123"},
			registerAuth(env))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		d := data(t, decoded)
		token, ok := d["token"].(string)
		require.True(t, ok)

		userID, err := env.Tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, env.AuthorID, userID)

		user := d["user"].(map[string]any)
		assert.Equal(t, env.AuthorEmail, user["email"])
	})

	t.Run("email is folded to lowercase", func(t *testing.T) {
		rr, _ := doJSON(t, http.MethodPost, "/api/auth/login",
			map[string]any{"email": strings.ToUpper(env.AuthorEmail), "password": "password123"},
			registerAuth(env))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	rejections := []struct {
		name string
		body map[string]any
		code int
	}{
		{"wrong password", map[string]any{"email": "", "password": "nope"}, http.StatusBadRequest},
		{"unknown user", map[string]any{"email": "ghost@example.com", "password": "x"}, http.StatusUnauthorized},
		{"missing password", map[string]any{"email": "someone@example.com"}, http.StatusBadRequest},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			rr, decoded := doJSON(t, http.MethodPost, "/api/auth/login", tt.body, registerAuth(env))
			assert.Equal(t, tt.code, rr.Code)
			assert.Equal(t, false, decoded["success"])
		})
	}

	t.Run("bad password for a real user", func(t *testing.T) {
		rr, _ := doJSON(t, http.MethodPost, "/api/auth/login",
			map[string]any{"email": env.AuthorEmail, "password": "wrong-password"},
			registerAuth(env))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
