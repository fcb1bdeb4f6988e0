package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-codec/internal/auth"
)

// ClientCredentials is the body of POST /auth/token.
type ClientCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// handleToken exchanges client credentials for a bearer token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req ClientCredentials
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ClientID == "" || req.ClientSecret == "" {
		writeBadRequest(w, "client_id and client_secret are required")
		return
	}

	scopes, err := s.clients.Authenticate(req.ClientID, req.ClientSecret)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Error("client authentication failed", "client_id", req.ClientID, "error", err)
		}
		writeUnauthorized(w, "invalid client credentials")
		return
	}

	ttl := time.Duration(s.secCfg.JWT.AccessTokenTTL) * time.Minute
	tok, err := auth.GenerateAccessToken(req.ClientID, scopes, s.secCfg.JWT.Secret, ttl)
	if err != nil {
		s.logger.Error("issuing token failed", "client_id", req.ClientID, "error", err)
		writeInternalError(w, "failed to issue token")
		return
	}
	s.logger.Info("token issued", "client_id", req.ClientID, "scopes", scopes)
	writeJSON(w, http.StatusOK, tok)
}
