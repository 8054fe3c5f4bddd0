// internal/handlers/session.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/stakettt/internal/auth"
	"github.com/sirupsen/logrus"
)

type sessionRequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// SessionHandler exchanges a wallet-signed login message for a session cookie.
func SessionHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := decodeBody(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, "bad session request payload")
			return
		}
		if req.Message == "" || req.Signature == "" {
			writeMessage(w, http.StatusBadRequest, "message and signature are required")
			return
		}
		if err := auth.CheckSessionMessage(req.Message, s.now()); err != nil {
			writeServiceError(w, s.Logger, err)
			return
		}
		address, err := auth.VerifyPersonalMessage([]byte(req.Message), req.Signature)
		if err != nil {
			s.Logger.WithField("remote", r.RemoteAddr).Warnf("wallet signature rejected: %v", err)
			writeServiceError(w, s.Logger, err)
			return
		}

		token, err := auth.CreateJWT(address)
		if err != nil {
			writeServiceError(w, s.Logger, err)
			return
		}
		cookie := &http.Cookie{
			Name:     auth.CookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   r.TLS != nil,
		}
		if ttl := auth.TTL(); ttl > 0 {
			cookie.MaxAge = int(ttl.Seconds())
		}
		http.SetCookie(w, cookie)

		s.Logger.WithFields(logrus.Fields{"address": address}).Info("wallet session issued")
		writeJSON(w, http.StatusOK, map[string]string{"address": address, "token": token})
	}
}
