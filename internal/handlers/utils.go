package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jason-s-yu/stakettt/internal/auth"
	"github.com/jason-s-yu/stakettt/internal/lifecycle"
	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/jason-s-yu/stakettt/internal/room"
	"github.com/jason-s-yu/stakettt/internal/sui"
	"github.com/sirupsen/logrus"
)

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	for _, part := range strings.Split(cookieHeader, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && name == cookieName {
			return value
		}
	}
	return ""
}

// walletFromRequest authenticates the session cookie (or a Bearer token) and returns the
// wallet address. It writes a 401 and returns false when there is no valid session.
func walletFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := extractCookieToken(r.Header.Get("Cookie"), auth.CookieName)
	if token == "" {
		token, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, "missing "+auth.CookieName)
		return "", false
	}
	address, err := auth.AuthenticateJWT(token)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "invalid token")
		return "", false
	}
	return address, true
}

// networkParam validates a network path value or query value; empty means testnet.
func networkParam(w http.ResponseWriter, raw string) (models.Network, bool) {
	if raw == "" {
		return models.Testnet, true
	}
	n := models.Network(strings.ToLower(raw))
	if !n.Valid() {
		writeMessage(w, http.StatusBadRequest, "unknown network "+raw)
		return "", false
	}
	return n, true
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeServiceError maps domain errors to HTTP statuses. Unknown errors are logged and
// reported as 500.
func writeServiceError(w http.ResponseWriter, log *logrus.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, room.ErrInvalidStake),
		errors.Is(err, room.ErrStakeTooLow),
		errors.Is(err, room.ErrMissingField),
		errors.Is(err, room.ErrUnknownNetwork),
		errors.Is(err, room.ErrUnknownStatus),
		errors.Is(err, room.ErrStatusRegression),
		errors.Is(err, lifecycle.ErrNoControl):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrBadSignature),
		errors.Is(err, auth.ErrUnsupportedKey),
		errors.Is(err, auth.ErrBadMessage),
		errors.Is(err, auth.ErrStaleMessage):
		status = http.StatusUnauthorized
	case errors.Is(err, room.ErrNotCreator):
		status = http.StatusForbidden
	case errors.Is(err, room.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, room.ErrRoomExists):
		status = http.StatusConflict
	case errors.Is(err, sui.ErrUpstream), errors.Is(err, lifecycle.ErrFetch):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Errorf("unexpected handler error: %v", err)
	}
	writeMessage(w, status, err.Error())
}
