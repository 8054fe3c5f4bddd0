// internal/handlers/controls.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/jason-s-yu/stakettt/internal/sui"
	"github.com/sirupsen/logrus"
)

type controlsResponse struct {
	Controls []models.ResolvedObject `json:"controls"`
}

// ControlsByOwnerHandler lists the control objects owned by an address.
// A failed owned-objects call is a 502; objects that fail to load are skipped.
func ControlsByOwnerHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := strings.TrimSpace(r.PathValue("address"))
		if address == "" {
			writeMessage(w, http.StatusBadRequest, "missing address")
			return
		}
		network, ok := networkParam(w, r.URL.Query().Get("network"))
		if !ok {
			return
		}

		refs, err := s.Chain.OwnedObjects(r.Context(), network, address)
		if err != nil {
			if errors.Is(err, sui.ErrUpstream) {
				s.Logger.WithFields(logrus.Fields{"network": network, "owner": address}).Warnf("owned objects lookup failed: %v", err)
				writeMessage(w, http.StatusBadGateway, "Fullnode RPC failed")
				return
			}
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		ids := make([]string, 0, len(refs))
		for _, ref := range refs {
			ids = append(ids, sui.OwnedRefID(ref))
		}
		controls := s.Chain.ResolveControls(r.Context(), s.Logger, network, ids, s.Marker)
		writeJSON(w, http.StatusOK, controlsResponse{Controls: controls})
	}
}

// ControlsByTypeHandler searches the explorer for objects of a type and re-resolves each hit
// against the fullnode. An empty type searches for the control marker.
func ControlsByTypeHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		network, ok := networkParam(w, q.Get("network"))
		if !ok {
			return
		}
		typ := strings.TrimSpace(q.Get("type"))
		if typ == "" {
			typ = s.Marker
		}

		hits := s.Chain.SearchByType(r.Context(), network, typ)
		ids := make([]string, 0, len(hits))
		for _, hit := range hits {
			ids = append(ids, sui.SearchHitID(hit))
		}
		controls := s.Chain.ResolveControls(r.Context(), s.Logger, network, ids, s.Marker)
		writeJSON(w, http.StatusOK, controlsResponse{Controls: controls})
	}
}
