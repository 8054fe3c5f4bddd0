package sui

import (
	"context"

	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/jason-s-yu/stakettt/internal/resolver"
	"github.com/sirupsen/logrus"
)

// OwnedRefID picks the object id out of an owned-object reference.
func OwnedRefID(ref any) string {
	return firstString(ref, []string{"objectId"}, []string{"reference", "objectId"}, []string{"object_id"})
}

// SearchHitID picks an id out of an explorer search hit.
func SearchHitID(hit any) string {
	return firstString(hit, []string{"objectId"}, []string{"id"}, []string{"object_id"}, []string{"digest"}, []string{"name"})
}

func firstString(v any, paths ...[]string) string {
	for _, p := range paths {
		if s, ok := resolver.Lookup(v, p...).(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ResolveControls fetches each id from the fullnode, keeps the objects whose type contains
// marker, and returns them with their extracted fields. Per-object failures are skipped.
func (c *Client) ResolveControls(ctx context.Context, log *logrus.Logger, network models.Network, ids []string, marker string) []models.ResolvedObject {
	controls := make([]models.ResolvedObject, 0)
	for _, id := range ids {
		if id == "" {
			continue
		}
		obj, err := c.GetObject(ctx, network, id)
		if err != nil {
			log.WithFields(logrus.Fields{"network": network, "object": id}).Debugf("skipping object: %v", err)
			continue
		}
		if obj == nil {
			continue
		}
		typ := resolver.ObjectType(obj)
		if !resolver.IsControlType(typ, marker) {
			continue
		}
		fields, _ := resolver.ExtractFields(obj)
		controls = append(controls, models.ResolvedObject{ID: id, Type: typ, Fields: fields})
	}
	return controls
}
