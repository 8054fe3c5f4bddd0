// internal/room/store.go
package room

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/stakettt/internal/kv"
	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/sirupsen/logrus"
)

// Patch is a partial update for a room. Nil fields are left unchanged; the id is not patchable.
type Patch struct {
	Name      *string
	StakeMist *string
	Status    *models.RoomStatus
	TxDigest  *string
	ControlID *string
	GameID    *string
}

// Store keeps one JSON array of rooms per network, newest first, under "ttt.rooms.<network>".
//
// Every mutation re-reads the collection and writes it back whole. There is no locking:
// two concurrent writers can lose each other's updates. This is accepted for a single user
// driving a single room view at a time.
type Store struct {
	kv  kv.Store
	log *logrus.Logger
}

func NewStore(backend kv.Store, log *logrus.Logger) *Store {
	return &Store{kv: backend, log: log}
}

// Key returns the storage key for a network's collection.
func Key(network models.Network) string {
	return "ttt.rooms." + string(network)
}

// List returns the rooms for network. Missing, malformed or unreadable data yields an empty slice.
func (s *Store) List(ctx context.Context, network models.Network) []models.Room {
	raw, ok, err := s.kv.Get(ctx, Key(network))
	if err != nil {
		s.log.WithFields(logrus.Fields{"network": network}).Warnf("room list read failed: %v", err)
		return []models.Room{}
	}
	if !ok || len(raw) == 0 {
		return []models.Room{}
	}
	var rooms []models.Room
	if err := json.Unmarshal(raw, &rooms); err != nil || rooms == nil {
		return []models.Room{}
	}
	return rooms
}

// Save overwrites the whole collection for network.
func (s *Store) Save(ctx context.Context, network models.Network, rooms []models.Room) error {
	if !network.Valid() {
		return ErrUnknownNetwork
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	data, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("marshal rooms: %w", err)
	}
	return s.kv.Set(ctx, Key(network), data)
}

// Add prepends room to the collection.
func (s *Store) Add(ctx context.Context, network models.Network, room models.Room) error {
	rooms := s.List(ctx, network)
	rooms = append([]models.Room{room}, rooms...)
	return s.Save(ctx, network, rooms)
}

// GetByID does a linear lookup.
func (s *Store) GetByID(ctx context.Context, network models.Network, id string) (*models.Room, bool) {
	for _, r := range s.List(ctx, network) {
		if r.ID == id {
			r := r
			return &r, true
		}
	}
	return nil, false
}

// FindByControlID returns the first room referencing controlID.
func (s *Store) FindByControlID(ctx context.Context, network models.Network, controlID string) (*models.Room, bool) {
	if controlID == "" {
		return nil, false
	}
	for _, r := range s.List(ctx, network) {
		if r.ControlID == controlID {
			r := r
			return &r, true
		}
	}
	return nil, false
}

// Remove drops every room with id.
func (s *Store) Remove(ctx context.Context, network models.Network, id string) error {
	rooms := s.List(ctx, network)
	kept := rooms[:0]
	for _, r := range rooms {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	return s.Save(ctx, network, kept)
}

// Update merges patch into the room with id and returns the updated record.
// It returns (nil, nil) when no room matches, and ErrStatusRegression without writing
// anything if the patch would move the status backwards.
func (s *Store) Update(ctx context.Context, network models.Network, id string, patch Patch) (*models.Room, error) {
	rooms := s.List(ctx, network)
	idx := -1
	for i := range rooms {
		if rooms[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	updated := rooms[idx]
	if patch.Status != nil {
		if patch.Status.Rank() < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, *patch.Status)
		}
		if patch.Status.Rank() < updated.Status.Rank() {
			return nil, fmt.Errorf("%w: %s -> %s", ErrStatusRegression, updated.Status, *patch.Status)
		}
		updated.Status = *patch.Status
	}
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.StakeMist != nil {
		updated.StakeMist = *patch.StakeMist
	}
	if patch.TxDigest != nil {
		updated.TxDigest = *patch.TxDigest
	}
	if patch.ControlID != nil {
		updated.ControlID = *patch.ControlID
	}
	if patch.GameID != nil {
		updated.GameID = *patch.GameID
	}
	rooms[idx] = updated

	if err := s.Save(ctx, network, rooms); err != nil {
		return nil, err
	}
	return &updated, nil
}
