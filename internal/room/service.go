// internal/room/service.go
package room

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/jason-s-yu/stakettt/internal/resolver"
	"github.com/sirupsen/logrus"
)

// ErrRoomExists means a room with the same id is already stored on the network.
var ErrRoomExists = errors.New("room already exists")

// RoomStopper cancels every poll task bound to a room. Implemented by lifecycle.Scheduler.
type RoomStopper interface {
	StopRoom(network models.Network, id string)
}

// CreateRequest carries a create-room submission. TxResult is the decoded execution result
// of the client's start transaction.
type CreateRequest struct {
	Network  models.Network
	Name     string
	Stake    string
	Creator  string
	TxResult any
}

// Service implements the create, join-check and delete flows on top of Store.
type Service struct {
	store   *Store
	events  EventSink
	log     *logrus.Logger
	marker  string
	stopper RoomStopper
	now     func() time.Time
}

// NewService wires a Service. marker is the control type marker used to pick the control
// object out of transaction results.
func NewService(store *Store, events EventSink, log *logrus.Logger, marker string) *Service {
	return &Service{
		store:  store,
		events: events,
		log:    log,
		marker: marker,
		now:    time.Now,
	}
}

// SetStopper registers the component that owns poll tasks, so deletes can tear them down.
func (s *Service) SetStopper(st RoomStopper) {
	s.stopper = st
}

// Store exposes the underlying room store.
func (s *Service) Store() *Store {
	return s.store
}

// Create validates the request and records a new waiting room.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Room, error) {
	if !req.Network.Valid() {
		return nil, ErrUnknownNetwork
	}
	if strings.TrimSpace(req.Creator) == "" {
		return nil, fmt.Errorf("%w: creator", ErrMissingField)
	}
	mist, err := ParseStakeMist(req.Stake)
	if err != nil {
		return nil, err
	}

	now := s.now()
	digest := resolver.DigestFromTx(req.TxResult)
	id := digest
	if id == "" {
		id = strconv.FormatInt(now.UnixMilli(), 10)
	}
	if _, exists := s.store.GetByID(ctx, req.Network, id); exists {
		return nil, fmt.Errorf("%w: %s", ErrRoomExists, id)
	}

	controlID, _ := resolver.ControlIDFromTx(req.TxResult, s.marker)
	r := models.Room{
		ID:        id,
		Name:      req.Name,
		StakeMist: strconv.FormatUint(mist, 10),
		Creator:   req.Creator,
		Network:   req.Network,
		Status:    models.StatusWaiting,
		CreatedAt: now.UnixMilli(),
		TxDigest:  digest,
		ControlID: controlID,
	}
	if err := s.store.Add(ctx, req.Network, r); err != nil {
		return nil, fmt.Errorf("save room: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"network": r.Network,
		"room":    r.ID,
		"control": r.ControlID,
		"stake":   r.StakeMist,
	}).Info("room created")
	PublishEvent(ctx, s.events, s.log, NewEvent(models.RoomCreated, r, r.Creator))
	return &r, nil
}

// CheckJoin validates a join attempt before the client signs it. When the control id
// belongs to a known room, the stake must be at least that room's stake. It returns the
// minimum stake in mist ("" when the room is unknown).
func (s *Service) CheckJoin(ctx context.Context, network models.Network, controlID, stake string) (string, error) {
	if !network.Valid() {
		return "", ErrUnknownNetwork
	}
	controlID = strings.TrimSpace(controlID)
	if controlID == "" {
		return "", fmt.Errorf("%w: controlId", ErrMissingField)
	}
	mist, err := ParseStakeMist(stake)
	if err != nil {
		return "", err
	}

	match, ok := s.store.FindByControlID(ctx, network, controlID)
	if !ok {
		return "", nil
	}
	minMist, err := strconv.ParseUint(match.StakeMist, 10, 64)
	if err != nil {
		// a corrupt stake on record cannot be enforced
		return "", nil
	}
	if mist < minMist {
		return match.StakeMist, fmt.Errorf("%w: minimum required is %s SUI", ErrStakeTooLow, FormatSUI(minMist))
	}
	return match.StakeMist, nil
}

// Delete removes a room on behalf of actor, who must be its creator.
func (s *Service) Delete(ctx context.Context, network models.Network, id, actor string) error {
	if !network.Valid() {
		return ErrUnknownNetwork
	}
	if strings.TrimSpace(actor) == "" {
		return fmt.Errorf("%w: wallet address", ErrMissingField)
	}
	r, ok := s.store.GetByID(ctx, network, id)
	if !ok {
		return ErrRoomNotFound
	}
	if !SameAddress(r.Creator, actor) {
		s.log.WithFields(logrus.Fields{"network": network, "room": id, "actor": actor}).Warn("non-creator delete rejected")
		return ErrNotCreator
	}

	if err := s.store.Remove(ctx, network, id); err != nil {
		return fmt.Errorf("remove room: %w", err)
	}
	if s.stopper != nil {
		s.stopper.StopRoom(network, id)
	}

	r.Status = models.StatusClosed
	s.log.WithFields(logrus.Fields{"network": network, "room": id}).Info("room deleted")
	PublishEvent(ctx, s.events, s.log, NewEvent(models.RoomDeleted, *r, actor))
	return nil
}

// SameAddress compares two hex addresses ignoring case and surrounding space.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
