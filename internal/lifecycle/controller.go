// internal/lifecycle/controller.go
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/jason-s-yu/stakettt/internal/resolver"
	"github.com/jason-s-yu/stakettt/internal/room"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoControl means the room has no control object to poll, so it can never advance.
	ErrNoControl = errors.New("room has no control object")
	// ErrFetch wraps a failed chain read. The underlying error stays in the chain.
	ErrFetch = errors.New("chain fetch failed")
)

// ObjectFetcher reads a chain object as untyped JSON. Implemented by sui.Client.
type ObjectFetcher interface {
	GetObject(ctx context.Context, network models.Network, id string) (any, error)
}

// Outcome is the result of one poll.
type Outcome struct {
	Room         models.Room `json:"room"`
	Transitioned bool        `json:"transitioned"` // waiting -> active happened on this poll
	Navigate     bool        `json:"navigate"`     // the viewer should move to the game view
}

// Controller drives a room from waiting to active by inspecting its control object.
type Controller struct {
	store   *room.Store
	fetcher ObjectFetcher
	events  room.EventSink
	log     *logrus.Logger
}

func NewController(store *room.Store, fetcher ObjectFetcher, events room.EventSink, log *logrus.Logger) *Controller {
	return &Controller{store: store, fetcher: fetcher, events: events, log: log}
}

// Poll runs one poll cycle for a room.
//
// A waiting room becomes active once the control object shows a second player or a started
// state. When that happens, every id-shaped string in the control response is probed in
// traversal order and the first one that resolves to a game object is stored as gameId.
// An active room that already has a gameId is not fetched again. Fetch failures change
// nothing and are returned for the caller to log.
func (c *Controller) Poll(ctx context.Context, network models.Network, id string) (Outcome, error) {
	r, ok := c.store.GetByID(ctx, network, id)
	if !ok {
		return Outcome{}, room.ErrRoomNotFound
	}
	out := Outcome{Room: *r}
	if r.ControlID == "" {
		return out, ErrNoControl
	}

	switch r.Status {
	case models.StatusClosed:
		return out, nil
	case models.StatusActive:
		if r.GameID != "" {
			out.Navigate = true
			return out, nil
		}
	}

	obj, err := c.fetcher.GetObject(ctx, network, r.ControlID)
	if err != nil {
		return out, fmt.Errorf("%w: control %s: %w", ErrFetch, r.ControlID, err)
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	fields, _ := resolver.ExtractFields(obj)
	joined := resolver.OpponentJoined(fields)
	started := resolver.HasStarted(fields)
	if r.Status == models.StatusWaiting && !joined && !started {
		return out, nil
	}

	gameID := c.discoverGame(ctx, network, obj, r.ControlID)
	if err := ctx.Err(); err != nil {
		return out, err
	}

	var patch room.Patch
	if r.Status == models.StatusWaiting {
		active := models.StatusActive
		patch.Status = &active
	}
	if gameID != "" {
		patch.GameID = &gameID
	}
	if patch.Status == nil && patch.GameID == nil {
		out.Navigate = started
		return out, nil
	}

	updated, err := c.store.Update(ctx, network, id, patch)
	if err != nil {
		return out, fmt.Errorf("update room %s: %w", id, err)
	}
	if updated == nil {
		return out, room.ErrRoomNotFound
	}

	out.Room = *updated
	out.Transitioned = r.Status == models.StatusWaiting
	out.Navigate = gameID != "" || started

	logFields := logrus.Fields{"network": network, "room": id, "control": r.ControlID, "game": gameID}
	if out.Transitioned {
		c.log.WithFields(logFields).Info("room is active")
		room.PublishEvent(ctx, c.events, c.log, room.NewEvent(models.RoomActivated, *updated, ""))
	} else {
		c.log.WithFields(logFields).Info("game object discovered")
	}
	return out, nil
}

// discoverGame probes candidate ids sequentially so the first match is deterministic.
func (c *Controller) discoverGame(ctx context.Context, network models.Network, controlObj any, controlID string) string {
	for _, cand := range resolver.CandidateIDs(controlObj) {
		if cand == controlID {
			continue
		}
		if ctx.Err() != nil {
			return ""
		}
		obj, err := c.fetcher.GetObject(ctx, network, cand)
		if err != nil {
			c.log.WithFields(logrus.Fields{"network": network, "candidate": cand}).Debugf("candidate probe failed: %v", err)
			continue
		}
		if fields, ok := resolver.ExtractFields(obj); ok && resolver.LooksLikeGame(fields) {
			return cand
		}
	}
	return ""
}

// GameView fetches the room's game object (or its control object when no game is known)
// and extracts the board.
func (c *Controller) GameView(ctx context.Context, network models.Network, id string) (models.GameView, error) {
	r, ok := c.store.GetByID(ctx, network, id)
	if !ok {
		return models.GameView{}, room.ErrRoomNotFound
	}
	target := r.GameID
	if target == "" {
		target = r.ControlID
	}
	if target == "" {
		return models.GameView{}, ErrNoControl
	}
	obj, err := c.fetcher.GetObject(ctx, network, target)
	if err != nil {
		return models.GameView{}, fmt.Errorf("%w: %s: %w", ErrFetch, target, err)
	}
	fields, _ := resolver.ExtractFields(obj)
	return resolver.GameViewOf(target, fields), nil
}
