// internal/lifecycle/scheduler.go
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/jason-s-yu/stakettt/internal/room"
	"github.com/sirupsen/logrus"
)

// DefaultInterval is the poll period used when none is configured.
const DefaultInterval = 2 * time.Second

// Sink receives poll outcomes for one watch. It is called from the task goroutine and
// should not block.
type Sink func(Outcome)

// Scheduler owns the poll tasks for every watched room. Each watch gets its own task, so
// two viewers of the same room poll independently.
type Scheduler struct {
	ctrl     *Controller
	interval time.Duration
	log      *logrus.Logger

	mu      sync.Mutex
	watches map[uuid.UUID]*watch
}

type watch struct {
	network models.Network
	roomID  string
	task    *Task
	sink    Sink
}

func NewScheduler(ctrl *Controller, interval time.Duration, log *logrus.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		ctrl:     ctrl,
		interval: interval,
		log:      log,
		watches:  make(map[uuid.UUID]*watch),
	}
}

// Watch starts polling a room and reports to sink whenever the outcome changes. The first
// outcome is always delivered. Rooms without a control object are rejected up front.
func (s *Scheduler) Watch(ctx context.Context, network models.Network, id string, sink Sink) (uuid.UUID, error) {
	r, ok := s.ctrl.store.GetByID(ctx, network, id)
	if !ok {
		return uuid.Nil, room.ErrRoomNotFound
	}
	if r.ControlID == "" {
		return uuid.Nil, ErrNoControl
	}

	watchID := uuid.New()
	entry := s.logEntry(network, id).WithField("watch", watchID)

	var (
		last      Outcome
		delivered bool
		task      *Task
	)
	task = NewTask(s.interval, func(ctx context.Context) {
		out, err := s.ctrl.Poll(ctx, network, id)
		if ctx.Err() != nil {
			// results that land after stop are dropped
			return
		}
		if errors.Is(err, room.ErrRoomNotFound) {
			entry.Info("room gone, ending watch")
			sink(closedOutcome(network, id))
			task.Cancel()
			return
		}
		if err != nil {
			entry.Warnf("poll failed: %v", err)
			return
		}
		if delivered && out == last {
			return
		}
		last, delivered = out, true
		sink(out)
	})

	s.mu.Lock()
	s.watches[watchID] = &watch{network: network, roomID: id, task: task, sink: sink}
	s.mu.Unlock()

	task.Start(context.WithoutCancel(ctx))
	entry.Debug("watch started")
	return watchID, nil
}

// Unwatch stops a single watch and waits for its task to exit.
func (s *Scheduler) Unwatch(watchID uuid.UUID) {
	s.mu.Lock()
	w, ok := s.watches[watchID]
	delete(s.watches, watchID)
	s.mu.Unlock()
	if ok {
		w.task.Stop()
		s.logEntry(w.network, w.roomID).WithField("watch", watchID).Debug("watch stopped")
	}
}

// StopRoom stops every watch bound to the room and tells each viewer the room is closed.
func (s *Scheduler) StopRoom(network models.Network, id string) {
	var stopped []*watch
	s.mu.Lock()
	for wid, w := range s.watches {
		if w.network == network && w.roomID == id {
			stopped = append(stopped, w)
			delete(s.watches, wid)
		}
	}
	s.mu.Unlock()

	for _, w := range stopped {
		w.task.Stop()
		w.sink(closedOutcome(network, id))
	}
	if len(stopped) > 0 {
		s.logEntry(network, id).Infof("stopped %d watch(es)", len(stopped))
	}
}

// StopAll stops every watch. Used on shutdown.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	tasks := make([]*Task, 0, len(s.watches))
	for wid, w := range s.watches {
		tasks = append(tasks, w.task)
		delete(s.watches, wid)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
}

// Active returns the number of running watches.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watches)
}

// Controller returns the controller the scheduler polls with.
func (s *Scheduler) Controller() *Controller {
	return s.ctrl
}

func closedOutcome(network models.Network, id string) Outcome {
	return Outcome{Room: models.Room{ID: id, Network: network, Status: models.StatusClosed}}
}

func (s *Scheduler) logEntry(network models.Network, id string) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{"network": network, "room": id})
}
