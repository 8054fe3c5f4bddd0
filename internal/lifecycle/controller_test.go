package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/jason-s-yu/stakettt/internal/kv"
	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/jason-s-yu/stakettt/internal/room"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	controlID = "0xc0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0"
	gameID    = "0x9a9a9a9a9a9a9a9a9a9a9a9a9a9a9a9a"
	playerA   = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

var errNode = errors.New("node unavailable")

// fakeFetcher serves canned JSON documents by object id and counts calls.
type fakeFetcher struct {
	mu      sync.Mutex
	objects map[string]string
	fail    map[string]bool
	calls   map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{objects: map[string]string{}, fail: map[string]bool{}, calls: map[string]int{}}
}

func (f *fakeFetcher) set(id, doc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[id] = doc
}

func (f *fakeFetcher) setFail(id string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[id] = fail
}

func (f *fakeFetcher) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeFetcher) GetObject(_ context.Context, _ models.Network, id string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if f.fail[id] {
		return nil, errNode
	}
	doc, ok := f.objects[id]
	if !ok {
		return nil, errors.New("object not found")
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(doc)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

type eventLog struct {
	mu     sync.Mutex
	events []models.RoomEvent
}

func (e *eventLog) Publish(_ context.Context, ev models.RoomEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func (e *eventLog) len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	store   *room.Store
	fetcher *fakeFetcher
	events  *eventLog
	ctrl    *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := room.NewStore(kv.NewMemory(), testLogger())
	f := &fixture{store: store, fetcher: newFakeFetcher(), events: &eventLog{}}
	f.ctrl = NewController(store, f.fetcher, f.events, testLogger())
	return f
}

func (f *fixture) addRoom(t *testing.T, id string, mutate func(*models.Room)) {
	t.Helper()
	r := models.Room{
		ID:        id,
		StakeMist: "1000000000",
		Creator:   playerA,
		Network:   models.Testnet,
		Status:    models.StatusWaiting,
		CreatedAt: 1700000000000,
		ControlID: controlID,
	}
	if mutate != nil {
		mutate(&r)
	}
	require.NoError(t, f.store.Add(context.Background(), models.Testnet, r))
}

func controlDoc(fields string) string {
	return `{"data":{"objectId":"` + controlID + `","type":"0x2::ttt::Control","content":{"fields":` + fields + `}}}`
}

func TestPollStaysWaitingUntilOpponent(t *testing.T) {
	f := newFixture(t)
	f.addRoom(t, "r1", nil)
	f.fetcher.set(controlID, controlDoc(`{"player1":"`+playerA+`","player2":"0x0"}`))

	out, err := f.ctrl.Poll(context.Background(), models.Testnet, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, out.Room.Status)
	assert.False(t, out.Transitioned)
	assert.False(t, out.Navigate)
	assert.Zero(t, f.events.len())
}

func TestPollActivatesOnOpponent(t *testing.T) {
	f := newFixture(t)
	f.addRoom(t, "r1", nil)
	f.fetcher.set(controlID, controlDoc(`{"player1":"`+playerA+`","player2":"0xD"}`))
	ctx := context.Background()

	out, err := f.ctrl.Poll(ctx, models.Testnet, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, out.Room.Status)
	assert.True(t, out.Transitioned)
	assert.Empty(t, out.Room.GameID)

	stored, _ := f.store.GetByID(ctx, models.Testnet, "r1")
	assert.Equal(t, models.StatusActive, stored.Status)
	require.Equal(t, 1, f.events.len())
	assert.Equal(t, models.RoomActivated, f.events.events[0].Type)

	// no game yet, so the next poll fetches again but does not re-emit
	out, err = f.ctrl.Poll(ctx, models.Testnet, "r1")
	require.NoError(t, err)
	assert.False(t, out.Transitioned)
	assert.Equal(t, 1, f.events.len())
}

func TestPollDiscoversGame(t *testing.T) {
	f := newFixture(t)
	f.addRoom(t, "r1", nil)
	f.fetcher.set(controlID, controlDoc(`{"game":"`+gameID+`","player1":"`+playerA+`","players":["`+playerA+`","0xD"],"state":"playing"}`))
	f.fetcher.set(gameID, `{"data":{"content":{"fields":{"board":[0,0,0,0,0,0,0,0,0],"turn":0,"x":"`+playerA+`","o":"0xD"}}}}`)
	ctx := context.Background()

	out, err := f.ctrl.Poll(ctx, models.Testnet, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, out.Room.Status)
	assert.Equal(t, gameID, out.Room.GameID)
	assert.True(t, out.Transitioned)
	assert.True(t, out.Navigate)

	controlCalls := f.fetcher.count(controlID)
	again, err := f.ctrl.Poll(ctx, models.Testnet, "r1")
	require.NoError(t, err)
	assert.Equal(t, out.Room, again.Room)
	assert.False(t, again.Transitioned)
	assert.True(t, again.Navigate)
	assert.Equal(t, controlCalls, f.fetcher.count(controlID), "settled room must not refetch")
	assert.Equal(t, 1, f.events.len())
}

func TestPollStartedSentinelNavigates(t *testing.T) {
	f := newFixture(t)
	f.addRoom(t, "r1", nil)
	f.fetcher.set(controlID, controlDoc(`{"player1":"`+playerA+`","state":1}`))

	out, err := f.ctrl.Poll(context.Background(), models.Testnet, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, out.Room.Status)
	assert.True(t, out.Navigate)
}

func TestPollFetchFailureLeavesRoom(t *testing.T) {
	f := newFixture(t)
	f.addRoom(t, "r1", nil)
	f.fetcher.setFail(controlID, true)
	ctx := context.Background()

	_, err := f.ctrl.Poll(ctx, models.Testnet, "r1")
	assert.ErrorIs(t, err, errNode)
	assert.ErrorIs(t, err, ErrFetch)
	stored, _ := f.store.GetByID(ctx, models.Testnet, "r1")
	assert.Equal(t, models.StatusWaiting, stored.Status)
	assert.Zero(t, f.events.len())
}

func TestPollWithoutControlOrRoom(t *testing.T) {
	f := newFixture(t)
	f.addRoom(t, "bare", func(r *models.Room) { r.ControlID = "" })
	ctx := context.Background()

	_, err := f.ctrl.Poll(ctx, models.Testnet, "bare")
	assert.ErrorIs(t, err, ErrNoControl)
	assert.Zero(t, f.fetcher.count(""))

	_, err = f.ctrl.Poll(ctx, models.Testnet, "missing")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestPollClosedIsStable(t *testing.T) {
	f := newFixture(t)
	f.addRoom(t, "r1", func(r *models.Room) { r.Status = models.StatusClosed })

	out, err := f.ctrl.Poll(context.Background(), models.Testnet, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, out.Room.Status)
	assert.Zero(t, f.fetcher.count(controlID))
}

func TestGameView(t *testing.T) {
	f := newFixture(t)
	f.addRoom(t, "r1", func(r *models.Room) {
		r.Status = models.StatusActive
		r.GameID = gameID
	})
	f.fetcher.set(gameID, `{"data":{"content":{"fields":{"cells":[1,0,2],"current_turn":1,"x":"`+playerA+`","o":"0xD"}}}}`)

	view, err := f.ctrl.GameView(context.Background(), models.Testnet, "r1")
	require.NoError(t, err)
	assert.Equal(t, gameID, view.ID)
	assert.Len(t, view.Board, 3)
	assert.Equal(t, json.Number("1"), view.Turn)
	assert.Equal(t, playerA, view.Players[0])
	assert.Equal(t, "0xD", view.Players[1])
}
