package room

import (
	"context"
	"io"
	"testing"

	"github.com/jason-s-yu/stakettt/internal/kv"
	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestStore() (*Store, *kv.Memory) {
	mem := kv.NewMemory()
	return NewStore(mem, testLogger()), mem
}

func sampleRoom(id string) models.Room {
	return models.Room{
		ID:        id,
		StakeMist: "1000000000",
		Creator:   "0xc0ffee",
		Network:   models.Testnet,
		Status:    models.StatusWaiting,
		CreatedAt: 1700000000000,
		ControlID: "0xC",
	}
}

func ids(rooms []models.Room) []string {
	out := make([]string, len(rooms))
	for i, r := range rooms {
		out[i] = r.ID
	}
	return out
}

func TestListEmptyAndMalformed(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore()

	assert.Empty(t, s.List(ctx, models.Testnet))
	assert.NotNil(t, s.List(ctx, models.Testnet))

	require.NoError(t, mem.Set(ctx, Key(models.Testnet), []byte("{not json")))
	assert.Empty(t, s.List(ctx, models.Testnet))

	require.NoError(t, mem.Set(ctx, Key(models.Testnet), []byte(`{"id":"x"}`)))
	assert.Empty(t, s.List(ctx, models.Testnet))

	require.NoError(t, mem.Set(ctx, Key(models.Testnet), []byte(`null`)))
	assert.Empty(t, s.List(ctx, models.Testnet))
}

func TestAddNewestFirstAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	require.NoError(t, s.Add(ctx, models.Testnet, sampleRoom("a")))
	require.NoError(t, s.Add(ctx, models.Testnet, sampleRoom("b")))
	require.NoError(t, s.Add(ctx, models.Testnet, sampleRoom("c")))

	assert.Equal(t, []string{"c", "b", "a"}, ids(s.List(ctx, models.Testnet)))

	got, ok := s.GetByID(ctx, models.Testnet, "b")
	require.True(t, ok)
	assert.Equal(t, sampleRoom("b"), *got)

	_, ok = s.GetByID(ctx, models.Mainnet, "b")
	assert.False(t, ok, "rooms are scoped per network")
}

func TestRemoveNeverReappears(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Add(ctx, models.Testnet, sampleRoom(id)))
	}
	require.NoError(t, s.Remove(ctx, models.Testnet, "b"))
	_, err := s.Update(ctx, models.Testnet, "a", Patch{Name: ptr("renamed")})
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, models.Testnet, sampleRoom("d")))

	assert.Equal(t, []string{"d", "c", "a"}, ids(s.List(ctx, models.Testnet)))
	_, ok := s.GetByID(ctx, models.Testnet, "b")
	assert.False(t, ok)

	require.NoError(t, s.Remove(ctx, models.Testnet, "missing"))
	assert.Len(t, s.List(ctx, models.Testnet), 3)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	require.NoError(t, s.Add(ctx, models.Testnet, sampleRoom("a")))

	active := models.StatusActive
	updated, err := s.Update(ctx, models.Testnet, "a", Patch{Status: &active, GameID: ptr("0xG")})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, models.StatusActive, updated.Status)
	assert.Equal(t, "0xG", updated.GameID)
	assert.Equal(t, "a", updated.ID)
	assert.Equal(t, "0xC", updated.ControlID, "unpatched fields survive")

	stored, _ := s.GetByID(ctx, models.Testnet, "a")
	assert.Equal(t, *updated, *stored)

	missing, err := s.Update(ctx, models.Testnet, "nope", Patch{Name: ptr("x")})
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateRejectsRegression(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	r := sampleRoom("a")
	r.Status = models.StatusActive
	require.NoError(t, s.Add(ctx, models.Testnet, r))

	waiting := models.StatusWaiting
	_, err := s.Update(ctx, models.Testnet, "a", Patch{Status: &waiting, Name: ptr("changed")})
	assert.ErrorIs(t, err, ErrStatusRegression)

	stored, _ := s.GetByID(ctx, models.Testnet, "a")
	assert.Equal(t, models.StatusActive, stored.Status)
	assert.Equal(t, "", stored.Name, "rejected patch must not partially apply")

	bogus := models.RoomStatus("paused")
	_, err = s.Update(ctx, models.Testnet, "a", Patch{Status: &bogus})
	assert.ErrorIs(t, err, ErrUnknownStatus)

	active := models.StatusActive
	_, err = s.Update(ctx, models.Testnet, "a", Patch{Status: &active})
	assert.NoError(t, err, "same status is not a regression")
}

func TestFindByControlID(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	require.NoError(t, s.Add(ctx, models.Testnet, sampleRoom("a")))

	r, ok := s.FindByControlID(ctx, models.Testnet, "0xC")
	require.True(t, ok)
	assert.Equal(t, "a", r.ID)

	_, ok = s.FindByControlID(ctx, models.Testnet, "")
	assert.False(t, ok)
}

func TestSaveUnknownNetwork(t *testing.T) {
	s, _ := newTestStore()
	assert.ErrorIs(t, s.Save(context.Background(), models.Network("devnet"), nil), ErrUnknownNetwork)
}

func ptr[T any](v T) *T { return &v }
