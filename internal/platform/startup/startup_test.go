package startup

import (
	"context"
	"errors"
	"testing"

	"github.com/SlpAus/hotelier-ranking-backend/internal/hotel"
	"github.com/SlpAus/hotelier-ranking-backend/internal/snapshot"
	"github.com/SlpAus/hotelier-ranking-backend/internal/store"
	"github.com/SlpAus/hotelier-ranking-backend/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	snap  store.Snapshot
	found bool
	err   error
}

func (f fakeLoader) LoadLatest(context.Context) (store.Snapshot, bool, error) {
	return f.snap, f.found, f.err
}

func TestSeedsWhenNothingFound(t *testing.T) {
	st := store.New(store.Options{})
	users := []user.User{{ID: 1005, Username: "alice", Password: "pw"}}

	source, err := InitializeApplication(context.Background(), st, fakeLoader{snap: store.Snapshot{Users: users}})
	require.NoError(t, err)
	assert.Equal(t, SourceSeed, source)
	assert.Equal(t, 100, st.Hotels().Count())
	assert.NoError(t, st.Login("alice", "pw"))
}

func TestLoadsSnapshot(t *testing.T) {
	st := store.New(store.Options{})
	snap := store.Snapshot{Hotels: []hotel.Snapshot{{Hotel: hotel.Hotel{ID: 16001, Name: "Hotel Roma 3", City: "Roma"}}}}

	source, err := InitializeApplication(context.Background(), st, fakeLoader{snap: snap, found: true})
	require.NoError(t, err)
	assert.Equal(t, SourceSnapshot, source)
	assert.Equal(t, 1, st.Hotels().Count())
}

func TestLoaderError(t *testing.T) {
	_, err := InitializeApplication(context.Background(), store.New(store.Options{}), fakeLoader{err: errors.New("boom")})
	assert.ErrorContains(t, err, "boom")
}

var _ snapshot.Loader = fakeLoader{}
