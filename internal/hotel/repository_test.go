package hotel

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/catalog"
	"github.com/SlpAus/hotelier-ranking-backend/internal/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededRepo(t *testing.T) *Repository {
	t.Helper()
	repo := NewRepository()
	repo.Load(Seed(rand.New(rand.NewPCG(1, 2))))
	return repo
}

func TestSeed(t *testing.T) {
	snaps := Seed(rand.New(rand.NewPCG(1, 2)))
	require.Len(t, snaps, len(catalog.Cities())*len(catalog.Types()))

	ids := make(map[int64]bool)
	for _, s := range snaps {
		assert.False(t, ids[s.ID], "duplicated id %d", s.ID)
		ids[s.ID] = true
		digits := 0
		for _, r := range s.Phone {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		assert.Equal(t, 10, digits, s.Phone)
	}
	assert.Equal(t, "Hotel Ancona 3", snaps[0].Name)
	assert.Equal(t, "3 stelle", snaps[0].Type)
	assert.Equal(t, Seed(rand.New(rand.NewPCG(1, 2))), snaps)
}

func TestResolve(t *testing.T) {
	repo := seededRepo(t)

	tests := []struct {
		name  string
		query string
		want  string
		err   error
	}{
		{"single match", "Roma 3", "Hotel Roma 3", nil},
		{"two matches prefer exact", "Hotel Roma 4", "Hotel Roma 4", nil},
		{"two matches exact superior", "hotel roma 4s", "Hotel Roma 4S", nil},
		{"two matches first wins", "Roma 5", "Hotel Roma 5", nil},
		{"more than two", "Hotel Roma", "", ErrAmbiguousHotel},
		{"no match", "Hotel Milano 4", "", ErrUnknownHotel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := repo.Resolve(tt.query, "Roma")
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Name())
		})
	}

	_, err := repo.Resolve("Hotel", "Gotham")
	assert.ErrorIs(t, err, catalog.ErrInvalidCity)
}

func TestSearch(t *testing.T) {
	repo := seededRepo(t)

	all, err := repo.Search("", "roma")
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, 1, all[0].Rank)

	some, err := repo.Search("4", "Roma")
	require.NoError(t, err)
	require.Len(t, some, 2)

	none, err := repo.Search("Hilton", "Roma")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repo.Search("", "Gotham")
	assert.ErrorIs(t, err, catalog.ErrInvalidCity)
}

func TestAddReviewRunningMean(t *testing.T) {
	repo := seededRepo(t)
	h, err := repo.Resolve("Hotel Roma 4", "Roma")
	require.NoError(t, err)

	rates := []float64{4, 2, 5, 3.5, 1, 0, 4.5}
	assert.Equal(t, 4.0, runningMean(0, 4, 1))
	sum := 0.0
	for i, rate := range rates {
		h.Lock()
		got := repo.AddReviewLocked(h, review.Review{
			ID: int64(1001 + i), Author: "alice", Hotel: h.Name(), Rate: rate,
			Ratings: review.Scores{rate, rate, rate, rate}, Date: time.Now(),
		})
		h.Unlock()
		sum += rate
		mean := sum / float64(i+1)
		// 每一步的四舍五入最多引入 0.05 的误差
		bound := 0.05*float64(i+1) + 1e-9
		assert.InDelta(t, mean, got.Rate, bound, "step %d", i)
		assert.InDelta(t, mean, got.Ratings.Service, bound, "step %d", i)
	}

	reviews, err := repo.Reviews("Hotel Roma 4", "Roma")
	require.NoError(t, err)
	require.Len(t, reviews, len(rates))
	assert.Equal(t, int64(1007), reviews[0].ID, "newest first")
}

func TestUpvote(t *testing.T) {
	repo := seededRepo(t)
	h, err := repo.Resolve("Hotel Bari 3", "Bari")
	require.NoError(t, err)
	h.Lock()
	repo.AddReviewLocked(h, review.Review{ID: 1001, Author: "alice", Hotel: h.Name(), Rate: 3, Date: time.Now()})
	h.Unlock()

	_, err = repo.Upvote(1001, "alice")
	assert.ErrorIs(t, err, review.ErrSelfVote)
	_, err = repo.Upvote(4242, "bob")
	assert.ErrorIs(t, err, review.ErrUnknownReview)

	added, err := repo.Upvote(1001, "bob")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = repo.Upvote(1001, "bob")
	require.NoError(t, err)
	assert.False(t, added)

	rv, err := repo.Review(1001)
	require.NoError(t, err)
	assert.Equal(t, 1, rv.UpvoteCount())
}

func TestConcurrentUpvotesAreDistinct(t *testing.T) {
	repo := seededRepo(t)
	h, err := repo.Resolve("Hotel Bari 3", "Bari")
	require.NoError(t, err)
	h.Lock()
	repo.AddReviewLocked(h, review.Review{ID: 1001, Author: "alice", Hotel: h.Name(), Date: time.Now()})
	h.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = repo.Upvote(1001, []string{"bob", "carol", "dave"}[i%3])
		}(i)
	}
	wg.Wait()

	rv, err := repo.Review(1001)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol", "dave"}, rv.Upvotes)
}

func TestSetRanking(t *testing.T) {
	repo := seededRepo(t)
	order := []string{"Hotel Roma 5S", "Hotel Roma 3", "Hotel Roma 4", "Hotel Roma 4S", "Hotel Roma 5"}
	repo.SetRanking("Roma", order)

	assert.Equal(t, order, repo.Ranking("Roma"))
	hotels, err := repo.Search("5S", "Roma")
	require.NoError(t, err)
	require.Len(t, hotels, 1)
	assert.Equal(t, 1, hotels[0].Rank)
}

func TestSnapshotRoundTrip(t *testing.T) {
	repo := seededRepo(t)
	h, err := repo.Resolve("Hotel Roma 3", "Roma")
	require.NoError(t, err)
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h.Lock()
	repo.AddReviewLocked(h, review.Review{ID: 1001, Author: "a", Hotel: h.Name(), Rate: 2, Date: older})
	repo.AddReviewLocked(h, review.Review{ID: 1002, Author: "b", Hotel: h.Name(), Rate: 4, Date: older.Add(time.Hour)})
	h.Unlock()

	restored := NewRepository()
	maxID := restored.Load(repo.Snapshot())
	assert.Equal(t, int64(1002), maxID)
	assert.Equal(t, repo.Count(), restored.Count())

	reviews, err := restored.Reviews("Hotel Roma 3", "Roma")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, int64(1002), reviews[0].ID)

	hotels, err := restored.Search("Hotel Roma 3", "Roma")
	require.NoError(t, err)
	assert.Equal(t, 3.0, hotels[0].Rate)
}
