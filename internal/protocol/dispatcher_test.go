package protocol

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/hotel"
	"github.com/SlpAus/hotelier-ranking-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	s := store.New(store.Options{Cooldown: time.Hour})
	s.Import(store.Snapshot{Hotels: hotel.Seed(rand.New(rand.NewPCG(1, 2)))})
	require.NoError(t, s.Register("alice", "pw"))
	require.NoError(t, s.Register("bob", "pw"))
	return NewDispatcher(s)
}

func TestLoginLogoutSession(t *testing.T) {
	d := newDispatcher(t)
	guest := NewGuestSession("10.0.0.7")

	resp, sess := d.HandleLine(guest, "LOGIN alice pw")
	assert.Equal(t, "SUCCESS OK\nuser:alice\n\n", string(resp.Encode()))
	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "session:alice", sess.Tag())

	// 已登录的连接不能再次登录
	resp, same := d.HandleLine(sess, "LOGIN bob pw")
	assert.Equal(t, "SessionError", resp.ErrName)
	assert.Equal(t, sess, same)

	// 只能登出自己
	resp, _ = d.HandleLine(sess, "LOGOUT user:bob")
	assert.Equal(t, "SessionError", resp.ErrName)

	resp, sess = d.HandleLine(sess, "LOGOUT user:alice")
	assert.Equal(t, InfoDone, resp.Info)
	assert.Equal(t, guest, sess)

	resp, _ = d.HandleLine(guest, "LOGOUT user:alice")
	assert.Equal(t, "SessionError", resp.ErrName)
}

func TestLoginErrors(t *testing.T) {
	d := newDispatcher(t)
	guest := NewGuestSession("10.0.0.7")

	resp, _ := d.HandleLine(guest, "LOGIN carol pw")
	assert.Equal(t, "NotRegistered", resp.ErrName)
	resp, _ = d.HandleLine(guest, "LOGIN alice nope")
	assert.Equal(t, "WrongCredential", resp.ErrName)
	resp, _ = d.HandleLine(guest, `LOGIN alice ""`)
	assert.Equal(t, "InvalidCredential", resp.ErrName)

	_, _ = d.HandleLine(guest, "LOGIN alice pw")
	resp, sess := d.HandleLine(NewGuestSession("10.0.0.8"), "LOGIN alice pw")
	assert.Equal(t, "AlreadyLoggedIn", resp.ErrName)
	assert.False(t, sess.IsAuthenticated())
}

func TestSearch(t *testing.T) {
	d := newDispatcher(t)
	guest := NewGuestSession("10.0.0.7")

	resp, _ := d.HandleLine(guest, `SEARCH "hotel roma 4" "Roma"`)
	require.Equal(t, InfoFound, resp.Info)
	assert.Len(t, resp.Body, 2)

	resp, _ = d.HandleLine(guest, `SEARCH "Grand Budapest" "Roma"`)
	assert.Equal(t, InfoNotFound, resp.Info)
	assert.Equal(t, "SUCCESS NotFound\n\n", string(resp.Encode()))

	resp, _ = d.HandleLine(guest, "SEARCHALL Milano")
	assert.Len(t, resp.Body, 5)

	resp, _ = d.HandleLine(guest, "SEARCHALL Atlantide")
	assert.Equal(t, "InvalidCity", resp.ErrName)
}

func TestInsertReviewAndShow(t *testing.T) {
	d := newDispatcher(t)
	_, alice := d.HandleLine(NewGuestSession("10.0.0.7"), "LOGIN alice pw")

	resp, _ := d.HandleLine(alice, "SHOWMYBADGES user:alice")
	assert.Equal(t, "SUCCESS More\nN/A\n\n", string(resp.Encode()))

	resp, _ = d.HandleLine(alice, `INSERTREVIEW user:bob "Hotel Roma 4" "Roma" 4 4 4 4 4`)
	assert.Equal(t, "SessionError", resp.ErrName)

	resp, _ = d.HandleLine(alice, `INSERTREVIEW user:alice "Hotel Roma 4" "Roma" 4 4 4 4 4`)
	assert.Equal(t, "SUCCESS Done\n\n", string(resp.Encode()))

	resp, _ = d.HandleLine(alice, `INSERTREVIEW user:alice "Hotel Roma 4" "Roma" 5 5 5 5 5`)
	assert.Equal(t, "RateLimited", resp.ErrName)

	resp, _ = d.HandleLine(alice, `INSERTREVIEW user:alice "Hotel Roma 5" "Roma" 6 4 4 4 4`)
	assert.Equal(t, "InvalidScore", resp.ErrName)
	resp, _ = d.HandleLine(alice, `INSERTREVIEW user:alice "Hotel Roma 5" "Roma" abc 4 4 4 4`)
	assert.Equal(t, "InvalidScore", resp.ErrName)
	resp, _ = d.HandleLine(alice, `INSERTREVIEW user:alice "Hotel" "Roma" 4 4 4 4 4`)
	assert.Equal(t, "AmbiguousHotel", resp.ErrName)

	resp, _ = d.HandleLine(alice, "SHOWMYREVIEWS user:alice")
	require.Equal(t, InfoFound, resp.Info)
	require.Len(t, resp.Body, 1)
	assert.Contains(t, resp.Body[0], "{1001; alice; Hotel Roma 4; 4.0; [4.0, 4.0, 4.0, 4.0]; ")

	resp, _ = d.HandleLine(alice, "SHOWMYBADGES alice")
	assert.Equal(t, []string{"Recensore"}, resp.Body)

	resp, _ = d.HandleLine(NewGuestSession("10.0.0.9"), `SHOWREVIEWS "Hotel Roma 4" Roma`)
	assert.Len(t, resp.Body, 1)

	resp, _ = d.HandleLine(NewGuestSession("10.0.0.9"), "SHOWMYREVIEWS user:alice")
	assert.Equal(t, "SessionError", resp.ErrName)
}

func TestUpvote(t *testing.T) {
	d := newDispatcher(t)
	_, alice := d.HandleLine(NewGuestSession("10.0.0.7"), "LOGIN alice pw")
	resp, _ := d.HandleLine(alice, `INSERTREVIEW user:alice "Hotel Napoli 3" "Napoli" 3 3 3 3 3`)
	require.False(t, resp.IsError())

	resp, _ = d.HandleLine(alice, "UPVOTE #1001")
	assert.Equal(t, "SelfVote", resp.ErrName)

	guest := NewGuestSession("10.0.0.9")
	resp, _ = d.HandleLine(guest, "UPVOTE #1001")
	assert.Equal(t, InfoDone, resp.Info)
	resp, _ = d.HandleLine(guest, "UPVOTE 1001")
	assert.Equal(t, InfoFailure, resp.Info)

	resp, _ = d.HandleLine(guest, "UPVOTE #42")
	assert.Equal(t, "UnknownReview", resp.ErrName)
	resp, _ = d.HandleLine(guest, "UPVOTE #abc")
	assert.Equal(t, "UnknownReview", resp.ErrName)

	resp, _ = d.HandleLine(guest, "SHOWREVIEWS \"Hotel Napoli 3\" Napoli")
	require.Len(t, resp.Body, 1)
	assert.Contains(t, resp.Body[0], "; 1; [10.0.0.9]}")
}

func TestBadRequest(t *testing.T) {
	d := newDispatcher(t)
	resp, _ := d.HandleLine(NewGuestSession("10.0.0.7"), "DANCE")
	assert.Equal(t, "BadRequest", resp.ErrName)
}
