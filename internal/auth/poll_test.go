package auth

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type delayedJar struct {
	lock  sync.Mutex
	at    time.Time
	calls int
}

func (j *delayedJar) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.calls++
	if time.Now().Before(j.at) {
		return nil, nil
	}
	return []*http.Cookie{{Name: "SESSION", Value: "tok-1"}}, nil
}

func TestPollZeroTimeout(t *testing.T) {
	jar := &delayedJar{at: time.Now().Add(time.Hour)}
	token, found, err := NewPoller(jar, "SESSION").Poll(context.Background(), 0, time.Millisecond)
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, token)
	require.Equal(t, 1, jar.calls)
}

func TestPollFindsCookie(t *testing.T) {
	jar := &delayedJar{at: time.Now().Add(50 * time.Millisecond)}
	token, found, err := NewPoller(jar, "SESSION").Poll(context.Background(), 2*time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "tok-1", token)
}

func TestPollTimesOut(t *testing.T) {
	jar := &delayedJar{at: time.Now().Add(time.Hour)}
	start := time.Now()
	_, found, err := NewPoller(jar, "SESSION").Poll(context.Background(), 60*time.Millisecond, 10*time.Millisecond)
	require.NoError(t, err)
	require.False(t, found)
	require.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestPollRejectsConcurrentCall(t *testing.T) {
	jar := &delayedJar{at: time.Now().Add(time.Hour)}
	poller := NewPoller(jar, "SESSION")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := poller.Poll(ctx, time.Hour, 5*time.Millisecond)
		done <- err
	}()
	require.Eventually(t, poller.Active, time.Second, time.Millisecond)

	_, _, err := poller.Poll(context.Background(), time.Hour, time.Millisecond)
	require.ErrorIs(t, err, ErrPollingActive)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.False(t, poller.Active())

	// a finished poll does not block the next one
	jar.lock.Lock()
	jar.at = time.Time{}
	jar.lock.Unlock()
	token, found, err := poller.Poll(context.Background(), 0, time.Millisecond)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "tok-1", token)
}
