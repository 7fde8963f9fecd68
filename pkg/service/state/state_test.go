package state_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/ponderbot/ponder/pkg/service/state"
	"github.com/ponderbot/ponder/pkg/utils/logging"
)

func TestIssueAndConsume(t *testing.T) {
	s := state.New()
	ctx := context.Background()

	token, err := s.Issue(ctx)
	gt.NoError(t, err).Required()
	gt.Bool(t, token == "").False()

	gt.Bool(t, s.Consume(token)).True()
	gt.Bool(t, s.Consume(token)).False()
}

func TestConsumeUnknownToken(t *testing.T) {
	s := state.New()
	gt.Bool(t, s.Consume("never-issued")).False()
}

func TestTokensAreUnique(t *testing.T) {
	s := state.New()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := s.Issue(ctx)
		gt.NoError(t, err).Required()
		gt.Bool(t, seen[token]).False()
		seen[token] = true
	}
}

func TestExpiredStateIsRejected(t *testing.T) {
	current := time.Now()
	s := state.New(
		state.WithTTL(time.Minute),
		state.WithClock(func() time.Time { return current }),
	)
	ctx := context.Background()

	token, err := s.Issue(ctx)
	gt.NoError(t, err).Required()

	current = current.Add(2 * time.Minute)
	gt.Bool(t, s.Consume(token)).False()
}

func TestConcurrentConsumeSingleWinner(t *testing.T) {
	s := state.New()
	ctx := context.Background()

	token, err := s.Issue(ctx)
	gt.NoError(t, err).Required()

	const callers = 32
	var wg sync.WaitGroup
	results := make(chan bool, callers)

	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- s.Consume(token)
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	winners := 0
	for ok := range results {
		if ok {
			winners++
		}
	}
	gt.Number(t, winners).Equal(1)
}

func TestJanitorEvictsExpired(t *testing.T) {
	current := time.Now()
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	s := state.New(state.WithTTL(time.Minute), state.WithClock(now))
	ctx := context.Background()

	_, err := s.Issue(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, s.Len()).Equal(1)

	mu.Lock()
	current = current.Add(2 * time.Minute)
	mu.Unlock()

	s.StartJanitor(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.StopJanitor()

	gt.Number(t, s.Len()).Equal(0)
}

func TestJanitorWarnsAboutSingleInstanceScope(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Default()
	logging.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer logging.SetDefault(prev)

	s := state.New()
	s.StartJanitor(context.Background(), time.Minute)
	s.StopJanitor()

	gt.Bool(t, strings.Contains(buf.String(), "not safe for horizontally scaled deployments")).True()
}
