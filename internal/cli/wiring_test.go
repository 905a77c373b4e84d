package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cybershield-quiz-service/internal/config"
	"cybershield-quiz-service/internal/domain"
	"github.com/alicebob/miniredis/v2"
)

func TestLiveFeedsStayInProcessWithRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	var cfg config.Config
	cfg.Storage.Driver = "memory"
	cfg.Redis.Addr = mr.Addr()
	svc, err := buildServices(ctx, cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer svc.Close()

	if _, err := seedQuizzes(ctx, svc.quizzes, filepath.Join("..", "..", "config", "quizzes.yaml")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	events, cancel := svc.attempts.Subscribe(ctx, "u1")
	defer cancel()
	view, err := svc.attempts.Start(ctx, "u1", "upi-safety")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case evt := <-events:
		if evt.Type != domain.EventAttemptStarted || evt.Attempt.ID != view.ID {
			t.Fatalf("unexpected event %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber did not receive the start event")
	}

	for _, key := range mr.Keys() {
		if !strings.HasPrefix(key, "quiz:") {
			t.Fatalf("only the quiz cache belongs in redis, found %q", key)
		}
	}
}
