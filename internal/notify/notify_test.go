package notify

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/andresmejia3/maskwatch/internal/classify"
	"github.com/andresmejia3/maskwatch/internal/types"
)

func TestMain(m *testing.M) {
	os.Setenv("MASKWATCH_ENV", "test")
	os.Exit(m.Run())
}

func sampleResult() classify.Result {
	return classify.Result{
		Image:          []byte{0xFF, 0xD8, 0xFF, 0xD9},
		FaceCount:      1,
		Class:          types.WithoutMask,
		MeanConfidence: 0.91,
		MinConfidence:  0.88,
		MaxConfidence:  0.94,
		SampleCount:    2,
		Elapsed:        1500 * time.Millisecond,
	}
}

func TestNewResultEvent(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	ev := NewResultEvent("round-1", sampleResult(), true, "abc", at)

	if ev.Class != "without-mask" {
		t.Errorf("Expected class name without-mask, got %q", ev.Class)
	}
	if ev.ElapsedMs != 1500 {
		t.Errorf("Expected 1500ms, got %d", ev.ElapsedMs)
	}
	if ev.FaceCount != 1 || ev.SampleCount != 2 || !ev.Passed || ev.ImageDigest != "abc" || !ev.At.Equal(at) {
		t.Errorf("Unexpected event %+v", ev)
	}
}

func TestLogPublisher_Reminder(t *testing.T) {
	ctx := context.Background()
	p := NewLog()

	if _, ok := p.Pending(); ok {
		t.Fatal("Expected no reminder initially")
	}

	ev := NewResultEvent("round-2", sampleResult(), true, "", time.Now())
	if err := p.PublishResult(ctx, ev); err != nil {
		t.Fatal(err)
	}
	if err := p.Remind(ctx, ev); err != nil {
		t.Fatal(err)
	}
	got, ok := p.Pending()
	if !ok || got.RoundID != "round-2" {
		t.Errorf("Expected pending reminder for round-2, got %+v (ok=%v)", got, ok)
	}

	if err := p.CancelReminder(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Pending(); ok {
		t.Error("Expected reminder to be cleared")
	}
}

// TestRedisPublisherIntegration runs against a real Redis container.
// It requires Docker to be running.
func TestRedisPublisherIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// We wrap this in a function to recover from panics inside testcontainers (e.g. socket not found)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Fatalf("Docker not available, cannot run integration test: %v", err)
	}

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine", testcontainers.WithLogger(noopLogger{}))
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}
	defer func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate container: %v", err)
		}
	}()

	uri, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatal(err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatal(err)
	}

	p, err := NewRedis(ctx, RedisOptions{Address: opts.Addr, ReminderTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewRedis failed: %v", err)
	}
	defer p.Close()

	client := p.(*redisPublisher).client

	sub := client.Subscribe(ctx, ResultChannel)
	defer sub.Close()
	// Wait for the subscription to be confirmed before publishing.
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	ev := NewResultEvent("round-3", sampleResult(), false, "digest", time.Now().UTC())
	if err := p.PublishResult(ctx, ev); err != nil {
		t.Fatalf("PublishResult failed: %v", err)
	}

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	if err != nil {
		t.Fatalf("ReceiveMessage failed: %v", err)
	}
	var got ResultEvent
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatal(err)
	}
	if got.RoundID != "round-3" || got.Class != "without-mask" {
		t.Errorf("Unexpected published event %+v", got)
	}

	// Reminder lifecycle
	if err := p.Remind(ctx, ev); err != nil {
		t.Fatalf("Remind failed: %v", err)
	}
	ttl, err := client.TTL(ctx, ReminderKey).Result()
	if err != nil {
		t.Fatal(err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("Expected reminder TTL within a minute, got %v", ttl)
	}

	if err := p.CancelReminder(ctx); err != nil {
		t.Fatalf("CancelReminder failed: %v", err)
	}
	if n, _ := client.Exists(ctx, ReminderKey).Result(); n != 0 {
		t.Error("Expected reminder key to be deleted")
	}
	// Cancelling twice is harmless.
	if err := p.CancelReminder(ctx); err != nil {
		t.Errorf("Second CancelReminder failed: %v", err)
	}
}

type noopLogger struct{}

func (n noopLogger) Printf(format string, v ...interface{}) {}
