package bot

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func contains(pool []string, reply string) bool {
	for _, candidate := range pool {
		if candidate == reply {
			return true
		}
	}
	return false
}

func TestPickReply_FirstMatchingPatternWins(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		reply := pickReply("hej på dig", rng)
		if !contains(keywordSets[0].replies, reply) {
			t.Fatalf("expected greeting reply, got %q", reply)
		}
	}

	// "hejdå" also matches the greeting pattern, which comes first
	reply := pickReply("hejdå", rng)
	if !contains(keywordSets[0].replies, reply) {
		t.Fatalf("expected first pattern to win for hejdå, got %q", reply)
	}
}

func TestPickReply_FallsBackToGenericPool(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		reply := pickReply("zzz", rng)
		if !contains(genericReplies, reply) {
			t.Fatalf("expected generic reply, got %q", reply)
		}
	}
}

func TestSchedule_DeliversExactlyOneReply(t *testing.T) {
	var (
		mu      sync.Mutex
		replies []string
	)
	logger := zerolog.Nop()
	r := New(10*time.Millisecond, 10*time.Millisecond, func(text string) {
		mu.Lock()
		replies = append(replies, text)
		mu.Unlock()
	}, &logger)

	r.Schedule("hej")
	if !r.Pending() {
		t.Fatalf("expected a pending reply after schedule")
	}

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(replies) != 1 {
		t.Fatalf("expected exactly one reply, got %d", len(replies))
	}
	if !contains(keywordSets[0].replies, replies[0]) {
		t.Fatalf("expected greeting reply, got %q", replies[0])
	}
	if r.Pending() {
		t.Fatalf("expected no pending reply after delivery")
	}
}

func TestSchedule_SecondSendCancelsFirstTimer(t *testing.T) {
	var (
		mu      sync.Mutex
		replies []string
	)
	logger := zerolog.Nop()
	r := New(50*time.Millisecond, 50*time.Millisecond, func(text string) {
		mu.Lock()
		replies = append(replies, text)
		mu.Unlock()
	}, &logger)

	r.Schedule("hej")
	r.Schedule("bye bye")

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(replies) != 1 {
		t.Fatalf("expected one reply total, got %d", len(replies))
	}
	// "bye bye" matches only the farewell pattern
	if !contains(keywordSets[1].replies, replies[0]) {
		t.Fatalf("expected farewell reply for the second send, got %q", replies[0])
	}
}

func TestCancel_DropsPendingReply(t *testing.T) {
	var fired bool
	var mu sync.Mutex
	logger := zerolog.Nop()
	r := New(20*time.Millisecond, 20*time.Millisecond, func(string) {
		mu.Lock()
		fired = true
		mu.Unlock()
	}, &logger)

	r.Schedule("hej")
	r.Cancel()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired {
		t.Fatalf("expected cancelled reply not to fire")
	}
	if r.Pending() {
		t.Fatalf("expected no pending reply after cancel")
	}
}
