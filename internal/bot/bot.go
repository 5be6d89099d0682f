// Package bot simulates the other side of the conversation. After each sent
// message it schedules exactly one reply, chosen by keyword matching against
// the sent text. Replies are purely local; nothing here touches the network.
package bot

import (
	"math/rand"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AuthorName is the synthetic author label attached to every reply.
const AuthorName = "konnect-bot"

type keywordReplies struct {
	pattern *regexp.Regexp
	replies []string
}

// keywordSets is evaluated in order; the first matching pattern wins and one
// of its replies is picked uniformly at random.
var keywordSets = []keywordReplies{
	{regexp.MustCompile(`(?i)hej|tjena|hallå`), []string{"Hallå där! 👋", "Tjena! Vad gör du?"}},
	{regexp.MustCompile(`(?i)hejdå|hörs|bye`), []string{"Hejdå", "Bye bye!", "Vi hörs!"}},
	{regexp.MustCompile(`(?i)gör|görs`), []string{"Jag gör ingenting", "Jag kollar på TV", "Chillar bara"}},
	{regexp.MustCompile(`(?i)är du där|är du kvar`), []string{"Jag är kvar", "Jag är upptagen"}},
}

// genericReplies is the fallback pool when no keyword pattern matches.
var genericReplies = []string{
	"Kul! 👌",
	"Berätta mer! 🤔",
	"Låter rimligt.",
	"Haha, sant! 😄",
	"Jag håller med.",
	"Intressant, hur tänker du då?",
	"Kan du ge ett exempel?",
	"Nice! 🙌",
}

// pickReply chooses a reply for the given user text.
func pickReply(text string, rng *rand.Rand) string {
	for _, set := range keywordSets {
		if set.pattern.MatchString(text) {
			return set.replies[rng.Intn(len(set.replies))]
		}
	}
	return genericReplies[rng.Intn(len(genericReplies))]
}

// Responder schedules simulated replies. At most one timer is pending at a
// time: scheduling while a reply is pending cancels the unfired timer first,
// so rapid sends never produce overlapping replies.
type Responder struct {
	mu       sync.Mutex
	timer    *time.Timer
	rng      *rand.Rand
	minDelay time.Duration
	maxDelay time.Duration
	deliver  func(text string)
	log      *zerolog.Logger
}

// New creates a responder that waits between minDelay and maxDelay before
// invoking deliver with the chosen reply text.
func New(minDelay, maxDelay time.Duration, deliver func(text string), logger *zerolog.Logger) *Responder {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Responder{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		minDelay: minDelay,
		maxDelay: maxDelay,
		deliver:  deliver,
		log:      logger,
	}
}

// Schedule queues one reply to sentText, replacing any not-yet-fired reply.
func (r *Responder) Schedule(sentText string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
		r.log.Debug().Msg("cancelled pending reply")
	}

	reply := pickReply(sentText, r.rng)
	delay := r.minDelay
	if spread := r.maxDelay - r.minDelay; spread > 0 {
		delay += time.Duration(r.rng.Int63n(int64(spread)))
	}

	r.timer = time.AfterFunc(delay, func() {
		r.mu.Lock()
		r.timer = nil
		r.mu.Unlock()
		r.deliver(reply)
	})
}

// Cancel drops any pending reply. Called when the chat view is torn down.
func (r *Responder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// Pending reports whether a reply timer is waiting to fire. The UI uses
// this for its typing indicator.
func (r *Responder) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer != nil
}
