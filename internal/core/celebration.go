package core

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/valter-silva-au/goal-board/internal/clock"
	"github.com/valter-silva-au/goal-board/pkg/models"
)

// DefaultMilestoneMessage is shown when a milestone task is completed.
const DefaultMilestoneMessage = "MILESTONE ACHIEVED! This is a big one, take a moment to celebrate!"

// DefaultQuoteDelay is how long after a celebration the quote refreshes.
const DefaultQuoteDelay = time.Second

// DefaultCelebrationMessages are picked uniformly at random for ordinary
// task completions.
var DefaultCelebrationMessages = []string{
	"Task complete! Keep the momentum going!",
	"Nice work! One step closer to the goal.",
	"Crushed it! On to the next one.",
	"Progress made! Every task counts.",
	"Well done! The board is looking better already.",
}

// Celebration is the notification sent when a task is completed.
type Celebration struct {
	ProjectKey models.ProjectKey
	Task       models.Task
	Message    string
	Milestone  bool
	Time       time.Time
}

// CelebrationNotifier renders a celebration (terminal line, toast, webhook).
// Calls are fire-and-forget: errors are logged, never retried.
type CelebrationNotifier interface {
	Celebrate(ctx context.Context, c Celebration) error
}

// ShouldCelebrate reports whether a toggle from previous to next deserves a
// celebration. Only completing a task does; reopening one is silent.
func ShouldCelebrate(previous, next bool) bool {
	return !previous && next
}

// CelebrationTrigger turns task completions into celebrations and schedules
// the delayed quote refresh that follows each one.
type CelebrationTrigger struct {
	messages   []string
	milestone  string
	quoteDelay time.Duration

	notifier CelebrationNotifier
	quotes   *QuoteRotator
	bus      *Bus
	clk      clock.Clock
	logger   *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	timersMu sync.Mutex
	timers   map[*pendingRefresh]struct{}
	closed   bool
}

type pendingRefresh struct {
	timer *clock.Timer
}

// NewCelebrationTrigger creates a trigger. Empty config fields fall back to
// the defaults. notifier, quotes and bus may be nil. rng nil seeds a fresh
// generator.
func NewCelebrationTrigger(cfg models.CelebrationConfig, notifier CelebrationNotifier, quotes *QuoteRotator, bus *Bus, clk clock.Clock, rng *rand.Rand, logger *slog.Logger) *CelebrationTrigger {
	messages := cfg.Messages
	if len(messages) == 0 {
		messages = DefaultCelebrationMessages
	}
	milestone := cfg.MilestoneMessage
	if milestone == "" {
		milestone = DefaultMilestoneMessage
	}
	delay := cfg.QuoteDelay
	if delay <= 0 {
		delay = DefaultQuoteDelay
	}
	if clk == nil {
		clk = clock.Real()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CelebrationTrigger{
		messages:   append([]string(nil), messages...),
		milestone:  milestone,
		quoteDelay: delay,
		notifier:   notifier,
		quotes:     quotes,
		bus:        bus,
		clk:        clk,
		rng:        rng,
		logger:     logger,
		timers:     make(map[*pendingRefresh]struct{}),
	}
}

// Message selects the celebration text: the fixed milestone message for
// milestones, otherwise a uniformly random entry of the message set.
func (c *CelebrationTrigger) Message(milestone bool) string {
	if milestone {
		return c.milestone
	}
	c.rngMu.Lock()
	i := c.rng.IntN(len(c.messages))
	c.rngMu.Unlock()
	return c.messages[i]
}

// Consider fires a celebration for res if it is a false->true transition and
// reports whether it did.
func (c *CelebrationTrigger) Consider(ctx context.Context, res ToggleResult) bool {
	if !ShouldCelebrate(res.Previous, res.Completed) {
		return false
	}

	milestone := res.Task.IsMilestone()
	cel := Celebration{
		ProjectKey: res.ProjectKey,
		Task:       res.Task,
		Message:    c.Message(milestone),
		Milestone:  milestone,
		Time:       c.clk.Now().UTC(),
	}

	if c.notifier != nil {
		if err := c.notifier.Celebrate(ctx, cel); err != nil {
			c.logger.Warn("celebration notifier failed", "task", res.Task.Title, "error", err)
		}
	}
	c.bus.Publish(Event{
		Topic:      TopicCelebrationFired,
		Time:       cel.Time,
		ProjectKey: cel.ProjectKey,
		Task:       cel.Task,
		Completed:  true,
		Message:    cel.Message,
	})
	c.scheduleQuoteRefresh()
	return true
}

// Subscribe returns a subscription suited to Run. It carries task.completed
// only, so the trigger never receives the celebration.fired events it
// publishes itself.
func (c *CelebrationTrigger) Subscribe(buffer int) *Subscription {
	return c.bus.Subscribe(buffer, TopicTaskCompleted)
}

// Run consumes task.completed events from sub until the subscription closes
// or ctx is cancelled. sub must not carry celebration.fired unless it drops
// events, or a full buffer stalls Run on its own publish.
func (c *CelebrationTrigger) Run(ctx context.Context, sub *Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			if e.Topic != TopicTaskCompleted {
				continue
			}
			c.Consider(ctx, ToggleResult{
				ProjectKey: e.ProjectKey,
				Task:       e.Task,
				Previous:   e.Previous,
				Completed:  e.Completed,
			})
		}
	}
}

// Close cancels pending quote refreshes. Later celebrations still notify but
// no longer schedule refreshes.
func (c *CelebrationTrigger) Close() {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	c.closed = true
	for p := range c.timers {
		if p.timer != nil {
			p.timer.Stop()
		}
	}
	clear(c.timers)
}

// PendingRefreshes returns how many quote refreshes are scheduled.
func (c *CelebrationTrigger) PendingRefreshes() int {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	return len(c.timers)
}

func (c *CelebrationTrigger) scheduleQuoteRefresh() {
	if c.quotes == nil {
		return
	}
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	if c.closed {
		return
	}

	p := &pendingRefresh{}
	c.timers[p] = struct{}{}
	p.timer = c.clk.AfterFunc(c.quoteDelay, func() {
		c.timersMu.Lock()
		_, live := c.timers[p]
		delete(c.timers, p)
		c.timersMu.Unlock()
		if live {
			c.quotes.Refresh()
		}
	})
}
