package ratelimit

import (
	"context"
	"fmt"
	"time"

	"k8s.io/utils/clock"
)

// RefreshInterval is how often a running Countdown recomputes its text.
const RefreshInterval = time.Second

// Remaining returns how long remains, as of now, until a retry is permitted.
// The result is negative once that time has passed.
func Remaining(notice Notice, now time.Time) time.Duration {
	retryAt := notice.TriggeredAt + int64(notice.RetryAfter)*1000
	return time.Duration(retryAt-now.UnixMilli()) * time.Millisecond
}

// FormatRemaining renders a remaining duration the way the notice banner shows
// it: "now" once nothing remains, "45s" under a minute, "1m" on whole minutes
// and "1m 30s" otherwise. Partial seconds count as whole ones.
func FormatRemaining(remaining time.Duration) string {
	if remaining <= 0 {
		return "now"
	}
	seconds := int64((remaining + time.Second - 1) / time.Second)
	minutes := seconds / 60
	seconds = seconds % 60
	switch {
	case minutes == 0:
		return fmt.Sprintf("%ds", seconds)
	case seconds == 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
}

// CountdownText returns the countdown to show for a notice as of now, or an
// empty string if the notice has no countdown.
func CountdownText(notice Notice, now time.Time) string {
	if notice.RetryAfter == 0 {
		return ""
	}
	return FormatRemaining(Remaining(notice, now))
}

// Countdown periodically recomputes a notice's countdown text and hands it to
// a callback. It runs until its context is canceled, it is stopped, or the
// text reaches "now".
type Countdown struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartCountdown calls fn with the notice's countdown text immediately and
// then once per RefreshInterval, as measured by clk. Nothing is scheduled for
// a notice without a countdown; fn is called once with an empty string.
func StartCountdown(
	ctx context.Context,
	clk clock.WithTicker,
	notice Notice,
	fn func(string),
) *Countdown {
	ctx, cancel := context.WithCancel(ctx)
	c := &Countdown{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	text := CountdownText(notice, clk.Now())
	fn(text)
	if text == "" || text == "now" {
		close(c.done)
		return c
	}
	ticker := clk.NewTicker(RefreshInterval)
	go func() {
		defer close(c.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				text := CountdownText(notice, clk.Now())
				fn(text)
				if text == "now" {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return c
}

// Done returns a channel that is closed once the Countdown will make no more
// calls to its callback.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// Stop ends the Countdown and waits for it to finish.
func (c *Countdown) Stop() {
	c.cancel()
	<-c.done
}
