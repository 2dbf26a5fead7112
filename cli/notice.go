package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/krancour/openshred/internal/ratelimit"
	"github.com/urfave/cli/v2"
	"k8s.io/utils/clock"
)

// showNotice prints the current rate-limit notice, if any, once a command has
// finished. With --wait, the countdown is refreshed in place until a retry is
// permitted or the process is interrupted.
func showNotice(c *cli.Context) error {
	notice := getNotices(c).Notice()
	if notice == nil {
		return nil
	}
	fmt.Println()
	fmt.Println(noticeBanner(*notice, time.Now()))
	if !c.Bool(flagWait) || notice.RetryAfter == 0 {
		return nil
	}
	countdown := ratelimit.StartCountdown(
		c.Context,
		clock.RealClock{},
		*notice,
		func(text string) {
			fmt.Printf("\r%-40s", "Try again in "+text)
		},
	)
	defer countdown.Stop()
	select {
	case <-countdown.Done():
		fmt.Printf("\r%-40s\n", "You may try again now.")
	case <-c.Context.Done():
		fmt.Println()
	}
	return nil
}

func noticeBanner(notice ratelimit.Notice, now time.Time) string {
	lines := []string{"Requests temporarily throttled"}
	if notice.Message != "" {
		lines = append(lines, notice.Message)
	}
	if text := ratelimit.CountdownText(notice, now); text != "" {
		lines = append(lines, "Try again in "+text)
	}
	return strings.Join(lines, "\n")
}
