package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func testNotice(retryAfter int) Notice {
	return Notice{
		Message:     "Rate limited",
		RetryAfter:  retryAfter,
		TriggeredAt: testNow.UnixMilli(),
	}
}

func TestStore(t *testing.T) {
	store := NewStore()
	require.Nil(t, store.Notice())

	first := Notice{
		Message:     "Rate limit exceeded. Please try again later.",
		RetryAfter:  60,
		TriggeredAt: testNow.UnixMilli(),
	}
	store.SetNotice(first)
	require.Equal(t, &first, store.Notice())

	second := Notice{
		Message:     "New rate limit notice",
		RetryAfter:  0,
		TriggeredAt: testNow.Add(time.Minute).UnixMilli(),
	}
	store.SetNotice(second)
	// Nothing of the first notice survives, not even the non-zero retry
	require.Equal(t, &second, store.Notice())

	store.ClearNotice()
	require.Nil(t, store.Notice())
	store.ClearNotice()
	require.Nil(t, store.Notice())
}

func TestStoreReturnsCopies(t *testing.T) {
	store := NewStore()
	store.SetNotice(testNotice(60))
	notice := store.Notice()
	notice.Message = "tampered"
	require.Equal(t, "Rate limited", store.Notice().Message)
}

func TestStoreSubscribe(t *testing.T) {
	store := NewStore()
	var seen []*Notice
	unsubscribe := store.Subscribe(func(notice *Notice) {
		seen = append(seen, notice)
	})
	store.SetNotice(testNotice(60))
	store.ClearNotice()
	require.Len(t, seen, 2)
	require.Equal(t, 60, seen[0].RetryAfter)
	require.Nil(t, seen[1])
	unsubscribe()
	store.SetNotice(testNotice(30))
	require.Len(t, seen, 2)
}

func TestFormatRemaining(t *testing.T) {
	testCases := []struct {
		remaining time.Duration
		expected  string
	}{
		{-time.Second, "now"},
		{0, "now"},
		{time.Millisecond, "1s"},
		{45 * time.Second, "45s"},
		{60 * time.Second, "1m"},
		{65 * time.Second, "1m 5s"},
		{90 * time.Second, "1m 30s"},
		{59*time.Second + 500*time.Millisecond, "1m"},
		{10 * time.Minute, "10m"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.remaining.String(), func(t *testing.T) {
			require.Equal(t, testCase.expected, FormatRemaining(testCase.remaining))
		})
	}
}

func TestCountdownText(t *testing.T) {
	notice := testNotice(65)
	require.Equal(t, "1m 5s", CountdownText(notice, testNow))
	require.Equal(t, "1m", CountdownText(notice, testNow.Add(5*time.Second)))
	require.Equal(t, "now", CountdownText(notice, testNow.Add(65*time.Second)))
	require.Equal(t, "now", CountdownText(notice, testNow.Add(2*time.Minute)))
	require.Equal(t, "1m 30s", CountdownText(testNotice(90), testNow))
	require.Equal(t, "45s", CountdownText(testNotice(45), testNow))
	require.Empty(t, CountdownText(testNotice(0), testNow))
	require.Empty(t, CountdownText(testNotice(0), testNow.Add(time.Hour)))
}

func TestRemaining(t *testing.T) {
	notice := testNotice(65)
	require.Equal(t, 65*time.Second, Remaining(notice, testNow))
	require.Equal(
		t,
		-5*time.Second,
		Remaining(notice, testNow.Add(70*time.Second)),
	)
}

func TestCountdown(t *testing.T) {
	fakeClock := clocktesting.NewFakeClock(testNow)
	texts := make(chan string, 10)
	countdown := StartCountdown(
		context.Background(),
		fakeClock,
		testNotice(2),
		func(text string) {
			texts <- text
		},
	)
	require.Equal(t, "2s", <-texts)

	require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond)
	fakeClock.Step(time.Second)
	require.Equal(t, "1s", <-texts)

	fakeClock.Step(time.Second)
	require.Equal(t, "now", <-texts)

	select {
	case <-countdown.Done():
	case <-time.After(time.Second):
		require.Fail(t, "countdown did not finish after reaching now")
	}
}

func TestCountdownWithoutRetryAfter(t *testing.T) {
	fakeClock := clocktesting.NewFakeClock(testNow)
	var texts []string
	countdown := StartCountdown(
		context.Background(),
		fakeClock,
		testNotice(0),
		func(text string) {
			texts = append(texts, text)
		},
	)
	<-countdown.Done()
	require.Equal(t, []string{""}, texts)
	require.False(t, fakeClock.HasWaiters())
}

func TestCountdownStop(t *testing.T) {
	fakeClock := clocktesting.NewFakeClock(testNow)
	texts := make(chan string, 10)
	countdown := StartCountdown(
		context.Background(),
		fakeClock,
		testNotice(60),
		func(text string) {
			texts <- text
		},
	)
	require.Equal(t, "1m", <-texts)
	countdown.Stop()
	fakeClock.Step(time.Second)
	select {
	case text := <-texts:
		require.Failf(t, "unexpected callback after stop", "got %q", text)
	default:
	}
}

func TestCountdownContextCanceled(t *testing.T) {
	fakeClock := clocktesting.NewFakeClock(testNow)
	ctx, cancel := context.WithCancel(context.Background())
	countdown := StartCountdown(ctx, fakeClock, testNotice(60), func(string) {})
	cancel()
	select {
	case <-countdown.Done():
	case <-time.After(time.Second):
		require.Fail(t, "countdown did not finish after context was canceled")
	}
}
