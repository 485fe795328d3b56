package spam_test

import (
	"testing"
	"time"

	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/marcelsud/lead-relay/spam"
	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestValidateHoneypot(t *testing.T) {
	t.Run("non-empty strings are spam", func(t *testing.T) {
		for _, v := range []string{"x", "http://spam.example", " ", "0"} {
			assert.True(t, spam.ValidateHoneypot(v), "value %q", v)
		}
	})

	t.Run("absent or empty values are not spam", func(t *testing.T) {
		assert.False(t, spam.ValidateHoneypot(""))
		assert.False(t, spam.ValidateHoneypot(nil))
		assert.False(t, spam.ValidateHoneypot(false))
		assert.False(t, spam.ValidateHoneypot(float64(1)))
	})
}

func TestValidateSubmissionTime(t *testing.T) {
	c := clock.NewManual(epoch)
	g := spam.NewGuard(c, 0)
	now := epoch.UnixMilli()

	t.Run("too fast is spam", func(t *testing.T) {
		assert.True(t, g.ValidateSubmissionTime(now))
		assert.True(t, g.ValidateSubmissionTime(now-1))
		assert.True(t, g.ValidateSubmissionTime(now-2999))
	})

	t.Run("future timestamps are spam", func(t *testing.T) {
		assert.True(t, g.ValidateSubmissionTime(now+1))
		assert.True(t, g.ValidateSubmissionTime(now+60_000))
	})

	t.Run("human pace is accepted", func(t *testing.T) {
		assert.False(t, g.ValidateSubmissionTime(now-3000))
		assert.False(t, g.ValidateSubmissionTime(now-45_000))
		assert.False(t, g.ValidateSubmissionTime(0))
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("five requests then deny", func(t *testing.T) {
		rl := spam.NewRateLimiter(5, 15*time.Minute, clock.NewManual(epoch))

		last := 5
		for i := 0; i < 5; i++ {
			d := rl.Check("203.0.113.7")
			assert.True(t, d.Allowed, "request %d", i+1)
			assert.Less(t, d.Remaining, last)
			last = d.Remaining
		}
		assert.Equal(t, 0, last)

		d := rl.Check("203.0.113.7")
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
		assert.Equal(t, epoch.Add(15*time.Minute), d.ResetAt)
	})

	t.Run("ips are independent", func(t *testing.T) {
		rl := spam.NewRateLimiter(5, 15*time.Minute, clock.NewManual(epoch))
		for i := 0; i < 6; i++ {
			rl.Check("198.51.100.1")
		}
		d := rl.Check("198.51.100.2")
		assert.True(t, d.Allowed)
		assert.Equal(t, 4, d.Remaining)
	})

	t.Run("window resets once older than window", func(t *testing.T) {
		c := clock.NewManual(epoch)
		rl := spam.NewRateLimiter(5, 15*time.Minute, c)
		for i := 0; i < 6; i++ {
			rl.Check("192.0.2.10")
		}

		c.Advance(15 * time.Minute)
		assert.False(t, rl.Check("192.0.2.10").Allowed, "window still open at exactly 15m")

		c.Advance(time.Second)
		d := rl.Check("192.0.2.10")
		assert.True(t, d.Allowed)
		assert.Equal(t, 4, d.Remaining)
	})
}
