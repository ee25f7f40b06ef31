package timeouts

import (
	"context"
	"testing"
	"time"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 9 * time.Second, Upstream: 2 * time.Minute})

	if got := Short(); got != 9*time.Second {
		t.Errorf("Short() = %v after Configure, want 9s", got)
	}
	if got := Upstream(); got != 2*time.Minute {
		t.Errorf("Upstream() = %v after Configure, want 2m", got)
	}
	// Zero fields keep their current values.
	if got := Medium(); got != DefaultMedium {
		t.Errorf("Medium() = %v, want default %v", got, DefaultMedium)
	}

	Reset()
	if got := Short(); got != DefaultShort {
		t.Errorf("Short() = %v after Reset, want default %v", got, DefaultShort)
	}
	if got := Upstream(); got != DefaultUpstream {
		t.Errorf("Upstream() = %v after Reset, want default %v", got, DefaultUpstream)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(Reset)

	t.Setenv("NOTIFYHUB_TIMEOUT_LONG", "45s")
	t.Setenv("NOTIFYHUB_TIMEOUT_UPSTREAM", "2m")
	t.Setenv("NOTIFYHUB_TIMEOUT_PING", "not-a-duration")

	if n := ConfigureFromEnv(); n != 2 {
		t.Errorf("ConfigureFromEnv() = %d, want 2 with one malformed value", n)
	}
	if got := Long(); got != 45*time.Second {
		t.Errorf("Long() = %v, want 45s", got)
	}
	if got := Upstream(); got != 2*time.Minute {
		t.Errorf("Upstream() = %v, want 2m", got)
	}
	if got := Ping(); got != DefaultPing {
		t.Errorf("Ping() = %v, want default %v when the override does not parse", got, DefaultPing)
	}
}

func TestCurrent(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Medium: 15 * time.Second})

	cur := Current()
	if cur.Medium != 15*time.Second {
		t.Errorf("Current().Medium = %v, want 15s", cur.Medium)
	}
	if cur.Ping != DefaultPing || cur.Long != DefaultLong {
		t.Errorf("Current() = %+v, untouched tiers should hold their defaults", cur)
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Minute, nil, "deadline probe")
	defer cancel()

	dl, ok := ctx.Deadline()
	if !ok {
		t.Fatal("context carries no deadline")
	}
	if until := time.Until(dl); until > time.Minute || until < 50*time.Second {
		t.Errorf("deadline %v away, want roughly a minute", until)
	}
}

func TestWithTimeout_Expired(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, nil, "deadline probe")
	<-ctx.Done()
	// The cancel wrapper inspects the deadline and must tolerate a nil logger.
	cancel()
}
