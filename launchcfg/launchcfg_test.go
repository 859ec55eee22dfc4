package launchcfg

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kylelemons/godebug/pretty"
)

func TestValidateClampsHistory(t *testing.T) {
	t.Parallel()

	c := Defaults()
	c.HistorySize = 0
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.HistorySize != minHistorySize {
		t.Fatalf("expected clamp to %d, got %d", minHistorySize, c.HistorySize)
	}

	c.HistorySize = 1 << 20
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.HistorySize != maxHistorySize {
		t.Fatalf("expected clamp to %d, got %d", maxHistorySize, c.HistorySize)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	t.Parallel()

	c := Defaults()
	c.SSHPort = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error")
	}

	c.SSHPort = 70000
	if err := c.Validate(); err == nil {
		t.Fatal("expected error")
	}
}

func TestSubscribeBeforeFirstRead(t *testing.T) {
	// mutates the cached global config, so no t.Parallel
	t.Setenv("SPAWNKIT_CONFIG", filepath.Join(t.TempDir(), "config.json"))
	resetGlobalConfig()
	defer resetGlobalConfig()

	// a watcher that subscribes before its initial Get must see updates made
	// in between
	ch := SubscribeDiff()
	defer UnsubscribeDiff(ch)

	err := Update(func(c *Config) {
		c.HistorySize = 64
	})
	if err != nil {
		t.Fatal(err)
	}
	if Get().HistorySize != 64 {
		t.Fatalf("history size = %d, want 64", Get().HistorySize)
	}

	select {
	case change := <-ch:
		if change.New.HistorySize != 64 {
			t.Errorf("new history size = %d, want 64", change.New.HistorySize)
		}
		if change.Old.HistorySize == 64 {
			t.Error("old config already has new history size")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
	}
}

func resetGlobalConfig() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
}

func TestDiffJsonMaps(t *testing.T) {
	t.Parallel()

	a := Defaults()
	b := Defaults()
	b.SSHServer = true
	b.SSHPort = 2222

	diff, err := diffJsonMaps(a, b)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"ssh_server": true,
		// json numbers decode as float64
		"ssh_port": float64(2222),
	}
	if d := pretty.Compare(diff, want); d != "" {
		t.Fatalf("unexpected diff (-got +want):\n%s", d)
	}
}

func TestDiffJsonMapsEmpty(t *testing.T) {
	t.Parallel()

	diff, err := diffJsonMaps(Defaults(), Defaults())
	if err != nil {
		t.Fatal(err)
	}
	if len(diff) != 0 {
		t.Fatalf("expected empty diff, got %v", diff)
	}
}
