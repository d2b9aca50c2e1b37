package slconfig

import (
	"testing"
	"time"
)

func TestParseStringUsesEnv(t *testing.T) {
	t.Setenv("SLCONFIG_TEST_STR", "hello")
	if got := ParseString("SLCONFIG_TEST_STR", "default"); got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestParseStringFallsBackWhenUnset(t *testing.T) {
	if got := ParseString("SLCONFIG_TEST_STR_MISSING", "default"); got != "default" {
		t.Fatalf("got %q", got)
	}
}

func TestParseIntInvalidFallsBack(t *testing.T) {
	t.Setenv("SLCONFIG_TEST_INT", "not-a-number")
	if got := ParseInt("SLCONFIG_TEST_INT", 42); got != 42 {
		t.Fatalf("got %d", got)
	}
}

func TestParseIntValid(t *testing.T) {
	t.Setenv("SLCONFIG_TEST_INT", "7")
	if got := ParseInt("SLCONFIG_TEST_INT", 42); got != 7 {
		t.Fatalf("got %d", got)
	}
}

func TestParseDurationValid(t *testing.T) {
	t.Setenv("SLCONFIG_TEST_DUR", "5s")
	if got := ParseDuration("SLCONFIG_TEST_DUR", time.Second); got != 5*time.Second {
		t.Fatalf("got %v", got)
	}
}

func TestParseBoolVariants(t *testing.T) {
	cases := map[string]bool{"true": true, "1": true, "yes": true, "false": false, "0": false, "no": false}
	for v, want := range cases {
		t.Setenv("SLCONFIG_TEST_BOOL", v)
		if got := ParseBool("SLCONFIG_TEST_BOOL", !want); got != want {
			t.Fatalf("ParseBool(%q) = %v, want %v", v, got, want)
		}
	}
}

func TestServerConfigFromEnvDefaults(t *testing.T) {
	cfg := ServerConfigFromEnv()
	if cfg.Addr == "" || cfg.RingCapacity <= 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestClientConfigFromEnvDefaults(t *testing.T) {
	cfg := ClientConfigFromEnv()
	if cfg.Client.ConnectTimeout <= 0 || cfg.Reconnect.MaxBackoff <= 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
