// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfigureOnce(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "framecast-test"})

	// Second call must be a no-op.
	var other bytes.Buffer
	Configure(Config{Level: "error", Output: &other, Service: "ignored"})

	logger := WithComponent("testcomp")
	logger.Info().Str("event", "test.event").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"testcomp"`) {
		t.Errorf("expected component field in output, got %q", out)
	}
	if !strings.Contains(out, `"event":"test.event"`) {
		t.Errorf("expected event field in output, got %q", out)
	}
	if other.Len() != 0 {
		t.Errorf("second Configure call must not take effect, got %q", other.String())
	}
}
