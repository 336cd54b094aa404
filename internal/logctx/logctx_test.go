// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package logctx

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltersBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("should not appear")
	l.Info("should not appear either")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below the minimum level, got %q", buf.String())
	}

	l.Warn("this one counts")
	if !strings.Contains(buf.String(), "this one counts") {
		t.Errorf("expected Warn message in output, got %q", buf.String())
	}
}

func TestLogIncludesLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug)
	l.Info("hello world")

	out := buf.String()
	if !strings.Contains(out, "[INFO]") {
		t.Errorf("output missing level tag: %q", out)
	}
	if !strings.Contains(out, "hello world") {
		t.Errorf("output missing message: %q", out)
	}
}

func TestLogRendersKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug)
	l.Info("gc", "heap", 1024, "collected", 3)

	out := buf.String()
	if !strings.Contains(out, "heap=1024") {
		t.Errorf("output missing heap kv: %q", out)
	}
	if !strings.Contains(out, "collected=3") {
		t.Errorf("output missing collected kv: %q", out)
	}
}

func TestWithMergesContextWithoutMutatingReceiver(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, LevelDebug)
	derived := base.With("vm_id", "abc-123")

	derived.Info("tick")
	if !strings.Contains(buf.String(), "vm_id=abc-123") {
		t.Errorf("derived logger should carry its bound context: %q", buf.String())
	}

	buf.Reset()
	base.Info("tock")
	if strings.Contains(buf.String(), "vm_id") {
		t.Errorf("With should not mutate the receiver's own context: %q", buf.String())
	}
}

func TestWithChainsMultipleLevels(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, LevelDebug)
	derived := base.With("a", 1).With("b", 2)

	derived.Info("msg")
	out := buf.String()
	if !strings.Contains(out, "a=1") || !strings.Contains(out, "b=2") {
		t.Errorf("chained With should carry all bound pairs: %q", out)
	}
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
		Level(99):  "???",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestDefaultReturnsUsableLogger(t *testing.T) {
	l := Default()
	if l == nil {
		t.Fatal("Default() returned nil")
	}
	// Should not panic when logging; output destination is stderr.
	l.Info("default logger smoke test")
}
