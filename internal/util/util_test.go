package util

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "fund", "Alpha Fund")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "shown" || entry["fund"] != "Alpha Fund" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("bogus", "text", &buf)

	logger.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text handler output = %q, want msg=hello", buf.String())
	}
}

func TestLogOutputStdout(t *testing.T) {
	w, closeFn := LogOutput("")
	if w == nil {
		t.Fatal("LogOutput returned nil writer")
	}
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestRateLimiterSpacing(t *testing.T) {
	interval := 50 * time.Millisecond
	rl := NewRateLimiter(interval)
	if rl.Interval() != interval {
		t.Errorf("Interval() = %v, want %v", rl.Interval(), interval)
	}

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}
	// First call is free, the next two wait one interval each.
	if elapsed := time.Since(start); elapsed < 2*interval-10*time.Millisecond {
		t.Errorf("three waits took %v, want at least ~%v", elapsed, 2*interval)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("disabled limiter took %v", elapsed)
	}
}

func TestRateLimiterCancelled(t *testing.T) {
	rl := NewRateLimiter(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Error("Wait should fail once the context is cancelled")
	}
}

func TestRateLimiterGapAfterSlowOperation(t *testing.T) {
	interval := 50 * time.Millisecond
	rl := NewRateLimiter(interval)
	ctx := context.Background()

	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	// Longer than the interval: start-to-start spacing alone would let the
	// next Wait through at once.
	time.Sleep(2 * interval)
	rl.Done()

	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < interval-10*time.Millisecond {
		t.Errorf("Wait after Done returned in %v, want about %v", elapsed, interval)
	}
}

func TestRateLimiterDoneDisabled(t *testing.T) {
	rl := NewRateLimiter(0)
	rl.Done()
	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("disabled limiter waited %v after Done", elapsed)
	}
}
