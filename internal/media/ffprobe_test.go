package media

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFFProbeDuration(t *testing.T) {
	probe := NewFFProbe("ffprobe", time.Second)
	probe.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		wantArgs := []string{"-v", "error", "-show_entries", "format=duration", "-of", "json", "/tmp/clip.mp4"}
		if binary != "ffprobe" {
			t.Fatalf("unexpected binary %q", binary)
		}
		if len(args) != len(wantArgs) {
			t.Fatalf("unexpected args length: got %d want %d", len(args), len(wantArgs))
		}
		for i, arg := range wantArgs {
			if args[i] != arg {
				t.Fatalf("unexpected arg at %d: got %q want %q", i, args[i], arg)
			}
		}
		return []byte(`{"format":{"duration":"12.480000"}}`), nil
	}

	got, err := probe.Duration(context.Background(), "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("Duration() error = %v", err)
	}
	if got != 12.48 {
		t.Fatalf("expected 12.48 seconds, got %v", got)
	}
}

func TestFFProbeDurationFailures(t *testing.T) {
	tests := []struct {
		name   string
		output string
		runErr error
		want   error
	}{
		{name: "missing duration", output: `{"format":{}}`, want: ErrUnreadable},
		{name: "not a number", output: `{"format":{"duration":"N/A"}}`, want: ErrUnreadable},
		{name: "command failed", runErr: errors.New("exit status 1")},
		{name: "garbage", output: `not json`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			probe := NewFFProbe("", 0)
			probe.Run = func(context.Context, string, ...string) ([]byte, error) {
				return []byte(tc.output), tc.runErr
			}
			_, err := probe.Duration(context.Background(), "clip.mp4")
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestFFProbeDefaults(t *testing.T) {
	probe := NewFFProbe(" ", -1)
	if probe.Binary != "ffprobe" || probe.Timeout != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", probe)
	}
}
