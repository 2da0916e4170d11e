package ui

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/pion/logging"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount uint64
		want   string
	}{
		{0, "0.000000000000 XMR"},
		{1, "0.000000000001 XMR"},
		{1_000_000_000_000, "1.000000000000 XMR"},
		{12_345_678_900_000, "12.345678900000 XMR"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.amount); got != tt.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestLoggingPrompter(t *testing.T) {
	ctx := context.Background()
	p := NewLoggingPrompter(LoggingPrompterConfig{LoggerFactory: logging.NewDefaultLoggerFactory()})
	s := &Summary{
		Outputs: []Output{{SpendPublic: []byte{1}, ViewPublic: []byte{2}, Amount: 5}},
		Fee:     1,
	}
	if err := p.ConfirmTransaction(ctx, s); err != nil {
		t.Fatalf("ConfirmTransaction failed: %v", err)
	}
	p.Progress(ctx, StepInputs, 0, 2)
	p.Progress(ctx, StepInputs, 1, 2)
	p.Progress(ctx, StepSign, 0, 1)
	p.Signed(ctx)
	p.Finished(ctx)

	if p.Confirmed() != 1 {
		t.Errorf("Confirmed = %d, want 1", p.Confirmed())
	}
	if got, want := p.Steps(), []Step{StepInputs, StepSign}; !reflect.DeepEqual(got, want) {
		t.Errorf("Steps = %v, want %v", got, want)
	}
	if signed, finished := p.Done(); !signed || !finished {
		t.Errorf("Done = %v, %v", signed, finished)
	}
	if s.Outputs[0].Address() != "0102" {
		t.Errorf("Address = %q", s.Outputs[0].Address())
	}
}

func TestLoggingPrompterReject(t *testing.T) {
	p := NewLoggingPrompter(LoggingPrompterConfig{Reject: true})
	if err := p.ConfirmTransaction(context.Background(), &Summary{}); !errors.Is(err, ErrRejected) {
		t.Errorf("got %v, want ErrRejected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewLoggingPrompter(LoggingPrompterConfig{}).ConfirmTransaction(ctx, &Summary{}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: got %v", err)
	}
}
