package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pion/logging"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		modify func(o *Options)
	}{
		{"pipe", func(o *Options) {}},
		{"tcp", func(o *Options) { o.Link = "tcp" }},
		{"borromean single input", func(o *Options) {
			o.Inputs = 1
			o.Bulletproof = false
		}},
		{"offload", func(o *Options) {
			o.Payments = []uint64{100, 200}
			o.Offload = true
			o.Grouping = []uint32{3}
		}},
		{"subaddress with payment id", func(o *Options) {
			o.Subaddress = 2
			o.PaymentID = []byte{1, 2, 3, 4, 5, 6, 7, 8}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			o.RingSize = 4
			o.Seed = 1
			o.LogLevel = logging.LogLevelDisabled
			tt.modify(&o)
			if err := o.Validate(); err != nil {
				t.Fatalf("Validate failed: %v", err)
			}

			var out bytes.Buffer
			if err := run(context.Background(), o, &out); err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if !strings.Contains(out.String(), "verification:  ok") {
				t.Errorf("unexpected output:\n%s", out.String())
			}
		})
	}
}

func TestRunDeterministic(t *testing.T) {
	o := DefaultOptions()
	o.RingSize = 3
	o.Seed = 99
	o.LogLevel = logging.LogLevelDisabled

	var a, b bytes.Buffer
	if err := run(context.Background(), o, &a); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if err := run(context.Background(), o, &b); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if a.String() != b.String() {
		t.Errorf("seeded runs differ:\n%s\n%s", a.String(), b.String())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(o *Options)
	}{
		{"no inputs", func(o *Options) { o.Inputs = 0 }},
		{"no ring", func(o *Options) { o.RingSize = 0 }},
		{"no payments", func(o *Options) { o.Payments = nil }},
		{"offload without bulletproofs", func(o *Options) {
			o.Offload = true
			o.Bulletproof = false
		}},
		{"link", func(o *Options) { o.Link = "usb" }},
		{"overspend", func(o *Options) { o.Fee = o.InputAmount * 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.modify(&o)
			if err := o.Validate(); err == nil {
				t.Error("Validate accepted invalid options")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := parseLevel("DEBUG"); err != nil || l != logging.LogLevelDebug {
		t.Errorf("parseLevel(DEBUG) = %v, %v", l, err)
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Error("parseLevel accepted an unknown level")
	}
	if v, err := parseList("1, 2,3", 32); err != nil || len(v) != 3 || v[2] != 3 {
		t.Errorf("parseList = %v, %v", v, err)
	}
}
