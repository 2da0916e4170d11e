package integration

import (
	"errors"
	"testing"

	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/signing"
	"github.com/backkem/xmrsign/pkg/ui"
	"github.com/pion/logging"
)

func quietConfig() TestPairConfig {
	config := DefaultTestPairConfig()
	lf := logging.NewDefaultLoggerFactory()
	lf.DefaultLogLevel = logging.LogLevelWarn
	config.LoggerFactory = lf
	return config
}

func TestSignE2E(t *testing.T) {
	tests := []struct {
		name    string
		inputs  []uint64
		pay     []uint64
		fee     uint64
		bp      bool
		offload []uint32
	}{
		{"bulletproof", []uint64{4000, 6000}, []uint64{7000}, 500, true, nil},
		{"borromean", []uint64{4000, 6000}, []uint64{7000}, 500, false, nil},
		{"full ringct", []uint64{9000}, []uint64{1000, 2000}, 100, false, nil},
		{"offloaded batch", []uint64{8000, 2000}, []uint64{1000, 2000}, 300, true, []uint32{3}},
		{"no change", []uint64{5000}, []uint64{4900}, 100, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair := NewTestPairWithConfig(t, quietConfig())
			defer pair.Close()

			tx := pair.Transaction(tt.inputs, tt.pay, tt.fee, tt.bp)
			if tt.offload != nil {
				tx.Tx.Rsig.Offload = true
				tx.Tx.Rsig.Grouping = tt.offload
			}
			signed, err := pair.Sign(tx)
			if err != nil {
				t.Fatalf("Sign failed: %v", err)
			}
			if len(signed.Inputs) != len(tt.inputs) {
				t.Errorf("signed %d inputs, want %d", len(signed.Inputs), len(tt.inputs))
			}
			if pair.Prompter.Confirmed() != 1 {
				t.Errorf("confirmed %d times, want 1", pair.Prompter.Confirmed())
			}
			if signed, finished := pair.Prompter.Done(); !signed || !finished {
				t.Errorf("prompter done = %v/%v", signed, finished)
			}
		})
	}
}

func TestSequentialTransactionsE2E(t *testing.T) {
	pair := NewTestPairWithConfig(t, quietConfig())
	defer pair.Close()

	var prefixes [][]byte
	for i := 0; i < 3; i++ {
		signed, err := pair.Sign(pair.Transaction([]uint64{3000, 3000}, []uint64{2500}, 200, true))
		if err != nil {
			t.Fatalf("transaction %d: Sign failed: %v", i, err)
		}
		prefixes = append(prefixes, signed.PrefixHash)
		pair.Reset()
	}
	if string(prefixes[0]) == string(prefixes[1]) || string(prefixes[1]) == string(prefixes[2]) {
		t.Error("distinct transactions share a prefix hash")
	}
}

func TestRejectE2E(t *testing.T) {
	config := quietConfig()
	config.Reject = true
	pair := NewTestPairWithConfig(t, config)
	defer pair.Close()

	_, err := pair.Sign(pair.Transaction([]uint64{3000}, []uint64{1000}, 100, true))
	if !errors.Is(err, signing.ErrUserAbort) {
		t.Fatalf("got %v, want ErrUserAbort", err)
	}
	if pair.Prompter.Confirmed() != 0 {
		t.Error("rejected transaction counted as confirmed")
	}

	// The device refuses to continue until it is reset.
	_, err = pair.Sign(pair.Transaction([]uint64{3000}, []uint64{1000}, 100, true))
	if !errors.Is(err, signing.ErrProtocolOrder) {
		t.Errorf("after abort: got %v, want ErrProtocolOrder", err)
	}
}

func TestTamperE2E(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(req message.Request)
		want   error
	}{
		{"vini hmac", func(req message.Request) {
			if r, ok := req.(*message.InputViniRequest); ok {
				r.ViniHMAC = append([]byte(nil), r.ViniHMAC...)
				r.ViniHMAC[0] ^= 1
			}
		}, signing.ErrAuthentication},
		{"fee", func(req message.Request) {
			if r, ok := req.(*message.InitRequest); ok {
				r.Tx.Fee++
			}
		}, signing.ErrBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := quietConfig()
			config.Tamper = tt.tamper
			pair := NewTestPairWithConfig(t, config)
			defer pair.Close()

			_, err := pair.Sign(pair.Transaction([]uint64{4000, 2000}, []uint64{5000}, 300, true))
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if _, finished := pair.Prompter.Done(); finished {
				t.Error("tampered transaction finished")
			}
		})
	}
}

func TestUIStepsE2E(t *testing.T) {
	pair := NewTestPairWithConfig(t, quietConfig())
	defer pair.Close()

	if _, err := pair.Sign(pair.Transaction([]uint64{2000, 2000}, []uint64{1000}, 100, true)); err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	seen := map[ui.Step]bool{}
	for _, s := range pair.Prompter.Steps() {
		seen[s] = true
	}
	for _, s := range []ui.Step{ui.StepInputs, ui.StepOutputs, ui.StepSign} {
		if !seen[s] {
			t.Errorf("progress step %v not reported", s)
		}
	}
}
