package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pion/logging"
)

// Options holds the simulator flags.
type Options struct {
	// Inputs is the number of inputs spent.
	Inputs int

	// InputAmount is the amount held by each input, in atomic units.
	InputAmount uint64

	// Payments lists the amounts sent to the recipient, one output each.
	Payments []uint64

	// Fee is the transaction fee.
	Fee uint64

	// RingSize is the number of ring members per input.
	RingSize int

	// Bulletproof selects bulletproofs over Borromean range proofs.
	Bulletproof bool

	// Offload makes the host compute the bulletproofs.
	Offload bool

	// Grouping batches outputs into bulletproofs. Empty means one per output.
	Grouping []uint32

	// Subaddress sends to minor index Subaddress of the recipient when non-zero.
	Subaddress uint32

	// PaymentID is attached to the transaction when set.
	PaymentID []byte

	// Link is "pipe" for an in-memory link or "tcp" for a loopback socket.
	Link string

	// Seed makes all randomness deterministic when non-zero.
	Seed int64

	// LogLevel is the pion log level.
	LogLevel logging.LogLevel
}

// DefaultOptions returns a two-input bulletproof transaction over a pipe.
func DefaultOptions() Options {
	return Options{
		Inputs:      2,
		InputAmount: 2_000_000_000_000,
		Payments:    []uint64{1_500_000_000_000},
		Fee:         30_000_000,
		RingSize:    11,
		Bulletproof: true,
		Link:        "pipe",
		LogLevel:    logging.LogLevelInfo,
	}
}

// ParseFlags parses the command line into Options.
func ParseFlags() (Options, error) {
	o := DefaultOptions()

	flag.IntVar(&o.Inputs, "inputs", o.Inputs, "Number of inputs")
	flag.Uint64Var(&o.InputAmount, "amount", o.InputAmount, "Amount per input (atomic units)")
	flag.Func("pay", "Comma separated payment amounts (default: 1500000000000)", func(s string) error {
		v, err := parseList(s, 64)
		o.Payments = v
		return err
	})
	flag.Uint64Var(&o.Fee, "fee", o.Fee, "Transaction fee (atomic units)")
	flag.IntVar(&o.RingSize, "ring", o.RingSize, "Ring size")
	flag.BoolVar(&o.Bulletproof, "bp", o.Bulletproof, "Use bulletproofs")
	flag.BoolVar(&o.Offload, "offload", o.Offload, "Compute bulletproofs on the host")
	flag.Func("grouping", "Comma separated bulletproof batch sizes", func(s string) error {
		v, err := parseList(s, 32)
		o.Grouping = o.Grouping[:0]
		for _, g := range v {
			o.Grouping = append(o.Grouping, uint32(g))
		}
		return err
	})
	flag.Func("subaddress", "Pay the recipient's subaddress with this minor index", func(s string) error {
		v, err := strconv.ParseUint(s, 10, 32)
		o.Subaddress = uint32(v)
		return err
	})
	flag.Func("pid", "Payment ID as hex (8 or 32 bytes)", func(s string) error {
		v, err := hex.DecodeString(s)
		o.PaymentID = v
		return err
	})
	flag.StringVar(&o.Link, "link", o.Link, "Host-device link: pipe or tcp")
	flag.Int64Var(&o.Seed, "seed", o.Seed, "Deterministic seed (0 = random)")
	flag.Func("log", "Log level: disabled, error, warn, info, debug, trace (default: info)", func(s string) error {
		level, err := parseLevel(s)
		o.LogLevel = level
		return err
	})
	flag.Usage = PrintUsage

	flag.Parse()
	return o, o.Validate()
}

// Validate checks the option combination.
func (o *Options) Validate() error {
	if o.Inputs <= 0 {
		return fmt.Errorf("inputs must be positive, got %d", o.Inputs)
	}
	if o.RingSize <= 0 {
		return fmt.Errorf("ring size must be positive, got %d", o.RingSize)
	}
	if len(o.Payments) == 0 {
		return fmt.Errorf("at least one payment required")
	}
	if o.Offload && !o.Bulletproof {
		return fmt.Errorf("-offload requires -bp")
	}
	if o.Link != "pipe" && o.Link != "tcp" {
		return fmt.Errorf("unknown link %q", o.Link)
	}
	total := o.InputAmount * uint64(o.Inputs)
	spent := o.Fee
	for _, p := range o.Payments {
		spent += p
	}
	if spent > total {
		return fmt.Errorf("payments and fee %d exceed inputs %d", spent, total)
	}
	return nil
}

func parseList(s string, bits int) ([]uint64, error) {
	var out []uint64
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, bits)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(s) {
	case "disabled", "off":
		return logging.LogLevelDisabled, nil
	case "error":
		return logging.LogLevelError, nil
	case "warn":
		return logging.LogLevelWarn, nil
	case "info":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// PrintUsage prints usage information to stderr.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
}
