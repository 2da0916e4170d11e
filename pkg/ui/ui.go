package ui

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// ErrRejected is returned by a Prompter when the user refuses the transaction.
var ErrRejected = errors.New("ui: transaction rejected by user")

// Step identifies a progress stage.
type Step int

// Progress codes reported while a transaction is processed.
const (
	StepInputs      Step = 100
	StepPermutation Step = 200
	StepVini        Step = 300
	StepAllInputs   Step = 350
	StepOutputs     Step = 400
	StepAllOutputs  Step = 500
	StepMlsag       Step = 600
	StepSign        Step = 700
)

// String returns the stage name.
func (s Step) String() string {
	switch s {
	case StepInputs:
		return "Inputs"
	case StepPermutation:
		return "Permutation"
	case StepVini:
		return "Vini"
	case StepAllInputs:
		return "AllInputs"
	case StepOutputs:
		return "Outputs"
	case StepAllOutputs:
		return "AllOutputs"
	case StepMlsag:
		return "Mlsag"
	case StepSign:
		return "Sign"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Output is one destination shown to the user.
type Output struct {
	SpendPublic  []byte
	ViewPublic   []byte
	IsSubaddress bool
	Amount       uint64
}

// Address returns a hex rendering of the destination keys.
func (o Output) Address() string {
	return hex.EncodeToString(o.SpendPublic) + hex.EncodeToString(o.ViewPublic)
}

// Summary is what the user confirms before signing. Change outputs are not
// listed.
type Summary struct {
	Outputs   []Output
	PaymentID []byte
	Fee       uint64
}

// Prompter is the device's user interface.
type Prompter interface {
	// ConfirmTransaction asks the user to approve the summary. It returns
	// ErrRejected (or another error) when the transaction must not proceed.
	ConfirmTransaction(ctx context.Context, s *Summary) error

	// Progress reports that current of total items of step are done.
	Progress(ctx context.Context, step Step, current, total int)

	// Signed is called after the last input signature was produced.
	Signed(ctx context.Context)

	// Finished is called when the flow completes.
	Finished(ctx context.Context)
}

// atomicUnits is the number of atomic units per XMR.
const atomicUnits = 1_000_000_000_000

// FormatAmount renders atomic units as XMR with 12 decimals.
func FormatAmount(amount uint64) string {
	frac := strconv.FormatUint(amount%atomicUnits, 10)
	for len(frac) < 12 {
		frac = "0" + frac
	}
	return strconv.FormatUint(amount/atomicUnits, 10) + "." + frac + " XMR"
}
