// Package signing implements the offloaded RingCT transaction signing engine.
//
// The engine signs a transaction without holding it in memory. The host
// drives the flow one request at a time:
//
//	Init
//	SetInput          x inputs
//	InputsPermutation
//	InputVini         x inputs, in permuted order
//	AllInputsSet
//	SetOutput         x outputs
//	AllOutputsSet
//	MlsagDone
//	SignInput         x inputs, in permuted order
//	Final
//
// Every data item the device hands to the host (input records, pseudo
// outputs, encrypted masks and spend keys) is authenticated or encrypted
// under a key derived from per-transaction secrets, a purpose tag and the
// item index. Items coming back are checked before use.
//
// The transaction prefix and the RingCT message are folded into incremental
// hashers as the data streams through, so the signed message binds every
// input, output and range proof.
//
// Usage:
//
//	e, err := signing.NewEngine(signing.EngineConfig{
//	    Keys:     keys,
//	    Prompter: prompter,
//	})
//	resp, next, err := e.Step(ctx, &message.InitRequest{Tx: tx})
//
// Any error is fatal: the session is wiped and every later request fails
// until Reset is called.
package signing
