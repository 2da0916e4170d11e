// Package ui defines the user interaction points of the signing flow.
//
// The signing engine calls a Prompter synchronously: once at Init to confirm
// the destinations, payment ID and fee, during each step to report progress,
// after the last input is signed, and when the flow finishes. A refusal at
// confirmation aborts the transaction.
//
// The package also provides LoggingPrompter, a headless prompter that logs
// every event and either confirms or rejects transactions, for simulators and
// tests.
package ui
