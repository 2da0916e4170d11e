// Package message defines the request and response types exchanged between
// the host wallet and the signing device, their TLV encoding, and the
// length-prefixed stream framing used to carry them.
//
// Every request kind has a matching response type:
//
//	Init -> SetInput* -> InputsPermutation -> InputVini* -> AllInputsSet ->
//	SetOutput* -> AllOutputsSet -> MlsagDone -> SignInput* -> Final
//
// Requests travel inside an envelope carrying the request kind. Replies carry
// a status, the set of request kinds accepted next, and the response body.
//
// SourceEntry and DestinationEntry have a canonical encoding (Bytes) which the
// device authenticates when the host hands them back in later steps.
package message
