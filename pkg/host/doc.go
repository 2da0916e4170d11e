// Package host is the wallet side of offloaded signing.
//
// A Signer drives a Device through the full signing flow: it declares the
// transaction, feeds inputs and outputs back with the HMACs and sealed blobs
// the device handed out, and collects the prefix, range proofs and MLSAG
// signatures. SignedTransaction.Verify checks the result independently of the
// device.
//
// Account fabricates owned outputs with decoy rings so flows can run without
// a blockchain:
//
//	acct, _ := host.NewAccount(rand.Reader)
//	src, _ := acct.NewSource(rand.Reader, host.SourceParams{Amount: 1e12, RingSize: 11})
//
// The Device may be a local signing.Engine or a transport.Client.
package host
