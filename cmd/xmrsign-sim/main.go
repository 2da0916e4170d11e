// xmrsign-sim runs a simulated wallet host against the signing engine.
//
// The host fabricates an account with owned outputs, builds a transaction and
// drives the device through the whole offloaded signing flow, then verifies
// the ring signatures, range proofs and balance of the result.
//
// Usage:
//
//	xmrsign-sim [options]
//
// Example:
//
//	xmrsign-sim -inputs 3 -pay 1000000000000,250000000000 -offload -grouping 3 -link tcp
package main

import (
	"context"
	cryptorand "crypto/rand"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/backkem/xmrsign/pkg/host"
	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/signing"
	"github.com/backkem/xmrsign/pkg/transport"
	"github.com/backkem/xmrsign/pkg/ui"
	"github.com/backkem/xmrsign/pkg/xmr"
	"github.com/pion/logging"
)

func main() {
	opts, err := ParseFlags()
	if err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("Signing failed: %v", err)
	}
}

// randomness returns the device and host sources. The engine runs on the
// device goroutine, so the two never share a seeded generator.
func randomness(seed int64) (device, hostRand io.Reader) {
	if seed == 0 {
		return cryptorand.Reader, cryptorand.Reader
	}
	return rand.New(rand.NewSource(seed)), rand.New(rand.NewSource(seed + 1))
}

func buildTransaction(opts Options, sender, recipient *host.Account, r io.Reader) (*host.Transaction, error) {
	tx := &host.Transaction{Tx: message.TxData{
		Version:   2,
		Fee:       opts.Fee,
		PaymentID: opts.PaymentID,
		Mixin:     uint32(opts.RingSize - 1),
		Rsig: message.RsigParams{
			Bulletproof: opts.Bulletproof,
			Offload:     opts.Offload,
			Grouping:    opts.Grouping,
		},
	}}

	for i := 0; i < opts.Inputs; i++ {
		src, err := sender.NewSource(r, host.SourceParams{
			Amount:           opts.InputAmount,
			RingSize:         opts.RingSize,
			RealIndex:        i % opts.RingSize,
			IndexInTx:        uint64(i % 2),
			FirstGlobalIndex: uint64(1000 * (i + 1)),
		})
		if err != nil {
			return nil, fmt.Errorf("create input %d: %w", i, err)
		}
		tx.Sources = append(tx.Sources, *src)
	}

	rest := opts.InputAmount*uint64(opts.Inputs) - opts.Fee
	to := xmr.SubaddressIndex{Minor: opts.Subaddress}
	for _, amount := range opts.Payments {
		tx.Tx.Destinations = append(tx.Tx.Destinations, recipient.Destination(to, amount))
		rest -= amount
	}
	if rest > 0 {
		change := sender.Destination(xmr.SubaddressIndex{}, rest)
		tx.Tx.Destinations = append(tx.Tx.Destinations, change)
		tx.Tx.Change = &change
	}
	return tx, nil
}

// connect starts the device side of the link and returns the host client
// together with a function tearing both down.
func connect(opts Options, engine *signing.Engine, lf logging.LoggerFactory) (*transport.Client, func(), error) {
	if opts.Link == "tcp" {
		server, err := transport.NewServer(transport.ServerConfig{Engine: engine, LoggerFactory: lf})
		if err != nil {
			return nil, nil, err
		}
		if err := server.Start(); err != nil {
			return nil, nil, err
		}
		conn, err := net.Dial("tcp", server.Addr().String())
		if err != nil {
			server.Stop()
			return nil, nil, err
		}
		client, err := transport.NewClient(transport.ClientConfig{Conn: conn, LoggerFactory: lf})
		if err != nil {
			conn.Close()
			server.Stop()
			return nil, nil, err
		}
		return client, func() {
			client.Close()
			server.Stop()
		}, nil
	}

	pipe := transport.NewPipe()
	device, err := transport.NewDevice(transport.DeviceConfig{Conn: pipe.Device(), Engine: engine, LoggerFactory: lf})
	if err != nil {
		pipe.Close()
		return nil, nil, err
	}
	if err := device.Start(); err != nil {
		pipe.Close()
		return nil, nil, err
	}
	client, err := transport.NewClient(transport.ClientConfig{Conn: pipe.Host(), LoggerFactory: lf})
	if err != nil {
		device.Stop()
		pipe.Close()
		return nil, nil, err
	}
	return client, func() {
		device.Stop()
		pipe.Close()
	}, nil
}

func run(ctx context.Context, opts Options, out io.Writer) error {
	lf := logging.NewDefaultLoggerFactory()
	lf.DefaultLogLevel = opts.LogLevel

	deviceRand, hostRand := randomness(opts.Seed)
	sender, err := host.NewAccount(hostRand)
	if err != nil {
		return err
	}
	recipient, err := host.NewAccount(hostRand)
	if err != nil {
		return err
	}
	tx, err := buildTransaction(opts, sender, recipient, hostRand)
	if err != nil {
		return err
	}

	engine, err := signing.NewEngine(signing.EngineConfig{
		Keys:          sender.Keys,
		Prompter:      ui.NewLoggingPrompter(ui.LoggingPrompterConfig{LoggerFactory: lf}),
		Rand:          deviceRand,
		LoggerFactory: lf,
	})
	if err != nil {
		return err
	}

	client, closeLink, err := connect(opts, engine, lf)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer closeLink()

	signer, err := host.NewSigner(host.SignerConfig{Device: client, Rand: hostRand, LoggerFactory: lf})
	if err != nil {
		return err
	}
	signed, err := signer.Sign(ctx, tx)
	if err != nil {
		return err
	}
	if err := signed.Verify(); err != nil {
		return err
	}

	f := signed.Final
	keys, err := signing.RecoverTxKeys(sender.Keys.SpendSecret, signed.PrefixHash, f.Salt, f.RandMult, f.TxEncKeys)
	if err != nil {
		return fmt.Errorf("recover tx keys: %w", err)
	}

	fmt.Fprintf(out, "rct type:      %d\n", signed.RctType)
	fmt.Fprintf(out, "inputs:        %d (ring size %d)\n", len(signed.Inputs), opts.RingSize)
	fmt.Fprintf(out, "outputs:       %d in %d range proof(s)\n", len(signed.Outputs), len(signed.RangeProofs))
	fmt.Fprintf(out, "fee:           %s\n", ui.FormatAmount(signed.Fee))
	fmt.Fprintf(out, "prefix hash:   %x\n", signed.PrefixHash)
	fmt.Fprintf(out, "message hash:  %x\n", signed.MessageHash)
	fmt.Fprintf(out, "tx keys:       %d recovered\n", len(keys))
	fmt.Fprintln(out, "verification:  ok")
	return nil
}
