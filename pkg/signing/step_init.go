package signing

import (
	"context"
	"fmt"

	"github.com/backkem/xmrsign/pkg/crypto"
	"github.com/backkem/xmrsign/pkg/message"
	"github.com/backkem/xmrsign/pkg/rangeproof"
	"github.com/backkem/xmrsign/pkg/ui"
	"github.com/backkem/xmrsign/pkg/xmr"
)

// destinationClasses counts the distinct non-change destination addresses.
type destinationClasses struct {
	standard   int
	subaddress int
	singleSub  *crypto.Point // spend key of the only subaddress destination
	firstView  *crypto.Point // view key of the first non-change destination
	changeView *crypto.Point
	nonChange  []message.DestinationEntry
}

func classifyDestinations(tx *message.TxData) (*destinationClasses, error) {
	c := &destinationClasses{}
	seen := make(map[message.AccountAddress]bool)
	for i := range tx.Destinations {
		d := &tx.Destinations[i]
		spend, err := crypto.PointFromBytes(d.Address.SpendPublic[:])
		if err != nil {
			return nil, errf(ErrInvalidRequest, "destination %d spend key", i)
		}
		view, err := crypto.PointFromBytes(d.Address.ViewPublic[:])
		if err != nil {
			return nil, errf(ErrInvalidRequest, "destination %d view key", i)
		}
		if tx.Change != nil && d.Address == tx.Change.Address {
			c.changeView = view
			continue
		}
		c.nonChange = append(c.nonChange, *d)
		if c.firstView == nil {
			c.firstView = view
		}
		if seen[d.Address] {
			continue
		}
		seen[d.Address] = true
		if d.IsSubaddress {
			c.subaddress++
			c.singleSub = spend
		} else {
			c.standard++
		}
	}
	if c.standard != 0 || c.subaddress != 1 {
		c.singleSub = nil
	}
	return c, nil
}

// checkChange verifies the change address belongs to the account.
func checkChange(keys *xmr.Keys, subs xmr.SubaddressTable, change *message.DestinationEntry) error {
	idx, ok := subs[[32]byte(change.Address.SpendPublic)]
	if !ok {
		return errf(ErrInvalidRequest, "change address is not owned by the account")
	}
	_, view := keys.SubaddressPublic(idx)
	if message.Key(view.Bytes()) != change.Address.ViewPublic {
		return errf(ErrInvalidRequest, "change address view key mismatch")
	}
	return nil
}

func (e *Engine) confirm(ctx context.Context, tx *message.TxData, dests []message.DestinationEntry) error {
	summary := &ui.Summary{PaymentID: tx.PaymentID, Fee: tx.Fee}
	for _, d := range dests {
		// A zero output next to no change is the dummy of a sweep.
		if tx.Change == nil && d.Amount == 0 && len(tx.Destinations) == 2 {
			continue
		}
		summary.Outputs = append(summary.Outputs, ui.Output{
			SpendPublic:  d.Address.SpendPublic[:],
			ViewPublic:   d.Address.ViewPublic[:],
			IsSubaddress: d.IsSubaddress,
			Amount:       d.Amount,
		})
	}
	if err := e.prompter.ConfirmTransaction(ctx, summary); err != nil {
		return fmt.Errorf("%w: %w", ErrUserAbort, err)
	}
	return nil
}

func (e *Engine) init(ctx context.Context, r *message.InitRequest) (message.Response, message.KindSet, error) {
	tx := &r.Tx
	if r.NetworkType != e.network {
		return nil, 0, errf(ErrInvalidRequest, "network type %d, device uses %d", r.NetworkType, e.network)
	}
	if tx.Version == 0 || tx.Version > 2 {
		return nil, 0, errf(ErrInvalidRequest, "unsupported transaction version %d", tx.Version)
	}
	inputs, outputs := int(tx.InputCount), len(tx.Destinations)
	if inputs == 0 || inputs > e.maxInputs {
		return nil, 0, errf(ErrBounds, "input count %d", inputs)
	}
	if outputs == 0 || outputs > e.maxOutputs {
		return nil, 0, errf(ErrBounds, "output count %d", outputs)
	}
	switch len(tx.PaymentID) {
	case 0, xmr.ShortPaymentIDSize, xmr.LongPaymentIDSize:
	default:
		return nil, 0, errf(ErrInvalidRequest, "payment id length %d", len(tx.PaymentID))
	}
	if len(tx.ExpectedPrefixHash) != 0 && len(tx.ExpectedPrefixHash) != crypto.HashSize {
		return nil, 0, errf(ErrInvalidRequest, "expected prefix hash length %d", len(tx.ExpectedPrefixHash))
	}

	rtype := rangeproof.TypeBorromean
	if tx.Rsig.Bulletproof {
		rtype = rangeproof.TypeBulletproof
	}
	if tx.Rsig.Offload && rtype != rangeproof.TypeBulletproof {
		return nil, 0, errf(ErrInvalidRequest, "offloaded Borromean range proofs are not supported")
	}
	grouping := make([]int, len(tx.Rsig.Grouping))
	for i, g := range tx.Rsig.Grouping {
		grouping[i] = int(g)
	}
	plan, err := rangeproof.NewPlan(rtype, outputs, grouping)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	classes, err := classifyDestinations(tx)
	if err != nil {
		return nil, 0, err
	}
	subs := xmr.NewSubaddressTable(e.keys, tx.Account, tx.MinorIndices)
	if tx.Change != nil {
		if err := checkChange(e.keys, subs, tx.Change); err != nil {
			return nil, 0, err
		}
	}

	if err := e.confirm(ctx, tx, classes.nonChange); err != nil {
		return nil, 0, err
	}

	s := newSession(e.keys, inputs, outputs)
	ok := false
	defer func() {
		if !ok {
			s.wipe()
		}
	}()

	s.subs = subs
	s.version = tx.Version
	s.fee = tx.Fee
	s.mixin = int(tx.Mixin)
	s.multisig = tx.Multisig
	s.expPrefix = tx.ExpectedPrefixHash
	if tx.Change != nil {
		change := *tx.Change
		s.change = &change
	}
	s.simple = inputs > 1 || rtype == rangeproof.TypeBulletproof
	s.bulletproof = rtype == rangeproof.TypeBulletproof
	s.rsigOffload = tx.Rsig.Offload
	s.plan = plan
	s.prover = rangeproof.NewProver(rtype, e.rand)
	switch {
	case s.bulletproof:
		s.rctType = RctTypeBulletproof
	case s.simple:
		s.rctType = RctTypeSimple
	default:
		s.rctType = RctTypeFull
	}

	if s.off, err = newOffloadKeys(e.rand); err != nil {
		return nil, 0, err
	}
	if s.txSecret, err = crypto.RandomScalar(e.rand); err != nil {
		return nil, 0, err
	}
	if classes.singleSub != nil {
		s.txPublic = crypto.ScalarMult(s.txSecret, classes.singleSub)
	} else {
		s.txPublic = crypto.ScalarMultBase(s.txSecret)
	}
	s.needAdditional = classes.subaddress > 0 && (classes.standard > 0 || classes.subaddress > 1)

	if len(tx.PaymentID) > 0 {
		view := classes.firstView
		if view == nil {
			view = classes.changeView
		}
		if view == nil {
			return nil, 0, errf(ErrInvalidRequest, "payment id without a destination")
		}
		if s.extraNonce, err = xmr.PaymentIDNonce(tx.PaymentID, s.txSecret, view); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	if err := s.prefix.Init(tx.Version, tx.UnlockTime, inputs); err != nil {
		return nil, 0, hashErr(err)
	}
	if err := s.full.Init(s.simple); err != nil {
		return nil, 0, hashErr(err)
	}
	if err := s.full.SetTypeFee(s.rctType, tx.Fee); err != nil {
		return nil, 0, hashErr(err)
	}

	resp := &message.InitResponse{
		DestinationHMACs: make([][]byte, outputs),
	}
	for i := range tx.Destinations {
		resp.DestinationHMACs[i] = s.off.destHMAC(&tx.Destinations[i], i)
	}
	for _, g := range plan.Grouping() {
		resp.Grouping = append(resp.Grouping, uint32(g))
	}

	ok = true
	e.s = s
	if e.log != nil {
		e.log.Infof("transaction started: %d inputs, %d outputs, rct type %d", inputs, outputs, s.rctType)
	}
	return resp, message.KindSetOf(message.KindSetInput), nil
}
