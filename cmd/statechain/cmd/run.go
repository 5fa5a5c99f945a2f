// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"

	"github.com/ava-labs/utxostate/chain"
	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/crypto/secp256k1"
	"github.com/ava-labs/utxostate/instance"
	"github.com/ava-labs/utxostate/ledger"
	"github.com/ava-labs/utxostate/policy"
	"github.com/ava-labs/utxostate/signer"
)

func newRunCmd(s *statechain) *cobra.Command {
	return &cobra.Command{
		Use:   "run [path]",
		Short: "Run a plan of deploys and calls against a local ledger",
		Long:  "Run a YAML or JSON plan. Pass \"-\" to read the plan from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readPlan(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			plan, err := unmarshalPlan(b)
			if err != nil {
				return err
			}
			if err := plan.Verify(); err != nil {
				return err
			}

			if err := s.Init(); err != nil {
				return err
			}
			defer s.Close()

			r, err := newRunner(s.log, s.ledger, plan.Keys)
			if err != nil {
				return err
			}
			r.fee = s.cfg.GetFee()
			return r.Run(cmd.Context(), plan, s.cfg.GetVerifyWorkers(), os.Stdout)
		},
	}
}

func readPlan(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

type deployed struct {
	// current is nil once the contract has paid out.
	current *instance.Instance
	chain   *chain.StateChain
}

type runner struct {
	log       logging.Logger
	ledger    *ledger.Ledger
	signer    *signer.Local
	keys      map[string]secp256k1.PublicKey
	instances map[string]*deployed

	// fee is used by calls that do not set one.
	fee uint64
}

func newRunner(log logging.Logger, l *ledger.Ledger, keys []Key) (*runner, error) {
	r := &runner{
		log:       log,
		ledger:    l,
		signer:    signer.New(),
		keys:      make(map[string]secp256k1.PublicKey, len(keys)),
		instances: make(map[string]*deployed),
	}
	for _, k := range keys {
		var (
			priv secp256k1.PrivateKey
			err  error
		)
		if len(k.PrivateKey) > 0 {
			priv, err = secp256k1.HexToKey(k.PrivateKey)
		} else {
			priv, err = secp256k1.GeneratePrivateKey()
		}
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k.Name, err)
		}
		r.keys[k.Name] = r.signer.Add(priv)
		log.Debug("loaded key",
			zap.String("name", k.Name),
			zap.Stringer("address", r.keys[k.Name].Address()),
		)
	}
	return r, nil
}

// Run executes every step and writes one JSON response per step to [out].
// A step that fails is reported and the plan continues, unless the failure
// does not match the step's expectation.
func (r *runner) Run(ctx context.Context, plan *Plan, workers int, out io.Writer) error {
	r.log.Info("running plan",
		zap.String("name", plan.Name),
		zap.Int("steps", len(plan.Steps)),
	)
	for i := range plan.Steps {
		step := &plan.Steps[i]
		if step.Time != nil {
			r.ledger.SetTime(*step.Time)
		}
		r.log.Info("step",
			zap.Int("step", i),
			zap.String("description", step.Description),
			zap.Uint64("time", r.ledger.Time()),
		)

		resp := newResponse(i)
		result, err := r.runStep(ctx, step)
		resp.Result = result
		if err != nil {
			resp.Error = err.Error()
		}
		if err := resp.Write(out); err != nil {
			return err
		}
		if err := checkExpect(step.Expect, err); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return r.audit(ctx, workers)
}

func checkExpect(expect string, err error) error {
	switch {
	case len(expect) == 0:
		return nil
	case err == nil:
		return fmt.Errorf("%w: expected %q, step succeeded", ErrUnexpectedResult, expect)
	case !strings.Contains(err.Error(), expect):
		return fmt.Errorf("%w: expected %q, got %q", ErrUnexpectedResult, expect, err)
	default:
		return nil
	}
}

func (r *runner) runStep(ctx context.Context, step *Step) (*Result, error) {
	if step.Deploy != nil {
		return r.deploy(ctx, step.Deploy)
	}
	return r.call(ctx, step.Call)
}

func (r *runner) deploy(ctx context.Context, d *Deploy) (*Result, error) {
	if _, ok := r.instances[d.Name]; ok {
		return nil, fmt.Errorf("%w: instance %s", ErrDuplicateName, d.Name)
	}
	state, err := r.newState(d)
	if err != nil {
		return nil, err
	}
	inst, err := instance.Deploy(ctx, r.ledger, r.signer, state, d.Value, r.log)
	if err != nil {
		return nil, err
	}
	r.instances[d.Name] = &deployed{
		current: inst,
		chain:   chain.NewStateChain(inst.Snapshot()),
	}
	return &Result{
		Instance: d.Name,
		TxID:     inst.Snapshot().Outpoint.TxID.String(),
		Outpoint: inst.Snapshot().Outpoint.String(),
		Balance:  inst.Balance(),
	}, nil
}

func (r *runner) newState(d *Deploy) (policy.State, error) {
	keys, err := r.lookupKeys(d.Keys)
	if err != nil {
		return nil, err
	}
	var dest codec.Address
	if len(d.Dest) > 0 {
		pk, err := r.lookupKey(d.Dest)
		if err != nil {
			return nil, err
		}
		dest = pk.Address()
	}

	switch strings.ToLower(d.Policy) {
	case policy.ThresholdKey:
		return policy.NewThreshold(keys, d.Required, dest)
	case policy.OrderedKey:
		return policy.NewOrdered(keys, dest)
	case policy.SwapKey:
		if len(keys) != 2 {
			return nil, fmt.Errorf("%w: swap takes 2 keys, got %d", ErrInvalidStep, len(keys))
		}
		return policy.NewSwap(keys[0], keys[1], policy.HashPreimage(d.Preimage), d.MinLockTime)
	case policy.MultiSigKey:
		hashes := make([]codec.Address, len(keys))
		for i, pk := range keys {
			hashes[i] = pk.Address()
		}
		return policy.NewMultiSig(hashes, dest)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, d.Policy)
	}
}

func (r *runner) call(ctx context.Context, c *Call) (*Result, error) {
	d, ok := r.instances[c.Instance]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstance, c.Instance)
	}
	if d.current == nil {
		return nil, fmt.Errorf("%w: %s", ErrInstanceTerminated, c.Instance)
	}
	method, err := policy.ParseMethod(c.Method)
	if err != nil {
		return nil, err
	}
	opts, err := r.callOptions(ctx, c)
	if err != nil {
		return nil, err
	}

	res, err := d.current.Call(ctx, policy.Call{Method: method, Index: c.Index}, opts)
	if err != nil {
		return nil, err
	}
	// The ledger already verified the transition. Appending keeps a local
	// history to audit once the plan finishes.
	if _, err := d.chain.Append(ctx, res.Tx); err != nil {
		return nil, err
	}
	d.current = res.Next

	result := &Result{
		Instance: c.Instance,
		TxID:     res.Confirmation.TxID.String(),
		Terminal: res.Next == nil,
	}
	if res.Next != nil {
		result.Outpoint = res.Next.Snapshot().Outpoint.String()
		result.Balance = res.Next.Balance()
	} else if payout, ok := d.chain.Payout(); ok {
		result.Balance = payout.Value
	}
	return result, nil
}

func (r *runner) callOptions(ctx context.Context, c *Call) (*instance.CallOptions, error) {
	opts := &instance.CallOptions{
		LockTime: c.LockTime,
		Fee:      c.Fee,
		Preimage: c.Preimage,
	}
	if opts.Fee == 0 {
		opts.Fee = r.fee
	}
	signers, err := r.lookupKeys(c.Signers)
	if err != nil {
		return nil, err
	}
	for _, pk := range signers {
		opts.PubKeyOrAddrToSign = append(opts.PubKeyOrAddrToSign, instance.ByKey(pk))
	}
	if c.Funding != nil {
		pk, err := r.lookupKey(c.Funding.Key)
		if err != nil {
			return nil, err
		}
		addr := pk.Address()
		in, err := r.ledger.Fund(ctx, addr, c.Funding.Value)
		if err != nil {
			return nil, err
		}
		opts.Funding = []*chain.Input{in}
		opts.ChangeAddress = &addr
	}
	return opts, nil
}

// audit re-verifies every recorded history in parallel.
func (r *runner) audit(ctx context.Context, workers int) error {
	names := maps.Keys(r.instances)
	slices.Sort(names)
	for _, name := range names {
		d := r.instances[name]
		if err := d.chain.Audit(ctx, workers); err != nil {
			return fmt.Errorf("instance %s: %w", name, err)
		}
		r.log.Info("audited instance",
			zap.String("name", name),
			zap.Int("transitions", len(d.chain.Transactions())),
			zap.Bool("terminated", d.chain.Terminated()),
		)
	}
	return nil
}

func (r *runner) lookupKey(name string) (secp256k1.PublicKey, error) {
	pk, ok := r.keys[name]
	if !ok {
		return secp256k1.EmptyPublicKey, fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	return pk, nil
}

func (r *runner) lookupKeys(names []string) ([]secp256k1.PublicKey, error) {
	keys := make([]secp256k1.PublicKey, len(names))
	for i, name := range names {
		pk, err := r.lookupKey(name)
		if err != nil {
			return nil, err
		}
		keys[i] = pk
	}
	return keys, nil
}
