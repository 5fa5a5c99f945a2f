// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/policy"
)

type Plan struct {
	// The name of the plan.
	Name string `yaml:"name" json:"name"`
	// A description of the plan.
	Description string `yaml:"description" json:"description"`
	// Keys generated or loaded before the first step.
	Keys []Key `yaml:"keys" json:"keys"`
	// Steps run in order against one ledger.
	Steps []Step `yaml:"steps" json:"steps"`
}

type Key struct {
	Name string `yaml:"name" json:"name"`
	// Hex encoded private key. A new key is generated when empty.
	PrivateKey string `yaml:"privateKey,omitempty" json:"privateKey,omitempty"`
}

// Step performs exactly one of [Deploy] or [Call].
type Step struct {
	Description string `yaml:"description" json:"description"`
	// Time moves the ledger clock before the step runs.
	Time *uint64 `yaml:"time,omitempty" json:"time,omitempty"`
	// Expect is a substring of the error the step must fail with.
	Expect string `yaml:"expect,omitempty" json:"expect,omitempty"`

	Deploy *Deploy `yaml:"deploy,omitempty" json:"deploy,omitempty"`
	Call   *Call   `yaml:"call,omitempty" json:"call,omitempty"`
}

type Deploy struct {
	// Instance name later steps call.
	Name   string `yaml:"name" json:"name"`
	Policy string `yaml:"policy" json:"policy"`
	// Participant key names. A swap takes the initiator then the
	// counterparty.
	Keys     []string `yaml:"keys" json:"keys"`
	Required uint8    `yaml:"required,omitempty" json:"required,omitempty"`
	// Dest is the key name whose address receives the payout.
	Dest string `yaml:"dest,omitempty" json:"dest,omitempty"`
	// Preimage is hashed into the swap digest.
	Preimage    codec.Bytes `yaml:"preimage,omitempty" json:"preimage,omitempty"`
	MinLockTime uint64 `yaml:"minLockTime,omitempty" json:"minLockTime,omitempty"`
	Value       uint64 `yaml:"value" json:"value"`
}

type Call struct {
	Instance string `yaml:"instance" json:"instance"`
	Method   string `yaml:"method" json:"method"`
	Index    uint8  `yaml:"index,omitempty" json:"index,omitempty"`
	// Signers overrides the keys the requirement names.
	Signers  []string `yaml:"signers,omitempty" json:"signers,omitempty"`
	Preimage codec.Bytes `yaml:"preimage,omitempty" json:"preimage,omitempty"`
	LockTime uint64   `yaml:"lockTime,omitempty" json:"lockTime,omitempty"`
	Fee      uint64   `yaml:"fee,omitempty" json:"fee,omitempty"`
	// Funding pays the fee from a fresh output owned by the named key.
	Funding *Funding `yaml:"funding,omitempty" json:"funding,omitempty"`
}

type Funding struct {
	Key   string `yaml:"key" json:"key"`
	Value uint64 `yaml:"value" json:"value"`
}

type Response struct {
	// The index of the step that generated this response.
	ID int `yaml:"id" json:"id"`
	// The result of the step.
	Result *Result `yaml:"result,omitempty" json:"result,omitempty"`
	// The error message if available.
	Error string `yaml:"error,omitempty" json:"error,omitempty"`
}

type Result struct {
	Instance string `yaml:"instance" json:"instance"`
	// TxID of the confirmed transaction.
	TxID string `yaml:"txID,omitempty" json:"txID,omitempty"`
	// Outpoint of the contract after the step.
	Outpoint string `yaml:"outpoint,omitempty" json:"outpoint,omitempty"`
	Balance  uint64 `yaml:"balance" json:"balance"`
	Terminal bool   `yaml:"terminal,omitempty" json:"terminal,omitempty"`
}

func newResponse(id int) *Response {
	return &Response{ID: id}
}

// Write prints the response as one line of JSON.
func (r *Response) Write(w io.Writer) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func unmarshalPlan(b []byte) (*Plan, error) {
	var p Plan
	switch {
	case isJSON(b):
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, err
		}
	case isYAML(b):
		if err := yaml.Unmarshal(b, &p); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidConfigFormat
	}
	return &p, nil
}

func isJSON(b []byte) bool {
	var js json.RawMessage
	return json.Unmarshal(b, &js) == nil
}

func isYAML(b []byte) bool {
	var y map[string]interface{}
	return yaml.Unmarshal(b, &y) == nil
}

// Verify checks the plan's structure before anything runs.
func (p *Plan) Verify() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: no steps found", ErrInvalidPlan)
	}
	keys := make(map[string]struct{}, len(p.Keys))
	for _, k := range p.Keys {
		if len(k.Name) == 0 {
			return fmt.Errorf("%w: unnamed key", ErrInvalidPlan)
		}
		if _, ok := keys[k.Name]; ok {
			return fmt.Errorf("%w: key %s", ErrDuplicateName, k.Name)
		}
		keys[k.Name] = struct{}{}
	}
	for i := range p.Steps {
		if err := verifyStep(&p.Steps[i]); err != nil {
			return fmt.Errorf("%w %d: %w", ErrInvalidStep, i, err)
		}
	}
	return nil
}

func verifyStep(step *Step) error {
	switch {
	case step.Deploy != nil && step.Call != nil:
		return fmt.Errorf("%w: both deploy and call set", ErrInvalidPlan)
	case step.Deploy != nil:
		if len(step.Deploy.Name) == 0 {
			return fmt.Errorf("%w: deploy without a name", ErrInvalidPlan)
		}
		switch strings.ToLower(step.Deploy.Policy) {
		case policy.ThresholdKey, policy.OrderedKey, policy.SwapKey, policy.MultiSigKey:
			return nil
		default:
			return fmt.Errorf("%w: %q", ErrUnknownPolicy, step.Deploy.Policy)
		}
	case step.Call != nil:
		_, err := policy.ParseMethod(step.Call.Method)
		return err
	default:
		return fmt.Errorf("%w: neither deploy nor call set", ErrInvalidPlan)
	}
}
