// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"bytes"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/utxostate/codec"
	"github.com/ava-labs/utxostate/consts"
	"github.com/ava-labs/utxostate/policy"
)

const (
	// ContractInputIndex is the position of the contract input in every
	// transition.
	ContractInputIndex = 0

	// MaxCommitmentLen bounds the commitment an output may carry. The largest
	// policy commitment is well below it.
	MaxCommitmentLen = 4096

	MaxInputs  = 64
	MaxOutputs = 64
)

type OutputType uint8

const (
	CommitmentOutput OutputType = iota
	AddressOutput
)

func (t OutputType) String() string {
	switch t {
	case CommitmentOutput:
		return "commitment"
	case AddressOutput:
		return "address"
	default:
		return fmt.Sprintf("output(%d)", uint8(t))
	}
}

// Outpoint references an output of a confirmed transaction.
type Outpoint struct {
	TxID  ids.ID `json:"txID"`
	Index uint32 `json:"index"`
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Index)
}

func (o Outpoint) Marshal(p *codec.Packer) {
	p.PackID(o.TxID)
	p.PackInt(o.Index)
}

func UnmarshalOutpoint(p *codec.Packer) Outpoint {
	var o Outpoint
	p.UnpackID(false, &o.TxID)
	o.Index = p.UnpackInt(false)
	return o
}

// Output locks [Value] either to a contract commitment or to an address.
type Output struct {
	Value      uint64        `json:"value"`
	Type       OutputType    `json:"type"`
	Commitment []byte        `json:"commitment,omitempty"`
	Address    codec.Address `json:"address,omitempty"`
}

func NewCommitmentOutput(value uint64, commitment []byte) *Output {
	return &Output{Value: value, Type: CommitmentOutput, Commitment: commitment}
}

func NewAddressOutput(value uint64, addr codec.Address) *Output {
	return &Output{Value: value, Type: AddressOutput, Address: addr}
}

func (o *Output) Size() int {
	size := consts.Uint64Len + consts.ByteLen
	if o.Type == CommitmentOutput {
		return size + codec.BytesLen(o.Commitment)
	}
	return size + codec.AddressLen
}

func (o *Output) Marshal(p *codec.Packer) {
	p.PackUint64(o.Value)
	p.PackByte(uint8(o.Type))
	if o.Type == CommitmentOutput {
		p.PackBytes(o.Commitment)
		return
	}
	p.PackAddress(o.Address)
}

func UnmarshalOutput(p *codec.Packer) (*Output, error) {
	var o Output
	o.Value = p.UnpackUint64(false)
	o.Type = OutputType(p.UnpackByte())
	switch o.Type {
	case CommitmentOutput:
		p.UnpackBytes(MaxCommitmentLen, true, &o.Commitment)
	case AddressOutput:
		p.UnpackAddress(&o.Address)
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidOutputType, o.Type)
	}
	return &o, p.Err()
}

// Equal reports whether two outputs lock the same value to the same data.
func (o *Output) Equal(other *Output) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.Value != other.Value || o.Type != other.Type {
		return false
	}
	if o.Type == CommitmentOutput {
		return bytes.Equal(o.Commitment, other.Commitment)
	}
	return o.Address == other.Address
}

// Input spends [Outpoint]. The spent output is carried along so a transition
// can be verified without access to the UTXO set.
type Input struct {
	Outpoint Outpoint `json:"outpoint"`
	Spent    *Output  `json:"spent"`
}

func (i *Input) Size() int {
	return consts.IDLen + consts.Uint32Len + i.Spent.Size()
}

func (i *Input) Marshal(p *codec.Packer) {
	i.Outpoint.Marshal(p)
	i.Spent.Marshal(p)
}

func UnmarshalInput(p *codec.Packer) (*Input, error) {
	outpoint := UnmarshalOutpoint(p)
	spent, err := UnmarshalOutput(p)
	if err != nil {
		return nil, err
	}
	return &Input{Outpoint: outpoint, Spent: spent}, nil
}

// Witness authorizes the contract input. It is excluded from the digest
// signatures commit to.
type Witness struct {
	Call     policy.Call      `json:"call"`
	Evidence *policy.Evidence `json:"evidence"`
}

func (w *Witness) Size() int {
	return consts.ByteLen*2 + w.evidence().Size()
}

func (w *Witness) Marshal(p *codec.Packer) {
	p.PackByte(uint8(w.Call.Method))
	p.PackByte(w.Call.Index)
	w.evidence().Marshal(p)
}

func (w *Witness) evidence() *policy.Evidence {
	if w.Evidence == nil {
		return &policy.Evidence{}
	}
	return w.Evidence
}

func UnmarshalWitness(p *codec.Packer) (*Witness, error) {
	var w Witness
	w.Call.Method = policy.Method(p.UnpackByte())
	w.Call.Index = p.UnpackByte()
	evidence, err := policy.UnmarshalEvidence(p)
	if err != nil {
		return nil, err
	}
	w.Evidence = evidence
	return &w, nil
}

// Transaction spends the contract output at [ContractInputIndex], plus any
// funding inputs, into [Outputs].
type Transaction struct {
	Inputs   []*Input  `json:"inputs"`
	Outputs  []*Output `json:"outputs"`
	LockTime uint64    `json:"lockTime"`
	Witness  *Witness  `json:"witness,omitempty"`
}

func (t *Transaction) unsignedSize() int {
	size := consts.ByteLen*2 + consts.Uint64Len
	for _, in := range t.Inputs {
		size += in.Size()
	}
	for _, out := range t.Outputs {
		size += out.Size()
	}
	return size
}

func (t *Transaction) Size() int {
	size := t.unsignedSize() + consts.BoolLen
	if t.Witness != nil {
		size += t.Witness.Size()
	}
	return size
}

func (t *Transaction) marshalUnsigned(p *codec.Packer) {
	p.PackByte(uint8(len(t.Inputs)))
	for _, in := range t.Inputs {
		in.Marshal(p)
	}
	p.PackByte(uint8(len(t.Outputs)))
	for _, out := range t.Outputs {
		out.Marshal(p)
	}
	p.PackUint64(t.LockTime)
}

func (t *Transaction) Marshal(p *codec.Packer) {
	t.marshalUnsigned(p)
	p.PackBool(t.Witness != nil)
	if t.Witness != nil {
		t.Witness.Marshal(p)
	}
}

// Digest is the message every signature over this transaction commits to.
// It covers inputs, outputs and lock time but not the witness.
func (t *Transaction) Digest() ([]byte, error) {
	if err := t.checkShape(); err != nil {
		return nil, err
	}
	size := t.unsignedSize()
	p := codec.NewWriter(size, consts.NetworkSizeLimit)
	t.marshalUnsigned(p)
	if err := p.Err(); err != nil {
		return nil, err
	}
	return hashing.ComputeHash256(p.Bytes()), nil
}

func (t *Transaction) Bytes() ([]byte, error) {
	if err := t.checkShape(); err != nil {
		return nil, err
	}
	size := t.Size()
	p := codec.NewWriter(size, consts.NetworkSizeLimit)
	t.Marshal(p)
	return p.Bytes(), p.Err()
}

// ID is the hash of the full serialization, witness included.
func (t *Transaction) ID() (ids.ID, error) {
	b, err := t.Bytes()
	if err != nil {
		return ids.Empty, err
	}
	return hashing.ComputeHash256Array(b), nil
}

// checkShape rejects transactions that cannot be serialized: too many
// elements, or nil inputs, outputs or signatures.
func (t *Transaction) checkShape() error {
	if len(t.Inputs) > MaxInputs {
		return fmt.Errorf("%w: %d inputs", codec.ErrTooManyItems, len(t.Inputs))
	}
	if len(t.Outputs) > MaxOutputs {
		return fmt.Errorf("%w: %d outputs", codec.ErrTooManyItems, len(t.Outputs))
	}
	for i, in := range t.Inputs {
		if in == nil || in.Spent == nil {
			return fmt.Errorf("%w: input %d carries no spent output", ErrMalformedTransaction, i)
		}
	}
	for i, out := range t.Outputs {
		if out == nil {
			return fmt.Errorf("%w: output %d is nil", ErrMalformedTransaction, i)
		}
	}
	if t.Witness != nil && t.Witness.Evidence != nil {
		for i, sig := range t.Witness.Evidence.Signatures {
			if sig == nil {
				return fmt.Errorf("%w: signature %d is nil", ErrMalformedTransaction, i)
			}
		}
	}
	return nil
}

// WithWitness returns a copy of [t] carrying [w]. The receiver is left
// untouched.
func (t *Transaction) WithWitness(w *Witness) *Transaction {
	inputs := make([]*Input, len(t.Inputs))
	copy(inputs, t.Inputs)
	outputs := make([]*Output, len(t.Outputs))
	copy(outputs, t.Outputs)
	return &Transaction{
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: t.LockTime,
		Witness:  w,
	}
}

// ValueIn sums the value of every spent output.
func (t *Transaction) ValueIn() (uint64, error) {
	var (
		total uint64
		err   error
	)
	for _, in := range t.Inputs {
		total, err = math.Add64(total, in.Spent.Value)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// ValueOut sums the value of every output.
func (t *Transaction) ValueOut() (uint64, error) {
	var (
		total uint64
		err   error
	)
	for _, out := range t.Outputs {
		total, err = math.Add64(total, out.Value)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

func UnmarshalTx(p *codec.Packer) (*Transaction, error) {
	var t Transaction
	numInputs := int(p.UnpackByte())
	if numInputs > MaxInputs {
		return nil, fmt.Errorf("%w: %d inputs", codec.ErrTooManyItems, numInputs)
	}
	for i := 0; i < numInputs; i++ {
		in, err := UnmarshalInput(p)
		if err != nil {
			return nil, fmt.Errorf("%w: could not unmarshal input %d", err, i)
		}
		t.Inputs = append(t.Inputs, in)
	}
	numOutputs := int(p.UnpackByte())
	if numOutputs > MaxOutputs {
		return nil, fmt.Errorf("%w: %d outputs", codec.ErrTooManyItems, numOutputs)
	}
	for i := 0; i < numOutputs; i++ {
		out, err := UnmarshalOutput(p)
		if err != nil {
			return nil, fmt.Errorf("%w: could not unmarshal output %d", err, i)
		}
		t.Outputs = append(t.Outputs, out)
	}
	t.LockTime = p.UnpackUint64(false)
	if p.UnpackBool() {
		w, err := UnmarshalWitness(p)
		if err != nil {
			return nil, fmt.Errorf("%w: could not unmarshal witness", err)
		}
		t.Witness = w
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseTx decodes a transaction from its full serialization.
func ParseTx(b []byte) (*Transaction, error) {
	p := codec.NewReader(b, consts.NetworkSizeLimit)
	tx, err := UnmarshalTx(p)
	if err != nil {
		return nil, err
	}
	p.Done()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return tx, nil
}
