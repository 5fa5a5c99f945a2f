// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import "errors"

var (
	ErrInvalidConfigFormat = errors.New("invalid plan format")
	ErrInvalidPlan         = errors.New("invalid plan")
	ErrInvalidStep         = errors.New("invalid step")
	ErrDuplicateName       = errors.New("duplicate name")
	ErrUnknownKey          = errors.New("unknown key")
	ErrUnknownInstance     = errors.New("unknown instance")
	ErrInstanceTerminated  = errors.New("instance terminated")
	ErrUnknownPolicy       = errors.New("unknown policy")
	ErrUnexpectedResult    = errors.New("unexpected result")
)
