package domain

import "errors"

// ErrInvalidContract indicates a contract construction failure, e.g. no
// mandatory slot or a non-positive minimum length on a mandatory slot.
var ErrInvalidContract = errors.New("invalid episode contract")

// ErrInvalidRange indicates a malformed episode range.
var ErrInvalidRange = errors.New("invalid episode range")

// ErrInvalidBatch indicates a malformed batch declaration.
var ErrInvalidBatch = errors.New("invalid batch")

// ErrEmptyAssembly indicates assembly was asked to produce an episode from an
// empty slot output. Assembly must never silently produce empty content.
var ErrEmptyAssembly = errors.New("cannot assemble episode from empty slot output")

// ErrBatchIntegrity indicates a programming-invariant breach, e.g. an episode
// marked complete without passing validation. The batch must abort loudly.
var ErrBatchIntegrity = errors.New("batch integrity violation")
