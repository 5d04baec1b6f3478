// Package evmtypes defines the small set of fixed-size primitive types
// shared by the journal and syscall packages: addresses, 256-bit words,
// and the gas/fuel unit. They are kept separate from package rwasm because
// rwasm's own Value type (a 64-bit WebAssembly word) is a different concept
// entirely; conflating the two was a mistake worth avoiding deliberately.
package evmtypes

import "fmt"

// Address is the 160-bit address of an account.
type Address [20]byte

// Hash is a 256-bit cryptographic hash (of code, a block, a log topic, ...).
type Hash [32]byte

// Word is an arbitrary 256-bit value, as found in storage slots.
type Word [32]byte

// Value is a 256-bit amount of native currency.
type Value [32]byte

// Gas is the unit balances, charges and refunds are denominated in.
type Gas int64

// Fuel is the unit the rwasm interpreter meters instruction execution in.
// It is related to Gas by a fixed divisor (see syscall.FuelDenomRate).
type Fuel uint64

// Code is the raw byte-code of a contract, in whichever representation its
// CodeRepresentation variant names.
type Code []byte

func (a Address) String() string {
	return fmt.Sprintf("0x%x", [20]byte(a))
}

func (h Hash) String() string {
	return fmt.Sprintf("0x%x", [32]byte(h))
}

// ConstError is a comparable, const-declarable error, matching the pattern
// used throughout the teacher's interpreter package so that callers can
// compare sentinel errors with == instead of errors.Is.
type ConstError string

func (e ConstError) Error() string { return string(e) }
