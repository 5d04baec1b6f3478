package fluentbase

import (
	"github.com/fluentlabs-xyz/fluentbase-core/evmtypes"
	"github.com/fluentlabs-xyz/fluentbase-core/journal"
	"github.com/fluentlabs-xyz/fluentbase-core/rwasm"
)

// ModuleNotFound is returned by a ModuleResolver when it has no compiled
// rwasm.Module for the requested code representation. Decoding a raw
// rwasm binary into a *rwasm.Module is the ABI-encoder concern spec.md §9
// excludes from core scope; ModuleResolver is the pluggable seam a real
// embedder fills with an actual decoder, the way a production build would
// wire in its own bytecode-to-Module compiler.
var ModuleNotFound = evmtypes.ConstError("fluentbase: module not found")

// ModuleResolver turns a journal-stored code representation into the
// compiled rwasm.Module the driver needs to run it, used both for an
// already-deployed account's code and for a CREATE/CREATE2 interruption's
// raw init code.
type ModuleResolver interface {
	Resolve(code journal.CodeRepresentation) (*rwasm.Module, error)
}

// ModuleRegistry is a trivial hash-keyed ModuleResolver: the embedder (or a
// test) registers compiled modules up front, keyed by the Keccak-256 of
// the bytes that represent them in the journal — the same resolution seam
// a code-hash-to-compiled-image cache would use, without the
// recompilation path.
type ModuleRegistry struct {
	modules map[evmtypes.Hash]*rwasm.Module
}

func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{modules: make(map[evmtypes.Hash]*rwasm.Module)}
}

// Register makes mod resolvable by the Keccak-256 hash of codeBytes — the
// same bytes the embedder stores as a journal.RwasmModule.Bytes or passes
// as CREATE/CREATE2 init code.
func (r *ModuleRegistry) Register(codeBytes []byte, mod *rwasm.Module) {
	r.modules[rwasm.Keccak256(codeBytes)] = mod
}

func (r *ModuleRegistry) Resolve(code journal.CodeRepresentation) (*rwasm.Module, error) {
	switch c := code.(type) {
	case journal.RwasmModule:
		if m, ok := r.modules[rwasm.Keccak256(c.Bytes)]; ok {
			return m, nil
		}
	case journal.OwnableAccount:
		if m, ok := r.modules[rwasm.Keccak256(c.Metadata)]; ok {
			return m, nil
		}
	}
	return nil, ModuleNotFound
}

// ResolveInitCode resolves raw CREATE/CREATE2 init code the same way
// Resolve resolves a deployed account's code, keeping the lookup key space
// (Keccak-256 of the code bytes) identical for both cases.
func (r *ModuleRegistry) ResolveInitCode(initcode []byte) (*rwasm.Module, error) {
	if m, ok := r.modules[rwasm.Keccak256(initcode)]; ok {
		return m, nil
	}
	return nil, ModuleNotFound
}
