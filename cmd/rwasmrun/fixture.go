package main

import "github.com/fluentlabs-xyz/fluentbase-core/rwasm"

// buildAddModule assembles the smallest useful rwasm program: an entry
// function with no parameters that pushes two i64 constants, adds them,
// and returns the sum as its single declared result. It exists so
// rwasmrun has something to execute without depending on an upstream
// rwasm compiler, which is out of scope for this module (see
// fluentbase.ModuleResolver's doc comment).
func buildAddModule(a, b uint64) (*rwasm.Module, error) {
	builder := rwasm.NewBuilder()
	builder.SetMemory(1, 1)
	code := rwasm.Code{
		{Op: rwasm.OpI64Const, Imm: a},
		{Op: rwasm.OpI64Const, Imm: b},
		{Op: rwasm.OpI64Add},
		{Op: rwasm.OpReturn, DropKeep: rwasm.DropKeep{Drop: 0, Keep: 1}},
	}
	builder.AddFunc(rwasm.FuncType{Params: 0, Results: 1}, 0, code)
	return builder.Finish(0)
}
