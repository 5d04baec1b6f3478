package rwasm

// Limits holds the interpreter's resource bounds: stack depth, recursion
// depth, memory pages and table size. Only MaxRecursionDepth is applied
// (as each frame's call-stack cap); the value stack always has StackSize
// slots, and memory and table growth are bounded by the module's own
// MemoryMax and TableMax, not by MaxMemoryPages or MaxTableSize. It is a
// constructor parameter of
// Store, not a package constant — the same discipline spec.md §9 demands
// for the fuel/gas cost schedule applies here, since an embedder running
// rwasm inside different resource budgets (a CLI smoke test vs. a
// production transaction executor) needs different limits.
type Limits struct {
	MaxStackDepth     int
	MaxRecursionDepth int
	MaxMemoryPages    uint32
	MaxTableSize      uint32
}

// DefaultLimits returns a conservative limit set suitable for tests and
// the cmd/rwasmrun smoke-test CLI.
func DefaultLimits() Limits {
	return Limits{
		MaxStackDepth:     StackSize,
		MaxRecursionDepth: 1024,
		MaxMemoryPages:    256,
		MaxTableSize:      4096,
	}
}
