package rwasm

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/sha3"

	"github.com/fluentlabs-xyz/fluentbase-core/evmtypes"
)

// Keccak256 hashes data with the pure-Go golang.org/x/crypto/sha3
// implementation. The teacher's keccak.go additionally offers a cgo fast
// path; this module has no C keccak implementation to bind to (rwasm has
// no FFI surface at all — see DESIGN.md), so only the portable path is
// carried over.
func Keccak256(data ...[]byte) evmtypes.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out evmtypes.Hash
	h.Sum(out[:0])
	return out
}

// hashCacheCapacity bounds the doubly-linked-list hash cache below,
// matching the teacher's hash_cache.go choice of a small fixed bound
// rather than an unbounded map (code hashing is hot enough in CODE_HASH
// and CREATE2 address derivation to be worth memoizing, but the working
// set of distinct inputs in one transaction is small).
const hashCacheCapacity = 256

// hashCache memoizes Keccak-256 of 32- and 64-byte inputs — the two
// shapes that dominate CREATE2 address derivation (`keccak256(0xff ++
// sender ++ salt ++ initcode_hash)` collapses to a 32/64-byte hash of a
// fixed-shape buffer once initcode is itself pre-hashed) and CODE_HASH.
// Backed by golang-lru/v2 for a capacity-bounded recency policy.
type hashCache struct {
	mu    sync.Mutex
	cache *lru.Cache[[64]byte, evmtypes.Hash]
}

func newHashCache() *hashCache {
	c, _ := lru.New[[64]byte, evmtypes.Hash](hashCacheCapacity)
	return &hashCache{cache: c}
}

func (h *hashCache) hash64(buf [64]byte, n int) evmtypes.Hash {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.cache.Get(buf); ok {
		return v
	}
	v := Keccak256(buf[:n])
	h.cache.Add(buf, v)
	return v
}

// moduleCache memoizes compiled Module images by code hash, avoiding
// recompilation/revalidation every time the same code hash is loaded
// within or across transactions.
type moduleCache struct {
	cache *lru.Cache[evmtypes.Hash, *Module]
}

func newModuleCache(capacity int) *moduleCache {
	c, _ := lru.New[evmtypes.Hash, *Module](capacity)
	return &moduleCache{cache: c}
}

func (m *moduleCache) Get(hash evmtypes.Hash) (*Module, bool) {
	return m.cache.Get(hash)
}

func (m *moduleCache) Put(hash evmtypes.Hash, mod *Module) {
	m.cache.Add(hash, mod)
}
