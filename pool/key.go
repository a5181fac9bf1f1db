package pool

import (
	"math"
	"strconv"
)

// keyInt, keyIdx, and keyIdx2 build the structural interning keys used by
// Pool.Index. Keeping key construction centralized (rather than
// fmt.Sprintf-ing ad hoc in every Entry.key()) keeps allocation down on the
// hot insert-or-find path.
func keyInt(prefix string, v int64) string {
	return prefix + ":" + strconv.FormatInt(v, 16)
}

func keyIdx(prefix string, idx uint16) string {
	return prefix + ":" + strconv.FormatUint(uint64(idx), 16)
}

func keyIdx2(prefix string, a, b uint16) string {
	return prefix + ":" + strconv.FormatUint(uint64(a), 16) + ":" + strconv.FormatUint(uint64(b), 16)
}

func floatBits(f float32) uint32  { return math.Float32bits(f) }
func doubleBits(f float64) uint64 { return math.Float64bits(f) }
