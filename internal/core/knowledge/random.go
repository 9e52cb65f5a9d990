package knowledge

import "math/rand/v2"

// Rand 隨機來源，*rand.Rand 即滿足此介面。
// 測試時注入固定種子的來源以取得可重現的輸出。
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand 使用 math/rand/v2 的全域來源，可併發使用
var DefaultRand Rand = globalRand{}

// NewSeededRand 建立固定種子的來源，非併發安全
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
