package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// RNG 由单一种子派生的全部随机源。主数据用固定流，时序数据按日派生独立流，
// 因此某一天的抽样与窗口内其它天的数量无关，refresh 可与扩窗 create 严格对齐。
type RNG struct {
	seed int64
}

func NewRNG(seed int64) *RNG {
	return &RNG{seed: seed}
}

// Seed 返回底层种子
func (r *RNG) Seed() int64 {
	return r.seed
}

// Reference 主数据生成流
func (r *RNG) Reference() *rand.Rand {
	return rand.New(rand.NewSource(r.seed))
}

// Faker 主数据假名流，和 Reference 一样只在参考数据阶段使用
func (r *RNG) Faker() *gofakeit.Faker {
	return gofakeit.New(uint64(r.seed))
}

// Day 某个模拟日的独立流
func (r *RNG) Day(day time.Time) *rand.Rand {
	ordinal := day.Unix() / 86400
	return rand.New(rand.NewSource(int64(splitmix64(uint64(r.seed) ^ uint64(ordinal)*0x9E3779B97F4A7C15))))
}

// splitmix64 把种子和日序混合成均匀分布的流种子
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// LotNumber 生成形如 LOT-xxxxxxxx-MMDD 的批号。
// uuid 从传入的流读取随机字节，保持整体可复现
func LotNumber(rnd *rand.Rand, day time.Time) string {
	id, err := uuid.NewRandomFromReader(rnd)
	if err != nil {
		// rand.Rand.Read 不会失败
		panic(err)
	}
	return fmt.Sprintf("LOT-%s-%s", id.String()[:8], day.Format("0102"))
}

// Midnight 截断到当日零点，模拟时间一律为无时区本地日历
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
