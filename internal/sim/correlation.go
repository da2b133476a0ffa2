package sim

import (
	"math"
	"math/rand"
	"time"
)

// 关联引擎：把当前显式状态映射为调整后的概率/速率。
// 全部为纯函数，除入参外不触碰任何可变状态。

// 效率因子边界
const (
	minEfficiency  = 0.60
	maxEfficiency  = 0.98
	dailyDecayRate = 0.002 // 每日衰减
)

// UtilizationTarget 工作中心当日目标利用率：周内/周末曲线加月初月末冲量
func UtilizationTarget(day time.Time, weekday, weekend float64, rnd *rand.Rand) float64 {
	base := weekday
	if isWeekend(day) {
		base = weekend
	}
	switch day.Weekday() {
	case time.Monday, time.Tuesday:
		base *= 1.1
	case time.Friday:
		base *= 0.9
	}
	// 月初下新单、月末赶交付
	if d := day.Day(); d <= 5 || d >= 25 {
		base *= 1.05
	}
	base *= SeasonalFactor(day)
	base *= 0.9 + 0.2*rnd.Float64()
	return clamp01(base)
}

// SeasonalFactor 季节产能系数：冬季收缩，夏季扩张
func SeasonalFactor(day time.Time) float64 {
	switch day.Month() {
	case time.November, time.December, time.January:
		return 0.9
	case time.June, time.July, time.August:
		return 1.1
	default:
		return 1.0
	}
}

// UnplannedDowntimeRate 非计划停机概率，随距上次保养的时长上升，瓶颈机台翻倍
func UnplannedDowntimeRate(base float64, m *MachineState, bottleneck bool, day time.Time) float64 {
	hours := m.HoursSinceMaintenance(day)
	days := hours / 24
	var rate float64
	switch {
	case days < 15:
		rate = base
	case days < 30:
		rate = base * 2.5
	default:
		rate = math.Min(0.15, base*2.5+(days-30)*0.005)
	}
	if bottleneck {
		rate *= 2
	}
	return math.Min(0.5, rate)
}

// DecayEfficiency 每日效率衰减，保养间单调下降
func DecayEfficiency(eff float64) float64 {
	return math.Max(minEfficiency, eff-dailyDecayRate)
}

// ResetEfficiency 保养复位：大保养完全复位，快修只收回一半损耗
func ResetEfficiency(eff float64, full bool) float64 {
	if full {
		return maxEfficiency
	}
	return math.Min(maxEfficiency, eff+(maxEfficiency-eff)*0.5)
}

// MachinePerformance 表现率：效率因子乘以当日产出相对名义产能的比值
func MachinePerformance(m *MachineState, throughputRatio float64) float64 {
	perf := m.Efficiency * (0.85 + 0.15*clamp01(throughputRatio))
	return math.Min(0.998, perf)
}

// MachineQuality 当日质量率：效率低则下探，带少量日间抖动
func MachineQuality(m *MachineState, rnd *rand.Rand) float64 {
	q := 0.92 + 0.08*(m.Efficiency-minEfficiency)/(maxEfficiency-minEfficiency)
	q *= 0.99 + 0.01*rnd.Float64()
	return math.Min(0.999, q)
}

// DefectRate 缺陷率：机台效率低、班次绩效低于基线、来料批次被标记时抬升，
// 周一周五偏高，周末略低
func DefectRate(base float64, m *MachineState, shiftMultiplier float64, lotFlagged bool, day time.Time) float64 {
	rate := base
	rate *= 1 + (maxEfficiency-m.Efficiency)*2
	if shiftMultiplier < 1.0 {
		rate *= 1 + (1.0-shiftMultiplier)*1.5
	}
	if lotFlagged {
		rate *= 2.5
	}
	switch day.Weekday() {
	case time.Monday:
		rate *= 1.15
	case time.Friday:
		rate *= 1.10
	case time.Saturday, time.Sunday:
		rate *= 0.9
	}
	return math.Min(0.5, rate)
}

// ConsumptionVariance 物料消耗方差。机台越老化尾部越重
func ConsumptionVariance(base float64, m *MachineState, rnd *rand.Rand) float64 {
	v := (rnd.Float64()*2 - 1) * base
	degradation := (maxEfficiency - m.Efficiency) / (maxEfficiency - minEfficiency)
	if rnd.Float64() < degradation*0.3 {
		v *= 1 + degradation*2
	}
	return v
}

// CompletionRate 完工率：班次绩效带、日状态系数、单均波动
func CompletionRate(shiftMultiplier float64, dayFactor float64, rnd *rand.Rand) float64 {
	base := 0.70 + 0.25*shiftMultiplier*(0.9+0.1*rnd.Float64())
	var dayMod float64
	switch {
	case dayFactor < 0.15: // 状态差的日子
		dayMod = 0.85 + 0.10*rnd.Float64()
	case dayFactor < 0.35:
		dayMod = 0.92 + 0.06*rnd.Float64()
	default:
		dayMod = 0.97 + 0.05*rnd.Float64()
	}
	rate := base * dayMod * (0.90 + 0.15*rnd.Float64())
	return math.Min(1.0, math.Max(0.55, rate))
}

// DayFactor 日状态：同一天对所有工单一致的确定性杂凑
func DayFactor(day time.Time) float64 {
	return float64((day.Unix()/86400*7919)%100) / 100.0
}

func isWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
