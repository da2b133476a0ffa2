package sim

import (
	"math/rand"
	"testing"
	"time"
)

func TestUnplannedDowntimeRateGrowsWithAge(t *testing.T) {
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	fresh := &MachineState{LastMaintenance: day.AddDate(0, 0, -5)}
	worn := &MachineState{LastMaintenance: day.AddDate(0, 0, -20)}
	overdue := &MachineState{LastMaintenance: day.AddDate(0, 0, -60)}

	base := 0.05
	rFresh := UnplannedDowntimeRate(base, fresh, false, day)
	rWorn := UnplannedDowntimeRate(base, worn, false, day)
	rOverdue := UnplannedDowntimeRate(base, overdue, false, day)

	if rFresh != base {
		t.Errorf("freshly maintained machine should be at base rate, got %f", rFresh)
	}
	if rWorn <= rFresh {
		t.Errorf("worn machine rate %f should exceed fresh rate %f", rWorn, rFresh)
	}
	if rOverdue <= rWorn {
		t.Errorf("overdue machine rate %f should exceed worn rate %f", rOverdue, rWorn)
	}
	if rOverdue > 0.5 {
		t.Errorf("rate exceeds hard cap: %f", rOverdue)
	}
}

func TestBottleneckDoublesDowntimeRate(t *testing.T) {
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	m := &MachineState{LastMaintenance: day.AddDate(0, 0, -5)}
	plain := UnplannedDowntimeRate(0.05, m, false, day)
	bottleneck := UnplannedDowntimeRate(0.05, m, true, day)
	if bottleneck != plain*2 {
		t.Errorf("bottleneck rate %f, want %f", bottleneck, plain*2)
	}
}

func TestEfficiencyDecayAndReset(t *testing.T) {
	eff := maxEfficiency
	for i := 0; i < 500; i++ {
		next := DecayEfficiency(eff)
		if next > eff {
			t.Fatal("efficiency increased without maintenance")
		}
		eff = next
	}
	if eff < minEfficiency {
		t.Fatalf("efficiency %f fell below floor", eff)
	}

	if got := ResetEfficiency(0.7, true); got != maxEfficiency {
		t.Errorf("full maintenance should restore max efficiency, got %f", got)
	}
	partial := ResetEfficiency(0.7, false)
	if partial <= 0.7 || partial >= maxEfficiency {
		t.Errorf("quick service should partially recover, got %f", partial)
	}
}

func TestDefectRateModifiers(t *testing.T) {
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC) // 周三
	healthy := &MachineState{Efficiency: maxEfficiency}
	degraded := &MachineState{Efficiency: minEfficiency}

	base := 0.03
	if got := DefectRate(base, healthy, 1.0, false, day); got != base {
		t.Errorf("healthy machine on baseline shift should stay at base, got %f", got)
	}
	if DefectRate(base, degraded, 1.0, false, day) <= base {
		t.Error("degraded machine should raise the defect rate")
	}
	if DefectRate(base, healthy, 0.8, false, day) <= base {
		t.Error("low shift multiplier should raise the defect rate")
	}
	flagged := DefectRate(base, healthy, 1.0, true, day)
	if flagged != base*2.5 {
		t.Errorf("flagged lot should multiply rate by 2.5, got %f", flagged)
	}
	if DefectRate(1.0, degraded, 0.5, true, day) > 0.5 {
		t.Error("defect rate exceeds hard cap")
	}
}

func TestCompletionRateBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		rate := CompletionRate(0.8+0.4*rnd.Float64(), rnd.Float64(), rnd)
		if rate < 0.55 || rate > 1.0 {
			t.Fatalf("completion rate %f out of [0.55, 1.0]", rate)
		}
	}
}

func TestUtilizationTargetWeekendDip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	// 三月中旬避开月初月末冲量
	wednesday := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	sumWeekday, sumWeekend := 0.0, 0.0
	for i := 0; i < 200; i++ {
		sumWeekday += UtilizationTarget(wednesday, 0.75, 0.45, rnd)
		sumWeekend += UtilizationTarget(saturday, 0.75, 0.45, rnd)
	}
	if sumWeekend >= sumWeekday {
		t.Errorf("weekend utilization %f should average below weekday %f", sumWeekend/200, sumWeekday/200)
	}
}

func TestSeasonalFactor(t *testing.T) {
	if SeasonalFactor(time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)) != 0.9 {
		t.Error("december should contract capacity")
	}
	if SeasonalFactor(time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)) != 1.1 {
		t.Error("july should expand capacity")
	}
	if SeasonalFactor(time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)) != 1.0 {
		t.Error("april should be neutral")
	}
}

func TestDayFactorStable(t *testing.T) {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	a := DayFactor(day)
	b := DayFactor(day)
	if a != b {
		t.Fatal("day factor must be a pure function of the day")
	}
	if a < 0 || a >= 1 {
		t.Fatalf("day factor %f out of [0,1)", a)
	}
}
