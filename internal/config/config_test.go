package config

import (
	"testing"

	"github.com/bitfantasy/mes-sim/internal/model/entity"
)

const poolsFixture = "../../configs/data_pools.yaml"

func loadFixture(t *testing.T) *Pools {
	t.Helper()
	pools, err := LoadPools(poolsFixture)
	if err != nil {
		t.Fatalf("load value pools: %v", err)
	}
	return pools
}

func TestLoadPools(t *testing.T) {
	pools := loadFixture(t)

	if len(pools.Products) == 0 {
		t.Fatal("expected products in pool")
	}
	if len(pools.Suppliers) == 0 {
		t.Fatal("expected suppliers in pool")
	}
	if len(pools.WorkCenters) == 0 {
		t.Fatal("expected work centers in pool")
	}
	if len(pools.Shifts) == 0 {
		t.Fatal("expected shifts in pool")
	}

	levels := map[string]bool{}
	for _, p := range pools.Products {
		levels[p.Level] = true
	}
	for _, level := range []string{entity.LevelRawMaterial, entity.LevelComponent, entity.LevelSubassembly, entity.LevelFinishedProduct} {
		if !levels[level] {
			t.Errorf("product catalog missing level %q", level)
		}
	}
}

func TestLoadPoolsMissingFile(t *testing.T) {
	if _, err := LoadPools("does-not-exist.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPoolsValidate(t *testing.T) {
	pools := loadFixture(t)
	if err := pools.Validate(); err != nil {
		t.Fatalf("fixture should validate: %v", err)
	}

	broken := *pools
	broken.Products = nil
	if err := broken.Validate(); err == nil {
		t.Error("expected error for empty product catalog")
	}

	broken = *pools
	broken.Dist.WeekdayUtilization = 1.5
	if err := broken.Validate(); err == nil {
		t.Error("expected error for utilization above 1")
	}

	broken = *pools
	broken.Dist.EmployeeCount = 0
	if err := broken.Validate(); err == nil {
		t.Error("expected error for zero employee count")
	}
}

func TestParamsValidate(t *testing.T) {
	good := Params{
		LookbackDays:  7,
		LookaheadDays: 2,
		Mode:          entity.ModeAuto,
		PoolsPath:     poolsFixture,
		StorePath:     "test.db",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"negative lookback", func(p *Params) { p.LookbackDays = -1 }},
		{"negative lookahead", func(p *Params) { p.LookaheadDays = -1 }},
		{"bad mode", func(p *Params) { p.Mode = "rebuild" }},
		{"missing pools path", func(p *Params) { p.PoolsPath = "" }},
		{"missing store path", func(p *Params) { p.StorePath = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := good
			tc.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
