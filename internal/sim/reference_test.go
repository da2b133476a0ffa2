package sim

import (
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bitfantasy/mes-sim/internal/config"
	"github.com/bitfantasy/mes-sim/internal/model/entity"
)

var testAnchor = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

func loadPools(t *testing.T) *config.Pools {
	t.Helper()
	pools, err := config.LoadPools("../../configs/data_pools.yaml")
	if err != nil {
		t.Fatalf("load value pools: %v", err)
	}
	return pools
}

func buildRef(t *testing.T, seed int64) *ReferenceSet {
	t.Helper()
	pools := loadPools(t)
	ref, err := BuildReference(pools, NewRNG(seed), testAnchor, zap.NewNop())
	if err != nil {
		t.Fatalf("build reference: %v", err)
	}
	return ref
}

func TestBuildReferenceDeterminism(t *testing.T) {
	a := buildRef(t, 12345)
	b := buildRef(t, 12345)

	if !reflect.DeepEqual(a.Products, b.Products) {
		t.Error("products differ between runs with the same seed")
	}
	if !reflect.DeepEqual(a.Items, b.Items) {
		t.Error("inventory differs between runs with the same seed")
	}
	if !reflect.DeepEqual(a.Machines, b.Machines) {
		t.Error("machines differ between runs with the same seed")
	}
	if !reflect.DeepEqual(a.BOM, b.BOM) {
		t.Error("bom differs between runs with the same seed")
	}
	if !reflect.DeepEqual(a.Employees, b.Employees) {
		t.Error("employees differ between runs with the same seed")
	}
}

func TestBuildReferenceSeedSensitivity(t *testing.T) {
	a := buildRef(t, 1)
	b := buildRef(t, 2)
	if reflect.DeepEqual(a.Machines, b.Machines) {
		t.Error("different seeds produced identical machines")
	}
}

func TestBOMComponentsExist(t *testing.T) {
	ref := buildRef(t, 12345)
	items := map[int]bool{}
	for _, it := range ref.Items {
		items[it.ItemID] = true
	}
	for _, row := range ref.BOM {
		if !items[row.ComponentID] {
			t.Errorf("bom row %d references unknown item %d", row.BOMID, row.ComponentID)
		}
		if row.Quantity <= 0 {
			t.Errorf("bom row %d has non-positive quantity %f", row.BOMID, row.Quantity)
		}
	}
}

func TestBOMAcyclic(t *testing.T) {
	ref := buildRef(t, 12345)

	// 组件名对应产品时构成产品间依赖边
	itemName := map[int]string{}
	for _, it := range ref.Items {
		itemName[it.ItemID] = it.Name
	}
	adj := map[int][]int{}
	for _, row := range ref.BOM {
		if p := ref.ProductByName(itemName[row.ComponentID]); p != nil {
			adj[row.ProductID] = append(adj[row.ProductID], p.ProductID)
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[int]int{}
	var visit func(id int) bool
	visit = func(id int) bool {
		color[id] = gray
		for _, next := range adj[id] {
			switch color[next] {
			case gray:
				return false
			case white:
				if !visit(next) {
					return false
				}
			}
		}
		color[id] = black
		return true
	}
	for _, p := range ref.Products {
		if color[p.ProductID] == white && !visit(p.ProductID) {
			t.Fatalf("bom contains a cycle reachable from product %d", p.ProductID)
		}
	}
}

func TestMachinesBelongToWorkCenters(t *testing.T) {
	ref := buildRef(t, 12345)
	wcs := map[int]bool{}
	for _, wc := range ref.WorkCenters {
		wcs[wc.WorkCenterID] = true
	}
	for _, m := range ref.Machines {
		if !wcs[m.WorkCenterID] {
			t.Errorf("machine %d assigned to unknown work center %d", m.MachineID, m.WorkCenterID)
		}
		if !m.NextMaintenanceDate.After(m.LastMaintenanceDate) {
			t.Errorf("machine %d next maintenance not after last", m.MachineID)
		}
		if m.EfficiencyFactor < 0.5 || m.EfficiencyFactor > 1 {
			t.Errorf("machine %d efficiency %f out of range", m.MachineID, m.EfficiencyFactor)
		}
	}
}

func TestSingleBottleneck(t *testing.T) {
	ref := buildRef(t, 12345)
	n := 0
	for _, wc := range ref.WorkCenters {
		if wc.IsBottleneck {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected exactly one bottleneck work center, got %d", n)
	}
}

func TestEmployeesOnKnownShifts(t *testing.T) {
	ref := buildRef(t, 12345)
	shifts := map[int]bool{}
	for _, s := range ref.Shifts {
		shifts[s.ShiftID] = true
	}
	roles := map[string]bool{
		entity.RoleOperator: true, entity.RoleTechnician: true,
		entity.RoleQualityControl: true, entity.RoleManager: true, entity.RoleEngineer: true,
	}
	for _, e := range ref.Employees {
		if !shifts[e.ShiftID] {
			t.Errorf("employee %d on unknown shift %d", e.EmployeeID, e.ShiftID)
		}
		if !roles[e.Role] {
			t.Errorf("employee %d has unknown role %q", e.EmployeeID, e.Role)
		}
		if !e.HireDate.Before(testAnchor) {
			t.Errorf("employee %d hired after anchor", e.EmployeeID)
		}
	}
}

func TestLotNumberFormat(t *testing.T) {
	rng := NewRNG(7)
	day := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	lot := LotNumber(rng.Day(day), day)
	if len(lot) != len("LOT-xxxxxxxx-0402") {
		t.Fatalf("unexpected lot number %q", lot)
	}
	if lot[:4] != "LOT-" || lot[len(lot)-4:] != "0402" {
		t.Fatalf("unexpected lot number %q", lot)
	}

	again := LotNumber(NewRNG(7).Day(day), day)
	if lot != again {
		t.Errorf("lot numbers not reproducible: %q vs %q", lot, again)
	}
}
