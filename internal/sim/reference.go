package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"github.com/bitfantasy/mes-sim/internal/config"
	"github.com/bitfantasy/mes-sim/internal/model/entity"
)

// BOM 成环时的重抽上限
const bomRetryLimit = 3

// ReferenceError 参考数据生成失败，终止本次运行
type ReferenceError struct {
	Stage string
	Err   error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("reference generation failed at %s: %v", e.Stage, e.Err)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// ReferenceSet 内存中的参考实体图，交给时序模拟引擎调度
type ReferenceSet struct {
	Suppliers   []entity.Supplier
	Products    []entity.Product
	Items       []entity.InventoryItem
	BOM         []entity.BillOfMaterial
	WorkCenters []entity.WorkCenter
	Machines    []entity.Machine
	Shifts      []entity.Shift
	Employees   []entity.Employee

	productByName map[string]int // name -> Products 下标
	itemByName    map[string]int
	bomByProduct  map[int][]int // ProductID -> BOM 下标
	machinesByWC  map[int][]int
}

// BOMFor 产品的 BOM 行
func (r *ReferenceSet) BOMFor(productID int) []*entity.BillOfMaterial {
	idxs := r.bomByProduct[productID]
	rows := make([]*entity.BillOfMaterial, len(idxs))
	for i, idx := range idxs {
		rows[i] = &r.BOM[idx]
	}
	return rows
}

// MachinesIn 工作中心拥有的机台
func (r *ReferenceSet) MachinesIn(workCenterID int) []*entity.Machine {
	idxs := r.machinesByWC[workCenterID]
	machines := make([]*entity.Machine, len(idxs))
	for i, idx := range idxs {
		machines[i] = &r.Machines[idx]
	}
	return machines
}

// ProductByName 按名取产品，不存在返回 nil
func (r *ReferenceSet) ProductByName(name string) *entity.Product {
	if idx, ok := r.productByName[name]; ok {
		return &r.Products[idx]
	}
	return nil
}

// ItemByName 按名取库存物料，不存在返回 nil
func (r *ReferenceSet) ItemByName(name string) *entity.InventoryItem {
	if idx, ok := r.itemByName[name]; ok {
		return &r.Items[idx]
	}
	return nil
}

// EmployeesWithRole 指定角色的员工；role 为空返回全部
func (r *ReferenceSet) EmployeesWithRole(role string) []*entity.Employee {
	var out []*entity.Employee
	for i := range r.Employees {
		if role == "" || r.Employees[i].Role == role {
			out = append(out, &r.Employees[i])
		}
	}
	return out
}

// OperatorsOnShift 某班次的操作工，为空则退回该班次全体员工
func (r *ReferenceSet) OperatorsOnShift(shiftID int) []*entity.Employee {
	var out []*entity.Employee
	for i := range r.Employees {
		if r.Employees[i].ShiftID == shiftID && r.Employees[i].Role == entity.RoleOperator {
			out = append(out, &r.Employees[i])
		}
	}
	if len(out) == 0 {
		for i := range r.Employees {
			if r.Employees[i].ShiftID == shiftID {
				out = append(out, &r.Employees[i])
			}
		}
	}
	return out
}

// BuildReference 由取值池确定性地生成全部参考实体。
// 同一种子必然得到相同的参考数据
func BuildReference(pools *config.Pools, rng *RNG, anchor time.Time, log *zap.Logger) (*ReferenceSet, error) {
	rnd := rng.Reference()
	faker := rng.Faker()
	ref := &ReferenceSet{
		productByName: make(map[string]int),
		itemByName:    make(map[string]int),
		bomByProduct:  make(map[int][]int),
		machinesByWC:  make(map[int][]int),
	}

	buildSuppliers(ref, pools, rnd, faker)
	buildProducts(ref, pools, rnd)
	buildInventory(ref, pools, rnd, anchor)
	if err := buildBOM(ref, pools, rnd); err != nil {
		return nil, err
	}
	buildWorkCenters(ref, pools, rnd, anchor, log)
	buildMachines(ref, pools, rnd, anchor)
	buildShifts(ref, pools)
	buildEmployees(ref, pools, rnd, faker, anchor)

	log.Info("reference data built",
		zap.Int("suppliers", len(ref.Suppliers)),
		zap.Int("products", len(ref.Products)),
		zap.Int("inventory_items", len(ref.Items)),
		zap.Int("bom_rows", len(ref.BOM)),
		zap.Int("work_centers", len(ref.WorkCenters)),
		zap.Int("machines", len(ref.Machines)),
		zap.Int("employees", len(ref.Employees)),
	)
	return ref, nil
}

func buildSuppliers(ref *ReferenceSet, pools *config.Pools, rnd *rand.Rand, faker *gofakeit.Faker) {
	for i, sp := range pools.Suppliers {
		ref.Suppliers = append(ref.Suppliers, entity.Supplier{
			SupplierID:       i + 1,
			Name:             sp.Name,
			LeadTime:         sp.LeadTime,
			ReliabilityScore: round2(0.80 + rnd.Float64()*0.19),
			ContactInfo:      fmt.Sprintf("Contact: %s, Email: %s, Phone: %s", faker.Name(), faker.Email(), faker.Phone()),
		})
	}
}

func buildProducts(ref *ReferenceSet, pools *config.Pools, rnd *rand.Rand) {
	costs := costRange(pools, "products")
	for i, pp := range pools.Products {
		var category string
		switch {
		case strings.Contains(pp.Name, "eBike"):
			category = "Electric Bikes"
		case pp.Level == entity.LevelRawMaterial:
			category = entity.MaterialRaw
		case pp.Level == entity.LevelSubassembly:
			category = "Subassemblies"
		case pp.Level == entity.LevelComponent:
			category = "Components"
		default:
			category = "Accessories"
		}

		var costBase float64
		switch pp.Level {
		case entity.LevelFinishedProduct:
			costBase = costs.Min*5 + rnd.Float64()*(costs.Max-costs.Min*5)
		case entity.LevelSubassembly:
			costBase = costs.Min*2 + rnd.Float64()*(costs.Max*0.6-costs.Min*2)
		case entity.LevelComponent:
			costBase = costs.Min + rnd.Float64()*(costs.Max*0.3-costs.Min)
		default:
			costBase = costs.Min*0.1 + rnd.Float64()*costs.Max*0.09
		}

		processTime := processTimeFactor(pp.Level) * (0.8 + rnd.Float64()*0.4)

		p := entity.Product{
			ProductID:           i + 1,
			Name:                pp.Name,
			Description:         pp.Description,
			Category:            category,
			Level:               pp.Level,
			Cost:                round2(costBase),
			StandardProcessTime: round2(processTime),
			IsActive:            rnd.Float64() < 0.95,
		}
		ref.productByName[p.Name] = len(ref.Products)
		ref.Products = append(ref.Products, p)
	}
}

func processTimeFactor(level string) float64 {
	switch level {
	case entity.LevelRawMaterial:
		return 0.5
	case entity.LevelComponent:
		return 1.0
	case entity.LevelSubassembly:
		return 1.5
	case entity.LevelFinishedProduct:
		return 2.5
	default:
		return 1.0
	}
}

func buildInventory(ref *ReferenceSet, pools *config.Pools, rnd *rand.Rand, anchor time.Time) {
	costs := costRange(pools, "components")

	// 产品目录中被用作组件但未列入库存名单的条目也要有库存行，
	// 否则 BOM 的外键悬空
	names := append([]string{}, pools.InventoryNames...)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	var extra []string
	for _, pp := range pools.Products {
		comps := sortedKeys(pp.Components)
		for _, c := range comps {
			if !seen[c] {
				seen[c] = true
				extra = append(extra, c)
			}
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	for i, name := range names {
		category := itemCategory(name)

		var quantity int
		switch category {
		case entity.MaterialRaw:
			quantity = 100 + rnd.Intn(201)
		case entity.MaterialElectronic, entity.MaterialMechanical:
			quantity = 80 + rnd.Intn(121)
		case entity.MaterialAssembly:
			quantity = 50 + rnd.Intn(101)
		default:
			quantity = 40 + rnd.Intn(81)
		}

		// 库存健康度分层：多数充裕，少数吃紧
		var reorder int
		switch pick := rnd.Float64(); {
		case pick < 0.85:
			reorder = int(float64(quantity) * (0.05 + rnd.Float64()*0.10))
		case pick < 0.97:
			reorder = int(float64(quantity) * (0.15 + rnd.Float64()*0.10))
		default:
			reorder = int(float64(quantity) * (0.40 + rnd.Float64()*0.20))
		}
		if reorder < 1 {
			reorder = 1
		}

		leadTime := int(pools.LeadTimeRange.Min) + rnd.Intn(int(pools.LeadTimeRange.Max-pools.LeadTimeRange.Min)+1)
		supplier := ref.Suppliers[rnd.Intn(len(ref.Suppliers))]

		location := "Warehouse"
		if len(pools.StorageLocations) > 0 {
			location = pools.StorageLocations[rnd.Intn(len(pools.StorageLocations))]
		}

		it := entity.InventoryItem{
			ItemID:           i + 1,
			Name:             name,
			Category:         category,
			Quantity:         quantity,
			ReorderLevel:     reorder,
			SupplierID:       supplier.SupplierID,
			LeadTime:         leadTime,
			Cost:             round2(costs.Min + rnd.Float64()*(costs.Max-costs.Min)),
			LotNumber:        LotNumber(rnd, anchor),
			Location:         location,
			LastReceivedDate: anchor.AddDate(0, 0, -(1 + rnd.Intn(90))),
		}
		ref.itemByName[name] = len(ref.Items)
		ref.Items = append(ref.Items, it)
	}
}

func itemCategory(name string) string {
	lower := strings.ToLower(name)
	switch {
	case containsAny(lower, "aluminum", "steel", "rubber", "tire", "tubing", "padding"):
		return entity.MaterialRaw
	case containsAny(lower, "circuit", "cell", "motor", "electronic", "microcontroller", "sensor"):
		return entity.MaterialElectronic
	case containsAny(lower, "bolt", "bearing", "spring", "cog", "chain", "spoke", "cable"):
		return entity.MaterialMechanical
	case containsAny(lower, "assembly", "bracket", "casing"):
		return entity.MaterialAssembly
	case containsAny(lower, "oil", "fluid"):
		return entity.MaterialMRO
	default:
		return entity.MaterialMechanical
	}
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// buildBOM 逐边加入并做增量环检测。
// 配置显式声明的边成环直接失败；随机补齐的默认组件成环则换一个重抽
func buildBOM(ref *ReferenceSet, pools *config.Pools, rnd *rand.Rand) error {
	adj := make(map[int][]int) // ProductID -> 下游组件对应的 ProductID

	addRow := func(productID, componentID int, qty, scrap float64) {
		row := entity.BillOfMaterial{
			BOMID:       len(ref.BOM) + 1,
			ProductID:   productID,
			ComponentID: componentID,
			Quantity:    qty,
			ScrapFactor: round2(scrap),
		}
		ref.bomByProduct[productID] = append(ref.bomByProduct[productID], len(ref.BOM))
		ref.BOM = append(ref.BOM, row)
	}

	componentProductID := func(itemName string) (int, bool) {
		if idx, ok := ref.productByName[itemName]; ok {
			return ref.Products[idx].ProductID, true
		}
		return 0, false
	}

	for pi := range ref.Products {
		p := &ref.Products[pi]
		pool := pools.Products[pi]

		comps := sortedKeys(pool.Components)
		for _, compName := range comps {
			itemIdx, ok := ref.itemByName[compName]
			if !ok {
				return &ReferenceError{Stage: "bom", Err: fmt.Errorf("product %q references unknown component %q", p.Name, compName)}
			}
			item := &ref.Items[itemIdx]

			if cpID, isProduct := componentProductID(compName); isProduct {
				if cpID == p.ProductID || reachable(adj, cpID, p.ProductID) {
					return &ReferenceError{Stage: "bom", Err: fmt.Errorf("component %q would make product %q consume itself", compName, p.Name)}
				}
				adj[p.ProductID] = append(adj[p.ProductID], cpID)
			}

			scrap := 0.0 + rnd.Float64()*0.05
			if itemCategory(compName) == entity.MaterialRaw {
				scrap = 0.05 + rnd.Float64()*0.10
			}
			addRow(p.ProductID, item.ItemID, pool.Components[compName], scrap)
		}

		// 未显式给组件的非原材料产品补默认 BOM
		if len(comps) == 0 && p.Level != entity.LevelRawMaterial {
			defaults := rawMaterialItems(ref)
			if len(defaults) == 0 {
				continue
			}
			n := 1 + rnd.Intn(minInt(3, len(defaults)))
			for k := 0; k < n; k++ {
				var item *entity.InventoryItem
				ok := false
				for attempt := 0; attempt < bomRetryLimit; attempt++ {
					candidate := defaults[rnd.Intn(len(defaults))]
					if cpID, isProduct := componentProductID(candidate.Name); isProduct {
						if cpID == p.ProductID || reachable(adj, cpID, p.ProductID) {
							continue // 成环，换一个重抽
						}
						adj[p.ProductID] = append(adj[p.ProductID], cpID)
					}
					item, ok = candidate, true
					break
				}
				if !ok {
					return &ReferenceError{Stage: "bom", Err: fmt.Errorf("could not assign acyclic default component to %q after %d attempts", p.Name, bomRetryLimit)}
				}
				qty := float64(2 + rnd.Intn(9))
				addRow(p.ProductID, item.ItemID, qty, 0.01+rnd.Float64()*0.04)
			}
		}
	}
	return nil
}

// reachable 有向图 from 是否可达 to
func reachable(adj map[int][]int, from, to int) bool {
	if from == to {
		return true
	}
	visited := map[int]bool{}
	stack := []int{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, adj[n]...)
	}
	return false
}

func rawMaterialItems(ref *ReferenceSet) []*entity.InventoryItem {
	var out []*entity.InventoryItem
	for i := range ref.Items {
		if ref.Items[i].Category == entity.MaterialRaw {
			out = append(out, &ref.Items[i])
		}
	}
	return out
}

func buildWorkCenters(ref *ReferenceSet, pools *config.Pools, rnd *rand.Rand, anchor time.Time, log *zap.Logger) {
	costs := costRange(pools, "work_centers")
	plantAreas := []string{"Building A", "Building B", "Main Factory", "North Wing", "South Wing"}

	bottleneckIdx := rnd.Intn(len(pools.WorkCenters))
	seasonal := SeasonalFactor(anchor)

	for i, wc := range pools.WorkCenters {
		capacity := wc.Capacity * seasonal
		description := wc.Description
		bottleneck := i == bottleneckIdx
		if bottleneck {
			capacity *= 0.6 + rnd.Float64()*0.2
			description += " (Current production bottleneck)"
		}
		ref.WorkCenters = append(ref.WorkCenters, entity.WorkCenter{
			WorkCenterID: i + 1,
			Name:         wc.Name,
			Description:  description,
			Capacity:     round2(capacity),
			CapacityUOM:  wc.CapacityUOM,
			CostPerHour:  round2(costs.Min + rnd.Float64()*(costs.Max-costs.Min)),
			Location:     plantAreas[rnd.Intn(len(plantAreas))],
			IsBottleneck: bottleneck,
			IsActive:     true,
		})
	}
	log.Info("work centers built", zap.String("bottleneck", ref.WorkCenters[bottleneckIdx].Name))
}

func buildMachines(ref *ReferenceSet, pools *config.Pools, rnd *rand.Rand, anchor time.Time) {
	costs := costRange(pools, "machines")
	nextID := 1

	for ti, mt := range pools.MachineTypes {
		// 持有该机型的工作中心
		var hosts []int
		for wi, wc := range pools.WorkCenters {
			for _, t := range wc.MachineTypes {
				if t == mt.Name {
					hosts = append(hosts, wi)
					break
				}
			}
		}
		if len(hosts) == 0 {
			hosts = make([]int, len(pools.WorkCenters))
			for wi := range pools.WorkCenters {
				hosts[wi] = wi
			}
		}

		count := 1 + rnd.Intn(3)
		for j := 0; j < count; j++ {
			wcIdx := hosts[rnd.Intn(len(hosts))]
			wc := &ref.WorkCenters[wcIdx]

			installation := anchor.AddDate(0, 0, -(90 + rnd.Intn(911)))
			lastMaint := anchor.AddDate(0, 0, -(1 + rnd.Intn(30)))
			freq := 200 + rnd.Intn(101)
			nextMaint := lastMaint.Add(time.Duration(freq) * time.Hour)

			status := weightedChoice(rnd,
				[]string{entity.MachineRunning, entity.MachineIdle, entity.MachineMaintenance, entity.MachineDown},
				[]int{80, 15, 4, 1})

			daysOld := int(anchor.Sub(installation).Hours() / 24)
			eff := round2(math.Max(0.70, 0.98-float64(daysOld)/10000))

			m := entity.Machine{
				MachineID:             nextID,
				Name:                  fmt.Sprintf("Machine %s-%d%d", typePrefix(mt.Name), ti+1, j),
				Type:                  mt.Name,
				WorkCenterID:          wc.WorkCenterID,
				Status:                status,
				NominalCapacity:       round2(mt.CapacityMin + rnd.Float64()*(mt.CapacityMax-mt.CapacityMin)),
				CapacityUOM:           mt.UOM,
				SetupTime:             10 + rnd.Intn(21),
				EfficiencyFactor:      eff,
				MaintenanceFrequency:  freq,
				LastMaintenanceDate:   lastMaint,
				NextMaintenanceDate:   nextMaint,
				ProductChangeoverTime: 15 + rnd.Intn(31),
				CostPerHour:           round2(costs.Min + rnd.Float64()*(costs.Max-costs.Min)),
				InstallationDate:      installation,
				ModelNumber:           fmt.Sprintf("%s-%d00", typePrefix(mt.Name), 1+rnd.Intn(3)),
			}
			ref.machinesByWC[wc.WorkCenterID] = append(ref.machinesByWC[wc.WorkCenterID], len(ref.Machines))
			ref.Machines = append(ref.Machines, m)
			nextID++
		}
	}
}

func typePrefix(machineType string) string {
	var b strings.Builder
	for _, word := range strings.Fields(machineType) {
		b.WriteByte(word[0])
	}
	return strings.ToUpper(b.String())
}

func buildShifts(ref *ReferenceSet, pools *config.Pools) {
	for i, sp := range pools.Shifts {
		ref.Shifts = append(ref.Shifts, entity.Shift{
			ShiftID:    i + 1,
			Name:       sp.Name,
			StartTime:  sp.Start,
			EndTime:    sp.End,
			Multiplier: sp.Multiplier,
			IsWeekend:  sp.Weekend,
		})
	}
}

var roleSkills = map[string][]string{
	entity.RoleOperator:       {"Machine Operation", "Safety Procedures", "Quality Inspection", "Basic Maintenance", "Material Handling"},
	entity.RoleTechnician:     {"Machine Repair", "Preventative Maintenance", "Electrical Systems", "Mechanical Systems", "Troubleshooting", "Calibration"},
	entity.RoleQualityControl: {"Quality Standards", "Inspection Techniques", "Statistical Analysis", "Documentation", "Root Cause Analysis"},
	entity.RoleManager:        {"Team Leadership", "Process Improvement", "Production Scheduling", "Performance Management", "Lean Manufacturing"},
	entity.RoleEngineer:       {"Process Design", "Technical Documentation", "Problem Solving", "Automation", "Industrial Engineering"},
}

func buildEmployees(ref *ReferenceSet, pools *config.Pools, rnd *rand.Rand, faker *gofakeit.Faker, anchor time.Time) {
	roles := []string{entity.RoleOperator, entity.RoleTechnician, entity.RoleQualityControl, entity.RoleManager, entity.RoleEngineer}
	weights := []int{60, 20, 10, 5, 5}
	roleRateBump := map[string]float64{
		entity.RoleOperator:       0,
		entity.RoleTechnician:     5,
		entity.RoleQualityControl: 8,
		entity.RoleManager:        15,
		entity.RoleEngineer:       12,
	}

	for i := 0; i < pools.Dist.EmployeeCount; i++ {
		role := weightedChoice(rnd, roles, weights)

		skillsPool := roleSkills[role]
		n := 2 + rnd.Intn(minInt(3, len(skillsPool)-1))
		picked := sampleStrings(rnd, skillsPool, n)

		var daysEmployed int
		switch weightedChoice(rnd, []string{"new", "mid", "veteran"}, []int{20, 50, 30}) {
		case "new":
			daysEmployed = 1 + rnd.Intn(90)
		case "mid":
			daysEmployed = 91 + rnd.Intn(275)
		default:
			daysEmployed = 366 + rnd.Intn(1460)
		}

		tenureBonus := math.Min(float64(daysEmployed)/1825*0.2, 0.2)
		rate := (pools.HourlyRateRange.Min + roleRateBump[role]) * (1 + tenureBonus)

		shift := ref.Shifts[rnd.Intn(len(ref.Shifts))]
		ref.Employees = append(ref.Employees, entity.Employee{
			EmployeeID: i + 1,
			Name:       faker.Name(),
			Role:       role,
			ShiftID:    shift.ShiftID,
			HourlyRate: round2(rate),
			Skills:     strings.Join(picked, ", "),
			HireDate:   anchor.AddDate(0, 0, -daysEmployed),
		})
	}
}

func costRange(pools *config.Pools, key string) config.Range {
	if r, ok := pools.CostRanges[key]; ok {
		return r
	}
	return config.Range{Min: 10, Max: 100}
}

func weightedChoice(rnd *rand.Rand, options []string, weights []int) string {
	total := 0
	for _, w := range weights {
		total += w
	}
	pick := rnd.Intn(total)
	for i, w := range weights {
		if pick < w {
			return options[i]
		}
		pick -= w
	}
	return options[len(options)-1]
}

// samplePool 无放回抽样，保持池内相对顺序无关
func sampleStrings(rnd *rand.Rand, pool []string, n int) []string {
	idxs := rnd.Perm(len(pool))[:n]
	sort.Ints(idxs)
	out := make([]string, n)
	for i, idx := range idxs {
		out[i] = pool[idx]
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
