package sim

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/bitfantasy/mes-sim/internal/config"
	"github.com/bitfantasy/mes-sim/internal/model/entity"
)

// 单日行号上限，决定各表按日分段的主键区间
const (
	maxOrdersPerDaySeq   = 200
	maxDowntimePerDaySeq = 1000
	maxDefectsPerCheck   = 10
	maxBOMLinesPerOrder  = 100
)

// Engine 时序模拟引擎。把参考数据按天推演成工单、停机、OEE、
// 质检、物料消耗等事务数据，整个过程由种子完全决定
type Engine struct {
	pools *config.Pools
	ref   *ReferenceSet
	rng   *RNG
	log   *zap.Logger
}

func NewEngine(pools *config.Pools, ref *ReferenceSet, rng *RNG, log *zap.Logger) *Engine {
	return &Engine{pools: pools, ref: ref, rng: rng, log: log}
}

// DayResult 单日产出的全部事务行
type DayResult struct {
	Day         time.Time
	WorkOrders  []entity.WorkOrder
	Downtimes   []entity.Downtime
	OEE         []entity.OEEMetric
	QCChecks    []entity.QualityControlCheck
	Defects     []entity.Defect
	Consumption []entity.MaterialConsumption
	Shortages   []entity.InventoryShortage
}

// Result 一次完整推演的产出。FinalInventory 是期末库存快照
type Result struct {
	Days           []DayResult
	FinalInventory []entity.InventoryItem
}

// Run 在 [windowStart, windowEnd) 上逐日推演。anchor 之前的天是历史，
// 产生完工工单和 OEE；anchor 之后的天只产生排程中的工单。
// 行主键按日分段编号，任意一天的行内容只取决于种子、参考数据
// 和窗口起点以来的状态演化，与窗口终点无关
func (e *Engine) Run(anchor, windowStart, windowEnd time.Time) (*Result, error) {
	if !windowStart.Before(windowEnd) {
		return nil, fmt.Errorf("empty simulation window [%s, %s)", windowStart.Format("2006-01-02"), windowEnd.Format("2006-01-02"))
	}

	st := NewSimState(e.ref)
	res := &Result{}

	for day := Midnight(windowStart); day.Before(windowEnd); day = day.AddDate(0, 0, 1) {
		rnd := e.rng.Day(day)
		dr := DayResult{Day: day}

		e.resetDayState(st)
		e.receiveReplenishments(st, day)
		e.scanShortages(st, rnd, day, &dr)
		e.scheduleOrders(st, rnd, anchor, day, &dr)
		e.runDowntime(st, rnd, anchor, day, &dr)
		if day.Before(Midnight(anchor)) {
			e.computeOEE(st, rnd, day, &dr)
		}
		e.inspectOrders(st, rnd, day, &dr)
		e.consumeMaterials(st, rnd, day, &dr)
		e.decayMachines(st)

		res.Days = append(res.Days, dr)
	}

	res.FinalInventory = e.snapshotInventory(st)
	e.log.Info("simulation window complete",
		zap.Time("window_start", windowStart),
		zap.Time("window_end", windowEnd),
		zap.Int("days", len(res.Days)),
	)
	return res, nil
}

func (e *Engine) resetDayState(st *SimState) {
	for i := range e.ref.Machines {
		ms := st.Machines[e.ref.Machines[i].MachineID]
		ms.DayDowntimeMin = 0
		ms.DayThroughput = 0
		ms.DayQuality = 0
	}
}

// receiveReplenishments 到期的在途补货入库，同批次标记复位
func (e *Engine) receiveReplenishments(st *SimState, day time.Time) {
	var pending []Replenishment
	for _, r := range st.Pending {
		if r.Due.After(day) {
			pending = append(pending, r)
			continue
		}
		is := st.Items[r.ItemID]
		is.Quantity += r.Quantity
		is.ShortageOpen = false
		is.LotFlagged = false
		is.LastReceived = day
	}
	st.Pending = pending
}

// scanShortages 开盘缺料巡检：现存量不高于再订货点且尚无未决补货时记缺料并下补货单
func (e *Engine) scanShortages(st *SimState, rnd *rand.Rand, day time.Time, dr *DayResult) {
	for i := range e.ref.Items {
		item := &e.ref.Items[i]
		is := st.Items[item.ItemID]
		if is.Quantity > is.ReorderLevel || is.ShortageOpen {
			continue
		}
		dr.Shortages = append(dr.Shortages, entity.InventoryShortage{
			ShortageID:   shortageID(day, item.ItemID),
			ItemID:       item.ItemID,
			Date:         day,
			Quantity:     is.Quantity,
			ReorderLevel: is.ReorderLevel,
		})
		is.ShortageOpen = true
		st.Pending = append(st.Pending, Replenishment{
			ItemID:   item.ItemID,
			Due:      day.AddDate(0, 0, is.LeadTime),
			Quantity: replenishQuantity(is, e.pools.Dist.ReplenishMultiple, rnd),
		})
	}
}

func replenishQuantity(is *ItemState, multiple float64, rnd *rand.Rand) int {
	if multiple <= 0 {
		multiple = 2
	}
	qty := int(float64(is.ReorderLevel)*multiple) - is.Quantity
	qty += rnd.Intn(is.ReorderLevel + 1)
	if qty < 1 {
		qty = 1
	}
	return qty
}

// scheduleOrders 按工作中心和当班班次排工单。当日产能先偿还既有积压，
// 余量内接单，接不下的顺延次日；未完结工单的数量计入积压。完工状态
// 只出现在历史日，锚点当天已开工的为 in_progress，其余为 scheduled
func (e *Engine) scheduleOrders(st *SimState, rnd *rand.Rand, anchor, day time.Time, dr *DayResult) {
	weekend := isWeekend(day)
	var shifts []*entity.Shift
	for i := range e.ref.Shifts {
		if e.ref.Shifts[i].IsWeekend == weekend {
			shifts = append(shifts, &e.ref.Shifts[i])
		}
	}
	if len(shifts) == 0 {
		return
	}

	var products []*entity.Product
	for i := range e.ref.Products {
		p := &e.ref.Products[i]
		if p.IsActive && (p.Level == entity.LevelFinishedProduct || p.Level == entity.LevelSubassembly) {
			products = append(products, p)
		}
	}
	if len(products) == 0 {
		return
	}

	maxOrders := e.pools.Dist.MaxOrdersPerDay
	if maxOrders <= 0 || maxOrders > maxOrdersPerDaySeq {
		maxOrders = maxOrdersPerDaySeq
	}
	seq := 0

	for wi := range e.ref.WorkCenters {
		wc := &e.ref.WorkCenters[wi]
		machines := e.ref.MachinesIn(wc.WorkCenterID)
		if !wc.IsActive || len(machines) == 0 {
			continue
		}
		wcs := st.WorkCenters[wc.WorkCenterID]

		// 当日产能先偿还既有积压，余量才接新单；积压按产能速率消化
		capQty := int(wc.Capacity)
		available := capQty - wcs.Backlog
		wcs.Backlog -= capQty
		if wcs.Backlog < 0 {
			wcs.Backlog = 0
		}
		if available <= 0 {
			continue
		}
		util := UtilizationTarget(day, e.pools.Dist.WeekdayUtilization, e.pools.Dist.WeekendUtilization, rnd)

		for _, shift := range shifts {
			target := int(math.Round(util * shift.Multiplier * float64(maxOrders) / float64(len(e.ref.WorkCenters)*len(shifts))))
			if target < 1 && rnd.Float64() < util*0.5 {
				target = 1
			}

			for k := 0; k < target && seq < maxOrders; k++ {
				qty := 10 + rnd.Intn(91)
				if qty > available {
					// 余量耗尽，当日剩余排程顺延
					available = 0
					break
				}
				available -= qty

				machine := machines[rnd.Intn(len(machines))]
				product := products[rnd.Intn(len(products))]
				operators := e.ref.OperatorsOnShift(shift.ShiftID)
				if len(operators) == 0 {
					continue
				}
				operator := operators[rnd.Intn(len(operators))]

				start := shiftStart(day, shift).Add(time.Duration(rnd.Intn(120)) * time.Minute)
				durMin := orderDurationMinutes(product, machine, qty, rnd)
				end := start.Add(time.Duration(durMin) * time.Minute)

				wo := entity.WorkOrder{
					OrderID:          orderID(day, seq),
					ProductID:        product.ProductID,
					WorkCenterID:     wc.WorkCenterID,
					MachineID:        machine.MachineID,
					EmployeeID:       operator.EmployeeID,
					Quantity:         qty,
					PlannedStartTime: start,
					PlannedEndTime:   end,
					Priority:         1 + rnd.Intn(5),
					LeadTime:         int(math.Ceil(float64(durMin) / 60)),
					LotNumber:        LotNumber(rnd, day),
				}
				e.materializeStatus(st, rnd, anchor, day, &wo, machine, shift)
				if wo.Status == entity.WOStatusScheduled || wo.Status == entity.WOStatusInProgress {
					wcs.Backlog += qty
				}
				dr.WorkOrders = append(dr.WorkOrders, wo)
				seq++
			}
			if available <= 0 {
				break
			}
		}
	}
}

// shiftStart 班次起始时刻落到当天。时钟串非法时退回 06:00
func shiftStart(day time.Time, shift *entity.Shift) time.Time {
	var h, m int
	if _, err := fmt.Sscanf(shift.StartTime, "%d:%d", &h, &m); err != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		h, m = 6, 0
	}
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func orderDurationMinutes(p *entity.Product, m *entity.Machine, qty int, rnd *rand.Rand) int {
	process := p.StandardProcessTime * float64(qty) * (0.9 + 0.2*rnd.Float64())
	durMin := m.SetupTime + int(process)
	if durMin < 60 {
		durMin = 60
	}
	if durMin > 16*60 {
		durMin = 16 * 60
	}
	return durMin
}

// materializeStatus 按工单所在日与锚点日的关系定状态并补实际执行字段。
// 锚点日之前的天全部收口为完工或取消，锚点时刻只在锚点当天被参照，
// 历史日的行内容因此与锚点落在哪天无关
func (e *Engine) materializeStatus(st *SimState, rnd *rand.Rand, anchor, day time.Time, wo *entity.WorkOrder, machine *entity.Machine, shift *entity.Shift) {
	anchorDay := Midnight(anchor)
	switch {
	case day.After(anchorDay) || (day.Equal(anchorDay) && wo.PlannedStartTime.After(anchor)):
		wo.Status = entity.WOStatusScheduled
		return
	case day.Equal(anchorDay):
		wo.Status = entity.WOStatusInProgress
		actualStart := jitterStart(wo.PlannedStartTime, rnd)
		wo.ActualStartTime = &actualStart
		setup := machine.SetupTime + rnd.Intn(11) - 5
		if setup < 1 {
			setup = 1
		}
		wo.SetupTimeActual = &setup
		return
	}

	if rnd.Float64() < 0.05 {
		wo.Status = entity.WOStatusCancelled
		return
	}
	wo.Status = entity.WOStatusCompleted

	actualStart := jitterStart(wo.PlannedStartTime, rnd)
	plannedDur := wo.PlannedEndTime.Sub(wo.PlannedStartTime)
	actualEnd := actualStart.Add(time.Duration(float64(plannedDur) * (0.9 + 0.3*rnd.Float64())))
	if !actualEnd.After(actualStart) {
		actualEnd = actualStart.Add(time.Hour)
	}
	wo.ActualStartTime = &actualStart
	wo.ActualEndTime = &actualEnd

	rate := CompletionRate(shift.Multiplier, DayFactor(day), rnd)
	production := int(float64(wo.Quantity) * rate)
	scrap := int(float64(wo.Quantity) * rnd.Float64() * 0.05)
	if limit := int(float64(wo.Quantity) * (1 + entity.WOQuantityTolerance)); production+scrap > limit {
		scrap = limit - production
	}
	if scrap < 0 {
		scrap = 0
	}
	wo.ActualProduction = &production
	wo.Scrap = scrap

	setup := machine.SetupTime + rnd.Intn(11) - 5
	if setup < 1 {
		setup = 1
	}
	wo.SetupTimeActual = &setup

	st.Machines[machine.MachineID].DayThroughput += production
}

func jitterStart(planned time.Time, rnd *rand.Rand) time.Time {
	return planned.Add(time.Duration(rnd.Intn(61)-30) * time.Minute)
}

// runDowntime 保养到期的机台记计划停机并复位效率；历史日按状态相关概率
// 追加非计划停机，计入当天可动率损失
func (e *Engine) runDowntime(st *SimState, rnd *rand.Rand, anchor, day time.Time, dr *DayResult) {
	technicians := e.ref.EmployeesWithRole(entity.RoleTechnician)
	seq := 0

	reporter := func() int {
		if len(technicians) == 0 {
			return 0
		}
		return technicians[rnd.Intn(len(technicians))].EmployeeID
	}

	for i := range e.ref.Machines {
		machine := &e.ref.Machines[i]
		ms := st.Machines[machine.MachineID]
		wcs := st.WorkCenters[machine.WorkCenterID]

		if !day.Before(Midnight(ms.NextMaintenance)) && seq < maxDowntimePerDaySeq {
			full := rnd.Float64() < 0.7
			reason := entity.ReasonScheduledMaintenance
			duration := 120 + rnd.Intn(121)
			if !full {
				reason = entity.ReasonQuickService
				duration = 30 + rnd.Intn(61)
			}
			start := day.Add(time.Duration(8*60+rnd.Intn(240)) * time.Minute)
			dr.Downtimes = append(dr.Downtimes, entity.Downtime{
				DowntimeID:  downtimeID(day, seq),
				MachineID:   machine.MachineID,
				StartTime:   start,
				EndTime:     start.Add(time.Duration(duration) * time.Minute),
				Duration:    duration,
				Reason:      reason,
				Category:    entity.DowntimePlanned,
				Description: fmt.Sprintf("%s on %s", reason, machine.Name),
				ReportedBy:  reporter(),
			})
			seq++

			ms.Efficiency = ResetEfficiency(ms.Efficiency, full)
			ms.LastMaintenance = day
			ms.NextMaintenance = day.Add(time.Duration(machine.MaintenanceFrequency) * time.Hour)
		}

		if !day.Before(Midnight(anchor)) || seq >= maxDowntimePerDaySeq {
			continue
		}
		rate := UnplannedDowntimeRate(e.pools.Dist.DowntimeBaseRate, ms, wcs.Bottleneck, day)
		if rnd.Float64() >= rate {
			continue
		}
		reasons := e.pools.DowntimeReasons[entity.DowntimeUnplanned]
		reason := reasons[rnd.Intn(len(reasons))]
		duration := 15 + rnd.Intn(166)
		start := day.Add(time.Duration(6*60+rnd.Intn(720)) * time.Minute)

		var orderRef *int
		for oi := range dr.WorkOrders {
			if dr.WorkOrders[oi].MachineID == machine.MachineID {
				id := dr.WorkOrders[oi].OrderID
				orderRef = &id
				break
			}
		}

		dr.Downtimes = append(dr.Downtimes, entity.Downtime{
			DowntimeID:  downtimeID(day, seq),
			MachineID:   machine.MachineID,
			OrderID:     orderRef,
			StartTime:   start,
			EndTime:     start.Add(time.Duration(duration) * time.Minute),
			Duration:    duration,
			Reason:      reason,
			Category:    entity.DowntimeUnplanned,
			Description: fmt.Sprintf("%s reported on %s", reason, machine.Name),
			ReportedBy:  reporter(),
		})
		seq++
		ms.DayDowntimeMin += duration
	}
}

// computeOEE 历史日逐机台结算 OEE，并把当日质量率暂存给质检步复用
func (e *Engine) computeOEE(st *SimState, rnd *rand.Rand, day time.Time, dr *DayResult) {
	planned := 480
	if isWeekend(day) {
		planned = 240
	}

	for i := range e.ref.Machines {
		machine := &e.ref.Machines[i]
		ms := st.Machines[machine.MachineID]

		downtime := ms.DayDowntimeMin
		if downtime > planned {
			downtime = planned
		}
		availability := 1 - float64(downtime)/float64(planned)

		capacity := machine.NominalCapacity * float64(planned) / 60
		ratio := 0.0
		if capacity > 0 {
			ratio = float64(ms.DayThroughput) / capacity
		}
		performance := MachinePerformance(ms, ratio)
		quality := MachineQuality(ms, rnd)
		ms.DayQuality = quality

		dr.OEE = append(dr.OEE, entity.OEEMetric{
			MetricID:              oeeMetricID(day, machine.MachineID),
			MachineID:             machine.MachineID,
			Date:                  day,
			Availability:          round4(availability),
			Performance:           round4(performance),
			Quality:               round4(quality),
			OEE:                   round4(availability * performance * quality),
			PlannedProductionTime: planned,
			ActualProductionTime:  planned - downtime,
			Downtime:              downtime,
		})
	}
}

// inspectOrders 对当日完工和在制工单做质检。缺陷率由机台老化、班次绩效、
// 来料批次标记和当日质量率共同决定
func (e *Engine) inspectOrders(st *SimState, rnd *rand.Rand, day time.Time, dr *DayResult) {
	inspectors := e.ref.EmployeesWithRole(entity.RoleQualityControl)

	for oi := range dr.WorkOrders {
		wo := &dr.WorkOrders[oi]
		if wo.Status != entity.WOStatusCompleted && wo.Status != entity.WOStatusInProgress {
			continue
		}
		ms := st.Machines[wo.MachineID]

		shiftMult := 1.0
		if s := e.shiftOf(wo); s != nil {
			shiftMult = s.Multiplier
		}

		rate := DefectRate(e.pools.Dist.DefectBaseRate, ms, shiftMult, e.lotFlagged(st, wo.ProductID), day)
		dayQuality := ms.DayQuality
		if dayQuality == 0 {
			dayQuality = MachineQuality(ms, rnd)
		}
		if dayQuality < 0.95 {
			rate = math.Min(0.5, rate*1.5)
		}
		rate = round4(rate)

		var result string
		var rework float64
		switch {
		case rate < 0.05:
			result = entity.QCResultPass
			rework = rate * 0.3
		case rate < 0.15:
			result = entity.QCResultRework
			rework = rate * 0.8
		default:
			result = entity.QCResultFail
			rework = rate * 0.5
		}

		comment := ""
		if pool := e.pools.QCComments[result]; len(pool) > 0 {
			comment = pool[rnd.Intn(len(pool))]
		}
		inspectorID := 0
		if len(inspectors) > 0 {
			inspectorID = inspectors[rnd.Intn(len(inspectors))].EmployeeID
		}

		check := entity.QualityControlCheck{
			CheckID:     wo.OrderID,
			OrderID:     wo.OrderID,
			Date:        day,
			Result:      result,
			Comments:    comment,
			DefectRate:  round4(rate),
			ReworkRate:  round4(rework),
			YieldRate:   round4(1 - rate),
			InspectorID: inspectorID,
		}
		dr.QCChecks = append(dr.QCChecks, check)

		if result == entity.QCResultPass && rate <= 0.02 {
			continue
		}
		e.recordDefects(rnd, day, wo, &check, rate, dr)
	}
}

func (e *Engine) shiftOf(wo *entity.WorkOrder) *entity.Shift {
	for i := range e.ref.Employees {
		if e.ref.Employees[i].EmployeeID == wo.EmployeeID {
			for si := range e.ref.Shifts {
				if e.ref.Shifts[si].ShiftID == e.ref.Employees[i].ShiftID {
					return &e.ref.Shifts[si]
				}
			}
		}
	}
	return nil
}

// lotFlagged 产品 BOM 里是否存在被标记的来料批次
func (e *Engine) lotFlagged(st *SimState, productID int) bool {
	for _, row := range e.ref.BOMFor(productID) {
		if is, ok := st.Items[row.ComponentID]; ok && is.LotFlagged {
			return true
		}
	}
	return false
}

var defectLocations = []string{"Frame", "Drive Unit", "Wheel", "Controls", "Wiring", "Finish"}
var defectRootCauses = []string{"Material Defect", "Operator Error", "Machine Calibration", "Tooling Wear", "Process Drift"}
var defectActions = []string{"Reworked", "Scrapped", "Accepted with Deviation", "Returned to Supplier", "Pending Review"}

func (e *Engine) recordDefects(rnd *rand.Rand, day time.Time, wo *entity.WorkOrder, check *entity.QualityControlCheck, rate float64, dr *DayResult) {
	wcName := ""
	for i := range e.ref.WorkCenters {
		if e.ref.WorkCenters[i].WorkCenterID == wo.WorkCenterID {
			wcName = e.ref.WorkCenters[i].Name
			break
		}
	}
	types := e.pools.DefectTypes[wcName]
	if len(types) == 0 {
		types = e.pools.DefectTypes["default"]
	}
	if len(types) == 0 {
		return
	}

	total := int(float64(wo.Quantity) * rate)
	if total < 1 {
		total = 1
	}
	n := 1 + rnd.Intn(3)
	if n > total {
		n = total
	}
	if n > maxDefectsPerCheck {
		n = maxDefectsPerCheck
	}

	remaining := total
	for k := 0; k < n; k++ {
		qty := remaining / (n - k)
		if qty < 1 {
			qty = 1
		}
		remaining -= qty

		var severity int
		switch check.Result {
		case entity.QCResultFail:
			severity = 3 + rnd.Intn(3)
		case entity.QCResultRework:
			severity = 2 + rnd.Intn(3)
		default:
			severity = 1 + rnd.Intn(2)
		}

		dr.Defects = append(dr.Defects, entity.Defect{
			DefectID:    defectID(wo.OrderID, k),
			CheckID:     check.CheckID,
			DefectType:  types[rnd.Intn(len(types))],
			Severity:    severity,
			Quantity:    qty,
			Location:    defectLocations[rnd.Intn(len(defectLocations))],
			RootCause:   defectRootCauses[rnd.Intn(len(defectRootCauses))],
			ActionTaken: defectActions[rnd.Intn(len(defectActions))],
		})
	}
}

// consumeMaterials 按 BOM 展开当日完工和在制工单的物料消耗并扣减库存。
// 方差超限的批次打标记，跌破再订货点的物料触发缺料记录与补货
func (e *Engine) consumeMaterials(st *SimState, rnd *rand.Rand, day time.Time, dr *DayResult) {
	for oi := range dr.WorkOrders {
		wo := &dr.WorkOrders[oi]
		if wo.Status != entity.WOStatusCompleted && wo.Status != entity.WOStatusInProgress {
			continue
		}
		ms := st.Machines[wo.MachineID]

		for li, row := range e.ref.BOMFor(wo.ProductID) {
			if li >= maxBOMLinesPerOrder {
				break
			}
			is, ok := st.Items[row.ComponentID]
			if !ok {
				continue
			}

			planned := float64(wo.Quantity) * row.Quantity * (1 + row.ScrapFactor)
			variance := ConsumptionVariance(e.pools.Dist.ConsumptionVariance, ms, rnd)
			actual := planned * (1 + variance)

			if math.Abs(variance) > e.pools.Dist.VarianceFlagPercent {
				is.LotFlagged = true
			}

			consumed := int(math.Round(actual))
			if consumed > is.Quantity {
				consumed = is.Quantity
			}
			is.Quantity -= consumed

			dr.Consumption = append(dr.Consumption, entity.MaterialConsumption{
				ConsumptionID:   consumptionID(wo.OrderID, li),
				OrderID:         wo.OrderID,
				ItemID:          row.ComponentID,
				PlannedQuantity: round2(planned),
				ActualQuantity:  round2(actual),
				VariancePercent: round4(variance * 100),
				ConsumptionDate: day,
				LotNumber:       wo.LotNumber,
			})

			if is.Quantity <= is.ReorderLevel && !is.ShortageOpen {
				dr.Shortages = append(dr.Shortages, entity.InventoryShortage{
					ShortageID:   shortageID(day, row.ComponentID),
					ItemID:       row.ComponentID,
					Date:         day,
					Quantity:     is.Quantity,
					ReorderLevel: is.ReorderLevel,
				})
				is.ShortageOpen = true
				st.Pending = append(st.Pending, Replenishment{
					ItemID:   row.ComponentID,
					Due:      day.AddDate(0, 0, is.LeadTime),
					Quantity: replenishQuantity(is, e.pools.Dist.ReplenishMultiple, rnd),
				})
			}
		}
	}
}

func (e *Engine) decayMachines(st *SimState) {
	for i := range e.ref.Machines {
		ms := st.Machines[e.ref.Machines[i].MachineID]
		ms.Efficiency = DecayEfficiency(ms.Efficiency)
	}
}

// snapshotInventory 期末库存：参考行叠加推演后的现存量和收货日期
func (e *Engine) snapshotInventory(st *SimState) []entity.InventoryItem {
	out := make([]entity.InventoryItem, len(e.ref.Items))
	for i := range e.ref.Items {
		item := e.ref.Items[i]
		is := st.Items[item.ItemID]
		item.Quantity = is.Quantity
		item.LastReceivedDate = is.LastReceived
		out[i] = item
	}
	return out
}

// 主键按日分段：dayOrdinal 乘以该表的单日区间宽度再加行序号。
// 任何一天的主键不依赖其他天生成了多少行
func dayOrdinal(day time.Time) int {
	return int(Midnight(day).Unix() / 86400)
}

func orderID(day time.Time, seq int) int {
	return dayOrdinal(day)*maxOrdersPerDaySeq + seq
}

// OrderIDLowerBound 某天第一个可能的工单号。质检单号与工单号一一对应，
// 持久层按号段删旧缺陷行时用它换算日界
func OrderIDLowerBound(day time.Time) int {
	return orderID(day, 0)
}

func downtimeID(day time.Time, seq int) int {
	return dayOrdinal(day)*maxDowntimePerDaySeq + seq
}

func oeeMetricID(day time.Time, machineID int) int {
	return dayOrdinal(day)*maxDowntimePerDaySeq + machineID
}

func defectID(orderID, seq int) int {
	return orderID*maxDefectsPerCheck + seq
}

func consumptionID(orderID, seq int) int {
	return orderID*maxBOMLinesPerOrder + seq
}

func shortageID(day time.Time, itemID int) int {
	return dayOrdinal(day)*maxDowntimePerDaySeq + itemID
}
