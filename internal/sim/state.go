package sim

import (
	"time"
)

// MachineState 单机台的显式模拟状态。除这里和 WorkCenterState、ItemState 之外，
// 关联引擎不读写任何可变状态。
type MachineState struct {
	MachineID       int
	Efficiency      float64 // 两次保养之间单调衰减
	LastMaintenance time.Time
	NextMaintenance time.Time

	// 当日草稿，每天由引擎重置
	DayDowntimeMin int
	DayThroughput  int
	DayQuality     float64 // OEE 步采样，质检步复用
}

// HoursSinceMaintenance 距上次保养的小时数
func (m *MachineState) HoursSinceMaintenance(day time.Time) float64 {
	h := day.Sub(m.LastMaintenance).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// WorkCenterState 工作中心积压计数
type WorkCenterState struct {
	WorkCenterID int
	Backlog      int
	Bottleneck   bool
}

// ItemState 库存物料运行量
type ItemState struct {
	ItemID       int
	Quantity     int
	ReorderLevel int
	LeadTime     int
	LotFlagged   bool // 当前批次方差超限，抬升缺陷率
	ShortageOpen bool // 已记录缺料且尚未补货
	LastReceived time.Time
}

// Replenishment 在途补货，供应商交期届满后入库
type Replenishment struct {
	ItemID   int
	Due      time.Time
	Quantity int
}

// SimState 跨日传递的全部模拟状态
type SimState struct {
	Machines    map[int]*MachineState
	WorkCenters map[int]*WorkCenterState
	Items       map[int]*ItemState
	Pending     []Replenishment
}

// NewSimState 从参考数据初始化状态
func NewSimState(ref *ReferenceSet) *SimState {
	st := &SimState{
		Machines:    make(map[int]*MachineState, len(ref.Machines)),
		WorkCenters: make(map[int]*WorkCenterState, len(ref.WorkCenters)),
		Items:       make(map[int]*ItemState, len(ref.Items)),
	}
	for i := range ref.Machines {
		m := &ref.Machines[i]
		st.Machines[m.MachineID] = &MachineState{
			MachineID:       m.MachineID,
			Efficiency:      m.EfficiencyFactor,
			LastMaintenance: m.LastMaintenanceDate,
			NextMaintenance: m.NextMaintenanceDate,
		}
	}
	for i := range ref.WorkCenters {
		wc := &ref.WorkCenters[i]
		st.WorkCenters[wc.WorkCenterID] = &WorkCenterState{
			WorkCenterID: wc.WorkCenterID,
			Bottleneck:   wc.IsBottleneck,
		}
	}
	for i := range ref.Items {
		it := &ref.Items[i]
		st.Items[it.ItemID] = &ItemState{
			ItemID:       it.ItemID,
			Quantity:     it.Quantity,
			ReorderLevel: it.ReorderLevel,
			LeadTime:     it.LeadTime,
			LastReceived: it.LastReceivedDate,
		}
	}
	return st
}
