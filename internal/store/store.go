package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bitfantasy/mes-sim/internal/config"
	"github.com/bitfantasy/mes-sim/internal/model/entity"
	"github.com/bitfantasy/mes-sim/internal/sim"
)

const insertBatchSize = 200

// Store SQLite 持久层，负责 create/refresh/auto 三种生命周期
type Store struct {
	path string
	log  *zap.Logger
}

func New(path string, log *zap.Logger) *Store {
	return &Store{path: path, log: log}
}

// Auto 路径不存在走 create，存在走 refresh
func (s *Store) Auto(ctx context.Context, params *config.Params, pools *config.Pools) error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.log.Info("store does not exist, creating", zap.String("path", s.path))
		return s.Create(ctx, params, pools)
	}
	s.log.Info("store exists, refreshing", zap.String("path", s.path))
	return s.Refresh(ctx, params, pools)
}

// Create 全量建库。先写临时文件，全部成功后原子改名到目标路径，
// 既有库被整体替换，失败时目标路径保持原样
func (s *Store) Create(ctx context.Context, params *config.Params, pools *config.Pools) error {
	anchor := params.AnchorOrNow()
	anchorDay := sim.Midnight(anchor)
	windowStart := anchorDay.AddDate(0, 0, -params.LookbackDays)
	windowEnd := anchorDay.AddDate(0, 0, params.LookaheadDays)

	rng := sim.NewRNG(params.Seed)
	ref, err := sim.BuildReference(pools, rng, anchorDay, s.log)
	if err != nil {
		return err
	}
	res, err := sim.NewEngine(pools, ref, rng, s.log).Run(anchor, windowStart, windowEnd)
	if err != nil {
		return &CreateError{Path: s.path, Err: err}
	}

	tmp := s.path + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return &CreateError{Path: s.path, Err: err}
	}

	db, err := open(ctx, tmp)
	if err != nil {
		return &CreateError{Path: s.path, Err: err}
	}
	fail := func(cause error) error {
		closeDB(db)
		os.Remove(tmp)
		return &CreateError{Path: s.path, Err: cause}
	}

	if err := entity.AutoMigrate(db); err != nil {
		return fail(err)
	}
	if err := s.writeReference(db, ref, res.FinalInventory); err != nil {
		return fail(err)
	}
	if err := writeTimeSeries(db, res, windowEnd); err != nil {
		return fail(err)
	}
	run := entity.SimulationRun{
		RunID:       1,
		Seed:        params.Seed,
		Mode:        entity.ModeCreate,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Anchor:      anchor,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.Create(&run).Error; err != nil {
		return fail(err)
	}

	if err := closeDB(db); err != nil {
		os.Remove(tmp)
		return &CreateError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return &CreateError{Path: s.path, Err: err}
	}

	s.log.Info("store created",
		zap.String("path", s.path),
		zap.Int64("seed", params.Seed),
		zap.Time("window_start", windowStart),
		zap.Time("window_end", windowEnd),
	)
	return nil
}

// Refresh 把既有库的时序窗口滑到新锚点。校验表结构契约后，用首次运行
// 存档的种子从两窗并集起点整段重放，只落盘新进入窗口的天；锚点之前的
// 重叠天保持字节不动，锚点当天起的临时排程整段重写。整个写入在单一
// 事务内完成
func (s *Store) Refresh(ctx context.Context, params *config.Params, pools *config.Pools) error {
	if _, err := os.Stat(s.path); err != nil {
		return &WriteError{Op: "open", Err: err}
	}
	db, err := open(ctx, s.path)
	if err != nil {
		return &WriteError{Op: "open", Err: err}
	}
	defer closeDB(db)

	if err := validateSchema(db); err != nil {
		return err
	}

	var first, last entity.SimulationRun
	if err := db.Order("run_id asc").First(&first).Error; err != nil {
		return &SchemaError{Table: "SimulationRuns", Reason: "no simulation run metadata"}
	}
	if err := db.Order("run_id desc").First(&last).Error; err != nil {
		return &WriteError{Op: "load run metadata", Err: err}
	}
	if params.SeedSet && params.Seed != first.Seed {
		s.log.Warn("seed flag ignored on refresh, store keeps its original seed",
			zap.Int64("flag_seed", params.Seed),
			zap.Int64("store_seed", first.Seed),
		)
	}

	newAnchor := params.AnchorOrNow()
	anchorDay := sim.Midnight(newAnchor)
	newStart := anchorDay.AddDate(0, 0, -params.LookbackDays)
	newEnd := anchorDay.AddDate(0, 0, params.LookaheadDays)

	oldStart := sim.Midnight(last.WindowStart)
	rewriteFrom := sim.Midnight(last.Anchor)
	unionStart := newStart
	if oldStart.Before(unionStart) {
		unionStart = oldStart
	}

	// 参考数据必须对着建库时的锚点重建，否则重放的初始状态会漂移
	rng := sim.NewRNG(first.Seed)
	ref, err := sim.BuildReference(pools, rng, sim.Midnight(first.Anchor), s.log)
	if err != nil {
		return err
	}
	res, err := sim.NewEngine(pools, ref, rng, s.log).Run(newAnchor, unionStart, newEnd)
	if err != nil {
		return &WriteError{Op: "replay", Err: err}
	}

	cutHigh := rewriteFrom
	if newEnd.Before(cutHigh) {
		cutHigh = newEnd
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := trimTimeSeries(tx, newStart, cutHigh); err != nil {
			return err
		}

		kept := &sim.Result{FinalInventory: res.FinalInventory}
		for _, dr := range res.Days {
			inWindow := !dr.Day.Before(newStart) && dr.Day.Before(newEnd)
			rewritten := dr.Day.Before(oldStart) || !dr.Day.Before(cutHigh)
			if inWindow && rewritten {
				kept.Days = append(kept.Days, dr)
			}
		}
		if err := writeTimeSeries(tx, kept, newEnd); err != nil {
			return err
		}

		for i := range res.FinalInventory {
			if err := tx.Save(&res.FinalInventory[i]).Error; err != nil {
				return err
			}
		}

		return tx.Create(&entity.SimulationRun{
			RunID:       last.RunID + 1,
			Seed:        first.Seed,
			Mode:        entity.ModeRefresh,
			WindowStart: newStart,
			WindowEnd:   newEnd,
			Anchor:      newAnchor,
			CreatedAt:   time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return &WriteError{Op: "refresh transaction", Err: err}
	}

	s.log.Info("store refreshed",
		zap.String("path", s.path),
		zap.Time("window_start", newStart),
		zap.Time("window_end", newEnd),
		zap.Int("days_written", countDays(res, newStart, newEnd, oldStart, cutHigh)),
	)
	return nil
}

func countDays(res *sim.Result, newStart, newEnd, oldStart, cutHigh time.Time) int {
	n := 0
	for _, dr := range res.Days {
		if !dr.Day.Before(newStart) && dr.Day.Before(newEnd) &&
			(dr.Day.Before(oldStart) || !dr.Day.Before(cutHigh)) {
			n++
		}
	}
	return n
}

func open(ctx context.Context, path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db.WithContext(ctx), nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// validateSchema 契约表逐一存在性校验，缺表即拒绝 refresh
func validateSchema(db *gorm.DB) error {
	m := db.Migrator()
	for _, table := range entity.ContractTables {
		if !m.HasTable(table) {
			return &SchemaError{Table: table, Reason: "table missing"}
		}
	}
	if !m.HasTable("SimulationRuns") {
		return &SchemaError{Table: "SimulationRuns", Reason: "table missing"}
	}
	return nil
}

// writeReference 主数据落盘。无外键依赖的族并行写，BOM 等两族就绪后再写
func (s *Store) writeReference(db *gorm.DB, ref *sim.ReferenceSet, inventory []entity.InventoryItem) error {
	var g errgroup.Group

	g.Go(func() error {
		if err := db.CreateInBatches(ref.Suppliers, insertBatchSize).Error; err != nil {
			return err
		}
		return db.CreateInBatches(inventory, insertBatchSize).Error
	})
	g.Go(func() error {
		return db.CreateInBatches(ref.Products, insertBatchSize).Error
	})
	g.Go(func() error {
		if err := db.CreateInBatches(ref.WorkCenters, insertBatchSize).Error; err != nil {
			return err
		}
		return db.CreateInBatches(ref.Machines, insertBatchSize).Error
	})
	g.Go(func() error {
		if err := db.CreateInBatches(ref.Shifts, insertBatchSize).Error; err != nil {
			return err
		}
		return db.CreateInBatches(ref.Employees, insertBatchSize).Error
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return db.CreateInBatches(ref.BOM, insertBatchSize).Error
}

// writeTimeSeries 事务数据按外键顺序落盘。计划终点越过窗口终点的
// 排程中工单不落盘，排程中工单没有子行所以不会悬空
func writeTimeSeries(db *gorm.DB, res *sim.Result, windowEnd time.Time) error {
	var orders []entity.WorkOrder
	var checks []entity.QualityControlCheck
	var defects []entity.Defect
	var downtimes []entity.Downtime
	var oee []entity.OEEMetric
	var consumption []entity.MaterialConsumption
	var shortages []entity.InventoryShortage

	for _, dr := range res.Days {
		for _, wo := range dr.WorkOrders {
			if wo.Status == entity.WOStatusScheduled && wo.PlannedEndTime.After(windowEnd) {
				continue
			}
			orders = append(orders, wo)
		}
		checks = append(checks, dr.QCChecks...)
		defects = append(defects, dr.Defects...)
		downtimes = append(downtimes, dr.Downtimes...)
		oee = append(oee, dr.OEE...)
		consumption = append(consumption, dr.Consumption...)
		shortages = append(shortages, dr.Shortages...)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"work orders", func() error { return batch(db, orders) }},
		{"quality checks", func() error { return batch(db, checks) }},
		{"defects", func() error { return batch(db, defects) }},
		{"downtimes", func() error { return batch(db, downtimes) }},
		{"oee metrics", func() error { return batch(db, oee) }},
		{"material consumption", func() error { return batch(db, consumption) }},
		{"inventory shortages", func() error { return batch(db, shortages) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("write %s: %w", step.name, err)
		}
	}
	return nil
}

func batch[T any](db *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.CreateInBatches(rows, insertBatchSize).Error
}

// trimTimeSeries 删掉滑窗后落在 [newStart, cutHigh) 之外的时序行。
// Defects 没有日期列，靠主键按日分段的区间删除
func trimTimeSeries(tx *gorm.DB, newStart, cutHigh time.Time) error {
	type trim struct {
		model  interface{}
		column string
	}
	trims := []trim{
		{&entity.WorkOrder{}, "planned_start_time"},
		{&entity.QualityControlCheck{}, "date"},
		{&entity.Downtime{}, "start_time"},
		{&entity.OEEMetric{}, "date"},
		{&entity.MaterialConsumption{}, "consumption_date"},
		{&entity.InventoryShortage{}, "date"},
	}
	for _, t := range trims {
		cond := fmt.Sprintf("%s < ? OR %s >= ?", t.column, t.column)
		if err := tx.Where(cond, newStart, cutHigh).Delete(t.model).Error; err != nil {
			return err
		}
	}
	low := sim.OrderIDLowerBound(newStart)
	high := sim.OrderIDLowerBound(cutHigh)
	return tx.Where("check_id < ? OR check_id >= ?", low, high).Delete(&entity.Defect{}).Error
}
