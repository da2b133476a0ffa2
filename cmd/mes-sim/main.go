package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/bitfantasy/mes-sim/internal/config"
	"github.com/bitfantasy/mes-sim/internal/model/entity"
	"github.com/bitfantasy/mes-sim/internal/sim"
	"github.com/bitfantasy/mes-sim/internal/store"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 退出码约定
const (
	exitConfig  = 2
	exitRefData = 3
	exitSchema  = 4
	exitStoreIO = 5
)

func main() {
	var (
		poolsPath = pflag.String("config", "configs/data_pools.yaml", "value-pool document (yaml or json)")
		storePath = pflag.String("store", "mes.db", "sqlite store path")
		lookback  = pflag.Int("lookback", config.DefaultLookbackDays, "historical days to simulate")
		lookahead = pflag.Int("lookahead", config.DefaultLookaheadDays, "future days to schedule")
		mode      = pflag.String("mode", config.DefaultMode, "create|refresh|auto")
		seed      = pflag.Int64("seed", 0, "rng seed, omit for a time-based one")
		logJSON   = pflag.Bool("log-json", false, "emit json logs")
	)
	pflag.Parse()

	logger, err := initLogger(*logJSON)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting mes-sim",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	params := &config.Params{
		LookbackDays:  *lookback,
		LookaheadDays: *lookahead,
		Mode:          *mode,
		Seed:          *seed,
		SeedSet:       pflag.CommandLine.Changed("seed"),
		PoolsPath:     *poolsPath,
		StorePath:     *storePath,
	}
	if !params.SeedSet {
		params.Seed = time.Now().UnixNano()
		logger.Info("no seed given, run will not be reproducible", zap.Int64("seed", params.Seed))
	}

	if err := params.Validate(); err != nil {
		logger.Error("invalid parameters", zap.Error(err))
		os.Exit(exitConfig)
	}
	pools, err := config.LoadPools(params.PoolsPath)
	if err != nil {
		logger.Error("value-pool document rejected", zap.Error(err))
		os.Exit(exitConfig)
	}

	ctx := context.Background()
	st := store.New(params.StorePath, logger)
	switch params.Mode {
	case entity.ModeCreate:
		err = st.Create(ctx, params, pools)
	case entity.ModeRefresh:
		err = st.Refresh(ctx, params, pools)
	default:
		err = st.Auto(ctx, params, pools)
	}
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(exitCode(err))
	}
	logger.Info("done", zap.String("store", params.StorePath))
}

func exitCode(err error) int {
	var vErr *config.ValidationError
	var refErr *sim.ReferenceError
	switch {
	case errors.As(err, &vErr):
		return exitConfig
	case errors.As(err, &refErr):
		return exitRefData
	case errors.Is(err, store.ErrSchemaMismatch):
		return exitSchema
	default:
		return exitStoreIO
	}
}

func initLogger(json bool) (*zap.Logger, error) {
	if json {
		return zap.NewProduction()
	}
	cfg := zap.NewDevelopmentConfig()
	return cfg.Build()
}
