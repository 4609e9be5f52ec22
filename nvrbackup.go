// Copyright 2025 CamVault, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/alecthomas/kingpin/v2"
	"github.com/camvault/nvrbackup/cameras"
	"github.com/camvault/nvrbackup/config"
	"github.com/camvault/nvrbackup/destination"
	"github.com/camvault/nvrbackup/ledger"
	"github.com/camvault/nvrbackup/metrics"
	"github.com/camvault/nvrbackup/purge"
	"github.com/camvault/nvrbackup/rclone"
	"github.com/camvault/nvrbackup/spool"
	"github.com/camvault/nvrbackup/uploader"
	"github.com/camvault/nvrbackup/videoqueue"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func setupLogger() func() {
	var logger *zap.Logger
	var err error
	if term.IsTerminal(int(os.Stdin.Fd())) {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)

	return func() {
		_ = logger.Sync()
	}
}

func setupInterruptContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		select {
		case sig := <-c:
			zap.S().Infow("shutting_down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	onExit := func() {
		signal.Stop(c)
		cancel()
	}
	return ctx, onExit
}

func setupProfile() func() {
	if pprofFile == nil || *pprofFile == "" {
		return func() {
		}
	}
	f, err := os.Create(*pprofFile)
	if err != nil {
		panic(err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		panic(err)
	}
	return func() {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			panic(err)
		}
	}
}

var (
	pprofFile = kingpin.Flag("pprof.cpu.file", "Enable cpu profiling to this file.").String()

	metricsListenAddress = kingpin.Flag("web.listen-address", "Address on which to expose metrics.").String()
	metricsPath          = kingpin.Flag("web.telemetry-path", "Path under which to expose metrics.").Default("/metrics").String()

	configFile = kingpin.Flag("config", "Location of the yaml config file.").Required().String()

	_ = kingpin.Command("run", "Drain the spool directory and upload videos. (Foreground Daemon)")

	listCmd = kingpin.Command("list", "")
	_       = listCmd.Command("events", "List events recorded in the ledger.")
	_       = listCmd.Command("backups", "List backups recorded in the ledger.")
)

func main() {
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate)
	cmd := kingpin.Parse()

	sync := setupLogger()
	defer sync()
	lgr := zap.S()

	ctx, onExit := setupInterruptContext()
	defer onExit()

	stopProfile := setupProfile()
	defer stopProfile()

	metrics.SetupPrometheus(metricsListenAddress, metricsPath)

	cfg, err := config.Load(*configFile)
	if err != nil {
		lgr.Fatalw("config_error", "err", err)
	}

	switch cmd {
	case "run":
		err := runDaemon(ctx, cfg)
		if err == context.Canceled {
			return
		}
		if err != nil {
			lgr.Fatalw("run_error", "err", err)
		}
	case "list events":
		ledg := openLedger(cfg)
		defer closeLedger(ledg)
		events, err := ledg.Events(ctx)
		if err != nil {
			lgr.Fatalw("list_events_error", "err", err)
		}
		for _, ev := range events {
			lgr.Infow("got_event",
				"event_id", ev.EventID,
				"type", ev.Type,
				"camera_id", ev.CameraID,
				"start", ev.StartEpoch.String(),
				"end", ev.EndEpoch.String())
		}
	case "list backups":
		ledg := openLedger(cfg)
		defer closeLedger(ledg)
		backups, err := ledg.Backups(ctx)
		if err != nil {
			lgr.Fatalw("list_backups_error", "err", err)
		}
		for _, b := range backups {
			lgr.Infow("got_backup", "event_id", b.EventID, "remote", b.Remote, "path", b.Path)
		}
	default:
		lgr.Fatalw("unhandled_command", "cmd", cmd)
	}
}

func openLedger(cfg *config.Config) *ledger.Ledger {
	ledg, err := ledger.Open(cfg.LedgerFile)
	if err != nil {
		zap.S().Fatalw("ledger_open_error", "err", err)
	}
	return ledg
}

func closeLedger(ledg *ledger.Ledger) {
	if err := ledg.Close(); err != nil {
		zap.S().Errorw("ledger_close_error", "err", err)
	}
}

func runDaemon(ctx context.Context, cfg *config.Config) error {
	lgr := zap.S()

	tmpl, err := destination.ParseTemplate(cfg.FileStructure)
	if err != nil {
		return err
	}

	ledg, err := ledger.Open(cfg.LedgerFile)
	if err != nil {
		return err
	}
	defer closeLedger(ledg)

	var resolver cameras.Resolver = cameras.Static(cfg.Cameras)
	if cfg.CameraCacheFile != "" {
		cached, err := cameras.OpenCached(cfg.CameraCacheFile, 0644, resolver)
		if err != nil {
			return err
		}
		defer func() {
			if err := cached.Close(); err != nil {
				lgr.Errorw("camera_cache_close_error", "err", err)
			}
		}()
		resolver = cached
	}

	rcloneClient := rclone.NewClient(cfg.RcloneArgs)
	queue := videoqueue.New(cfg.QueueMaxBytes)

	scanner := &spool.Scanner{Dir: cfg.SpoolDir, Queue: queue}
	go func() {
		if err := scanner.Run(ctx); err != nil && err != context.Canceled {
			lgr.Errorw("spool_scanner_error", "err", err)
		}
	}()

	if cfg.Retention > 0 {
		purger := &purge.Purger{
			Ledger:    ledg,
			Remote:    rcloneClient,
			Retention: cfg.Retention.Std(),
		}
		go func() {
			if err := purger.Run(ctx); err != nil && err != context.Canceled {
				lgr.Errorw("purge_error", "err", err)
			}
		}()
	}

	up := &uploader.Uploader{
		Queue: queue,
		Resolver: &destination.Resolver{
			Root:     cfg.Destination,
			Template: tmpl,
			Cameras:  resolver,
		},
		Transfer: rcloneClient,
		Ledger:   ledg,
	}
	return up.Run(ctx)
}
