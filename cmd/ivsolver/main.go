package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"IVSolver/internal/batch"
	"IVSolver/internal/collector"
	"IVSolver/internal/config"
	"IVSolver/internal/logging"
	"IVSolver/internal/notifier"
	"IVSolver/internal/recorder"
	"IVSolver/internal/scheduler"
	"IVSolver/internal/server"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] [input.csv output.csv [lines]]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the YAML config file")
	flag.Usage = usage
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := applyArgs(cfg, flag.Args()); err != nil {
		usage()
		log.Fatalf("[FATAL] %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	logCloser := logging.Setup(logging.Options{
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer logCloser.Close()
	log.Println("[INFO] IVSolver starting...")

	opts := cfg.SolverOptions()
	log.Printf("[INFO] solver: tolerance=%g max_iterations=%d ladder=%v",
		opts.Tolerance, opts.MaxIterations, cfg.Solver.Ladders.Default)

	metrics := batch.NewMetrics()
	runner := batch.NewRunner(cfg.Engine(), cfg.Batch.Workers, cfg.Batch.ProgressEvery, metrics)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Telegram is optional
	var tn *notifier.TelegramNotifier
	var n scheduler.Notifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sched *scheduler.Scheduler
	if cfg.Batch.Input != "" {
		src := collector.NewSource(cfg.Batch.Input, cfg.Proxy)
		col := collector.NewCollector(src, cfg.Batch.Lines)
		sched = scheduler.NewScheduler(ctx, col, runner, cfg.Batch.Output, n, rec)
	}

	daemon := cfg.Schedule.Cron != "" || cfg.Server.Addr != ""
	if !daemon {
		if sched == nil {
			usage()
			log.Println("[FATAL] no input configured")
			return 2
		}
		return runOnce(sched)
	}

	if cfg.Schedule.Cron != "" {
		if sched == nil {
			log.Println("[FATAL] schedule.cron requires batch.input")
			return 2
		}
		if err := sched.Register(cfg.Schedule.Cron); err != nil {
			log.Printf("[FATAL] register cron task: %v", err)
			return 1
		}
		sched.Start()
		defer sched.Stop()
	}

	if cfg.Server.Addr != "" {
		var trigger server.BatchTrigger
		if sched != nil {
			trigger = sched
		}
		srv := server.New(runner, rec, trigger)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				log.Printf("[ERROR] http server: %v", err)
				cancel()
			}
		}()
	}

	if tn.Enabled() && sched != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" && sched != nil {
		log.Println("[INFO] RUN_ON_START enabled, executing batch now")
		go func() {
			if _, err := sched.RunBatchNow(); err != nil {
				log.Printf("[ERROR] startup batch: %v", err)
			}
		}()
	}

	log.Println("[INFO] IVSolver is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()
	log.Println("[INFO] IVSolver stopped")
	return 0
}

// applyArgs lets positional arguments override the batch section.
func applyArgs(cfg *config.Config, args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 2, 3:
		cfg.Batch.Input, cfg.Batch.Output = args[0], args[1]
		if len(args) == 3 {
			lines, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("lines must be an integer: %w", err)
			}
			cfg.Batch.Lines = lines
		}
		return nil
	default:
		return fmt.Errorf("wrong number of arguments: %d", len(args))
	}
}

func runOnce(sched *scheduler.Scheduler) int {
	start := time.Now()
	summary, err := sched.RunBatchNow()
	if err != nil {
		log.Printf("[ERROR] batch: %v", err)
		return 1
	}
	fmt.Printf("--- total number of nan results: %d ---\n", summary.NaNCount)
	fmt.Printf("--- took %.3f seconds ---\n", time.Since(start).Seconds())
	return 0
}
