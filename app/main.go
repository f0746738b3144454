package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/talentflow/talentflow/app/api"
	"github.com/talentflow/talentflow/app/seed"
	"github.com/talentflow/talentflow/app/store"
)

var opts struct {
	Listen string `short:"l" long:"listen" env:"TALENTFLOW_LISTEN" default:":8080" description:"listen address"`
	DBPath string `short:"d" long:"db" env:"TALENTFLOW_DB" default:"talentflow.db" description:"database file"`

	Seed struct {
		Disabled       bool    `long:"disabled" env:"DISABLED" description:"skip seeding an empty database"`
		Jobs           int     `long:"jobs" env:"JOBS" default:"25" description:"number of jobs to generate"`
		Candidates     int     `long:"candidates" env:"CANDIDATES" default:"1000" description:"number of candidates to generate"`
		AssessmentRate float64 `long:"assessment-rate" env:"ASSESSMENT_RATE" default:"0.7" description:"fraction of jobs getting an assessment"`
	} `group:"seed" namespace:"seed" env-namespace:"TALENTFLOW_SEED"`

	Sim struct {
		ErrorRate float64       `long:"error-rate" env:"ERROR_RATE" default:"0.05" description:"probability of an injected 500 per request"`
		MinDelay  time.Duration `long:"min-delay" env:"MIN_DELAY" default:"200ms" description:"minimum artificial latency"`
		MaxDelay  time.Duration `long:"max-delay" env:"MAX_DELAY" default:"1200ms" description:"maximum artificial latency"`
	} `group:"sim" namespace:"sim" env-namespace:"TALENTFLOW_SIM"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"talentflow.log" description:"log file name"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max size of log file in MB"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of rotated log files"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max age of rotated log files in days"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"enable compression of rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"TALENTFLOW_LOG"`

	Dbg bool `long:"dbg" env:"TALENTFLOW_DEBUG" description:"debug mode"`
}

var revision = "unknown"

func main() {
	fmt.Printf("talentflow %s\n", revision)

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	log.Setup(log.Out(setupLogs()), log.Msec)
	if opts.Dbg {
		log.Setup(log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel) // handle SIGQUIT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	st, err := store.New(opts.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store at %s: %w", opts.DBPath, err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("[WARN] failed to close store: %v", err)
		}
	}()

	if !opts.Seed.Disabled {
		gen, err := seed.New(seed.Config{
			Jobs:           opts.Seed.Jobs,
			Candidates:     opts.Seed.Candidates,
			AssessmentRate: opts.Seed.AssessmentRate,
		})
		if err != nil {
			return fmt.Errorf("failed to create seed generator: %w", err)
		}
		if err := gen.Seed(st); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
	}

	srv, err := api.New(api.Config{
		Store:     st,
		Version:   revision,
		ErrorRate: opts.Sim.ErrorRate,
		MinDelay:  opts.Sim.MinDelay,
		MaxDelay:  opts.Sim.MaxDelay,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // failure simulation, not security sensitive
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx, opts.Listen)
}

func setupLogs() io.Writer {
	if !opts.Log.Enabled {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   opts.Log.Filename,
		MaxSize:    opts.Log.MaxSize,
		MaxBackups: opts.Log.MaxBackups,
		MaxAge:     opts.Log.MaxAge,
		Compress:   opts.Log.EnabledCompress,
	}
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			cancel() // terminate on SIGTERM
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM)
}
