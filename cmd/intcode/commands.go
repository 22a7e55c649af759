package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"intcode/pkg/amplifier"
	"intcode/pkg/config"
	"intcode/pkg/intcode"
	"intcode/pkg/program"
	"intcode/pkg/resultstore"
)

var stdout io.Writer = os.Stdout

func machineOptions(cfg *config.Config) []intcode.Option {
	var opts []intcode.Option
	if cfg.Program.MemorySize > 0 {
		opts = append(opts, intcode.WithMemorySize(cfg.Program.MemorySize))
	}
	return opts
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	var inputs wordList
	fs.Var(&inputs, "input", "Input value; repeat or comma-separate for several")
	fs.Parse(args)

	cfg := common.load(fs)
	image := loadProgram(cfg)

	m := intcode.New(image, inputs, machineOptions(cfg)...)
	if err := m.Run(); err != nil {
		return err
	}
	for _, out := range m.Outputs() {
		fmt.Fprintln(stdout, out)
	}
	return nil
}

func patchCommand(args []string) error {
	fs := flag.NewFlagSet("patch", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	noun := fs.Int64("noun", 12, "Value written to address 1")
	verb := fs.Int64("verb", 2, "Value written to address 2")
	fs.Parse(args)

	cfg := common.load(fs)
	image := loadProgram(cfg)

	result, err := intcode.Evaluate(image, *noun, *verb, machineOptions(cfg)...)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, result)
	return nil
}

func searchCommand(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	stages := fs.Int("stages", config.DefaultStages, "Number of amplifier stages (phases 0..stages-1)")
	var phases wordList
	fs.Var(&phases, "phases", "Explicit phase set, e.g. 5,6,7,8,9 (overrides -stages)")
	workers := fs.Int("workers", 0, "Concurrent evaluations (0 = GOMAXPROCS)")
	skipFaults := fs.Bool("skip-faults", false, "Leave faulting orderings out instead of aborting")
	noCache := fs.Bool("no-cache", false, "Do not read or write the result store")
	fs.Parse(args)

	cfg := common.load(fs)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stages":
			cfg.Search.Stages = *stages
			cfg.Search.Phases = nil
		case "workers":
			cfg.Search.Workers = *workers
		case "skip-faults":
			policy := amplifier.AbortOnFault
			if *skipFaults {
				policy = amplifier.SkipFaulting
			}
			cfg.Search.FaultPolicy = policy.String()
		}
	})
	if len(phases) > 0 {
		cfg.Search.Phases = phases
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	image := loadProgram(cfg)
	search := resultstore.Search{
		PhaseSet:    cfg.PhaseSet(),
		FaultPolicy: cfg.FaultPolicy(),
		MemorySize:  cfg.Program.MemorySize,
	}

	var store *resultstore.Store
	if !*noCache && !cfg.Store.Disabled && cfg.Store.Path != "" {
		var err error
		store, err = resultstore.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.LookupResult(image, search)
		switch {
		case err == nil:
			fmt.Fprintf(stdout, "signal=%d phases=%s (cached %s)\n", rec.Signal, program.Format(rec.Phases), rec.ID)
			return nil
		case !errors.Is(err, resultstore.ErrNotFound):
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := amplifier.NewNetwork(image, machineOptions(cfg)...).SearchPhases(ctx, search.PhaseSet,
		amplifier.WithWorkers(cfg.Search.Workers),
		amplifier.WithFaultPolicy(search.FaultPolicy),
	)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "signal=%d phases=%s (%s)\n", result.Signal, program.Format(result.Phases), time.Since(start).Round(time.Millisecond))

	if store != nil {
		if _, err := store.PutResult(image, search, result); err != nil {
			return err
		}
	}
	return nil
}

func historyCommand(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	hash := fs.String("hash", "", "Program hash as printed by history (instead of -program)")
	fs.Parse(args)

	cfg := common.load(fs)

	var h program.Hash
	if *hash != "" {
		var err error
		if h, err = program.ParseHash(*hash); err != nil {
			return err
		}
	} else {
		h = program.HashImage(loadProgram(cfg))
	}

	store, err := resultstore.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	image, err := store.GetProgram(h)
	if errors.Is(err, resultstore.ErrNotFound) {
		fmt.Fprintf(stdout, "no cached results for program %s\n", h)
		return nil
	}
	if err != nil {
		return err
	}
	records, err := store.ListResults(h)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "program %s (%d words)\n", h, len(image))
	for _, rec := range records {
		fmt.Fprintf(stdout, "%s set=%s signal=%d phases=%s policy=%s memory=%d at=%s\n",
			rec.ID, program.Format(rec.PhaseSet), rec.Signal, program.Format(rec.Phases),
			rec.FaultPolicy, rec.MemorySize, rec.Created().Format(time.RFC3339))
	}
	return nil
}
