package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"intcode/pkg/config"
	"intcode/pkg/memory"
	"intcode/pkg/program"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// wordList collects repeated or comma-separated integer flags.
type wordList []memory.Word

func (w *wordList) String() string {
	if w == nil {
		return ""
	}
	return program.Format(*w)
}

func (w *wordList) Set(value string) error {
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", field)
		}
		*w = append(*w, v)
	}
	return nil
}

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	configPath  string
	programPath string
	dataPath    string
	verbosity   int
	logFile     string
	memorySize  int
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to an intcode.toml configuration file")
	fs.StringVar(&c.programPath, "program", "", "Path to the program file (comma-separated integers)")
	fs.StringVar(&c.dataPath, "data-path", "", "Path to the result store directory")
	fs.IntVar(&c.verbosity, "verbosity", 0, "Log verbosity (0 = notices, 1 = info, 2 = per-instruction trace)")
	fs.StringVar(&c.logFile, "log-file", "", "Write logs to this file instead of stderr")
	fs.IntVar(&c.memorySize, "memory-size", 0, "Zero-extend program memory to at least this many words")
}

// load merges the config file with the flags that were set explicitly and
// configures logging.
func (c *commonFlags) load(fs *flag.FlagSet) *config.Config {
	cfg := config.Default()
	if c.configPath != "" {
		var err error
		cfg, err = config.Load(c.configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "program":
			cfg.Program.Path = c.programPath
		case "data-path":
			cfg.Store.Path = c.dataPath
		case "verbosity":
			cfg.Log.Verbosity = c.verbosity
		case "log-file":
			cfg.Log.File = c.logFile
		case "memory-size":
			cfg.Program.MemorySize = c.memorySize
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var logPath *string
	if cfg.Log.File != "" {
		logPath = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity, logPath)

	return cfg
}

func loadProgram(cfg *config.Config) []memory.Word {
	if cfg.Program.Path == "" {
		log.Fatal("Error: --program flag (or program.path in the config) is required")
	}
	image, err := program.Load(cfg.Program.Path)
	if err != nil {
		log.Fatalf("Failed to load program: %v", err)
	}
	return image
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: intcode <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  run      Run a program with the given inputs and print its outputs\n")
	fmt.Fprintf(os.Stderr, "  patch    Set addresses 1 and 2 (noun, verb), run, and print address 0\n")
	fmt.Fprintf(os.Stderr, "  search   Find the amplifier phase ordering with the highest signal\n")
	fmt.Fprintf(os.Stderr, "  history  List cached search results for a program\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  intcode run -program day05.txt -input 5\n")
	fmt.Fprintf(os.Stderr, "  intcode patch -program day02.txt -noun 12 -verb 2\n")
	fmt.Fprintf(os.Stderr, "  intcode search -program day07.txt -stages 5\n")
	fmt.Fprintf(os.Stderr, "  intcode search -config intcode.toml -skip-faults\n")
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "run":
		err = runCommand(args)
	case "patch":
		err = patchCommand(args)
	case "search":
		err = searchCommand(args)
	case "history":
		err = historyCommand(args)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}
