package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	oruby "github.com/oruby/world"
	_ "github.com/oruby/world/gem/world"
	"github.com/oruby/world/internal/config"
	"github.com/oruby/world/internal/journal"
	"github.com/oruby/world/internal/platform"
)

type Args struct {
	rfp         string
	argv        []string
	elines      listFlag
	libs        listFlag
	config      string
	journal     string
	journalDump bool
	verbose     bool
	debug       bool
	flagsSet    map[string]bool
	version     bool
	copyright   bool
	showVersion bool
}

// listFlag is repeatable string flag
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(s string) error {
	*l = append(*l, s)
	return nil
}

func usage(w io.Writer, name string) {
	usageMsg := []string{
		"switches:",
		"-d            set debugging flags (set $DEBUG to true)",
		"-e 'command'  one line of script",
		"-r library    require the library before executing your script",
		"-config path  YAML config file (default $" + config.EnvVar + ")",
		"-journal path record World calls into SQLite journal",
		"-journal-dump print journal entries after the run",
		"-v            print version number, then run in verbose mode",
		"--verbose     run in verbose mode",
		"--version     print the version",
		"--copyright   print the copyright",
	}

	fmt.Fprintf(w, "Usage: %v [switches] [programfile] [arguments]\n", name)
	for _, line := range usageMsg {
		fmt.Fprintf(w, "  %v\n", line)
	}
}

func parseArgs(name string, argv []string, stderr io.Writer) (*Args, error) {
	args := &Args{}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr, name) }

	fs.BoolVar(&args.debug, "d", false, "set debugging flags (set $DEBUG to true)")
	fs.Var(&args.elines, "e", "one line of script")
	fs.Var(&args.libs, "r", "require the library before executing your script")
	fs.StringVar(&args.config, "config", "", "YAML config file")
	fs.StringVar(&args.journal, "journal", "", "record World calls into SQLite journal")
	fs.BoolVar(&args.journalDump, "journal-dump", false, "print journal entries after the run")
	fs.BoolVar(&args.showVersion, "v", false, "print version number, then run in verbose mode")
	fs.BoolVar(&args.verbose, "verbose", false, "run in verbose mode")
	fs.BoolVar(&args.version, "version", false, "print the version")
	fs.BoolVar(&args.copyright, "copyright", false, "print the copyright")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	for _, lib := range args.libs {
		if lib == "" {
			err := fmt.Errorf("%v: No library specified for -r", name)
			fmt.Fprintln(stderr, err)
			return nil, err
		}
	}

	args.flagsSet = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { args.flagsSet[f.Name] = true })

	args.argv = fs.Args()
	if len(args.elines) == 0 && len(args.argv) > 0 {
		args.rfp = args.argv[0]
		args.argv = args.argv[1:]
	}

	if args.showVersion {
		args.verbose = true
	}

	return args, nil
}

// switchValue returns value of verbose or debug switch if any of names was given
func (args *Args) switchValue(names ...string) *bool {
	for _, name := range names {
		if !args.flagsSet[name] {
			continue
		}
		switch name {
		case "d":
			return &args.debug
		default:
			return &args.verbose
		}
	}
	return nil
}

func showVersion(w io.Writer) {
	fmt.Fprintf(w, "%v [%v]\n", oruby.MRubyDescription(), platform.Name())
}

func showCopyright(w io.Writer) {
	fmt.Fprintln(w, oruby.MRubyCopyright())
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(osArgs []string, stdout, stderr io.Writer) int {
	name := filepath.Base(osArgs[0])
	logger := log.New(stderr, name+": ", 0)

	exitFailure := func(format string, v ...interface{}) int {
		logger.Printf(format, v...)
		return 1
	}

	args, err := parseArgs(name, osArgs[1:], stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 1
	}

	if args.version {
		showVersion(stdout)
		return 0
	}
	if args.copyright {
		showCopyright(stdout)
		return 0
	}
	if args.showVersion {
		showVersion(stdout)
	}

	if args.rfp == "" && len(args.elines) == 0 {
		if args.showVersion {
			return 0
		}
		usage(stderr, name)
		return 1
	}

	cfg, err := config.Load(config.Path(args.config))
	if err != nil {
		return exitFailure("%v", err)
	}
	cfg = cfg.Merge(args.libs, args.journal, args.switchValue("verbose", "v"), args.switchValue("d"))

	if args.journalDump && cfg.Journal == "" {
		return exitFailure("-journal-dump requires a journal, set -journal or journal in config")
	}

	mrb, err := oruby.New()
	if err != nil {
		return exitFailure("Invalid mrb_state, exiting %v: %v", name, err)
	}
	defer mrb.Close()

	mrb.SetStdout(stdout)

	ctx := context.Background()

	if cfg.Journal != "" {
		j, err := journal.Open(ctx, cfg.Journal)
		if err != nil {
			return exitFailure("%v", err)
		}
		defer j.Close()

		mrb.OnGoCall(func(call oruby.GoCall) {
			if err := j.Record(ctx, entryOf(call)); err != nil {
				logger.Printf("%v", err)
			}
		})

		if args.journalDump {
			defer dumpJournal(ctx, j, stdout, logger)
		}
	}

	ai := mrb.GCArenaSave()
	mrb.DefineGlobalConst("ARGV", mrb.Value(args.argv))
	mrb.SetGV("$DEBUG", cfg.Debug)

	cmdline := "-e"
	if args.rfp != "" {
		cmdline = args.rfp
	}
	mrb.SetGV("$0", cmdline)

	// Load libraries, Go gems first, then files
	for _, lib := range cfg.Require {
		if oruby.GemExists(lib) {
			if _, err := mrb.Require(lib); err != nil {
				return exitFailure("%v", err)
			}
			continue
		}

		if _, err := mrb.LoadFile(lib); err != nil {
			if os.IsNotExist(err) {
				return exitFailure("cannot load such file -- %v", lib)
			}
			return exitFailure("%v: %v", lib, err)
		}
	}

	// Load program
	var v oruby.Value
	if args.rfp != "" {
		v, err = mrb.LoadFile(args.rfp)
	} else {
		v, err = mrb.LoadString(strings.Join(args.elines, "\n"))
	}

	if err != nil {
		return exitFailure("%v", err)
	}

	if cfg.Verbose {
		inspect, err := mrb.Funcall(v, "inspect")
		if err != nil {
			return exitFailure("%v", err)
		}
		fmt.Fprintf(stdout, " => %v\n", mrb.String(inspect))
	}

	mrb.GCArenaRestore(ai)

	return 0
}

// entryOf converts Go call to journal entry
func entryOf(call oruby.GoCall) journal.Entry {
	e := journal.Entry{
		Class:    call.Class,
		Method:   call.Method,
		Receiver: receiverID(call.Receiver),
		Args:     make([]string, len(call.Args)),
	}

	for i, arg := range call.Args {
		e.Args[i] = fmt.Sprint(arg)
	}

	results := make([]string, len(call.Results))
	for i, r := range call.Results {
		results[i] = fmt.Sprint(r)
	}
	e.Result = strings.Join(results, ", ")

	if call.Err != nil {
		e.Error = call.Err.Error()
	}

	return e
}

// receiverID identifies receiver, pointers by address
func receiverID(recv interface{}) string {
	rv := reflect.ValueOf(recv)
	if rv.Kind() == reflect.Ptr {
		return fmt.Sprintf("%T@%#x", recv, rv.Pointer())
	}
	return fmt.Sprintf("%T", recv)
}

func dumpJournal(ctx context.Context, j *journal.Journal, w io.Writer, logger *log.Logger) {
	entries, err := j.Entries(ctx)
	if err != nil {
		logger.Printf("%v", err)
		return
	}

	for _, e := range entries {
		args := make([]string, len(e.Args))
		for i := range e.Args {
			args[i] = fmt.Sprintf("%q", e.Args[i])
		}

		line := fmt.Sprintf("#%d %v#%v(%v)", e.ID, e.Class, e.Method, strings.Join(args, ", "))
		if e.Error != "" {
			line += " raised " + e.Error
		} else if e.Result != "" {
			line += fmt.Sprintf(" => %q", e.Result)
		}
		fmt.Fprintln(w, line)
	}
}
