// Command concolic wires the hybrid solving layer (C1-C8) against a static
// type catalog: it loads configuration, builds the vmadapter.TypeUniverse
// and source index for a given program directory, and either prints a
// diagnostic dump (--explain-types, --dump-session) or a one-shot summary of
// how the hybrid context would be constructed for that program. Driving an
// actual concolic exploration loop requires an UnderlyingSolver and Explorer,
// both out of scope here (see internal/concolic/vmadapter.Explorer) and
// supplied by the embedding system; this binary exercises everything up to
// that boundary.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/funvibe/concolic/internal/concolic/config"
	"github.com/funvibe/concolic/internal/concolic/dispatch"
	"github.com/funvibe/concolic/internal/concolic/oracle"
	"github.com/funvibe/concolic/internal/concolic/sessionlog"
	"github.com/funvibe/concolic/internal/concolic/sourcectx"
	"github.com/funvibe/concolic/internal/concolic/vmadapter"
	rootconfig "github.com/funvibe/concolic/internal/config"
	"github.com/funvibe/concolic/internal/utils"
)

func newLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		log.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return logrus.NewEntry(log)
}

func main() {
	var (
		configPath   = flag.String("config", "", "path to a concolic.yaml override file")
		dumpSession  = flag.String("dump-session", "", "path to a session log database; print its entries and exit")
		explainTypes = flag.Bool("explain-types", false, "print the ancestor chain and interface closure for every type in the catalog and exit")
		sourceDir    = flag.String("source-dir", "", "directory to resolve per-class source text from, for the source-context collector")
		showVersion  = flag.Bool("version", false, "print the version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(rootconfig.Version)
		return
	}

	log := newLogger()

	if *dumpSession != "" {
		runDumpSession(log, *dumpSession)
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: concolic [flags] <type-catalog.yaml>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	universe, err := vmadapter.LoadStaticUniverse(args[0])
	if err != nil {
		log.WithError(err).Fatal("loading type catalog")
	}
	log = log.WithField("catalog", utils.ExtractModuleName(args[0]))

	var index sourcectx.SourceIndex
	if *sourceDir != "" {
		index = fileSourceIndex{dir: *sourceDir}
	} else {
		index = fileSourceIndex{}
	}

	if *explainTypes {
		runExplainTypes(universe)
		return
	}

	runSummary(log, cfg, universe, index)
}

// fileSourceIndex resolves a class's source by reading <dir>/<ClassName>
// with each of rootconfig.SourceFileExtensions tried in order; a
// best-effort convention for the demo CLI. With an empty dir, SourceFor
// always misses, matching the collector's "fall back gracefully" contract.
type fileSourceIndex struct {
	dir string
}

func (f fileSourceIndex) SourceFor(className string) (string, bool) {
	if f.dir == "" {
		return "", false
	}
	dir := utils.GetModuleDir(f.dir)
	for _, ext := range rootconfig.SourceFileExtensions {
		data, err := os.ReadFile(dir + "/" + className + ext)
		if err == nil {
			return string(data), true
		}
	}
	return "", false
}

func runExplainTypes(universe *vmadapter.StaticUniverse) {
	for _, name := range namesOf(universe) {
		info, ok := universe.ClassOf(name)
		if !ok {
			continue
		}
		fmt.Printf("%s:\n", name)
		fmt.Printf("  ancestors: %v\n", universe.AncestorChain(name))
		fmt.Printf("  interfaces: %v\n", universe.InterfaceClosure(name))
		if info.IsInterface {
			fmt.Printf("  implementors: %v\n", universe.Implementors(name, "", ""))
		}
	}
}

// namesOf enumerates every class/trait registered in the catalog. Without a
// live heap slice to walk (this binary never executes a program, only
// describes a catalog), every catalog entry stands in for "reachable from
// the current heap slice".
func namesOf(universe *vmadapter.StaticUniverse) []string {
	return universe.KnownTypeNames()
}

func runSummary(log *logrus.Entry, cfg config.Config, universe vmadapter.TypeUniverse, index sourcectx.SourceIndex) {
	oracleClient := oracle.NewClient(oracle.Config{URL: cfg.SolverService.URL, Timeout: cfg.SolverService.Timeout}, log)
	_ = sourcectx.NewCollector(cfg.Source, index, universe)
	_ = dispatch.New(dispatch.NewCallSiteCache(), universe, dispatch.FilterConfig{
		Enabled:  cfg.Dispatch.FilterEnabled,
		Packages: cfg.Dispatch.Packages,
	}, log)

	log.WithFields(logrus.Fields{
		"solver_service":   cfg.SolverService.URL,
		"heap_max_depth":   cfg.Heap.MaxDepth,
		"heap_max_objects": cfg.Heap.MaxObjects,
	}).Info("hybrid solving components wired; run() requires an UnderlyingSolver and Explorer supplied by the embedding system")
	_ = oracleClient
}

func runDumpSession(log *logrus.Entry, path string) {
	store, err := sessionlog.Open(path)
	if err != nil {
		log.WithError(err).Fatal("opening session log")
	}
	defer store.Close()

	entries, err := store.All()
	if err != nil {
		log.WithError(err).Fatal("reading session log")
	}
	for _, e := range entries {
		fmt.Printf("[%s] %s -> %s (%s)\n", e.RecordedAt, e.Hint, e.Result, e.Constraints)
	}
}
