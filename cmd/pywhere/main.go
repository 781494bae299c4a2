// pywhere resolves a recorded interpreter stack snapshot against a trace
// filter and prints the source location a sample would be charged to.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v3"
	log "github.com/sirupsen/logrus"

	"github.com/pywhere/pywhere"
	"github.com/pywhere/pywhere/interpreter/replay"
)

func main() {
	fs := flag.NewFlagSet("pywhere", flag.ExitOnError)
	var (
		stackPath  = fs.String("stack", "", "path to a JSON stack snapshot (required)")
		include    = fs.String("include", "", "comma-separated path fragments to profile")
		basePath   = fs.String("base-path", "", "files resolving under this path are profiled")
		profileAll = fs.Bool("profile-all", false, "record the profile-all flag in the filter")
		currentTID = fs.Uint64("current-thread", 0,
			"thread id the sample lands on (0: first thread in the snapshot)")
		verbose = fs.Bool("v", false, "verbose logging")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("PYWHERE")); err != nil {
		log.WithError(err).Fatal("failed to parse flags")
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *stackPath == "" {
		log.Fatal("-stack is required")
	}

	f, err := os.Open(*stackPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open stack snapshot")
	}
	defer f.Close()

	rt, err := replay.Load(f)
	if err != nil {
		log.WithError(err).Fatal("failed to load stack snapshot")
	}
	if *currentTID != 0 {
		rt.SetCurrent(*currentTID)
	}

	var patterns []string
	if *include != "" {
		patterns = strings.Split(*include, ",")
	}
	if err := pywhere.RegisterFilesToProfile(rt, patterns, *basePath, *profileAll); err != nil {
		log.WithError(err).Fatal("failed to register files to profile")
	}
	if *verbose {
		pywhere.PrintFilesToProfile()
	}

	loc, ok := pywhere.Published()()
	if !ok {
		fmt.Println("no profiled frame in snapshot")
		os.Exit(1)
	}
	fmt.Printf("%s:%d +%d\n", loc.File, loc.Line, loc.Instruction)
}
