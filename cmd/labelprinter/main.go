package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/dancollins/labelprinter/printer"
)

var (
	printerName = flag.StringP("printer", "p", "",
		"printer name (default: system default)")
	paperName = flag.StringP("paper-size", "s", "",
		"paper size name (default: printer default)")
	orientation = flag.StringP("orientation", "o", "portrait",
		"page orientation, landscape or portrait")
	dryRun = flag.BoolP("dry-run", "d", false,
		"do not print, just simulate the operation")
	verbose = flag.BoolP("verbose", "v", false,
		"enable verbose output")
	help = flag.BoolP("help", "h", false,
		"display this help message and exit")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] [filename...]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n%s", flag.CommandLine.FlagUsages())
	fmt.Fprintf(os.Stderr, "Arguments:\n")
	fmt.Fprintf(os.Stderr, "  filename	File(s) to process\n")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, " 🚨 %v\n", err)
	os.Exit(1)
}

func main() {
	flag.Usage = usage
	flag.CommandLine.SortFlags = false
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, " 🚨 No files to process!")
		usage()
		os.Exit(1)
	}

	o, err := printer.ParseOrientation(*orientation)
	if err != nil {
		fmt.Fprintf(os.Stderr, " 🚨 %v\n", err)
		usage()
		os.Exit(1)
	}

	// Verbose diagnostics go to standard output, failures to standard
	// error via fail.
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	backend, err := printer.SystemBackend()
	if err != nil {
		fail(err)
	}

	job := printer.Job{
		Backend:     backend,
		Printer:     *printerName,
		PaperName:   *paperName,
		Orientation: o,
		DryRun:      *dryRun,
		Files:       flag.Args(),
		Out:         os.Stdout,
		Log:         log,
	}
	if err := job.Run(); err != nil {
		fail(err)
	}
}
