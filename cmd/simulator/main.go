// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/eduproj/educpu/config"
	"github.com/eduproj/educpu/cpu"
	"github.com/eduproj/educpu/format"
	"github.com/eduproj/educpu/sink"
)

func main() {
	var trace bool
	var maxCycles int
	var configPath string

	flag.BoolVar(&trace, "trace", false, "print a per-instruction trace to stderr")
	flag.IntVar(&maxCycles, "max-cycles", 0, "cycle cap (default from config, else 65536)")
	flag.StringVar(&configPath, "config", config.DefaultPath, "path to .educpu.toml")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("%v: usage: %v [--trace] [--max-cycles N] <file>...", os.Args[0], os.Args[0])
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("%v: %v", configPath, err)
	}
	if !trace {
		trace = cfg.Trace
	}
	if maxCycles == 0 {
		maxCycles = cfg.MaxCycles
	}
	if maxCycles == 0 {
		maxCycles = 65536
	}

	files := make([]format.NamedFile, 0, flag.NArg())
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("%v: %v", path, err)
		}
		files = append(files, format.NamedFile{Path: path, Data: data})
	}

	image, err := format.LoadFiles(files)
	if err != nil {
		log.Fatal(err)
	}

	c := &cpu.Cpu{Out: &sink.Writer{W: os.Stdout}}
	c.LoadImage(image)

	if trace {
		c.Trace = func(s cpu.Snapshot) {
			fmt.Fprintf(os.Stderr, "  %v\n", s)
		}
	}

	if err := c.Run(maxCycles); err != nil {
		fmt.Fprintf(os.Stderr, "\nRuntime error: %v\n", err)
		os.Exit(1)
	}

	if trace {
		fmt.Fprintf(os.Stderr, "\nHalted after %d cycles.\n", c.Cycles)
	}
}
