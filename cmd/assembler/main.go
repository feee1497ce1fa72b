// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/eduproj/educpu/config"
	"github.com/eduproj/educpu/cpu"
	"github.com/eduproj/educpu/format"
)

func main() {
	var format_ string
	var configPath string

	flag.StringVar(&format_, "format", "", "object format: bin, hex, or srec (default from config, else bin)")
	flag.StringVar(&configPath, "config", config.DefaultPath, "path to .educpu.toml")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("%v: usage: %v <source.asm>", os.Args[0], os.Args[0])
	}
	source := flag.Arg(0)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("%v: %v", configPath, err)
	}
	if format_ == "" {
		format_ = cfg.Format
	}
	if format_ == "" {
		format_ = "bin"
	}

	inf, err := os.Open(source)
	if err != nil {
		log.Fatalf("%v: %v", source, err)
	}
	defer inf.Close()

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(inf)
	if err != nil {
		log.Fatalf("%v: %v", source, err)
	}

	base := strings.TrimSuffix(source, ".asm")

	var objPath, objData string
	switch strings.ToLower(format_) {
	case "bin":
		objPath = base + ".bin"
		if err := os.WriteFile(objPath, format.WriteBinary(prog.Image), 0o644); err != nil {
			log.Fatalf("%v: %v", objPath, err)
		}
	case "hex":
		objPath = base + ".hex"
		objData = format.WriteIntelHex(prog.Image)
	case "srec":
		objPath = base + ".srec"
		objData = format.WriteSRecord(prog.Image)
	default:
		log.Fatalf("%v: unknown format %q", os.Args[0], format_)
	}

	if objData != "" {
		if err := os.WriteFile(objPath, []byte(objData), 0o644); err != nil {
			log.Fatalf("%v: %v", objPath, err)
		}
	}

	lstPath := base + ".lst"
	lstFile, err := os.Create(lstPath)
	if err != nil {
		log.Fatalf("%v: %v", lstPath, err)
	}
	defer lstFile.Close()

	if err := writeListing(lstFile, prog); err != nil {
		log.Fatalf("%v: %v", lstPath, err)
	}
}
