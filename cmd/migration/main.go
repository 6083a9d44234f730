package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cmd, args := strings.ToLower(strings.TrimSpace(os.Args[1])), os.Args[2:]
	var err error
	if cmd == "dedup" {
		err = runDedup(args)
	} else if run, ok := schemaCommands[cmd]; ok {
		err = runSchema(run, args)
	} else {
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func printUsage() {
	bin := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down|version|force|goto|dedup> [args]\n", bin)
	fmt.Fprintln(os.Stderr, "schema:")
	fmt.Fprintf(os.Stderr, "  %s up\n", bin)
	fmt.Fprintf(os.Stderr, "  %s down 1\n", bin)
	fmt.Fprintf(os.Stderr, "  %s version\n", bin)
	fmt.Fprintf(os.Stderr, "  %s force 1771776034\n", bin)
	fmt.Fprintf(os.Stderr, "  %s goto 1771776034\n", bin)
	fmt.Fprintln(os.Stderr, "legacy player deduplication:")
	fmt.Fprintf(os.Stderr, "  %s dedup members\n", bin)
	fmt.Fprintf(os.Stderr, "  %s dedup matches --max-workers 8\n", bin)
	fmt.Fprintf(os.Stderr, "  %s dedup recompute --reset-gate\n", bin)
	fmt.Fprintf(os.Stderr, "  %s dedup all --legacy-file ./legacy.json\n", bin)
}
