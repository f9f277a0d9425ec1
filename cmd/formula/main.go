package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/KirkDiggler/dh-automation/internal/dice"
	"github.com/KirkDiggler/dh-automation/internal/formula"
)

// varsFlag collects repeated -var name=value pairs
type varsFlag formula.Vars

func (v varsFlag) String() string {
	parts := make([]string, 0, len(v))
	for k, val := range v {
		parts = append(parts, fmt.Sprintf("%s=%g", k, val))
	}
	return strings.Join(parts, ",")
}

func (v varsFlag) Set(s string) error {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("variable %s: %w", name, err)
	}
	v[strings.TrimPrefix(name, "@")] = n
	return nil
}

func main() {
	vars := varsFlag{}
	flag.Var(vars, "var", "formula variable as name=value (repeatable)")
	rolls := flag.Int("roll", 0, "roll the formula this many times")
	seed := flag.Int64("seed", 0, "dice seed; 0 uses the clock")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: formula [-var name=value] [-roll n] [-seed s] <formula>...")
		os.Exit(2)
	}

	roller := dice.NewRandomRoller()
	if *seed != 0 {
		roller = dice.NewSeededRoller(*seed)
	}

	failed := false
	for _, src := range flag.Args() {
		f, err := formula.Parse(src)
		if err != nil {
			log.Printf("%s: %v", src, err)
			failed = true
			continue
		}

		mean, err := f.Expectation(formula.Vars(vars))
		if err != nil {
			log.Printf("%s: %v", src, err)
			failed = true
			continue
		}
		fmt.Printf("%s\texpected %.2f\n", f.Source(), mean)

		for i := 0; i < *rolls; i++ {
			result, err := f.Roll(roller, formula.Vars(vars))
			if err != nil {
				log.Printf("%s: %v", src, err)
				failed = true
				break
			}
			fmt.Printf("  roll %d\t%d", i+1, result.Total)
			for _, term := range result.Terms {
				fmt.Printf("\t%s=%v", term.Term, term.Rolls)
			}
			fmt.Println()
		}
	}

	if failed {
		os.Exit(1)
	}
}
