package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"facility_location/src/uflp"
	"facility_location/src/uflp/oracles"

	"github.com/golang/glog"
)

func main() {
	var verify bool
	var oracleName string
	var tol float64
	var paths []string

	flag.Func("data", "a list of dataset file paths, separated by a whitespace", func(s string) error {
		paths = strings.Fields(s)
		return nil
	})
	flag.BoolVar(&verify, "verify", false, "Re-solve every record and check that its decision is optimal")
	flag.StringVar(&oracleName, "oracle", uflp.OracleBranchAndBound, fmt.Sprintf("The oracle used by -verify, one of %v", oracles.Names))
	flag.Float64Var(&tol, "tol", 1e-4, "The objective tolerance used by -verify")

	flag.Parse()
	defer glog.Flush()

	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Must specify at least a path")
		os.Exit(1)
	}

	var session uflp.Session
	if verify {
		oracle, err := oracles.ByName(oracleName)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if session, err = oracle.Open(); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open oracle %v: %v\n", oracleName, err)
			os.Exit(1)
		}
		defer session.Close()
	}

	for _, p := range paths {
		samples, err := uflp.LoadDataset(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error for dataset \"%v\": %v. Skipping...\n", p, err)
			continue
		}
		glog.V(1).Infof("loaded %d records from %s", len(samples), p)
		fmt.Printf("Dataset %v:\n%v\n", p, uflp.Summarize(samples))

		if verify {
			fmt.Printf("Verifying %v with %v...\n", p, oracleName)
			mismatches, err := uflp.Verify(context.Background(), session, samples, tol)
			for _, m := range mismatches {
				fmt.Printf("Not optimal: %v\n", m)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "An error occured while verifying dataset \"%v\": %v\n", p, err)
			} else {
				fmt.Printf("%d of %d records optimal\n", len(samples)-len(mismatches), len(samples))
			}
		}
		fmt.Println()
	}
}
