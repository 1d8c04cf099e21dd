package main

import (
	"fmt"
	"runtime"

	"github.com/alecthomas/kong"
	"github.com/maseology/godro"
	"github.com/maseology/godro/internal/log"
	"github.com/maseology/mmio"
)

var cli struct {
	Plan       string `arg:"" help:"plan YAML file"`
	Export     string `help:"write procedure hydrographs as CSV with this path prefix"`
	MonteCarlo int    `help:"pre-screen calibrations with this many Latin-hypercube samples" default:"0"`
	Debug      bool   `help:"verbose logging"`
}

func main() {
	kctx := kong.Parse(&cli)
	if err := log.Init(cli.Debug); err != nil {
		kctx.FatalIfErrorf(err)
	}
	defer log.Sync()

	fmt.Println("")
	tt := mmio.NewTimer()
	defer tt.Lap(fmt.Sprintf("\nRun complete. n processes: %v", runtime.GOMAXPROCS(0)))

	pl, err := godro.LoadPlan(cli.Plan)
	if err != nil {
		kctx.FatalIfErrorf(err)
	}
	tt.Print("plan load complete\n")

	if cli.MonteCarlo > 0 {
		for i, cal := range pl.Calibrations {
			if cal == nil || !cal.Calibrate {
				continue
			}
			outfp := fmt.Sprintf("%s.%s.mc.csv", cli.Plan, pl.Procedures[i].ID)
			ranked, err := cal.MonteCarlo(cli.MonteCarlo, runtime.GOMAXPROCS(0), outfp)
			if err != nil {
				kctx.FatalIfErrorf(err)
			}
			fmt.Printf(" procedure %s best of %d samples: %f %v\n", pl.Procedures[i].ID, cli.MonteCarlo, ranked[0].Score, ranked[0].Parameters)
		}
	}

	if err := pl.Execute(); err != nil {
		kctx.FatalIfErrorf(err)
	}

	if cli.Export != "" {
		for _, p := range pl.Procedures {
			for i := range p.OutputBoundaries {
				fp := fmt.Sprintf("%s.%s.%d.csv", cli.Export, p.ID, i)
				if err := godro.ExportHydrograph(fp, p, i); err != nil {
					log.Warnf("export: %v", err)
				}
			}
		}
	}
}
