package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/meenmo/xvalib/aggregation"
	"github.com/meenmo/xvalib/collateral"
	"github.com/meenmo/xvalib/config"
	"github.com/meenmo/xvalib/marketdata"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("xvarun", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML run configuration")
	inputPath := fs.String("input", "", "JSON input bundle")
	dsn := fs.String("dsn", "", "Postgres DSN for the market snapshot (overrides the bundle's market section)")
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *configPath == "" || *inputPath == "" {
		usage(stderr, fs)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(stderr, "invalid log level %q\n", cfg.Log.Level)
		return 2
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	calcType, err := collateral.ParseCalculationType(cfg.CalculationType)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	allocMethod, err := aggregation.ParseAllocationMethod(cfg.AllocationMethod)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	inputs, err := loadBundle(*inputPath, cfg.BaseCurrency, *dsn == "")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *dsn != "" {
		feed, err := marketdata.Open(*dsn)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer feed.Close()
		market, err := feed.LoadMarket(inputs.asof, cfg.BaseCurrency)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		inputs.market = market
		logger.Info().Str("component", "xvarun").Msg("market snapshot loaded from database")
	}

	results, err := aggregation.PostProcess(aggregation.PostProcessInput{
		Portfolio:                    inputs.portfolio,
		Manager:                      inputs.manager,
		TradeCube:                    inputs.tradeCube,
		NettingCube:                  inputs.netCube,
		ScenData:                     inputs.scenData,
		Market:                       inputs.market,
		Quantile:                     cfg.Quantile,
		CalcType:                     calcType,
		MultiPath:                    cfg.MultiPath,
		FullInitialCollateralisation: cfg.FullInitialCollateralisation,
		AllocationMethod:             allocMethod,
		TradeCVA:                     inputs.tradeCVA,
		TradeDVA:                     inputs.tradeDVA,
		DVAName:                      cfg.DVAName,
		KVAParams:                    cfg.KVA,
		Analytics: aggregation.Analytics{
			KVA: cfg.Analytics.KVA,
			DIM: cfg.Analytics.DIM,
		},
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	printExposureReport(stdout, inputs, results)
	if cfg.Analytics.KVA {
		printCapitalReport(stdout, inputs, results)
	}
	if allocMethod != aggregation.AllocationNone && allocMethod != aggregation.AllocationMarginal {
		if err := printAllocationReport(stdout, inputs, results); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	return 0
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: xvarun -config run.yaml -input bundle.json [-dsn postgres://...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Computes netting-set exposure profiles, trade allocations and KVA")
	fmt.Fprintln(w, "from a pre-computed scenario cube. With -dsn the market snapshot is")
	fmt.Fprintln(w, "loaded from Postgres instead of the bundle's market section.")
	fmt.Fprintln(w)
	fs.PrintDefaults()
}

func printExposureReport(w io.Writer, inputs *runInputs, results *aggregation.Results) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NettingSet\tDate\tEPE\tENE\tPFE\tEE_B\tEEE_B\tExpColl\tCOLVAInc\tFloorInc")
	for _, nsID := range inputs.netCube.IDs() {
		p := results.Exposure.Profiles[nsID]
		for j := 0; j <= len(p.Dates); j++ {
			date := p.Today
			if j > 0 {
				date = p.Dates[j-1]
			}
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.4f\t%.4f\n",
				nsID, date.Format("2006-01-02"),
				p.EPE[j], p.ENE[j], p.PFE[j], p.EEB[j], p.EEEB[j],
				p.ExpectedCollateral[j], p.COLVAInc[j], p.FloorInc[j])
		}
		fmt.Fprintf(tw, "%s\ttotals\tEPE_B=%.2f\tEEPE_B=%.2f\tCOLVA=%.4f\tFloor=%.4f\t\t\t\t\n",
			nsID, p.EPEB, p.EEPEB, p.COLVA, p.CollateralFloor)
	}
	tw.Flush()
}

func printCapitalReport(w io.Writer, inputs *runInputs, results *aggregation.Results) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NettingSet\tOurKVACCR\tTheirKVACCR\tOurKVACVA\tTheirKVACVA")
	for _, nsID := range inputs.netCube.IDs() {
		c := results.Capital[nsID]
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n",
			nsID, c.OurKVACCR, c.TheirKVACCR, c.OurKVACVA, c.TheirKVACVA)
	}
	tw.Flush()
}

func printAllocationReport(w io.Writer, inputs *runInputs, results *aggregation.Results) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Trade\tDate\tAllocEPE\tAllocENE")
	dates := inputs.netCube.Dates()
	for _, t := range inputs.portfolio.Trades() {
		epe, err := results.AllocatedTradeEPE(t.ID)
		if err != nil {
			return err
		}
		ene, err := results.AllocatedTradeENE(t.ID)
		if err != nil {
			return err
		}
		for j := range dates {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\n",
				t.ID, dates[j].Format("2006-01-02"), epe[j], ene[j])
		}
	}
	return tw.Flush()
}
