// Command analyze runs the factor risk pipeline once on a local file and
// prints the packaged result as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"StratLab/internal/domain/models"
	"StratLab/internal/repository"
	"StratLab/internal/services/analytics"
	"StratLab/internal/services/features"
	"StratLab/internal/usecase"
	applogger "StratLab/pkg/logger"
)

func main() {
	market := flag.String("market", analytics.DefaultMarketSymbol, "market symbol used as the regression factor")
	level := flag.Float64("level", analytics.DefaultConfidenceLevel, "VaR/ES confidence level in (0,1)")
	lambda := flag.Float64("lambda", 0, "shrinkage coefficient in [0,1] (reserved)")
	logLevel := flag.String("log-level", "warn", "log level written to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <prices.csv|prices.parquet>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	lgr, err := applogger.New(&applogger.Config{Level: *logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	params, err := usecase.PrepareParams(map[string]interface{}{
		models.ParamLambda: *lambda,
		models.ParamLevel:  *level,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	loader := features.NewCleaner(repository.NewFileTableReader(), lgr)
	model := usecase.NewFactorModel(
		loader,
		analytics.NewParametricRisk(lgr),
		analytics.NewFactorRegression(lgr),
		usecase.FactorModelConfig{MarketSymbol: *market, ConfidenceLevel: *level},
		lgr,
	)
	res := model.Run(flag.Arg(0), params.Numeric)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if res.Failed() {
		os.Exit(1)
	}
}
