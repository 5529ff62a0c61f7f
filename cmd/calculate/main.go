package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/quote-engine/internal/calculation"
	"github.com/garyjia/quote-engine/internal/config"
	"github.com/garyjia/quote-engine/pkg/utils"
)

// quoteFile is the JSON input document: quote-level variables, product
// lines and the resolved exchange-rate snapshot for the run.
type quoteFile struct {
	Quote    calculation.QuoteVariables `json:"quote"`
	Products []calculation.ProductInput `json:"products"`
	Rates    calculation.ExchangeRates  `json:"exchange_rates"`
}

func main() {
	_ = gotenv.Load()

	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	inputPath := flag.String("input", "", "path to quote input JSON file")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: calculate -input quote.json [-config configs/config.yaml]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	raw, err := os.ReadFile(*inputPath)
	if err != nil {
		logger.Fatal("Failed to read input file", zap.Error(err))
	}

	var input quoteFile
	if err := json.Unmarshal(raw, &input); err != nil {
		logger.Fatal("Failed to parse input file", zap.Error(err))
	}

	calc := calculation.NewCalculator(logger)
	result, err := calc.CalculateQuote(input.Quote, input.Products, cfg.SystemConfig(), input.Rates)
	if err != nil {
		logger.Fatal("Quote calculation failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("Failed to marshal result", zap.Error(err))
	}
	fmt.Println(string(out))
}
