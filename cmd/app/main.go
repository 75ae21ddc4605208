package main

import (
	"flag"
	"log"
	"os"

	"StratLab/internal/di"
	"StratLab/pkg/config"
	"StratLab/pkg/server"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	modeFlag := flag.String("mode", "all", "run mode: api, worker or all")
	flag.Parse()

	mode, err := server.ParseMode(*modeFlag)
	if err != nil {
		log.Fatalf("invalid mode: %v", err)
	}

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s mode=%s market=%s", cfg.Environment, mode, cfg.Analysis.MarketSymbol)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg, mode)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
