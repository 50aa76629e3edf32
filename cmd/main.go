package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SqueezeAlert/internal/api/binance"
	"github.com/Alias1177/SqueezeAlert/internal/api/coinbase"
	"github.com/Alias1177/SqueezeAlert/internal/config"
	"github.com/Alias1177/SqueezeAlert/internal/database"
	"github.com/Alias1177/SqueezeAlert/internal/notify"
	"github.com/Alias1177/SqueezeAlert/internal/scanner"
	"github.com/Alias1177/SqueezeAlert/models"
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	setupSignalHandling(cancel)

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting squeeze scan")

	// 3. Print configuration
	printConfig(cfg)

	// 4. Setup collaborators
	source := newSource(cfg)

	notifier, err := notify.NewTelegram(notify.TelegramOptions{
		Token:    cfg.TelegramBotToken,
		ChatIDs:  cfg.TelegramChatIDs,
		Throttle: time.Duration(cfg.TelegramThrottleMS) * time.Millisecond,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize notifier")
	}

	var journal models.Journal
	if cfg.JournalEnabled() {
		db, err := database.New(database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Alert journal unavailable, continuing without it")
		} else {
			defer db.Close()
			journal = db
		}
	}

	// 5. Run the scan
	s := scanner.New(source, notifier, journal, scanner.Options{
		Symbols:       cfg.Symbols,
		Timeframe:     cfg.Timeframe,
		MaxCandles:    cfg.MaxCandles,
		MinSeriesLen:  cfg.MinSeriesLen,
		Concurrency:   cfg.Concurrency,
		SkipIfNoFresh: cfg.SkipIfNoFresh,
		SendEach:      cfg.SendFrequency == config.SendEach,
		Params:        cfg.Squeeze(),
		Format:        cfg.Levels(),
	})
	results := s.Run(ctx)

	// 6. Report
	printResults(results)
}

// newSource picks the bar source named in the configuration
func newSource(cfg *config.Config) models.BarSource {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if cfg.Source == config.SourceBinance {
		return binance.NewClient(binance.ClientOptions{
			RequestTimeout: timeout,
			RequestsPerSec: 10,
		})
	}
	return coinbase.NewClient(coinbase.ClientOptions{
		RequestTimeout: timeout,
		RequestsPerSec: 3,
	})
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, cancelling scan...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	p := cfg.Squeeze()
	log.Info().
		Strs("Symbols", cfg.Symbols).
		Str("Timeframe", string(cfg.Timeframe)).
		Str("Source", cfg.Source).
		Int("MaxCandles", cfg.MaxCandles).
		Int("BBPeriod", p.BBPeriod).
		Float64("BBStdDev", p.BBStdDev).
		Int("ATRPeriod", p.ATRPeriod).
		Float64("KeltnerATRMult", p.KeltnerATRMult).
		Float64("VolMinMult", p.VolMinMult).
		Bool("MAFilter", p.UseMAFilter).
		Bool("RSIFilter", p.UseRSIFilter).
		Bool("ADXFilter", p.UseADXFilter).
		Str("SendFrequency", cfg.SendFrequency).
		Bool("Journal", cfg.JournalEnabled()).
		Msg("Configuration loaded")
}

// printResults prints sent alerts and a per-symbol summary table
func printResults(results []scanner.Result) {
	anySent := false
	for _, r := range results {
		if r.Status == scanner.StatusSignal {
			anySent = true
			fmt.Printf("\n---\n%s\n---\n\n", r.Message)
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Symbol", "Status", "Direction", "Bars", "Detail"})
	for _, r := range results {
		detail := r.Reason
		if r.Err != nil {
			detail = r.Err.Error()
		}
		t.AppendRow(table.Row{r.Symbol, string(r.Status), string(r.Direction), r.Bars, truncate(detail, 60)})
	}
	t.Render()

	if !anySent {
		fmt.Println("Done: no signals this run.")
	}
}

// truncate flattens s to one line of at most n display columns
func truncate(s string, n int) string {
	return text.Snip(strings.ReplaceAll(s, "\n", " "), n, "...")
}
