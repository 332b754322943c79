package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rustyeddy/trendbot/alpaca"
	"github.com/rustyeddy/trendbot/bot"
	"github.com/rustyeddy/trendbot/config"
	"github.com/rustyeddy/trendbot/indicators"
	"github.com/rustyeddy/trendbot/journal"
	"github.com/rustyeddy/trendbot/trade"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading bot",
	Long: `Run the bot against the configured symbol until interrupted.

Credentials are read from the environment:
  APCA_API_KEY_ID      Alpaca API key (required)
  APCA_API_SECRET_KEY  Alpaca API secret (required)

Example:
  trendbot run -f configs/aapl.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if runConfigPath != "" {
		var err error
		cfg, err = config.LoadFromFile(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	key := os.Getenv("APCA_API_KEY_ID")
	secret := os.Getenv("APCA_API_SECRET_KEY")
	if key == "" || secret == "" {
		return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY must be set")
	}

	client := alpaca.NewClient(key, secret, cfg.Trading.Paper)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connectivity check before looping; a dead API is a startup failure.
	acct, err := client.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("connect to brokerage: %w", err)
	}
	log.Printf("[INFO] connected, account %s status=%s buying power=%.2f",
		acct.ID, acct.Status, acct.BuyingPower)

	var j journal.Journal
	switch cfg.Journal.Type {
	case "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		j, err = journal.NewCSV(cfg.Journal.TradesFile)
	default:
		j = journal.Noop{}
	}
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	interval, err := cfg.Trading.ParseCheckInterval()
	if err != nil {
		return fmt.Errorf("check_interval: %w", err)
	}
	orderWait, err := cfg.Orders.ParseOrderWait()
	if err != nil {
		return fmt.Errorf("order_wait: %w", err)
	}

	execCfg := trade.DefaultConfig()
	execCfg.RiskFraction = cfg.Orders.RiskFraction
	execCfg.TrailPercent = cfg.Orders.TrailPercent
	execCfg.FillWait = orderWait
	exec := trade.NewExecutor(client, j, execCfg)

	botCfg := bot.DefaultConfig(cfg.Trading.Symbol)
	botCfg.CheckInterval = interval
	botCfg.HistoryDays = cfg.Trading.HistoryDays
	botCfg.MinBars = cfg.Trading.MinBars
	botCfg.RSIThreshold = cfg.Signal.RSIThreshold
	botCfg.Indicators = indicators.Config{
		Period:    cfg.Signal.RSIPeriod,
		MAWindow:  cfg.Signal.RSIMAWindow,
		ROCWindow: cfg.Signal.ROCWindow,
	}

	return bot.New(client, exec, j, botCfg).Run(ctx)
}
