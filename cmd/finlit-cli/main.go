// finlit-cli - terminal client for a running finlitd simulation
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"finlit-sim-go/internal/client"
	"finlit-sim-go/internal/config"
	"finlit-sim-go/internal/logger"
)

var (
	baseURL string
	symbol  string
	qty     int
	pct     float64
)

// newAPIClient builds the API client for a command run. Swappable so
// tests can substitute a mock.
var newAPIClient = func() (client.RestClientInterface, error) {
	cfg := config.Defaults()
	if loaded, err := config.LoadConfig("./configs"); err == nil {
		cfg = loaded
	}
	if baseURL != "" {
		cfg.Client.BaseURL = baseURL
	}

	log, err := logger.NewLogger("warn", cfg.Logger.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return client.NewRestClient(&cfg.Client, log), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "finlit-cli",
		Short: "Trade against a running market simulation",
		Long: `finlit-cli talks to a running finlitd instance: watch quotes and news,
inspect the portfolio, place trades, and review the session's trade history.`,
		SilenceUsage: true,
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "API base URL (default from config)")

	rootCmd.AddCommand(marketCmd())
	rootCmd.AddCommand(portfolioCmd())
	rootCmd.AddCommand(tradesCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(tradeCmd("buy", "Buy shares at the current price", client.ActionBuy))
	rootCmd.AddCommand(tradeCmd("sell", "Sell shares at the current price", client.ActionSell))
	rootCmd.AddCommand(tradeCmd("buyall", "Spend all cash on one stock", client.ActionBuyAll))
	rootCmd.AddCommand(tradeCmd("sellall", "Liquidate the position in one stock", client.ActionSellAll))
	rootCmd.AddCommand(tradeCmd("quickbuy", "Invest a percentage of cash", client.ActionQuickBuy))
	rootCmd.AddCommand(resetCmd())

	return rootCmd
}

func marketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "market",
		Short: "Print current quotes and news",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPIClient()
			if err != nil {
				return err
			}
			return printMarket(cmd, api)
		},
	}
}

func portfolioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Print cash and holdings",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPIClient()
			if err != nil {
				return err
			}
			snap, err := api.GetSnapshot()
			if err != nil {
				return err
			}
			cmd.Printf("Cash: %.2f  Portfolio value: %.2f  Unrealized: %.2f\n",
				snap.Cash, snap.PortfolioValue, snap.UnrealizedReturn)
			for _, h := range snap.Holdings {
				cmd.Printf("%-6s %5d shares @ %.2f avg\n", h.Symbol, h.Shares, h.CostBasis)
			}
			return nil
		},
	}
}

func tradesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trades",
		Short: "Print the session trade history",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPIClient()
			if err != nil {
				return err
			}
			trades, err := api.GetTrades()
			if err != nil {
				return err
			}
			for _, t := range trades {
				ts := time.UnixMilli(t.Timestamp).Format("15:04:05")
				cmd.Printf("%s %-4s %5d %-6s @ %.2f (total %.2f, profit %.2f)\n",
					ts, t.Side, t.Quantity, t.Symbol, t.Price, t.Total, t.Profit)
			}
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print session trading statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPIClient()
			if err != nil {
				return err
			}
			stats, err := api.GetStatistics()
			if err != nil {
				return err
			}
			cmd.Printf("All time: %d sells, win rate %.0f%%, realized profit %.2f\n",
				stats.AllTime.TotalTrades, stats.AllTime.WinRate*100, stats.AllTime.TotalProfit)
			cmd.Printf("Last 24h: %d sells, win rate %.0f%%, realized profit %.2f\n",
				stats.Since24h.TotalTrades, stats.Since24h.WinRate*100, stats.Since24h.TotalProfit)
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll and print quotes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPIClient()
			if err != nil {
				return err
			}
			for {
				if err := printMarket(cmd, api); err != nil {
					return err
				}
				cmd.Println()
				time.Sleep(3 * time.Second)
			}
		},
	}
}

// tradeCmd builds one trade subcommand; they differ only in the action
// sent and the flags that matter for it.
func tradeCmd(use, short, action string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPIClient()
			if err != nil {
				return err
			}

			req := client.TradeRequest{Action: action, Symbol: symbol}
			switch action {
			case client.ActionBuy, client.ActionSell:
				req.Quantity = qty
			case client.ActionQuickBuy:
				req.Percent = pct
			}

			receipt, err := api.PlaceTrade(req)
			if err != nil {
				return err
			}
			if receipt.Profit != 0 {
				cmd.Printf("%s %d %s @ %.2f (total %.2f, profit %.2f)\n",
					receipt.Side, receipt.Quantity, receipt.Symbol, receipt.Price, receipt.Total, receipt.Profit)
			} else {
				cmd.Printf("%s %d %s @ %.2f (total %.2f)\n",
					receipt.Side, receipt.Quantity, receipt.Symbol, receipt.Price, receipt.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "ticker symbol")
	_ = cmd.MarkFlagRequired("symbol")
	switch action {
	case client.ActionBuy, client.ActionSell:
		cmd.Flags().IntVarP(&qty, "qty", "q", 1, "number of shares")
	case client.ActionQuickBuy:
		cmd.Flags().Float64VarP(&pct, "pct", "p", 25, "percent of cash to invest")
	}

	return cmd
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the portfolio to its starting state",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newAPIClient()
			if err != nil {
				return err
			}
			if err := api.Reset(); err != nil {
				return err
			}
			cmd.Println("Portfolio reset.")
			return nil
		},
	}
}

func printMarket(cmd *cobra.Command, api client.RestClientInterface) error {
	snap, err := api.GetSnapshot()
	if err != nil {
		return err
	}
	cmd.Printf("%-6s %-22s %10s %8s\n", "SYM", "NAME", "PRICE", "CHG%")
	for _, q := range snap.Quotes {
		cmd.Printf("%-6s %-22s %10.2f %7.2f%%\n", q.Symbol, q.Name, q.Price, q.ChangePct)
	}
	for _, item := range snap.News {
		cmd.Printf("[%s] %s\n", item.Sentiment, item.Headline)
	}
	return nil
}
