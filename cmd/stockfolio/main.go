// Command stockfolio builds portfolio views from broker trade exports without running the server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/processors"
	"github.com/username/stockfolio/src/services"
	"github.com/username/stockfolio/src/state"
	"github.com/username/stockfolio/src/utils"
)

// Set by ldflags at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

type options struct {
	fetchPrices bool
	priceURL    string
	limit       int
	logLevel    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "stockfolio",
		Short:         "Reconstruct and value stock portfolios from trade exports",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.InitLogger(opts.logLevel)
		},
	}
	root.PersistentFlags().BoolVar(&opts.fetchPrices, "prices", false, "fetch live prices instead of valuing at cost")
	root.PersistentFlags().StringVar(&opts.priceURL, "price-url", services.DefaultPriceBaseURL, "quote API base URL")
	root.PersistentFlags().IntVar(&opts.limit, "transactions", 10, "number of recent transactions to keep")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "log level (debug, info, warn, error)")

	root.AddCommand(newHoldingsCmd(opts), newMergeCmd(opts), newVersionCmd())
	return root
}

func newHoldingsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "holdings <file>",
		Short: "Print the holdings reconstructed from one trade export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upload := newUploadService(opts)
			p, err := build(cmd.Context(), upload, args[0], models.Portfolio1)
			if err != nil {
				return err
			}
			printPortfolio(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func newMergeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <file1> <file2>",
		Short: "Print the consolidated view of two trade exports",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			upload := newUploadService(opts)
			reducer := state.NewDefaultReducer(opts.limit)

			st := state.State{}
			for i, id := range []models.PortfolioID{models.Portfolio1, models.Portfolio2} {
				p, err := build(cmd.Context(), upload, args[i], id)
				if err != nil {
					return err
				}
				if st, err = reducer.Reduce(st, state.LoadPortfolio{Portfolio: p}); err != nil {
					return err
				}
			}
			printPortfolio(cmd.OutOrStdout(), st.Consolidated)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stockfolio %s (built %s)\n", Version, BuildTime)
		},
	}
}

// offlinePrices resolves nothing, so every holding is valued at its average cost.
type offlinePrices struct{}

func (offlinePrices) GetCurrentPrices(ctx context.Context, tickers []string, onProgress services.ProgressFunc) (models.PriceMap, error) {
	return models.PriceMap{}, nil
}

func newUploadService(opts *options) services.UploadService {
	var prices services.PriceService = offlinePrices{}
	if opts.fetchPrices {
		prices = services.NewPriceService(services.PriceServiceConfig{
			BaseURL:    opts.priceURL,
			BatchPause: 100 * time.Millisecond,
		})
	}
	return services.NewUploadService(prices, processors.NewPortfolioProcessor(opts.limit))
}

func build(ctx context.Context, upload services.UploadService, path string, id models.PortfolioID) (*models.Portfolio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := upload.ProcessUpload(ctx, f, path, id, filepath.Base(path), func(fetched, total int) {
		fmt.Fprintf(os.Stderr, "\rfetching prices %d/%d", fetched, total)
		if fetched == total {
			fmt.Fprintln(os.Stderr)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res.Portfolio, nil
}

func printPortfolio(out io.Writer, p *models.Portfolio) {
	if p == nil {
		fmt.Fprintln(out, "no holdings")
		return
	}
	fmt.Fprintf(out, "%s  (%d holdings, %s current value)\n\n", p.Name, len(p.Holdings), utils.FormatCompactNumber(p.Summary.Current))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "TICKER\tQTY\tAVG\tLTP\tINVESTED\tCURRENT\tP&L\tALLOC\t")
	for _, h := range p.Holdings {
		ltp := utils.FormatCurrency(h.LTP, false)
		if !h.HasPriceFetched {
			ltp += "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			h.Ticker,
			utils.FormatNumber(h.Qty, 2),
			utils.FormatCurrency(h.AvgBuyPrice, false),
			ltp,
			utils.FormatCurrency(h.BuyValue, false),
			utils.FormatCurrency(h.PresentValue, false),
			utils.FormatPercent(h.PnLPercent, true),
			utils.FormatPercent(h.AllocationPercent, false),
		)
	}
	w.Flush()

	s := p.Summary
	fmt.Fprintf(out, "\nInvested    %s\n", utils.FormatCurrency(s.Invested, false))
	fmt.Fprintf(out, "Current     %s\n", utils.FormatCurrency(s.Current, false))
	fmt.Fprintf(out, "Unrealised  %s (%s)\n", utils.FormatCurrency(s.UnrealisedPnL, true), utils.FormatPercent(s.UnrealisedPnLPercent, true))
	fmt.Fprintf(out, "Realised    %s (%s)\n", utils.FormatCurrency(s.RealisedPnL, true), utils.FormatPercent(s.RealisedPnLPercent, true))
	fmt.Fprintf(out, "Net         %s (%s)\n", utils.FormatCurrency(s.NetPnL, true), utils.FormatPercent(s.NetPnLPercent, true))
	if len(p.Transactions) > 0 {
		fmt.Fprintf(out, "\nRecent transactions\n")
		for _, t := range p.Transactions {
			fmt.Fprintf(out, "  %s  %-4s %-8s %s @ %s\n", t.Date, t.Type, t.Ticker, utils.FormatNumber(t.Shares, 2), utils.FormatCurrency(t.Price, false))
		}
	}
}
