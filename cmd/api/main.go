package main

import (
	"fmt"
	"net/http"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arnac-io/tokensweep/pkg/addressbook"
	"github.com/arnac-io/tokensweep/pkg/api"
	"github.com/arnac-io/tokensweep/pkg/app"
	"github.com/arnac-io/tokensweep/pkg/blockchain"
	"github.com/arnac-io/tokensweep/pkg/config"
	"github.com/arnac-io/tokensweep/pkg/rates"
	"github.com/arnac-io/tokensweep/pkg/rpcstorage"
	"github.com/arnac-io/tokensweep/pkg/sentry"
	"github.com/arnac-io/tokensweep/pkg/sweep"
)

func main() {
	cfg := config.Load()
	log := app.Logger(cfg.App.LogLevel)
	defer sentry.Flush()

	client := rpc.New(cfg.Ledger.RPCURL)
	storage := rpcstorage.NewStorage(log, client)

	birdeye := rates.NewBirdeye(cfg.Rates.BirdeyeBase, cfg.Rates.BirdeyeAPIKey, cfg.Rates.BirdeyeRPS)
	defer birdeye.Close()
	jupiter := rates.NewJupiter(cfg.Rates.JupiterPrice, cfg.Rates.JupiterQuote, cfg.Rates.QuoteMint.String())
	resolver := rates.NewResolver(log, birdeye, jupiter, jupiter,
		rates.WithQuoteDecimals(cfg.Rates.QuoteDecimals),
		rates.WithProbeTimeout(cfg.Rates.ProbeTimeout),
		rates.WithMaxGoroutines(cfg.Rates.MaxGoroutines),
		rates.WithCacheTTL(cfg.Rates.PriceCacheTTL))
	book := addressbook.NewAddressBook(log, cfg.Rates.TokenListURL, cfg.Ledger.DASURL,
		addressbook.WithTTL(cfg.Rates.MetadataTTL))

	snapshotter := sweep.NewSnapshotter(log, storage, resolver, book)
	builder := sweep.NewBuilder(log, storage,
		sweep.WithFeeBuffer(cfg.Sweep.FeeBuffer),
		sweep.WithAccountRent(cfg.Sweep.AccountRent),
		sweep.WithMaxOperations(cfg.Sweep.MaxOperations))
	sender := blockchain.NewTxSender(log, client, cfg.Sweep.ConfirmAttempts, cfg.Sweep.ConfirmDelay)
	driver := sweep.NewDriver(log, storage, sender)

	h := api.NewHandler(log, snapshotter, builder, driver)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	app.Serve(log,
		&http.Server{
			Addr:    fmt.Sprintf(":%v", cfg.API.Port),
			Handler: h.Router(),
		},
		&http.Server{
			Addr:    fmt.Sprintf(":%v", cfg.App.MetricsPort),
			Handler: metricsMux,
		},
	)
}
