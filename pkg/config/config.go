package config

import (
	"log"
	"reflect"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/gagliardetto/solana-go"
)

type Config struct {
	API struct {
		Port int `env:"PORT" envDefault:"8081"`
	}
	App struct {
		LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`
		MetricsPort int    `env:"METRICS_PORT" envDefault:"9010"`
	}
	Ledger struct {
		RPCURL string `env:"RPC_URL" envDefault:"https://api.mainnet-beta.solana.com"`
		// DASURL is an RPC endpoint implementing getAsset. Empty disables the lookup.
		DASURL string `env:"DAS_RPC_URL"`
	}
	Rates struct {
		BirdeyeAPIKey string           `env:"BIRDEYE_API_KEY"`
		BirdeyeBase   string           `env:"BIRDEYE_BASE" envDefault:"https://public-api.birdeye.so"`
		BirdeyeRPS    uint64           `env:"BIRDEYE_RPS" envDefault:"10"`
		JupiterPrice  string           `env:"JUPITER_PRICE_URL" envDefault:"https://price.jup.ag/v4/price"`
		JupiterQuote  string           `env:"JUPITER_QUOTE_URL" envDefault:"https://quote-api.jup.ag/v6/quote"`
		QuoteMint     solana.PublicKey `env:"QUOTE_MINT" envDefault:"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"`
		QuoteDecimals uint8            `env:"QUOTE_DECIMALS" envDefault:"6"`
		ProbeTimeout  time.Duration    `env:"PROBE_TIMEOUT" envDefault:"5s"`
		MaxGoroutines int              `env:"PRICE_MAX_GOROUTINES" envDefault:"8"`
		PriceCacheTTL time.Duration    `env:"PRICE_CACHE_TTL" envDefault:"0s"`
		TokenListURL  string           `env:"JUPITER_TOKEN_LIST_URL" envDefault:"https://token.jup.ag/all"`
		MetadataTTL   time.Duration    `env:"METADATA_TTL" envDefault:"1h"`
	}
	Sweep struct {
		FeeBuffer       uint64        `env:"FEE_BUFFER_LAMPORTS" envDefault:"10000"`
		AccountRent     uint64        `env:"RECEIVING_ACCOUNT_RENT" envDefault:"2039280"`
		MaxOperations   int           `env:"MAX_OPERATIONS" envDefault:"20"`
		ConfirmAttempts uint          `env:"CONFIRM_ATTEMPTS" envDefault:"30"`
		ConfirmDelay    time.Duration `env:"CONFIRM_DELAY" envDefault:"1s"`
	}
}

func Load() Config {
	c, err := Parse()
	if err != nil {
		log.Panicf("[‼️  Config parsing failed] %+v\n", err)
	}
	return c
}

// Parse reads the configuration from the environment.
func Parse() (Config, error) {
	var c Config
	err := env.ParseWithFuncs(&c, map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(solana.PublicKey{}): func(v string) (interface{}, error) {
			return solana.PublicKeyFromBase58(v)
		}})
	return c, err
}
