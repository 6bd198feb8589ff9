package cmd

import (
	"github.com/dmitrymomot/go-env"

	_ "github.com/joho/godotenv/autoload" // load .env file automatically
)

// config holds the process-wide settings every subcommand reads from the
// environment, loaded once at Execute time.
type config struct {
	RPCEndpoint string
	DatabaseDSN string
}

func loadConfig() config {
	return config{
		RPCEndpoint: env.GetString("BONBON_RPC_ENDPOINT", "https://api.mainnet-beta.solana.com"),
		DatabaseDSN: env.MustString("BONBON_DATABASE_DSN"),
	}
}
