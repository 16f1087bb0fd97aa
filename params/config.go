package params

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/uhyunpark/cfxkit/pkg/address"
)

type Network struct {
	// NetName labels addresses rendered by the node: CFX, CFXTEST or NET<chainID>.
	// CFX_CHAIN_ID, when set, overrides CFX_NET_NAME.
	NetName string
}

type Keystore struct {
	DBPath string
	// Scrypt cost for newly sealed keys. Existing keystores carry their own.
	//
	// Recommended values:
	//   - Tests / devnet:  N=1024   (fast, weak)
	//   - Default:         N=8192   (matches the V3 interchange default)
	//   - Cold storage:    N=262144 (slow, strong)
	ScryptN int
	ScryptP int
}

type API struct {
	Addr           string
	AllowedOrigins []string
}

type Config struct {
	Network  Network
	Keystore Keystore
	API      API
	LogFile  string // empty logs to stdout only
	LogLevel string
}

func Default() Config {
	return Config{
		Network: Network{NetName: "CFX"},
		Keystore: Keystore{
			DBPath:  "data/keystore",
			ScryptN: 8192,
			ScryptP: 1,
		},
		API: API{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		LogFile:  "data/cfxd.log",
		LogLevel: "info",
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	cfg.Network.NetName = strings.ToUpper(getEnv("CFX_NET_NAME", cfg.Network.NetName))
	cfg.Keystore.DBPath = getEnv("KEYSTORE_DB", cfg.Keystore.DBPath)
	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	if logFile, ok := os.LookupEnv("LOG_FILE"); ok {
		cfg.LogFile = logFile
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if id := os.Getenv("CFX_CHAIN_ID"); id != "" {
		if v, err := strconv.ParseUint(id, 10, 64); err == nil {
			cfg.Network.NetName = address.NetNameFromChainID(v)
		}
	}

	if n := os.Getenv("SCRYPT_N"); n != "" {
		if v, err := strconv.Atoi(n); err == nil {
			cfg.Keystore.ScryptN = v
		}
	}
	if p := os.Getenv("SCRYPT_P"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			cfg.Keystore.ScryptP = v
		}
	}

	// Origins from comma-separated list
	if origins := os.Getenv("API_ALLOWED_ORIGINS"); origins != "" {
		cfg.API.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.API.AllowedOrigins = append(cfg.API.AllowedOrigins, o)
			}
		}
	}

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
