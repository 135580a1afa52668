package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Simulation Simulation `mapstructure:"simulation"`
	News       News       `mapstructure:"news"`
	Notify     Notify     `mapstructure:"notify"`
	Logger     Logger     `mapstructure:"logger"`
	Server     Server     `mapstructure:"server"`
	Journal    Journal    `mapstructure:"journal"`
	Client     Client     `mapstructure:"client"`
}

// Simulation holds the configuration for the market simulation.
type Simulation struct {
	StartingCash      float64       `mapstructure:"starting_cash"`
	PriceTickInterval time.Duration `mapstructure:"price_tick_interval"`
	PerturbationPct   float64       `mapstructure:"perturbation_pct"`
	PriceFloor        float64       `mapstructure:"price_floor"`
}

// News holds the configuration for the news feed.
type News struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	BufferSize   int           `mapstructure:"buffer_size"`
	SeedCount    int           `mapstructure:"seed_count"`
	SeedStagger  time.Duration `mapstructure:"seed_stagger"`
}

// Notify holds the configuration for the notification center.
type Notify struct {
	DisplayDuration time.Duration `mapstructure:"display_duration"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Journal holds the configuration for the session trade journal.
type Journal struct {
	DSN string `mapstructure:"dsn"`
}

// Client holds the configuration for the REST API client.
type Client struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("simulation.starting_cash", 10000.0)
	viper.SetDefault("simulation.price_tick_interval", "3s")
	viper.SetDefault("simulation.perturbation_pct", 2.5)
	viper.SetDefault("simulation.price_floor", 1.0)
	viper.SetDefault("news.tick_interval", "20s")
	viper.SetDefault("news.buffer_size", 5)
	viper.SetDefault("news.seed_count", 3)
	viper.SetDefault("news.seed_stagger", "500ms")
	viper.SetDefault("notify.display_duration", "5s")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("journal.dsn", "file::memory:?cache=shared")
	viper.SetDefault("client.base_url", "http://localhost:8080")
	viper.SetDefault("client.rate_limit", 20)      // requests per second
	viper.SetDefault("client.rate_limit_burst", 5) // burst size
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

// Defaults returns a Config populated with the built-in defaults, without
// consulting any config file. Useful for tests and the CLI.
func Defaults() Config {
	return Config{
		Simulation: Simulation{
			StartingCash:      10000.0,
			PriceTickInterval: 3 * time.Second,
			PerturbationPct:   2.5,
			PriceFloor:        1.0,
		},
		News: News{
			TickInterval: 20 * time.Second,
			BufferSize:   5,
			SeedCount:    3,
			SeedStagger:  500 * time.Millisecond,
		},
		Notify: Notify{
			DisplayDuration: 5 * time.Second,
		},
		Server:  Server{Port: 8080},
		Journal: Journal{DSN: "file::memory:?cache=shared"},
		Client: Client{
			BaseURL:        "http://localhost:8080",
			RateLimit:      20,
			RateLimitBurst: 5,
		},
		Logger: Logger{Level: "info", Format: "console"},
	}
}
