package config

import (
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Deso struct {
		GraphQLURL  string        `env:"DESO_GRAPHQL_URL" env-default:"https://graphql-prod.deso.com/graphql"`
		HTTPTimeout time.Duration `env:"DESO_HTTP_TIMEOUT" env-default:"0s" env-description:"0 disables the client timeout"`
	}
	Feed struct {
		PageSize        int           `env:"FEED_PAGE_SIZE" env-default:"20"`
		GuardWindow     time.Duration `env:"FEED_GUARD_WINDOW" env-default:"1s"`
		AutoLoadDelay   time.Duration `env:"FEED_AUTOLOAD_DELAY" env-default:"50ms"`
		ScrollThreshold int           `env:"FEED_SCROLL_THRESHOLD" env-default:"300"`
		ScrollThrottle  time.Duration `env:"FEED_SCROLL_THROTTLE" env-default:"16ms"`
		ViewportHeight  int           `env:"FEED_VIEWPORT_HEIGHT" env-default:"900"`
		WaitInterval    time.Duration `env:"FEED_WAIT_INTERVAL" env-default:"200ms"`
		WaitTimeout     time.Duration `env:"FEED_WAIT_TIMEOUT" env-default:"8s"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}

// Default returns a configuration populated only from env-default tags.
func Default() *Config {
	c := &Config{}
	c.App.Env = "development"
	c.App.Port = 8080
	c.Deso.GraphQLURL = "https://graphql-prod.deso.com/graphql"
	c.Feed.PageSize = 20
	c.Feed.GuardWindow = time.Second
	c.Feed.AutoLoadDelay = 50 * time.Millisecond
	c.Feed.ScrollThreshold = 300
	c.Feed.ScrollThrottle = 16 * time.Millisecond
	c.Feed.ViewportHeight = 900
	c.Feed.WaitInterval = 200 * time.Millisecond
	c.Feed.WaitTimeout = 8 * time.Second
	return c
}
