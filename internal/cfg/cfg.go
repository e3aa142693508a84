package cfg

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

// Config holds the service-level configuration shared across components.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	DatabaseURL           string
	APIToken              string
	SlackWebhookURL       string
	OpenMeteoEndpoint     string
	FeedEndpoints         string
	KafkaBrokers          string
	KafkaTopic            string
	RunIntervalMinutes    int
	ZonesFile             string
	Workers               int
	ZoneTimeoutSeconds    int
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token for mutating endpoints (empty = open)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for published-alert notifications")
	fs.StringVar(&c.OpenMeteoEndpoint, "open-meteo-endpoint", "", "Open-Meteo forecast endpoint (empty = public API)")
	fs.StringVar(&c.FeedEndpoints, "feed-endpoints", "", "official alert feeds as comma-separated COUNTRY=URL pairs")
	fs.StringVar(&c.KafkaBrokers, "kafka-brokers", "", "comma-separated Kafka brokers for lifecycle events (empty = disabled)")
	fs.StringVar(&c.KafkaTopic, "kafka-topic", "stormwatch.alert-events", "Kafka topic for lifecycle events")
	fs.IntVar(&c.RunIntervalMinutes, "run-interval-minutes", 0, "minutes between scheduled detection runs (0 = API trigger only)")
	fs.StringVar(&c.ZonesFile, "zones-file", "", "JSON zone catalog path (empty = built-in catalog)")
	fs.IntVar(&c.Workers, "detect-workers", 4, "parallel zone detection workers (1..64)")
	fs.IntVar(&c.ZoneTimeoutSeconds, "zone-timeout-seconds", 10, "per-zone detection timeout (1..120)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.RunIntervalMinutes < 0 || c.RunIntervalMinutes > 1440 {
		errs = append(errs, fmt.Errorf("invalid RUN_INTERVAL_MINUTES %d (must be 0..1440)", c.RunIntervalMinutes))
	}

	if c.Workers <= 0 || c.Workers > 64 {
		errs = append(errs, fmt.Errorf("invalid DETECT_WORKERS %d (must be 1..64)", c.Workers))
	}
	if c.ZoneTimeoutSeconds <= 0 || c.ZoneTimeoutSeconds > 120 {
		errs = append(errs, fmt.Errorf("invalid ZONE_TIMEOUT_SECONDS %d (must be 1..120)", c.ZoneTimeoutSeconds))
	}

	if _, err := c.ParseFeedEndpoints(); err != nil {
		errs = append(errs, err)
	}

	// Lifecycle events need a topic when brokers are configured
	if c.KafkaBrokers != "" && c.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ParseFeedEndpoints splits the feed-endpoints value into a country→URL map.
func (c *Config) ParseFeedEndpoints() (map[string]string, error) {
	if c.FeedEndpoints == "" {
		return nil, nil
	}
	out := map[string]string{}
	for _, pair := range strings.Split(c.FeedEndpoints, ",") {
		country, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || country == "" || url == "" {
			return nil, fmt.Errorf("invalid FEED_ENDPOINTS entry %q (want COUNTRY=URL)", pair)
		}
		out[strings.ToUpper(country)] = url
	}
	return out, nil
}

// ParseKafkaBrokers splits the kafka-brokers value into a broker list.
func (c *Config) ParseKafkaBrokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
