package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hydrograph-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all loader settings. Values come from an optional YAML
// properties file (CONFIG_FILE) and are overridden by environment variables.
type Config struct {
	SearchPath    string
	SDHFilename   string
	Interpolation domain.Interpolation
	Strict        bool

	DatabaseURL      string
	FloodplainTable  string
	SDHMetadataTable string
	TruncateSDHTable bool

	ShapefilesEnabled bool
	Shp2pgsqlPath     string
	SRID              int

	KafkaBrokers []string
	KafkaTopic   string

	ScanSchedule    string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	LoadRetries     int
}

// Load reads the properties file named by CONFIG_FILE, if any, then applies
// environment variables and defaults.
func Load() (*Config, error) {
	props := &Properties{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		p, err := ReadProperties(path)
		if err != nil {
			return nil, err
		}
		props = p
	}
	db, err := props.Database()
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	interpolation, err := domain.ParseInterpolation(sharedcfg.EnvOrDefault("INTERPOLATION", orDefault(props.General.Interpolation, "cubic")))
	if err != nil {
		return nil, fmt.Errorf("invalid INTERPOLATION: %w", err)
	}

	strict, err := parseBool("STRICT", false)
	if err != nil {
		return nil, err
	}
	truncate, err := parseBool("TRUNCATE_SDH_TABLE", db.TruncateSDHTable)
	if err != nil {
		return nil, err
	}
	shapefiles, err := parseBool("SHAPEFILES_ENABLED", true)
	if err != nil {
		return nil, err
	}
	srid, err := parsePositiveInt("SRID", 21781)
	if err != nil {
		return nil, err
	}
	retries, err := parseNonNegativeInt("LOAD_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	dsn, err := databaseURL(db)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		SearchPath:    sharedcfg.EnvOrDefault("SEARCH_PATH", props.General.SearchPath),
		SDHFilename:   sharedcfg.EnvOrDefault("SDH_FILENAME", orDefault(props.General.SDHFilename, "sdh.txt")),
		Interpolation: interpolation,
		Strict:        strict,

		DatabaseURL:      dsn,
		FloodplainTable:  sharedcfg.EnvOrDefault("FLOODPLAIN_TABLE", orDefault(db.FloodplainTable, "floodplain")),
		SDHMetadataTable: sharedcfg.EnvOrDefault("SDH_METADATA_TABLE", orDefault(db.SDHMetadataTable, "sdh_metadata")),
		TruncateSDHTable: truncate,

		ShapefilesEnabled: shapefiles,
		Shp2pgsqlPath:     sharedcfg.EnvOrDefault("SHP2PGSQL_PATH", "shp2pgsql"),
		SRID:              srid,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "hydrograph-metrics"),

		ScanSchedule:    os.Getenv("SCAN_SCHEDULE"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		LoadRetries:     retries,
	}

	if cfg.SearchPath == "" {
		return nil, errors.New("SEARCH_PATH is required")
	}
	if cfg.SDHFilename == "" {
		return nil, errors.New("SDH_FILENAME is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// databaseURL prefers DATABASE_URL and otherwise assembles a postgres URL from
// DB_* variables layered over the selected database profile. A missing password
// is allowed; the driver then falls back to PGPASSFILE / ~/.pgpass.
func databaseURL(db DatabaseProperties) (string, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn, nil
	}

	host := sharedcfg.EnvOrDefault("DB_HOST", orDefault(db.Host, "localhost"))
	port := sharedcfg.EnvOrDefault("DB_PORT", orDefault(db.Port, "5432"))
	name := sharedcfg.EnvOrDefault("DB_NAME", db.Database)
	user := sharedcfg.EnvOrDefault("DB_USER", db.User)
	password := sharedcfg.EnvOrDefault("DB_PASSWORD", db.Password)

	if name == "" {
		return "", errors.New("DB_NAME (or DATABASE_URL) is required")
	}
	if user == "" {
		return "", errors.New("DB_USER (or DATABASE_URL) is required")
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid DB_PORT %q", port)
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + name,
	}
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}
	return u.String(), nil
}

func parseBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", key)
	}
	return n, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
