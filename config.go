package ldcore

import "time"

// Config consolidates the tunable knobs for the engine, the store
// drivers, and the optional snapshot exporter. factory.New reads the
// Store section, Query.DefaultPageSize and Loader.MaxRounds; ldcdc.New
// takes the Snapshot section. The other Query and Loader fields and the
// Logging and Reference sections are carried with their defaults, and
// nothing in this module reads them.
type Config struct {
	Store     StoreConfig     `json:"store"`
	Query     QueryConfig     `json:"query"`
	Loader    LoaderConfig    `json:"loader"`
	Logging   LoggingConfig   `json:"logging"`
	Reference ReferenceConfig `json:"reference"`
	Snapshot  SnapshotConfig  `json:"snapshot"`
}

// StoreConfig configures the primary (pgx) and secondary (duckdb) triple
// store drivers.
type StoreConfig struct {
	DSN             string        `json:"dsn"`
	MaxConnections  int           `json:"maxConnections"`
	MinConnections  int           `json:"minConnections"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime"`
	ConnectTimeout  time.Duration `json:"connectTimeout"`

	// TripleTable names the relational table both drivers store every
	// statement in; the operator's own migration creates it ahead of
	// time (the teacher's own StorageTables convention of naming tables
	// outside this package).
	TripleTable string `json:"tripleTable"`

	// GraphURI scopes every statement this Store writes and reads to a
	// single named graph; empty means the default graph.
	GraphURI string `json:"graphUri"`

	// DuckDBPath is the secondary driver's database file (or ":memory:"),
	// used only for aggregate/grouped Selector queries.
	DuckDBPath string `json:"duckDbPath"`
}

// QueryConfig bounds what a Query can ask for and how long the planner
// will wait for an answer.
type QueryConfig struct {
	DefaultTimeout  time.Duration `json:"defaultTimeout"`
	DefaultPageSize int           `json:"defaultPageSize"`
	MaxPageSize     int           `json:"maxPageSize"`
	CachePlans      bool          `json:"cachePlans"`
	PlanCacheTTL    time.Duration `json:"planCacheTtl"`
}

// LoaderConfig configures the cooperative Loader's round-based scheduling
// and the Fetcher/Selector/Updater worker pools it drives.
type LoaderConfig struct {
	MaxRounds         int           `json:"maxRounds"`
	FetcherBatchSize  int           `json:"fetcherBatchSize"`
	SelectorWorkers   int           `json:"selectorWorkers"`
	UpdaterBatchSize  int           `json:"updaterBatchSize"`
	RoundTimeout      time.Duration `json:"roundTimeout"`
	EnableQueryLogging bool         `json:"enableQueryLogging"`
}

// LoggingConfig mirrors the zap sugared-logger knobs the teacher exposes.
type LoggingConfig struct {
	Level             string `json:"level"`
	Format            string `json:"format"` // "json" or "console"
	EnableQueryLogging bool  `json:"enableQueryLogging"`
	EnableCaller      bool   `json:"enableCaller"`
}

// ReferenceConfig holds cascade settings for embedded properties (§4.9
// Writer cascade). The Writer does not read them: it always validates
// and always cascades, with no depth limit.
type ReferenceConfig struct {
	ValidateOnWrite bool `json:"validateOnWrite"`
	CascadeDelete   bool `json:"cascadeDelete"`
	MaxCascadeDepth int  `json:"maxCascadeDepth"`
}

// SnapshotConfig gates the optional S3 snapshot exporter (package
// ldcdc). It is never required for the core read/write loop.
type SnapshotConfig struct {
	Enabled    bool          `json:"enabled"`
	Bucket     string        `json:"bucket"`
	Prefix     string        `json:"prefix"`
	Interval   time.Duration `json:"interval"`
	Region     string        `json:"region"`
	GraphURI   string        `json:"graphUri"`
}

// DefaultConfig returns a Config with conservative, development-friendly
// defaults; every field is still expected to be overridden per
// environment in production use.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			MaxConnections:  25,
			MinConnections:  2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnectTimeout:  10 * time.Second,
			TripleTable:     "ld_triples",
			DuckDBPath:      ":memory:",
		},
		Query: QueryConfig{
			DefaultTimeout:  30 * time.Second,
			DefaultPageSize: 50,
			MaxPageSize:     1000,
			CachePlans:      true,
			PlanCacheTTL:    10 * time.Minute,
		},
		Loader: LoaderConfig{
			MaxRounds:        64,
			FetcherBatchSize: 256,
			SelectorWorkers:  8,
			UpdaterBatchSize: 256,
			RoundTimeout:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Reference: ReferenceConfig{
			ValidateOnWrite: true,
			CascadeDelete:   true,
			MaxCascadeDepth: 16,
		},
		Snapshot: SnapshotConfig{
			Interval: time.Hour,
		},
	}
}
