package geomerge

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// TimestampLayout is the snapshot timestamp format carried into the
// _last_changed column of every output row.
const TimestampLayout = "02.01.2006 15:04:05"

// Config represents our application's configuration.
type Config struct {
	// Mode selects between the one-shot merge (default) and the
	// lookup server ("serve").
	Mode string `mapstructure:"mode"`

	// LocationsPath is the path to the locations CSV snapshot.
	LocationsPath string `mapstructure:"locations"`

	// BlocksPath is the path to the blocks CSV snapshot.
	BlocksPath string `mapstructure:"blocks"`

	// OutputPath is where the merged table is written.
	OutputPath string `mapstructure:"output"`

	// Timestamp is the snapshot time stamped into every output row.
	// When empty, the CLI prompts for it.
	Timestamp string `mapstructure:"timestamp"`

	// DecimalColumns toggles the from/to integer address columns.
	DecimalColumns bool `mapstructure:"decimal_columns"`

	// Workers bounds the enrichment goroutines. Zero means one per CPU.
	Workers int `mapstructure:"workers"`

	// InputEncoding is the character encoding of the input snapshots.
	InputEncoding string `mapstructure:"input_encoding"`

	// Fetch optionally downloads the snapshots before merging.
	Fetch FetchConfig `mapstructure:"fetch"`

	// BindAddress is the address the lookup server binds to.
	BindAddress string `mapstructure:"bind"`

	// TablePath is the merged CSV the lookup server answers from.
	TablePath string `mapstructure:"table"`

	// CacheSize is the number of lookup results to keep in the LRU cache.
	CacheSize int `mapstructure:"cache_size"`

	// ReloadToken is a secret token used for web-based table reload.
	ReloadToken string `mapstructure:"reload_token"`

	// GeoDBPath optionally points at a GeoLite2 mmdb used as a lookup
	// fallback for addresses outside every merged range.
	GeoDBPath string `mapstructure:"geodb"`

	// RootCAs is a list of CA certificates, which we parse from Mozilla directly.
	RootCAs *x509.CertPool

	fetchClient *http.Client
}

// FetchConfig holds the snapshot download urls.
type FetchConfig struct {
	LocationsURL string `mapstructure:"locations_url"`
	BlocksURL    string `mapstructure:"blocks_url"`
}

// Enabled reports whether any snapshot download is configured.
func (f FetchConfig) Enabled() bool {
	return f.LocationsURL != "" || f.BlocksURL != ""
}

// SetRootCAs sets the root ca files, and creates the http client for
// snapshot downloads. This **MUST** be called before fetching is used.
func (c *Config) SetRootCAs(cas *x509.CertPool) {
	c.RootCAs = cas

	t := &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs: cas,
		},
	}

	c.fetchClient = &http.Client{
		Transport: t,
		Timeout:   5 * time.Minute,
	}
}

// NormalizeTimestamp validates a snapshot timestamp, substituting the
// current time when none was supplied.
func NormalizeTimestamp(ts string, now func() time.Time) (string, error) {
	if ts == "" {
		return now().Format(TimestampLayout), nil
	}

	if _, err := time.Parse(TimestampLayout, ts); err != nil {
		return "", errors.Errorf("timestamp %q is not in DD.MM.YYYY HH:MM:SS format", ts)
	}

	return ts, nil
}
