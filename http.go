package geomerge

import (
	"encoding/json"
	"net"
	"net/http"
	"os"

	logger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	lru "github.com/hashicorp/golang-lru"
	"github.com/ipfeeds/geomerge/geo"
	"github.com/ipfeeds/geomerge/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	lookupsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geomerge_lookups",
		Help: "The total number of processed range lookups",
	})

	lookupCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geomerge_lookup_cache_hits",
		Help: "The number of lookups answered from the LRU cache",
	})

	tableRanges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "geomerge_table_ranges",
		Help: "The number of ranges in the loaded table",
	})
)

// Server answers IP-to-country lookups over a previously merged table.
type Server struct {
	config   *Config
	table    *RangeTable
	cache    *lru.Cache
	fallback *geo.MaxmindProvider
}

// NewServer creates a new instance of Server.
func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

// Start loads the table and registers the routes, then returns the
// http.Handler.
func (s *Server) Start() (http.Handler, error) {
	var err error

	s.cache, err = lru.New(s.config.CacheSize)

	if err != nil {
		return nil, errors.Wrap(err, "unable to create lookup cache")
	}

	if err := s.ReloadTable(); err != nil {
		return nil, err
	}

	if s.config.GeoDBPath != "" {
		s.fallback, err = geo.NewMaxmindProvider(s.config.GeoDBPath)

		if err != nil {
			return nil, err
		}
	}

	log.Info("Setting up routes")

	router := chi.NewRouter()

	router.Use(middleware.RealIPMiddleware)
	router.Use(logger.Logger("geomerge", log.StandardLogger()))

	router.Head("/status", s.statusHandler)
	router.Get("/status", s.statusHandler)
	router.Get("/lookup", s.lookupHandler)
	router.Post("/reload", s.reloadHandler)
	router.Get("/metrics", promhttp.Handler().ServeHTTP)

	if s.config.BindAddress != "" {
		log.WithField("bind", s.config.BindAddress).Info("Binding to address")

		go http.ListenAndServe(s.config.BindAddress, router)
	}

	return router, nil
}

// ReloadTable re-reads the merged table from disk and swaps it in,
// purging the lookup cache. On error the previous table stays active.
func (s *Server) ReloadTable() error {
	f, err := os.Open(s.config.TablePath)

	if err != nil {
		return errors.Wrap(err, "unable to open table file")
	}

	defer f.Close()

	table, err := LoadTable(f)

	if err != nil {
		return errors.Wrap(err, "unable to load table")
	}

	s.table = table
	s.cache.Purge()

	tableRanges.Set(float64(table.Len()))

	log.WithField("ranges", table.Len()).Info("Loaded range table")

	return nil
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// lookupResponse wraps the matched entry with the queried ip.
type lookupResponse struct {
	IP string `json:"ip"`
	RangeEntry
}

func (s *Server) lookupHandler(w http.ResponseWriter, r *http.Request) {
	ipStr := r.URL.Query().Get("ip")

	// Without an explicit ip we answer for the caller, the same way
	// geoip endpoints usually do.
	if ipStr == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)

		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		ipStr = host
	}

	ip := net.ParseIP(ipStr)

	if ip == nil || ip.To4() == nil {
		http.Error(w, "invalid ipv4 address", http.StatusBadRequest)
		return
	}

	lookupsServed.Inc()

	if cached, ok := s.cache.Get(ip.String()); ok {
		lookupCacheHits.Inc()

		s.writeEntry(w, cached.(lookupResponse))
		return
	}

	entry, ok := s.table.Lookup(ip)

	if !ok && s.fallback != nil {
		if country, found := s.fallback.Country(ip); found {
			entry = RangeEntry{
				Code: country.IsoCode,
				Name: country.Name,
			}
			ok = true
		}
	}

	if !ok {
		http.Error(w, "no range covers this address", http.StatusNotFound)
		return
	}

	res := lookupResponse{
		IP:         ip.String(),
		RangeEntry: entry,
	}

	s.cache.Add(ip.String(), res)

	s.writeEntry(w, res)
}

func (s *Server) writeEntry(w http.ResponseWriter, res lookupResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	json.NewEncoder(w).Encode(res)
}

func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") != s.config.ReloadToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	if err := s.ReloadTable(); err != nil {
		log.WithError(err).Warning("Did not reload table due to error")

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
