package geo

import (
	"net"

	"github.com/oschwald/maxminddb-golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MaxmindProvider answers ip-keyed country lookups from a GeoLite2
// mmdb. The lookup server uses it as a fallback for addresses that no
// merged range covers.
type MaxmindProvider struct {
	db *maxminddb.Reader
}

type mmdbRecord struct {
	Country struct {
		IsoCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
}

// NewMaxmindProvider opens the mmdb at the given path.
func NewMaxmindProvider(path string) (*MaxmindProvider, error) {
	db, err := maxminddb.Open(path)

	if err != nil {
		return nil, errors.Wrap(err, "unable to open geo database")
	}

	return &MaxmindProvider{db: db}, nil
}

// Country looks up the country for an IP address.
func (m *MaxmindProvider) Country(ip net.IP) (Country, bool) {
	var record mmdbRecord

	if err := m.db.Lookup(ip, &record); err != nil {
		log.WithFields(log.Fields{
			"error": err,
			"ip":    ip,
		}).Warning("Could not geolocate address")
		return Country{}, false
	}

	c := Country{
		IsoCode: record.Country.IsoCode,
		Name:    record.Country.Names["en"],
	}

	return c, !c.IsZero()
}

func (m *MaxmindProvider) Close() error {
	if m.db != nil {
		return m.db.Close()
	}

	return nil
}
