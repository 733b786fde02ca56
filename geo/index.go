package geo

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrBadGeonameID is returned when a location row's geoname_id column
// cannot be parsed as an integer. The locations table is small and
// expected to be fully well-formed, so this aborts index construction.
var ErrBadGeonameID = errors.New("location row has a non-numeric geoname_id")

// Index maps geoname ids to countries. It is built once from a
// locations table and never modified afterwards, so it is safe to share
// between concurrent readers without locking.
type Index map[uint]Country

// Country implements Resolver.
func (i Index) Country(id uint) (Country, bool) {
	c, ok := i[id]

	return c, ok
}

// NewIndex builds an Index from a GeoLite2-style locations CSV with at
// least the geoname_id, country_iso_code and country_name columns.
// A duplicate geoname_id silently overwrites the earlier entry, the
// same way repeated map insertion would.
func NewIndex(r io.Reader) (Index, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()

	if err != nil {
		return nil, errors.Wrap(err, "unable to read locations header")
	}

	cols := make(map[string]int, len(header))

	for i, name := range header {
		cols[name] = i
	}

	for _, required := range []string{"geoname_id", "country_iso_code", "country_name"} {
		if _, ok := cols[required]; !ok {
			return nil, errors.Errorf("locations table is missing the %q column", required)
		}
	}

	index := make(Index)

	line := 1

	for {
		line++

		row, err := cr.Read()

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(err, "unable to read locations row %d", line)
		}

		rawID := row[cols["geoname_id"]]

		id, err := strconv.ParseUint(rawID, 10, 32)

		if err != nil {
			return nil, errors.Wrapf(ErrBadGeonameID, "row %d: %q", line, rawID)
		}

		index[uint(id)] = Country{
			IsoCode: row[cols["country_iso_code"]],
			Name:    row[cols["country_name"]],
		}
	}

	log.WithField("locations", len(index)).Debug("Built location index")

	return index, nil
}
