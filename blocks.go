package geomerge

import (
	"strconv"
	"strings"

	"github.com/ipfeeds/geomerge/geo"
	"github.com/pkg/errors"
)

// BlockRow is one raw row of the blocks table. The three geoname id
// candidates stay as strings: upstream leaves any of them blank, and a
// blank or non-numeric candidate is simply skipped during resolution.
type BlockRow struct {
	Network                     string
	GeonameID                   string
	RegisteredCountryGeonameID  string
	RepresentedCountryGeonameID string
}

// MergedRow is one row of the merged output table.
type MergedRow struct {
	Timestamp string
	Network   string
	StartIP   string
	EndIP     string
	From      uint32
	To        uint32
	Code      string
	Name      string
}

// ResolveCountry walks the row's candidate ids in order (geoname_id,
// then registered, then represented country) and returns the country of
// the first id present in the index. No usable candidate yields the
// zero Country, which downstream becomes empty output columns.
func ResolveCountry(row BlockRow, resolver geo.Resolver) geo.Country {
	candidates := []string{
		row.GeonameID,
		row.RegisteredCountryGeonameID,
		row.RepresentedCountryGeonameID,
	}

	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)

		if raw == "" {
			continue
		}

		id, err := strconv.ParseUint(raw, 10, 32)

		if err != nil {
			continue
		}

		if country, ok := resolver.Country(uint(id)); ok {
			return country
		}
	}

	return geo.Country{}
}

// EnrichBlock resolves one block row against the location index and
// computes its address range. The timestamp is the snapshot time of the
// whole run, broadcast into every row.
func EnrichBlock(row BlockRow, resolver geo.Resolver, timestamp string) (MergedRow, error) {
	r, err := ParseRange(row.Network)

	if err != nil {
		return MergedRow{}, errors.Wrap(err, "unable to compute block range")
	}

	country := ResolveCountry(row, resolver)

	return MergedRow{
		Timestamp: timestamp,
		Network:   row.Network,
		StartIP:   r.Start.String(),
		EndIP:     r.End.String(),
		From:      IPToDecimal(r.Start),
		To:        IPToDecimal(r.End),
		Code:      country.IsoCode,
		Name:      country.Name,
	}, nil
}
