package geomerge

import (
	"encoding/csv"
	"io"
	"net"
	"sort"

	"github.com/pkg/errors"
)

// RangeEntry is one merged range as served by the lookup endpoint.
type RangeEntry struct {
	Network string `json:"network"`
	StartIP string `json:"start_ip"`
	EndIP   string `json:"end_ip"`
	Code    string `json:"code"`
	Name    string `json:"name"`

	start uint32
	end   uint32
}

// RangeTable is an immutable set of merged ranges sorted by start
// address. It is built once per load and binary-searched per lookup,
// so concurrent readers need no locking.
type RangeTable struct {
	entries []RangeEntry
}

// LoadTable reads a previously merged CSV back into a RangeTable.
func LoadTable(r io.Reader) (*RangeTable, error) {
	cr := csv.NewReader(r)

	cr.FieldsPerRecord = -1

	header, err := cr.Read()

	if err != nil {
		return nil, errors.Wrap(err, "unable to read table header")
	}

	cols := make(map[string]int, len(header))

	for i, name := range header {
		cols[name] = i
	}

	for _, required := range []string{"network", "start_ip", "end_ip", "code", "name"} {
		if _, ok := cols[required]; !ok {
			return nil, errors.Errorf("table is missing the %q column", required)
		}
	}

	var entries []RangeEntry

	line := 1

	for {
		line++

		row, err := cr.Read()

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(err, "unable to read table row %d", line)
		}

		entry := RangeEntry{
			Network: row[cols["network"]],
			StartIP: row[cols["start_ip"]],
			EndIP:   row[cols["end_ip"]],
			Code:    row[cols["code"]],
			Name:    row[cols["name"]],
		}

		start := net.ParseIP(entry.StartIP).To4()
		end := net.ParseIP(entry.EndIP).To4()

		if start == nil || end == nil {
			return nil, errors.Errorf("table row %d has invalid addresses %q-%q", line, entry.StartIP, entry.EndIP)
		}

		entry.start = IPToDecimal(start)
		entry.end = IPToDecimal(end)

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].start < entries[j].start
	})

	return &RangeTable{entries: entries}, nil
}

// Len returns the number of ranges in the table.
func (t *RangeTable) Len() int {
	return len(t.entries)
}

// Lookup returns the range containing ip, if any.
func (t *RangeTable) Lookup(ip net.IP) (RangeEntry, bool) {
	v4 := ip.To4()

	if v4 == nil {
		return RangeEntry{}, false
	}

	n := IPToDecimal(v4)

	// First entry whose end covers n; it matches if its start does too.
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].end >= n
	})

	if i < len(t.entries) && t.entries[i].start <= n {
		return t.entries[i], true
	}

	return RangeEntry{}, false
}
