package geomerge

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// outputColumns is the fixed column order downstream importers expect.
// The from/to decimal columns slot in after end_ip when enabled.
var outputColumns = []string{"_last_changed", "network", "start_ip", "end_ip", "code", "name"}

// DecodeReader wraps r with a decoder for the configured source
// encoding. Upstream snapshots are published in windows-1251 as well as
// utf-8.
func DecodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder().Reader(r), nil
	}

	return nil, errors.Errorf("unsupported input encoding %q", encoding)
}

// ReadBlocks loads the blocks table. Only the network column is
// required; the geoname id columns are optional and blank when missing.
// Rows are returned in file order.
func ReadBlocks(r io.Reader) ([]BlockRow, error) {
	cr := csv.NewReader(r)

	// Upstream pads some cells and varies trailing columns between
	// snapshot revisions.
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()

	if err != nil {
		return nil, errors.Wrap(err, "unable to read blocks header")
	}

	cols := make(map[string]int, len(header))

	for i, name := range header {
		cols[name] = i
	}

	if _, ok := cols["network"]; !ok {
		return nil, errors.New(`blocks table is missing the "network" column`)
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]

		if !ok || i >= len(row) {
			return ""
		}

		return row[i]
	}

	var blocks []BlockRow

	line := 1

	for {
		line++

		row, err := cr.Read()

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(err, "unable to read blocks row %d", line)
		}

		blocks = append(blocks, BlockRow{
			Network:                     cell(row, "network"),
			GeonameID:                   cell(row, "geoname_id"),
			RegisteredCountryGeonameID:  cell(row, "registered_country_geoname_id"),
			RepresentedCountryGeonameID: cell(row, "represented_country_geoname_id"),
		})
	}

	return blocks, nil
}

// WriteTable writes merged rows in the fixed output column order,
// optionally including the from/to decimal address columns.
func WriteTable(w io.Writer, rows []MergedRow, decimals bool) error {
	cw := csv.NewWriter(w)

	header := append([]string{}, outputColumns[:4]...)

	if decimals {
		header = append(header, "from", "to")
	}

	header = append(header, outputColumns[4:]...)

	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "unable to write header")
	}

	record := make([]string, 0, len(header))

	for _, row := range rows {
		record = record[:0]

		record = append(record, row.Timestamp, row.Network, row.StartIP, row.EndIP)

		if decimals {
			record = append(record,
				strconv.FormatUint(uint64(row.From), 10),
				strconv.FormatUint(uint64(row.To), 10),
			)
		}

		record = append(record, row.Code, row.Name)

		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "unable to write row")
		}
	}

	cw.Flush()

	return errors.Wrap(cw.Error(), "unable to flush output")
}
