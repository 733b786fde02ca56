package geomerge

import (
	"io"
	"os"

	"github.com/ipfeeds/geomerge/geo"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"
)

// Merger is our application instance for the one-shot merge. It joins
// a locations snapshot and a blocks snapshot into one denormalized
// table of country-tagged address ranges.
type Merger struct {
	config *Config
}

// New creates a new instance of Merger.
func New(config *Config) *Merger {
	return &Merger{
		config: config,
	}
}

// Run executes the whole merge: optional snapshot download, index
// construction, block enrichment, and output writing.
func (m *Merger) Run() error {
	if m.config.Fetch.Enabled() {
		if err := m.fetchSnapshots(); err != nil {
			return errors.Wrap(err, "unable to fetch snapshots")
		}
	}

	locations, err := m.openInput(m.config.LocationsPath)

	if err != nil {
		return err
	}

	blocks, err := m.openInput(m.config.BlocksPath)

	if err != nil {
		locations.Close()
		return err
	}

	rows, err := m.merge(locations, blocks, m.config.Timestamp)

	locations.Close()
	blocks.Close()

	if err != nil {
		return err
	}

	out, err := os.Create(m.config.OutputPath)

	if err != nil {
		return errors.Wrap(err, "unable to create output file")
	}

	defer out.Close()

	if err := WriteTable(out, rows, m.config.DecimalColumns); err != nil {
		return err
	}

	unresolved := lo.CountBy(rows, func(row MergedRow) bool {
		return row.Code == "" && row.Name == ""
	})

	log.WithFields(log.Fields{
		"blocks":     len(rows),
		"unresolved": unresolved,
		"output":     m.config.OutputPath,
	}).Info("Merged table written")

	return nil
}

type namedReader struct {
	io.Reader
	io.Closer
}

// openInput opens a snapshot file wrapped for the configured encoding.
func (m *Merger) openInput(path string) (*namedReader, error) {
	f, err := os.Open(path)

	if err != nil {
		return nil, errors.Wrap(err, "unable to open input file")
	}

	r, err := DecodeReader(f, m.config.InputEncoding)

	if err != nil {
		f.Close()
		return nil, err
	}

	return &namedReader{Reader: r, Closer: f}, nil
}

// merge builds the location index from the locations table, then
// enriches every block row against it. Output rows come back in block
// order, one per input row.
func (m *Merger) merge(locations, blocks io.Reader, timestamp string) ([]MergedRow, error) {
	index, err := geo.NewIndex(locations)

	if err != nil {
		return nil, errors.Wrap(err, "unable to build location index")
	}

	blockRows, err := ReadBlocks(blocks)

	if err != nil {
		return nil, errors.Wrap(err, "unable to read blocks table")
	}

	log.WithFields(log.Fields{
		"locations": len(index),
		"blocks":    len(blockRows),
	}).Info("Enriching blocks")

	return m.enrich(index, blockRows, timestamp)
}

// enrich runs the per-row resolution and range computation. Rows are
// independent, so they fan out over a bounded worker pool; the mapper
// keeps results in input order and the index is only ever read.
func (m *Merger) enrich(index geo.Index, blocks []BlockRow, timestamp string) ([]MergedRow, error) {
	mapper := iter.Mapper[BlockRow, MergedRow]{
		MaxGoroutines: m.config.Workers,
	}

	return mapper.MapErr(blocks, func(block *BlockRow) (MergedRow, error) {
		return EnrichBlock(*block, index, timestamp)
	})
}
