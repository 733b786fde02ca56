package geomerge

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// fetchSnapshots downloads the configured snapshot urls over HTTPS
// into the corresponding input paths before merging.
func (m *Merger) fetchSnapshots() error {
	if m.config.fetchClient == nil {
		return errors.New("fetch client is not configured, call SetRootCAs first")
	}

	downloads := map[string]string{
		m.config.Fetch.LocationsURL: m.config.LocationsPath,
		m.config.Fetch.BlocksURL:    m.config.BlocksPath,
	}

	for url, dest := range downloads {
		if url == "" {
			continue
		}

		if err := m.download(url, dest); err != nil {
			return err
		}
	}

	return nil
}

// download fetches one snapshot. The file is written to a temporary
// sibling first so a failed transfer never clobbers a usable snapshot.
func (m *Merger) download(url, dest string) error {
	log.WithFields(log.Fields{
		"url":  url,
		"dest": dest,
	}).Info("Downloading snapshot")

	res, err := m.config.fetchClient.Get(url)

	if err != nil {
		return errors.Wrapf(err, "unable to download %s", url)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d downloading %s", res.StatusCode, url)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".snapshot-*")

	if err != nil {
		return errors.Wrap(err, "unable to create temporary file")
	}

	written, err := io.Copy(tmp, res.Body)

	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "unable to write %s", dest)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "unable to write %s", dest)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "unable to replace %s", dest)
	}

	log.WithFields(log.Fields{
		"dest":  dest,
		"bytes": written,
	}).Info("Snapshot downloaded")

	return nil
}
