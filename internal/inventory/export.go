package inventory

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/ncruces/go-strftime"

	rlog "rackinv/internal/log"
)

// CSVHeader is the fixed first row of every CSV export.
var CSVHeader = []string{"Product Name", "Serial Number", "Rack Location", "Username"}

const exportStampFormat = "%Y%m%d_%H%M%S"

// DefaultExportName returns server_inventory_<YYYYMMDD_HHMMSS><ext>.
func DefaultExportName(t time.Time, ext string) string {
	return "server_inventory_" + strftime.Format(exportStampFormat, t) + ext
}

// ExportCSV writes every record to a CSV file and returns its absolute path.
// An empty path selects DefaultExportName in the export directory.
func (s *Store) ExportCSV(path string) (string, error) {
	abs, err := s.exportPath(path, ".csv")
	if err != nil {
		return "", err
	}
	servers, err := s.Load()
	if err != nil {
		return "", err
	}
	if len(servers) == 0 {
		return "", ErrEmptyStore
	}

	data, err := encodeCSV(servers)
	if err != nil {
		return "", storageErr("export", abs, err)
	}
	if err := writeFile(abs, bytes.NewReader(data)); err != nil {
		return "", storageErr("export", abs, err)
	}
	rlog.WithOperation(s.log, "export_csv").Info("inventory exported", slog.String("file", abs), slog.Int("rows", len(servers)))
	return abs, nil
}

func (s *Store) exportPath(path, ext string) (string, error) {
	if path == "" {
		path = filepath.Join(s.exportDir, DefaultExportName(s.now(), ext))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", storageErr("export", path, err)
	}
	return abs, nil
}

func encodeCSV(servers []Server) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	enc := csvutil.NewEncoder(w)
	if err := enc.Encode(servers); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
