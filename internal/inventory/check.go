package inventory

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/servers.schema.json
var storeSchema []byte

// CheckReport is the outcome of validating a store file.
type CheckReport struct {
	Records  int
	Problems []string
}

// OK reports whether the file had no problems.
func (r CheckReport) OK() bool { return len(r.Problems) == 0 }

// Check validates the store file against the store schema and looks for
// serial numbers that collide once lower-cased.
func (s *Store) Check() (CheckReport, error) {
	return Check(s.path)
}

// Check validates the file at path. A missing file is an empty, valid store.
func Check(path string) (CheckReport, error) {
	var rep CheckReport
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rep, nil
		}
		return rep, storageErr("read", path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		rep.Problems = append(rep.Problems, "store file is empty")
		return rep, nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(storeSchema),
		gojsonschema.NewBytesLoader(b),
	)
	if err != nil {
		rep.Problems = append(rep.Problems, fmt.Sprintf("not valid JSON: %v", err))
		return rep, nil
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			rep.Problems = append(rep.Problems, e.String())
		}
		return rep, nil
	}

	var servers []Server
	if err := json.Unmarshal(b, &servers); err != nil {
		rep.Problems = append(rep.Problems, fmt.Sprintf("decode: %v", err))
		return rep, nil
	}
	rep.Records = len(servers)

	seen := make(map[string]int, len(servers))
	for i, srv := range servers {
		if first, ok := seen[srv.Key()]; ok {
			rep.Problems = append(rep.Problems,
				fmt.Sprintf("duplicate serial number %q (records %d and %d)", srv.SerialNumber, first+1, i+1))
			continue
		}
		seen[srv.Key()] = i
	}
	return rep, nil
}
