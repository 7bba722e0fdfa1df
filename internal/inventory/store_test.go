package inventory

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	dell = Server{ProductName: "Dell R740", SerialNumber: "SN1", RackLocation: "Rack-A1", Username: "admin"}
	hp   = Server{ProductName: "HPE DL380", SerialNumber: "XY-77", RackLocation: "Rack-B4", Username: "ops"}
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "servers.json"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	return s
}

func TestOpenCreatesEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "servers.json")
	s, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, path, s.Path())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[]", strings.TrimSpace(string(b)))

	servers, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, servers)
}

func TestOpenKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"product_name":"Dell R740","serial_number":"SN1","rack_location":"Rack-A1","username":"admin"}]`), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	servers, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, []Server{dell}, servers)
}

func TestAddThenLoadPreservesOrder(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Add(dell))
	require.NoError(t, s.Add(hp))

	third := Server{ProductName: "Supermicro X11", SerialNumber: "SM-3", RackLocation: "Rack-C2", Username: "lab"}
	require.NoError(t, s.Add(third))

	servers, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, []Server{dell, hp, third}, servers)
}

func TestAddStoresRecordAsGiven(t *testing.T) {
	s := openTemp(t)
	short := Server{ProductName: "D", SerialNumber: " SN9 ", RackLocation: "R", Username: "a"}
	require.NoError(t, s.Add(short))

	servers, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, []Server{short}, servers)
}

func TestAddDuplicateSerialIgnoresCase(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Add(hp))
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	err = s.Add(Server{ProductName: "Other", SerialNumber: "xy-77", RackLocation: "Rack-Z9", Username: "lab"})
	require.ErrorIs(t, err, ErrDuplicateKey)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestSearchMatchesAnyFieldIgnoringCase(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Add(dell))
	require.NoError(t, s.Add(hp))

	got, err := s.Search("dell")
	require.NoError(t, err)
	require.Equal(t, []Server{dell}, got)

	got, err = s.Search("RACK")
	require.NoError(t, err)
	require.Equal(t, []Server{dell, hp}, got)

	got, err = s.Search("xy-7")
	require.NoError(t, err)
	require.Equal(t, []Server{hp}, got)

	got, err = s.Search("OPS")
	require.NoError(t, err)
	require.Equal(t, []Server{hp}, got)

	got, err = s.Search("nothing-like-this")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDeleteIgnoresCase(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Add(dell))
	require.NoError(t, s.Add(hp))

	require.NoError(t, s.Delete("xy-77"))
	servers, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, []Server{dell}, servers)
}

func TestDeleteMatchesStoredWhitespace(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`[{"product_name":"Dell R740","serial_number":" SN1","rack_location":"Rack-A1","username":"admin"}]`), 0o644))

	require.ErrorIs(t, s.Delete("SN1"), ErrNotFound)
	require.NoError(t, s.Delete(" sn1"))

	servers, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, servers)
}

func TestDeleteMissingLeavesFileUnchanged(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Add(dell))
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	err = s.Delete("SN404")
	require.ErrorIs(t, err, ErrNotFound)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestLoadMissingEmptyOrCorruptIsEmpty(t *testing.T) {
	s := openTemp(t)
	for _, content := range []string{"", "   \n", "{not json", `{"product_name":"x"}`, "null", `[1, 2]`} {
		require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o644))
		servers, err := s.Load()
		require.NoError(t, err, "content %q", content)
		require.Empty(t, servers, "content %q", content)
	}

	require.NoError(t, os.Remove(s.Path()))
	servers, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, servers)
}

func TestAddAfterCorruptFileStartsFresh(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("garbage"), 0o644))
	require.NoError(t, s.Add(dell))
	servers, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, []Server{dell}, servers)
}

func TestLoadUnreadableIsStorageError(t *testing.T) {
	dir := t.TempDir()
	// a directory where the file should be cannot be read as one
	path := filepath.Join(dir, "servers.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	s := &Store{path: path}
	_, err := s.Load()
	require.ErrorIs(t, err, ErrStorageIO)

	var se *StorageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "read", se.Op)
	require.Equal(t, path, se.Path)
}

func TestSavedFileFormat(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Add(Server{ProductName: "Dell <R740> & co", SerialNumber: "SN1", RackLocation: "Rack-A1", Username: "admin"}))

	b, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	text := string(b)
	require.True(t, strings.HasPrefix(text, "[\n    {\n        \"product_name\": "), "got:\n%s", text)
	require.Contains(t, text, `"Dell <R740> & co"`)

	var raw []map[string]string
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Equal(t, []map[string]string{{
		"product_name":  "Dell <R740> & co",
		"serial_number": "SN1",
		"rack_location": "Rack-A1",
		"username":      "admin",
	}}, raw)
}

func TestStoreRereadsFileEachCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.json")
	a, err := Open(path)
	require.NoError(t, err)
	b, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, a.Add(dell))
	err = b.Add(Server{ProductName: "Other", SerialNumber: "sn1", RackLocation: "Rack-Z9", Username: "x1"})
	require.ErrorIs(t, err, ErrDuplicateKey)

	servers, err := b.Load()
	require.NoError(t, err)
	require.Equal(t, []Server{dell}, servers)
}

func TestWrittenFilesAreWorldReadable(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Add(dell))

	st, err := os.Stat(s.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), st.Mode().Perm())

	out, err := s.ExportCSV(filepath.Join(t.TempDir(), "out.csv"))
	require.NoError(t, err)
	st, err = os.Stat(out)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), st.Mode().Perm())
}

func TestRewriteKeepsExistingMode(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, os.Chmod(s.Path(), 0o600))
	require.NoError(t, s.Add(dell))

	st, err := os.Stat(s.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}
