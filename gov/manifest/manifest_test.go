package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func sample() Manifest {
	return Manifest{
		Registry:      common.HexToAddress("0x1000000000000000000000000000000000000001"),
		Staking:       common.HexToAddress("0x2000000000000000000000000000000000000002"),
		EnvStorage:    common.HexToAddress("0x3000000000000000000000000000000000000003"),
		BallotStorage: common.HexToAddress("0x4000000000000000000000000000000000000004"),
		Gov:           common.HexToAddress("0x5000000000000000000000000000000000000005"),
	}
}

// TestWrite_exactKeys checks the persisted document carries exactly the five
// documented keys, each a well-formed address.
func TestWrite_exactKeys(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), DefaultPath)

	require.NoError(File{Path: path}.Write(sample()))

	raw, err := os.ReadFile(path)
	require.NoError(err)

	var doc map[string]string
	require.NoError(json.Unmarshal(raw, &doc))
	require.Len(doc, len(Keys))
	for key, addr := range sample().Entries() {
		require.Contains(doc, key)
		require.True(common.IsHexAddress(doc[key]), doc[key])
		require.Equal(addr, common.HexToAddress(doc[key]))
	}
}

// TestWrite_overwrites verifies a second write replaces the first wholesale
// and leaves no temporary files behind.
func TestWrite_overwrites(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)

	require.NoError(os.WriteFile(path, []byte(`{"REGISTRY_ADDRESS":"0x01","EXTRA":"stale"}`), 0o644))

	m := sample()
	require.NoError(File{Path: path}.Write(m))

	got, err := Read(path)
	require.NoError(err)
	require.Equal(m, got)

	raw, err := os.ReadFile(path)
	require.NoError(err)
	require.NotContains(string(raw), "EXTRA")

	entries, err := os.ReadDir(dir)
	require.NoError(err)
	require.Len(entries, 1)
}

func TestWrite_failures(t *testing.T) {
	require := require.New(t)

	require.Error(File{}.Write(sample()))

	missing := filepath.Join(t.TempDir(), "no", "such", "dir", DefaultPath)
	require.Error(File{Path: missing}.Write(sample()))
}

func TestValidate(t *testing.T) {
	require := require.New(t)

	require.NoError(sample().Validate())

	m := sample()
	m.Gov = common.Address{}
	require.EqualError(m.Validate(), "manifest: GOV_ADDRESS is empty")
}

// TestValidate_firstMissingKey names the earliest empty key every time when
// several are missing.
func TestValidate_firstMissingKey(t *testing.T) {
	m := sample()
	m.Gov = common.Address{}
	m.EnvStorage = common.Address{}
	m.Registry = common.Address{}

	for i := 0; i < 20; i++ {
		require.EqualError(t, m.Validate(), "manifest: REGISTRY_ADDRESS is empty")
	}
}

func TestStream(t *testing.T) {
	require := require.New(t)
	var buf bytes.Buffer

	require.NoError(Stream{W: &buf}.Write(sample()))

	var got Manifest
	require.NoError(json.Unmarshal(buf.Bytes(), &got))
	require.Equal(sample(), got)
	require.Contains(buf.String(), "\"GOV_ADDRESS\"")
}
