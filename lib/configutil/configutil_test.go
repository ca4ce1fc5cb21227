package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Delimiter  string   `json:"delimiter"`
	DataCenter string   `json:"data_center"`
	Excluded   []string `json:"excluded"`
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "surveyops.json5")
	require.NoError(t, os.WriteFile(name, []byte(`{
		// comments are fine in json5
		delimiter: "\t",
		data_center: "az1",
	}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "surveyops.local.json5"), []byte(`{
		data_center: "ca1",
	}`), 0600))

	config, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "\t", config.Delimiter)
	require.Equal(t, "ca1", config.DataCenter)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nope.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadOptional(t *testing.T) {
	defaults := testConfig{
		Delimiter: "\t",
		Excluded:  []string{"SurveyId", "ResponseId"},
	}

	config, err := ReadOptional(filepath.Join(t.TempDir(), "nope.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, config)

	dir := t.TempDir()
	name := filepath.Join(dir, "surveyops.json5")
	require.NoError(t, os.WriteFile(name, []byte(`{data_center: "az1"}`), 0600))
	config, err = ReadOptional(name, defaults)
	require.NoError(t, err)
	require.Equal(t, "az1", config.DataCenter)
	require.Equal(t, "\t", config.Delimiter)
	require.Equal(t, []string{"SurveyId", "ResponseId"}, config.Excluded)
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, filepath.Join("a", "b.local.json5"), LocalPath(filepath.Join("a", "b.json5")))
}
