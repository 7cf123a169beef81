package debug

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// runSetup runs Setup through an app with the logging flags and emits a few
// records from the command action.
func runSetup(t *testing.T, args ...string) error {
	t.Helper()
	prev := log.Root()
	t.Cleanup(func() {
		Exit()
		log.SetDefault(prev)
	})

	app := cli.NewApp()
	app.Flags = Flags
	app.Before = Setup
	app.Action = func(*cli.Context) error {
		log.Info("Contract deployed", "name", "CryptoCoin")
		log.Debug("Polling receipt", "name", "CryptoCoin")
		log.Warn("Low balance", "account", 0)
		return nil
	}
	return app.Run(append([]string{"deployer"}, args...))
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	Exit()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSetupUnknownFormat(t *testing.T) {
	err := runSetup(t, "--log.format", "xml")
	require.ErrorContains(t, err, "unknown log format: xml")
}

func TestSetupJSONFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "deployer.log")
	require.NoError(t, runSetup(t, "--log.format", "json", "--log.file", file))

	out := readLog(t, file)
	assert.Contains(t, out, `"msg":"Contract deployed"`)
	assert.Contains(t, out, `"name":"CryptoCoin"`)
	assert.NotContains(t, out, "Polling receipt")
}

func TestSetupLogfmtFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "deployer.log")
	require.NoError(t, runSetup(t, "--log.format", "logfmt", "--log.file", file, "--verbosity", "4"))

	out := readLog(t, file)
	assert.Contains(t, out, `msg="Contract deployed"`)
	assert.Contains(t, out, "name=CryptoCoin")
	assert.Contains(t, out, `msg="Polling receipt"`)
}

func TestSetupVerbosity(t *testing.T) {
	file := filepath.Join(t.TempDir(), "deployer.log")
	require.NoError(t, runSetup(t, "--log.file", file, "--verbosity", "2"))

	out := readLog(t, file)
	assert.Contains(t, out, "Low balance")
	assert.NotContains(t, out, "Contract deployed")
}

func TestSetupRotatedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "deployer.log")
	require.NoError(t, runSetup(t, "--log.file", file, "--log.rotate", "--log.maxsize", "1"))

	out := readLog(t, file)
	assert.Contains(t, out, "Contract deployed")
	assert.Contains(t, out, "name=CryptoCoin")
}
