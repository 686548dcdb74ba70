package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParsesLedgerSettings(t *testing.T) {
	path := writeConfig(t, `ListenAddress = "127.0.0.1:9000"
DataDir = "/var/lib/launchpad"
Environment = "testnet"
Owner = "owner.testnet"
JoinFee = "1000000000000000000000000"
ReferralFees = [5, 10, 15]
PausedModules = ["Linkdrop"]

[logging]
Level = "debug"
File = "/var/log/launchpad.log"

[auth]
Enabled = true
HMACSecret = "0123456789abcdef0123456789abcdef"
Issuer = "launchpad"
ClockSkewSeconds = 30

[rate_limit]
RequestsPerSecond = 5
TrustProxyHeaders = true

[telemetry]
Endpoint = "otel:4318"
Traces = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.ListenAddress)
	require.Equal(t, "owner.testnet", cfg.Owner)
	require.Equal(t, []uint64{5, 10, 15}, cfg.ReferralFees)
	require.Equal(t, filepath.Join("/var/lib/launchpad", "journal.db"), cfg.JournalPath)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, float64(5), cfg.RateLimit.RequestsPerSecond)
	require.Equal(t, 40, cfg.RateLimit.Burst)
	require.True(t, cfg.RateLimit.TrustProxyHeaders)
	require.Equal(t, "launchpadd", cfg.Telemetry.ServiceName)

	params, err := cfg.Params()
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000000000", params.JoinFee.String())
	require.Equal(t, []uint64{5, 10, 15}, params.ReferralFees)
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default().Owner, cfg.Owner)
	require.FileExists(t, path)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ReferralFees, reloaded.ReferralFees)
	require.Equal(t, cfg.ListenAddress, reloaded.ListenAddress)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"decreasing fees": `Owner = "o.near"
ReferralFees = [20, 10]`,
		"fee over 100": `Owner = "o.near"
ReferralFees = [150]`,
		"missing owner": `ReferralFees = [1]`,
		"bad join fee": `Owner = "o.near"
JoinFee = "-5"`,
		"unknown module": `Owner = "o.near"
PausedModules = ["swap"]`,
		"short secret": `Owner = "o.near"
[auth]
Enabled = true
HMACSecret = "short"`,
		"unknown key": `Owner = "o.near"
Bootnodes = ["x"]`,
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, contents))
			require.Error(t, err)
		})
	}
}
