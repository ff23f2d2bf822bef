package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const baseConfig = `{
	// comments are allowed, this is json5
	portal: {
		base_url: "https://portal.example.ac.jp",
		login_url: "https://portal.example.ac.jp/portal/login?idp=adfs",
		landing_url_prefix: "https://portal.example.ac.jp/portal/home",
	},
	log: { level: "info" },
}`

const localConfig = `{
	log: { level: "debug" },
	database: { file: ":memory:" },
}`

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	require.NoError(t, err)
}

func TestReadMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "portalsync.json5"), baseConfig)
	writeFile(t, filepath.Join(dir, "portalsync.local.json5"), localConfig)

	cfg, err := Read[Config](filepath.Join(dir, "portalsync.json5"))
	require.NoError(t, err)

	require.Equal(t, "https://portal.example.ac.jp", cfg.Portal.BaseUrl)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, ":memory:", cfg.Database.File)
}

func TestReadMissing(t *testing.T) {
	_, err := Read[Config](filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0700))
	writeFile(t, filepath.Join(root, "portalsync.json5"), baseConfig)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[Config]("portalsync.json5")
	require.NoError(t, err)
	require.Equal(t, "https://portal.example.ac.jp", cfg.Portal.BaseUrl)
}

func TestDefaultsAndValidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "portalsync.json5"), baseConfig)

	cfg, err := Read[Config](filepath.Join(dir, "portalsync.json5"))
	require.NoError(t, err)
	cfg = cfg.WithDefaults()

	require.NoError(t, cfg.Validate())
	require.Equal(t, "SESSION", cfg.Portal.SessionCookie)
	require.Equal(t, 2000, cfg.Login.PollIntervalMs)
	require.True(t, *cfg.Login.Headless)
	require.Equal(t, KEYCHAIN_SQLITE, cfg.Keychain.Type)
	require.Equal(t, "Asia/Tokyo", cfg.Timezone)

	invalid := cfg
	invalid.Keychain.Type = "vault"
	require.Error(t, invalid.Validate())

	invalid = cfg
	invalid.Portal.LoginUrl = "/relative"
	require.Error(t, invalid.Validate())

	invalid = cfg
	invalid.Log.Level = "loud"
	require.Error(t, invalid.Validate())
}
