package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(dir))
}

func TestLoadEnv_OnlyExistingFiles(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".env.local"), []byte("LIFECYCLE_TEST_ENV_LOAD=ok\n"), 0o644))
	chdir(t, tmp)
	t.Setenv("LIFECYCLE_TEST_ENV_LOAD", "")
	require.NoError(t, os.Unsetenv("LIFECYCLE_TEST_ENV_LOAD"))

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "ok", os.Getenv("LIFECYCLE_TEST_ENV_LOAD"))
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	c, err := Load(nil)
	require.NoError(t, err)
	t.Cleanup(c.Unload)

	require.Equal(t, 6, c.Lifecycle.ProbationMonths)
	require.Equal(t, 30*time.Second, c.Lifecycle.APITimeout)
	require.Equal(t, "X-Request-ID", c.RequestIDHeader)
	require.Equal(t, "localhost:3200", c.SocketAddress)
	require.Equal(t, logrus.ErrorLevel, c.LogrusLogLevel())
	require.Equal(t, "en", c.DefaultLocale().String())
	require.NotNil(t, c.Logger())
}

func TestLoad_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GO_APP_ENV", Production)
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_PATH", filepath.Join(t.TempDir(), "app.log"))
	t.Setenv("LIFECYCLE_API_URL", "https://hr.example.com/hrm/api")
	t.Setenv("LIFECYCLE_API_TOKEN", "secret")
	t.Setenv("LIFECYCLE_PROBATION_MONTHS", "3")
	t.Setenv("LIFECYCLE_DEFAULT_LOCALE", "zh")

	c, err := Load(nil)
	require.NoError(t, err)
	t.Cleanup(c.Unload)

	require.Equal(t, ":8080", c.SocketAddress)
	require.Equal(t, logrus.DebugLevel, c.LogrusLogLevel())
	require.Equal(t, 3, c.Lifecycle.ProbationMonths)
	require.Equal(t, "Bearer secret", c.Lifecycle.Authorization())
	require.Equal(t, "zh", c.DefaultLocale().String())
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	cases := map[string]string{
		"LOG_LEVEL":                  "verbose",
		"LIFECYCLE_PROBATION_MONTHS": "0",
		"LIFECYCLE_API_URL":          "hr.example.com",
		"LIFECYCLE_DEFAULT_LOCALE":   "not_a_locale!",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(key, value)
			_, err := Load(nil)
			require.Error(t, err)
		})
	}
}

func TestLifecycleOptions_Authorization(t *testing.T) {
	require.Empty(t, LifecycleOptions{}.Authorization())
	require.Equal(t, "Basic abc", LifecycleOptions{APIToken: "Basic abc"}.Authorization())
}
