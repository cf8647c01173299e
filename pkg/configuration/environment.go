package configuration

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/iota-uz/hrm-lifecycle/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c, err := Load([]string{".env", ".env.local"})
	if err != nil {
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}
	if len(existingFiles) == 0 {
		return 0, nil
	}
	return len(existingFiles), godotenv.Load(existingFiles...)
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

// LifecycleOptions configures the line-list engine and its upstream records API.
type LifecycleOptions struct {
	APIURL          string        `env:"LIFECYCLE_API_URL"`
	APIToken        string        `env:"LIFECYCLE_API_TOKEN"`
	APITimeout      time.Duration `env:"LIFECYCLE_API_TIMEOUT" envDefault:"30s"`
	DefaultLocale   string        `env:"LIFECYCLE_DEFAULT_LOCALE" envDefault:"en"`
	ProbationMonths int           `env:"LIFECYCLE_PROBATION_MONTHS" envDefault:"6"`
}

// Authorization renders the token as an Authorization header value.
func (o LifecycleOptions) Authorization() string {
	token := strings.TrimSpace(o.APIToken)
	if token == "" {
		return ""
	}
	if strings.Contains(token, " ") {
		return token
	}
	return "Bearer " + token
}

type Configuration struct {
	Prometheus PrometheusOptions
	Lifecycle  LifecycleOptions

	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:""`
	// Incoming requests carrying this header keep their id; otherwise a uuidv4 is generated.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

// DefaultLocale returns the parsed LIFECYCLE_DEFAULT_LOCALE.
func (c *Configuration) DefaultLocale() language.Tag {
	tag, err := language.Parse(c.Lifecycle.DefaultLocale)
	if err != nil {
		return language.English
	}
	return tag
}

func Use() *Configuration {
	return singleton()
}

// Load reads the env files that exist, parses the environment and opens the
// logger. Callers other than Use own the returned configuration and must
// Unload it.
func Load(envFiles []string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 && len(envFiles) > 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	if err := c.validateLifecycle(); err != nil {
		return err
	}

	if strings.TrimSpace(c.LogPath) == "" {
		c.logger = logging.ConsoleLogger(c.LogrusLogLevel())
	} else {
		f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
		if err != nil {
			return err
		}
		c.logFile = f
		c.logger = logger
	}

	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

func (c *Configuration) validateLogLevel() error {
	level := strings.ToLower(strings.TrimSpace(c.LogLevel))
	if level == "" {
		level = "error"
	}
	switch level {
	case "silent", "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("invalid LOG_LEVEL=%q (expected silent|error|warn|info|debug)", c.LogLevel)
	}
	c.LogLevel = level
	return nil
}

func (c *Configuration) validateLifecycle() error {
	if c.Lifecycle.ProbationMonths <= 0 {
		return fmt.Errorf("invalid LIFECYCLE_PROBATION_MONTHS=%d (expected > 0)", c.Lifecycle.ProbationMonths)
	}
	if c.Lifecycle.APITimeout <= 0 {
		return fmt.Errorf("invalid LIFECYCLE_API_TIMEOUT=%s (expected > 0)", c.Lifecycle.APITimeout)
	}
	if raw := strings.TrimSpace(c.Lifecycle.APIURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid LIFECYCLE_API_URL=%q", raw)
		}
		c.Lifecycle.APIURL = raw
	}
	if _, err := language.Parse(c.Lifecycle.DefaultLocale); err != nil {
		return fmt.Errorf("invalid LIFECYCLE_DEFAULT_LOCALE=%q: %w", c.Lifecycle.DefaultLocale, err)
	}
	return nil
}

// Unload releases the log file.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
		c.logFile = nil
	}
}
