package main

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/infrastructure/apiclient"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/services"
	"github.com/iota-uz/hrm-lifecycle/pkg/composables"
	"github.com/iota-uz/hrm-lifecycle/pkg/configuration"
	"github.com/iota-uz/hrm-lifecycle/pkg/eventbus"
	"github.com/iota-uz/hrm-lifecycle/pkg/intl"
)

var loadConfig = func() (*configuration.Configuration, error) {
	return configuration.Load([]string{".env", ".env.local"})
}

type upstreamOptions struct {
	apiURL  string
	token   string
	timeout time.Duration
}

type engine struct {
	conf    *configuration.Configuration
	service *services.LifecycleService
	client  *apiclient.Client
}

// newEngine builds the lifecycle service the way the server does. Flags
// override the LIFECYCLE_API_* settings.
func newEngine(upstream upstreamOptions) (*engine, error) {
	conf, err := loadConfig()
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("configuration: %w", err))
	}

	apiURL := conf.Lifecycle.APIURL
	if upstream.apiURL != "" {
		apiURL = upstream.apiURL
	}
	auth := conf.Lifecycle.Authorization()
	if upstream.token != "" {
		auth = configuration.LifecycleOptions{APIToken: upstream.token}.Authorization()
	}
	timeout := conf.Lifecycle.APITimeout
	if upstream.timeout > 0 {
		timeout = upstream.timeout
	}

	e := &engine{conf: conf}
	opts := services.LifecycleServiceOptions{
		ProbationMonths: conf.Lifecycle.ProbationMonths,
		Publisher:       eventbus.NewEventPublisher(conf.Logger()),
	}
	if apiURL != "" {
		client, err := apiclient.New(apiclient.Options{
			BaseURL:         apiURL,
			Authorization:   auth,
			Timeout:         timeout,
			RequestIDHeader: conf.RequestIDHeader,
			Logger:          logrus.NewEntry(conf.Logger()).WithField("component", "lifecycle.apiclient"),
		})
		if err != nil {
			conf.Unload()
			return nil, withCode(exitUsage, err)
		}
		e.client = client
		opts.Submitter = client
	}
	e.service = services.NewLifecycleService(opts)
	return e, nil
}

func (e *engine) close() {
	e.conf.Unload()
}

// withContext attaches the logger and a localizer for lang.
func (e *engine) withContext(ctx context.Context, lang string) (context.Context, error) {
	ctx = composables.WithLogger(ctx, logrus.NewEntry(e.conf.Logger()).WithField("entrypoint", "lifecycle-data"))
	return localize(ctx, lang)
}

func localize(ctx context.Context, lang string) (context.Context, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("invalid --lang %q: %w", lang, err))
	}
	bundle := intl.NewBundle(language.English)
	err = fs.WalkDir(lifecycle.LocaleFiles, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := lifecycle.LocaleFiles.ReadFile(p)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(b, path.Base(p))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load locales: %w", err)
	}
	ctx = intl.WithLocalizer(ctx, i18n.NewLocalizer(bundle, tag.String()))
	return intl.WithLocale(ctx, tag), nil
}
