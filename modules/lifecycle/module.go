package lifecycle

import (
	"embed"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/domain/line"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/infrastructure/apiclient"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/presentation/controllers"
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle/services"
	"github.com/iota-uz/hrm-lifecycle/pkg/application"
	"github.com/iota-uz/hrm-lifecycle/pkg/configuration"
)

//go:embed presentation/locales/*.toml
var LocaleFiles embed.FS

// ModuleOptions overrides the collaborators the module would otherwise build
// from configuration.
type ModuleOptions struct {
	IDs       line.IDGenerator
	Today     func() time.Time
	Submitter services.Submitter
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()

	submitter := m.options.Submitter
	if submitter == nil && conf.Lifecycle.APIURL != "" {
		client, err := apiclient.New(apiclient.Options{
			BaseURL:         conf.Lifecycle.APIURL,
			Authorization:   conf.Lifecycle.Authorization(),
			Timeout:         conf.Lifecycle.APITimeout,
			RequestIDHeader: conf.RequestIDHeader,
			Logger:          logrus.NewEntry(app.Logger()).WithField("component", "lifecycle.apiclient"),
		})
		if err != nil {
			return errors.Wrap(err, "lifecycle api client")
		}
		submitter = client
	}

	app.RegisterLocaleFiles(&LocaleFiles)
	app.RegisterServices(
		services.NewLifecycleService(services.LifecycleServiceOptions{
			IDs:             m.options.IDs,
			Today:           m.options.Today,
			ProbationMonths: conf.Lifecycle.ProbationMonths,
			Publisher:       app.EventPublisher(),
			Submitter:       submitter,
		}),
	)
	app.RegisterControllers(
		controllers.NewLifecycleAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "lifecycle"
}
