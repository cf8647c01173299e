package modules

import (
	"github.com/iota-uz/hrm-lifecycle/modules/lifecycle"
	"github.com/iota-uz/hrm-lifecycle/pkg/application"
)

var (
	BuiltInModules = []application.Module{
		lifecycle.NewModule(nil),
	}
)

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
