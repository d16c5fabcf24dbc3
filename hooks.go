package polymodels

import (
	"github.com/pocketbase/pocketbase/core"
)

// RegisterHooks stamps the discriminator of records that are created
// through the regular PocketBase APIs instead of Caster.Save. One
// create hook is bound per concrete collection of the hierarchy.
//
// Records created this way are stamped with the type that owns their
// collection; only Caster.Save can know a more derived runtime type.
func RegisterHooks(app core.App, hierarchy *Hierarchy, registry TypeRegistry) {
	for _, typ := range hierarchy.Types() {
		if typ.IsAbstract() || typ.IsProxy() {
			continue
		}

		app.OnRecordCreate(typ.Collection().Name).BindFunc(func(e *core.RecordEvent) error {
			field := typ.DiscriminatorField()
			if e.Record.GetString(field) == "" {
				id, err := registry.Register(typ.Name())
				if err != nil {
					return err
				}
				e.Record.Set(field, id)
			}
			return e.Next()
		})
	}
}
