package polymodels

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

// Instance is the in-memory envelope of one hierarchy row: a record
// proxy plus the type identity the record is currently viewed as.
type Instance struct {
	core.BaseRecordProxy
	typ *Type
}

func (i *Instance) Type() *Type { return i.typ }

// New creates an unsaved instance of the type with a fresh record.
func (t *Type) New() (*Instance, error) {
	collection := t.Collection()
	if collection == nil {
		return nil, fmt.Errorf("abstract type %q can not be instantiated", t.name)
	}
	instance := &Instance{typ: t}
	instance.SetProxyRecord(core.NewRecord(collection))
	return instance, nil
}

// Wrap views an already loaded record as an instance of the type.
// The record must belong to the type's collection.
func (t *Type) Wrap(record *core.Record) (*Instance, error) {
	collection := t.Collection()
	if collection == nil || record.Collection().Name != collection.Name {
		return nil, fmt.Errorf(
			"a record of collection %q can not be viewed as %v",
			record.Collection().Name, t.name,
		)
	}
	instance := &Instance{typ: t}
	instance.SetProxyRecord(record)
	return instance, nil
}

// Copies the stored field values of a record into a fresh record of
// the same collection. Proxy casts use this because they share the
// stored row but need their own in-memory envelope.
func copyFields(src *core.Record) *core.Record {
	clone := core.NewRecord(src.Collection())
	clone.Id = src.Id
	for _, field := range src.Collection().Fields {
		name := field.GetName()
		if name == core.FieldNameId {
			continue
		}
		clone.SetRaw(name, src.GetRaw(name))
	}
	return clone
}
