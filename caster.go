package polymodels

import (
	"fmt"
)

// Caster walks the precomputed accessor chains of a hierarchy to cast
// live instances between its types.
type Caster struct {
	hierarchy *Hierarchy
	registry  TypeRegistry
	storage   Storage
}

func NewCaster(hierarchy *Hierarchy, registry TypeRegistry, storage Storage) *Caster {
	return &Caster{
		hierarchy: hierarchy,
		registry:  registry,
		storage:   storage,
	}
}

// Cast returns the given instance as an instance of the target type.
//
// A nil target is resolved by reading the instance's discriminator
// and mapping it through the type registry, i.e. the instance is cast
// to its most derived type.
//
// The accessor chain is looked up on the instance's declared type. A
// table miss falls back to the identity chain; the final type check
// catches genuine mismatches either way. Every hop may fetch the
// related child row and fails when that row is missing.
func (c *Caster) Cast(instance *Instance, to *Type) (*Instance, error) {
	if to == nil {
		resolved, err := c.resolveTarget(instance)
		if err != nil {
			return nil, err
		}
		to = resolved
	}

	accessor, _ := instance.typ.Accessor(to)

	record := instance.Record
	typeCasted := instance.typ
	for _, step := range accessor.Steps {
		related, err := c.storage.Related(record, step)
		if err != nil {
			return nil, err
		}
		record = related
		typeCasted = step.Target
	}

	if accessor.Proxy != nil {
		record = copyFields(record)
		typeCasted = accessor.Proxy
	}

	// Ensure the type cast worked. This check is never skipped.
	if !typeCasted.Is(to) {
		return nil, &CastError{Record: instance.Record, Target: to}
	}

	out := &Instance{typ: typeCasted}
	out.SetProxyRecord(record)
	return out, nil
}

// Save persists the instance. On first save (no primary key yet) the
// discriminator is stamped with the registry id of the instance's
// exact runtime type. Later saves leave it untouched.
func (c *Caster) Save(instance *Instance) error {
	if instance.Record.Id == "" {
		id, err := c.registry.Register(instance.typ.Name())
		if err != nil {
			return err
		}
		instance.Set(instance.typ.DiscriminatorField(), id)
	}
	return c.storage.Save(instance.Record)
}

func (c *Caster) resolveTarget(instance *Instance) (*Type, error) {
	field := instance.typ.DiscriminatorField()
	id := instance.GetString(field)
	if id == "" {
		return nil, fmt.Errorf("record %q carries no discriminator value in %q", instance.Record.Id, field)
	}
	name, err := c.registry.Resolve(id)
	if err != nil {
		return nil, err
	}
	to := c.hierarchy.Type(name)
	if to == nil {
		return nil, fmt.Errorf("the type registry resolved %q to %q, which is not part of the hierarchy", id, name)
	}
	return to, nil
}
