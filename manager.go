package polymodels

// Manager bundles the per-type query operations of a hierarchy, in
// the spirit of a model manager.
type Manager struct {
	typ    *Type
	caster *Caster
}

func NewManager(typ *Type, caster *Caster) *Manager {
	return &Manager{typ: typ, caster: caster}
}

// New creates a fresh unsaved instance of the managed type.
func (m *Manager) New() (*Instance, error) {
	return m.typ.New()
}

// ById fetches one row of the managed type.
func (m *Manager) ById(id string) (*Instance, error) {
	record, err := m.caster.storage.ById(m.typ.Collection(), id)
	if err != nil {
		return nil, err
	}
	return m.typ.Wrap(record)
}

// All lists the rows of the managed type without casting them.
func (m *Manager) All() ([]*Instance, error) {
	records, err := m.caster.storage.All(m.typ.Collection())
	if err != nil {
		return nil, err
	}

	instances := make([]*Instance, len(records))
	for i, record := range records {
		instance, err := m.typ.Wrap(record)
		if err != nil {
			return nil, err
		}
		instances[i] = instance
	}
	return instances, nil
}

// Subtypes lists the rows of the managed type, each cast to its most
// derived type. With arguments the result is narrowed to instances of
// the given subtypes.
//
// The first hop below each row is prefetched through the recorded
// lookup keys; deeper hops still query one by one (single-hop lookup
// restriction).
func (m *Manager) Subtypes(subtypes ...*Type) ([]*Instance, error) {
	records, err := m.caster.storage.All(m.typ.Collection())
	if err != nil {
		return nil, err
	}

	if keys := m.lookupKeys(subtypes); len(keys) > 0 {
		if err := m.caster.storage.Expand(records, keys); err != nil {
			return nil, err
		}
	}

	instances := make([]*Instance, 0, len(records))
	for _, record := range records {
		instance, err := m.typ.Wrap(record)
		if err != nil {
			return nil, err
		}
		cast, err := m.caster.Cast(instance, nil)
		if err != nil {
			return nil, err
		}
		if len(subtypes) > 0 && !isAnyOf(cast.Type(), subtypes) {
			continue
		}
		instances = append(instances, cast)
	}
	return instances, nil
}

// Collects the distinct non-empty first-hop lookup keys of the
// managed type's accessor table, optionally narrowed to entries
// leading towards the given subtypes.
func (m *Manager) lookupKeys(subtypes []*Type) []string {
	keys := make([]string, 0, len(m.typ.subtypeOrder))
	seen := make(map[string]bool, len(m.typ.subtypeOrder))

	for _, sub := range m.typ.subtypeOrder {
		if len(subtypes) > 0 && !isAnyOf(sub, subtypes) {
			continue
		}
		accessor := m.typ.accessors[sub]
		if accessor.Lookup == "" || seen[accessor.Lookup] {
			continue
		}
		seen[accessor.Lookup] = true
		keys = append(keys, accessor.Lookup)
	}
	return keys
}

func isAnyOf(t *Type, types []*Type) bool {
	for _, other := range types {
		if t.Is(other) {
			return true
		}
	}
	return false
}
