// Package polymodels lets a base PocketBase record be type cast to any
// registered subtype of its collection hierarchy at query time, using a
// stored content type discriminator.
//
// A hierarchy is a chain of collections linked by one-to-one relation
// fields (every subtype collection holds a relation to the row of its
// nearest concrete ancestor). At build time the package computes, for
// every type, the ordered accessor chain needed to walk from an ancestor
// row down to the subtype row and caches it on the ancestor. Casting is
// then just a walk along the cached chain.
package polymodels

import (
	"errors"
	"fmt"
	"slices"

	"github.com/iancoleman/strcase"
	"github.com/pocketbase/pocketbase/core"
)

// Descriptor declares one type of a hierarchy before it is built.
type Descriptor struct {
	// Name of the type, e.g. "SuperUser". The conventional collection
	// name is its snake case form.
	Name string

	// Name of the parent type. Empty for the hierarchy base.
	Parent string

	// Abstract types have no collection of their own and no accessor
	// table. They only pass their declarations down the chain.
	Abstract bool

	// Proxy types share the collection of their parent and carry no
	// new fields. Casting to them is an in-memory reinterpretation.
	Proxy bool

	// Name of the relation field holding the discriminator. Inherited
	// from the nearest ancestor that declares one when empty.
	DiscriminatorField string

	// Collection schema of the type. Required for concrete non-proxy
	// types, must be left nil otherwise.
	Collection *core.Collection
}

// Step is one hop of an accessor chain, fully resolved at build time.
type Step struct {
	// Type whose row the hop lands on.
	Target *Type

	// Relation field on the target collection that points back at the
	// ancestor row the hop starts from.
	ParentField string

	// Back-relation expand key of the hop
	// ("<collection>_via_<field>").
	ExpandKey string
}

// Accessor describes how to reach one subtype from the type whose
// table it is stored in.
type Accessor struct {
	Steps []Step

	// Set when the entry's subtype is a proxy. The walked record then
	// needs a field copy into a fresh envelope of the proxy type.
	Proxy *Type

	// Expand key of the first step only. Deeper hops cannot be
	// expressed as a single relational lookup, so query-time
	// prefetching is restricted to one hop. This is a documented
	// restriction, not a bug.
	Lookup string
}

// Type is one member of a built hierarchy. Immutable after
// BuildHierarchy returns.
type Type struct {
	name               string
	parent             *Type
	abstract           bool
	proxy              bool
	discriminatorField string
	collection         *core.Collection
	root               *Type

	accessors    map[*Type]Accessor
	subtypeOrder []*Type
}

func (t *Type) Name() string { return t.name }

func (t *Type) Parent() *Type { return t.parent }

func (t *Type) IsAbstract() bool { return t.abstract }

func (t *Type) IsProxy() bool { return t.proxy }

// Root returns the topmost concrete ancestor the accessor chains of
// this type originate from.
func (t *Type) Root() *Type { return t.root }

func (t *Type) IsRoot() bool { return t.root == t }

// Collection returns the collection the type's rows are stored in.
// Proxy types share the collection of their storage type. Nil for
// abstract types.
func (t *Type) Collection() *core.Collection {
	if s := t.storageType(); s != nil {
		return s.collection
	}
	return nil
}

// DiscriminatorField returns the effective (possibly inherited) name
// of the discriminator relation field.
func (t *Type) DiscriminatorField() string { return t.discriminatorField }

// Accessor returns the cached accessor entry for the given subtype.
// The second return is false when no path to the subtype is known.
func (t *Type) Accessor(to *Type) (Accessor, bool) {
	acc, ok := t.accessors[to]
	return acc, ok
}

// Subtypes returns every type reachable below (and including) this
// one, in hierarchy registration order.
func (t *Type) Subtypes() []*Type {
	return slices.Clone(t.subtypeOrder)
}

// Is reports whether the type is the other type or a descendant of it.
func (t *Type) Is(other *Type) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// The non-proxy type owning the collection the rows live in.
func (t *Type) storageType() *Type {
	cur := t
	for cur != nil && cur.proxy {
		cur = cur.parent
	}
	if cur == nil || cur.abstract {
		return nil
	}
	return cur
}

// The nearest ancestor that has a collection of its own. Nil for the
// topmost concrete type.
func (t *Type) concreteAncestor() *Type {
	for cur := t.parent; cur != nil; cur = cur.parent {
		if !cur.abstract && !cur.proxy {
			return cur
		}
	}
	return nil
}

// Hierarchy is the immutable result of BuildHierarchy. It owns every
// Type and the accessor tables shared by all instances.
type Hierarchy struct {
	types map[string]*Type
	order []*Type
}

// Type returns the hierarchy member with the given name, or nil.
func (h *Hierarchy) Type(name string) *Type { return h.types[name] }

// Types returns all members in registration order.
func (h *Hierarchy) Types() []*Type { return slices.Clone(h.order) }

// BuildHierarchy resolves a set of type descriptors into a hierarchy
// and computes the subclass accessor table of every concrete type.
//
// It is the explicit replacement for a class registration hook: call
// it once at startup, before any record is handled. Any configuration
// error aborts the build; there is no partial result.
func BuildHierarchy(registry TypeRegistry, descriptors ...*Descriptor) (*Hierarchy, error) {
	h := &Hierarchy{types: make(map[string]*Type, len(descriptors))}

	resolved, err := resolveTypes(h, descriptors)
	if err != nil {
		return nil, err
	}

	for _, t := range resolved {
		if err := validateType(t, registry); err != nil {
			return nil, err
		}
	}

	for _, t := range resolved {
		registerType(t)
	}

	return h, nil
}

// Orders descriptors parents-first and links them into Type values.
func resolveTypes(h *Hierarchy, descriptors []*Descriptor) ([]*Type, error) {
	baseCount := 0
	for _, d := range descriptors {
		if d.Parent == "" {
			baseCount += 1
		}
	}
	if baseCount != 1 {
		errMsg := fmt.Sprintf("a hierarchy needs exactly one base type, found %v", baseCount)
		return nil, errors.New(errMsg)
	}

	pending := slices.Clone(descriptors)
	resolved := make([]*Type, 0, len(descriptors))

	for len(pending) > 0 {
		progressed := false
		remaining := pending[:0]

		for _, d := range pending {
			var parent *Type
			if d.Parent != "" {
				parent = h.types[d.Parent]
				if parent == nil {
					remaining = append(remaining, d)
					continue
				}
			}

			if _, ok := h.types[d.Name]; ok {
				return nil, fmt.Errorf("duplicate type name %q", d.Name)
			}

			t := &Type{
				name:               d.Name,
				parent:             parent,
				abstract:           d.Abstract,
				proxy:              d.Proxy,
				discriminatorField: d.DiscriminatorField,
				collection:         d.Collection,
			}
			if t.discriminatorField == "" && parent != nil {
				t.discriminatorField = parent.discriminatorField
			}
			if !t.abstract {
				t.accessors = make(map[*Type]Accessor)
			}

			h.types[d.Name] = t
			h.order = append(h.order, t)
			resolved = append(resolved, t)
			progressed = true
		}

		if !progressed {
			names := make([]string, len(remaining))
			for i, d := range remaining {
				names[i] = d.Name
			}
			return nil, fmt.Errorf("unknown or cyclic parent types for %v", names)
		}
		pending = remaining
	}

	return resolved, nil
}

// Checks the fatal configuration preconditions of a single type.
func validateType(t *Type, registry TypeRegistry) error {
	if t.abstract {
		if t.proxy {
			return fmt.Errorf("type %q can not be abstract and a proxy at once", t.name)
		}
		if t.collection != nil {
			return fmt.Errorf("abstract type %q must not declare a collection", t.name)
		}
		return nil
	}

	if t.proxy {
		if t.collection != nil {
			return fmt.Errorf("proxy type %q must not declare a collection", t.name)
		}
		if t.storageType() == nil {
			return fmt.Errorf("proxy type %q does not alias a concrete type", t.name)
		}
	} else if t.collection == nil {
		return fmt.Errorf("concrete type %q must declare a collection", t.name)
	}

	if t.discriminatorField == "" {
		return fmt.Errorf("type %q: %w", t.name, ErrNoDiscriminator)
	}

	collection := t.Collection()
	field := collection.Fields.GetByName(t.discriminatorField)
	if field == nil {
		return fmt.Errorf(
			"%v.DiscriminatorField points to an inexistent field %q on collection %q",
			t.name, t.discriminatorField, collection.Name,
		)
	}
	relation, ok := field.(*core.RelationField)
	if !ok || relation.CollectionId != registry.CollectionId() {
		return fmt.Errorf(
			"%v.%v must be a relation field to the type registry collection",
			t.name, t.discriminatorField,
		)
	}

	return nil
}

// Walks the ancestor chain of a newly resolved type, nearest first,
// and records the accessor entry for it on every concrete ancestor.
// The entry holds the steps accumulated before the ancestor's own
// link; non-proxy ancestors then prepend their own step. The last
// concrete ancestor visited is anchored as the type's root.
func registerType(t *Type) {
	if t.abstract {
		return
	}

	steps := []Step{}
	var proxy *Type
	if t.proxy {
		proxy = t
	}

	for cur := t; cur != nil; cur = cur.parent {
		if cur.abstract {
			continue
		}
		t.root = cur

		lookup := ""
		if len(steps) > 0 {
			lookup = steps[0].ExpandKey
		}
		cur.accessors[t] = Accessor{
			Steps:  slices.Clone(steps),
			Proxy:  proxy,
			Lookup: lookup,
		}
		cur.subtypeOrder = append(cur.subtypeOrder, t)

		if !cur.proxy {
			steps = append([]Step{newStep(cur)}, steps...)
		}
	}
}

// Resolves the hop that lands on the given type's own row, walked
// from the row of its nearest concrete ancestor.
func newStep(t *Type) Step {
	step := Step{Target: t}
	ancestor := t.concreteAncestor()
	if ancestor == nil {
		// Topmost concrete type. The step is prepended but never
		// stored because the walk upward ends here.
		return step
	}
	step.ParentField = ancestor.collection.Name
	step.ExpandKey = fmt.Sprintf("%v_via_%v", t.collection.Name, step.ParentField)
	return step
}

// CollectionName returns the conventional collection name of a type
// name (its snake case form).
func CollectionName(typeName string) string {
	return strcase.ToSnake(typeName)
}
