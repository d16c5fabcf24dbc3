package polymodels_test

import (
	"fmt"
	"slices"

	"github.com/pocketbase/pocketbase/core"
	. "github.com/snonky/pocketbase-polymodels"
)

const registryCollectionId = "pbc_content_types"

// Builds a collection schema with a discriminator relation field, a
// plain data field and optional one-to-one parent link fields.
func newCollection(name string, linkFields ...string) *core.Collection {
	collection := core.NewBaseCollection(name)
	collection.Fields.Add(&core.RelationField{
		Name:         "content_type",
		CollectionId: registryCollectionId,
		MaxSelect:    1,
	})
	collection.Fields.Add(&core.TextField{Name: "label"})
	for _, linkField := range linkFields {
		collection.Fields.Add(&core.RelationField{
			Name:      linkField,
			MaxSelect: 1,
			Required:  true,
		})
	}
	return collection
}

// The hierarchy most tests run against:
//
//	Animal (root)
//	├── Dog
//	│   ├── Puppy
//	│   └── GuideDog (proxy)
//	└── Cat
type animals struct {
	hierarchy *Hierarchy
	registry  *MemoryRegistry
	storage   *memStorage
	caster    *Caster

	animal, dog, puppy, cat, guideDog *Type
}

func newAnimals() (*animals, error) {
	registry := NewMemoryRegistry(registryCollectionId)
	hierarchy, err := BuildHierarchy(
		registry,
		&Descriptor{Name: "Animal", DiscriminatorField: "content_type", Collection: newCollection("animal")},
		&Descriptor{Name: "Dog", Parent: "Animal", Collection: newCollection("dog", "animal")},
		&Descriptor{Name: "Puppy", Parent: "Dog", Collection: newCollection("puppy", "dog")},
		&Descriptor{Name: "Cat", Parent: "Animal", Collection: newCollection("cat", "animal")},
		&Descriptor{Name: "GuideDog", Parent: "Dog", Proxy: true},
	)
	if err != nil {
		return nil, err
	}

	storage := newMemStorage()
	return &animals{
		hierarchy: hierarchy,
		registry:  registry,
		storage:   storage,
		caster:    NewCaster(hierarchy, registry, storage),
		animal:    hierarchy.Type("Animal"),
		dog:       hierarchy.Type("Dog"),
		puppy:     hierarchy.Type("Puppy"),
		cat:       hierarchy.Type("Cat"),
		guideDog:  hierarchy.Type("GuideDog"),
	}, nil
}

// Seeds one fully linked animal/dog/puppy row chain.
func (a *animals) seedPuppy() (animal, dog, puppy *core.Record) {
	animal = core.NewRecord(a.animal.Collection())
	animal.Id = "animal_1"
	animal.Set("label", "rex")

	dog = core.NewRecord(a.dog.Collection())
	dog.Id = "dog_1"
	dog.Set("animal", animal.Id)
	dog.Set("label", "rex the dog")

	puppy = core.NewRecord(a.puppy.Collection())
	puppy.Id = "puppy_1"
	puppy.Set("dog", dog.Id)

	a.storage.add(animal, dog, puppy)
	return animal, dog, puppy
}

// In-memory Storage so the caster can be exercised without a
// database. Counts relation walks to assert hop behavior.
type memStorage struct {
	records map[string][]*core.Record

	relatedCalls int
	expandedKeys []string
	seq          int
}

func newMemStorage() *memStorage {
	return &memStorage{records: map[string][]*core.Record{}}
}

func (s *memStorage) add(records ...*core.Record) {
	for _, record := range records {
		name := record.Collection().Name
		s.records[name] = append(s.records[name], record)
	}
}

func (s *memStorage) Related(record *core.Record, step Step) (*core.Record, error) {
	s.relatedCalls += 1
	for _, candidate := range s.records[step.Target.Collection().Name] {
		if candidate.GetString(step.ParentField) == record.Id {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf(
		"record %q has no %q row to walk to",
		record.Id, step.Target.Collection().Name,
	)
}

func (s *memStorage) ById(collection *core.Collection, id string) (*core.Record, error) {
	for _, candidate := range s.records[collection.Name] {
		if candidate.Id == id {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("no record %q in collection %q", id, collection.Name)
}

func (s *memStorage) All(collection *core.Collection) ([]*core.Record, error) {
	return slices.Clone(s.records[collection.Name]), nil
}

func (s *memStorage) Expand(records []*core.Record, keys []string) error {
	s.expandedKeys = append(s.expandedKeys, keys...)
	return nil
}

func (s *memStorage) Save(record *core.Record) error {
	if record.Id == "" {
		s.seq += 1
		record.Id = fmt.Sprintf("rec_%04d", s.seq)
		s.add(record)
	}
	return nil
}
