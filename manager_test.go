package polymodels_test

import (
	"testing"

	"github.com/pocketbase/pocketbase/core"
	. "github.com/snonky/pocketbase-polymodels"
	"github.com/stretchr/testify/require"
)

// Adds a second root row that is really a cat.
func (a *animals) seedCat() (animal, cat *core.Record) {
	animal = core.NewRecord(a.animal.Collection())
	animal.Id = "animal_2"

	cat = core.NewRecord(a.cat.Collection())
	cat.Id = "cat_1"
	cat.Set("animal", animal.Id)

	a.storage.add(animal, cat)
	return animal, cat
}

func TestManagerById(t *testing.T) {
	a, err := newAnimals()
	require.NoError(t, err)
	_, dog, _ := a.seedPuppy()

	manager := NewManager(a.dog, a.caster)
	instance, err := manager.ById("dog_1")
	require.NoError(t, err)
	require.Same(t, dog, instance.Record)
	require.Equal(t, a.dog, instance.Type())

	_, err = manager.ById("dog_404")
	require.Error(t, err)
}

func TestManagerAllKeepsTheDeclaredType(t *testing.T) {
	a, err := newAnimals()
	require.NoError(t, err)
	a.seedPuppy()
	a.seedCat()

	manager := NewManager(a.animal, a.caster)
	instances, err := manager.All()
	require.NoError(t, err)
	require.Len(t, instances, 2)
	for _, instance := range instances {
		require.Equal(t, a.animal, instance.Type())
	}
	require.Equal(t, 0, a.storage.relatedCalls)
}

func TestManagerSubtypesCastsEveryRow(t *testing.T) {
	a, err := newAnimals()
	require.NoError(t, err)
	rootOfPuppy, _, puppy := a.seedPuppy()
	rootOfCat, cat := a.seedCat()

	puppyId, err := a.registry.Register("Puppy")
	require.NoError(t, err)
	catId, err := a.registry.Register("Cat")
	require.NoError(t, err)
	rootOfPuppy.Set("content_type", puppyId)
	rootOfCat.Set("content_type", catId)

	manager := NewManager(a.animal, a.caster)
	instances, err := manager.Subtypes()
	require.NoError(t, err)
	require.Len(t, instances, 2)
	require.Equal(t, a.puppy, instances[0].Type())
	require.Same(t, puppy, instances[0].Record)
	require.Equal(t, a.cat, instances[1].Type())
	require.Same(t, cat, instances[1].Record)

	// One prefetch key per distinct first hop, no duplicates for the
	// deeper dog descendants.
	require.ElementsMatch(t, []string{"dog_via_animal", "cat_via_animal"}, a.storage.expandedKeys)
}

func TestManagerSubtypesNarrowsTheResult(t *testing.T) {
	a, err := newAnimals()
	require.NoError(t, err)
	rootOfPuppy, _, puppy := a.seedPuppy()
	rootOfCat, _ := a.seedCat()

	puppyId, err := a.registry.Register("Puppy")
	require.NoError(t, err)
	catId, err := a.registry.Register("Cat")
	require.NoError(t, err)
	rootOfPuppy.Set("content_type", puppyId)
	rootOfCat.Set("content_type", catId)

	manager := NewManager(a.animal, a.caster)
	instances, err := manager.Subtypes(a.dog)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	require.Same(t, puppy, instances[0].Record)

	// The cat branch is not prefetched when only dogs are wanted.
	require.Equal(t, []string{"dog_via_animal"}, a.storage.expandedKeys)
}

func TestManagerNew(t *testing.T) {
	a, err := newAnimals()
	require.NoError(t, err)

	manager := NewManager(a.cat, a.caster)
	instance, err := manager.New()
	require.NoError(t, err)
	require.Equal(t, a.cat, instance.Type())
	require.Empty(t, instance.Record.Id)
}
