package polymodels

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

// TypeRegistry is the global content type collaborator: it maps a
// type name to a stable discriminator id and back. Discriminator
// relation fields must target the collection it is backed by.
type TypeRegistry interface {
	// CollectionId returns the id of the collection discriminator
	// relation fields have to point at.
	CollectionId() string

	// Register returns the stable id of a type name, creating the
	// registration on first use.
	Register(typeName string) (string, error)

	// Resolve maps a registered id back to its type name.
	Resolve(id string) (string, error)
}

// DefaultRegistryCollection is the conventional name of the content
// type collection.
const DefaultRegistryCollection = "content_types"

// NewRegistryCollection builds the schema of a content type
// collection. Saving (migrating) it is up to the caller.
func NewRegistryCollection(name string) *core.Collection {
	collection := core.NewBaseCollection(name)
	collection.Fields.Add(&core.TextField{
		Name:        "name",
		Required:    true,
		Presentable: true,
	})
	collection.AddIndex("idx_"+name+"_name", true, "name", "")
	return collection
}

// CollectionRegistry backs a TypeRegistry with a PocketBase
// collection holding one row per registered type.
type CollectionRegistry struct {
	app        core.App
	collection *core.Collection
}

func NewCollectionRegistry(app core.App, nameOrId string) (*CollectionRegistry, error) {
	collection, err := app.FindCollectionByNameOrId(nameOrId)
	if err != nil {
		return nil, fmt.Errorf("could not find the type registry collection %q: %w", nameOrId, err)
	}
	return &CollectionRegistry{app: app, collection: collection}, nil
}

func (r *CollectionRegistry) CollectionId() string {
	return r.collection.Id
}

func (r *CollectionRegistry) Register(typeName string) (string, error) {
	record, err := r.app.FindFirstRecordByData(r.collection, "name", typeName)
	if err == nil {
		return record.Id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	record = core.NewRecord(r.collection)
	record.Set("name", typeName)
	if err := r.app.Save(record); err != nil {
		return "", err
	}
	return record.Id, nil
}

func (r *CollectionRegistry) Resolve(id string) (string, error) {
	record, err := r.app.FindRecordById(r.collection, id)
	if err != nil {
		return "", fmt.Errorf("unknown type id %q: %w", id, err)
	}
	return record.GetString("name"), nil
}

// MemoryRegistry is an in-process TypeRegistry for tests and for
// embedding without a registry collection.
type MemoryRegistry struct {
	collectionId string
	ids          map[string]string
	names        map[string]string
}

func NewMemoryRegistry(collectionId string) *MemoryRegistry {
	return &MemoryRegistry{
		collectionId: collectionId,
		ids:          map[string]string{},
		names:        map[string]string{},
	}
}

func (r *MemoryRegistry) CollectionId() string {
	return r.collectionId
}

func (r *MemoryRegistry) Register(typeName string) (string, error) {
	if id, ok := r.ids[typeName]; ok {
		return id, nil
	}
	id := fmt.Sprintf("type_%04d", len(r.ids)+1)
	r.ids[typeName] = id
	r.names[id] = typeName
	return id, nil
}

func (r *MemoryRegistry) Resolve(id string) (string, error) {
	name, ok := r.names[id]
	if !ok {
		return "", fmt.Errorf("unknown type id %q", id)
	}
	return name, nil
}
