package polymodels

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// Storage is the persistence collaborator of a hierarchy. It is
// consumed as a black box; AppStorage is the PocketBase
// implementation.
type Storage interface {
	// Related fetches the one-to-one child row one accessor step
	// below the given record. Errors when the row does not exist.
	Related(record *core.Record, step Step) (*core.Record, error)

	// ById fetches a single row of a collection.
	ById(collection *core.Collection, id string) (*core.Record, error)

	// All lists every row of a collection.
	All(collection *core.Collection) ([]*core.Record, error)

	// Expand preloads the given back-relation expand keys onto the
	// records so later Related calls skip the query.
	Expand(records []*core.Record, keys []string) error

	// Save persists a record.
	Save(record *core.Record) error
}

// AppStorage implements Storage on a PocketBase app.
type AppStorage struct {
	app core.App
}

func NewAppStorage(app core.App) *AppStorage {
	return &AppStorage{app: app}
}

func (s *AppStorage) Related(record *core.Record, step Step) (*core.Record, error) {
	if rels := record.ExpandedAll(step.ExpandKey); len(rels) > 0 {
		return rels[0], nil
	}

	related := &core.Record{}
	err := s.app.RecordQuery(step.Target.Collection()).
		AndWhere(dbx.HashExp{step.ParentField: record.Id}).
		Limit(1).
		One(related)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf(
			"record %q has no %q row to walk to",
			record.Id, step.Target.Collection().Name,
		)
	}
	if err != nil {
		return nil, err
	}

	return related, nil
}

func (s *AppStorage) ById(collection *core.Collection, id string) (*core.Record, error) {
	return s.app.FindRecordById(collection, id)
}

func (s *AppStorage) All(collection *core.Collection) ([]*core.Record, error) {
	return s.app.FindAllRecords(collection)
}

func (s *AppStorage) Expand(records []*core.Record, keys []string) error {
	if errs := s.app.ExpandRecords(records, keys, nil); len(errs) > 0 {
		return fmt.Errorf("failed to expand records: %v", errs)
	}
	return nil
}

func (s *AppStorage) Save(record *core.Record) error {
	return s.app.Save(record)
}
