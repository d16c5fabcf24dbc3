package polymodels

import (
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

var (
	ErrNoDiscriminator = errors.New("polymorphic types must declare a discriminator field name")
)

// CastError is returned when the record reached at the end of an
// accessor walk is not an instance of the requested target type.
type CastError struct {
	Record *core.Record
	Target *Type
}

func (e *CastError) Error() string {
	return fmt.Sprintf(
		"failed to type cast record %q of collection %q to %v",
		e.Record.Id, e.Record.Collection().Name, e.Target.Name(),
	)
}
