package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/entagg/internal/model"
)

// ErrMalformedSpec matches any MalformedSpecError via errors.Is
var ErrMalformedSpec = errors.New("malformed property filter spec")

// MalformedSpecError reports a property filter spec that is not of the
// form key:value1,value2
type MalformedSpecError struct {
	Spec string
}

func (e *MalformedSpecError) Error() string {
	return fmt.Sprintf("%v %q: expected key:value1,value2", ErrMalformedSpec, e.Spec)
}

// Is makes errors.Is(err, ErrMalformedSpec) hold
func (e *MalformedSpecError) Is(target error) bool {
	return target == ErrMalformedSpec
}

// ParseProperties builds a PropertyFilter from specs of the form
// "key:value1,value2". A spec without exactly one ':' is rejected.
// A key repeated across specs keeps its last value list.
func ParseProperties(specs []string) (model.PropertyFilter, error) {
	props := make(model.PropertyFilter, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) != 2 {
			return nil, &MalformedSpecError{Spec: spec}
		}
		props[parts[0]] = strings.Split(parts[1], ",")
	}
	return props, nil
}
