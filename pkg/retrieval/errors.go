package retrieval

import (
	"errors"
	"fmt"
)

// Fault kinds. Match with errors.Is.
var (
	ErrSearchUnavailable = errors.New("search unavailable")
	ErrMalformedResponse = errors.New("malformed search response")
)

// Fault is a retrieval failure. Kind is one of the sentinel errors above and
// Err is the context-aware cause (usually a *ragate.Error).
type Fault struct {
	Kind error
	Err  error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return f.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", f.Kind, f.Err)
}

func (f *Fault) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Kind}
	}
	return []error{f.Kind, f.Err}
}

func newFault(kind, err error) *Fault {
	return &Fault{Kind: kind, Err: err}
}
