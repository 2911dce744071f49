package tenant

import "fmt"

// Kind discriminates tenant storage and validation failures: a typed
// discriminant plus a message, so callers can switch on the failure
// category instead of matching on string content.
type Kind int

const (
	// ErrCreateDataDir means a tenant's on-disk directory could not be created.
	ErrCreateDataDir Kind = iota
	// ErrLoadSkeleton means a tenant's persisted skeleton could not be read back.
	ErrLoadSkeleton
	// ErrInvalidJSON means a Put/Set body was not valid JSON.
	ErrInvalidJSON
	// ErrMissingTitle means a Put/Set body had no top-level "title" key.
	ErrMissingTitle
	// ErrTitleNotString means a Put/Set body's "title" key wasn't a string.
	ErrTitleNotString
)

func (k Kind) String() string {
	switch k {
	case ErrCreateDataDir:
		return "CreateDataDir"
	case ErrLoadSkeleton:
		return "LoadSkeleton"
	case ErrInvalidJSON:
		return "InvalidJSON"
	case ErrMissingTitle:
		return "MissingTitle"
	case ErrTitleNotString:
		return "TitleNotString"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Error is returned by loadOrInit and extractTitle on storage or
// body-validation failures.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tenant: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("tenant: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers use errors.Is(err, &tenant.Error{Kind: ...}) style checks
// by comparing Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
