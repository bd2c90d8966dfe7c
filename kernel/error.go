package kernel

// ErrorKind classifies a kernel error so callers can react to the failure
// class without comparing messages.
type ErrorKind uint8

const (
	// KindUnknown is the zero value for errors that predate classification.
	KindUnknown ErrorKind = iota

	// AllocationExhausted means no free block, inode or process slot exists.
	AllocationExhausted

	// NotFound means a file, directory or process id does not exist.
	NotFound

	// InvalidName means a name is empty, too long or contains a forbidden
	// character.
	InvalidName

	// DuplicateName means a name is already bound under the same parent.
	DuplicateName

	// CapacityExceeded means a file would need more than the direct block
	// limit or a fixed table is full.
	CapacityExceeded

	// InvalidArgument means the request itself is malformed, e.g. an out of
	// range session index or an unsupported signal.
	InvalidArgument

	// Fatal errors halt the system.
	Fatal
)

var kindNames = [...]string{
	KindUnknown:         "unknown",
	AllocationExhausted: "allocation exhausted",
	NotFound:            "not found",
	InvalidName:         "invalid name",
	DuplicateName:       "duplicate name",
	CapacityExceeded:    "capacity exceeded",
	InvalidArgument:     "invalid argument",
	Fatal:               "fatal",
}

// String implements fmt.Stringer for ErrorKind.
func (k ErrorKind) String() string {
	if int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Error describes a kernel error. All kernel errors must be defined as global
// variables that are pointers to the Error structure. This requirement stems
// from the fact that the kernel must be able to report errors before the Go
// allocator is available so errors.New cannot be used.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string

	// The error class.
	Kind ErrorKind
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Is returns true if e is not nil and belongs to the specified kind.
func (e *Error) Is(kind ErrorKind) bool {
	return e != nil && e.Kind == kind
}
