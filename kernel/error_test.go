package kernel

import "testing"

func TestKernelError(t *testing.T) {
	err := &Error{
		Module:  "foo",
		Message: "error message",
		Kind:    NotFound,
	}

	if err.Error() != err.Message {
		t.Fatalf("expected to err.Error() to return %q; got %q", err.Message, err.Error())
	}

	if !err.Is(NotFound) {
		t.Fatal("expected error to be of kind NotFound")
	}

	if err.Is(DuplicateName) {
		t.Fatal("expected error not to be of kind DuplicateName")
	}

	var nilErr *Error
	if nilErr.Is(NotFound) {
		t.Fatal("expected Is on a nil error to return false")
	}
}

func TestErrorKindString(t *testing.T) {
	specs := []struct {
		kind ErrorKind
		exp  string
	}{
		{AllocationExhausted, "allocation exhausted"},
		{NotFound, "not found"},
		{InvalidName, "invalid name"},
		{DuplicateName, "duplicate name"},
		{CapacityExceeded, "capacity exceeded"},
		{InvalidArgument, "invalid argument"},
		{Fatal, "fatal"},
		{ErrorKind(255), "unknown"},
	}

	for specIndex, spec := range specs {
		if got := spec.kind.String(); got != spec.exp {
			t.Errorf("[spec %d] expected kind string to be %q; got %q", specIndex, spec.exp, got)
		}
	}
}
