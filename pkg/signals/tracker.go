package signals

import "errors"

// UUIDKey is the extras key carrying the test-tracker UUID.
const UUIDKey = "test_tracker_uuid"

// TrackerInfo runs a test body and attaches the test-tracker UUID to
// whatever signal it produces. The returned value is always a Signal:
//
//   - a returned signal keeps its type and details;
//   - any other non-nil error becomes a TestError with that error as cause;
//   - a nil return becomes a TestPass.
func TrackerInfo(uuid string, fn func() error) Signal {
	sig := asSignal(fn())
	sig.SetExtra(UUIDKey, uuid)
	return sig
}

func asSignal(err error) Signal {
	if err == nil {
		return NewTestPass("")
	}
	var sig Signal
	if errors.As(err, &sig) {
		return sig
	}
	te := NewTestError(err.Error())
	te.Cause = err
	return te
}
