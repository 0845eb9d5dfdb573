// Package failure holds the typed failures surfaced by the sampler and the
// plot generator to whatever invoked them.
package failure

import "errors"

// Kind classifies a failure for the invoking environment.
type Kind string

const (
	KindConfiguration    Kind = "ConfigurationError"
	KindStoreUnavailable Kind = "StoreUnavailable"
	KindPersistence      Kind = "PersistenceError"
	KindRender           Kind = "RenderError"
	KindUnknown          Kind = "Unknown"
)

// ErrConfiguration means a required setting is missing or invalid. Fatal.
type ErrConfiguration struct {
	msg string
	err error
}

func NewConfigurationError(msg string, err error) ErrConfiguration {
	return ErrConfiguration{msg: msg, err: err}
}

func (e ErrConfiguration) Error() string { return message(e.msg, e.err) }
func (e ErrConfiguration) Unwrap() error { return e.err }

// ErrStoreUnavailable means a read or write against the object store or a read
// against the history table did not complete.
type ErrStoreUnavailable struct {
	msg string
	err error
}

func NewStoreUnavailableError(msg string, err error) ErrStoreUnavailable {
	return ErrStoreUnavailable{msg: msg, err: err}
}

func (e ErrStoreUnavailable) Error() string { return message(e.msg, e.err) }
func (e ErrStoreUnavailable) Unwrap() error { return e.err }

// ErrPersistence means a write of a result (sample or plot image) failed.
type ErrPersistence struct {
	msg string
	err error
}

func NewPersistenceError(msg string, err error) ErrPersistence {
	return ErrPersistence{msg: msg, err: err}
}

func (e ErrPersistence) Error() string { return message(e.msg, e.err) }
func (e ErrPersistence) Unwrap() error { return e.err }

// ErrRender means the chart could not be encoded.
type ErrRender struct {
	msg string
	err error
}

func NewRenderError(msg string, err error) ErrRender {
	return ErrRender{msg: msg, err: err}
}

func (e ErrRender) Error() string { return message(e.msg, e.err) }
func (e ErrRender) Unwrap() error { return e.err }

func message(msg string, err error) string {
	if err == nil {
		return msg
	}
	if msg == "" {
		return err.Error()
	}
	return msg + ": " + err.Error()
}

// KindOf returns the kind of the first typed failure found in err's chain.
func KindOf(err error) Kind {
	var (
		cfgErr     ErrConfiguration
		storeErr   ErrStoreUnavailable
		persistErr ErrPersistence
		renderErr  ErrRender
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &storeErr):
		return KindStoreUnavailable
	case errors.As(err, &persistErr):
		return KindPersistence
	case errors.As(err, &renderErr):
		return KindRender
	default:
		return KindUnknown
	}
}

// Retryable reports whether an orchestrator may retry an invocation that
// failed with the given kind.
func Retryable(k Kind) bool {
	return k == KindStoreUnavailable || k == KindPersistence
}
