package recognizer

import (
	"errors"
	"fmt"

	"github.com/openai/openai-go"
)

// Kind classifies a recognition failure. Only transient failures are worth
// resubmitting; auth and quota failures cannot succeed by retrying.
type Kind int

const (
	KindTransient Kind = iota
	KindAuth
	KindQuota
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindQuota:
		return "quota"
	case KindMalformed:
		return "malformed"
	default:
		return "transient"
	}
}

// Failure is a classified recognition error.
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("recognition %s failure: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// IsTransient reports whether err is a recognition failure worth retrying.
func IsTransient(err error) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind == KindTransient
	}
	return false
}

// classify maps a backend error to a Failure. Errors without an HTTP status
// (timeouts, connection resets) count as transient.
func classify(err error) *Failure {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &Failure{Kind: classifyStatus(apierr.StatusCode), Err: err}
	}
	return &Failure{Kind: KindTransient, Err: err}
}

func classifyStatus(status int) Kind {
	switch status {
	case 401, 403:
		return KindAuth
	case 429:
		return KindQuota
	case 400, 413, 415, 422:
		return KindMalformed
	default:
		return KindTransient
	}
}
