package cache

import (
	"errors"

	"github.com/bassista/go_school/internal/repository"
)

// Result is the outcome of a write. It is either a success (with the id written)
// or a failure carrying the error kind and the provider's message.
type Result struct {
	Success bool                 `json:"success"`
	ID      string               `json:"id,omitempty"`
	Kind    repository.ErrorKind `json:"kind,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// Succeeded builds a success result.
func Succeeded(id string) Result {
	return Result{Success: true, ID: id}
}

// Failed builds a failure result classified from err.
func Failed(err error) Result {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Result{Kind: repository.KindOf(err), Error: err.Error()}
}

// Err returns nil for a success and an error carrying the message otherwise.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return errors.New(r.Error)
}
