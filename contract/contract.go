//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker is a long-running loop. It does not recover from its own panics:
// that is the supervisor's job.
type Worker interface {
	Run(ctx context.Context) error
}

// IHealthReporter receives the serving state of a named component.
type IHealthReporter interface {
	SetServing(service string, serving bool)
}

// GetWorkerName returns the type name of the worker, for logs.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
