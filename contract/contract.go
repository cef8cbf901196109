//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"floorlink/domain"
	"floorlink/domain/event"
)

// RecordLookup resolves a normalized work-item identifier to the records
// that reference it. Pure query, no state retained.
type RecordLookup interface {
	FindOwnersByIdentifier(ctx context.Context, identifier string) ([]domain.WorkItemRecord, error)
}

// Directory resolves participant ids to the little the core needs to know
// about people: a display name and a role set.
type Directory interface {
	GetDisplayName(ctx context.Context, id domain.ParticipantID) (string, error)
	GetRoles(ctx context.Context, id domain.ParticipantID) ([]string, error)
}

// Authorizer gates inbound operations on capabilities derived from roles.
type Authorizer interface {
	HasPermission(ctx context.Context, id domain.ParticipantID, capability string) bool
}

// Transport delivers a prompt to one participant. A returned error means the
// participant is unreachable right now; the caller decides whether that is
// ignorable (best-effort notification) or a teardown trigger (in-session
// relay forward).
type Transport interface {
	Send(ctx context.Context, to domain.ParticipantID, prompt domain.Prompt) error
}

// EventSink consumes domain events emitted by the core.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type WorkerName string

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision purposes.
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
