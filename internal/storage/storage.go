package storage

import (
	"context"

	"github.com/gavet/crmdialer/internal/model"
)

// Repository is the interface for the dialer task store. It holds the contact list, the
// result log, the scheduled callback log and the one shot priority list.
//
// Implementations must serialize all the operations so concurrent writers never interleave.
type Repository interface {
	// EnsureSchema creates the record sets with their headers if they are missing.
	// Returns true when the store had to be created.
	EnsureSchema(ctx context.Context) (created bool, err error)

	ListContacts(ctx context.Context) ([]model.Task, error)
	AppendContact(ctx context.Context, t model.Task) error
	// UpdateContactPhone sets the phone of the first contact with the code. Missing codes
	// are a logged no-op.
	UpdateContactPhone(ctx context.Context, code, phone string) error

	ListPriorityCodes(ctx context.Context) ([]string, error)
	AppendPriorityCodes(ctx context.Context, codes []string) error
	ClearPriority(ctx context.Context) error

	AppendResult(ctx context.Context, r model.ResultRecord) error
	ListResults(ctx context.Context) ([]model.ResultRecord, error)
	ListResultCodes(ctx context.Context) ([]string, error)

	AppendCallback(ctx context.Context, c model.CallbackRecord) error
	ListCallbacks(ctx context.Context) ([]model.CallbackRecord, error)
}

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name Repository --structname MockRepository
