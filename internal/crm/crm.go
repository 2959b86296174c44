package crm

import (
	"context"

	"github.com/gavet/crmdialer/internal/model"
)

// Session is a logged in browser session against the CRM. Implementations must serialize
// all the operations, a single browser is shared by every caller.
type Session interface {
	// Login navigates to the CRM, authenticates and waits for the landing page.
	Login(ctx context.Context, creds model.Credentials) error
	// FindContact searches a cleaned code. A lookup with an empty FoundCode means no contact
	// matched in time, an empty Phone means the contact has no phone.
	FindContact(ctx context.Context, code string) (model.ContactLookup, error)
	// Dial triggers a call and returns true when the in-call indicator appeared in time.
	Dial(ctx context.Context, phone string) (bool, error)
	Close() error
}

//go:generate mockery --case underscore --output crmmock --outpkg crmmock --name Session --structname MockSession
