// Package storage persists FileRecords and LinkRecords and implements the
// atomic claim-on-first-use semantics for short codes. Two interchangeable
// backends exist: an embedded SQLite file and a networked MongoDB
// collection pair. Both expose identical observable behavior and are
// covered by one shared contract test suite.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fsubgate/internal/bot/models"
	"github.com/dmitrijs2005/fsubgate/internal/common"
)

// ClaimStatus is the outcome of a ClaimLink attempt.
type ClaimStatus int

const (
	// ClaimInvalid means no link exists for the code.
	ClaimInvalid ClaimStatus = iota
	// ClaimOK means the caller owns the code (first claim or re-claim).
	ClaimOK
	// ClaimNotOwner means the code is bound to a different user.
	ClaimNotOwner
)

func (s ClaimStatus) String() string {
	switch s {
	case ClaimOK:
		return "OK"
	case ClaimNotOwner:
		return "NOT_OWNER"
	default:
		return "INVALID"
	}
}

// Storage is the shared contract both backends implement.
//
// ClaimLink is the only operation with a genuine concurrency hazard: the
// first claim must bind ownership with compare-and-set semantics so that
// exactly one of any number of concurrent claimants wins. All other
// operations are independently retryable reads or idempotent upserts.
type Storage interface {
	// UpsertFile inserts or fully replaces a FileRecord by its FileID.
	UpsertFile(ctx context.Context, rec *models.FileRecord) error

	// GetFile returns the record for fileID, or common.ErrorNotFound.
	GetFile(ctx context.Context, fileID string) (*models.FileRecord, error)

	// SaveLink inserts or updates a link by code. An existing owner is
	// never overwritten: on update only file_id changes, and ownership
	// starts unset only at first insertion.
	SaveLink(ctx context.Context, code, fileID string) error

	// GetFileIDByCode resolves a code without affecting ownership.
	// Returns common.ErrorNotFound for unknown codes.
	GetFileIDByCode(ctx context.Context, code string) (string, error)

	// ClaimLink atomically binds the code to userID if it is unowned,
	// or verifies existing ownership. On ClaimOK the bound file id is
	// returned alongside.
	ClaimLink(ctx context.Context, code string, userID int64) (ClaimStatus, string, error)

	// Close releases the underlying connection or file handle.
	Close(ctx context.Context) error
}

// Supported backend selectors.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Options selects and parameterizes a storage backend.
type Options struct {
	Backend    string
	SQLitePath string
	MongoURI   string
	MongoDB    string
}

// New constructs the backend named by opts.Backend. An empty selector
// defaults to SQLite, matching single-process deployments.
func New(ctx context.Context, opts Options) (Storage, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendSQLite:
		return NewSQLiteStorage(ctx, opts.SQLitePath)
	case BackendMongo:
		return NewMongoStorage(ctx, opts.MongoURI, opts.MongoDB)
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", common.ErrorConfigInvalid, opts.Backend)
	}
}
