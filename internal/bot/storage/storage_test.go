package storage

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fsubgate/internal/bot/models"
	"github.com/dmitrijs2005/fsubgate/internal/common"
)

var sqliteSeq atomic.Int64

// newSQLite returns a fresh in-memory store per call so subtests never see
// each other's rows.
func newSQLite(t *testing.T) Storage {
	t.Helper()
	dsn := fmt.Sprintf("file:contract%d?mode=memory&cache=shared", sqliteSeq.Add(1))
	s, err := NewSQLiteStorage(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

// newMongo connects to the instance named by TEST_MONGO_URI and drops both
// collections for isolation. Without the variable the mongo suite is
// skipped, matching how the networked backend is exercised in CI only.
func newMongo(t *testing.T) Storage {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set, skipping mongo contract tests")
	}

	ctx := context.Background()
	s, err := NewMongoStorage(ctx, uri, "fsubgate_test")
	require.NoError(t, err)
	require.NoError(t, s.links.Drop(ctx))
	require.NoError(t, s.files.Drop(ctx))
	require.NoError(t, s.ensureIndexes(ctx))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestSQLiteStorage_Contract(t *testing.T) {
	runStorageContract(t, func(t *testing.T) Storage { return newSQLite(t) })
}

func TestMongoStorage_Contract(t *testing.T) {
	runStorageContract(t, func(t *testing.T) Storage { return newMongo(t) })
}

func sampleRecord(fileID string) *models.FileRecord {
	return &models.FileRecord{
		FileID:  fileID,
		Archive: models.ArchiveLocation{ChatID: -1001234567890, MessageID: 42},
		Kind:    models.KindDocument,
		Caption: "<b>sample</b>",
	}
}

// runStorageContract asserts the externally observable semantics both
// backends must share.
func runStorageContract(t *testing.T, newStore func(t *testing.T) Storage) {
	ctx := context.Background()

	t.Run("UpsertAndGetFile", func(t *testing.T) {
		s := newStore(t)

		rec := sampleRecord("f1")
		require.NoError(t, s.UpsertFile(ctx, rec))

		got, err := s.GetFile(ctx, "f1")
		require.NoError(t, err)
		require.Equal(t, rec, got)
	})

	t.Run("UpsertReplacesByID", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.UpsertFile(ctx, sampleRecord("f1")))

		updated := &models.FileRecord{
			FileID:  "f1",
			Archive: models.ArchiveLocation{ChatID: -1009, MessageID: 7},
			Kind:    models.KindVideo,
		}
		require.NoError(t, s.UpsertFile(ctx, updated))

		got, err := s.GetFile(ctx, "f1")
		require.NoError(t, err)
		require.Equal(t, updated, got)
	})

	t.Run("GetFileAbsent", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetFile(ctx, "missing")
		require.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("SaveAndResolveLink", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.SaveLink(ctx, "ab12cd34ef", "f1"))

		fileID, err := s.GetFileIDByCode(ctx, "ab12cd34ef")
		require.NoError(t, err)
		require.Equal(t, "f1", fileID)
	})

	t.Run("ResolveUnknownCode", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetFileIDByCode(ctx, "nope")
		require.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("ReSavePreservesOwner", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.SaveLink(ctx, "c1", "f1"))

		status, _, err := s.ClaimLink(ctx, "c1", 100)
		require.NoError(t, err)
		require.Equal(t, ClaimOK, status)

		// repointing the link must not touch ownership
		require.NoError(t, s.SaveLink(ctx, "c1", "f2"))

		fileID, err := s.GetFileIDByCode(ctx, "c1")
		require.NoError(t, err)
		require.Equal(t, "f2", fileID)

		status, fileID, err = s.ClaimLink(ctx, "c1", 100)
		require.NoError(t, err)
		require.Equal(t, ClaimOK, status)
		require.Equal(t, "f2", fileID)

		status, _, err = s.ClaimLink(ctx, "c1", 200)
		require.NoError(t, err)
		require.Equal(t, ClaimNotOwner, status)
	})

	t.Run("ClaimUnknownCode", func(t *testing.T) {
		s := newStore(t)

		status, fileID, err := s.ClaimLink(ctx, "ghost", 100)
		require.NoError(t, err)
		require.Equal(t, ClaimInvalid, status)
		require.Empty(t, fileID)
	})

	t.Run("ClaimFirstUseAndIdempotentReclaim", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.SaveLink(ctx, "c1", "f1"))

		status, fileID, err := s.ClaimLink(ctx, "c1", 100)
		require.NoError(t, err)
		require.Equal(t, ClaimOK, status)
		require.Equal(t, "f1", fileID)

		// same user claims again: still OK, same file id
		status, fileID, err = s.ClaimLink(ctx, "c1", 100)
		require.NoError(t, err)
		require.Equal(t, ClaimOK, status)
		require.Equal(t, "f1", fileID)
	})

	t.Run("ClaimByOtherUser", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.SaveLink(ctx, "c1", "f1"))

		status, _, err := s.ClaimLink(ctx, "c1", 100)
		require.NoError(t, err)
		require.Equal(t, ClaimOK, status)

		status, fileID, err := s.ClaimLink(ctx, "c1", 200)
		require.NoError(t, err)
		require.Equal(t, ClaimNotOwner, status)
		require.Empty(t, fileID)

		// the original owner keeps access
		status, _, err = s.ClaimLink(ctx, "c1", 100)
		require.NoError(t, err)
		require.Equal(t, ClaimOK, status)
	})

	t.Run("ConcurrentFirstClaimSingleWinner", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.SaveLink(ctx, "c1", "f1"))

		const claimants = 16

		var wg sync.WaitGroup
		results := make([]ClaimStatus, claimants)
		errs := make([]error, claimants)
		start := make(chan struct{})

		for i := 0; i < claimants; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				results[i], _, errs[i] = s.ClaimLink(ctx, "c1", int64(1000+i))
			}(i)
		}

		close(start)
		wg.Wait()

		winners := 0
		for _, err := range errs {
			require.NoError(t, err)
		}
		for _, status := range results {
			switch status {
			case ClaimOK:
				winners++
			case ClaimNotOwner:
			default:
				t.Fatalf("unexpected claim status %v", status)
			}
		}
		require.Equal(t, 1, winners, "exactly one concurrent claimant must win")
	})
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Options{Backend: "cassandra"})
	require.ErrorIs(t, err, common.ErrorConfigInvalid)
}

func TestNew_DefaultsToSQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:factory%d?mode=memory&cache=shared", sqliteSeq.Add(1))
	s, err := New(context.Background(), Options{SQLitePath: dsn})
	require.NoError(t, err)
	defer s.Close(context.Background())

	_, ok := s.(*SQLiteStorage)
	require.True(t, ok)
}
