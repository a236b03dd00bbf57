package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/fsubgate/internal/bot/config"
	"github.com/dmitrijs2005/fsubgate/internal/bot/models"
	"github.com/dmitrijs2005/fsubgate/internal/bot/shortcode"
	"github.com/dmitrijs2005/fsubgate/internal/bot/storage"
	"github.com/dmitrijs2005/fsubgate/internal/common"
	"github.com/dmitrijs2005/fsubgate/internal/logging"
)

// codeAttempts bounds the unique-code generation loop.
const codeAttempts = 20

// Delivery copies an archived artifact to a destination chat and returns
// the delivered message id. Implementations must wrap transient failures
// (timeouts, network errors) with retry.RetryableError so the coordinator's
// bounded retry loop can distinguish them from permanent ones.
type Delivery interface {
	Copy(ctx context.Context, from models.ArchiveLocation, destChatID int64) (int, error)
}

// AccessService orchestrates link resolution: claim the code, verify
// memberships, fetch the file record, and hand the artifact to the
// delivery channel. It also owns the admin ingest path.
type AccessService struct {
	store         storage.Storage
	gate          *MembershipService
	delivery      Delivery
	logger        logging.Logger
	archiveChatID int64
	codeLength    int
	retryAttempts uint64
	retryBase     time.Duration
}

// NewAccessService constructs the coordinator from its collaborators and
// the retry/code parameters in cfg.
func NewAccessService(store storage.Storage, gate *MembershipService, delivery Delivery, cfg *config.Config, logger logging.Logger) *AccessService {
	return &AccessService{
		store:         store,
		gate:          gate,
		delivery:      delivery,
		logger:        logger,
		archiveChatID: cfg.ChannelID,
		codeLength:    cfg.CodeLength,
		retryAttempts: cfg.DeliveryRetries,
		retryBase:     cfg.RetryBackoff,
	}
}

// Deliver resolves a deep-link code for userID and, on success, copies the
// artifact to destChatID.
//
// Outcomes, matched with errors.Is/errors.As:
//   - common.ErrorLinkInvalid: no link exists for the code.
//   - common.ErrorLinkClaimed: the code is bound to another account.
//   - *common.MembershipRequiredError: at least one target not joined.
//   - common.ErrorFileMissing: the record vanished after a valid claim.
//   - common.ErrorDeliveryFailed: transport gave up.
//
// Re-claims by the owning user succeed, so retrying the same link is safe.
func (s *AccessService) Deliver(ctx context.Context, code string, userID, destChatID int64) error {
	status, fileID, err := s.store.ClaimLink(ctx, code, userID)
	if err != nil {
		return fmt.Errorf("claim error: %w", err)
	}

	s.logger.Debug(ctx, "claim resolved", "code", code, "user_id", userID, "status", status.String())

	switch status {
	case storage.ClaimInvalid:
		return common.ErrorLinkInvalid
	case storage.ClaimNotOwner:
		return common.ErrorLinkClaimed
	}

	return s.DeliverFile(ctx, fileID, userID, destChatID)
}

// DeliverFile runs the gate → fetch → deliver tail for an already-resolved
// file id. The membership re-check path enters here directly, carrying the
// file id from the gate prompt's callback data.
func (s *AccessService) DeliverFile(ctx context.Context, fileID string, userID, destChatID int64) error {
	if !s.gate.AllSatisfied(ctx, userID) {
		return &common.MembershipRequiredError{FileID: fileID}
	}

	rec, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorFileMissing
		}
		return fmt.Errorf("file lookup error: %w", err)
	}

	if _, err := s.copyWithRetry(ctx, rec.Archive, destChatID); err != nil {
		s.logger.Error(ctx, "delivery failed", "file_id", fileID, "error", err.Error())
		return fmt.Errorf("%w: %v", common.ErrorDeliveryFailed, err)
	}

	s.logger.Info(ctx, "artifact delivered", "file_id", fileID, "user_id", userID)
	return nil
}

// Ingest stores a freshly archived artifact under a new file id.
func (s *AccessService) Ingest(ctx context.Context, loc models.ArchiveLocation, kind models.MediaKind, caption string) (*models.FileRecord, error) {
	rec := &models.FileRecord{
		FileID:  uuid.NewString(),
		Archive: loc,
		Kind:    kind,
		Caption: caption,
	}
	if err := s.store.UpsertFile(ctx, rec); err != nil {
		return nil, fmt.Errorf("file upsert error: %w", err)
	}
	return rec, nil
}

// CreateLink issues a shareable short code for fileID. Generation retries
// on collision up to codeAttempts times; exhaustion yields
// common.ErrorCodeExhausted instead of looping unboundedly.
func (s *AccessService) CreateLink(ctx context.Context, fileID string) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := shortcode.Generate(s.codeLength)
		if err != nil {
			return "", fmt.Errorf("code generation error: %w", err)
		}

		_, err = s.store.GetFileIDByCode(ctx, code)
		if errors.Is(err, common.ErrorNotFound) {
			if err := s.store.SaveLink(ctx, code, fileID); err != nil {
				return "", fmt.Errorf("link save error: %w", err)
			}
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("code lookup error: %w", err)
		}
		// collision, try again
	}
	return "", common.ErrorCodeExhausted
}

// Archive copies a source message into the archive channel and returns the
// artifact's durable address there. Uses the same bounded retry as
// delivery, since it is the same transport call in the other direction.
func (s *AccessService) Archive(ctx context.Context, fromChatID int64, messageID int) (models.ArchiveLocation, error) {
	src := models.ArchiveLocation{ChatID: fromChatID, MessageID: messageID}
	archivedID, err := s.copyWithRetry(ctx, src, s.archiveChatID)
	if err != nil {
		return models.ArchiveLocation{}, fmt.Errorf("%w: %v", common.ErrorDeliveryFailed, err)
	}
	return models.ArchiveLocation{ChatID: s.archiveChatID, MessageID: archivedID}, nil
}

// copyWithRetry invokes the delivery channel with bounded retries and
// increasing (fibonacci) backoff. Only errors the transport marked as
// retryable are retried; everything else propagates immediately.
func (s *AccessService) copyWithRetry(ctx context.Context, from models.ArchiveLocation, destChatID int64) (int, error) {
	var messageID int
	b := retry.WithMaxRetries(s.retryAttempts, retry.NewFibonacci(s.retryBase))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		id, err := s.delivery.Copy(ctx, from, destChatID)
		if err != nil {
			return err
		}
		messageID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return messageID, nil
}
