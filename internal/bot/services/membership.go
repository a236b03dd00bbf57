// Package services contains the bot's business logic: the membership gate
// and the access coordinator that sequences claim → gate → fetch → deliver.
package services

import (
	"context"

	"github.com/dmitrijs2005/fsubgate/internal/logging"
)

// MemberStatus is a user's membership status in one chat, as reported by
// the membership oracle. The values mirror the Telegram chat member states.
type MemberStatus string

const (
	StatusCreator       MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusKicked        MemberStatus = "kicked"
)

// MembershipOracle queries the chat platform for a user's status in a
// target chat. Implemented by the Telegram transport.
type MembershipOracle interface {
	MemberStatus(ctx context.Context, target string, userID int64) (MemberStatus, error)
}

// MembershipService verifies that a user belongs to every configured
// target chat.
type MembershipService struct {
	oracle  MembershipOracle
	targets []string
	logger  logging.Logger
}

func NewMembershipService(oracle MembershipOracle, targets []string, logger logging.Logger) *MembershipService {
	return &MembershipService{oracle: oracle, targets: targets, logger: logger}
}

// Targets returns the configured target list, for rendering join prompts.
func (s *MembershipService) Targets() []string {
	return s.targets
}

// AllSatisfied reports whether userID is a member of every target.
// An empty target list is trivially satisfied. Evaluation short-circuits on
// the first target that fails. Any oracle error or unknown status counts as
// not joined: when the bot cannot verify membership (private chat, missing
// permission, network failure) the gate stays closed.
func (s *MembershipService) AllSatisfied(ctx context.Context, userID int64) bool {
	for _, target := range s.targets {
		status, err := s.oracle.MemberStatus(ctx, target, userID)
		if err != nil {
			s.logger.Debug(ctx, "membership check failed, treating as not joined",
				"target", target, "user_id", userID, "error", err.Error())
			return false
		}

		switch status {
		case StatusCreator, StatusAdministrator, StatusMember, StatusRestricted:
			// joined
		default:
			// left, kicked, or anything unrecognized
			return false
		}
	}
	return true
}
