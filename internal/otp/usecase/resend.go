package usecase

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// ResendChallenge replaces the active challenge of the key with a new code.
// It shares the cooldown reservation of IssueChallenge, and the old challenge
// only goes away when the store swaps in the new one.
func (s *Usecase) ResendChallenge(ctx context.Context, in IssueInput) (*entity.Issued, error) {
	ctx, span := s.startSpan(ctx, "ResendChallenge")
	defer span.End()

	in.normalize()
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if err := checkPurpose(in.Purpose, in.SubjectID); err != nil {
		return nil, err
	}
	if !in.Purpose.RequiresSubject() {
		in.SubjectID = 0
	}

	return s.issue(ctx, in)
}
