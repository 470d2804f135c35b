package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neos-mentors/mentor-queue/internal/auth"
	"github.com/neos-mentors/mentor-queue/internal/clock"
	"github.com/neos-mentors/mentor-queue/internal/domain"
	"github.com/neos-mentors/mentor-queue/internal/repository"
	apperrors "github.com/neos-mentors/mentor-queue/pkg/util"
)

// MentorService provisions mentors and their capability tokens.
type MentorService struct {
	mentors repository.MentorRepository
	clock   clock.Clock
	logger  *zap.Logger
}

// NewMentorService constructs the service.
func NewMentorService(mentors repository.MentorRepository, clk clock.Clock, logger *zap.Logger) *MentorService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MentorService{mentors: mentors, clock: clk, logger: logger}
}

// CreateMentor registers a mentor and generates their secret token. The
// token is returned exactly once, at creation.
func (s *MentorService) CreateMentor(ctx context.Context, displayName string) (*domain.Mentor, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, apperrors.NewValidationError("display name required", nil)
	}
	token, err := auth.NewMentorToken()
	if err != nil {
		return nil, err
	}
	mentor := &domain.Mentor{
		ID:          uuid.NewString(),
		DisplayName: name,
		Token:       token,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.mentors.Insert(ctx, mentor); err != nil {
		return nil, err
	}
	s.logger.Info("mentor created", zap.String("mentor_id", mentor.ID))
	return mentor, nil
}

// ListMentors returns all registered mentors.
func (s *MentorService) ListMentors(ctx context.Context) ([]domain.Mentor, error) {
	return s.mentors.List(ctx)
}
