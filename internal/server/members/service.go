// Package members handles the community roster: registration with user
// code assignment, profile lookups and administrative overrides of tier
// and active status.
package members

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tauschring/kontor/internal/common"
	"github.com/tauschring/kontor/internal/dbx"
	"github.com/tauschring/kontor/internal/logging"
	"github.com/tauschring/kontor/internal/server/models"
	"github.com/tauschring/kontor/internal/server/repositories/repomanager"
	"github.com/tauschring/kontor/internal/server/trust"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrInvalidTier    = errors.New("unknown trust tier")

	// ErrCodeSpaceExhausted is returned when no free user code could be
	// drawn. The code space holds 260000 combinations, so hitting this
	// in practice means the community outgrew the code format.
	ErrCodeSpaceExhausted = errors.New("could not allocate a free user code")
)

const codeAllocAttempts = 50

type Service struct {
	db     *sql.DB
	repos  repomanager.Manager
	logger logging.Logger

	now func() time.Time
}

func NewService(db *sql.DB, repos repomanager.Manager, logger logging.Logger) *Service {
	return &Service{
		db:     db,
		repos:  repos,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterParams describes a new member.
type RegisterParams struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Register creates a member with a freshly drawn user code, a bcrypt
// password hash and a zeroed TIME/REGIO account pair, all in one
// transaction. New members start at T1 with no earnings.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, db dbx.DBTX) error {
		userRepo := s.repos.Users(db)

		code, err := s.allocateCode(ctx, userRepo.GetByCode)
		if err != nil {
			return err
		}

		now := s.now()
		user = &models.User{
			ID:           uuid.New(),
			UserCode:     code,
			Email:        p.Email,
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			PasswordHash: string(hash),
			IsActive:     true,
			TrustTier:    trust.TierT1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		return s.repos.Accounts(db).CreatePair(ctx, user.ID, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "member registered", "user_code", user.UserCode)
	return user, nil
}

// allocateCode draws random codes until one is unused. lookup is the
// by-code getter of the transaction-bound user repository.
func (s *Service) allocateCode(ctx context.Context, lookup func(context.Context, string) (*models.User, error)) (string, error) {
	for range codeAllocAttempts {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		_, err = lookup(ctx, code)
		if errors.Is(err, common.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", ErrCodeSpaceExhausted
}

// randomCode draws one uppercase letter and four digits, e.g. "K4711".
func randomCode() (string, error) {
	letter, err := rand.Int(rand.Reader, big.NewInt(26))
	if err != nil {
		return "", err
	}
	digits, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%c%04d", 'A'+letter.Int64(), digits.Int64()), nil
}

// Authenticate checks a member's password and returns the member on
// success. Inactive members cannot log in.
func (s *Service) Authenticate(ctx context.Context, userCode, password string) (*models.User, error) {
	user, err := s.repos.Users(s.db).GetByCode(ctx, userCode)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrMemberNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}
	return user, nil
}

// GetByCode looks a member up by public code.
func (s *Service) GetByCode(ctx context.Context, userCode string) (*models.User, error) {
	user, err := s.repos.Users(s.db).GetByCode(ctx, userCode)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return user, nil
}

// AdminUpdateParams carries an administrative override. Nil fields stay
// untouched.
type AdminUpdateParams struct {
	Tier     *trust.Tier
	IsActive *bool
}

// AdminUpdate applies an administrative override to a member's trust
// tier or active status. This is the only demotion path in the system,
// and the only way to grant T6.
func (s *Service) AdminUpdate(ctx context.Context, userCode string, p AdminUpdateParams) (*models.User, error) {
	if p.Tier != nil && !trust.ValidTier(*p.Tier) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTier, *p.Tier)
	}

	userRepo := s.repos.Users(s.db)
	user, err := userRepo.GetByCode(ctx, userCode)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	now := s.now()
	if err := userRepo.UpdateAdminFields(ctx, user.ID, p.Tier, p.IsActive, now); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "administrative member update", "user_code", userCode)
	return userRepo.GetByID(ctx, user.ID)
}
