// Package verification checks a second factor before sensitive commands.
// Each account has a capability set; a single Verify call dispatches on
// the kind of proof offered.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"

	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

type Kind string

const (
	KindOTP  Kind = "otp"
	KindCode Kind = "code"
)

var codeRegex = regexp.MustCompile(`^\d{4}$`)

// Proof is a tagged verification payload.
type Proof struct {
	Kind    Kind   `json:"kind" validate:"required,oneof=otp code"`
	Payload string `json:"payload" validate:"required,max=16"`
}

// OTPProvider checks one-time passwords against an enrolled secret. Codes
// are generated and delivered outside this service.
type OTPProvider interface {
	Check(ctx context.Context, secretRef, otp string) (bool, error)
}

type Service interface {
	Capabilities(ctx context.Context, actor models.Actor) (models.Capabilities, error)
	Verify(ctx context.Context, actor models.Actor, proof Proof) error
	// Guard demands a proof when the account has any factor enrolled.
	Guard(ctx context.Context, actor models.Actor, proof *Proof) error
	SetCode(ctx context.Context, actor models.Actor, code string) error
}

type service struct {
	store repositories.Store
	otp   OTPProvider
	cost  int
}

type Option func(*service)

// WithOTPProvider enables the otp kind.
func WithOTPProvider(p OTPProvider) Option {
	return func(s *service) {
		s.otp = p
	}
}

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(s *service) {
		s.cost = cost
	}
}

func NewService(store repositories.Store, opts ...Option) Service {
	s := &service{store: store, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) security(ctx context.Context, userID uint) (*models.AccountSecurity, error) {
	sec, err := s.store.Security().Get(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return sec, err
}

func (s *service) capabilities(sec *models.AccountSecurity) models.Capabilities {
	caps := sec.Capabilities()
	if s.otp == nil {
		caps.HasOTP = false
	}
	return caps
}

func (s *service) Capabilities(ctx context.Context, actor models.Actor) (models.Capabilities, error) {
	sec, err := s.security(ctx, actor.UserID)
	if err != nil {
		return models.Capabilities{}, err
	}
	return s.capabilities(sec), nil
}

func (s *service) Verify(ctx context.Context, actor models.Actor, proof Proof) error {
	sec, err := s.security(ctx, actor.UserID)
	if err != nil {
		return err
	}
	caps := s.capabilities(sec)

	switch proof.Kind {
	case KindCode:
		if !caps.HasCode {
			return apperrors.ErrCapabilityUnavailable
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*sec.CodeHash), []byte(proof.Payload)); err != nil {
			log.Printf("code verification failed for user %d", actor.UserID)
			return apperrors.ErrVerificationFailed
		}
		return nil
	case KindOTP:
		if !caps.HasOTP {
			return apperrors.ErrCapabilityUnavailable
		}
		ref := ""
		if sec.OTPSecretRef != nil {
			ref = *sec.OTPSecretRef
		}
		ok, err := s.otp.Check(ctx, ref, proof.Payload)
		if err != nil {
			return apperrors.ErrStoreUnavailable.Wrap(fmt.Errorf("otp check: %w", err))
		}
		if !ok {
			log.Printf("otp verification failed for user %d", actor.UserID)
			return apperrors.ErrVerificationFailed
		}
		return nil
	}
	return apperrors.ErrInvalidRequest.WithMessage("unknown verification kind %q", proof.Kind)
}

func (s *service) Guard(ctx context.Context, actor models.Actor, proof *Proof) error {
	if proof != nil {
		return s.Verify(ctx, actor, *proof)
	}
	caps, err := s.Capabilities(ctx, actor)
	if err != nil {
		return err
	}
	if caps.Any() {
		return apperrors.ErrVerificationRequired.WithDetails(map[string]string{
			"has_otp":  fmt.Sprint(caps.HasOTP),
			"has_code": fmt.Sprint(caps.HasCode),
		})
	}
	return nil
}

func (s *service) SetCode(ctx context.Context, actor models.Actor, code string) error {
	if !codeRegex.MatchString(code) {
		return apperrors.ErrInvalidRequest.WithMessage("code must be 4 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	sec, err := s.security(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if sec == nil {
		sec = &models.AccountSecurity{UserID: actor.UserID}
	}
	h := string(hash)
	sec.CodeHash = &h
	return s.store.Security().Save(ctx, sec)
}
