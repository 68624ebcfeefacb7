package auth

import (
	"context"
	"fmt"

	"github.com/amirasaad/gastos/pkg/domain/auth"
	"github.com/amirasaad/gastos/pkg/dto"
	"github.com/amirasaad/gastos/pkg/repository"
	credentialrepo "github.com/amirasaad/gastos/pkg/repository/credential"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const challengeIssuer = "gastos-2fa"

// startChallenge replaces any pending code of u with a fresh one, mails it
// and returns the signed challenge binding the next step to u.
func (s *Service) startChallenge(ctx context.Context, u *dto.UserRead) (string, error) {
	code, err := auth.GenerateNumericCode(s.cfg.TwoFactorDigits)
	if err != nil {
		return "", err
	}
	now := s.now()
	expires := now.Add(s.cfg.TwoFactorTTL)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		codes, err := repository.Get[credentialrepo.TwoFactorRepository](uow)
		if err != nil {
			return err
		}
		if err := codes.DeleteUnused(ctx, u.ID); err != nil {
			return err
		}
		return codes.Create(ctx, &auth.TwoFactorCode{
			ID:        uuid.New(),
			UserID:    u.ID,
			Code:      code,
			ExpiresAt: expires,
			CreatedAt: now,
		})
	})
	if err != nil {
		return "", err
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code, int(s.cfg.TwoFactorTTL.Minutes()))
	if err := s.mailer.Send(ctx, u.Email, "Your verification code", body); err != nil {
		s.logger.Error("verification code not mailed", "user_id", u.ID, "error", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    challengeIssuer,
		Subject:   u.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	return token.SignedString([]byte(s.cfg.ChallengeSecret))
}

// parseChallenge verifies a challenge and returns the user it was issued to.
func (s *Service) parseChallenge(challenge string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(challenge, claims,
		func(*jwt.Token) (any, error) { return []byte(s.cfg.ChallengeSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(challengeIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", auth.ErrInvalidChallenge, err)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, auth.ErrInvalidChallenge
	}
	return id, nil
}
