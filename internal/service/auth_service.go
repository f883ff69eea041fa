package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"clinical-scribe-be/internal/config"
	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/mailer"
	"clinical-scribe-be/internal/repository/memory"
	"clinical-scribe-be/internal/repository/specification"
	"clinical-scribe-be/internal/repository/unitofwork"

	"clinical-scribe-be/pkg/events"
	pktNats "clinical-scribe-be/pkg/nats"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const maxOtpAttempts = 5

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error)
	VerifyOtp(ctx context.Context, req *dto.VerifyOtpRequest, ipAddress, userAgent string) (*dto.VerifyOtpResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshRequest, ipAddress, userAgent string) (*dto.RefreshResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
	SetMfa(ctx context.Context, userId uuid.UUID, enabled bool) error
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	emailService   mailer.IEmailService
	mfaRepo        *memory.MfaRepository
	eventPublisher *pktNats.Publisher
	authCfg        config.AuthConfig
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	mfaRepo *memory.MfaRepository,
	eventPublisher *pktNats.Publisher,
	authCfg config.AuthConfig,
) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		emailService:   emailService,
		mfaRepo:        mfaRepo,
		eventPublisher: eventPublisher,
		authCfg:        authCfg,
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, _ := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if existing != nil {
		return nil, errors.New("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	user := &entity.User{
		Id:           uuid.New(),
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: &hashStr,
		Role:         entity.UserRoleClinician,
		// Active immediately; the email OTP at first login proves inbox
		// ownership.
		Status:        entity.UserStatusActive,
		EmailVerified: false,
		MfaEnabled:    true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	return &dto.RegisterResponse{Id: user.Id, Email: user.Email}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil || user == nil {
		return nil, errors.New("invalid credentials")
	}

	if user.PasswordHash == nil {
		return nil, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	if user.Status == entity.UserStatusBlocked {
		return nil, errors.New("user account is blocked")
	}

	if !user.MfaEnabled {
		access, refresh, err := s.issueTokens(ctx, uow, user, ipAddress, userAgent)
		if err != nil {
			return nil, err
		}
		return &dto.LoginResponse{
			MfaRequired:  false,
			AccessToken:  access,
			RefreshToken: refresh,
			User:         userBrief(user),
		}, nil
	}

	otpCode, err := generateOTP()
	if err != nil {
		return nil, err
	}

	challenge := &memory.MfaChallenge{
		ChallengeId: uuid.New().String(),
		UserId:      user.Id.String(),
		OTPHash:     hashToken(otpCode),
		CreatedAt:   time.Now(),
	}
	s.mfaRepo.Save(challenge)

	go func() {
		if emailErr := s.emailService.SendOTP(user.Email, otpCode); emailErr != nil {
			fmt.Printf("Error sending login OTP email: %v\n", emailErr)
		}
	}()

	return &dto.LoginResponse{
		MfaRequired: true,
		ChallengeId: challenge.ChallengeId,
	}, nil
}

func (s *authService) VerifyOtp(ctx context.Context, req *dto.VerifyOtpRequest, ipAddress, userAgent string) (*dto.VerifyOtpResponse, error) {
	challenge, found := s.mfaRepo.Get(req.ChallengeId)
	if !found {
		return nil, errors.New("challenge expired or not found")
	}

	if challenge.Attempts >= maxOtpAttempts {
		s.mfaRepo.Delete(challenge.ChallengeId)
		return nil, errors.New("too many attempts, please sign in again")
	}

	if hashToken(req.Otp) != challenge.OTPHash {
		challenge.Attempts++
		s.mfaRepo.Save(challenge)
		return nil, errors.New("invalid otp code")
	}

	// One-shot challenge.
	s.mfaRepo.Delete(challenge.ChallengeId)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	userId, err := uuid.Parse(challenge.UserId)
	if err != nil {
		return nil, errors.New("invalid challenge")
	}
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil || user == nil {
		return nil, errors.New("user not found")
	}

	if !user.EmailVerified {
		// First passed OTP also proves the mailbox.
		_ = uow.UserRepository().ActivateUser(ctx, user.Id)
	}

	access, refresh, err := s.issueTokens(ctx, uow, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		event := events.BaseEvent{
			Type: "USER_LOGIN",
			Data: map[string]interface{}{
				"user_id": user.Id.String(),
				"device":  userAgent,
				"time":    time.Now().Format(time.RFC822),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			fmt.Printf("[WARN] Failed to publish USER_LOGIN event: %v\n", err)
		}
	}

	return &dto.VerifyOtpResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         userBrief(user),
	}, nil
}

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshRequest, ipAddress, userAgent string) (*dto.RefreshResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	stored, err := uow.UserRepository().FindRefreshToken(ctx, specification.ByTokenHash{Hash: hashToken(req.RefreshToken)})
	if err != nil || stored == nil {
		return nil, errors.New("invalid refresh token")
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, errors.New("refresh token expired")
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: stored.UserId})
	if err != nil || user == nil {
		return nil, errors.New("user not found")
	}
	if user.Status == entity.UserStatusBlocked {
		return nil, errors.New("user account is blocked")
	}

	// Rotate: the used token is revoked and a fresh pair is issued.
	if err := uow.UserRepository().RevokeRefreshToken(ctx, stored.TokenHash); err != nil {
		return nil, err
	}

	access, refresh, err := s.issueTokens(ctx, uow, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	return &dto.RefreshResponse{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.UserRepository().RevokeRefreshToken(ctx, hashToken(refreshToken))
}

func (s *authService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil || user == nil {
		// Do not reveal whether the email exists.
		return nil
	}

	rawToken := uuid.New().String()
	resetToken := &entity.PasswordResetToken{
		Id:        uuid.New(),
		UserId:    user.Id,
		Token:     hashToken(rawToken),
		ExpiresAt: time.Now().Add(1 * time.Hour),
		CreatedAt: time.Now(),
	}

	if err := uow.UserRepository().CreatePasswordResetToken(ctx, resetToken); err != nil {
		return err
	}

	go func() {
		if emailErr := s.emailService.SendResetToken(user.Email, rawToken); emailErr != nil {
			fmt.Printf("Error sending reset email: %v\n", emailErr)
		}
	}()

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	tokenEntity, err := uow.UserRepository().FindPasswordResetToken(ctx, specification.ByToken{Token: hashToken(req.Token)})
	if err != nil || tokenEntity == nil {
		return errors.New("invalid reset token")
	}
	if tokenEntity.Used || time.Now().After(tokenEntity.ExpiresAt) {
		return errors.New("reset token expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.UserRepository().UpdatePassword(ctx, tokenEntity.UserId, string(hash)); err != nil {
		return err
	}
	if err := uow.UserRepository().MarkTokenUsed(ctx, tokenEntity.Id); err != nil {
		return err
	}
	// Password changes invalidate all live sessions.
	if err := uow.UserRepository().RevokeAllRefreshTokens(ctx, tokenEntity.UserId); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *authService) issueTokens(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User, ipAddress, userAgent string) (string, string, error) {
	claims := jwt.MapClaims{
		"user_id":    user.Id.String(),
		"role":       string(user.Role),
		"token_type": "access",
		"exp":        time.Now().Add(time.Duration(s.authCfg.AccessTokenTTLMin) * time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.authCfg.JWTSecret))
	if err != nil {
		return "", "", err
	}

	rawRefreshToken := uuid.New().String()
	refreshTokenEntity := &entity.UserRefreshToken{
		Id:        uuid.New(),
		UserId:    user.Id,
		TokenHash: hashToken(rawRefreshToken),
		ExpiresAt: time.Now().Add(time.Duration(s.authCfg.RefreshTokenTTLHrs) * time.Hour),
		Revoked:   false,
		CreatedAt: time.Now(),
		IpAddress: ipAddress,
		UserAgent: userAgent,
	}

	if err := uow.UserRepository().CreateRefreshToken(ctx, refreshTokenEntity); err != nil {
		return "", "", fmt.Errorf("failed to create session: %v", err)
	}

	return signedToken, rawRefreshToken, nil
}

func (s *authService) SetMfa(ctx context.Context, userId uuid.UUID, enabled bool) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	user.MfaEnabled = enabled
	return uow.UserRepository().Update(ctx, user)
}

func userBrief(user *entity.User) *dto.UserBrief {
	return &dto.UserBrief{
		Id:        user.Id,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
