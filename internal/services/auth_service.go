package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"factorylink/internal/auth"
	"factorylink/internal/models"
	"factorylink/internal/records"
	"factorylink/internal/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AuthConfig struct {
	AdminID        string
	AdminSecret    string
	PasswordScheme string
	TokenSecret    string
	TokenTTL       time.Duration
}

var (
	signupReputation = decimal.RequireFromString("36.5")
	adminReputation  = decimal.RequireFromString("100")
)

const (
	adminName      = "관리자"
	adminContact   = "admin@center.com"
	adminDealCount = 999
)

type AuthService struct {
	store       RecordStore
	revocations *auth.Revocations
	cfg         AuthConfig
	log         *zap.Logger
	now         func() time.Time
}

func NewAuthService(store RecordStore, revocations *auth.Revocations, cfg AuthConfig, log *zap.Logger) *AuthService {
	return &AuthService{
		store:       store,
		revocations: revocations,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

type SignupInput struct {
	ID      string
	Secret  string
	Contact string
	Name    string
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (models.Account, error) {
	input.ID = strings.TrimSpace(input.ID)
	if err := validator.ValidateIdentifier(input.ID); err != nil {
		if errors.Is(err, validator.ErrMissingIdentifier) {
			return models.Account{}, missing(err)
		}
		return models.Account{}, ErrInvalidField
	}
	if err := validator.ValidateSecret(input.Secret); err != nil {
		return models.Account{}, missing(err)
	}
	if err := validator.ValidateContact(input.Contact); err != nil {
		return models.Account{}, missing(err)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = input.ID
	}

	accounts, err := s.store.LoadFresh(ctx, records.Accounts)
	if err != nil {
		return models.Account{}, err
	}
	if input.ID == s.cfg.AdminID || findRow(accounts, "id", input.ID) >= 0 {
		return models.Account{}, ErrDuplicateIdentifier
	}

	hash, err := auth.HashPassword(s.cfg.PasswordScheme, input.Secret)
	if err != nil {
		return models.Account{}, err
	}
	account := models.Account{
		ID:             input.ID,
		CredentialHash: hash,
		Name:           name,
		Contact:        strings.TrimSpace(input.Contact),
		BizNo:          "-",
		Verified:       false,
		DealCount:      0,
		Reputation:     signupReputation,
		JoinDate:       s.now().Format(models.DateLayout),
	}
	if err := s.store.Append(ctx, records.Accounts, account.Row()); err != nil {
		return models.Account{}, err
	}
	s.log.Info("account created", zap.String("account_id", account.ID))
	return account, nil
}

// Login checks the credentials and issues a session token. The reserved
// administrative identity is provisioned on first use with its default
// secret.
func (s *AuthService) Login(ctx context.Context, id, secret string) (auth.Session, string, error) {
	id = strings.TrimSpace(id)
	if id == "" || secret == "" {
		return auth.Session{}, "", ErrInvalidCredentials
	}
	accounts, err := s.store.Load(ctx, records.Accounts)
	if err != nil {
		return auth.Session{}, "", err
	}
	idx := findRow(accounts, "id", id)
	switch {
	case idx >= 0:
		if !auth.CheckPassword(accounts.Rows[idx]["credential_hash"], secret) {
			return auth.Session{}, "", ErrInvalidCredentials
		}
	case id == s.cfg.AdminID && secret == s.cfg.AdminSecret:
		if err := s.provisionAdmin(ctx); err != nil {
			return auth.Session{}, "", err
		}
	default:
		return auth.Session{}, "", ErrInvalidCredentials
	}
	return s.issue(id)
}

func (s *AuthService) provisionAdmin(ctx context.Context) error {
	accounts, err := s.store.LoadFresh(ctx, records.Accounts)
	if err != nil {
		return err
	}
	if findRow(accounts, "id", s.cfg.AdminID) >= 0 {
		return nil
	}
	hash, err := auth.HashPassword(s.cfg.PasswordScheme, s.cfg.AdminSecret)
	if err != nil {
		return err
	}
	admin := models.Account{
		ID:             s.cfg.AdminID,
		CredentialHash: hash,
		Name:           adminName,
		Contact:        adminContact,
		BizNo:          "-",
		Verified:       true,
		DealCount:      adminDealCount,
		Reputation:     adminReputation,
		JoinDate:       s.now().Format(models.DateLayout),
	}
	if err := s.store.Append(ctx, records.Accounts, admin.Row()); err != nil {
		return err
	}
	s.log.Info("administrative account provisioned", zap.String("account_id", admin.ID))
	return nil
}

func (s *AuthService) issue(id string) (auth.Session, string, error) {
	token, err := auth.GenerateToken(s.cfg.TokenSecret, id, id == s.cfg.AdminID, s.cfg.TokenTTL)
	if err != nil {
		return auth.Session{}, "", err
	}
	session, err := auth.ParseToken(s.cfg.TokenSecret, token)
	if err != nil {
		return auth.Session{}, "", err
	}
	return session, token, nil
}

// Authenticate resolves a bearer token into a session, rejecting tokens that
// were logged out.
func (s *AuthService) Authenticate(ctx context.Context, token string) (auth.Session, error) {
	session, err := auth.ParseToken(s.cfg.TokenSecret, token)
	if err != nil {
		return auth.Session{}, err
	}
	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, session.TokenID)
		if err != nil {
			return auth.Session{}, err
		}
		if revoked {
			return auth.Session{}, auth.ErrInvalidToken
		}
	}
	return session, nil
}

func (s *AuthService) Logout(ctx context.Context, session auth.Session) error {
	if s.revocations == nil {
		return nil
	}
	return s.revocations.Revoke(ctx, session.TokenID, session.ExpiresAt)
}

func (s *AuthService) Profile(ctx context.Context, session auth.Session) (models.Account, error) {
	accounts, err := s.store.Load(ctx, records.Accounts)
	if err != nil {
		return models.Account{}, err
	}
	idx := findRow(accounts, "id", session.AccountID)
	if idx < 0 {
		return models.Account{}, ErrAccountNotFound
	}
	return models.AccountFromRow(accounts.Rows[idx]), nil
}

func (s *AuthService) ChangePassword(ctx context.Context, session auth.Session, current, next string) error {
	if err := validator.ValidateSecret(next); err != nil {
		return missing(err)
	}
	accounts, err := s.store.LoadFresh(ctx, records.Accounts)
	if err != nil {
		return err
	}
	idx := findRow(accounts, "id", session.AccountID)
	if idx < 0 {
		return ErrAccountNotFound
	}
	if !auth.CheckPassword(accounts.Rows[idx]["credential_hash"], current) {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(s.cfg.PasswordScheme, next)
	if err != nil {
		return err
	}
	accounts.Rows[idx]["credential_hash"] = hash
	if err := s.store.Save(ctx, accounts); err != nil {
		return err
	}
	s.log.Info("password changed", zap.String("account_id", session.AccountID))
	return nil
}
