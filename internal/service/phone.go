package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/model"
	"skinsignal-api/internal/notify"

	"go.uber.org/zap"
)

// PhoneStore is the storage phone verification needs.
type PhoneStore interface {
	UpsertUser(ctx context.Context, steamID string) (*model.User, error)
	GetUserBySteamID(ctx context.Context, steamID string) (*model.User, error)
	SetPhone(ctx context.Context, userID int64, phoneE164 string) error
	MarkPhoneVerified(ctx context.Context, userID int64) error
	CreatePhoneVerification(ctx context.Context, userID int64, code string, at time.Time) error
	LatestPhoneVerification(ctx context.Context, userID int64) (*model.PhoneVerification, error)
}

// StartPhoneInput starts verification of a phone number.
type StartPhoneInput struct {
	SteamID string `json:"steam_id" validate:"steamid"`
	Phone   string `json:"phone" validate:"e164"`
}

// VerifyPhoneInput confirms a code sent by Start.
type VerifyPhoneInput struct {
	SteamID string `json:"steam_id" validate:"steamid"`
	Code    string `json:"code" validate:"otp6"`
}

// StartPhoneResult carries the code back only when SMS delivery is not live.
type StartPhoneResult struct {
	TestCode string `json:"test_code,omitempty"`
}

// PhoneService runs the SMS one-time-code flow.
type PhoneService struct {
	store  PhoneStore
	sender notify.Sender
	now    func() time.Time
	log    *zap.Logger
}

// NewPhoneService creates a PhoneService.
func NewPhoneService(store PhoneStore, sender notify.Sender, log *zap.Logger) *PhoneService {
	return &PhoneService{store: store, sender: sender, now: time.Now, log: log.Named("phone")}
}

// Start stores the number unverified, issues a 6-digit code and sends it.
func (s *PhoneService) Start(ctx context.Context, in StartPhoneInput) (*StartPhoneResult, error) {
	in.SteamID = strings.TrimSpace(in.SteamID)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	u, err := s.store.UpsertUser(ctx, in.SteamID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetPhone(ctx, u.ID, in.Phone); err != nil {
		return nil, err
	}
	if err := s.store.CreatePhoneVerification(ctx, u.ID, code, s.now()); err != nil {
		return nil, err
	}

	if !s.sender.Live() {
		s.log.Info("sms channel not live, returning test code", zap.Int64("user_id", u.ID))
		return &StartPhoneResult{TestCode: code}, nil
	}
	if err := s.sender.Send(ctx, in.Phone, "SkinSignal verification code: "+code); err != nil {
		return nil, err
	}
	return &StartPhoneResult{}, nil
}

// Verify marks the phone verified when code matches the latest issued code.
func (s *PhoneService) Verify(ctx context.Context, in VerifyPhoneInput) error {
	in.SteamID = strings.TrimSpace(in.SteamID)
	in.Code = strings.TrimSpace(in.Code)
	if err := model.Validate(in); err != nil {
		return err
	}

	u, err := s.store.GetUserBySteamID(ctx, in.SteamID)
	if err != nil {
		return err
	}
	latest, err := s.store.LatestPhoneVerification(ctx, u.ID)
	if err != nil {
		return err
	}
	if latest == nil || subtle.ConstantTimeCompare([]byte(latest.Code), []byte(in.Code)) != 1 {
		return apperror.Validation("code", "verify_failed")
	}
	return s.store.MarkPhoneVerified(ctx, u.ID)
}

// generateCode returns a uniformly random code in 100000..999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
