package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"skinsignal-api/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPhoneService_TestChannelFlow(t *testing.T) {
	store := newStore(t)
	svc := NewPhoneService(store, &MockSender{}, zaptest.NewLogger(t))
	ctx := context.Background()

	res, err := svc.Start(ctx, StartPhoneInput{SteamID: testSteamID, Phone: testPhone})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), res.TestCode)

	err = svc.Verify(ctx, VerifyPhoneInput{SteamID: testSteamID, Code: wrongCode(res.TestCode)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Equal(t, "verify_failed", err.Error())

	require.NoError(t, svc.Verify(ctx, VerifyPhoneInput{SteamID: testSteamID, Code: res.TestCode}))

	u, err := store.GetUserBySteamID(ctx, testSteamID)
	require.NoError(t, err)
	assert.True(t, u.CanReceiveSMS())
}

func TestPhoneService_LiveChannelSendsCode(t *testing.T) {
	store := newStore(t)
	sender := &MockSender{live: true}
	var sent string
	sender.On("Send", mock.Anything, testPhone, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { sent = args.String(2) }).
		Return(nil)

	svc := NewPhoneService(store, sender, zaptest.NewLogger(t))
	ctx := context.Background()

	res, err := svc.Start(ctx, StartPhoneInput{SteamID: testSteamID, Phone: testPhone})
	require.NoError(t, err)
	assert.Empty(t, res.TestCode)
	require.True(t, strings.HasPrefix(sent, "SkinSignal verification code: "))

	code := strings.TrimPrefix(sent, "SkinSignal verification code: ")
	require.NoError(t, svc.Verify(ctx, VerifyPhoneInput{SteamID: testSteamID, Code: code}))
}

func TestPhoneService_LatestCodeWins(t *testing.T) {
	store := newStore(t)
	svc := NewPhoneService(store, &MockSender{}, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := svc.Start(ctx, StartPhoneInput{SteamID: testSteamID, Phone: testPhone})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(time.Minute) }
	second, err := svc.Start(ctx, StartPhoneInput{SteamID: testSteamID, Phone: testPhone})
	require.NoError(t, err)

	if first.TestCode != second.TestCode {
		assert.Error(t, svc.Verify(ctx, VerifyPhoneInput{SteamID: testSteamID, Code: first.TestCode}))
	}
	assert.NoError(t, svc.Verify(ctx, VerifyPhoneInput{SteamID: testSteamID, Code: second.TestCode}))
}

func TestPhoneService_Validation(t *testing.T) {
	svc := NewPhoneService(newStore(t), &MockSender{}, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := svc.Start(ctx, StartPhoneInput{SteamID: testSteamID, Phone: "5551234567"})
	require.Error(t, err)
	assert.Equal(t, "invalid_phone", err.Error())

	err = svc.Verify(ctx, VerifyPhoneInput{SteamID: testSteamID, Code: "12345"})
	require.Error(t, err)
	assert.Equal(t, "invalid_code", err.Error())

	err = svc.Verify(ctx, VerifyPhoneInput{SteamID: testSteamID, Code: "123456"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.NotEqual(t, byte('0'), code[0])
	}
}

func wrongCode(code string) string {
	if code == "999999" {
		return "100000"
	}
	return "999999"
}
