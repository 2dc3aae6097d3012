package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"kasetinfo/internal/models"
)

// Issuer is the account issuer shown in authenticator apps.
const Issuer = "KasetInfo"

// ErrInvalidCode is returned when a TOTP confirmation code does not match.
var ErrInvalidCode = errors.New("invalid code")

// TOTPStore persists TOTP enrolment.
type TOTPStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
}

// Enrolment is a freshly generated TOTP secret plus its QR code as a
// base64-encoded PNG.
type Enrolment struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	QRCode string `json:"qr_code"`
}

// Enroller runs two-factor setup for signed-in users.
type Enroller struct {
	users TOTPStore
}

// NewEnroller creates an Enroller.
func NewEnroller(users TOTPStore) *Enroller {
	return &Enroller{users: users}
}

// Begin generates and stores a new, not yet enabled, secret for the user.
func (e *Enroller) Begin(ctx context.Context, userID uuid.UUID, email string) (*Enrolment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: email,
	})
	if err != nil {
		return nil, fmt.Errorf("totp generate: %w", err)
	}

	if err := e.users.SetTOTPSecret(ctx, userID, key.Secret()); err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}

	return &Enrolment{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: base64.StdEncoding.EncodeToString(png),
	}, nil
}

// Confirm enables two-factor sign-in once the user proves they hold the
// secret by submitting a valid code.
func (e *Enroller) Confirm(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.TOTPSecret == nil {
		return ErrInvalidCode
	}
	if !totp.Validate(strings.TrimSpace(code), *user.TOTPSecret) {
		return ErrInvalidCode
	}
	return e.users.EnableTOTP(ctx, userID)
}
