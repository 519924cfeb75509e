package biometric

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ccelrecreo/recreo/internal/client/securestore"
	"github.com/ccelrecreo/recreo/internal/common"
	"github.com/ccelrecreo/recreo/internal/cryptox"
	"golang.org/x/term"
)

// KeyPasscode holds "<salt hex>:<verifier hex>" for the enrolled passcode.
const KeyPasscode = "devicePasscode"

const saltSize = 16

// Test seams for the terminal.
var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

var (
	ErrEmptyPasscode     = errors.New("passcode must not be empty")
	ErrCorruptedVerifier = errors.New("stored passcode verifier is corrupted")
)

// PasscodePlatform stands in for device biometrics on a terminal: the
// "biometric" is a passcode typed without echo and checked against an
// argon2id verifier kept in the secure store.
type PasscodePlatform struct {
	kv  securestore.Store
	fd  int
	out io.Writer
}

// NewPasscodePlatform reads passcodes from the terminal behind fd and writes
// prompts to out.
func NewPasscodePlatform(kv securestore.Store, fd int, out io.Writer) *PasscodePlatform {
	return &PasscodePlatform{kv: kv, fd: fd, out: out}
}

func (p *PasscodePlatform) HasHardware(_ context.Context) (bool, error) {
	return isTerminal(p.fd), nil
}

func (p *PasscodePlatform) IsEnrolled(ctx context.Context) (bool, error) {
	_, ok, err := p.kv.Get(ctx, KeyPasscode)
	if err != nil {
		return false, fmt.Errorf("read passcode verifier: %w", err)
	}
	return ok, nil
}

// Enroll replaces the stored verifier with one derived from passcode.
func (p *PasscodePlatform) Enroll(ctx context.Context, passcode []byte) error {
	if len(passcode) == 0 {
		return ErrEmptyPasscode
	}
	salt := common.GenerateRandByteArray(saltSize)
	key := cryptox.DeriveKey(passcode, salt)
	defer common.WipeByteArray(key)

	value := hex.EncodeToString(salt) + ":" + hex.EncodeToString(cryptox.MakeVerifier(key))
	if err := p.kv.Set(ctx, KeyPasscode, value); err != nil {
		return fmt.Errorf("store passcode verifier: %w", err)
	}
	return nil
}

func (p *PasscodePlatform) Unenroll(ctx context.Context) error {
	if err := p.kv.Delete(ctx, KeyPasscode); err != nil {
		return fmt.Errorf("delete passcode verifier: %w", err)
	}
	return nil
}

// Authenticate asks for the passcode once. An empty answer is a cancel.
func (p *PasscodePlatform) Authenticate(ctx context.Context, prompt Prompt) (Result, error) {
	stored, ok, err := p.kv.Get(ctx, KeyPasscode)
	if err != nil {
		return Result{}, fmt.Errorf("read passcode verifier: %w", err)
	}
	if !ok {
		return Result{Reason: "not_enrolled"}, nil
	}
	salt, verifier, err := parseVerifier(stored)
	if err != nil {
		return Result{}, err
	}

	fmt.Fprintf(p.out, "%s\n(Enter vacío: %s)\nPasscode: ", prompt.Title, prompt.CancelLabel)
	input, err := readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return Result{}, fmt.Errorf("read passcode: %w", err)
	}
	defer common.WipeByteArray(input)

	if len(input) == 0 {
		return Result{Reason: "user_cancel"}, nil
	}

	key := cryptox.DeriveKey(input, salt)
	defer common.WipeByteArray(key)
	if subtle.ConstantTimeCompare(cryptox.MakeVerifier(key), verifier) != 1 {
		return Result{Reason: "authentication_failed"}, nil
	}
	return Result{Success: true}, nil
}

func parseVerifier(stored string) (salt, verifier []byte, err error) {
	saltHex, verifierHex, found := strings.Cut(stored, ":")
	if !found {
		return nil, nil, ErrCorruptedVerifier
	}
	if salt, err = hex.DecodeString(saltHex); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCorruptedVerifier, err)
	}
	if verifier, err = hex.DecodeString(verifierHex); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCorruptedVerifier, err)
	}
	return salt, verifier, nil
}
