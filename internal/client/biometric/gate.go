// Package biometric wraps the device's biometric capability behind a small
// gate: an availability check and a single yes/no challenge.
package biometric

import (
	"context"
	"fmt"

	"github.com/ccelrecreo/recreo/internal/logging"
)

// Prompt holds the labels shown by the platform dialog.
type Prompt struct {
	Title         string
	FallbackLabel string
	CancelLabel   string
}

// DefaultPrompt is used for every challenge issued by a Gate.
var DefaultPrompt = Prompt{
	Title:         "Autenticación biométrica",
	FallbackLabel: "Usar contraseña",
	CancelLabel:   "Cancelar",
}

// Result is the outcome reported by the platform. Reason is informational
// ("user_cancel", "lockout", ...) and only set on failure.
type Result struct {
	Success bool
	Reason  string
}

// Platform is the device biometric capability.
type Platform interface {
	HasHardware(ctx context.Context) (bool, error)
	IsEnrolled(ctx context.Context) (bool, error)
	Authenticate(ctx context.Context, prompt Prompt) (Result, error)
}

type Gate struct {
	platform Platform
	logger   logging.Logger
}

func NewGate(platform Platform, logger logging.Logger) *Gate {
	return &Gate{platform: platform, logger: logger.With("component", "biometric")}
}

// Unsupported returns a gate for runtimes without any biometric capability.
// It reports unavailable and fails every challenge without prompting.
func Unsupported(logger logging.Logger) *Gate {
	return NewGate(nil, logger)
}

// IsAvailable reports whether hardware exists and at least one biometric is
// enrolled. Platform errors read as unavailable.
func (g *Gate) IsAvailable(ctx context.Context) (available bool) {
	if g.platform == nil {
		return false
	}
	defer g.recoverInto(ctx, "availability check", &available)

	hw, err := g.platform.HasHardware(ctx)
	if err != nil {
		g.logger.Warn(ctx, "biometric hardware check failed", "error", err)
		return false
	}
	if !hw {
		return false
	}
	enrolled, err := g.platform.IsEnrolled(ctx)
	if err != nil {
		g.logger.Warn(ctx, "biometric enrollment check failed", "error", err)
		return false
	}
	return enrolled
}

// Authenticate runs one challenge with DefaultPrompt. Only a successful
// result yields true.
func (g *Gate) Authenticate(ctx context.Context) (ok bool) {
	if g.platform == nil {
		return false
	}
	defer g.recoverInto(ctx, "challenge", &ok)

	res, err := g.platform.Authenticate(ctx, DefaultPrompt)
	if err != nil {
		g.logger.Warn(ctx, "biometric challenge error", "error", err)
		return false
	}
	if !res.Success {
		g.logger.Info(ctx, "biometric challenge not passed", "reason", res.Reason)
		return false
	}
	return true
}

func (g *Gate) recoverInto(ctx context.Context, what string, out *bool) {
	if r := recover(); r != nil {
		g.logger.Error(ctx, "biometric platform panicked", "during", what, "panic", fmt.Sprint(r))
		*out = false
	}
}
