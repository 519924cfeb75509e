package client

import (
	"context"
	"encoding/json"

	"github.com/ccelrecreo/recreo/internal/client/models"
)

// LoginResponse is the body returned by the login endpoint. Token is kept
// raw because the backend does not always send it as a JSON string.
type LoginResponse struct {
	Token json.RawMessage `json:"token"`
	User  models.Profile  `json:"user"`
}

type Client interface {
	Login(ctx context.Context, cred models.Credential) (*LoginResponse, error)
	Register(ctx context.Context, account models.Account) error
	Profile(ctx context.Context, token string, accountID int64) (models.Profile, error)
}
