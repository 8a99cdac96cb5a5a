package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// DefaultScopes grants read/write access to gists.
var DefaultScopes = []string{"gist"}

// DeviceFlowProvider logs in through the OAuth device authorization grant:
// the user enters a short code on github.com while the provider polls.
type DeviceFlowProvider struct {
	ClientID string
	Scopes   []string

	// Endpoint defaults to github.com.
	Endpoint oauth2.Endpoint

	// APIBaseURL is used for the profile lookup (default api.github.com).
	APIBaseURL string
	HTTPClient *http.Client

	// Prompt shows the verification URL and code to the user.
	Prompt func(verificationURI, userCode string)

	Logger zerolog.Logger
}

// Login runs the device flow and resolves the resulting token's profile.
func (p DeviceFlowProvider) Login(ctx context.Context) (Credential, error) {
	if p.ClientID == "" {
		return Credential{}, errors.New("device flow: oauth client id is required")
	}

	cfg := p.config()
	if p.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.HTTPClient)
	}

	da, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return Credential{}, fmt.Errorf("device flow: request code: %w", err)
	}

	p.Logger.Debug().
		Str("verification_uri", da.VerificationURI).
		Time("expires_at", da.Expiry).
		Msg("Device code issued")
	if p.Prompt != nil {
		p.Prompt(da.VerificationURI, da.UserCode)
	}

	token, err := cfg.DeviceAccessToken(ctx, da)
	if err != nil {
		return Credential{}, fmt.Errorf("device flow: %w", err)
	}
	if token == nil || token.AccessToken == "" {
		return Credential{}, ErrNoAccessToken
	}

	user, err := FetchProfile(ctx, token.AccessToken, p.APIBaseURL, p.HTTPClient)
	if err != nil {
		return Credential{}, err
	}

	p.Logger.Info().Str("login", user.Login).Msg("Device flow login complete")
	return Credential{Token: token.AccessToken, User: user}, nil
}

func (p DeviceFlowProvider) config() *oauth2.Config {
	endpoint := p.Endpoint
	if endpoint.DeviceAuthURL == "" {
		endpoint = githuboauth.Endpoint
	}
	scopes := p.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return &oauth2.Config{
		ClientID: p.ClientID,
		Endpoint: endpoint,
		Scopes:   scopes,
	}
}
