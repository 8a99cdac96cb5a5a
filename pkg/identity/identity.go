// Package identity obtains a GitHub credential: an access token plus the
// profile it belongs to.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Sternrassler/git-notes/pkg/gist"
	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

// Errors returned by providers. Both fail the login; no partial session is
// ever produced.
var (
	// ErrNoAccessToken means the provider produced no token.
	ErrNoAccessToken = errors.New("no access token")

	// ErrNoCredential means the token did not resolve to a usable profile.
	ErrNoCredential = errors.New("no credential")
)

// Credential is a verified token and its owner.
type Credential struct {
	Token string
	User  gist.User
}

// Provider performs a login.
type Provider interface {
	Login(ctx context.Context) (Credential, error)
}

// FetchProfile loads the profile owning token through the GitHub API.
// apiBaseURL may be empty for api.github.com.
func FetchProfile(ctx context.Context, token, apiBaseURL string, httpClient *http.Client) (gist.User, error) {
	if strings.TrimSpace(token) == "" {
		return gist.User{}, ErrNoAccessToken
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}
	oauthClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	gh := github.NewClient(oauthClient)

	if apiBaseURL != "" {
		if !strings.HasSuffix(apiBaseURL, "/") {
			apiBaseURL += "/"
		}
		base, err := url.Parse(apiBaseURL)
		if err != nil {
			return gist.User{}, fmt.Errorf("parse api base url: %w", err)
		}
		gh.BaseURL = base
	}

	user, _, err := gh.Users.Get(ctx, "")
	if err != nil {
		return gist.User{}, fmt.Errorf("%w: fetch profile: %v", ErrNoCredential, err)
	}
	if user.GetLogin() == "" {
		return gist.User{}, fmt.Errorf("%w: profile has no login", ErrNoCredential)
	}

	return gist.User{
		ID:        user.GetID(),
		Login:     user.GetLogin(),
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.GetAvatarURL(),
		HTMLURL:   user.GetHTMLURL(),
		Type:      user.GetType(),
	}, nil
}

// StaticTokenProvider logs in with a pre-issued personal access token.
type StaticTokenProvider struct {
	Token      string
	APIBaseURL string
	HTTPClient *http.Client
}

// Login validates the token by loading its profile.
func (p StaticTokenProvider) Login(ctx context.Context) (Credential, error) {
	user, err := FetchProfile(ctx, p.Token, p.APIBaseURL, p.HTTPClient)
	if err != nil {
		return Credential{}, err
	}
	return Credential{Token: p.Token, User: user}, nil
}
