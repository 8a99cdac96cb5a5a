package identity

import (
	"context"
	"net/http"
	"testing"

	"github.com/Sternrassler/git-notes/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestStaticTokenProvider(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetJSON("GET /user", map[string]any{
		"id":         42,
		"login":      "octocat",
		"name":       "The Octocat",
		"avatar_url": "https://avatars.example/octocat",
	})

	cred, err := StaticTokenProvider{Token: "pat-123", APIBaseURL: mock.URL()}.Login(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "pat-123", cred.Token)
	assert.Equal(t, int64(42), cred.User.ID)
	assert.Equal(t, "octocat", cred.User.Login)
	require.NotNil(t, cred.User.Name)
	assert.Equal(t, "The Octocat", *cred.User.Name)
	assert.Equal(t, "Bearer pat-123", mock.LastRequestHeader().Get("Authorization"))
}

func TestStaticTokenProvider_FailsFast(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()

	tests := []struct {
		name    string
		token   string
		setup   func()
		wantErr error
	}{
		{
			name:    "empty token",
			token:   "  ",
			wantErr: ErrNoAccessToken,
		},
		{
			name:  "bad credentials",
			token: "revoked",
			setup: func() {
				mock.SetResponse("GET /user", testutil.NewErrorResponse(http.StatusUnauthorized, "Bad credentials"))
			},
			wantErr: ErrNoCredential,
		},
		{
			name:  "profile without login",
			token: "odd",
			setup: func() {
				mock.SetJSON("GET /user", map[string]any{"id": 7})
			},
			wantErr: ErrNoCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			before := mock.RequestCount()

			_, err := StaticTokenProvider{Token: tt.token, APIBaseURL: mock.URL()}.Login(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr == ErrNoAccessToken {
				assert.Equal(t, before, mock.RequestCount(), "no request without a token")
			}
		})
	}
}

func TestDeviceFlowProvider(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()

	mock.SetJSON("POST /login/device/code", map[string]any{
		"device_code":      "dev-code",
		"user_code":        "ABCD-1234",
		"verification_uri": "https://github.com/login/device",
		"expires_in":       900,
		"interval":         1,
	})
	mock.SetHandler("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "dev-code", r.PostForm.Get("device_code"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"device-token","token_type":"bearer","scope":"gist"}`))
	})
	mock.SetJSON("GET /user", map[string]any{"id": 1, "login": "octocat"})

	var promptedCode string
	provider := DeviceFlowProvider{
		ClientID: "client-id",
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: mock.URL() + "login/device/code",
			TokenURL:      mock.URL() + "login/oauth/access_token",
		},
		APIBaseURL: mock.URL(),
		Prompt: func(uri, code string) {
			promptedCode = code
		},
		Logger: zerolog.Nop(),
	}

	cred, err := provider.Login(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ABCD-1234", promptedCode)
	assert.Equal(t, "device-token", cred.Token)
	assert.Equal(t, "octocat", cred.User.Login)
}

func TestDeviceFlowProvider_RequiresClientID(t *testing.T) {
	_, err := DeviceFlowProvider{}.Login(context.Background())
	assert.ErrorContains(t, err, "client id is required")
}
