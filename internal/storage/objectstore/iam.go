package objectstore

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/IBM/go-sdk-core/v5/core"
	"golang.org/x/oauth2"
)

// DefaultIAMEndpoint is the public IBM Cloud IAM token endpoint.
const DefaultIAMEndpoint = "https://iam.cloud.ibm.com/identity/token"

// iamTokenPath is appended to the base URL by the IBM authenticator.
const iamTokenPath = "/identity/token"

// IAMTokenSource exchanges an IBM Cloud API key for IAM bearer tokens
// through the IBM SDK authenticator. It fetches a new token on every call;
// wrap it with oauth2.ReuseTokenSource.
type IAMTokenSource struct {
	auth *core.IamAuthenticator
}

// NewIAMTokenSource returns a caching token source for apiKey. endpoint may
// be the full token URL or the IAM base URL. A nil client uses the
// authenticator's default client.
func NewIAMTokenSource(endpoint, apiKey string, client *http.Client) (oauth2.TokenSource, error) {
	if endpoint == "" {
		endpoint = DefaultIAMEndpoint
	}
	builder := core.NewIamAuthenticatorBuilder().
		SetApiKey(apiKey).
		SetURL(strings.TrimSuffix(strings.TrimSuffix(endpoint, "/"), iamTokenPath))
	if client != nil {
		builder = builder.SetClient(client)
	}
	auth, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid IAM authenticator settings: %w", err)
	}
	return oauth2.ReuseTokenSource(nil, &IAMTokenSource{auth: auth}), nil
}

// Token implements oauth2.TokenSource.
func (s *IAMTokenSource) Token() (*oauth2.Token, error) {
	resp, err := s.auth.RequestToken()
	if err != nil {
		return nil, fmt.Errorf("IAM token request failed: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("IAM token response has no access_token")
	}

	tok := &oauth2.Token{AccessToken: resp.AccessToken, TokenType: resp.TokenType}
	switch {
	case resp.Expiration > 0:
		tok.Expiry = time.Unix(resp.Expiration, 0)
	case resp.ExpiresIn > 0:
		tok.Expiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return tok, nil
}
