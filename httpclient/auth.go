package httpclient

import "net/http"

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer sends "Authorization: Bearer <token>".
	AuthBearer
	// AuthScheme sends "Authorization: <scheme> <token>".
	AuthScheme
	// AuthAPIKey sends the key in a header or query parameter.
	AuthAPIKey
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	Type AuthType
	// Token is the credential for AuthBearer and AuthScheme.
	Token string
	// Scheme is the Authorization scheme for AuthScheme (e.g. "Token").
	Scheme string
	// Key is the API key value (AuthAPIKey).
	Key string
	// In is "header" (default) or "query" (AuthAPIKey).
	In string
	// Name is the header or query parameter name (AuthAPIKey). Defaults to "X-API-Key".
	Name string
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// SchemeAuth creates an Authorization header with a custom scheme.
func SchemeAuth(scheme, token string) *AuthConfig {
	return &AuthConfig{Type: AuthScheme, Scheme: scheme, Token: token}
}

// APIKeyAuthHeader creates an API key auth config with a custom header name.
func APIKeyAuthHeader(key, headerName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "header", Name: headerName}
}

// APIKeyAuthQuery creates an API key auth config sent via query parameter.
func APIKeyAuthQuery(key, paramName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "query", Name: paramName}
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthScheme:
		req.Header.Set("Authorization", a.Scheme+" "+a.Token)
	case AuthAPIKey:
		name := a.Name
		if name == "" {
			name = "X-API-Key"
		}
		if a.In == "query" {
			q := req.URL.Query()
			q.Set(name, a.Key)
			req.URL.RawQuery = q.Encode()
		} else {
			req.Header.Set(name, a.Key)
		}
	}
}
