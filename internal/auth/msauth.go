package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAuthenticationFailed marks an invalid, expired, or unrecognized
// identity-provider token.
var ErrAuthenticationFailed = errors.New("authentication failed")

// TokenVerifier validates an identity-provider token and returns the
// verified email address.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (email string, err error)
}

// MicrosoftVerifier validates Microsoft Entra ID tokens against the tenant's
// published JWKS. Keys are cached and refreshed when an unknown kid appears.
type MicrosoftVerifier struct {
	tenant string
	client *http.Client

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time
}

func NewMicrosoftVerifier(tenant string) *MicrosoftVerifier {
	return &MicrosoftVerifier{
		tenant: tenant,
		client: &http.Client{Timeout: 10 * time.Second},
		keys:   make(map[string]*rsa.PublicKey),
	}
}

type jwksResponse struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (v *MicrosoftVerifier) keysURL() string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/discovery/v2.0/keys", v.tenant)
}

func (v *MicrosoftVerifier) refreshKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.keysURL(), nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetching public keys: %v", ErrAuthenticationFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: keys endpoint status %d", ErrAuthenticationFailed, resp.StatusCode)
	}
	var body jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: decoding keys: %v", ErrAuthenticationFailed, err)
	}
	if len(body.Keys) == 0 {
		return fmt.Errorf("%w: no keys in response", ErrAuthenticationFailed)
	}
	keys := make(map[string]*rsa.PublicKey, len(body.Keys))
	for _, k := range body.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := jwkToPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	v.keys = keys
	v.fetched = time.Now()
	return nil
}

func jwkToPublicKey(n64, e64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n64)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e64)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

func (v *MicrosoftVerifier) keyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	// Unknown kid: refresh at most once a minute to absorb key rotation
	// without hammering the endpoint on bad tokens.
	if time.Since(v.fetched) > time.Minute {
		if err := v.refreshKeys(ctx); err != nil {
			return nil, err
		}
		if key, ok := v.keys[kid]; ok {
			return key, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown signing key", ErrAuthenticationFailed)
}

type msClaims struct {
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	jwt.RegisteredClaims
}

// Verify checks the token signature and expiry and returns the account email.
func (v *MicrosoftVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	claims := &msClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: token missing kid", ErrAuthenticationFailed)
		}
		return v.keyForKid(ctx, kid)
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		if errors.Is(err, ErrAuthenticationFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	email := claims.Email
	if email == "" {
		email = claims.PreferredUsername
	}
	if email == "" {
		return "", fmt.Errorf("%w: token carries no email", ErrAuthenticationFailed)
	}
	return email, nil
}
