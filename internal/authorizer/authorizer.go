// Package authorizer validates Cognito id tokens for the API Gateway TOKEN
// authorizer and answers with an IAM policy.
package authorizer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/lex00/wetwire-jwt-gateway/internal/config"
	"github.com/lex00/wetwire-jwt-gateway/internal/logging"
)

const (
	policyVersion = "2012-10-17"
	invokeAction  = "execute-api:Invoke"

	// TokenUseID is the only token_use the authorizer accepts.
	TokenUseID = "id"

	// DeniedPrincipal is the principal reported with a deny policy.
	DeniedPrincipal = "unauthorized"

	// MinJWKSRefreshInterval is the minimum age of a cached key set before
	// an unknown kid triggers a refetch.
	MinJWKSRefreshInterval = time.Minute
)

// Reasons a token is rejected. They are logged, never returned to callers.
var (
	ErrNoToken         = errors.New("no authorization token")
	ErrEmptyToken      = errors.New("empty token")
	ErrMalformedHeader = errors.New("unable to read token header")
	ErrNoKeyID         = errors.New("token header has no kid")
	ErrNoAlgorithm     = errors.New("token header has no usable alg")
	ErrFetchKeys       = errors.New("unable to fetch signing keys")
	ErrNoMatchingKey   = errors.New("no matching signing key")
	ErrSignature       = errors.New("unable to verify token")
	ErrMissingExpiry   = errors.New("token has no exp claim")
	ErrExpired         = errors.New("token has expired")
	ErrNotYetValid     = errors.New("token is not yet valid")
	ErrIssuedInFuture  = errors.New("token was issued in the future")
	ErrMissingAudience = errors.New("token has no aud claim")
	ErrAudience        = errors.New("audience does not match app client")
	ErrMissingIssuer   = errors.New("token has no iss claim")
	ErrIssuer          = errors.New("issuer does not match user pool")
	ErrMissingTokenUse = errors.New("token has no token_use claim")
	ErrTokenUse        = errors.New("token_use is not id")
)

// Authorizer validates bearer tokens against one Cognito user pool.
type Authorizer struct {
	cfg     config.Authorizer
	log     logging.Sugared
	jwksURL string
	keys    *jwksCache
	now     func() time.Time
}

// Option customizes an Authorizer.
type Option func(*Authorizer)

// WithJWKSURL overrides the key set location derived from the user pool.
func WithJWKSURL(url string) Option {
	return func(a *Authorizer) { a.jwksURL = url }
}

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *Authorizer) {
		a.now = now
		a.keys.now = now
	}
}

// New returns an Authorizer for the given configuration.
func New(cfg config.Authorizer, log logging.Sugared, opts ...Option) *Authorizer {
	if log == nil {
		log = logging.Nop()
	}
	if cfg.JWKSTTL <= 0 {
		cfg.JWKSTTL = config.DefaultJWKSCacheTTL
	}
	a := &Authorizer{
		cfg:     cfg,
		log:     log,
		jwksURL: cfg.JWKSURL(),
		keys:    newJWKSCache(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle is the Lambda handler. Invalid tokens produce a deny policy, not
// an error.
func (a *Authorizer) Handle(ctx context.Context, req events.APIGatewayCustomAuthorizerRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	sub, err := a.Verify(ctx, req.AuthorizationToken)
	if err != nil {
		a.log.Errorw("denying request", "reason", err.Error(), "methodArn", req.MethodArn)
		return Deny(), nil
	}
	a.log.Infow("token verified", "principalId", sub)
	return Allow(sub, a.cfg.InvokeResource()), nil
}

// Verify checks the raw Authorization value and returns the token subject.
func (a *Authorizer) Verify(ctx context.Context, authorization string) (string, error) {
	if authorization == "" {
		return "", ErrNoToken
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
	if raw == "" {
		return "", ErrEmptyToken
	}

	msg, err := jws.Parse([]byte(raw))
	if err != nil || len(msg.Signatures()) == 0 {
		return "", ErrMalformedHeader
	}
	hdr := msg.Signatures()[0].ProtectedHeaders()
	kid := hdr.KeyID()
	if kid == "" {
		return "", ErrNoKeyID
	}
	alg := hdr.Algorithm()
	if alg == "" || alg == jwa.NoSignature {
		return "", ErrNoAlgorithm
	}

	key, err := a.signingKey(ctx, kid)
	if err != nil {
		return "", err
	}

	a.log.Debugw("verifying token", "kid", kid, "alg", alg.String(), "client", a.cfg.AppClientID)
	tok, err := jwt.Parse([]byte(raw), jwt.WithKey(alg, key), jwt.WithValidate(false))
	if err != nil {
		return "", errors.Join(ErrSignature, err)
	}

	if err := a.checkClaims(tok); err != nil {
		return "", err
	}
	return tok.Subject(), nil
}

func (a *Authorizer) signingKey(ctx context.Context, kid string) (jwk.Key, error) {
	set, err := a.keys.get(ctx, a.jwksURL, a.cfg.JWKSTTL)
	if err != nil {
		return nil, errors.Join(ErrFetchKeys, err)
	}
	if key, ok := set.LookupKeyID(kid); ok {
		return key, nil
	}

	// Possibly rotated keys. At most one refetch per MinJWKSRefreshInterval.
	set, err = a.keys.refresh(ctx, a.jwksURL, a.cfg.JWKSTTL, MinJWKSRefreshInterval)
	if err != nil {
		return nil, errors.Join(ErrFetchKeys, err)
	}
	key, ok := set.LookupKeyID(kid)
	if !ok {
		return nil, ErrNoMatchingKey
	}
	return key, nil
}

func (a *Authorizer) checkClaims(tok jwt.Token) error {
	exp := tok.Expiration()
	if exp.IsZero() {
		return ErrMissingExpiry
	}
	now := a.now()
	if now.After(exp) {
		return ErrExpired
	}
	if nbf := tok.NotBefore(); !nbf.IsZero() && nbf.After(now) {
		return ErrNotYetValid
	}
	if iat := tok.IssuedAt(); !iat.IsZero() && iat.After(now) {
		return ErrIssuedInFuture
	}

	aud := tok.Audience()
	if len(aud) == 0 {
		return ErrMissingAudience
	}
	if len(aud) != 1 || aud[0] != a.cfg.AppClientID {
		return ErrAudience
	}

	iss := tok.Issuer()
	if iss == "" {
		return ErrMissingIssuer
	}
	if iss != a.cfg.Issuer() {
		return ErrIssuer
	}

	use, ok := tok.Get("token_use")
	if !ok {
		return ErrMissingTokenUse
	}
	if s, _ := use.(string); s != TokenUseID {
		return ErrTokenUse
	}
	return nil
}

// Allow grants execute-api:Invoke on resource to principal.
func Allow(principal, resource string) events.APIGatewayCustomAuthorizerResponse {
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: principal,
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: policyVersion,
			Statement: []events.IAMPolicyStatement{{
				Action:   []string{invokeAction},
				Effect:   "Allow",
				Resource: []string{resource},
			}},
		},
	}
}

// Deny refuses every action on every resource.
func Deny() events.APIGatewayCustomAuthorizerResponse {
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: DeniedPrincipal,
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: policyVersion,
			Statement: []events.IAMPolicyStatement{{
				Action:   []string{"*"},
				Effect:   "Deny",
				Resource: []string{"*"},
			}},
		},
	}
}
