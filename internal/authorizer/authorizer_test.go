package authorizer

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-jwt-gateway/internal/config"
)

const testKid = "kid-1"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() config.Authorizer {
	return config.Authorizer{
		Region:      "us-east-1",
		AccountID:   "123456789012",
		APIID:       "a1b2c3",
		UserPoolID:  "us-east-1_Pool",
		AppClientID: "client123",
		JWKSTTL:     time.Hour,
	}
}

type fixture struct {
	auth   *Authorizer
	signer jwk.Key
	other  jwk.Key
	anon   jwk.Key
	hits   *atomic.Int32
	now    time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newRSAKey(t *testing.T, kid string) jwk.Key {
	t.Helper()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	key, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.RS256))
	if kid != "" {
		require.NoError(t, key.Set(jwk.KeyIDKey, kid))
	}
	return key
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	signer := newRSAKey(t, testKid)
	pub, err := jwk.PublicKeyOf(signer)
	require.NoError(t, err)
	require.NoError(t, pub.Set(jwk.KeyIDKey, testKid))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))
	body, err := json.Marshal(set)
	require.NoError(t, err)

	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	f := &fixture{signer: signer, other: newRSAKey(t, testKid), anon: newRSAKey(t, ""), hits: hits, now: testNow}
	f.auth = New(testConfig(), nil, WithJWKSURL(srv.URL+"/.well-known/jwks.json"), WithClock(func() time.Time { return f.now }))
	return f
}

func validClaims() map[string]any {
	cfg := testConfig()
	return map[string]any{
		jwt.SubjectKey:    "user-42",
		jwt.IssuerKey:     cfg.Issuer(),
		jwt.AudienceKey:   cfg.AppClientID,
		jwt.ExpirationKey: testNow.Add(time.Hour),
		"token_use":       "id",
	}
}

func sign(t *testing.T, key jwk.Key, kid string, claims map[string]any) string {
	t.Helper()
	tok := jwt.New()
	for k, v := range claims {
		require.NoError(t, tok.Set(k, v))
	}
	hdrs := jws.NewHeaders()
	if kid != "" {
		require.NoError(t, hdrs.Set(jws.KeyIDKey, kid))
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, key, jws.WithProtectedHeaders(hdrs)))
	require.NoError(t, err)
	return string(signed)
}

func TestVerify_ValidToken(t *testing.T) {
	f := newFixture(t)
	token := sign(t, f.signer, testKid, validClaims())

	sub, err := f.auth.Verify(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", sub)

	sub, err = f.auth.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", sub)
}

func TestVerify_Rejects(t *testing.T) {
	f := newFixture(t)

	without := func(key string) map[string]any {
		c := validClaims()
		delete(c, key)
		return c
	}
	with := func(key string, value any) map[string]any {
		c := validClaims()
		c[key] = value
		return c
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"no token", "", ErrNoToken},
		{"bearer only", "Bearer ", ErrEmptyToken},
		{"malformed", "Bearer not-a-jwt", ErrMalformedHeader},
		{"no kid", sign(t, f.anon, "", validClaims()), ErrNoKeyID},
		{"unknown kid", sign(t, f.anon, "kid-9", validClaims()), ErrNoMatchingKey},
		{"bad signature", sign(t, f.other, testKid, validClaims()), ErrSignature},
		{"missing exp", sign(t, f.signer, testKid, without(jwt.ExpirationKey)), ErrMissingExpiry},
		{"expired", sign(t, f.signer, testKid, with(jwt.ExpirationKey, testNow.Add(-time.Minute))), ErrExpired},
		{"not yet valid", sign(t, f.signer, testKid, with(jwt.NotBeforeKey, testNow.Add(time.Hour))), ErrNotYetValid},
		{"issued in future", sign(t, f.signer, testKid, with(jwt.IssuedAtKey, testNow.Add(time.Hour))), ErrIssuedInFuture},
		{"missing aud", sign(t, f.signer, testKid, without(jwt.AudienceKey)), ErrMissingAudience},
		{"wrong aud", sign(t, f.signer, testKid, with(jwt.AudienceKey, "other-client")), ErrAudience},
		{"extra aud", sign(t, f.signer, testKid, with(jwt.AudienceKey, []string{"client123", "other-client"})), ErrAudience},
		{"missing iss", sign(t, f.signer, testKid, without(jwt.IssuerKey)), ErrMissingIssuer},
		{"wrong iss", sign(t, f.signer, testKid, with(jwt.IssuerKey, "https://cognito-idp.us-east-1.amazonaws.com/other")), ErrIssuer},
		{"missing token_use", sign(t, f.signer, testKid, without("token_use")), ErrMissingTokenUse},
		{"access token", sign(t, f.signer, testKid, with("token_use", "access")), ErrTokenUse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerify_CachesKeys(t *testing.T) {
	f := newFixture(t)
	token := sign(t, f.signer, testKid, validClaims())

	for i := 0; i < 3; i++ {
		_, err := f.auth.Verify(context.Background(), token)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.hits.Load())
}

func TestVerify_PastTimeClaims(t *testing.T) {
	f := newFixture(t)
	c := validClaims()
	c[jwt.NotBeforeKey] = testNow.Add(-time.Minute)
	c[jwt.IssuedAtKey] = testNow.Add(-time.Minute)

	sub, err := f.auth.Verify(context.Background(), sign(t, f.signer, testKid, c))
	require.NoError(t, err)
	assert.Equal(t, "user-42", sub)
}

func TestVerify_RefetchesOnUnknownKid(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Verify(context.Background(), sign(t, f.signer, testKid, validClaims()))
	require.NoError(t, err)

	f.advance(2 * MinJWKSRefreshInterval)
	_, err = f.auth.Verify(context.Background(), sign(t, f.anon, "rotated", validClaims()))
	assert.ErrorIs(t, err, ErrNoMatchingKey)
	assert.Equal(t, int32(2), f.hits.Load())
}

func TestVerify_LimitsRefetches(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Verify(context.Background(), sign(t, f.signer, testKid, validClaims()))
	require.NoError(t, err)

	f.advance(2 * MinJWKSRefreshInterval)
	unknown := sign(t, f.anon, "nope", validClaims())
	for i := 0; i < 5; i++ {
		_, err = f.auth.Verify(context.Background(), unknown)
		assert.ErrorIs(t, err, ErrNoMatchingKey)
	}
	assert.Equal(t, int32(2), f.hits.Load())

	_, err = f.auth.Verify(context.Background(), sign(t, f.signer, testKid, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.hits.Load())
}

func TestVerify_NoRefetchForFreshKeys(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.auth.Verify(context.Background(), sign(t, f.anon, "nope", validClaims()))
		assert.ErrorIs(t, err, ErrNoMatchingKey)
	}
	assert.Equal(t, int32(1), f.hits.Load())
}

func TestVerify_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	auth := New(testConfig(), nil, WithJWKSURL(srv.URL), WithClock(func() time.Time { return testNow }))
	token := sign(t, newRSAKey(t, testKid), testKid, validClaims())

	_, err := auth.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrFetchKeys)
}

func TestHandle_Allow(t *testing.T) {
	f := newFixture(t)
	token := sign(t, f.signer, testKid, validClaims())

	resp, err := f.auth.Handle(context.Background(), events.APIGatewayCustomAuthorizerRequest{
		Type:               "TOKEN",
		AuthorizationToken: "Bearer " + token,
		MethodArn:          "arn:aws:execute-api:us-east-1:123456789012:a1b2c3/prod/GET/hello",
	})
	require.NoError(t, err)

	assert.Equal(t, "user-42", resp.PrincipalID)
	assert.Equal(t, "2012-10-17", resp.PolicyDocument.Version)
	require.Len(t, resp.PolicyDocument.Statement, 1)
	stmt := resp.PolicyDocument.Statement[0]
	assert.Equal(t, "Allow", stmt.Effect)
	assert.Equal(t, []string{"execute-api:Invoke"}, stmt.Action)
	assert.Equal(t, []string{"arn:aws:execute-api:us-east-1:123456789012:a1b2c3/*"}, stmt.Resource)
}

func TestHandle_Deny(t *testing.T) {
	f := newFixture(t)
	expired := validClaims()
	expired[jwt.ExpirationKey] = testNow.Add(-time.Hour)

	for _, token := range []string{"", "Bearer garbage", "Bearer " + sign(t, f.signer, testKid, expired)} {
		resp, err := f.auth.Handle(context.Background(), events.APIGatewayCustomAuthorizerRequest{AuthorizationToken: token})
		require.NoError(t, err)
		assert.Equal(t, Deny(), resp)
	}

	deny := Deny()
	require.Len(t, deny.PolicyDocument.Statement, 1)
	assert.Equal(t, "Deny", deny.PolicyDocument.Statement[0].Effect)
	assert.Equal(t, []string{"*"}, deny.PolicyDocument.Statement[0].Action)
	assert.Equal(t, []string{"*"}, deny.PolicyDocument.Statement[0].Resource)
}

func TestJWKSCache_Expires(t *testing.T) {
	now := testNow
	calls := 0
	c := &jwksCache{
		fetch: func(context.Context, string) (jwk.Set, error) {
			calls++
			return jwk.NewSet(), nil
		},
		now: func() time.Time { return now },
	}

	_, err := c.get(context.Background(), "u", time.Minute)
	require.NoError(t, err)
	_, err = c.get(context.Background(), "u", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	now = now.Add(2 * time.Minute)
	_, err = c.get(context.Background(), "u", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestJWKSCache_Refresh(t *testing.T) {
	now := testNow
	calls := 0
	c := &jwksCache{
		fetch: func(context.Context, string) (jwk.Set, error) {
			calls++
			return jwk.NewSet(), nil
		},
		now: func() time.Time { return now },
	}

	_, err := c.refresh(context.Background(), "u", time.Hour, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	now = now.Add(30 * time.Second)
	_, err = c.refresh(context.Background(), "u", time.Hour, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	now = now.Add(time.Minute)
	_, err = c.refresh(context.Background(), "u", time.Hour, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
