package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/crea-to/protocolo-module/internal/domain/rbac"
)

// testKeyID — идентификатор ключа для тестов.
const testKeyID = "test-key-pm"

// testIssuer — ожидаемый issuer в тестовых токенах.
const testIssuer = "https://keycloak.test/realms/crea-to"

// mockRoleProvider — мок для RoleOverrideProvider.
type mockRoleProvider struct {
	overrides map[string]*string
}

func (m *mockRoleProvider) GetRoleOverride(_ context.Context, userID string) (*string, error) {
	if m == nil || m.overrides == nil {
		return nil, nil
	}
	override, ok := m.overrides[userID]
	if !ok {
		return nil, nil
	}
	return override, nil
}

// generateTestKey генерирует RSA ключ для тестов.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	nB64 := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	eB64 := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())

	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   nB64,
				"e":   eB64,
			},
		},
	}

	data, _ := json.Marshal(jwks)
	return data
}

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testGroupMapping — маппинг групп IdP в роли для тестов.
func testGroupMapping() rbac.GroupMapping {
	return rbac.GroupMapping{
		AdminGroups:     []string{"crea-admins"},
		PublisherGroups: []string{"crea-publishers"},
		EditorGroups:    []string{"crea-editors"},
		ViewerGroups:    []string{"crea-viewers"},
	}
}

// newTestJWTAuth создаёт JWTAuth для тестов с mock JWKS.
func newTestJWTAuth(t *testing.T, key *rsa.PrivateKey, roleProvider RoleOverrideProvider) *JWTAuth {
	t.Helper()
	jwksJSON := buildJWKSetJSON(&key.PublicKey, testKeyID)
	kf, err := keyfunc.NewJWKSetJSON(jwksJSON)
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}

	return NewJWTAuthWithKeyfunc(
		kf,
		testIssuer,
		roleProvider,
		testGroupMapping(),
		testLogger(),
	)
}

// generateUserToken генерирует JWT пользователя Keycloak.
func generateUserToken(t *testing.T, key *rsa.PrivateKey, sub, username, email string, roles, groups []string, expired bool) string {
	t.Helper()

	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}

	claims := jwt.MapClaims{
		"sub":                sub,
		"preferred_username": username,
		"email":              email,
		"iss":                testIssuer,
		"exp":                jwt.NewNumericDate(exp),
		"nbf":                jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		"iat":                jwt.NewNumericDate(time.Now()),
	}

	if len(roles) > 0 {
		claims["realm_access"] = map[string]any{
			"roles": roles,
		}
	}
	if len(groups) > 0 {
		claims["groups"] = groups
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return tokenStr
}

// doRequest выполняет запрос через middleware с указанным токеном.
func doRequest(auth *JWTAuth, token string, capture **AuthClaims) *httptest.ResponseRecorder {
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			*capture = ClaimsFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/protocolos", http.NoBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// --- Тесты JWT Middleware ---

func TestJWTAuth_ValidToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	var claims *AuthClaims
	token := generateUserToken(t, key, "user-123", "maria.silva", "maria@crea-to.org.br",
		nil, []string{"crea-admins"}, false)
	rec := doRequest(auth, token, &claims)

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if claims == nil {
		t.Fatal("claims не найдены в контексте")
	}
	if claims.Subject != "user-123" {
		t.Errorf("Subject = %q, ожидается user-123", claims.Subject)
	}
	if claims.PreferredUsername != "maria.silva" {
		t.Errorf("PreferredUsername = %q, ожидается maria.silva", claims.PreferredUsername)
	}
	if claims.Email != "maria@crea-to.org.br" {
		t.Errorf("Email = %q, ожидается maria@crea-to.org.br", claims.Email)
	}
	if claims.IdpRole != rbac.RoleAdmin {
		t.Errorf("IdpRole = %q, ожидается admin", claims.IdpRole)
	}
	if claims.EffectiveRole != rbac.RoleAdmin {
		t.Errorf("EffectiveRole = %q, ожидается admin", claims.EffectiveRole)
	}
}

// TestJWTAuth_GroupMapping — маппинг каждой группы IdP в соответствующую роль.
func TestJWTAuth_GroupMapping(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	tests := []struct {
		group string
		role  string
	}{
		{"crea-admins", rbac.RoleAdmin},
		{"crea-publishers", rbac.RolePublisher},
		{"crea-editors", rbac.RoleEditor},
		{"crea-viewers", rbac.RoleViewer},
	}

	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			var claims *AuthClaims
			token := generateUserToken(t, key, "user-1", "u", "u@test", nil, []string{tt.group}, false)
			rec := doRequest(auth, token, &claims)

			if rec.Code != http.StatusOK {
				t.Fatalf("статус = %d, ожидается 200", rec.Code)
			}
			if claims.EffectiveRole != tt.role {
				t.Errorf("EffectiveRole = %q, ожидается %q", claims.EffectiveRole, tt.role)
			}
		})
	}
}

// TestJWTAuth_MultipleGroups — при нескольких группах берётся наивысшая роль.
func TestJWTAuth_MultipleGroups(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	var claims *AuthClaims
	token := generateUserToken(t, key, "user-1", "u", "u@test",
		nil, []string{"crea-viewers", "crea-publishers", "irrelevante"}, false)
	doRequest(auth, token, &claims)

	if claims.EffectiveRole != rbac.RolePublisher {
		t.Errorf("EffectiveRole = %q, ожидается publisher", claims.EffectiveRole)
	}
}

// TestJWTAuth_RealmRolesFallback — роль из realm_access.roles, если группы не заданы.
func TestJWTAuth_RealmRolesFallback(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	var claims *AuthClaims
	token := generateUserToken(t, key, "user-1", "u", "u@test",
		[]string{"offline_access", "editor"}, nil, false)
	doRequest(auth, token, &claims)

	if claims.IdpRole != rbac.RoleEditor {
		t.Errorf("IdpRole = %q, ожидается editor", claims.IdpRole)
	}
}

// TestJWTAuth_NoRole — пользователь без групп и ролей получает пустую effective role.
func TestJWTAuth_NoRole(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	var claims *AuthClaims
	token := generateUserToken(t, key, "user-1", "u", "u@test", nil, nil, false)
	rec := doRequest(auth, token, &claims)

	// Аутентификация проходит, авторизацию решает RequireRole
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if claims.EffectiveRole != "" {
		t.Errorf("EffectiveRole = %q, ожидается пустая", claims.EffectiveRole)
	}
}

// TestJWTAuth_RoleOverrideRaises — override из БД повышает роль.
func TestJWTAuth_RoleOverrideRaises(t *testing.T) {
	key := generateTestKey(t)
	publisher := rbac.RolePublisher
	provider := &mockRoleProvider{overrides: map[string]*string{
		"user-1": &publisher,
	}}
	auth := newTestJWTAuth(t, key, provider)

	var claims *AuthClaims
	token := generateUserToken(t, key, "user-1", "u", "u@test", nil, []string{"crea-viewers"}, false)
	doRequest(auth, token, &claims)

	if claims.IdpRole != rbac.RoleViewer {
		t.Errorf("IdpRole = %q, ожидается viewer", claims.IdpRole)
	}
	if claims.EffectiveRole != rbac.RolePublisher {
		t.Errorf("EffectiveRole = %q, ожидается publisher (override)", claims.EffectiveRole)
	}
}

// TestJWTAuth_RoleOverrideNeverLowers — override ниже роли IdP игнорируется.
func TestJWTAuth_RoleOverrideNeverLowers(t *testing.T) {
	key := generateTestKey(t)
	viewer := rbac.RoleViewer
	provider := &mockRoleProvider{overrides: map[string]*string{
		"user-1": &viewer,
	}}
	auth := newTestJWTAuth(t, key, provider)

	var claims *AuthClaims
	token := generateUserToken(t, key, "user-1", "u", "u@test", nil, []string{"crea-admins"}, false)
	doRequest(auth, token, &claims)

	if claims.EffectiveRole != rbac.RoleAdmin {
		t.Errorf("EffectiveRole = %q, ожидается admin (override не понижает)", claims.EffectiveRole)
	}
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	rec := doRequest(auth, "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидается 401", rec.Code)
	}
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/protocolos", http.NoBody)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидается 401", rec.Code)
	}
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	token := generateUserToken(t, key, "user-1", "u", "u@test", nil, []string{"crea-admins"}, true)
	rec := doRequest(auth, token, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидается 401 для просроченного токена", rec.Code)
	}
}

// TestJWTAuth_InvalidSignature — токен, подписанный чужим ключом.
func TestJWTAuth_InvalidSignature(t *testing.T) {
	key := generateTestKey(t)
	otherKey := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	token := generateUserToken(t, otherKey, "user-1", "u", "u@test", nil, []string{"crea-admins"}, false)
	rec := doRequest(auth, token, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидается 401 для невалидной подписи", rec.Code)
	}
}

// TestJWTAuth_WrongIssuer — токен с другим issuer отклоняется.
func TestJWTAuth_WrongIssuer(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	claims := jwt.MapClaims{
		"sub": "user-1",
		"iss": "https://evil.example.com/realms/crea-to",
		"exp": jwt.NewNumericDate(time.Now().Add(time.Hour)),
		"iat": jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}

	rec := doRequest(auth, tokenStr, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидается 401 для чужого issuer", rec.Code)
	}
}

// --- Тесты RequireRole ---

func TestRequireRole(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key, nil)

	tests := []struct {
		name    string
		group   string
		minimum string
		want    int
	}{
		{"viewer читает с минимумом viewer", "crea-viewers", rbac.RoleViewer, http.StatusOK},
		{"viewer не пишет с минимумом editor", "crea-viewers", rbac.RoleEditor, http.StatusForbidden},
		{"editor пишет с минимумом editor", "crea-editors", rbac.RoleEditor, http.StatusOK},
		{"editor не отправляет с минимумом publisher", "crea-editors", rbac.RolePublisher, http.StatusForbidden},
		{"publisher отправляет с минимумом publisher", "crea-publishers", rbac.RolePublisher, http.StatusOK},
		{"publisher не администрирует", "crea-publishers", rbac.RoleAdmin, http.StatusForbidden},
		{"admin проходит любой минимум", "crea-admins", rbac.RoleViewer, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := auth.Middleware()(RequireRole(tt.minimum)(
				http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusOK)
				}),
			))

			token := generateUserToken(t, key, "user-1", "u", "u@test", nil, []string{tt.group}, false)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/protocolos", http.NoBody)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.want)
			}
		})
	}
}

// TestRequireRole_NoClaims — RequireRole без предшествующего JWT middleware.
func TestRequireRole_NoClaims(t *testing.T) {
	handler := RequireRole(rbac.RoleViewer)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/protocolos", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидается 401 без claims", rec.Code)
	}
}

// --- Тесты context helpers ---

func TestContextHelpers(t *testing.T) {
	claims := &AuthClaims{
		Subject:       "user-42",
		EffectiveRole: rbac.RoleEditor,
	}
	ctx := context.WithValue(context.Background(), ContextKeyClaims, claims)

	if got := SubjectFromContext(ctx); got != "user-42" {
		t.Errorf("SubjectFromContext = %q, ожидается user-42", got)
	}
	if got := EffectiveRoleFromContext(ctx); got != rbac.RoleEditor {
		t.Errorf("EffectiveRoleFromContext = %q, ожидается editor", got)
	}

	empty := context.Background()
	if got := SubjectFromContext(empty); got != "" {
		t.Errorf("SubjectFromContext(пустой ctx) = %q, ожидается пустая строка", got)
	}
	if ClaimsFromContext(empty) != nil {
		t.Error("ClaimsFromContext(пустой ctx) != nil")
	}
}

func TestAuthClaims_AtLeast(t *testing.T) {
	claims := &AuthClaims{EffectiveRole: rbac.RolePublisher}

	if !claims.AtLeast(rbac.RoleEditor) {
		t.Error("publisher.AtLeast(editor) = false")
	}
	if !claims.AtLeast(rbac.RolePublisher) {
		t.Error("publisher.AtLeast(publisher) = false")
	}
	if claims.AtLeast(rbac.RoleAdmin) {
		t.Error("publisher.AtLeast(admin) = true")
	}
}
