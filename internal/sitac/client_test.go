package sitac

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockSITAC поднимает httptest-сервер, имитирующий вебсервисы SITAC.
type mockSITAC struct {
	server *httptest.Server

	loginStatus   int
	loginToken    TokenData
	refreshStatus int
	refreshToken  TokenData
	submitStatus  int
	submitBody    string

	loginCalls   int
	refreshCalls int
	submitCalls  int
	lastAuth     string
	lastPayload  []byte
}

func newMockSITAC(t *testing.T) *mockSITAC {
	t.Helper()
	m := &mockSITAC{
		loginStatus:   http.StatusOK,
		loginToken:    TokenData{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 1800},
		refreshStatus: http.StatusOK,
		refreshToken:  TokenData{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 1800},
		submitStatus:  http.StatusOK,
		submitBody:    `{"protocolo":"SIT-9001"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		m.loginCalls++
		m.lastAuth = r.Header.Get("Authorization")
		if m.loginStatus != http.StatusOK {
			w.WriteHeader(m.loginStatus)
			return
		}
		json.NewEncoder(w).Encode(m.loginToken)
	})
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		m.refreshCalls++
		m.lastAuth = r.Header.Get("Authorization")
		if m.refreshStatus != http.StatusOK {
			w.WriteHeader(m.refreshStatus)
			return
		}
		json.NewEncoder(w).Encode(m.refreshToken)
	})
	mux.HandleFunc("POST /protocolo/saveProtocolo", func(w http.ResponseWriter, r *http.Request) {
		m.submitCalls++
		m.lastAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		m.lastPayload = body
		w.WriteHeader(m.submitStatus)
		w.Write([]byte(m.submitBody))
	})

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockSITAC) client() *Client {
	return New(m.server.URL, "crea-to", "secret", nil, testLogger())
}

func TestLogin_Success(t *testing.T) {
	mock := newMockSITAC(t)
	client := mock.client()

	ok, token := client.Login(context.Background())
	if !ok {
		t.Fatal("Login() = false, ожидается true")
	}
	if token.AccessToken != "access-1" || token.RefreshToken != "refresh-1" {
		t.Errorf("Login() токены = %+v", token)
	}

	// Токен закэширован
	cached, valid := client.cache.Get()
	if !valid || cached.AccessToken != "access-1" {
		t.Error("Login() не закэшировал токен")
	}
}

func TestLogin_Forbidden(t *testing.T) {
	mock := newMockSITAC(t)
	mock.loginStatus = http.StatusForbidden
	client := mock.client()

	ok, token := client.Login(context.Background())
	if ok || token != nil {
		t.Errorf("Login() при 403 = (%v, %v), ожидается (false, nil)", ok, token)
	}
}

func TestLogin_ServerError(t *testing.T) {
	mock := newMockSITAC(t)
	mock.loginStatus = http.StatusInternalServerError
	client := mock.client()

	ok, _ := client.Login(context.Background())
	if ok {
		t.Error("Login() при 500 = true, ожидается false")
	}
}

func TestLogin_DefaultExpiresIn(t *testing.T) {
	mock := newMockSITAC(t)
	mock.loginToken = TokenData{AccessToken: "access-1"}
	client := mock.client()

	ok, token := client.Login(context.Background())
	if !ok {
		t.Fatal("Login() = false, ожидается true")
	}
	if token.ExpiresIn != 1800 {
		t.Errorf("ExpiresIn = %d, ожидается 1800 по умолчанию", token.ExpiresIn)
	}
}

func TestRefreshToken_Success(t *testing.T) {
	mock := newMockSITAC(t)
	client := mock.client()

	ok, token := client.RefreshToken(context.Background(), "refresh-1")
	if !ok {
		t.Fatal("RefreshToken() = false, ожидается true")
	}
	if token.AccessToken != "access-2" {
		t.Errorf("AccessToken = %q, ожидается access-2", token.AccessToken)
	}
	if mock.lastAuth != "Bearer refresh-1" {
		t.Errorf("Authorization = %q, ожидается Bearer refresh-1", mock.lastAuth)
	}

	// Кэш перезаписан новыми токенами
	cached, valid := client.cache.Get()
	if !valid || cached.AccessToken != "access-2" {
		t.Error("RefreshToken() не перезаписал кэш")
	}
}

func TestGetValidToken_FromCache(t *testing.T) {
	mock := newMockSITAC(t)
	client := mock.client()
	client.cache.Set(&TokenData{AccessToken: "cached"}, time.Minute)

	token, ok := client.GetValidToken(context.Background())
	if !ok || token != "cached" {
		t.Errorf("GetValidToken() = (%q, %v), ожидается кэшированный токен", token, ok)
	}
	if mock.loginCalls != 0 || mock.refreshCalls != 0 {
		t.Error("GetValidToken() с валидным кэшем не должен ходить в сеть")
	}
}

func TestGetValidToken_RefreshExpired(t *testing.T) {
	mock := newMockSITAC(t)
	client := mock.client()
	// Истёкшая запись с refresh token
	client.cache.Set(&TokenData{AccessToken: "старый", RefreshToken: "refresh-1"}, -time.Second)

	token, ok := client.GetValidToken(context.Background())
	if !ok || token != "access-2" {
		t.Errorf("GetValidToken() = (%q, %v), ожидается токен из refresh", token, ok)
	}
	if mock.refreshCalls != 1 {
		t.Errorf("refreshCalls = %d, ожидается 1", mock.refreshCalls)
	}
	if mock.loginCalls != 0 {
		t.Error("при успешном refresh логин не выполняется")
	}
}

func TestGetValidToken_FallbackToLogin(t *testing.T) {
	mock := newMockSITAC(t)
	mock.refreshStatus = http.StatusUnauthorized
	client := mock.client()
	client.cache.Set(&TokenData{AccessToken: "старый", RefreshToken: "протух"}, -time.Second)

	token, ok := client.GetValidToken(context.Background())
	if !ok || token != "access-1" {
		t.Errorf("GetValidToken() = (%q, %v), ожидается токен из логина", token, ok)
	}
	if mock.refreshCalls != 1 || mock.loginCalls != 1 {
		t.Errorf("вызовы: refresh=%d login=%d, ожидается по одному", mock.refreshCalls, mock.loginCalls)
	}
}

func TestGetValidToken_AllFail(t *testing.T) {
	mock := newMockSITAC(t)
	mock.loginStatus = http.StatusForbidden
	client := mock.client()

	token, ok := client.GetValidToken(context.Background())
	if ok || token != "" {
		t.Errorf("GetValidToken() = (%q, %v), ожидается (\"\", false)", token, ok)
	}
}

func TestSubmitProtocolo_Success(t *testing.T) {
	mock := newMockSITAC(t)
	client := mock.client()

	payload := &ProtocoloPayload{
		Interessados: []Interessado{{TipoPessoa: "profissional", CPFCNPJ: "06424593110"}},
		Assunto:      "COD04",
	}

	ok, resp := client.SubmitProtocolo(context.Background(), payload)
	if !ok {
		t.Fatal("SubmitProtocolo() = false, ожидается true")
	}

	numero, present := resp.NumeroProtocolo()
	if !present || numero != "SIT-9001" {
		t.Errorf("NumeroProtocolo() = (%q, %v), ожидается SIT-9001", numero, present)
	}
	if mock.submitCalls != 1 {
		t.Errorf("submitCalls = %d, ожидается 1 (без повторов)", mock.submitCalls)
	}
}

func TestSubmitProtocolo_ServerError(t *testing.T) {
	mock := newMockSITAC(t)
	mock.submitStatus = http.StatusInternalServerError
	mock.submitBody = `{"erro":"interno"}`
	client := mock.client()

	ok, resp := client.SubmitProtocolo(context.Background(), &ProtocoloPayload{})
	if ok || resp != nil {
		t.Errorf("SubmitProtocolo() при 500 = (%v, %v), ожидается (false, nil)", ok, resp)
	}
	if mock.submitCalls != 1 {
		t.Errorf("submitCalls = %d, ожидается ровно одна попытка", mock.submitCalls)
	}
}

func TestSubmitProtocolo_ValidationError(t *testing.T) {
	mock := newMockSITAC(t)
	mock.submitStatus = http.StatusUnprocessableEntity
	mock.submitBody = `{"erros":{"cpfcnpj":"inválido"}}`
	client := mock.client()

	ok, resp := client.SubmitProtocolo(context.Background(), &ProtocoloPayload{})
	if ok || resp != nil {
		t.Errorf("SubmitProtocolo() при 422 = (%v, %v), ожидается (false, nil)", ok, resp)
	}
}

func TestSubmitProtocolo_NoToken(t *testing.T) {
	mock := newMockSITAC(t)
	mock.loginStatus = http.StatusForbidden
	client := mock.client()

	ok, _ := client.SubmitProtocolo(context.Background(), &ProtocoloPayload{})
	if ok {
		t.Error("SubmitProtocolo() без токена = true, ожидается false")
	}
	if mock.submitCalls != 0 {
		t.Error("без токена запрос saveProtocolo не выполняется")
	}
}

func TestSubmitProtocolo_MissingProtocoloField(t *testing.T) {
	mock := newMockSITAC(t)
	mock.submitBody = `{"status":"ok"}`
	client := mock.client()

	ok, resp := client.SubmitProtocolo(context.Background(), &ProtocoloPayload{})
	if !ok {
		t.Fatal("SubmitProtocolo() = false, ожидается true (транспортный успех)")
	}
	if _, present := resp.NumeroProtocolo(); present {
		t.Error("NumeroProtocolo() = present при отсутствующем поле protocolo")
	}
}

func TestConfigured(t *testing.T) {
	logger := testLogger()
	if New("http://x", "", "", nil, logger).Configured() {
		t.Error("Configured() без credentials = true")
	}
	if !New("http://x", "user", "pass", nil, logger).Configured() {
		t.Error("Configured() с credentials = false")
	}
}
