// Пакет sitac — клиент вебсервисов SITAC (внешняя система делопроизводства CREA-TO).
// Реализует логин по HTTP Basic, обновление токена, кэширование access token
// (TTL = expires_in - 60s) и отправку протоколов (POST protocolo/saveProtocolo).
// Все исходы нормализованы к булевым значениям: сбой SITAC никогда не
// останавливает вызывающий код, диагностика уходит в логи.
package sitac

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// defaultExpiresIn — срок жизни токена в секундах, если SITAC его не сообщил.
const defaultExpiresIn = 1800

// tokenSafetyMargin — запас до истечения токена при вычислении TTL кэша.
const tokenSafetyMargin = 60 * time.Second

// Client — HTTP-клиент вебсервисов SITAC.
type Client struct {
	baseURL  string // Базовый URL вебсервисов (без trailing slash)
	username string // Логин HTTP Basic
	password string // Пароль HTTP Basic

	httpClient *http.Client
	cache      TokenCache
	logger     *slog.Logger
}

// New создаёт клиент SITAC.
// baseURL — базовый URL вебсервисов (например, https://crea-to.sitac.com.br/app/webservices).
// username, password — credentials HTTP Basic; обе строки пустые — клиент не сконфигурирован.
// cache — хранилище токенов (nil — новый кэш в памяти).
func New(baseURL, username, password string, cache TokenCache, logger *slog.Logger) *Client {
	if cache == nil {
		cache = NewMemoryTokenCache()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
		logger:     logger.With(slog.String("component", "sitac_client")),
	}
}

// Configured возвращает true, если заданы credentials SITAC.
func (c *Client) Configured() bool {
	return c.username != "" && c.password != ""
}

// Login выполняет вход по HTTP Basic (POST {base}/auth/login).
// При успехе кэширует токены с TTL = expires_in - 60s и возвращает (true, токены).
// 403 — отдельная запись в логе о неверных credentials. Любой другой сбой
// также нормализуется к (false, nil).
func (c *Client) Login(ctx context.Context) (bool, *TokenData) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", nil)
	if err != nil {
		c.logger.Error("Ошибка создания запроса логина SITAC", slog.String("error", err.Error()))
		return false, nil
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Ошибка соединения при логине SITAC", slog.String("error", err.Error()))
		return false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		c.logger.Error("SITAC отклонил credentials (403): проверьте логин и пароль")
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Ошибка логина SITAC",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return false, nil
	}

	token, ok := c.decodeToken(resp.Body, "логина")
	if !ok {
		return false, nil
	}

	c.cacheToken(token)
	c.logger.Info("Логин SITAC выполнен", slog.Int("expires_in", token.ExpiresIn))
	return true, token
}

// RefreshToken обновляет access token по refresh token
// (POST {base}/auth/refresh-token с Bearer-заголовком).
// При успехе перезаписывает кэш новыми токенами.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (bool, *TokenData) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh-token", nil)
	if err != nil {
		c.logger.Error("Ошибка создания запроса обновления токена SITAC", slog.String("error", err.Error()))
		return false, nil
	}
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Ошибка соединения при обновлении токена SITAC", slog.String("error", err.Error()))
		return false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("Ошибка обновления токена SITAC",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return false, nil
	}

	token, ok := c.decodeToken(resp.Body, "обновления токена")
	if !ok {
		return false, nil
	}

	c.cacheToken(token)
	c.logger.Debug("Токен SITAC обновлён", slog.Int("expires_in", token.ExpiresIn))
	return true, token
}

// GetValidToken возвращает действительный access token.
// Порядок: кэшированный токен; обновление по refresh token; полный логин.
// Все пути получения credentials проходят через эту функцию.
func (c *Client) GetValidToken(ctx context.Context) (string, bool) {
	token, valid := c.cache.Get()
	if valid && token.AccessToken != "" {
		return token.AccessToken, true
	}

	// Срок access token истёк, но refresh token мог остаться рабочим
	if token != nil && token.RefreshToken != "" {
		if ok, refreshed := c.RefreshToken(ctx, token.RefreshToken); ok {
			return refreshed.AccessToken, true
		}
	}

	if ok, token := c.Login(ctx); ok {
		return token.AccessToken, true
	}

	return "", false
}

// SubmitProtocolo отправляет протокол в SITAC (POST {base}/protocolo/saveProtocolo).
// Единственная попытка, без повторов. Без валидного токена запрос не выполняется.
// 4xx/5xx логируются вместе с payload и телом ответа для разбора вручную.
func (c *Client) SubmitProtocolo(ctx context.Context, payload *ProtocoloPayload) (bool, SaveProtocoloResponse) {
	token, ok := c.GetValidToken(ctx)
	if !ok {
		c.logger.Error("Отправка протокола в SITAC невозможна: нет действительного токена")
		return false, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("Ошибка сериализации payload SITAC", slog.String("error", err.Error()))
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/protocolo/saveProtocolo", bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Ошибка создания запроса saveProtocolo", slog.String("error", err.Error()))
		return false, nil
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Ошибка соединения при отправке протокола в SITAC",
			slog.String("error", err.Error()),
			slog.String("payload", string(body)),
		)
		return false, nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("SITAC отклонил протокол",
			slog.Int("status", resp.StatusCode),
			slog.String("payload", string(body)),
			slog.String("response", string(respBody)),
		)
		return false, nil
	}

	var decoded SaveProtocoloResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		c.logger.Error("Ошибка декодирования ответа saveProtocolo",
			slog.String("error", err.Error()),
			slog.String("response", string(respBody)),
		)
		return false, nil
	}

	return true, decoded
}

// decodeToken читает TokenData из тела ответа.
func (c *Client) decodeToken(r io.Reader, operacao string) (*TokenData, bool) {
	var token TokenData
	if err := json.NewDecoder(r).Decode(&token); err != nil {
		c.logger.Error("Ошибка декодирования ответа "+operacao+" SITAC",
			slog.String("error", err.Error()))
		return nil, false
	}
	if token.AccessToken == "" {
		c.logger.Error("Ответ " + operacao + " SITAC не содержит access_token")
		return nil, false
	}
	if token.ExpiresIn == 0 {
		token.ExpiresIn = defaultExpiresIn
	}
	return &token, true
}

// cacheToken сохраняет токены с запасом в 60 секунд до истечения.
func (c *Client) cacheToken(token *TokenData) {
	ttl := time.Duration(token.ExpiresIn)*time.Second - tokenSafetyMargin
	c.cache.Set(token, ttl)
}
