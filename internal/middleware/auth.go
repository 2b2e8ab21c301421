// Package middleware содержит HTTP middleware симулятора кассы.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const gameIDKey contextKey = "gameID"

const (
	gameCookieName = "game_token"
	gameCookieTTL  = 24 * time.Hour
)

// AuthMiddleware привязывает запросы к игре по подписанному cookie.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
// Пустой ключ заменяется случайным: cookie тогда действуют до перезапуска.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
	}
}

// Middleware проверяет cookie игры и добавляет идентификатор игры в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(gameCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		gameID, ok := a.parseCookie(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), gameIDKey, gameID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetGameCookie устанавливает cookie для указанной игры.
func (a *AuthMiddleware) SetGameCookie(w http.ResponseWriter, gameID string) {
	cookie := &http.Cookie{
		Name:     gameCookieName,
		Value:    gameID + "." + a.sign(gameID),
		Path:     "/",
		Expires:  time.Now().Add(gameCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (a *AuthMiddleware) sign(gameID string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(gameID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *AuthMiddleware) parseCookie(cookieValue string) (string, bool) {
	i := strings.LastIndexByte(cookieValue, '.')
	if i <= 0 {
		return "", false
	}

	gameID, signature := cookieValue[:i], cookieValue[i+1:]
	if !hmac.Equal([]byte(signature), []byte(a.sign(gameID))) {
		return "", false
	}
	return gameID, true
}

// GetGameIDFromContext извлекает идентификатор игры из контекста запроса.
func GetGameIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(gameIDKey).(string)
	return id, ok && id != ""
}
