// Package webapp валидирует init data Telegram Web App.
package webapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

var (
	// ErrInvalidInitData возвращается при неверной подписи или формате init data
	ErrInvalidInitData = errors.New("invalid init data")
	// ErrNoUser возвращается, когда init data не содержит поля user
	ErrNoUser = errors.New("init data has no user field")
)

// User представляет пользователя Telegram из init data
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate проверяет подпись init data и возвращает пользователя.
// Строка проверки собирается из пар key=value, отсортированных по ключу,
// без поля hash; ключ подписи — HMAC-SHA256 от токена бота с ключом
// "WebAppData".
func Validate(initData, botToken string) (*User, error) {
	if botToken == "" {
		return nil, ErrInvalidInitData
	}

	pairs := map[string]string{}
	for _, param := range strings.Split(initData, "&") {
		key, value, found := strings.Cut(param, "=")
		if !found {
			continue
		}
		pairs[key] = value
	}

	receivedHash, ok := pairs["hash"]
	if !ok || receivedHash == "" {
		return nil, ErrInvalidInitData
	}
	delete(pairs, "hash")

	keys := make([]string, 0, len(pairs))
	for key := range pairs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+pairs[key])
	}
	dataCheckString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	calculated := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(calculated), []byte(receivedHash)) {
		return nil, ErrInvalidInitData
	}

	rawUser, ok := pairs["user"]
	if !ok {
		return nil, ErrNoUser
	}

	decoded, err := url.QueryUnescape(rawUser)
	if err != nil {
		return nil, fmt.Errorf("decode user field: %w", err)
	}

	var user User
	if err := json.Unmarshal([]byte(decoded), &user); err != nil {
		return nil, fmt.Errorf("parse user field: %w", err)
	}
	if user.ID == 0 {
		return nil, ErrNoUser
	}
	return &user, nil
}
