package jwt

import (
	"time"
)

// Maker выпускает и проверяет токены операторов на основе
// секретного ключа и времени жизни токена.
type Maker struct {
	secretKey string        // Секретный ключ подписи
	tokenTTL  time.Duration // Время жизни токена
}

// NewMaker создаёт Maker с заданным ключом и TTL.
func NewMaker(secretKey string, ttl time.Duration) *Maker {
	return &Maker{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
