package security

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenIssuer は推測不能な不透明トークンを発行する戦略インターフェース。
// トークンの暗号強度はこのインターフェースの背後で差し替え可能。
type TokenIssuer interface {
	// NewToken は新しい不透明トークン文字列を発行する。
	NewToken() (string, error)
}

// randomTokenIssuer は暗号乱数によるTokenIssuerの実装。
type randomTokenIssuer struct{}

// NewRandomTokenIssuer は32バイトの暗号乱数をhexエンコードした
// トークンを発行するTokenIssuerを生成する。
func NewRandomTokenIssuer() *randomTokenIssuer {
	return &randomTokenIssuer{}
}

// NewToken は新しい不透明トークン文字列を発行する。
func (i *randomTokenIssuer) NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
