package security

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher はパスワードのハッシュ化と照合の戦略インターフェース。
// ハッシュ方式はこのインターフェースの背後で差し替え可能。
type PasswordHasher interface {
	// Hash は平文パスワードのハッシュを生成する。
	Hash(password string) (string, error)
	// Compare はハッシュと平文パスワードを照合する。一致すればtrueを返す。
	Compare(hash, password string) bool
}

// bcryptHasher はbcryptによるPasswordHasherの実装。
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher はデフォルトコストのbcryptHasherを生成する。
func NewBcryptHasher() *bcryptHasher {
	return &bcryptHasher{cost: bcrypt.DefaultCost}
}

// Hash は平文パスワードのbcryptハッシュを生成する。
func (h *bcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare はハッシュと平文パスワードを照合する。
func (h *bcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
