// Package auth はユーザー登録・ログイン・セッション管理のドメインロジックを提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/shopguard/internal/model"
	"github.com/hitoshi/shopguard/internal/repository"
	"github.com/hitoshi/shopguard/internal/security"
)

// emailPattern はメールアドレスの形式チェック。
// 厳密なRFC準拠ではなく「ローカル部@ドメイン部.TLD」の粗い形式を要求する。
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// digitPattern はパスワードの数字要件チェック。
var digitPattern = regexp.MustCompile(`[0-9]`)

const (
	usernameMinLen = 3
	usernameMaxLen = 30
	passwordMinLen = 6
)

// Service は認証・ユーザー管理のサービス層。
type Service struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	hasher security.PasswordHasher
	issuer security.TokenIssuer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	hasher security.PasswordHasher,
	issuer security.TokenIssuer,
) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		issuer: issuer,
	}
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register は新規ユーザーを登録し、アクセストークンを発行する。
// バリデーションは全フィールドを検査してからまとめてエラーを返す。
// メールアドレスの重複は大文字小文字を区別せずに判定する。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.SafeUser, string, error) {
	if fields := validateRegisterInput(input); len(fields) > 0 {
		return nil, "", model.NewValidationError(fields)
	}

	existing, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, "", fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, "", model.NewEmailTakenError()
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(input.Username),
		Email:        input.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user.SafeView(), token, nil
}

// Login はメールアドレスとパスワードで認証し、アクセストークンを発行する。
// 未知のメールアドレスとパスワード不一致は同一のエラーを返す
// （アカウントの存在を推測させない）。
func (s *Service) Login(ctx context.Context, email, password string) (*model.SafeUser, string, error) {
	if email == "" || password == "" {
		return nil, "", model.NewInvalidCredentialsError()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil || !s.hasher.Compare(user.PasswordHash, password) {
		return nil, "", model.NewInvalidCredentialsError()
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	slog.Info("ログインしました", slog.String("user_id", user.ID))

	return user.SafeView(), token, nil
}

// Logout は提示されたトークンを失効させる。
// 既に失効済みのトークンでもエラーにしない（冪等）。
func (s *Service) Logout(ctx context.Context, tokenValue string) error {
	if err := s.tokens.Revoke(ctx, tokenValue); err != nil {
		return fmt.Errorf("トークンの失効に失敗しました: %w", err)
	}
	return nil
}

// Profile は指定ユーザーの公開プロフィールを返す。
func (s *Service) Profile(ctx context.Context, userID string) (*model.SafeUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user.SafeView(), nil
}

// ListUsers は全ユーザーの公開ビューを返す。管理者専用。
func (s *Service) ListUsers(ctx context.Context) ([]*model.SafeUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}

	safe := make([]*model.SafeUser, 0, len(users))
	for _, u := range users {
		safe = append(safe, u.SafeView())
	}
	return safe, nil
}

// DeleteUser は指定ユーザーを削除する。管理者専用。
// 削除前に当該ユーザーの全アクセストークンを失効させる。
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("トークンの失効に失敗しました: %w", err)
	}

	deleted, err := s.users.DeleteByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewUserNotFoundError()
	}

	slog.Info("ユーザーを削除しました", slog.String("user_id", userID))

	return nil
}

// UpdateRole は指定ユーザーのロールを変更する。管理者専用。
func (s *Service) UpdateRole(ctx context.Context, userID string, role model.Role) (*model.SafeUser, error) {
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, model.NewValidationError([]model.FieldDetail{
			{Field: "role", Message: "roleは user または admin を指定してください。"},
		})
	}

	user, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("ロールを変更しました",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)

	return user.SafeView(), nil
}

// issueToken は新しいアクセストークンを発行して保存する。
func (s *Service) issueToken(ctx context.Context, userID string) (string, error) {
	value, err := s.issuer.NewToken()
	if err != nil {
		return "", fmt.Errorf("トークンの生成に失敗しました: %w", err)
	}

	token := &model.AccessToken{
		Value:    value,
		UserID:   userID,
		IssuedAt: time.Now(),
	}
	if err := s.tokens.Issue(ctx, token); err != nil {
		return "", fmt.Errorf("トークンの保存に失敗しました: %w", err)
	}
	return value, nil
}

// validateRegisterInput は登録入力を検査し、フィールド別のエラー詳細を返す。
func validateRegisterInput(input RegisterInput) []model.FieldDetail {
	var fields []model.FieldDetail

	username := strings.TrimSpace(input.Username)
	if n := utf8.RuneCountInString(username); n < usernameMinLen || n > usernameMaxLen {
		fields = append(fields, model.FieldDetail{
			Field:   "username",
			Message: fmt.Sprintf("ユーザー名は%d文字以上%d文字以下で入力してください。", usernameMinLen, usernameMaxLen),
		})
	}

	if !emailPattern.MatchString(input.Email) {
		fields = append(fields, model.FieldDetail{
			Field:   "email",
			Message: "有効なメールアドレスを入力してください。",
		})
	}

	if len(input.Password) < passwordMinLen {
		fields = append(fields, model.FieldDetail{
			Field:   "password",
			Message: fmt.Sprintf("パスワードは%d文字以上で入力してください。", passwordMinLen),
		})
	} else if !digitPattern.MatchString(input.Password) {
		fields = append(fields, model.FieldDetail{
			Field:   "password",
			Message: "パスワードには数字を1文字以上含めてください。",
		})
	}

	return fields
}
