package services

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"finanzas/internal/auth"
	"finanzas/internal/core"
	"finanzas/internal/query"
	"finanzas/internal/storage"
)

// UserService covers account lifecycle, authentication and the user-facing
// queries that are not element operations.
type UserService struct {
	repo   *storage.Repository
	tokens *auth.TokenManager

	// When email verification is disabled, accounts are born verified.
	emailVerification bool
}

func NewUserService(repo *storage.Repository, tokens *auth.TokenManager, emailVerification bool) *UserService {
	return &UserService{repo: repo, tokens: tokens, emailVerification: emailVerification}
}

// SignupPayload is the registration body.
type SignupPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// UpdateProfilePayload is the profile-update body. All fields are required.
type UpdateProfilePayload struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Email          string `json:"email"`
	IsMoneyVisible *bool  `json:"is_money_visible"`
}

// TokenPair is the login result.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserRecord is the wire projection of a user.
type UserRecord struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"created_on"`
	UpdatedAt      time.Time `json:"last_updated_on"`
	LastLogin      time.Time `json:"last_login"`
	IsAdmin        bool      `json:"is_admin"`
	IsVerified     bool      `json:"is_verified"`
	IsMoneyVisible bool      `json:"is_money_visible"`
}

func toUserRecord(u core.User) UserRecord {
	return UserRecord{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
		LastLogin:      u.LastLogin,
		IsAdmin:        u.IsAdmin,
		IsVerified:     u.IsVerified,
		IsMoneyVisible: u.IsMoneyVisible,
	}
}

// Signup registers a new account. The boolean result reports whether the
// username was already taken (which is answered 202, not an error).
func (s *UserService) Signup(ctx context.Context, payload SignupPayload) (*core.User, bool, error) {
	if payload.Username == "" || payload.Password == "" || payload.Email == "" {
		return nil, false, core.ErrValidation("one or more required fields are empty")
	}

	existing, err := s.repo.GetUserByUsername(ctx, payload.Username)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return nil, true, nil
	}

	if len(payload.Username) > core.UsernameCharLimit || len(payload.Email) > core.EmailCharLimit {
		return nil, false, core.ErrValidation("one or more fields exceed the maximum allowed characters")
	}
	if !core.ValidEmail(payload.Email) {
		return nil, false, core.ErrValidation("invalid email")
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		return nil, false, err
	}

	user := core.User{
		Username:     payload.Username,
		PasswordHash: hash,
		Email:        payload.Email,
		// With verification disabled, accounts are usable immediately.
		IsVerified:     !s.emailVerification,
		IsMoneyVisible: true,
	}

	if _, err := s.repo.CreateUser(ctx, &user); err != nil {
		return nil, false, err
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "verified", user.IsVerified)
	return &user, false, nil
}

// Login verifies credentials and issues the token pair. Unknown usernames
// and wrong passwords answer identically.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if username == "" || password == "" {
		return nil, core.ErrValidation("one or more required fields are empty")
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, core.ErrUnauthorized("invalid username or password")
	}
	if !user.IsVerified {
		return nil, core.ErrForbidden("user is not verified")
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, core.ErrUnauthorized("invalid username or password")
	}

	access, err := s.tokens.AccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.RefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to update last login", "error", err, "user_id", user.ID)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *UserService) Refresh(refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", core.ErrUnauthorized("refresh token is missing")
	}
	userID, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", core.ErrUnauthorized("refresh token is invalid or expired")
	}
	return s.tokens.AccessToken(userID)
}

// Whoami returns the actor's own record.
func (s *UserService) Whoami(ctx context.Context, actor core.Actor) (*UserRecord, error) {
	user, err := s.repo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, core.ErrNotFound("user")
	}
	record := toUserRecord(*user)
	return &record, nil
}

// Balance returns the actor's net position: total incomes minus total
// expenses, formatted to two decimals.
func (s *UserService) Balance(ctx context.Context, actor core.Actor) (string, error) {
	incomes, err := s.repo.SumAmounts(ctx, core.KindIncome, actor.UserID)
	if err != nil {
		return "", err
	}
	expenses, err := s.repo.SumAmounts(ctx, core.KindExpense, actor.UserID)
	if err != nil {
		return "", err
	}
	return core.FormatAmount(incomes - expenses), nil
}

// List returns the paginated user listing; it is admin-only.
func (s *UserService) List(ctx context.Context, values url.Values, actor core.Actor) (map[string]any, error) {
	if !actor.IsAdmin {
		return nil, core.ErrUnauthorized("you do not have permission for this operation")
	}

	pageParams, err := query.ParsePageParams(values)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]UserRecord, 0, len(users))
	for _, u := range users {
		records = append(records, toUserRecord(u))
	}

	return query.Paginate(pageParams, records, "users", nil)
}

// UpdateProfile rewrites the actor's own account. Changing the email while
// verification is enabled resets the verified flag.
func (s *UserService) UpdateProfile(ctx context.Context, payload UpdateProfilePayload, actor core.Actor) (*UserRecord, error) {
	if payload.Username == "" || payload.Password == "" || payload.Email == "" || payload.IsMoneyVisible == nil {
		return nil, core.ErrValidation("one or more required fields are missing or empty")
	}
	if len(payload.Username) > core.UsernameCharLimit || len(payload.Email) > core.EmailCharLimit {
		return nil, core.ErrValidation("one or more fields exceed the maximum allowed characters")
	}
	if !core.ValidEmail(payload.Email) {
		return nil, core.ErrValidation("invalid email")
	}

	user, err := s.repo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, core.ErrNotFound("user")
	}

	existing, err := s.repo.GetUserByUsername(ctx, payload.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != actor.UserID {
		return nil, core.ErrConflict("username already exists")
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	user.Username = payload.Username
	user.PasswordHash = hash
	if s.emailVerification && user.Email != payload.Email {
		user.Email = payload.Email
		// A new address must be verified before the next login.
		user.IsVerified = false
	} else {
		user.Email = payload.Email
	}
	user.IsMoneyVisible = *payload.IsMoneyVisible

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	record := toUserRecord(*user)
	return &record, nil
}

// Delete removes the actor's account and everything it owns.
func (s *UserService) Delete(ctx context.Context, actor core.Actor) error {
	return s.repo.DeleteUser(ctx, actor.UserID)
}
