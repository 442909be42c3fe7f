package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"go-grocery/models"
	"go-grocery/store"
)

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	GenerateJWT(userID, email, role string) (string, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Session is a signed-in user with their token.
type Session struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

var validate = validator.New()

type UserService struct {
	users  store.UserStore
	tokens TokenIssuer
	now    func() time.Time
}

func NewUserService(users store.UserStore, tokens TokenIssuer) *UserService {
	return &UserService{users: users, tokens: tokens, now: func() time.Time { return time.Now().UTC() }}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword requires six characters with a lower case letter, an
// upper case letter and a digit.
func validatePassword(password string) error {
	if len(password) < 6 {
		return invalid("password must be at least 6 characters")
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return invalid("password must contain a lowercase letter, an uppercase letter and a number")
	}
	return nil
}

func (s *UserService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.GenerateJWT(user.ID.Hex(), user.Email, string(user.Role))
	if err != nil {
		return nil, internal("signing token", err)
	}
	return &Session{User: *user, Token: token}, nil
}

// Register creates a user with the given role and returns a session.
func (s *UserService) Register(ctx context.Context, in RegisterInput, role models.Role) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	if len(name) < 2 || len(name) > 50 {
		return nil, invalid("name must be between 2 and 50 characters")
	}
	email := normalizeEmail(in.Email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, invalid("email is invalid")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internal("hashing password", err)
	}

	user := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Password:  string(hashed),
		Phone:     strings.TrimSpace(in.Phone),
		Role:      role,
		CreatedAt: s.now(),
	}
	err = s.users.Create(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, conflict("user already exists")
	}
	if err != nil {
		return nil, internal("creating user", err)
	}
	return s.session(user)
}

// Login checks credentials. Unknown email and wrong password produce the
// same error.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, &Error{Kind: KindUnauthorized, Message: "invalid email or password"}
	}
	if err != nil {
		return nil, internal("loading user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, &Error{Kind: KindUnauthorized, Message: "invalid email or password"}
	}
	return s.session(user)
}

func (s *UserService) Profile(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, internal("loading user", err)
	}
	return user, nil
}

// ProfileInput carries profile edits. Nil fields are left unchanged.
type ProfileInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Password *string
}

// UpdateProfile applies edits to the user's own profile and returns a
// fresh session, since the token carries the email.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileInput) (*Session, error) {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 || len(name) > 50 {
			return nil, invalid("name must be between 2 and 50 characters")
		}
		user.Name = name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if err := validate.Var(email, "required,email"); err != nil {
			return nil, invalid("email is invalid")
		}
		user.Email = email
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, internal("hashing password", err)
		}
		user.Password = string(hashed)
	}

	err = s.users.Update(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, conflict("email is already in use")
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, internal("updating user", err)
	}
	return s.session(user)
}

// EnsureAdmin creates an admin account unless the email is taken.
func (s *UserService) EnsureAdmin(ctx context.Context, in RegisterInput) (bool, error) {
	_, err := s.Register(ctx, in, models.RoleAdmin)
	if errors.Is(err, ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
