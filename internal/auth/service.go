// Package auth registers shoppers, logs users in and issues the access
// tokens the route guards check.
package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"avenue/internal/apperr"
	"avenue/internal/database"
	"avenue/internal/models"
)

const (
	opTimeout         = 5 * time.Second
	minPasswordLength = 8
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// UpsertAdmin creates the admin or resets its password and role.
	UpsertAdmin(ctx context.Context, user *models.User) error
}

type Service struct {
	users  UserStore
	tokens *Tokens
	now    func() time.Time
	cost   int
}

func NewService(users UserStore, tokens *Tokens) (*Service, error) {
	if users == nil || tokens == nil {
		return nil, errors.New("user store and tokens required")
	}
	return &Service{users: users, tokens: tokens, now: time.Now, cost: bcrypt.DefaultCost}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", apperr.Validation("email is invalid")
	}
	return email, nil
}

func (s *Service) hash(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", apperr.Validation("password must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, err, "hash password")
	}
	return string(hashed), nil
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	hashed, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
		Phone:        strings.TrimSpace(input.Phone),
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, apperr.FromStore(err, "email already registered", "")
	}
	return s.session(user)
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}
	return s.session(user)
}

// EnsureAdmin makes sure an admin account with these credentials exists.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	hashed, err := s.hash(password)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	return s.users.UpsertAdmin(ctx, &models.User{
		Email:        email,
		PasswordHash: hashed,
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "token generation failed")
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}

type mongoUserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) UserStore {
	return &mongoUserStore{coll: db.Collection(database.UsersCollection)}
}

func (s *mongoUserStore) Insert(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, user)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (s *mongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var user models.User
	if err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *mongoUserStore) UpsertAdmin(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"email": user.Email},
		bson.M{
			"$set": bson.M{
				"passwordHash": user.PasswordHash,
				"role":         models.RoleAdmin,
				"updatedAt":    user.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"name":      user.Name,
				"createdAt": user.CreatedAt,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
