package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken marks an unparseable or expired access token.
	ErrInvalidToken = errors.New("invalid access token")
)

const tokenIssuer = "backend-gehna"

// Customer is a storefront account.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Service handles registration, login and access token lifecycle.
type Service struct {
	pool      *pgxpool.Pool
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewService constructs an auth service.
func NewService(pool *pgxpool.Pool, jwtSecret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{pool: pool, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL}
}

// Register creates an account with an argon2id password hash.
func (s *Service) Register(ctx context.Context, email, name, password string) (Customer, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return Customer{}, fmt.Errorf("hash password: %w", err)
	}
	c := Customer{ID: uuid.New(), Email: strings.ToLower(strings.TrimSpace(email)), Name: strings.TrimSpace(name)}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO customers (id, email, name, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		c.ID, c.Email, c.Name, hash,
	).Scan(&c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Customer{}, ErrEmailTaken
		}
		return Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

// Login verifies credentials and returns the customer and a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (Customer, string, error) {
	var (
		c    Customer
		hash string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM customers WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&c.ID, &c.Email, &c.Name, &hash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, "", ErrInvalidCredentials
		}
		return Customer{}, "", fmt.Errorf("load customer: %w", err)
	}
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return Customer{}, "", fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return Customer{}, "", ErrInvalidCredentials
	}
	token, err := s.signAccessToken(c.ID)
	if err != nil {
		return Customer{}, "", err
	}
	return c, token, nil
}

// Get loads a customer by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, created_at FROM customers WHERE id = $1`, id,
	).Scan(&c.ID, &c.Email, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrInvalidCredentials
		}
		return Customer{}, fmt.Errorf("load customer: %w", err)
	}
	return c, nil
}

func (s *Service) signAccessToken(customerID uuid.UUID) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Issuer(tokenIssuer).
		Subject(customerID.String()).
		IssuedAt(now).
		Expiration(now.Add(s.tokenTTL)).
		Build()
	if err != nil {
		return "", fmt.Errorf("build access token: %w", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return string(signed), nil
}

// ParseAccessToken validates the signature and expiry and returns the subject.
func (s *Service) ParseAccessToken(raw string) (string, error) {
	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, s.jwtSecret),
		jwt.WithValidate(true),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return "", ErrInvalidToken
	}
	sub := token.Subject()
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
