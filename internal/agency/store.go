package agency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrAgencyNotFound is returned for unknown agency ids.
	ErrAgencyNotFound = errors.New("agency not found")
	// ErrDuplicateName is returned when an agency name is already taken.
	ErrDuplicateName = errors.New("agency name already exists")
)

// Agency is a partner workshop or reseller managed by the back office.
type Agency struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactName   string    `json:"contact_name"`
	ContactEmail  string    `json:"contact_email"`
	ContactPhone  string    `json:"contact_phone"`
	City          string    `json:"city"`
	CommissionBps int32     `json:"commission_bps"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store persists agencies.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs an agency store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const agencyColumns = `id, name, contact_name, contact_email, contact_phone, city, commission_bps, is_active, created_at, updated_at`

func scanAgency(row pgx.Row) (Agency, error) {
	var a Agency
	err := row.Scan(&a.ID, &a.Name, &a.ContactName, &a.ContactEmail, &a.ContactPhone,
		&a.City, &a.CommissionBps, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// List returns agencies ordered by name.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Agency, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM agencies`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count agencies: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+agencyColumns+` FROM agencies ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list agencies: %w", err)
	}
	defer rows.Close()

	agencies := make([]Agency, 0, limit)
	for rows.Next() {
		a, err := scanAgency(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan agency: %w", err)
		}
		agencies = append(agencies, a)
	}
	return agencies, total, rows.Err()
}

// Get loads one agency.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Agency, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+agencyColumns+` FROM agencies WHERE id = $1`, id)
	a, err := scanAgency(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agency{}, ErrAgencyNotFound
		}
		return Agency{}, fmt.Errorf("get agency: %w", err)
	}
	return a, nil
}

// Create inserts an agency.
func (s *Store) Create(ctx context.Context, a Agency) (Agency, error) {
	a.ID = uuid.New()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO agencies (id, name, contact_name, contact_email, contact_phone, city, commission_bps, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+agencyColumns,
		a.ID, a.Name, a.ContactName, a.ContactEmail, a.ContactPhone, a.City, a.CommissionBps, a.IsActive,
	)
	created, err := scanAgency(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Agency{}, ErrDuplicateName
		}
		return Agency{}, fmt.Errorf("create agency: %w", err)
	}
	return created, nil
}

// Update rewrites an agency.
func (s *Store) Update(ctx context.Context, a Agency) (Agency, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE agencies SET name = $2, contact_name = $3, contact_email = $4, contact_phone = $5,
			city = $6, commission_bps = $7, is_active = $8, updated_at = now()
		 WHERE id = $1
		 RETURNING `+agencyColumns,
		a.ID, a.Name, a.ContactName, a.ContactEmail, a.ContactPhone, a.City, a.CommissionBps, a.IsActive,
	)
	updated, err := scanAgency(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agency{}, ErrAgencyNotFound
		}
		if isUniqueViolation(err) {
			return Agency{}, ErrDuplicateName
		}
		return Agency{}, fmt.Errorf("update agency: %w", err)
	}
	return updated, nil
}

// Delete removes an agency.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM agencies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete agency: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAgencyNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
