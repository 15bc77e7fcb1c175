package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

const requestColumns = `id, customer_name, phone, car_type, car_model, car_number, kilometers, problem, notes,
	repair_cost, spare_part_name, spare_part_price, spare_parts, total, status, payment_status,
	remaining_amount, net_purchases_rkha, net_purchases_external, created_at, updated_at`

const spareColumns = `id, name, price, quantity, category, created_at, updated_at`

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Connect opens a pool and retries the first ping, since the database often
// starts alongside the service.
func Connect(ctx context.Context, dsn string, attempts uint, logger *zap.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	err = retry.Do(func() error {
		return pool.Ping(ctx)
	},
		retry.Context(ctx),
		retry.Attempts(max(attempts, 1)),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("postgres ping failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

func (s *Store) CreateRequest(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error) {
	now := s.now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	parts, err := encodeParts(req.SpareParts)
	if err != nil {
		return models.ServiceRequest{}, err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13::jsonb,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING `+requestColumns,
		req.ID, req.CustomerName, req.Phone, req.CarType, req.CarModel, req.CarNumber, req.Kilometers,
		req.Problem, req.Notes, req.RepairCost.Float(), req.SparePartName, req.SparePartPrice.Float(), parts,
		req.Total.Float(), string(req.Status), string(req.PaymentStatus), req.RemainingAmount.Float(),
		req.NetPurchasesRkha.Float(), req.NetPurchasesExternal.Float(), req.CreatedAt, req.UpdatedAt,
	)
	return scanRequest(row)
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (models.ServiceRequest, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, requestID)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ServiceRequest{}, false, nil
	}
	if err != nil {
		return models.ServiceRequest{}, false, err
	}
	return req, true, nil
}

func (s *Store) UpdateRequest(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error) {
	req.UpdatedAt = s.now()
	parts, err := encodeParts(req.SpareParts)
	if err != nil {
		return models.ServiceRequest{}, err
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE requests SET
			customer_name = $2, phone = $3, car_type = $4, car_model = $5, car_number = $6,
			kilometers = $7, problem = $8, notes = $9, repair_cost = $10, spare_part_name = $11,
			spare_part_price = $12, spare_parts = $13::jsonb, total = $14, status = $15,
			payment_status = $16, remaining_amount = $17, net_purchases_rkha = $18,
			net_purchases_external = $19, updated_at = $20
		WHERE id = $1
		RETURNING `+requestColumns,
		req.ID, req.CustomerName, req.Phone, req.CarType, req.CarModel, req.CarNumber, req.Kilometers,
		req.Problem, req.Notes, req.RepairCost.Float(), req.SparePartName, req.SparePartPrice.Float(), parts,
		req.Total.Float(), string(req.Status), string(req.PaymentStatus), req.RemainingAmount.Float(),
		req.NetPurchasesRkha.Float(), req.NetPurchasesExternal.Float(), req.UpdatedAt,
	)
	updated, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ServiceRequest{}, store.ErrRequestNotFound
	}
	return updated, err
}

func (s *Store) DeleteRequest(ctx context.Context, requestID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM requests WHERE id = $1`, requestID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrRequestNotFound
	}
	return nil
}

func (s *Store) ListRequests(ctx context.Context, filter store.RequestFilter) ([]models.ServiceRequest, error) {
	var where []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT ` + requestColumns + ` FROM requests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ServiceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CreateSpare(ctx context.Context, spare models.SparePart) (models.SparePart, error) {
	now := s.now()
	if spare.ID == "" {
		spare.ID = uuid.NewString()
	}
	if spare.CreatedAt.IsZero() {
		spare.CreatedAt = now
	}
	spare.UpdatedAt = now
	row := s.pool.QueryRow(ctx, `
		INSERT INTO spares (`+spareColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+spareColumns,
		spare.ID, spare.Name, spare.Price.Float(), max(spare.Quantity, 0), spare.Category, spare.CreatedAt, spare.UpdatedAt,
	)
	return scanSpare(row)
}

func (s *Store) GetSpare(ctx context.Context, spareID string) (models.SparePart, bool, error) {
	return s.findSpare(ctx, `SELECT `+spareColumns+` FROM spares WHERE id = $1`, spareID)
}

func (s *Store) FindSpareByName(ctx context.Context, name string) (models.SparePart, bool, error) {
	return s.findSpare(ctx, `SELECT `+spareColumns+` FROM spares WHERE name = $1 ORDER BY created_at, id LIMIT 1`, name)
}

func (s *Store) findSpare(ctx context.Context, query string, arg string) (models.SparePart, bool, error) {
	spare, err := scanSpare(s.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SparePart{}, false, nil
	}
	if err != nil {
		return models.SparePart{}, false, err
	}
	return spare, true, nil
}

func (s *Store) UpdateSpare(ctx context.Context, spare models.SparePart) (models.SparePart, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE spares SET name = $2, price = $3, quantity = $4, category = $5, updated_at = $6
		WHERE id = $1
		RETURNING `+spareColumns,
		spare.ID, spare.Name, spare.Price.Float(), max(spare.Quantity, 0), spare.Category, s.now(),
	)
	updated, err := scanSpare(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SparePart{}, store.ErrSpareNotFound
	}
	return updated, err
}

func (s *Store) DeleteSpare(ctx context.Context, spareID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM spares WHERE id = $1`, spareID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrSpareNotFound
	}
	return nil
}

func (s *Store) ListSpares(ctx context.Context) ([]models.SparePart, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+spareColumns+` FROM spares ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SparePart
	for rows.Next() {
		spare, err := scanSpare(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, spare)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) AdjustSpareQuantity(ctx context.Context, spareID string, delta int) (models.SparePart, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE spares SET quantity = GREATEST(0, quantity + $2), updated_at = $3
		WHERE id = $1
		RETURNING `+spareColumns,
		spareID, delta, s.now(),
	)
	spare, err := scanSpare(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SparePart{}, store.ErrSpareNotFound
	}
	return spare, err
}

func (s *Store) AssignCategoryByName(ctx context.Context, spareName, category string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE spares SET category = $2, updated_at = $3 WHERE name = $1`, spareName, category, s.now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) UpsertCategory(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO spare_categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	return err
}

func (s *Store) ListCategories(ctx context.Context) ([]models.SpareCategory, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM spare_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.SpareCategory, 0)
	for rows.Next() {
		var category models.SpareCategory
		if err := rows.Scan(&category.Name); err != nil {
			return nil, err
		}
		out = append(out, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

func encodeParts(parts []models.UsedPart) (string, error) {
	if parts == nil {
		parts = []models.UsedPart{}
	}
	raw, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("encode spare parts: %w", err)
	}
	return string(raw), nil
}

func scanRequest(row pgx.Row) (models.ServiceRequest, error) {
	var req models.ServiceRequest
	var repairCost, sparePartPrice, total, remaining, rkha, external float64
	var status, payment string
	var parts []byte
	if err := row.Scan(
		&req.ID, &req.CustomerName, &req.Phone, &req.CarType, &req.CarModel, &req.CarNumber,
		&req.Kilometers, &req.Problem, &req.Notes, &repairCost, &req.SparePartName, &sparePartPrice,
		&parts, &total, &status, &payment, &remaining, &rkha, &external, &req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return models.ServiceRequest{}, err
	}
	if len(parts) > 0 {
		if err := json.Unmarshal(parts, &req.SpareParts); err != nil {
			return models.ServiceRequest{}, fmt.Errorf("decode spare parts: %w", err)
		}
	}
	req.RepairCost = models.Amount(repairCost)
	req.SparePartPrice = models.Amount(sparePartPrice)
	req.Total = models.Amount(total)
	req.RemainingAmount = models.Amount(remaining)
	req.NetPurchasesRkha = models.Amount(rkha)
	req.NetPurchasesExternal = models.Amount(external)
	req.Status = models.NormalizeStatus(models.Status(status))
	req.PaymentStatus = models.PaymentStatus(payment)
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()
	return req, nil
}

func scanSpare(row pgx.Row) (models.SparePart, error) {
	var spare models.SparePart
	var price float64
	if err := row.Scan(&spare.ID, &spare.Name, &price, &spare.Quantity, &spare.Category, &spare.CreatedAt, &spare.UpdatedAt); err != nil {
		return models.SparePart{}, err
	}
	spare.Price = models.Amount(price)
	spare.CreatedAt = spare.CreatedAt.UTC()
	spare.UpdatedAt = spare.UpdatedAt.UTC()
	return spare, nil
}
