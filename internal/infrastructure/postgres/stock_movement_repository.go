package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, product_id, movement_type, requested_delta, reason, reference_number,
	location_from, location_to, status, previous_quantity, new_quantity, created_by, approved_by,
	decision_reason, created_at, decided_at`

// StockMovementRepo adaptador del audit trail (tabla stock_movements). Acepta pool o tx (Querier).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta un movimiento (normalmente en pending).
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, string(m.Type), m.RequestedDelta, m.Reason, m.ReferenceNumber,
		m.LocationFrom, m.LocationTo, string(m.Status), m.PreviousQuantity, m.NewQuantity, m.CreatedBy, m.ApprovedBy,
		m.DecisionReason, m.CreatedAt, m.DecidedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicate, m.ID)
		}
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento; (nil, nil) si no existe.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	if !validID(id) {
		return nil, nil
	}
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// GetForUpdate bloquea la fila del movimiento hasta el fin de la tx.
func (r *StockMovementRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockMovement, error) {
	if !validID(id) {
		return nil, nil
	}
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("lock stock movement: %w", err)
	}
	return m, nil
}

// Decide compare-and-set sobre status = 'pending'. decision_seq fija el orden de commit.
func (r *StockMovementRepo) Decide(ctx context.Context, m *entity.StockMovement) error {
	if !m.Status.Terminal() {
		return fmt.Errorf("%w: decisión con estado %s", domain.ErrInvalidState, m.Status)
	}
	query := `
		UPDATE stock_movements
		SET status = $2, previous_quantity = $3, new_quantity = $4, approved_by = $5,
		    decision_reason = $6, decided_at = $7, decision_seq = nextval('stock_movement_decision_seq')
		WHERE id = $1 AND status = 'pending'`
	cmd, err := r.q.Exec(ctx, query,
		m.ID, string(m.Status), m.PreviousQuantity, m.NewQuantity, m.ApprovedBy, m.DecisionReason, m.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("decide stock movement: %w", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}

	var status string
	err = r.q.QueryRow(ctx, `SELECT status FROM stock_movements WHERE id = $1`, m.ID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, m.ID)
	}
	if err != nil {
		return fmt.Errorf("decide stock movement: %w", err)
	}
	return fmt.Errorf("%w: movimiento %s ya está %s", domain.ErrInvalidState, m.ID, status)
}

// List consulta el audit trail, más recientes primero.
func (r *StockMovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if filter.ProductID != "" && !validID(filter.ProductID) {
		return []*entity.StockMovement{}, nil
	}
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.ProductID != "" {
		add("product_id = $%d", filter.ProductID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Type != "" {
		add("movement_type = $%d", string(filter.Type))
	}
	if filter.CreatedBy != "" {
		add("created_by = $%d", filter.CreatedBy)
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT NULLIF($%d, 0) OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return collectMovements(rows)
}

// ListApprovedByProduct aprobados del producto en orden de commit.
func (r *StockMovementRepo) ListApprovedByProduct(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	if !validID(productID) {
		return []*entity.StockMovement{}, nil
	}
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE product_id = $1 AND status = 'approved'
		ORDER BY decision_seq ASC`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list approved movements: %w", err)
	}
	return collectMovements(rows)
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m           entity.StockMovement
		typ, status string
	)
	err := row.Scan(
		&m.ID, &m.ProductID, &typ, &m.RequestedDelta, &m.Reason, &m.ReferenceNumber,
		&m.LocationFrom, &m.LocationTo, &status, &m.PreviousQuantity, &m.NewQuantity, &m.CreatedBy, &m.ApprovedBy,
		&m.DecisionReason, &m.CreatedAt, &m.DecidedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.Status = entity.MovementStatus(status)
	return &m, nil
}

func collectMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	defer rows.Close()
	list := []*entity.StockMovement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
