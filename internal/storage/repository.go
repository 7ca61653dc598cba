package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/query"

	_ "modernc.org/sqlite"
)

// Repository is the SQLite-backed store for users, financial elements,
// feedback and audit entries.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	// Type substring filters are contractually case-sensitive; the pragma
	// goes in the DSN so every pooled connection carries it.
	dsn := "file:" + dbPath + "?_pragma=case_sensitive_like(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func elementTable(kind core.ElementKind) string {
	if kind == core.KindIncome {
		return "incomes"
	}
	return "expenses"
}

const elementColumns = "id, owner_id, description, amount, type, effective_date, created_at, updated_at"

func scanElement(row interface{ Scan(...any) error }) (core.Element, error) {
	var e core.Element
	err := row.Scan(&e.ID, &e.OwnerID, &e.Description, &e.Amount, &e.Type,
		&e.EffectiveDate, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// SelectElements returns every element matching the predicate set, sorted by
// the optional ORDER BY body. Without one, rowid order keeps results stable
// within a query.
func (r *Repository) SelectElements(ctx context.Context, kind core.ElementKind, preds []query.Predicate, orderBy string) ([]core.Element, error) {
	where, args := query.WhereClause(preds)
	q := fmt.Sprintf("SELECT %s FROM %s%s", elementColumns, elementTable(kind), where)
	if orderBy != "" {
		q += " ORDER BY " + orderBy
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", elementTable(kind), err)
	}
	defer rows.Close()

	var elements []core.Element
	for rows.Next() {
		e, err := scanElement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", elementTable(kind), err)
		}
		elements = append(elements, e)
	}
	return elements, rows.Err()
}

// SelectElement returns the first element matching the predicate set, or nil
// when nothing matches.
func (r *Repository) SelectElement(ctx context.Context, kind core.ElementKind, preds []query.Predicate, orderBy string) (*core.Element, error) {
	where, args := query.WhereClause(preds)
	q := fmt.Sprintf("SELECT %s FROM %s%s", elementColumns, elementTable(kind), where)
	if orderBy != "" {
		q += " ORDER BY " + orderBy
	}
	q += " LIMIT 1"

	e, err := scanElement(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select one %s: %w", elementTable(kind), err)
	}
	return &e, nil
}

// GetElementByID fetches a single element regardless of owner. Visibility is
// the service's concern.
func (r *Repository) GetElementByID(ctx context.Context, kind core.ElementKind, id int64) (*core.Element, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", elementColumns, elementTable(kind))
	e, err := scanElement(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s by id: %w", elementTable(kind), err)
	}
	return &e, nil
}

// InsertElement persists a new element and returns its assigned id.
func (r *Repository) InsertElement(ctx context.Context, kind core.ElementKind, e *core.Element) (int64, error) {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.EffectiveDate.IsZero() {
		e.EffectiveDate = now
	}

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (owner_id, description, amount, type, effective_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`, elementTable(kind)),
		e.OwnerID, e.Description, e.Amount, e.Type, e.EffectiveDate, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", elementTable(kind), err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Element saved",
		"kind", kind.String(),
		"id", id,
		"owner_id", e.OwnerID,
		"amount", e.Amount)
	return id, nil
}

// UpdateElement rewrites the mutable fields of an element. The owner column
// is never touched.
func (r *Repository) UpdateElement(ctx context.Context, kind core.ElementKind, e *core.Element) error {
	e.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET description = ?, amount = ?, type = ?, effective_date = ?, updated_at = ?
		 WHERE id = ?`, elementTable(kind)),
		e.Description, e.Amount, e.Type, e.EffectiveDate, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("update %s: %w", elementTable(kind), err)
	}
	return nil
}

func (r *Repository) DeleteElement(ctx context.Context, kind core.ElementKind, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", elementTable(kind)), id); err != nil {
		return fmt.Errorf("delete %s: %w", elementTable(kind), err)
	}
	return nil
}

// AggregateElements computes AVG, SUM or COUNT over the amount column of the
// rows matching the predicate set. Empty sets yield zero, not NULL.
func (r *Repository) AggregateElements(ctx context.Context, kind core.ElementKind, fn string, preds []query.Predicate) (float64, error) {
	switch fn {
	case "AVG", "SUM", "COUNT":
	default:
		return 0, fmt.Errorf("unsupported aggregate function: %s", fn)
	}

	where, args := query.WhereClause(preds)
	q := fmt.Sprintf("SELECT COALESCE(%s(amount), 0) FROM %s%s", fn, elementTable(kind), where)

	var value float64
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&value); err != nil {
		return 0, fmt.Errorf("aggregate %s over %s: %w", fn, elementTable(kind), err)
	}
	return value, nil
}

// DistinctTypes lists the distinct type tags the owner has used.
func (r *Repository) DistinctTypes(ctx context.Context, kind core.ElementKind, ownerID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT DISTINCT type FROM %s WHERE owner_id = ?", elementTable(kind)), ownerID)
	if err != nil {
		return nil, fmt.Errorf("distinct types: %w", err)
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// SumAmounts totals every element amount owned by a user.
func (r *Repository) SumAmounts(ctx context.Context, kind core.ElementKind, ownerID int64) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(SUM(amount), 0) FROM %s WHERE owner_id = ?", elementTable(kind)),
		ownerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum %s amounts: %w", elementTable(kind), err)
	}
	return total, nil
}

// ---- users ----

const userColumns = "id, username, password_hash, email, created_at, updated_at, last_login, is_admin, is_verified, is_money_visible"

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.CreatedAt,
		&u.UpdatedAt, &u.LastLogin, &u.IsAdmin, &u.IsVerified, &u.IsMoneyVisible)
	return u, err
}

func (r *Repository) CreateUser(ctx context.Context, u *core.User) (int64, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.LastLogin = now

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, email, created_at, updated_at, last_login, is_admin, is_verified, is_money_visible)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.Email, u.CreatedAt, u.UpdatedAt, u.LastLogin,
		u.IsAdmin, u.IsVerified, u.IsMoneyVisible)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	u.ID = id
	return id, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE id = ?", userColumns), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE username = ?", userColumns), username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM users", userColumns))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *Repository) UpdateUser(ctx context.Context, u *core.User) error {
	u.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = ?, password_hash = ?, email = ?, updated_at = ?, is_verified = ?, is_money_visible = ?
		 WHERE id = ?`,
		u.Username, u.PasswordHash, u.Email, u.UpdatedAt, u.IsVerified, u.IsMoneyVisible, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET last_login = ? WHERE id = ?", time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// DeleteUser removes the account together with every element and feedback
// entry it owns, in one transaction.
func (r *Repository) DeleteUser(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM incomes WHERE owner_id = ?",
		"DELETE FROM expenses WHERE owner_id = ?",
		"DELETE FROM feedback WHERE owner_id = ?",
		"DELETE FROM users WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
			return fmt.Errorf("delete user cascade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user tx: %w", err)
	}

	slog.InfoContext(ctx, "User deleted with owned records", "user_id", userID)
	return nil
}

// ---- feedback ----

func (r *Repository) InsertFeedback(ctx context.Context, f *core.Feedback) (int64, error) {
	f.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO feedback (owner_id, description, type, created_at) VALUES (?, ?, ?, ?)",
		f.OwnerID, f.Description, f.Type, f.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// ListFeedback returns every entry when ownerID is zero (admin scope), or the
// owner's entries otherwise.
func (r *Repository) ListFeedback(ctx context.Context, ownerID int64) ([]core.Feedback, error) {
	q := "SELECT id, owner_id, description, type, created_at FROM feedback"
	var args []any
	if ownerID != 0 {
		q += " WHERE owner_id = ?"
		args = append(args, ownerID)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var entries []core.Feedback
	for rows.Next() {
		var f core.Feedback
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Description, &f.Type, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		entries = append(entries, f)
	}
	return entries, rows.Err()
}

func (r *Repository) DistinctFeedbackTypes(ctx context.Context, ownerID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT type FROM feedback WHERE owner_id = ?", ownerID)
	if err != nil {
		return nil, fmt.Errorf("distinct feedback types: %w", err)
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan feedback type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// ---- audit ----

// AuditEntry is one recorded element mutation, written by the audit worker.
type AuditEntry struct {
	ElementKind string
	Operation   string
	ElementID   int64
	ActorID     int64
	OccurredAt  time.Time
}

func (r *Repository) InsertAuditEntry(ctx context.Context, entry AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (element_kind, operation, element_id, actor_id, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ElementKind, entry.Operation, entry.ElementID, entry.ActorID, entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
