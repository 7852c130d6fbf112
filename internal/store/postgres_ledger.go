package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"sibank/internal/domain"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Advisory lock id for migrations ("SIBANKMG").
const migrationLockID = 0x534942414e4b4d47

const (
	pqUniqueViolation = "23505"
	pqNumericOverflow = "22003"
)

// PostgresLedger is a LedgerStore on PostgreSQL. Transfers lock both account
// rows in account id order inside one database transaction.
type PostgresLedger struct {
	db *sqlx.DB
}

// Migrations returns the schema statements in apply order.
func Migrations() ([]string, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		b, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}
	return out, nil
}

// OpenPostgresLedger connects to dsn and applies migrations under an
// advisory lock so concurrent servers do not race.
func OpenPostgresLedger(ctx context.Context, dsn string) (*PostgresLedger, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	migrations, err := Migrations()
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(ctx, db, migrations); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresLedger{db: db}, nil
}

// migrate applies migrations on a single connection. Advisory locks belong
// to the session that took them, so lock, statements and unlock must not be
// spread across the pool.
func migrate(ctx context.Context, db *sqlx.DB, migrations []string) error {
	conn, err := db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("store: reserve migration connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("store: acquire migration lock: %w", err)
	}
	migrationErr := func() error {
		for _, m := range migrations {
			if _, err := conn.ExecContext(ctx, m); err != nil {
				return err
			}
		}
		return nil
	}()
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
		return fmt.Errorf("store: release migration lock: %w", err)
	}
	if migrationErr != nil {
		return fmt.Errorf("store: migrate: %w", migrationErr)
	}
	return nil
}

// CreateAccount inserts account; unique violations map to ErrDuplicateKey.
func (l *PostgresLedger) CreateAccount(ctx context.Context, account domain.Account) error {
	_, err := l.db.NamedExecContext(ctx, `
		INSERT INTO accounts (account_id, username, password_hash, name, balance)
		VALUES (:account_id, :username, :password_hash, :name, :balance)`, account)
	return mapPQError(err)
}

// AccountByID loads an account.
func (l *PostgresLedger) AccountByID(ctx context.Context, id domain.AccountID) (domain.Account, bool, error) {
	return l.getAccount(ctx, `SELECT * FROM accounts WHERE account_id = $1`, id)
}

// AccountByUsername loads an account by username.
func (l *PostgresLedger) AccountByUsername(
	ctx context.Context,
	username domain.Username,
) (domain.Account, bool, error) {
	return l.getAccount(ctx, `SELECT * FROM accounts WHERE username = $1`, username)
}

func (l *PostgresLedger) getAccount(ctx context.Context, query string, arg any) (domain.Account, bool, error) {
	var acc domain.Account
	err := l.db.GetContext(ctx, &acc, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, false, nil
	}
	if err != nil {
		return domain.Account{}, false, err
	}
	return acc, true, nil
}

// Credit adds amount to the balance in one statement.
func (l *PostgresLedger) Credit(ctx context.Context, id domain.AccountID, amount int64) (int64, bool, error) {
	var balance int64
	err := l.db.GetContext(ctx, &balance,
		`UPDATE accounts SET balance = balance + $2 WHERE account_id = $1 RETURNING balance`, id, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, mapPQError(err)
	}
	return balance, true, nil
}

type lockedAccount struct {
	AccountID domain.AccountID `db:"account_id"`
	Name      string           `db:"name"`
	Balance   int64            `db:"balance"`
}

// Transfer debits, credits and records the transaction atomically.
func (l *PostgresLedger) Transfer(
	ctx context.Context,
	t domain.Transfer,
	requireFunds bool,
) (out domain.Transaction, err error) {
	if t.From == t.To {
		return out, errSelfTransfer
	}
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var rows []lockedAccount
	if err = tx.SelectContext(ctx, &rows, `
		SELECT account_id, name, balance FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE`, pq.Array([]string{string(t.From), string(t.To)})); err != nil {
		return out, err
	}
	byID := make(map[domain.AccountID]lockedAccount, len(rows))
	for _, r := range rows {
		byID[r.AccountID] = r
	}
	from, ok := byID[t.From]
	if !ok {
		return out, fmt.Errorf("%w: %s", domain.ErrNotFound, t.From)
	}
	to, ok := byID[t.To]
	if !ok {
		return out, fmt.Errorf("%w: %s", domain.ErrNotFound, t.To)
	}
	if requireFunds && from.Balance < t.Amount {
		return out, domain.ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $2 WHERE account_id = $1`, t.From, t.Amount); err != nil {
		return out, mapPQError(err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $2 WHERE account_id = $1`, t.To, t.Amount); err != nil {
		return out, mapPQError(err)
	}
	var id int64
	if err = tx.GetContext(ctx, &id, `
		INSERT INTO transactions (date, from_account, to_account, amount)
		VALUES ($1, $2, $3, $4) RETURNING id`, t.Date.UTC(), t.From, t.To, t.Amount); err != nil {
		return out, err
	}
	if err = tx.Commit(); err != nil {
		return out, mapPQError(err)
	}

	return domain.Transaction{
		ID:     id,
		Date:   t.Date.UTC(),
		From:   domain.Counterparty{AccountID: from.AccountID, Name: from.Name},
		To:     domain.Counterparty{AccountID: to.AccountID, Name: to.Name},
		Amount: t.Amount,
	}, nil
}

type transactionRow struct {
	ID       int64            `db:"id"`
	Date     time.Time        `db:"date"`
	From     domain.AccountID `db:"from_account"`
	FromName string           `db:"from_name"`
	To       domain.AccountID `db:"to_account"`
	ToName   string           `db:"to_name"`
	Amount   int64            `db:"amount"`
}

// Transactions lists every transaction touching id, oldest first.
func (l *PostgresLedger) Transactions(ctx context.Context, id domain.AccountID) ([]domain.Transaction, error) {
	var rows []transactionRow
	if err := l.db.SelectContext(ctx, &rows, `
		SELECT t.id, t.date, t.from_account, fa.name AS from_name,
		       t.to_account, ta.name AS to_name, t.amount
		FROM transactions t
		JOIN accounts fa ON fa.account_id = t.from_account
		JOIN accounts ta ON ta.account_id = t.to_account
		WHERE t.from_account = $1 OR t.to_account = $1
		ORDER BY t.id`, id); err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Transaction{
			ID:     r.ID,
			Date:   r.Date.UTC(),
			From:   domain.Counterparty{AccountID: r.From, Name: r.FromName},
			To:     domain.Counterparty{AccountID: r.To, Name: r.ToName},
			Amount: r.Amount,
		})
	}
	return out, nil
}

// Close closes the connection pool.
func (l *PostgresLedger) Close() error {
	return l.db.Close()
}

func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKey, pqErr.Constraint)
	case pqNumericOverflow:
		return domain.ErrBalanceOverflow
	default:
		return err
	}
}

var _ domain.LedgerStore = (*PostgresLedger)(nil)

// Reset deletes every account and transaction.
func (l *PostgresLedger) Reset(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `TRUNCATE transactions, accounts RESTART IDENTITY`)
	return err
}
