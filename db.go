package sqlgen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// mysqlDuplicateEntry is MySQL's ER_DUP_ENTRY error number.
const mysqlDuplicateEntry = 1062

// DB is a wrapper around sqlx.DB (which is a wrapper around sql.DB) that
// executes generated statements.
type DB struct {
	*sqlx.DB
	*session
}

// Tx is a wrapper around sqlx.Tx (which is a wrapper around sql.Tx)
type Tx struct {
	*sqlx.Tx
	*session
}

// session holds what a DB shares with its transactions.
type session struct {
	dialect     Dialect
	bindType    int
	logger      *slog.Logger
	errHandlers []func(err error)
}

// runner executes statements, either on a DB or on a Tx.
type runner interface {
	Exec(ctx context.Context, stmt Statement) (sql.Result, error)
	ExecAll(ctx context.Context, stmts []Statement) (int64, error)
	GetRow(ctx context.Context, into interface{}, stmt Statement) error
	GetAll(ctx context.Context, into interface{}, stmt Statement) error
	GetPage(ctx context.Context, into interface{}, stmt Statement) (int64, error)
}

var (
	_ runner = (*DB)(nil)
	_ runner = (*Tx)(nil)
)

// Option configures a DB.
type Option func(s *session)

// WithLogger sets the logger executed statements are logged to. Statements
// are logged at debug level, failures at warn level. The default is
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *session) {
		s.logger = logger
	}
}

// WithErrorHandler registers a function that is called with every error
// returned by the database.
func WithErrorHandler(handler func(err error)) Option {
	return func(s *session) {
		s.errHandlers = append(s.errHandlers, handler)
	}
}

// WithBindType overrides the bindvar style statements are rebound to
// before execution (one of sqlx's bind types). By default it is derived
// from the driver name, or from the dialect for unknown drivers.
func WithBindType(bindType int) Option {
	return func(s *session) {
		s.bindType = bindType
	}
}

// New creates a new DB instance from an underlying sql.DB object. It
// requires the name of the SQL driver in order to bind parameters
// correctly, and the dialect statements are generated for.
func New(db *sql.DB, driverName string, d Dialect, opts ...Option) *DB {
	return Newx(sqlx.NewDb(db, driverName), d, opts...)
}

// Newx creates a new DB instance from an underlying sqlx.DB object. The
// returned DB wraps its own sqlx.DB over the same connection pool, whose
// mapper matches columns to struct fields by their Go name (which is how
// SELECT statements alias them); the provided object is left untouched.
func Newx(db *sqlx.DB, d Dialect, opts ...Option) *DB {
	db = sqlx.NewDb(db.DB, db.DriverName())

	s := &session{
		dialect:  d,
		bindType: sqlx.BindType(db.DriverName()),
		logger:   slog.Default(),
	}
	if s.bindType == sqlx.UNKNOWN {
		s.bindType = dialectBindType(d)
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	db.Mapper = reflectx.NewMapperFunc("", func(name string) string { return name })

	return &DB{DB: db, session: s}
}

// Dialect returns the dialect statements are generated for.
func (s *session) Dialect() Dialect {
	return s.dialect
}

func dialectBindType(d Dialect) int {
	if d == nil {
		return sqlx.QUESTION
	}
	switch d.Type() {
	case DatabaseSQLServer:
		return sqlx.AT
	case DatabasePostgreSQL:
		return sqlx.DOLLAR
	case DatabaseOracle:
		return sqlx.NAMED
	default:
		return sqlx.QUESTION
	}
}

// Transactional runs the provided function inside a transaction. The
// function must receive an sqlgen Tx object, and return an error. If the
// function returns an error, the transaction is automatically rolled
// back. Otherwise, the transaction is committed.
func (db *DB) Transactional(f func(tx *Tx) error) error {
	return db.TransactionalContext(context.Background(), nil, f)
}

// TransactionalContext runs the provided function inside a transaction. The
// function must receive an sqlgen Tx object, and return an error. If the
// function returns an error, the transaction is automatically rolled
// back. Otherwise, the transaction is committed.
func (db *DB) TransactionalContext(ctx context.Context, opts *sql.TxOptions, f func(tx *Tx) error) error {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed starting transaction: %w", err)
	}

	err = f(&Tx{Tx: tx, session: db.session})
	if err != nil {
		tx.Rollback()
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed committing transaction: %w", err)
	}

	return nil
}

// Exec executes a statement, returning the standard sql.Result struct and
// an error if the statement failed.
func (db *DB) Exec(ctx context.Context, stmt Statement) (res sql.Result, err error) {
	err = db.run(ctx, "exec", stmt, func(query string, args []interface{}) (err error) {
		res, err = db.DB.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// ExecAll executes several statements in a single transaction and returns
// the total number of affected rows.
func (db *DB) ExecAll(ctx context.Context, stmts []Statement) (affected int64, err error) {
	err = db.TransactionalContext(ctx, nil, func(tx *Tx) error {
		affected, err = tx.ExecAll(ctx, stmts)
		return err
	})
	return affected, err
}

// GetRow executes a query expected to return one row, and loads it into
// the provided variable (which may be a simple variable if only one column
// is returned, or a struct if multiple columns are returned).
func (db *DB) GetRow(ctx context.Context, into interface{}, stmt Statement) error {
	return db.run(ctx, "get", stmt, func(query string, args []interface{}) error {
		return db.DB.GetContext(ctx, into, query, args...)
	})
}

// GetAll executes a query and loads all the results into the provided
// slice variable.
func (db *DB) GetAll(ctx context.Context, into interface{}, stmt Statement) error {
	return db.run(ctx, "select", stmt, func(query string, args []interface{}) error {
		return db.DB.SelectContext(ctx, into, query, args...)
	})
}

// Query executes a query and returns the resulting rows, for callers that
// scan rows themselves (e.g. with MapScan). The caller must close them.
func (db *DB) Query(ctx context.Context, stmt Statement) (rows *sqlx.Rows, err error) {
	err = db.run(ctx, "query", stmt, func(query string, args []interface{}) (err error) {
		rows, err = db.DB.QueryxContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// GetPage executes a paged query, loading the page into the provided slice
// variable and returning the total number of rows matched by the query.
func (db *DB) GetPage(ctx context.Context, into interface{}, stmt Statement) (total int64, err error) {
	return getPage(ctx, db, into, stmt)
}

// Exec executes a statement inside the transaction.
func (tx *Tx) Exec(ctx context.Context, stmt Statement) (res sql.Result, err error) {
	err = tx.run(ctx, "exec", stmt, func(query string, args []interface{}) (err error) {
		res, err = tx.Tx.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// ExecAll executes several statements inside the transaction, in order,
// and returns the total number of affected rows. It stops at the first
// failing statement.
func (tx *Tx) ExecAll(ctx context.Context, stmts []Statement) (affected int64, err error) {
	for i, stmt := range stmts {
		res, err := tx.Exec(ctx, stmt)
		if err != nil {
			return affected, fmt.Errorf("statement %d of %d: %w", i+1, len(stmts), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return affected, fmt.Errorf("statement %d of %d: %w", i+1, len(stmts), err)
		}
		affected += n
	}
	return affected, nil
}

// GetRow executes a query expected to return one row inside the
// transaction.
func (tx *Tx) GetRow(ctx context.Context, into interface{}, stmt Statement) error {
	return tx.run(ctx, "get", stmt, func(query string, args []interface{}) error {
		return tx.Tx.GetContext(ctx, into, query, args...)
	})
}

// GetAll executes a query inside the transaction and loads all the results
// into the provided slice variable.
func (tx *Tx) GetAll(ctx context.Context, into interface{}, stmt Statement) error {
	return tx.run(ctx, "select", stmt, func(query string, args []interface{}) error {
		return tx.Tx.SelectContext(ctx, into, query, args...)
	})
}

// Query executes a query inside the transaction and returns the resulting
// rows. The caller must close them.
func (tx *Tx) Query(ctx context.Context, stmt Statement) (rows *sqlx.Rows, err error) {
	err = tx.run(ctx, "query", stmt, func(query string, args []interface{}) (err error) {
		rows, err = tx.Tx.QueryxContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// GetPage executes a paged query inside the transaction.
func (tx *Tx) GetPage(ctx context.Context, into interface{}, stmt Statement) (total int64, err error) {
	return getPage(ctx, tx, into, stmt)
}

func getPage(ctx context.Context, r runner, into interface{}, stmt Statement) (total int64, err error) {
	count, ok := stmt.Count()
	if !ok {
		return 0, fmt.Errorf("sqlgen: statement is not paged: %s", stmt.SQL())
	}
	if err := r.GetRow(ctx, &total, count); err != nil {
		return 0, err
	}
	if err := r.GetAll(ctx, into, stmt); err != nil {
		return 0, err
	}
	return total, nil
}

// run binds stmt for the driver, executes it through f and logs the
// outcome. Driver errors are translated by mapError.
func (s *session) run(ctx context.Context, op string, stmt Statement, f func(query string, args []interface{}) error) error {
	query, args := stmt.Bind(s.bindType)

	start := time.Now()
	err := f(query, args)
	duration := time.Since(start)

	if err != nil {
		err = mapError(err)
		s.logger.LogAttrs(ctx, slog.LevelWarn, "statement failed",
			slog.String("op", op),
			slog.String("sql", query),
			slog.Any("params", args),
			slog.Duration("duration", duration),
			slog.Any("error", err),
		)
		s.handleError(err)
		return err
	}

	s.logger.LogAttrs(ctx, slog.LevelDebug, "statement executed",
		slog.String("op", op),
		slog.String("sql", query),
		slog.Any("params", args),
		slog.Duration("duration", duration),
	)
	return nil
}

func (s *session) handleError(err error) {
	for _, handler := range s.errHandlers {
		handler(err)
	}
}

// mapError wraps driver errors with the matching sentinel error: unique
// constraint violations with ErrDuplicateKey, and sql.ErrNoRows with
// ErrNotFound. The original error stays in the chain.
func mapError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgerrcode.UniqueViolation {
		return true
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return true
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}

	// SQL Server (2627, 2601) and Oracle (ORA-00001) errors, and SQLite
	// errors without extended result codes, are matched by message.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Violation of UNIQUE KEY constraint") ||
		strings.Contains(msg, "Violation of PRIMARY KEY constraint") ||
		strings.Contains(msg, "Cannot insert duplicate key") ||
		strings.Contains(msg, "ORA-00001")
}
