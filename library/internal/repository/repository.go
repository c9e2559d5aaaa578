package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-records/library/internal/errs"
	"github.com/Astemirdum/library-records/library/internal/model"
)

type BookRepository interface {
	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	GetBookByNumber(ctx context.Context, number string) (model.Book, error)
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

type ReaderRepository interface {
	ListReaders(ctx context.Context) ([]model.Reader, error)
	GetReader(ctx context.Context, id int64) (model.Reader, error)
	GetReaderByTicketNumber(ctx context.Context, number string) (model.Reader, error)
	GetReaderByPhoneNumber(ctx context.Context, phone string) (model.Reader, error)
	CreateReader(ctx context.Context, reader model.Reader) (model.Reader, error)
	UpdateReader(ctx context.Context, reader model.Reader) (model.Reader, error)
	DeleteReader(ctx context.Context, id int64) error
}

type LibrarianRepository interface {
	ListLibrarians(ctx context.Context) ([]model.Librarian, error)
	GetLibrarian(ctx context.Context, id int64) (model.Librarian, error)
	GetLibrarianByNumber(ctx context.Context, number string) (model.Librarian, error)
	CreateLibrarian(ctx context.Context, librarian model.Librarian) (model.Librarian, error)
	UpdateLibrarian(ctx context.Context, librarian model.Librarian) (model.Librarian, error)
	DeleteLibrarian(ctx context.Context, id int64) error
}

type LoanRepository interface {
	// ListLoans returns loans without their references resolved.
	ListLoans(ctx context.Context) ([]model.Loan, error)
	// ListLoansWithDetails joins book, reader and librarian into every loan.
	ListLoansWithDetails(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error)
	GetLoan(ctx context.Context, id int64) (model.Loan, error)
	CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error)
	UpdateLoan(ctx context.Context, loan model.Loan) (model.Loan, error)
	DeleteLoan(ctx context.Context, id int64) error
	HasOpenLoanForBook(ctx context.Context, bookID int64) (bool, error)
	HasOpenLoanForReader(ctx context.Context, readerID int64) (bool, error)
	HasLoanForLibrarian(ctx context.Context, librarianID int64) (bool, error)
}

type Repository interface {
	BookRepository
	ReaderRepository
	LibrarianRepository
	LoanRepository
}

var _ Repository = (*repository)(nil)

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName      = `books`
	readersTableName    = `readers`
	librariansTableName = `librarians`
	loansTableName      = `loans`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type uniqueField struct {
	field   string
	message string
}

// The schema's unique indexes back up the services' check-then-write.
var uniqueConstraints = map[string]uniqueField{
	"books_book_number_key":           {field: "bookNumber", message: ConflictBookNumber},
	"readers_ticket_number_key":       {field: "ticketNumber", message: ConflictTicketNumber},
	"readers_phone_number_key":        {field: "phoneNumber", message: ConflictPhoneNumber},
	"librarians_librarian_number_key": {field: "librarianNumber", message: ConflictLibrarianNumber},
}

const (
	ConflictBookNumber      = "book number already exists"
	ConflictTicketNumber    = "ticket number is already used by another reader"
	ConflictPhoneNumber     = "phone number is already used by another reader"
	ConflictLibrarianNumber = "librarian number is already used by another librarian"
)

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		if u, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
			return errs.Conflict(u.field, u.message)
		}
		return errors.Wrap(errs.ErrConflict, pgErr.ConstraintName)
	case pgerrcode.ForeignKeyViolation:
		return errs.Integrity(pgErr.Detail)
	}
	return err
}

// getOne runs a single-row query, translating "no rows" into errs.ErrNotFound.
func getOne[T any](ctx context.Context, r *repository, query string, args []any) (T, error) {
	var zero T
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("query", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return zero, mapError(err)
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, errs.ErrNotFound
		}
		return zero, mapError(err)
	}
	return item, nil
}

func list[T any](ctx context.Context, r *repository, query string, args []any) ([]T, error) {
	r.log.Debug("list", zap.String("q", query), zap.Any("args", args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, errors.Wrap(err, "pgx.CollectRows")
	}
	return items, nil
}

func (r *repository) delete(ctx context.Context, table string, id int64) error {
	query, args, err := qb.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) exists(ctx context.Context, table string, pred sq.Sqlizer) (bool, error) {
	sub, args, err := qb.Select("1").From(table).Where(pred).ToSql()
	if err != nil {
		return false, err
	}
	var ok bool
	if err := r.db.QueryRow(ctx, "select exists("+sub+")", args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func returning(cols []string) string {
	return "returning " + strings.Join(cols, ", ")
}
