package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-records/library/internal/errs"
	"github.com/Astemirdum/library-records/library/internal/model"
)

var loanColumns = []string{"id", "book_id", "reader_id", "librarian_id", "loan_date", "due_date", "return_date"}

var loanDetailColumns = []string{
	"l.id", "l.book_id", "l.reader_id", "l.librarian_id", "l.loan_date", "l.due_date", "l.return_date",
	"b.book_number", "b.title", "b.author", "b.publication_year",
	"r.ticket_number", "r.full_name", "r.phone_number", "r.registration_date",
	"lb.librarian_number", "lb.full_name", "lb.position",
}

func (r *repository) ListLoans(ctx context.Context) ([]model.Loan, error) {
	query, args, err := qb.Select(loanColumns...).
		From(loansTableName).
		OrderBy("loan_date desc", "id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	return list[model.Loan](ctx, r, query, args)
}

func (r *repository) ListLoansWithDetails(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	query, args, err := loansWithDetailsQuery(filter).ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListLoansWithDetails", zap.String("q", query), zap.Any("args", args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	loans, err := pgx.CollectRows(rows, scanLoanWithDetails)
	if err != nil {
		return nil, errors.Wrap(err, "pgx.CollectRows")
	}
	return loans, nil
}

func loansWithDetailsQuery(filter model.LoanFilter) sq.SelectBuilder {
	q := qb.Select(loanDetailColumns...).
		From(loansTableName + " l").
		Join(booksTableName + " b on b.id = l.book_id").
		Join(readersTableName + " r on r.id = l.reader_id").
		Join(librariansTableName + " lb on lb.id = l.librarian_id").
		OrderBy("l.loan_date desc", "l.id desc")

	switch filter.Status {
	case model.LoanStatusActive:
		q = q.Where(sq.Eq{"l.return_date": nil})
	case model.LoanStatusOverdue:
		q = q.Where(sq.Eq{"l.return_date": nil}).Where(sq.Lt{"l.due_date": filter.Today})
	case model.LoanStatusReturned:
		q = q.Where(sq.NotEq{"l.return_date": nil})
	}
	return q
}

// scanLoanWithDetails reads the columns in loanDetailColumns order.
func scanLoanWithDetails(row pgx.CollectableRow) (model.Loan, error) {
	var (
		l  model.Loan
		b  model.Book
		rd model.Reader
		lb model.Librarian
	)
	err := row.Scan(
		&l.ID, &l.BookID, &l.ReaderID, &l.LibrarianID, &l.LoanDate, &l.DueDate, &l.ReturnDate,
		&b.BookNumber, &b.Title, &b.Author, &b.PublicationYear,
		&rd.TicketNumber, &rd.FullName, &rd.PhoneNumber, &rd.RegistrationDate,
		&lb.LibrarianNumber, &lb.FullName, &lb.Position,
	)
	if err != nil {
		return model.Loan{}, err
	}
	b.ID, rd.ID, lb.ID = l.BookID, l.ReaderID, l.LibrarianID
	l.Book, l.Reader, l.Librarian = &b, &rd, &lb
	return l, nil
}

func (r *repository) GetLoan(ctx context.Context, id int64) (model.Loan, error) {
	query, args, err := qb.Select(loanColumns...).
		From(loansTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	return getOne[model.Loan](ctx, r, query, args)
}

func (r *repository) CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error) {
	query, args, err := qb.Insert(loansTableName).
		Columns("book_id", "reader_id", "librarian_id", "loan_date", "due_date", "return_date").
		Values(loan.BookID, loan.ReaderID, loan.LibrarianID, loan.LoanDate, loan.DueDate, loan.ReturnDate).
		Suffix(returning(loanColumns)).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	created, err := getOne[model.Loan](ctx, r, query, args)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Loan{}, errors.Wrap(err, "insert returned no rows")
	}
	return created, err
}

func (r *repository) UpdateLoan(ctx context.Context, loan model.Loan) (model.Loan, error) {
	query, args, err := qb.Update(loansTableName).
		SetMap(map[string]any{
			"book_id":      loan.BookID,
			"reader_id":    loan.ReaderID,
			"librarian_id": loan.LibrarianID,
			"loan_date":    loan.LoanDate,
			"due_date":     loan.DueDate,
			"return_date":  loan.ReturnDate,
		}).
		Where(sq.Eq{"id": loan.ID}).
		Suffix(returning(loanColumns)).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	return getOne[model.Loan](ctx, r, query, args)
}

func (r *repository) DeleteLoan(ctx context.Context, id int64) error {
	return r.delete(ctx, loansTableName, id)
}

func (r *repository) HasOpenLoanForBook(ctx context.Context, bookID int64) (bool, error) {
	return r.exists(ctx, loansTableName, sq.Eq{"book_id": bookID, "return_date": nil})
}

func (r *repository) HasOpenLoanForReader(ctx context.Context, readerID int64) (bool, error) {
	return r.exists(ctx, loansTableName, sq.Eq{"reader_id": readerID, "return_date": nil})
}

func (r *repository) HasLoanForLibrarian(ctx context.Context, librarianID int64) (bool, error) {
	return r.exists(ctx, loansTableName, sq.Eq{"librarian_id": librarianID})
}
