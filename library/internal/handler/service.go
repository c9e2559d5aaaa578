package handler

import (
	"context"
	"time"

	"github.com/Astemirdum/library-records/library/internal/model"
	"github.com/Astemirdum/library-records/library/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	List(ctx context.Context) []model.Book
	Get(ctx context.Context, id int64) (model.Book, error)
	Save(ctx context.Context, book model.Book) (model.Book, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, keyword string) []model.Book
}

type ReaderService interface {
	List(ctx context.Context) []model.Reader
	Get(ctx context.Context, id int64) (model.Reader, error)
	Save(ctx context.Context, reader model.Reader) (model.Reader, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, keyword string) []model.Reader
}

type LibrarianService interface {
	List(ctx context.Context) []model.Librarian
	Get(ctx context.Context, id int64) (model.Librarian, error)
	Save(ctx context.Context, librarian model.Librarian) (model.Librarian, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, keyword string) []model.Librarian
}

type LoanService interface {
	List(ctx context.Context) []model.Loan
	ListActive(ctx context.Context) []model.Loan
	ListOverdue(ctx context.Context) []model.Loan
	ListReturned(ctx context.Context) []model.Loan
	Save(ctx context.Context, loan model.Loan) (model.Loan, error)
	ReturnBook(ctx context.Context, id int64) (model.Loan, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, keyword string) []model.Loan
	FormOptions(ctx context.Context) (model.LoanFormOptions, error)
	Summary(ctx context.Context) (model.Summary, error)
	Today() time.Time
}

var (
	_ BookService      = (*service.BookService)(nil)
	_ ReaderService    = (*service.ReaderService)(nil)
	_ LibrarianService = (*service.LibrarianService)(nil)
	_ LoanService      = (*service.LoanService)(nil)
)
