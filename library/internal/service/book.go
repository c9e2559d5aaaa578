package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-records/library/internal/errs"
	"github.com/Astemirdum/library-records/library/internal/model"
	"github.com/Astemirdum/library-records/library/internal/repository"
)

type BookService struct {
	repo  repository.BookRepository
	loans repository.LoanRepository
	log   *zap.Logger
}

func NewBookService(repo repository.Repository, log *zap.Logger) *BookService {
	return &BookService{
		repo:  repo,
		loans: repo,
		log:   log.Named("service.book"),
	}
}

// List returns all books ordered by id, or an empty list if storage fails.
func (s *BookService) List(ctx context.Context) []model.Book {
	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		s.log.Error("list books", zap.Error(err))
		return []model.Book{}
	}
	return books
}

func (s *BookService) Get(ctx context.Context, id int64) (model.Book, error) {
	book, err := s.repo.GetBook(ctx, id)
	return book, storageErr(err)
}

func (s *BookService) ExistsByBookNumber(ctx context.Context, number string) (bool, error) {
	_, err := s.repo.GetBookByNumber(ctx, number)
	return found(err)
}

// Save inserts a book with a zero id and updates it otherwise.
func (s *BookService) Save(ctx context.Context, book model.Book) (model.Book, error) {
	other, err := s.repo.GetBookByNumber(ctx, book.BookNumber)
	switch {
	case err == nil:
		if book.ID == 0 || other.ID != book.ID {
			return model.Book{}, errs.Conflict("bookNumber", repository.ConflictBookNumber)
		}
	case !errors.Is(err, errs.ErrNotFound):
		return model.Book{}, storageErr(err)
	}

	if book.ID == 0 {
		book, err = s.repo.CreateBook(ctx, book)
	} else {
		book, err = s.repo.UpdateBook(ctx, book)
	}
	if err != nil {
		return model.Book{}, storageErr(err)
	}
	return book, nil
}

func (s *BookService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetBook(ctx, id); err != nil {
		return storageErr(err)
	}
	open, err := s.loans.HasOpenLoanForBook(ctx, id)
	if err != nil {
		return storageErr(err)
	}
	if open {
		return errs.Integrity("the book has loans that are not returned yet")
	}
	return storageErr(s.repo.DeleteBook(ctx, id))
}

// Search matches title or author, ignoring case. A blank keyword returns everything.
func (s *BookService) Search(ctx context.Context, kw string) []model.Book {
	books := s.List(ctx)
	kw = keyword(kw)
	if kw == "" {
		return books
	}
	return filter(books, func(b model.Book) bool {
		return matches(b.Title, kw) || matches(b.Author, kw)
	})
}
