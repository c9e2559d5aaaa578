package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-records/library/internal/errs"
	"github.com/Astemirdum/library-records/library/internal/model"
	"github.com/Astemirdum/library-records/library/internal/repository"
)

type LibrarianService struct {
	repo  repository.LibrarianRepository
	loans repository.LoanRepository
	log   *zap.Logger
}

func NewLibrarianService(repo repository.Repository, log *zap.Logger) *LibrarianService {
	return &LibrarianService{
		repo:  repo,
		loans: repo,
		log:   log.Named("service.librarian"),
	}
}

func (s *LibrarianService) List(ctx context.Context) []model.Librarian {
	librarians, err := s.repo.ListLibrarians(ctx)
	if err != nil {
		s.log.Error("list librarians", zap.Error(err))
		return []model.Librarian{}
	}
	return librarians
}

func (s *LibrarianService) Get(ctx context.Context, id int64) (model.Librarian, error) {
	librarian, err := s.repo.GetLibrarian(ctx, id)
	return librarian, storageErr(err)
}

func (s *LibrarianService) ExistsByLibrarianNumber(ctx context.Context, number string) (bool, error) {
	_, err := s.repo.GetLibrarianByNumber(ctx, number)
	return found(err)
}

func (s *LibrarianService) Save(ctx context.Context, librarian model.Librarian) (model.Librarian, error) {
	if strings.TrimSpace(librarian.Position) == "" {
		librarian.Position = model.DefaultPosition
	}
	other, err := s.repo.GetLibrarianByNumber(ctx, librarian.LibrarianNumber)
	switch {
	case err == nil:
		if librarian.ID == 0 || other.ID != librarian.ID {
			return model.Librarian{}, errs.Conflict("librarianNumber", repository.ConflictLibrarianNumber)
		}
	case !errors.Is(err, errs.ErrNotFound):
		return model.Librarian{}, storageErr(err)
	}

	if librarian.ID == 0 {
		librarian, err = s.repo.CreateLibrarian(ctx, librarian)
	} else {
		librarian, err = s.repo.UpdateLibrarian(ctx, librarian)
	}
	if err != nil {
		return model.Librarian{}, storageErr(err)
	}
	return librarian, nil
}

// Delete refuses while any loan, returned or not, references the librarian.
func (s *LibrarianService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetLibrarian(ctx, id); err != nil {
		return storageErr(err)
	}
	has, err := s.loans.HasLoanForLibrarian(ctx, id)
	if err != nil {
		return storageErr(err)
	}
	if has {
		return errs.Integrity("the librarian is referenced by loan records")
	}
	return storageErr(s.repo.DeleteLibrarian(ctx, id))
}

func (s *LibrarianService) Search(ctx context.Context, kw string) []model.Librarian {
	librarians := s.List(ctx)
	kw = keyword(kw)
	if kw == "" {
		return librarians
	}
	return filter(librarians, func(l model.Librarian) bool {
		return matches(l.FullName, kw)
	})
}
