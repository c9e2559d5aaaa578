package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-records/library/internal/errs"
	"github.com/Astemirdum/library-records/library/internal/model"
	"github.com/Astemirdum/library-records/library/internal/repository"
)

type ReaderService struct {
	repo  repository.ReaderRepository
	loans repository.LoanRepository
	log   *zap.Logger
}

func NewReaderService(repo repository.Repository, log *zap.Logger) *ReaderService {
	return &ReaderService{
		repo:  repo,
		loans: repo,
		log:   log.Named("service.reader"),
	}
}

func (s *ReaderService) List(ctx context.Context) []model.Reader {
	readers, err := s.repo.ListReaders(ctx)
	if err != nil {
		s.log.Error("list readers", zap.Error(err))
		return []model.Reader{}
	}
	return readers
}

func (s *ReaderService) Get(ctx context.Context, id int64) (model.Reader, error) {
	reader, err := s.repo.GetReader(ctx, id)
	return reader, storageErr(err)
}

func (s *ReaderService) ExistsByTicketNumber(ctx context.Context, number string) (bool, error) {
	_, err := s.repo.GetReaderByTicketNumber(ctx, number)
	return found(err)
}

func (s *ReaderService) ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error) {
	_, err := s.repo.GetReaderByPhoneNumber(ctx, phone)
	return found(err)
}

// IsPhoneNumberUsedByOtherReader reports whether phone belongs to a reader other than id.
func (s *ReaderService) IsPhoneNumberUsedByOtherReader(ctx context.Context, id int64, phone string) (bool, error) {
	other, err := s.repo.GetReaderByPhoneNumber(ctx, phone)
	switch {
	case err == nil:
		return other.ID != id, nil
	case errors.Is(err, errs.ErrNotFound):
		return false, nil
	default:
		return false, storageErr(err)
	}
}

// Save checks the ticket number first, then the phone number.
func (s *ReaderService) Save(ctx context.Context, reader model.Reader) (model.Reader, error) {
	other, err := s.repo.GetReaderByTicketNumber(ctx, reader.TicketNumber)
	switch {
	case err == nil:
		if reader.ID == 0 || other.ID != reader.ID {
			return model.Reader{}, errs.Conflict("ticketNumber", repository.ConflictTicketNumber)
		}
	case !errors.Is(err, errs.ErrNotFound):
		return model.Reader{}, storageErr(err)
	}

	used, err := s.IsPhoneNumberUsedByOtherReader(ctx, reader.ID, reader.PhoneNumber)
	if err != nil {
		return model.Reader{}, err
	}
	if used {
		return model.Reader{}, errs.Conflict("phoneNumber", repository.ConflictPhoneNumber)
	}

	if reader.ID == 0 {
		reader, err = s.repo.CreateReader(ctx, reader)
	} else {
		reader, err = s.repo.UpdateReader(ctx, reader)
	}
	if err != nil {
		return model.Reader{}, storageErr(err)
	}
	return reader, nil
}

func (s *ReaderService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetReader(ctx, id); err != nil {
		return storageErr(err)
	}
	open, err := s.loans.HasOpenLoanForReader(ctx, id)
	if err != nil {
		return storageErr(err)
	}
	if open {
		return errs.Integrity("the reader has books that are not returned yet")
	}
	return storageErr(s.repo.DeleteReader(ctx, id))
}

func (s *ReaderService) Search(ctx context.Context, kw string) []model.Reader {
	readers := s.List(ctx)
	kw = keyword(kw)
	if kw == "" {
		return readers
	}
	return filter(readers, func(r model.Reader) bool {
		return matches(r.FullName, kw)
	})
}
