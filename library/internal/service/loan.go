package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-records/library/internal/model"
	"github.com/Astemirdum/library-records/library/internal/repository"
)

const defaultLoanPeriod = 14 * 24 * time.Hour

// EventPublisher receives loan lifecycle events. kafka.Enqueuer satisfies it.
type EventPublisher interface {
	Enqueue(key string, v any) error
}

type LoanService struct {
	repo   repository.Repository
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

func NewLoanService(repo repository.Repository, events EventPublisher, log *zap.Logger, opts ...Option) *LoanService {
	o := newOptions(opts)
	return &LoanService{
		repo:   repo,
		events: events,
		log:    log.Named("service.loan"),
		now:    o.now,
	}
}

// Today is the current date as a UTC midnight.
func (s *LoanService) Today() time.Time {
	return model.Today(s.now())
}

// List returns every loan with its references resolved, newest first.
// When the joined query fails it falls back to bare loans.
func (s *LoanService) List(ctx context.Context) []model.Loan {
	loans, err := s.repo.ListLoansWithDetails(ctx, model.LoanFilter{Status: model.LoanStatusAll})
	if err == nil {
		return loans
	}
	s.log.Warn("list loans with details, falling back", zap.Error(err))
	loans, err = s.repo.ListLoans(ctx)
	if err != nil {
		s.log.Error("list loans", zap.Error(err))
		return []model.Loan{}
	}
	return loans
}

func (s *LoanService) ListActive(ctx context.Context) []model.Loan {
	return s.listBy(ctx, model.LoanStatusActive)
}

// ListOverdue returns open loans whose due date is before today.
func (s *LoanService) ListOverdue(ctx context.Context) []model.Loan {
	return s.listBy(ctx, model.LoanStatusOverdue)
}

func (s *LoanService) ListReturned(ctx context.Context) []model.Loan {
	return s.listBy(ctx, model.LoanStatusReturned)
}

func (s *LoanService) listBy(ctx context.Context, status model.LoanStatus) []model.Loan {
	loans, err := s.repo.ListLoansWithDetails(ctx, model.LoanFilter{Status: status, Today: s.Today()})
	if err != nil {
		s.log.Error("list loans", zap.String("status", string(status)), zap.Error(err))
		return []model.Loan{}
	}
	return loans
}

func (s *LoanService) Get(ctx context.Context, id int64) (model.Loan, error) {
	loan, err := s.repo.GetLoan(ctx, id)
	return loan, storageErr(err)
}

// Save persists a new loan, dating it today unless a loan date is given.
// No availability check is made for the book.
func (s *LoanService) Save(ctx context.Context, loan model.Loan) (model.Loan, error) {
	if loan.LoanDate.IsZero() {
		loan.LoanDate = s.Today()
	}
	var err error
	if loan.ID == 0 {
		loan, err = s.repo.CreateLoan(ctx, loan)
	} else {
		loan, err = s.repo.UpdateLoan(ctx, loan)
	}
	if err != nil {
		return model.Loan{}, storageErr(err)
	}
	s.publish(model.LoanIssued, loan)
	return loan, nil
}

// ReturnBook closes the loan with today's date. Returning a closed loan is a no-op.
func (s *LoanService) ReturnBook(ctx context.Context, id int64) (model.Loan, error) {
	loan, err := s.repo.GetLoan(ctx, id)
	if err != nil {
		return model.Loan{}, storageErr(err)
	}
	if loan.Returned() {
		return loan, nil
	}
	today := s.Today()
	loan.ReturnDate = &today
	loan, err = s.repo.UpdateLoan(ctx, loan)
	if err != nil {
		return model.Loan{}, storageErr(err)
	}
	s.publish(model.LoanReturned, loan)
	return loan, nil
}

func (s *LoanService) Delete(ctx context.Context, id int64) error {
	loan, err := s.repo.GetLoan(ctx, id)
	if err != nil {
		return storageErr(err)
	}
	if err = s.repo.DeleteLoan(ctx, id); err != nil {
		return storageErr(err)
	}
	s.publish(model.LoanDeleted, loan)
	return nil
}

// Search returns loans whose book title, book author, reader name, librarian
// name, ticket number, phone number or book number contains the keyword.
func (s *LoanService) Search(ctx context.Context, kw string) []model.Loan {
	loans := s.List(ctx)
	kw = keyword(kw)
	if kw == "" {
		return loans
	}
	return filter(loans, func(l model.Loan) bool {
		for _, field := range searchFields(l) {
			if matches(field, kw) {
				return true
			}
		}
		return false
	})
}

func searchFields(l model.Loan) []string {
	var fields []string
	if l.Book != nil {
		fields = append(fields, l.Book.Title, l.Book.Author)
	}
	if l.Reader != nil {
		fields = append(fields, l.Reader.FullName)
	}
	if l.Librarian != nil {
		fields = append(fields, l.Librarian.FullName)
	}
	if l.Reader != nil {
		fields = append(fields, l.Reader.TicketNumber, l.Reader.PhoneNumber)
	}
	if l.Book != nil {
		fields = append(fields, l.Book.BookNumber)
	}
	return fields
}

// FormOptions loads the select box contents for the loan form.
func (s *LoanService) FormOptions(ctx context.Context) (model.LoanFormOptions, error) {
	opts := model.LoanFormOptions{DefaultDueDate: s.Today().Add(defaultLoanPeriod)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		opts.Books, err = s.repo.ListBooks(gctx)
		return err
	})
	g.Go(func() (err error) {
		opts.Readers, err = s.repo.ListReaders(gctx)
		return err
	})
	g.Go(func() (err error) {
		opts.Librarians, err = s.repo.ListLibrarians(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.LoanFormOptions{}, storageErr(err)
	}
	return opts, nil
}

// Summary counts records for the dashboard.
func (s *LoanService) Summary(ctx context.Context) (model.Summary, error) {
	var sum model.Summary
	today := s.Today()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		books, err := s.repo.ListBooks(gctx)
		sum.Books = len(books)
		return err
	})
	g.Go(func() error {
		readers, err := s.repo.ListReaders(gctx)
		sum.Readers = len(readers)
		return err
	})
	g.Go(func() error {
		librarians, err := s.repo.ListLibrarians(gctx)
		sum.Librarians = len(librarians)
		return err
	})
	g.Go(func() error {
		loans, err := s.repo.ListLoans(gctx)
		for _, l := range loans {
			sum.Loans++
			if l.Active() {
				sum.ActiveLoans++
			}
			if l.Overdue(today) {
				sum.OverdueLoans++
			}
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Summary{}, storageErr(err)
	}
	return sum, nil
}

func (s *LoanService) publish(typ model.LoanEventType, loan model.Loan) {
	if s.events == nil {
		return
	}
	ev := model.LoanEvent{
		Type:        typ,
		LoanID:      loan.ID,
		BookID:      loan.BookID,
		ReaderID:    loan.ReaderID,
		LibrarianID: loan.LibrarianID,
		Timestamp:   s.now().UTC(),
	}
	if err := s.events.Enqueue(strconv.FormatInt(loan.ID, 10), ev); err != nil {
		s.log.Warn("publish loan event",
			zap.String("type", string(typ)),
			zap.Int64("loan_id", loan.ID),
			zap.Error(err))
	}
}
