package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-records/library/internal/errs"
	"github.com/Astemirdum/library-records/library/internal/model"
	"github.com/Astemirdum/library-records/library/internal/repository/memory"
	"github.com/Astemirdum/library-records/library/internal/service"
)

var now = time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return now }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type recorder struct {
	mu     sync.Mutex
	events []model.LoanEvent
	err    error
}

func (r *recorder) Enqueue(_ string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, v.(model.LoanEvent))
	return r.err
}

func (r *recorder) types() []model.LoanEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.LoanEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type services struct {
	store      *memory.Store
	books      *service.BookService
	readers    *service.ReaderService
	librarians *service.LibrarianService
	loans      *service.LoanService
	events     *recorder
}

func newServices(t *testing.T) services {
	t.Helper()
	store := memory.NewStore()
	log := zap.NewNop()
	events := &recorder{}
	return services{
		store:      store,
		books:      service.NewBookService(store, log),
		readers:    service.NewReaderService(store, log),
		librarians: service.NewLibrarianService(store, log),
		loans:      service.NewLoanService(store, events, log, service.WithClock(clock)),
		events:     events,
	}
}

type fixture struct {
	book      model.Book
	reader    model.Reader
	librarian model.Librarian
}

func (s services) seed(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	book, err := s.books.Save(ctx, model.Book{BookNumber: "B-1", Title: "War and Peace", Author: "Leo Tolstoy", PublicationYear: 1869})
	require.NoError(t, err)
	reader, err := s.readers.Save(ctx, model.Reader{TicketNumber: "T-1", FullName: "Anna Ivanova", PhoneNumber: "+7(912)345-67-89"})
	require.NoError(t, err)
	librarian, err := s.librarians.Save(ctx, model.Librarian{LibrarianNumber: "L-1", FullName: "Olga Petrova"})
	require.NoError(t, err)
	return fixture{book: book, reader: reader, librarian: librarian}
}

func (s services) lend(t *testing.T, f fixture, due time.Time) model.Loan {
	t.Helper()
	loan, err := s.loans.Save(context.Background(), model.Loan{
		BookID:      f.book.ID,
		ReaderID:    f.reader.ID,
		LibrarianID: f.librarian.ID,
		DueDate:     due,
	})
	require.NoError(t, err)
	return loan
}

func requireField(t *testing.T, err error, kind error, field string) {
	t.Helper()
	require.ErrorIs(t, err, kind)
	fe, ok := errs.AsField(err)
	require.True(t, ok)
	require.Equal(t, field, fe.Field)
}

func TestBookService_Save(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServices(t)
	f := s.seed(t)
	other, err := s.books.Save(ctx, model.Book{BookNumber: "B-2", Title: "Anna Karenina", Author: "Leo Tolstoy", PublicationYear: 1878})
	require.NoError(t, err)

	tests := []struct {
		name    string
		book    model.Book
		wantErr error
	}{
		{
			name:    "new book with taken number",
			book:    model.Book{BookNumber: "B-1", Title: "x", Author: "y", PublicationYear: 2000},
			wantErr: errs.ErrConflict,
		},
		{
			name:    "update onto another book's number",
			book:    model.Book{ID: other.ID, BookNumber: "B-1", Title: "Anna Karenina", Author: "Leo Tolstoy", PublicationYear: 1878},
			wantErr: errs.ErrConflict,
		},
		{
			name: "update keeping own number",
			book: model.Book{ID: f.book.ID, BookNumber: "B-1", Title: "War and Peace", Author: "Leo Tolstoy", PublicationYear: 1869},
		},
		{
			name:    "update unknown id",
			book:    model.Book{ID: 999, BookNumber: "B-999", Title: "x", Author: "y", PublicationYear: 2000},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		got, err := s.books.Save(ctx, tt.book)
		if tt.wantErr == nil {
			require.NoError(t, err, tt.name)
			require.Equal(t, tt.book, got, tt.name)
			continue
		}
		require.ErrorIs(t, err, tt.wantErr, tt.name)
		if errors.Is(tt.wantErr, errs.ErrConflict) {
			requireField(t, err, errs.ErrConflict, "bookNumber")
		}
	}

	ok, err := s.books.ExistsByBookNumber(ctx, "B-2")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.books.ExistsByBookNumber(ctx, "B-3")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReaderService_Save(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServices(t)
	f := s.seed(t)

	_, err := s.readers.Save(ctx, model.Reader{TicketNumber: "T-1", FullName: "Ivan", PhoneNumber: "+7(900)000-00-00"})
	requireField(t, err, errs.ErrConflict, "ticketNumber")

	_, err = s.readers.Save(ctx, model.Reader{TicketNumber: "T-2", FullName: "Ivan", PhoneNumber: "+7(912)345-67-89"})
	requireField(t, err, errs.ErrConflict, "phoneNumber")

	second, err := s.readers.Save(ctx, model.Reader{TicketNumber: "T-2", FullName: "Ivan", PhoneNumber: "+7(900)000-00-00"})
	require.NoError(t, err)

	second.PhoneNumber = f.reader.PhoneNumber
	_, err = s.readers.Save(ctx, second)
	requireField(t, err, errs.ErrConflict, "phoneNumber")

	f.reader.FullName = "Anna Sidorova"
	updated, err := s.readers.Save(ctx, f.reader)
	require.NoError(t, err)
	require.Equal(t, "Anna Sidorova", updated.FullName)

	used, err := s.readers.IsPhoneNumberUsedByOtherReader(ctx, f.reader.ID, f.reader.PhoneNumber)
	require.NoError(t, err)
	require.False(t, used)
	used, err = s.readers.IsPhoneNumberUsedByOtherReader(ctx, second.ID, f.reader.PhoneNumber)
	require.NoError(t, err)
	require.True(t, used)

	ok, err := s.readers.ExistsByPhoneNumber(ctx, "+7(900)000-00-00")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.readers.ExistsByTicketNumber(ctx, "T-9")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLibrarianService_Save(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServices(t)
	f := s.seed(t)
	require.Equal(t, model.DefaultPosition, f.librarian.Position)

	_, err := s.librarians.Save(ctx, model.Librarian{LibrarianNumber: "L-1", FullName: "Someone"})
	requireField(t, err, errs.ErrConflict, "librarianNumber")

	head, err := s.librarians.Save(ctx, model.Librarian{LibrarianNumber: "L-2", FullName: "Boss", Position: "Head"})
	require.NoError(t, err)
	require.Equal(t, "Head", head.Position)

	ok, err := s.librarians.ExistsByLibrarianNumber(ctx, "L-2")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBookService_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServices(t)
	f := s.seed(t)
	loan := s.lend(t, f, date(2024, time.June, 29))

	err := s.books.Delete(ctx, f.book.ID)
	require.ErrorIs(t, err, errs.ErrIntegrity)

	err = s.readers.Delete(ctx, f.reader.ID)
	require.ErrorIs(t, err, errs.ErrIntegrity)

	_, err = s.loans.ReturnBook(ctx, loan.ID)
	require.NoError(t, err)

	require.NoError(t, s.books.Delete(ctx, f.book.ID))
	require.NoError(t, s.readers.Delete(ctx, f.reader.ID))

	require.ErrorIs(t, s.books.Delete(ctx, f.book.ID), errs.ErrNotFound)
	require.ErrorIs(t, s.readers.Delete(ctx, f.reader.ID), errs.ErrNotFound)
}

func TestLibrarianService_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServices(t)
	f := s.seed(t)
	loan := s.lend(t, f, date(2024, time.June, 29))

	require.ErrorIs(t, s.librarians.Delete(ctx, f.librarian.ID), errs.ErrIntegrity)

	_, err := s.loans.ReturnBook(ctx, loan.ID)
	require.NoError(t, err)
	require.ErrorIs(t, s.librarians.Delete(ctx, f.librarian.ID), errs.ErrIntegrity)

	require.NoError(t, s.loans.Delete(ctx, loan.ID))
	require.NoError(t, s.librarians.Delete(ctx, f.librarian.ID))
	require.ErrorIs(t, s.librarians.Delete(ctx, f.librarian.ID), errs.ErrNotFound)
}

func TestLoanService_ReturnBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServices(t)
	f := s.seed(t)
	loan := s.lend(t, f, date(2024, time.June, 29))
	require.Equal(t, date(2024, time.June, 15), loan.LoanDate)

	returned, err := s.loans.ReturnBook(ctx, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnDate)
	require.Equal(t, date(2024, time.June, 15), *returned.ReturnDate)

	again, err := s.loans.ReturnBook(ctx, loan.ID)
	require.NoError(t, err)
	require.Equal(t, *returned.ReturnDate, *again.ReturnDate)

	_, err = s.loans.ReturnBook(ctx, 999)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.Equal(t, []model.LoanEventType{model.LoanIssued, model.LoanReturned}, s.events.types())
}

func TestLoanService_ListOverdue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServices(t)
	f := s.seed(t)
	overdue := s.lend(t, f, date(2023, time.January, 1))
	s.lend(t, f, date(2024, time.June, 15))
	closed := s.lend(t, f, date(2023, time.January, 1))
	_, err := s.loans.ReturnBook(ctx, closed.ID)
	require.NoError(t, err)

	got := s.loans.ListOverdue(ctx)
	require.Len(t, got, 1)
	require.Equal(t, overdue.ID, got[0].ID)
	require.NotNil(t, got[0].Book)
	require.Equal(t, "War and Peace", got[0].Book.Title)

	require.Len(t, s.loans.ListActive(ctx), 2)
	returned := s.loans.ListReturned(ctx)
	require.Len(t, returned, 1)
	require.Equal(t, closed.ID, returned[0].ID)
}

func TestService_Search(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServices(t)
	f := s.seed(t)
	_, err := s.books.Save(ctx, model.Book{BookNumber: "B-2", Title: "Dead Souls", Author: "Nikolai Gogol", PublicationYear: 1842})
	require.NoError(t, err)
	loan := s.lend(t, f, date(2024, time.June, 29))

	books := s.books.Search(ctx, "  tolstoy ")
	require.Len(t, books, 1)
	require.Equal(t, "Leo Tolstoy", books[0].Author)
	require.Len(t, s.books.Search(ctx, "SOULS"), 1)
	require.Len(t, s.books.Search(ctx, ""), 2)
	require.Empty(t, s.books.Search(ctx, "dostoevsky"))

	require.Len(t, s.readers.Search(ctx, "ivanova"), 1)
	require.Len(t, s.librarians.Search(ctx, "petrova"), 1)

	for _, kw := range []string{"war", "TOLSTOY", "anna", "olga", "t-1", "345-67", "b-1"} {
		got := s.loans.Search(ctx, kw)
		require.Len(t, got, 1, kw)
		require.Equal(t, loan.ID, got[0].ID, kw)
	}
	require.Empty(t, s.loans.Search(ctx, "gogol"))
	require.Len(t, s.loans.Search(ctx, " "), 1)
}

func TestLoanService_Scenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServices(t)
	f := s.seed(t)

	loan := s.lend(t, f, date(2024, time.June, 29))
	active := s.loans.ListActive(ctx)
	require.Len(t, active, 1)
	require.Equal(t, loan.ID, active[0].ID)

	_, err := s.loans.ReturnBook(ctx, loan.ID)
	require.NoError(t, err)
	require.Empty(t, s.loans.ListActive(ctx))
	require.Len(t, s.loans.List(ctx), 1)
}

func TestLoanService_FormOptionsAndSummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServices(t)
	f := s.seed(t)
	s.lend(t, f, date(2023, time.January, 1))
	closed := s.lend(t, f, date(2024, time.July, 1))
	_, err := s.loans.ReturnBook(ctx, closed.ID)
	require.NoError(t, err)

	opts, err := s.loans.FormOptions(ctx)
	require.NoError(t, err)
	require.Len(t, opts.Books, 1)
	require.Len(t, opts.Readers, 1)
	require.Len(t, opts.Librarians, 1)
	require.Equal(t, date(2024, time.June, 29), opts.DefaultDueDate)

	sum, err := s.loans.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, model.Summary{Books: 1, Readers: 1, Librarians: 1, Loans: 2, ActiveLoans: 1, OverdueLoans: 1}, sum)
}

func TestLoanService_PublishFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServices(t)
	f := s.seed(t)
	s.events.err = errors.New("broker down")

	loan := s.lend(t, f, date(2024, time.June, 29))
	require.NotZero(t, loan.ID)
	require.NoError(t, s.loans.Delete(ctx, loan.ID))
	require.Equal(t, []model.LoanEventType{model.LoanIssued, model.LoanDeleted}, s.events.types())
	require.ErrorIs(t, s.loans.Delete(ctx, loan.ID), errs.ErrNotFound)
}

type brokenStore struct {
	*memory.Store
}

var errDB = errors.New("connection refused")

func (brokenStore) ListBooks(context.Context) ([]model.Book, error) {
	return nil, errDB
}

func (brokenStore) ListLoansWithDetails(context.Context, model.LoanFilter) ([]model.Loan, error) {
	return nil, errDB
}

func (brokenStore) GetBook(context.Context, int64) (model.Book, error) {
	return model.Book{}, errDB
}

func TestService_StorageFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newServices(t)
	f := s.seed(t)
	loan := s.lend(t, f, date(2024, time.June, 29))

	store := brokenStore{Store: s.store}
	books := service.NewBookService(store, zap.NewNop())
	loans := service.NewLoanService(store, nil, zap.NewNop(), service.WithClock(clock))

	got := books.List(ctx)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Empty(t, books.Search(ctx, "war"))

	_, err := books.Get(ctx, f.book.ID)
	require.ErrorIs(t, err, errs.ErrStorage)
	require.ErrorIs(t, err, errDB)

	// the joined listing fails, the bare one still answers
	all := loans.List(ctx)
	require.Len(t, all, 1)
	require.Equal(t, loan.ID, all[0].ID)
	require.Nil(t, all[0].Book)
	require.Empty(t, loans.ListActive(ctx))

	_, err = loans.FormOptions(ctx)
	require.ErrorIs(t, err, errs.ErrStorage)
}
