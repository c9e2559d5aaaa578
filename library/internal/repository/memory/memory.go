// Package memory keeps the library records in process memory. It honours the
// same unique keys and delete rules as the Postgres schema.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Astemirdum/library-records/library/internal/errs"
	"github.com/Astemirdum/library-records/library/internal/model"
	"github.com/Astemirdum/library-records/library/internal/repository"
)

var _ repository.Repository = (*Store)(nil)

type Store struct {
	mu         sync.RWMutex
	books      map[int64]model.Book
	readers    map[int64]model.Reader
	librarians map[int64]model.Librarian
	loans      map[int64]model.Loan
	lastID     map[string]int64
}

func NewStore() *Store {
	return &Store{
		books:      make(map[int64]model.Book),
		readers:    make(map[int64]model.Reader),
		librarians: make(map[int64]model.Librarian),
		loans:      make(map[int64]model.Loan),
		lastID:     make(map[string]int64),
	}
}

func (s *Store) nextID(table string) int64 {
	s.lastID[table]++
	return s.lastID[table]
}

func sortedByID[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// Books

func (s *Store) ListBooks(_ context.Context) ([]model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.books), nil
}

func (s *Store) GetBook(_ context.Context, id int64) (model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	return b, nil
}

func (s *Store) GetBookByNumber(_ context.Context, number string) (model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		if b.BookNumber == number {
			return b, nil
		}
	}
	return model.Book{}, errs.ErrNotFound
}

func (s *Store) CreateBook(_ context.Context, book model.Book) (model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkBook(book); err != nil {
		return model.Book{}, err
	}
	book.ID = s.nextID("books")
	s.books[book.ID] = book
	return book, nil
}

func (s *Store) UpdateBook(_ context.Context, book model.Book) (model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[book.ID]; !ok {
		return model.Book{}, errs.ErrNotFound
	}
	if err := s.checkBook(book); err != nil {
		return model.Book{}, err
	}
	s.books[book.ID] = book
	return book, nil
}

func (s *Store) checkBook(book model.Book) error {
	for _, b := range s.books {
		if b.ID != book.ID && b.BookNumber == book.BookNumber {
			return errs.Conflict("bookNumber", repository.ConflictBookNumber)
		}
	}
	return nil
}

func (s *Store) DeleteBook(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.books, id)
	for loanID, l := range s.loans {
		if l.BookID == id {
			delete(s.loans, loanID)
		}
	}
	return nil
}

// Readers

func (s *Store) ListReaders(_ context.Context) ([]model.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.readers), nil
}

func (s *Store) GetReader(_ context.Context, id int64) (model.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readers[id]
	if !ok {
		return model.Reader{}, errs.ErrNotFound
	}
	return r, nil
}

func (s *Store) GetReaderByTicketNumber(_ context.Context, number string) (model.Reader, error) {
	return s.findReader(func(r model.Reader) bool { return r.TicketNumber == number })
}

func (s *Store) GetReaderByPhoneNumber(_ context.Context, phone string) (model.Reader, error) {
	return s.findReader(func(r model.Reader) bool { return r.PhoneNumber == phone })
}

func (s *Store) findReader(match func(model.Reader) bool) (model.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range sortedByID(s.readers) {
		if match(r) {
			return r, nil
		}
	}
	return model.Reader{}, errs.ErrNotFound
}

func (s *Store) CreateReader(_ context.Context, reader model.Reader) (model.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkReader(reader); err != nil {
		return model.Reader{}, err
	}
	reader.ID = s.nextID("readers")
	s.readers[reader.ID] = reader
	return reader, nil
}

func (s *Store) UpdateReader(_ context.Context, reader model.Reader) (model.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.readers[reader.ID]; !ok {
		return model.Reader{}, errs.ErrNotFound
	}
	if err := s.checkReader(reader); err != nil {
		return model.Reader{}, err
	}
	s.readers[reader.ID] = reader
	return reader, nil
}

func (s *Store) checkReader(reader model.Reader) error {
	for _, r := range s.readers {
		if r.ID == reader.ID {
			continue
		}
		if r.TicketNumber == reader.TicketNumber {
			return errs.Conflict("ticketNumber", repository.ConflictTicketNumber)
		}
		if r.PhoneNumber == reader.PhoneNumber {
			return errs.Conflict("phoneNumber", repository.ConflictPhoneNumber)
		}
	}
	return nil
}

func (s *Store) DeleteReader(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.readers[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.readers, id)
	for loanID, l := range s.loans {
		if l.ReaderID == id {
			delete(s.loans, loanID)
		}
	}
	return nil
}

// Librarians

func (s *Store) ListLibrarians(_ context.Context) ([]model.Librarian, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.librarians), nil
}

func (s *Store) GetLibrarian(_ context.Context, id int64) (model.Librarian, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.librarians[id]
	if !ok {
		return model.Librarian{}, errs.ErrNotFound
	}
	return l, nil
}

func (s *Store) GetLibrarianByNumber(_ context.Context, number string) (model.Librarian, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.librarians {
		if l.LibrarianNumber == number {
			return l, nil
		}
	}
	return model.Librarian{}, errs.ErrNotFound
}

func (s *Store) CreateLibrarian(_ context.Context, librarian model.Librarian) (model.Librarian, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLibrarian(librarian); err != nil {
		return model.Librarian{}, err
	}
	if librarian.Position == "" {
		librarian.Position = model.DefaultPosition
	}
	librarian.ID = s.nextID("librarians")
	s.librarians[librarian.ID] = librarian
	return librarian, nil
}

func (s *Store) UpdateLibrarian(_ context.Context, librarian model.Librarian) (model.Librarian, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.librarians[librarian.ID]; !ok {
		return model.Librarian{}, errs.ErrNotFound
	}
	if err := s.checkLibrarian(librarian); err != nil {
		return model.Librarian{}, err
	}
	s.librarians[librarian.ID] = librarian
	return librarian, nil
}

func (s *Store) checkLibrarian(librarian model.Librarian) error {
	for _, l := range s.librarians {
		if l.ID != librarian.ID && l.LibrarianNumber == librarian.LibrarianNumber {
			return errs.Conflict("librarianNumber", repository.ConflictLibrarianNumber)
		}
	}
	return nil
}

func (s *Store) DeleteLibrarian(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.librarians[id]; !ok {
		return errs.ErrNotFound
	}
	for _, l := range s.loans {
		if l.LibrarianID == id {
			return errs.Integrity(fmt.Sprintf("librarian %d is still referenced by loans", id))
		}
	}
	delete(s.librarians, id)
	return nil
}

// Loans

func (s *Store) sortedLoans() []model.Loan {
	loans := sortedByID(s.loans)
	sort.SliceStable(loans, func(i, j int) bool {
		if !loans[i].LoanDate.Equal(loans[j].LoanDate) {
			return loans[i].LoanDate.After(loans[j].LoanDate)
		}
		return loans[i].ID > loans[j].ID
	})
	return loans
}

func (s *Store) ListLoans(_ context.Context) ([]model.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLoans(), nil
}

func (s *Store) ListLoansWithDetails(_ context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Loan, 0, len(s.loans))
	for _, l := range s.sortedLoans() {
		switch filter.Status {
		case model.LoanStatusActive:
			if !l.Active() {
				continue
			}
		case model.LoanStatusOverdue:
			if !l.Overdue(filter.Today) {
				continue
			}
		case model.LoanStatusReturned:
			if !l.Returned() {
				continue
			}
		}
		b, r, lb := s.books[l.BookID], s.readers[l.ReaderID], s.librarians[l.LibrarianID]
		l.Book, l.Reader, l.Librarian = &b, &r, &lb
		out = append(out, l)
	}
	return out, nil
}

func (s *Store) GetLoan(_ context.Context, id int64) (model.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.loans[id]
	if !ok {
		return model.Loan{}, errs.ErrNotFound
	}
	return l, nil
}

func (s *Store) CreateLoan(_ context.Context, loan model.Loan) (model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLoanRefs(loan); err != nil {
		return model.Loan{}, err
	}
	loan.ID = s.nextID("loans")
	loan.Book, loan.Reader, loan.Librarian = nil, nil, nil
	s.loans[loan.ID] = loan
	return loan, nil
}

func (s *Store) UpdateLoan(_ context.Context, loan model.Loan) (model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loans[loan.ID]; !ok {
		return model.Loan{}, errs.ErrNotFound
	}
	if err := s.checkLoanRefs(loan); err != nil {
		return model.Loan{}, err
	}
	loan.Book, loan.Reader, loan.Librarian = nil, nil, nil
	s.loans[loan.ID] = loan
	return loan, nil
}

func (s *Store) checkLoanRefs(loan model.Loan) error {
	if _, ok := s.books[loan.BookID]; !ok {
		return errs.Integrity(fmt.Sprintf("book %d does not exist", loan.BookID))
	}
	if _, ok := s.readers[loan.ReaderID]; !ok {
		return errs.Integrity(fmt.Sprintf("reader %d does not exist", loan.ReaderID))
	}
	if _, ok := s.librarians[loan.LibrarianID]; !ok {
		return errs.Integrity(fmt.Sprintf("librarian %d does not exist", loan.LibrarianID))
	}
	return nil
}

func (s *Store) DeleteLoan(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loans[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.loans, id)
	return nil
}

func (s *Store) HasOpenLoanForBook(_ context.Context, bookID int64) (bool, error) {
	return s.anyLoan(func(l model.Loan) bool { return l.BookID == bookID && l.Active() }), nil
}

func (s *Store) HasOpenLoanForReader(_ context.Context, readerID int64) (bool, error) {
	return s.anyLoan(func(l model.Loan) bool { return l.ReaderID == readerID && l.Active() }), nil
}

func (s *Store) HasLoanForLibrarian(_ context.Context, librarianID int64) (bool, error) {
	return s.anyLoan(func(l model.Loan) bool { return l.LibrarianID == librarianID }), nil
}

func (s *Store) anyLoan(match func(model.Loan) bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.loans {
		if match(l) {
			return true
		}
	}
	return false
}
