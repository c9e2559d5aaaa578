package model

import (
	"strings"
	"time"
)

type Book struct {
	ID              int64  `json:"id" db:"id"`
	BookNumber      string `json:"bookNumber" db:"book_number"`
	Title           string `json:"title" db:"title"`
	Author          string `json:"author" db:"author"`
	PublicationYear int    `json:"publicationYear" db:"publication_year"`
}

type Reader struct {
	ID               int64      `json:"id" db:"id"`
	TicketNumber     string     `json:"ticketNumber" db:"ticket_number"`
	FullName         string     `json:"fullName" db:"full_name"`
	PhoneNumber      string     `json:"phoneNumber" db:"phone_number"`
	RegistrationDate *time.Time `json:"registrationDate,omitempty" db:"registration_date"`
}

const DefaultPosition = "Librarian"

type Librarian struct {
	ID              int64  `json:"id" db:"id"`
	LibrarianNumber string `json:"librarianNumber" db:"librarian_number"`
	FullName        string `json:"fullName" db:"full_name"`
	Position        string `json:"position" db:"position"`
}

type Loan struct {
	ID          int64      `json:"id" db:"id"`
	BookID      int64      `json:"bookId" db:"book_id"`
	ReaderID    int64      `json:"readerId" db:"reader_id"`
	LibrarianID int64      `json:"librarianId" db:"librarian_id"`
	LoanDate    time.Time  `json:"loanDate" db:"loan_date"`
	DueDate     time.Time  `json:"dueDate" db:"due_date"`
	ReturnDate  *time.Time `json:"returnDate,omitempty" db:"return_date"`

	// Set only when the loan was loaded with its references resolved.
	Book      *Book      `json:"book,omitempty" db:"-"`
	Reader    *Reader    `json:"reader,omitempty" db:"-"`
	Librarian *Librarian `json:"librarian,omitempty" db:"-"`
}

func (l Loan) Active() bool {
	return l.ReturnDate == nil
}

func (l Loan) Returned() bool {
	return l.ReturnDate != nil
}

// Overdue reports whether an open loan's due date is strictly before today.
func (l Loan) Overdue(today time.Time) bool {
	return l.ReturnDate == nil && l.DueDate.Before(today)
}

type LoanStatus string

const (
	LoanStatusAll      LoanStatus = ""
	LoanStatusActive   LoanStatus = "active"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusReturned LoanStatus = "returned"
)

// LoanFilter selects loans for the joined listing. Today is only consulted
// for LoanStatusOverdue.
type LoanFilter struct {
	Status LoanStatus
	Today  time.Time
}

type LoanEventType string

const (
	LoanIssued   LoanEventType = "LOAN_ISSUED"
	LoanReturned LoanEventType = "LOAN_RETURNED"
	LoanDeleted  LoanEventType = "LOAN_DELETED"
)

type LoanEvent struct {
	Type        LoanEventType `json:"type"`
	LoanID      int64         `json:"loanId"`
	BookID      int64         `json:"bookId"`
	ReaderID    int64         `json:"readerId"`
	LibrarianID int64         `json:"librarianId"`
	Timestamp   time.Time     `json:"timestamp"`
}

type LoanFormOptions struct {
	Books          []Book
	Readers        []Reader
	Librarians     []Librarian
	DefaultDueDate time.Time
}

type Summary struct {
	Books        int
	Readers      int
	Librarians   int
	Loans        int
	ActiveLoans  int
	OverdueLoans int
}

// Today truncates t to a UTC midnight carrying t's calendar date, the form
// dates are stored and compared in.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	return &t
}

type BookRequest struct {
	BookNumber      string `form:"bookNumber" validate:"required"`
	Title           string `form:"title" validate:"required"`
	Author          string `form:"author" validate:"required"`
	PublicationYear int    `form:"publicationYear" validate:"required,min=1500,max=2025"`
}

func NewBookRequest(b Book) BookRequest {
	return BookRequest{
		BookNumber:      b.BookNumber,
		Title:           b.Title,
		Author:          b.Author,
		PublicationYear: b.PublicationYear,
	}
}

func (r *BookRequest) Normalize() {
	r.BookNumber = strings.TrimSpace(r.BookNumber)
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
}

func (r BookRequest) Book(id int64) Book {
	return Book{
		ID:              id,
		BookNumber:      r.BookNumber,
		Title:           r.Title,
		Author:          r.Author,
		PublicationYear: r.PublicationYear,
	}
}

type ReaderRequest struct {
	TicketNumber     string `form:"ticketNumber" validate:"required"`
	FullName         string `form:"fullName" validate:"required"`
	PhoneNumber      string `form:"phoneNumber" validate:"required,phone"`
	RegistrationDate string `form:"registrationDate" validate:"omitempty,datetime=2006-01-02"`
}

func NewReaderRequest(r Reader) ReaderRequest {
	return ReaderRequest{
		TicketNumber:     r.TicketNumber,
		FullName:         r.FullName,
		PhoneNumber:      r.PhoneNumber,
		RegistrationDate: formatDate(r.RegistrationDate),
	}
}

func (r *ReaderRequest) Normalize() {
	r.TicketNumber = strings.TrimSpace(r.TicketNumber)
	r.FullName = strings.TrimSpace(r.FullName)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.RegistrationDate = strings.TrimSpace(r.RegistrationDate)
}

func (r ReaderRequest) Reader(id int64) Reader {
	return Reader{
		ID:               id,
		TicketNumber:     r.TicketNumber,
		FullName:         r.FullName,
		PhoneNumber:      r.PhoneNumber,
		RegistrationDate: parseDate(r.RegistrationDate),
	}
}

type LibrarianRequest struct {
	LibrarianNumber string `form:"librarianNumber" validate:"required"`
	FullName        string `form:"fullName" validate:"required"`
	Position        string `form:"position"`
}

func NewLibrarianRequest(l Librarian) LibrarianRequest {
	return LibrarianRequest{
		LibrarianNumber: l.LibrarianNumber,
		FullName:        l.FullName,
		Position:        l.Position,
	}
}

func (r *LibrarianRequest) Normalize() {
	r.LibrarianNumber = strings.TrimSpace(r.LibrarianNumber)
	r.FullName = strings.TrimSpace(r.FullName)
	r.Position = strings.TrimSpace(r.Position)
}

func (r LibrarianRequest) Librarian(id int64) Librarian {
	return Librarian{
		ID:              id,
		LibrarianNumber: r.LibrarianNumber,
		FullName:        r.FullName,
		Position:        r.Position,
	}
}

type LoanRequest struct {
	BookID      int64  `form:"bookId" validate:"required"`
	ReaderID    int64  `form:"readerId" validate:"required"`
	LibrarianID int64  `form:"librarianId" validate:"required"`
	LoanDate    string `form:"loanDate" validate:"omitempty,datetime=2006-01-02"`
	DueDate     string `form:"dueDate" validate:"required,datetime=2006-01-02,notpast"`
}

func (r *LoanRequest) Normalize() {
	r.LoanDate = strings.TrimSpace(r.LoanDate)
	r.DueDate = strings.TrimSpace(r.DueDate)
}

// Loan leaves LoanDate zero when the form did not carry one.
func (r LoanRequest) Loan() Loan {
	loan := Loan{
		BookID:      r.BookID,
		ReaderID:    r.ReaderID,
		LibrarianID: r.LibrarianID,
	}
	if d := parseDate(r.LoanDate); d != nil {
		loan.LoanDate = *d
	}
	if d := parseDate(r.DueDate); d != nil {
		loan.DueDate = *d
	}
	return loan
}
