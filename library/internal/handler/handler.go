package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-records/library/internal/errs"
	"github.com/Astemirdum/library-records/library/internal/model"
	md "github.com/Astemirdum/library-records/pkg/middleware"
	"github.com/Astemirdum/library-records/pkg/validate"
)

type Handler struct {
	books      BookService
	readers    ReaderService
	librarians LibrarianService
	loans      LoanService
	log        *zap.Logger
}

func New(books BookService, readers ReaderService, librarians LibrarianService, loans LoanService, log *zap.Logger) *Handler {
	return &Handler{
		books:      books,
		readers:    readers,
		librarians: librarians,
		loans:      loans,
		log:        log.Named("handler"),
	}
}

func (h *Handler) NewRouter() (*echo.Echo, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Validator = validate.NewCustomValidator()

	const (
		baseRPS = 10
		webRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
	}))
	e.Use(middleware.RequestIDWithConfig(md.RequestIDConfig()))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	web := e.Group("",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		md.NewRateLimiter(webRPS),
	)
	h.Register(web)

	return e, nil
}

// Register mounts the HTML pages on g.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/", h.Index)
	g.GET("/dashboard", h.Dashboard)

	g.GET("/books", h.ListBooks)
	g.GET("/books/new", h.NewBook)
	g.GET("/books/edit/:id", h.EditBook)
	g.GET("/books/search", h.SearchBooks)
	g.POST("/books", h.CreateBook)
	g.POST("/books/update/:id", h.UpdateBook)
	g.GET("/books/delete/:id", h.DeleteBook)

	g.GET("/readers", h.ListReaders)
	g.GET("/readers/new", h.NewReader)
	g.GET("/readers/edit/:id", h.EditReader)
	g.GET("/readers/search", h.SearchReaders)
	g.POST("/readers", h.CreateReader)
	g.POST("/readers/update/:id", h.UpdateReader)
	g.GET("/readers/delete/:id", h.DeleteReader)

	g.GET("/librarians", h.ListLibrarians)
	g.GET("/librarians/new", h.NewLibrarian)
	g.GET("/librarians/edit/:id", h.EditLibrarian)
	g.GET("/librarians/search", h.SearchLibrarians)
	g.POST("/librarians", h.CreateLibrarian)
	g.POST("/librarians/update/:id", h.UpdateLibrarian)
	g.GET("/librarians/delete/:id", h.DeleteLibrarian)

	g.GET("/loans", h.ListLoans)
	g.GET("/loans/new", h.NewLoan)
	g.GET("/loans/active", h.ListActiveLoans)
	g.GET("/loans/overdue", h.ListOverdueLoans)
	g.GET("/loans/returned", h.ListReturnedLoans)
	g.GET("/loans/search", h.SearchLoans)
	g.POST("/loans", h.CreateLoan)
	g.GET("/loans/return/:id", h.ReturnLoan)
	g.GET("/loans/delete/:id", h.DeleteLoan)
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// view is the data every page template receives.
type view struct {
	Title   string
	Flash   *Flash
	Keyword string
	Today   time.Time
	Items   any
	Form    any
	Errors  map[string]string
	Action  string
	Options model.LoanFormOptions
	Summary model.Summary
}

func (h *Handler) render(c echo.Context, status int, name string, v view) error {
	v.Flash = popFlash(c)
	return c.Render(status, name, v)
}

func (h *Handler) redirect(c echo.Context, to, kind, message string) error {
	setFlash(c, kind, message)
	return c.Redirect(http.StatusSeeOther, to)
}

// fail turns a service error into an error flash on the collection page.
func (h *Handler) fail(c echo.Context, to, action string, err error) error {
	var msg string
	switch {
	case errors.Is(err, errs.ErrNotFound):
		msg = action + ": record not found"
	case errors.Is(err, errs.ErrIntegrity):
		msg = action + ": " + err.Error()
	default:
		h.log.Error(action, zap.Error(err), zap.String("path", c.Path()))
		msg = action + ": internal error, please try again later"
	}
	return h.redirect(c, to, flashError, msg)
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// bindForm binds and validates a form request. Failures unwrap to
// errs.ErrValidation so fieldErrors can show the submission again.
func bindForm(c echo.Context, req interface{ Normalize() }) error {
	if err := c.Bind(req); err != nil {
		return errs.Invalid("", "the form contains malformed values")
	}
	req.Normalize()
	return errs.Validation(c.Validate(req))
}

// fieldErrors reports a validation or conflict failure as form field -> message.
func fieldErrors(err error) (map[string]string, bool) {
	if fe, ok := errs.AsField(err); ok {
		return map[string]string{fe.Field: fe.Message}, true
	}
	if errors.Is(err, errs.ErrValidation) {
		return validate.FieldErrors(err), true
	}
	return nil, false
}

func formAction(collection string, id int64) string {
	if id == 0 {
		return collection
	}
	return collection + "/update/" + strconv.FormatInt(id, 10)
}

func (h *Handler) Index(c echo.Context) error {
	return h.render(c, http.StatusOK, "index.html", view{Title: "Library"})
}

func (h *Handler) Dashboard(c echo.Context) error {
	sum, err := h.loans.Summary(c.Request().Context())
	if err != nil {
		h.log.Error("summary", zap.Error(err))
	}
	return h.render(c, http.StatusOK, "dashboard.html", view{
		Title:   "Dashboard",
		Today:   h.loans.Today(),
		Summary: sum,
	})
}
