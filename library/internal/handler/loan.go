package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-records/library/internal/model"
)

const loansPath = "/loans"

func (h *Handler) listLoans(c echo.Context, title string, loans []model.Loan) error {
	return h.renderLoans(c, view{Title: title, Items: loans})
}

// renderLoans fills in today's date and the active/overdue counts shown above every loan list.
func (h *Handler) renderLoans(c echo.Context, v view) error {
	sum, err := h.loans.Summary(c.Request().Context())
	if err != nil {
		h.log.Error("summary", zap.Error(err))
	}
	v.Today = h.loans.Today()
	v.Summary = sum
	return h.render(c, http.StatusOK, "loans/list.html", v)
}

func (h *Handler) ListLoans(c echo.Context) error {
	return h.listLoans(c, "All loans", h.loans.List(c.Request().Context()))
}

func (h *Handler) ListActiveLoans(c echo.Context) error {
	return h.listLoans(c, "Active loans", h.loans.ListActive(c.Request().Context()))
}

func (h *Handler) ListOverdueLoans(c echo.Context) error {
	return h.listLoans(c, "Overdue loans", h.loans.ListOverdue(c.Request().Context()))
}

func (h *Handler) ListReturnedLoans(c echo.Context) error {
	return h.listLoans(c, "Returned loans", h.loans.ListReturned(c.Request().Context()))
}

func (h *Handler) SearchLoans(c echo.Context) error {
	kw := c.QueryParam("keyword")
	return h.renderLoans(c, view{
		Title:   "Loans",
		Keyword: kw,
		Items:   h.loans.Search(c.Request().Context(), kw),
	})
}

func (h *Handler) NewLoan(c echo.Context) error {
	opts, err := h.loans.FormOptions(c.Request().Context())
	if err != nil {
		return h.fail(c, loansPath, "Could not open the loan form", err)
	}
	req := model.LoanRequest{
		LoanDate: h.loans.Today().Format(time.DateOnly),
		DueDate:  opts.DefaultDueDate.Format(time.DateOnly),
	}
	return h.loanForm(c, http.StatusOK, req, opts, nil)
}

func (h *Handler) CreateLoan(c echo.Context) error {
	ctx := c.Request().Context()
	var req model.LoanRequest
	err := bindForm(c, &req)
	if err == nil {
		if _, err = h.loans.Save(ctx, req.Loan()); err == nil {
			return h.redirect(c, loansPath, flashSuccess, "Book issued")
		}
	}
	fields, ok := fieldErrors(err)
	if !ok {
		return h.fail(c, loansPath, "Could not issue the book", err)
	}
	opts, err := h.loans.FormOptions(ctx)
	if err != nil {
		return h.fail(c, loansPath, "Could not open the loan form", err)
	}
	return h.loanForm(c, http.StatusUnprocessableEntity, req, opts, fields)
}

func (h *Handler) ReturnLoan(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.redirect(c, loansPath, flashError, "Loan not found")
	}
	if _, err := h.loans.ReturnBook(c.Request().Context(), id); err != nil {
		return h.fail(c, loansPath, "Could not return the book", err)
	}
	return h.redirect(c, loansPath, flashSuccess, "Book returned")
}

func (h *Handler) DeleteLoan(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.redirect(c, loansPath, flashError, "Loan not found")
	}
	if err := h.loans.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, loansPath, "Could not delete the loan", err)
	}
	return h.redirect(c, loansPath, flashSuccess, "Loan record deleted")
}

func (h *Handler) loanForm(c echo.Context, status int, req model.LoanRequest, opts model.LoanFormOptions, fields map[string]string) error {
	return h.render(c, status, "loans/form.html", view{
		Title:   "Issue a book",
		Form:    req,
		Errors:  fields,
		Action:  loansPath,
		Options: opts,
	})
}
