package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-records/library/internal/errs"
	"github.com/Astemirdum/library-records/library/internal/model"
)

const librariansPath = "/librarians"

func (h *Handler) ListLibrarians(c echo.Context) error {
	return h.render(c, http.StatusOK, "librarians/list.html", view{
		Title: "Librarians",
		Items: h.librarians.List(c.Request().Context()),
	})
}

func (h *Handler) SearchLibrarians(c echo.Context) error {
	kw := c.QueryParam("keyword")
	return h.render(c, http.StatusOK, "librarians/list.html", view{
		Title:   "Librarians",
		Keyword: kw,
		Items:   h.librarians.Search(c.Request().Context(), kw),
	})
}

func (h *Handler) NewLibrarian(c echo.Context) error {
	return h.librarianForm(c, http.StatusOK, model.LibrarianRequest{}, 0, nil)
}

func (h *Handler) EditLibrarian(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.redirect(c, librariansPath, flashError, "Librarian not found")
	}
	librarian, err := h.librarians.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return h.redirect(c, librariansPath, flashError, "Librarian not found")
		}
		return h.fail(c, librariansPath, "Could not open the librarian", err)
	}
	return h.librarianForm(c, http.StatusOK, model.NewLibrarianRequest(librarian), id, nil)
}

func (h *Handler) CreateLibrarian(c echo.Context) error {
	return h.saveLibrarian(c, 0)
}

func (h *Handler) UpdateLibrarian(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.redirect(c, librariansPath, flashError, "Librarian not found")
	}
	return h.saveLibrarian(c, id)
}

func (h *Handler) saveLibrarian(c echo.Context, id int64) error {
	var req model.LibrarianRequest
	err := bindForm(c, &req)
	if err == nil {
		_, err = h.librarians.Save(c.Request().Context(), req.Librarian(id))
	}
	if fields, ok := fieldErrors(err); ok {
		return h.librarianForm(c, http.StatusUnprocessableEntity, req, id, fields)
	}
	if err != nil {
		return h.fail(c, librariansPath, "Could not save the librarian", err)
	}
	if id == 0 {
		return h.redirect(c, librariansPath, flashSuccess, "Librarian added")
	}
	return h.redirect(c, librariansPath, flashSuccess, "Librarian updated")
}

func (h *Handler) DeleteLibrarian(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.redirect(c, librariansPath, flashError, "Librarian not found")
	}
	if err := h.librarians.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, librariansPath, "Could not delete the librarian", err)
	}
	return h.redirect(c, librariansPath, flashSuccess, "Librarian deleted")
}

func (h *Handler) librarianForm(c echo.Context, status int, req model.LibrarianRequest, id int64, fields map[string]string) error {
	title := "New librarian"
	if id != 0 {
		title = "Edit librarian"
	}
	return h.render(c, status, "librarians/form.html", view{
		Title:  title,
		Form:   req,
		Errors: fields,
		Action: formAction(librariansPath, id),
	})
}
