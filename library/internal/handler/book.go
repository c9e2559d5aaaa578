package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-records/library/internal/errs"
	"github.com/Astemirdum/library-records/library/internal/model"
)

const booksPath = "/books"

func (h *Handler) ListBooks(c echo.Context) error {
	return h.render(c, http.StatusOK, "books/list.html", view{
		Title: "Books",
		Items: h.books.List(c.Request().Context()),
	})
}

func (h *Handler) SearchBooks(c echo.Context) error {
	kw := c.QueryParam("keyword")
	return h.render(c, http.StatusOK, "books/list.html", view{
		Title:   "Books",
		Keyword: kw,
		Items:   h.books.Search(c.Request().Context(), kw),
	})
}

func (h *Handler) NewBook(c echo.Context) error {
	return h.bookForm(c, http.StatusOK, model.BookRequest{}, 0, nil)
}

func (h *Handler) EditBook(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.redirect(c, booksPath, flashError, "Book not found")
	}
	book, err := h.books.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return h.redirect(c, booksPath, flashError, "Book not found")
		}
		return h.fail(c, booksPath, "Could not open the book", err)
	}
	return h.bookForm(c, http.StatusOK, model.NewBookRequest(book), id, nil)
}

func (h *Handler) CreateBook(c echo.Context) error {
	return h.saveBook(c, 0)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.redirect(c, booksPath, flashError, "Book not found")
	}
	return h.saveBook(c, id)
}

func (h *Handler) saveBook(c echo.Context, id int64) error {
	var req model.BookRequest
	err := bindForm(c, &req)
	if err == nil {
		_, err = h.books.Save(c.Request().Context(), req.Book(id))
	}
	if fields, ok := fieldErrors(err); ok {
		return h.bookForm(c, http.StatusUnprocessableEntity, req, id, fields)
	}
	if err != nil {
		return h.fail(c, booksPath, "Could not save the book", err)
	}
	if id == 0 {
		return h.redirect(c, booksPath, flashSuccess, "Book added")
	}
	return h.redirect(c, booksPath, flashSuccess, "Book updated")
}

func (h *Handler) DeleteBook(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.redirect(c, booksPath, flashError, "Book not found")
	}
	if err := h.books.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, booksPath, "Could not delete the book", err)
	}
	return h.redirect(c, booksPath, flashSuccess, "Book deleted")
}

func (h *Handler) bookForm(c echo.Context, status int, req model.BookRequest, id int64, fields map[string]string) error {
	title := "New book"
	if id != 0 {
		title = "Edit book"
	}
	return h.render(c, status, "books/form.html", view{
		Title:  title,
		Form:   req,
		Errors: fields,
		Action: formAction(booksPath, id),
	})
}
