package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-records/library/internal/errs"
	"github.com/Astemirdum/library-records/library/internal/model"
)

const readersPath = "/readers"

func (h *Handler) ListReaders(c echo.Context) error {
	return h.render(c, http.StatusOK, "readers/list.html", view{
		Title: "Readers",
		Items: h.readers.List(c.Request().Context()),
	})
}

func (h *Handler) SearchReaders(c echo.Context) error {
	kw := c.QueryParam("keyword")
	return h.render(c, http.StatusOK, "readers/list.html", view{
		Title:   "Readers",
		Keyword: kw,
		Items:   h.readers.Search(c.Request().Context(), kw),
	})
}

func (h *Handler) NewReader(c echo.Context) error {
	return h.readerForm(c, http.StatusOK, model.ReaderRequest{}, 0, nil)
}

func (h *Handler) EditReader(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.redirect(c, readersPath, flashError, "Reader not found")
	}
	reader, err := h.readers.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return h.redirect(c, readersPath, flashError, "Reader not found")
		}
		return h.fail(c, readersPath, "Could not open the reader", err)
	}
	return h.readerForm(c, http.StatusOK, model.NewReaderRequest(reader), id, nil)
}

func (h *Handler) CreateReader(c echo.Context) error {
	return h.saveReader(c, 0)
}

func (h *Handler) UpdateReader(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.redirect(c, readersPath, flashError, "Reader not found")
	}
	return h.saveReader(c, id)
}

func (h *Handler) saveReader(c echo.Context, id int64) error {
	var req model.ReaderRequest
	err := bindForm(c, &req)
	if err == nil {
		_, err = h.readers.Save(c.Request().Context(), req.Reader(id))
	}
	if fields, ok := fieldErrors(err); ok {
		return h.readerForm(c, http.StatusUnprocessableEntity, req, id, fields)
	}
	if err != nil {
		return h.fail(c, readersPath, "Could not save the reader", err)
	}
	if id == 0 {
		return h.redirect(c, readersPath, flashSuccess, "Reader added")
	}
	return h.redirect(c, readersPath, flashSuccess, "Reader updated")
}

func (h *Handler) DeleteReader(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.redirect(c, readersPath, flashError, "Reader not found")
	}
	if err := h.readers.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, readersPath, "Could not delete the reader", err)
	}
	return h.redirect(c, readersPath, flashSuccess, "Reader deleted")
}

func (h *Handler) readerForm(c echo.Context, status int, req model.ReaderRequest, id int64, fields map[string]string) error {
	title := "New reader"
	if id != 0 {
		title = "Edit reader"
	}
	return h.render(c, status, "readers/form.html", view{
		Title:  title,
		Form:   req,
		Errors: fields,
		Action: formAction(readersPath, id),
	})
}
