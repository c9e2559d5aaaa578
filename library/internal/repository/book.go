package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/Astemirdum/library-records/library/internal/model"
)

var bookColumns = []string{"id", "book_number", "title", "author", "publication_year"}

func (r *repository) ListBooks(ctx context.Context) ([]model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	return list[model.Book](ctx, r, query, args)
}

func (r *repository) GetBook(ctx context.Context, id int64) (model.Book, error) {
	return r.getBookWhere(ctx, sq.Eq{"id": id})
}

func (r *repository) GetBookByNumber(ctx context.Context, number string) (model.Book, error) {
	return r.getBookWhere(ctx, sq.Eq{"book_number": number})
}

func (r *repository) getBookWhere(ctx context.Context, pred sq.Eq) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return getOne[model.Book](ctx, r, query, args)
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("book_number", "title", "author", "publication_year").
		Values(book.BookNumber, book.Title, book.Author, book.PublicationYear).
		Suffix(returning(bookColumns)).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return getOne[model.Book](ctx, r, query, args)
}

func (r *repository) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		SetMap(map[string]any{
			"book_number":      book.BookNumber,
			"title":            book.Title,
			"author":           book.Author,
			"publication_year": book.PublicationYear,
		}).
		Where(sq.Eq{"id": book.ID}).
		Suffix(returning(bookColumns)).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return getOne[model.Book](ctx, r, query, args)
}

func (r *repository) DeleteBook(ctx context.Context, id int64) error {
	return r.delete(ctx, booksTableName, id)
}
