package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/Astemirdum/library-records/library/internal/model"
)

var librarianColumns = []string{"id", "librarian_number", "full_name", "position"}

func (r *repository) ListLibrarians(ctx context.Context) ([]model.Librarian, error) {
	query, args, err := qb.Select(librarianColumns...).
		From(librariansTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	return list[model.Librarian](ctx, r, query, args)
}

func (r *repository) GetLibrarian(ctx context.Context, id int64) (model.Librarian, error) {
	return r.getLibrarianWhere(ctx, sq.Eq{"id": id})
}

func (r *repository) GetLibrarianByNumber(ctx context.Context, number string) (model.Librarian, error) {
	return r.getLibrarianWhere(ctx, sq.Eq{"librarian_number": number})
}

func (r *repository) getLibrarianWhere(ctx context.Context, pred sq.Eq) (model.Librarian, error) {
	query, args, err := qb.Select(librarianColumns...).
		From(librariansTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Librarian{}, err
	}
	return getOne[model.Librarian](ctx, r, query, args)
}

func (r *repository) CreateLibrarian(ctx context.Context, librarian model.Librarian) (model.Librarian, error) {
	query, args, err := qb.Insert(librariansTableName).
		Columns("librarian_number", "full_name", "position").
		Values(librarian.LibrarianNumber, librarian.FullName, librarian.Position).
		Suffix(returning(librarianColumns)).
		ToSql()
	if err != nil {
		return model.Librarian{}, err
	}
	return getOne[model.Librarian](ctx, r, query, args)
}

func (r *repository) UpdateLibrarian(ctx context.Context, librarian model.Librarian) (model.Librarian, error) {
	query, args, err := qb.Update(librariansTableName).
		SetMap(map[string]any{
			"librarian_number": librarian.LibrarianNumber,
			"full_name":        librarian.FullName,
			"position":         librarian.Position,
		}).
		Where(sq.Eq{"id": librarian.ID}).
		Suffix(returning(librarianColumns)).
		ToSql()
	if err != nil {
		return model.Librarian{}, err
	}
	return getOne[model.Librarian](ctx, r, query, args)
}

func (r *repository) DeleteLibrarian(ctx context.Context, id int64) error {
	return r.delete(ctx, librariansTableName, id)
}
