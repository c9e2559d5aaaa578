package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/Astemirdum/library-records/library/internal/model"
)

var readerColumns = []string{"id", "ticket_number", "full_name", "phone_number", "registration_date"}

func (r *repository) ListReaders(ctx context.Context) ([]model.Reader, error) {
	query, args, err := qb.Select(readerColumns...).
		From(readersTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	return list[model.Reader](ctx, r, query, args)
}

func (r *repository) GetReader(ctx context.Context, id int64) (model.Reader, error) {
	return r.getReaderWhere(ctx, sq.Eq{"id": id})
}

func (r *repository) GetReaderByTicketNumber(ctx context.Context, number string) (model.Reader, error) {
	return r.getReaderWhere(ctx, sq.Eq{"ticket_number": number})
}

func (r *repository) GetReaderByPhoneNumber(ctx context.Context, phone string) (model.Reader, error) {
	return r.getReaderWhere(ctx, sq.Eq{"phone_number": phone})
}

func (r *repository) getReaderWhere(ctx context.Context, pred sq.Eq) (model.Reader, error) {
	query, args, err := qb.Select(readerColumns...).
		From(readersTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Reader{}, err
	}
	return getOne[model.Reader](ctx, r, query, args)
}

func (r *repository) CreateReader(ctx context.Context, reader model.Reader) (model.Reader, error) {
	query, args, err := qb.Insert(readersTableName).
		Columns("ticket_number", "full_name", "phone_number", "registration_date").
		Values(reader.TicketNumber, reader.FullName, reader.PhoneNumber, reader.RegistrationDate).
		Suffix(returning(readerColumns)).
		ToSql()
	if err != nil {
		return model.Reader{}, err
	}
	return getOne[model.Reader](ctx, r, query, args)
}

func (r *repository) UpdateReader(ctx context.Context, reader model.Reader) (model.Reader, error) {
	query, args, err := qb.Update(readersTableName).
		SetMap(map[string]any{
			"ticket_number":     reader.TicketNumber,
			"full_name":         reader.FullName,
			"phone_number":      reader.PhoneNumber,
			"registration_date": reader.RegistrationDate,
		}).
		Where(sq.Eq{"id": reader.ID}).
		Suffix(returning(readerColumns)).
		ToSql()
	if err != nil {
		return model.Reader{}, err
	}
	return getOne[model.Reader](ctx, r, query, args)
}

func (r *repository) DeleteReader(ctx context.Context, id int64) error {
	return r.delete(ctx, readersTableName, id)
}
