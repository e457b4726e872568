package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"appointment-scheduler/internal/model"
)

const appointmentColumns = `id, owner_id, name, email, phone,
	to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI'),
	notes, COALESCE(external_event_id, ''), created_at, updated_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Name, &a.Email, &a.Phone,
		&a.Date, &a.Time,
		&a.Notes, &a.ExternalEventID, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// AddAppointment inserts a new appointment for ownerID and returns it with
// the id and timestamps assigned here.
func (s *Store) AddAppointment(ctx context.Context, ownerID string, f model.Fields) (model.Appointment, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO appointments (id, owner_id, name, email, phone, date, time, notes)
		 VALUES ($1, $2, $3, $4, $5, $6::date, $7::time, $8)
		 RETURNING `+appointmentColumns,
		uuid.New().String(), ownerID, f.Name, f.Email, f.Phone, f.Date, f.Time, f.Notes,
	)
	a, err := scanAppointment(row)
	return a, translate(err)
}

func (s *Store) UpdateAppointment(ctx context.Context, id, ownerID string, f model.Fields) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments
		 SET name=$1, email=$2, phone=$3, date=$4::date, time=$5::time, notes=$6, updated_at=NOW()
		 WHERE id=$7 AND owner_id=$8`,
		f.Name, f.Email, f.Phone, f.Date, f.Time, f.Notes, id, ownerID,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id, ownerID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM appointments WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// QueryAppointments lists ownerID's appointments by date, then time.
func (s *Store) QueryAppointments(ctx context.Context, ownerID string) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+appointmentColumns+`
		 FROM appointments
		 WHERE owner_id = $1
		 ORDER BY date, time, created_at`, ownerID,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := make([]model.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAppointment(ctx context.Context, id, ownerID string) (model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	))
	return a, translate(err)
}

func (s *Store) SetExternalEventID(ctx context.Context, id, externalID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET external_event_id=$1 WHERE id=$2`, externalID, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
