package sqlite

import (
	"context"

	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
)

type loginHistoryRepo struct {
	q dbtx
}

func (r *loginHistoryRepo) AppendLoginRecord(
	ctx context.Context,
	userID string,
	rec domain.LoginRecord,
	limit int,
) error {
	// Touch first so a vanished user surfaces as ErrNotFound rather than a
	// foreign key failure.
	if err := (&usersRepo{q: r.q}).Touch(ctx, userID); err != nil {
		return err
	}

	if _, err := r.q.ExecContext(ctx,
		`INSERT INTO login_history (user_id, ip, city, country, logged_in_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, rec.IP, rec.City, rec.Country, rec.LoggedInAt.UTC(),
	); err != nil {
		return err
	}

	if limit <= 0 {
		return nil
	}

	_, err := r.q.ExecContext(ctx,
		`DELETE FROM login_history
		 WHERE user_id = ?
		   AND id NOT IN (
		     SELECT id FROM login_history
		     WHERE user_id = ?
		     ORDER BY id DESC
		     LIMIT ?
		   )`,
		userID, userID, limit,
	)
	return err
}

func (r *loginHistoryRepo) ListLoginRecords(ctx context.Context, userID string) ([]domain.LoginRecord, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT ip, city, country, logged_in_at
		 FROM login_history
		 WHERE user_id = ?
		 ORDER BY id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.LoginRecord, 0)
	for rows.Next() {
		var rec domain.LoginRecord
		if err := rows.Scan(&rec.IP, &rec.City, &rec.Country, &rec.LoggedInAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
