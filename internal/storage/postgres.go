package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meenakshiar/looplist/internal"
	"github.com/meenakshiar/looplist/internal/schedule"
)

// Unique indexes expected on the database side:
//   loops:     UNIQUE (owner_id, title)
//   check_ins: UNIQUE (loop_id, date)
type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- LoopRepository ---

func (p *PostgresStorage) CreateLoop(ctx context.Context, loop *internal.Loop) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO loops (id, owner_id, title, frequency, custom_days, start_date, visibility, icon_emoji, current_streak, longest_streak, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		loop.ID, loop.OwnerID, loop.Title, loop.Frequency, loop.CustomDays, loop.StartDate, loop.Visibility, loop.IconEmoji, loop.CurrentStreak, loop.LongestStreak, loop.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTitle
		}
		p.logger.Errorf("failed to insert loop: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetLoop(ctx context.Context, loopID, ownerID string) (*internal.Loop, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, owner_id, title, frequency, custom_days, start_date, visibility, icon_emoji, current_streak, longest_streak, created_at FROM loops WHERE id = $1 AND owner_id = $2`, loopID, ownerID)
	var l internal.Loop
	if err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Frequency, &l.CustomDays, &l.StartDate, &l.Visibility, &l.IconEmoji, &l.CurrentStreak, &l.LongestStreak, &l.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLoopNotFound
		}
		p.logger.Errorf("failed to query loop: %v", err)
		return nil, err
	}
	return &l, nil
}

func (p *PostgresStorage) ListLoops(ctx context.Context, ownerID string) ([]internal.Loop, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, owner_id, title, frequency, custom_days, start_date, visibility, icon_emoji, current_streak, longest_streak, created_at FROM loops WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		p.logger.Errorf("failed to query loops: %v", err)
		return nil, err
	}
	defer rows.Close()
	return scanLoops(rows)
}

func (p *PostgresStorage) ListLoopsStartedBefore(ctx context.Context, cutoff time.Time) ([]internal.Loop, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, owner_id, title, frequency, custom_days, start_date, visibility, icon_emoji, current_streak, longest_streak, created_at FROM loops WHERE start_date <= $1 ORDER BY id`, schedule.Normalize(cutoff))
	if err != nil {
		p.logger.Errorf("failed to query loops for sweep: %v", err)
		return nil, err
	}
	defer rows.Close()
	return scanLoops(rows)
}

func scanLoops(rows pgx.Rows) ([]internal.Loop, error) {
	var loops []internal.Loop
	for rows.Next() {
		var l internal.Loop
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Frequency, &l.CustomDays, &l.StartDate, &l.Visibility, &l.IconEmoji, &l.CurrentStreak, &l.LongestStreak, &l.CreatedAt); err != nil {
			return nil, err
		}
		loops = append(loops, l)
	}
	return loops, rows.Err()
}

func (p *PostgresStorage) UpdateStreaks(ctx context.Context, loopID string, current, longest int) error {
	tag, err := p.pool.Exec(ctx, `UPDATE loops SET current_streak = $2, longest_streak = $3 WHERE id = $1`, loopID, current, longest)
	if err != nil {
		p.logger.Errorf("failed to update streaks: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLoopNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteLoop(ctx context.Context, loopID, ownerID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM loops WHERE id = $1 AND owner_id = $2`, loopID, ownerID)
	if err != nil {
		p.logger.Errorf("failed to delete loop: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLoopNotFound
	}
	return nil
}

// --- CheckInRepository ---

func (p *PostgresStorage) InsertCheckIn(ctx context.Context, c *internal.CheckIn) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO check_ins (id, loop_id, user_id, date, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.LoopID, c.UserID, schedule.Normalize(c.Date), c.Status, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCheckIn
		}
		p.logger.Errorf("failed to insert check-in: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetCheckIn(ctx context.Context, loopID string, date time.Time) (*internal.CheckIn, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, loop_id, user_id, date, status, created_at FROM check_ins WHERE loop_id = $1 AND date = $2`, loopID, schedule.Normalize(date))
	var c internal.CheckIn
	if err := row.Scan(&c.ID, &c.LoopID, &c.UserID, &c.Date, &c.Status, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCheckInNotFound
		}
		p.logger.Errorf("failed to query check-in: %v", err)
		return nil, err
	}
	return &c, nil
}

func (p *PostgresStorage) ListCheckIns(ctx context.Context, loopID string) ([]internal.CheckIn, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, loop_id, user_id, date, status, created_at FROM check_ins WHERE loop_id = $1 ORDER BY date DESC`, loopID)
	if err != nil {
		p.logger.Errorf("failed to query check-ins: %v", err)
		return nil, err
	}
	defer rows.Close()

	var checkIns []internal.CheckIn
	for rows.Next() {
		var c internal.CheckIn
		if err := rows.Scan(&c.ID, &c.LoopID, &c.UserID, &c.Date, &c.Status, &c.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan check-in: %v", err)
			return nil, err
		}
		checkIns = append(checkIns, c)
	}
	return checkIns, rows.Err()
}

func (p *PostgresStorage) ListDoneDates(ctx context.Context, loopID, userID string) ([]time.Time, error) {
	rows, err := p.pool.Query(ctx, `SELECT date FROM check_ins WHERE loop_id = $1 AND user_id = $2 AND status = $3 ORDER BY date ASC`, loopID, userID, internal.CheckInDone)
	if err != nil {
		p.logger.Errorf("failed to query done dates: %v", err)
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (p *PostgresStorage) DeleteCheckIn(ctx context.Context, loopID string, date time.Time) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM check_ins WHERE loop_id = $1 AND date = $2`, loopID, schedule.Normalize(date))
	if err != nil {
		p.logger.Errorf("failed to delete check-in: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCheckInNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteCheckInsForLoop(ctx context.Context, loopID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM check_ins WHERE loop_id = $1`, loopID)
	if err != nil {
		p.logger.Errorf("failed to delete check-ins for loop: %v", err)
		return err
	}
	return nil
}

// --- Compile-time assertions ---
var _ LoopRepository = (*PostgresStorage)(nil)
var _ CheckInRepository = (*PostgresStorage)(nil)
