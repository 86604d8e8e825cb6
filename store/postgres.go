package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ipitupAPI/internal/activity"
	"ipitupAPI/internal/badge"
	"ipitupAPI/internal/leaderboard"
	"ipitupAPI/internal/user"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// AddActivity appends the activity and its outbox event in one transaction,
// so the recorded-activity event can never be published for an activity that
// was not durably written.
func (s *PostgresStore) AddActivity(ctx context.Context, a *activity.Activity) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO activities (user_id, activity_score, activity_duration, activity_date, location_id, exercise_id)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING activity_id
	`

	err = tx.QueryRow(ctx, query,
		a.UserID,
		a.Score,
		a.Duration,
		a.Date,
		a.LocationID,
		a.ExerciseID,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}

	outboxQuery := `
	INSERT INTO outbox (event_id, event_type, payload, created_at)
	VALUES ($1, $2, $3, NOW())
	`

	if _, err := tx.Exec(ctx, outboxQuery, uuid.New(), "activity.recorded", payload); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) ActivitiesByUser(ctx context.Context, userID, limit int) ([]activity.Activity, error) {
	query := `
	SELECT activity_id, user_id, activity_score, activity_duration, activity_date, location_id, exercise_id
	FROM activities
	WHERE user_id = $1
	ORDER BY activity_date DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	defer rows.Close()

	var activities []activity.Activity
	for rows.Next() {
		var a activity.Activity
		err := rows.Scan(&a.ID, &a.UserID, &a.Score, &a.Duration, &a.Date, &a.LocationID, &a.ExerciseID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	if activities == nil {
		activities = []activity.Activity{}
	}

	return activities, nil
}

func (s *PostgresStore) LatestActivityDate(ctx context.Context, userID int) (time.Time, bool, error) {
	var latest *time.Time
	query := `SELECT MAX(activity_date) FROM activities WHERE user_id = $1`

	if err := s.db.QueryRow(ctx, query, userID).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get latest activity date: %w", err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return *latest, true, nil
}

// IncrementTotalScore is a single UPDATE so concurrent submissions for the
// same user cannot lose increments.
func (s *PostgresStore) IncrementTotalScore(ctx context.Context, userID, delta int) error {
	query := `
	UPDATE users
	SET total_score = total_score + $2
	WHERE user_id = $1
	`

	result, err := s.db.Exec(ctx, query, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to increment total score: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) TotalScore(ctx context.Context, userID int) (int, error) {
	var total int
	err := s.db.QueryRow(ctx, `SELECT total_score FROM users WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to get total score: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) DailyStreak(ctx context.Context, userID int) (int, error) {
	var streak int
	err := s.db.QueryRow(ctx, `SELECT daily_streak FROM users WHERE user_id = $1`, userID).Scan(&streak)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to get daily streak: %w", err)
	}
	return streak, nil
}

func (s *PostgresStore) SetDailyStreak(ctx context.Context, userID, streak int, computedOn time.Time) error {
	query := `
	UPDATE users
	SET daily_streak = $2, streak_computed_on = $3
	WHERE user_id = $1
	`

	result, err := s.db.Exec(ctx, query, userID, streak, computedOn)
	if err != nil {
		return fmt.Errorf("failed to set daily streak: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) StreakComputedOn(ctx context.Context, userID int) (time.Time, error) {
	var computedOn *time.Time
	err := s.db.QueryRow(ctx, `SELECT streak_computed_on FROM users WHERE user_id = $1`, userID).Scan(&computedOn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("failed to get streak computation day: %w", err)
	}
	if computedOn == nil {
		return time.Time{}, nil
	}
	return *computedOn, nil
}

// UpsertLeaderboardScore inserts the first entry for a (user, location) pair
// or increments an existing one, in a single statement. The unique constraint
// on (user_id, location_id) is what makes this safe under concurrency.
func (s *PostgresStore) UpsertLeaderboardScore(ctx context.Context, userID, locationID, delta int) error {
	query := `
	INSERT INTO leaderboard (user_id, location_id, score)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, location_id)
	DO UPDATE SET score = leaderboard.score + EXCLUDED.score
	`

	if _, err := s.db.Exec(ctx, query, userID, locationID, delta); err != nil {
		return fmt.Errorf("failed to upsert leaderboard score: %w", err)
	}
	return nil
}

func (s *PostgresStore) LocationScores(ctx context.Context, locationIDs []int) (map[int]int, error) {
	query := `
	SELECT user_id, SUM(score)
	FROM leaderboard
	WHERE location_id = ANY($1)
	GROUP BY user_id
	`

	rows, err := s.db.Query(ctx, query, locationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to sum location scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[int]int)
	for rows.Next() {
		var userID, sum int
		if err := rows.Scan(&userID, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan location score: %w", err)
		}
		scores[userID] = sum
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location scores: %w", err)
	}

	return scores, nil
}

func (s *PostgresStore) EntriesByLocation(ctx context.Context, locationID int) ([]leaderboard.Entry, error) {
	query := `
	SELECT leaderboard_id, user_id, location_id, score
	FROM leaderboard
	WHERE location_id = $1
	ORDER BY score DESC
	`

	rows, err := s.db.Query(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard entries: %w", err)
	}
	defer rows.Close()

	var entries []leaderboard.Entry
	for rows.Next() {
		var e leaderboard.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.LocationID, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard entries: %w", err)
	}

	if entries == nil {
		entries = []leaderboard.Entry{}
	}

	return entries, nil
}

func (s *PostgresStore) BadgesByCategory(ctx context.Context, category string) ([]badge.Badge, error) {
	query := `
	SELECT badge_id, badge_name, badge_description, category, unlock_threshold
	FROM badges
	WHERE category = $1
	`

	rows, err := s.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badge catalog: %w", err)
	}
	defer rows.Close()

	return scanBadges(rows)
}

// AwardBadge is idempotent: re-running with the same pair affects zero rows
// and reports false.
func (s *PostgresStore) AwardBadge(ctx context.Context, badgeID, userID int) (bool, error) {
	query := `
	INSERT INTO user_badges (badge_id, user_id)
	VALUES ($1, $2)
	ON CONFLICT (badge_id, user_id) DO NOTHING
	`

	result, err := s.db.Exec(ctx, query, badgeID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to award badge: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (s *PostgresStore) BadgesByUser(ctx context.Context, userID int) ([]badge.Badge, error) {
	query := `
	SELECT b.badge_id, b.badge_name, b.badge_description, b.category, b.unlock_threshold
	FROM badges b
	INNER JOIN user_badges ub ON ub.badge_id = b.badge_id
	WHERE ub.user_id = $1
	ORDER BY b.badge_id
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user badges: %w", err)
	}
	defer rows.Close()

	return scanBadges(rows)
}

func scanBadges(rows pgx.Rows) ([]badge.Badge, error) {
	var badges []badge.Badge
	for rows.Next() {
		var b badge.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Category, &b.UnlockThreshold); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}

	if badges == nil {
		badges = []badge.Badge{}
	}

	return badges, nil
}

func (s *PostgresStore) UserByID(ctx context.Context, userID int) (*user.User, error) {
	query := `
	SELECT user_id, first_name, last_name, email, avatar, birth_date, country, daily_streak, total_score
	FROM users
	WHERE user_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Avatar,
		&u.BirthDate,
		&u.Country,
		&u.DailyStreak,
		&u.TotalScore,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *PostgresStore) ListScoreboardUsers(ctx context.Context) ([]user.User, error) {
	query := `
	SELECT user_id, first_name, last_name, avatar, birth_date, country, total_score
	FROM users
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Avatar, &u.BirthDate, &u.Country, &u.TotalScore)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (s *PostgresStore) ExerciseCategory(ctx context.Context, exerciseID int) (string, error) {
	var category string
	err := s.db.QueryRow(ctx, `SELECT category FROM exercises WHERE exercise_id = $1`, exerciseID).Scan(&category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("exercise %d: %w", exerciseID, ErrNotFound)
		}
		return "", fmt.Errorf("failed to get exercise category: %w", err)
	}
	return category, nil
}

func (s *PostgresStore) AcceptedFollowingIDs(ctx context.Context, viewerID int) ([]int, error) {
	query := `
	SELECT following_id
	FROM follows
	WHERE follower_id = $1 AND status = 'Accepted'
	`

	rows, err := s.db.Query(ctx, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch following ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan following id: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating following ids: %w", err)
	}

	return ids, nil
}
