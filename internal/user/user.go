package user

import "time"

type User struct {
	ID          int       `json:"id" db:"user_id"`
	FirstName   string    `json:"firstname" db:"first_name"`
	LastName    string    `json:"lastname" db:"last_name"`
	Email       string    `json:"email" db:"email"`
	Avatar      string    `json:"avatar" db:"avatar"`
	BirthDate   time.Time `json:"birthdate" db:"birth_date"`
	Country     string    `json:"country" db:"country"`
	DailyStreak int       `json:"dailyStreak" db:"daily_streak"`
	TotalScore  int       `json:"totalScore" db:"total_score"`
}

// Age returns whole years between the user's birth date and now.
func (u *User) Age(now time.Time) int {
	years := now.Year() - u.BirthDate.Year()
	anniversary := u.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

type FollowStatus string

const (
	FollowPending  FollowStatus = "Pending"
	FollowAccepted FollowStatus = "Accepted"
)

// FollowEdge is consumed read-only to scope "following" leaderboard queries.
type FollowEdge struct {
	FollowerID  int          `json:"followerId" db:"follower_id"`
	FollowingID int          `json:"followingId" db:"following_id"`
	Status      FollowStatus `json:"status" db:"status"`
}
