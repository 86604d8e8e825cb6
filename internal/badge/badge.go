package badge

// Badge is a catalog entry. Category is the matching key shared with
// Exercise; Name is display-only.
type Badge struct {
	ID              int    `json:"id" db:"badge_id"`
	Name            string `json:"badgeName" db:"badge_name"`
	Description     string `json:"badgeDescription" db:"badge_description"`
	Category        string `json:"category" db:"category"`
	UnlockThreshold int    `json:"unlockThreshold" db:"unlock_threshold"`
}

type UserBadge struct {
	BadgeID int `json:"badgeId" db:"badge_id"`
	UserID  int `json:"userId" db:"user_id"`
}
