package activity

import "time"

type Activity struct {
	ID         int       `json:"id" db:"activity_id"`
	UserID     int       `json:"userId" db:"user_id"`
	Score      int       `json:"activityScore" db:"activity_score"`
	Duration   int       `json:"activityDuration" db:"activity_duration"`
	Date       time.Time `json:"activityDate" db:"activity_date"`
	LocationID *int      `json:"locationId,omitempty" db:"location_id"`
	ExerciseID *int      `json:"exerciseId,omitempty" db:"exercise_id"`
}

// RecordActivityRequest is the submission payload. Duration is in seconds.
type RecordActivityRequest struct {
	UserID     int  `json:"userId" validate:"required,gt=0"`
	Score      int  `json:"activityScore" validate:"gte=0"`
	Duration   int  `json:"activityDuration" validate:"required,gt=0"`
	LocationID *int `json:"locationId" validate:"omitempty,gt=0"`
	ExerciseID *int `json:"exerciseId" validate:"omitempty,gt=0"`
}
