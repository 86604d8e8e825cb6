package leaderboard

// Entry is one per-(user, location) aggregate row. The pipeline never creates
// an entry without a location.
type Entry struct {
	ID         int  `json:"id" db:"leaderboard_id"`
	UserID     int  `json:"userId" db:"user_id"`
	LocationID *int `json:"locationId" db:"location_id"`
	Score      int  `json:"score" db:"score"`
}

type Scope string

const (
	ScopeGlobal    Scope = "global"
	ScopeLocal     Scope = "local"
	ScopeFollowing Scope = "following"
)

// Filter selects and scopes a ranked leaderboard query. A zero Limit falls
// back to the service default.
type Filter struct {
	LocationIDs  []int
	MinAge       *int
	MaxAge       *int
	Scope        Scope
	ViewerUserID *int
	Limit        int
}

// Row is one ranked result. Score is the location-set sum when the filter
// names locations, the global total otherwise.
type Row struct {
	UserID    int    `json:"userId"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Avatar    string `json:"avatar"`
	Score     int    `json:"score"`
	Age       *int   `json:"age,omitempty"`
}
