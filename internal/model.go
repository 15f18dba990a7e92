package internal

import "time"

type User struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
}

type Loop struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Title         string    `json:"title"`
	Frequency     string    `json:"frequency"` // daily, weekdays, 3x/week, custom
	CustomDays    []string  `json:"custom_days,omitempty"`
	StartDate     time.Time `json:"start_date"` // midnight UTC
	Visibility    string    `json:"visibility"` // private, public
	IconEmoji     string    `json:"icon_emoji,omitempty"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	CheckInDone   = "done"
	CheckInMissed = "missed"
)

type CheckIn struct {
	ID        string    `json:"id"`
	LoopID    string    `json:"loop_id"`
	UserID    string    `json:"user_id"`
	Date      time.Time `json:"date"` // midnight UTC
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
