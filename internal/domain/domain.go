package domain

// Ad is immutable once stored; it can only be created, read or deleted.
type Ad struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	Owner       string `json:"owner"`
}

// TimeLayout is the fixed-width UTC layout used for CreatedAt, so that string
// order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"
