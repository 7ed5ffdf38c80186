package notifications

import (
	"encoding/json"
	"time"

	"github.com/jrsteele09/kaziflow-client/internal/utils"
)

// Notification is a server-side message addressed to the caller.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	type alias Notification
	var raw struct {
		alias
		CreatedAt string `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	createdAt, err := utils.ParseTimestamp(raw.CreatedAt)
	if err != nil {
		return err
	}
	*n = Notification(raw.alias)
	n.CreatedAt = createdAt
	return nil
}

// CountUnread is the number of entries not yet acknowledged.
func CountUnread(snapshot []Notification) int {
	unread := 0
	for _, n := range snapshot {
		if !n.IsRead {
			unread++
		}
	}
	return unread
}
