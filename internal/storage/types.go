package storage

import (
	"fmt"
	"time"
)

// Key names one of the persisted records.
type Key string

const (
	KeyHabitTitle   Key = "habitTitle"
	KeySessionData  Key = "sessionData"
	KeyTrackerState Key = "trackerState"
)

// Keys lists every record key in write order.
var Keys = []Key{KeyHabitTitle, KeySessionData, KeyTrackerState}

// Validate rejects keys outside the known set.
func (k Key) Validate() error {
	for _, known := range Keys {
		if k == known {
			return nil
		}
	}
	return fmt.Errorf("unknown record key: %q", string(k))
}

// Meta describes the last full write.
type Meta struct {
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}
