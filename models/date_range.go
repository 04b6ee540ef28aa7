package models

import (
	"encoding/json"
	"time"
)

// DayLayout is the wire format of a calendar day.
const DayLayout = "2006-01-02"

// DateRange is an inclusive span of calendar days (UTC midnight instants).
type DateRange struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
	Note  string    `bson:"note,omitempty" json:"note,omitempty"`
}

func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
		Note  string `json:"note,omitempty"`
	}{
		Start: r.Start.UTC().Format(DayLayout),
		End:   r.End.UTC().Format(DayLayout),
		Note:  r.Note,
	})
}

// DateRangeInput is an unvalidated range as received from a client. Start and
// End hold whatever the decoder produced (string, number, time.Time).
type DateRangeInput struct {
	Start any    `json:"start"`
	End   any    `json:"end"`
	Note  string `json:"note,omitempty"`
}
