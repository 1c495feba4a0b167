package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type TicketStatus string

const (
	TicketPending TicketStatus = "pending"
	TicketWin     TicketStatus = "Win"
	TicketLose    TicketStatus = "Lose"
	TicketVoid    TicketStatus = "Void"
)

func ParseTicketStatus(s string) (TicketStatus, error) {
	switch status := TicketStatus(s); status {
	case TicketPending, TicketWin, TicketLose, TicketVoid:
		return status, nil
	}
	return "", fmt.Errorf("invalid ticket status: %q", s)
}

// Ticket is a bet submission. Fields the server does not own are kept in
// Details and written back untouched.
type Ticket struct {
	ID        string
	Stake     float64
	Win       string
	Status    TicketStatus
	PlacedAt  time.Time
	SettledAt *time.Time
	Details   map[string]json.RawMessage
}

func (t Ticket) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Details)+6)
	for k, v := range t.Details {
		out[k] = v
	}

	out["id"] = t.ID
	out["stake"] = t.Stake
	out["win"] = t.Win
	out["status"] = t.Status
	out["placedAt"] = t.PlacedAt
	if t.SettledAt != nil {
		out["settledAt"] = t.SettledAt
	}

	return json.Marshal(out)
}

func (t *Ticket) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ticket must be a JSON object: %v", err)
	}

	*t = Ticket{}
	for key, value := range raw {
		var err error
		switch key {
		case "id":
			var id FlexString
			err = json.Unmarshal(value, &id)
			t.ID = string(id)
		case "stake":
			t.Stake, err = decodeNumber(value)
		case "win":
			var win FlexString
			err = json.Unmarshal(value, &win)
			t.Win = string(win)
		case "status":
			var status string
			err = json.Unmarshal(value, &status)
			t.Status = TicketStatus(status)
		case "placedAt":
			err = decodeTime(value, &t.PlacedAt)
		case "settledAt":
			if !isNull(value) {
				var at time.Time
				err = decodeTime(value, &at)
				t.SettledAt = &at
			}
		default:
			if t.Details == nil {
				t.Details = make(map[string]json.RawMessage)
			}
			t.Details[key] = value
		}
		if err != nil {
			return fmt.Errorf("invalid ticket field %q: %v", key, err)
		}
	}

	return nil
}

func decodeNumber(value json.RawMessage) (float64, error) {
	if isNull(value) {
		return 0, nil
	}
	var s FlexString
	if err := json.Unmarshal(value, &s); err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(string(s), 64)
}

func decodeTime(value json.RawMessage, dst *time.Time) error {
	if isNull(value) {
		return nil
	}
	return json.Unmarshal(value, dst)
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}
