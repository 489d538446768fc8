package calls

import (
	"encoding/json"
	"time"
)

// RowsPerPage is the caller-id log page size.
const RowsPerPage = 10

// Event is one accepted inbound call webhook delivery. Every optional column is
// nil when the provider omitted the field. RawData holds the full nested
// payload in its original key order. Rows are append-only.
type Event struct {
	ID int64 `json:"id"`

	CallSid    *string `json:"call_sid"`
	FromNumber *string `json:"from_number"`
	ToNumber   *string `json:"to_number"`
	Direction  *string `json:"direction"`
	CallStatus *string `json:"call_status"`

	CallerCountry *string `json:"caller_country"`
	CallerCity    *string `json:"caller_city"`
	CallerState   *string `json:"caller_state"`
	CallerZip     *string `json:"caller_zip"`

	RawData json.RawMessage `json:"raw_data"`

	ReceivedAt time.Time `json:"received_at"`
}
