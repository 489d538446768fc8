package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bizdash/internal/calls"
	"bizdash/internal/config"
	"bizdash/pkg/logger"
)

var ErrBadSignature = errors.New("telephony: invalid webhook signature")

// State is a step of webhook ingestion.
type State string

const (
	StateReceived  State = "received"
	StateVerified  State = "verified"
	StateDecoded   State = "decoded"
	StatePersisted State = "persisted"
	StateRejected  State = "rejected"
)

// Rejection names why a delivery ended in StateRejected.
type Rejection string

const (
	RejectBadSignature    Rejection = "bad_signature"
	RejectDecodeOrDBError Rejection = "decode_or_db_error"
)

// Nested payload keys read into dedicated columns.
const (
	FieldCallSid       = "CallSid"
	FieldFrom          = "From"
	FieldTo            = "To"
	FieldDirection     = "Direction"
	FieldCallStatus    = "CallStatus"
	FieldCallerCountry = "CallerCountry"
	FieldCallerCity    = "CallerCity"
	FieldCallerState   = "CallerState"
	FieldCallerZip     = "CallerZip"

	// ParamBody is the top-level parameter carrying the nested payload.
	ParamBody = "body"
)

// WebhookRequest is one inbound delivery: the raw form body and the signature header.
type WebhookRequest struct {
	Body      []byte
	Signature string
}

type IngestResult struct {
	State   State
	Reason  Rejection
	EventID int64
}

// Ingestor verifies, decodes and records call webhooks. It keeps no state
// between deliveries and does not deduplicate them.
type Ingestor struct {
	authToken   string
	callbackURL string
	recorder    calls.Recorder
	now         func() time.Time
}

func NewIngestor(cfg config.TwilioConfig, recorder calls.Recorder) *Ingestor {
	return &Ingestor{
		authToken:   cfg.AuthToken,
		callbackURL: cfg.WebhookURL,
		recorder:    recorder,
		now:         time.Now,
	}
}

// Ingest runs one delivery to a terminal state. A rejected delivery returns
// ErrBadSignature, or the decode/persistence error.
func (in *Ingestor) Ingest(ctx context.Context, req WebhookRequest) (IngestResult, error) {
	log := logger.From(ctx)

	params := ParseParams(req.Body)
	if !ValidateSignature(in.authToken, req.Signature, in.callbackURL, params) {
		log.Warn("call webhook signature rejected", "params", len(params), "has_signature", req.Signature != "")
		return IngestResult{State: StateRejected, Reason: RejectBadSignature}, ErrBadSignature
	}

	fields := DecodeNestedBody(params.Get(ParamBody))

	ev, err := EventFromFields(fields)
	if err != nil {
		return IngestResult{State: StateRejected, Reason: RejectDecodeOrDBError}, err
	}
	ev.ReceivedAt = in.now().UTC()

	id, err := in.recorder.Insert(ctx, ev)
	if err != nil {
		sid, _ := fields.Lookup(FieldCallSid)
		log.Error("call webhook persist failed", "err", err, "call_sid", sid)
		return IngestResult{State: StateRejected, Reason: RejectDecodeOrDBError}, err
	}

	log.Info("call webhook recorded", "event_id", id, "fields", fields.Len())
	return IngestResult{State: StatePersisted, EventID: id}, nil
}

// EventFromFields maps the nested payload onto a call event. Absent keys stay nil.
func EventFromFields(f EventFields) (calls.Event, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return calls.Event{}, fmt.Errorf("encode raw payload: %w", err)
	}
	return calls.Event{
		CallSid:       f.Nullable(FieldCallSid),
		FromNumber:    f.Nullable(FieldFrom),
		ToNumber:      f.Nullable(FieldTo),
		Direction:     f.Nullable(FieldDirection),
		CallStatus:    f.Nullable(FieldCallStatus),
		CallerCountry: f.Nullable(FieldCallerCountry),
		CallerCity:    f.Nullable(FieldCallerCity),
		CallerState:   f.Nullable(FieldCallerState),
		CallerZip:     f.Nullable(FieldCallerZip),
		RawData:       raw,
	}, nil
}
