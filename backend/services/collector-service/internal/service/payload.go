package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"unicode/utf8"

	"studyspace/backend/services/collector-service/internal/models"
)

// Error kinds surfaced to clients as 400 responses.
var (
	ErrInvalidPayload = errors.New("invalid payload")
	ErrMissingField   = errors.New("missing field")
)

// Client facing messages.
const (
	MsgInvalidJSON    = "Invalid or missing JSON"
	MsgSeatsRequired  = "free_seats and total_seats required"
	MsgNodeIDRequired = "node_id required"
)

// ValidationError carries the client message for a rejected request.
type ValidationError struct {
	Kind    error
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func invalidPayload() error {
	return &ValidationError{Kind: ErrInvalidPayload, Message: MsgInvalidJSON}
}

func missingField(message string) error {
	return &ValidationError{Kind: ErrMissingField, Message: message}
}

// OccupancyInput is a validated occupancy submission.
type OccupancyInput struct {
	NodeID     string
	FreeSeats  json.RawMessage
	TotalSeats json.RawMessage
}

// CalibrationInput is a validated calibration request.
type CalibrationInput struct {
	NodeID string
	Enable bool
}

// DecodeOccupancy validates an occupancy body. The body must be a non-empty JSON object carrying
// non-null free_seats and total_seats; node_id falls back to "unknown".
func DecodeOccupancy(body []byte) (OccupancyInput, error) {
	fields, ok := decodeObject(body)
	if !ok || len(fields) == 0 {
		return OccupancyInput{}, invalidPayload()
	}

	input := OccupancyInput{NodeID: models.UnknownNodeID}
	if raw, found := fields["node_id"]; found && !isNull(raw) {
		if err := json.Unmarshal(raw, &input.NodeID); err != nil {
			return OccupancyInput{}, invalidPayload()
		}
	}

	input.FreeSeats = fields["free_seats"]
	input.TotalSeats = fields["total_seats"]
	if isNull(input.FreeSeats) || isNull(input.TotalSeats) {
		return OccupancyInput{}, missingField(MsgSeatsRequired)
	}
	return input, nil
}

// DecodeCalibration validates a calibration body. An unusable body counts as an empty object,
// so it fails on the missing node_id rather than on the payload.
func DecodeCalibration(body []byte) (CalibrationInput, error) {
	fields, _ := decodeObject(body)

	var nodeID string
	if raw, found := fields["node_id"]; found {
		if err := json.Unmarshal(raw, &nodeID); err != nil {
			nodeID = ""
		}
	}
	if nodeID == "" {
		return CalibrationInput{}, missingField(MsgNodeIDRequired)
	}

	input := CalibrationInput{NodeID: nodeID, Enable: true}
	if raw, found := fields["enable"]; found {
		input.Enable = truthy(raw)
	}
	return input, nil
}

// ValidateNodeID checks the node_id query parameter of a config fetch.
func ValidateNodeID(nodeID string) error {
	if nodeID == "" {
		return missingField(MsgNodeIDRequired)
	}
	return nil
}

func decodeObject(body []byte) (map[string]json.RawMessage, bool) {
	if len(bytes.TrimSpace(body)) == 0 || !utf8.Valid(body) {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, false
	}
	// "null" decodes into a nil map without error.
	if fields == nil {
		return nil, false
	}
	return fields, true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// truthy follows JSON truthiness: false, null, 0, "", [] and {} are false.
func truthy(raw json.RawMessage) bool {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return true
	}
}
