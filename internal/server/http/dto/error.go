package dto

// ErrorResponse is the body of every failed request. Critical inconsistencies also
// carry the identifiers an operator needs to repair the records by hand.
type ErrorResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	OrderID    int64  `json:"order_id,omitempty"`
	AttemptID  string `json:"attempt_id,omitempty"`
	OperatorID int64  `json:"operator_id,omitempty"`
}

// StatusBadRequest marks bodies or parameters that could not be decoded.
const StatusBadRequest = "bad_request"
