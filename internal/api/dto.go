package api

import "time"

type createBookingRequest struct {
	ClientID        int64     `json:"client_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
}

type cancelBookingRequest struct {
	Initiator string `json:"initiator"` // client | instructor
	Reason    string `json:"reason"`
}

type rescheduleBookingRequest struct {
	NewStart time.Time `json:"new_start"`
}

type createCommitmentRequest struct {
	ClientID        int64  `json:"client_id"`
	DurationMinutes int    `json:"duration_minutes"`
	Weekday         int    `json:"weekday"`
	StartHour       int    `json:"start_hour"`
	StartMinute     int    `json:"start_minute"`
	Frequency       string `json:"frequency"` // weekly | biweekly
	StartDate       string `json:"start_date"`
	Category        string `json:"category"`
}

type createMakeupRequest struct {
	ClientID  int64 `json:"client_id"`
	BookingID int64 `json:"booking_id"`
}

type scheduleMakeupRequest struct {
	SessionID int64 `json:"session_id"`
}

type createSessionRequest struct {
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	MaxParticipants int       `json:"max_participants"`
}

type createBlackoutRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

// errorResponse — единый конверт ошибок API
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newError(code, message string) errorResponse {
	return errorResponse{Error: errorBody{Code: code, Message: message}}
}
