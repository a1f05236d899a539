package events

import "time"

// RatingComputedEvent is published after a submission is evaluated. Stage
// fields are nil when the submission did not reach that stage. Notch values
// never appear in events.
type RatingComputedEvent struct {
	RunID          string    `json:"run_id,omitempty"`
	CounterpartyID string    `json:"counterparty_id"`
	Name           string    `json:"name,omitempty"`
	SurveyVersion  string    `json:"survey_version"`
	Route          string    `json:"route,omitempty"`
	BaseRating     *int      `json:"base_rating,omitempty"`
	WeightedNotch  *float64  `json:"weighted_notch,omitempty"`
	FinalRating    *int      `json:"final_rating,omitempty"`
	Warnings       int       `json:"warnings"`
	Timestamp      time.Time `json:"timestamp"`
}

type SubmissionRejectedEvent struct {
	RunID          string    `json:"run_id,omitempty"`
	CounterpartyID string    `json:"counterparty_id"`
	Stages         []string  `json:"stages"`
	Problems       []string  `json:"problems"`
	Timestamp      time.Time `json:"timestamp"`
}
