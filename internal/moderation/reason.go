package moderation

import "fmt"

// Reason identifies which gate rejected a message.
type Reason string

const (
	ReasonAccountGone   Reason = "AccountGone"
	ReasonTooFast       Reason = "TooFast"
	ReasonRepeatedChars Reason = "RepeatedChars"
	ReasonExcessiveCaps Reason = "ExcessiveCaps"
	ReasonTooManyLinks  Reason = "TooManyLinks"
	ReasonAutoMuted     Reason = "AutoMuted"
	ReasonBanned        Reason = "Banned"
	ReasonMuted         Reason = "Muted"
	ReasonTooLong       Reason = "TooLong"
	ReasonSpamDetected  Reason = "SpamDetected"
)

// Rejection is returned by the engine when a gate fires. It short-circuits
// the pipeline: no persistence, no broadcast, only the sender is notified.
type Rejection struct {
	Reason  Reason
	Message string
	// Until is set for bans: a formatted end time or "Permanent".
	Until string
	// RemainingMinutes is set for mutes.
	RemainingMinutes int
}

func (r *Rejection) Error() string {
	if r.Message != "" {
		return fmt.Sprintf("%s: %s", r.Reason, r.Message)
	}
	return string(r.Reason)
}

// Reject builds a bare rejection for a reason.
func Reject(reason Reason, msg string) *Rejection {
	return &Rejection{Reason: reason, Message: msg}
}

// AsRejection unwraps err into a *Rejection if it is one.
func AsRejection(err error) (*Rejection, bool) {
	for err != nil {
		if r, ok := err.(*Rejection); ok {
			return r, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
