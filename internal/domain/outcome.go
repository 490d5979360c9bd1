package domain

import (
	"errors"
	"fmt"
	"time"
)

type Reason string

const (
	ReasonOK              Reason = "ok"
	ReasonRateLimited     Reason = "rate_limited"
	ReasonCodeExpired     Reason = "code_expired"
	ReasonCodeInvalid     Reason = "code_invalid"
	ReasonCodeMissing     Reason = "code_missing"
	ReasonPasswordMissing Reason = "password_missing"
	ReasonNotAuthorized   Reason = "not_authorized"
	ReasonProtocol        Reason = "protocol"
	ReasonInvalidInput    Reason = "invalid_input"
	ReasonImportFailed    Reason = "import_failed"
)

// Outcome is the typed result of one external call: login, import item or send.
type Outcome struct {
	OK     bool
	Reason Reason
	Detail string
	Wait   time.Duration
}

func Success(format string, args ...any) Outcome {
	return Outcome{OK: true, Reason: ReasonOK, Detail: fmt.Sprintf(format, args...)}
}

func Failure(reason Reason, format string, args ...any) Outcome {
	return Outcome{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (o Outcome) String() string {
	return o.Detail
}

// Classify maps a protocol error onto a failure outcome.
func Classify(err error) Outcome {
	var flood *FloodWaitError
	switch {
	case err == nil:
		return Outcome{OK: true, Reason: ReasonOK}
	case errors.As(err, &flood):
		return Outcome{
			Reason: ReasonRateLimited,
			Detail: fmt.Sprintf("rate limited, wait %s", flood.Wait),
			Wait:   flood.Wait,
		}
	case errors.Is(err, ErrCodeExpired):
		return Failure(ReasonCodeExpired, "verification code expired")
	case errors.Is(err, ErrCodeInvalid):
		return Failure(ReasonCodeInvalid, "verification code invalid")
	case errors.Is(err, ErrCodeEmpty), errors.Is(err, ErrCodeNotFound):
		return Failure(ReasonCodeMissing, "verification code missing: %v", err)
	case errors.Is(err, ErrPasswordNotFound):
		return Failure(ReasonPasswordMissing, "2fa password missing")
	case errors.Is(err, ErrNotAuthorized):
		return Failure(ReasonNotAuthorized, "%v", err)
	case errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrNoTargets):
		return Failure(ReasonInvalidInput, "%v", err)
	default:
		return Failure(ReasonProtocol, "%v", err)
	}
}

type Tally struct {
	Total     int
	Succeeded int
	Failed    int
}

func (t Tally) String() string {
	return fmt.Sprintf("succeeded %d, failed %d, total %d", t.Succeeded, t.Failed, t.Total)
}

func TallyOutcomes(outcomes []Outcome) Tally {
	t := Tally{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.OK {
			t.Succeeded++
		} else {
			t.Failed++
		}
	}
	return t
}
