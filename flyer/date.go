package flyer

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrDateParse is returned when text holds no usable DD.MM.YYYY date.
var ErrDateParse = errors.New("no valid date")

var dateToken = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)

// Decision is the validity outcome for one flyer candidate.
type Decision int

const (
	Valid Decision = iota
	Expired
	NotYetStarted
	InvalidDate
)

func (d Decision) String() string {
	switch d {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	case NotYetStarted:
		return "not_yet_started"
	case InvalidDate:
		return "invalid_date"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// ParseDate finds the first DD.MM.YYYY token in text and returns it as a
// calendar date (midnight UTC). Words around the token are ignored.
func ParseDate(text string) (time.Time, error) {
	token := dateToken.FindString(text)
	if token == "" {
		return time.Time{}, fmt.Errorf("%w in %q", ErrDateParse, text)
	}

	date, err := time.Parse("02.01.2006", token)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrDateParse, token, err)
	}

	return date, nil
}

// Today returns the calendar date of now, in now's own location, as
// midnight UTC so it compares directly with ParseDate results.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Classify decides whether a flyer valid from..to is shown on today. A nil
// to means the window is open-ended. With includeFuture, flyers that have
// not started yet are accepted as long as they have not expired; expired
// flyers are always rejected.
func Classify(today time.Time, from, to *time.Time, includeFuture bool) Decision {
	if from == nil {
		return InvalidDate
	}

	if to != nil {
		if today.After(*to) {
			return Expired
		}
		if !includeFuture && today.Before(*from) {
			return NotYetStarted
		}
		return Valid
	}

	if includeFuture || !today.Before(*from) {
		return Valid
	}
	return NotYetStarted
}
