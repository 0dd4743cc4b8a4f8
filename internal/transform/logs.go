package transform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapload/pkg/core"
)

// ErrMissingTimestamp is returned for a play event without a ts value.
var ErrMissingTimestamp = errors.New("event has no timestamp")

// DeriveTime builds the time-dimension row for an epoch-millisecond timestamp.
// The instant is interpreted in UTC; week is the ISO 8601 week number.
func DeriveTime(ts int64) core.TimeRow {
	t := time.UnixMilli(ts).UTC()
	_, week := t.ISOWeek()
	return core.TimeRow{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     t.Month().String(),
		Year:      t.Year(),
		Weekday:   t.Weekday().String(),
	}
}

// Logs maps the play events of one log file to time, users and songplays
// rows. Non-play events are dropped. Every retained event yields exactly
// one row of each kind; nothing is deduplicated.
//
// Each play is resolved through resolver once, and only when song, artist
// and length are all present. An unresolved play is kept with no match.
func Logs(ctx context.Context, events []core.LogEvent, resolver core.SongResolver) (*Batch, error) {
	b := &Batch{}
	for i := range events {
		ev := &events[i]
		if !ev.IsPlay() {
			continue
		}
		if ev.Ts == nil {
			return nil, fmt.Errorf("event %d: %w", i+1, ErrMissingTimestamp)
		}

		tr := DeriveTime(*ev.Ts)
		b.Times = append(b.Times, tr)

		b.Users = append(b.Users, core.User{
			UserID:    ev.UserID.String(),
			FirstName: ev.FirstName,
			LastName:  ev.LastName,
			Gender:    ev.Gender,
			Level:     ev.Level,
		})

		match, err := resolve(ctx, ev, resolver)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}

		b.Songplays = append(b.Songplays, core.Songplay{
			StartTime: tr.StartTime,
			UserID:    ev.UserID.String(),
			Level:     ev.Level,
			Match:     match,
			SessionID: ev.SessionID,
			Location:  ev.Location,
			UserAgent: ev.UserAgent,
		})
	}
	return b, nil
}

func resolve(ctx context.Context, ev *core.LogEvent, resolver core.SongResolver) (*core.SongMatch, error) {
	if resolver == nil || ev.Song == nil || ev.Artist == nil || ev.Length == nil {
		return nil, nil
	}
	return resolver.LookupSong(ctx, *ev.Song, *ev.Artist, *ev.Length)
}
