// Package transform turns raw catalog records and activity events into
// star-schema rows.
package transform

import (
	"context"

	"github.com/leapstack-labs/leapload/pkg/core"
)

// Batch holds the rows derived from one input file, grouped by relation.
// Within a relation rows keep input order.
type Batch struct {
	Songs     []core.Song
	Artists   []core.Artist
	Times     []core.TimeRow
	Users     []core.User
	Songplays []core.Songplay
}

// Merge appends the rows of other to b.
func (b *Batch) Merge(other *Batch) {
	if other == nil {
		return
	}
	b.Songs = append(b.Songs, other.Songs...)
	b.Artists = append(b.Artists, other.Artists...)
	b.Times = append(b.Times, other.Times...)
	b.Users = append(b.Users, other.Users...)
	b.Songplays = append(b.Songplays, other.Songplays...)
}

// Counts returns the number of rows per relation.
func (b *Batch) Counts() core.RowCounts {
	return core.RowCounts{
		Songs:     len(b.Songs),
		Artists:   len(b.Artists),
		Time:      len(b.Times),
		Users:     len(b.Users),
		Songplays: len(b.Songplays),
	}
}

// Apply inserts every row into sink, relation by relation in core.Relations
// order. It stops at the first insert error.
func (b *Batch) Apply(ctx context.Context, sink core.RowSink) error {
	for _, s := range b.Songs {
		if err := sink.InsertSong(ctx, s); err != nil {
			return err
		}
	}
	for _, a := range b.Artists {
		if err := sink.InsertArtist(ctx, a); err != nil {
			return err
		}
	}
	for _, t := range b.Times {
		if err := sink.InsertTime(ctx, t); err != nil {
			return err
		}
	}
	for _, u := range b.Users {
		if err := sink.InsertUser(ctx, u); err != nil {
			return err
		}
	}
	for _, sp := range b.Songplays {
		if err := sink.InsertSongplay(ctx, sp); err != nil {
			return err
		}
	}
	return nil
}
