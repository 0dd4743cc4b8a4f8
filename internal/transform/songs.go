package transform

import "github.com/leapstack-labs/leapload/pkg/core"

// Song maps one catalog record to exactly one Song and one Artist row.
// Values are copied as-is; missing keys are left for the store to reject.
func Song(rec core.SongRecord) *Batch {
	return &Batch{
		Songs: []core.Song{{
			SongID:   rec.SongID,
			Title:    rec.Title,
			ArtistID: rec.ArtistID,
			Year:     rec.Year,
			Duration: rec.Duration,
		}},
		Artists: []core.Artist{{
			ArtistID:  rec.ArtistID,
			Name:      rec.ArtistName,
			Location:  rec.ArtistLocation,
			Latitude:  rec.ArtistLatitude,
			Longitude: rec.ArtistLongitude,
		}},
	}
}

// SongFile maps every record of a catalog file.
func SongFile(records []core.SongRecord) *Batch {
	b := &Batch{}
	for _, rec := range records {
		b.Merge(Song(rec))
	}
	return b
}
