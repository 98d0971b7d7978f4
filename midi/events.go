package midi

import (
	"sort"

	"github.com/jsphweid/sightread/model"
	"gitlab.com/gomidi/midi/v2/smf"
)

// NoteEvents flattens every track of s into note events ordered by time.
// Timestamps are milliseconds from the start of the file. A note-on with zero
// velocity counts as a note-off.
func NoteEvents(s *smf.SMF) []model.NoteEvent {
	var events []model.NoteEvent

	for _, track := range s.Tracks {
		var absTicks int64
		for _, event := range track {
			absTicks += int64(event.Delta)
			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity):
				typ := model.NoteOn
				if velocity == 0 {
					typ = model.NoteOff
				}
				events = append(events, model.NoteEvent{
					Type:      typ,
					Pitch:     int(key),
					Timestamp: microsToMillis(s.TimeAt(absTicks)),
				})
			case event.Message.GetNoteOff(&channel, &key, &velocity):
				events = append(events, model.NoteEvent{
					Type:      model.NoteOff,
					Pitch:     int(key),
					Timestamp: microsToMillis(s.TimeAt(absTicks)),
				})
			}
		}
	}

	// earlier first, then note off before note on
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].Type == model.NoteOff && events[j].Type != model.NoteOff
	})
	return events
}

func microsToMillis(us int64) float64 {
	return float64(us) / 1000
}
