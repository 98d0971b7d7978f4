package midi

import (
	"fmt"
	"strings"

	"github.com/jsphweid/sightread/model"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// EventFromMessage converts a live MIDI message into a note event. Anything
// other than note start/end reports false.
func EventFromMessage(msg gomidi.Message, timestampms int32) (model.NoteEvent, bool) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		return model.NoteEvent{Type: model.NoteOn, Pitch: int(key), Timestamp: float64(timestampms)}, true
	case msg.GetNoteEnd(&channel, &key):
		return model.NoteEvent{Type: model.NoteOff, Pitch: int(key), Timestamp: float64(timestampms)}, true
	default:
		return model.NoteEvent{}, false
	}
}

// OpenInput picks an input port: by case-insensitive substring of name when
// set, otherwise the first port that is not a virtual through port.
func OpenInput(name string) (drivers.In, error) {
	ports := gomidi.GetInPorts()
	if len(ports) == 0 {
		return nil, fmt.Errorf("no MIDI input ports found")
	}
	for _, p := range ports {
		pn := strings.ToLower(p.String())
		if name != "" {
			if strings.Contains(pn, strings.ToLower(name)) {
				return p, nil
			}
			continue
		}
		if !strings.Contains(pn, "through") {
			return p, nil
		}
	}
	return nil, fmt.Errorf("can't find MIDI input %q", name)
}

func InputNames() []string {
	var names []string
	for _, p := range gomidi.GetInPorts() {
		names = append(names, p.String())
	}
	return names
}

// Listen forwards note events from in until the returned stop is called.
func Listen(in drivers.In, handler func(model.NoteEvent)) (func(), error) {
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		if ev, ok := EventFromMessage(msg, timestampms); ok {
			handler(ev)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return stop, nil
}
