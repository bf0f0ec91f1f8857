package formats

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Faultbox/midgard-mdl/pkg/encoding"
)

// LYTRoom is a placed room model (also used for tracks and obstacles).
type LYTRoom struct {
	Name     string
	Position [3]float64
}

// LYTDoorHook is a door attachment point in a room.
type LYTDoorHook struct {
	Room        string
	Door        string
	Flags       int
	Position    [3]float64
	Orientation [4]float64 // quaternion X, Y, Z, W
}

// LYT represents a parsed area layout file.
type LYT struct {
	Rooms     []LYTRoom
	Tracks    []LYTRoom
	Obstacles []LYTRoom
	DoorHooks []LYTDoorHook
}

// ParseLYT parses layout text. Section counts are taken from the file but a
// section also ends early at the next keyword row.
func ParseLYT(text string) (*LYT, error) {
	rows, err := Tokenize(text)
	if err != nil {
		return nil, err
	}

	lyt := &LYT{}
	for i := 0; i < len(rows); i++ {
		row := rows[i]
		var section []Row
		switch row.Label() {
		case "beginlayout", "donelayout", "filedependancy":
			continue
		case "roomcount", "trackcount", "obstaclecount", "doorhookcount":
			n, err := strconv.Atoi(row.Arg(1))
			if err != nil || n < 0 {
				return nil, lineErrorf(row.Line, ErrMalformedBlock, "%s %q", row.Label(), row.Arg(1))
			}
			section = layoutSection(rows, i+1, n)
			i += len(section)
		default:
			return nil, lineErrorf(row.Line, ErrMalformedBlock, "unexpected layout row %q", row.Text())
		}

		switch row.Label() {
		case "roomcount", "trackcount", "obstaclecount":
			rooms := make([]LYTRoom, 0, len(section))
			for _, r := range section {
				room, err := parseLYTRoom(r)
				if err != nil {
					return nil, err
				}
				rooms = append(rooms, room)
			}
			switch row.Label() {
			case "roomcount":
				lyt.Rooms = rooms
			case "trackcount":
				lyt.Tracks = rooms
			default:
				lyt.Obstacles = rooms
			}
		case "doorhookcount":
			for _, r := range section {
				hook, err := parseLYTDoorHook(r)
				if err != nil {
					return nil, err
				}
				lyt.DoorHooks = append(lyt.DoorHooks, hook)
			}
		}
	}

	return lyt, nil
}

// layoutSection returns up to n rows from start, stopping at a keyword row.
func layoutSection(rows []Row, start, n int) []Row {
	end := start
	for end < len(rows) && end-start < n {
		switch rows[end].Label() {
		case "roomcount", "trackcount", "obstaclecount", "doorhookcount", "donelayout":
			return rows[start:end]
		}
		end++
	}
	return rows[start:end]
}

func parseLYTRoom(r Row) (LYTRoom, error) {
	if len(r.Fields) < 4 {
		return LYTRoom{}, lineErrorf(r.Line, ErrMalformedBlock, "room row needs a name and a position")
	}
	pos, err := parseFloats(r.Fields[1:4])
	if err != nil {
		return LYTRoom{}, lineErrorf(r.Line, ErrMalformedBlock, "room %s: %v", r.Fields[0], err)
	}
	return LYTRoom{Name: r.Fields[0], Position: [3]float64{pos[0], pos[1], pos[2]}}, nil
}

func parseLYTDoorHook(r Row) (LYTDoorHook, error) {
	if len(r.Fields) < 10 {
		return LYTDoorHook{}, lineErrorf(r.Line, ErrMalformedBlock, "door hook row has %d fields, want 10", len(r.Fields))
	}
	flags, err := strconv.Atoi(r.Fields[2])
	if err != nil {
		return LYTDoorHook{}, lineErrorf(r.Line, ErrMalformedBlock, "door hook flags %q", r.Fields[2])
	}
	v, err := parseFloats(r.Fields[3:10])
	if err != nil {
		return LYTDoorHook{}, lineErrorf(r.Line, ErrMalformedBlock, "door hook %s: %v", r.Fields[1], err)
	}
	return LYTDoorHook{
		Room:        r.Fields[0],
		Door:        r.Fields[1],
		Flags:       flags,
		Position:    [3]float64{v[0], v[1], v[2]},
		Orientation: [4]float64{v[3], v[4], v[5], v[6]},
	}, nil
}

// ParseLYTFile parses a layout file from disk.
func ParseLYTFile(path string) (*LYT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading layout: %w", ErrIOFailure, err)
	}
	return ParseLYT(encoding.DecodeText(data))
}

// EncodeLYT writes l as layout text.
func EncodeLYT(w io.Writer, l *LYT) error {
	tw := newTextWriter(w)
	tw.line(0, "beginlayout")
	writeRooms := func(label string, rooms []LYTRoom) {
		tw.line(1, label, strconv.Itoa(len(rooms)))
		for _, r := range rooms {
			tw.line(2, r.Name, formatFloat(r.Position[0]), formatFloat(r.Position[1]), formatFloat(r.Position[2]))
		}
	}
	writeRooms("roomcount", l.Rooms)
	writeRooms("trackcount", l.Tracks)
	writeRooms("obstaclecount", l.Obstacles)
	tw.line(1, "doorhookcount", strconv.Itoa(len(l.DoorHooks)))
	for _, h := range l.DoorHooks {
		fields := []string{h.Room, h.Door, strconv.Itoa(h.Flags)}
		for _, v := range h.Position {
			fields = append(fields, formatFloat(v))
		}
		for _, v := range h.Orientation {
			fields = append(fields, formatFloat(v))
		}
		tw.line(2, fields...)
	}
	tw.line(0, "donelayout")
	return tw.flush()
}

// GetRoom returns the room named name, or nil.
func (l *LYT) GetRoom(name string) *LYTRoom {
	for i := range l.Rooms {
		if encoding.NormalizeName(l.Rooms[i].Name) == encoding.NormalizeName(name) {
			return &l.Rooms[i]
		}
	}
	return nil
}
