package codec

type mode uint8

const (
	modeIdle mode = iota
	modeTrack
	modeHold
	modeCount
)

type vec3 struct {
	X, Y, Z float32
}

func (v *vec3) Fields() []Field {
	return []Field{
		Num("x", &v.X),
		Num("y", &v.Y),
		Num("z", &v.Z),
	}
}

type linear struct {
	Speed float64
}

func (l *linear) Fields() []Field {
	return []Field{Num("speed", &l.Speed)}
}

type turning struct {
	Rate   int16
	Radius uint32
}

func (t *turning) Fields() []Field {
	return []Field{
		Num("rate", &t.Rate),
		Num("radius", &t.Radius),
	}
}

// track is the mixed-type record the codec tests run against.
type track struct {
	ID      uint32
	Offset  int64
	Heading float64
	Active  bool
	Mode    mode
	Samples [4]int16
	History []uint16
	Label   string
	Blob    []byte
	Pose    vec3
	Motion  uint8
	Linear  linear
	Turning turning
}

func (r *track) Fields() []Field {
	return []Field{
		Num("id", &r.ID),
		Num("offset", &r.Offset),
		Num("heading", &r.Heading),
		Bool("active", &r.Active),
		Enum("mode", &r.Mode, int(modeCount)),
		Array("samples", r.Samples[:]),
		Seq("history", &r.History, 8),
		String("label", &r.Label, 16),
		Bytes("blob", &r.Blob, 300),
		Nested("pose", &r.Pose),
		Variant("motion", &r.Motion, &r.Linear, &r.Turning),
	}
}

const trackFieldCount = 11

func sampleTrack() track {
	return track{
		ID:      0xCAFEBABE,
		Offset:  -42,
		Heading: 271.5,
		Active:  true,
		Mode:    modeTrack,
		Samples: [4]int16{-1, 0, 1, 32767},
		History: []uint16{1, 2, 65535},
		Label:   "alpha",
		Blob:    []byte{0xDE, 0xAD},
		Pose:    vec3{X: 1.5, Y: -2, Z: 0},
		Motion:  1,
		Turning: turning{Rate: -90, Radius: 12},
	}
}

// clone deep-copies the slices so a decode into the copy cannot alias r.
func (r track) clone() track {
	out := r
	if r.History != nil {
		out.History = append([]uint16(nil), r.History...)
	}
	if r.Blob != nil {
		out.Blob = append([]byte(nil), r.Blob...)
	}
	return out
}
