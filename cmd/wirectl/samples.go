package main

import "github.com/danmuck/simwire/internal/codec"

// Sample data classes shipped with wirectl so peers can compare schema
// fingerprints without sharing code.

type vec3 struct {
	X, Y, Z float32
}

func (v *vec3) Fields() []codec.Field {
	return []codec.Field{
		codec.Num("x", &v.X),
		codec.Num("y", &v.Y),
		codec.Num("z", &v.Z),
	}
}

type pose struct {
	Position    vec3
	Orientation [4]float32
	Stamp       uint32
}

func (p *pose) Fields() []codec.Field {
	return []codec.Field{
		codec.Nested("position", &p.Position),
		codec.Array("orientation", p.Orientation[:]),
		codec.Num("stamp", &p.Stamp),
	}
}

type reading struct {
	Sensor  string
	Valid   bool
	Quality uint8
	Values  []float64
}

func (r *reading) Fields() []codec.Field {
	return []codec.Field{
		codec.String("sensor", &r.Sensor, 32),
		codec.Bool("valid", &r.Valid),
		codec.Enum("quality", &r.Quality, 4),
		codec.Seq("values", &r.Values, 64),
	}
}

type sample struct {
	name string
	rec  codec.Record
}

func samples() []sample {
	return []sample{
		{name: "pose", rec: &pose{}},
		{name: "reading", rec: &reading{}},
	}
}
