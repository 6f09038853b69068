package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

var ErrInvalidSchema = errors.New("codec: invalid schema")

// FieldSpec is the static description of one field.
type FieldSpec struct {
	Name string
	Kind Kind
	// Elem is the element kind of arrays and sequences.
	Elem Kind
	// Width is the scalar, element or tag width in bytes.
	Width int
	// Len is the static length of arrays.
	Len int
	// Max is the capacity of variable-length fields and the value count of
	// enums and variants.
	Max      int
	Fields   []FieldSpec
	Variants [][]FieldSpec
}

// Schema is the ordered field list of a record type.
type Schema struct {
	Fields []FieldSpec
}

// Describe returns the schema of rec's type.
func Describe(rec Record) Schema {
	fields := rec.Fields()
	out := Schema{Fields: make([]FieldSpec, 0, len(fields))}
	for _, f := range fields {
		out.Fields = append(out.Fields, f.Spec())
	}
	return out
}

// Validate rejects empty and duplicate field names at every level.
func (s Schema) Validate() error {
	return validateSpecs(s.Fields, "")
}

func validateSpecs(specs []FieldSpec, prefix string) error {
	seen := make(map[string]struct{}, len(specs))
	for _, fs := range specs {
		path := fs.Name
		if prefix != "" {
			path = prefix + "." + fs.Name
		}
		if strings.TrimSpace(fs.Name) == "" {
			return fmt.Errorf("%w: empty field name under %q", ErrInvalidSchema, prefix)
		}
		if _, dup := seen[fs.Name]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, path)
		}
		seen[fs.Name] = struct{}{}
		if fs.Kind == KindEnum || fs.Kind == KindVariant {
			if fs.Max < 1 {
				return fmt.Errorf("%w: %s %q has no values", ErrInvalidSchema, fs.Kind, path)
			}
		}
		if err := validateSpecs(fs.Fields, path); err != nil {
			return err
		}
		for i, alt := range fs.Variants {
			if err := validateSpecs(alt, path+"#"+strconv.Itoa(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// String is the canonical text form used for fingerprints.
func (s Schema) String() string {
	var b strings.Builder
	writeSpecs(&b, s.Fields)
	return b.String()
}

func writeSpecs(b *strings.Builder, specs []FieldSpec) {
	b.WriteByte('{')
	for i, fs := range specs {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(fs.Name)
		b.WriteByte(':')
		b.WriteString(fs.Kind.String())
		if fs.Elem != 0 {
			b.WriteByte('<')
			b.WriteString(fs.Elem.String())
			b.WriteByte('>')
		}
		if fs.Width != 0 {
			b.WriteString("/w")
			b.WriteString(strconv.Itoa(fs.Width))
		}
		if fs.Len != 0 {
			b.WriteString("/n")
			b.WriteString(strconv.Itoa(fs.Len))
		}
		if fs.Max != 0 {
			b.WriteString("/m")
			b.WriteString(strconv.Itoa(fs.Max))
		}
		if fs.Kind == KindNested {
			writeSpecs(b, fs.Fields)
		}
		for _, alt := range fs.Variants {
			b.WriteByte('|')
			writeSpecs(b, alt)
		}
	}
	b.WriteByte('}')
}

// Fingerprint returns a CIDv1 (raw codec, sha2-256) of the canonical schema
// text. Two peers with equal fingerprints agree on the wire layout.
func (s Schema) Fingerprint() (string, error) {
	sum, err := multihash.Sum([]byte(s.String()), multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}

// Fingerprint describes rec and returns its schema fingerprint.
func Fingerprint(rec Record) (string, error) {
	return Describe(rec).Fingerprint()
}
