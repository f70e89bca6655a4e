package gedtree

import "fmt"

// Gender is the SEX value of an individual. The zero value is GenderUnknown.
type Gender int

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
	GenderNonbinary
)

// ParseGender maps a SEX line value to a Gender. ok is false for any value
// outside M, F, N and U; the result is then GenderUnknown.
func ParseGender(s string) (g Gender, ok bool) {
	switch s {
	case "M":
		return GenderMale, true
	case "F":
		return GenderFemale, true
	case "N":
		return GenderNonbinary, true
	case "U":
		return GenderUnknown, true
	}
	return GenderUnknown, false
}

// Code returns the single-letter form used in GEDCOM files.
func (g Gender) Code() string {
	switch g {
	case GenderMale:
		return "M"
	case GenderFemale:
		return "F"
	case GenderNonbinary:
		return "N"
	}
	return "U"
}

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	case GenderNonbinary:
		return "nonbinary"
	}
	return "unknown"
}

func (g Gender) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Gender) UnmarshalText(text []byte) error {
	switch string(text) {
	case "male", "M":
		*g = GenderMale
	case "female", "F":
		*g = GenderFemale
	case "nonbinary", "N":
		*g = GenderNonbinary
	case "unknown", "U", "":
		*g = GenderUnknown
	default:
		return fmt.Errorf("unknown gender %q", text)
	}
	return nil
}
