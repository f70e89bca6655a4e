package gedcom

import "fmt"

// TokenKind classifies a token produced by the Tokenizer.
type TokenKind int

const (
	TokenNone TokenKind = iota
	TokenLevel
	TokenPointer
	TokenTag
	TokenCustomTag
	TokenLineValue
	TokenEOF
)

func (k TokenKind) String() string {
	names := []string{"None", "Level", "Pointer", "Tag", "CustomTag", "LineValue", "EOF"}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Token is a single lexical item. Level is set for TokenLevel; Text carries
// the payload of every other kind. Pointer text has its @ delimiters removed.
type Token struct {
	Kind  TokenKind
	Level int
	Text  string
}

func (t Token) String() string {
	switch t.Kind {
	case TokenLevel:
		return fmt.Sprintf("Level(%d)", t.Level)
	case TokenNone, TokenEOF:
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

// knownTags is the GEDCOM 5.5.1 standard tag vocabulary. Words outside it are
// classified as custom tags.
var knownTags = map[string]bool{
	"ABBR": true, "ADDR": true, "ADR1": true, "ADR2": true, "ADR3": true, "ADOP": true,
	"AFN": true, "AGE": true, "AGNC": true, "ALIA": true, "ANCE": true, "ANCI": true,
	"ANUL": true, "ASSO": true, "AUTH": true, "BAPL": true, "BAPM": true, "BARM": true,
	"BASM": true, "BIRT": true, "BLES": true, "BLOB": true, "BURI": true, "CALN": true,
	"CAST": true, "CAUS": true, "CENS": true, "CHAN": true, "CHAR": true, "CHIL": true,
	"CHR": true, "CHRA": true, "CITY": true, "CONC": true, "CONF": true, "CONL": true,
	"CONT": true, "COPR": true, "CORP": true, "CREM": true, "CTRY": true, "DATA": true,
	"DATE": true, "DEAT": true, "DESC": true, "DESI": true, "DEST": true, "DIV": true,
	"DIVF": true, "DSCR": true, "EDUC": true, "EMAIL": true, "EMIG": true, "ENDL": true,
	"ENGA": true, "EVEN": true, "FACT": true, "FAM": true, "FAMC": true, "FAMF": true,
	"FAMS": true, "FAX": true, "FCOM": true, "FILE": true, "FONE": true, "FORM": true,
	"GEDC": true, "GIVN": true, "GRAD": true, "HEAD": true, "HUSB": true, "IDNO": true,
	"IMMI": true, "INDI": true, "LANG": true, "LATI": true, "LONG": true, "MAP": true,
	"MARB": true, "MARC": true, "MARL": true, "MARR": true, "MARS": true, "MEDI": true,
	"NAME": true, "NATI": true, "NATU": true, "NCHI": true, "NICK": true, "NMR": true,
	"NOTE": true, "NPFX": true, "NSFX": true, "OBJE": true, "OCCU": true, "ORDI": true,
	"ORDN": true, "PAGE": true, "PEDI": true, "PHON": true, "PLAC": true, "POST": true,
	"PROB": true, "PROP": true, "PUBL": true, "QUAY": true, "REFN": true, "RELA": true,
	"RELI": true, "REPO": true, "RESI": true, "RESN": true, "RETI": true, "RFN": true,
	"RIN": true, "ROLE": true, "ROMN": true, "SEX": true, "SLGC": true, "SLGS": true,
	"SOUR": true, "SPFX": true, "SSN": true, "STAE": true, "STAT": true, "SUBM": true,
	"SUBN": true, "SURN": true, "TEMP": true, "TEXT": true, "TIME": true, "TITL": true,
	"TRLR": true, "TYPE": true, "VERS": true, "WIFE": true, "WILL": true, "WWW": true,
}

// IsKnownTag reports whether tag belongs to the standard vocabulary.
func IsKnownTag(tag string) bool {
	return knownTags[tag]
}
