package gedcom

import (
	"strings"

	"github.com/dgallion1/gedgest/internal/gedtree"
)

// expectedForm is the only GEDC FORM value this parser understands.
const expectedForm = "LINEAGE-LINKED"

func (p *Parser) parseHeader(level int) (gedtree.Header, error) {
	p.tok.Next() // HEAD
	var header gedtree.Header
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "CHAR":
				header.Encoding = p.takeLineValue()
			case "CORP":
				header.Corporation = p.takeLineValue()
			case "COPR":
				header.Copyright = p.takeLineValue()
			case "DATE":
				header.Date = p.takeLineValue()
			case "DEST":
				header.AddDestination(p.takeLineValue())
			case "LANG":
				header.Language = p.takeLineValue()
			case "FILE":
				header.Filename = p.takeLineValue()
			case "NOTE":
				header.Note = p.takeContinuedText(current)
			case "SUBM":
				header.SubmitterTag = xrefValue(p.takeLineValue())
			case "SUBN":
				header.SubmissionTag = xrefValue(p.takeLineValue())
			case "TIME":
				// TIME is assumed to sit under an already-read DATE.
				line := p.tok.Line()
				time := p.takeLineValue()
				if header.Date == "" {
					return header, p.fatalAt(line, ErrTimeWithoutDate, "TIME %q", time)
				}
				header.Date = header.Date + " " + time
			case "GEDC":
				header = p.parseGedcomData(current, header)
			case "SOUR":
				p.warn("skipping header source")
				p.skipLevel(current)
			default:
				p.warn("unhandled header tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled header token %s", cur)
			p.skipLevel(current)
		}
	}
	return header, nil
}

func (p *Parser) parseGedcomData(level int, header gedtree.Header) gedtree.Header {
	p.tok.Next() // GEDC
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "VERS":
				header.GedcomVersion = p.takeLineValue()
			case "FORM":
				form := p.takeLineValue()
				if strings.ToUpper(form) != expectedForm {
					p.warn("unrecognized GEDCOM form: expected %s, found %s", expectedForm, form)
				}
				header.GedcomForm = form
			default:
				p.warn("unhandled GEDC tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unexpected GEDC token %s", cur)
			p.skipLevel(current)
		}
	}
	return header
}

func (p *Parser) parseIndividual(level int, xref string) (*gedtree.Individual, error) {
	p.tok.Next() // INDI
	indi := gedtree.NewIndividual(xref)
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "NAME":
				name := p.parseName(current)
				indi.Name = &name
			case "SEX":
				indi.Sex = p.parseGender()
			case "ADOP", "BIRT", "BAPM", "BARM", "BASM", "BLES", "BURI", "CENS",
				"CHR", "CHRA", "CONF", "CREM", "DEAT", "EMIG", "FCOM", "GRAD",
				"IMMI", "NATU", "ORDN", "RETI", "RESI", "PROB", "WILL", "EVEN":
				indi.AddEvent(p.parseEvent(cur.Text, current))
			case "FAMC", "FAMS":
				indi.AddFamilyLink(p.parseFamilyLink(cur.Text, current))
			case "SOUR":
				indi.AddSource(p.parseCitation(current))
			case "NOTE":
				indi.AddNote(p.takeContinuedText(current))
			case "CHAN":
				date, err := p.parseChange(current)
				if err != nil {
					return nil, err
				}
				indi.LastUpdated = date
			default:
				p.warn("unhandled individual tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenCustomTag:
			indi.AddCustomData(p.parseCustomTag(current))
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled individual token %s", cur)
			p.skipLevel(current)
		}
	}
	return indi, nil
}

func (p *Parser) parseFamily(level int, xref string) (*gedtree.Family, error) {
	p.tok.Next() // FAM
	fam := gedtree.NewFamily(xref)
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "MARR", "ANUL", "DIV", "DIVF", "ENGA", "MARB", "MARC", "MARL",
				"MARS", "CENS", "EVEN":
				fam.AddEvent(p.parseEvent(cur.Text, current))
			case "HUSB":
				fam.SetIndividual1(xrefValue(p.takeLineValue()))
			case "WIFE":
				fam.SetIndividual2(xrefValue(p.takeLineValue()))
			case "CHIL":
				fam.AddChild(xrefValue(p.takeLineValue()))
			case "NOTE":
				fam.AddNote(p.takeContinuedText(current))
			case "CHAN":
				date, err := p.parseChange(current)
				if err != nil {
					return nil, err
				}
				fam.LastUpdated = date
			default:
				p.warn("unhandled family tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled family token %s", cur)
			p.skipLevel(current)
		}
	}
	return fam, nil
}

// parseChange reads a CHAN block. It assumes the block holds exactly one DATE
// line directly below CHAN; anything else is a fatal error. A TIME line under
// that DATE is appended to it.
func (p *Parser) parseChange(level int) (string, error) {
	line := p.tok.Line()
	p.tok.Next() // CHAN
	if p.tok.Current.Kind == TokenLineValue {
		p.tok.Next()
	}
	cur := p.tok.Current
	if cur.Kind != TokenLevel || cur.Level <= level {
		return "", p.fatalAt(line, ErrChangeWithoutDate, "found %s", cur)
	}
	dateLevel := cur.Level
	p.tok.Next()
	if cur := p.tok.Current; cur.Kind != TokenTag || cur.Text != "DATE" {
		return "", p.fatal(ErrChangeWithoutDate, "found %s", cur)
	}
	date := p.takeLineValue()

	if cur := p.tok.Current; cur.Kind == TokenLevel && cur.Level > dateLevel {
		p.tok.Next()
		if cur := p.tok.Current; cur.Kind == TokenTag && cur.Text == "TIME" {
			if time := p.takeLineValue(); time != "" {
				date = date + " " + time
			}
		} else {
			p.warn("unhandled change token %s", cur)
			p.skipLevel(dateLevel)
		}
	}
	return date, nil
}
