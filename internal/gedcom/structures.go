package gedcom

import (
	"strings"

	"github.com/dgallion1/gedgest/internal/gedtree"
)

func (p *Parser) parseGender() gedtree.Gender {
	p.tok.Next() // SEX
	cur := p.tok.Current
	if cur.Kind != TokenLineValue {
		p.warn("expected gender LineValue, found %s", cur)
		return gedtree.GenderUnknown
	}
	gender, ok := gedtree.ParseGender(cur.Text)
	if !ok {
		p.warn("unknown gender value %s", cur.Text)
	}
	p.tok.Next()
	return gender
}

func (p *Parser) parseName(level int) gedtree.Name {
	name := gedtree.Name{Value: p.optionalLineValue()}
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "GIVN":
				name.Given = p.takeLineValue()
			case "NPFX":
				name.Prefix = p.takeLineValue()
			case "NSFX":
				name.Suffix = p.takeLineValue()
			case "SPFX":
				name.SurnamePrefix = p.takeLineValue()
			case "SURN":
				name.Surname = p.takeLineValue()
			default:
				p.warn("unhandled name tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled name token %s", cur)
			p.skipLevel(current)
		}
	}
	return name
}

func (p *Parser) parseEvent(tag string, level int) gedtree.Event {
	p.tok.Next() // event tag
	event := gedtree.EventFromTag(tag)
	if cur := p.tok.Current; cur.Kind == TokenLineValue {
		event.Value = cur.Text
		p.tok.Next()
	}
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "DATE":
				event.Date = p.takeLineValue()
			case "PLAC":
				event.Place = p.takeLineValue()
			case "ADDR":
				addr := p.parseAddress(current)
				event.Address = &addr
			case "SOUR":
				event.AddCitation(p.parseCitation(current))
			default:
				p.warn("unhandled event tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled event token %s", cur)
			p.skipLevel(current)
		}
	}
	return event
}

func (p *Parser) parseAddress(level int) gedtree.Address {
	var addr gedtree.Address
	var value strings.Builder
	value.WriteString(p.optionalLineValue())
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "CONT":
				value.WriteByte('\n')
				value.WriteString(p.optionalLineValue())
			case "CONC":
				value.WriteByte(' ')
				value.WriteString(p.optionalLineValue())
			case "ADR1":
				addr.Adr1 = p.takeLineValue()
			case "ADR2":
				addr.Adr2 = p.takeLineValue()
			case "ADR3":
				addr.Adr3 = p.takeLineValue()
			case "CITY":
				addr.City = p.takeLineValue()
			case "STAE":
				addr.State = p.takeLineValue()
			case "POST":
				addr.Post = p.takeLineValue()
			case "CTRY":
				addr.Country = p.takeLineValue()
			default:
				p.warn("unhandled address tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled address token %s", cur)
			p.skipLevel(current)
		}
	}

	addr.Value = value.String()
	return addr
}

func (p *Parser) parseCitation(level int) gedtree.SourceCitation {
	citation := gedtree.SourceCitation{Xref: xrefValue(p.takeLineValue())}
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "PAGE":
				citation.Page = p.takeLineValue()
			default:
				p.warn("unhandled citation tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled citation token %s", cur)
			p.skipLevel(current)
		}
	}
	return citation
}

func (p *Parser) parseFamilyLink(tag string, level int) gedtree.FamilyLink {
	link := gedtree.FamilyLink{
		Family: xrefValue(p.takeLineValue()),
		Kind:   gedtree.LinkKindForTag(tag),
	}
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "PEDI":
				link.Pedigree = p.takeLineValue()
			default:
				p.warn("unhandled family link tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled family link token %s", cur)
			p.skipLevel(current)
		}
	}
	return link
}

func (p *Parser) parseRepoCitation(level int) gedtree.RepoCitation {
	citation := gedtree.RepoCitation{Xref: xrefValue(p.takeLineValue())}
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "CALN":
				citation.CallNumber = p.takeLineValue()
			default:
				p.warn("unhandled repository citation tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled repository citation token %s", cur)
			p.skipLevel(current)
		}
	}
	return citation
}
