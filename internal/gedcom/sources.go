package gedcom

import "github.com/dgallion1/gedgest/internal/gedtree"

// The record parsers below only run with WithSourceRecords.

func (p *Parser) parseSubmitter(level int, xref string) *gedtree.Submitter {
	p.tok.Next() // SUBM
	subm := &gedtree.Submitter{Xref: xref}
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "NAME":
				subm.Name = p.takeLineValue()
			case "ADDR":
				addr := p.parseAddress(current)
				subm.Address = &addr
			case "PHON":
				subm.Phone = p.takeLineValue()
			default:
				p.warn("unhandled submitter tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled submitter token %s", cur)
			p.skipLevel(current)
		}
	}
	return subm
}

func (p *Parser) parseRepository(level int, xref string) *gedtree.Repository {
	p.tok.Next() // REPO
	repo := &gedtree.Repository{Xref: xref}
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "NAME":
				repo.Name = p.takeLineValue()
			case "ADDR":
				addr := p.parseAddress(current)
				repo.Address = &addr
			default:
				p.warn("unhandled repository tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled repository token %s", cur)
			p.skipLevel(current)
		}
	}
	return repo
}

func (p *Parser) parseSource(level int, xref string) *gedtree.Source {
	p.tok.Next() // SOUR
	source := &gedtree.Source{Xref: xref}
	current := level

	for !p.closes(level) {
		cur := p.tok.Current
		switch cur.Kind {
		case TokenTag:
			switch cur.Text {
			case "DATA":
				// DATA only groups EVEN and AGNC; its children are read here.
				p.tok.Next()
			case "EVEN":
				source.Data.AddEvent(p.parseEvent(cur.Text, current))
			case "AGNC":
				source.Data.Agency = p.takeLineValue()
			case "ABBR":
				source.Abbreviation = p.takeContinuedText(current)
			case "TITL":
				source.Title = p.takeContinuedText(current)
			case "REPO":
				source.AddRepoCitation(p.parseRepoCitation(current))
			default:
				p.warn("unhandled source tag %s", cur.Text)
				p.skipLevel(current)
			}
		case TokenLevel:
			current = cur.Level
			p.tok.Next()
		default:
			p.warn("unhandled source token %s", cur)
			p.skipLevel(current)
		}
	}
	return source
}
