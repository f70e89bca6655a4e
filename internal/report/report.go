// Package report renders a parsed family tree for people rather than programs.
//
// Markdown is the source format; HTML is produced from it with goldmark, and
// DOCX is written directly from the same summary.
package report

import (
	"fmt"
	"strings"

	"github.com/dgallion1/gedgest/internal/gedcom"
	"github.com/dgallion1/gedgest/internal/gedtree"
)

// Person is one individual as shown in a report.
type Person struct {
	Xref  string
	Name  string
	Sex   string
	Birth string
	Death string
	Notes []string
}

// Union is one family as shown in a report.
type Union struct {
	Xref     string
	Partners []string
	Married  string
	Children []string
}

// Summary is the report model shared by every output format.
type Summary struct {
	Title       string
	Header      gedtree.Header
	Stats       gedtree.Stats
	People      []Person
	Unions      []Union
	Diagnostics []gedcom.Diagnostic
}

// Summarize resolves family pointers to display names. Pointers that match
// no individual are shown as the raw xref.
func Summarize(title string, doc *gedtree.Document, diags []gedcom.Diagnostic) Summary {
	s := Summary{
		Title:       title,
		Header:      doc.Header,
		Stats:       doc.Stats(),
		Diagnostics: diags,
	}

	for _, indi := range doc.Individuals {
		p := Person{
			Xref:  indi.Xref,
			Name:  displayName(indi),
			Sex:   indi.Sex.String(),
			Birth: eventSummary(indi.FirstEvent(gedtree.EventBirth)),
			Death: eventSummary(indi.FirstEvent(gedtree.EventDeath)),
		}
		for _, n := range indi.Notes {
			if t := PlainText(n); t != "" {
				p.Notes = append(p.Notes, t)
			}
		}
		s.People = append(s.People, p)
	}

	name := func(xref string) string {
		if indi := doc.Individual(xref); indi != nil {
			return displayName(indi)
		}
		return xref
	}
	for _, fam := range doc.Families {
		u := Union{Xref: fam.Xref}
		for _, x := range []string{fam.Individual1, fam.Individual2} {
			if x != "" {
				u.Partners = append(u.Partners, name(x))
			}
		}
		for _, e := range fam.Events {
			if e.Kind == gedtree.EventMarriage {
				u.Married = eventSummary(&e)
				break
			}
		}
		for _, c := range fam.Children {
			u.Children = append(u.Children, name(c))
		}
		s.Unions = append(s.Unions, u)
	}
	return s
}

func displayName(indi *gedtree.Individual) string {
	if n := indi.Name.Display(); n != "" {
		return n
	}
	if indi.Xref != "" {
		return "(unnamed " + indi.Xref + ")"
	}
	return "(unnamed)"
}

func eventSummary(e *gedtree.Event) string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	if e.Date != "" {
		parts = append(parts, e.Date)
	}
	if e.Place != "" {
		parts = append(parts, e.Place)
	}
	if len(parts) == 0 && e.Value != "" {
		parts = append(parts, e.Value)
	}
	return strings.Join(parts, ", ")
}

// Markdown renders the summary as GitHub-flavored Markdown.
func Markdown(s Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", escapeInline(s.Title))

	b.WriteString("| Records | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Individuals | %d |\n", s.Stats.Individuals)
	fmt.Fprintf(&b, "| Families | %d |\n", s.Stats.Families)
	if s.Stats.Sources > 0 {
		fmt.Fprintf(&b, "| Sources | %d |\n", s.Stats.Sources)
	}
	b.WriteString("\n")

	var meta []string
	if s.Header.GedcomVersion != "" {
		meta = append(meta, "GEDCOM "+s.Header.GedcomVersion)
	}
	if s.Header.Encoding != "" {
		meta = append(meta, s.Header.Encoding)
	}
	if s.Header.Date != "" {
		meta = append(meta, "exported "+s.Header.Date)
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "_%s_\n\n", escapeInline(strings.Join(meta, ", ")))
	}

	if len(s.People) > 0 {
		b.WriteString("## Individuals\n\n")
		b.WriteString("| Name | Sex | Born | Died |\n|---|---|---|---|\n")
		for _, p := range s.People {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(p.Name), cell(p.Sex), cell(p.Birth), cell(p.Death))
		}
		b.WriteString("\n")
	}

	if len(s.Unions) > 0 {
		b.WriteString("## Families\n\n")
		for _, u := range s.Unions {
			partners := "Unknown partners"
			if len(u.Partners) > 0 {
				partners = strings.Join(u.Partners, " & ")
			}
			fmt.Fprintf(&b, "### %s\n\n", escapeInline(partners))
			if u.Married != "" {
				fmt.Fprintf(&b, "Married: %s\n\n", escapeInline(u.Married))
			}
			for _, c := range u.Children {
				fmt.Fprintf(&b, "- %s\n", escapeInline(c))
			}
			if len(u.Children) > 0 {
				b.WriteString("\n")
			}
		}
	}

	var noted []Person
	for _, p := range s.People {
		if len(p.Notes) > 0 {
			noted = append(noted, p)
		}
	}
	if len(noted) > 0 {
		b.WriteString("## Notes\n\n")
		for _, p := range noted {
			for _, n := range p.Notes {
				fmt.Fprintf(&b, "- **%s**: %s\n", escapeInline(p.Name), escapeInline(strings.ReplaceAll(n, "\n", " ")))
			}
		}
		b.WriteString("\n")
	}

	if len(s.Diagnostics) > 0 {
		b.WriteString("## Parser diagnostics\n\n")
		for _, d := range s.Diagnostics {
			fmt.Fprintf(&b, "- line %d: %s\n", d.Line, escapeInline(d.Message))
		}
	}

	return b.String()
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`,
)

func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}

func cell(s string) string {
	s = strings.ReplaceAll(escapeInline(s), "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
