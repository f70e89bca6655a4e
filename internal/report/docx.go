package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

func heading(d *docx.Docx, text string, level int) {
	p := d.AddParagraph()
	p.Properties = &docx.ParagraphProperties{Style: &docx.Style{Val: fmt.Sprintf("Heading%d", level)}}
	size := "32"
	if level > 1 {
		size = "26"
	}
	p.AddText(text).Bold().Size(size)
}

// WriteDOCX writes the summary as a Word document.
func WriteDOCX(w io.Writer, s Summary) error {
	d := docx.New().WithDefaultTheme()

	heading(d, s.Title, 1)
	d.AddParagraph().AddText(fmt.Sprintf("%d individuals, %d families", s.Stats.Individuals, s.Stats.Families))

	if len(s.People) > 0 {
		heading(d, "Individuals", 2)
		for _, p := range s.People {
			para := d.AddParagraph()
			para.AddText(p.Name).Bold()
			var facts []string
			if p.Birth != "" {
				facts = append(facts, "born "+p.Birth)
			}
			if p.Death != "" {
				facts = append(facts, "died "+p.Death)
			}
			if len(facts) > 0 {
				para.AddText(" (" + strings.Join(facts, "; ") + ")")
			}
			for _, n := range p.Notes {
				d.AddParagraph().AddText(n).Size("18")
			}
		}
	}

	if len(s.Unions) > 0 {
		heading(d, "Families", 2)
		for _, u := range s.Unions {
			partners := "Unknown partners"
			if len(u.Partners) > 0 {
				partners = strings.Join(u.Partners, " & ")
			}
			para := d.AddParagraph()
			para.AddText(partners).Bold()
			if u.Married != "" {
				para.AddText(", married " + u.Married)
			}
			for _, c := range u.Children {
				d.AddParagraph().AddText("Child: " + c)
			}
		}
	}

	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
