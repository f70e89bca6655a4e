// Package gedtree holds the genealogy records produced by the GEDCOM parser.
//
// Every field that the source format treats as optional is a plain value whose
// zero value means "absent". Cross-reference pointers are kept as opaque
// strings; nothing in this package checks that a referenced record exists.
package gedtree

// Document is the root of a parsed GEDCOM file.
type Document struct {
	Header       Header        `json:"header"`
	Individuals  []*Individual `json:"individuals"`
	Families     []*Family     `json:"families"`
	Submitters   []*Submitter  `json:"submitters,omitempty"`
	Sources      []*Source     `json:"sources,omitempty"`
	Repositories []*Repository `json:"repositories,omitempty"`
}

// Stats is an aggregate count summary of a Document.
type Stats struct {
	Individuals  int `json:"individuals"`
	Families     int `json:"families"`
	Submitters   int `json:"submitters"`
	Sources      int `json:"sources"`
	Repositories int `json:"repositories"`
}

// AddIndividual appends an individual, preserving source order.
// Duplicate xrefs are accepted.
func (d *Document) AddIndividual(i *Individual) {
	d.Individuals = append(d.Individuals, i)
}

// AddFamily appends a family, preserving source order.
func (d *Document) AddFamily(f *Family) {
	d.Families = append(d.Families, f)
}

func (d *Document) AddSubmitter(s *Submitter) {
	d.Submitters = append(d.Submitters, s)
}

func (d *Document) AddSource(s *Source) {
	d.Sources = append(d.Sources, s)
}

func (d *Document) AddRepository(r *Repository) {
	d.Repositories = append(d.Repositories, r)
}

// Stats returns record counts.
func (d *Document) Stats() Stats {
	return Stats{
		Individuals:  len(d.Individuals),
		Families:     len(d.Families),
		Submitters:   len(d.Submitters),
		Sources:      len(d.Sources),
		Repositories: len(d.Repositories),
	}
}

// Individual returns the first individual with the given xref, or nil.
func (d *Document) Individual(xref string) *Individual {
	for _, i := range d.Individuals {
		if i.Xref == xref {
			return i
		}
	}
	return nil
}

// Family returns the first family with the given xref, or nil.
func (d *Document) Family(xref string) *Family {
	for _, f := range d.Families {
		if f.Xref == xref {
			return f
		}
	}
	return nil
}

// Header is the file-level metadata block. Every field is independently optional.
type Header struct {
	Encoding      string   `json:"encoding,omitempty"`
	Corporation   string   `json:"corporation,omitempty"`
	Copyright     string   `json:"copyright,omitempty"`
	Date          string   `json:"date,omitempty"`
	Destinations  []string `json:"destinations,omitempty"`
	Language      string   `json:"language,omitempty"`
	Filename      string   `json:"filename,omitempty"`
	Note          string   `json:"note,omitempty"`
	SubmitterTag  string   `json:"submitter_tag,omitempty"`
	SubmissionTag string   `json:"submission_tag,omitempty"`
	GedcomVersion string   `json:"gedcom_version,omitempty"`
	GedcomForm    string   `json:"gedcom_form,omitempty"`
}

func (h *Header) AddDestination(dest string) {
	h.Destinations = append(h.Destinations, dest)
}

// Individual is an INDI record.
type Individual struct {
	Xref        string           `json:"xref,omitempty"`
	Name        *Name            `json:"name,omitempty"`
	Sex         Gender           `json:"sex"`
	Events      []Event          `json:"events,omitempty"`
	Families    []FamilyLink     `json:"families,omitempty"`
	Sources     []SourceCitation `json:"sources,omitempty"`
	Notes       []string         `json:"notes,omitempty"`
	LastUpdated string           `json:"last_updated,omitempty"`
	Custom      []CustomData     `json:"custom,omitempty"`
}

func NewIndividual(xref string) *Individual {
	return &Individual{Xref: xref}
}

func (i *Individual) AddEvent(e Event) {
	i.Events = append(i.Events, e)
}

func (i *Individual) AddFamilyLink(l FamilyLink) {
	i.Families = append(i.Families, l)
}

func (i *Individual) AddCustomData(c CustomData) {
	i.Custom = append(i.Custom, c)
}

func (i *Individual) AddSource(c SourceCitation) {
	i.Sources = append(i.Sources, c)
}

func (i *Individual) AddNote(n string) {
	i.Notes = append(i.Notes, n)
}

// FirstEvent returns the first event of the given kind, or nil.
func (i *Individual) FirstEvent(kind EventKind) *Event {
	for idx := range i.Events {
		if i.Events[idx].Kind == kind {
			return &i.Events[idx]
		}
	}
	return nil
}

// Family is a FAM record. Individual1 comes from HUSB, Individual2 from WIFE.
type Family struct {
	Xref        string   `json:"xref,omitempty"`
	Individual1 string   `json:"individual1,omitempty"`
	Individual2 string   `json:"individual2,omitempty"`
	Children    []string `json:"children,omitempty"`
	Events      []Event  `json:"events,omitempty"`
	Notes       []string `json:"notes,omitempty"`
	LastUpdated string   `json:"last_updated,omitempty"`
}

func NewFamily(xref string) *Family {
	return &Family{Xref: xref}
}

func (f *Family) SetIndividual1(xref string) {
	f.Individual1 = xref
}

func (f *Family) SetIndividual2(xref string) {
	f.Individual2 = xref
}

func (f *Family) AddChild(xref string) {
	f.Children = append(f.Children, xref)
}

func (f *Family) AddEvent(e Event) {
	f.Events = append(f.Events, e)
}

func (f *Family) AddNote(n string) {
	f.Notes = append(f.Notes, n)
}

// Name is a NAME structure. Any subset of the parts may be present.
type Name struct {
	Value         string `json:"value,omitempty"`
	Given         string `json:"given,omitempty"`
	Surname       string `json:"surname,omitempty"`
	Prefix        string `json:"prefix,omitempty"`
	SurnamePrefix string `json:"surname_prefix,omitempty"`
	Suffix        string `json:"suffix,omitempty"`
}

// Display renders the name without the surname slashes used by the format.
func (n *Name) Display() string {
	if n == nil {
		return ""
	}
	if n.Value != "" {
		return collapseSpaces(stripSlashes(n.Value))
	}
	return collapseSpaces(joinNonEmpty(n.Prefix, n.Given, n.SurnamePrefix, n.Surname, n.Suffix))
}

// Address is an ADDR structure. Value holds the ADDR line joined with its
// CONT lines; the remaining fields come from the structured subtags.
type Address struct {
	Value   string `json:"value,omitempty"`
	Adr1    string `json:"adr1,omitempty"`
	Adr2    string `json:"adr2,omitempty"`
	Adr3    string `json:"adr3,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Post    string `json:"post,omitempty"`
	Country string `json:"country,omitempty"`
}

// FamilyLinkKind says whether an individual is a child or a spouse in a family.
type FamilyLinkKind string

const (
	ChildLink  FamilyLinkKind = "child"
	SpouseLink FamilyLinkKind = "spouse"
)

// FamilyLink is a FAMC or FAMS pointer from an individual to a family.
type FamilyLink struct {
	Family   string         `json:"family"`
	Kind     FamilyLinkKind `json:"kind"`
	Pedigree string         `json:"pedigree,omitempty"`
}

// LinkKindForTag maps FAMC/FAMS to a link kind.
func LinkKindForTag(tag string) FamilyLinkKind {
	if tag == "FAMS" {
		return SpouseLink
	}
	return ChildLink
}

// SourceCitation points at a SOUR record.
type SourceCitation struct {
	Xref string `json:"xref"`
	Page string `json:"page,omitempty"`
}

// RepoCitation points at a REPO record.
type RepoCitation struct {
	Xref       string `json:"xref"`
	CallNumber string `json:"call_number,omitempty"`
}

// CustomData is an unrecognized subordinate tag and its line value.
type CustomData struct {
	Tag   string `json:"tag"`
	Value string `json:"value,omitempty"`
}

// Submitter is a SUBM record.
type Submitter struct {
	Xref    string   `json:"xref,omitempty"`
	Name    string   `json:"name,omitempty"`
	Address *Address `json:"address,omitempty"`
	Phone   string   `json:"phone,omitempty"`
}

// Repository is a REPO record.
type Repository struct {
	Xref    string   `json:"xref,omitempty"`
	Name    string   `json:"name,omitempty"`
	Address *Address `json:"address,omitempty"`
}

// Source is a SOUR record.
type Source struct {
	Xref         string         `json:"xref,omitempty"`
	Title        string         `json:"title,omitempty"`
	Abbreviation string         `json:"abbreviation,omitempty"`
	Data         SourceData     `json:"data"`
	Repositories []RepoCitation `json:"repositories,omitempty"`
}

// SourceData is the DATA block of a source record.
type SourceData struct {
	Agency string  `json:"agency,omitempty"`
	Events []Event `json:"events,omitempty"`
}

func (s *Source) AddRepoCitation(c RepoCitation) {
	s.Repositories = append(s.Repositories, c)
}

func (d *SourceData) AddEvent(e Event) {
	d.Events = append(d.Events, e)
}
