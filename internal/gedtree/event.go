package gedtree

// EventKind classifies an event. Tags without a dedicated kind map to EventOther
// and keep their original text in Event.Tag.
type EventKind string

const (
	EventAdoption           EventKind = "adoption"
	EventBirth              EventKind = "birth"
	EventBaptism            EventKind = "baptism"
	EventBarMitzvah         EventKind = "bar_mitzvah"
	EventBasMitzvah         EventKind = "bas_mitzvah"
	EventBlessing           EventKind = "blessing"
	EventBurial             EventKind = "burial"
	EventCensus             EventKind = "census"
	EventChristening        EventKind = "christening"
	EventAdultChristening   EventKind = "adult_christening"
	EventConfirmation       EventKind = "confirmation"
	EventCremation          EventKind = "cremation"
	EventDeath              EventKind = "death"
	EventEmigration         EventKind = "emigration"
	EventFirstCommunion     EventKind = "first_communion"
	EventGraduation         EventKind = "graduation"
	EventImmigration        EventKind = "immigration"
	EventNaturalization     EventKind = "naturalization"
	EventOrdination         EventKind = "ordination"
	EventRetirement         EventKind = "retirement"
	EventResidence          EventKind = "residence"
	EventProbate            EventKind = "probate"
	EventWill               EventKind = "will"
	EventAnnulment          EventKind = "annulment"
	EventDivorce            EventKind = "divorce"
	EventDivorceFiled       EventKind = "divorce_filed"
	EventEngagement         EventKind = "engagement"
	EventMarriage           EventKind = "marriage"
	EventMarriageBann       EventKind = "marriage_bann"
	EventMarriageContract   EventKind = "marriage_contract"
	EventMarriageLicense    EventKind = "marriage_license"
	EventMarriageSettlement EventKind = "marriage_settlement"
	EventOther              EventKind = "other"
)

var eventKinds = map[string]EventKind{
	"ADOP": EventAdoption,
	"BIRT": EventBirth,
	"BAPM": EventBaptism,
	"BARM": EventBarMitzvah,
	"BASM": EventBasMitzvah,
	"BLES": EventBlessing,
	"BURI": EventBurial,
	"CENS": EventCensus,
	"CHR":  EventChristening,
	"CHRA": EventAdultChristening,
	"CONF": EventConfirmation,
	"CREM": EventCremation,
	"DEAT": EventDeath,
	"EMIG": EventEmigration,
	"FCOM": EventFirstCommunion,
	"GRAD": EventGraduation,
	"IMMI": EventImmigration,
	"NATU": EventNaturalization,
	"ORDN": EventOrdination,
	"RETI": EventRetirement,
	"RESI": EventResidence,
	"PROB": EventProbate,
	"WILL": EventWill,
	"ANUL": EventAnnulment,
	"DIV":  EventDivorce,
	"DIVF": EventDivorceFiled,
	"ENGA": EventEngagement,
	"MARR": EventMarriage,
	"MARB": EventMarriageBann,
	"MARC": EventMarriageContract,
	"MARL": EventMarriageLicense,
	"MARS": EventMarriageSettlement,
}

// Event is a dated, placed occurrence attached to an individual, family or source.
type Event struct {
	Kind      EventKind        `json:"kind"`
	Tag       string           `json:"tag"`
	Value     string           `json:"value,omitempty"`
	Date      string           `json:"date,omitempty"`
	Place     string           `json:"place,omitempty"`
	Address   *Address         `json:"address,omitempty"`
	Citations []SourceCitation `json:"citations,omitempty"`
}

// EventFromTag builds an empty event for a GEDCOM event tag.
func EventFromTag(tag string) Event {
	kind, ok := eventKinds[tag]
	if !ok {
		kind = EventOther
	}
	return Event{Kind: kind, Tag: tag}
}

func (e *Event) AddCitation(c SourceCitation) {
	e.Citations = append(e.Citations, c)
}
