package model

// LookupDomain groups values offered by the job form.
type LookupDomain string

// Lookup domains. The equipment procedure spelling matches the stored data.
const (
	LookupJobStatus             LookupDomain = "JOB_STATUS"
	LookupJobEquipment          LookupDomain = "JOB_EQUIPMENT"
	LookupJobEquipmentProcedure LookupDomain = "JOB_EQUIPEMENT_PROCEDURE"
	LookupJobBrand              LookupDomain = "JOB_BRAND"
	LookupJobPriority           LookupDomain = "JOB_PRIORITY"
)

// InitStateDomains returns the domains included in the job form's initial state.
func InitStateDomains() []LookupDomain {
	return []LookupDomain{
		LookupJobStatus,
		LookupJobEquipment,
		LookupJobEquipmentProcedure,
		LookupJobBrand,
		LookupJobPriority,
	}
}

// LookupValue is a selectable value of a lookup domain.
type LookupValue struct {
	ID        int64        `json:"id"         db:"id"`
	Domain    LookupDomain `json:"domain"     db:"domain"`
	Code      string       `json:"code"       db:"code"`
	Label     string       `json:"label"      db:"label"`
	SortOrder int          `json:"sort_order" db:"sort_order"`
}

// ClientRef is the minimal client record the job form needs.
type ClientRef struct {
	ID   int64  `json:"id"   db:"id"`
	Name string `json:"name" db:"name"`
}

// InitStateItem is one entry of the job form's initial state: either a lookup value
// (Domain set) or a client (Name set).
type InitStateItem struct {
	ID     int64        `json:"id"`
	Domain LookupDomain `json:"domain,omitempty"`
	Code   string       `json:"code,omitempty"`
	Label  string       `json:"label,omitempty"`
	Name   string       `json:"name,omitempty"`
}

// InitPageState is the response of the init-state endpoint.
type InitPageState struct {
	Items []InitStateItem `json:"initPageState"`
}

// BuildInitPageState flattens lookup values and clients in display order.
func BuildInitPageState(values []LookupValue, clients []ClientRef) InitPageState {
	items := make([]InitStateItem, 0, len(values)+len(clients))
	for _, v := range values {
		items = append(items, InitStateItem{ID: v.ID, Domain: v.Domain, Code: v.Code, Label: v.Label})
	}
	for _, c := range clients {
		items = append(items, InitStateItem{ID: c.ID, Name: c.Name})
	}
	return InitPageState{Items: items}
}
