package models

// LegalSection is one published policy document.
type LegalSection struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
	Audience string `json:"audience"` // LegalAudienceCustomers, LegalAudienceStaff or LegalAudienceEveryone
	Version  string `json:"version"`
	Updated  string `json:"updated"`
}

const (
	LegalAudienceCustomers = "customers"
	LegalAudienceStaff     = "staff"
	LegalAudienceEveryone  = "everyone"
)
