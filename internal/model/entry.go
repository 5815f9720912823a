package model

// Clinic is a reporting label; it plays no part in valuation.
type Clinic struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Place string `json:"place,omitempty"`
	City  string `json:"city,omitempty"`
	Logo  string `json:"logo,omitempty"`
}

// Entry is one logged procedure row.
type Entry struct {
	ID       string  `json:"id"`
	ClinicID string  `json:"clinicId"`
	Date     string  `json:"date"` // ISO yyyy-mm-dd
	Exam     ExamRef `json:"examId"`
	Qty      int64   `json:"qty"`
	Note     string  `json:"obs,omitempty"`
}

// Selection is the active clinic/date filter. An empty Date selects every
// date for the clinic.
type Selection struct {
	ClinicID string `json:"clinicId"`
	Date     string `json:"date"`
}
