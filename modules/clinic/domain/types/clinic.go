package types

type Patient struct {
	PatientUUID string `json:"patient_uuid"`
	TenantID    string `json:"tenant_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	BirthDate   string `json:"birth_date"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

type StaffMember struct {
	StaffUUID     string `json:"staff_uuid"`
	TenantID      string `json:"tenant_id"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	SpecialtyUUID string `json:"specialty_uuid,omitempty"`
}

type Specialty struct {
	SpecialtyUUID string `json:"specialty_uuid"`
	TenantID      string `json:"tenant_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
}

type Invoice struct {
	InvoiceUUID string `json:"invoice_uuid"`
	TenantID    string `json:"tenant_id"`
	PatientUUID string `json:"patient_uuid"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	IssuedAt    string `json:"issued_at"`
}

const (
	InvoiceStatusDraft  = "draft"
	InvoiceStatusIssued = "issued"
	InvoiceStatusPaid   = "paid"
	InvoiceStatusVoid   = "void"
)
