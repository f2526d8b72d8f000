package authz

const (
	RoleClinicAdmin  = "clinic-admin"
	RoleDoctor       = "doctor"
	RoleReceptionist = "receptionist"
	RoleBilling      = "billing"
	RoleAnonymous    = "anonymous"
	RoleSuperAdmin   = "super_admin"
)

const (
	ActionRead  = "read"
	ActionWrite = "write"
	ActionAdmin = "admin"
)

const DomainGlobal = "*"

const (
	ObjectPatients    = "clinic.patients"
	ObjectStaff       = "clinic.staff"
	ObjectInvoices    = "clinic.invoices"
	ObjectSpecialties = "clinic.specialties"
	ObjectTenants     = "iam.tenants"
	ObjectGrants      = "iam.grants"
)
