package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/meridianclinic/meridian/internal/routing"
	clinicports "github.com/meridianclinic/meridian/modules/clinic/domain/ports"
	clinictypes "github.com/meridianclinic/meridian/modules/clinic/domain/types"
	"github.com/meridianclinic/meridian/pkg/httperr"
)

type patientAPIRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthDate string `json:"birth_date"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func handlePatientsAPI(w http.ResponseWriter, r *http.Request, store clinicports.PatientStore) {
	switch r.Method {
	case http.MethodGet:
		patients, err := store.List(r.Context())
		if err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "list_failed", "list failed")
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{"patients": patients})
		return
	case http.MethodPost:
		var req patientAPIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
			return
		}
		p, err := store.Create(r.Context(), clinictypes.Patient{
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			BirthDate: strings.TrimSpace(req.BirthDate),
			Email:     strings.TrimSpace(req.Email),
			Phone:     strings.TrimSpace(req.Phone),
		})
		if err != nil {
			writeClinicStoreError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(p)
		return
	default:
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
}

func handlePatientByUUIDAPI(w http.ResponseWriter, r *http.Request, store clinicports.PatientStore) {
	if r.Method != http.MethodGet {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	patientUUID := strings.TrimPrefix(r.URL.Path, "/api/patients/")
	if patientUUID == "" || strings.Contains(patientUUID, "/") {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusNotFound, "not_found", "not found")
		return
	}
	p, ok, err := store.GetByID(r.Context(), patientUUID)
	if err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "lookup_failed", "lookup failed")
		return
	}
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusNotFound, "not_found", "not found")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(p)
}

type staffAPIRequest struct {
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	SpecialtyUUID string `json:"specialty_uuid"`
}

func handleStaffAPI(w http.ResponseWriter, r *http.Request, store clinicports.StaffStore) {
	switch r.Method {
	case http.MethodGet:
		staff, err := store.List(r.Context())
		if err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "list_failed", "list failed")
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{"staff": staff})
		return
	case http.MethodPost:
		var req staffAPIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
			return
		}
		m, err := store.Create(r.Context(), clinictypes.StaffMember{
			FullName:      strings.TrimSpace(req.FullName),
			Email:         strings.TrimSpace(req.Email),
			Role:          strings.TrimSpace(strings.ToLower(req.Role)),
			SpecialtyUUID: strings.TrimSpace(req.SpecialtyUUID),
		})
		if err != nil {
			writeClinicStoreError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(m)
		return
	default:
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
}

type specialtyAPIRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func handleSpecialtiesAPI(w http.ResponseWriter, r *http.Request, store clinicports.SpecialtyStore) {
	switch r.Method {
	case http.MethodGet:
		specialties, err := store.List(r.Context())
		if err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "list_failed", "list failed")
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{"specialties": specialties})
		return
	case http.MethodPost:
		var req specialtyAPIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
			return
		}
		s, err := store.Create(r.Context(), clinictypes.Specialty{
			Name:        strings.TrimSpace(req.Name),
			Description: strings.TrimSpace(req.Description),
		})
		if err != nil {
			writeClinicStoreError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(s)
		return
	default:
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
}

type invoiceAPIRequest struct {
	PatientUUID string `json:"patient_uuid"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	IssuedAt    string `json:"issued_at"`
}

func handleInvoicesAPI(w http.ResponseWriter, r *http.Request, store clinicports.InvoiceStore) {
	switch r.Method {
	case http.MethodGet:
		invoices, err := store.List(r.Context())
		if err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "list_failed", "list failed")
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{"invoices": invoices})
		return
	case http.MethodPost:
		var req invoiceAPIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
			return
		}
		status := strings.TrimSpace(strings.ToLower(req.Status))
		if status == "" {
			status = clinictypes.InvoiceStatusDraft
		}
		inv, err := store.Create(r.Context(), clinictypes.Invoice{
			PatientUUID: strings.TrimSpace(req.PatientUUID),
			AmountCents: req.AmountCents,
			Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
			Status:      status,
			IssuedAt:    strings.TrimSpace(req.IssuedAt),
		})
		if err != nil {
			writeClinicStoreError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(inv)
		return
	default:
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
}

func writeClinicStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if httperr.IsBadRequest(err) {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "invalid_payload", err.Error())
		return
	}
	routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "create_failed", "create failed")
}
