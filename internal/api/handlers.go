/**
 * @description
 * This file contains the HTTP handlers for the enrollment-service's query
 * endpoints: the student-facing enrollment list and the internal purchase
 * lookup used by support tooling. Handlers parse the request, call the
 * application service, and write the HTTP response.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/store: For service logic and sentinel errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/learnhub/enrollment-service/internal/app"
	"github.com/learnhub/enrollment-service/internal/store"
)

// EnrollmentHandlers holds the application service that handlers will use.
type EnrollmentHandlers struct {
	service *app.Service
}

// NewEnrollmentHandlers creates a new instance of EnrollmentHandlers.
func NewEnrollmentHandlers(service *app.Service) *EnrollmentHandlers {
	return &EnrollmentHandlers{service: service}
}

// ListMyEnrollmentsHandler handles GET /me/enrollments for the authenticated student.
func (h *EnrollmentHandlers) ListMyEnrollmentsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetClerkUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	courses, err := h.service.EnrolledCourses(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_enrollments outcome=failed user_id=%s err=%v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"enrolled_courses": courses})
}

// GetPurchaseHandler handles GET /internal/purchases/{id} for support tooling.
func (h *EnrollmentHandlers) GetPurchaseHandler(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid purchase ID format", http.StatusBadRequest)
		return
	}

	purchase, err := h.service.PurchaseByID(r.Context(), purchaseID)
	if err != nil {
		if errors.Is(err, store.ErrPurchaseNotFound) {
			http.Error(w, "Purchase not found", http.StatusNotFound)
			return
		}
		log.Printf("level=error component=api endpoint=get_purchase outcome=failed purchase_id=%s err=%v", purchaseID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, purchase)
}

// writeJSON is a helper for writing JSON responses.
func (h *EnrollmentHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
