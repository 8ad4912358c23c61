package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/logging"
	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/recommend"
)

// CDS Hooks service served by the advisor.
const (
	CDSServiceID = "antibiotic-advisor"
	CDSHook      = "order-select"

	cardSourceLabel = "Antibiotic Advisor"
	maxSummaryLen   = 140
)

// CDSService describes a service returned in discovery.
type CDSService struct {
	Hook        string `json:"hook"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	ID          string `json:"id"`
}

// CDSHookContext is the hook context. Patient carries the advisor's patient input.
type CDSHookContext struct {
	UserID      string          `json:"userId,omitempty"`
	PatientID   string          `json:"patientId,omitempty"`
	EncounterID string          `json:"encounterId,omitempty"`
	Selections  []string        `json:"selections,omitempty"`
	DraftOrders json.RawMessage `json:"draftOrders,omitempty"`
	Patient     *patient.Input  `json:"patient"`
}

// CDSHookRequest is the payload POSTed to invoke the hook.
type CDSHookRequest struct {
	Hook              string          `json:"hook"`
	HookInstance      string          `json:"hookInstance"`
	FHIRServer        string          `json:"fhirServer,omitempty"`
	FHIRAuthorization json.RawMessage `json:"fhirAuthorization,omitempty"`
	Context           CDSHookContext  `json:"context"`
	Prefetch          json.RawMessage `json:"prefetch,omitempty"`
}

// CDSCard is a single card in the hook response.
type CDSCard struct {
	UUID            string          `json:"uuid"`
	Summary         string          `json:"summary"`
	Detail          string          `json:"detail,omitempty"`
	Indicator       string          `json:"indicator"`
	Source          CDSSource       `json:"source"`
	Suggestions     []CDSSuggestion `json:"suggestions,omitempty"`
	OverrideReasons []CDSCoding     `json:"overrideReasons,omitempty"`
}

// CDSSource identifies the source of a card.
type CDSSource struct {
	Label string `json:"label"`
}

// CDSSuggestion is a suggested action within a card.
type CDSSuggestion struct {
	Label         string      `json:"label"`
	UUID          string      `json:"uuid"`
	IsRecommended bool        `json:"isRecommended,omitempty"`
	Actions       []CDSAction `json:"actions,omitempty"`
}

// CDSAction is an individual action within a suggestion.
type CDSAction struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// CDSCoding is a code/system/display triple.
type CDSCoding struct {
	Code    string `json:"code"`
	System  string `json:"system,omitempty"`
	Display string `json:"display,omitempty"`
}

// CDSHookResponse is returned from hook invocation.
type CDSHookResponse struct {
	Cards []CDSCard `json:"cards"`
}

// CDSFeedbackRequest records what the clinician did with a card.
type CDSFeedbackRequest struct {
	Card             string      `json:"card"`
	Outcome          string      `json:"outcome"`
	OverrideReasons  []CDSCoding `json:"overrideReasons,omitempty"`
	OutcomeTimestamp string      `json:"outcomeTimestamp,omitempty"`
}

var overrideReasons = []CDSCoding{
	{Code: "benefit-outweighs-risk", Display: "Benefit outweighs risk"},
	{Code: "allergy-not-confirmed", Display: "Allergy history not confirmed"},
	{Code: "monitoring-in-place", Display: "Monitoring in place"},
}

// CDSDiscovery handles GET /cds-services
func (h *HTTPHandlerImpl) CDSDiscovery(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string][]CDSService{
		"services": {{
			Hook:        CDSHook,
			Title:       "Empiric antibiotic advisor",
			Description: "Empiric antibiotic choice, dosing and safety checks for the patient being ordered for",
			ID:          CDSServiceID,
		}},
	})
}

// CDSInvoke handles POST /cds-services/{id}
func (h *HTTPHandlerImpl) CDSInvoke(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "id")
	if serviceID != CDSServiceID {
		RespondWithError(w, http.StatusNotFound, fmt.Sprintf("CDS service %q not found", serviceID))
		return
	}

	var req CDSHookRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Hook != CDSHook {
		RespondWithError(w, http.StatusBadRequest,
			fmt.Sprintf("hook mismatch: request hook %q does not match service hook %q", req.Hook, CDSHook))
		return
	}
	if req.HookInstance == "" {
		RespondWithError(w, http.StatusBadRequest, "hookInstance is required")
		return
	}
	if req.Context.Patient == nil {
		RespondWithError(w, http.StatusBadRequest, "context.patient is required")
		return
	}

	result, err := h.recommend(req.Context.Patient)
	if err != nil {
		logging.Warn("Rejected CDS hook patient", "hook_instance", req.HookInstance, "error", err)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	RespondWithJSON(w, http.StatusOK, CDSHookResponse{Cards: Cards(result)})
}

// CDSFeedback handles POST /cds-services/{id}/feedback. Feedback is only logged.
func (h *HTTPHandlerImpl) CDSFeedback(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "id")
	if serviceID != CDSServiceID {
		RespondWithError(w, http.StatusNotFound, fmt.Sprintf("CDS service %q not found", serviceID))
		return
	}

	var fb CDSFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid feedback body: %v", err))
		return
	}

	codes := make([]string, 0, len(fb.OverrideReasons))
	for _, reason := range fb.OverrideReasons {
		codes = append(codes, reason.Code)
	}
	logging.Info("CDS card feedback", "card", fb.Card, "outcome", fb.Outcome, "override_reasons", codes)

	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Cards renders a recommendation as CDS cards: one critical card per blocking alert on
// the primary, then an information card carrying the regimen and its alternatives.
func Cards(rec recommend.Recommendation) []CDSCard {
	var cards []CDSCard

	for _, alert := range rec.Primary.Alerts {
		if !alert.Blocking() {
			continue
		}
		cards = append(cards, CDSCard{
			UUID:            uuid.New().String(),
			Summary:         truncate(alert.Message, maxSummaryLen),
			Detail:          alert.Action,
			Indicator:       "critical",
			Source:          CDSSource{Label: cardSourceLabel},
			OverrideReasons: overrideReasons,
		})
	}

	indicator := "info"
	if rec.Substitution != nil || rec.Primary.RiskLevel.Rank() >= clinical.AlertHigh.Rank() {
		indicator = "warning"
	}

	var detail []string
	for _, reason := range rec.Rationale.Reasons {
		detail = append(detail, "- "+reason.Text)
	}
	for _, p := range rec.Precautions {
		detail = append(detail, "- "+p)
	}

	suggestions := []CDSSuggestion{suggestion(rec.Primary, true)}
	for _, alt := range rec.Alternatives {
		suggestions = append(suggestions, suggestion(alt, false))
	}

	cards = append(cards, CDSCard{
		UUID:        uuid.New().String(),
		Summary:     truncate(fmt.Sprintf("%s: %s %s %s", rec.Scenario.Description, rec.Primary.Drug, rec.Primary.Dosage, rec.Primary.Frequency), maxSummaryLen),
		Detail:      strings.Join(detail, "\n"),
		Indicator:   indicator,
		Source:      CDSSource{Label: cardSourceLabel},
		Suggestions: suggestions,
	})
	return cards
}

func suggestion(t recommend.Therapy, recommended bool) CDSSuggestion {
	return CDSSuggestion{
		Label:         fmt.Sprintf("Order %s", t.Drug),
		UUID:          uuid.New().String(),
		IsRecommended: recommended,
		Actions: []CDSAction{{
			Type:        "create",
			Description: strings.TrimSpace(fmt.Sprintf("%s %s %s %s for %s", t.Drug, t.Dosage, t.Route, t.Frequency, t.Duration)),
		}},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
