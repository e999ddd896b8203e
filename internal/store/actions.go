package store

import (
	"time"

	"gitlab.ozon.dev/qwestard/carexpert/internal/models"
)

// Action - именованная мутация стора. Применяется только через Dispatch.
type Action interface {
	Name() string
}

type (
	AddInspection struct {
		Order models.InspectionOrder
	}
	// SetInspectionStatus - ручная смена статуса оператором. Порядок пайплайна
	// не проверяется, проверяются только инварианты (DONE без отчёта, статус
	// с экспертом без эксперта).
	SetInspectionStatus struct {
		ID     string
		Status models.InspectionStatus
	}
	// AdvanceInspection - кнопка "дальше", только по таблице NextInspectionStatus
	AdvanceInspection struct {
		ID string
	}
	ClaimInspection struct {
		ID       string
		ExpertID string
	}
	AssignExpert struct {
		ID       string
		ExpertID string
	}
	UpdateAppointment struct {
		ID string
		At *time.Time
	}
	UpdateInspectionFields struct {
		ID    string
		Patch models.InspectionPatch
	}
	UpsertReport struct {
		ID      string
		Payload models.ReportPayload
	}

	AddSelection struct {
		Selection models.SelectionOrder
	}
	SetSelectionStatus struct {
		ID     string
		Status models.SelectionStatus
	}
	ClaimSelection struct {
		ID       string
		ExpertID string
	}
	SetSelectionResult struct {
		ID     string
		Result models.SelectionResult
	}
	AddInspectionToSelection struct {
		SelectionID  string
		InspectionID string
	}

	AddCandidate struct {
		SelectionID string
		Candidate   models.Candidate
	}
	UpdateCandidateStatus struct {
		SelectionID string
		CandidateID string
		Status      models.CandidateStatus
	}
	UpdateCandidateLegalCheck struct {
		SelectionID string
		CandidateID string
		LegalCheck  models.LegalCheck
	}
	CreateInspectionFromCandidate struct {
		SelectionID string
		CandidateID string
	}
	LinkCandidateInspection struct {
		SelectionID  string
		CandidateID  string
		InspectionID string
	}

	AddExpert struct {
		Expert models.Expert
	}
	ToggleExpertActive struct {
		ID string
	}

	AddTariff struct {
		Tariff models.Tariff
	}
	UpdateTariff struct {
		Tariff models.Tariff
	}
	DeleteTariff struct {
		ID string
	}

	AddChecklistTemplate struct {
		Template models.ChecklistTemplate
	}

	AddChatThread struct {
		Thread models.ChatThread
	}
	SendChatMessage struct {
		ThreadID string
		From     models.ChatAuthor
		Text     string
		Actions  []models.ChatAction
	}
	ResetChats struct{}

	SetCurrentClient struct {
		ClientID string
	}
	SetCurrentExpert struct {
		ExpertID string
	}
)

func (AddInspection) Name() string                 { return "add_inspection" }
func (SetInspectionStatus) Name() string           { return "set_inspection_status" }
func (AdvanceInspection) Name() string             { return "advance_inspection" }
func (ClaimInspection) Name() string               { return "claim_inspection" }
func (AssignExpert) Name() string                  { return "assign_expert" }
func (UpdateAppointment) Name() string             { return "update_appointment" }
func (UpdateInspectionFields) Name() string        { return "update_inspection_fields" }
func (UpsertReport) Name() string                  { return "upsert_report" }
func (AddSelection) Name() string                  { return "add_selection" }
func (SetSelectionStatus) Name() string            { return "set_selection_status" }
func (ClaimSelection) Name() string                { return "claim_selection" }
func (SetSelectionResult) Name() string            { return "set_selection_result" }
func (AddInspectionToSelection) Name() string      { return "add_inspection_to_selection" }
func (AddCandidate) Name() string                  { return "add_candidate" }
func (UpdateCandidateStatus) Name() string         { return "update_candidate_status" }
func (UpdateCandidateLegalCheck) Name() string     { return "update_candidate_legal_check" }
func (CreateInspectionFromCandidate) Name() string { return "create_inspection_from_candidate" }
func (LinkCandidateInspection) Name() string       { return "link_candidate_inspection" }
func (AddExpert) Name() string                     { return "add_expert" }
func (ToggleExpertActive) Name() string            { return "toggle_expert_active" }
func (AddTariff) Name() string                     { return "add_tariff" }
func (UpdateTariff) Name() string                  { return "update_tariff" }
func (DeleteTariff) Name() string                  { return "delete_tariff" }
func (AddChecklistTemplate) Name() string          { return "add_checklist_template" }
func (AddChatThread) Name() string                 { return "add_chat_thread" }
func (SendChatMessage) Name() string               { return "send_chat_message" }
func (ResetChats) Name() string                    { return "reset_chats" }
func (SetCurrentClient) Name() string              { return "set_current_client" }
func (SetCurrentExpert) Name() string              { return "set_current_expert" }
