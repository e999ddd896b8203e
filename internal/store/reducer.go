package store

import (
	"strings"
	"time"

	"gitlab.ozon.dev/qwestard/carexpert/internal/idgen"
	"gitlab.ozon.dev/qwestard/carexpert/internal/models"
)

const (
	PrefixInspection = "OSM"
	PrefixSelection  = "POD"
	PrefixCandidate  = "CAND"
	PrefixExpert     = "EXP"
	PrefixTariff     = "TAR"
	PrefixTemplate   = "CHK"
	PrefixChat       = "CHAT"

	defaultTemplateID = "CHK-1"
	reportBaseURL     = "https://reports.local/"
)

const (
	EntityInspection = "inspection"
	EntitySelection  = "selection"
	EntityCandidate  = "candidate"
	EntityExpert     = "expert"
	EntityTariff     = "tariff"
	EntityTemplate   = "checklist_template"
	EntityChat       = "chat"
	EntitySession    = "session"
)

// Env - всё недетерминированное, что нужно редьюсеру
type Env struct {
	Now       func() time.Time
	IDs       *idgen.Generator
	NewUUID   func() string
	SeedChats []models.ChatThread
}

// Change описывает применённую мутацию, его получают подписчики
type Change struct {
	Seq       uint64
	Action    string
	Entity    string
	EntityID  string
	OldStatus string
	NewStatus string
	At        time.Time
}

// StatusChanged - поменялся ли статус сущности
func (c Change) StatusChanged() bool {
	return c.OldStatus != c.NewStatus
}

// Reduce применяет действие к снимку и возвращает новый снимок.
// Входной State не меняется. false - действие ничего не поменяло
// (неизвестный ID, нарушение инварианта, повторный вызов).
func Reduce(s State, a Action, env Env) (State, Change, bool) {
	ch := Change{Action: a.Name(), At: env.Now()}

	switch act := a.(type) {
	case AddInspection:
		return addInspection(s, act, env, ch)
	case SetInspectionStatus:
		return setInspectionStatus(s, act, ch)
	case AdvanceInspection:
		return advanceInspection(s, act, ch)
	case ClaimInspection:
		return claimInspection(s, act, ch)
	case AssignExpert:
		return assignExpert(s, act, ch)
	case UpdateAppointment:
		return updateAppointment(s, act, ch)
	case UpdateInspectionFields:
		return updateInspectionFields(s, act, ch)
	case UpsertReport:
		return upsertReport(s, act, env, ch)
	case AddSelection:
		return addSelection(s, act, env, ch)
	case SetSelectionStatus:
		return setSelectionStatus(s, act, ch)
	case ClaimSelection:
		return claimSelection(s, act, ch)
	case SetSelectionResult:
		return setSelectionResult(s, act, ch)
	case AddInspectionToSelection:
		return addInspectionToSelection(s, act, ch)
	case AddCandidate:
		return addCandidate(s, act, env, ch)
	case UpdateCandidateStatus:
		return updateCandidateStatus(s, act, ch)
	case UpdateCandidateLegalCheck:
		return updateCandidateLegalCheck(s, act, ch)
	case CreateInspectionFromCandidate:
		return createInspectionFromCandidate(s, act, env, ch)
	case LinkCandidateInspection:
		return linkCandidateInspection(s, act, ch)
	case AddExpert:
		return addExpert(s, act, env, ch)
	case ToggleExpertActive:
		return toggleExpertActive(s, act, ch)
	case AddTariff:
		return addTariff(s, act, env, ch)
	case UpdateTariff:
		return updateTariff(s, act, ch)
	case DeleteTariff:
		return deleteTariff(s, act, ch)
	case AddChecklistTemplate:
		return addChecklistTemplate(s, act, env, ch)
	case AddChatThread:
		return addChatThread(s, act, env, ch)
	case SendChatMessage:
		return sendChatMessage(s, act, env, ch)
	case ResetChats:
		return resetChats(s, env, ch)
	case SetCurrentClient:
		return setCurrentClient(s, act, ch)
	case SetCurrentExpert:
		return setCurrentExpert(s, act, ch)
	}
	return s, ch, false
}

// --- осмотры ---

func addInspection(s State, act AddInspection, env Env, ch Change) (State, Change, bool) {
	o := act.Order
	if o.ID == "" {
		o.ID = env.IDs.Next(PrefixInspection)
	} else if s.inspectionIndex(o.ID) >= 0 {
		return s, ch, false
	}
	env.IDs.Observe(o.ID)

	if o.CreatedAt.IsZero() {
		o.CreatedAt = ch.At
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	o.Status = normalizeInspectionStatus(o)

	linked := false
	if o.SelectionOrderID != "" {
		if s.selectionIndex(o.SelectionOrderID) < 0 {
			o.SelectionOrderID = ""
		} else {
			linked = true
		}
	}

	s.Inspections = prepend(s.Inspections, o)
	if linked {
		s, _, _ = updateSelection(s, o.SelectionOrderID, func(sel *models.SelectionOrder) bool {
			if sel.HasInspection(o.ID) {
				return false
			}
			sel.InspectionIDs = appendCopy(sel.InspectionIDs, o.ID)
			sel.UpdatedAt = ch.At
			return true
		})
	}

	ch.Entity, ch.EntityID, ch.NewStatus = EntityInspection, o.ID, string(o.Status)
	return s, ch, true
}

// normalizeInspectionStatus подтягивает статус нового заказа к инвариантам
func normalizeInspectionStatus(o models.InspectionOrder) models.InspectionStatus {
	st := o.Status
	if !st.Valid() {
		st = models.InspectionNew
	}
	if st == models.InspectionDone && o.Report == nil {
		st = models.InspectionReportInProgress
	}
	if st.RequiresExpert() && !o.HasExpert() {
		st = models.InspectionWaitingForExpert
	}
	return st
}

func setInspectionStatus(s State, act SetInspectionStatus, ch Change) (State, Change, bool) {
	if !act.Status.Valid() {
		return s, ch, false
	}
	next, old, ok := updateInspection(s, act.ID, func(o *models.InspectionOrder) bool {
		if o.Status == act.Status {
			return false
		}
		if act.Status == models.InspectionDone && o.Report == nil {
			return false
		}
		if act.Status.RequiresExpert() && !o.HasExpert() {
			return false
		}
		o.Status = act.Status
		o.UpdatedAt = ch.At
		return true
	})
	return next, inspectionChange(ch, old, act.Status), ok
}

func advanceInspection(s State, act AdvanceInspection, ch Change) (State, Change, bool) {
	var target models.InspectionStatus
	next, old, ok := updateInspection(s, act.ID, func(o *models.InspectionOrder) bool {
		status, ok := models.NextInspectionStatus(o.Status)
		if !ok {
			return false
		}
		// в DONE без отчёта не пускаем, отчёт приносит UpsertReport
		if status == models.InspectionDone && o.Report == nil {
			return false
		}
		target = status
		o.Status = status
		o.UpdatedAt = ch.At
		return true
	})
	return next, inspectionChange(ch, old, target), ok
}

func claimInspection(s State, act ClaimInspection, ch Change) (State, Change, bool) {
	if act.ExpertID == "" {
		return s, ch, false
	}
	var target models.InspectionStatus
	next, old, ok := updateInspection(s, act.ID, func(o *models.InspectionOrder) bool {
		o.ExpertID = act.ExpertID
		switch {
		case o.Status == models.InspectionNew:
			o.Status = models.InspectionWaitingForExpert
		case o.Status.Terminal():
		default:
			o.Status = models.InspectionAssigned
		}
		target = o.Status
		o.UpdatedAt = ch.At
		return true
	})
	return next, inspectionChange(ch, old, target), ok
}

func assignExpert(s State, act AssignExpert, ch Change) (State, Change, bool) {
	var target models.InspectionStatus
	next, old, ok := updateInspection(s, act.ID, func(o *models.InspectionOrder) bool {
		if o.ExpertID == act.ExpertID {
			return false
		}
		o.ExpertID = act.ExpertID
		if act.ExpertID == "" && o.Status.RequiresExpert() {
			o.Status = models.InspectionWaitingForExpert
		}
		target = o.Status
		o.UpdatedAt = ch.At
		return true
	})
	return next, inspectionChange(ch, old, target), ok
}

func updateAppointment(s State, act UpdateAppointment, ch Change) (State, Change, bool) {
	next, old, ok := updateInspection(s, act.ID, func(o *models.InspectionOrder) bool {
		if act.At == nil {
			o.AppointmentAt = nil
		} else {
			at := act.At.UTC()
			o.AppointmentAt = &at
		}
		o.UpdatedAt = ch.At
		return true
	})
	return next, inspectionChange(ch, old, old.Status), ok
}

func updateInspectionFields(s State, act UpdateInspectionFields, ch Change) (State, Change, bool) {
	next, old, ok := updateInspection(s, act.ID, func(o *models.InspectionOrder) bool {
		act.Patch.Apply(o)
		o.UpdatedAt = ch.At
		return true
	})
	return next, inspectionChange(ch, old, old.Status), ok
}

func upsertReport(s State, act UpsertReport, env Env, ch Change) (State, Change, bool) {
	templateID := defaultTemplateID
	if len(s.ChecklistTemplates) > 0 {
		templateID = s.ChecklistTemplates[0].ID
	}
	p := act.Payload

	next, old, ok := updateInspection(s, act.ID, func(o *models.InspectionOrder) bool {
		rep := models.Report{
			InspectionOrderID:   o.ID,
			TemplateID:          templateID,
			Data:                p.Data,
			Severities:          p.Severities,
			Summary:             p.Summary,
			RecommendedDiscount: p.RecommendedDiscount,
			LegalCheck:          p.LegalCheck,
		}
		if prev := o.Report; prev != nil {
			rep.ID, rep.WebURL, rep.PDFURL, rep.Media = prev.ID, prev.WebURL, prev.PDFURL, prev.Media
			if rep.Data == nil {
				rep.Data = prev.Data
			}
		}
		if rep.ID == "" {
			rep.ID = "REP-" + env.NewUUID()
		}
		if rep.WebURL == "" {
			rep.WebURL = reportBaseURL + o.ID
		}
		if rep.PDFURL == "" {
			rep.PDFURL = reportBaseURL + o.ID + ".pdf"
		}
		if rep.Data == nil {
			rep.Data = models.ReportData{}
		}
		o.Report = &rep
		o.Status = models.InspectionDone
		o.UpdatedAt = ch.At
		return true
	})
	return next, inspectionChange(ch, old, models.InspectionDone), ok
}

func inspectionChange(ch Change, old models.InspectionOrder, target models.InspectionStatus) Change {
	ch.Entity, ch.EntityID = EntityInspection, old.ID
	ch.OldStatus, ch.NewStatus = string(old.Status), string(target)
	return ch
}

// --- подборы ---

func addSelection(s State, act AddSelection, env Env, ch Change) (State, Change, bool) {
	sel := act.Selection
	if sel.ID == "" {
		sel.ID = env.IDs.Next(PrefixSelection)
	} else if s.selectionIndex(sel.ID) >= 0 {
		return s, ch, false
	}
	env.IDs.Observe(sel.ID)

	if sel.CreatedAt.IsZero() {
		sel.CreatedAt = ch.At
	}
	if sel.UpdatedAt.IsZero() {
		sel.UpdatedAt = sel.CreatedAt
	}
	if !sel.Status.Valid() {
		sel.Status = models.SelectionNew
	}

	// берём только осмотры, которые существуют и не привязаны к чужому подбору
	ids := make([]string, 0, len(sel.InspectionIDs))
	var toLink []string
	for _, id := range sel.InspectionIDs {
		o, ok := s.Inspection(id)
		if !ok || containsString(ids, id) {
			continue
		}
		switch o.SelectionOrderID {
		case sel.ID:
		case "":
			toLink = append(toLink, id)
		default:
			continue
		}
		ids = append(ids, id)
	}
	sel.InspectionIDs = ids

	candidates := make([]models.Candidate, 0, len(sel.Candidates))
	for _, c := range sel.Candidates {
		candidates = append(candidates, normalizeCandidate(c, s, env, sel.ID, ids))
	}
	sel.Candidates = candidates

	s.Selections = prepend(s.Selections, sel)
	for _, id := range toLink {
		s, _, _ = updateInspection(s, id, func(o *models.InspectionOrder) bool {
			o.SelectionOrderID = sel.ID
			o.UpdatedAt = ch.At
			return true
		})
	}

	ch.Entity, ch.EntityID, ch.NewStatus = EntitySelection, sel.ID, string(sel.Status)
	return s, ch, true
}

func setSelectionStatus(s State, act SetSelectionStatus, ch Change) (State, Change, bool) {
	if !act.Status.Valid() {
		return s, ch, false
	}
	next, old, ok := updateSelection(s, act.ID, func(sel *models.SelectionOrder) bool {
		if sel.Status == act.Status {
			return false
		}
		sel.Status = act.Status
		sel.UpdatedAt = ch.At
		return true
	})
	return next, selectionChange(ch, old, act.Status), ok
}

func claimSelection(s State, act ClaimSelection, ch Change) (State, Change, bool) {
	if act.ExpertID == "" {
		return s, ch, false
	}
	var target models.SelectionStatus
	next, old, ok := updateSelection(s, act.ID, func(sel *models.SelectionOrder) bool {
		sel.AssignedExpertID = act.ExpertID
		if sel.Status.Claimable() {
			sel.Status = models.SelectionAssigned
		}
		target = sel.Status
		sel.UpdatedAt = ch.At
		return true
	})
	return next, selectionChange(ch, old, target), ok
}

func setSelectionResult(s State, act SetSelectionResult, ch Change) (State, Change, bool) {
	switch act.Result.Type {
	case models.ResultBought, models.ResultNotBought, models.ResultNoMatch:
	default:
		return s, ch, false
	}
	next, old, ok := updateSelection(s, act.ID, func(sel *models.SelectionOrder) bool {
		result := act.Result
		sel.Result = &result
		sel.UpdatedAt = ch.At
		return true
	})
	return next, selectionChange(ch, old, old.Status), ok
}

func addInspectionToSelection(s State, act AddInspectionToSelection, ch Change) (State, Change, bool) {
	sel, ok := s.Selection(act.SelectionID)
	if !ok {
		return s, ch, false
	}
	o, ok := s.Inspection(act.InspectionID)
	if !ok || sel.HasInspection(o.ID) {
		return s, ch, false
	}
	if o.SelectionOrderID != "" && o.SelectionOrderID != sel.ID {
		return s, ch, false
	}

	s, _, _ = updateSelection(s, sel.ID, func(sel *models.SelectionOrder) bool {
		sel.InspectionIDs = appendCopy(sel.InspectionIDs, o.ID)
		sel.UpdatedAt = ch.At
		return true
	})
	s, _, _ = updateInspection(s, o.ID, func(o *models.InspectionOrder) bool {
		o.SelectionOrderID = sel.ID
		o.UpdatedAt = ch.At
		return true
	})
	return s, selectionChange(ch, sel, sel.Status), true
}

func selectionChange(ch Change, old models.SelectionOrder, target models.SelectionStatus) Change {
	ch.Entity, ch.EntityID = EntitySelection, old.ID
	ch.OldStatus, ch.NewStatus = string(old.Status), string(target)
	return ch
}

// --- кандидаты ---

// normalizeCandidate оставляет ссылку на осмотр, только если осмотр принадлежит
// подбору selectionID или входит в linked, который привязывается в той же редукции
func normalizeCandidate(c models.Candidate, s State, env Env, selectionID string, linked []string) models.Candidate {
	if c.ID == "" {
		c.ID = env.IDs.Next(PrefixCandidate)
	}
	env.IDs.Observe(c.ID)
	if !c.Status.Valid() {
		c.Status = models.CandidatePending
	}
	if c.InspectionID != "" {
		o, ok := s.Inspection(c.InspectionID)
		if !ok || (o.SelectionOrderID != selectionID && !containsString(linked, c.InspectionID)) {
			c.InspectionID = ""
		}
	}
	return c
}

func addCandidate(s State, act AddCandidate, env Env, ch Change) (State, Change, bool) {
	sel, ok := s.Selection(act.SelectionID)
	if !ok {
		return s, ch, false
	}
	if act.Candidate.ID != "" && sel.CandidateIndex(act.Candidate.ID) >= 0 {
		return s, ch, false
	}
	c := normalizeCandidate(act.Candidate, s, env, sel.ID, nil)

	s, _, _ = updateSelection(s, sel.ID, func(sel *models.SelectionOrder) bool {
		sel.Candidates = appendCopy(sel.Candidates, c)
		sel.UpdatedAt = ch.At
		return true
	})
	ch.Entity, ch.EntityID, ch.NewStatus = EntityCandidate, c.ID, string(c.Status)
	return s, ch, true
}

func updateCandidateStatus(s State, act UpdateCandidateStatus, ch Change) (State, Change, bool) {
	if !act.Status.Valid() {
		return s, ch, false
	}
	var old models.CandidateStatus
	next, ok := updateCandidate(s, act.SelectionID, act.CandidateID, ch.At, func(c *models.Candidate) bool {
		if c.Status == act.Status {
			return false
		}
		old = c.Status
		c.Status = act.Status
		return true
	})
	ch.Entity, ch.EntityID = EntityCandidate, act.CandidateID
	ch.OldStatus, ch.NewStatus = string(old), string(act.Status)
	return next, ch, ok
}

func updateCandidateLegalCheck(s State, act UpdateCandidateLegalCheck, ch Change) (State, Change, bool) {
	next, ok := updateCandidate(s, act.SelectionID, act.CandidateID, ch.At, func(c *models.Candidate) bool {
		legal := act.LegalCheck
		c.LegalCheck = &legal
		ch.OldStatus, ch.NewStatus = string(c.Status), string(c.Status)
		return true
	})
	ch.Entity, ch.EntityID = EntityCandidate, act.CandidateID
	return next, ch, ok
}

// createInspectionFromCandidate превращает одобренного кандидата в осмотр.
// Защита от повторного вызова - сам InspectionID кандидата: если он уже
// выставлен, ничего не происходит. Все три эффекта (новый осмотр, ID в
// подборе, ID у кандидата) попадают в один снимок.
func createInspectionFromCandidate(s State, act CreateInspectionFromCandidate, env Env, ch Change) (State, Change, bool) {
	sel, ok := s.Selection(act.SelectionID)
	if !ok {
		return s, ch, false
	}
	idx := sel.CandidateIndex(act.CandidateID)
	if idx < 0 {
		return s, ch, false
	}
	cand := sel.Candidates[idx]
	if cand.Converted() || cand.Status != models.CandidateApproved {
		return s, ch, false
	}

	price := cand.Price
	summary := cand.Summary
	if summary == "" {
		summary = sel.Requirements
	}
	o := models.InspectionOrder{
		ID:        env.IDs.Next(PrefixInspection),
		Status:    models.InspectionWaitingForExpert,
		SourceURL: cand.SourceURL,
		ParsedData: models.ParsedVehicle{
			Make:    cand.Make,
			Model:   cand.Model,
			Year:    cand.Year,
			Mileage: cand.Mileage,
			Price:   &price,
			City:    cand.City,
		},
		City:             cand.City,
		Client:           sel.Client,
		PriceSegment:     sel.PriceSegment(),
		Summary:          summary,
		SelectionOrderID: sel.ID,
		CreatedAt:        ch.At,
		UpdatedAt:        ch.At,
	}

	s.Inspections = prepend(s.Inspections, o)
	s, _, _ = updateSelection(s, sel.ID, func(sel *models.SelectionOrder) bool {
		sel.InspectionIDs = appendCopy(sel.InspectionIDs, o.ID)
		sel.Candidates = copyCandidates(sel.Candidates)
		sel.Candidates[idx].InspectionID = o.ID
		sel.UpdatedAt = ch.At
		return true
	})

	ch.Entity, ch.EntityID = EntityInspection, o.ID
	ch.NewStatus = string(o.Status)
	return s, ch, true
}

func linkCandidateInspection(s State, act LinkCandidateInspection, ch Change) (State, Change, bool) {
	o, ok := s.Inspection(act.InspectionID)
	if !ok || o.SelectionOrderID != act.SelectionID {
		return s, ch, false
	}
	next, ok := updateCandidate(s, act.SelectionID, act.CandidateID, ch.At, func(c *models.Candidate) bool {
		if c.Converted() {
			return false
		}
		c.InspectionID = o.ID
		return true
	})
	ch.Entity, ch.EntityID = EntityCandidate, act.CandidateID
	return next, ch, ok
}

// --- справочники ---

func addExpert(s State, act AddExpert, env Env, ch Change) (State, Change, bool) {
	e := act.Expert
	if e.ID == "" {
		e.ID = env.IDs.Next(PrefixExpert)
	} else if _, exists := s.Expert(e.ID); exists {
		return s, ch, false
	}
	env.IDs.Observe(e.ID)
	s.Experts = appendCopy(s.Experts, e)
	ch.Entity, ch.EntityID = EntityExpert, e.ID
	return s, ch, true
}

func toggleExpertActive(s State, act ToggleExpertActive, ch Change) (State, Change, bool) {
	for i, e := range s.Experts {
		if e.ID != act.ID {
			continue
		}
		list := make([]models.Expert, len(s.Experts))
		copy(list, s.Experts)
		list[i].Active = !e.Active
		s.Experts = list
		ch.Entity, ch.EntityID = EntityExpert, e.ID
		return s, ch, true
	}
	return s, ch, false
}

func addTariff(s State, act AddTariff, env Env, ch Change) (State, Change, bool) {
	t := act.Tariff
	if t.ID == "" {
		t.ID = env.IDs.Next(PrefixTariff)
	} else if _, exists := s.Tariff(t.ID); exists {
		return s, ch, false
	}
	env.IDs.Observe(t.ID)
	if t.Kind != models.TariffSelection {
		t.Kind = models.TariffInspection
	}
	s.Tariffs = prepend(s.Tariffs, t)
	ch.Entity, ch.EntityID = EntityTariff, t.ID
	return s, ch, true
}

func updateTariff(s State, act UpdateTariff, ch Change) (State, Change, bool) {
	if act.Tariff.Kind != models.TariffInspection && act.Tariff.Kind != models.TariffSelection {
		return s, ch, false
	}
	for i, t := range s.Tariffs {
		if t.ID != act.Tariff.ID {
			continue
		}
		list := make([]models.Tariff, len(s.Tariffs))
		copy(list, s.Tariffs)
		list[i] = act.Tariff
		s.Tariffs = list
		ch.Entity, ch.EntityID = EntityTariff, t.ID
		return s, ch, true
	}
	return s, ch, false
}

func deleteTariff(s State, act DeleteTariff, ch Change) (State, Change, bool) {
	for i, t := range s.Tariffs {
		if t.ID != act.ID {
			continue
		}
		list := make([]models.Tariff, 0, len(s.Tariffs)-1)
		list = append(list, s.Tariffs[:i]...)
		list = append(list, s.Tariffs[i+1:]...)
		s.Tariffs = list
		ch.Entity, ch.EntityID = EntityTariff, t.ID
		return s, ch, true
	}
	return s, ch, false
}

func addChecklistTemplate(s State, act AddChecklistTemplate, env Env, ch Change) (State, Change, bool) {
	t := act.Template
	if t.ID == "" {
		t.ID = env.IDs.Next(PrefixTemplate)
	} else {
		for _, existing := range s.ChecklistTemplates {
			if existing.ID == t.ID {
				return s, ch, false
			}
		}
	}
	env.IDs.Observe(t.ID)
	s.ChecklistTemplates = appendCopy(s.ChecklistTemplates, t)
	ch.Entity, ch.EntityID = EntityTemplate, t.ID
	return s, ch, true
}

// --- чаты ---

func addChatThread(s State, act AddChatThread, env Env, ch Change) (State, Change, bool) {
	t := act.Thread
	if t.ID == "" {
		t.ID = env.IDs.Next(PrefixChat)
	} else if _, exists := s.ChatThread(t.ID); exists {
		return s, ch, false
	}
	env.IDs.Observe(t.ID)
	if t.Messages == nil {
		t.Messages = []models.ChatMessage{}
	}
	s.Chats = appendCopy(s.Chats, t)
	ch.Entity, ch.EntityID = EntityChat, t.ID
	return s, ch, true
}

func sendChatMessage(s State, act SendChatMessage, env Env, ch Change) (State, Change, bool) {
	text := strings.TrimSpace(act.Text)
	if text == "" {
		return s, ch, false
	}
	from := act.From
	switch from {
	case models.AuthorService, models.AuthorClient, models.AuthorExpert, models.AuthorSystem:
	default:
		from = models.AuthorService
	}
	msg := models.ChatMessage{
		ID:        "msg-" + env.NewUUID(),
		From:      from,
		Text:      text,
		CreatedAt: ch.At,
		Actions:   act.Actions,
	}

	for i, t := range s.Chats {
		if t.ID != act.ThreadID {
			continue
		}
		list := make([]models.ChatThread, len(s.Chats))
		copy(list, s.Chats)
		list[i].Messages = appendCopy(t.Messages, msg)
		s.Chats = list
		ch.Entity, ch.EntityID = EntityChat, t.ID
		return s, ch, true
	}
	return s, ch, false
}

func resetChats(s State, env Env, ch Change) (State, Change, bool) {
	s.Chats = append([]models.ChatThread(nil), env.SeedChats...)
	ch.Entity = EntityChat
	return s, ch, true
}

// --- сессия ---

func setCurrentClient(s State, act SetCurrentClient, ch Change) (State, Change, bool) {
	if s.CurrentClientID == act.ClientID {
		return s, ch, false
	}
	s.CurrentClientID = act.ClientID
	ch.Entity, ch.EntityID = EntitySession, act.ClientID
	return s, ch, true
}

func setCurrentExpert(s State, act SetCurrentExpert, ch Change) (State, Change, bool) {
	if s.CurrentExpertID == act.ExpertID {
		return s, ch, false
	}
	s.CurrentExpertID = act.ExpertID
	ch.Entity, ch.EntityID = EntitySession, act.ExpertID
	return s, ch, true
}

// --- copy-on-write помощники ---

// updateInspection копирует заказ, отдаёт копию fn и, если fn вернула true,
// собирает новый слайс с изменённым заказом. Старый слайс не трогается.
func updateInspection(s State, id string, fn func(o *models.InspectionOrder) bool) (State, models.InspectionOrder, bool) {
	i := s.inspectionIndex(id)
	if i < 0 {
		return s, models.InspectionOrder{}, false
	}
	old := s.Inspections[i]
	next := old
	if !fn(&next) {
		return s, old, false
	}
	list := make([]models.InspectionOrder, len(s.Inspections))
	copy(list, s.Inspections)
	list[i] = next
	s.Inspections = list
	return s, old, true
}

func updateSelection(s State, id string, fn func(sel *models.SelectionOrder) bool) (State, models.SelectionOrder, bool) {
	i := s.selectionIndex(id)
	if i < 0 {
		return s, models.SelectionOrder{}, false
	}
	old := s.Selections[i]
	next := old
	if !fn(&next) {
		return s, old, false
	}
	list := make([]models.SelectionOrder, len(s.Selections))
	copy(list, s.Selections)
	list[i] = next
	s.Selections = list
	return s, old, true
}

func updateCandidate(s State, selectionID, candidateID string, at time.Time, fn func(c *models.Candidate) bool) (State, bool) {
	next, _, ok := updateSelection(s, selectionID, func(sel *models.SelectionOrder) bool {
		idx := sel.CandidateIndex(candidateID)
		if idx < 0 {
			return false
		}
		c := sel.Candidates[idx]
		if !fn(&c) {
			return false
		}
		sel.Candidates = copyCandidates(sel.Candidates)
		sel.Candidates[idx] = c
		sel.UpdatedAt = at
		return true
	})
	return next, ok
}

func copyCandidates(list []models.Candidate) []models.Candidate {
	out := make([]models.Candidate, len(list))
	copy(out, list)
	return out
}

func prepend[T any](list []T, v T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, v)
	return append(out, list...)
}

func appendCopy[T any](list []T, v T) []T {
	out := make([]T, len(list), len(list)+1)
	copy(out, list)
	return append(out, v)
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
