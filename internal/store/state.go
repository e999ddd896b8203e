package store

import (
	"errors"
	"fmt"

	"gitlab.ozon.dev/qwestard/carexpert/internal/models"
)

// Collections - всё, что уходит в снапшот
type Collections struct {
	Inspections        []models.InspectionOrder   `json:"inspections"`
	Selections         []models.SelectionOrder    `json:"selections"`
	Experts            []models.Expert            `json:"experts"`
	ChecklistTemplates []models.ChecklistTemplate `json:"checklistTemplates"`
	Tariffs            []models.Tariff            `json:"tariffs"`
	Chats              []models.ChatThread        `json:"chats"`
}

// State - неизменяемый снимок стора. Редьюсер никогда не правит слайсы
// предыдущего снимка, поэтому читатели могут держать State сколько угодно,
// но сами менять его не должны.
type State struct {
	Collections

	// сессия, в снапшот не попадает
	CurrentClientID string
	CurrentExpertID string
}

func (s State) Inspection(id string) (models.InspectionOrder, bool) {
	if i := s.inspectionIndex(id); i >= 0 {
		return s.Inspections[i], true
	}
	return models.InspectionOrder{}, false
}

func (s State) Selection(id string) (models.SelectionOrder, bool) {
	if i := s.selectionIndex(id); i >= 0 {
		return s.Selections[i], true
	}
	return models.SelectionOrder{}, false
}

func (s State) Candidate(selectionID, candidateID string) (models.Candidate, bool) {
	sel, ok := s.Selection(selectionID)
	if !ok {
		return models.Candidate{}, false
	}
	if i := sel.CandidateIndex(candidateID); i >= 0 {
		return sel.Candidates[i], true
	}
	return models.Candidate{}, false
}

func (s State) Expert(id string) (models.Expert, bool) {
	for _, e := range s.Experts {
		if e.ID == id {
			return e, true
		}
	}
	return models.Expert{}, false
}

func (s State) Tariff(id string) (models.Tariff, bool) {
	for _, t := range s.Tariffs {
		if t.ID == id {
			return t, true
		}
	}
	return models.Tariff{}, false
}

func (s State) ChatThread(id string) (models.ChatThread, bool) {
	for _, c := range s.Chats {
		if c.ID == id {
			return c, true
		}
	}
	return models.ChatThread{}, false
}

func (s State) inspectionIndex(id string) int {
	for i := range s.Inspections {
		if s.Inspections[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) selectionIndex(id string) int {
	for i := range s.Selections {
		if s.Selections[i].ID == id {
			return i
		}
	}
	return -1
}

// AllIDs - все ID сущностей, нужны генератору чтобы не выдать занятый
func (c Collections) AllIDs() []string {
	var ids []string
	for _, o := range c.Inspections {
		ids = append(ids, o.ID)
		if o.Report != nil {
			ids = append(ids, o.Report.ID)
		}
	}
	for _, s := range c.Selections {
		ids = append(ids, s.ID)
		for _, cand := range s.Candidates {
			ids = append(ids, cand.ID)
		}
	}
	for _, e := range c.Experts {
		ids = append(ids, e.ID)
	}
	for _, t := range c.ChecklistTemplates {
		ids = append(ids, t.ID)
	}
	for _, t := range c.Tariffs {
		ids = append(ids, t.ID)
	}
	for _, ch := range c.Chats {
		ids = append(ids, ch.ID)
	}
	return ids
}

// Validate проверяет инварианты связей и статусов, возвращает все нарушения сразу
func Validate(c Collections) error {
	var errs error

	inspections := make(map[string]models.InspectionOrder, len(c.Inspections))
	for _, o := range c.Inspections {
		if _, dup := inspections[o.ID]; dup {
			errs = errors.Join(errs, fmt.Errorf("осмотр %s встречается дважды", o.ID))
		}
		inspections[o.ID] = o
		if o.Status == models.InspectionDone && o.Report == nil {
			errs = errors.Join(errs, fmt.Errorf("осмотр %s в DONE без отчёта", o.ID))
		}
		if !o.HasExpert() && o.Status.RequiresExpert() {
			errs = errors.Join(errs, fmt.Errorf("осмотр %s в %s без эксперта", o.ID, o.Status))
		}
	}

	selections := make(map[string]struct{}, len(c.Selections))
	for _, s := range c.Selections {
		if _, dup := selections[s.ID]; dup {
			errs = errors.Join(errs, fmt.Errorf("подбор %s встречается дважды", s.ID))
		}
		selections[s.ID] = struct{}{}
		for _, id := range s.InspectionIDs {
			o, ok := inspections[id]
			if !ok {
				errs = errors.Join(errs, fmt.Errorf("подбор %s ссылается на несуществующий осмотр %s", s.ID, id))
				continue
			}
			if o.SelectionOrderID != s.ID {
				errs = errors.Join(errs, fmt.Errorf("осмотр %s не ссылается обратно на подбор %s", id, s.ID))
			}
		}
		for _, cand := range s.Candidates {
			if cand.InspectionID == "" {
				continue
			}
			o, ok := inspections[cand.InspectionID]
			switch {
			case !ok:
				errs = errors.Join(errs, fmt.Errorf("кандидат %s ссылается на несуществующий осмотр %s", cand.ID, cand.InspectionID))
			case o.SelectionOrderID != s.ID:
				errs = errors.Join(errs, fmt.Errorf("кандидат %s ссылается на осмотр %s чужого подбора", cand.ID, cand.InspectionID))
			}
		}
	}
	return errs
}
