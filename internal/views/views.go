// Package views - производные представления над снимком стора.
// Все функции чистые и пересчитываются при каждом вызове.
package views

import (
	"sort"
	"strings"

	"gitlab.ozon.dev/qwestard/carexpert/internal/models"
	"gitlab.ozon.dev/qwestard/carexpert/internal/store"
)

const (
	DefaultLatest = 5

	// UnassignedExpert показывается вместо эксперта, которого нет в справочнике
	UnassignedExpert = "Не назначен"
)

type Summary struct {
	TotalInspections  int
	ActiveInspections int
	DoneInspections   int
	TotalSelections   int
	ActiveSelections  int
	ActiveExperts     int
	// AvgRating осмыслен только при HasRating
	AvgRating float64
	HasRating bool
}

func Summarize(s store.State) Summary {
	var sum Summary
	sum.TotalInspections = len(s.Inspections)
	for _, o := range s.Inspections {
		if o.Status.Active() {
			sum.ActiveInspections++
		}
		if o.Status == models.InspectionDone {
			sum.DoneInspections++
		}
	}
	sum.TotalSelections = len(s.Selections)
	for _, sel := range s.Selections {
		if sel.Status.Active() {
			sum.ActiveSelections++
		}
	}
	var total float64
	for _, e := range s.Experts {
		if e.Active {
			sum.ActiveExperts++
		}
		total += e.Rating
	}
	if len(s.Experts) > 0 {
		sum.AvgRating = total / float64(len(s.Experts))
		sum.HasRating = true
	}
	return sum
}

// LatestInspections - последние n заказов по дате создания
func LatestInspections(s store.State, n int) []models.InspectionOrder {
	out := append([]models.InspectionOrder(nil), s.Inspections...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return head(out, n)
}

func LatestSelections(s store.State, n int) []models.SelectionOrder {
	out := append([]models.SelectionOrder(nil), s.Selections...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return head(out, n)
}

func head[T any](list []T, n int) []T {
	if n > 0 && len(list) > n {
		return list[:n]
	}
	return list
}

// InspectionFilter - пустое поле означает "все"
type InspectionFilter struct {
	Query  string
	Status models.InspectionStatus
	City   string
}

// FilterInspections ищет по номеру, имени клиента и строке "марка модель год"
func FilterInspections(s store.State, f InspectionFilter) []models.InspectionOrder {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.InspectionOrder, 0)
	for _, o := range s.Inspections {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.City != "" && o.City != f.City {
			continue
		}
		if q != "" && !matches(q, o.ID, o.Client.Name, o.Vehicle()) {
			continue
		}
		out = append(out, o)
	}
	return out
}

type SelectionFilter struct {
	Query  string
	Status models.SelectionStatus
	City   string
}

func FilterSelections(s store.State, f SelectionFilter) []models.SelectionOrder {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.SelectionOrder, 0)
	for _, sel := range s.Selections {
		if f.Status != "" && sel.Status != f.Status {
			continue
		}
		if f.City != "" && sel.City != f.City {
			continue
		}
		if q != "" && !matches(q, sel.ID, sel.Client.Name) {
			continue
		}
		out = append(out, sel)
	}
	return out
}

type ActiveFilter int

const (
	AnyActivity ActiveFilter = iota
	OnlyActive
	OnlyInactive
)

type ExpertFilter struct {
	City   string
	Brand  string
	Load   models.Load
	Active ActiveFilter
}

func FilterExperts(s store.State, f ExpertFilter) []models.Expert {
	out := make([]models.Expert, 0)
	for _, e := range s.Experts {
		if f.City != "" && !e.ServesCity(f.City) {
			continue
		}
		if f.Brand != "" && !e.CoversBrand(f.Brand) {
			continue
		}
		if f.Load != "" && e.LoadToday != f.Load {
			continue
		}
		if f.Active == OnlyActive && !e.Active || f.Active == OnlyInactive && e.Active {
			continue
		}
		out = append(out, e)
	}
	return out
}

// AvailableForExpert - заказы, которые эксперт может взять
func AvailableForExpert(s store.State) []models.InspectionOrder {
	out := make([]models.InspectionOrder, 0)
	for _, o := range s.Inspections {
		if !o.HasExpert() || o.Status == models.InspectionWaitingForExpert {
			out = append(out, o)
		}
	}
	return out
}

func AssignedToExpert(s store.State, expertID string) []models.InspectionOrder {
	out := make([]models.InspectionOrder, 0)
	if expertID == "" {
		return out
	}
	for _, o := range s.Inspections {
		if o.ExpertID == expertID {
			out = append(out, o)
		}
	}
	return out
}

// ExpertSelections - подборы, с которыми эксперт связан через свои осмотры или назначение
func ExpertSelections(s store.State, expertID string) []models.SelectionOrder {
	related := make(map[string]struct{})
	for _, o := range s.Inspections {
		if o.ExpertID == expertID && o.SelectionOrderID != "" {
			related[o.SelectionOrderID] = struct{}{}
		}
	}
	out := make([]models.SelectionOrder, 0)
	if expertID == "" {
		return out
	}
	for _, sel := range s.Selections {
		if _, ok := related[sel.ID]; ok || sel.AssignedExpertID == expertID {
			out = append(out, sel)
		}
	}
	return out
}

// ClientInspections - заказы клиента, клиент определяется по телефону
func ClientInspections(s store.State, phone string) []models.InspectionOrder {
	out := make([]models.InspectionOrder, 0)
	for _, o := range s.Inspections {
		if phone != "" && o.Client.Phone == phone {
			out = append(out, o)
		}
	}
	return out
}

func ClientSelections(s store.State, phone string) []models.SelectionOrder {
	out := make([]models.SelectionOrder, 0)
	for _, sel := range s.Selections {
		if phone != "" && sel.Client.Phone == phone {
			out = append(out, sel)
		}
	}
	return out
}

// SelectionInspections - осмотры подбора в порядке InspectionIDs, пропавшие пропускаются
func SelectionInspections(s store.State, sel models.SelectionOrder) []models.InspectionOrder {
	out := make([]models.InspectionOrder, 0, len(sel.InspectionIDs))
	for _, id := range sel.InspectionIDs {
		if o, ok := s.Inspection(id); ok {
			out = append(out, o)
		}
	}
	return out
}

func ExpertName(s store.State, expertID string) string {
	if e, ok := s.Expert(expertID); ok {
		return e.Name
	}
	return UnassignedExpert
}

// TariffsByKind сохраняет порядок стора
func TariffsByKind(s store.State, kind models.TariffKind) []models.Tariff {
	out := make([]models.Tariff, 0)
	for _, t := range s.Tariffs {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// Cities - города из заказов и подборов без повторов, по алфавиту
func Cities(s store.State) []string {
	seen := make(map[string]struct{})
	for _, o := range s.Inspections {
		seen[o.City] = struct{}{}
	}
	for _, sel := range s.Selections {
		seen[sel.City] = struct{}{}
	}
	delete(seen, "")
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func matches(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
