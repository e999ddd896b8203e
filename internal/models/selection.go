package models

import (
	"fmt"
	"strings"
	"time"
)

type ResultType string

const (
	ResultBought    ResultType = "BOUGHT"
	ResultNotBought ResultType = "NOT_BOUGHT"
	ResultNoMatch   ResultType = "NO_MATCH"
)

type SelectionResult struct {
	Type        ResultType `json:"type"`
	Description string     `json:"description"`
}

// SelectionOrder - подбор автомобиля под требования клиента.
// InspectionIDs ссылается на осмотры из общего списка, у каждого из них
// SelectionOrderID равен ID подбора.
type SelectionOrder struct {
	ID                  string           `json:"id"`
	Status              SelectionStatus  `json:"status"`
	City                string           `json:"city"`
	CityFrom            string           `json:"cityFrom,omitempty"`
	CityTarget          string           `json:"cityTarget,omitempty"`
	Client              ClientRef        `json:"client"`
	Budget              string           `json:"budget"`
	BudgetMin           *int64           `json:"budgetMin,omitempty"`
	BudgetMax           *int64           `json:"budgetMax,omitempty"`
	Requirements        string           `json:"requirements"`
	Deadline            *time.Time       `json:"deadline,omitempty"`
	InspectionIDs       []string         `json:"inspectionIds"`
	Candidates          []Candidate      `json:"candidates"`
	AssignedExpertID    string           `json:"assignedExpertId,omitempty"`
	TariffID            string           `json:"tariffId,omitempty"`
	AddonTariffID       string           `json:"addonTariffId,omitempty"`
	IncludedInspections int              `json:"includedInspections,omitempty"`
	ExtraInspections    int              `json:"extraInspections,omitempty"`
	Result              *SelectionResult `json:"result,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

func (s SelectionOrder) HasInspection(id string) bool {
	for _, existing := range s.InspectionIDs {
		if existing == id {
			return true
		}
	}
	return false
}

func (s SelectionOrder) CandidateIndex(id string) int {
	for i := range s.Candidates {
		if s.Candidates[i].ID == id {
			return i
		}
	}
	return -1
}

// PriceSegment - сегмент цены для осмотра, созданного из кандидата, всегда в рублях
func (s SelectionOrder) PriceSegment() string {
	segment := strings.TrimSpace(s.Budget)
	if s.BudgetMin != nil {
		segment = FormatAmount(*s.BudgetMin)
	}
	if segment == "" || strings.HasSuffix(segment, "₽") {
		return segment
	}
	return segment + " ₽"
}

// Candidate - вариант автомобиля внутри подбора. InspectionID выставляется один раз.
type Candidate struct {
	ID           string          `json:"id"`
	SourceURL    string          `json:"sourceUrl"`
	Make         string          `json:"make"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Body         string          `json:"body,omitempty"`
	Mileage      int             `json:"mileage"`
	Price        int64           `json:"price"`
	City         string          `json:"city"`
	Status       CandidateStatus `json:"status"`
	Summary      string          `json:"summary,omitempty"`
	InspectionID string          `json:"inspectionId,omitempty"`
	LegalCheck   *LegalCheck     `json:"legalCheck,omitempty"`
}

func (c Candidate) Vehicle() string {
	return VehicleTitle(c.Make, c.Model, c.Year)
}

func (c Candidate) Converted() bool {
	return c.InspectionID != ""
}

func VehicleTitle(brand, model string, year int) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{brand, model} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if year > 0 {
		parts = append(parts, fmt.Sprint(year))
	}
	return strings.Join(parts, " ")
}

// FormatAmount группирует разряды пробелом: 1500000 -> "1 500 000"
func FormatAmount(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := fmt.Sprint(v)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
