// Package forms собирает сущности из сырого ввода оператора или клиента.
// Незаполненные поля получают значения по умолчанию, отказов нет.
package forms

import (
	"strconv"
	"strings"
	"time"

	"gitlab.ozon.dev/qwestard/carexpert/internal/models"
)

const (
	DefaultClientName   = "Клиент"
	DefaultClientPhone  = "+7 (900) 000-00-00"
	DefaultSourceURL    = "https://example.com/auto"
	DefaultMake         = "Марка"
	DefaultModel        = "Модель"
	DefaultPriceSegment = "Не указан"
	DefaultSummary      = "Комментарий от клиента"
	DefaultBudget       = "Бюджет не указан"
)

type ClientForm struct {
	Name  string
	Phone string
	Email string
}

func (f ClientForm) Ref() models.ClientRef {
	return models.ClientRef{
		Name:  or(f.Name, DefaultClientName),
		Phone: or(f.Phone, DefaultClientPhone),
		Email: strings.TrimSpace(f.Email),
	}
}

// InspectionForm - поля формы заказа осмотра как их ввели
type InspectionForm struct {
	Client        ClientForm
	SourceURL     string
	Make          string
	Model         string
	Year          string
	Mileage       string
	Price         string
	City          string
	SellerContact string
	Summary       string
	Address       string
	TariffID      string
}

// Inspection собирает заказ в статусе WAITING_FOR_EXPERT. Сегмент цены
// берётся из выбранного тарифа; ID и время проставляет стор.
func (f InspectionForm) Inspection(tariffs []models.Tariff) models.InspectionOrder {
	city := strings.TrimSpace(f.City)
	price := number(f.Price)
	o := models.InspectionOrder{
		Status:    models.InspectionWaitingForExpert,
		SourceURL: or(f.SourceURL, DefaultSourceURL),
		ParsedData: models.ParsedVehicle{
			Make:    or(f.Make, DefaultMake),
			Model:   or(f.Model, DefaultModel),
			Year:    int(number(f.Year)),
			Mileage: int(number(f.Mileage)),
			Price:   &price,
			City:    city,
		},
		City:          city,
		Client:        f.Client.Ref(),
		SellerContact: strings.TrimSpace(f.SellerContact),
		PriceSegment:  DefaultPriceSegment,
		Summary:       or(f.Summary, DefaultSummary),
		Address:       strings.TrimSpace(f.Address),
	}
	if t, ok := findTariff(tariffs, f.TariffID, models.TariffInspection); ok {
		o.TariffID = t.ID
		o.PriceSegment = t.PriceSegment
	}
	return o
}

type SelectionForm struct {
	Client              ClientForm
	City                string
	CityFrom            string
	CityTarget          string
	BudgetMin           string
	BudgetMax           string
	Requirements        string
	Deadline            string
	TariffID            string
	AddonTariffID       string
	IncludedInspections string
	ExtraInspections    string
}

// Selection собирает подбор в статусе WAITING_FOR_EXPERT. Бюджет строкой
// пишется только когда заданы обе границы.
func (f SelectionForm) Selection() models.SelectionOrder {
	city := strings.TrimSpace(f.City)
	sel := models.SelectionOrder{
		Status:              models.SelectionWaitingForExpert,
		City:                city,
		CityFrom:            or(f.CityFrom, city),
		CityTarget:          strings.TrimSpace(f.CityTarget),
		Client:              f.Client.Ref(),
		Budget:              DefaultBudget,
		Requirements:        strings.TrimSpace(f.Requirements),
		InspectionIDs:       []string{},
		Candidates:          []models.Candidate{},
		TariffID:            strings.TrimSpace(f.TariffID),
		AddonTariffID:       strings.TrimSpace(f.AddonTariffID),
		IncludedInspections: int(number(f.IncludedInspections)),
		ExtraInspections:    int(number(f.ExtraInspections)),
	}
	if lo := number(f.BudgetMin); lo > 0 {
		sel.BudgetMin = &lo
	}
	if hi := number(f.BudgetMax); hi > 0 {
		sel.BudgetMax = &hi
	}
	if sel.BudgetMin != nil && sel.BudgetMax != nil {
		sel.Budget = models.FormatAmount(*sel.BudgetMin) + "–" + models.FormatAmount(*sel.BudgetMax) + " ₽"
	}
	if d, err := time.Parse(time.DateOnly, strings.TrimSpace(f.Deadline)); err == nil {
		sel.Deadline = &d
	}
	return sel
}

type CandidateForm struct {
	SourceURL string
	Make      string
	Model     string
	Year      string
	Body      string
	Mileage   string
	Price     string
	City      string
	Summary   string
}

// Candidate - новый кандидат на проверке (PENDING)
func (f CandidateForm) Candidate() models.Candidate {
	return models.Candidate{
		SourceURL: or(f.SourceURL, DefaultSourceURL),
		Make:      or(f.Make, DefaultMake),
		Model:     or(f.Model, DefaultModel),
		Year:      int(number(f.Year)),
		Body:      strings.TrimSpace(f.Body),
		Mileage:   int(number(f.Mileage)),
		Price:     number(f.Price),
		City:      strings.TrimSpace(f.City),
		Status:    models.CandidatePending,
		Summary:   strings.TrimSpace(f.Summary),
	}
}

func findTariff(tariffs []models.Tariff, id string, kind models.TariffKind) (models.Tariff, bool) {
	for _, t := range tariffs {
		if t.Kind != kind {
			continue
		}
		if id == "" || t.ID == id {
			return t, true
		}
	}
	return models.Tariff{}, false
}

func or(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// number разбирает число, допуская пробелы-разделители; мусор даёт 0
func number(s string) int64 {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', '_':
			return -1
		}
		return r
	}, s)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
