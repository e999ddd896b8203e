package models

type Discount struct {
	Min     int64  `json:"min"`
	Max     int64  `json:"max"`
	Comment string `json:"comment"`
}

type LegalCheck struct {
	Pledge       Risk   `json:"pledge,omitempty"`
	Restrictions Risk   `json:"restrictions,omitempty"`
	OwnersCount  int    `json:"ownersCount,omitempty"`
	Fines        Risk   `json:"fines,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Worst возвращает худшую из оценок проверки
func (l LegalCheck) Worst() Risk {
	worst := RiskOK
	for _, r := range []Risk{l.Pledge, l.Restrictions, l.Fines} {
		switch r {
		case RiskBad:
			return RiskBad
		case RiskRisk:
			worst = RiskRisk
		}
	}
	return worst
}

type Media struct {
	Photos []string `json:"photos"`
	Videos []string `json:"videos"`
}

// ReportData - ответы чек-листа: секция -> пункт -> значение
type ReportData map[string]map[string]any

// Report прикреплён к осмотру в статусе DONE. ID, WebURL и PDFURL не меняются
// при повторном сохранении.
type Report struct {
	ID                  string              `json:"id"`
	InspectionOrderID   string              `json:"inspectionOrderId"`
	TemplateID          string              `json:"templateId"`
	Data                ReportData          `json:"data"`
	Severities          map[string]Severity `json:"severities"`
	Summary             string              `json:"summary"`
	RecommendedDiscount *Discount           `json:"recommendedDiscount,omitempty"`
	WebURL              string              `json:"webUrl,omitempty"`
	PDFURL              string              `json:"pdfUrl,omitempty"`
	LegalCheck          *LegalCheck         `json:"legalCheck,omitempty"`
	Media               *Media              `json:"media,omitempty"`
}

// ReportPayload - то, что эксперт отправляет при сохранении отчёта
type ReportPayload struct {
	Summary             string
	RecommendedDiscount *Discount
	Data                ReportData
	LegalCheck          *LegalCheck
	Severities          map[string]Severity
}

// CountSeverities считает оценки по уровням
func (r Report) CountSeverities() map[Severity]int {
	out := make(map[Severity]int, 3)
	for _, s := range r.Severities {
		out[s]++
	}
	return out
}
