package models

type InspectionStatus string

const (
	InspectionNew              InspectionStatus = "NEW"
	InspectionWaitingForExpert InspectionStatus = "WAITING_FOR_EXPERT"
	InspectionAssigned         InspectionStatus = "ASSIGNED"
	InspectionInProgress       InspectionStatus = "IN_PROGRESS"
	InspectionReportInProgress InspectionStatus = "REPORT_IN_PROGRESS"
	InspectionDone             InspectionStatus = "DONE"
	InspectionCancelled        InspectionStatus = "CANCELLED"
)

// InspectionStatuses перечисляет статусы осмотра в порядке пайплайна
var InspectionStatuses = []InspectionStatus{
	InspectionNew,
	InspectionWaitingForExpert,
	InspectionAssigned,
	InspectionInProgress,
	InspectionReportInProgress,
	InspectionDone,
	InspectionCancelled,
}

// кнопка "дальше" у эксперта ходит только по этой таблице
var nextInspectionStatus = map[InspectionStatus]InspectionStatus{
	InspectionAssigned:         InspectionInProgress,
	InspectionInProgress:       InspectionReportInProgress,
	InspectionReportInProgress: InspectionDone,
}

// NextInspectionStatus возвращает следующий статус для advance, false если перехода нет
func NextInspectionStatus(s InspectionStatus) (InspectionStatus, bool) {
	next, ok := nextInspectionStatus[s]
	return next, ok
}

func (s InspectionStatus) Valid() bool {
	for _, known := range InspectionStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s InspectionStatus) Terminal() bool {
	return s == InspectionDone || s == InspectionCancelled
}

// Active - заказ ещё в работе (для дашборда)
func (s InspectionStatus) Active() bool {
	return !s.Terminal()
}

// RequiresExpert - рабочие статусы, в которых у заказа обязан быть эксперт.
// Терминальные DONE и CANCELLED сюда не входят.
func (s InspectionStatus) RequiresExpert() bool {
	switch s {
	case InspectionAssigned, InspectionInProgress, InspectionReportInProgress:
		return true
	}
	return false
}

type SelectionStatus string

const (
	SelectionNew                SelectionStatus = "NEW"
	SelectionWaitingForExpert   SelectionStatus = "WAITING_FOR_EXPERT"
	SelectionAssigned           SelectionStatus = "ASSIGNED"
	SelectionSourcing           SelectionStatus = "SOURCING"
	SelectionCandidatesSent     SelectionStatus = "CANDIDATES_SENT"
	SelectionInspections        SelectionStatus = "INSPECTIONS"
	SelectionWaitingForDecision SelectionStatus = "WAITING_FOR_DECISION"
	SelectionDealFlow           SelectionStatus = "DEAL_FLOW"
	SelectionDone               SelectionStatus = "DONE"
	SelectionCancelled          SelectionStatus = "CANCELLED"
)

var SelectionStatuses = []SelectionStatus{
	SelectionNew,
	SelectionWaitingForExpert,
	SelectionAssigned,
	SelectionSourcing,
	SelectionCandidatesSent,
	SelectionInspections,
	SelectionWaitingForDecision,
	SelectionDealFlow,
	SelectionDone,
	SelectionCancelled,
}

func (s SelectionStatus) Valid() bool {
	for _, known := range SelectionStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s SelectionStatus) Terminal() bool {
	return s == SelectionDone || s == SelectionCancelled
}

func (s SelectionStatus) Active() bool {
	return !s.Terminal()
}

// Claimable - подбор ещё никем не взят, claim переводит его в ASSIGNED
func (s SelectionStatus) Claimable() bool {
	return s == SelectionNew || s == SelectionWaitingForExpert
}

type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "PENDING"
	CandidateApproved CandidateStatus = "APPROVED"
	CandidateRejected CandidateStatus = "REJECTED"
)

func (s CandidateStatus) Valid() bool {
	return s == CandidatePending || s == CandidateApproved || s == CandidateRejected
}

type Severity string

const (
	SeverityOK   Severity = "OK"
	SeverityWarn Severity = "WARN"
	SeverityBad  Severity = "BAD"
)

// Risk - оценка юридической проверки
type Risk string

const (
	RiskOK   Risk = "OK"
	RiskRisk Risk = "RISK"
	RiskBad  Risk = "BAD"
)
