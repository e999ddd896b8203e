package store_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/qwestard/carexpert/internal/models"
	"gitlab.ozon.dev/qwestard/carexpert/internal/store"
)

var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func setupStore(t *testing.T, initial store.State) *store.OrderStore {
	t.Helper()
	var n int
	var mu sync.Mutex
	return store.New(initial,
		store.WithClock(func() time.Time { return testNow }),
		store.WithUUID(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("uuid-%d", n)
		}),
	)
}

func inspection(id string, status models.InspectionStatus) models.InspectionOrder {
	return models.InspectionOrder{
		ID:         id,
		Status:     status,
		SourceURL:  "https://example.com/" + id,
		ParsedData: models.ParsedVehicle{Make: "Toyota", Model: "Camry", Year: 2019},
		City:       "Москва",
		Client:     models.ClientRef{Name: "Иван", Phone: "+7 900 111-22-33"},
		CreatedAt:  testNow.Add(-time.Hour),
		UpdatedAt:  testNow.Add(-time.Hour),
	}
}

func selectionWithCandidate(status models.CandidateStatus) models.SelectionOrder {
	budgetMin := int64(1500000)
	return models.SelectionOrder{
		ID:           "POD-1",
		Status:       models.SelectionSourcing,
		City:         "Москва",
		Client:       models.ClientRef{Name: "Пётр", Phone: "+7 900 222-33-44"},
		Budget:       "1.5-2 млн",
		BudgetMin:    &budgetMin,
		Requirements: "седан, не старше 5 лет",
		Candidates: []models.Candidate{{
			ID:     "CAND-1",
			Make:   "Kia",
			Model:  "K5",
			Year:   2021,
			Price:  1800000,
			City:   "Москва",
			Status: status,
		}},
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
	}
}

func stateWith(orders ...models.InspectionOrder) store.State {
	return store.State{Collections: store.Collections{Inspections: orders}}
}

// TestClaimInspectionScenario проверяет двойной claim: NEW -> WAITING_FOR_EXPERT -> ASSIGNED
func TestClaimInspectionScenario(t *testing.T) {
	st := setupStore(t, stateWith(inspection("OSM-1", models.InspectionNew)))

	assert.True(t, st.ClaimInspection("OSM-1", "EXP-1"))
	o, ok := st.GetState().Inspection("OSM-1")
	require.True(t, ok)
	assert.Equal(t, models.InspectionWaitingForExpert, o.Status)
	assert.Equal(t, "EXP-1", o.ExpertID)
	assert.Equal(t, testNow, o.UpdatedAt)

	assert.True(t, st.ClaimInspection("OSM-1", "EXP-1"))
	o, _ = st.GetState().Inspection("OSM-1")
	assert.Equal(t, models.InspectionAssigned, o.Status)
	assert.Equal(t, "EXP-1", o.ExpertID)
}

// TestClaimInspectionStatuses: любой нетерминальный статус кроме NEW уходит в ASSIGNED
func TestClaimInspectionStatuses(t *testing.T) {
	cases := map[models.InspectionStatus]models.InspectionStatus{
		models.InspectionNew:              models.InspectionWaitingForExpert,
		models.InspectionWaitingForExpert: models.InspectionAssigned,
		models.InspectionAssigned:         models.InspectionAssigned,
		models.InspectionInProgress:       models.InspectionAssigned,
		models.InspectionReportInProgress: models.InspectionAssigned,
		models.InspectionCancelled:        models.InspectionCancelled,
	}
	for from, want := range cases {
		o := inspection("OSM-1", from)
		if from.RequiresExpert() {
			o.ExpertID = "EXP-0"
		}
		st := setupStore(t, stateWith(o))
		assert.True(t, st.ClaimInspection("OSM-1", "EXP-2"), from)
		got, _ := st.GetState().Inspection("OSM-1")
		assert.Equal(t, want, got.Status, "из %s", from)
		assert.Equal(t, "EXP-2", got.ExpertID)
	}
}

// TestClaimInspectionIgnored: неизвестный ID и пустой эксперт ничего не меняют
func TestClaimInspectionIgnored(t *testing.T) {
	st := setupStore(t, stateWith(inspection("OSM-1", models.InspectionNew)))
	before := st.GetState()

	assert.False(t, st.ClaimInspection("OSM-404", "EXP-1"))
	assert.False(t, st.ClaimInspection("OSM-1", ""))
	assert.Equal(t, before, st.GetState())
}

// TestClaimSelection проверяет переход в ASSIGNED только из NEW и WAITING_FOR_EXPERT
func TestClaimSelection(t *testing.T) {
	for _, from := range models.SelectionStatuses {
		sel := selectionWithCandidate(models.CandidatePending)
		sel.Status = from
		st := setupStore(t, store.State{Collections: store.Collections{Selections: []models.SelectionOrder{sel}}})

		assert.True(t, st.ClaimSelection("POD-1", "EXP-3"))
		got, ok := st.GetState().Selection("POD-1")
		require.True(t, ok)
		assert.Equal(t, "EXP-3", got.AssignedExpertID)
		if from == models.SelectionNew || from == models.SelectionWaitingForExpert {
			assert.Equal(t, models.SelectionAssigned, got.Status)
		} else {
			assert.Equal(t, from, got.Status)
		}
	}
}

// TestAdvanceInspection проходит всю цепочку кнопки "дальше"
func TestAdvanceInspection(t *testing.T) {
	o := inspection("OSM-1", models.InspectionAssigned)
	o.ExpertID = "EXP-1"
	st := setupStore(t, stateWith(o, inspection("OSM-2", models.InspectionNew)))

	assert.True(t, st.AdvanceInspection("OSM-1"))
	got, _ := st.GetState().Inspection("OSM-1")
	assert.Equal(t, models.InspectionInProgress, got.Status)

	assert.True(t, st.AdvanceInspection("OSM-1"))
	got, _ = st.GetState().Inspection("OSM-1")
	assert.Equal(t, models.InspectionReportInProgress, got.Status)

	// без отчёта в DONE не пускаем
	assert.False(t, st.AdvanceInspection("OSM-1"))

	assert.True(t, st.UpsertReport("OSM-1", models.ReportPayload{Summary: "ok"}))
	got, _ = st.GetState().Inspection("OSM-1")
	assert.Equal(t, models.InspectionDone, got.Status)
	assert.False(t, st.AdvanceInspection("OSM-1"))

	assert.False(t, st.AdvanceInspection("OSM-2"), "у NEW следующего статуса нет")
}

// TestSetInspectionStatus: ручная смена статуса обходит порядок, но не инварианты
func TestSetInspectionStatus(t *testing.T) {
	st := setupStore(t, stateWith(inspection("OSM-1", models.InspectionNew)))

	assert.False(t, st.SetInspectionStatus("OSM-1", models.InspectionAssigned), "нет эксперта")
	assert.False(t, st.SetInspectionStatus("OSM-1", models.InspectionDone), "нет отчёта")
	assert.False(t, st.SetInspectionStatus("OSM-1", "BOGUS"))
	assert.False(t, st.SetInspectionStatus("OSM-1", models.InspectionNew), "тот же статус")

	assert.True(t, st.AssignExpert("OSM-1", "EXP-1"))
	assert.True(t, st.SetInspectionStatus("OSM-1", models.InspectionReportInProgress))
	assert.True(t, st.SetInspectionStatus("OSM-1", models.InspectionNew))
	assert.True(t, st.SetInspectionStatus("OSM-1", models.InspectionCancelled))

	got, _ := st.GetState().Inspection("OSM-1")
	assert.Equal(t, models.InspectionCancelled, got.Status)
}

// TestAssignExpertClearDropsStatus: снятие эксперта возвращает заказ в ожидание
func TestAssignExpertClearDropsStatus(t *testing.T) {
	o := inspection("OSM-1", models.InspectionInProgress)
	o.ExpertID = "EXP-1"
	st := setupStore(t, stateWith(o))

	assert.True(t, st.AssignExpert("OSM-1", ""))
	got, _ := st.GetState().Inspection("OSM-1")
	assert.Equal(t, models.InspectionWaitingForExpert, got.Status)
	assert.Empty(t, got.ExpertID)
	assert.NoError(t, store.Validate(st.GetState().Collections))
}

// TestUpsertReportKeepsIdentity проверяет стабильность ID и ссылок при повторном сохранении
func TestUpsertReportKeepsIdentity(t *testing.T) {
	o := inspection("OSM-7", models.InspectionReportInProgress)
	o.ExpertID = "EXP-1"
	initial := stateWith(o)
	initial.ChecklistTemplates = []models.ChecklistTemplate{{ID: "CHK-9", Name: "Базовый"}}
	st := setupStore(t, initial)

	first := models.ReportPayload{
		Summary:    "первый",
		Data:       models.ReportData{"body": {"paint": "ok"}},
		Severities: map[string]models.Severity{"paint": models.SeverityOK},
	}
	require.True(t, st.UpsertReport("OSM-7", first))
	got, _ := st.GetState().Inspection("OSM-7")
	require.NotNil(t, got.Report)
	rep1 := *got.Report
	assert.Equal(t, "REP-uuid-1", rep1.ID)
	assert.Equal(t, "https://reports.local/OSM-7", rep1.WebURL)
	assert.Equal(t, "https://reports.local/OSM-7.pdf", rep1.PDFURL)
	assert.Equal(t, "CHK-9", rep1.TemplateID)
	assert.Equal(t, models.InspectionDone, got.Status)

	second := models.ReportPayload{
		Summary:    "второй",
		Severities: map[string]models.Severity{"paint": models.SeverityBad},
		LegalCheck: &models.LegalCheck{Pledge: models.RiskRisk},
	}
	require.True(t, st.UpsertReport("OSM-7", second))
	got, _ = st.GetState().Inspection("OSM-7")
	rep2 := *got.Report
	assert.Equal(t, rep1.ID, rep2.ID)
	assert.Equal(t, rep1.WebURL, rep2.WebURL)
	assert.Equal(t, rep1.PDFURL, rep2.PDFURL)
	assert.Equal(t, "второй", rep2.Summary)
	assert.Equal(t, models.SeverityBad, rep2.Severities["paint"])
	assert.Equal(t, models.RiskRisk, rep2.LegalCheck.Pledge)
	assert.Equal(t, rep1.Data, rep2.Data, "данные без нового payload сохраняются")
	assert.Equal(t, models.InspectionDone, got.Status)
}

// TestUpsertReportDefaultTemplate: без шаблонов используется CHK-1
func TestUpsertReportDefaultTemplate(t *testing.T) {
	st := setupStore(t, stateWith(inspection("OSM-1", models.InspectionNew)))
	require.True(t, st.UpsertReport("OSM-1", models.ReportPayload{}))
	got, _ := st.GetState().Inspection("OSM-1")
	assert.Equal(t, "CHK-1", got.Report.TemplateID)
	assert.NotNil(t, got.Report.Data)
	assert.False(t, st.UpsertReport("OSM-404", models.ReportPayload{}))
}

// TestCreateInspectionFromCandidate проверяет все три эффекта конвертации
func TestCreateInspectionFromCandidate(t *testing.T) {
	st := setupStore(t, store.State{Collections: store.Collections{
		Selections: []models.SelectionOrder{selectionWithCandidate(models.CandidateApproved)},
	}})

	id, created := st.CreateInspectionFromCandidate("POD-1", "CAND-1")
	require.True(t, created)
	require.NotEmpty(t, id)

	s := st.GetState()
	o, ok := s.Inspection(id)
	require.True(t, ok)
	assert.Equal(t, "POD-1", o.SelectionOrderID)
	assert.Equal(t, models.InspectionWaitingForExpert, o.Status)
	assert.Equal(t, "Пётр", o.Client.Name)
	assert.Equal(t, "1 500 000 ₽", o.PriceSegment)
	assert.Equal(t, "седан, не старше 5 лет", o.Summary)
	require.NotNil(t, o.ParsedData.Price)
	assert.Equal(t, int64(1800000), *o.ParsedData.Price)

	sel, _ := s.Selection("POD-1")
	assert.Equal(t, []string{id}, sel.InspectionIDs)
	assert.Equal(t, id, sel.Candidates[0].InspectionID)
	assert.NoError(t, store.Validate(s.Collections))
}

// TestCreateInspectionFromCandidateIdempotent: повторный вызов не создаёт второй осмотр
func TestCreateInspectionFromCandidateIdempotent(t *testing.T) {
	st := setupStore(t, store.State{Collections: store.Collections{
		Selections: []models.SelectionOrder{selectionWithCandidate(models.CandidateApproved)},
	}})

	first, created := st.CreateInspectionFromCandidate("POD-1", "CAND-1")
	require.True(t, created)
	second, created := st.CreateInspectionFromCandidate("POD-1", "CAND-1")
	assert.False(t, created)
	assert.Equal(t, first, second)
	assert.Len(t, st.GetState().Inspections, 1)
}

// TestCreateInspectionFromCandidateConcurrent: гонка вызовов даёт ровно один осмотр
func TestCreateInspectionFromCandidateConcurrent(t *testing.T) {
	st := setupStore(t, store.State{Collections: store.Collections{
		Selections: []models.SelectionOrder{selectionWithCandidate(models.CandidateApproved)},
	}})

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	ids := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, created := st.CreateInspectionFromCandidate("POD-1", "CAND-1")
			mu.Lock()
			defer mu.Unlock()
			ids[id] = struct{}{}
			if created {
				createdCount++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	assert.Len(t, ids, 1)
	assert.Len(t, st.GetState().Inspections, 1)
	sel, _ := st.GetState().Selection("POD-1")
	assert.Len(t, sel.InspectionIDs, 1)
}

// TestCreateInspectionFromCandidateRequiresApproval: PENDING и REJECTED не конвертируются
func TestCreateInspectionFromCandidateRequiresApproval(t *testing.T) {
	for _, status := range []models.CandidateStatus{models.CandidatePending, models.CandidateRejected} {
		st := setupStore(t, store.State{Collections: store.Collections{
			Selections: []models.SelectionOrder{selectionWithCandidate(status)},
		}})
		id, created := st.CreateInspectionFromCandidate("POD-1", "CAND-1")
		assert.False(t, created)
		assert.Empty(t, id)
		assert.Empty(t, st.GetState().Inspections)
	}

	st := setupStore(t, store.State{})
	id, created := st.CreateInspectionFromCandidate("POD-404", "CAND-1")
	assert.False(t, created)
	assert.Empty(t, id)
}

// TestCandidateStatusDoesNotCascade: одобрение кандидата само осмотр не создаёт
func TestCandidateStatusDoesNotCascade(t *testing.T) {
	st := setupStore(t, store.State{Collections: store.Collections{
		Selections: []models.SelectionOrder{selectionWithCandidate(models.CandidatePending)},
	}})

	assert.True(t, st.UpdateCandidateStatus("POD-1", "CAND-1", models.CandidateApproved))
	c, ok := st.GetState().Candidate("POD-1", "CAND-1")
	require.True(t, ok)
	assert.Equal(t, models.CandidateApproved, c.Status)
	assert.Empty(t, c.InspectionID)
	assert.Empty(t, st.GetState().Inspections)
	sel, _ := st.GetState().Selection("POD-1")
	assert.Equal(t, models.SelectionSourcing, sel.Status)
}

// TestAddCandidate проверяет ID и статус по умолчанию
func TestAddCandidate(t *testing.T) {
	st := setupStore(t, store.State{Collections: store.Collections{
		Selections: []models.SelectionOrder{selectionWithCandidate(models.CandidatePending)},
	}})

	id, ok := st.AddCandidate("POD-1", models.Candidate{Make: "Mazda", Model: "6"})
	require.True(t, ok)
	assert.Equal(t, "CAND-0002", id)
	c, _ := st.GetState().Candidate("POD-1", id)
	assert.Equal(t, models.CandidatePending, c.Status)

	_, ok = st.AddCandidate("POD-404", models.Candidate{})
	assert.False(t, ok)
}

// TestAddInspectionLinksSelection: осмотр с ID подбора появляется в его списке
func TestAddInspectionLinksSelection(t *testing.T) {
	st := setupStore(t, store.State{Collections: store.Collections{
		Selections: []models.SelectionOrder{selectionWithCandidate(models.CandidatePending)},
	}})

	o := inspection("", models.InspectionNew)
	o.SelectionOrderID = "POD-1"
	id, ok := st.AddInspection(o)
	require.True(t, ok)
	assert.Equal(t, "OSM-0001", id)

	sel, _ := st.GetState().Selection("POD-1")
	assert.Equal(t, []string{id}, sel.InspectionIDs)

	// несуществующий подбор - ссылка снимается
	o2 := inspection("OSM-50", models.InspectionNew)
	o2.SelectionOrderID = "POD-404"
	_, ok = st.AddInspection(o2)
	require.True(t, ok)
	got, _ := st.GetState().Inspection("OSM-50")
	assert.Empty(t, got.SelectionOrderID)

	// новые заказы идут первыми
	assert.Equal(t, "OSM-50", st.GetState().Inspections[0].ID)
	assert.NoError(t, store.Validate(st.GetState().Collections))
}

// TestAddInspectionNormalizesStatus: заказ не попадает в стор с нарушенным инвариантом
func TestAddInspectionNormalizesStatus(t *testing.T) {
	st := setupStore(t, store.State{})

	_, ok := st.AddInspection(inspection("OSM-1", models.InspectionInProgress))
	require.True(t, ok)
	_, ok = st.AddInspection(inspection("OSM-2", models.InspectionDone))
	require.True(t, ok)
	_, ok = st.AddInspection(inspection("OSM-1", models.InspectionNew))
	assert.False(t, ok, "дубль ID")

	s := st.GetState()
	o1, _ := s.Inspection("OSM-1")
	o2, _ := s.Inspection("OSM-2")
	assert.Equal(t, models.InspectionWaitingForExpert, o1.Status)
	assert.Equal(t, models.InspectionWaitingForExpert, o2.Status)
	assert.NoError(t, store.Validate(s.Collections))
}

// TestAddSelectionFiltersInspections: чужие и несуществующие осмотры не привязываются
func TestAddSelectionFiltersInspections(t *testing.T) {
	taken := inspection("OSM-2", models.InspectionNew)
	taken.SelectionOrderID = "POD-9"
	st := setupStore(t, store.State{Collections: store.Collections{
		Inspections: []models.InspectionOrder{inspection("OSM-1", models.InspectionNew), taken},
		Selections:  []models.SelectionOrder{{ID: "POD-9", Status: models.SelectionNew, InspectionIDs: []string{"OSM-2"}}},
	}})

	id, ok := st.AddSelection(models.SelectionOrder{InspectionIDs: []string{"OSM-1", "OSM-2", "OSM-404"}})
	require.True(t, ok)
	s := st.GetState()
	sel, _ := s.Selection(id)
	assert.Equal(t, []string{"OSM-1"}, sel.InspectionIDs)
	assert.Equal(t, models.SelectionNew, sel.Status)
	o1, _ := s.Inspection("OSM-1")
	assert.Equal(t, id, o1.SelectionOrderID)
	assert.NoError(t, store.Validate(s.Collections))
}

// TestAddSelectionDropsForeignCandidateLink: кандидат не может ссылаться на осмотр другого подбора
func TestAddSelectionDropsForeignCandidateLink(t *testing.T) {
	foreign := inspection("OSM-5000", models.InspectionNew)
	foreign.SelectionOrderID = "POD-1"
	own := inspection("OSM-5001", models.InspectionNew)
	st := setupStore(t, store.State{Collections: store.Collections{
		Inspections: []models.InspectionOrder{foreign, own},
		Selections:  []models.SelectionOrder{{ID: "POD-1", Status: models.SelectionNew, InspectionIDs: []string{"OSM-5000"}}},
	}})

	id, ok := st.AddSelection(models.SelectionOrder{
		ID:            "POD-2",
		InspectionIDs: []string{"OSM-5001"},
		Candidates: []models.Candidate{
			{ID: "CAND-1", Make: "Kia", InspectionID: "OSM-5000"},
			{ID: "CAND-2", Make: "Kia", InspectionID: "OSM-5001"},
		},
	})
	require.True(t, ok)
	s := st.GetState()
	sel, _ := s.Selection(id)
	require.Len(t, sel.Candidates, 2)
	assert.Empty(t, sel.Candidates[0].InspectionID)
	assert.Equal(t, "OSM-5001", sel.Candidates[1].InspectionID)
	assert.NoError(t, store.Validate(s.Collections))

	cid, ok := st.AddCandidate("POD-2", models.Candidate{Make: "Lada", InspectionID: "OSM-5000"})
	require.True(t, ok)
	sel, _ = st.GetState().Selection("POD-2")
	for _, c := range sel.Candidates {
		if c.ID == cid {
			assert.Empty(t, c.InspectionID)
		}
	}
}

// TestValidateForeignCandidateLink: ссылка кандидата на осмотр чужого подбора невалидна
func TestValidateForeignCandidateLink(t *testing.T) {
	foreign := inspection("OSM-5000", models.InspectionNew)
	foreign.SelectionOrderID = "POD-1"
	err := store.Validate(store.Collections{
		Inspections: []models.InspectionOrder{foreign},
		Selections: []models.SelectionOrder{
			{ID: "POD-1", Status: models.SelectionNew, InspectionIDs: []string{"OSM-5000"}},
			{ID: "POD-2", Status: models.SelectionNew, Candidates: []models.Candidate{
				{ID: "CAND-1", Status: models.CandidatePending, InspectionID: "OSM-5000"},
			}},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "чужого подбора")
}

// TestAddInspectionToSelection проверяет двустороннюю связь
func TestAddInspectionToSelection(t *testing.T) {
	st := setupStore(t, store.State{Collections: store.Collections{
		Inspections: []models.InspectionOrder{inspection("OSM-1", models.InspectionNew)},
		Selections: []models.SelectionOrder{
			{ID: "POD-1", Status: models.SelectionNew, InspectionIDs: []string{}},
			{ID: "POD-2", Status: models.SelectionNew, InspectionIDs: []string{}},
		},
	}})

	assert.True(t, st.AddInspectionToSelection("POD-1", "OSM-1"))
	assert.False(t, st.AddInspectionToSelection("POD-1", "OSM-1"), "уже в списке")
	assert.False(t, st.AddInspectionToSelection("POD-2", "OSM-1"), "привязан к другому подбору")

	s := st.GetState()
	o, _ := s.Inspection("OSM-1")
	assert.Equal(t, "POD-1", o.SelectionOrderID)
	assert.NoError(t, store.Validate(s.Collections))
}

// TestLinkCandidateInspection: связь ставится один раз и только со своим осмотром
func TestLinkCandidateInspection(t *testing.T) {
	linked := inspection("OSM-1", models.InspectionNew)
	linked.SelectionOrderID = "POD-1"
	sel := selectionWithCandidate(models.CandidateApproved)
	sel.InspectionIDs = []string{"OSM-1"}
	st := setupStore(t, store.State{Collections: store.Collections{
		Inspections: []models.InspectionOrder{linked, inspection("OSM-2", models.InspectionNew)},
		Selections:  []models.SelectionOrder{sel},
	}})

	assert.False(t, st.LinkCandidateInspection("POD-1", "CAND-1", "OSM-2"))
	assert.True(t, st.LinkCandidateInspection("POD-1", "CAND-1", "OSM-1"))
	assert.False(t, st.LinkCandidateInspection("POD-1", "CAND-1", "OSM-1"))

	_, created := st.CreateInspectionFromCandidate("POD-1", "CAND-1")
	assert.False(t, created)
}

// TestSelectionResultAndStatus проверяет итог подбора и ручной статус
func TestSelectionResultAndStatus(t *testing.T) {
	st := setupStore(t, store.State{Collections: store.Collections{
		Selections: []models.SelectionOrder{selectionWithCandidate(models.CandidatePending)},
	}})

	assert.False(t, st.SetSelectionResult("POD-1", models.SelectionResult{Type: "MAYBE"}))
	assert.True(t, st.SetSelectionResult("POD-1", models.SelectionResult{Type: models.ResultBought, Description: "Kia K5"}))
	assert.True(t, st.SetSelectionStatus("POD-1", models.SelectionDone))
	assert.False(t, st.SetSelectionStatus("POD-1", models.SelectionDone))

	sel, _ := st.GetState().Selection("POD-1")
	assert.Equal(t, models.SelectionDone, sel.Status)
	require.NotNil(t, sel.Result)
	assert.Equal(t, models.ResultBought, sel.Result.Type)
}

// TestTariffsCRUD проверяет добавление, замену и удаление тарифа
func TestTariffsCRUD(t *testing.T) {
	st := setupStore(t, store.State{})

	id, ok := st.AddTariff(models.Tariff{PriceSegment: "до 1 млн", Amount: models.FixedAmount(4500)})
	require.True(t, ok)
	assert.Equal(t, "TAR-0001", id)
	tar, _ := st.GetState().Tariff(id)
	assert.Equal(t, models.TariffInspection, tar.Kind)

	tar.Amount = models.CustomAmount()
	assert.True(t, st.UpdateTariff(tar))
	got, _ := st.GetState().Tariff(id)
	assert.True(t, got.Amount.Custom)

	bogus := got
	bogus.Kind = "delivery"
	assert.False(t, st.UpdateTariff(bogus))
	got, _ = st.GetState().Tariff(id)
	assert.Equal(t, models.TariffInspection, got.Kind)

	assert.True(t, st.DeleteTariff(id))
	assert.False(t, st.DeleteTariff(id))
	assert.Empty(t, st.GetState().Tariffs)
}

// TestExpertsAndTemplates проверяет справочники
func TestExpertsAndTemplates(t *testing.T) {
	st := setupStore(t, store.State{})

	id, ok := st.AddExpert(models.Expert{Name: "Алексей", Active: true})
	require.True(t, ok)
	assert.True(t, st.ToggleExpertActive(id))
	e, _ := st.GetState().Expert(id)
	assert.False(t, e.Active)
	assert.False(t, st.ToggleExpertActive("EXP-404"))

	tid, ok := st.AddChecklistTemplate(models.ChecklistTemplate{Name: "Кузов"})
	require.True(t, ok)
	assert.Equal(t, "CHK-0001", tid)
}

// TestChats проверяет отправку сообщений и сброс к исходным тредам
func TestChats(t *testing.T) {
	seedThread := models.ChatThread{ID: "CHAT-1", Messages: []models.ChatMessage{}}
	st := store.New(store.State{Collections: store.Collections{Chats: []models.ChatThread{seedThread}}},
		store.WithClock(func() time.Time { return testNow }),
		store.WithUUID(func() string { return "x" }),
		store.WithSeedChats([]models.ChatThread{seedThread}),
	)

	assert.False(t, st.SendChatMessage("CHAT-1", models.AuthorClient, "   "))
	assert.False(t, st.SendChatMessage("CHAT-404", models.AuthorClient, "привет"))
	assert.True(t, st.SendChatMessage("CHAT-1", models.AuthorClient, " привет "))

	th, _ := st.GetState().ChatThread("CHAT-1")
	require.Len(t, th.Messages, 1)
	assert.Equal(t, "msg-x", th.Messages[0].ID)
	assert.Equal(t, "привет", th.Messages[0].Text)
	assert.Equal(t, testNow, th.Messages[0].CreatedAt)

	id, ok := st.AddChatThread(models.ChatThread{Participant: models.ClientRef{Name: "Ольга"}})
	require.True(t, ok)
	assert.Len(t, st.GetState().Chats, 2)

	assert.True(t, st.ResetChats())
	assert.Equal(t, []models.ChatThread{seedThread}, st.GetState().Chats)
	_, ok = st.GetState().ChatThread(id)
	assert.False(t, ok)
}

// TestSession: текущие клиент и эксперт меняются, но в коллекции не попадают
func TestSession(t *testing.T) {
	st := setupStore(t, store.State{})
	assert.True(t, st.SetCurrentExpert("EXP-1"))
	assert.False(t, st.SetCurrentExpert("EXP-1"))
	assert.True(t, st.SetCurrentClient("+7 900 111-22-33"))
	s := st.GetState()
	assert.Equal(t, "EXP-1", s.CurrentExpertID)
	assert.Equal(t, "+7 900 111-22-33", s.CurrentClientID)
	assert.Equal(t, store.Collections{}, s.Collections)
}

// TestSnapshotsAreImmutable: старый снимок не меняется после мутаций
func TestSnapshotsAreImmutable(t *testing.T) {
	st := setupStore(t, store.State{Collections: store.Collections{
		Inspections: []models.InspectionOrder{inspection("OSM-1", models.InspectionNew)},
		Selections:  []models.SelectionOrder{selectionWithCandidate(models.CandidateApproved)},
	}})
	before := st.GetState()

	st.ClaimInspection("OSM-1", "EXP-1")
	st.CreateInspectionFromCandidate("POD-1", "CAND-1")
	st.UpdateCandidateStatus("POD-1", "CAND-1", models.CandidateRejected)

	assert.Equal(t, models.InspectionNew, before.Inspections[0].Status)
	assert.Len(t, before.Inspections, 1)
	assert.Empty(t, before.Selections[0].InspectionIDs)
	assert.Empty(t, before.Selections[0].Candidates[0].InspectionID)
	assert.Equal(t, models.CandidateApproved, before.Selections[0].Candidates[0].Status)
}

// TestSubscribe проверяет уведомления, порядковые номера и отписку
func TestSubscribe(t *testing.T) {
	st := setupStore(t, stateWith(inspection("OSM-1", models.InspectionNew)))

	var changes []store.Change
	unsubscribe := st.Subscribe(func(s store.State, ch store.Change) {
		changes = append(changes, ch)
	})

	st.ClaimInspection("OSM-1", "EXP-1")
	st.ClaimInspection("OSM-404", "EXP-1")
	st.ClaimInspection("OSM-1", "EXP-1")
	unsubscribe()
	st.SetInspectionStatus("OSM-1", models.InspectionCancelled)

	require.Len(t, changes, 2)
	assert.Equal(t, uint64(1), changes[0].Seq)
	assert.Equal(t, uint64(2), changes[1].Seq)
	assert.Equal(t, "claim_inspection", changes[0].Action)
	assert.Equal(t, store.EntityInspection, changes[0].Entity)
	assert.Equal(t, "OSM-1", changes[0].EntityID)
	assert.Equal(t, "NEW", changes[0].OldStatus)
	assert.Equal(t, "WAITING_FOR_EXPERT", changes[0].NewStatus)
	assert.Equal(t, "ASSIGNED", changes[1].NewStatus)
	assert.True(t, changes[1].StatusChanged())
}

// TestGenerateIDSkipsExisting: генератор не выдаёт ID, уже занятые в начальном состоянии
func TestGenerateIDSkipsExisting(t *testing.T) {
	st := setupStore(t, stateWith(inspection("OSM-0041", models.InspectionNew)))
	assert.Equal(t, "OSM-0042", st.GenerateID("OSM"))
	assert.Equal(t, "POD-0001", st.GenerateID("POD"))
}

// TestInvariantsHoldUnderMixedOperations гоняет смесь операций и проверяет инварианты после каждой
func TestInvariantsHoldUnderMixedOperations(t *testing.T) {
	st := setupStore(t, store.State{Collections: store.Collections{
		Selections: []models.SelectionOrder{selectionWithCandidate(models.CandidateApproved)},
	}})

	ops := []func(){
		func() { st.AddInspection(inspection("OSM-10", models.InspectionNew)) },
		func() { st.SetInspectionStatus("OSM-10", models.InspectionInProgress) },
		func() { st.ClaimInspection("OSM-10", "EXP-1") },
		func() { st.ClaimInspection("OSM-10", "EXP-1") },
		func() { st.AdvanceInspection("OSM-10") },
		func() { st.AdvanceInspection("OSM-10") },
		func() { st.AdvanceInspection("OSM-10") },
		func() { st.AssignExpert("OSM-10", "") },
		func() { st.CreateInspectionFromCandidate("POD-1", "CAND-1") },
		func() { st.AddInspectionToSelection("POD-1", "OSM-10") },
		func() { st.SetInspectionStatus("OSM-10", models.InspectionDone) },
		func() { st.UpsertReport("OSM-10", models.ReportPayload{Summary: "итог"}) },
		func() { st.SetInspectionStatus("OSM-10", models.InspectionCancelled) },
		func() { st.AddSelection(models.SelectionOrder{InspectionIDs: []string{"OSM-10"}}) },
	}
	for i, op := range ops {
		op()
		assert.NoError(t, store.Validate(st.GetState().Collections), "после шага %d", i)
	}
}
