package handler

import (
	"fmt"
	"strings"

	"gitlab.ozon.dev/qwestard/carexpert/internal/forms"
	"gitlab.ozon.dev/qwestard/carexpert/internal/models"
	"gitlab.ozon.dev/qwestard/carexpert/internal/views"
)

func (h *Handler) handleSelections(args []string) error {
	kv := parseKV(args)
	list := views.FilterSelections(h.st.GetState(), views.SelectionFilter{
		Query:  kv["q"],
		Status: models.SelectionStatus(strings.ToUpper(kv["status"])),
		City:   kv["city"],
	})
	if len(list) == 0 {
		h.println("Подборы не найдены")
		return nil
	}
	h.printSelections(list)
	return nil
}

func (h *Handler) printSelections(list []models.SelectionOrder) {
	w := h.table()
	fmt.Fprintln(w, "ID\tСтатус\tГород\tКлиент\tБюджет\tКандидатов")
	for _, sel := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", sel.ID, sel.Status, dash(sel.City), sel.Client.Name, sel.Budget, len(sel.Candidates))
	}
	w.Flush()
}

func (h *Handler) handleSelection(args []string) error {
	if len(args) < 1 {
		return h.usage("selection <id>")
	}
	s := h.st.GetState()
	sel, ok := s.Selection(args[0])
	if !ok {
		h.printf("Подбор %s не найден\n", args[0])
		return h.handleSelections(nil)
	}

	h.printf("Подбор %s [%s]\n", sel.ID, sel.Status)
	h.printf("Клиент: %s %s\n", sel.Client.Name, sel.Client.Phone)
	h.printf("Город: %s, бюджет: %s\n", dash(sel.City), sel.Budget)
	h.printf("Требования: %s\n", dash(sel.Requirements))
	if sel.Deadline != nil {
		h.printf("Срок: %s\n", sel.Deadline.Format("2006-01-02"))
	}
	expert := "-"
	if sel.AssignedExpertID != "" {
		expert = views.ExpertName(s, sel.AssignedExpertID)
	}
	h.printf("Эксперт: %s\n", expert)
	if sel.Result != nil {
		h.printf("Результат: %s %s\n", sel.Result.Type, sel.Result.Description)
	}

	if len(sel.Candidates) > 0 {
		h.println("\nКандидаты:")
		w := h.table()
		fmt.Fprintln(w, "ID\tСтатус\tАвто\tЦена\tОсмотр")
		for _, c := range sel.Candidates {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Status, c.Vehicle(), models.FormatAmount(c.Price), dash(c.InspectionID))
		}
		w.Flush()
	}
	if inspections := views.SelectionInspections(s, sel); len(inspections) > 0 {
		h.println("\nОсмотры:")
		h.printInspections(s, inspections)
	}
	return nil
}

func (h *Handler) handleNewSelection(args []string) error {
	kv := parseKV(args)
	f := forms.SelectionForm{
		Client:       forms.ClientForm{Name: kv["client"], Phone: kv["phone"], Email: kv["email"]},
		City:         kv["city"],
		CityFrom:     kv["from"],
		CityTarget:   kv["to"],
		BudgetMin:    kv["min"],
		BudgetMax:    kv["max"],
		Requirements: kv["requirements"],
		Deadline:     kv["deadline"],
		TariffID:     kv["tariff"],
	}
	id, ok := h.st.AddSelection(f.Selection())
	if !ok {
		h.println("Подбор не создан")
		return nil
	}
	h.printf("Создан подбор %s\n", id)
	return nil
}

func (h *Handler) handleClaimSelection(args []string) error {
	if len(args) < 2 {
		return h.usage("claim-selection <id> <expertID>")
	}
	return h.applied(h.st.ClaimSelection(args[0], args[1]),
		fmt.Sprintf("Подбор %s взят экспертом %s", args[0], args[1]),
		"Подбор нельзя взять в работу")
}

func (h *Handler) handleSelectionStatus(args []string) error {
	if len(args) < 2 {
		return h.usage("selection-status <id> <STATUS>")
	}
	status := models.SelectionStatus(strings.ToUpper(args[1]))
	if !status.Valid() {
		return fmt.Errorf("неизвестный статус %q", args[1])
	}
	return h.applied(h.st.SetSelectionStatus(args[0], status),
		fmt.Sprintf("Подбор %s: %s", args[0], status),
		"Статус не изменён")
}

func (h *Handler) handleSelectionResult(args []string) error {
	if len(args) < 2 {
		return h.usage("selection-result <id> <BOUGHT|NOT_BOUGHT|NO_MATCH> [описание...]")
	}
	result := models.SelectionResult{
		Type:        models.ResultType(strings.ToUpper(args[1])),
		Description: strings.Join(args[2:], " "),
	}
	switch result.Type {
	case models.ResultBought, models.ResultNotBought, models.ResultNoMatch:
	default:
		return fmt.Errorf("неизвестный результат %q", args[1])
	}
	return h.applied(h.st.SetSelectionResult(args[0], result),
		fmt.Sprintf("Результат подбора %s: %s", args[0], result.Type),
		"Подбор не найден")
}

func (h *Handler) handleLink(args []string) error {
	if len(args) < 2 {
		return h.usage("link <selectionID> <inspectionID>")
	}
	return h.applied(h.st.AddInspectionToSelection(args[0], args[1]),
		fmt.Sprintf("Осмотр %s добавлен в подбор %s", args[1], args[0]),
		"Связь не добавлена")
}

func (h *Handler) handleCandidateAdd(args []string) error {
	if len(args) < 1 {
		return h.usage("candidate-add <selectionID> key=value...")
	}
	kv := parseKV(args[1:])
	f := forms.CandidateForm{
		SourceURL: kv["url"],
		Make:      kv["make"],
		Model:     kv["model"],
		Year:      kv["year"],
		Body:      kv["body"],
		Mileage:   kv["mileage"],
		Price:     kv["price"],
		City:      kv["city"],
		Summary:   kv["summary"],
	}
	id, ok := h.st.AddCandidate(args[0], f.Candidate())
	if !ok {
		h.printf("Подбор %s не найден\n", args[0])
		return nil
	}
	h.printf("Добавлен кандидат %s\n", id)
	return nil
}

func (h *Handler) handleCandidateStatus(args []string) error {
	if len(args) < 3 {
		return h.usage("candidate-status <selectionID> <candidateID> <PENDING|APPROVED|REJECTED>")
	}
	status := models.CandidateStatus(strings.ToUpper(args[2]))
	if !status.Valid() {
		return fmt.Errorf("неизвестный статус %q", args[2])
	}
	return h.applied(h.st.UpdateCandidateStatus(args[0], args[1], status),
		fmt.Sprintf("Кандидат %s: %s", args[1], status),
		"Кандидат не найден")
}

func (h *Handler) handleCandidateInspect(args []string) error {
	if len(args) < 2 {
		return h.usage("candidate-inspect <selectionID> <candidateID>")
	}
	id, created := h.st.CreateInspectionFromCandidate(args[0], args[1])
	switch {
	case created:
		h.printf("Создан осмотр %s\n", id)
	case id != "":
		h.printf("Осмотр уже создан: %s\n", id)
	default:
		h.println("Осмотр не создан: кандидат не найден или не одобрен")
	}
	return nil
}
