package handler

import (
	"fmt"
	"strings"
	"time"

	"gitlab.ozon.dev/qwestard/carexpert/internal/forms"
	"gitlab.ozon.dev/qwestard/carexpert/internal/models"
	"gitlab.ozon.dev/qwestard/carexpert/internal/store"
	"gitlab.ozon.dev/qwestard/carexpert/internal/views"
)

func (h *Handler) handleDashboard([]string) error {
	s := h.st.GetState()
	sum := views.Summarize(s)

	h.printf("Осмотры: всего %d, в работе %d, готово %d\n", sum.TotalInspections, sum.ActiveInspections, sum.DoneInspections)
	h.printf("Подборы: всего %d, в работе %d\n", sum.TotalSelections, sum.ActiveSelections)
	rating := "-"
	if sum.HasRating {
		rating = fmt.Sprintf("%.1f", sum.AvgRating)
	}
	h.printf("Эксперты: активных %d, средний рейтинг %s\n", sum.ActiveExperts, rating)

	h.println("\nПоследние осмотры:")
	h.printInspections(s, views.LatestInspections(s, views.DefaultLatest))
	h.println("\nПоследние подборы:")
	h.printSelections(views.LatestSelections(s, views.DefaultLatest))
	return nil
}

func (h *Handler) handleInspections(args []string) error {
	kv := parseKV(args)
	s := h.st.GetState()
	list := views.FilterInspections(s, views.InspectionFilter{
		Query:  kv["q"],
		Status: models.InspectionStatus(strings.ToUpper(kv["status"])),
		City:   kv["city"],
	})
	if len(list) == 0 {
		h.println("Заказы не найдены")
		return nil
	}
	h.printInspections(s, list)
	return nil
}

func (h *Handler) printInspections(s store.State, list []models.InspectionOrder) {
	w := h.table()
	fmt.Fprintln(w, "ID\tСтатус\tАвто\tГород\tКлиент\tЭксперт")
	for _, o := range list {
		expert := "-"
		if o.HasExpert() {
			expert = views.ExpertName(s, o.ExpertID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", o.ID, o.Status, o.Vehicle(), dash(o.City), o.Client.Name, expert)
	}
	w.Flush()
}

// handleInspection показывает карточку заказа. Неизвестный ID - не ошибка,
// вместо карточки выводится список.
func (h *Handler) handleInspection(args []string) error {
	if len(args) < 1 {
		return h.usage("inspection <id>")
	}
	s := h.st.GetState()
	o, ok := s.Inspection(args[0])
	if !ok {
		h.printf("Заказ %s не найден\n", args[0])
		return h.handleInspections(nil)
	}

	h.printf("Заказ %s [%s]\n", o.ID, o.Status)
	h.printf("Авто: %s, пробег %d км\n", o.Vehicle(), o.ParsedData.Mileage)
	if o.ParsedData.Price != nil {
		h.printf("Цена: %s ₽\n", models.FormatAmount(*o.ParsedData.Price))
	}
	h.printf("Объявление: %s\n", o.SourceURL)
	h.printf("Город: %s, адрес: %s\n", dash(o.City), dash(o.Address))
	h.printf("Клиент: %s %s\n", o.Client.Name, o.Client.Phone)
	h.printf("Продавец: %s\n", dash(o.SellerContact))
	h.printf("Сегмент: %s, тариф: %s\n", dash(o.PriceSegment), dash(o.TariffID))
	expert := "-"
	if o.HasExpert() {
		expert = views.ExpertName(s, o.ExpertID)
	}
	h.printf("Эксперт: %s\n", expert)
	h.printf("Встреча: %s\n", formatTime(o.AppointmentAt))
	if o.SelectionOrderID != "" {
		h.printf("Подбор: %s\n", o.SelectionOrderID)
	}
	h.printf("Комментарий: %s\n", dash(o.Summary))
	if o.Report != nil {
		h.printf("Отчёт %s: %s\n", o.Report.ID, o.Report.Summary)
		h.printf("  %s\n", o.Report.WebURL)
	}
	return nil
}

func (h *Handler) handleNewInspection(args []string) error {
	kv := parseKV(args)
	f := forms.InspectionForm{
		Client:        forms.ClientForm{Name: kv["client"], Phone: kv["phone"], Email: kv["email"]},
		SourceURL:     kv["url"],
		Make:          kv["make"],
		Model:         kv["model"],
		Year:          kv["year"],
		Mileage:       kv["mileage"],
		Price:         kv["price"],
		City:          kv["city"],
		SellerContact: kv["seller"],
		Summary:       kv["summary"],
		Address:       kv["address"],
		TariffID:      kv["tariff"],
	}
	s := h.st.GetState()
	id, ok := h.st.AddInspection(f.Inspection(s.Tariffs))
	if !ok {
		h.println("Заказ не создан")
		return nil
	}
	h.printf("Создан заказ %s\n", id)
	return nil
}

func (h *Handler) handleClaim(args []string) error {
	if len(args) < 2 {
		return h.usage("claim <id> <expertID>")
	}
	return h.applied(h.st.ClaimInspection(args[0], args[1]),
		fmt.Sprintf("Заказ %s взят экспертом %s", args[0], args[1]),
		"Заказ нельзя взять в работу")
}

func (h *Handler) handleAssign(args []string) error {
	if len(args) < 2 {
		return h.usage("assign <id> <expertID|->")
	}
	expertID := args[1]
	if expertID == "-" {
		expertID = ""
	}
	return h.applied(h.st.AssignExpert(args[0], expertID),
		fmt.Sprintf("Эксперт заказа %s обновлён", args[0]),
		"Эксперт не изменён")
}

func (h *Handler) handleAdvance(args []string) error {
	if len(args) < 1 {
		return h.usage("advance <id>")
	}
	if !h.st.AdvanceInspection(args[0]) {
		h.println("Статус не изменён")
		return nil
	}
	o, _ := h.st.GetState().Inspection(args[0])
	h.printf("Заказ %s: %s\n", o.ID, o.Status)
	return nil
}

func (h *Handler) handleStatus(args []string) error {
	if len(args) < 2 {
		return h.usage("status <id> <STATUS>")
	}
	status := models.InspectionStatus(strings.ToUpper(args[1]))
	if !status.Valid() {
		return fmt.Errorf("неизвестный статус %q", args[1])
	}
	return h.applied(h.st.SetInspectionStatus(args[0], status),
		fmt.Sprintf("Заказ %s: %s", args[0], status),
		"Статус не изменён")
}

func (h *Handler) handleAppointment(args []string) error {
	if len(args) < 2 {
		return h.usage("appointment <id> <RFC3339|->")
	}
	var at *time.Time
	if args[1] != "-" {
		t, err := time.Parse(time.RFC3339, args[1])
		if err != nil {
			return fmt.Errorf("неверное время встречи: %w", err)
		}
		at = &t
	}
	return h.applied(h.st.UpdateAppointment(args[0], at),
		fmt.Sprintf("Встреча по заказу %s: %s", args[0], formatTime(at)),
		"Заказ не найден")
}

func (h *Handler) handleReport(args []string) error {
	if len(args) < 2 {
		return h.usage("report <id> <summary...>")
	}
	payload := models.ReportPayload{Summary: strings.Join(args[1:], " ")}
	if !h.st.UpsertReport(args[0], payload) {
		h.println("Отчёт не сохранён")
		return nil
	}
	o, _ := h.st.GetState().Inspection(args[0])
	h.printf("Отчёт %s сохранён: %s\n", o.Report.ID, o.Report.WebURL)
	return nil
}
