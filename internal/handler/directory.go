package handler

import (
	"fmt"
	"strings"

	"gitlab.ozon.dev/qwestard/carexpert/internal/models"
	"gitlab.ozon.dev/qwestard/carexpert/internal/views"
)

func (h *Handler) handleExperts(args []string) error {
	kv := parseKV(args)
	f := views.ExpertFilter{City: kv["city"], Brand: kv["brand"], Load: models.Load(kv["load"])}
	switch strings.ToLower(kv["active"]) {
	case "yes", "да":
		f.Active = views.OnlyActive
	case "no", "нет":
		f.Active = views.OnlyInactive
	}

	list := views.FilterExperts(h.st.GetState(), f)
	if len(list) == 0 {
		h.println("Эксперты не найдены")
		return nil
	}
	w := h.table()
	fmt.Fprintln(w, "ID\tИмя\tГорода\tМарки\tРейтинг\tЗагрузка\tАктивен")
	for _, e := range list {
		active := "нет"
		if e.Active {
			active = "да"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%s\t%s\n", e.ID, e.Name,
			strings.Join(e.Cities, ", "), strings.Join(e.Brands, ", "), e.Rating, dash(string(e.LoadToday)), active)
	}
	w.Flush()
	return nil
}

func (h *Handler) handleToggleExpert(args []string) error {
	if len(args) < 1 {
		return h.usage("toggle-expert <id>")
	}
	if !h.st.ToggleExpertActive(args[0]) {
		h.printf("Эксперт %s не найден\n", args[0])
		return nil
	}
	e, _ := h.st.GetState().Expert(args[0])
	h.printf("Эксперт %s активен: %t\n", e.ID, e.Active)
	return nil
}

func (h *Handler) handleTariffs([]string) error {
	s := h.st.GetState()
	w := h.table()
	fmt.Fprintln(w, "ID\tВид\tСегмент\tСумма\tКомментарий")
	for _, kind := range []models.TariffKind{models.TariffInspection, models.TariffSelection} {
		for _, t := range views.TariffsByKind(s, kind) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Kind, t.PriceSegment, t.Amount, dash(t.Comment))
		}
	}
	w.Flush()
	return nil
}

func (h *Handler) handleTariffAdd(args []string) error {
	if len(args) < 3 {
		return h.usage("tariff-add <inspection|selection> <amount|custom> <сегмент...>")
	}
	kind := models.TariffKind(strings.ToLower(args[0]))
	if kind != models.TariffInspection && kind != models.TariffSelection {
		return fmt.Errorf("неизвестный вид тарифа %q", args[0])
	}
	amount, err := models.ParseAmount(args[1])
	if err != nil {
		return err
	}
	id, ok := h.st.AddTariff(models.Tariff{
		Kind:         kind,
		Amount:       amount,
		PriceSegment: strings.Join(args[2:], " "),
	})
	if !ok {
		h.println("Тариф не добавлен")
		return nil
	}
	h.printf("Добавлен тариф %s\n", id)
	return nil
}

func (h *Handler) handleTariffDelete(args []string) error {
	if len(args) < 1 {
		return h.usage("tariff-delete <id>")
	}
	return h.applied(h.st.DeleteTariff(args[0]),
		fmt.Sprintf("Тариф %s удалён", args[0]),
		"Тариф не найден")
}

func (h *Handler) handleChats([]string) error {
	s := h.st.GetState()
	if len(s.Chats) == 0 {
		h.println("Чатов нет")
		return nil
	}
	for _, t := range s.Chats {
		h.printf("%s: %s %s\n", t.ID, t.Participant.Name, t.Participant.Phone)
		for _, m := range t.Messages {
			h.printf("  [%s] %s: %s\n", m.CreatedAt.Format("15:04"), m.From, m.Text)
		}
	}
	return nil
}

func (h *Handler) handleChat(args []string) error {
	if len(args) < 2 {
		return h.usage("chat <threadID> <текст...>")
	}
	return h.applied(h.st.SendChatMessage(args[0], models.AuthorService, strings.Join(args[1:], " ")),
		"Сообщение отправлено",
		"Сообщение не отправлено")
}

func (h *Handler) handleResetChats([]string) error {
	return h.applied(h.st.ResetChats(), "Чаты сброшены", "Чаты не изменились")
}

func (h *Handler) handleAsExpert(args []string) error {
	if len(args) < 1 {
		return h.usage("as-expert <expertID>")
	}
	if _, ok := h.st.GetState().Expert(args[0]); !ok {
		h.printf("Эксперт %s не найден\n", args[0])
		return nil
	}
	h.st.SetCurrentClient("")
	h.st.SetCurrentExpert(args[0])
	h.printf("Текущий эксперт: %s\n", args[0])
	return nil
}

func (h *Handler) handleAsClient(args []string) error {
	if len(args) < 1 {
		return h.usage("as-client <phone>")
	}
	phone := strings.Join(args, " ")
	h.st.SetCurrentExpert("")
	h.st.SetCurrentClient(phone)
	h.printf("Текущий клиент: %s\n", phone)
	return nil
}

// handleMy показывает рабочий список текущего участника: эксперту - его
// заказы и доступные, клиенту - его заказы и подборы
func (h *Handler) handleMy([]string) error {
	s := h.st.GetState()
	switch {
	case s.CurrentExpertID != "":
		h.printf("Эксперт %s\n", views.ExpertName(s, s.CurrentExpertID))
		h.println("\nМои заказы:")
		h.printInspections(s, views.AssignedToExpert(s, s.CurrentExpertID))
		h.println("\nДоступные заказы:")
		h.printInspections(s, views.AvailableForExpert(s))
		h.println("\nМои подборы:")
		h.printSelections(views.ExpertSelections(s, s.CurrentExpertID))
	case s.CurrentClientID != "":
		h.printf("Клиент %s\n", s.CurrentClientID)
		h.println("\nМои осмотры:")
		h.printInspections(s, views.ClientInspections(s, s.CurrentClientID))
		h.println("\nМои подборы:")
		h.printSelections(views.ClientSelections(s, s.CurrentClientID))
	default:
		h.println("Выберите роль: as-expert <id> или as-client <phone>")
	}
	return nil
}
