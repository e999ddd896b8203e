package handler

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gitlab.ozon.dev/qwestard/carexpert/internal/store"
)

// ErrExit возвращается командой exit, цикл ввода должен завершиться
var ErrExit = errors.New("exit")

var ErrUnknownCommand = errors.New("неизвестная команда. Введите 'help' для справки")

type Handler struct {
	st  *store.OrderStore
	out io.Writer
}

func New(st *store.OrderStore, out io.Writer) *Handler {
	return &Handler{st: st, out: out}
}

func (h *Handler) Execute(cmd string, args []string) error {
	commands := map[string]func([]string) error{
		"help":              h.printHelp,
		"exit":              func([]string) error { return ErrExit },
		"dashboard":         h.handleDashboard,
		"inspections":       h.handleInspections,
		"inspection":        h.handleInspection,
		"new-inspection":    h.handleNewInspection,
		"claim":             h.handleClaim,
		"assign":            h.handleAssign,
		"advance":           h.handleAdvance,
		"status":            h.handleStatus,
		"appointment":       h.handleAppointment,
		"report":            h.handleReport,
		"selections":        h.handleSelections,
		"selection":         h.handleSelection,
		"new-selection":     h.handleNewSelection,
		"claim-selection":   h.handleClaimSelection,
		"selection-status":  h.handleSelectionStatus,
		"selection-result":  h.handleSelectionResult,
		"link":              h.handleLink,
		"candidate-add":     h.handleCandidateAdd,
		"candidate-status":  h.handleCandidateStatus,
		"candidate-inspect": h.handleCandidateInspect,
		"experts":           h.handleExperts,
		"toggle-expert":     h.handleToggleExpert,
		"tariffs":           h.handleTariffs,
		"tariff-add":        h.handleTariffAdd,
		"tariff-delete":     h.handleTariffDelete,
		"chats":             h.handleChats,
		"chat":              h.handleChat,
		"reset-chats":       h.handleResetChats,
		"as-expert":         h.handleAsExpert,
		"as-client":         h.handleAsClient,
		"my":                h.handleMy,
	}

	fn, ok := commands[cmd]
	if !ok {
		return ErrUnknownCommand
	}
	return fn(args)
}

func (h *Handler) printHelp([]string) error {
	h.println(`Доступные команды:
  help | exit
  dashboard
    - сводка по заказам, подборам и экспертам
  inspections [status=] [city=] [q=]
  inspection <id>
  new-inspection key=value...
    - client phone email url make model year mileage price city summary seller address tariff
  claim <id> <expertID>
  assign <id> <expertID|->
  advance <id>
    - следующий статус по цепочке ASSIGNED -> IN_PROGRESS -> REPORT_IN_PROGRESS -> DONE
  status <id> <STATUS>
    - ручная смена статуса без проверки порядка
  appointment <id> <RFC3339|->
  report <id> <summary...>
  selections [status=] [city=] [q=]
  selection <id>
  new-selection key=value...
    - client phone email city from to min max requirements deadline tariff
  claim-selection <id> <expertID>
  selection-status <id> <STATUS>
  selection-result <id> <BOUGHT|NOT_BOUGHT|NO_MATCH> [описание...]
  link <selectionID> <inspectionID>
  candidate-add <selectionID> key=value...
    - url make model year body mileage price city summary
  candidate-status <selectionID> <candidateID> <PENDING|APPROVED|REJECTED>
  candidate-inspect <selectionID> <candidateID>
  experts [city=] [brand=] [load=] [active=yes|no]
  toggle-expert <id>
  tariffs
  tariff-add <inspection|selection> <amount|custom> <сегмент...>
  tariff-delete <id>
  chats
  chat <threadID> <текст...>
  reset-chats
  as-expert <expertID> | as-client <phone>
  my
    - заказы текущего эксперта или клиента`)
	return nil
}

func (h *Handler) println(a ...any) {
	fmt.Fprintln(h.out, a...)
}

func (h *Handler) printf(format string, a ...any) {
	fmt.Fprintf(h.out, format, a...)
}

func (h *Handler) table() *tabwriter.Writer {
	return tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
}

// usage печатает формат команды, ошибкой это не считается
func (h *Handler) usage(format string) error {
	h.println("Формат: " + format)
	return nil
}

// applied сообщает результат мутации. Отказ стора - не ошибка: команда
// просто ничего не поменяла.
func (h *Handler) applied(ok bool, done, ignored string) error {
	if ok {
		h.println(done)
	} else {
		h.println(ignored)
	}
	return nil
}

// parseKV разбирает аргументы вида key=value; значение может содержать пробелы,
// если следующие слова не содержат "="
func parseKV(args []string) map[string]string {
	out := make(map[string]string)
	last := ""
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			if last != "" {
				out[last] += " " + a
			}
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		out[k] = v
		last = k
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
