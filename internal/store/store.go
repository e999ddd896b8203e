package store

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.ozon.dev/qwestard/carexpert/internal/idgen"
	"gitlab.ozon.dev/qwestard/carexpert/internal/models"
)

// Listener получает новый снимок и описание изменения. Вызывается синхронно
// после каждой применённой мутации, вне блокировки стора.
type Listener func(State, Change)

// OrderStore - единственный источник правды по всем коллекциям.
// Все записи идут через Dispatch.
type OrderStore struct {
	mu    sync.Mutex
	state State
	env   Env
	seq   uint64

	lmu       sync.RWMutex
	listeners map[uint64]Listener
	nextLID   uint64

	log *slog.Logger
}

type Option func(*OrderStore)

func WithClock(now func() time.Time) Option {
	return func(s *OrderStore) { s.env.Now = now }
}

func WithIDGenerator(g *idgen.Generator) Option {
	return func(s *OrderStore) { s.env.IDs = g }
}

func WithUUID(fn func() string) Option {
	return func(s *OrderStore) { s.env.NewUUID = fn }
}

// WithSeedChats - треды, которые восстанавливает ResetChats
func WithSeedChats(chats []models.ChatThread) Option {
	return func(s *OrderStore) { s.env.SeedChats = chats }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *OrderStore) { s.log = l }
}

func New(initial State, opts ...Option) *OrderStore {
	s := &OrderStore{
		state: initial,
		env: Env{
			Now:     func() time.Time { return time.Now().UTC() },
			NewUUID: func() string { return uuid.NewString() },
		},
		listeners: make(map[uint64]Listener),
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.env.IDs == nil {
		s.env.IDs = idgen.New()
	}
	s.env.IDs.Observe(initial.AllIDs()...)
	return s
}

func (s *OrderStore) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch применяет действие. false - ничего не поменялось, подписчики не вызываются.
func (s *OrderStore) Dispatch(a Action) bool {
	_, _, ok := s.dispatch(a)
	return ok
}

func (s *OrderStore) dispatch(a Action) (State, Change, bool) {
	s.mu.Lock()
	next, ch, ok := Reduce(s.state, a, s.env)
	if !ok {
		s.mu.Unlock()
		s.log.Debug("action ignored", "action", a.Name())
		return next, ch, false
	}
	s.seq++
	ch.Seq = s.seq
	s.state = next
	s.mu.Unlock()

	s.log.Debug("action applied",
		"action", ch.Action, "entity", ch.Entity, "id", ch.EntityID,
		"from", ch.OldStatus, "to", ch.NewStatus, "seq", ch.Seq)

	s.lmu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.lmu.RUnlock()
	for _, l := range listeners {
		l(next, ch)
	}
	return next, ch, true
}

// Subscribe регистрирует слушателя, возвращает функцию отписки
func (s *OrderStore) Subscribe(l Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	id := s.nextLID
	s.nextLID++
	s.listeners[id] = l
	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

// GenerateID выдаёт следующий свободный ID с префиксом
func (s *OrderStore) GenerateID(prefix string) string {
	return s.env.IDs.Next(prefix)
}

// осмотры

// AddInspection возвращает ID добавленного заказа
func (s *OrderStore) AddInspection(o models.InspectionOrder) (string, bool) {
	_, ch, ok := s.dispatch(AddInspection{Order: o})
	return ch.EntityID, ok
}

func (s *OrderStore) SetInspectionStatus(id string, status models.InspectionStatus) bool {
	return s.Dispatch(SetInspectionStatus{ID: id, Status: status})
}

func (s *OrderStore) AdvanceInspection(id string) bool {
	return s.Dispatch(AdvanceInspection{ID: id})
}

func (s *OrderStore) ClaimInspection(id, expertID string) bool {
	return s.Dispatch(ClaimInspection{ID: id, ExpertID: expertID})
}

func (s *OrderStore) AssignExpert(id, expertID string) bool {
	return s.Dispatch(AssignExpert{ID: id, ExpertID: expertID})
}

func (s *OrderStore) UpdateAppointment(id string, at *time.Time) bool {
	return s.Dispatch(UpdateAppointment{ID: id, At: at})
}

func (s *OrderStore) UpdateInspectionFields(id string, patch models.InspectionPatch) bool {
	return s.Dispatch(UpdateInspectionFields{ID: id, Patch: patch})
}

func (s *OrderStore) UpsertReport(id string, payload models.ReportPayload) bool {
	return s.Dispatch(UpsertReport{ID: id, Payload: payload})
}

// подборы

func (s *OrderStore) AddSelection(sel models.SelectionOrder) (string, bool) {
	_, ch, ok := s.dispatch(AddSelection{Selection: sel})
	return ch.EntityID, ok
}

func (s *OrderStore) SetSelectionStatus(id string, status models.SelectionStatus) bool {
	return s.Dispatch(SetSelectionStatus{ID: id, Status: status})
}

func (s *OrderStore) ClaimSelection(id, expertID string) bool {
	return s.Dispatch(ClaimSelection{ID: id, ExpertID: expertID})
}

func (s *OrderStore) SetSelectionResult(id string, result models.SelectionResult) bool {
	return s.Dispatch(SetSelectionResult{ID: id, Result: result})
}

func (s *OrderStore) AddInspectionToSelection(selectionID, inspectionID string) bool {
	return s.Dispatch(AddInspectionToSelection{SelectionID: selectionID, InspectionID: inspectionID})
}

// кандидаты

func (s *OrderStore) AddCandidate(selectionID string, c models.Candidate) (string, bool) {
	_, ch, ok := s.dispatch(AddCandidate{SelectionID: selectionID, Candidate: c})
	return ch.EntityID, ok
}

func (s *OrderStore) UpdateCandidateStatus(selectionID, candidateID string, status models.CandidateStatus) bool {
	return s.Dispatch(UpdateCandidateStatus{SelectionID: selectionID, CandidateID: candidateID, Status: status})
}

func (s *OrderStore) UpdateCandidateLegalCheck(selectionID, candidateID string, legal models.LegalCheck) bool {
	return s.Dispatch(UpdateCandidateLegalCheck{SelectionID: selectionID, CandidateID: candidateID, LegalCheck: legal})
}

// CreateInspectionFromCandidate возвращает ID осмотра кандидата. created=false,
// если осмотр уже был создан раньше (ID тогда прежний) или конвертация невозможна
// (ID пустой).
func (s *OrderStore) CreateInspectionFromCandidate(selectionID, candidateID string) (string, bool) {
	next, ch, ok := s.dispatch(CreateInspectionFromCandidate{SelectionID: selectionID, CandidateID: candidateID})
	if ok {
		return ch.EntityID, true
	}
	c, found := next.Candidate(selectionID, candidateID)
	if !found {
		return "", false
	}
	return c.InspectionID, false
}

func (s *OrderStore) LinkCandidateInspection(selectionID, candidateID, inspectionID string) bool {
	return s.Dispatch(LinkCandidateInspection{SelectionID: selectionID, CandidateID: candidateID, InspectionID: inspectionID})
}

// справочники

func (s *OrderStore) AddExpert(e models.Expert) (string, bool) {
	_, ch, ok := s.dispatch(AddExpert{Expert: e})
	return ch.EntityID, ok
}

func (s *OrderStore) ToggleExpertActive(id string) bool {
	return s.Dispatch(ToggleExpertActive{ID: id})
}

func (s *OrderStore) AddTariff(t models.Tariff) (string, bool) {
	_, ch, ok := s.dispatch(AddTariff{Tariff: t})
	return ch.EntityID, ok
}

func (s *OrderStore) UpdateTariff(t models.Tariff) bool {
	return s.Dispatch(UpdateTariff{Tariff: t})
}

func (s *OrderStore) DeleteTariff(id string) bool {
	return s.Dispatch(DeleteTariff{ID: id})
}

func (s *OrderStore) AddChecklistTemplate(t models.ChecklistTemplate) (string, bool) {
	_, ch, ok := s.dispatch(AddChecklistTemplate{Template: t})
	return ch.EntityID, ok
}

// чаты

func (s *OrderStore) AddChatThread(t models.ChatThread) (string, bool) {
	_, ch, ok := s.dispatch(AddChatThread{Thread: t})
	return ch.EntityID, ok
}

func (s *OrderStore) SendChatMessage(threadID string, from models.ChatAuthor, text string, actions ...models.ChatAction) bool {
	return s.Dispatch(SendChatMessage{ThreadID: threadID, From: from, Text: text, Actions: actions})
}

func (s *OrderStore) ResetChats() bool {
	return s.Dispatch(ResetChats{})
}

// сессия

func (s *OrderStore) SetCurrentClient(id string) bool {
	return s.Dispatch(SetCurrentClient{ClientID: id})
}

func (s *OrderStore) SetCurrentExpert(id string) bool {
	return s.Dispatch(SetCurrentExpert{ExpertID: id})
}
