package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/dto"
	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/logger"
)

// Texts shown by the console.
const (
	DeletePrompt = "Are you sure you want to delete this student?"

	msgAdded         = "Student added successfully!"
	msgUpdated       = "Student updated successfully!"
	msgDeleted       = "Student deleted successfully!"
	msgDeleteFailed  = "Error deleting student"
	msgDetailsFailed = "Error loading student details"
	prefixListFailed = "Error loading students: "
	prefixError      = "Error: "
)

// DefaultMessageTTL is how long a transient message stays visible.
const DefaultMessageTTL = 5 * time.Second

var (
	createChrome = dto.FormChrome{Title: "Add New Student", SubmitLabel: "Add Student"}
	editChrome   = dto.FormChrome{Title: "Edit Student", SubmitLabel: "Update Student", CancelVisible: true}

	rowActions = []dto.RowAction{dto.RowActionEdit, dto.RowActionDelete}
)

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	Get(ctx context.Context, id int) (*models.Student, error)
	Create(ctx context.Context, payload models.StudentPayload) error
	Update(ctx context.Context, id int, payload models.StudentPayload) error
	Delete(ctx context.Context, id int) error
}

type messageRecorder interface {
	RecordMessage(kind string)
}

// Confirmer asks the operator to approve prompt. A nil Confirmer denies.
type Confirmer func(prompt string) bool

type stopper interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) stopper

type rowHandler func(ctx context.Context, id int, confirm Confirmer) error

// rowKey holds the displayed fields of a record; equal keys render equal rows.
type rowKey struct {
	firstName, lastName, email, studentID, major string
	year                                         int
}

type cachedRow struct {
	key rowKey
	row dto.StudentRow
}

// ConsoleOption customises a ConsoleService.
type ConsoleOption func(*ConsoleService)

// WithMessageTTL overrides DefaultMessageTTL.
func WithMessageTTL(ttl time.Duration) ConsoleOption {
	return func(s *ConsoleService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMessageRecorder counts shown messages.
func WithMessageRecorder(r messageRecorder) ConsoleOption {
	return func(s *ConsoleService) {
		s.recorder = r
	}
}

// ConsoleService keeps a rendered student table in sync with the backend and
// drives the single create/edit form. It is safe for concurrent use; network
// calls never run under the state lock.
type ConsoleService struct {
	repo      studentRepository
	logger    *zap.Logger
	recorder  messageRecorder
	ttl       time.Duration
	afterFunc afterFunc
	now       func() time.Time
	actions   map[dto.RowAction]rowHandler

	mu        sync.Mutex
	editing   models.EditingState
	form      dto.StudentForm
	chrome    dto.FormChrome
	focusForm bool
	rows      []dto.StudentRow
	rowCache  map[int]cachedRow
	rowsBuilt int
	message   *dto.Message
	msgTimer  stopper
	msgSeq    uint64
	listSeq   uint64
	editSeq   uint64
}

// NewConsoleService constructs the console in create mode with an empty table.
func NewConsoleService(repo studentRepository, logger *zap.Logger, opts ...ConsoleOption) *ConsoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ConsoleService{
		repo:   repo,
		logger: logger,
		ttl:    DefaultMessageTTL,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		now:      time.Now,
		chrome:   createChrome,
		rows:     []dto.StudentRow{},
		rowCache: map[int]cachedRow{},
	}
	s.actions = map[dto.RowAction]rowHandler{
		dto.RowActionEdit: func(ctx context.Context, id int, _ Confirmer) error {
			return s.BeginEdit(ctx, id)
		},
		dto.RowActionDelete: s.Delete,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadList replaces the table with the backend collection. On failure the
// previous rows stay in place. A response overtaken by a newer load is dropped.
func (s *ConsoleService) LoadList(ctx context.Context) error {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.mu.Unlock()

	students, err := s.repo.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.listSeq {
		logger.FromContext(ctx, s.logger).Debug("discarding stale student list", zap.Uint64("seq", seq), zap.Uint64("latest", s.listSeq))
		return nil
	}
	if err != nil {
		logger.FromContext(ctx, s.logger).Warn("load students failed", zap.Error(err))
		s.showMessageLocked(prefixListFailed+appErrors.Reason(err), dto.MessageError)
		return err
	}
	s.renderLocked(students)
	return nil
}

// Submit sends form as an update of the edited record, or as a create in
// create mode. The typed values are kept in the form until a success resets it.
func (s *ConsoleService) Submit(ctx context.Context, form dto.StudentForm) error {
	s.mu.Lock()
	editing := s.editing
	form.ID = ""
	if id, ok := editing.Target(); ok {
		form.ID = strconv.Itoa(id)
	}
	s.form = form
	s.mu.Unlock()

	payload := payloadFromForm(form)
	log := logger.FromContext(ctx, s.logger).With(zap.Stringer("mode", editing))

	var err error
	if id, ok := editing.Target(); ok {
		err = s.repo.Update(ctx, id, payload)
	} else {
		err = s.repo.Create(ctx, payload)
	}
	if err != nil {
		log.Warn("submit student failed", zap.Error(err))
		s.ShowMessage(prefixError+appErrors.Reason(err), dto.MessageError)
		return err
	}

	s.mu.Lock()
	if editing.IsEditing() {
		s.showMessageLocked(msgUpdated, dto.MessageSuccess)
	} else {
		s.showMessageLocked(msgAdded, dto.MessageSuccess)
	}
	s.resetLocked()
	s.mu.Unlock()
	log.Info("student submitted")

	_ = s.LoadList(ctx)
	return nil
}

// BeginEdit loads record id into the form and switches to edit mode.
func (s *ConsoleService) BeginEdit(ctx context.Context, id int) error {
	s.mu.Lock()
	s.editSeq++
	seq := s.editSeq
	s.mu.Unlock()

	log := logger.FromContext(ctx, s.logger).With(zap.Int("id", id))
	log.Debug("edit student requested")

	student, err := s.repo.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.editSeq {
		log.Debug("discarding stale student details", zap.Uint64("seq", seq), zap.Uint64("latest", s.editSeq))
		return nil
	}
	if err != nil {
		if appErrors.Is(err, appErrors.CodeBackend) {
			log.Debug("student details rejected", zap.String("body", appErrors.Reason(err)))
			s.showMessageLocked(msgDetailsFailed, dto.MessageError)
		} else {
			log.Debug("student details failed", zap.Error(err))
			s.showMessageLocked(prefixError+appErrors.Reason(err), dto.MessageError)
		}
		return err
	}
	log.Debug("student details loaded", zap.Any("student", student))

	s.form = formFromStudent(*student)
	s.editing = models.Editing(id)
	s.chrome = editChrome
	s.focusForm = true
	return nil
}

// Delete removes record id once confirm approves DeletePrompt. A denied
// confirmation sends nothing and changes nothing.
func (s *ConsoleService) Delete(ctx context.Context, id int, confirm Confirmer) error {
	if confirm == nil || !confirm(DeletePrompt) {
		return nil
	}

	log := logger.FromContext(ctx, s.logger).With(zap.Int("id", id))
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Warn("delete student failed", zap.Error(err))
		if appErrors.Is(err, appErrors.CodeTransport) {
			s.ShowMessage(prefixError+appErrors.Reason(err), dto.MessageError)
		} else {
			s.ShowMessage(msgDeleteFailed, dto.MessageError)
		}
		return err
	}
	log.Info("student deleted")

	s.ShowMessage(msgDeleted, dto.MessageSuccess)
	_ = s.LoadList(ctx)
	return nil
}

// Dispatch runs the table action bound to a row.
func (s *ConsoleService) Dispatch(ctx context.Context, action dto.RowAction, id int, confirm Confirmer) error {
	handler, ok := s.actions[action]
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "unknown row action "+strconv.Quote(string(action)))
	}
	return handler(ctx, id, confirm)
}

// ResetForm clears the form and returns to create mode.
func (s *ConsoleService) ResetForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// ShowMessage replaces the message region. The message is cleared after the
// TTL unless a newer message replaced it first.
func (s *ConsoleService) ShowMessage(text string, kind dto.MessageKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showMessageLocked(text, kind)
}

// Snapshot returns a copy of the current view state.
func (s *ConsoleService) Snapshot() dto.ConsoleState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := dto.ConsoleState{
		Rows:      append([]dto.StudentRow(nil), s.rows...),
		Form:      s.form,
		Chrome:    s.chrome,
		Editing:   s.editing.IsEditing(),
		FocusForm: s.focusForm,
	}
	if state.Rows == nil {
		state.Rows = []dto.StudentRow{}
	}
	if id, ok := s.editing.Target(); ok {
		state.EditingID = &id
	}
	if s.message != nil {
		msg := *s.message
		state.Message = &msg
	}
	return state
}

// Close stops the pending message timer.
func (s *ConsoleService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.msgTimer != nil {
		s.msgTimer.Stop()
		s.msgTimer = nil
	}
}

func (s *ConsoleService) resetLocked() {
	s.form = dto.StudentForm{}
	s.editing = models.Creating()
	s.chrome = createChrome
	s.focusForm = false
}

func (s *ConsoleService) showMessageLocked(text string, kind dto.MessageKind) {
	if s.msgTimer != nil {
		s.msgTimer.Stop()
	}
	s.msgSeq++
	seq := s.msgSeq
	s.message = &dto.Message{Text: text, Kind: kind, ShownAt: s.now()}
	s.msgTimer = s.afterFunc(s.ttl, func() { s.clearMessage(seq) })
	if s.recorder != nil {
		s.recorder.RecordMessage(string(kind))
	}
}

// clearMessage is a no-op once a newer message took over.
func (s *ConsoleService) clearMessage(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.msgSeq {
		return
	}
	s.message = nil
	s.msgTimer = nil
}

func (s *ConsoleService) renderLocked(students []models.Student) {
	rows := make([]dto.StudentRow, 0, len(students))
	cache := make(map[int]cachedRow, len(students))
	for _, student := range students {
		key := keyOf(student)
		cached, ok := s.rowCache[student.ID]
		if !ok || cached.key != key {
			cached = cachedRow{key: key, row: buildRow(student)}
			s.rowsBuilt++
		}
		cache[student.ID] = cached
		rows = append(rows, cached.row)
	}
	s.rows = rows
	s.rowCache = cache
}

func keyOf(st models.Student) rowKey {
	return rowKey{
		firstName: st.FirstName,
		lastName:  st.LastName,
		email:     st.Email,
		studentID: st.StudentID,
		major:     st.Major,
		year:      st.Year,
	}
}

func buildRow(st models.Student) dto.StudentRow {
	return dto.StudentRow{
		ID:        st.ID,
		Name:      st.FullName(),
		Email:     st.Email,
		StudentID: st.StudentID,
		Major:     st.Major,
		Year:      st.Year,
		Actions:   rowActions,
	}
}

func formFromStudent(st models.Student) dto.StudentForm {
	return dto.StudentForm{
		ID:        strconv.Itoa(st.ID),
		FirstName: st.FirstName,
		LastName:  st.LastName,
		Email:     st.Email,
		StudentID: st.StudentID,
		Major:     st.Major,
		Year:      strconv.Itoa(st.Year),
	}
}

func payloadFromForm(form dto.StudentForm) models.StudentPayload {
	return models.StudentPayload{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		StudentID: form.StudentID,
		Major:     form.Major,
		Year:      parseYear(form.Year),
	}
}

// parseYear reads an optionally signed run of leading decimal digits after
// leading whitespace, ignoring whatever follows ("3rd" is 3). No digits, or a
// value out of int range, yields nil.
func parseYear(raw string) *int {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	n, err := strconv.Atoi(sign + s[:end])
	if err != nil {
		return nil
	}
	return &n
}
