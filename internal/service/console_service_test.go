package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/dto"
	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

type mockStudentRepo struct {
	mu        sync.Mutex
	students  []models.Student
	nextID    int
	calls     []string
	created   []models.StudentPayload
	updated   map[int]models.StudentPayload
	listErr   error
	getErr    error
	createErr error
	updateErr error
	deleteErr error
	listFn    func(ctx context.Context) ([]models.Student, error)
	getFn     func(ctx context.Context, id int) (*models.Student, error)
}

func (m *mockStudentRepo) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockStudentRepo) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockStudentRepo) List(ctx context.Context) ([]models.Student, error) {
	m.record("list")
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Student{}, m.students...), nil
}

func (m *mockStudentRepo) Get(ctx context.Context, id int) (*models.Student, error) {
	m.record(fmt.Sprintf("get %d", id))
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.ID == id {
			found := s
			return &found, nil
		}
	}
	return nil, appErrors.Backend(404, "Student not found")
}

func (m *mockStudentRepo) Create(ctx context.Context, payload models.StudentPayload) error {
	m.record("create")
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.created = append(m.created, payload)
	m.students = append(m.students, studentFromPayload(m.nextID, payload))
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, id int, payload models.StudentPayload) error {
	m.record(fmt.Sprintf("update %d", id))
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updated == nil {
		m.updated = make(map[int]models.StudentPayload)
	}
	m.updated[id] = payload
	for i, s := range m.students {
		if s.ID == id {
			m.students[i] = studentFromPayload(id, payload)
		}
	}
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id int) error {
	m.record(fmt.Sprintf("delete %d", id))
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.students[:0]
	for _, s := range m.students {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	m.students = kept
	return nil
}

func studentFromPayload(id int, p models.StudentPayload) models.Student {
	s := models.Student{ID: id, FirstName: p.FirstName, LastName: p.LastName, Email: p.Email, StudentID: p.StudentID, Major: p.Major}
	if p.Year != nil {
		s.Year = *p.Year
	}
	return s
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped
	t.stopped = true
	return active
}

type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) stopper {
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) fire(i int) {
	c.timers[i].f()
}

type countingRecorder struct {
	kinds []string
}

func (r *countingRecorder) RecordMessage(kind string) {
	r.kinds = append(r.kinds, kind)
}

func newTestConsole(repo *mockStudentRepo, opts ...ConsoleOption) (*ConsoleService, *fakeClock) {
	svc := NewConsoleService(repo, zap.NewNop(), opts...)
	clock := &fakeClock{}
	svc.afterFunc = clock.AfterFunc
	return svc, clock
}

func ada() models.Student {
	return models.Student{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@uni.edu", StudentID: "CS001", Major: "Mathematics", Year: 2}
}

func grace() models.Student {
	return models.Student{ID: 2, FirstName: "Grace", LastName: "Hopper", Email: "grace@uni.edu", StudentID: "CS002", Major: "Computer Science", Year: 4}
}

func TestConsoleLoadListEmpty(t *testing.T) {
	svc, _ := newTestConsole(&mockStudentRepo{})

	require.NoError(t, svc.LoadList(context.Background()))
	state := svc.Snapshot()
	assert.Empty(t, state.Rows)
	assert.NotNil(t, state.Rows)
	assert.Nil(t, state.Message)
}

func TestConsoleLoadListKeepsResponseOrder(t *testing.T) {
	third := models.Student{ID: 3, FirstName: "Alan", LastName: "Turing", Email: "alan@uni.edu", StudentID: "CS003", Major: "Logic", Year: 1}
	repo := &mockStudentRepo{students: []models.Student{third, ada(), grace()}}
	svc, _ := newTestConsole(repo)

	require.NoError(t, svc.LoadList(context.Background()))
	rows := svc.Snapshot().Rows
	require.Len(t, rows, 3)
	assert.Equal(t, []int{3, 1, 2}, []int{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.Equal(t, dto.StudentRow{
		ID:        1,
		Name:      "Ada Lovelace",
		Email:     "ada@uni.edu",
		StudentID: "CS001",
		Major:     "Mathematics",
		Year:      2,
		Actions:   []dto.RowAction{dto.RowActionEdit, dto.RowActionDelete},
	}, rows[1])
}

func TestConsoleLoadListFailureKeepsRows(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada()}}
	svc, _ := newTestConsole(repo)
	require.NoError(t, svc.LoadList(context.Background()))

	repo.listErr = appErrors.Transport(errors.New("connection refused"))
	err := svc.LoadList(context.Background())
	require.Error(t, err)

	state := svc.Snapshot()
	require.Len(t, state.Rows, 1)
	require.NotNil(t, state.Message)
	assert.Equal(t, "Error loading students: connection refused", state.Message.Text)
	assert.Equal(t, dto.MessageError, state.Message.Kind)
}

func TestConsoleLoadListDiscardsStaleResponse(t *testing.T) {
	stale := []models.Student{ada()}
	fresh := []models.Student{ada(), grace()}
	started := make(chan struct{})
	release := make(chan struct{})
	var n int32
	repo := &mockStudentRepo{}
	repo.listFn = func(ctx context.Context) ([]models.Student, error) {
		if atomic.AddInt32(&n, 1) == 1 {
			close(started)
			<-release
			return stale, nil
		}
		return fresh, nil
	}
	svc, _ := newTestConsole(repo)

	done := make(chan error, 1)
	go func() { done <- svc.LoadList(context.Background()) }()
	<-started

	require.NoError(t, svc.LoadList(context.Background()))
	close(release)
	require.NoError(t, <-done)

	assert.Len(t, svc.Snapshot().Rows, 2)
}

func TestConsoleRenderReusesUnchangedRows(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada(), grace()}}
	svc, _ := newTestConsole(repo)

	require.NoError(t, svc.LoadList(context.Background()))
	assert.Equal(t, 2, svc.rowsBuilt)

	require.NoError(t, svc.LoadList(context.Background()))
	assert.Equal(t, 2, svc.rowsBuilt)

	repo.students[1].Major = "Naval Science"
	require.NoError(t, svc.LoadList(context.Background()))
	assert.Equal(t, 3, svc.rowsBuilt)
	assert.Equal(t, "Naval Science", svc.Snapshot().Rows[1].Major)
}

func TestConsoleSubmitCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc, _ := newTestConsole(repo)

	err := svc.Submit(context.Background(), dto.StudentForm{
		FirstName: "John", LastName: "Doe", Email: "john@uni.edu", StudentID: "CS010", Major: "Physics", Year: "1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "list"}, repo.callLog())
	require.Len(t, repo.created, 1)
	require.NotNil(t, repo.created[0].Year)
	assert.Equal(t, 1, *repo.created[0].Year)

	state := svc.Snapshot()
	assert.False(t, state.Editing)
	assert.Equal(t, dto.StudentForm{}, state.Form)
	require.Len(t, state.Rows, 1)
	assert.Equal(t, "John Doe", state.Rows[0].Name)
	require.NotNil(t, state.Message)
	assert.Equal(t, "Student added successfully!", state.Message.Text)
	assert.Equal(t, dto.MessageSuccess, state.Message.Kind)
}

func TestConsoleEditAndUpdateYear(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada()}}
	svc, _ := newTestConsole(repo)
	ctx := context.Background()

	require.NoError(t, svc.LoadList(ctx))
	require.NoError(t, svc.BeginEdit(ctx, 1))

	form := svc.Snapshot().Form
	assert.Equal(t, "2", form.Year)
	form.Year = "3"
	require.NoError(t, svc.Submit(ctx, form))

	assert.Equal(t, []string{"list", "get 1", "update 1", "list"}, repo.callLog())
	require.NotNil(t, repo.updated[1].Year)
	assert.Equal(t, 3, *repo.updated[1].Year)

	state := svc.Snapshot()
	require.Len(t, state.Rows, 1)
	assert.Equal(t, 3, state.Rows[0].Year)
	assert.Equal(t, dto.StudentForm{}, state.Form)
	assert.False(t, state.Editing)
	assert.Nil(t, state.EditingID)
	assert.Equal(t, createChrome, state.Chrome)
	require.NotNil(t, state.Message)
	assert.Equal(t, "Student updated successfully!", state.Message.Text)
}

func TestConsoleSubmitInCreateModeNeverUpdates(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada()}}
	svc, _ := newTestConsole(repo)

	require.NoError(t, svc.Submit(context.Background(), dto.StudentForm{ID: "1", FirstName: "X"}))
	for _, call := range repo.callLog() {
		assert.NotContains(t, call, "update")
	}
	assert.Contains(t, repo.callLog(), "create")
}

func TestConsoleSubmitFailureKeepsEditing(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada()}}
	svc, _ := newTestConsole(repo)
	ctx := context.Background()
	require.NoError(t, svc.BeginEdit(ctx, 1))

	repo.updateErr = appErrors.Backend(400, "Email already exists")
	form := svc.Snapshot().Form
	form.Email = "taken@uni.edu"
	err := svc.Submit(ctx, form)
	require.Error(t, err)

	state := svc.Snapshot()
	assert.True(t, state.Editing)
	require.NotNil(t, state.EditingID)
	assert.Equal(t, 1, *state.EditingID)
	assert.Equal(t, "taken@uni.edu", state.Form.Email)
	assert.Equal(t, editChrome, state.Chrome)
	require.NotNil(t, state.Message)
	assert.Equal(t, "Error: Email already exists", state.Message.Text)
	assert.NotContains(t, repo.callLog(), "create")
}

func TestConsoleSubmitTransportFailure(t *testing.T) {
	repo := &mockStudentRepo{createErr: appErrors.Transport(errors.New("dial tcp: connection refused"))}
	svc, _ := newTestConsole(repo)

	require.Error(t, svc.Submit(context.Background(), dto.StudentForm{FirstName: "A"}))
	state := svc.Snapshot()
	require.NotNil(t, state.Message)
	assert.Equal(t, "Error: dial tcp: connection refused", state.Message.Text)
	assert.Equal(t, "A", state.Form.FirstName)
	assert.Equal(t, []string{"create"}, repo.callLog())
}

func TestConsoleSubmitForwardsUnparsableYear(t *testing.T) {
	repo := &mockStudentRepo{}
	svc, _ := newTestConsole(repo)

	require.NoError(t, svc.Submit(context.Background(), dto.StudentForm{FirstName: "A", Year: "senior"}))
	require.Len(t, repo.created, 1)
	assert.Nil(t, repo.created[0].Year)
}

func TestParseYear(t *testing.T) {
	cases := []struct {
		in   string
		want *int
	}{
		{"3", intPtr(3)},
		{"  12", intPtr(12)},
		{"3rd", intPtr(3)},
		{"-2", intPtr(-2)},
		{"+4", intPtr(4)},
		{"2.9", intPtr(2)},
		{"", nil},
		{"abc", nil},
		{"-", nil},
		{"99999999999999999999999", nil},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, parseYear(tc.in))
		})
	}
}

func intPtr(v int) *int { return &v }

func TestConsoleBeginEditPopulatesForm(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada(), grace()}}
	svc, _ := newTestConsole(repo)

	require.NoError(t, svc.BeginEdit(context.Background(), 2))

	state := svc.Snapshot()
	assert.Equal(t, dto.StudentForm{
		ID:        "2",
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@uni.edu",
		StudentID: "CS002",
		Major:     "Computer Science",
		Year:      "4",
	}, state.Form)
	assert.True(t, state.Editing)
	require.NotNil(t, state.EditingID)
	assert.Equal(t, 2, *state.EditingID)
	assert.Equal(t, dto.FormChrome{Title: "Edit Student", SubmitLabel: "Update Student", CancelVisible: true}, state.Chrome)
	assert.True(t, state.FocusForm)
}

func TestConsoleBeginEditUnknownID(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada()}}
	svc, _ := newTestConsole(repo)

	err := svc.BeginEdit(context.Background(), 99)
	require.Error(t, err)

	state := svc.Snapshot()
	assert.False(t, state.Editing)
	assert.Equal(t, dto.StudentForm{}, state.Form)
	require.NotNil(t, state.Message)
	assert.Equal(t, "Error loading student details", state.Message.Text)
	assert.Equal(t, dto.MessageError, state.Message.Kind)
}

func TestConsoleBeginEditTransportFailure(t *testing.T) {
	repo := &mockStudentRepo{getErr: appErrors.Transport(errors.New("connection reset"))}
	svc, _ := newTestConsole(repo)

	require.Error(t, svc.BeginEdit(context.Background(), 1))
	state := svc.Snapshot()
	require.NotNil(t, state.Message)
	assert.Equal(t, "Error: connection reset", state.Message.Text)
	assert.False(t, state.Editing)
}

func TestConsoleDeleteDenied(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada()}}
	svc, _ := newTestConsole(repo)
	require.NoError(t, svc.BeginEdit(context.Background(), 1))
	before := svc.Snapshot()
	repo.calls = nil

	var asked string
	err := svc.Delete(context.Background(), 1, func(prompt string) bool {
		asked = prompt
		return false
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), 1, nil))

	assert.Equal(t, DeletePrompt, asked)
	assert.Empty(t, repo.callLog())
	assert.Equal(t, before, svc.Snapshot())
}

func TestConsoleDeleteGranted(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada(), grace()}}
	svc, _ := newTestConsole(repo)
	require.NoError(t, svc.LoadList(context.Background()))

	require.NoError(t, svc.Delete(context.Background(), 1, func(string) bool { return true }))

	assert.Equal(t, []string{"list", "delete 1", "list"}, repo.callLog())
	state := svc.Snapshot()
	require.Len(t, state.Rows, 1)
	assert.Equal(t, 2, state.Rows[0].ID)
	require.NotNil(t, state.Message)
	assert.Equal(t, "Student deleted successfully!", state.Message.Text)
}

func TestConsoleDeleteBackendFailureIsGeneric(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada()}, deleteErr: appErrors.Backend(500, "constraint violation")}
	svc, _ := newTestConsole(repo)
	require.NoError(t, svc.LoadList(context.Background()))

	require.Error(t, svc.Delete(context.Background(), 1, func(string) bool { return true }))

	state := svc.Snapshot()
	require.NotNil(t, state.Message)
	assert.Equal(t, "Error deleting student", state.Message.Text)
	assert.Len(t, state.Rows, 1)
	assert.Equal(t, []string{"list", "delete 1"}, repo.callLog())
}

func TestConsoleDeleteTransportFailure(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada()}, deleteErr: appErrors.Transport(errors.New("connection refused"))}
	svc, _ := newTestConsole(repo)
	require.NoError(t, svc.LoadList(context.Background()))

	err := svc.Delete(context.Background(), 1, func(string) bool { return true })
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.CodeTransport))

	state := svc.Snapshot()
	require.NotNil(t, state.Message)
	assert.Equal(t, "Error: connection refused", state.Message.Text)
	assert.Equal(t, dto.MessageError, state.Message.Kind)
	require.Len(t, state.Rows, 1)
	assert.Equal(t, 1, state.Rows[0].ID)
	assert.Equal(t, []string{"list", "delete 1"}, repo.callLog())
}

func TestConsoleBeginEditDiscardsStaleDetails(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada(), grace()}}
	started := make(chan struct{})
	release := make(chan struct{})
	repo.getFn = func(ctx context.Context, id int) (*models.Student, error) {
		if id == 1 {
			close(started)
			<-release
			found := ada()
			return &found, nil
		}
		found := grace()
		return &found, nil
	}
	svc, _ := newTestConsole(repo)

	done := make(chan error, 1)
	go func() { done <- svc.BeginEdit(context.Background(), 1) }()
	<-started

	require.NoError(t, svc.BeginEdit(context.Background(), 2))
	close(release)
	require.NoError(t, <-done)

	state := svc.Snapshot()
	require.NotNil(t, state.EditingID)
	assert.Equal(t, 2, *state.EditingID)
	assert.Equal(t, "2", state.Form.ID)
	assert.Equal(t, "Grace", state.Form.FirstName)
	assert.Equal(t, "grace@uni.edu", state.Form.Email)
	assert.Nil(t, state.Message)
}

func TestConsoleDispatch(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada()}}
	svc, _ := newTestConsole(repo)
	ctx := context.Background()

	require.NoError(t, svc.Dispatch(ctx, dto.RowActionEdit, 1, nil))
	assert.True(t, svc.Snapshot().Editing)

	require.NoError(t, svc.Dispatch(ctx, dto.RowActionDelete, 1, func(string) bool { return true }))
	assert.Contains(t, repo.callLog(), "delete 1")

	err := svc.Dispatch(ctx, dto.RowAction("archive"), 1, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation.Code))
}

func TestConsoleResetForm(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{ada()}}
	svc, _ := newTestConsole(repo)
	require.NoError(t, svc.BeginEdit(context.Background(), 1))

	svc.ResetForm()

	state := svc.Snapshot()
	assert.False(t, state.Editing)
	assert.False(t, state.FocusForm)
	assert.Equal(t, dto.StudentForm{}, state.Form)
	assert.Equal(t, dto.FormChrome{Title: "Add New Student", SubmitLabel: "Add Student"}, state.Chrome)
}

func TestConsoleMessageClearedAfterTTL(t *testing.T) {
	rec := &countingRecorder{}
	svc, clock := newTestConsole(&mockStudentRepo{}, WithMessageRecorder(rec))

	svc.ShowMessage("hello", dto.MessageSuccess)
	require.Len(t, clock.timers, 1)
	assert.Equal(t, DefaultMessageTTL, clock.timers[0].d)
	require.NotNil(t, svc.Snapshot().Message)

	clock.fire(0)
	assert.Nil(t, svc.Snapshot().Message)
	assert.Equal(t, []string{"success"}, rec.kinds)
}

func TestConsoleNewMessageReplacesPendingClear(t *testing.T) {
	svc, clock := newTestConsole(&mockStudentRepo{}, WithMessageTTL(2*time.Second))

	svc.ShowMessage("first", dto.MessageSuccess)
	svc.ShowMessage("second", dto.MessageError)
	require.Len(t, clock.timers, 2)
	assert.True(t, clock.timers[0].stopped)
	assert.Equal(t, 2*time.Second, clock.timers[1].d)

	clock.fire(0)
	msg := svc.Snapshot().Message
	require.NotNil(t, msg)
	assert.Equal(t, "second", msg.Text)

	clock.fire(1)
	assert.Nil(t, svc.Snapshot().Message)
}

func TestConsoleMessageRealTimer(t *testing.T) {
	svc := NewConsoleService(&mockStudentRepo{}, nil, WithMessageTTL(20*time.Millisecond))
	defer svc.Close()

	svc.ShowMessage("soon gone", dto.MessageSuccess)
	require.NotNil(t, svc.Snapshot().Message)
	require.Eventually(t, func() bool { return svc.Snapshot().Message == nil }, time.Second, 5*time.Millisecond)
}
