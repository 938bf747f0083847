package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/internal/repository"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
)

// fakeLoanStore serializes transactions and restores its state when fn fails.
type fakeLoanStore struct {
	mu        sync.Mutex
	students  map[string]models.Student
	teachers  map[string]models.Teacher
	computers map[string]models.Computer
	loans     map[string]models.Loan
	seq       int
	insertErr error
	txErr     error
	detailErr error
}

func newFakeLoanStore() *fakeLoanStore {
	return &fakeLoanStore{
		students:  map[string]models.Student{},
		teachers:  map[string]models.Teacher{},
		computers: map[string]models.Computer{},
		loans:     map[string]models.Loan{},
	}
}

func (f *fakeLoanStore) addStudent(id, dni string) {
	f.students[id] = models.Student{ID: id, DNI: dni, FirstName: "Student", LastName: id, Active: true}
}

func (f *fakeLoanStore) addTeacher(id, dni string) {
	f.teachers[id] = models.Teacher{ID: id, DNI: dni, FirstName: "Teacher", LastName: id, Active: true}
}

func (f *fakeLoanStore) addComputer(id string, status models.ComputerStatus) {
	f.computers[id] = models.Computer{ID: id, InventoryCode: "INV-" + id, CartID: "cart-1", Status: status}
}

func (f *fakeLoanStore) WithinTx(ctx context.Context, fn func(repository.LoanTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.txErr != nil {
		return f.txErr
	}

	computers := make(map[string]models.Computer, len(f.computers))
	for k, v := range f.computers {
		computers[k] = v
	}
	loans := make(map[string]models.Loan, len(f.loans))
	for k, v := range f.loans {
		loans[k] = v
	}

	if err := fn(&fakeLoanTx{store: f}); err != nil {
		f.computers = computers
		f.loans = loans
		return err
	}
	return nil
}

func (f *fakeLoanStore) List(ctx context.Context, filter models.LoanFilter) ([]models.LoanDetail, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LoanDetail
	for _, loan := range f.loans {
		if filter.ActiveOnly && loan.Status != models.LoanStatusActive {
			continue
		}
		out = append(out, models.LoanDetail{Loan: loan})
	}
	return out, len(out), nil
}

func (f *fakeLoanStore) ListForStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.LoanDetail, error) {
	return f.listWhere(func(l models.Loan) bool {
		return l.BorrowerKind == models.BorrowerKindStudent && l.StudentID != nil && *l.StudentID == studentID
	}, activeOnly), nil
}

func (f *fakeLoanStore) ListForTeacher(ctx context.Context, teacherID string, activeOnly bool) ([]models.LoanDetail, error) {
	return f.listWhere(func(l models.Loan) bool {
		return l.BorrowerKind == models.BorrowerKindTeacher && l.TeacherID != nil && *l.TeacherID == teacherID
	}, activeOnly), nil
}

func (f *fakeLoanStore) FindDetail(ctx context.Context, id string) (*models.LoanDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	loan, ok := f.loans[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.LoanDetail{Loan: loan, InventoryCode: f.computers[loan.ComputerID].InventoryCode}, nil
}

func (f *fakeLoanStore) listWhere(match func(models.Loan) bool, activeOnly bool) []models.LoanDetail {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.LoanDetail{}
	for _, loan := range f.loans {
		if !match(loan) || (activeOnly && loan.Status != models.LoanStatusActive) {
			continue
		}
		out = append(out, models.LoanDetail{Loan: loan})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

func (f *fakeLoanStore) activeLoansFor(computerID string) int {
	count := 0
	for _, loan := range f.loans {
		if loan.ComputerID == computerID && loan.Status == models.LoanStatusActive {
			count++
		}
	}
	return count
}

// assertStatusMatchesLoans checks that a computer is loaned exactly when one active loan references it.
func (f *fakeLoanStore) assertStatusMatchesLoans(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, computer := range f.computers {
		active := f.activeLoansFor(id)
		assert.LessOrEqual(t, active, 1, "computer %s", id)
		assert.Equal(t, computer.Status == models.ComputerStatusLoaned, active == 1, "computer %s", id)
	}
}

type fakeLoanTx struct {
	store *fakeLoanStore
}

func (t *fakeLoanTx) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	s, ok := t.store.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (t *fakeLoanTx) FindTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, ok := t.store.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &teacher, nil
}

func (t *fakeLoanTx) FindComputer(ctx context.Context, id string) (*models.Computer, error) {
	c, ok := t.store.computers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (t *fakeLoanTx) ClaimComputer(ctx context.Context, id string) (bool, error) {
	c, ok := t.store.computers[id]
	if !ok || c.Status != models.ComputerStatusAvailable {
		return false, nil
	}
	c.Status = models.ComputerStatusLoaned
	t.store.computers[id] = c
	return true, nil
}

func (t *fakeLoanTx) ReleaseComputer(ctx context.Context, id string) error {
	c := t.store.computers[id]
	c.Status = models.ComputerStatusAvailable
	t.store.computers[id] = c
	return nil
}

func (t *fakeLoanTx) HasActiveLoan(ctx context.Context, borrower models.Borrower) (bool, error) {
	for _, loan := range t.store.loans {
		if loan.Status != models.LoanStatusActive || loan.BorrowerKind != borrower.Kind() {
			continue
		}
		switch b := borrower.(type) {
		case models.StudentBorrower:
			if loan.StudentID != nil && *loan.StudentID == b.StudentID {
				return true, nil
			}
		case models.TeacherBorrower:
			if loan.TeacherID != nil && *loan.TeacherID == b.TeacherID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (t *fakeLoanTx) InsertLoan(ctx context.Context, loan *models.Loan) error {
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	t.store.seq++
	loan.ID = fmt.Sprintf("loan-%d", t.store.seq)
	t.store.loans[loan.ID] = *loan
	return nil
}

func (t *fakeLoanTx) FindLoan(ctx context.Context, id string) (*models.Loan, error) {
	loan, ok := t.store.loans[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &loan, nil
}

func (t *fakeLoanTx) CloseLoan(ctx context.Context, id string, endedAt time.Time) (bool, error) {
	loan, ok := t.store.loans[id]
	if !ok || loan.Status != models.LoanStatusActive {
		return false, nil
	}
	loan.Status = models.LoanStatusReturned
	loan.EndedAt = &endedAt
	t.store.loans[id] = loan
	return true, nil
}

type fakeStudentDirectory struct{ store *fakeLoanStore }

func (d fakeStudentDirectory) FindByDNI(ctx context.Context, dni string) (*models.Student, error) {
	for _, s := range d.store.students {
		if s.DNI == dni {
			s := s
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeTeacherDirectory struct{ store *fakeLoanStore }

func (d fakeTeacherDirectory) FindByDNI(ctx context.Context, dni string) (*models.Teacher, error) {
	for _, t := range d.store.teachers {
		if t.DNI == dni {
			t := t
			return &t, nil
		}
	}
	return nil, sql.ErrNoRows
}

type recordingLoanMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *recordingLoanMetrics) RecordLoanOperation(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[operation+":"+outcome]++
}

func newLoanServiceForTest(store *fakeLoanStore, metrics loanMetrics) *LoanService {
	return NewLoanService(store, fakeStudentDirectory{store}, fakeTeacherDirectory{store}, metrics, nil, zap.NewNop())
}

func assertCode(t *testing.T, err error, expected *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, expected.Code, appErrors.FromError(err).Code, err.Error())
}

func TestLoanRoundTripRestoresAvailability(t *testing.T) {
	store := newFakeLoanStore()
	store.addStudent("s1", "40111222")
	store.addComputer("pc1", models.ComputerStatusAvailable)
	metrics := &recordingLoanMetrics{}
	svc := newLoanServiceForTest(store, metrics)

	receipt, err := svc.Create(context.Background(), NewLoanInput{Borrower: models.StudentBorrower{StudentID: "s1"}, ComputerID: "pc1"})
	require.NoError(t, err)
	assert.Equal(t, "Student s1", receipt.BorrowerName)
	assert.Equal(t, "INV-pc1", receipt.InventoryCode)
	assert.Equal(t, models.ComputerStatusLoaned, store.computers["pc1"].Status)
	store.assertStatusMatchesLoans(t)

	returned, err := svc.Return(context.Background(), receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusReturned, returned.Status)
	require.NotNil(t, returned.EndedAt)
	assert.False(t, returned.EndedAt.Before(returned.StartedAt))
	assert.Equal(t, models.ComputerStatusAvailable, store.computers["pc1"].Status)
	store.assertStatusMatchesLoans(t)

	assert.Equal(t, 1, metrics.outcomes["create:success"])
	assert.Equal(t, 1, metrics.outcomes["return:success"])
}

func TestLoanReturnTwiceFailsWithoutChanges(t *testing.T) {
	store := newFakeLoanStore()
	store.addTeacher("t1", "20111222")
	store.addComputer("pc1", models.ComputerStatusAvailable)
	svc := newLoanServiceForTest(store, nil)

	receipt, err := svc.Create(context.Background(), NewLoanInput{Borrower: models.TeacherBorrower{TeacherID: "t1"}, ComputerID: "pc1"})
	require.NoError(t, err)
	first, err := svc.Return(context.Background(), receipt.ID)
	require.NoError(t, err)

	// An administrative status set after the return must survive a rejected second return.
	store.addComputer("pc1", models.ComputerStatusUnderRepair)
	_, err = svc.Return(context.Background(), receipt.ID)
	assertCode(t, err, appErrors.ErrAlreadyReturned)
	assert.Equal(t, models.ComputerStatusUnderRepair, store.computers["pc1"].Status)
	assert.Equal(t, *first.EndedAt, *store.loans[receipt.ID].EndedAt)
}

func TestLoanReturnRespondsWithDetail(t *testing.T) {
	store := newFakeLoanStore()
	store.addTeacher("t1", "20111222")
	store.addComputer("pc1", models.ComputerStatusAvailable)
	core, logs := observer.New(zap.WarnLevel)
	svc := NewLoanService(store, nil, nil, nil, nil, zap.New(core))

	receipt, err := svc.Create(context.Background(), NewLoanInput{Borrower: models.TeacherBorrower{TeacherID: "t1"}, ComputerID: "pc1"})
	require.NoError(t, err)
	returned, err := svc.Return(context.Background(), receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-pc1", returned.InventoryCode)
	assert.Equal(t, models.LoanStatusReturned, returned.Status)

	receipt, err = svc.Create(context.Background(), NewLoanInput{Borrower: models.TeacherBorrower{TeacherID: "t1"}, ComputerID: "pc1"})
	require.NoError(t, err)
	store.detailErr = errors.New("connection reset")
	returned, err = svc.Return(context.Background(), receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.ID, returned.ID)
	assert.Equal(t, models.LoanStatusReturned, returned.Status)
	assert.Empty(t, returned.InventoryCode)
	assert.Equal(t, models.ComputerStatusAvailable, store.computers["pc1"].Status)
	assert.Equal(t, 1, logs.FilterMessage("failed to load returned loan detail").Len())
}

func TestLoanReturnUnknownLoan(t *testing.T) {
	svc := newLoanServiceForTest(newFakeLoanStore(), nil)
	_, err := svc.Return(context.Background(), "missing")
	assertCode(t, err, appErrors.ErrNotFound)
}

func TestLoanCreateUnavailableComputerLeavesStateUnchanged(t *testing.T) {
	store := newFakeLoanStore()
	store.addStudent("s1", "1")
	store.addComputer("pc1", models.ComputerStatusUnderRepair)
	metrics := &recordingLoanMetrics{}
	svc := newLoanServiceForTest(store, metrics)

	_, err := svc.Create(context.Background(), NewLoanInput{Borrower: models.StudentBorrower{StudentID: "s1"}, ComputerID: "pc1"})
	assertCode(t, err, appErrors.ErrComputerUnavailable)
	assert.Empty(t, store.loans)
	assert.Equal(t, models.ComputerStatusUnderRepair, store.computers["pc1"].Status)
	assert.Equal(t, 1, metrics.outcomes["create:computer_unavailable"])
}

func TestLoanCreateStudentAlreadyActiveRollsBackClaim(t *testing.T) {
	store := newFakeLoanStore()
	store.addStudent("s1", "1")
	store.addComputer("pc1", models.ComputerStatusAvailable)
	store.addComputer("pc2", models.ComputerStatusAvailable)
	svc := newLoanServiceForTest(store, nil)

	_, err := svc.Create(context.Background(), NewLoanInput{Borrower: models.StudentBorrower{StudentID: "s1"}, ComputerID: "pc1"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), NewLoanInput{Borrower: models.StudentBorrower{StudentID: "s1"}, ComputerID: "pc2"})
	assertCode(t, err, appErrors.ErrBorrowerAlreadyActive)
	assert.Equal(t, models.ComputerStatusAvailable, store.computers["pc2"].Status)
	assert.Len(t, store.loans, 1)
	store.assertStatusMatchesLoans(t)
}

func TestLoanSupervisionDoesNotCountAsPrimaryLoan(t *testing.T) {
	store := newFakeLoanStore()
	store.addStudent("s1", "1")
	store.addTeacher("t1", "2")
	store.addComputer("pc1", models.ComputerStatusAvailable)
	store.addComputer("pc2", models.ComputerStatusAvailable)
	store.addComputer("pc3", models.ComputerStatusAvailable)
	svc := newLoanServiceForTest(store, nil)
	supervisor := "t1"

	_, err := svc.Create(context.Background(), NewLoanInput{Borrower: models.StudentBorrower{StudentID: "s1", SupervisorID: &supervisor}, ComputerID: "pc1"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), NewLoanInput{Borrower: models.TeacherBorrower{TeacherID: "t1"}, ComputerID: "pc2"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), NewLoanInput{Borrower: models.TeacherBorrower{TeacherID: "t1"}, ComputerID: "pc3"})
	assertCode(t, err, appErrors.ErrBorrowerAlreadyActive)
	store.assertStatusMatchesLoans(t)
}

func TestLoanCreateMissingReferences(t *testing.T) {
	store := newFakeLoanStore()
	store.addStudent("s1", "1")
	store.addComputer("pc1", models.ComputerStatusAvailable)
	svc := newLoanServiceForTest(store, nil)
	ghost := "ghost"

	cases := map[string]NewLoanInput{
		"student":    {Borrower: models.StudentBorrower{StudentID: "missing"}, ComputerID: "pc1"},
		"supervisor": {Borrower: models.StudentBorrower{StudentID: "s1", SupervisorID: &ghost}, ComputerID: "pc1"},
		"teacher":    {Borrower: models.TeacherBorrower{TeacherID: "missing"}, ComputerID: "pc1"},
		"computer":   {Borrower: models.StudentBorrower{StudentID: "s1"}, ComputerID: "missing"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), input)
			assertCode(t, err, appErrors.ErrNotFound)
			assert.Empty(t, store.loans)
			assert.Equal(t, models.ComputerStatusAvailable, store.computers["pc1"].Status)
		})
	}
}

func TestLoanConcurrentCreatesOnOneComputer(t *testing.T) {
	store := newFakeLoanStore()
	store.addComputer("pc1", models.ComputerStatusAvailable)
	const attempts = 16
	for i := 0; i < attempts; i++ {
		store.addStudent(fmt.Sprintf("s%d", i), fmt.Sprintf("dni-%d", i))
	}
	svc := newLoanServiceForTest(store, nil)

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), NewLoanInput{Borrower: models.StudentBorrower{StudentID: fmt.Sprintf("s%d", i)}, ComputerID: "pc1"})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		assertCode(t, err, appErrors.ErrComputerUnavailable)
	}
	assert.Equal(t, 1, successes)
	assert.Len(t, store.loans, 1)
	store.assertStatusMatchesLoans(t)
}

func TestLoanCreateMapsIndexViolations(t *testing.T) {
	store := newFakeLoanStore()
	store.addStudent("s1", "1")
	store.addComputer("pc1", models.ComputerStatusAvailable)
	svc := newLoanServiceForTest(store, nil)

	store.insertErr = &pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "loans_active_computer_idx"`}
	_, err := svc.Create(context.Background(), NewLoanInput{Borrower: models.StudentBorrower{StudentID: "s1"}, ComputerID: "pc1"})
	assertCode(t, err, appErrors.ErrComputerUnavailable)
	assert.Equal(t, models.ComputerStatusAvailable, store.computers["pc1"].Status)

	store.insertErr = &pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "loans_active_student_idx"`}
	_, err = svc.Create(context.Background(), NewLoanInput{Borrower: models.StudentBorrower{StudentID: "s1"}, ComputerID: "pc1"})
	assertCode(t, err, appErrors.ErrBorrowerAlreadyActive)
}

func TestLoanCreateMapsLockTimeoutToStoreBusy(t *testing.T) {
	store := newFakeLoanStore()
	store.txErr = &pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"}
	svc := newLoanServiceForTest(store, nil)

	_, err := svc.Create(context.Background(), NewLoanInput{Borrower: models.StudentBorrower{StudentID: "s1"}, ComputerID: "pc1"})
	assertCode(t, err, appErrors.ErrStoreBusy)
	assert.Equal(t, 503, appErrors.FromError(err).Status)
}

func TestLoanActiveForPrefersStudentMatch(t *testing.T) {
	store := newFakeLoanStore()
	store.addStudent("s1", "shared")
	store.addTeacher("t1", "shared")
	store.addComputer("pc1", models.ComputerStatusAvailable)
	svc := newLoanServiceForTest(store, nil)

	_, err := svc.Create(context.Background(), NewLoanInput{Borrower: models.TeacherBorrower{TeacherID: "t1"}, ComputerID: "pc1"})
	require.NoError(t, err)

	_, err = svc.ActiveFor(context.Background(), "shared")
	assertCode(t, err, appErrors.ErrNotFound)

	history, err := svc.History(context.Background(), "shared")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLoanHistoryForTeacher(t *testing.T) {
	store := newFakeLoanStore()
	store.addTeacher("t1", "2001")
	store.addComputer("pc1", models.ComputerStatusAvailable)
	svc := newLoanServiceForTest(store, nil)

	receipt, err := svc.Create(context.Background(), NewLoanInput{Borrower: models.TeacherBorrower{TeacherID: "t1"}, ComputerID: "pc1"})
	require.NoError(t, err)

	active, err := svc.ActiveFor(context.Background(), "2001")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, receipt.ID, active[0].ID)

	_, err = svc.Return(context.Background(), receipt.ID)
	require.NoError(t, err)

	history, err := svc.History(context.Background(), "2001")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = svc.History(context.Background(), "unknown")
	assertCode(t, err, appErrors.ErrNotFound)
}

func TestParseLoanRequest(t *testing.T) {
	svc := newLoanServiceForTest(newFakeLoanStore(), nil)
	supervisor := "t1"
	blank := " "

	input, err := svc.ParseRequest(CreateLoanRequest{Kind: models.BorrowerKindStudent, BorrowerID: "s1", ComputerID: "pc1", SupervisorID: &supervisor})
	require.NoError(t, err)
	assert.Equal(t, models.StudentBorrower{StudentID: "s1", SupervisorID: &supervisor}, input.Borrower)

	input, err = svc.ParseRequest(CreateLoanRequest{Kind: models.BorrowerKindTeacher, BorrowerID: "t1", ComputerID: "pc1", SupervisorID: &blank})
	require.NoError(t, err)
	assert.Equal(t, models.TeacherBorrower{TeacherID: "t1"}, input.Borrower)

	_, err = svc.ParseRequest(CreateLoanRequest{Kind: models.BorrowerKindTeacher, BorrowerID: "t1", ComputerID: "pc1", SupervisorID: &supervisor})
	assertCode(t, err, appErrors.ErrValidation)

	_, err = svc.ParseRequest(CreateLoanRequest{Kind: "visitante", BorrowerID: "x", ComputerID: "pc1"})
	assertCode(t, err, appErrors.ErrValidation)

	_, err = svc.ParseRequest(CreateLoanRequest{Kind: models.BorrowerKindStudent, ComputerID: "pc1"})
	assertCode(t, err, appErrors.ErrValidation)
}
