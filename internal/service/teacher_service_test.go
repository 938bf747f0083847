package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/carritos-api/internal/models"
	"github.com/noah-isme/carritos-api/internal/repository"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
)

type mockTeacherRepo struct {
	items      map[string]*models.Teacher
	activeLoan map[string]bool
	deleted    []string
}

func newMockTeacherRepo(teachers ...models.Teacher) *mockTeacherRepo {
	repo := &mockTeacherRepo{items: map[string]*models.Teacher{}, activeLoan: map[string]bool{}}
	for i := range teachers {
		cp := teachers[i]
		repo.items[cp.ID] = &cp
	}
	return repo
}

func (m *mockTeacherRepo) List(ctx context.Context, filter models.PersonFilter) ([]models.Teacher, error) {
	var out []models.Teacher
	for _, teacher := range m.items {
		out = append(out, *teacher)
	}
	return out, nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := m.items[id]; ok {
		cp := *teacher
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) FindByDNI(ctx context.Context, dni string) (*models.Teacher, error) {
	for _, teacher := range m.items {
		if teacher.DNI == dni {
			cp := *teacher
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	for _, existing := range m.items {
		if existing.DNI == teacher.DNI {
			return &pq.Error{Code: "23505", Constraint: "teachers_dni_key"}
		}
	}
	if teacher.ID == "" {
		teacher.ID = "t-" + teacher.DNI
	}
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	for id, existing := range m.items {
		if id != teacher.ID && existing.DNI == teacher.DNI {
			return &pq.Error{Code: "23505", Constraint: "teachers_dni_key"}
		}
	}
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	if m.activeLoan[id] {
		return repository.ErrActiveLoan
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func TestTeacherServiceCreateAndUpdate(t *testing.T) {
	repo := newMockTeacherRepo()
	svc := NewTeacherService(repo, nil, zap.NewNop())

	dept := " Matemática "
	teacher, err := svc.Create(context.Background(), TeacherRequest{DNI: " 20111222 ", FirstName: "Laura", LastName: "Díaz", Department: &dept})
	require.NoError(t, err)
	assert.Equal(t, "20111222", teacher.DNI)
	assert.Equal(t, "Matemática", *teacher.Department)
	assert.True(t, teacher.Active)

	inactive := false
	updated, err := svc.Update(context.Background(), teacher.ID, TeacherRequest{DNI: "20111222", FirstName: "Laura", LastName: "Díaz Paz", Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Díaz Paz", updated.LastName)
	assert.False(t, updated.Active)
	assert.Nil(t, updated.Department)
}

func TestTeacherServiceCreateErrors(t *testing.T) {
	repo := newMockTeacherRepo(models.Teacher{ID: "t1", DNI: "20111222", FirstName: "Laura", LastName: "Díaz"})
	svc := NewTeacherService(repo, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), TeacherRequest{DNI: "20111222", FirstName: "Otra", LastName: "Persona"})
	assertCode(t, err, appErrors.ErrDuplicateKey)

	bad := "no-es-email"
	_, err = svc.Create(context.Background(), TeacherRequest{DNI: "1", FirstName: "A", LastName: "B", Email: &bad})
	assertCode(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), TeacherRequest{DNI: "1", FirstName: "  ", LastName: "B"})
	assertCode(t, err, appErrors.ErrValidation)

	_, err = svc.Update(context.Background(), "ghost", TeacherRequest{DNI: "1", FirstName: "A", LastName: "B"})
	assertCode(t, err, appErrors.ErrNotFound)
}

func TestTeacherServiceDeleteRefusedWhileLinkedToActiveLoan(t *testing.T) {
	repo := newMockTeacherRepo(
		models.Teacher{ID: "t1", DNI: "1"},
		models.Teacher{ID: "t2", DNI: "2"},
	)
	repo.activeLoan["t1"] = true
	svc := NewTeacherService(repo, nil, zap.NewNop())

	assertCode(t, svc.Delete(context.Background(), "t1"), appErrors.ErrHasDependents)
	require.NoError(t, svc.Delete(context.Background(), "t2"))
	assert.Equal(t, []string{"t2"}, repo.deleted)
	assertCode(t, svc.Delete(context.Background(), "t2"), appErrors.ErrNotFound)
}

func TestTeacherServiceGetByDNI(t *testing.T) {
	repo := newMockTeacherRepo(models.Teacher{ID: "t1", DNI: "20111222", FirstName: "Laura"})
	svc := NewTeacherService(repo, nil, zap.NewNop())

	teacher, err := svc.GetByDNI(context.Background(), " 20111222")
	require.NoError(t, err)
	assert.Equal(t, "t1", teacher.ID)

	_, err = svc.GetByDNI(context.Background(), "0")
	assertCode(t, err, appErrors.ErrNotFound)
}

func TestTeacherServiceImportCSV(t *testing.T) {
	repo := newMockTeacherRepo(models.Teacher{ID: "t1", DNI: "20111222"})
	svc := NewTeacherService(repo, nil, zap.NewNop())

	csvData := "DNI,Nombre,Apellido,Departamento\n" +
		"20111222,Laura,Díaz,Lengua\n" +
		"20333444,Pedro,Ruiz,Historia\n" +
		"20555666,,Sosa,\n"
	result, err := svc.Import(context.Background(), "docentes.csv", strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, models.ImportResult{Total: 3, Inserted: 1, Skipped: 2}, *result)

	imported, err := repo.FindByDNI(context.Background(), "20333444")
	require.NoError(t, err)
	assert.Equal(t, "Historia", *imported.Department)
}
