package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kpidash/internal/i18n"
	"kpidash/internal/session"
	"kpidash/pkg/contracts/domain"
)

var header = []interface{}{"Date", "Shift", "Machine", "Output", "Defects", "DowntimeMinutes"}

// twoShiftRows is the worked example: 980 output, 18 defects, 50 minutes down
var twoShiftRows = [][]interface{}{
	header,
	{"2024-01-01", "A", "M1", 500, 10, 30},
	{"2024-01-02", "B", "M2", 480, 8, 20},
}

func workbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func date(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// stubSource serves a fixed cell grid
type stubSource struct {
	name string
	rows [][]string
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Rows(ctx context.Context) ([][]string, error) {
	return s.rows, s.err
}

// MockSessionStore is a mock for the SessionStore interface
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(lang i18n.Lang) *session.Session {
	args := m.Called(lang)
	return args.Get(0).(*session.Session)
}

func (m *MockSessionStore) Get(id string) (*session.Session, error) {
	args := m.Called(id)
	if s := args.Get(0); s != nil {
		return s.(*session.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionStore) Update(id string, change func(session.Session) *session.Session) (*session.Session, error) {
	args := m.Called(id, change)
	if s := args.Get(0); s != nil {
		return s.(*session.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestService(t *testing.T, deps DashboardDeps) (*DashboardService, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(time.Hour)
	if deps.Store == nil {
		deps.Store = store
	}
	svc, err := NewDashboardService(deps)
	require.NoError(t, err)
	return svc, store
}
