package testutil

import (
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattressworks/stockboard/internal/stock/domain"
)

// MockDB is a sqlx handle backed by sqlmock
type MockDB struct {
	DB   *sqlx.DB
	Mock sqlmock.Sqlmock
}

// NewMockDB creates a sqlmock database for repository unit tests.
//
//	mockDB := testutil.NewMockDB(t)
//	defer mockDB.Close()
//	mockDB.ExpectQuery("SELECT COUNT(*) FROM stock_audit_log").WillReturnRows(testutil.MockRows("count").AddRow(0))
//	repo := repository.NewAuditRepository(mockDB.DB)
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	return &MockDB{DB: sqlx.NewDb(db, "postgres"), Mock: mock}
}

func (m *MockDB) Close() error {
	return m.DB.Close()
}

// ExpectQuery expects a query containing query verbatim
func (m *MockDB) ExpectQuery(query string) *sqlmock.ExpectedQuery {
	return m.Mock.ExpectQuery(regexp.QuoteMeta(query))
}

// ExpectExec expects a statement containing query verbatim
func (m *MockDB) ExpectExec(query string) *sqlmock.ExpectedExec {
	return m.Mock.ExpectExec(regexp.QuoteMeta(query))
}

func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	if err := m.Mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

func MockRows(columns ...string) *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

// AnyUUID matches a generated uuid argument
type AnyUUID struct{}

func (AnyUUID) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// AuditColumns are the stock_audit_log columns in select order
var AuditColumns = []string{"id", "action", "entity_type", "entity_id", "quantity", "actor_id", "details", "created_at"}

// AuditRows renders entries as stock_audit_log rows, details encoded as jsonb
func AuditRows(t *testing.T, entries ...domain.AuditEntry) *sqlmock.Rows {
	t.Helper()

	rows := MockRows(AuditColumns...)
	for _, e := range entries {
		details := []byte(`{}`)
		if e.Details != nil {
			var err error
			if details, err = json.Marshal(e.Details); err != nil {
				t.Fatalf("failed to encode audit details: %v", err)
			}
		}

		var quantity driver.Value
		if e.Quantity != nil {
			quantity = *e.Quantity
		}

		rows.AddRow(e.ID, e.Action, e.EntityType, e.EntityID, quantity, e.ActorID, details, e.CreatedAt)
	}
	return rows
}
