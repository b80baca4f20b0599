package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/mattressworks/stockboard/pkg/database"
	"github.com/mattressworks/stockboard/pkg/logger"
)

var (
	// Global test container (shared across all integration tests)
	globalContainer *PostgresContainer
	globalDB        *database.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite provides a migrated audit database backed by a real PostgreSQL
type IntegrationSuite struct {
	Container *PostgresContainer
	DB        *database.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite starts (or reuses) the shared container and applies migrations.
//
// Usage:
//
//	func TestAuditRepository_Integration(t *testing.T) {
//	    testutil.SkipIfShort(t)
//	    suite := testutil.NewIntegrationSuite(t)
//	    repo := repository.NewAuditRepository(suite.DB)
//	    ...
//	}
func NewIntegrationSuite(t *testing.T) *IntegrationSuite {
	t.Helper()
	ctx := context.Background()

	container, db, err := getOrCreateDatabase(ctx)
	if err != nil {
		t.Fatalf("failed to prepare integration database: %v", err)
	}

	suite := &IntegrationSuite{
		Container: container,
		DB:        db,
		Fixtures:  NewFixtureFactory(),
		Logger:    logger.Nop(),
	}

	t.Cleanup(func() {
		if err := suite.Truncate(ctx); err != nil {
			t.Errorf("failed to truncate audit log: %v", err)
		}
	})

	return suite
}

// getOrCreateDatabase returns the shared container with migrations applied
func getOrCreateDatabase(ctx context.Context) (*PostgresContainer, *database.DB, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		globalDB, containerErr = database.NewWithDSN(globalContainer.DSN, logger.Nop())
		if containerErr != nil {
			return
		}
		if err := globalDB.Migrate(ctx); err != nil {
			containerErr = fmt.Errorf("failed to migrate test database: %w", err)
		}
	})

	return globalContainer, globalDB, containerErr
}

// Truncate empties the audit log between tests
func (s *IntegrationSuite) Truncate(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, "TRUNCATE TABLE stock_audit_log")
	return err
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalDB != nil {
		globalDB.Close()
	}
	if globalContainer != nil {
		globalContainer.Terminate(ctx)
	}
}

// UnitTestSuite provides a base for unit tests with mocked dependencies
type UnitTestSuite struct {
	MockDB   *MockDB
	Fixtures *FixtureFactory
	t        *testing.T
}

// NewUnitTestSuite creates a new unit test suite
func NewUnitTestSuite(t *testing.T) *UnitTestSuite {
	return &UnitTestSuite{
		MockDB:   NewMockDB(t),
		Fixtures: NewFixtureFactory(),
		t:        t,
	}
}

// Cleanup verifies expectations and cleans up
func (s *UnitTestSuite) Cleanup() {
	s.MockDB.ExpectationsWereMet(s.t)
	s.MockDB.Close()
}

// IsCI returns true if running in CI environment
func IsCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}
