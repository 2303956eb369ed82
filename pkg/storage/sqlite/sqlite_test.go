package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/absmach/flock/pkg/storage/sqlite"
	"github.com/absmach/flock/pkg/storage/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testDB *sqlite.Database

func TestMain(m *testing.M) {
	dbPath := filepath.Join(os.TempDir(), "test_"+uuid.NewString()+".db")

	var err error
	testDB, err = sqlite.NewDatabase(dbPath)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	testDB.Close()
	os.Remove(dbPath)

	os.Exit(code)
}

func TestRoundRepository(t *testing.T) {
	testutil.RoundRepositoryTests(t, sqlite.NewRoundRepository(testDB))
}

func TestParticipantRepository(t *testing.T) {
	testutil.ParticipantRepositoryTests(t, sqlite.NewParticipantRepository(testDB))
}

func TestMigrateIsIdempotent(t *testing.T) {
	require.NoError(t, testDB.Migrate())
}
