package db

import (
	"os"
	"testing"

	"equipment_lending/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postgresDSNEnv 指向一个可写的 Postgres；未设置时跳过这些测试
const postgresDSNEnv = "TEST_DATABASE_URL"

// newPostgresTestRepo 真实 Postgres 连接池，FOR UPDATE 行锁真正生效
func newPostgresTestRepo(t *testing.T) *Repo {
	t.Helper()
	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping postgres test", postgresDSNEnv)
	}
	conn, err := ConnectDB(dsn)
	require.NoError(t, err, "error connecting to DB in test setup")
	sqlDB, err := conn.DB()
	require.NoError(t, err, "error connecting to DB in test setup")
	sqlDB.SetMaxOpenConns(32)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewRepo(conn)
}

// givenPostgresEquipment 建设备，测试结束后删掉它和相关申请
func givenPostgresEquipment(t *testing.T, r *Repo, name string, quantity int) models.Equipment {
	t.Helper()
	e := givenEquipment(t, r, name, quantity)
	t.Cleanup(func() {
		r.DB.Where("equipment_id = ?", e.ID).Delete(&models.BorrowRequest{})
		r.DB.Delete(&models.Equipment{}, e.ID)
	})
	return e
}

func Test_Postgres_SubmitRequest_ConcurrentSubmitsOnLastUnit(t *testing.T) {
	// setup
	r := newPostgresTestRepo(t)
	e := givenPostgresEquipment(t, r, "Last Unit", 1)
	const callers = 32

	// act
	res := raceSubmits(t, r, e.ID, callers)

	// assert
	assert.Empty(t, res.other)
	assert.Equal(t, 1, res.succeeded, "exactly one submit may win the last unit")
	assert.Equal(t, callers-1, res.unavailable)
	assert.Equal(t, 0, loadEquipment(t, r, e.ID).AvailableQuantity)
	assertLedgerConsistent(t, r, e.ID)
}

func Test_Postgres_SubmitRequest_ConcurrentSubmitsNeverOverbook(t *testing.T) {
	// setup
	r := newPostgresTestRepo(t)
	e := givenPostgresEquipment(t, r, "Shared Pool", 5)
	const callers = 40

	// act
	res := raceSubmits(t, r, e.ID, callers)

	// assert
	assert.Empty(t, res.other)
	assert.Equal(t, 5, res.succeeded)
	assert.Equal(t, callers-5, res.unavailable)
	assert.Equal(t, 0, loadEquipment(t, r, e.ID).AvailableQuantity)
	assertLedgerConsistent(t, r, e.ID)
}

func Test_Postgres_Transitions_ConcurrentApproveAndRejectOnlyOneWins(t *testing.T) {
	// setup
	r := newPostgresTestRepo(t)
	e := givenPostgresEquipment(t, r, "Monitor", 1)

	for round := 0; round < 10; round++ {
		req := givenRequest(t, r, uint(round+1), e.ID)

		// act
		errs := raceApproveAndReject(t, r, req.ID, 8)

		// assert
		assertOneTransitionWins(t, errs)
		assertLedgerConsistent(t, r, e.ID)

		// 收尾：让下一轮重新有库存
		switch loadRequest(t, r, req.ID).Status {
		case models.StatusApproved:
			_, _, err := r.ReturnRequest(testContext(t), req.ID)
			require.NoError(t, err)
		case models.StatusRejected:
		default:
			t.Fatalf("unexpected status after race: %s", loadRequest(t, r, req.ID).Status)
		}
		require.Equal(t, 1, loadEquipment(t, r, e.ID).AvailableQuantity)
	}
}
