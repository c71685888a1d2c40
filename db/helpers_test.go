package db

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"equipment_lending/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testClock 每次调用前进一分钟，保证 issue_date 严格递增
type testClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newTestClock() *testClock {
	return &testClock{cur: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Minute)
	return c.cur
}

// OpenTestDB 每个测试一个独立的内存库；单连接，事务天然串行
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "error in arranging test data")

	sqlDB, err := conn.DB()
	require.NoError(t, err, "error in arranging test data")
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(conn), "error in arranging test data")
	return conn
}

func newTestRepo(t testing.TB) *Repo {
	t.Helper()
	return NewRepo(OpenTestDB(t)).WithClock(newTestClock().Now)
}

func givenEquipment(t testing.TB, r *Repo, name string, quantity int) models.Equipment {
	t.Helper()
	e := models.Equipment{Name: name, Category: "camera", ConditionStatus: "good", Quantity: quantity}
	require.NoError(t, r.CreateEquipment(testContext(t), &e), "error in arranging test data")
	return e
}

func givenUser(t testing.TB, r *Repo, name string) models.User {
	t.Helper()
	u := models.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, r.DB.Create(&u).Error, "error in arranging test data")
	return u
}

func givenRequest(t testing.TB, r *Repo, userID, equipmentID uint) models.BorrowRequest {
	t.Helper()
	req, err := r.SubmitRequest(testContext(t), userID, equipmentID)
	require.NoError(t, err, "error in arranging test data")
	return *req
}

func loadEquipment(t testing.TB, r *Repo, id uint) models.Equipment {
	t.Helper()
	e, err := r.FindEquipment(testContext(t), id)
	require.NoError(t, err)
	return *e
}

func loadRequest(t testing.TB, r *Repo, id uint) models.BorrowRequest {
	t.Helper()
	var req models.BorrowRequest
	require.NoError(t, r.DB.First(&req, id).Error)
	return req
}

// assertLedgerConsistent 检查 0 <= available <= quantity 且
// 未释放的预留数 == quantity - available
func assertLedgerConsistent(t testing.TB, r *Repo, equipmentID uint) {
	t.Helper()
	e := loadEquipment(t, r, equipmentID)
	assert.GreaterOrEqual(t, e.AvailableQuantity, 0, "available must not be negative")
	assert.LessOrEqual(t, e.AvailableQuantity, e.Quantity, "available must not exceed quantity")

	active, err := countActive(r.DB, equipmentID)
	require.NoError(t, err)
	assert.Equal(t, int64(e.Outstanding()), active, "outstanding reservations must match pending+approved requests")
}

type submitRaceResult struct {
	succeeded   int
	unavailable int
	other       []error
}

// raceSubmits 让 callers 个 goroutine 同时对同一设备提交申请
func raceSubmits(t testing.TB, r *Repo, equipmentID uint, callers int) submitRaceResult {
	t.Helper()
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		res   submitRaceResult
		start = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			<-start
			_, err := r.SubmitRequest(testContext(t), userID, equipmentID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.succeeded++
			case errors.Is(err, ErrUnavailable):
				res.unavailable++
			default:
				res.other = append(res.other, err)
			}
		}(uint(i + 1))
	}
	close(start)
	wg.Wait()
	return res
}

// raceApproveAndReject 偶数下标 approve，奇数下标 reject，返回各自的错误
func raceApproveAndReject(t testing.TB, r *Repo, requestID uint, callers int) []error {
	t.Helper()
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, callers)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			if i%2 == 0 {
				_, errs[i] = r.ApproveRequest(testContext(t), requestID)
			} else {
				_, errs[i] = r.RejectRequest(testContext(t), requestID)
			}
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

// assertOneTransitionWins 只有一个调用能看到 pending，其余都是非法迁移
func assertOneTransitionWins(t testing.TB, errs []error) {
	t.Helper()
	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
	assert.Equal(t, 1, wins, "only one caller may observe pending")
}

// interleaveAfterRead 在下一次读取 table 之后、同一事务内执行 sql，
// 相当于另一个事务在本事务读完之后抢先提交了这次修改
func interleaveAfterRead(t testing.TB, r *Repo, table, sql string, args ...any) {
	t.Helper()
	var once sync.Once
	name := "test:interleave_" + uuid.NewString()
	err := r.DB.Callback().Query().After("gorm:query").Register(name, func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement.Table != table {
			return
		}
		once.Do(func() {
			if _, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context, sql, args...); err != nil {
				_ = tx.AddError(err)
			}
		})
	})
	require.NoError(t, err, "error in arranging test data")
	t.Cleanup(func() { _ = r.DB.Callback().Query().Remove(name) })
}
