package xlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

func TestNewWriter_Validation(t *testing.T) {
	t.Run("nil store", func(t *testing.T) {
		w, err := NewWriter(nil)
		assert.ErrorIs(t, err, ErrNilStore)
		assert.Nil(t, w)
	})

	t.Run("文件大小上限无效", func(t *testing.T) {
		for _, mb := range []int{0, -1, maxFileSizeMB + 1} {
			w, err := NewWriter(NewStore(), WithMaxFileSize(mb))
			assert.ErrorIs(t, err, xrotate.ErrInvalidMaxSize, "mb=%d", mb)
			assert.Nil(t, w)
		}
	})

	t.Run("nil option 被忽略", func(t *testing.T) {
		w, err := NewWriter(NewStore(), nil, WithClock(nil), WithConsole(nil))
		require.NoError(t, err)
		require.NoError(t, w.Close())
	})
}

func TestWriter_PreservesOrder(t *testing.T) {
	h := newTestWriter(t, Options{})

	var want strings.Builder
	for i := range 500 {
		line := "line " + strconv.Itoa(i)
		h.w.WriteToFile(LevelInformation, line)
		want.WriteString(line + "\n")
	}
	require.NoError(t, h.w.Flush(context.Background()))

	normal, failure := h.paths(t, testDay)
	assert.Equal(t, want.String(), h.fs.latest(t, normal).String())
	assert.Empty(t, h.fs.latest(t, failure).String())
	assert.Zero(t, h.w.Pending())
}

func TestWriter_ErrorRecordsMirrored(t *testing.T) {
	h := newTestWriter(t, Options{})

	h.w.WriteToFile(LevelInformation, "a")
	h.w.WriteToFile(LevelError, "b")
	h.w.WriteToFile(LevelWarning, "c")
	h.w.WriteToFile(LevelFatal, "d")
	h.w.WriteToFile(LevelDebug, "e")
	require.NoError(t, h.w.Flush(context.Background()))

	normal, failure := h.paths(t, testDay)
	assert.Equal(t, "a\nb\nc\nd\ne\n", h.fs.latest(t, normal).String())
	assert.Equal(t, "b\nd\n", h.fs.latest(t, failure).String())
}

func TestWriter_FilePaths(t *testing.T) {
	dir := t.TempDir()

	t.Run("默认文件名", func(t *testing.T) {
		h := newTestWriter(t, Options{LogsDirectory: dir})
		h.w.WriteToFile(LevelInformation, "x")
		require.NoError(t, h.w.Flush(context.Background()))

		opens := h.fs.opens()
		require.Len(t, opens, 2)
		assert.Equal(t, filepath.Join(dir, "19-Oct-2026.log"), opens[0].path)
		assert.Equal(t, filepath.Join(dir, "19-Oct-2026.error.log"), opens[1].path)
	})

	t.Run("带实例 ID 和自定义扩展名", func(t *testing.T) {
		h := newTestWriter(t, Options{LogsDirectory: dir, InstanceID: "node1", LogFileExtension: ".txt"})
		h.w.WriteToFile(LevelInformation, "x")
		require.NoError(t, h.w.Flush(context.Background()))

		opens := h.fs.opens()
		require.Len(t, opens, 2)
		assert.Equal(t, filepath.Join(dir, "19-Oct-2026.node1.txt"), opens[0].path)
		assert.Equal(t, filepath.Join(dir, "19-Oct-2026.node1.error.txt"), opens[1].path)
	})
}

func TestWriter_IdleDrainOpensNothing(t *testing.T) {
	h := newTestWriter(t, Options{})

	require.NoError(t, h.w.Flush(context.Background()))
	require.NoError(t, h.w.drain())

	assert.Empty(t, h.fs.opens())
	entries, err := os.ReadDir(h.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriter_SingleFlightDrain(t *testing.T) {
	const (
		producers   = 8
		perProducer = 250
		drainers    = 8
	)
	h := newTestWriter(t, Options{})

	var g errgroup.Group
	for p := range producers {
		g.Go(func() error {
			for i := range perProducer {
				h.w.WriteToFile(LevelInformation, fmt.Sprintf("%d:%d", p, i))
			}
			return nil
		})
	}
	for range drainers {
		g.Go(func() error {
			for range 50 {
				if err := h.w.drain(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, h.w.Flush(context.Background()))

	// 只打开过一次当天的两个文件
	require.Len(t, h.fs.opens(), 2)

	normal, _ := h.paths(t, testDay)
	lines := strings.Split(strings.TrimSuffix(h.fs.latest(t, normal).String(), "\n"), "\n")
	require.Len(t, lines, producers*perProducer)

	// 每条恰好一次，且每个生产者内部有序
	next := make([]int, producers)
	for _, line := range lines {
		var p, i int
		_, err := fmt.Sscanf(line, "%d:%d", &p, &i)
		require.NoError(t, err)
		require.Equal(t, next[p], i, "producer %d out of order", p)
		next[p]++
	}
	for p, n := range next {
		assert.Equal(t, perProducer, n, "producer %d", p)
	}
}

func TestWriter_RotatesOnDayChange(t *testing.T) {
	h := newTestWriter(t, Options{})

	h.w.WriteToFile(LevelError, "day1")
	require.NoError(t, h.w.Flush(context.Background()))
	h.w.WriteToFile(LevelInformation, "day1 again")
	require.NoError(t, h.w.Flush(context.Background()))
	require.Len(t, h.fs.opens(), 2, "同一天不重复打开")

	nextDay := testDay.Add(24 * time.Hour)
	h.clock.Set(nextDay)
	h.w.WriteToFile(LevelError, "day2")
	require.NoError(t, h.w.Flush(context.Background()))

	opens := h.fs.opens()
	require.Len(t, opens, 4)
	assert.True(t, opens[0].isClosed())
	assert.True(t, opens[1].isClosed())
	assert.False(t, opens[2].isClosed())
	assert.False(t, opens[3].isClosed())

	n1, f1 := h.paths(t, testDay)
	n2, f2 := h.paths(t, nextDay)
	assert.Equal(t, "day1\nday1 again\n", h.fs.latest(t, n1).String())
	assert.Equal(t, "day1\n", h.fs.latest(t, f1).String())
	assert.Equal(t, "day2\n", h.fs.latest(t, n2).String())
	assert.Equal(t, "day2\n", h.fs.latest(t, f2).String())
	assert.Empty(t, h.errs.all())
}

func TestWriter_WriteErrorDropsCurrentRecord(t *testing.T) {
	h := newTestWriter(t, Options{})

	h.enqueue(LevelInformation, "ok")
	require.NoError(t, h.w.Flush(context.Background()))
	normal, _ := h.paths(t, testDay)
	file := h.fs.latest(t, normal)
	file.setWriteErr(errDiskFull)

	h.enqueue(LevelInformation, "lost")
	h.enqueue(LevelInformation, "kept")

	err := h.w.Flush(context.Background())
	require.ErrorIs(t, err, ErrWrite)
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, 1, h.w.Pending())

	errs := h.errs.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrWrite)

	file.setWriteErr(nil)
	require.NoError(t, h.w.Flush(context.Background()))
	assert.Equal(t, "ok\nkept\n", file.String())
	assert.Len(t, h.fs.opens(), 2, "写入失败不触发重新打开")
}

func TestWriter_InternalErrors(t *testing.T) {
	var calls int
	h := newTestWriter(t, Options{}, WithOnError(func(error) { calls++ }))
	assert.Zero(t, h.w.InternalErrors())

	h.fs.setOpenErr(errDiskFull)
	h.enqueue(LevelInformation, "a")
	require.ErrorIs(t, h.w.Flush(context.Background()), ErrRotate)
	require.ErrorIs(t, h.w.Flush(context.Background()), ErrRotate)

	// 计数与回调是否存在无关
	assert.Equal(t, uint64(2), h.w.InternalErrors())
	assert.Equal(t, 2, calls)
}

func TestWriter_RotateFailureRetried(t *testing.T) {
	h := newTestWriter(t, Options{})
	h.fs.setOpenErr(errDiskFull)

	h.enqueue(LevelInformation, "a")
	err := h.w.Flush(context.Background())
	require.ErrorIs(t, err, ErrRotate)
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, 1, h.w.Pending(), "记录留在队列中")

	h.fs.setOpenErr(nil)
	require.NoError(t, h.w.Flush(context.Background()))

	normal, _ := h.paths(t, testDay)
	assert.Equal(t, "a\n", h.fs.latest(t, normal).String())
	assert.Zero(t, h.w.Pending())
}

func TestWriter_RotateFailureKeepsPreviousFiles(t *testing.T) {
	h := newTestWriter(t, Options{})

	h.enqueue(LevelInformation, "day1")
	require.NoError(t, h.w.Flush(context.Background()))

	nextDay := testDay.Add(24 * time.Hour)
	h.clock.Set(nextDay)
	_, failure2 := h.paths(t, nextDay)
	h.fs.failPath(failure2, errDiskFull)

	h.enqueue(LevelInformation, "day2")
	require.ErrorIs(t, h.w.Flush(context.Background()), ErrRotate)

	opens := h.fs.opens()
	require.Len(t, opens, 3)
	assert.False(t, opens[0].isClosed(), "旧文件保持打开")
	assert.False(t, opens[1].isClosed(), "旧文件保持打开")
	assert.True(t, opens[2].isClosed(), "已打开的新文件被关闭")

	h.fs.failPath(failure2, nil)
	require.NoError(t, h.w.Flush(context.Background()))

	opens = h.fs.opens()
	require.Len(t, opens, 5)
	assert.True(t, opens[0].isClosed())
	assert.True(t, opens[1].isClosed())

	normal2, _ := h.paths(t, nextDay)
	assert.Equal(t, "day2\n", h.fs.latest(t, normal2).String())
}

func TestWriter_Close(t *testing.T) {
	h := newTestWriter(t, Options{})

	for i := range 100 {
		h.w.WriteToFile(LevelError, strconv.Itoa(i))
	}
	require.NoError(t, h.w.Close())

	normal, failure := h.paths(t, testDay)
	assert.Equal(t, 100, strings.Count(h.fs.latest(t, normal).String(), "\n"))
	assert.Equal(t, 100, strings.Count(h.fs.latest(t, failure).String(), "\n"))
	for _, f := range h.fs.opens() {
		assert.True(t, f.isClosed(), f.path)
	}

	t.Run("关闭后写入被丢弃", func(t *testing.T) {
		h.w.WriteToFile(LevelInformation, "late")
		assert.Zero(t, h.w.Pending())
		assert.NotContains(t, h.fs.latest(t, normal).String(), "late")
	})

	t.Run("关闭后 Flush", func(t *testing.T) {
		assert.ErrorIs(t, h.w.Flush(context.Background()), ErrClosed)
	})

	t.Run("重复关闭", func(t *testing.T) {
		assert.NoError(t, h.w.Close())
	})
}

func TestWriter_CloseReportsUnwrittenRecords(t *testing.T) {
	h := newTestWriter(t, Options{})
	h.fs.setOpenErr(errDiskFull)

	h.enqueue(LevelInformation, "a")
	h.enqueue(LevelInformation, "b")

	err := h.w.Close()
	require.ErrorIs(t, err, ErrRotate)
	assert.Contains(t, err.Error(), "2 records not written before close")
	assert.Equal(t, err, h.w.Close(), "重复关闭返回首次结果")
}

func TestWriter_CloseWithoutRecordsOpensNothing(t *testing.T) {
	h := newTestWriter(t, Options{})
	require.NoError(t, h.w.Close())
	assert.Empty(t, h.fs.opens())
}

func TestWriter_FlushHonorsContext(t *testing.T) {
	h := newTestWriter(t, Options{})

	h.w.WriteToFile(LevelInformation, "open")
	require.NoError(t, h.w.Flush(context.Background()))
	normal, _ := h.paths(t, testDay)
	file := h.fs.latest(t, normal)

	block := make(chan struct{})
	entered := make(chan struct{}, 1)
	file.mu.Lock()
	file.block, file.entered = block, entered
	file.mu.Unlock()

	h.w.WriteToFile(LevelInformation, "slow")
	<-entered // worker 阻塞在写文件上

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.w.Flush(ctx), context.DeadlineExceeded)

	file.mu.Lock()
	file.block = nil
	file.mu.Unlock()
	close(block)
	require.NoError(t, h.w.Close())
	assert.Equal(t, "open\nslow\n", file.String())
}

func TestWriter_ConcurrentWriteAndClose(t *testing.T) {
	h := newTestWriter(t, Options{})

	var wg sync.WaitGroup
	for p := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				h.w.WriteToFile(LevelInformation, fmt.Sprintf("%d-%d", p, i))
			}
		}()
	}
	time.Sleep(time.Millisecond)
	require.NoError(t, h.w.Close())
	wg.Wait()

	// 关闭前入队的记录全部落盘，之后的被丢弃
	assert.Zero(t, h.w.Pending())
}

func TestWriter_WriteToConsole(t *testing.T) {
	var stdout, stderr strings.Builder
	h := newTestWriter(t, Options{}, WithConsole(NewConsole(&stdout, &stderr)))

	h.w.WriteToConsole(LevelInformation, "info")
	h.w.WriteToConsole(LevelError, "boom")

	assert.Equal(t, "info\n", stdout.String())
	assert.Equal(t, "boom\n", stderr.String())
	assert.Empty(t, h.fs.opens(), "控制台输出不涉及文件")
}

type panicConsole struct{}

func (panicConsole) Debug(string) { panic("debug") }
func (panicConsole) Info(string)  { panic("info") }
func (panicConsole) Warn(string)  { panic("warn") }
func (panicConsole) Error(string) { panic("error") }
func (panicConsole) Print(string) { panic("print") }

func TestWriter_WriteToConsolePanicReported(t *testing.T) {
	h := newTestWriter(t, Options{}, WithConsole(panicConsole{}))

	assert.NotPanics(t, func() {
		h.w.WriteToConsole(LevelWarning, "x")
	})
	errs := h.errs.all()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "console panic: warn")
}

func TestWriter_RealFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	store := NewStoreWith(Options{LogsDirectory: dir, InstanceID: "node1"})
	clock := newFakeClock(testDay)

	w, err := NewWriter(store,
		WithClock(clock.Now),
		WithFileMode(0600),
		WithMaxFileSize(1),
		WithOnError(func(err error) { t.Errorf("unexpected error: %v", err) }),
	)
	require.NoError(t, err)

	w.WriteToFile(LevelInformation, "hello")
	w.WriteToFile(LevelError, "failed")
	require.NoError(t, w.Close())

	normal, err := os.ReadFile(filepath.Join(dir, "19-Oct-2026.node1.log"))
	require.NoError(t, err)
	assert.Equal(t, "hello\nfailed\n", string(normal))

	failure, err := os.ReadFile(filepath.Join(dir, "19-Oct-2026.node1.error.log"))
	require.NoError(t, err)
	assert.Equal(t, "failed\n", string(failure))

	info, err := os.Stat(filepath.Join(dir, "19-Oct-2026.node1.log"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWriterOptions_BackupLocalTime(t *testing.T) {
	o := defaultWriterOptions()
	assert.Equal(t, xrotate.DefaultLocalTime, o.localTime)

	WithBackupLocalTime(false)(&o)
	assert.False(t, o.localTime)

	dir := t.TempDir()
	w, err := NewWriter(NewStoreWith(Options{LogsDirectory: dir}),
		WithClock(newFakeClock(testDay).Now),
		WithBackupLocalTime(false),
	)
	require.NoError(t, err)
	w.WriteToFile(LevelInformation, "utc")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(dir, "19-Oct-2026.log"))
	require.NoError(t, err)
	assert.Equal(t, "utc\n", string(data))
}

func TestWriter_RotationGoroutineCost(t *testing.T) {
	const days = 5
	store := NewStoreWith(Options{LogsDirectory: t.TempDir()})
	clock := newFakeClock(testDay)
	before := runtime.NumGoroutine()

	w, err := NewWriter(store, WithClock(clock.Now), WithConsole(NewConsole(io.Discard, io.Discard)))
	require.NoError(t, err)
	for i := range days {
		w.WriteToFile(LevelInformation, strconv.Itoa(i))
		require.NoError(t, w.Flush(context.Background()))
		clock.Set(testDay.AddDate(0, 0, i+1))
	}
	require.NoError(t, w.Close())

	// worker 已退出，剩下的只有每个文件各一个 millRun
	assert.LessOrEqual(t, runtime.NumGoroutine()-before, 2*days)
}

func TestWriter_RealFilesAppendAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	store := NewStoreWith(Options{LogsDirectory: dir})
	clock := newFakeClock(testDay)

	for _, text := range []string{"first run", "second run"} {
		w, err := NewWriter(store, WithClock(clock.Now))
		require.NoError(t, err)
		w.WriteToFile(LevelInformation, text)
		require.NoError(t, w.Close())
	}

	data, err := os.ReadFile(filepath.Join(dir, "19-Oct-2026.log"))
	require.NoError(t, err)
	assert.Equal(t, "first run\nsecond run\n", string(data))
}

func TestWriter_ConfigChangeAppliesOnNextRotation(t *testing.T) {
	h := newTestWriter(t, Options{})

	h.w.WriteToFile(LevelInformation, "before")
	require.NoError(t, h.w.Flush(context.Background()))

	// 同一天内修改配置不会重新打开文件
	h.w.store.Set(Options{LogsDirectory: h.dir, InstanceID: "node2"})
	h.w.WriteToFile(LevelInformation, "same day")
	require.NoError(t, h.w.Flush(context.Background()))
	require.Len(t, h.fs.opens(), 2)

	nextDay := testDay.Add(24 * time.Hour)
	h.clock.Set(nextDay)
	h.w.WriteToFile(LevelInformation, "after")
	require.NoError(t, h.w.Flush(context.Background()))

	opens := h.fs.opens()
	require.Len(t, opens, 4)
	assert.Equal(t, filepath.Join(h.dir, "20-Oct-2026.node2.log"), opens[2].path)
}

func TestWriter_ErrorFileFailureSkipsNormalFile(t *testing.T) {
	h := newTestWriter(t, Options{})

	h.enqueue(LevelInformation, "ok")
	require.NoError(t, h.w.Flush(context.Background()))
	normal, failure := h.paths(t, testDay)
	h.fs.latest(t, failure).setWriteErr(errDiskFull)

	h.enqueue(LevelError, "bad")
	err := h.w.Flush(context.Background())
	require.True(t, errors.Is(err, ErrWrite))
	assert.Contains(t, err.Error(), "error file")
	assert.Equal(t, "ok\n", h.fs.latest(t, normal).String())
}
