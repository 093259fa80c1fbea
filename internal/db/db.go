package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrNotFound 表示记录不存在（或不属于当前用户）
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 表示唯一约束冲突
	ErrDuplicate = errors.New("duplicate record")
	// ErrStorage 包装所有底层存储失败
	ErrStorage = errors.New("storage failure")
)

// Options 描述关系型数据库连接参数。
// Driver 为空时使用 sqlite；sqlite 使用 Path，postgres 使用 DSN。
type Options struct {
	Driver   string
	Path     string
	DSN      string
	LogLevel logger.LogLevel
}

// Open 建立数据库连接并执行自动迁移。
// 返回的句柄由调用方持有并在退出时关闭，包内不保存全局连接。
func Open(opts Options) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName(opts.Driver), err)
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Migrate 为核心模型创建或更新表结构
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&User{}, &Plant{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close 关闭底层连接池
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(opts Options) (gorm.Dialector, error) {
	switch driverName(opts.Driver) {
	case DriverSQLite:
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			path = "plantcare.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		return sqlite.Open(path), nil
	case DriverPostgres:
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, errors.New("postgres dsn is required")
		}
		return postgres.Open(opts.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

func driverName(driver string) string {
	d := strings.ToLower(strings.TrimSpace(driver))
	if d == "" {
		return DriverSQLite
	}
	return d
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}

// storageErr 将 gorm 错误映射为包内错误类别
func storageErr(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
	}
}
