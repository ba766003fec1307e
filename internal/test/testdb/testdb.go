// Package testdb 为仓库和服务测试提供真实 SQL 方言的数据库
package testdb

import (
	"path/filepath"
	"testing"

	"github.com/flowerfire37/ihome/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Open 在临时目录创建 SQLite 库并执行标准迁移(含默认城区和设施)
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "ihome.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	// SQLite 单写者，事务期间独占连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db, "auto"); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}
	return db
}

// Locks 记录查询语句上的行锁，SQLite 本身会忽略 FOR UPDATE
type Locks struct {
	tables []string
}

// Tables 按顺序返回加锁查询的表名
func (l *Locks) Tables() []string {
	return append([]string(nil), l.tables...)
}

// RecordLocks 注册查询回调，记录带 FOR UPDATE 子句的查询
func RecordLocks(t *testing.T, db *gorm.DB) *Locks {
	t.Helper()
	locks := &Locks{}
	err := db.Callback().Query().Before("gorm:query").Register("testdb:record_locks", func(tx *gorm.DB) {
		c, ok := tx.Statement.Clauses["FOR"]
		if !ok {
			return
		}
		if l, ok := c.Expression.(clause.Locking); ok && l.Strength == clause.LockingStrengthUpdate {
			locks.tables = append(locks.tables, tx.Statement.Table)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	return locks
}
