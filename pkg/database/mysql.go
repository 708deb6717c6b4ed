// Package database 管理 MySQL 和 Redis 的连接单例。
package database

import (
	"time"

	"github.com/SniperTei/nan-monitor-backend/internal/config"
	"github.com/SniperTei/nan-monitor-backend/pkg/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// DB 是全局的 GORM 数据库句柄，由 InitMySQL 初始化。
var DB *gorm.DB

// InitMySQL 初始化 MySQL 数据库连接并配置连接池。
func InitMySQL(cfg config.MySQLConfig) {
	var err error
	DB, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		log.Fatal("连接 MySQL 数据库失败", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("获取底层 sql.DB 失败", err)
	}

	// 连接池参数
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("MySQL 数据库连接成功")
}
