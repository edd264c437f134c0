/*
 * @module service/init
 * @description 服务初始化模块，负责配置加载、仓库连接与各组件装配
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 数据仓库、Redis与Kafka均为可选依赖，未配置时按降级模式装配
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs dev_docs/model.md
 */

package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"whatsapp-etl-service/service/event"
	"whatsapp-etl-service/service/extractor"
	"whatsapp-etl-service/service/lock"
	"whatsapp-etl-service/service/models"
	"whatsapp-etl-service/service/scheduler"
)

var (
	DB                  *gorm.DB
	GlobalEtlRunService *EtlRunService
	GlobalEtlScheduler  *scheduler.EtlScheduler
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据仓库连接，未配置时保持DB为nil走本地输出模式
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else if os.Getenv("DB_HOST") != "" {
		host := os.Getenv("DB_HOST")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	} else {
		log.Println("未配置数据仓库，产物将写入本地输出目录")
		return
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Printf("数据仓库连接失败，降级为本地输出模式: %v", err)
		DB = nil
		return
	}

	log.Println("数据仓库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	if DB == nil {
		return
	}

	// 原始表一并迁移，保证首次上载前SQL变换引用的表已存在
	if err := DB.AutoMigrate(&models.EtlRun{}, &models.RawMessage{}, &models.RawStatus{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")
}

// initServices 初始化服务
func initServices() {
	config := RunConfig{
		Dataset:        getEnvWithDefault("ETL_DATASET", "verdadinha"),
		StrictRecords:  os.Getenv("ETL_STRICT_RECORDS") == "true",
		LocalOutputDir: getEnvWithDefault("ETL_OUTPUT_DIR", "output"),
	}
	if ttl := os.Getenv("ETL_LOCK_TTL_MINUTES"); ttl != "" {
		if minutes, err := strconv.Atoi(ttl); err == nil && minutes > 0 {
			config.LockTTL = time.Duration(minutes) * time.Minute
		}
	}

	ext := extractor.NewSheetsExtractor(extractor.SheetsConfig{
		BaseURL:     os.Getenv("SHEETS_EXPORT_URL"),
		MessagesGID: getEnvWithDefault("SHEETS_MESSAGES_GID", "0"),
		StatusesGID: getEnvWithDefault("SHEETS_STATUSES_GID", "1"),
		Encoding:    os.Getenv("SHEETS_ENCODING"),
	}, nil)

	GlobalEtlRunService = NewEtlRunService(DB, ext, initRunLock(), initNotifier(), config, nil)

	GlobalEtlScheduler = scheduler.NewEtlScheduler(os.Getenv("ETL_CRON"), func(ctx context.Context) error {
		_, err := GlobalEtlRunService.Run(ctx)
		return err
	}, nil)
	if err := GlobalEtlScheduler.Start(); err != nil {
		log.Printf("启动ETL调度器失败: %v", err)
	}

	log.Println("服务初始化完成")
}

// initRunLock Redis未配置或连接失败时降级为无锁
func initRunLock() lock.RunLock {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return lock.NoopLock{}
	}

	db := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, _ = strconv.Atoi(dbStr)
	}

	redisLock, err := lock.NewRedisLock(addr, os.Getenv("REDIS_PASSWORD"), db)
	if err != nil {
		log.Printf("Redis运行锁初始化失败，降级为无锁: %v", err)
		return lock.NoopLock{}
	}
	return redisLock
}

// initNotifier Kafka未配置时降级为空通知器
func initNotifier() event.RunNotifier {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return event.NoopNotifier{}
	}

	topic := getEnvWithDefault("KAFKA_RUN_TOPIC", "etl-run-events")
	return event.NewKafkaNotifier(strings.Split(brokers, ","), topic, nil)
}
