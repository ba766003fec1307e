package database

import (
	"fmt"

	"github.com/flowerfire37/ihome/internal/domain/models"
	Logger "github.com/flowerfire37/ihome/pkg/logger"

	"gorm.io/gorm"
)

// 默认城区
var defaultAreas = []string{
	"东城区", "西城区", "朝阳区", "海淀区", "昌平区", "丰台区", "房山区", "通州区",
	"顺义区", "大兴区", "怀柔区", "平谷区", "密云区", "延庆区", "石景山区", "门头沟区",
}

// 默认设施，编号与前端页面的图标一一对应
var defaultFacilities = []string{
	"无线网络", "热水淋浴", "空调", "暖气", "允许吸烟", "饮水设备", "牙具", "香皂",
	"拖鞋", "手纸", "毛巾", "沐浴露", "冰箱", "洗衣机", "电梯", "允许做饭",
	"允许带宠物", "允许聚会", "门禁系统", "停车位", "有线网络", "电视", "浴缸",
}

// allModels 需要迁移的模型，顺序即建表顺序
func allModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Area{},
		&models.Facility{},
		&models.House{},
		&models.HouseImage{},
		&models.Order{},
	}
}

// Migrate 根据迁移模式执行数据库迁移
func Migrate(db *gorm.DB, mode string) error {
	switch mode {
	case "drop":
		Logger.Warning("在drop模式下运行，将删除并重建所有表")
		if err := DropAndRecreateTables(db); err != nil {
			return err
		}
	default:
		Logger.Info("在标准模式下运行，将只添加新列和新表")
		if err := AutoMigrate(db); err != nil {
			return err
		}
	}
	return SeedDefaults(db)
}

// AutoMigrate 自动迁移所有模型（只添加新列和新表）
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("自动迁移失败: %w", err)
	}
	Logger.Info("数据库迁移完成")
	return nil
}

// DropAndRecreateTables 删除并重建所有表
func DropAndRecreateTables(db *gorm.DB) error {
	m := allModels()
	// 关联表和子表先删
	tables := []interface{}{"ih_house_facility"}
	for i := len(m) - 1; i >= 0; i-- {
		tables = append(tables, m[i])
	}
	for _, t := range tables {
		if err := db.Migrator().DropTable(t); err != nil {
			Logger.Error("删除表失败: %v", err)
		}
	}
	return AutoMigrate(db)
}

// SeedDefaults 空库时写入默认城区和设施
func SeedDefaults(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Area{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		areas := make([]models.Area, 0, len(defaultAreas))
		for _, name := range defaultAreas {
			areas = append(areas, models.Area{Name: name})
		}
		if err := db.Create(&areas).Error; err != nil {
			return fmt.Errorf("写入默认城区失败: %w", err)
		}
		Logger.Info("已写入 %d 个默认城区", len(areas))
	}

	if err := db.Model(&models.Facility{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		facilities := make([]models.Facility, 0, len(defaultFacilities))
		for _, name := range defaultFacilities {
			facilities = append(facilities, models.Facility{Name: name})
		}
		if err := db.Create(&facilities).Error; err != nil {
			return fmt.Errorf("写入默认设施失败: %w", err)
		}
		Logger.Info("已写入 %d 个默认设施", len(facilities))
	}
	return nil
}
