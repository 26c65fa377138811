package module

import (
	"backdesk/account"
	"backdesk/bizerror"
	"backdesk/common"
	"backdesk/persistence"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// Module is a unit of application functionality that can be toggled per role.
type Module struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Code   string `json:"code" gorm:"unique_index:uni_module_code"`
	Name   string `json:"name"`
	Status bool   `json:"status"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type ModuleCreation struct {
	Code string `json:"code" binding:"required,lte=32"`
	Name string `json:"name" binding:"required,lte=255"`
}

type ModuleUpdating struct {
	Name   string `json:"name" binding:"required,lte=255"`
	Status *bool  `json:"status" binding:"required"`
}

var (
	moduleIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateModuleFunc      = CreateModule
	QueryModulesFunc      = QueryModules
	UpdateModuleFunc      = UpdateModule
	ListActiveModulesFunc = ListActiveModules
	FindModuleByIdFunc    = FindModuleById
)

func CreateModule(c ModuleCreation, s *session.Session) (*Module, error) {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	r := Module{ID: common.NextId(moduleIdWorker), Code: c.Code, Name: c.Name, Status: true,
		CreatorID: s.Identity.ID, CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func QueryModules(s *session.Session) ([]Module, error) {
	modules := []Module{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Order("ID ASC").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func UpdateModule(id types.ID, u ModuleUpdating, s *session.Session) error {
	if !s.Perms.HasRole(account.SystemAdminPermission.ID) {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		var r Module
		if err := tx.Where(&Module{ID: id}).First(&r).Error; err != nil {
			return err
		}
		return tx.Model(&Module{ID: id}).Where(&Module{ID: id}).
			Updates(map[string]interface{}{"name": u.Name, "status": *u.Status}).Error
	})
}

// ListActiveModules returns the modules currently toggled on, the module
// catalog view consumed by the access control engine.
func ListActiveModules() ([]Module, error) {
	modules := []Module{}
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	if err := db.Order("ID ASC").Where("status = ?", true).Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func FindModuleById(id types.ID) (*Module, error) {
	var r Module
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	if err := db.Where(&Module{ID: id}).First(&r).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, bizerror.NotFound("Module with id %s not found", id.String())
		}
		return nil, err
	}
	return &r, nil
}
