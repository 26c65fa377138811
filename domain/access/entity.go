package access

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/fundwit/go-commons/types"
)

// AccessControlConfig is the stored module × role permission matrix of one
// (project, channel) pair. One non-deleted row exists per pair.
type AccessControlConfig struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	ProjectID types.ID `json:"projectId" gorm:"unique_index:uni_project_channel"`
	ChannelID types.ID `json:"channelId" gorm:"unique_index:uni_project_channel"`

	ModuleConfigs ModuleConfigs `json:"moduleConfigs" sql:"type:JSON NOT NULL"`

	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt" sql:"type:DATETIME(6)"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

// ModuleConfig is one row of the matrix. Entries of a config have unique
// ModuleID.
type ModuleConfig struct {
	ModuleID    types.ID     `json:"moduleId"`
	RoleConfigs []RoleConfig `json:"roleConfigs"`
}

// RoleConfig is one cell of the matrix. Entries of a module row have unique
// RoleID. Status defaults to false: the role is not granted access.
type RoleConfig struct {
	RoleID types.ID `json:"roleId"`
	Status bool     `json:"status"`
}

// ModuleConfigs is persisted as one JSON document column, so writes are
// whole-document replacements.
type ModuleConfigs []ModuleConfig

func (c ModuleConfigs) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *ModuleConfigs) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, c)
	case string:
		return json.Unmarshal([]byte(data), c)
	default:
		return errors.New("unsupported type of module configs column")
	}
}

type RoleAssignment struct {
	RoleID types.ID `json:"roleId" binding:"required"`
	Status bool     `json:"status"`
}

type ModuleConfigChange struct {
	ModuleID      types.ID         `json:"moduleId" binding:"required"`
	RolesAssigned []RoleAssignment `json:"rolesAssigned" binding:"required,min=1,dive"`
}

// AccessControlUpdating is the caller-supplied full matrix of the explicit
// replace operation.
type AccessControlUpdating struct {
	ModuleConfigs []ModuleConfigChange `json:"moduleConfigs" binding:"required,min=1,dive"`
}

type AccessControlQuery struct {
	ProjectID types.ID `json:"projectId" form:"projectId"`
	Page      int      `json:"page" form:"page"`
	Limit     int      `json:"limit" form:"limit"`
}

type AccessControlPage struct {
	Total int                   `json:"total"`
	Data  []AccessControlConfig `json:"data"`
}

// AccessControlDetail is the read model returned at the API boundary: the
// stored matrix plus advisory display names resolved from the catalogs at
// read time. It is never persisted.
type AccessControlDetail struct {
	ID types.ID `json:"id"`

	ProjectID types.ID `json:"projectId"`
	ChannelID types.ID `json:"channelId"`

	ModuleConfigs []ModuleConfigDetail `json:"moduleConfigs"`

	CreateTime types.Timestamp `json:"createTime"`
	UpdateTime types.Timestamp `json:"updateTime"`
}

type ModuleConfigDetail struct {
	ModuleID   types.ID `json:"moduleId"`
	ModuleName string   `json:"moduleName"`
	ModuleCode string   `json:"moduleCode"`

	RoleConfigs []RoleConfigDetail `json:"roleConfigs"`
}

type RoleConfigDetail struct {
	RoleID   types.ID `json:"roleId"`
	RoleName string   `json:"roleName"`
	Status   bool     `json:"status"`
}
