package role

import (
	"backdesk/bizerror"
	"backdesk/common"
	"backdesk/domain/channel"
	"backdesk/persistence"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// Role is a named permission group scoped to a channel.
type Role struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	ChannelID types.ID `json:"channelId" binding:"required" gorm:"unique_index:uni_channel_role_code"`
	Code      string   `json:"code" gorm:"unique_index:uni_channel_role_code"`
	Name      string   `json:"name"`
	Status    bool     `json:"status"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type RoleCreation struct {
	ChannelID types.ID `json:"channelId" binding:"required"`
	Code      string   `json:"code" binding:"required,lte=32"`
	Name      string   `json:"name" binding:"required,lte=255"`
}

type RoleUpdating struct {
	Name   string `json:"name" binding:"required,lte=255"`
	Status *bool  `json:"status" binding:"required"`
}

type RoleQuery struct {
	ChannelID types.ID `binding:"required" json:"channelId" form:"channelId"`
}

var (
	roleIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateRoleFunc                = CreateRole
	QueryRolesFunc                = QueryRoles
	UpdateRoleFunc                = UpdateRole
	ListActiveRolesForChannelFunc = ListActiveRolesForChannel
)

func CreateRole(c RoleCreation, s *session.Session) (*Role, error) {
	ch, err := channel.FindChannelById(c.ChannelID)
	if err != nil {
		return nil, err
	}
	if !s.Perms.HasRoleSuffix("_" + ch.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}

	r := Role{ID: common.NextId(roleIdWorker), ChannelID: c.ChannelID, Code: c.Code, Name: c.Name, Status: true,
		CreatorID: s.Identity.ID, CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func QueryRoles(q RoleQuery, s *session.Session) ([]Role, error) {
	roles := []Role{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Order("ID ASC").Where("channel_id = ?", q.ChannelID).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func UpdateRole(id types.ID, u RoleUpdating, s *session.Session) error {
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		var r Role
		if err := tx.Where(&Role{ID: id}).First(&r).Error; err != nil {
			return err
		}
		ch, err := channel.FindChannelById(r.ChannelID)
		if err != nil {
			return err
		}
		if !s.Perms.HasRoleSuffix("_" + ch.ProjectID.String()) {
			return bizerror.ErrForbidden
		}
		return tx.Model(&Role{ID: id}).Where(&Role{ID: id}).
			Updates(map[string]interface{}{"name": u.Name, "status": *u.Status}).Error
	})
}

// ListActiveRolesForChannel is the role catalog view consumed by the access
// control engine: the roles currently active in one channel.
func ListActiveRolesForChannel(channelId types.ID) ([]Role, error) {
	roles := []Role{}
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	if err := db.Order("ID ASC").Where("channel_id = ? AND status = ?", channelId, true).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// QueryRoleNames resolves display names for a set of role ids.
func QueryRoleNames(ids []types.ID) (map[types.ID]string, error) {
	if len(ids) == 0 {
		return map[types.ID]string{}, nil
	}
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	var records []Role
	if err := db.Model(&Role{}).Where("id IN (?)", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	result := map[types.ID]string{}
	for _, r := range records {
		result[r.ID] = r.Name
	}
	return result, nil
}
