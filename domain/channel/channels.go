package channel

import (
	"backdesk/bizerror"
	"backdesk/common"
	"backdesk/persistence"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// Channel is a tenant-scoped distribution context under a project.
type Channel struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	ProjectID types.ID `json:"projectId" binding:"required" gorm:"unique_index:uni_project_channel_code"`
	Code      string   `json:"code" gorm:"unique_index:uni_project_channel_code"`
	Name      string   `json:"name"`
	Status    bool     `json:"status"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type ChannelCreation struct {
	ProjectID types.ID `json:"projectId" binding:"required"`
	Code      string   `json:"code" binding:"required,lte=32"`
	Name      string   `json:"name" binding:"required,lte=255"`
}

type ChannelUpdating struct {
	Name   string `json:"name" binding:"required,lte=255"`
	Status *bool  `json:"status" binding:"required"`
}

type ChannelQuery struct {
	ProjectID types.ID `binding:"required" json:"projectId" form:"projectId"`
}

var (
	channelIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateChannelFunc = CreateChannel
	QueryChannelsFunc = QueryChannels
	UpdateChannelFunc = UpdateChannel
)

func CreateChannel(c ChannelCreation, s *session.Session) (*Channel, error) {
	if !s.Perms.HasRoleSuffix("_" + c.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}

	r := Channel{ID: common.NextId(channelIdWorker), ProjectID: c.ProjectID, Code: c.Code, Name: c.Name, Status: true,
		CreatorID: s.Identity.ID, CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func QueryChannels(q ChannelQuery, s *session.Session) ([]Channel, error) {
	if !s.Perms.HasRoleSuffix("_" + q.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}

	channels := []Channel{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Order("ID ASC").Where("project_id = ?", q.ProjectID).Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

func UpdateChannel(id types.ID, u ChannelUpdating, s *session.Session) error {
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		var r Channel
		if err := tx.Where(&Channel{ID: id}).First(&r).Error; err != nil {
			return err
		}
		if !s.Perms.HasRoleSuffix("_" + r.ProjectID.String()) {
			return bizerror.ErrForbidden
		}
		return tx.Model(&Channel{ID: id}).Where(&Channel{ID: id}).
			Updates(map[string]interface{}{"name": u.Name, "status": *u.Status}).Error
	})
}

// FindChannelById resolves a channel regardless of its status.
func FindChannelById(id types.ID) (*Channel, error) {
	var r Channel
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	if err := db.Where(&Channel{ID: id}).First(&r).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, bizerror.NotFound("Channel with id %s not found", id.String())
		}
		return nil, err
	}
	return &r, nil
}
