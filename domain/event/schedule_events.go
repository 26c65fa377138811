package event

import (
	"backdesk/bizerror"
	"backdesk/common"
	"backdesk/persistence"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// ScheduleEvent is a calendar entry of a project. Overlap checking between
// events is a concern of the calling layer, not of this store.
type ScheduleEvent struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	ProjectID types.ID `json:"projectId" gorm:"index:idx_event_project"`
	ChannelID types.ID `json:"channelId"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`

	StartTime types.Timestamp `json:"startTime" sql:"type:DATETIME(6) NOT NULL"`
	EndTime   types.Timestamp `json:"endTime" sql:"type:DATETIME(6) NOT NULL"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type ScheduleEventCreation struct {
	ProjectID types.ID `json:"projectId" binding:"required"`
	ChannelID types.ID `json:"channelId"`

	Title       string `json:"title" binding:"required,lte=255"`
	Description string `json:"description" binding:"lte=2000"`
	Location    string `json:"location" binding:"lte=255"`

	StartTime types.Timestamp `json:"startTime" binding:"required"`
	EndTime   types.Timestamp `json:"endTime" binding:"required"`
}

type ScheduleEventQuery struct {
	ProjectID types.ID `binding:"required" json:"projectId" form:"projectId"`

	Begin types.Timestamp `json:"begin" form:"begin"`
	End   types.Timestamp `json:"end" form:"end"`
}

var (
	eventIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateScheduleEventFunc = CreateScheduleEvent
	QueryScheduleEventsFunc = QueryScheduleEvents
	DeleteScheduleEventFunc = DeleteScheduleEvent
)

func CreateScheduleEvent(c ScheduleEventCreation, s *session.Session) (*ScheduleEvent, error) {
	if !s.Perms.HasRoleSuffix("_" + c.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}
	if !c.EndTime.Time().After(c.StartTime.Time()) {
		return nil, &bizerror.ErrBadParam{}
	}

	r := ScheduleEvent{ID: common.NextId(eventIdWorker), ProjectID: c.ProjectID, ChannelID: c.ChannelID,
		Title: c.Title, Description: c.Description, Location: c.Location,
		StartTime: c.StartTime, EndTime: c.EndTime,
		CreatorID: s.Identity.ID, CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func QueryScheduleEvents(q ScheduleEventQuery, s *session.Session) ([]ScheduleEvent, error) {
	if !s.Perms.HasRoleSuffix("_" + q.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context).Order("start_time ASC").Where("project_id = ?", q.ProjectID)
	if !q.Begin.Time().IsZero() {
		db = db.Where("end_time >= ?", q.Begin)
	}
	if !q.End.Time().IsZero() {
		db = db.Where("start_time <= ?", q.End)
	}
	events := []ScheduleEvent{}
	if err := db.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func DeleteScheduleEvent(id types.ID, s *session.Session) error {
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		var r ScheduleEvent
		if err := tx.Where(&ScheduleEvent{ID: id}).First(&r).Error; err != nil {
			return err
		}
		if !s.Perms.HasRoleSuffix("_" + r.ProjectID.String()) {
			return bizerror.ErrForbidden
		}
		return tx.Delete(ScheduleEvent{}, "id = ?", id).Error
	})
}
