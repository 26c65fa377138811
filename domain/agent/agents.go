package agent

import (
	"backdesk/bizerror"
	"backdesk/common"
	"backdesk/persistence"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

const (
	OnboardingStatusDraft     = "DRAFT"
	OnboardingStatusSubmitted = "SUBMITTED"
	OnboardingStatusApproved  = "APPROVED"
	OnboardingStatusRejected  = "REJECTED"
)

type Agent struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	ProjectID types.ID `json:"projectId" gorm:"index:idx_agent_project"`
	ChannelID types.ID `json:"channelId"`
	RoleID    types.ID `json:"roleId"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	OnboardingStatus string `json:"onboardingStatus"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

type AgentCreation struct {
	ProjectID types.ID `json:"projectId" binding:"required"`
	ChannelID types.ID `json:"channelId" binding:"required"`
	RoleID    types.ID `json:"roleId" binding:"required"`

	Name  string `json:"name" binding:"required,lte=255"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"lte=32"`
}

type AgentReview struct {
	Approved bool `json:"approved"`
}

type AgentQuery struct {
	ProjectID types.ID `binding:"required" json:"projectId" form:"projectId"`
	ChannelID types.ID `json:"channelId" form:"channelId"`
}

var (
	agentIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateAgentFunc = CreateAgent
	QueryAgentsFunc = QueryAgents
	SubmitAgentFunc = SubmitAgent
	ReviewAgentFunc = ReviewAgent
)

func CreateAgent(c AgentCreation, s *session.Session) (*Agent, error) {
	if !s.Perms.HasRoleSuffix("_" + c.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}

	now := types.CurrentTimestamp()
	r := Agent{ID: common.NextId(agentIdWorker), ProjectID: c.ProjectID, ChannelID: c.ChannelID, RoleID: c.RoleID,
		Name: c.Name, Email: c.Email, Phone: c.Phone, OnboardingStatus: OnboardingStatusDraft,
		CreatorID: s.Identity.ID, CreateTime: now, UpdateTime: now}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func QueryAgents(q AgentQuery, s *session.Session) ([]Agent, error) {
	if !s.Perms.HasRoleSuffix("_" + q.ProjectID.String()) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context).Order("ID ASC").Where("project_id = ?", q.ProjectID)
	if q.ChannelID != 0 {
		db = db.Where("channel_id = ?", q.ChannelID)
	}
	agents := []Agent{}
	if err := db.Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

// SubmitAgent moves a draft onboarding record into review.
func SubmitAgent(id types.ID, s *session.Session) (*Agent, error) {
	return transit(id, s, func(a *Agent) (string, error) {
		if a.OnboardingStatus != OnboardingStatusDraft {
			return "", bizerror.ErrInvalidState
		}
		return OnboardingStatusSubmitted, nil
	})
}

// ReviewAgent closes the review of a submitted record.
func ReviewAgent(id types.ID, review AgentReview, s *session.Session) (*Agent, error) {
	return transit(id, s, func(a *Agent) (string, error) {
		if a.OnboardingStatus != OnboardingStatusSubmitted {
			return "", bizerror.ErrInvalidState
		}
		if review.Approved {
			return OnboardingStatusApproved, nil
		}
		return OnboardingStatusRejected, nil
	})
}

func transit(id types.ID, s *session.Session, next func(a *Agent) (string, error)) (*Agent, error) {
	var result Agent
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		var a Agent
		if err := tx.Where(&Agent{ID: id}).First(&a).Error; err != nil {
			return err
		}
		if !s.Perms.HasRoleSuffix("_" + a.ProjectID.String()) {
			return bizerror.ErrForbidden
		}
		status, err := next(&a)
		if err != nil {
			return err
		}
		now := types.CurrentTimestamp()
		if err := tx.Model(&Agent{ID: id}).Where(&Agent{ID: id}).
			Updates(map[string]interface{}{"onboarding_status": status, "update_time": now.Time()}).Error; err != nil {
			return err
		}
		a.OnboardingStatus = status
		a.UpdateTime = now
		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
