package main

import (
	"log"
	"net/http"

	"backdesk/account"
	"backdesk/bizerror"
	"backdesk/client/es"
	"backdesk/client/oss"
	"backdesk/common"
	"backdesk/domain/access"
	"backdesk/domain/agent"
	"backdesk/domain/channel"
	"backdesk/domain/event"
	"backdesk/domain/module"
	"backdesk/domain/project"
	"backdesk/domain/resource"
	"backdesk/domain/role"
	"backdesk/indices"
	"backdesk/infra/tracing"
	"backdesk/persistence"
	"backdesk/servehttp"
	"backdesk/session"
	"backdesk/sessions"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("service start")

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB(nil).AutoMigrate(
		&account.User{}, &account.ProjectMember{},
		&project.Project{}, &channel.Channel{}, &module.Module{}, &role.Role{},
		&access.AccessControlConfig{},
		&agent.Agent{}, &resource.Resource{}, &event.ScheduleEvent{},
	).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	if err := account.BootstrapInitialAdministrator(); err != nil {
		log.Fatalf("failed to bootstrap administrator %v\n", err)
	}

	tracingCloser, err := tracing.Bootstrap(common.GetServiceName())
	if err != nil {
		log.Fatalf("failed to bootstrap tracing %v\n", err)
	}
	defer tracingCloser.Close()

	oss.Bootstrap()
	es.CreateClientFromEnv()
	indices.Bootstrap()

	engine := gin.Default()
	engine.Use(tracing.TracingIngress(), bizerror.ErrorHandling())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "backdesk")
	})

	sessions.RegisterSessionsHandler(engine)

	auth := session.SimpleAuthFilter()
	account.RegisterUsersRestAPI(engine, auth)
	project.RegisterProjectsRestAPI(engine, auth)
	channel.RegisterChannelsRestAPI(engine, auth)
	module.RegisterModulesRestAPI(engine, auth)
	role.RegisterRolesRestAPI(engine, auth)
	access.RegisterAccessControlsRestAPI(engine, auth)
	agent.RegisterAgentsRestAPI(engine, auth)
	resource.RegisterResourcesRestAPI(engine, auth)
	event.RegisterScheduleEventsRestAPI(engine, auth)
	indices.RegisterIndicesRestAPI(engine, auth)

	servehttp.StartHTTPServer(engine)
}
