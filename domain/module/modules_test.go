package module_test

import (
	"testing"
	"time"

	"backdesk/account"
	"backdesk/bizerror"
	"backdesk/domain/module"
	"backdesk/persistence"
	"backdesk/session"
	"backdesk/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("backdesk")
	*testDatabase = db
	Expect(db.DS.GormDB(nil).AutoMigrate(&module.Module{}).Error).To(BeNil())

	persistence.ActiveDataSourceManager = db.DS
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestCreateModule(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("only system admin has permission to create module", func(t *testing.T) {
		m, err := module.CreateModule(module.ModuleCreation{Code: "onboarding", Name: "Agent Onboarding"},
			testinfra.BuildSecCtx(10, "manager_1"))
		Expect(m).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should be able to create module successfully", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		s := testinfra.BuildSecCtx(10, account.SystemAdminPermission.ID)
		m, err := module.CreateModule(module.ModuleCreation{Code: "onboarding", Name: "Agent Onboarding"}, s)
		Expect(err).To(BeNil())

		r := module.Module{}
		Expect(persistence.ActiveDataSourceManager.GormDB(nil).Where("id = ?", m.ID).First(&r).Error).To(BeNil())
		Expect(r).To(Equal(*m))

		Expect(time.Since(m.CreateTime.Time()) < time.Second).To(BeTrue())
		Expect(m.ID > 0).To(BeTrue())
		m.ID = 0
		m.CreateTime = types.Timestamp{}
		Expect(*m).To(Equal(module.Module{Code: "onboarding", Name: "Agent Onboarding", Status: true, CreatorID: 10}))
	})

	t.Run("should reject duplicated module code", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		s := testinfra.BuildSecCtx(10, account.SystemAdminPermission.ID)
		_, err := module.CreateModule(module.ModuleCreation{Code: "onboarding", Name: "Agent Onboarding"}, s)
		Expect(err).To(BeNil())
		_, err = module.CreateModule(module.ModuleCreation{Code: "onboarding", Name: "Another"}, s)
		Expect(err).ToNot(BeNil())
	})
}

func TestUpdateModule(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("only system admin has permission to update module", func(t *testing.T) {
		status := false
		err := module.UpdateModule(123, module.ModuleUpdating{Name: "new name", Status: &status},
			testinfra.BuildSecCtx(10, "manager_1"))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should be able to toggle module off and on", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		s := testinfra.BuildSecCtx(10, account.SystemAdminPermission.ID)
		m, err := module.CreateModule(module.ModuleCreation{Code: "onboarding", Name: "Agent Onboarding"}, s)
		Expect(err).To(BeNil())

		off := false
		Expect(module.UpdateModule(m.ID, module.ModuleUpdating{Name: "Onboarding", Status: &off}, s)).To(BeNil())

		r := module.Module{}
		Expect(persistence.ActiveDataSourceManager.GormDB(nil).Where("id = ?", m.ID).First(&r).Error).To(BeNil())
		Expect(r.Name).To(Equal("Onboarding"))
		Expect(r.Status).To(BeFalse())

		active, err := module.ListActiveModules()
		Expect(err).To(BeNil())
		Expect(len(active)).To(BeZero())
	})
}

func TestListActiveModules(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should only return modules toggled on", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		s := testinfra.BuildSecCtx(10, account.SystemAdminPermission.ID)
		m1, err := module.CreateModule(module.ModuleCreation{Code: "onboarding", Name: "Agent Onboarding"}, s)
		Expect(err).To(BeNil())
		m2, err := module.CreateModule(module.ModuleCreation{Code: "resources", Name: "Resource Center"}, s)
		Expect(err).To(BeNil())

		off := false
		Expect(module.UpdateModule(m2.ID, module.ModuleUpdating{Name: m2.Name, Status: &off}, s)).To(BeNil())

		active, err := module.ListActiveModules()
		Expect(err).To(BeNil())
		Expect(len(active)).To(Equal(1))
		Expect(active[0].ID).To(Equal(m1.ID))

		all, err := module.QueryModules(&session.Session{})
		Expect(err).To(BeNil())
		Expect(len(all)).To(Equal(2))
	})
}

func TestFindModuleById(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should find module or report not found with the module id", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		s := testinfra.BuildSecCtx(10, account.SystemAdminPermission.ID)
		m, err := module.CreateModule(module.ModuleCreation{Code: "onboarding", Name: "Agent Onboarding"}, s)
		Expect(err).To(BeNil())

		found, err := module.FindModuleById(m.ID)
		Expect(err).To(BeNil())
		Expect(*found).To(Equal(*m))

		_, err = module.FindModuleById(404)
		Expect(err).To(MatchError("Module with id 404 not found"))
	})
}
