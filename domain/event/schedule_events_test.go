package event_test

import (
	"testing"
	"time"

	"backdesk/bizerror"
	"backdesk/domain/event"
	"backdesk/persistence"
	"backdesk/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("backdesk")
	*testDatabase = db
	Expect(db.DS.GormDB(nil).AutoMigrate(&event.ScheduleEvent{}).Error).To(BeNil())

	persistence.ActiveDataSourceManager = db.DS
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func buildEvent(title string, start, end types.Timestamp) *event.ScheduleEvent {
	r, err := event.CreateScheduleEvent(event.ScheduleEventCreation{ProjectID: 1, ChannelID: 2,
		Title: title, StartTime: start, EndTime: end}, testinfra.BuildSecCtx(10, "manager_1"))
	Expect(err).To(BeNil())
	return r
}

func TestCreateScheduleEvent(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("only project member has permission to create schedule event", func(t *testing.T) {
		r, err := event.CreateScheduleEvent(event.ScheduleEventCreation{ProjectID: 1, Title: "kickoff",
			StartTime: types.TimestampOfDate(2025, 3, 1, 9, 0, 0, 0, time.UTC),
			EndTime:   types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
			testinfra.BuildSecCtx(10, "manager_999"))
		Expect(r).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("end time must be after start time", func(t *testing.T) {
		moment := types.TimestampOfDate(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		r, err := event.CreateScheduleEvent(event.ScheduleEventCreation{ProjectID: 1, Title: "kickoff",
			StartTime: moment, EndTime: moment}, testinfra.BuildSecCtx(10, "manager_1"))
		Expect(r).To(BeNil())
		Expect(err).To(BeAssignableToTypeOf(&bizerror.ErrBadParam{}))

		r, err = event.CreateScheduleEvent(event.ScheduleEventCreation{ProjectID: 1, Title: "kickoff",
			StartTime: moment, EndTime: types.TimestampOfDate(2025, 3, 1, 8, 0, 0, 0, time.UTC)},
			testinfra.BuildSecCtx(10, "manager_1"))
		Expect(r).To(BeNil())
		Expect(err).To(BeAssignableToTypeOf(&bizerror.ErrBadParam{}))
	})

	t.Run("should be able to create schedule event successfully", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		start := types.TimestampOfDate(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		end := types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		r, err := event.CreateScheduleEvent(event.ScheduleEventCreation{ProjectID: 1, ChannelID: 2,
			Title: "kickoff", Description: "season kickoff", Location: "room 201",
			StartTime: start, EndTime: end}, testinfra.BuildSecCtx(10, "manager_1"))
		Expect(err).To(BeNil())
		Expect(r.ID > 0).To(BeTrue())
		Expect(r.CreatorID).To(Equal(types.ID(10)))

		stored := event.ScheduleEvent{}
		Expect(persistence.ActiveDataSourceManager.GormDB(nil).Where("id = ?", r.ID).First(&stored).Error).To(BeNil())
		Expect(stored.Title).To(Equal("kickoff"))
		Expect(stored.StartTime.Time().UTC()).To(Equal(start.Time().UTC()))
		Expect(stored.EndTime.Time().UTC()).To(Equal(end.Time().UTC()))
	})
}

func TestQueryScheduleEvents(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("only project member has permission to query schedule events", func(t *testing.T) {
		records, err := event.QueryScheduleEvents(event.ScheduleEventQuery{ProjectID: 1},
			testinfra.BuildSecCtx(10, "manager_999"))
		Expect(records).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should order by start time and honor the range filters", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		early := buildEvent("early",
			types.TimestampOfDate(2025, 3, 1, 9, 0, 0, 0, time.UTC),
			types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.UTC))
		middle := buildEvent("middle",
			types.TimestampOfDate(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			types.TimestampOfDate(2025, 3, 10, 10, 0, 0, 0, time.UTC))
		late := buildEvent("late",
			types.TimestampOfDate(2025, 3, 20, 9, 0, 0, 0, time.UTC),
			types.TimestampOfDate(2025, 3, 20, 10, 0, 0, 0, time.UTC))

		s := testinfra.BuildSecCtx(10, "manager_1")

		titles := func(records []event.ScheduleEvent) []string {
			names := []string{}
			for _, r := range records {
				names = append(names, r.Title)
			}
			return names
		}

		records, err := event.QueryScheduleEvents(event.ScheduleEventQuery{ProjectID: 1}, s)
		Expect(err).To(BeNil())
		Expect(titles(records)).To(Equal([]string{early.Title, middle.Title, late.Title}))

		// begin keeps events which are still running at or after it
		records, err = event.QueryScheduleEvents(event.ScheduleEventQuery{ProjectID: 1,
			Begin: types.TimestampOfDate(2025, 3, 10, 9, 30, 0, 0, time.UTC)}, s)
		Expect(err).To(BeNil())
		Expect(titles(records)).To(Equal([]string{middle.Title, late.Title}))

		// end keeps events which have started by it
		records, err = event.QueryScheduleEvents(event.ScheduleEventQuery{ProjectID: 1,
			End: types.TimestampOfDate(2025, 3, 10, 9, 30, 0, 0, time.UTC)}, s)
		Expect(err).To(BeNil())
		Expect(titles(records)).To(Equal([]string{early.Title, middle.Title}))

		// combined range
		records, err = event.QueryScheduleEvents(event.ScheduleEventQuery{ProjectID: 1,
			Begin: types.TimestampOfDate(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			End:   types.TimestampOfDate(2025, 3, 15, 0, 0, 0, 0, time.UTC)}, s)
		Expect(err).To(BeNil())
		Expect(titles(records)).To(Equal([]string{middle.Title}))
	})

	t.Run("should only return events of the requested project", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		buildEvent("mine",
			types.TimestampOfDate(2025, 3, 1, 9, 0, 0, 0, time.UTC),
			types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.UTC))
		_, err := event.CreateScheduleEvent(event.ScheduleEventCreation{ProjectID: 2, Title: "theirs",
			StartTime: types.TimestampOfDate(2025, 3, 1, 9, 0, 0, 0, time.UTC),
			EndTime:   types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
			testinfra.BuildSecCtx(10, "manager_2"))
		Expect(err).To(BeNil())

		records, err := event.QueryScheduleEvents(event.ScheduleEventQuery{ProjectID: 1},
			testinfra.BuildSecCtx(10, "manager_1"))
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0].Title).To(Equal("mine"))
	})
}

func TestDeleteScheduleEvent(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("permission is checked against the event's own project", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		r := buildEvent("kickoff",
			types.TimestampOfDate(2025, 3, 1, 9, 0, 0, 0, time.UTC),
			types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.UTC))

		err := event.DeleteScheduleEvent(r.ID, testinfra.BuildSecCtx(10, "manager_999"))
		Expect(err).To(Equal(bizerror.ErrForbidden))

		count := 0
		Expect(persistence.ActiveDataSourceManager.GormDB(nil).Model(&event.ScheduleEvent{}).Count(&count).Error).To(BeNil())
		Expect(count).To(Equal(1))
	})

	t.Run("should be able to delete schedule event", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		r := buildEvent("kickoff",
			types.TimestampOfDate(2025, 3, 1, 9, 0, 0, 0, time.UTC),
			types.TimestampOfDate(2025, 3, 1, 10, 0, 0, 0, time.UTC))

		Expect(event.DeleteScheduleEvent(r.ID, testinfra.BuildSecCtx(10, "manager_1"))).To(BeNil())

		count := 0
		Expect(persistence.ActiveDataSourceManager.GormDB(nil).Model(&event.ScheduleEvent{}).Count(&count).Error).To(BeNil())
		Expect(count).To(BeZero())

		err := event.DeleteScheduleEvent(r.ID, testinfra.BuildSecCtx(10, "manager_1"))
		Expect(err).To(Equal(gorm.ErrRecordNotFound))
	})
}
