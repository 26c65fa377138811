package resource_test

import (
	"bytes"
	"errors"
	"io"
	"io/ioutil"
	"strings"
	"testing"

	"backdesk/bizerror"
	"backdesk/client/oss"
	"backdesk/domain/resource"
	"backdesk/persistence"
	"backdesk/session"
	"backdesk/testinfra"

	aliyun "github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("backdesk")
	*testDatabase = db
	Expect(db.DS.GormDB(nil).AutoMigrate(&resource.Resource{}).Error).To(BeNil())

	persistence.ActiveDataSourceManager = db.DS

	oss.PutObjectFunc = func(key string, r io.Reader, s *session.Session, opts ...aliyun.Option) error {
		return nil
	}
	oss.GetObjectFunc = func(key string, s *session.Session, opts ...aliyun.Option) (io.ReadCloser, error) {
		return ioutil.NopCloser(strings.NewReader("blob of " + key)), nil
	}
	resource.IndexResourceFuncs = nil
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func buildResource(name, category string) *resource.Resource {
	r, err := resource.CreateResourceFunc(resource.ResourceCreation{ProjectID: 1, Name: name, Category: category,
		ContentType: "text/plain", Size: 4}, strings.NewReader("data"), testinfra.BuildSecCtx(10, "manager_1"))
	Expect(err).To(BeNil())
	return r
}

func TestCreateResource(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("only project member has permission to create resource", func(t *testing.T) {
		r, err := resource.CreateResource(resource.ResourceCreation{ProjectID: 1, Name: "price list"},
			strings.NewReader("data"), testinfra.BuildSecCtx(10, "manager_999"))
		Expect(r).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should store the object under a key derived from the new id", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		var storedKey string
		var storedContent []byte
		oss.PutObjectFunc = func(key string, r io.Reader, s *session.Session, opts ...aliyun.Option) error {
			storedKey = key
			storedContent, _ = ioutil.ReadAll(r)
			return nil
		}

		r, err := resource.CreateResource(resource.ResourceCreation{ProjectID: 1, Name: "price list",
			Category: "doc", ContentType: "text/plain", Size: 4},
			bytes.NewReader([]byte("data")), testinfra.BuildSecCtx(10, "manager_1"))
		Expect(err).To(BeNil())
		Expect(r.ObjectKey).To(Equal("resources/" + r.ID.String()))
		Expect(storedKey).To(Equal(r.ObjectKey))
		Expect(storedContent).To(Equal([]byte("data")))

		stored := resource.Resource{}
		Expect(persistence.ActiveDataSourceManager.GormDB(nil).Where("id = ?", r.ID).First(&stored).Error).To(BeNil())
		Expect(stored.Name).To(Equal("price list"))
		Expect(stored.ObjectKey).To(Equal(r.ObjectKey))
		Expect(stored.CreatorID).To(Equal(types.ID(10)))
	})

	t.Run("no row is persisted when the object store rejects the blob", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		oss.PutObjectFunc = func(key string, r io.Reader, s *session.Session, opts ...aliyun.Option) error {
			return errors.New("bucket unavailable")
		}

		r, err := resource.CreateResource(resource.ResourceCreation{ProjectID: 1, Name: "price list"},
			strings.NewReader("data"), testinfra.BuildSecCtx(10, "manager_1"))
		Expect(r).To(BeNil())
		Expect(err).To(MatchError("bucket unavailable"))

		count := 0
		Expect(persistence.ActiveDataSourceManager.GormDB(nil).Model(&resource.Resource{}).Count(&count).Error).To(BeNil())
		Expect(count).To(BeZero())
	})

	t.Run("indexers receive the stored resource and their failures do not fail the creation", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		indexed := []resource.Resource{}
		resource.IndexResourceFuncs = []func(r resource.Resource, s *session.Session) error{
			func(r resource.Resource, s *session.Session) error {
				indexed = append(indexed, r)
				return nil
			},
			func(r resource.Resource, s *session.Session) error {
				return errors.New("search cluster down")
			},
		}

		r, err := resource.CreateResource(resource.ResourceCreation{ProjectID: 1, Name: "price list"},
			strings.NewReader("data"), testinfra.BuildSecCtx(10, "manager_1"))
		Expect(err).To(BeNil())
		Expect(indexed).To(Equal([]resource.Resource{*r}))

		count := 0
		Expect(persistence.ActiveDataSourceManager.GormDB(nil).Model(&resource.Resource{}).Count(&count).Error).To(BeNil())
		Expect(count).To(Equal(1))
	})
}

func TestQueryResources(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("only project member has permission to query resources", func(t *testing.T) {
		records, err := resource.QueryResources(resource.ResourceQuery{ProjectID: 1},
			testinfra.BuildSecCtx(10, "manager_999"))
		Expect(records).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should filter by project and optionally by category", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		doc := buildResource("price list", "doc")
		img := buildResource("banner", "image")
		_, err := resource.CreateResource(resource.ResourceCreation{ProjectID: 2, Name: "theirs"},
			strings.NewReader("data"), testinfra.BuildSecCtx(10, "manager_2"))
		Expect(err).To(BeNil())

		s := testinfra.BuildSecCtx(10, "manager_1")
		records, err := resource.QueryResources(resource.ResourceQuery{ProjectID: 1}, s)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(2))
		Expect(records[0].ID).To(Equal(doc.ID))
		Expect(records[1].ID).To(Equal(img.ID))

		records, err = resource.QueryResources(resource.ResourceQuery{ProjectID: 1, Category: "image"}, s)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0].ID).To(Equal(img.ID))
	})
}

func TestDownloadResource(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should stream the blob of an accessible resource", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		r := buildResource("price list", "doc")

		reader, found, err := resource.DownloadResource(r.ID, testinfra.BuildSecCtx(10, "manager_1"))
		Expect(err).To(BeNil())
		Expect(found.ID).To(Equal(r.ID))
		content, _ := ioutil.ReadAll(reader)
		Expect(reader.Close()).To(BeNil())
		Expect(string(content)).To(Equal("blob of " + r.ObjectKey))
	})

	t.Run("permission is checked against the resource's own project", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		r := buildResource("price list", "doc")

		reader, found, err := resource.DownloadResource(r.ID, testinfra.BuildSecCtx(10, "manager_999"))
		Expect(reader).To(BeNil())
		Expect(found).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should report not found for unknown resource", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		_, _, err := resource.DownloadResource(404, testinfra.BuildSecCtx(10, "manager_1"))
		Expect(err).To(MatchError("Resource with id 404 not found"))
	})
}

func TestDeleteResource(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should remove the row only", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		r := buildResource("price list", "doc")

		Expect(resource.DeleteResource(r.ID, testinfra.BuildSecCtx(10, "manager_1"))).To(BeNil())

		count := 0
		Expect(persistence.ActiveDataSourceManager.GormDB(nil).Model(&resource.Resource{}).Count(&count).Error).To(BeNil())
		Expect(count).To(BeZero())

		// the blob stays reachable in the object store
		reader, err := oss.GetObjectFunc(r.ObjectKey, nil)
		Expect(err).To(BeNil())
		Expect(reader.Close()).To(BeNil())
	})

	t.Run("permission is checked against the resource's own project", func(t *testing.T) {
		setup(t, &testDatabase)
		defer teardown(t, testDatabase)

		r := buildResource("price list", "doc")

		Expect(resource.DeleteResource(r.ID, testinfra.BuildSecCtx(10, "manager_999"))).To(Equal(bizerror.ErrForbidden))

		count := 0
		Expect(persistence.ActiveDataSourceManager.GormDB(nil).Model(&resource.Resource{}).Count(&count).Error).To(BeNil())
		Expect(count).To(Equal(1))
	})
}
