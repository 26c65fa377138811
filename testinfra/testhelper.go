package testinfra

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"

	"backdesk/authority"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSecCtx builds a security context with the given permissions, e.g.
// "manager_100" for the manager role of project 100.
func BuildSecCtx(uid types.ID, perms ...string) *session.Session {
	projectRoles := authority.ProjectRoles{}
	for _, perm := range perms {
		idx := strings.LastIndex(perm, "_")
		if idx > 0 {
			role := perm[0:idx]
			projectId, err := types.ParseID(perm[idx+1:])
			if err != nil {
				continue
			}
			projectRoles = append(projectRoles, authority.ProjectRole{ProjectID: projectId, Role: role})
		}
	}

	return &session.Session{Token: "test-token", Identity: session.Identity{ID: uid}, Perms: perms, ProjectRoles: projectRoles}
}

// ExecuteRequest runs a request against the router and returns status, body
// and headers.
func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, http.Header) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	bodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}
	return resp.StatusCode, string(bodyBytes), resp.Header
}
