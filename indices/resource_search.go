package indices

import (
	"encoding/json"

	"backdesk/client/es"
	"backdesk/session"

	"github.com/fundwit/go-commons/types"
)

var SearchResourcesFunc = SearchResources

type ResourceSearchQuery struct {
	ProjectID types.ID `binding:"required" json:"projectId" form:"projectId"`

	Name     string `json:"name" form:"name"`
	Category string `json:"category" form:"category"`
}

func SearchResources(q ResourceSearchQuery, s *session.Session) ([]ResourceDoc, error) {
	visibleProjects := s.VisibleProjects()
	if len(visibleProjects) == 0 {
		return []ResourceDoc{}, nil
	}

	filters := make([]es.H, 0, 4)
	filters = append(filters, es.H{"term": es.H{"projectId": q.ProjectID}})
	filters = append(filters, es.H{"terms": es.H{"projectId": visibleProjects}})
	if q.Name != "" {
		filters = append(filters, es.H{"match": es.H{"name": es.H{"query": q.Name, "operator": "AND"}}})
	}
	if q.Category != "" {
		filters = append(filters, es.H{"term": es.H{"category": q.Category}})
	}

	sorts := []es.H{{"id": es.H{"order": "asc"}}}
	root := es.H{"bool": es.H{"filter": filters}}
	r, err := es.SearchFunc(ResourceIndexName, es.H{"size": 10000, "query": root, "sort": sorts}, s)
	if err != nil {
		return nil, err
	}

	docs := make([]ResourceDoc, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		doc := ResourceDoc{}
		if err := json.Unmarshal([]byte(hit.Source), &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
