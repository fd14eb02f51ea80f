package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/devplatform/ldap-console/internal/directory"
	"github.com/devplatform/ldap-console/internal/models"
)

type attributeView struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type entryView struct {
	DN            string                  `json:"dn"`
	Category      string                  `json:"category"`
	ObjectClasses []string                `json:"objectClasses"`
	Attributes    []attributeView         `json:"attributes"`
	User          *directory.UserSummary  `json:"user"`
	Group         *directory.GroupSummary `json:"group"`
	Unit          *directory.UnitSummary  `json:"unit"`
	Summary       directory.EntrySummary  `json:"summary"`
}

type entriesPage struct {
	Entries  []entryView `json:"entries"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
	HasMore  bool        `json:"hasMore"`
}

// defineCategoryEnum defines the Category GraphQL enum, valued with filter_type strings
func (s *Schema) defineCategoryEnum() *graphql.Enum {
	return graphql.NewEnum(graphql.EnumConfig{
		Name: "Category",
		Values: graphql.EnumValueConfigMap{
			"ALL":                  &graphql.EnumValueConfig{Value: "all"},
			"USERS":                &graphql.EnumValueConfig{Value: models.User.FilterType()},
			"GROUPS":               &graphql.EnumValueConfig{Value: models.Group.FilterType()},
			"ORGANIZATIONAL_UNITS": &graphql.EnumValueConfig{Value: models.OrganizationalUnit.FilterType()},
		},
	})
}

// defineEntryType defines the Entry GraphQL type with its per-category summaries
func (s *Schema) defineEntryType() *graphql.Object {
	attributeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Attribute",
		Fields: graphql.Fields{
			"name":   &graphql.Field{Type: graphql.String},
			"values": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	badgeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Badge",
		Fields: graphql.Fields{
			"label": &graphql.Field{Type: graphql.String},
			"kind":  &graphql.Field{Type: graphql.String},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "UserSummary",
		Fields: graphql.Fields{
			"username":  &graphql.Field{Type: graphql.String},
			"fullName":  &graphql.Field{Type: graphql.String},
			"email":     &graphql.Field{Type: graphql.String},
			"detail":    &graphql.Field{Type: graphql.String},
			"subDetail": &graphql.Field{Type: graphql.String},
			"badges":    &graphql.Field{Type: graphql.NewList(badgeType)},
		},
	})

	groupType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GroupSummary",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"memberCount": &graphql.Field{Type: graphql.Int},
			"memberLabel": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					switch g := p.Source.(type) {
					case *directory.GroupSummary:
						return g.MemberLabel(), nil
					case directory.GroupSummary:
						return g.MemberLabel(), nil
					}
					return nil, nil
				},
			},
		},
	})

	unitType := graphql.NewObject(graphql.ObjectConfig{
		Name: "UnitSummary",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
		},
	})

	summaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "EntrySummary",
		Fields: graphql.Fields{
			"objectClass": &graphql.Field{Type: graphql.String},
			"preview":     &graphql.Field{Type: graphql.String},
		},
	})

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Entry",
		Fields: graphql.Fields{
			"dn":            &graphql.Field{Type: graphql.String},
			"category":      &graphql.Field{Type: graphql.String},
			"objectClasses": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"attributes":    &graphql.Field{Type: graphql.NewList(attributeType)},
			"user":          &graphql.Field{Type: userType},
			"group":         &graphql.Field{Type: groupType},
			"unit":          &graphql.Field{Type: unitType},
			"summary":       &graphql.Field{Type: summaryType},
		},
	})
}

// definePaginatedEntriesType defines the PaginatedEntries GraphQL type
func (s *Schema) definePaginatedEntriesType(entryType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "PaginatedEntries",
		Fields: graphql.Fields{
			"entries": &graphql.Field{
				Type:        graphql.NewList(entryType),
				Description: "Entries on this page",
			},
			"total": &graphql.Field{
				Type:        graphql.Int,
				Description: "Total number of matching entries",
			},
			"page": &graphql.Field{
				Type:        graphql.Int,
				Description: "Current page number",
			},
			"pageSize": &graphql.Field{
				Type:        graphql.Int,
				Description: "Items per page",
			},
			"hasMore": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Whether a further page exists",
			},
		},
	})
}

// ============================================================================
// ENTRY RESOLVERS
// ============================================================================

func (s *Schema) resolveEntries(p graphql.ResolveParams) (interface{}, error) {
	category, err := models.ParseCategoryFilter(p.Args["category"].(string))
	if err != nil {
		return nil, err
	}
	search, _ := p.Args["search"].(string)

	res, err := s.svc.Search(p.Context, models.SearchQuery{
		Cluster:    p.Args["cluster"].(string),
		Category:   category,
		SearchText: search,
		Page:       p.Args["page"].(int),
		PageSize:   p.Args["pageSize"].(int),
	})
	if err != nil {
		return nil, err
	}

	classifier := s.svc.Classifier()
	page := entriesPage{
		Entries:  make([]entryView, 0, len(res.Entries)),
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
		HasMore:  res.HasMore,
	}
	for _, e := range res.Entries {
		page.Entries = append(page.Entries, toEntryView(classifier, e))
	}
	return page, nil
}

func toEntryView(c *directory.Classifier, e models.DirectoryEntry) entryView {
	summary := c.Summarize(e)

	attrs := make([]attributeView, 0, len(e.Attributes))
	for _, name := range e.AttributeNames() {
		if v := e.Get(name); v.IsPresent() {
			attrs = append(attrs, attributeView{Name: name, Values: v.Values()})
		}
	}

	return entryView{
		DN:            e.DN,
		Category:      summary.Category.String(),
		ObjectClasses: e.ObjectClasses(),
		Attributes:    attrs,
		User:          summary.User,
		Group:         summary.Group,
		Unit:          summary.Unit,
		Summary:       summary.Entry,
	}
}
