package graphql

import (
	"fmt"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
	"github.com/sirupsen/logrus"

	"github.com/devplatform/ldap-console/internal/prometheus"
)

// Schema represents the GraphQL schema
type Schema struct {
	schema graphql.Schema
	svc    prometheus.DirectoryInterface
	logger *logrus.Logger
}

// NewSchema creates a new GraphQL schema
func NewSchema(svc prometheus.DirectoryInterface, logger *logrus.Logger) (*Schema, error) {
	s := &Schema{
		svc:    svc,
		logger: logger,
	}

	// Define types
	nodeType := s.defineNodeType()
	clusterType := s.defineClusterType(nodeType)
	connectResultType := s.defineConnectResultType()
	entryType := s.defineEntryType()
	statsType := s.defineStatsType()
	healthType := s.defineHealthType()
	activityType := s.defineActivityType()
	clusterMetricsType := s.defineClusterMetricsType()

	// Define paginated types
	paginatedEntriesType := s.definePaginatedEntriesType(entryType)

	// Define enums
	categoryEnum := s.defineCategoryEnum()

	clusterArg := graphql.FieldConfigArgument{
		"cluster": &graphql.ArgumentConfig{
			Type: graphql.NewNonNull(graphql.String),
		},
	}

	// Define root query
	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"clusters": &graphql.Field{
				Type:    graphql.NewList(clusterType),
				Resolve: s.resolveClusters,
			},
			"credentialCached": &graphql.Field{
				Type:    graphql.Boolean,
				Args:    clusterArg,
				Resolve: s.resolveCredentialCached,
			},
			"entries": &graphql.Field{
				Type: paginatedEntriesType,
				Args: graphql.FieldConfigArgument{
					"cluster": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
					"category": &graphql.ArgumentConfig{
						Type:         categoryEnum,
						DefaultValue: "all",
						Description:  "Restrict the listing to one kind of entry",
					},
					"search": &graphql.ArgumentConfig{
						Type:        graphql.String,
						Description: "Substring matched against uid, cn, mail and sn",
					},
					"page": &graphql.ArgumentConfig{
						Type:         graphql.Int,
						DefaultValue: 1,
						Description:  "Page number, starting at 1",
					},
					"pageSize": &graphql.ArgumentConfig{
						Type:         graphql.Int,
						DefaultValue: 10,
						Description:  "Number of entries per page",
					},
				},
				Resolve: s.resolveEntries,
			},
			"stats": &graphql.Field{
				Type:    statsType,
				Args:    clusterArg,
				Resolve: s.resolveStats,
			},
			"health": &graphql.Field{
				Type:    healthType,
				Args:    clusterArg,
				Resolve: s.resolveHealth,
			},
			"activity": &graphql.Field{
				Type:    graphql.NewList(activityType),
				Args:    clusterArg,
				Resolve: s.resolveActivity,
			},
			"nodeMetrics": &graphql.Field{
				Type:    clusterMetricsType,
				Args:    clusterArg,
				Resolve: s.resolveNodeMetrics,
			},
		},
	})

	// Define root mutation
	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"connect": &graphql.Field{
				Type: connectResultType,
				Args: graphql.FieldConfigArgument{
					"cluster": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
					"password": &graphql.ArgumentConfig{
						Type:         graphql.String,
						DefaultValue: "",
					},
				},
				Resolve: s.resolveConnect,
			},
		},
	})

	// Create schema
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s.schema = schema
	return s, nil
}

// GetSchema returns the GraphQL schema
func (s *Schema) GetSchema() graphql.Schema {
	return s.schema
}

// Handler serves the schema over HTTP. GraphiQL is enabled in development.
func (s *Schema) Handler(graphiql bool) http.Handler {
	return handler.New(&handler.Config{
		Schema:   &s.schema,
		Pretty:   true,
		GraphiQL: graphiql,
	})
}
