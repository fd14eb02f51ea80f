package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/devplatform/ldap-console/internal/models"
)

// defineNodeType defines the Node GraphQL type
func (s *Schema) defineNodeType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Node",
		Fields: graphql.Fields{
			"host": &graphql.Field{Type: graphql.String},
			"port": &graphql.Field{Type: graphql.Int},
		},
	})
}

// defineClusterType defines the Cluster GraphQL type
func (s *Schema) defineClusterType(nodeType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Cluster",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"host":        &graphql.Field{Type: graphql.String},
			"port":        &graphql.Field{Type: graphql.Int},
			"nodes":       &graphql.Field{Type: graphql.NewList(nodeType)},
			"base_dn":     &graphql.Field{Type: graphql.String},
			"bind_dn":     &graphql.Field{Type: graphql.String},
			"readonly":    &graphql.Field{Type: graphql.Boolean},
			"description": &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{
				Type:        graphql.String,
				Description: "host:port for single-host clusters, node count otherwise",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if c, ok := p.Source.(models.Cluster); ok {
						return c.Location(), nil
					}
					return nil, nil
				},
			},
		},
	})
}

// defineConnectResultType defines the ConnectResult GraphQL type
func (s *Schema) defineConnectResultType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "ConnectResult",
		Fields: graphql.Fields{
			"status":  &graphql.Field{Type: graphql.String},
			"message": &graphql.Field{Type: graphql.String},
			"base_dn": &graphql.Field{Type: graphql.String},
		},
	})
}

// ============================================================================
// CLUSTER RESOLVERS
// ============================================================================

func (s *Schema) resolveClusters(p graphql.ResolveParams) (interface{}, error) {
	return s.svc.ListClusters(p.Context)
}

func (s *Schema) resolveCredentialCached(p graphql.ResolveParams) (interface{}, error) {
	return s.svc.CredentialCached(p.Context, p.Args["cluster"].(string))
}

func (s *Schema) resolveConnect(p graphql.ResolveParams) (interface{}, error) {
	cluster := p.Args["cluster"].(string)
	password, _ := p.Args["password"].(string)

	res, err := s.svc.Connect(p.Context, cluster, password)
	if err != nil {
		s.logger.WithError(err).WithField("cluster", cluster).Warn("Connect failed")
		return nil, err
	}
	return res, nil
}
