package graphql

import (
	"github.com/graphql-go/graphql"
)

// defineStatsType defines the Stats GraphQL type
func (s *Schema) defineStatsType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Stats",
		Fields: graphql.Fields{
			"total":  &graphql.Field{Type: graphql.Int},
			"users":  &graphql.Field{Type: graphql.Int},
			"groups": &graphql.Field{Type: graphql.Int},
			"window": &graphql.Field{Type: graphql.Int},
			"exact": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "False when the window was filled and the directory may hold more entries",
			},
		},
	})
}

// defineHealthType defines the Health GraphQL type
func (s *Schema) defineHealthType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Health",
		Fields: graphql.Fields{
			"status":       &graphql.Field{Type: graphql.String},
			"responseTime": &graphql.Field{Type: graphql.String},
			"connections":  &graphql.Field{Type: graphql.String},
			"operations":   &graphql.Field{Type: graphql.Int},
			"contextCSN":   &graphql.Field{Type: graphql.String},
			"error":        &graphql.Field{Type: graphql.String},
		},
	})
}

// defineActivityType defines the ActivityRecord GraphQL type
func (s *Schema) defineActivityType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "ActivityRecord",
		Fields: graphql.Fields{
			"timestamp": &graphql.Field{Type: graphql.String},
			"client":    &graphql.Field{Type: graphql.String},
			"operation": &graphql.Field{Type: graphql.String},
			"dn":        &graphql.Field{Type: graphql.String},
			"filter":    &graphql.Field{Type: graphql.String},
		},
	})
}

// defineClusterMetricsType defines the ClusterMetrics GraphQL type
func (s *Schema) defineClusterMetricsType() *graphql.Object {
	nodeMetrics := graphql.NewObject(graphql.ObjectConfig{
		Name: "NodeMetrics",
		Fields: graphql.Fields{
			"node":        &graphql.Field{Type: graphql.String},
			"port":        &graphql.Field{Type: graphql.Int},
			"status":      &graphql.Field{Type: graphql.String},
			"entry_count": &graphql.Field{Type: graphql.Int},
			"contextCSN":  &graphql.Field{Type: graphql.String},
			"error":       &graphql.Field{Type: graphql.String},
		},
	})

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "ClusterMetrics",
		Fields: graphql.Fields{
			"nodes":          &graphql.Field{Type: graphql.NewList(nodeMetrics)},
			"cluster_status": &graphql.Field{Type: graphql.String},
			"in_sync":        &graphql.Field{Type: graphql.Boolean},
		},
	})
}

// ============================================================================
// COMMON RESOLVERS (Stats, Health, Activity, Node metrics)
// ============================================================================

func (s *Schema) resolveStats(p graphql.ResolveParams) (interface{}, error) {
	return s.svc.Stats(p.Context, p.Args["cluster"].(string))
}

func (s *Schema) resolveHealth(p graphql.ResolveParams) (interface{}, error) {
	return s.svc.Health(p.Context, p.Args["cluster"].(string))
}

func (s *Schema) resolveActivity(p graphql.ResolveParams) (interface{}, error) {
	return s.svc.Activity(p.Context, p.Args["cluster"].(string))
}

func (s *Schema) resolveNodeMetrics(p graphql.ResolveParams) (interface{}, error) {
	return s.svc.NodeMetrics(p.Context, p.Args["cluster"].(string))
}
