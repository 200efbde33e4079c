package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// graphql-go resolves fields by json tag but does not look into embedded
// structs, so domain values are flattened into maps first.

func summaryFields(s domain.ComponentSummary) map[string]interface{} {
	return map[string]interface{}{
		"component":  string(s.Component),
		"name":       s.Name,
		"num_points": s.NumPoints,
		"length":     s.Length,
		"loop":       s.Loop,
	}
}

func documentFields(id string, doc *domain.Document) map[string]interface{} {
	routes := make([]map[string]interface{}, 0, len(doc.Routes))
	for _, r := range doc.Routes {
		routes = append(routes, summaryFields(r.Summary()))
	}
	tracks := make([]map[string]interface{}, 0, len(doc.Tracks))
	for _, t := range doc.Tracks {
		tracks = append(tracks, summaryFields(t.Summary()))
	}
	return map[string]interface{}{
		"id":            id,
		"version":       doc.Version,
		"creator":       doc.Creator,
		"num_waypoints": doc.NumWaypoints(),
		"num_routes":    doc.NumRoutes(),
		"num_tracks":    doc.NumTracks(),
		"waypoints":     doc.Waypoints,
		"routes":        routes,
		"tracks":        tracks,
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	waypointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Waypoint",
		Fields: graphql.Fields{
			"lat":  &graphql.Field{Type: graphql.Float},
			"lon":  &graphql.Field{Type: graphql.Float},
			"name": &graphql.Field{Type: graphql.String},
		},
	})

	componentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Component",
		Fields: graphql.Fields{
			"component":  &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"num_points": &graphql.Field{Type: graphql.Int},
			"length":     &graphql.Field{Type: graphql.Float, Description: "Length in metres"},
			"loop":       &graphql.Field{Type: graphql.Boolean},
		},
	})

	documentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Document",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"version":       &graphql.Field{Type: graphql.Float},
			"creator":       &graphql.Field{Type: graphql.String},
			"num_waypoints": &graphql.Field{Type: graphql.Int},
			"num_routes":    &graphql.Field{Type: graphql.Int},
			"num_tracks":    &graphql.Field{Type: graphql.Int},
			"waypoints":     &graphql.Field{Type: graphql.NewList(waypointType)},
			"routes":        &graphql.Field{Type: graphql.NewList(componentType)},
			"tracks":        &graphql.Field{Type: graphql.NewList(componentType)},
		},
	})

	pathMatchType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PathMatch",
		Fields: graphql.Fields{
			"source_document": &graphql.Field{Type: graphql.String},
			"component":       &graphql.Field{Type: graphql.String},
			"name":            &graphql.Field{Type: graphql.String},
			"num_points":      &graphql.Field{Type: graphql.Int},
			"length":          &graphql.Field{Type: graphql.Float},
			"loop":            &graphql.Field{Type: graphql.Boolean},
		},
	})

	mirrorStatusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MirrorStatus",
		Fields: graphql.Fields{
			"files":  &graphql.Field{Type: graphql.Int},
			"routes": &graphql.Field{Type: graphql.Int},
			"points": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"documents": &graphql.Field{
				Type:        graphql.NewList(documentType),
				Description: "Every parsable document in the corpus",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					docs, err := deps.Corpus.ListDocuments(p.Context)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(docs))
					for _, nd := range docs {
						out = append(out, documentFields(nd.ID, nd.Document))
					}
					return out, nil
				},
			},
			"document": &graphql.Field{
				Type:        documentType,
				Description: "A single document by identifier",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					doc, err := deps.Corpus.GetDocument(p.Context, id)
					if err != nil {
						return nil, err
					}
					return documentFields(id, doc), nil
				},
			},
			"findPaths": &graphql.Field{
				Type:        graphql.NewList(pathMatchType),
				Description: "Routes and tracks connecting two points within delta metres",
				Args: graphql.FieldConfigArgument{
					"src_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"src_lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"dst_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"dst_lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"delta":   &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					src := domain.GeoPoint{Lat: p.Args["src_lat"].(float64), Lon: p.Args["src_lon"].(float64)}
					dst := domain.GeoPoint{Lat: p.Args["dst_lat"].(float64), Lon: p.Args["dst_lon"].(float64)}
					matches, err := deps.Corpus.SearchCorpus(p.Context, src, dst, p.Args["delta"].(float64))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(matches))
					for _, m := range matches {
						f := summaryFields(m.ComponentSummary)
						f["source_document"] = m.SourceDocument
						out = append(out, f)
					}
					return out, nil
				},
			},
			"mirrorStatus": &graphql.Field{
				Type:        mirrorStatusType,
				Description: "Row counts of the relational mirror",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Mirror == nil {
						return nil, nil
					}
					return deps.Mirror.Status(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
