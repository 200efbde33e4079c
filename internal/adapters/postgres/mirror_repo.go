package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// routeOrderClause whitelists ORDER BY clauses; user input never reaches SQL text.
var routeOrderClause = map[domain.RouteOrder]string{
	domain.OrderByName:   "name, file_id, position",
	domain.OrderByLength: "length, file_id, position",
}

// MirrorRepo implements ports.MirrorRepository with pgx.
type MirrorRepo struct {
	db *DB
}

// NewMirrorRepo creates a new MirrorRepo.
func NewMirrorRepo(db *DB) *MirrorRepo {
	return &MirrorRepo{db: db}
}

// StoreDocument replaces the rows of one document inside a transaction.
func (r *MirrorRepo) StoreDocument(ctx context.Context, id string, doc *domain.Document) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM gpx_files WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete file rows: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO gpx_files (id, version, creator, namespace, num_waypoints)
		VALUES ($1, $2, $3, $4, $5)
	`, id, doc.Version, doc.Creator, doc.Namespace, doc.NumWaypoints()); err != nil {
		return fmt.Errorf("insert file: %w", err)
	}

	batch := &pgx.Batch{}
	queued := 0
	for pos, c := range doc.Components() {
		s := c.Summary()
		var routeID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO gpx_routes (file_id, kind, position, name, num_points, length, loop)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING route_id
		`, id, string(c.Kind), pos, c.Name, s.NumPoints, s.Length, s.Loop).Scan(&routeID)
		if err != nil {
			return fmt.Errorf("insert %s %d: %w", c.Kind, pos, err)
		}
		for i, p := range c.Points {
			batch.Queue(`
				INSERT INTO gpx_points (route_id, point_index, lat, lon, name)
				VALUES ($1, $2, $3, $4, $5)
			`, routeID, i, p.Lat, p.Lon, p.Name)
			queued++
		}
	}

	if queued > 0 {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < queued; i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("batch exec: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("batch close: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Clear removes every mirrored row.
func (r *MirrorRepo) Clear(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `TRUNCATE gpx_points, gpx_routes, gpx_files`)
	return err
}

func (r *MirrorRepo) Status(ctx context.Context) (domain.MirrorStatus, error) {
	var st domain.MirrorStatus
	err := r.db.Pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM gpx_files),
		       (SELECT COUNT(*) FROM gpx_routes),
		       (SELECT COUNT(*) FROM gpx_points)
	`).Scan(&st.Files, &st.Routes, &st.Points)
	return st, err
}

func (r *MirrorRepo) ListRoutes(ctx context.Context, order domain.RouteOrder) ([]domain.MirrorRoute, error) {
	clause, ok := routeOrderClause[order]
	if !ok {
		return nil, fmt.Errorf("%w: order %q", domain.ErrInvalidArgument, order)
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT route_id, file_id, kind, name, num_points, length, loop
		FROM gpx_routes
		ORDER BY `+clause)
	if err != nil {
		return nil, err
	}
	return scanRoutes(rows)
}

func (r *MirrorRepo) ListRoutesByDocument(ctx context.Context, documentID string, order domain.RouteOrder) ([]domain.MirrorRoute, error) {
	clause, ok := routeOrderClause[order]
	if !ok {
		return nil, fmt.Errorf("%w: order %q", domain.ErrInvalidArgument, order)
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT route_id, file_id, kind, name, num_points, length, loop
		FROM gpx_routes
		WHERE file_id = $1
		ORDER BY `+clause, documentID)
	if err != nil {
		return nil, err
	}
	return scanRoutes(rows)
}

func (r *MirrorRepo) PointsByRouteName(ctx context.Context, name string) ([]domain.MirrorPoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT p.route_id, r.name, p.point_index, p.lat, p.lon, p.name
		FROM gpx_points p
		JOIN gpx_routes r ON r.route_id = p.route_id
		WHERE r.name = $1
		ORDER BY r.file_id, r.position, p.point_index
	`, name)
	if err != nil {
		return nil, err
	}
	return scanPoints(rows)
}

func (r *MirrorRepo) PointsByDocument(ctx context.Context, documentID string) ([]domain.MirrorPoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT p.route_id, r.name, p.point_index, p.lat, p.lon, p.name
		FROM gpx_points p
		JOIN gpx_routes r ON r.route_id = p.route_id
		WHERE r.file_id = $1
		ORDER BY r.position, p.point_index
	`, documentID)
	if err != nil {
		return nil, err
	}
	return scanPoints(rows)
}

func scanRoutes(rows pgx.Rows) ([]domain.MirrorRoute, error) {
	defer rows.Close()
	routes := []domain.MirrorRoute{}
	for rows.Next() {
		var (
			m    domain.MirrorRoute
			kind string
		)
		if err := rows.Scan(&m.ID, &m.DocumentID, &kind, &m.Name, &m.NumPoints, &m.Length, &m.Loop); err != nil {
			return nil, err
		}
		m.Component = domain.ComponentKind(kind)
		routes = append(routes, m)
	}
	return routes, rows.Err()
}

func scanPoints(rows pgx.Rows) ([]domain.MirrorPoint, error) {
	defer rows.Close()
	points := []domain.MirrorPoint{}
	for rows.Next() {
		var p domain.MirrorPoint
		if err := rows.Scan(&p.RouteID, &p.RouteName, &p.Index, &p.Lat, &p.Lon, &p.Name); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
