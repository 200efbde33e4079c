package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

var routeOrderClause = map[domain.RouteOrder]string{
	domain.OrderByName:   "name, file_id, position",
	domain.OrderByLength: "length, file_id, position",
}

// MirrorRepo implements ports.MirrorRepository on SQLite.
type MirrorRepo struct {
	db *DB
}

// NewMirrorRepo creates a new MirrorRepo.
func NewMirrorRepo(db *DB) *MirrorRepo {
	return &MirrorRepo{db: db}
}

func (r *MirrorRepo) StoreDocument(ctx context.Context, id string, doc *domain.Document) error {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM gpx_files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete file rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO gpx_files (id, version, creator, namespace, num_waypoints)
		VALUES (?, ?, ?, ?, ?)
	`, id, doc.Version, doc.Creator, doc.Namespace, doc.NumWaypoints()); err != nil {
		return fmt.Errorf("insert file: %w", err)
	}

	insertPoint, err := tx.PrepareContext(ctx, `
		INSERT INTO gpx_points (route_id, point_index, lat, lon, name)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare point insert: %w", err)
	}
	defer insertPoint.Close()

	for pos, c := range doc.Components() {
		s := c.Summary()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO gpx_routes (file_id, kind, position, name, num_points, length, loop)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, string(c.Kind), pos, c.Name, s.NumPoints, s.Length, s.Loop)
		if err != nil {
			return fmt.Errorf("insert %s %d: %w", c.Kind, pos, err)
		}
		routeID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("route id: %w", err)
		}
		for i, p := range c.Points {
			if _, err := insertPoint.ExecContext(ctx, routeID, i, p.Lat, p.Lon, p.Name); err != nil {
				return fmt.Errorf("insert point %d: %w", i, err)
			}
		}
	}
	return tx.Commit()
}

func (r *MirrorRepo) Clear(ctx context.Context) error {
	// child tables first; SQLite has no TRUNCATE
	for _, table := range []string{"gpx_points", "gpx_routes", "gpx_files"} {
		if _, err := r.db.SQL.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func (r *MirrorRepo) Status(ctx context.Context) (domain.MirrorStatus, error) {
	var st domain.MirrorStatus
	err := r.db.SQL.QueryRowContext(ctx, `
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
	rows, err := r.db.SQL.QueryContext(ctx, `
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
	rows, err := r.db.SQL.QueryContext(ctx, `
		SELECT route_id, file_id, kind, name, num_points, length, loop
		FROM gpx_routes
		WHERE file_id = ?
		ORDER BY `+clause, documentID)
	if err != nil {
		return nil, err
	}
	return scanRoutes(rows)
}

func (r *MirrorRepo) PointsByRouteName(ctx context.Context, name string) ([]domain.MirrorPoint, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `
		SELECT p.route_id, r.name, p.point_index, p.lat, p.lon, p.name
		FROM gpx_points p
		JOIN gpx_routes r ON r.route_id = p.route_id
		WHERE r.name = ?
		ORDER BY r.file_id, r.position, p.point_index
	`, name)
	if err != nil {
		return nil, err
	}
	return scanPoints(rows)
}

func (r *MirrorRepo) PointsByDocument(ctx context.Context, documentID string) ([]domain.MirrorPoint, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `
		SELECT p.route_id, r.name, p.point_index, p.lat, p.lon, p.name
		FROM gpx_points p
		JOIN gpx_routes r ON r.route_id = p.route_id
		WHERE r.file_id = ?
		ORDER BY r.position, p.point_index
	`, documentID)
	if err != nil {
		return nil, err
	}
	return scanPoints(rows)
}

func scanRoutes(rows *sql.Rows) ([]domain.MirrorRoute, error) {
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

func scanPoints(rows *sql.Rows) ([]domain.MirrorPoint, error) {
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
