package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/gpxcorpus/internal/core/domain"
)

// pathQuery reads the source, destination and delta of a path search from
// the named query parameters.
func pathQuery(c *fiber.Ctx, slat, slon, dlat, dlon, delta string) (src, dst domain.GeoPoint, d float64, err error) {
	if src.Lat, err = requiredFloat(c, slat); err != nil {
		return
	}
	if src.Lon, err = requiredFloat(c, slon); err != nil {
		return
	}
	if dst.Lat, err = requiredFloat(c, dlat); err != nil {
		return
	}
	if dst.Lon, err = requiredFloat(c, dlon); err != nil {
		return
	}
	d, err = requiredFloat(c, delta)
	return
}

// FindPathsHandler returns every route and track in the corpus that connects
// the source and destination within delta metres.
func FindPathsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		src, dst, delta, err := pathQuery(c, "src_lat", "src_lon", "dst_lat", "dst_lon", "delta")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		matches, err := deps.Corpus.SearchCorpus(c.UserContext(), src, dst, delta)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{
			"count":   len(matches),
			"matches": matches,
		})
	}
}
