package http

import (
	"github.com/gofiber/fiber/v2"
)

// requireMirror rejects mirror requests when no database is configured.
func requireMirror(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Mirror == nil {
			return errUnavailable(c, "mirror database not configured")
		}
		return c.Next()
	}
}

// MirrorSyncHandler stores the whole corpus in the mirror.
func MirrorSyncHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := deps.Mirror.StoreAll(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		status, err := deps.Mirror.Status(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"stored": n, "status": status})
	}
}

// MirrorClearHandler deletes every mirror row.
func MirrorClearHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Mirror.Clear(c.UserContext()); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(204)
	}
}

// MirrorStatusHandler reports mirror row counts.
func MirrorStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, err := deps.Mirror.Status(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(status)
	}
}

// MirrorRoutesHandler lists mirrored routes and tracks, ordered by ?order=name|length.
func MirrorRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		routes, err := deps.Mirror.Routes(c.UserContext(), c.Query("order"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(paginate(c, routes))
	}
}

func MirrorFileRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		routes, err := deps.Mirror.RoutesByDocument(c.UserContext(), documentID(c), c.Query("order"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(paginate(c, routes))
	}
}

func MirrorRoutePointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		points, err := deps.Mirror.PointsByRoute(c.UserContext(), param(c, "name"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(paginate(c, points))
	}
}

func MirrorFilePointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		points, err := deps.Mirror.PointsByDocument(c.UserContext(), documentID(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(paginate(c, points))
	}
}
