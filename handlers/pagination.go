package handlers

import (
	"math"

	"github.com/gofiber/fiber/v2"
)

const maxPageSize = 100

func pageParams(c *fiber.Ctx) (page, limit, offset int) {
	page = c.QueryInt("page", 1)
	limit = c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

func pageMeta(total int64, page, limit int) fiber.Map {
	return fiber.Map{
		"total":        total,
		"total_pages":  int(math.Ceil(float64(total) / float64(limit))),
		"current_page": page,
	}
}
