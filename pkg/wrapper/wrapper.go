package wrapper

import "github.com/gofiber/fiber/v2"

type JSONResult struct {
	Code    int         `json:"-"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	// ETag, when set, is sent as the ETag response header.
	ETag string `json:"-"`
}

func ResponseSuccess(httpCode int, data interface{}) JSONResult {
	return JSONResult{
		Code:    httpCode,
		Success: true,
		Message: "Success",
		Data:    data,
	}
}

func ResponseFailed(httpCode int, message string, data interface{}) JSONResult {
	return JSONResult{
		Code:    httpCode,
		Success: false,
		Message: message,
		Data:    data,
	}
}

// WithETag returns a copy of r carrying etag.
func (r JSONResult) WithETag(etag string) JSONResult {
	r.ETag = etag
	return r
}

// Send writes r as the response of c.
func (r JSONResult) Send(c *fiber.Ctx) error {
	if r.ETag != "" {
		c.Set(fiber.HeaderETag, `"`+r.ETag+`"`)
	}
	if r.Code == fiber.StatusNoContent {
		return c.SendStatus(r.Code)
	}
	return c.Status(r.Code).JSON(r)
}
