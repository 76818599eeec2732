package httpapi

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/watch-companion/internal/device"
	"github.com/i474232898/watch-companion/internal/settings"
	"github.com/i474232898/watch-companion/internal/store"
)

var validate = validator.New()

// ConfigBridge is the settings surface the handlers need.
type ConfigBridge interface {
	FormSchema() []settings.Item
	FormURL(returnTo string) string
	HandleClosed(ctx context.Context, response string) (bool, error)
}

// History exposes recorded deliveries.
type History interface {
	GetLatest(kind string) (device.Delivery, error)
	GetRange(kind string, from, to time.Time) ([]device.Delivery, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, bridge ConfigBridge, history History) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "watch-companion"})
	})

	app.Get("/config", func(c *fiber.Ctx) error {
		page, err := renderForm(bridge.FormSchema(), c.Query("return_to"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render configuration form")
		}
		c.Type("html", "utf-8")
		return c.Send(page)
	})

	app.Post("/config", func(c *fiber.Ctx) error {
		response, err := settings.EncodeResponse(
			c.FormValue(settings.FieldAPIKey),
			c.FormValue(settings.FieldReportSourceURL),
		)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to encode configuration")
		}

		// hand the response back to the opener, which reports it via /config/closed
		if returnTo := c.FormValue("return_to"); returnTo != "" {
			location, err := openerRedirect(returnTo, response)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return c.Redirect(location, fiber.StatusSeeOther)
		}

		if _, err := bridge.HandleClosed(c.UserContext(), response); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save configuration")
		}
		page, err := renderSaved()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render page")
		}
		c.Type("html", "utf-8")
		return c.Send(page)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/config/url", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"url": bridge.FormURL(c.Query("return_to"))})
	})

	v1.Get("/config/schema", func(c *fiber.Ctx) error {
		return c.JSON(bridge.FormSchema())
	})

	v1.Post("/config/closed", func(c *fiber.Ctx) error {
		var req closedRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}

		if _, err := bridge.HandleClosed(c.UserContext(), req.Response); err != nil {
			if errors.Is(err, settings.ErrInvalidResponse) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save configuration")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/messages/latest", func(c *fiber.Ctx) error {
		q := kindQuery{Kind: c.Query("kind", device.KindWeather)}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		d, err := history.GetLatest(q.Kind)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no messages delivered yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch messages")
		}

		return c.JSON(newDeliveryView(d))
	})

	v1.Get("/messages/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		deliveries, err := history.GetRange(req.Kind, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no messages for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch message history")
		}

		views := make([]deliveryView, 0, len(deliveries))
		for _, d := range deliveries {
			views = append(views, newDeliveryView(d))
		}

		return c.JSON(fiber.Map{
			"kind":     req.Kind,
			"from":     req.From,
			"to":       req.To,
			"messages": views,
		})
	})
}

// openerScheme is the only return_to scheme the form redirects to.
const openerScheme = "pebblejs"

var errInvalidReturnTo = errors.New("return_to must be a " + openerScheme + ":// URL")

// openerRedirect appends the escaped response as the fragment of returnTo.
// A returnTo that already ends in "#" is not given a second one.
func openerRedirect(returnTo, response string) (string, error) {
	u, err := url.Parse(returnTo)
	if err != nil || u.Scheme != openerScheme {
		return "", errInvalidReturnTo
	}
	if !strings.HasSuffix(returnTo, "#") {
		returnTo += "#"
	}
	return returnTo + url.PathEscape(response), nil
}

type closedRequest struct {
	Response string `json:"response"`
}

type kindQuery struct {
	Kind string `validate:"required,oneof=weather report"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Kind string    `validate:"required,oneof=weather report"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.Kind = c.Query("kind", device.KindWeather)

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

// deliveryView renders message values as JSON numbers, byte arrays as number lists.
type deliveryView struct {
	device.Delivery
	Values map[string]any `json:"values"`
}

func newDeliveryView(d device.Delivery) deliveryView {
	values := make(map[string]any, len(d.Message))
	for _, k := range d.Message.Keys() {
		v := d.Message[k]
		if b, ok := v.([]byte); ok {
			ints := make([]int, len(b))
			for i, x := range b {
				ints[i] = int(x)
			}
			v = ints
		}
		values[strconv.FormatUint(uint64(k), 10)] = v
	}
	return deliveryView{Delivery: d, Values: values}
}
